package business

import (
	"time"

	"github.com/google/uuid"
)

// Entity is a billing organization, the "from" party on an invoice.
// NextInvoiceNumber is a per-entity monotonic counter: it starts at 1, is
// incremented by exactly one on every successful invoice creation, and is
// never decremented or reused, even when an invoice is later deleted.
type Entity struct {
	ID                uuid.UUID   `json:"id"`
	Name              string      `json:"name"`
	GstRegistered     bool        `json:"isGstRegistered"`
	GSTIN             string      `json:"gstin,omitempty"`
	PAN               string      `json:"pan,omitempty"`
	PlaceOfSupply     string      `json:"placeOfSupply"`
	InvoicePrefix     string      `json:"invoicePrefix"`
	NextInvoiceNumber int64       `json:"nextInvoiceNumber"`
	Address           Address     `json:"address"`
	BankDetails       BankDetails `json:"bankDetails"`
	CreatedAt         time.Time   `json:"createdAt"`
	UpdatedAt         time.Time   `json:"updatedAt"`
}

// DefaultInvoicePrefix is applied when an entity has no prefix configured.
const DefaultInvoicePrefix = "INV-"
