package business

import (
	"time"

	"github.com/google/uuid"
)

// Special place-of-supply values that suppress GST entirely.
const (
	PlaceOfSupplyExport = "Export"
	PlaceOfSupplySEZ    = "SEZ"
)

// Customer is the "bill-to" party on an invoice.
type Customer struct {
	ID            uuid.UUID `json:"id"`
	Name          string    `json:"name"`
	GstRegistered bool      `json:"isGstRegistered"`
	GSTIN         string    `json:"gstin,omitempty"`
	PAN           string    `json:"pan,omitempty"`
	PlaceOfSupply string    `json:"placeOfSupply"`
	Email         string    `json:"email"`
	Phone         string    `json:"phone"`
	Address       Address   `json:"address"`
	CreatedAt     time.Time `json:"createdAt"`
	UpdatedAt     time.Time `json:"updatedAt"`
}

// TaxExempt reports whether the customer's place of supply suppresses GST
// regardless of the entity's registration status.
func (c Customer) TaxExempt() bool {
	return c.PlaceOfSupply == PlaceOfSupplyExport || c.PlaceOfSupply == PlaceOfSupplySEZ
}
