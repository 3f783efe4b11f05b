package business

import (
	"time"

	"github.com/google/uuid"
)

// Product is a catalog item used only to pre-fill invoice line items; it has
// no effect on a line item once copied onto it. Names are unique
// case-insensitively within the catalog.
type Product struct {
	ID        uuid.UUID `json:"id"`
	Name      string    `json:"name"`
	HSN       string    `json:"hsn,omitempty"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// Partner is a free-text categorization tag attachable to an invoice.
// Names are unique case-insensitively.
type Partner struct {
	ID        uuid.UUID `json:"id"`
	Name      string    `json:"name"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}
