package params

import (
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/recivo/recivo-api/internal/types/business"
)

// CreateInvoiceParams is the payload for creating an invoice or proforma.
// The invoice number, totals and due date are always computed server-side;
// any client-supplied values for them are ignored.
type CreateInvoiceParams struct {
	Type         business.InvoiceType `json:"type" binding:"required"`
	EntityID     uuid.UUID            `json:"entityId" binding:"required"`
	CustomerID   uuid.UUID            `json:"customerId" binding:"required"`
	Partner      string               `json:"partner"`
	InvoiceDate  string               `json:"invoiceDate" binding:"required"`
	PaymentTerms int                  `json:"paymentTerms"`
	Items        []business.LineItem  `json:"items" binding:"required"`
	Narration    string               `json:"narration"`
}

// UpdateInvoiceParams is the payload for editing a Proforma or Invoiced
// invoice in place.
type UpdateInvoiceParams struct {
	CustomerID   uuid.UUID           `json:"customerId" binding:"required"`
	Partner      string              `json:"partner"`
	InvoiceDate  string              `json:"invoiceDate" binding:"required"`
	PaymentTerms int                 `json:"paymentTerms"`
	Items        []business.LineItem `json:"items" binding:"required"`
	Narration    string              `json:"narration"`
}

// MarkInvoicePaidParams records the settlement of a Sent invoice.
type MarkInvoicePaidParams struct {
	PaymentDate         string          `json:"paymentDate" binding:"required"`
	PaymentReceivedIn   string          `json:"paymentReceivedIn"`
	TotalAmountReceived decimal.Decimal `json:"totalAmountReceived"`
	TDSReceivable       decimal.Decimal `json:"tdsReceivable"`
}
