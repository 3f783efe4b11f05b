package business

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// InvoiceType distinguishes a preliminary proforma from a final invoice.
type InvoiceType string

const (
	TypeInvoice  InvoiceType = "Invoice"
	TypeProforma InvoiceType = "Proforma"
)

// InvoiceStatus is the lifecycle state of an invoice.
type InvoiceStatus string

const (
	StatusProforma InvoiceStatus = "Proforma"
	StatusInvoiced InvoiceStatus = "Invoiced"
	StatusSent     InvoiceStatus = "Sent"
	StatusPaid     InvoiceStatus = "Paid"
)

// GstType selects the tax split applied to an invoice, derived from the
// entity and customer places of supply.
type GstType string

const (
	GstTypeIGST     GstType = "IGST"
	GstTypeCGSTSGST GstType = "CGST/SGST"
)

// DateFormat is the wire format for invoice, due and payment dates.
const DateFormat = "2006-01-02"

// DefaultPaymentTermsDays is applied when no payment terms are given.
const DefaultPaymentTermsDays = 10

// FormatInvoiceNumber renders an allocated counter value with its entity
// prefix, zero-padding the number to at least three digits.
func FormatInvoiceNumber(prefix string, n int64) string {
	return fmt.Sprintf("%s%03d", prefix, n)
}

// statusRank orders the lifecycle states. Transitions may only move forward
// one state at a time; no state is ever skipped.
var statusRank = map[InvoiceStatus]int{
	StatusProforma: 0,
	StatusInvoiced: 1,
	StatusSent:     2,
	StatusPaid:     3,
}

// IsValidStatus reports whether s is a known lifecycle state.
func IsValidStatus(s InvoiceStatus) bool {
	_, ok := statusRank[s]
	return ok
}

// CanTransition reports whether an invoice may move from one lifecycle state
// directly to another. Deletion is permitted from any state and is not part
// of this table.
func CanTransition(from, to InvoiceStatus) bool {
	fr, ok := statusRank[from]
	if !ok {
		return false
	}
	tr, ok := statusRank[to]
	if !ok {
		return false
	}
	return tr == fr+1
}

// Editable reports whether invoice fields may still be mutated in place.
// Sent and Paid invoices are frozen.
func (s InvoiceStatus) Editable() bool {
	return s == StatusProforma || s == StatusInvoiced
}

// Due states surfaced on invoice listings. Derived, never persisted.
const (
	DueStateDue     = "Due"
	DueStateOverdue = "Overdue"
)

// DueStateOn classifies an outstanding invoice against the given date
// (DateFormat). Proforma and Paid invoices have no due state.
func (i Invoice) DueStateOn(today string) string {
	if i.Status != StatusInvoiced && i.Status != StatusSent {
		return ""
	}
	if i.DueDate != "" && i.DueDate < today {
		return DueStateOverdue
	}
	return DueStateDue
}

// LineItem is one row of an invoice. Quantity × Rate − Discount is the
// taxable value; GstRate is a percentage. A discount equal to or exceeding
// the rate is rejected at validation time and ignored by the calculator.
type LineItem struct {
	Description string          `json:"description"`
	Quantity    decimal.Decimal `json:"quantity"`
	Rate        decimal.Decimal `json:"rate"`
	Discount    decimal.Decimal `json:"discount"`
	GstRate     decimal.Decimal `json:"gstRate"`
	HSN         string          `json:"hsn,omitempty"`
}

// Totals are the derived amounts of an invoice. They are recomputed
// immediately before every save and never trusted from client input.
type Totals struct {
	GrossTotal    decimal.Decimal `json:"grossTotal"`
	TotalDiscount decimal.Decimal `json:"totalDiscount"`
	TaxableTotal  decimal.Decimal `json:"taxableTotal"`
	TotalGst      decimal.Decimal `json:"totalGst"`
	Total         decimal.Decimal `json:"total"`
	IGST          decimal.Decimal `json:"igst"`
	CGST          decimal.Decimal `json:"cgst"`
	SGST          decimal.Decimal `json:"sgst"`
}

// PaymentDetails are recorded when an invoice is marked as paid. The amount
// received plus TDS receivable plus the GST-TDS spillover reconciles to the
// invoice total.
type PaymentDetails struct {
	PaymentDate         string          `json:"paymentDate,omitempty"`
	PaymentReceivedIn   string          `json:"paymentReceivedIn,omitempty"`
	TotalAmountReceived decimal.Decimal `json:"totalAmountReceived"`
	TDSReceivable       decimal.Decimal `json:"tdsReceivable"`
	GstTDS              decimal.Decimal `json:"gstTds"`
}

// Invoice is a receivable billing document. The invoice number is immutable
// once assigned; dates use DateFormat.
type Invoice struct {
	ID            uuid.UUID     `json:"id"`
	Type          InvoiceType   `json:"type"`
	Status        InvoiceStatus `json:"status"`
	EntityID      uuid.UUID     `json:"entityId"`
	CustomerID    uuid.UUID     `json:"customerId"`
	Partner       string        `json:"partner"`
	InvoiceNumber string        `json:"invoiceNumber"`
	InvoiceDate   string        `json:"invoiceDate"`
	PaymentTerms  int           `json:"paymentTerms"`
	DueDate       string        `json:"dueDate"`
	GstType       GstType       `json:"gstType"`
	GstApplicable bool          `json:"isGstApplicable"`
	Items         []LineItem    `json:"items"`
	Totals
	Narration string `json:"narration,omitempty"`
	DueStatus string `json:"dueStatus,omitempty"`
	PaymentDetails
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}
