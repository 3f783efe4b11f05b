package business

import (
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Aging bucket labels, ordered from least to most overdue.
const (
	BucketAll     = "all"
	BucketCurrent = "current"
	Bucket1To30   = "1-30"
	Bucket31To60  = "31-60"
	Bucket61To90  = "61-90"
	Bucket90Plus  = "90+"
)

// AgingReport buckets outstanding (Invoiced or Sent) invoice totals by how
// many days past due they are.
type AgingReport struct {
	Buckets map[string]decimal.Decimal `json:"buckets"`
}

// NameAggregate is an amount+count rollup keyed by a display name.
type NameAggregate struct {
	Name   string          `json:"name"`
	Amount decimal.Decimal `json:"amount"`
	Count  int             `json:"count"`
}

// MonthlyRevenue is one month's billed amount, keyed YYYY-MM.
type MonthlyRevenue struct {
	Month  string          `json:"month"`
	Amount decimal.Decimal `json:"amount"`
}

// PaymentRecord is one row of the payments listing: a Paid invoice with its
// settlement fields and resolved party names.
type PaymentRecord struct {
	InvoiceID           uuid.UUID       `json:"invoiceId"`
	InvoiceNumber       string          `json:"invoiceNumber"`
	EntityName          string          `json:"entityName"`
	CustomerName        string          `json:"customerName"`
	PaymentDate         string          `json:"paymentDate"`
	PaymentReceivedIn   string          `json:"paymentReceivedIn,omitempty"`
	Total               decimal.Decimal `json:"total"`
	TotalAmountReceived decimal.Decimal `json:"totalAmountReceived"`
	TDSReceivable       decimal.Decimal `json:"tdsReceivable"`
	GstTDS              decimal.Decimal `json:"gstTds"`
}

// DashboardSummary is the aggregate view consumed by the dashboard. It is
// derived read-only from the invoice, customer and entity sets.
type DashboardSummary struct {
	TotalReceivables decimal.Decimal  `json:"totalReceivables"`
	OverdueCount     int              `json:"overdueCount"`
	DueNext30Days    decimal.Decimal  `json:"dueNext30Days"`
	MonthlyRevenue   []MonthlyRevenue `json:"monthlyRevenue"`
	AmountByStatus   []NameAggregate  `json:"amountByStatus"`
	AmountByEntity   []NameAggregate  `json:"amountByEntity"`
	AmountByPartner  []NameAggregate  `json:"amountByPartner"`
	AmountByCustomer []NameAggregate  `json:"amountByCustomer"`
	TopCustomers     []NameAggregate  `json:"topCustomers"`
}
