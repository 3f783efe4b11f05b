package services

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/recivo/recivo-api/internal/logger"
	"github.com/recivo/recivo-api/internal/types/business"
)

// TaxService derives GST treatment and recomputes invoice totals. It is
// pure computation: totals are never trusted from client input and are
// recalculated immediately before every invoice save.
type TaxService struct {
	logger *zap.Logger
}

// NewTaxService creates a new tax service
func NewTaxService() *TaxService {
	return &TaxService{logger: logger.Log}
}

var (
	decimalHundred = decimal.NewFromInt(100)
	decimalTwo     = decimal.NewFromInt(2)
)

// ResolveGst determines whether GST applies to an invoice between the given
// parties and, if so, which split to use. GST applies only when the billing
// entity is GST registered and the customer's place of supply is not an
// export or SEZ destination. Within-state supplies split into CGST/SGST;
// everything else is IGST.
func (s *TaxService) ResolveGst(entity business.Entity, customer business.Customer) (bool, business.GstType) {
	if !entity.GstRegistered || customer.TaxExempt() {
		return false, ""
	}
	if sameState(entity.PlaceOfSupply, customer.PlaceOfSupply) {
		return true, business.GstTypeCGSTSGST
	}
	return true, business.GstTypeIGST
}

func sameState(a, b string) bool {
	return strings.EqualFold(strings.TrimSpace(a), strings.TrimSpace(b))
}

// ValidateItems rejects line items that cannot produce a sensible amount.
func (s *TaxService) ValidateItems(items []business.LineItem) error {
	if len(items) == 0 {
		return fmt.Errorf("invoice must have at least one line item")
	}
	for i, item := range items {
		n := i + 1
		if strings.TrimSpace(item.Description) == "" {
			return fmt.Errorf("line item %d: description is required", n)
		}
		if item.Quantity.LessThanOrEqual(decimal.Zero) {
			return fmt.Errorf("line item %d: quantity must be positive", n)
		}
		if item.Rate.IsNegative() {
			return fmt.Errorf("line item %d: rate cannot be negative", n)
		}
		if item.Discount.IsNegative() {
			return fmt.Errorf("line item %d: discount cannot be negative", n)
		}
		if item.Discount.GreaterThanOrEqual(item.Rate) && item.Rate.IsPositive() {
			return fmt.Errorf("line item %d: discount must be less than the rate", n)
		}
		if item.GstRate.IsNegative() {
			return fmt.Errorf("line item %d: gst rate cannot be negative", n)
		}
	}
	return nil
}

// ComputeTotals recalculates every derived amount from the line items. The
// discount is a flat per-line amount subtracted once from quantity times
// rate; a discount at or above the rate counts as zero, so rows predating
// validation still total sanely. All results round to two places.
func (s *TaxService) ComputeTotals(items []business.LineItem, gstApplicable bool, gstType business.GstType) business.Totals {
	var t business.Totals
	t.GrossTotal = decimal.Zero
	t.TotalDiscount = decimal.Zero
	t.TaxableTotal = decimal.Zero
	t.TotalGst = decimal.Zero

	for _, item := range items {
		gross := item.Quantity.Mul(item.Rate)
		discount := item.Discount
		if item.Rate.IsPositive() && item.Discount.GreaterThanOrEqual(item.Rate) {
			discount = decimal.Zero
		}
		taxable := gross.Sub(discount)
		if taxable.IsNegative() {
			discount = gross
			taxable = decimal.Zero
		}

		t.GrossTotal = t.GrossTotal.Add(gross)
		t.TotalDiscount = t.TotalDiscount.Add(discount)
		t.TaxableTotal = t.TaxableTotal.Add(taxable)

		if gstApplicable {
			t.TotalGst = t.TotalGst.Add(taxable.Mul(item.GstRate).Div(decimalHundred))
		}
	}

	t.GrossTotal = t.GrossTotal.Round(2)
	t.TotalDiscount = t.TotalDiscount.Round(2)
	t.TaxableTotal = t.TaxableTotal.Round(2)
	t.TotalGst = t.TotalGst.Round(2)
	t.Total = t.TaxableTotal.Add(t.TotalGst)

	t.IGST = decimal.Zero
	t.CGST = decimal.Zero
	t.SGST = decimal.Zero
	if gstApplicable && t.TotalGst.IsPositive() {
		switch gstType {
		case business.GstTypeCGSTSGST:
			half := t.TotalGst.Div(decimalTwo).Round(2)
			t.CGST = half
			t.SGST = t.TotalGst.Sub(half)
		default:
			t.IGST = t.TotalGst
		}
	}
	return t
}
