package services

import (
	"bytes"
	"fmt"

	"github.com/jung-kurt/gofpdf"
	"go.uber.org/zap"

	"github.com/recivo/recivo-api/internal/helpers"
	"github.com/recivo/recivo-api/internal/logger"
	"github.com/recivo/recivo-api/internal/types/business"
)

// PDFRenderer renders an invoice to a PDF document. Satisfied by PDFService
// and mocked in tests.
type PDFRenderer interface {
	RenderInvoice(invoice business.Invoice, entity business.Entity, customer business.Customer) ([]byte, error)
}

// PDFService renders invoice documents.
type PDFService struct {
	logger *zap.Logger
}

// NewPDFService creates a new PDF service
func NewPDFService() *PDFService {
	return &PDFService{logger: logger.Log}
}

// RenderInvoice lays out a single-page A4 invoice: entity header, customer
// block, line item table, tax summary and bank details.
func (s *PDFService) RenderInvoice(invoice business.Invoice, entity business.Entity, customer business.Customer) ([]byte, error) {
	pdf := gofpdf.New("P", "mm", "A4", "")
	pdf.SetAutoPageBreak(true, 18)
	pdf.AddPage()

	// Header
	pdf.SetFont("Helvetica", "B", 16)
	pdf.CellFormat(120, 8, entity.Name, "", 0, "L", false, 0, "")
	pdf.SetFont("Helvetica", "B", 14)
	title := "TAX INVOICE"
	if invoice.Type == business.TypeProforma {
		title = "PROFORMA INVOICE"
	} else if !invoice.GstApplicable {
		title = "INVOICE"
	}
	pdf.CellFormat(70, 8, title, "", 1, "R", false, 0, "")

	pdf.SetFont("Helvetica", "", 9)
	for _, line := range addressLines(entity.Address) {
		pdf.CellFormat(120, 4.5, line, "", 1, "L", false, 0, "")
	}
	if entity.GSTIN != "" {
		pdf.CellFormat(120, 4.5, "GSTIN: "+entity.GSTIN, "", 1, "L", false, 0, "")
	}
	if entity.PAN != "" {
		pdf.CellFormat(120, 4.5, "PAN: "+entity.PAN, "", 1, "L", false, 0, "")
	}
	pdf.Ln(4)

	// Invoice meta and customer block
	pdf.SetFont("Helvetica", "B", 9)
	pdf.CellFormat(95, 5, "Bill To", "B", 0, "L", false, 0, "")
	pdf.CellFormat(95, 5, "", "B", 1, "L", false, 0, "")
	pdf.SetFont("Helvetica", "", 9)

	metaRows := [][2]string{
		{"Invoice No", invoice.InvoiceNumber},
		{"Invoice Date", invoice.InvoiceDate},
		{"Due Date", invoice.DueDate},
	}
	custLines := append([]string{customer.Name}, addressLines(customer.Address)...)
	if customer.GSTIN != "" {
		custLines = append(custLines, "GSTIN: "+customer.GSTIN)
	}
	custLines = append(custLines, "Place of Supply: "+customer.PlaceOfSupply)

	rows := len(custLines)
	if len(metaRows) > rows {
		rows = len(metaRows)
	}
	for i := 0; i < rows; i++ {
		left := ""
		if i < len(custLines) {
			left = custLines[i]
		}
		pdf.CellFormat(95, 4.5, left, "", 0, "L", false, 0, "")
		if i < len(metaRows) {
			pdf.SetFont("Helvetica", "B", 9)
			pdf.CellFormat(30, 4.5, metaRows[i][0], "", 0, "L", false, 0, "")
			pdf.SetFont("Helvetica", "", 9)
			pdf.CellFormat(65, 4.5, metaRows[i][1], "", 1, "L", false, 0, "")
		} else {
			pdf.Ln(-1)
		}
	}
	pdf.Ln(5)

	// Line item table
	pdf.SetFont("Helvetica", "B", 9)
	pdf.SetFillColor(235, 235, 235)
	pdf.CellFormat(72, 6, "Description", "1", 0, "L", true, 0, "")
	pdf.CellFormat(18, 6, "HSN", "1", 0, "C", true, 0, "")
	pdf.CellFormat(18, 6, "Qty", "1", 0, "R", true, 0, "")
	pdf.CellFormat(26, 6, "Rate", "1", 0, "R", true, 0, "")
	pdf.CellFormat(22, 6, "Disc.", "1", 0, "R", true, 0, "")
	pdf.CellFormat(12, 6, "GST%", "1", 0, "R", true, 0, "")
	pdf.CellFormat(22, 6, "Amount", "1", 1, "R", true, 0, "")

	pdf.SetFont("Helvetica", "", 9)
	for _, item := range invoice.Items {
		taxable := item.Quantity.Mul(item.Rate).Sub(item.Discount)
		pdf.CellFormat(72, 6, item.Description, "1", 0, "L", false, 0, "")
		pdf.CellFormat(18, 6, item.HSN, "1", 0, "C", false, 0, "")
		pdf.CellFormat(18, 6, item.Quantity.String(), "1", 0, "R", false, 0, "")
		pdf.CellFormat(26, 6, helpers.FormatINR(item.Rate), "1", 0, "R", false, 0, "")
		pdf.CellFormat(22, 6, helpers.FormatINR(item.Discount), "1", 0, "R", false, 0, "")
		pdf.CellFormat(12, 6, item.GstRate.String(), "1", 0, "R", false, 0, "")
		pdf.CellFormat(22, 6, helpers.FormatINR(taxable), "1", 1, "R", false, 0, "")
	}
	pdf.Ln(3)

	// Totals
	totalsRows := [][2]string{
		{"Gross Total", helpers.FormatINR(invoice.GrossTotal)},
	}
	if invoice.TotalDiscount.IsPositive() {
		totalsRows = append(totalsRows, [2]string{"Discount", helpers.FormatINR(invoice.TotalDiscount)})
	}
	totalsRows = append(totalsRows, [2]string{"Taxable Value", helpers.FormatINR(invoice.TaxableTotal)})
	if invoice.GstApplicable {
		if invoice.GstType == business.GstTypeCGSTSGST {
			totalsRows = append(totalsRows,
				[2]string{"CGST", helpers.FormatINR(invoice.CGST)},
				[2]string{"SGST", helpers.FormatINR(invoice.SGST)})
		} else {
			totalsRows = append(totalsRows, [2]string{"IGST", helpers.FormatINR(invoice.IGST)})
		}
	}
	for _, row := range totalsRows {
		pdf.CellFormat(146, 5.5, row[0], "", 0, "R", false, 0, "")
		pdf.CellFormat(44, 5.5, row[1], "", 1, "R", false, 0, "")
	}
	pdf.SetFont("Helvetica", "B", 10)
	pdf.CellFormat(146, 7, "Total", "T", 0, "R", false, 0, "")
	pdf.CellFormat(44, 7, helpers.FormatINR(invoice.Total), "T", 1, "R", false, 0, "")
	pdf.Ln(4)

	if invoice.Narration != "" {
		pdf.SetFont("Helvetica", "I", 9)
		pdf.MultiCell(190, 4.5, invoice.Narration, "", "L", false)
		pdf.Ln(2)
	}

	if entity.BankDetails.AccountNumber != "" {
		pdf.SetFont("Helvetica", "B", 9)
		pdf.CellFormat(190, 5, "Bank Details", "B", 1, "L", false, 0, "")
		pdf.SetFont("Helvetica", "", 9)
		bank := entity.BankDetails
		pdf.CellFormat(190, 4.5, fmt.Sprintf("%s, %s", bank.AccountHolderName, bank.BankName), "", 1, "L", false, 0, "")
		pdf.CellFormat(190, 4.5, fmt.Sprintf("A/C %s, IFSC %s", bank.AccountNumber, bank.IFSCCode), "", 1, "L", false, 0, "")
	}

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, fmt.Errorf("failed to render invoice pdf: %w", err)
	}
	return buf.Bytes(), nil
}

func addressLines(a business.Address) []string {
	lines := []string{}
	if a.Line1 != "" {
		lines = append(lines, a.Line1)
	}
	if a.Line2 != "" {
		lines = append(lines, a.Line2)
	}
	cityLine := a.City
	if a.State != "" {
		if cityLine != "" {
			cityLine += ", "
		}
		cityLine += a.State
	}
	if a.Pincode != "" {
		if cityLine != "" {
			cityLine += " - "
		}
		cityLine += a.Pincode
	}
	if cityLine != "" {
		lines = append(lines, cityLine)
	}
	if a.Country != "" {
		lines = append(lines, a.Country)
	}
	return lines
}
