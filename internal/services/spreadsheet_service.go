package services

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/xuri/excelize/v2"
	"go.uber.org/zap"

	"github.com/recivo/recivo-api/internal/db"
	"github.com/recivo/recivo-api/internal/logger"
	"github.com/recivo/recivo-api/internal/types/api/params"
	"github.com/recivo/recivo-api/internal/types/api/responses"
	"github.com/recivo/recivo-api/internal/types/business"
)

// SpreadsheetService exports listings to and imports bulk rows from xlsx
// workbooks. Imports go through the regular services so every row gets the
// same validation, uniqueness checks and audit entries as a manual create.
type SpreadsheetService struct {
	queries   db.Querier
	entities  *EntityService
	customers *CustomerService
	invoices  *InvoiceService
	logger    *zap.Logger
}

// NewSpreadsheetService creates a new spreadsheet service
func NewSpreadsheetService(queries db.Querier, entities *EntityService, customers *CustomerService, invoices *InvoiceService) *SpreadsheetService {
	return &SpreadsheetService{
		queries:   queries,
		entities:  entities,
		customers: customers,
		invoices:  invoices,
		logger:    logger.Log,
	}
}

var invoiceExportHeader = []string{
	"Invoice Number", "Type", "Status", "Entity", "Customer", "Partner",
	"Invoice Date", "Due Date", "Taxable Total", "IGST", "CGST", "SGST", "Total",
}

// ExportInvoices writes the filtered invoice listing into a workbook and
// returns the serialized file.
func (s *SpreadsheetService) ExportInvoices(ctx context.Context, p db.ListInvoicesParams) ([]byte, error) {
	invoices, err := s.queries.ListInvoices(ctx, p)
	if err != nil {
		return nil, fmt.Errorf("failed to list invoices: %w", err)
	}
	entities, err := s.queries.ListEntities(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list entities: %w", err)
	}
	customers, err := s.queries.ListCustomers(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list customers: %w", err)
	}

	entityNames := map[string]string{}
	for _, e := range entities {
		entityNames[e.ID.String()] = e.Name
	}
	customerNames := map[string]string{}
	for _, c := range customers {
		customerNames[c.ID.String()] = c.Name
	}

	rows := make([][]interface{}, 0, len(invoices))
	for _, inv := range invoices {
		rows = append(rows, []interface{}{
			inv.InvoiceNumber,
			string(inv.Type),
			string(inv.Status),
			entityNames[inv.EntityID.String()],
			customerNames[inv.CustomerID.String()],
			inv.Partner,
			inv.InvoiceDate,
			inv.DueDate,
			inv.TaxableTotal.InexactFloat64(),
			inv.IGST.InexactFloat64(),
			inv.CGST.InexactFloat64(),
			inv.SGST.InexactFloat64(),
			inv.Total.InexactFloat64(),
		})
	}
	return writeWorkbook("Invoices", invoiceExportHeader, rows)
}

var customerExportHeader = []string{
	"Name", "GSTIN", "PAN", "Place Of Supply", "Email", "Phone",
}

// ExportCustomers writes the customer master into a workbook. The column
// layout round-trips through ImportCustomers.
func (s *SpreadsheetService) ExportCustomers(ctx context.Context) ([]byte, error) {
	customers, err := s.queries.ListCustomers(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list customers: %w", err)
	}

	rows := make([][]interface{}, 0, len(customers))
	for _, c := range customers {
		rows = append(rows, []interface{}{
			c.Name, c.GSTIN, c.PAN, c.PlaceOfSupply, c.Email, c.Phone,
		})
	}
	return writeWorkbook("Customers", customerExportHeader, rows)
}

func writeWorkbook(sheet string, header []string, rows [][]interface{}) ([]byte, error) {
	f := excelize.NewFile()
	defer func() { _ = f.Close() }()

	if err := f.SetSheetName("Sheet1", sheet); err != nil {
		return nil, fmt.Errorf("failed to name sheet: %w", err)
	}
	for col, title := range header {
		cell, _ := excelize.CoordinatesToCellName(col+1, 1)
		if err := f.SetCellValue(sheet, cell, title); err != nil {
			return nil, fmt.Errorf("failed to write header: %w", err)
		}
	}
	for i, row := range rows {
		for col, value := range row {
			cell, _ := excelize.CoordinatesToCellName(col+1, i+2)
			if err := f.SetCellValue(sheet, cell, value); err != nil {
				return nil, fmt.Errorf("failed to write row %d: %w", i+2, err)
			}
		}
	}

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, fmt.Errorf("failed to serialize workbook: %w", err)
	}
	return buf.Bytes(), nil
}

// sheetTable is the parsed first sheet of an upload: data rows plus a
// normalized header index. Header keys are lowercased with spaces removed,
// so "Place Of Supply", "PlaceOfSupply" and "place of supply" all match.
type sheetTable struct {
	rows    [][]string
	columns map[string]int
}

func readSheet(r io.Reader, required ...string) (*sheetTable, error) {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return nil, fmt.Errorf("%w: not a readable xlsx file", ErrInvalidInput)
	}
	defer func() { _ = f.Close() }()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, fmt.Errorf("%w: workbook has no sheets", ErrInvalidInput)
	}
	rows, err := f.GetRows(sheets[0])
	if err != nil {
		return nil, fmt.Errorf("failed to read sheet: %w", err)
	}
	if len(rows) < 2 {
		return nil, fmt.Errorf("%w: sheet has no data rows", ErrInvalidInput)
	}

	columns := map[string]int{}
	for i, title := range rows[0] {
		key := strings.ToLower(strings.ReplaceAll(strings.TrimSpace(title), " ", ""))
		if key != "" {
			columns[key] = i
		}
	}
	for _, key := range required {
		if _, ok := columns[key]; !ok {
			return nil, fmt.Errorf("%w: header row must contain a %q column", ErrInvalidInput, key)
		}
	}
	return &sheetTable{rows: rows[1:], columns: columns}, nil
}

func (t *sheetTable) cell(row []string, key string) string {
	idx, ok := t.columns[key]
	if !ok || idx >= len(row) {
		return ""
	}
	return strings.TrimSpace(row[idx])
}

// ImportCustomers reads customer rows from the first sheet of an xlsx
// upload. The header row must contain at least a Name column; rows that
// fail validation or collide with existing names are skipped and reported,
// never aborting the rest of the file.
func (s *SpreadsheetService) ImportCustomers(ctx context.Context, actor business.AuditActor, r io.Reader) (responses.ImportResult, error) {
	table, err := readSheet(r, "name")
	if err != nil {
		return responses.ImportResult{}, err
	}

	result := responses.ImportResult{}
	for i, row := range table.rows {
		rowNum := i + 2
		p := params.CustomerParams{
			Name:          table.cell(row, "name"),
			GSTIN:         table.cell(row, "gstin"),
			PAN:           table.cell(row, "pan"),
			PlaceOfSupply: table.cell(row, "placeofsupply"),
			Email:         table.cell(row, "email"),
			Phone:         table.cell(row, "phone"),
		}
		if p.Name == "" {
			continue
		}

		if _, err := s.customers.CreateCustomer(ctx, actor, p); err != nil {
			result.Skipped++
			result.Errors = append(result.Errors, fmt.Sprintf("row %d: %v", rowNum, err))
			continue
		}
		result.Imported++
	}

	s.logger.Info("Customer import finished",
		zap.Int("imported", result.Imported),
		zap.Int("skipped", result.Skipped))
	return result, nil
}

// ImportEntities reads billing entity rows from an xlsx upload. Same row
// semantics as ImportCustomers.
func (s *SpreadsheetService) ImportEntities(ctx context.Context, actor business.AuditActor, r io.Reader) (responses.ImportResult, error) {
	table, err := readSheet(r, "name")
	if err != nil {
		return responses.ImportResult{}, err
	}

	result := responses.ImportResult{}
	for i, row := range table.rows {
		rowNum := i + 2
		p := params.EntityParams{
			Name:          table.cell(row, "name"),
			GSTIN:         table.cell(row, "gstin"),
			PAN:           table.cell(row, "pan"),
			PlaceOfSupply: table.cell(row, "placeofsupply"),
			InvoicePrefix: table.cell(row, "invoiceprefix"),
		}
		if p.Name == "" {
			continue
		}

		if _, err := s.entities.CreateEntity(ctx, actor, p); err != nil {
			result.Skipped++
			result.Errors = append(result.Errors, fmt.Sprintf("row %d: %v", rowNum, err))
			continue
		}
		result.Imported++
	}

	s.logger.Info("Entity import finished",
		zap.Int("imported", result.Imported),
		zap.Int("skipped", result.Skipped))
	return result, nil
}

// ImportInvoices reads one single-line invoice per row. Entity and customer
// are matched by case-insensitive name. A row carrying only an Amount column
// imports as quantity 1 at that rate. Each created invoice allocates a
// number and writes an audit entry exactly like a manual create.
func (s *SpreadsheetService) ImportInvoices(ctx context.Context, actor business.AuditActor, r io.Reader) (responses.ImportResult, error) {
	table, err := readSheet(r, "entity", "customer", "invoicedate", "description")
	if err != nil {
		return responses.ImportResult{}, err
	}

	entities, err := s.queries.ListEntities(ctx)
	if err != nil {
		return responses.ImportResult{}, fmt.Errorf("failed to list entities: %w", err)
	}
	customers, err := s.queries.ListCustomers(ctx)
	if err != nil {
		return responses.ImportResult{}, fmt.Errorf("failed to list customers: %w", err)
	}

	entityIDs := make(map[string]uuid.UUID, len(entities))
	for _, e := range entities {
		entityIDs[strings.ToLower(e.Name)] = e.ID
	}
	customerIDs := make(map[string]uuid.UUID, len(customers))
	for _, c := range customers {
		customerIDs[strings.ToLower(c.Name)] = c.ID
	}

	result := responses.ImportResult{}
	for i, row := range table.rows {
		rowNum := i + 2

		skip := func(format string, args ...interface{}) {
			result.Skipped++
			result.Errors = append(result.Errors, fmt.Sprintf("row %d: ", rowNum)+fmt.Sprintf(format, args...))
		}

		entityName := table.cell(row, "entity")
		customerName := table.cell(row, "customer")
		if entityName == "" && customerName == "" && table.cell(row, "description") == "" {
			continue
		}

		entityID, ok := entityIDs[strings.ToLower(entityName)]
		if !ok {
			skip("unknown entity %q", entityName)
			continue
		}
		customerID, ok := customerIDs[strings.ToLower(customerName)]
		if !ok {
			skip("unknown customer %q", customerName)
			continue
		}

		item, err := lineItemFromRow(table, row)
		if err != nil {
			skip("%v", err)
			continue
		}

		invoiceType := business.InvoiceType(table.cell(row, "type"))
		if invoiceType == "" {
			invoiceType = business.TypeInvoice
		}
		terms := 0
		if raw := table.cell(row, "paymentterms"); raw != "" {
			if _, err := fmt.Sscanf(raw, "%d", &terms); err != nil {
				skip("invalid payment terms %q", raw)
				continue
			}
		}

		_, err = s.invoices.CreateInvoice(ctx, actor, params.CreateInvoiceParams{
			Type:         invoiceType,
			EntityID:     entityID,
			CustomerID:   customerID,
			Partner:      table.cell(row, "partner"),
			InvoiceDate:  table.cell(row, "invoicedate"),
			PaymentTerms: terms,
			Items:        []business.LineItem{item},
			Narration:    table.cell(row, "narration"),
		})
		if err != nil {
			skip("%v", err)
			continue
		}
		result.Imported++
	}

	s.logger.Info("Invoice import finished",
		zap.Int("imported", result.Imported),
		zap.Int("skipped", result.Skipped))
	return result, nil
}

func lineItemFromRow(table *sheetTable, row []string) (business.LineItem, error) {
	parse := func(key string) (decimal.Decimal, error) {
		raw := table.cell(row, key)
		if raw == "" {
			return decimal.Zero, nil
		}
		value, err := decimal.NewFromString(raw)
		if err != nil {
			return decimal.Zero, fmt.Errorf("invalid %s %q", key, raw)
		}
		return value, nil
	}

	quantity, err := parse("quantity")
	if err != nil {
		return business.LineItem{}, err
	}
	rate, err := parse("rate")
	if err != nil {
		return business.LineItem{}, err
	}
	discount, err := parse("discount")
	if err != nil {
		return business.LineItem{}, err
	}
	gstRate, err := parse("gstrate")
	if err != nil {
		return business.LineItem{}, err
	}

	// Amount-only rows import as a single unit at that rate.
	if quantity.IsZero() && rate.IsZero() {
		amount, err := parse("amount")
		if err != nil {
			return business.LineItem{}, err
		}
		if !amount.IsZero() {
			quantity = decimal.NewFromInt(1)
			rate = amount
		}
	}

	return business.LineItem{
		Description: table.cell(row, "description"),
		Quantity:    quantity,
		Rate:        rate,
		Discount:    discount,
		GstRate:     gstRate,
		HSN:         table.cell(row, "hsn"),
	}, nil
}
