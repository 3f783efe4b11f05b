package handlers

import (
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/recivo/recivo-api/internal/auth"
	"github.com/recivo/recivo-api/internal/db"
	"github.com/recivo/recivo-api/internal/types/api/params"
	"github.com/recivo/recivo-api/internal/types/api/responses"
	"github.com/recivo/recivo-api/internal/types/business"
)

type InvoiceHandler struct {
	common *CommonServices
}

func NewInvoiceHandler(common *CommonServices) *InvoiceHandler {
	return &InvoiceHandler{common: common}
}

// listParamsFromQuery reads the optional invoice list filters. Unknown or
// malformed UUID filters are rejected rather than silently ignored.
func listParamsFromQuery(c *gin.Context) (db.ListInvoicesParams, error) {
	p := db.ListInvoicesParams{
		Status:   business.InvoiceStatus(c.Query("status")),
		Type:     business.InvoiceType(c.Query("type")),
		Partner:  c.Query("partner"),
		FromDate: c.Query("fromDate"),
		ToDate:   c.Query("toDate"),
	}

	if raw := c.Query("entityId"); raw != "" {
		id, err := uuid.Parse(raw)
		if err != nil {
			return p, fmt.Errorf("invalid entityId filter")
		}
		p.EntityID = id
	}
	if raw := c.Query("customerId"); raw != "" {
		id, err := uuid.Parse(raw)
		if err != nil {
			return p, fmt.Errorf("invalid customerId filter")
		}
		p.CustomerID = id
	}
	return p, nil
}

// CreateInvoice godoc
// @Summary Create an invoice
// @Description Creates an invoice or proforma. The number, totals, GST split and due date are computed server-side.
// @Tags invoices
// @Accept json
// @Produce json
// @Param invoice body params.CreateInvoiceParams true "Invoice data"
// @Success 201 {object} business.Invoice
// @Failure 400 {object} responses.ErrorResponse
// @Security BearerAuth
// @Router /invoices [post]
func (h *InvoiceHandler) CreateInvoice(c *gin.Context) {
	var req params.CreateInvoiceParams
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, responses.ErrorResponse{Error: "Invalid request body"})
		return
	}

	invoice, err := h.common.invoices.CreateInvoice(c.Request.Context(), auth.CurrentActor(c), req)
	if err != nil {
		handleServiceError(c, err, "Invoice not found")
		return
	}

	c.JSON(http.StatusCreated, invoice)
}

// GetInvoice godoc
// @Summary Get an invoice
// @Description Retrieves a single invoice by ID
// @Tags invoices
// @Produce json
// @Param id path string true "Invoice ID"
// @Success 200 {object} business.Invoice
// @Failure 404 {object} responses.ErrorResponse
// @Security BearerAuth
// @Router /invoices/{id} [get]
func (h *InvoiceHandler) GetInvoice(c *gin.Context) {
	id, ok := parseIDParam(c)
	if !ok {
		return
	}

	invoice, err := h.common.invoices.GetInvoice(c.Request.Context(), id)
	if err != nil {
		handleServiceError(c, err, "Invoice not found")
		return
	}

	c.JSON(http.StatusOK, invoice)
}

// ListInvoices godoc
// @Summary List invoices
// @Description Returns invoices newest first, optionally filtered by status, type, entity, customer, partner or invoice date range.
// @Tags invoices
// @Produce json
// @Param status query string false "Invoice status"
// @Param type query string false "Invoice type"
// @Param entityId query string false "Entity ID"
// @Param customerId query string false "Customer ID"
// @Param partner query string false "Partner name"
// @Param fromDate query string false "Invoice date lower bound (YYYY-MM-DD)"
// @Param toDate query string false "Invoice date upper bound (YYYY-MM-DD)"
// @Success 200 {array} business.Invoice
// @Failure 400 {object} responses.ErrorResponse
// @Security BearerAuth
// @Router /invoices [get]
func (h *InvoiceHandler) ListInvoices(c *gin.Context) {
	p, err := listParamsFromQuery(c)
	if err != nil {
		c.JSON(http.StatusBadRequest, responses.ErrorResponse{Error: err.Error()})
		return
	}

	invoices, err := h.common.invoices.ListInvoices(c.Request.Context(), p)
	if err != nil {
		handleServiceError(c, err, "Invoices not found")
		return
	}

	sendList(c, invoices)
}

// UpdateInvoice godoc
// @Summary Update an invoice
// @Description Edits a Proforma or Invoiced invoice in place, recomputing totals. Sent and Paid invoices are frozen.
// @Tags invoices
// @Accept json
// @Produce json
// @Param id path string true "Invoice ID"
// @Param invoice body params.UpdateInvoiceParams true "Invoice data"
// @Success 200 {object} business.Invoice
// @Failure 400 {object} responses.ErrorResponse
// @Failure 404 {object} responses.ErrorResponse
// @Failure 409 {object} responses.ErrorResponse
// @Security BearerAuth
// @Router /invoices/{id} [put]
func (h *InvoiceHandler) UpdateInvoice(c *gin.Context) {
	id, ok := parseIDParam(c)
	if !ok {
		return
	}

	var req params.UpdateInvoiceParams
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, responses.ErrorResponse{Error: "Invalid request body"})
		return
	}

	invoice, err := h.common.invoices.UpdateInvoice(c.Request.Context(), auth.CurrentActor(c), id, req)
	if err != nil {
		handleServiceError(c, err, "Invoice not found")
		return
	}

	c.JSON(http.StatusOK, invoice)
}

// ConvertToInvoice godoc
// @Summary Convert a proforma to an invoice
// @Description Converts a Proforma into a final invoice, keeping its number and re-resolving GST applicability.
// @Tags invoices
// @Produce json
// @Param id path string true "Invoice ID"
// @Success 200 {object} business.Invoice
// @Failure 404 {object} responses.ErrorResponse
// @Failure 409 {object} responses.ErrorResponse
// @Security BearerAuth
// @Router /invoices/{id}/convert [post]
func (h *InvoiceHandler) ConvertToInvoice(c *gin.Context) {
	id, ok := parseIDParam(c)
	if !ok {
		return
	}

	invoice, err := h.common.invoices.ConvertToInvoice(c.Request.Context(), auth.CurrentActor(c), id)
	if err != nil {
		handleServiceError(c, err, "Invoice not found")
		return
	}

	c.JSON(http.StatusOK, invoice)
}

// SendInvoice godoc
// @Summary Mark an invoice as sent
// @Description Moves an Invoiced invoice to Sent and emails the PDF to the customer. Email failures do not roll back the transition.
// @Tags invoices
// @Produce json
// @Param id path string true "Invoice ID"
// @Success 200 {object} business.Invoice
// @Failure 404 {object} responses.ErrorResponse
// @Failure 409 {object} responses.ErrorResponse
// @Security BearerAuth
// @Router /invoices/{id}/send [post]
func (h *InvoiceHandler) SendInvoice(c *gin.Context) {
	id, ok := parseIDParam(c)
	if !ok {
		return
	}

	invoice, err := h.common.invoices.MarkSent(c.Request.Context(), auth.CurrentActor(c), id)
	if err != nil {
		handleServiceError(c, err, "Invoice not found")
		return
	}

	c.JSON(http.StatusOK, invoice)
}

// MarkInvoicePaid godoc
// @Summary Mark an invoice as paid
// @Description Records payment details against a Sent invoice and moves it to Paid.
// @Tags invoices
// @Accept json
// @Produce json
// @Param id path string true "Invoice ID"
// @Param payment body params.MarkInvoicePaidParams true "Payment data"
// @Success 200 {object} business.Invoice
// @Failure 400 {object} responses.ErrorResponse
// @Failure 404 {object} responses.ErrorResponse
// @Failure 409 {object} responses.ErrorResponse
// @Security BearerAuth
// @Router /invoices/{id}/pay [post]
func (h *InvoiceHandler) MarkInvoicePaid(c *gin.Context) {
	id, ok := parseIDParam(c)
	if !ok {
		return
	}

	var req params.MarkInvoicePaidParams
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, responses.ErrorResponse{Error: "Invalid request body"})
		return
	}

	invoice, err := h.common.invoices.MarkPaid(c.Request.Context(), auth.CurrentActor(c), id, req)
	if err != nil {
		handleServiceError(c, err, "Invoice not found")
		return
	}

	c.JSON(http.StatusOK, invoice)
}

// DeleteInvoice godoc
// @Summary Delete an invoice
// @Description Deletes an invoice in any state. The deletion itself is recorded in the audit trail.
// @Tags invoices
// @Produce json
// @Param id path string true "Invoice ID"
// @Success 200 {object} responses.MessageResponse
// @Failure 404 {object} responses.ErrorResponse
// @Security BearerAuth
// @Router /invoices/{id} [delete]
func (h *InvoiceHandler) DeleteInvoice(c *gin.Context) {
	id, ok := parseIDParam(c)
	if !ok {
		return
	}

	if err := h.common.invoices.DeleteInvoice(c.Request.Context(), auth.CurrentActor(c), id); err != nil {
		handleServiceError(c, err, "Invoice not found")
		return
	}

	c.JSON(http.StatusOK, responses.MessageResponse{Message: "Invoice deleted"})
}

// InvoiceHistory godoc
// @Summary Get an invoice's audit trail
// @Description Returns every audit entry recorded for the invoice, newest first.
// @Tags invoices
// @Produce json
// @Param id path string true "Invoice ID"
// @Success 200 {array} business.AuditLog
// @Failure 404 {object} responses.ErrorResponse
// @Security BearerAuth
// @Router /invoices/{id}/history [get]
func (h *InvoiceHandler) InvoiceHistory(c *gin.Context) {
	id, ok := parseIDParam(c)
	if !ok {
		return
	}

	history, err := h.common.invoices.History(c.Request.Context(), id)
	if err != nil {
		handleServiceError(c, err, "Invoice not found")
		return
	}

	sendList(c, history)
}

// DownloadInvoicePDF godoc
// @Summary Download an invoice as PDF
// @Description Renders the invoice to a PDF document
// @Tags invoices
// @Produce application/pdf
// @Param id path string true "Invoice ID"
// @Success 200 {file} binary
// @Failure 404 {object} responses.ErrorResponse
// @Security BearerAuth
// @Router /invoices/{id}/pdf [get]
func (h *InvoiceHandler) DownloadInvoicePDF(c *gin.Context) {
	id, ok := parseIDParam(c)
	if !ok {
		return
	}

	pdf, filename, err := h.common.invoices.RenderPDF(c.Request.Context(), id)
	if err != nil {
		handleServiceError(c, err, "Invoice not found")
		return
	}

	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
	c.Data(http.StatusOK, "application/pdf", pdf)
}

// ExportInvoices godoc
// @Summary Export invoices to a spreadsheet
// @Description Exports the filtered invoice list as an xlsx workbook. Accepts the same filters as the list endpoint.
// @Tags invoices
// @Produce application/vnd.openxmlformats-officedocument.spreadsheetml.sheet
// @Success 200 {file} binary
// @Failure 400 {object} responses.ErrorResponse
// @Security BearerAuth
// @Router /invoices/export [get]
func (h *InvoiceHandler) ExportInvoices(c *gin.Context) {
	p, err := listParamsFromQuery(c)
	if err != nil {
		c.JSON(http.StatusBadRequest, responses.ErrorResponse{Error: err.Error()})
		return
	}

	workbook, err := h.common.spreadsheets.ExportInvoices(c.Request.Context(), p)
	if err != nil {
		handleServiceError(c, err, "Invoices not found")
		return
	}

	c.Header("Content-Disposition", `attachment; filename="invoices.xlsx"`)
	c.Data(http.StatusOK, "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet", workbook)
}

// ImportInvoices godoc
// @Summary Import invoices from a spreadsheet
// @Description Imports single-line invoices from an uploaded xlsx file, matching entity and customer by name. Rows that fail are skipped and reported.
// @Tags invoices
// @Accept multipart/form-data
// @Produce json
// @Param file formData file true "xlsx file"
// @Success 200 {object} responses.ImportResult
// @Failure 400 {object} responses.ErrorResponse
// @Security BearerAuth
// @Router /invoices/import [post]
func (h *InvoiceHandler) ImportInvoices(c *gin.Context) {
	file, ok := openUpload(c)
	if !ok {
		return
	}
	defer file.Close()

	result, err := h.common.spreadsheets.ImportInvoices(c.Request.Context(), auth.CurrentActor(c), file)
	if err != nil {
		handleServiceError(c, err, "Invoice not found")
		return
	}

	c.JSON(http.StatusOK, result)
}

// ListPayments godoc
// @Summary List payments
// @Description Returns paid invoices as payment rows with settlement fields and resolved party names.
// @Tags invoices
// @Produce json
// @Success 200 {array} business.PaymentRecord
// @Security BearerAuth
// @Router /payments [get]
func (h *InvoiceHandler) ListPayments(c *gin.Context) {
	payments, err := h.common.invoices.ListPayments(c.Request.Context())
	if err != nil {
		handleServiceError(c, err, "Payments not found")
		return
	}

	sendList(c, payments)
}
