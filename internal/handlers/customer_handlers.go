package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/recivo/recivo-api/internal/auth"
	"github.com/recivo/recivo-api/internal/types/api/params"
	"github.com/recivo/recivo-api/internal/types/api/responses"
)

type CustomerHandler struct {
	common *CommonServices
}

func NewCustomerHandler(common *CommonServices) *CustomerHandler {
	return &CustomerHandler{common: common}
}

// CreateCustomer godoc
// @Summary Create a customer
// @Description Creates a new customer. PAN and place of supply are derived from the GSTIN when left blank.
// @Tags customers
// @Accept json
// @Produce json
// @Param customer body params.CustomerParams true "Customer data"
// @Success 201 {object} business.Customer
// @Failure 400 {object} responses.ErrorResponse
// @Failure 409 {object} responses.ErrorResponse
// @Security BearerAuth
// @Router /customers [post]
func (h *CustomerHandler) CreateCustomer(c *gin.Context) {
	var req params.CustomerParams
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, responses.ErrorResponse{Error: "Invalid request body"})
		return
	}

	customer, err := h.common.customers.CreateCustomer(c.Request.Context(), auth.CurrentActor(c), req)
	if err != nil {
		handleServiceError(c, err, "Customer not found")
		return
	}

	c.JSON(http.StatusCreated, customer)
}

// GetCustomer godoc
// @Summary Get a customer
// @Description Retrieves a single customer by ID
// @Tags customers
// @Produce json
// @Param id path string true "Customer ID"
// @Success 200 {object} business.Customer
// @Failure 404 {object} responses.ErrorResponse
// @Security BearerAuth
// @Router /customers/{id} [get]
func (h *CustomerHandler) GetCustomer(c *gin.Context) {
	id, ok := parseIDParam(c)
	if !ok {
		return
	}

	customer, err := h.common.customers.GetCustomer(c.Request.Context(), id)
	if err != nil {
		handleServiceError(c, err, "Customer not found")
		return
	}

	c.JSON(http.StatusOK, customer)
}

// ListCustomers godoc
// @Summary List customers
// @Description Returns all customers
// @Tags customers
// @Produce json
// @Success 200 {array} business.Customer
// @Security BearerAuth
// @Router /customers [get]
func (h *CustomerHandler) ListCustomers(c *gin.Context) {
	customers, err := h.common.customers.ListCustomers(c.Request.Context())
	if err != nil {
		handleServiceError(c, err, "Customers not found")
		return
	}

	sendList(c, customers)
}

// UpdateCustomer godoc
// @Summary Update a customer
// @Description Updates a customer
// @Tags customers
// @Accept json
// @Produce json
// @Param id path string true "Customer ID"
// @Param customer body params.CustomerParams true "Customer data"
// @Success 200 {object} business.Customer
// @Failure 400 {object} responses.ErrorResponse
// @Failure 404 {object} responses.ErrorResponse
// @Failure 409 {object} responses.ErrorResponse
// @Security BearerAuth
// @Router /customers/{id} [put]
func (h *CustomerHandler) UpdateCustomer(c *gin.Context) {
	id, ok := parseIDParam(c)
	if !ok {
		return
	}

	var req params.CustomerParams
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, responses.ErrorResponse{Error: "Invalid request body"})
		return
	}

	customer, err := h.common.customers.UpdateCustomer(c.Request.Context(), auth.CurrentActor(c), id, req)
	if err != nil {
		handleServiceError(c, err, "Customer not found")
		return
	}

	c.JSON(http.StatusOK, customer)
}

// DeleteCustomer godoc
// @Summary Delete a customer
// @Description Deletes a customer. Refused while any invoice references it.
// @Tags customers
// @Produce json
// @Param id path string true "Customer ID"
// @Success 200 {object} responses.MessageResponse
// @Failure 404 {object} responses.ErrorResponse
// @Failure 409 {object} responses.ErrorResponse
// @Security BearerAuth
// @Router /customers/{id} [delete]
func (h *CustomerHandler) DeleteCustomer(c *gin.Context) {
	id, ok := parseIDParam(c)
	if !ok {
		return
	}

	if err := h.common.customers.DeleteCustomer(c.Request.Context(), auth.CurrentActor(c), id); err != nil {
		handleServiceError(c, err, "Customer not found")
		return
	}

	c.JSON(http.StatusOK, responses.MessageResponse{Message: "Customer deleted"})
}

// ImportCustomers godoc
// @Summary Import customers from a spreadsheet
// @Description Imports customers from an uploaded xlsx file. Rows that fail validation are skipped and reported; the rest are created.
// @Tags customers
// @Accept multipart/form-data
// @Produce json
// @Param file formData file true "xlsx file"
// @Success 200 {object} responses.ImportResult
// @Failure 400 {object} responses.ErrorResponse
// @Security BearerAuth
// @Router /customers/import [post]
func (h *CustomerHandler) ImportCustomers(c *gin.Context) {
	file, ok := openUpload(c)
	if !ok {
		return
	}
	defer file.Close()

	result, err := h.common.spreadsheets.ImportCustomers(c.Request.Context(), auth.CurrentActor(c), file)
	if err != nil {
		handleServiceError(c, err, "Customer not found")
		return
	}

	c.JSON(http.StatusOK, result)
}

// ExportCustomers godoc
// @Summary Export customers to a spreadsheet
// @Description Exports the customer master as an xlsx workbook whose layout round-trips through the import endpoint.
// @Tags customers
// @Produce application/vnd.openxmlformats-officedocument.spreadsheetml.sheet
// @Success 200 {file} binary
// @Security BearerAuth
// @Router /customers/export [get]
func (h *CustomerHandler) ExportCustomers(c *gin.Context) {
	workbook, err := h.common.spreadsheets.ExportCustomers(c.Request.Context())
	if err != nil {
		handleServiceError(c, err, "Customers not found")
		return
	}

	c.Header("Content-Disposition", `attachment; filename="customers.xlsx"`)
	c.Data(http.StatusOK, "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet", workbook)
}
