package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/recivo/recivo-api/internal/auth"
	"github.com/recivo/recivo-api/internal/types/api/params"
	"github.com/recivo/recivo-api/internal/types/api/responses"
)

type ProductHandler struct {
	common *CommonServices
}

func NewProductHandler(common *CommonServices) *ProductHandler {
	return &ProductHandler{common: common}
}

// CreateProduct godoc
// @Summary Create a product
// @Description Creates a catalog product used to pre-fill invoice line items
// @Tags products
// @Accept json
// @Produce json
// @Param product body params.ProductParams true "Product data"
// @Success 201 {object} business.Product
// @Failure 400 {object} responses.ErrorResponse
// @Failure 409 {object} responses.ErrorResponse
// @Security BearerAuth
// @Router /products [post]
func (h *ProductHandler) CreateProduct(c *gin.Context) {
	var req params.ProductParams
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, responses.ErrorResponse{Error: "Invalid request body"})
		return
	}

	product, err := h.common.products.CreateProduct(c.Request.Context(), auth.CurrentActor(c), req)
	if err != nil {
		handleServiceError(c, err, "Product not found")
		return
	}

	c.JSON(http.StatusCreated, product)
}

// GetProduct godoc
// @Summary Get a product
// @Description Retrieves a single product by ID
// @Tags products
// @Produce json
// @Param id path string true "Product ID"
// @Success 200 {object} business.Product
// @Failure 404 {object} responses.ErrorResponse
// @Security BearerAuth
// @Router /products/{id} [get]
func (h *ProductHandler) GetProduct(c *gin.Context) {
	id, ok := parseIDParam(c)
	if !ok {
		return
	}

	product, err := h.common.products.GetProduct(c.Request.Context(), id)
	if err != nil {
		handleServiceError(c, err, "Product not found")
		return
	}

	c.JSON(http.StatusOK, product)
}

// ListProducts godoc
// @Summary List products
// @Description Returns all catalog products
// @Tags products
// @Produce json
// @Success 200 {array} business.Product
// @Security BearerAuth
// @Router /products [get]
func (h *ProductHandler) ListProducts(c *gin.Context) {
	products, err := h.common.products.ListProducts(c.Request.Context())
	if err != nil {
		handleServiceError(c, err, "Products not found")
		return
	}

	sendList(c, products)
}

// UpdateProduct godoc
// @Summary Update a product
// @Description Updates a catalog product. Invoices that copied it are unaffected.
// @Tags products
// @Accept json
// @Produce json
// @Param id path string true "Product ID"
// @Param product body params.ProductParams true "Product data"
// @Success 200 {object} business.Product
// @Failure 400 {object} responses.ErrorResponse
// @Failure 404 {object} responses.ErrorResponse
// @Failure 409 {object} responses.ErrorResponse
// @Security BearerAuth
// @Router /products/{id} [put]
func (h *ProductHandler) UpdateProduct(c *gin.Context) {
	id, ok := parseIDParam(c)
	if !ok {
		return
	}

	var req params.ProductParams
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, responses.ErrorResponse{Error: "Invalid request body"})
		return
	}

	product, err := h.common.products.UpdateProduct(c.Request.Context(), auth.CurrentActor(c), id, req)
	if err != nil {
		handleServiceError(c, err, "Product not found")
		return
	}

	c.JSON(http.StatusOK, product)
}

// DeleteProduct godoc
// @Summary Delete a product
// @Description Deletes a catalog product
// @Tags products
// @Produce json
// @Param id path string true "Product ID"
// @Success 200 {object} responses.MessageResponse
// @Failure 404 {object} responses.ErrorResponse
// @Security BearerAuth
// @Router /products/{id} [delete]
func (h *ProductHandler) DeleteProduct(c *gin.Context) {
	id, ok := parseIDParam(c)
	if !ok {
		return
	}

	if err := h.common.products.DeleteProduct(c.Request.Context(), auth.CurrentActor(c), id); err != nil {
		handleServiceError(c, err, "Product not found")
		return
	}

	c.JSON(http.StatusOK, responses.MessageResponse{Message: "Product deleted"})
}
