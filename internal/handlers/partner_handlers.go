package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/recivo/recivo-api/internal/auth"
	"github.com/recivo/recivo-api/internal/types/api/params"
	"github.com/recivo/recivo-api/internal/types/api/responses"
)

type PartnerHandler struct {
	common *CommonServices
}

func NewPartnerHandler(common *CommonServices) *PartnerHandler {
	return &PartnerHandler{common: common}
}

// CreatePartner godoc
// @Summary Create a partner
// @Description Creates a partner tag attachable to invoices
// @Tags partners
// @Accept json
// @Produce json
// @Param partner body params.PartnerParams true "Partner data"
// @Success 201 {object} business.Partner
// @Failure 400 {object} responses.ErrorResponse
// @Failure 409 {object} responses.ErrorResponse
// @Security BearerAuth
// @Router /partners [post]
func (h *PartnerHandler) CreatePartner(c *gin.Context) {
	var req params.PartnerParams
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, responses.ErrorResponse{Error: "Invalid request body"})
		return
	}

	partner, err := h.common.partners.CreatePartner(c.Request.Context(), auth.CurrentActor(c), req)
	if err != nil {
		handleServiceError(c, err, "Partner not found")
		return
	}

	c.JSON(http.StatusCreated, partner)
}

// GetPartner godoc
// @Summary Get a partner
// @Description Retrieves a single partner by ID
// @Tags partners
// @Produce json
// @Param id path string true "Partner ID"
// @Success 200 {object} business.Partner
// @Failure 404 {object} responses.ErrorResponse
// @Security BearerAuth
// @Router /partners/{id} [get]
func (h *PartnerHandler) GetPartner(c *gin.Context) {
	id, ok := parseIDParam(c)
	if !ok {
		return
	}

	partner, err := h.common.partners.GetPartner(c.Request.Context(), id)
	if err != nil {
		handleServiceError(c, err, "Partner not found")
		return
	}

	c.JSON(http.StatusOK, partner)
}

// ListPartners godoc
// @Summary List partners
// @Description Returns all partner tags
// @Tags partners
// @Produce json
// @Success 200 {array} business.Partner
// @Security BearerAuth
// @Router /partners [get]
func (h *PartnerHandler) ListPartners(c *gin.Context) {
	partners, err := h.common.partners.ListPartners(c.Request.Context())
	if err != nil {
		handleServiceError(c, err, "Partners not found")
		return
	}

	sendList(c, partners)
}

// UpdatePartner godoc
// @Summary Update a partner
// @Description Updates a partner tag. Renames are refused while invoices carry the old name.
// @Tags partners
// @Accept json
// @Produce json
// @Param id path string true "Partner ID"
// @Param partner body params.PartnerParams true "Partner data"
// @Success 200 {object} business.Partner
// @Failure 400 {object} responses.ErrorResponse
// @Failure 404 {object} responses.ErrorResponse
// @Failure 409 {object} responses.ErrorResponse
// @Security BearerAuth
// @Router /partners/{id} [put]
func (h *PartnerHandler) UpdatePartner(c *gin.Context) {
	id, ok := parseIDParam(c)
	if !ok {
		return
	}

	var req params.PartnerParams
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, responses.ErrorResponse{Error: "Invalid request body"})
		return
	}

	partner, err := h.common.partners.UpdatePartner(c.Request.Context(), auth.CurrentActor(c), id, req)
	if err != nil {
		handleServiceError(c, err, "Partner not found")
		return
	}

	c.JSON(http.StatusOK, partner)
}

// DeletePartner godoc
// @Summary Delete a partner
// @Description Deletes a partner tag. Refused while any invoice carries it.
// @Tags partners
// @Produce json
// @Param id path string true "Partner ID"
// @Success 200 {object} responses.MessageResponse
// @Failure 404 {object} responses.ErrorResponse
// @Failure 409 {object} responses.ErrorResponse
// @Security BearerAuth
// @Router /partners/{id} [delete]
func (h *PartnerHandler) DeletePartner(c *gin.Context) {
	id, ok := parseIDParam(c)
	if !ok {
		return
	}

	if err := h.common.partners.DeletePartner(c.Request.Context(), auth.CurrentActor(c), id); err != nil {
		handleServiceError(c, err, "Partner not found")
		return
	}

	c.JSON(http.StatusOK, responses.MessageResponse{Message: "Partner deleted"})
}
