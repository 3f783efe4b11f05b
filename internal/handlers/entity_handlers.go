package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/recivo/recivo-api/internal/auth"
	"github.com/recivo/recivo-api/internal/types/api/params"
	"github.com/recivo/recivo-api/internal/types/api/responses"
)

type EntityHandler struct {
	common *CommonServices
}

func NewEntityHandler(common *CommonServices) *EntityHandler {
	return &EntityHandler{common: common}
}

// CreateEntity godoc
// @Summary Create a billing entity
// @Description Creates a new billing entity. PAN and place of supply are derived from the GSTIN when left blank.
// @Tags entities
// @Accept json
// @Produce json
// @Param entity body params.EntityParams true "Entity data"
// @Success 201 {object} business.Entity
// @Failure 400 {object} responses.ErrorResponse
// @Failure 409 {object} responses.ErrorResponse
// @Security BearerAuth
// @Router /entities [post]
func (h *EntityHandler) CreateEntity(c *gin.Context) {
	var req params.EntityParams
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, responses.ErrorResponse{Error: "Invalid request body"})
		return
	}

	entity, err := h.common.entities.CreateEntity(c.Request.Context(), auth.CurrentActor(c), req)
	if err != nil {
		handleServiceError(c, err, "Entity not found")
		return
	}

	c.JSON(http.StatusCreated, entity)
}

// GetEntity godoc
// @Summary Get a billing entity
// @Description Retrieves a single billing entity by ID
// @Tags entities
// @Produce json
// @Param id path string true "Entity ID"
// @Success 200 {object} business.Entity
// @Failure 404 {object} responses.ErrorResponse
// @Security BearerAuth
// @Router /entities/{id} [get]
func (h *EntityHandler) GetEntity(c *gin.Context) {
	id, ok := parseIDParam(c)
	if !ok {
		return
	}

	entity, err := h.common.entities.GetEntity(c.Request.Context(), id)
	if err != nil {
		handleServiceError(c, err, "Entity not found")
		return
	}

	c.JSON(http.StatusOK, entity)
}

// ListEntities godoc
// @Summary List billing entities
// @Description Returns all billing entities
// @Tags entities
// @Produce json
// @Success 200 {array} business.Entity
// @Security BearerAuth
// @Router /entities [get]
func (h *EntityHandler) ListEntities(c *gin.Context) {
	entities, err := h.common.entities.ListEntities(c.Request.Context())
	if err != nil {
		handleServiceError(c, err, "Entities not found")
		return
	}

	sendList(c, entities)
}

// UpdateEntity godoc
// @Summary Update a billing entity
// @Description Updates a billing entity. The invoice number counter is never touched by updates.
// @Tags entities
// @Accept json
// @Produce json
// @Param id path string true "Entity ID"
// @Param entity body params.EntityParams true "Entity data"
// @Success 200 {object} business.Entity
// @Failure 400 {object} responses.ErrorResponse
// @Failure 404 {object} responses.ErrorResponse
// @Failure 409 {object} responses.ErrorResponse
// @Security BearerAuth
// @Router /entities/{id} [put]
func (h *EntityHandler) UpdateEntity(c *gin.Context) {
	id, ok := parseIDParam(c)
	if !ok {
		return
	}

	var req params.EntityParams
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, responses.ErrorResponse{Error: "Invalid request body"})
		return
	}

	entity, err := h.common.entities.UpdateEntity(c.Request.Context(), auth.CurrentActor(c), id, req)
	if err != nil {
		handleServiceError(c, err, "Entity not found")
		return
	}

	c.JSON(http.StatusOK, entity)
}

// DeleteEntity godoc
// @Summary Delete a billing entity
// @Description Deletes a billing entity. Refused while any invoice references it.
// @Tags entities
// @Produce json
// @Param id path string true "Entity ID"
// @Success 200 {object} responses.MessageResponse
// @Failure 404 {object} responses.ErrorResponse
// @Failure 409 {object} responses.ErrorResponse
// @Security BearerAuth
// @Router /entities/{id} [delete]
func (h *EntityHandler) DeleteEntity(c *gin.Context) {
	id, ok := parseIDParam(c)
	if !ok {
		return
	}

	if err := h.common.entities.DeleteEntity(c.Request.Context(), auth.CurrentActor(c), id); err != nil {
		handleServiceError(c, err, "Entity not found")
		return
	}

	c.JSON(http.StatusOK, responses.MessageResponse{Message: "Entity deleted"})
}

// ImportEntities godoc
// @Summary Import billing entities from a spreadsheet
// @Description Imports billing entities from an uploaded xlsx file. Rows that fail validation are skipped and reported.
// @Tags entities
// @Accept multipart/form-data
// @Produce json
// @Param file formData file true "xlsx file"
// @Success 200 {object} responses.ImportResult
// @Failure 400 {object} responses.ErrorResponse
// @Security BearerAuth
// @Router /entities/import [post]
func (h *EntityHandler) ImportEntities(c *gin.Context) {
	file, ok := openUpload(c)
	if !ok {
		return
	}
	defer file.Close()

	result, err := h.common.spreadsheets.ImportEntities(c.Request.Context(), auth.CurrentActor(c), file)
	if err != nil {
		handleServiceError(c, err, "Entity not found")
		return
	}

	c.JSON(http.StatusOK, result)
}
