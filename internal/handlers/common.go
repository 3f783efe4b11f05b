package handlers

import (
	"errors"
	"mime/multipart"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/recivo/recivo-api/internal/db"
	"github.com/recivo/recivo-api/internal/logger"
	"github.com/recivo/recivo-api/internal/services"
	"github.com/recivo/recivo-api/internal/types/api/responses"
)

// CommonServices holds common dependencies used across handlers
type CommonServices struct {
	entities     *services.EntityService
	customers    *services.CustomerService
	products     *services.ProductService
	partners     *services.PartnerService
	invoices     *services.InvoiceService
	audit        *services.AuditService
	reports      *services.ReportService
	users        *services.UserService
	spreadsheets *services.SpreadsheetService
}

// NewCommonServices creates a new instance of CommonServices
func NewCommonServices(
	entities *services.EntityService,
	customers *services.CustomerService,
	products *services.ProductService,
	partners *services.PartnerService,
	invoices *services.InvoiceService,
	audit *services.AuditService,
	reports *services.ReportService,
	users *services.UserService,
	spreadsheets *services.SpreadsheetService,
) *CommonServices {
	return &CommonServices{
		entities:     entities,
		customers:    customers,
		products:     products,
		partners:     partners,
		invoices:     invoices,
		audit:        audit,
		reports:      reports,
		users:        users,
		spreadsheets: spreadsheets,
	}
}

// sendError logs the error and sends a JSON error response.
func sendError(c *gin.Context, statusCode int, message string, err error) {
	logger.Error(message,
		zap.Error(err),
		zap.String("path", c.Request.URL.Path),
		zap.String("method", c.Request.Method),
	)
	c.JSON(statusCode, responses.ErrorResponse{Error: message})
}

// handleServiceError maps service layer errors to HTTP status codes. The
// message is used verbatim for conflict and validation failures so callers
// see what was wrong with the request.
func handleServiceError(c *gin.Context, err error, notFoundMsg string) {
	if err == nil {
		return
	}

	switch {
	case errors.Is(err, db.ErrNotFound):
		sendError(c, http.StatusNotFound, notFoundMsg, err)
	case errors.Is(err, db.ErrDuplicateName), errors.Is(err, db.ErrDuplicateKey), errors.Is(err, services.ErrConflict):
		sendError(c, http.StatusConflict, err.Error(), err)
	case errors.Is(err, services.ErrInvalidInput):
		sendError(c, http.StatusBadRequest, err.Error(), err)
	case errors.Is(err, services.ErrForbidden):
		sendError(c, http.StatusForbidden, err.Error(), err)
	default:
		sendError(c, http.StatusInternalServerError, "Internal server error", err)
	}
}

// parseIDParam parses the :id path parameter as a UUID, replying 400 itself
// when the value is malformed.
func parseIDParam(c *gin.Context) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, responses.ErrorResponse{Error: "Invalid ID format"})
		return uuid.Nil, false
	}
	return id, true
}

// openUpload fetches the "file" form upload, replying 400 itself when it is
// missing or unreadable. The caller must close the returned file.
func openUpload(c *gin.Context) (multipart.File, bool) {
	header, err := c.FormFile("file")
	if err != nil {
		c.JSON(http.StatusBadRequest, responses.ErrorResponse{Error: "Missing file upload"})
		return nil, false
	}
	file, err := header.Open()
	if err != nil {
		sendError(c, http.StatusBadRequest, "Failed to read upload", err)
		return nil, false
	}
	return file, true
}

// sendList sends a uniform list envelope.
func sendList(c *gin.Context, items interface{}) {
	c.JSON(http.StatusOK, gin.H{
		"object": "list",
		"data":   items,
	})
}
