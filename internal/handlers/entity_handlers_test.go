package handlers

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	"github.com/recivo/recivo-api/internal/constants"
	"github.com/recivo/recivo-api/internal/db"
	"github.com/recivo/recivo-api/internal/logger"
	"github.com/recivo/recivo-api/internal/services"
	"github.com/recivo/recivo-api/internal/testutil"
	"github.com/recivo/recivo-api/internal/types/business"
)

func init() {
	logger.InitLogger(constants.TestEnvironment)
	gin.SetMode(gin.TestMode)
}

func newEntityRouter(queries *testutil.MockQuerier) *gin.Engine {
	audit := services.NewAuditService(queries)
	common := NewCommonServices(
		services.NewEntityService(queries, audit),
		nil, nil, nil, nil, audit, nil, nil, nil,
	)
	handler := NewEntityHandler(common)

	router := gin.New()
	router.POST("/entities", handler.CreateEntity)
	router.GET("/entities/:id", handler.GetEntity)
	router.GET("/entities", handler.ListEntities)
	router.PUT("/entities/:id", handler.UpdateEntity)
	router.DELETE("/entities/:id", handler.DeleteEntity)
	return router
}

func performJSON(t *testing.T, router *gin.Engine, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()

	var reader *strings.Reader
	if body == "" {
		reader = strings.NewReader("")
	} else {
		reader = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	recorder := httptest.NewRecorder()
	router.ServeHTTP(recorder, req)
	return recorder
}

func TestCreateEntity(t *testing.T) {
	queries := new(testutil.MockQuerier)
	router := newEntityRouter(queries)

	queries.On("EntityNameExists", mock.Anything, "Acme Exports", uuid.Nil).Return(false, nil)
	queries.On("CreateEntity", mock.Anything, mock.MatchedBy(func(e business.Entity) bool {
		return e.Name == "Acme Exports" && e.NextInvoiceNumber == 1
	})).Return(business.Entity{ID: uuid.New(), Name: "Acme Exports", NextInvoiceNumber: 1, InvoicePrefix: "ACME-"}, nil)
	queries.On("CreateAuditLog", mock.Anything, mock.AnythingOfType("business.AuditLog")).
		Return(business.AuditLog{}, nil)

	recorder := performJSON(t, router, http.MethodPost, "/entities",
		`{"name":"Acme Exports","gstin":"27AAPFU0939F1ZV","invoicePrefix":"ACME-"}`)

	assert.Equal(t, http.StatusCreated, recorder.Code)

	var created business.Entity
	assert.NoError(t, json.Unmarshal(recorder.Body.Bytes(), &created))
	assert.Equal(t, "Acme Exports", created.Name)
	assert.Equal(t, int64(1), created.NextInvoiceNumber)
}

func TestCreateEntityDuplicateName(t *testing.T) {
	queries := new(testutil.MockQuerier)
	router := newEntityRouter(queries)

	queries.On("EntityNameExists", mock.Anything, "Acme Exports", uuid.Nil).Return(true, nil)

	recorder := performJSON(t, router, http.MethodPost, "/entities", `{"name":"Acme Exports"}`)

	assert.Equal(t, http.StatusConflict, recorder.Code)
}

func TestCreateEntityInvalidBody(t *testing.T) {
	queries := new(testutil.MockQuerier)
	router := newEntityRouter(queries)

	recorder := performJSON(t, router, http.MethodPost, "/entities", `{"gstin":"27AAPFU0939F1ZV"}`)

	assert.Equal(t, http.StatusBadRequest, recorder.Code)
	queries.AssertNotCalled(t, "CreateEntity", mock.Anything, mock.Anything)
}

func TestGetEntityInvalidID(t *testing.T) {
	queries := new(testutil.MockQuerier)
	router := newEntityRouter(queries)

	recorder := performJSON(t, router, http.MethodGet, "/entities/not-a-uuid", "")

	assert.Equal(t, http.StatusBadRequest, recorder.Code)
}

func TestGetEntityNotFound(t *testing.T) {
	queries := new(testutil.MockQuerier)
	router := newEntityRouter(queries)

	id := uuid.New()
	queries.On("GetEntity", mock.Anything, id).Return(business.Entity{}, db.ErrNotFound)

	recorder := performJSON(t, router, http.MethodGet, "/entities/"+id.String(), "")

	assert.Equal(t, http.StatusNotFound, recorder.Code)
}

func TestDeleteEntityWithInvoices(t *testing.T) {
	queries := new(testutil.MockQuerier)
	router := newEntityRouter(queries)

	id := uuid.New()
	queries.On("GetEntity", mock.Anything, id).Return(business.Entity{ID: id, Name: "Acme Exports"}, nil)
	queries.On("CountInvoicesForEntity", mock.Anything, id).Return(int64(3), nil)

	recorder := performJSON(t, router, http.MethodDelete, "/entities/"+id.String(), "")

	assert.Equal(t, http.StatusConflict, recorder.Code)
	queries.AssertNotCalled(t, "DeleteEntity", mock.Anything, mock.Anything)
}

func TestListEntities(t *testing.T) {
	queries := new(testutil.MockQuerier)
	router := newEntityRouter(queries)

	queries.On("ListEntities", mock.Anything).Return([]business.Entity{
		{ID: uuid.New(), Name: "Acme Exports"},
		{ID: uuid.New(), Name: "Bharat Services"},
	}, nil)

	recorder := performJSON(t, router, http.MethodGet, "/entities", "")

	assert.Equal(t, http.StatusOK, recorder.Code)

	var envelope struct {
		Object string            `json:"object"`
		Data   []business.Entity `json:"data"`
	}
	assert.NoError(t, json.Unmarshal(recorder.Body.Bytes(), &envelope))
	assert.Equal(t, "list", envelope.Object)
	assert.Len(t, envelope.Data, 2)
}
