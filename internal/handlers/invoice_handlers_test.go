package handlers

import (
	"encoding/json"
	"net/http"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	"github.com/recivo/recivo-api/internal/db"
	"github.com/recivo/recivo-api/internal/services"
	"github.com/recivo/recivo-api/internal/testutil"
	"github.com/recivo/recivo-api/internal/types/business"
)

func newInvoiceRouter(queries *testutil.MockQuerier) *gin.Engine {
	audit := services.NewAuditService(queries)
	invoices := services.NewInvoiceService(queries, services.NewTaxService(), audit, nil, nil)
	common := NewCommonServices(
		nil, nil, nil, nil, invoices, audit, nil, nil, nil,
	)
	handler := NewInvoiceHandler(common)

	router := gin.New()
	router.POST("/invoices", handler.CreateInvoice)
	router.GET("/invoices", handler.ListInvoices)
	router.GET("/invoices/:id", handler.GetInvoice)
	router.POST("/invoices/:id/pay", handler.MarkInvoicePaid)
	router.GET("/invoices/:id/history", handler.InvoiceHistory)
	return router
}

func TestCreateInvoiceHandler(t *testing.T) {
	queries := new(testutil.MockQuerier)
	router := newInvoiceRouter(queries)

	entityID := uuid.New()
	customerID := uuid.New()

	queries.On("GetEntity", mock.Anything, entityID).Return(business.Entity{
		ID: entityID, Name: "Acme Exports", GstRegistered: true,
		GSTIN: "27AAPFU0939F1ZV", PlaceOfSupply: "Maharashtra", InvoicePrefix: "ACME-",
	}, nil)
	queries.On("GetCustomer", mock.Anything, customerID).Return(business.Customer{
		ID: customerID, Name: "Blue Ocean Traders", PlaceOfSupply: "Karnataka",
		Email: "billing@blueocean.example",
	}, nil)
	queries.On("CreateInvoice", mock.Anything, mock.MatchedBy(func(inv business.Invoice) bool {
		return inv.Status == business.StatusInvoiced &&
			inv.GstType == business.GstTypeIGST &&
			inv.Total.Equal(decimal.RequireFromString("1180")) &&
			inv.DueDate == "2026-04-11"
	})).Return(business.Invoice{
		ID: uuid.New(), InvoiceNumber: "ACME-001", Status: business.StatusInvoiced,
		EntityID: entityID, CustomerID: customerID,
	}, nil)
	queries.On("CreateAuditLog", mock.Anything, mock.AnythingOfType("business.AuditLog")).
		Return(business.AuditLog{}, nil)

	recorder := performJSON(t, router, http.MethodPost, "/invoices", `{
		"type": "Invoice",
		"entityId": "`+entityID.String()+`",
		"customerId": "`+customerID.String()+`",
		"invoiceDate": "2026-04-01",
		"items": [{"description": "Consulting", "quantity": "1", "rate": "1000", "gstRate": "18"}]
	}`)

	assert.Equal(t, http.StatusCreated, recorder.Code)

	var created business.Invoice
	assert.NoError(t, json.Unmarshal(recorder.Body.Bytes(), &created))
	assert.Equal(t, "ACME-001", created.InvoiceNumber)
}

func TestCreateInvoiceHandlerBadDate(t *testing.T) {
	queries := new(testutil.MockQuerier)
	router := newInvoiceRouter(queries)

	entityID := uuid.New()
	customerID := uuid.New()

	recorder := performJSON(t, router, http.MethodPost, "/invoices", `{
		"type": "Invoice",
		"entityId": "`+entityID.String()+`",
		"customerId": "`+customerID.String()+`",
		"invoiceDate": "01/04/2026",
		"items": [{"description": "Consulting", "quantity": "1", "rate": "1000", "gstRate": "18"}]
	}`)

	assert.Equal(t, http.StatusBadRequest, recorder.Code)
	queries.AssertNotCalled(t, "CreateInvoice", mock.Anything, mock.Anything)
}

func TestListInvoicesForwardsFilters(t *testing.T) {
	queries := new(testutil.MockQuerier)
	router := newInvoiceRouter(queries)

	entityID := uuid.New()
	queries.On("ListInvoices", mock.Anything, db.ListInvoicesParams{
		Status:   business.StatusSent,
		EntityID: entityID,
		FromDate: "2026-01-01",
	}).Return([]business.Invoice{}, nil)

	recorder := performJSON(t, router, http.MethodGet,
		"/invoices?status=Sent&entityId="+entityID.String()+"&fromDate=2026-01-01", "")

	assert.Equal(t, http.StatusOK, recorder.Code)
	queries.AssertExpectations(t)
}

func TestListInvoicesRejectsBadEntityFilter(t *testing.T) {
	queries := new(testutil.MockQuerier)
	router := newInvoiceRouter(queries)

	recorder := performJSON(t, router, http.MethodGet, "/invoices?entityId=nope", "")

	assert.Equal(t, http.StatusBadRequest, recorder.Code)
	queries.AssertNotCalled(t, "ListInvoices", mock.Anything, mock.Anything)
}

func TestMarkInvoicePaidWrongState(t *testing.T) {
	queries := new(testutil.MockQuerier)
	router := newInvoiceRouter(queries)

	id := uuid.New()
	queries.On("GetInvoice", mock.Anything, id).Return(business.Invoice{
		ID: id, Status: business.StatusInvoiced, InvoiceNumber: "ACME-002",
	}, nil)

	recorder := performJSON(t, router, http.MethodPost, "/invoices/"+id.String()+"/pay",
		`{"paymentDate": "2026-05-01", "totalAmountReceived": "500"}`)

	assert.Equal(t, http.StatusConflict, recorder.Code)
	queries.AssertNotCalled(t, "UpdateInvoice", mock.Anything, mock.Anything)
}

func TestInvoiceHistory(t *testing.T) {
	queries := new(testutil.MockQuerier)
	router := newInvoiceRouter(queries)

	id := uuid.New()
	queries.On("ListInvoiceAuditLogs", mock.Anything, id.String()).Return([]business.AuditLog{
		{Action: business.ActionCreateInvoice},
	}, nil)

	recorder := performJSON(t, router, http.MethodGet, "/invoices/"+id.String()+"/history", "")

	assert.Equal(t, http.StatusOK, recorder.Code)

	var envelope struct {
		Data []business.AuditLog `json:"data"`
	}
	assert.NoError(t, json.Unmarshal(recorder.Body.Bytes(), &envelope))
	assert.Len(t, envelope.Data, 1)
}
