package testutil

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"

	"github.com/recivo/recivo-api/internal/db"
	"github.com/recivo/recivo-api/internal/types/business"
)

// MockQuerier is a testify mock of the persistence surface.
type MockQuerier struct {
	mock.Mock
}

var _ db.Querier = (*MockQuerier)(nil)

// Entities

func (m *MockQuerier) CreateEntity(ctx context.Context, entity business.Entity) (business.Entity, error) {
	args := m.Called(ctx, entity)
	return args.Get(0).(business.Entity), args.Error(1)
}

func (m *MockQuerier) GetEntity(ctx context.Context, id uuid.UUID) (business.Entity, error) {
	args := m.Called(ctx, id)
	return args.Get(0).(business.Entity), args.Error(1)
}

func (m *MockQuerier) ListEntities(ctx context.Context) ([]business.Entity, error) {
	args := m.Called(ctx)
	return args.Get(0).([]business.Entity), args.Error(1)
}

func (m *MockQuerier) UpdateEntity(ctx context.Context, entity business.Entity) (business.Entity, error) {
	args := m.Called(ctx, entity)
	return args.Get(0).(business.Entity), args.Error(1)
}

func (m *MockQuerier) DeleteEntity(ctx context.Context, id uuid.UUID) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

func (m *MockQuerier) EntityNameExists(ctx context.Context, name string, excludeID uuid.UUID) (bool, error) {
	args := m.Called(ctx, name, excludeID)
	return args.Bool(0), args.Error(1)
}

// Customers

func (m *MockQuerier) CreateCustomer(ctx context.Context, customer business.Customer) (business.Customer, error) {
	args := m.Called(ctx, customer)
	return args.Get(0).(business.Customer), args.Error(1)
}

func (m *MockQuerier) GetCustomer(ctx context.Context, id uuid.UUID) (business.Customer, error) {
	args := m.Called(ctx, id)
	return args.Get(0).(business.Customer), args.Error(1)
}

func (m *MockQuerier) ListCustomers(ctx context.Context) ([]business.Customer, error) {
	args := m.Called(ctx)
	return args.Get(0).([]business.Customer), args.Error(1)
}

func (m *MockQuerier) UpdateCustomer(ctx context.Context, customer business.Customer) (business.Customer, error) {
	args := m.Called(ctx, customer)
	return args.Get(0).(business.Customer), args.Error(1)
}

func (m *MockQuerier) DeleteCustomer(ctx context.Context, id uuid.UUID) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

func (m *MockQuerier) CustomerNameExists(ctx context.Context, name string, excludeID uuid.UUID) (bool, error) {
	args := m.Called(ctx, name, excludeID)
	return args.Bool(0), args.Error(1)
}

// Products

func (m *MockQuerier) CreateProduct(ctx context.Context, product business.Product) (business.Product, error) {
	args := m.Called(ctx, product)
	return args.Get(0).(business.Product), args.Error(1)
}

func (m *MockQuerier) GetProduct(ctx context.Context, id uuid.UUID) (business.Product, error) {
	args := m.Called(ctx, id)
	return args.Get(0).(business.Product), args.Error(1)
}

func (m *MockQuerier) ListProducts(ctx context.Context) ([]business.Product, error) {
	args := m.Called(ctx)
	return args.Get(0).([]business.Product), args.Error(1)
}

func (m *MockQuerier) UpdateProduct(ctx context.Context, product business.Product) (business.Product, error) {
	args := m.Called(ctx, product)
	return args.Get(0).(business.Product), args.Error(1)
}

func (m *MockQuerier) DeleteProduct(ctx context.Context, id uuid.UUID) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

func (m *MockQuerier) ProductNameExists(ctx context.Context, name string, excludeID uuid.UUID) (bool, error) {
	args := m.Called(ctx, name, excludeID)
	return args.Bool(0), args.Error(1)
}

// Partners

func (m *MockQuerier) CreatePartner(ctx context.Context, partner business.Partner) (business.Partner, error) {
	args := m.Called(ctx, partner)
	return args.Get(0).(business.Partner), args.Error(1)
}

func (m *MockQuerier) GetPartner(ctx context.Context, id uuid.UUID) (business.Partner, error) {
	args := m.Called(ctx, id)
	return args.Get(0).(business.Partner), args.Error(1)
}

func (m *MockQuerier) ListPartners(ctx context.Context) ([]business.Partner, error) {
	args := m.Called(ctx)
	return args.Get(0).([]business.Partner), args.Error(1)
}

func (m *MockQuerier) UpdatePartner(ctx context.Context, partner business.Partner) (business.Partner, error) {
	args := m.Called(ctx, partner)
	return args.Get(0).(business.Partner), args.Error(1)
}

func (m *MockQuerier) DeletePartner(ctx context.Context, id uuid.UUID) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

func (m *MockQuerier) PartnerNameExists(ctx context.Context, name string, excludeID uuid.UUID) (bool, error) {
	args := m.Called(ctx, name, excludeID)
	return args.Bool(0), args.Error(1)
}

// Invoices

func (m *MockQuerier) CreateInvoice(ctx context.Context, invoice business.Invoice) (business.Invoice, error) {
	args := m.Called(ctx, invoice)
	return args.Get(0).(business.Invoice), args.Error(1)
}

func (m *MockQuerier) GetInvoice(ctx context.Context, id uuid.UUID) (business.Invoice, error) {
	args := m.Called(ctx, id)
	return args.Get(0).(business.Invoice), args.Error(1)
}

func (m *MockQuerier) ListInvoices(ctx context.Context, params db.ListInvoicesParams) ([]business.Invoice, error) {
	args := m.Called(ctx, params)
	return args.Get(0).([]business.Invoice), args.Error(1)
}

func (m *MockQuerier) UpdateInvoice(ctx context.Context, invoice business.Invoice) (business.Invoice, error) {
	args := m.Called(ctx, invoice)
	return args.Get(0).(business.Invoice), args.Error(1)
}

func (m *MockQuerier) DeleteInvoice(ctx context.Context, id uuid.UUID) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

func (m *MockQuerier) CountInvoicesForEntity(ctx context.Context, entityID uuid.UUID) (int64, error) {
	args := m.Called(ctx, entityID)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockQuerier) CountInvoicesForCustomer(ctx context.Context, customerID uuid.UUID) (int64, error) {
	args := m.Called(ctx, customerID)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockQuerier) CountInvoicesForPartner(ctx context.Context, partnerName string) (int64, error) {
	args := m.Called(ctx, partnerName)
	return args.Get(0).(int64), args.Error(1)
}

// Audit logs

func (m *MockQuerier) CreateAuditLog(ctx context.Context, entry business.AuditLog) (business.AuditLog, error) {
	args := m.Called(ctx, entry)
	return args.Get(0).(business.AuditLog), args.Error(1)
}

func (m *MockQuerier) ListAuditLogs(ctx context.Context, params db.ListAuditLogsParams) ([]business.AuditLog, error) {
	args := m.Called(ctx, params)
	return args.Get(0).([]business.AuditLog), args.Error(1)
}

func (m *MockQuerier) ListInvoiceAuditLogs(ctx context.Context, invoiceID string) ([]business.AuditLog, error) {
	args := m.Called(ctx, invoiceID)
	return args.Get(0).([]business.AuditLog), args.Error(1)
}

// Users

func (m *MockQuerier) CreateUser(ctx context.Context, user business.User) (business.User, error) {
	args := m.Called(ctx, user)
	return args.Get(0).(business.User), args.Error(1)
}

func (m *MockQuerier) GetUser(ctx context.Context, id string) (business.User, error) {
	args := m.Called(ctx, id)
	return args.Get(0).(business.User), args.Error(1)
}

func (m *MockQuerier) GetUserByEmail(ctx context.Context, email string) (business.User, error) {
	args := m.Called(ctx, email)
	return args.Get(0).(business.User), args.Error(1)
}

func (m *MockQuerier) ListUsers(ctx context.Context) ([]business.User, error) {
	args := m.Called(ctx)
	return args.Get(0).([]business.User), args.Error(1)
}

func (m *MockQuerier) UpdateUserRole(ctx context.Context, id string, role string) (business.User, error) {
	args := m.Called(ctx, id, role)
	return args.Get(0).(business.User), args.Error(1)
}

func (m *MockQuerier) DeleteUser(ctx context.Context, id string) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

func (m *MockQuerier) CountAdmins(ctx context.Context) (int64, error) {
	args := m.Called(ctx)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockQuerier) TouchUserLogin(ctx context.Context, id string) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

// Invitations

func (m *MockQuerier) CreateInvitation(ctx context.Context, invitation business.Invitation) (business.Invitation, error) {
	args := m.Called(ctx, invitation)
	return args.Get(0).(business.Invitation), args.Error(1)
}

func (m *MockQuerier) GetInvitation(ctx context.Context, email string) (business.Invitation, error) {
	args := m.Called(ctx, email)
	return args.Get(0).(business.Invitation), args.Error(1)
}

func (m *MockQuerier) ListInvitations(ctx context.Context) ([]business.Invitation, error) {
	args := m.Called(ctx)
	return args.Get(0).([]business.Invitation), args.Error(1)
}

func (m *MockQuerier) UpdateInvitation(ctx context.Context, invitation business.Invitation) (business.Invitation, error) {
	args := m.Called(ctx, invitation)
	return args.Get(0).(business.Invitation), args.Error(1)
}

// TestContext creates a test Gin context backed by a response recorder.
func TestContext(t *testing.T) (*gin.Context, *httptest.ResponseRecorder) {
	t.Helper()

	gin.SetMode(gin.TestMode)
	recorder := httptest.NewRecorder()
	ctx, _ := gin.CreateTestContext(recorder)

	return ctx, recorder
}

// TestServer creates a test HTTP server and closes it with the test.
func TestServer(t *testing.T, handler http.Handler) *httptest.Server {
	t.Helper()

	gin.SetMode(gin.TestMode)
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	return server
}
