package db

import (
	"context"

	"github.com/google/uuid"

	"github.com/recivo/recivo-api/internal/types/business"
)

// ListInvoicesParams filters invoice listings. Zero values mean "no filter".
type ListInvoicesParams struct {
	Status     business.InvoiceStatus
	Type       business.InvoiceType
	EntityID   uuid.UUID
	CustomerID uuid.UUID
	Partner    string
	FromDate   string
	ToDate     string
}

// ListAuditLogsParams pages and filters the audit trail. Results are always
// newest first.
type ListAuditLogsParams struct {
	Action business.AuditAction
	UserID string
	Limit  int32
	Offset int32
}

// Querier is the persistence surface consumed by the service layer. The
// production implementation is Store; tests substitute a mock.
type Querier interface {
	// Entities
	CreateEntity(ctx context.Context, entity business.Entity) (business.Entity, error)
	GetEntity(ctx context.Context, id uuid.UUID) (business.Entity, error)
	ListEntities(ctx context.Context) ([]business.Entity, error)
	UpdateEntity(ctx context.Context, entity business.Entity) (business.Entity, error)
	DeleteEntity(ctx context.Context, id uuid.UUID) error
	EntityNameExists(ctx context.Context, name string, excludeID uuid.UUID) (bool, error)

	// Customers
	CreateCustomer(ctx context.Context, customer business.Customer) (business.Customer, error)
	GetCustomer(ctx context.Context, id uuid.UUID) (business.Customer, error)
	ListCustomers(ctx context.Context) ([]business.Customer, error)
	UpdateCustomer(ctx context.Context, customer business.Customer) (business.Customer, error)
	DeleteCustomer(ctx context.Context, id uuid.UUID) error
	CustomerNameExists(ctx context.Context, name string, excludeID uuid.UUID) (bool, error)

	// Products
	CreateProduct(ctx context.Context, product business.Product) (business.Product, error)
	GetProduct(ctx context.Context, id uuid.UUID) (business.Product, error)
	ListProducts(ctx context.Context) ([]business.Product, error)
	UpdateProduct(ctx context.Context, product business.Product) (business.Product, error)
	DeleteProduct(ctx context.Context, id uuid.UUID) error
	ProductNameExists(ctx context.Context, name string, excludeID uuid.UUID) (bool, error)

	// Partners
	CreatePartner(ctx context.Context, partner business.Partner) (business.Partner, error)
	GetPartner(ctx context.Context, id uuid.UUID) (business.Partner, error)
	ListPartners(ctx context.Context) ([]business.Partner, error)
	UpdatePartner(ctx context.Context, partner business.Partner) (business.Partner, error)
	DeletePartner(ctx context.Context, id uuid.UUID) error
	PartnerNameExists(ctx context.Context, name string, excludeID uuid.UUID) (bool, error)

	// Invoices. CreateInvoice allocates the invoice number from the
	// entity's counter in the same transaction as the insert, so the
	// counter only ever advances on a successful creation.
	CreateInvoice(ctx context.Context, invoice business.Invoice) (business.Invoice, error)
	GetInvoice(ctx context.Context, id uuid.UUID) (business.Invoice, error)
	ListInvoices(ctx context.Context, params ListInvoicesParams) ([]business.Invoice, error)
	UpdateInvoice(ctx context.Context, invoice business.Invoice) (business.Invoice, error)
	DeleteInvoice(ctx context.Context, id uuid.UUID) error
	CountInvoicesForEntity(ctx context.Context, entityID uuid.UUID) (int64, error)
	CountInvoicesForCustomer(ctx context.Context, customerID uuid.UUID) (int64, error)
	CountInvoicesForPartner(ctx context.Context, partnerName string) (int64, error)

	// Audit trail (append-only)
	CreateAuditLog(ctx context.Context, entry business.AuditLog) (business.AuditLog, error)
	ListAuditLogs(ctx context.Context, params ListAuditLogsParams) ([]business.AuditLog, error)
	ListInvoiceAuditLogs(ctx context.Context, invoiceID string) ([]business.AuditLog, error)

	// Users
	CreateUser(ctx context.Context, user business.User) (business.User, error)
	GetUser(ctx context.Context, id string) (business.User, error)
	GetUserByEmail(ctx context.Context, email string) (business.User, error)
	ListUsers(ctx context.Context) ([]business.User, error)
	UpdateUserRole(ctx context.Context, id string, role string) (business.User, error)
	DeleteUser(ctx context.Context, id string) error
	CountAdmins(ctx context.Context) (int64, error)
	TouchUserLogin(ctx context.Context, id string) error

	// Invitations (keyed by lowercased email)
	CreateInvitation(ctx context.Context, invitation business.Invitation) (business.Invitation, error)
	GetInvitation(ctx context.Context, email string) (business.Invitation, error)
	ListInvitations(ctx context.Context) ([]business.Invitation, error)
	UpdateInvitation(ctx context.Context, invitation business.Invitation) (business.Invitation, error)
}
