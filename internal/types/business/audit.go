package business

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// AuditAction tags the kind of operation an audit entry records.
type AuditAction string

const (
	ActionCreateInvoice       AuditAction = "CREATE_INVOICE"
	ActionUpdateInvoice       AuditAction = "UPDATE_INVOICE"
	ActionConvertToInvoice    AuditAction = "CONVERT_TO_INVOICE"
	ActionUpdateInvoiceStatus AuditAction = "UPDATE_INVOICE_STATUS"
	ActionMarkInvoiceAsPaid   AuditAction = "MARK_INVOICE_AS_PAID"
	ActionDeleteInvoice       AuditAction = "DELETE_INVOICE"

	ActionCreateEntity   AuditAction = "CREATE_ENTITY"
	ActionUpdateEntity   AuditAction = "UPDATE_ENTITY"
	ActionDeleteEntity   AuditAction = "DELETE_ENTITY"
	ActionCreateCustomer AuditAction = "CREATE_CUSTOMER"
	ActionUpdateCustomer AuditAction = "UPDATE_CUSTOMER"
	ActionDeleteCustomer AuditAction = "DELETE_CUSTOMER"
	ActionCreateProduct  AuditAction = "CREATE_PRODUCT"
	ActionUpdateProduct  AuditAction = "UPDATE_PRODUCT"
	ActionDeleteProduct  AuditAction = "DELETE_PRODUCT"
	ActionCreatePartner  AuditAction = "CREATE_PARTNER"
	ActionUpdatePartner  AuditAction = "UPDATE_PARTNER"
	ActionDeletePartner  AuditAction = "DELETE_PARTNER"

	ActionInviteUser       AuditAction = "INVITE_USER"
	ActionRevokeInvitation AuditAction = "REVOKE_INVITATION"
	ActionAcceptInvitation AuditAction = "ACCEPT_INVITATION"
	ActionUpdateUserRole   AuditAction = "UPDATE_USER_ROLE"
	ActionDeleteUser       AuditAction = "DELETE_USER"
)

// IsUpdateAction reports whether the action is an update-type action whose
// audit entry is suppressed when the computed diff is empty. Create, delete
// and status-change actions always emit.
func (a AuditAction) IsUpdateAction() bool {
	switch a {
	case ActionUpdateInvoice, ActionUpdateEntity, ActionUpdateCustomer,
		ActionUpdateProduct, ActionUpdatePartner:
		return true
	}
	return false
}

// AuditActor is the identity attributed to an audit entry.
type AuditActor struct {
	UserID   string `json:"userId"`
	UserName string `json:"userName"`
	Email    string `json:"userEmail"`
}

// AuditLog is one append-only audit trail entry. Entries are immutable:
// never updated, never deleted. The Changes map carries the structural diff
// computed by the diff engine; the denormalized name/number/amount columns
// exist for fast filtering in listings.
type AuditLog struct {
	ID            uuid.UUID              `json:"id"`
	Action        AuditAction            `json:"action"`
	UserID        string                 `json:"userId"`
	UserName      string                 `json:"userName"`
	UserEmail     string                 `json:"userEmail"`
	Timestamp     time.Time              `json:"timestamp"`
	Changes       map[string]interface{} `json:"changes,omitempty"`
	InvoiceID     string                 `json:"invoiceId,omitempty"`
	InvoiceNumber string                 `json:"invoiceNumber,omitempty"`
	Amount        decimal.Decimal        `json:"amount"`
	CustomerName  string                 `json:"customerName,omitempty"`
	EntityName    string                 `json:"entityName,omitempty"`
	ProductName   string                 `json:"productName,omitempty"`
	PartnerName   string                 `json:"partnerName,omitempty"`
}
