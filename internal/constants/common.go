package constants

// Common string constants used throughout the codebase
const (
	// Log levels
	ErrorLevel = "error"

	// Environments
	ProdEnvironment = "prod"
	DevEnvironment  = "dev"
	TestEnvironment = "test"

	// User roles
	AdminRole      = "admin"
	AccountantRole = "accountant"
	ViewerRole     = "viewer"

	// Invitation statuses
	InvitationPending  = "pending"
	InvitationAccepted = "accepted"
	InvitationRevoked  = "revoked"

	// Identity fallback for unauthenticated audit entries
	AnonymousUserID   = "anonymous"
	AnonymousUserName = "Anonymous User"

	// Collections (table names scoped by app id)
	CollectionEntities    = "entities"
	CollectionCustomers   = "customers"
	CollectionProducts    = "products"
	CollectionPartners    = "partners"
	CollectionInvoices    = "invoices"
	CollectionUsers       = "users"
	CollectionInvitations = "invitations"
	CollectionAuditLogs   = "audit_logs"
)

// ValidRoles lists every role a user or invitation may carry.
var ValidRoles = []string{AdminRole, AccountantRole, ViewerRole}

// IsValidRole reports whether role is one of the known user roles.
func IsValidRole(role string) bool {
	for _, r := range ValidRoles {
		if r == role {
			return true
		}
	}
	return false
}
