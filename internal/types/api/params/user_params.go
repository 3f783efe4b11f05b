package params

// InviteUserParams invites an email address with a starting role.
type InviteUserParams struct {
	Email string `json:"email" binding:"required,email"`
	Role  string `json:"role" binding:"required"`
}

// UpdateUserRoleParams changes an existing user's role.
type UpdateUserRoleParams struct {
	Role string `json:"role" binding:"required"`
}
