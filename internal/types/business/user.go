package business

import "time"

// User is an application user. The ID is the identity provider's subject.
// A user record only ever comes into existence through acceptance of a
// pending invitation.
type User struct {
	ID          string    `json:"id"`
	Email       string    `json:"email"`
	DisplayName string    `json:"displayName"`
	Role        string    `json:"role"`
	CreatedAt   time.Time `json:"createdAt"`
	LastLoginAt time.Time `json:"lastLoginAt"`
}

// Invitation gates access to the application. Email is the primary key.
type Invitation struct {
	Email       string     `json:"email"`
	InitialRole string     `json:"initialRole"`
	Status      string     `json:"status"`
	InvitedBy   string     `json:"invitedBy,omitempty"`
	CreatedAt   time.Time  `json:"createdAt"`
	AcceptedAt  *time.Time `json:"acceptedAt,omitempty"`
	AcceptedBy  string     `json:"acceptedBy,omitempty"`
	RevokedAt   *time.Time `json:"revokedAt,omitempty"`
}
