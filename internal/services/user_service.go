package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/recivo/recivo-api/internal/constants"
	"github.com/recivo/recivo-api/internal/db"
	"github.com/recivo/recivo-api/internal/logger"
	"github.com/recivo/recivo-api/internal/types/api/params"
	"github.com/recivo/recivo-api/internal/types/business"
)

// UserService manages application users and the invitation gate. Access is
// invitation-only: a user record is only ever created by accepting a
// pending invitation, and the last admin can never be demoted or removed.
type UserService struct {
	queries db.Querier
	audit   *AuditService
	logger  *zap.Logger
}

// NewUserService creates a new user service
func NewUserService(queries db.Querier, audit *AuditService) *UserService {
	return &UserService{
		queries: queries,
		audit:   audit,
		logger:  logger.Log,
	}
}

// Invite creates or refreshes an invitation for an email address. An
// already-pending invitation and an existing user are both conflicts; a
// revoked or accepted invitation is reset to pending so the address can be
// invited again.
func (s *UserService) Invite(ctx context.Context, actor business.AuditActor, p params.InviteUserParams) (business.Invitation, error) {
	email := strings.ToLower(strings.TrimSpace(p.Email))
	if email == "" {
		return business.Invitation{}, fmt.Errorf("%w: email is required", ErrInvalidInput)
	}
	if !constants.IsValidRole(p.Role) {
		return business.Invitation{}, fmt.Errorf("%w: unknown role %q", ErrInvalidInput, p.Role)
	}

	if _, err := s.queries.GetUserByEmail(ctx, email); err == nil {
		return business.Invitation{}, fmt.Errorf("%w: %s is already a user", ErrConflict, email)
	} else if !errors.Is(err, db.ErrNotFound) {
		return business.Invitation{}, fmt.Errorf("failed to check existing user: %w", err)
	}

	existing, err := s.queries.GetInvitation(ctx, email)
	switch {
	case err == nil:
		if existing.Status == constants.InvitationPending {
			return business.Invitation{}, fmt.Errorf("%w: %s already has a pending invitation", ErrConflict, email)
		}
		existing.InitialRole = p.Role
		existing.Status = constants.InvitationPending
		existing.AcceptedAt = nil
		existing.AcceptedBy = ""
		existing.RevokedAt = nil
		updated, err := s.queries.UpdateInvitation(ctx, existing)
		if err != nil {
			return business.Invitation{}, fmt.Errorf("failed to refresh invitation: %w", err)
		}
		s.recordAudit(ctx, actor, business.ActionInviteUser, email)
		return updated, nil
	case errors.Is(err, db.ErrNotFound):
		created, err := s.queries.CreateInvitation(ctx, business.Invitation{
			Email:       email,
			InitialRole: p.Role,
			Status:      constants.InvitationPending,
			InvitedBy:   actor.UserID,
		})
		if err != nil {
			return business.Invitation{}, fmt.Errorf("failed to create invitation: %w", err)
		}
		s.recordAudit(ctx, actor, business.ActionInviteUser, email)
		return created, nil
	default:
		return business.Invitation{}, fmt.Errorf("failed to look up invitation: %w", err)
	}
}

func (s *UserService) ListInvitations(ctx context.Context) ([]business.Invitation, error) {
	return s.queries.ListInvitations(ctx)
}

// RevokeInvitation withdraws a pending invitation.
func (s *UserService) RevokeInvitation(ctx context.Context, actor business.AuditActor, email string) (business.Invitation, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	invitation, err := s.queries.GetInvitation(ctx, email)
	if err != nil {
		return business.Invitation{}, err
	}
	if invitation.Status != constants.InvitationPending {
		return business.Invitation{}, fmt.Errorf("%w: invitation for %s is %s, not pending", ErrConflict, email, invitation.Status)
	}

	now := time.Now().UTC()
	invitation.Status = constants.InvitationRevoked
	invitation.RevokedAt = &now

	updated, err := s.queries.UpdateInvitation(ctx, invitation)
	if err != nil {
		return business.Invitation{}, fmt.Errorf("failed to revoke invitation: %w", err)
	}
	s.recordAudit(ctx, actor, business.ActionRevokeInvitation, email)
	return updated, nil
}

// AcceptInvitation redeems a pending invitation for the authenticated
// identity and creates the user with the invitation's starting role.
func (s *UserService) AcceptInvitation(ctx context.Context, userID, email, displayName string) (business.User, error) {
	email = strings.ToLower(strings.TrimSpace(email))

	invitation, err := s.queries.GetInvitation(ctx, email)
	if err != nil {
		if errors.Is(err, db.ErrNotFound) {
			return business.User{}, fmt.Errorf("%w: no invitation for %s", ErrForbidden, email)
		}
		return business.User{}, fmt.Errorf("failed to look up invitation: %w", err)
	}
	if invitation.Status != constants.InvitationPending {
		return business.User{}, fmt.Errorf("%w: invitation for %s is %s", ErrForbidden, email, invitation.Status)
	}

	user, err := s.queries.CreateUser(ctx, business.User{
		ID:          userID,
		Email:       email,
		DisplayName: displayName,
		Role:        invitation.InitialRole,
	})
	if err != nil {
		return business.User{}, fmt.Errorf("failed to create user: %w", err)
	}

	now := time.Now().UTC()
	invitation.Status = constants.InvitationAccepted
	invitation.AcceptedAt = &now
	invitation.AcceptedBy = userID
	if _, err := s.queries.UpdateInvitation(ctx, invitation); err != nil {
		s.logger.Error("Failed to mark invitation accepted",
			zap.String("email", email), zap.Error(err))
	}

	s.recordAudit(ctx, business.AuditActor{UserID: userID, UserName: displayName, Email: email},
		business.ActionAcceptInvitation, email)
	return user, nil
}

// ResolveUser maps an authenticated identity onto a user record, redeeming
// a pending invitation on first sight. Known users get their last login
// refreshed.
func (s *UserService) ResolveUser(ctx context.Context, userID, email, displayName string) (business.User, error) {
	user, err := s.queries.GetUser(ctx, userID)
	if err == nil {
		if err := s.queries.TouchUserLogin(ctx, userID); err != nil {
			s.logger.Warn("Failed to update last login", zap.String("user_id", userID), zap.Error(err))
		}
		return user, nil
	}
	if !errors.Is(err, db.ErrNotFound) {
		return business.User{}, fmt.Errorf("failed to load user: %w", err)
	}
	return s.AcceptInvitation(ctx, userID, email, displayName)
}

func (s *UserService) GetUser(ctx context.Context, id string) (business.User, error) {
	return s.queries.GetUser(ctx, id)
}

func (s *UserService) ListUsers(ctx context.Context) ([]business.User, error) {
	return s.queries.ListUsers(ctx)
}

// UpdateRole changes a user's role. Demoting the only remaining admin is
// refused so the deployment can never lock itself out of user management.
func (s *UserService) UpdateRole(ctx context.Context, actor business.AuditActor, id string, p params.UpdateUserRoleParams) (business.User, error) {
	if !constants.IsValidRole(p.Role) {
		return business.User{}, fmt.Errorf("%w: unknown role %q", ErrInvalidInput, p.Role)
	}

	user, err := s.queries.GetUser(ctx, id)
	if err != nil {
		return business.User{}, err
	}

	if user.Role == constants.AdminRole && p.Role != constants.AdminRole {
		admins, err := s.queries.CountAdmins(ctx)
		if err != nil {
			return business.User{}, fmt.Errorf("failed to count admins: %w", err)
		}
		if admins <= 1 {
			return business.User{}, fmt.Errorf("%w: cannot demote the last admin", ErrConflict)
		}
	}

	updated, err := s.queries.UpdateUserRole(ctx, id, p.Role)
	if err != nil {
		return business.User{}, fmt.Errorf("failed to update role: %w", err)
	}
	s.recordAudit(ctx, actor, business.ActionUpdateUserRole, updated.Email)
	return updated, nil
}

// DeleteUser removes a user. Self-deletion and deleting the last admin are
// both refused.
func (s *UserService) DeleteUser(ctx context.Context, actor business.AuditActor, id string) error {
	if id == actor.UserID {
		return fmt.Errorf("%w: you cannot delete your own account", ErrConflict)
	}

	user, err := s.queries.GetUser(ctx, id)
	if err != nil {
		return err
	}

	if user.Role == constants.AdminRole {
		admins, err := s.queries.CountAdmins(ctx)
		if err != nil {
			return fmt.Errorf("failed to count admins: %w", err)
		}
		if admins <= 1 {
			return fmt.Errorf("%w: cannot delete the last admin", ErrConflict)
		}
	}

	if err := s.queries.DeleteUser(ctx, id); err != nil {
		return fmt.Errorf("failed to delete user: %w", err)
	}
	s.recordAudit(ctx, actor, business.ActionDeleteUser, user.Email)
	return nil
}

func (s *UserService) recordAudit(ctx context.Context, actor business.AuditActor, action business.AuditAction, subjectEmail string) {
	if _, err := s.audit.Record(ctx, business.AuditLog{
		Action:    action,
		UserID:    actor.UserID,
		UserName:  actor.UserName,
		UserEmail: actor.Email,
		Changes:   map[string]interface{}{"subject": subjectEmail},
	}); err != nil {
		s.logger.Warn("Audit write failed", zap.String("action", string(action)), zap.Error(err))
	}
}
