package services_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/recivo/recivo-api/internal/constants"
	"github.com/recivo/recivo-api/internal/db"
	"github.com/recivo/recivo-api/internal/services"
	"github.com/recivo/recivo-api/internal/testutil"
	"github.com/recivo/recivo-api/internal/types/api/params"
	"github.com/recivo/recivo-api/internal/types/business"
)

var adminActor = business.AuditActor{UserID: "admin-1", UserName: "Admin", Email: "admin@example.com"}

func TestUserService_Invite(t *testing.T) {
	t.Run("creates a pending invitation", func(t *testing.T) {
		queries := new(testutil.MockQuerier)
		svc := services.NewUserService(queries, services.NewAuditService(queries))

		queries.On("GetUserByEmail", mock.Anything, "new@example.com").Return(business.User{}, db.ErrNotFound)
		queries.On("GetInvitation", mock.Anything, "new@example.com").Return(business.Invitation{}, db.ErrNotFound)
		queries.On("CreateInvitation", mock.Anything, mock.MatchedBy(func(inv business.Invitation) bool {
			return inv.Email == "new@example.com" &&
				inv.Status == constants.InvitationPending &&
				inv.InitialRole == constants.AccountantRole &&
				inv.InvitedBy == adminActor.UserID
		})).Return(business.Invitation{Email: "new@example.com"}, nil)
		queries.On("CreateAuditLog", mock.Anything, mock.Anything).Return(business.AuditLog{}, nil)

		_, err := svc.Invite(context.Background(), adminActor, params.InviteUserParams{
			Email: "New@Example.com", Role: constants.AccountantRole,
		})
		require.NoError(t, err)
		queries.AssertExpectations(t)
	})

	t.Run("pending invitation conflicts", func(t *testing.T) {
		queries := new(testutil.MockQuerier)
		svc := services.NewUserService(queries, services.NewAuditService(queries))

		queries.On("GetUserByEmail", mock.Anything, "dup@example.com").Return(business.User{}, db.ErrNotFound)
		queries.On("GetInvitation", mock.Anything, "dup@example.com").
			Return(business.Invitation{Email: "dup@example.com", Status: constants.InvitationPending}, nil)

		_, err := svc.Invite(context.Background(), adminActor, params.InviteUserParams{
			Email: "dup@example.com", Role: constants.ViewerRole,
		})
		require.ErrorIs(t, err, services.ErrConflict)
	})

	t.Run("revoked invitation is reset to pending", func(t *testing.T) {
		queries := new(testutil.MockQuerier)
		svc := services.NewUserService(queries, services.NewAuditService(queries))

		revokedAt := time.Now()
		queries.On("GetUserByEmail", mock.Anything, "back@example.com").Return(business.User{}, db.ErrNotFound)
		queries.On("GetInvitation", mock.Anything, "back@example.com").Return(business.Invitation{
			Email: "back@example.com", Status: constants.InvitationRevoked, RevokedAt: &revokedAt,
		}, nil)
		queries.On("UpdateInvitation", mock.Anything, mock.MatchedBy(func(inv business.Invitation) bool {
			return inv.Status == constants.InvitationPending && inv.RevokedAt == nil
		})).Return(business.Invitation{}, nil)
		queries.On("CreateAuditLog", mock.Anything, mock.Anything).Return(business.AuditLog{}, nil)

		_, err := svc.Invite(context.Background(), adminActor, params.InviteUserParams{
			Email: "back@example.com", Role: constants.ViewerRole,
		})
		require.NoError(t, err)
	})

	t.Run("existing user conflicts", func(t *testing.T) {
		queries := new(testutil.MockQuerier)
		svc := services.NewUserService(queries, services.NewAuditService(queries))

		queries.On("GetUserByEmail", mock.Anything, "member@example.com").
			Return(business.User{ID: "u9", Email: "member@example.com"}, nil)

		_, err := svc.Invite(context.Background(), adminActor, params.InviteUserParams{
			Email: "member@example.com", Role: constants.ViewerRole,
		})
		require.ErrorIs(t, err, services.ErrConflict)
	})

	t.Run("unknown role rejected", func(t *testing.T) {
		queries := new(testutil.MockQuerier)
		svc := services.NewUserService(queries, services.NewAuditService(queries))

		_, err := svc.Invite(context.Background(), adminActor, params.InviteUserParams{
			Email: "x@example.com", Role: "owner",
		})
		require.ErrorIs(t, err, services.ErrInvalidInput)
	})
}

func TestUserService_AcceptInvitation(t *testing.T) {
	t.Run("creates the user with the invited role", func(t *testing.T) {
		queries := new(testutil.MockQuerier)
		svc := services.NewUserService(queries, services.NewAuditService(queries))

		queries.On("GetInvitation", mock.Anything, "joiner@example.com").Return(business.Invitation{
			Email: "joiner@example.com", Status: constants.InvitationPending, InitialRole: constants.ViewerRole,
		}, nil)
		queries.On("CreateUser", mock.Anything, mock.MatchedBy(func(u business.User) bool {
			return u.ID == "idp-42" && u.Role == constants.ViewerRole
		})).Return(business.User{ID: "idp-42", Role: constants.ViewerRole}, nil)
		queries.On("UpdateInvitation", mock.Anything, mock.MatchedBy(func(inv business.Invitation) bool {
			return inv.Status == constants.InvitationAccepted && inv.AcceptedBy == "idp-42"
		})).Return(business.Invitation{}, nil)
		queries.On("CreateAuditLog", mock.Anything, mock.Anything).Return(business.AuditLog{}, nil)

		user, err := svc.AcceptInvitation(context.Background(), "idp-42", "Joiner@Example.com", "Joiner")
		require.NoError(t, err)
		assert.Equal(t, constants.ViewerRole, user.Role)
		queries.AssertExpectations(t)
	})

	t.Run("no invitation means no access", func(t *testing.T) {
		queries := new(testutil.MockQuerier)
		svc := services.NewUserService(queries, services.NewAuditService(queries))

		queries.On("GetInvitation", mock.Anything, "stranger@example.com").
			Return(business.Invitation{}, db.ErrNotFound)

		_, err := svc.AcceptInvitation(context.Background(), "idp-1", "stranger@example.com", "X")
		require.ErrorIs(t, err, services.ErrForbidden)
	})

	t.Run("revoked invitation means no access", func(t *testing.T) {
		queries := new(testutil.MockQuerier)
		svc := services.NewUserService(queries, services.NewAuditService(queries))

		queries.On("GetInvitation", mock.Anything, "gone@example.com").Return(business.Invitation{
			Email: "gone@example.com", Status: constants.InvitationRevoked,
		}, nil)

		_, err := svc.AcceptInvitation(context.Background(), "idp-2", "gone@example.com", "X")
		require.ErrorIs(t, err, services.ErrForbidden)
	})
}

func TestUserService_ResolveUser(t *testing.T) {
	t.Run("known user refreshes last login", func(t *testing.T) {
		queries := new(testutil.MockQuerier)
		svc := services.NewUserService(queries, services.NewAuditService(queries))

		queries.On("GetUser", mock.Anything, "idp-7").Return(business.User{ID: "idp-7"}, nil)
		queries.On("TouchUserLogin", mock.Anything, "idp-7").Return(nil)

		user, err := svc.ResolveUser(context.Background(), "idp-7", "k@example.com", "K")
		require.NoError(t, err)
		assert.Equal(t, "idp-7", user.ID)
		queries.AssertExpectations(t)
	})

	t.Run("unknown user falls through to invitation redemption", func(t *testing.T) {
		queries := new(testutil.MockQuerier)
		svc := services.NewUserService(queries, services.NewAuditService(queries))

		queries.On("GetUser", mock.Anything, "idp-8").Return(business.User{}, db.ErrNotFound)
		queries.On("GetInvitation", mock.Anything, "n@example.com").
			Return(business.Invitation{}, db.ErrNotFound)

		_, err := svc.ResolveUser(context.Background(), "idp-8", "n@example.com", "N")
		require.ErrorIs(t, err, services.ErrForbidden)
	})
}

func TestUserService_UpdateRole(t *testing.T) {
	t.Run("last admin cannot be demoted", func(t *testing.T) {
		queries := new(testutil.MockQuerier)
		svc := services.NewUserService(queries, services.NewAuditService(queries))

		queries.On("GetUser", mock.Anything, "admin-1").
			Return(business.User{ID: "admin-1", Role: constants.AdminRole}, nil)
		queries.On("CountAdmins", mock.Anything).Return(int64(1), nil)

		_, err := svc.UpdateRole(context.Background(), adminActor, "admin-1", params.UpdateUserRoleParams{
			Role: constants.ViewerRole,
		})
		require.ErrorIs(t, err, services.ErrConflict)
		queries.AssertNotCalled(t, "UpdateUserRole", mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("admin demotion allowed when another admin remains", func(t *testing.T) {
		queries := new(testutil.MockQuerier)
		svc := services.NewUserService(queries, services.NewAuditService(queries))

		queries.On("GetUser", mock.Anything, "admin-2").
			Return(business.User{ID: "admin-2", Role: constants.AdminRole}, nil)
		queries.On("CountAdmins", mock.Anything).Return(int64(2), nil)
		queries.On("UpdateUserRole", mock.Anything, "admin-2", constants.AccountantRole).
			Return(business.User{ID: "admin-2", Role: constants.AccountantRole}, nil)
		queries.On("CreateAuditLog", mock.Anything, mock.Anything).Return(business.AuditLog{}, nil)

		updated, err := svc.UpdateRole(context.Background(), adminActor, "admin-2", params.UpdateUserRoleParams{
			Role: constants.AccountantRole,
		})
		require.NoError(t, err)
		assert.Equal(t, constants.AccountantRole, updated.Role)
	})
}

func TestUserService_DeleteUser(t *testing.T) {
	t.Run("self deletion refused", func(t *testing.T) {
		queries := new(testutil.MockQuerier)
		svc := services.NewUserService(queries, services.NewAuditService(queries))

		err := svc.DeleteUser(context.Background(), adminActor, adminActor.UserID)
		require.ErrorIs(t, err, services.ErrConflict)
	})

	t.Run("last admin cannot be deleted", func(t *testing.T) {
		queries := new(testutil.MockQuerier)
		svc := services.NewUserService(queries, services.NewAuditService(queries))

		queries.On("GetUser", mock.Anything, "other-admin").
			Return(business.User{ID: "other-admin", Role: constants.AdminRole}, nil)
		queries.On("CountAdmins", mock.Anything).Return(int64(1), nil)

		err := svc.DeleteUser(context.Background(), adminActor, "other-admin")
		require.ErrorIs(t, err, services.ErrConflict)
	})

	t.Run("viewer deletion succeeds", func(t *testing.T) {
		queries := new(testutil.MockQuerier)
		svc := services.NewUserService(queries, services.NewAuditService(queries))

		queries.On("GetUser", mock.Anything, "viewer-1").
			Return(business.User{ID: "viewer-1", Role: constants.ViewerRole, Email: "v@example.com"}, nil)
		queries.On("DeleteUser", mock.Anything, "viewer-1").Return(nil)
		queries.On("CreateAuditLog", mock.Anything, mock.Anything).Return(business.AuditLog{}, nil)

		err := svc.DeleteUser(context.Background(), adminActor, "viewer-1")
		require.NoError(t, err)
		queries.AssertExpectations(t)
	})
}
