package db

import (
	"context"
	"strings"

	"github.com/recivo/recivo-api/internal/constants"
	"github.com/recivo/recivo-api/internal/types/business"
)

const userColumns = `id, email, display_name, role, created_at, last_login_at`

func scanUser(row rowScanner) (business.User, error) {
	var u business.User
	err := row.Scan(&u.ID, &u.Email, &u.DisplayName, &u.Role, &u.CreatedAt, &u.LastLoginAt)
	if err != nil {
		return business.User{}, translateErr(err)
	}
	return u, nil
}

func (s *Store) CreateUser(ctx context.Context, user business.User) (business.User, error) {
	row := s.pool.QueryRow(ctx, `INSERT INTO users (id, app_id, email, display_name, role)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING `+userColumns,
		user.ID, s.appID, user.Email, user.DisplayName, user.Role)

	created, err := scanUser(row)
	if err != nil {
		if isUniqueViolation(err) {
			return business.User{}, ErrDuplicateKey
		}
		return business.User{}, err
	}
	s.publish(constants.CollectionUsers, OpCreate, created.ID)
	return created, nil
}

func (s *Store) GetUser(ctx context.Context, id string) (business.User, error) {
	row := s.pool.QueryRow(ctx,
		`SELECT `+userColumns+` FROM users WHERE id = $1 AND app_id = $2`, id, s.appID)
	return scanUser(row)
}

func (s *Store) GetUserByEmail(ctx context.Context, email string) (business.User, error) {
	row := s.pool.QueryRow(ctx,
		`SELECT `+userColumns+` FROM users WHERE app_id = $1 AND lower(email) = lower($2)`,
		s.appID, email)
	return scanUser(row)
}

func (s *Store) ListUsers(ctx context.Context) ([]business.User, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT `+userColumns+` FROM users WHERE app_id = $1 ORDER BY lower(email)`, s.appID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	users := []business.User{}
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, err
		}
		users = append(users, u)
	}
	return users, rows.Err()
}

func (s *Store) UpdateUserRole(ctx context.Context, id string, role string) (business.User, error) {
	row := s.pool.QueryRow(ctx, `UPDATE users SET role = $3
		WHERE id = $1 AND app_id = $2
		RETURNING `+userColumns,
		id, s.appID, role)

	updated, err := scanUser(row)
	if err != nil {
		return business.User{}, err
	}
	s.publish(constants.CollectionUsers, OpUpdate, updated.ID)
	return updated, nil
}

func (s *Store) DeleteUser(ctx context.Context, id string) error {
	tag, err := s.pool.Exec(ctx, `DELETE FROM users WHERE id = $1 AND app_id = $2`, id, s.appID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	s.publish(constants.CollectionUsers, OpDelete, id)
	return nil
}

func (s *Store) CountAdmins(ctx context.Context) (int64, error) {
	var count int64
	err := s.pool.QueryRow(ctx,
		`SELECT COUNT(*) FROM users WHERE app_id = $1 AND role = $2`,
		s.appID, constants.AdminRole).Scan(&count)
	return count, err
}

func (s *Store) TouchUserLogin(ctx context.Context, id string) error {
	_, err := s.pool.Exec(ctx,
		`UPDATE users SET last_login_at = now() WHERE id = $1 AND app_id = $2`, id, s.appID)
	return err
}

// ---- Invitations ----

const invitationColumns = `email, initial_role, status, invited_by, created_at, accepted_at, accepted_by, revoked_at`

func scanInvitation(row rowScanner) (business.Invitation, error) {
	var inv business.Invitation
	err := row.Scan(&inv.Email, &inv.InitialRole, &inv.Status, &inv.InvitedBy,
		&inv.CreatedAt, &inv.AcceptedAt, &inv.AcceptedBy, &inv.RevokedAt)
	if err != nil {
		return business.Invitation{}, translateErr(err)
	}
	return inv, nil
}

func (s *Store) CreateInvitation(ctx context.Context, invitation business.Invitation) (business.Invitation, error) {
	row := s.pool.QueryRow(ctx, `INSERT INTO invitations (app_id, email, initial_role, status, invited_by)
		VALUES ($1, lower($2), $3, $4, $5)
		RETURNING `+invitationColumns,
		s.appID, invitation.Email, invitation.InitialRole, invitation.Status, invitation.InvitedBy)

	created, err := scanInvitation(row)
	if err != nil {
		if isUniqueViolation(err) {
			return business.Invitation{}, ErrDuplicateKey
		}
		return business.Invitation{}, err
	}
	s.publish(constants.CollectionInvitations, OpCreate, created.Email)
	return created, nil
}

func (s *Store) GetInvitation(ctx context.Context, email string) (business.Invitation, error) {
	row := s.pool.QueryRow(ctx,
		`SELECT `+invitationColumns+` FROM invitations WHERE app_id = $1 AND email = lower($2)`,
		s.appID, strings.TrimSpace(email))
	return scanInvitation(row)
}

func (s *Store) ListInvitations(ctx context.Context) ([]business.Invitation, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT `+invitationColumns+` FROM invitations WHERE app_id = $1 ORDER BY created_at DESC`,
		s.appID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	invitations := []business.Invitation{}
	for rows.Next() {
		inv, err := scanInvitation(rows)
		if err != nil {
			return nil, err
		}
		invitations = append(invitations, inv)
	}
	return invitations, rows.Err()
}

func (s *Store) UpdateInvitation(ctx context.Context, invitation business.Invitation) (business.Invitation, error) {
	row := s.pool.QueryRow(ctx, `UPDATE invitations SET
		initial_role = $3, status = $4, accepted_at = $5, accepted_by = $6, revoked_at = $7
		WHERE app_id = $1 AND email = lower($2)
		RETURNING `+invitationColumns,
		s.appID, invitation.Email, invitation.InitialRole, invitation.Status,
		invitation.AcceptedAt, invitation.AcceptedBy, invitation.RevokedAt)

	updated, err := scanInvitation(row)
	if err != nil {
		return business.Invitation{}, err
	}
	s.publish(constants.CollectionInvitations, OpUpdate, updated.Email)
	return updated, nil
}
