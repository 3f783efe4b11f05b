package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/recivo/recivo-api/internal/auth"
	"github.com/recivo/recivo-api/internal/types/api/params"
	"github.com/recivo/recivo-api/internal/types/api/responses"
)

type UserHandler struct {
	common *CommonServices
}

func NewUserHandler(common *CommonServices) *UserHandler {
	return &UserHandler{common: common}
}

// Me godoc
// @Summary Get the authenticated user
// @Description Returns the user record for the caller's token
// @Tags users
// @Produce json
// @Success 200 {object} business.User
// @Failure 401 {object} responses.ErrorResponse
// @Security BearerAuth
// @Router /me [get]
func (h *UserHandler) Me(c *gin.Context) {
	user, ok := auth.CurrentUser(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, responses.ErrorResponse{Error: "authentication required"})
		return
	}
	c.JSON(http.StatusOK, user)
}

// ListUsers godoc
// @Summary List users
// @Description Returns every user of the application
// @Tags users
// @Produce json
// @Success 200 {array} business.User
// @Security BearerAuth
// @Router /users [get]
func (h *UserHandler) ListUsers(c *gin.Context) {
	users, err := h.common.users.ListUsers(c.Request.Context())
	if err != nil {
		handleServiceError(c, err, "Users not found")
		return
	}

	sendList(c, users)
}

// UpdateUserRole godoc
// @Summary Change a user's role
// @Description Changes a user's role. Demoting the last remaining admin is refused.
// @Tags users
// @Accept json
// @Produce json
// @Param id path string true "User ID"
// @Param role body params.UpdateUserRoleParams true "New role"
// @Success 200 {object} business.User
// @Failure 400 {object} responses.ErrorResponse
// @Failure 404 {object} responses.ErrorResponse
// @Failure 409 {object} responses.ErrorResponse
// @Security BearerAuth
// @Router /users/{id}/role [put]
func (h *UserHandler) UpdateUserRole(c *gin.Context) {
	var req params.UpdateUserRoleParams
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, responses.ErrorResponse{Error: "Invalid request body"})
		return
	}

	user, err := h.common.users.UpdateRole(c.Request.Context(), auth.CurrentActor(c), c.Param("id"), req)
	if err != nil {
		handleServiceError(c, err, "User not found")
		return
	}

	c.JSON(http.StatusOK, user)
}

// DeleteUser godoc
// @Summary Delete a user
// @Description Deletes a user. Self-deletion and removing the last admin are refused.
// @Tags users
// @Produce json
// @Param id path string true "User ID"
// @Success 200 {object} responses.MessageResponse
// @Failure 404 {object} responses.ErrorResponse
// @Failure 409 {object} responses.ErrorResponse
// @Security BearerAuth
// @Router /users/{id} [delete]
func (h *UserHandler) DeleteUser(c *gin.Context) {
	if err := h.common.users.DeleteUser(c.Request.Context(), auth.CurrentActor(c), c.Param("id")); err != nil {
		handleServiceError(c, err, "User not found")
		return
	}

	c.JSON(http.StatusOK, responses.MessageResponse{Message: "User deleted"})
}

// InviteUser godoc
// @Summary Invite a user
// @Description Creates a pending invitation for an email address. Revoked invitations are reset to pending.
// @Tags users
// @Accept json
// @Produce json
// @Param invitation body params.InviteUserParams true "Invitation data"
// @Success 201 {object} business.Invitation
// @Failure 400 {object} responses.ErrorResponse
// @Failure 409 {object} responses.ErrorResponse
// @Security BearerAuth
// @Router /invitations [post]
func (h *UserHandler) InviteUser(c *gin.Context) {
	var req params.InviteUserParams
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, responses.ErrorResponse{Error: "Invalid request body"})
		return
	}

	invitation, err := h.common.users.Invite(c.Request.Context(), auth.CurrentActor(c), req)
	if err != nil {
		handleServiceError(c, err, "Invitation not found")
		return
	}

	c.JSON(http.StatusCreated, invitation)
}

// ListInvitations godoc
// @Summary List invitations
// @Description Returns every invitation with its status
// @Tags users
// @Produce json
// @Success 200 {array} business.Invitation
// @Security BearerAuth
// @Router /invitations [get]
func (h *UserHandler) ListInvitations(c *gin.Context) {
	invitations, err := h.common.users.ListInvitations(c.Request.Context())
	if err != nil {
		handleServiceError(c, err, "Invitations not found")
		return
	}

	sendList(c, invitations)
}

// RevokeInvitation godoc
// @Summary Revoke an invitation
// @Description Revokes a pending invitation so the email can no longer sign in.
// @Tags users
// @Produce json
// @Param email path string true "Invited email"
// @Success 200 {object} business.Invitation
// @Failure 404 {object} responses.ErrorResponse
// @Failure 409 {object} responses.ErrorResponse
// @Security BearerAuth
// @Router /invitations/{email} [delete]
func (h *UserHandler) RevokeInvitation(c *gin.Context) {
	invitation, err := h.common.users.RevokeInvitation(c.Request.Context(), auth.CurrentActor(c), c.Param("email"))
	if err != nil {
		handleServiceError(c, err, "Invitation not found")
		return
	}

	c.JSON(http.StatusOK, invitation)
}
