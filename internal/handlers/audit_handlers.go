package handlers

import (
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/recivo/recivo-api/internal/db"
	"github.com/recivo/recivo-api/internal/types/business"
)

type AuditHandler struct {
	common *CommonServices
}

func NewAuditHandler(common *CommonServices) *AuditHandler {
	return &AuditHandler{common: common}
}

// ListAuditLogs godoc
// @Summary List audit trail entries
// @Description Returns audit entries newest first, optionally filtered by action and user.
// @Tags audit
// @Produce json
// @Param action query string false "Audit action"
// @Param userId query string false "Acting user ID"
// @Param limit query int false "Page size (default 100)"
// @Param offset query int false "Page offset"
// @Success 200 {array} business.AuditLog
// @Security BearerAuth
// @Router /audit-logs [get]
func (h *AuditHandler) ListAuditLogs(c *gin.Context) {
	limit, _ := strconv.ParseInt(c.Query("limit"), 10, 32)
	offset, _ := strconv.ParseInt(c.Query("offset"), 10, 32)

	logs, err := h.common.audit.List(c.Request.Context(), db.ListAuditLogsParams{
		Action: business.AuditAction(c.Query("action")),
		UserID: c.Query("userId"),
		Limit:  int32(limit),
		Offset: int32(offset),
	})
	if err != nil {
		handleServiceError(c, err, "Audit logs not found")
		return
	}

	sendList(c, logs)
}
