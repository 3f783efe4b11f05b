package services_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/recivo/recivo-api/internal/constants"
	"github.com/recivo/recivo-api/internal/logger"
	"github.com/recivo/recivo-api/internal/services"
	"github.com/recivo/recivo-api/internal/testutil"
	"github.com/recivo/recivo-api/internal/types/business"
)

func init() {
	logger.InitLogger(constants.TestEnvironment)
}

func TestAuditService_Record(t *testing.T) {
	t.Run("fills identity and id defaults", func(t *testing.T) {
		queries := new(testutil.MockQuerier)
		svc := services.NewAuditService(queries)

		queries.On("CreateAuditLog", mock.Anything, mock.MatchedBy(func(e business.AuditLog) bool {
			return e.Action == business.ActionCreateInvoice &&
				e.UserID == constants.AnonymousUserID &&
				e.UserName == constants.AnonymousUserName &&
				!e.Timestamp.IsZero()
		})).Return(business.AuditLog{}, nil)

		logged, err := svc.Record(context.Background(), business.AuditLog{
			Action: business.ActionCreateInvoice,
		})
		require.NoError(t, err)
		assert.True(t, logged)
		queries.AssertExpectations(t)
	})

	t.Run("suppresses update entry with empty diff", func(t *testing.T) {
		queries := new(testutil.MockQuerier)
		svc := services.NewAuditService(queries)

		logged, err := svc.Record(context.Background(), business.AuditLog{
			Action: business.ActionUpdateInvoice,
		})
		require.NoError(t, err)
		assert.False(t, logged)
		queries.AssertNotCalled(t, "CreateAuditLog", mock.Anything, mock.Anything)
	})

	t.Run("update entry with changes is written", func(t *testing.T) {
		queries := new(testutil.MockQuerier)
		svc := services.NewAuditService(queries)

		queries.On("CreateAuditLog", mock.Anything, mock.Anything).Return(business.AuditLog{}, nil)

		logged, err := svc.Record(context.Background(), business.AuditLog{
			Action:  business.ActionUpdateCustomer,
			Changes: map[string]interface{}{"name": map[string]interface{}{"old": "A", "new": "B"}},
		})
		require.NoError(t, err)
		assert.True(t, logged)
	})

	t.Run("delete entry always written even without changes", func(t *testing.T) {
		queries := new(testutil.MockQuerier)
		svc := services.NewAuditService(queries)

		queries.On("CreateAuditLog", mock.Anything, mock.Anything).Return(business.AuditLog{}, nil)

		logged, err := svc.Record(context.Background(), business.AuditLog{
			Action: business.ActionDeleteInvoice,
		})
		require.NoError(t, err)
		assert.True(t, logged)
	})
}
