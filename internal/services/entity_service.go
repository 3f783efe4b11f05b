package services

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/recivo/recivo-api/internal/db"
	"github.com/recivo/recivo-api/internal/helpers"
	"github.com/recivo/recivo-api/internal/logger"
	"github.com/recivo/recivo-api/internal/types/api/params"
	"github.com/recivo/recivo-api/internal/types/business"
)

// EntityService manages billing entities, including GSTIN-derived field
// inference and the invoice number prefix configuration.
type EntityService struct {
	queries db.Querier
	audit   *AuditService
	logger  *zap.Logger
}

// NewEntityService creates a new entity service
func NewEntityService(queries db.Querier, audit *AuditService) *EntityService {
	return &EntityService{
		queries: queries,
		audit:   audit,
		logger:  logger.Log,
	}
}

// applyGstinInference fills PAN and place of supply from the GSTIN when the
// caller left them blank. Explicit values always win.
func applyGstinInference(gstin string, pan, placeOfSupply *string) {
	if gstin == "" {
		return
	}
	if *pan == "" {
		*pan = helpers.PANFromGSTIN(gstin)
	}
	if *placeOfSupply == "" {
		*placeOfSupply = helpers.StateFromGSTIN(gstin)
	}
}

func (s *EntityService) buildEntity(p params.EntityParams) (business.Entity, error) {
	name := strings.TrimSpace(p.Name)
	if name == "" {
		return business.Entity{}, fmt.Errorf("%w: entity name is required", ErrInvalidInput)
	}

	gstin := strings.ToUpper(strings.TrimSpace(p.GSTIN))
	pan := strings.ToUpper(strings.TrimSpace(p.PAN))
	placeOfSupply := strings.TrimSpace(p.PlaceOfSupply)
	applyGstinInference(gstin, &pan, &placeOfSupply)

	prefix := strings.TrimSpace(p.InvoicePrefix)
	if prefix == "" {
		prefix = business.DefaultInvoicePrefix
	}

	return business.Entity{
		Name:          name,
		GstRegistered: p.GstRegistered || gstin != "",
		GSTIN:         gstin,
		PAN:           pan,
		PlaceOfSupply: placeOfSupply,
		InvoicePrefix: prefix,
		Address:       p.Address,
		BankDetails:   p.BankDetails,
	}, nil
}

func (s *EntityService) CreateEntity(ctx context.Context, actor business.AuditActor, p params.EntityParams) (business.Entity, error) {
	entity, err := s.buildEntity(p)
	if err != nil {
		return business.Entity{}, err
	}

	exists, err := s.queries.EntityNameExists(ctx, entity.Name, uuid.Nil)
	if err != nil {
		return business.Entity{}, fmt.Errorf("failed to check entity name: %w", err)
	}
	if exists {
		return business.Entity{}, db.ErrDuplicateName
	}

	entity.ID = uuid.New()
	entity.NextInvoiceNumber = 1

	created, err := s.queries.CreateEntity(ctx, entity)
	if err != nil {
		return business.Entity{}, fmt.Errorf("failed to create entity: %w", err)
	}

	s.recordAudit(ctx, actor, business.ActionCreateEntity, created.Name, nil)
	return created, nil
}

func (s *EntityService) GetEntity(ctx context.Context, id uuid.UUID) (business.Entity, error) {
	return s.queries.GetEntity(ctx, id)
}

func (s *EntityService) ListEntities(ctx context.Context) ([]business.Entity, error) {
	return s.queries.ListEntities(ctx)
}

func (s *EntityService) UpdateEntity(ctx context.Context, actor business.AuditActor, id uuid.UUID, p params.EntityParams) (business.Entity, error) {
	existing, err := s.queries.GetEntity(ctx, id)
	if err != nil {
		return business.Entity{}, err
	}

	entity, err := s.buildEntity(p)
	if err != nil {
		return business.Entity{}, err
	}

	exists, err := s.queries.EntityNameExists(ctx, entity.Name, id)
	if err != nil {
		return business.Entity{}, fmt.Errorf("failed to check entity name: %w", err)
	}
	if exists {
		return business.Entity{}, db.ErrDuplicateName
	}

	entity.ID = id
	entity.NextInvoiceNumber = existing.NextInvoiceNumber
	entity.CreatedAt = existing.CreatedAt

	updated, err := s.queries.UpdateEntity(ctx, entity)
	if err != nil {
		return business.Entity{}, fmt.Errorf("failed to update entity: %w", err)
	}

	changes, diffErr := helpers.ObjectChanges(existing, updated)
	if diffErr != nil {
		s.logger.Warn("Failed to diff entity for audit", zap.Error(diffErr))
	}
	s.recordAudit(ctx, actor, business.ActionUpdateEntity, updated.Name, changes)
	return updated, nil
}

// DeleteEntity refuses to remove an entity that still has invoices.
func (s *EntityService) DeleteEntity(ctx context.Context, actor business.AuditActor, id uuid.UUID) error {
	entity, err := s.queries.GetEntity(ctx, id)
	if err != nil {
		return err
	}

	count, err := s.queries.CountInvoicesForEntity(ctx, id)
	if err != nil {
		return fmt.Errorf("failed to count entity invoices: %w", err)
	}
	if count > 0 {
		return fmt.Errorf("%w: entity %q has %d invoice(s)", ErrConflict, entity.Name, count)
	}

	if err := s.queries.DeleteEntity(ctx, id); err != nil {
		return fmt.Errorf("failed to delete entity: %w", err)
	}

	s.recordAudit(ctx, actor, business.ActionDeleteEntity, entity.Name, nil)
	return nil
}

// recordAudit is best effort: a failed audit write never fails the
// operation it describes, it only logs.
func (s *EntityService) recordAudit(ctx context.Context, actor business.AuditActor, action business.AuditAction, entityName string, changes map[string]helpers.FieldChange) {
	if _, err := s.audit.Record(ctx, business.AuditLog{
		Action:     action,
		UserID:     actor.UserID,
		UserName:   actor.UserName,
		UserEmail:  actor.Email,
		EntityName: entityName,
		Changes:    changesToMap(changes),
	}); err != nil {
		s.logger.Warn("Audit write failed", zap.String("action", string(action)), zap.Error(err))
	}
}

// changesToMap widens the diff engine's typed result for storage.
func changesToMap(changes map[string]helpers.FieldChange) map[string]interface{} {
	if len(changes) == 0 {
		return nil
	}
	out := make(map[string]interface{}, len(changes))
	for k, v := range changes {
		out[k] = map[string]interface{}{"old": v.Old, "new": v.New}
	}
	return out
}
