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

// ProductService manages the product catalog. Products only pre-fill line
// items; deleting one never touches existing invoices.
type ProductService struct {
	queries db.Querier
	audit   *AuditService
	logger  *zap.Logger
}

// NewProductService creates a new product service
func NewProductService(queries db.Querier, audit *AuditService) *ProductService {
	return &ProductService{
		queries: queries,
		audit:   audit,
		logger:  logger.Log,
	}
}

func (s *ProductService) CreateProduct(ctx context.Context, actor business.AuditActor, p params.ProductParams) (business.Product, error) {
	name := strings.TrimSpace(p.Name)
	if name == "" {
		return business.Product{}, fmt.Errorf("%w: product name is required", ErrInvalidInput)
	}

	exists, err := s.queries.ProductNameExists(ctx, name, uuid.Nil)
	if err != nil {
		return business.Product{}, fmt.Errorf("failed to check product name: %w", err)
	}
	if exists {
		return business.Product{}, db.ErrDuplicateName
	}

	created, err := s.queries.CreateProduct(ctx, business.Product{
		ID:   uuid.New(),
		Name: name,
		HSN:  strings.TrimSpace(p.HSN),
	})
	if err != nil {
		return business.Product{}, fmt.Errorf("failed to create product: %w", err)
	}

	s.recordAudit(ctx, actor, business.ActionCreateProduct, created.Name, nil)
	return created, nil
}

func (s *ProductService) GetProduct(ctx context.Context, id uuid.UUID) (business.Product, error) {
	return s.queries.GetProduct(ctx, id)
}

func (s *ProductService) ListProducts(ctx context.Context) ([]business.Product, error) {
	return s.queries.ListProducts(ctx)
}

func (s *ProductService) UpdateProduct(ctx context.Context, actor business.AuditActor, id uuid.UUID, p params.ProductParams) (business.Product, error) {
	existing, err := s.queries.GetProduct(ctx, id)
	if err != nil {
		return business.Product{}, err
	}

	name := strings.TrimSpace(p.Name)
	if name == "" {
		return business.Product{}, fmt.Errorf("%w: product name is required", ErrInvalidInput)
	}

	exists, err := s.queries.ProductNameExists(ctx, name, id)
	if err != nil {
		return business.Product{}, fmt.Errorf("failed to check product name: %w", err)
	}
	if exists {
		return business.Product{}, db.ErrDuplicateName
	}

	updated, err := s.queries.UpdateProduct(ctx, business.Product{
		ID:        id,
		Name:      name,
		HSN:       strings.TrimSpace(p.HSN),
		CreatedAt: existing.CreatedAt,
	})
	if err != nil {
		return business.Product{}, fmt.Errorf("failed to update product: %w", err)
	}

	changes, diffErr := helpers.ObjectChanges(existing, updated)
	if diffErr != nil {
		s.logger.Warn("Failed to diff product for audit", zap.Error(diffErr))
	}
	s.recordAudit(ctx, actor, business.ActionUpdateProduct, updated.Name, changes)
	return updated, nil
}

func (s *ProductService) DeleteProduct(ctx context.Context, actor business.AuditActor, id uuid.UUID) error {
	product, err := s.queries.GetProduct(ctx, id)
	if err != nil {
		return err
	}

	if err := s.queries.DeleteProduct(ctx, id); err != nil {
		return fmt.Errorf("failed to delete product: %w", err)
	}

	s.recordAudit(ctx, actor, business.ActionDeleteProduct, product.Name, nil)
	return nil
}

func (s *ProductService) recordAudit(ctx context.Context, actor business.AuditActor, action business.AuditAction, productName string, changes map[string]helpers.FieldChange) {
	if _, err := s.audit.Record(ctx, business.AuditLog{
		Action:      action,
		UserID:      actor.UserID,
		UserName:    actor.UserName,
		UserEmail:   actor.Email,
		ProductName: productName,
		Changes:     changesToMap(changes),
	}); err != nil {
		s.logger.Warn("Audit write failed", zap.String("action", string(action)), zap.Error(err))
	}
}
