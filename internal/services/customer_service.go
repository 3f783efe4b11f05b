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

// CustomerService manages the customer master.
type CustomerService struct {
	queries db.Querier
	audit   *AuditService
	logger  *zap.Logger
}

// NewCustomerService creates a new customer service
func NewCustomerService(queries db.Querier, audit *AuditService) *CustomerService {
	return &CustomerService{
		queries: queries,
		audit:   audit,
		logger:  logger.Log,
	}
}

func (s *CustomerService) buildCustomer(p params.CustomerParams) (business.Customer, error) {
	name := strings.TrimSpace(p.Name)
	if name == "" {
		return business.Customer{}, fmt.Errorf("%w: customer name is required", ErrInvalidInput)
	}

	gstin := strings.ToUpper(strings.TrimSpace(p.GSTIN))
	pan := strings.ToUpper(strings.TrimSpace(p.PAN))
	placeOfSupply := strings.TrimSpace(p.PlaceOfSupply)
	applyGstinInference(gstin, &pan, &placeOfSupply)

	if p.GstRegistered {
		if gstin == "" {
			return business.Customer{}, fmt.Errorf("%w: GSTIN is required for a GST registered customer", ErrInvalidInput)
		}
		if pan == "" {
			return business.Customer{}, fmt.Errorf("%w: PAN is required for a GST registered customer", ErrInvalidInput)
		}
	}

	return business.Customer{
		Name:          name,
		GstRegistered: p.GstRegistered || gstin != "",
		GSTIN:         gstin,
		PAN:           pan,
		PlaceOfSupply: placeOfSupply,
		Email:         strings.TrimSpace(p.Email),
		Phone:         strings.TrimSpace(p.Phone),
		Address:       p.Address,
	}, nil
}

func (s *CustomerService) CreateCustomer(ctx context.Context, actor business.AuditActor, p params.CustomerParams) (business.Customer, error) {
	customer, err := s.buildCustomer(p)
	if err != nil {
		return business.Customer{}, err
	}

	exists, err := s.queries.CustomerNameExists(ctx, customer.Name, uuid.Nil)
	if err != nil {
		return business.Customer{}, fmt.Errorf("failed to check customer name: %w", err)
	}
	if exists {
		return business.Customer{}, db.ErrDuplicateName
	}

	customer.ID = uuid.New()
	created, err := s.queries.CreateCustomer(ctx, customer)
	if err != nil {
		return business.Customer{}, fmt.Errorf("failed to create customer: %w", err)
	}

	s.recordAudit(ctx, actor, business.ActionCreateCustomer, created.Name, nil)
	return created, nil
}

func (s *CustomerService) GetCustomer(ctx context.Context, id uuid.UUID) (business.Customer, error) {
	return s.queries.GetCustomer(ctx, id)
}

func (s *CustomerService) ListCustomers(ctx context.Context) ([]business.Customer, error) {
	return s.queries.ListCustomers(ctx)
}

func (s *CustomerService) UpdateCustomer(ctx context.Context, actor business.AuditActor, id uuid.UUID, p params.CustomerParams) (business.Customer, error) {
	existing, err := s.queries.GetCustomer(ctx, id)
	if err != nil {
		return business.Customer{}, err
	}

	customer, err := s.buildCustomer(p)
	if err != nil {
		return business.Customer{}, err
	}

	exists, err := s.queries.CustomerNameExists(ctx, customer.Name, id)
	if err != nil {
		return business.Customer{}, fmt.Errorf("failed to check customer name: %w", err)
	}
	if exists {
		return business.Customer{}, db.ErrDuplicateName
	}

	customer.ID = id
	customer.CreatedAt = existing.CreatedAt

	updated, err := s.queries.UpdateCustomer(ctx, customer)
	if err != nil {
		return business.Customer{}, fmt.Errorf("failed to update customer: %w", err)
	}

	changes, diffErr := helpers.ObjectChanges(existing, updated)
	if diffErr != nil {
		s.logger.Warn("Failed to diff customer for audit", zap.Error(diffErr))
	}
	s.recordAudit(ctx, actor, business.ActionUpdateCustomer, updated.Name, changes)
	return updated, nil
}

// DeleteCustomer refuses to remove a customer referenced by any invoice.
func (s *CustomerService) DeleteCustomer(ctx context.Context, actor business.AuditActor, id uuid.UUID) error {
	customer, err := s.queries.GetCustomer(ctx, id)
	if err != nil {
		return err
	}

	count, err := s.queries.CountInvoicesForCustomer(ctx, id)
	if err != nil {
		return fmt.Errorf("failed to count customer invoices: %w", err)
	}
	if count > 0 {
		return fmt.Errorf("%w: customer %q has %d invoice(s)", ErrConflict, customer.Name, count)
	}

	if err := s.queries.DeleteCustomer(ctx, id); err != nil {
		return fmt.Errorf("failed to delete customer: %w", err)
	}

	s.recordAudit(ctx, actor, business.ActionDeleteCustomer, customer.Name, nil)
	return nil
}

func (s *CustomerService) recordAudit(ctx context.Context, actor business.AuditActor, action business.AuditAction, customerName string, changes map[string]helpers.FieldChange) {
	if _, err := s.audit.Record(ctx, business.AuditLog{
		Action:       action,
		UserID:       actor.UserID,
		UserName:     actor.UserName,
		UserEmail:    actor.Email,
		CustomerName: customerName,
		Changes:      changesToMap(changes),
	}); err != nil {
		s.logger.Warn("Audit write failed", zap.String("action", string(action)), zap.Error(err))
	}
}
