package services

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/recivo/recivo-api/internal/constants"
	"github.com/recivo/recivo-api/internal/db"
	"github.com/recivo/recivo-api/internal/logger"
	"github.com/recivo/recivo-api/internal/types/business"
)

// ReportService derives read-only aggregates from the invoice set. The
// dashboard summary is cached until a change event for any contributing
// collection invalidates it.
type ReportService struct {
	queries db.Querier
	logger  *zap.Logger

	mu     sync.RWMutex
	cached *business.DashboardSummary

	cancelFeed func()
}

// NewReportService creates a new report service. When feed is non-nil the
// service subscribes for cache invalidation; call Close to detach.
func NewReportService(queries db.Querier, feed *db.ChangeFeed) *ReportService {
	s := &ReportService{
		queries: queries,
		logger:  logger.Log,
	}
	if feed != nil {
		events, cancel := feed.Subscribe()
		s.cancelFeed = cancel
		go s.consumeFeed(events)
	}
	return s
}

// Close detaches the change feed subscription.
func (s *ReportService) Close() {
	if s.cancelFeed != nil {
		s.cancelFeed()
	}
}

var dashboardCollections = map[string]struct{}{
	constants.CollectionInvoices:  {},
	constants.CollectionEntities:  {},
	constants.CollectionCustomers: {},
	constants.CollectionPartners:  {},
}

func (s *ReportService) consumeFeed(events <-chan db.ChangeEvent) {
	for event := range events {
		if _, ok := dashboardCollections[event.Collection]; !ok {
			continue
		}
		s.mu.Lock()
		s.cached = nil
		s.mu.Unlock()
	}
}

// outstanding reports whether an invoice has been issued and is awaiting
// payment. Aging buckets only these; the dashboard receivables additionally
// count proformas.
func outstanding(inv business.Invoice) bool {
	return inv.Status == business.StatusInvoiced || inv.Status == business.StatusSent
}

// AgingReport buckets outstanding invoice totals by days overdue as of now.
// Invoices not yet due land in the current bucket.
func (s *ReportService) AgingReport(ctx context.Context, now time.Time) (business.AgingReport, error) {
	invoices, err := s.queries.ListInvoices(ctx, db.ListInvoicesParams{})
	if err != nil {
		return business.AgingReport{}, fmt.Errorf("failed to list invoices: %w", err)
	}

	buckets := map[string]decimal.Decimal{
		business.BucketAll:     decimal.Zero,
		business.BucketCurrent: decimal.Zero,
		business.Bucket1To30:   decimal.Zero,
		business.Bucket31To60:  decimal.Zero,
		business.Bucket61To90:  decimal.Zero,
		business.Bucket90Plus:  decimal.Zero,
	}

	today := now.Truncate(24 * time.Hour)
	for _, inv := range invoices {
		if !outstanding(inv) {
			continue
		}
		bucket := agingBucket(inv.DueDate, today)
		buckets[bucket] = buckets[bucket].Add(inv.Total)
		buckets[business.BucketAll] = buckets[business.BucketAll].Add(inv.Total)
	}
	return business.AgingReport{Buckets: buckets}, nil
}

func agingBucket(dueDate string, today time.Time) string {
	due, err := time.Parse(business.DateFormat, dueDate)
	if err != nil {
		return business.BucketCurrent
	}
	overdueDays := int(today.Sub(due).Hours() / 24)
	switch {
	case overdueDays <= 0:
		return business.BucketCurrent
	case overdueDays <= 30:
		return business.Bucket1To30
	case overdueDays <= 60:
		return business.Bucket31To60
	case overdueDays <= 90:
		return business.Bucket61To90
	default:
		return business.Bucket90Plus
	}
}

// Dashboard builds the full dashboard summary, serving a cached copy when
// nothing has changed since the last build.
func (s *ReportService) Dashboard(ctx context.Context, now time.Time) (business.DashboardSummary, error) {
	s.mu.RLock()
	if s.cached != nil {
		summary := *s.cached
		s.mu.RUnlock()
		return summary, nil
	}
	s.mu.RUnlock()

	invoices, err := s.queries.ListInvoices(ctx, db.ListInvoicesParams{})
	if err != nil {
		return business.DashboardSummary{}, fmt.Errorf("failed to list invoices: %w", err)
	}
	entities, err := s.queries.ListEntities(ctx)
	if err != nil {
		return business.DashboardSummary{}, fmt.Errorf("failed to list entities: %w", err)
	}
	customers, err := s.queries.ListCustomers(ctx)
	if err != nil {
		return business.DashboardSummary{}, fmt.Errorf("failed to list customers: %w", err)
	}

	entityNames := make(map[uuid.UUID]string, len(entities))
	for _, e := range entities {
		entityNames[e.ID] = e.Name
	}
	customerNames := make(map[uuid.UUID]string, len(customers))
	for _, c := range customers {
		customerNames[c.ID] = c.Name
	}

	summary := buildDashboard(invoices, entityNames, customerNames, now)

	s.mu.Lock()
	s.cached = &summary
	s.mu.Unlock()
	return summary, nil
}

func buildDashboard(invoices []business.Invoice, entityNames, customerNames map[uuid.UUID]string, now time.Time) business.DashboardSummary {
	summary := business.DashboardSummary{
		TotalReceivables: decimal.Zero,
		DueNext30Days:    decimal.Zero,
	}

	today := now.Truncate(24 * time.Hour)
	horizon := today.AddDate(0, 0, 30)

	byStatus := newAggregator()
	byEntity := newAggregator()
	byPartner := newAggregator()
	byCustomer := newAggregator()
	byMonth := map[string]decimal.Decimal{}

	for _, inv := range invoices {
		byStatus.add(string(inv.Status), inv.Total)
		byEntity.add(entityNames[inv.EntityID], inv.Total)
		byCustomer.add(customerNames[inv.CustomerID], inv.Total)
		if inv.Partner != "" {
			byPartner.add(inv.Partner, inv.Total)
		}

		if d, err := time.Parse(business.DateFormat, inv.InvoiceDate); err == nil {
			month := d.Format("2006-01")
			byMonth[month] = byMonth[month].Add(inv.Total)
		}

		// Anything not settled counts toward receivables, proformas
		// included.
		if inv.Status == business.StatusPaid {
			continue
		}
		summary.TotalReceivables = summary.TotalReceivables.Add(inv.Total)
		if due, err := time.Parse(business.DateFormat, inv.DueDate); err == nil {
			if due.Before(today) {
				summary.OverdueCount++
			} else if !due.After(horizon) {
				summary.DueNext30Days = summary.DueNext30Days.Add(inv.Total)
			}
		}
	}

	summary.AmountByStatus = byStatus.sorted()
	summary.AmountByEntity = byEntity.sorted()
	summary.AmountByPartner = byPartner.sorted()
	summary.AmountByCustomer = byCustomer.sorted()

	top := byCustomer.sorted()
	if len(top) > 10 {
		top = top[:10]
	}
	summary.TopCustomers = top

	months := make([]string, 0, len(byMonth))
	for m := range byMonth {
		months = append(months, m)
	}
	sort.Strings(months)
	summary.MonthlyRevenue = make([]business.MonthlyRevenue, 0, len(months))
	for _, m := range months {
		summary.MonthlyRevenue = append(summary.MonthlyRevenue, business.MonthlyRevenue{Month: m, Amount: byMonth[m]})
	}
	return summary
}

type aggregator struct {
	amounts map[string]decimal.Decimal
	counts  map[string]int
}

func newAggregator() *aggregator {
	return &aggregator{
		amounts: map[string]decimal.Decimal{},
		counts:  map[string]int{},
	}
}

func (a *aggregator) add(name string, amount decimal.Decimal) {
	if name == "" {
		return
	}
	a.amounts[name] = a.amounts[name].Add(amount)
	a.counts[name]++
}

// sorted returns the aggregates largest first, ties broken by name so the
// output is stable.
func (a *aggregator) sorted() []business.NameAggregate {
	out := make([]business.NameAggregate, 0, len(a.amounts))
	for name, amount := range a.amounts {
		out = append(out, business.NameAggregate{Name: name, Amount: amount, Count: a.counts[name]})
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].Amount.Equal(out[j].Amount) {
			return out[i].Amount.GreaterThan(out[j].Amount)
		}
		return out[i].Name < out[j].Name
	})
	return out
}
