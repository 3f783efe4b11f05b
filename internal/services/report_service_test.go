package services_test

import (
	"context"
	"fmt"
	"sync/atomic"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/recivo/recivo-api/internal/db"
	"github.com/recivo/recivo-api/internal/services"
	"github.com/recivo/recivo-api/internal/testutil"
	"github.com/recivo/recivo-api/internal/types/business"
)

func reportInvoice(status business.InvoiceStatus, dueDate, total string) business.Invoice {
	return business.Invoice{
		ID:          uuid.New(),
		Type:        business.TypeInvoice,
		Status:      status,
		InvoiceDate: "2026-01-01",
		DueDate:     dueDate,
		Totals:      business.Totals{Total: dec(total)},
	}
}

func TestAgingReport_Buckets(t *testing.T) {
	queries := new(testutil.MockQuerier)
	now := time.Date(2026, 6, 1, 12, 0, 0, 0, time.UTC)

	queries.On("ListInvoices", mock.Anything, db.ListInvoicesParams{}).Return([]business.Invoice{
		reportInvoice(business.StatusSent, "2026-06-15", "100"),     // not yet due
		reportInvoice(business.StatusSent, "2026-05-20", "200"),     // 12 days overdue
		reportInvoice(business.StatusInvoiced, "2026-04-10", "300"), // 52 days overdue
		reportInvoice(business.StatusSent, "2026-03-10", "400"),     // 83 days overdue
		reportInvoice(business.StatusSent, "2025-12-01", "500"),     // far overdue
		reportInvoice(business.StatusPaid, "2026-05-20", "999"),     // settled, excluded
		reportInvoice(business.StatusProforma, "2026-05-20", "999"), // not billed, excluded
	}, nil)

	svc := services.NewReportService(queries, nil)
	report, err := svc.AgingReport(context.Background(), now)
	require.NoError(t, err)

	assert.True(t, report.Buckets[business.BucketCurrent].Equal(dec("100")))
	assert.True(t, report.Buckets[business.Bucket1To30].Equal(dec("200")))
	assert.True(t, report.Buckets[business.Bucket31To60].Equal(dec("300")))
	assert.True(t, report.Buckets[business.Bucket61To90].Equal(dec("400")))
	assert.True(t, report.Buckets[business.Bucket90Plus].Equal(dec("500")))
	assert.True(t, report.Buckets[business.BucketAll].Equal(dec("1500")))
}

func TestDashboard_Aggregates(t *testing.T) {
	queries := new(testutil.MockQuerier)
	now := time.Date(2026, 6, 1, 0, 0, 0, 0, time.UTC)

	entity := business.Entity{ID: uuid.New(), Name: "Zen Labs LLP"}
	customerA := business.Customer{ID: uuid.New(), Name: "Acme"}
	customerB := business.Customer{ID: uuid.New(), Name: "Bolt"}

	invA := reportInvoice(business.StatusSent, "2026-06-10", "1000")
	invA.EntityID = entity.ID
	invA.CustomerID = customerA.ID
	invA.Partner = "North"
	invB := reportInvoice(business.StatusInvoiced, "2026-05-01", "400")
	invB.EntityID = entity.ID
	invB.CustomerID = customerB.ID
	invB.InvoiceDate = "2026-02-15"
	invC := reportInvoice(business.StatusPaid, "2026-04-01", "250")
	invC.EntityID = entity.ID
	invC.CustomerID = customerA.ID
	invD := reportInvoice(business.StatusProforma, "2026-06-20", "300")
	invD.Type = business.TypeProforma
	invD.EntityID = entity.ID
	invD.CustomerID = customerB.ID
	invD.InvoiceDate = "2026-03-05"

	queries.On("ListInvoices", mock.Anything, db.ListInvoicesParams{}).
		Return([]business.Invoice{invA, invB, invC, invD}, nil).Once()
	queries.On("ListEntities", mock.Anything).Return([]business.Entity{entity}, nil).Once()
	queries.On("ListCustomers", mock.Anything).Return([]business.Customer{customerA, customerB}, nil).Once()

	svc := services.NewReportService(queries, nil)
	summary, err := svc.Dashboard(context.Background(), now)
	require.NoError(t, err)

	// Everything unpaid counts toward receivables, the proforma included.
	assert.True(t, summary.TotalReceivables.Equal(dec("1700")), "receivables %s", summary.TotalReceivables)
	assert.Equal(t, 1, summary.OverdueCount)
	assert.True(t, summary.DueNext30Days.Equal(dec("1300")), "due30 %s", summary.DueNext30Days)

	require.NotEmpty(t, summary.AmountByCustomer)
	assert.Equal(t, "Acme", summary.AmountByCustomer[0].Name)
	assert.True(t, summary.AmountByCustomer[0].Amount.Equal(dec("1250")))
	assert.Equal(t, 2, summary.AmountByCustomer[0].Count)

	require.Len(t, summary.AmountByPartner, 1)
	assert.Equal(t, "North", summary.AmountByPartner[0].Name)

	// Monthly revenue covers every invoice, proformas too.
	require.Len(t, summary.MonthlyRevenue, 3)
	assert.Equal(t, "2026-01", summary.MonthlyRevenue[0].Month)
	assert.True(t, summary.MonthlyRevenue[0].Amount.Equal(dec("1250")))
	assert.Equal(t, "2026-02", summary.MonthlyRevenue[1].Month)
	assert.Equal(t, "2026-03", summary.MonthlyRevenue[2].Month)
	assert.True(t, summary.MonthlyRevenue[2].Amount.Equal(dec("300")))

	// Second call is served from cache; no new store calls expected.
	again, err := svc.Dashboard(context.Background(), now)
	require.NoError(t, err)
	assert.True(t, again.TotalReceivables.Equal(summary.TotalReceivables))
	queries.AssertExpectations(t)
}

func TestDashboard_TopCustomersCapped(t *testing.T) {
	queries := new(testutil.MockQuerier)
	now := time.Date(2026, 6, 1, 0, 0, 0, 0, time.UTC)

	customers := make([]business.Customer, 0, 12)
	invoices := make([]business.Invoice, 0, 12)
	for i := 0; i < 12; i++ {
		c := business.Customer{ID: uuid.New(), Name: fmt.Sprintf("Customer %02d", i)}
		customers = append(customers, c)
		inv := reportInvoice(business.StatusSent, "2026-06-10", fmt.Sprintf("%d", (i+1)*100))
		inv.CustomerID = c.ID
		invoices = append(invoices, inv)
	}

	queries.On("ListInvoices", mock.Anything, db.ListInvoicesParams{}).Return(invoices, nil).Once()
	queries.On("ListEntities", mock.Anything).Return([]business.Entity{}, nil).Once()
	queries.On("ListCustomers", mock.Anything).Return(customers, nil).Once()

	svc := services.NewReportService(queries, nil)
	summary, err := svc.Dashboard(context.Background(), now)
	require.NoError(t, err)

	require.Len(t, summary.TopCustomers, 10)
	assert.Equal(t, "Customer 11", summary.TopCustomers[0].Name)
	assert.True(t, summary.TopCustomers[0].Amount.Equal(dec("1200")))
	// The full breakdown stays uncapped.
	assert.Len(t, summary.AmountByCustomer, 12)
}

func TestDashboard_ChangeFeedInvalidatesCache(t *testing.T) {
	queries := new(testutil.MockQuerier)
	feed := db.NewChangeFeed()
	now := time.Date(2026, 6, 1, 0, 0, 0, 0, time.UTC)

	var loads int32
	queries.On("ListInvoices", mock.Anything, db.ListInvoicesParams{}).
		Run(func(mock.Arguments) { atomic.AddInt32(&loads, 1) }).
		Return([]business.Invoice{}, nil)
	queries.On("ListEntities", mock.Anything).Return([]business.Entity{}, nil)
	queries.On("ListCustomers", mock.Anything).Return([]business.Customer{}, nil)

	svc := services.NewReportService(queries, feed)
	defer svc.Close()

	_, err := svc.Dashboard(context.Background(), now)
	require.NoError(t, err)
	require.EqualValues(t, 1, atomic.LoadInt32(&loads))

	feed.Publish(db.ChangeEvent{Collection: "invoices", Op: db.OpCreate, ID: "x"})

	// Once the event drains, the next call rebuilds from the store.
	require.Eventually(t, func() bool {
		if _, err := svc.Dashboard(context.Background(), now); err != nil {
			return false
		}
		return atomic.LoadInt32(&loads) >= 2
	}, time.Second, 5*time.Millisecond)
}
