package services_test

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/recivo/recivo-api/internal/db"
	"github.com/recivo/recivo-api/internal/services"
	"github.com/recivo/recivo-api/internal/testutil"
	"github.com/recivo/recivo-api/internal/types/api/params"
	"github.com/recivo/recivo-api/internal/types/business"
)

type mockPDFRenderer struct {
	mock.Mock
}

func (m *mockPDFRenderer) RenderInvoice(invoice business.Invoice, entity business.Entity, customer business.Customer) ([]byte, error) {
	args := m.Called(invoice, entity, customer)
	return args.Get(0).([]byte), args.Error(1)
}

type mockEmailSender struct {
	mock.Mock
}

func (m *mockEmailSender) SendInvoiceEmail(ctx context.Context, invoice business.Invoice, entity business.Entity, customer business.Customer, pdf []byte) error {
	args := m.Called(ctx, invoice, entity, customer, pdf)
	return args.Error(0)
}

type invoiceFixture struct {
	queries *testutil.MockQuerier
	pdf     *mockPDFRenderer
	email   *mockEmailSender
	svc     *services.InvoiceService

	entity   business.Entity
	customer business.Customer
	actor    business.AuditActor
}

func newInvoiceFixture() *invoiceFixture {
	queries := new(testutil.MockQuerier)
	pdf := new(mockPDFRenderer)
	email := new(mockEmailSender)

	return &invoiceFixture{
		queries: queries,
		pdf:     pdf,
		email:   email,
		svc:     services.NewInvoiceService(queries, services.NewTaxService(), services.NewAuditService(queries), pdf, email),
		entity: business.Entity{
			ID:            uuid.New(),
			Name:          "Zen Labs LLP",
			GstRegistered: true,
			PlaceOfSupply: "Maharashtra",
			InvoicePrefix: "ZL-",
		},
		customer: business.Customer{
			ID:            uuid.New(),
			Name:          "Acme Traders",
			PlaceOfSupply: "Karnataka",
			Email:         "billing@acme.example",
		},
		actor: business.AuditActor{UserID: "u1", UserName: "Asha", Email: "asha@example.com"},
	}
}

func (f *invoiceFixture) expectParties() {
	f.queries.On("GetEntity", mock.Anything, f.entity.ID).Return(f.entity, nil)
	f.queries.On("GetCustomer", mock.Anything, f.customer.ID).Return(f.customer, nil)
}

func (f *invoiceFixture) expectAudit() {
	f.queries.On("CreateAuditLog", mock.Anything, mock.Anything).Return(business.AuditLog{}, nil)
}

func TestInvoiceService_CreateInvoice(t *testing.T) {
	t.Run("derives status, due date and totals", func(t *testing.T) {
		f := newInvoiceFixture()
		f.expectParties()
		f.expectAudit()

		var stored business.Invoice
		f.queries.On("CreateInvoice", mock.Anything, mock.Anything).
			Run(func(args mock.Arguments) {
				stored = args.Get(1).(business.Invoice)
				stored.InvoiceNumber = "ZL-001"
			}).
			Return(business.Invoice{InvoiceNumber: "ZL-001"}, nil).
			Once()

		_, err := f.svc.CreateInvoice(context.Background(), f.actor, params.CreateInvoiceParams{
			Type:        business.TypeInvoice,
			EntityID:    f.entity.ID,
			CustomerID:  f.customer.ID,
			InvoiceDate: "2026-04-01",
			Items:       []business.LineItem{lineItem("1", "1000", "0", "18")},
		})
		require.NoError(t, err)

		assert.Equal(t, business.StatusInvoiced, stored.Status)
		assert.Equal(t, business.DefaultPaymentTermsDays, stored.PaymentTerms)
		assert.Equal(t, "2026-04-11", stored.DueDate)
		assert.True(t, stored.GstApplicable)
		assert.Equal(t, business.GstTypeIGST, stored.GstType)
		assert.True(t, stored.Total.Equal(dec("1180")))
		f.queries.AssertExpectations(t)
	})

	t.Run("proforma starts in proforma status", func(t *testing.T) {
		f := newInvoiceFixture()
		f.expectParties()
		f.expectAudit()

		var stored business.Invoice
		f.queries.On("CreateInvoice", mock.Anything, mock.Anything).
			Run(func(args mock.Arguments) { stored = args.Get(1).(business.Invoice) }).
			Return(business.Invoice{}, nil)

		_, err := f.svc.CreateInvoice(context.Background(), f.actor, params.CreateInvoiceParams{
			Type:        business.TypeProforma,
			EntityID:    f.entity.ID,
			CustomerID:  f.customer.ID,
			InvoiceDate: "2026-04-01",
			Items:       []business.LineItem{lineItem("1", "500", "0", "18")},
		})
		require.NoError(t, err)
		assert.Equal(t, business.StatusProforma, stored.Status)
	})

	t.Run("unregistered entity cannot issue a proforma", func(t *testing.T) {
		f := newInvoiceFixture()
		f.entity.GstRegistered = false
		f.expectParties()
		f.expectAudit()

		var stored business.Invoice
		f.queries.On("CreateInvoice", mock.Anything, mock.Anything).
			Run(func(args mock.Arguments) { stored = args.Get(1).(business.Invoice) }).
			Return(business.Invoice{}, nil)

		_, err := f.svc.CreateInvoice(context.Background(), f.actor, params.CreateInvoiceParams{
			Type:        business.TypeProforma,
			EntityID:    f.entity.ID,
			CustomerID:  f.customer.ID,
			InvoiceDate: "2026-04-01",
			Items:       []business.LineItem{lineItem("1", "500", "0", "18")},
		})
		require.NoError(t, err)
		assert.Equal(t, business.TypeInvoice, stored.Type)
		assert.Equal(t, business.StatusInvoiced, stored.Status)
		assert.False(t, stored.GstApplicable)
	})

	t.Run("explicit payment terms shift the due date", func(t *testing.T) {
		f := newInvoiceFixture()
		f.expectParties()
		f.expectAudit()

		var stored business.Invoice
		f.queries.On("CreateInvoice", mock.Anything, mock.Anything).
			Run(func(args mock.Arguments) { stored = args.Get(1).(business.Invoice) }).
			Return(business.Invoice{}, nil)

		_, err := f.svc.CreateInvoice(context.Background(), f.actor, params.CreateInvoiceParams{
			Type:         business.TypeInvoice,
			EntityID:     f.entity.ID,
			CustomerID:   f.customer.ID,
			InvoiceDate:  "2026-01-31",
			PaymentTerms: 30,
			Items:        []business.LineItem{lineItem("1", "500", "0", "18")},
		})
		require.NoError(t, err)
		assert.Equal(t, "2026-03-02", stored.DueDate)
	})

	t.Run("rejects malformed date", func(t *testing.T) {
		f := newInvoiceFixture()

		_, err := f.svc.CreateInvoice(context.Background(), f.actor, params.CreateInvoiceParams{
			Type:        business.TypeInvoice,
			EntityID:    f.entity.ID,
			CustomerID:  f.customer.ID,
			InvoiceDate: "01/04/2026",
			Items:       []business.LineItem{lineItem("1", "500", "0", "18")},
		})
		require.ErrorIs(t, err, services.ErrInvalidInput)
	})

	t.Run("rejects unknown partner", func(t *testing.T) {
		f := newInvoiceFixture()
		f.expectParties()
		f.queries.On("PartnerNameExists", mock.Anything, "Nobody", uuid.Nil).Return(false, nil)

		_, err := f.svc.CreateInvoice(context.Background(), f.actor, params.CreateInvoiceParams{
			Type:        business.TypeInvoice,
			EntityID:    f.entity.ID,
			CustomerID:  f.customer.ID,
			Partner:     "Nobody",
			InvoiceDate: "2026-04-01",
			Items:       []business.LineItem{lineItem("1", "500", "0", "18")},
		})
		require.ErrorIs(t, err, services.ErrInvalidInput)
	})

	t.Run("rejects missing customer", func(t *testing.T) {
		f := newInvoiceFixture()
		f.queries.On("GetEntity", mock.Anything, f.entity.ID).Return(f.entity, nil)
		f.queries.On("GetCustomer", mock.Anything, f.customer.ID).Return(business.Customer{}, db.ErrNotFound)

		_, err := f.svc.CreateInvoice(context.Background(), f.actor, params.CreateInvoiceParams{
			Type:        business.TypeInvoice,
			EntityID:    f.entity.ID,
			CustomerID:  f.customer.ID,
			InvoiceDate: "2026-04-01",
			Items:       []business.LineItem{lineItem("1", "500", "0", "18")},
		})
		require.ErrorIs(t, err, services.ErrInvalidInput)
	})
}

func TestInvoiceService_UpdateInvoice(t *testing.T) {
	t.Run("sent invoice is frozen", func(t *testing.T) {
		f := newInvoiceFixture()
		id := uuid.New()
		f.queries.On("GetInvoice", mock.Anything, id).
			Return(business.Invoice{ID: id, Status: business.StatusSent}, nil)

		_, err := f.svc.UpdateInvoice(context.Background(), f.actor, id, params.UpdateInvoiceParams{
			CustomerID:  f.customer.ID,
			InvoiceDate: "2026-04-01",
			Items:       []business.LineItem{lineItem("1", "500", "0", "18")},
		})
		require.ErrorIs(t, err, services.ErrConflict)
		f.queries.AssertNotCalled(t, "UpdateInvoice", mock.Anything, mock.Anything)
	})

	t.Run("recomputes totals and records the diff", func(t *testing.T) {
		f := newInvoiceFixture()
		f.expectParties()
		id := uuid.New()
		existing := business.Invoice{
			ID:           id,
			Type:         business.TypeInvoice,
			Status:       business.StatusInvoiced,
			EntityID:     f.entity.ID,
			CustomerID:   f.customer.ID,
			InvoiceDate:  "2026-04-01",
			PaymentTerms: 10,
			DueDate:      "2026-04-11",
			Narration:    "old note",
			Items:        []business.LineItem{lineItem("1", "500", "0", "18")},
		}
		f.queries.On("GetInvoice", mock.Anything, id).Return(existing, nil)

		var stored business.Invoice
		f.queries.On("UpdateInvoice", mock.Anything, mock.Anything).
			Run(func(args mock.Arguments) { stored = args.Get(1).(business.Invoice) }).
			Return(business.Invoice{Narration: "new note"}, nil)
		f.queries.On("CreateAuditLog", mock.Anything, mock.MatchedBy(func(e business.AuditLog) bool {
			return e.Action == business.ActionUpdateInvoice && len(e.Changes) > 0
		})).Return(business.AuditLog{}, nil)

		_, err := f.svc.UpdateInvoice(context.Background(), f.actor, id, params.UpdateInvoiceParams{
			CustomerID:  f.customer.ID,
			InvoiceDate: "2026-04-01",
			Items:       []business.LineItem{lineItem("2", "500", "0", "18")},
			Narration:   "new note",
		})
		require.NoError(t, err)
		assert.True(t, stored.Total.Equal(dec("1180")))
		f.queries.AssertExpectations(t)
	})
}

func TestInvoiceService_ConvertToInvoice(t *testing.T) {
	t.Run("converts a proforma", func(t *testing.T) {
		f := newInvoiceFixture()
		f.expectParties()
		f.expectAudit()
		id := uuid.New()
		f.queries.On("GetInvoice", mock.Anything, id).Return(business.Invoice{
			ID:         id,
			Type:       business.TypeProforma,
			Status:     business.StatusProforma,
			EntityID:   f.entity.ID,
			CustomerID: f.customer.ID,
			Items:      []business.LineItem{lineItem("1", "1000", "0", "18")},
		}, nil)

		var stored business.Invoice
		f.queries.On("UpdateInvoice", mock.Anything, mock.Anything).
			Run(func(args mock.Arguments) { stored = args.Get(1).(business.Invoice) }).
			Return(business.Invoice{}, nil)

		_, err := f.svc.ConvertToInvoice(context.Background(), f.actor, id)
		require.NoError(t, err)
		assert.Equal(t, business.TypeInvoice, stored.Type)
		assert.Equal(t, business.StatusInvoiced, stored.Status)
		assert.True(t, stored.GstApplicable)
	})

	t.Run("conversion applies gst even when the entity is unregistered", func(t *testing.T) {
		f := newInvoiceFixture()
		f.entity.GstRegistered = false
		f.expectParties()
		f.expectAudit()
		id := uuid.New()
		f.queries.On("GetInvoice", mock.Anything, id).Return(business.Invoice{
			ID:         id,
			Type:       business.TypeProforma,
			Status:     business.StatusProforma,
			EntityID:   f.entity.ID,
			CustomerID: f.customer.ID,
			Items:      []business.LineItem{lineItem("1", "1000", "0", "18")},
		}, nil)

		var stored business.Invoice
		f.queries.On("UpdateInvoice", mock.Anything, mock.Anything).
			Run(func(args mock.Arguments) { stored = args.Get(1).(business.Invoice) }).
			Return(business.Invoice{}, nil)

		_, err := f.svc.ConvertToInvoice(context.Background(), f.actor, id)
		require.NoError(t, err)
		assert.True(t, stored.GstApplicable)
		assert.Equal(t, business.GstTypeIGST, stored.GstType)
		assert.True(t, stored.Total.Equal(dec("1180")))
	})

	t.Run("conversion keeps an export customer exempt", func(t *testing.T) {
		f := newInvoiceFixture()
		f.customer.PlaceOfSupply = business.PlaceOfSupplyExport
		f.expectParties()
		f.expectAudit()
		id := uuid.New()
		f.queries.On("GetInvoice", mock.Anything, id).Return(business.Invoice{
			ID:         id,
			Type:       business.TypeProforma,
			Status:     business.StatusProforma,
			EntityID:   f.entity.ID,
			CustomerID: f.customer.ID,
			Items:      []business.LineItem{lineItem("1", "1000", "0", "18")},
		}, nil)

		var stored business.Invoice
		f.queries.On("UpdateInvoice", mock.Anything, mock.Anything).
			Run(func(args mock.Arguments) { stored = args.Get(1).(business.Invoice) }).
			Return(business.Invoice{}, nil)

		_, err := f.svc.ConvertToInvoice(context.Background(), f.actor, id)
		require.NoError(t, err)
		assert.False(t, stored.GstApplicable)
		assert.True(t, stored.Total.Equal(dec("1000")))
	})

	t.Run("rejects a regular invoice", func(t *testing.T) {
		f := newInvoiceFixture()
		id := uuid.New()
		f.queries.On("GetInvoice", mock.Anything, id).Return(business.Invoice{
			ID: id, Type: business.TypeInvoice, Status: business.StatusInvoiced,
		}, nil)

		_, err := f.svc.ConvertToInvoice(context.Background(), f.actor, id)
		require.ErrorIs(t, err, services.ErrConflict)
	})
}

func TestInvoiceService_MarkSent(t *testing.T) {
	newSendable := func(f *invoiceFixture) business.Invoice {
		return business.Invoice{
			ID:            uuid.New(),
			Type:          business.TypeInvoice,
			Status:        business.StatusInvoiced,
			EntityID:      f.entity.ID,
			CustomerID:    f.customer.ID,
			InvoiceNumber: "ZL-007",
			Items:         []business.LineItem{lineItem("1", "1000", "0", "18")},
		}
	}

	t.Run("sends the pdf by email", func(t *testing.T) {
		f := newInvoiceFixture()
		inv := newSendable(f)
		f.queries.On("GetInvoice", mock.Anything, inv.ID).Return(inv, nil)
		f.queries.On("UpdateInvoice", mock.Anything, mock.Anything).Return(inv, nil)
		f.expectParties()
		f.expectAudit()
		f.pdf.On("RenderInvoice", mock.Anything, f.entity, f.customer).Return([]byte("%PDF"), nil)
		f.email.On("SendInvoiceEmail", mock.Anything, mock.Anything, f.entity, f.customer, []byte("%PDF")).Return(nil)

		_, err := f.svc.MarkSent(context.Background(), f.actor, inv.ID)
		require.NoError(t, err)
		f.email.AssertExpectations(t)
	})

	t.Run("email failure does not fail the transition", func(t *testing.T) {
		f := newInvoiceFixture()
		inv := newSendable(f)
		sentInv := inv
		sentInv.Status = business.StatusSent
		f.queries.On("GetInvoice", mock.Anything, inv.ID).Return(inv, nil)
		f.queries.On("UpdateInvoice", mock.Anything, mock.Anything).Return(sentInv, nil)
		f.expectParties()
		f.expectAudit()
		f.pdf.On("RenderInvoice", mock.Anything, f.entity, f.customer).Return([]byte("%PDF"), nil)
		f.email.On("SendInvoiceEmail", mock.Anything, mock.Anything, f.entity, f.customer, []byte("%PDF")).
			Return(errors.New("smtp down"))

		updated, err := f.svc.MarkSent(context.Background(), f.actor, inv.ID)
		require.NoError(t, err)
		assert.Equal(t, business.StatusSent, updated.Status)
	})

	t.Run("proforma cannot skip to sent", func(t *testing.T) {
		f := newInvoiceFixture()
		id := uuid.New()
		f.queries.On("GetInvoice", mock.Anything, id).Return(business.Invoice{
			ID: id, Status: business.StatusProforma,
		}, nil)

		_, err := f.svc.MarkSent(context.Background(), f.actor, id)
		require.ErrorIs(t, err, services.ErrConflict)
	})
}

func TestInvoiceService_MarkPaid(t *testing.T) {
	sent := func(f *invoiceFixture) business.Invoice {
		return business.Invoice{
			ID:         uuid.New(),
			Status:     business.StatusSent,
			EntityID:   f.entity.ID,
			CustomerID: f.customer.ID,
			Totals:     business.Totals{Total: dec("1180")},
		}
	}

	t.Run("computes gst tds spillover", func(t *testing.T) {
		f := newInvoiceFixture()
		inv := sent(f)
		f.queries.On("GetInvoice", mock.Anything, inv.ID).Return(inv, nil)
		f.expectParties()
		f.expectAudit()

		var stored business.Invoice
		f.queries.On("UpdateInvoice", mock.Anything, mock.Anything).
			Run(func(args mock.Arguments) { stored = args.Get(1).(business.Invoice) }).
			Return(inv, nil)

		_, err := f.svc.MarkPaid(context.Background(), f.actor, inv.ID, params.MarkInvoicePaidParams{
			PaymentDate:         "2026-05-01",
			TotalAmountReceived: dec("1000"),
			TDSReceivable:       dec("100"),
		})
		require.NoError(t, err)
		assert.Equal(t, business.StatusPaid, stored.Status)
		assert.True(t, stored.GstTDS.Equal(dec("80")), "gstTds %s", stored.GstTDS)
	})

	t.Run("overpayment clamps spillover at zero", func(t *testing.T) {
		f := newInvoiceFixture()
		inv := sent(f)
		f.queries.On("GetInvoice", mock.Anything, inv.ID).Return(inv, nil)
		f.expectParties()
		f.expectAudit()

		var stored business.Invoice
		f.queries.On("UpdateInvoice", mock.Anything, mock.Anything).
			Run(func(args mock.Arguments) { stored = args.Get(1).(business.Invoice) }).
			Return(inv, nil)

		_, err := f.svc.MarkPaid(context.Background(), f.actor, inv.ID, params.MarkInvoicePaidParams{
			PaymentDate:         "2026-05-01",
			TotalAmountReceived: dec("1200"),
		})
		require.NoError(t, err)
		assert.True(t, stored.GstTDS.IsZero())
	})

	t.Run("audit entry carries the party names", func(t *testing.T) {
		f := newInvoiceFixture()
		inv := sent(f)
		f.queries.On("GetInvoice", mock.Anything, inv.ID).Return(inv, nil)
		f.expectParties()
		f.queries.On("UpdateInvoice", mock.Anything, mock.Anything).Return(inv, nil)
		f.queries.On("CreateAuditLog", mock.Anything, mock.MatchedBy(func(e business.AuditLog) bool {
			return e.Action == business.ActionMarkInvoiceAsPaid &&
				e.EntityName == f.entity.Name &&
				e.CustomerName == f.customer.Name
		})).Return(business.AuditLog{}, nil)

		_, err := f.svc.MarkPaid(context.Background(), f.actor, inv.ID, params.MarkInvoicePaidParams{
			PaymentDate:         "2026-05-01",
			TotalAmountReceived: dec("1180"),
		})
		require.NoError(t, err)
		f.queries.AssertExpectations(t)
	})

	t.Run("only a sent invoice can be paid", func(t *testing.T) {
		f := newInvoiceFixture()
		id := uuid.New()
		f.queries.On("GetInvoice", mock.Anything, id).Return(business.Invoice{
			ID: id, Status: business.StatusInvoiced,
		}, nil)

		_, err := f.svc.MarkPaid(context.Background(), f.actor, id, params.MarkInvoicePaidParams{
			PaymentDate: "2026-05-01",
		})
		require.ErrorIs(t, err, services.ErrConflict)
	})
}

func TestInvoiceService_DeleteInvoice(t *testing.T) {
	f := newInvoiceFixture()
	id := uuid.New()
	f.queries.On("GetInvoice", mock.Anything, id).Return(business.Invoice{
		ID:            id,
		Status:        business.StatusPaid,
		InvoiceNumber: "ZL-003",
		EntityID:      f.entity.ID,
		CustomerID:    f.customer.ID,
	}, nil)
	f.expectParties()
	f.queries.On("DeleteInvoice", mock.Anything, id).Return(nil)
	f.queries.On("CreateAuditLog", mock.Anything, mock.MatchedBy(func(e business.AuditLog) bool {
		return e.Action == business.ActionDeleteInvoice && e.InvoiceNumber == "ZL-003" &&
			e.EntityName == f.entity.Name && e.CustomerName == f.customer.Name
	})).Return(business.AuditLog{}, nil)

	err := f.svc.DeleteInvoice(context.Background(), f.actor, id)
	require.NoError(t, err)
	f.queries.AssertExpectations(t)
}
