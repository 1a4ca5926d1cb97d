package student_test

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/trezcool/bolsa/core"
	"github.com/trezcool/bolsa/core/student"
	inmemdb "github.com/trezcool/bolsa/storage/database/inmem"
	testutil "github.com/trezcool/bolsa/tests"
)

func newService() (*student.Service, student.Repository) {
	repo := inmemdb.NewStudentRepository(inmemdb.Open())
	return student.NewService(repo, "MZN"), repo
}

func TestNewStudent_Validate(t *testing.T) {
	ctx := context.Background()
	svc, repo := newService()
	validate := testutil.NewValidator()
	testutil.CreateStudent(t, repo, "Taken", "taken@example.com", student.CohortTuition, "")

	ns := student.NewStudent{Name: " Dario Nhaca ", Email: "DARIO@example.com"}
	require.NoError(t, ns.Validate(ctx, validate, svc))
	assert.Equal(t, student.CohortTuition, ns.Cohort, "cohort defaults to tuition")
	assert.Equal(t, "dario@example.com", ns.Email)

	ns = student.NewStudent{Name: "Dario", Cohort: "boarding"}
	assert.Error(t, ns.Validate(ctx, validate, svc))

	ns = student.NewStudent{Name: "Dario", Email: "taken@example.com"}
	err := ns.Validate(ctx, validate, svc)
	require.Error(t, err)
	assert.True(t, core.IsValidationError(err))
}

func TestService_Update(t *testing.T) {
	ctx := context.Background()
	svc, repo := newService()
	validate := testutil.NewValidator()
	orig := testutil.CreateStudent(t, repo, "Dario Nhaca", "dario@example.com", student.CohortTuition, "")

	inactive := false
	us := student.UpdateStudent{Cohort: "sponsorship", IsActive: &inactive}
	require.NoError(t, us.Validate(ctx, validate, orig, svc))
	updated, err := svc.Update(ctx, orig, us)
	require.NoError(t, err)
	assert.Equal(t, "Dario Nhaca", updated.Name)
	assert.Equal(t, student.CohortSponsorship, updated.Cohort)
	assert.False(t, updated.IsActive)
	assert.Equal(t, orig.CreatedAt, updated.CreatedAt)

	// keeping its own email is not a conflict
	us = student.UpdateStudent{Email: "dario@example.com"}
	assert.NoError(t, us.Validate(ctx, validate, updated, svc))
}

func TestNewPayment_Validate(t *testing.T) {
	validate := testutil.NewValidator()
	tuition := student.Student{Cohort: student.CohortTuition}
	sponsored := student.Student{Cohort: student.CohortSponsorship}

	tests := []struct {
		name         string
		std          student.Student
		np           student.NewPayment
		wantCurrency string
		wantErr      bool
	}{
		{name: "tuition default currency", std: tuition, np: student.NewPayment{Amount: decimal.NewFromInt(1800), Period: "2026-03"}, wantCurrency: "MZN"},
		{name: "sponsorship default currency", std: sponsored, np: student.NewPayment{Amount: decimal.RequireFromString("40.00"), Period: "2026-03"}, wantCurrency: "USD"},
		{name: "explicit currency", std: tuition, np: student.NewPayment{Amount: decimal.NewFromInt(40), Currency: "usd", Period: "2026-03"}, wantCurrency: "USD"},
		{name: "unknown currency", std: tuition, np: student.NewPayment{Amount: decimal.NewFromInt(40), Currency: "EUR", Period: "2026-03"}, wantErr: true},
		{name: "zero amount", std: tuition, np: student.NewPayment{Period: "2026-03"}, wantErr: true},
		{name: "negative amount", std: tuition, np: student.NewPayment{Amount: decimal.NewFromInt(-5), Period: "2026-03"}, wantErr: true},
		{name: "sub-cent amount", std: tuition, np: student.NewPayment{Amount: decimal.RequireFromString("10.005"), Period: "2026-03"}, wantErr: true},
		{name: "bad period", std: tuition, np: student.NewPayment{Amount: decimal.NewFromInt(10), Period: "03/2026"}, wantErr: true},
		{name: "missing period", std: tuition, np: student.NewPayment{Amount: decimal.NewFromInt(10)}, wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.np.Validate(validate, tt.std, "MZN")
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.wantCurrency, tt.np.Currency)
		})
	}
}

func TestService_Payments(t *testing.T) {
	ctx := context.Background()
	svc, repo := newService()
	std := testutil.CreateStudent(t, repo, "Dario Nhaca", "", student.CohortTuition, "")
	other := testutil.CreateStudent(t, repo, "Eva Langa", "", student.CohortSponsorship, "")

	paidAt := time.Date(2026, time.April, 2, 0, 0, 0, 0, time.UTC)
	record := func(s student.Student, amount, currency, period string) student.Payment {
		pmt, err := svc.RecordPayment(ctx, s, student.NewPayment{
			Amount:   decimal.RequireFromString(amount),
			Currency: currency,
			Period:   period,
			PaidAt:   paidAt,
		})
		require.NoError(t, err)
		return pmt
	}
	record(std, "1800", "MZN", "2026-04")
	march := record(std, "1800.50", "MZN", "2026-03")
	record(std, "10", "USD", "2026-04")
	record(other, "40", "USD", "2026-03")

	pmts, err := svc.Payments(ctx, student.PaymentFilter{StudentID: std.ID})
	require.NoError(t, err)
	require.Len(t, pmts, 3)
	assert.Equal(t, "2026-03", pmts[0].Period, "ordered by period")

	pmts, err = svc.Payments(ctx, student.PaymentFilter{StudentID: std.ID, Currency: "usd"})
	require.NoError(t, err)
	assert.Len(t, pmts, 1)

	pmts, err = svc.Payments(ctx, student.PaymentFilter{PeriodFrom: "2026-03", PeriodTo: "2026-03"})
	require.NoError(t, err)
	assert.Len(t, pmts, 2)

	sum, err := svc.PaymentSummary(ctx, std)
	require.NoError(t, err)
	assert.Equal(t, 3, sum.Count)
	assert.True(t, decimal.RequireFromString("3600.50").Equal(sum.Totals["MZN"]), sum.Totals["MZN"].String())
	assert.True(t, decimal.NewFromInt(10).Equal(sum.Totals["USD"]))
	assert.Equal(t, []string{"2026-03", "2026-04"}, sum.Periods)
	assert.Equal(t, "2026-04", sum.LastPeriod)

	require.NoError(t, svc.DeletePayment(ctx, march.ID))
	assert.Equal(t, student.ErrPaymentNotFound, svc.DeletePayment(ctx, march.ID))

	_, err = svc.RecordPayment(ctx, student.Student{ID: "missing"}, student.NewPayment{Amount: decimal.NewFromInt(1), Currency: "MZN", Period: "2026-03"})
	assert.Equal(t, student.ErrNotFound, err)

	// payments go with their student
	require.NoError(t, svc.Delete(ctx, std.ID))
	pmts, err = svc.Payments(ctx, student.PaymentFilter{})
	require.NoError(t, err)
	require.Len(t, pmts, 1)
	assert.Equal(t, other.ID, pmts[0].StudentID)
}

func TestSummarize_empty(t *testing.T) {
	sum := student.Summarize("s-1", nil)
	assert.Equal(t, 0, sum.Count)
	assert.Empty(t, sum.Totals)
	assert.Empty(t, sum.LastPeriod)
}
