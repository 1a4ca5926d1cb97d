package student

import (
	"context"
	"errors"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/trezcool/bolsa/core"
	"github.com/trezcool/bolsa/core/finance"
)

var (
	nowFunc = time.Now // mockable

	// errors
	ErrNotFound        = errors.New("student not found")
	ErrEmailExists     = errors.New("a student with this email already exists")
	ErrPaymentNotFound = errors.New("payment not found")
)

// Fields students may be ordered by.
var OrderingFields = []string{"name", "email", "cohort", "enrolled_at", "created_at", "updated_at"}

type (
	Repository interface {
		CheckEmailUniqueness(ctx context.Context, email string, excluded ...Student) error
		CreateStudent(ctx context.Context, std Student) (Student, error)
		QueryStudents(ctx context.Context, filter QueryFilter, orderings ...core.DBOrdering) ([]Student, error)
		GetStudentByID(ctx context.Context, id string) (Student, error)
		UpdateStudent(ctx context.Context, std Student) (Student, error)
		// LinkCandidate sets the back-reference to the candidate the student was converted from.
		LinkCandidate(ctx context.Context, id, candidateID string) error
		DeleteStudentsByID(ctx context.Context, ids ...string) error

		CreatePayment(ctx context.Context, pmt Payment) (Payment, error)
		QueryPayments(ctx context.Context, filter PaymentFilter) ([]Payment, error)
		DeletePayment(ctx context.Context, id string) error
	}

	Service struct {
		repo  Repository
		local finance.Currency
	}
)

func NewService(repo Repository, local finance.Currency) *Service {
	if local == "" {
		local = finance.DefaultLocalCurrency
	}
	return &Service{repo: repo, local: local}
}

func (svc *Service) LocalCurrency() finance.Currency { return svc.local }

func (svc *Service) checkUniqueness(ctx context.Context, email string, excluded ...Student) error {
	if email == "" {
		return nil
	}
	if err := svc.repo.CheckEmailUniqueness(ctx, email, excluded...); err != nil {
		if err == ErrEmailExists {
			return core.NewValidationError(err, core.FieldError{Field: "email", Error: err.Error()})
		}
		return err
	}
	return nil
}

// CheckEmail fails with a ValidationError on "email" when a student already uses email.
func (svc *Service) CheckEmail(ctx context.Context, email string) error {
	return svc.checkUniqueness(ctx, core.CleanString(email, true /* lower */))
}

// ByCandidate returns the student converted from the candidate with candidateID.
func (svc *Service) ByCandidate(ctx context.Context, candidateID string) (Student, error) {
	stds, err := svc.repo.QueryStudents(ctx, QueryFilter{CandidateID: candidateID})
	if err != nil {
		return Student{}, err
	}
	if len(stds) == 0 {
		return Student{}, ErrNotFound
	}
	return stds[0], nil
}

func (svc *Service) Create(ctx context.Context, ns NewStudent) (Student, error) {
	now := nowFunc().UTC()
	std := Student{
		ID:         uuid.NewString(),
		Name:       ns.Name,
		Email:      ns.Email,
		Phone:      ns.Phone,
		Cohort:     ns.Cohort,
		IsActive:   true,
		EnrolledAt: ns.EnrolledAt.UTC(),
		CreatedAt:  now,
		UpdatedAt:  now,
	}
	if std.Cohort == "" {
		std.Cohort = CohortTuition
	}
	if std.EnrolledAt.IsZero() {
		std.EnrolledAt = now
	}
	if ns.CandidateID != "" {
		std.CandidateID.SetValid(ns.CandidateID)
	}
	return svc.repo.CreateStudent(ctx, std)
}

func (svc *Service) Query(ctx context.Context, filter QueryFilter, orderings ...core.DBOrdering) ([]Student, error) {
	filter.Clean()
	return svc.repo.QueryStudents(ctx, filter, core.AllowedOrderings(orderings, OrderingFields...)...)
}

func (svc *Service) GetByID(ctx context.Context, id string) (Student, error) {
	return svc.repo.GetStudentByID(ctx, id)
}

func (svc *Service) Update(ctx context.Context, orig Student, us UpdateStudent) (Student, error) {
	std := orig
	std.Name = us.Name
	std.Email = us.Email
	std.Phone = us.Phone
	std.Cohort = us.Cohort
	if us.IsActive != nil {
		std.IsActive = *us.IsActive
	}
	std.UpdatedAt = nowFunc().UTC()
	return svc.repo.UpdateStudent(ctx, std)
}

func (svc *Service) Delete(ctx context.Context, ids ...string) error {
	return svc.repo.DeleteStudentsByID(ctx, ids...)
}

// RecordPayment stores a validated payment of the student.
func (svc *Service) RecordPayment(ctx context.Context, std Student, np NewPayment) (Payment, error) {
	now := nowFunc().UTC()
	pmt := Payment{
		ID:        uuid.NewString(),
		StudentID: std.ID,
		Amount:    np.Amount.Round(2),
		Currency:  np.Currency,
		Period:    np.Period,
		PaidAt:    np.PaidAt.UTC(),
		Note:      np.Note,
		CreatedAt: now,
	}
	if pmt.PaidAt.IsZero() {
		pmt.PaidAt = now
	}
	return svc.repo.CreatePayment(ctx, pmt)
}

// Payments returns the payments matching filter, ordered by period then payment date.
func (svc *Service) Payments(ctx context.Context, filter PaymentFilter) ([]Payment, error) {
	filter.Currency = strings.ToUpper(core.CleanString(filter.Currency))
	pmts, err := svc.repo.QueryPayments(ctx, filter)
	if err != nil {
		return nil, err
	}
	sort.SliceStable(pmts, func(i, j int) bool {
		if pmts[i].Period != pmts[j].Period {
			return pmts[i].Period < pmts[j].Period
		}
		if !pmts[i].PaidAt.Equal(pmts[j].PaidAt) {
			return pmts[i].PaidAt.Before(pmts[j].PaidAt)
		}
		return pmts[i].ID < pmts[j].ID
	})
	return pmts, nil
}

func (svc *Service) DeletePayment(ctx context.Context, id string) error {
	return svc.repo.DeletePayment(ctx, id)
}

// PaymentSummary totals the student's payments per currency.
func (svc *Service) PaymentSummary(ctx context.Context, std Student) (PaymentSummary, error) {
	pmts, err := svc.Payments(ctx, PaymentFilter{StudentID: std.ID})
	if err != nil {
		return PaymentSummary{}, err
	}
	return Summarize(std.ID, pmts), nil
}

// Summarize totals pmts per currency. Payments are expected in period order.
func Summarize(studentID string, pmts []Payment) PaymentSummary {
	sum := PaymentSummary{
		StudentID: studentID,
		Count:     len(pmts),
		Totals:    make(map[string]decimal.Decimal),
		Periods:   make([]string, 0),
	}
	seen := make(map[string]bool)
	for _, pmt := range pmts {
		sum.Totals[pmt.Currency] = sum.Totals[pmt.Currency].Add(pmt.Amount)
		if !seen[pmt.Period] {
			seen[pmt.Period] = true
			sum.Periods = append(sum.Periods, pmt.Period)
		}
	}
	sort.Strings(sum.Periods)
	if n := len(sum.Periods); n > 0 {
		sum.LastPeriod = sum.Periods[n-1]
	}
	return sum
}
