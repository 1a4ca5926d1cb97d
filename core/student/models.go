package student

import (
	"context"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"
	"github.com/volatiletech/null/v8"

	"github.com/trezcool/bolsa/core"
	"github.com/trezcool/bolsa/core/finance"
)

// Cohorts: tuition students pay in local currency, sponsored students in USD.
const (
	CohortTuition     = "tuition"
	CohortSponsorship = "sponsorship"
)

var Cohorts = []string{CohortTuition, CohortSponsorship}

type Student struct {
	ID          string      `json:"id" db:"id"`
	Name        string      `json:"name" db:"name"`
	Email       string      `json:"email" db:"email"`
	Phone       string      `json:"phone" db:"phone"`
	CandidateID null.String `json:"candidate_id" db:"candidate_id"`
	Cohort      string      `json:"cohort" db:"cohort"`
	IsActive    bool        `json:"is_active" db:"is_active"`
	EnrolledAt  time.Time   `json:"enrolled_at" db:"enrolled_at"` // UTC
	CreatedAt   time.Time   `json:"created_at" db:"created_at"`   // UTC
	UpdatedAt   time.Time   `json:"updated_at" db:"updated_at"`   // UTC
}

func (s Student) HasCandidate() bool { return s.CandidateID.Valid && s.CandidateID.String != "" }

// PaymentCurrency is the currency students of the cohort pay in.
func PaymentCurrency(cohort string, local finance.Currency) finance.Currency {
	if cohort == CohortSponsorship {
		return finance.USD
	}
	return local
}

// NewStudent contains information needed to create a new Student.
type NewStudent struct {
	Name        string    `json:"name" validate:"required"`
	Email       string    `json:"email" validate:"omitempty,email"`
	Phone       string    `json:"phone" validate:"omitempty,phone"`
	Cohort      string    `json:"cohort" validate:"omitempty,cohort"`
	CandidateID string    `json:"candidate_id"`
	EnrolledAt  time.Time `json:"enrolled_at"`
}

func (ns *NewStudent) Validate(ctx context.Context, validate *validator.Validate, svc *Service) error {
	ns.Name = core.CleanString(ns.Name)
	ns.Email = core.CleanString(ns.Email, true /* lower */)
	ns.Phone = core.CleanString(ns.Phone)
	ns.Cohort = core.CleanString(ns.Cohort, true /* lower */)
	ns.CandidateID = core.CleanString(ns.CandidateID)
	if ns.Cohort == "" {
		ns.Cohort = CohortTuition
	}

	if err := validate.Struct(ns); err != nil {
		return err
	}
	return svc.checkUniqueness(ctx, ns.Email)
}

// UpdateStudent defines what information may be provided to modify an existing Student.
type UpdateStudent struct {
	Name     string `json:"name"`
	Email    string `json:"email" validate:"omitempty,email"`
	Phone    string `json:"phone" validate:"omitempty,phone"`
	Cohort   string `json:"cohort" validate:"omitempty,cohort"`
	IsActive *bool  `json:"is_active"`
}

func (us *UpdateStudent) Validate(ctx context.Context, validate *validator.Validate, orig Student, svc *Service) error {
	if name := core.CleanString(us.Name); name != "" {
		us.Name = name
	} else {
		us.Name = orig.Name
	}
	if email := core.CleanString(us.Email, true /* lower */); email != "" {
		us.Email = email
	} else {
		us.Email = orig.Email
	}
	if phone := core.CleanString(us.Phone); phone != "" {
		us.Phone = phone
	} else {
		us.Phone = orig.Phone
	}
	if cohort := core.CleanString(us.Cohort, true /* lower */); cohort != "" {
		us.Cohort = cohort
	} else {
		us.Cohort = orig.Cohort
	}

	if err := validate.Struct(us); err != nil {
		return err
	}
	return svc.checkUniqueness(ctx, us.Email, orig)
}

type QueryFilter struct {
	Search      string    `query:"search"`
	Cohorts     []string  `query:"cohort"`
	IsActive    *bool     `query:"is_active"`
	CandidateID string    `query:"candidate_id"`
	CreatedFrom time.Time `query:"created_from"`
	CreatedTo   time.Time `query:"created_to"`
}

func (qf *QueryFilter) IsEmpty() bool {
	return qf.Search == "" && qf.Cohorts == nil && qf.IsActive == nil && qf.CandidateID == "" && qf.CreatedFrom.IsZero() && qf.CreatedTo.IsZero()
}

func (qf *QueryFilter) Clean() {
	qf.Search = core.CleanString(qf.Search)
	qf.CandidateID = core.CleanString(qf.CandidateID)
}

// Payment is a fee paid by a student for one month.
type Payment struct {
	ID        string          `json:"id" db:"id"`
	StudentID string          `json:"student_id" db:"student_id"`
	Amount    decimal.Decimal `json:"amount" db:"amount"`
	Currency  string          `json:"currency" db:"currency"`
	Period    string          `json:"period" db:"period"` // YYYY-MM
	PaidAt    time.Time       `json:"paid_at" db:"paid_at"`
	Note      string          `json:"note" db:"note"`
	CreatedAt time.Time       `json:"created_at" db:"created_at"`
}

// NewPayment contains information needed to record a Payment.
// An empty currency defaults to the currency of the student's cohort.
type NewPayment struct {
	Amount   decimal.Decimal `json:"amount"`
	Currency string          `json:"currency"`
	Period   string          `json:"period" validate:"required,yearmonth"`
	PaidAt   time.Time       `json:"paid_at"`
	Note     string          `json:"note"`
}

func (np *NewPayment) Validate(validate *validator.Validate, std Student, local finance.Currency) error {
	np.Currency = core.CleanString(np.Currency)
	np.Period = core.CleanString(np.Period)
	np.Note = core.CleanString(np.Note)

	if err := validate.Struct(np); err != nil {
		return err
	}

	var flds []core.FieldError
	if !np.Amount.IsPositive() {
		flds = append(flds, core.FieldError{Field: "amount", Error: "must be greater than 0"})
	} else if np.Amount.Exponent() < -2 {
		flds = append(flds, core.FieldError{Field: "amount", Error: "must have at most 2 decimal places"})
	}
	if np.Currency == "" {
		np.Currency = string(PaymentCurrency(std.Cohort, local))
	} else if c, err := finance.ParseCurrency(np.Currency, local); err != nil {
		flds = append(flds, core.FieldError{Field: "currency", Error: "must be " + string(finance.USD) + " or " + string(local)})
	} else {
		np.Currency = string(c)
	}
	if len(flds) > 0 {
		return core.NewValidationError(nil, flds...)
	}
	return nil
}

type PaymentFilter struct {
	StudentID  string `query:"-"`
	Currency   string `query:"currency"`
	PeriodFrom string `query:"period_from"`
	PeriodTo   string `query:"period_to"`
}

// PaymentSummary totals the payments of a student, per currency.
type PaymentSummary struct {
	StudentID  string                     `json:"student_id"`
	Count      int                        `json:"count"`
	Totals     map[string]decimal.Decimal `json:"totals"`
	Periods    []string                   `json:"periods"` // paid months, ascending
	LastPeriod string                     `json:"last_period,omitempty"`
}
