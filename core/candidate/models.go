package candidate

import (
	"context"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/volatiletech/null/v8"

	"github.com/trezcool/bolsa/core"
)

// Statuses of a scholarship application.
const (
	StatusPending   = "pending"
	StatusInterview = "interview"
	StatusAccepted  = "accepted"
	StatusRejected  = "rejected"
	StatusEnrolled  = "enrolled"
)

var Statuses = []string{StatusPending, StatusInterview, StatusAccepted, StatusRejected, StatusEnrolled}

// Candidate is an applicant to the scholarship program.
type Candidate struct {
	ID        string      `json:"id" db:"id"`
	Name      string      `json:"name" db:"name"`
	Email     string      `json:"email" db:"email"`
	Phone     string      `json:"phone" db:"phone"`
	School    string      `json:"school" db:"school"`
	Grade     int         `json:"grade" db:"grade"`
	Status    string      `json:"status" db:"status"`
	StudentID null.String `json:"student_id" db:"student_id"`
	Notes     string      `json:"notes" db:"notes"`
	CreatedAt time.Time   `json:"created_at" db:"created_at"` // UTC
	UpdatedAt time.Time   `json:"updated_at" db:"updated_at"` // UTC
}

// IsConverted reports whether the candidate was already turned into a student.
func (c Candidate) IsConverted() bool { return c.StudentID.Valid && c.StudentID.String != "" }

// NewCandidate contains information needed to create a new Candidate.
type NewCandidate struct {
	Name   string `json:"name" validate:"required"`
	Email  string `json:"email" validate:"omitempty,email"`
	Phone  string `json:"phone" validate:"omitempty,phone"`
	School string `json:"school"`
	Grade  int    `json:"grade" validate:"gte=0,lte=13"`
	Status string `json:"status" validate:"omitempty,candidate_status"`
	Notes  string `json:"notes"`
}

func (nc *NewCandidate) Validate(ctx context.Context, validate *validator.Validate, svc *Service) error {
	nc.Name = core.CleanString(nc.Name)
	nc.Email = core.CleanString(nc.Email, true /* lower */)
	nc.Phone = core.CleanString(nc.Phone)
	nc.School = core.CleanString(nc.School)
	nc.Status = core.CleanString(nc.Status, true /* lower */)
	nc.Notes = core.CleanString(nc.Notes)
	if nc.Status == "" {
		nc.Status = StatusPending
	}

	if err := validate.Struct(nc); err != nil {
		return err
	}
	return svc.checkUniqueness(ctx, nc.Email)
}

// UpdateCandidate defines what information may be provided to modify an existing Candidate.
// Empty values keep the current ones.
type UpdateCandidate struct {
	Name   string  `json:"name"`
	Email  string  `json:"email" validate:"omitempty,email"`
	Phone  string  `json:"phone" validate:"omitempty,phone"`
	School string  `json:"school"`
	Grade  *int    `json:"grade" validate:"omitempty,gte=0,lte=13"`
	Status string  `json:"status" validate:"omitempty,candidate_status"`
	Notes  *string `json:"notes"`
}

func (uc *UpdateCandidate) Validate(ctx context.Context, validate *validator.Validate, orig Candidate, svc *Service) error {
	keep := func(val *string, orig string, lower bool) {
		if cleaned := core.CleanString(*val, lower); cleaned != "" {
			*val = cleaned
		} else {
			*val = orig
		}
	}
	keep(&uc.Name, orig.Name, false)
	keep(&uc.Email, orig.Email, true)
	keep(&uc.Phone, orig.Phone, false)
	keep(&uc.School, orig.School, false)
	keep(&uc.Status, orig.Status, true)

	if err := validate.Struct(uc); err != nil {
		return err
	}
	// the enrolled status is owned by the conversion
	if uc.Status != orig.Status && (uc.Status == StatusEnrolled || orig.IsConverted()) {
		return core.NewValidationError(ErrStatusLocked, core.FieldError{Field: "status", Error: ErrStatusLocked.Error()})
	}
	return svc.checkUniqueness(ctx, uc.Email, orig)
}

// ConvertCandidate holds the options of a candidate to student conversion.
type ConvertCandidate struct {
	Cohort     string    `json:"cohort" validate:"omitempty,cohort"`
	EnrolledAt time.Time `json:"enrolled_at"`
}

func (cc *ConvertCandidate) Validate(validate *validator.Validate) error {
	cc.Cohort = core.CleanString(cc.Cohort, true /* lower */)
	return validate.Struct(cc)
}

type QueryFilter struct {
	Search      string    `query:"search"`
	Statuses    []string  `query:"status"`
	Converted   *bool     `query:"converted"`
	CreatedFrom time.Time `query:"created_from"`
	CreatedTo   time.Time `query:"created_to"`
}

func (qf *QueryFilter) IsEmpty() bool {
	return qf.Search == "" && qf.Statuses == nil && qf.Converted == nil && qf.CreatedFrom.IsZero() && qf.CreatedTo.IsZero()
}

func (qf *QueryFilter) Clean() {
	qf.Search = core.CleanString(qf.Search)
}
