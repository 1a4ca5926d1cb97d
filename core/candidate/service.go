package candidate

import (
	"context"
	"errors"
	"fmt"
	"net/mail"
	"time"

	"github.com/google/uuid"

	"github.com/trezcool/bolsa/core"
	"github.com/trezcool/bolsa/core/student"
)

var (
	nowFunc = time.Now // mockable

	// errors
	ErrNotFound         = errors.New("candidate not found")
	ErrEmailExists      = errors.New("a candidate with this email already exists")
	ErrAlreadyConverted = errors.New("candidate is already a student")
	ErrNotConvertible   = errors.New("rejected candidates cannot be converted")
	ErrStatusLocked     = errors.New("the enrolled status is only set by converting the candidate")
)

// Fields candidates may be ordered by.
var OrderingFields = []string{"name", "email", "school", "grade", "status", "created_at", "updated_at"}

type (
	Repository interface {
		CheckEmailUniqueness(ctx context.Context, email string, excluded ...Candidate) error
		CreateCandidate(ctx context.Context, cand Candidate) (Candidate, error)
		// QueryCandidates applies AND operation on available QueryFilter fields.
		// QueryFilter.Search does a case-insensitive match on one of Candidate.Name or Candidate.Email.
		QueryCandidates(ctx context.Context, filter QueryFilter, orderings ...core.DBOrdering) ([]Candidate, error)
		GetCandidateByID(ctx context.Context, id string) (Candidate, error)
		UpdateCandidate(ctx context.Context, cand Candidate) (Candidate, error)
		// LinkStudent sets the reference to the student the candidate was converted to.
		LinkStudent(ctx context.Context, id, studentID string) error
		DeleteCandidatesByID(ctx context.Context, ids ...string) error
	}

	Service struct {
		repo     Repository
		students *student.Service
		mailSvc  core.EmailService
		logger   core.Logger
	}
)

func NewService(repo Repository, students *student.Service, mailSvc core.EmailService, logger core.Logger) *Service {
	return &Service{
		repo:     repo,
		students: students,
		mailSvc:  mailSvc,
		logger:   logger,
	}
}

func (svc *Service) checkUniqueness(ctx context.Context, email string, excluded ...Candidate) error {
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

func (svc *Service) Create(ctx context.Context, nc NewCandidate) (Candidate, error) {
	now := nowFunc().UTC()
	cand := Candidate{
		ID:        uuid.NewString(),
		Name:      nc.Name,
		Email:     nc.Email,
		Phone:     nc.Phone,
		School:    nc.School,
		Grade:     nc.Grade,
		Status:    nc.Status,
		Notes:     nc.Notes,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if cand.Status == "" {
		cand.Status = StatusPending
	}
	return svc.repo.CreateCandidate(ctx, cand)
}

func (svc *Service) Query(ctx context.Context, filter QueryFilter, orderings ...core.DBOrdering) ([]Candidate, error) {
	filter.Clean()
	return svc.repo.QueryCandidates(ctx, filter, core.AllowedOrderings(orderings, OrderingFields...)...)
}

func (svc *Service) GetByID(ctx context.Context, id string) (Candidate, error) {
	return svc.repo.GetCandidateByID(ctx, id)
}

func (svc *Service) Update(ctx context.Context, orig Candidate, uc UpdateCandidate) (Candidate, error) {
	cand := orig
	cand.Name = uc.Name
	cand.Email = uc.Email
	cand.Phone = uc.Phone
	cand.School = uc.School
	cand.Status = uc.Status
	if uc.Grade != nil {
		cand.Grade = *uc.Grade
	}
	if uc.Notes != nil {
		cand.Notes = core.CleanString(*uc.Notes)
	}
	cand.UpdatedAt = nowFunc().UTC()
	return svc.repo.UpdateCandidate(ctx, cand)
}

func (svc *Service) Delete(ctx context.Context, ids ...string) error {
	return svc.repo.DeleteCandidatesByID(ctx, ids...)
}

// Convert enrolls the candidate as a new student and links both records.
// The candidate is updated after the student is created: a failure in between
// leaves a one-sided link that the link reconciliation repairs.
func (svc *Service) Convert(ctx context.Context, cand Candidate, cc ConvertCandidate) (Candidate, student.Student, error) {
	if cand.IsConverted() {
		return cand, student.Student{}, ErrAlreadyConverted
	}
	if cand.Status == StatusRejected {
		return cand, student.Student{}, ErrNotConvertible
	}

	// a previous conversion may have created the student without linking the candidate
	std, err := svc.students.ByCandidate(ctx, cand.ID)
	switch {
	case err == student.ErrNotFound:
		if err = svc.students.CheckEmail(ctx, cand.Email); err != nil {
			return cand, student.Student{}, err
		}
		std, err = svc.students.Create(ctx, student.NewStudent{
			Name:        cand.Name,
			Email:       cand.Email,
			Phone:       cand.Phone,
			Cohort:      cc.Cohort,
			CandidateID: cand.ID,
			EnrolledAt:  cc.EnrolledAt,
		})
		if err != nil {
			return cand, student.Student{}, err
		}
	case err != nil:
		return cand, student.Student{}, err
	}

	cand.StudentID.SetValid(std.ID)
	cand.Status = StatusEnrolled
	cand.UpdatedAt = nowFunc().UTC()
	updated, err := svc.repo.UpdateCandidate(ctx, cand)
	if err != nil {
		svc.logger.Error(fmt.Sprintf("student %s created but candidate %s was not linked", std.ID, cand.ID), err)
		return cand, std, err
	}

	if updated.Email != "" {
		svc.mailSvc.SendMessages(&core.EmailMessage{
			To:           []mail.Address{{Name: updated.Name, Address: updated.Email}},
			Subject:      "Welcome to the scholarship program",
			TemplateName: "student_welcome",
			TemplateData: map[string]interface{}{
				"Name":      updated.Name,
				"StudentID": std.ID,
			},
		})
	}
	return updated, std, nil
}
