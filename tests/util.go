package testutil

import (
	"context"
	"testing"
	"time"

	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"

	"github.com/trezcool/bolsa/core"
	"github.com/trezcool/bolsa/core/candidate"
	"github.com/trezcool/bolsa/core/student"
)

// NewValidator returns a validator with every custom tag of the app registered.
func NewValidator() *validator.Validate {
	validate, _ := NewTranslatedValidator()
	return validate
}

// NewTranslatedValidator also returns the translator the validation messages were registered on.
func NewTranslatedValidator() (*validator.Validate, ut.Translator) {
	validate := validator.New()
	translator := core.NewTranslator()
	core.InitValidators(validate, translator)
	candidate.RegisterValidators(validate, translator)
	student.RegisterValidators(validate, translator)
	return validate, translator
}

func CreateCandidate(
	t *testing.T,
	repo candidate.Repository,
	name, email, status string,
	studentID string,
	createdAt ...time.Time,
) candidate.Candidate {
	t.Helper()
	tstamp := time.Now().UTC()
	if len(createdAt) > 0 {
		tstamp = createdAt[0].UTC()
	}
	cand := candidate.Candidate{
		ID:        uuid.NewString(),
		Name:      name,
		Email:     email,
		Status:    status,
		CreatedAt: tstamp,
		UpdatedAt: tstamp,
	}
	if studentID != "" {
		cand.StudentID.SetValid(studentID)
	}
	cand, err := repo.CreateCandidate(context.Background(), cand)
	if err != nil {
		t.Fatalf("CreateCandidate() failed: %v", err)
	}
	return cand
}

func CreateStudent(
	t *testing.T,
	repo student.Repository,
	name, email, cohort string,
	candidateID string,
	createdAt ...time.Time,
) student.Student {
	t.Helper()
	tstamp := time.Now().UTC()
	if len(createdAt) > 0 {
		tstamp = createdAt[0].UTC()
	}
	std := student.Student{
		ID:         uuid.NewString(),
		Name:       name,
		Email:      email,
		Cohort:     cohort,
		IsActive:   true,
		EnrolledAt: tstamp,
		CreatedAt:  tstamp,
		UpdatedAt:  tstamp,
	}
	if candidateID != "" {
		std.CandidateID.SetValid(candidateID)
	}
	std, err := repo.CreateStudent(context.Background(), std)
	if err != nil {
		t.Fatalf("CreateStudent() failed: %v", err)
	}
	return std
}
