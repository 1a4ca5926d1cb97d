package inmemdb

import (
	"context"
	"sort"

	"github.com/trezcool/bolsa/core"
	"github.com/trezcool/bolsa/core/student"
)

type studentRepository struct {
	db *studentTable
}

var _ student.Repository = (*studentRepository)(nil)

func NewStudentRepository(db *DB) student.Repository {
	return &studentRepository{db: db.student}
}

func (repo *studentRepository) CheckEmailUniqueness(_ context.Context, email string, excluded ...student.Student) error {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()

outer:
	for _, std := range repo.db.table {
		if std.Email != email {
			continue
		}
		for _, ex := range excluded {
			if ex.ID == std.ID {
				continue outer
			}
		}
		return student.ErrEmailExists
	}
	return nil
}

func (repo *studentRepository) CreateStudent(_ context.Context, std student.Student) (student.Student, error) {
	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()

	repo.db.table[std.ID] = &std
	return std, nil
}

func (repo *studentRepository) QueryStudents(_ context.Context, filter student.QueryFilter, orderings ...core.DBOrdering) ([]student.Student, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()

	stds := make([]student.Student, 0, len(repo.db.table))
	for _, std := range repo.db.table {
		if filter.Search != "" && !containsFold(std.Name, filter.Search) && !containsFold(std.Email, filter.Search) {
			continue
		}
		if filter.Cohorts != nil && !contains(filter.Cohorts, std.Cohort) {
			continue
		}
		if filter.IsActive != nil && std.IsActive != *filter.IsActive {
			continue
		}
		if filter.CandidateID != "" && std.CandidateID.String != filter.CandidateID {
			continue
		}
		if !inTimeRange(std.CreatedAt, filter.CreatedFrom, filter.CreatedTo) {
			continue
		}
		stds = append(stds, *std)
	}

	fields := map[string]comparator{
		"name":        func(i, j int) int { return compareFold(stds[i].Name, stds[j].Name) },
		"email":       func(i, j int) int { return compareFold(stds[i].Email, stds[j].Email) },
		"cohort":      func(i, j int) int { return compareFold(stds[i].Cohort, stds[j].Cohort) },
		"enrolled_at": func(i, j int) int { return compareTime(stds[i].EnrolledAt, stds[j].EnrolledAt) },
		"created_at":  func(i, j int) int { return compareTime(stds[i].CreatedAt, stds[j].CreatedAt) },
		"updated_at":  func(i, j int) int { return compareTime(stds[i].UpdatedAt, stds[j].UpdatedAt) },
	}
	fallback := func(i, j int) int {
		if c := compareFold(stds[i].Name, stds[j].Name); c != 0 {
			return c
		}
		return compareFold(stds[i].ID, stds[j].ID)
	}
	sort.SliceStable(stds, lessFunc(orderings, fields, fallback))
	return stds, nil
}

func (repo *studentRepository) GetStudentByID(_ context.Context, id string) (student.Student, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()

	if std, ok := repo.db.table[id]; ok {
		return *std, nil
	}
	return student.Student{}, student.ErrNotFound
}

func (repo *studentRepository) UpdateStudent(_ context.Context, std student.Student) (student.Student, error) {
	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()

	orig, ok := repo.db.table[std.ID]
	if !ok {
		return student.Student{}, student.ErrNotFound
	}
	std.CreatedAt = orig.CreatedAt
	repo.db.table[std.ID] = &std
	return std, nil
}

func (repo *studentRepository) LinkCandidate(_ context.Context, id, candidateID string) error {
	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()

	std, ok := repo.db.table[id]
	if !ok {
		return student.ErrNotFound
	}
	std.CandidateID.SetValid(candidateID)
	return nil
}

func (repo *studentRepository) DeleteStudentsByID(_ context.Context, ids ...string) error {
	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()

	for _, id := range ids {
		delete(repo.db.table, id)
		for pid, pmt := range repo.db.payments {
			if pmt.StudentID == id {
				delete(repo.db.payments, pid)
			}
		}
	}
	return nil
}

func (repo *studentRepository) CreatePayment(_ context.Context, pmt student.Payment) (student.Payment, error) {
	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()

	if _, ok := repo.db.table[pmt.StudentID]; !ok {
		return student.Payment{}, student.ErrNotFound
	}
	repo.db.payments[pmt.ID] = &pmt
	return pmt, nil
}

func (repo *studentRepository) QueryPayments(_ context.Context, filter student.PaymentFilter) ([]student.Payment, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()

	pmts := make([]student.Payment, 0)
	for _, pmt := range repo.db.payments {
		if filter.StudentID != "" && pmt.StudentID != filter.StudentID {
			continue
		}
		if filter.Currency != "" && pmt.Currency != filter.Currency {
			continue
		}
		if filter.PeriodFrom != "" && pmt.Period < filter.PeriodFrom {
			continue
		}
		if filter.PeriodTo != "" && pmt.Period > filter.PeriodTo {
			continue
		}
		pmts = append(pmts, *pmt)
	}
	return pmts, nil
}

func (repo *studentRepository) DeletePayment(_ context.Context, id string) error {
	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()

	if _, ok := repo.db.payments[id]; !ok {
		return student.ErrPaymentNotFound
	}
	delete(repo.db.payments, id)
	return nil
}
