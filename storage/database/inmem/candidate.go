package inmemdb

import (
	"context"
	"sort"

	"github.com/trezcool/bolsa/core"
	"github.com/trezcool/bolsa/core/candidate"
)

type candidateRepository struct {
	db *candidateTable
}

var _ candidate.Repository = (*candidateRepository)(nil)

func NewCandidateRepository(db *DB) candidate.Repository {
	return &candidateRepository{db: db.candidate}
}

func (repo *candidateRepository) query() []candidate.Candidate {
	cands := make([]candidate.Candidate, 0, len(repo.db.table))
	for _, c := range repo.db.table {
		cands = append(cands, *c)
	}
	return cands
}

func (repo *candidateRepository) CheckEmailUniqueness(_ context.Context, email string, excluded ...candidate.Candidate) error {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()

	for _, cand := range repo.db.table {
		if cand.Email != email || isExcludedCandidate(cand.ID, excluded) {
			continue
		}
		return candidate.ErrEmailExists
	}
	return nil
}

func isExcludedCandidate(id string, excluded []candidate.Candidate) bool {
	for _, c := range excluded {
		if c.ID == id {
			return true
		}
	}
	return false
}

func (repo *candidateRepository) CreateCandidate(_ context.Context, cand candidate.Candidate) (candidate.Candidate, error) {
	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()

	repo.db.table[cand.ID] = &cand
	return cand, nil
}

func (repo *candidateRepository) QueryCandidates(_ context.Context, filter candidate.QueryFilter, orderings ...core.DBOrdering) ([]candidate.Candidate, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()

	cands := make([]candidate.Candidate, 0, len(repo.db.table))
	for _, cand := range repo.query() {
		if filter.Search != "" && !containsFold(cand.Name, filter.Search) && !containsFold(cand.Email, filter.Search) {
			continue
		}
		if filter.Statuses != nil && !contains(filter.Statuses, cand.Status) {
			continue
		}
		if filter.Converted != nil && cand.IsConverted() != *filter.Converted {
			continue
		}
		if !inTimeRange(cand.CreatedAt, filter.CreatedFrom, filter.CreatedTo) {
			continue
		}
		cands = append(cands, cand)
	}

	fields := map[string]comparator{
		"name":       func(i, j int) int { return compareFold(cands[i].Name, cands[j].Name) },
		"email":      func(i, j int) int { return compareFold(cands[i].Email, cands[j].Email) },
		"school":     func(i, j int) int { return compareFold(cands[i].School, cands[j].School) },
		"grade":      func(i, j int) int { return compareInt(cands[i].Grade, cands[j].Grade) },
		"status":     func(i, j int) int { return compareFold(cands[i].Status, cands[j].Status) },
		"created_at": func(i, j int) int { return compareTime(cands[i].CreatedAt, cands[j].CreatedAt) },
		"updated_at": func(i, j int) int { return compareTime(cands[i].UpdatedAt, cands[j].UpdatedAt) },
	}
	fallback := func(i, j int) int {
		if c := compareFold(cands[i].Name, cands[j].Name); c != 0 {
			return c
		}
		return compareFold(cands[i].ID, cands[j].ID)
	}
	sort.SliceStable(cands, lessFunc(orderings, fields, fallback))
	return cands, nil
}

func (repo *candidateRepository) GetCandidateByID(_ context.Context, id string) (candidate.Candidate, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()

	if cand, ok := repo.db.table[id]; ok {
		return *cand, nil
	}
	return candidate.Candidate{}, candidate.ErrNotFound
}

func (repo *candidateRepository) UpdateCandidate(_ context.Context, cand candidate.Candidate) (candidate.Candidate, error) {
	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()

	orig, ok := repo.db.table[cand.ID]
	if !ok {
		return candidate.Candidate{}, candidate.ErrNotFound
	}
	cand.CreatedAt = orig.CreatedAt
	repo.db.table[cand.ID] = &cand
	return cand, nil
}

func (repo *candidateRepository) LinkStudent(_ context.Context, id, studentID string) error {
	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()

	cand, ok := repo.db.table[id]
	if !ok {
		return candidate.ErrNotFound
	}
	cand.StudentID.SetValid(studentID)
	return nil
}

func (repo *candidateRepository) DeleteCandidatesByID(_ context.Context, ids ...string) error {
	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()
	for _, id := range ids {
		delete(repo.db.table, id)
	}
	return nil
}
