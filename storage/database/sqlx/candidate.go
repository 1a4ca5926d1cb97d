package sqlxrepos

import (
	"context"
	"database/sql"

	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"

	"github.com/trezcool/bolsa/core"
	"github.com/trezcool/bolsa/core/candidate"
)

const candidateColumns = `id, name, email, phone, school, grade, status, student_id, notes, created_at, updated_at`

type candidateRepository struct {
	db *sqlx.DB
}

var _ candidate.Repository = (*candidateRepository)(nil)

func NewCandidateRepository(db *sqlx.DB) candidate.Repository {
	return &candidateRepository{db: db}
}

func (repo *candidateRepository) CheckEmailUniqueness(ctx context.Context, email string, excluded ...candidate.Candidate) error {
	var w where
	w.add("lower(email) = lower(?)", email)
	if len(excluded) > 0 {
		ids := make([]string, 0, len(excluded))
		for _, c := range excluded {
			ids = append(ids, c.ID)
		}
		w.add("id NOT IN (?)", ids)
	}
	q, args, err := w.build(repo.db, `SELECT COUNT(*) FROM candidates`, "")
	if err != nil {
		return errors.Wrap(err, "building candidate email query")
	}

	var count int
	if err = repo.db.GetContext(ctx, &count, q, args...); err != nil {
		return errors.Wrap(err, "checking candidate email")
	}
	if count > 0 {
		return candidate.ErrEmailExists
	}
	return nil
}

func (repo *candidateRepository) CreateCandidate(ctx context.Context, cand candidate.Candidate) (candidate.Candidate, error) {
	q := `INSERT INTO candidates (` + candidateColumns + `)
		VALUES (:id, :name, :email, :phone, :school, :grade, :status, :student_id, :notes, :created_at, :updated_at)`
	if _, err := repo.db.NamedExecContext(ctx, q, cand); err != nil {
		return candidate.Candidate{}, errors.Wrap(err, "inserting candidate")
	}
	return cand, nil
}

func (repo *candidateRepository) QueryCandidates(ctx context.Context, filter candidate.QueryFilter, orderings ...core.DBOrdering) ([]candidate.Candidate, error) {
	var w where
	if filter.Search != "" {
		pattern := likePattern(filter.Search)
		w.add("(name ILIKE ? OR email ILIKE ?)", pattern, pattern)
	}
	if len(filter.Statuses) > 0 {
		w.add("status IN (?)", filter.Statuses)
	}
	if filter.Converted != nil {
		if *filter.Converted {
			w.add("COALESCE(student_id, '') <> ''")
		} else {
			w.add("COALESCE(student_id, '') = ''")
		}
	}
	if !filter.CreatedFrom.IsZero() {
		w.add("created_at >= ?", filter.CreatedFrom)
	}
	if !filter.CreatedTo.IsZero() {
		w.add("created_at <= ?", filter.CreatedTo)
	}

	q, args, err := w.build(repo.db, `SELECT `+candidateColumns+` FROM candidates`,
		orderBy(orderings, "lower(name) ASC, id ASC", candidate.OrderingFields...))
	if err != nil {
		return nil, errors.Wrap(err, "building candidates query")
	}

	cands := make([]candidate.Candidate, 0)
	if err = repo.db.SelectContext(ctx, &cands, q, args...); err != nil {
		return nil, errors.Wrap(err, "selecting candidates")
	}
	return cands, nil
}

func (repo *candidateRepository) GetCandidateByID(ctx context.Context, id string) (candidate.Candidate, error) {
	var cand candidate.Candidate
	q := repo.db.Rebind(`SELECT ` + candidateColumns + ` FROM candidates WHERE id = ?`)
	if err := repo.db.GetContext(ctx, &cand, q, id); err != nil {
		if err == sql.ErrNoRows {
			return candidate.Candidate{}, candidate.ErrNotFound
		}
		return candidate.Candidate{}, errors.Wrapf(err, "selecting candidate %s", id)
	}
	return cand, nil
}

func (repo *candidateRepository) UpdateCandidate(ctx context.Context, cand candidate.Candidate) (candidate.Candidate, error) {
	q := `UPDATE candidates SET name = :name, email = :email, phone = :phone, school = :school, grade = :grade,
		status = :status, student_id = :student_id, notes = :notes, updated_at = :updated_at
		WHERE id = :id`
	res, err := repo.db.NamedExecContext(ctx, q, cand)
	if err != nil {
		return candidate.Candidate{}, errors.Wrapf(err, "updating candidate %s", cand.ID)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return candidate.Candidate{}, candidate.ErrNotFound
	}
	return repo.GetCandidateByID(ctx, cand.ID)
}

func (repo *candidateRepository) LinkStudent(ctx context.Context, id, studentID string) error {
	q := repo.db.Rebind(`UPDATE candidates SET student_id = ? WHERE id = ?`)
	res, err := repo.db.ExecContext(ctx, q, studentID, id)
	if err != nil {
		return errors.Wrapf(err, "linking candidate %s", id)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return candidate.ErrNotFound
	}
	return nil
}

func (repo *candidateRepository) DeleteCandidatesByID(ctx context.Context, ids ...string) error {
	if len(ids) == 0 {
		return nil
	}
	q, args, err := sqlx.In(`DELETE FROM candidates WHERE id IN (?)`, ids)
	if err != nil {
		return errors.Wrap(err, "building candidates deletion")
	}
	if _, err = repo.db.ExecContext(ctx, repo.db.Rebind(q), args...); err != nil {
		return errors.Wrap(err, "deleting candidates")
	}
	return nil
}
