package sqlxrepos

import (
	"context"
	"database/sql"

	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"

	"github.com/trezcool/bolsa/core"
	"github.com/trezcool/bolsa/core/student"
)

const (
	studentColumns = `id, name, email, phone, candidate_id, cohort, is_active, enrolled_at, created_at, updated_at`
	paymentColumns = `id, student_id, amount, currency, period, paid_at, note, created_at`
)

type studentRepository struct {
	db *sqlx.DB
}

var _ student.Repository = (*studentRepository)(nil)

func NewStudentRepository(db *sqlx.DB) student.Repository {
	return &studentRepository{db: db}
}

func (repo *studentRepository) CheckEmailUniqueness(ctx context.Context, email string, excluded ...student.Student) error {
	var w where
	w.add("lower(email) = lower(?)", email)
	if len(excluded) > 0 {
		ids := make([]string, 0, len(excluded))
		for _, s := range excluded {
			ids = append(ids, s.ID)
		}
		w.add("id NOT IN (?)", ids)
	}
	q, args, err := w.build(repo.db, `SELECT COUNT(*) FROM students`, "")
	if err != nil {
		return errors.Wrap(err, "building student email query")
	}

	var count int
	if err = repo.db.GetContext(ctx, &count, q, args...); err != nil {
		return errors.Wrap(err, "checking student email")
	}
	if count > 0 {
		return student.ErrEmailExists
	}
	return nil
}

func (repo *studentRepository) CreateStudent(ctx context.Context, std student.Student) (student.Student, error) {
	q := `INSERT INTO students (` + studentColumns + `)
		VALUES (:id, :name, :email, :phone, :candidate_id, :cohort, :is_active, :enrolled_at, :created_at, :updated_at)`
	if _, err := repo.db.NamedExecContext(ctx, q, std); err != nil {
		return student.Student{}, errors.Wrap(err, "inserting student")
	}
	return std, nil
}

func (repo *studentRepository) QueryStudents(ctx context.Context, filter student.QueryFilter, orderings ...core.DBOrdering) ([]student.Student, error) {
	var w where
	if filter.Search != "" {
		pattern := likePattern(filter.Search)
		w.add("(name ILIKE ? OR email ILIKE ?)", pattern, pattern)
	}
	if len(filter.Cohorts) > 0 {
		w.add("cohort IN (?)", filter.Cohorts)
	}
	if filter.IsActive != nil {
		w.add("is_active = ?", *filter.IsActive)
	}
	if filter.CandidateID != "" {
		w.add("candidate_id = ?", filter.CandidateID)
	}
	if !filter.CreatedFrom.IsZero() {
		w.add("created_at >= ?", filter.CreatedFrom)
	}
	if !filter.CreatedTo.IsZero() {
		w.add("created_at <= ?", filter.CreatedTo)
	}

	q, args, err := w.build(repo.db, `SELECT `+studentColumns+` FROM students`,
		orderBy(orderings, "lower(name) ASC, id ASC", student.OrderingFields...))
	if err != nil {
		return nil, errors.Wrap(err, "building students query")
	}

	stds := make([]student.Student, 0)
	if err = repo.db.SelectContext(ctx, &stds, q, args...); err != nil {
		return nil, errors.Wrap(err, "selecting students")
	}
	return stds, nil
}

func (repo *studentRepository) GetStudentByID(ctx context.Context, id string) (student.Student, error) {
	var std student.Student
	q := repo.db.Rebind(`SELECT ` + studentColumns + ` FROM students WHERE id = ?`)
	if err := repo.db.GetContext(ctx, &std, q, id); err != nil {
		if err == sql.ErrNoRows {
			return student.Student{}, student.ErrNotFound
		}
		return student.Student{}, errors.Wrapf(err, "selecting student %s", id)
	}
	return std, nil
}

func (repo *studentRepository) UpdateStudent(ctx context.Context, std student.Student) (student.Student, error) {
	q := `UPDATE students SET name = :name, email = :email, phone = :phone, cohort = :cohort,
		is_active = :is_active, candidate_id = :candidate_id, updated_at = :updated_at
		WHERE id = :id`
	res, err := repo.db.NamedExecContext(ctx, q, std)
	if err != nil {
		return student.Student{}, errors.Wrapf(err, "updating student %s", std.ID)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return student.Student{}, student.ErrNotFound
	}
	return repo.GetStudentByID(ctx, std.ID)
}

func (repo *studentRepository) LinkCandidate(ctx context.Context, id, candidateID string) error {
	q := repo.db.Rebind(`UPDATE students SET candidate_id = ? WHERE id = ?`)
	res, err := repo.db.ExecContext(ctx, q, candidateID, id)
	if err != nil {
		return errors.Wrapf(err, "linking student %s", id)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return student.ErrNotFound
	}
	return nil
}

func (repo *studentRepository) DeleteStudentsByID(ctx context.Context, ids ...string) error {
	if len(ids) == 0 {
		return nil
	}
	// payments are removed by the ON DELETE CASCADE
	q, args, err := sqlx.In(`DELETE FROM students WHERE id IN (?)`, ids)
	if err != nil {
		return errors.Wrap(err, "building students deletion")
	}
	if _, err = repo.db.ExecContext(ctx, repo.db.Rebind(q), args...); err != nil {
		return errors.Wrap(err, "deleting students")
	}
	return nil
}

func (repo *studentRepository) CreatePayment(ctx context.Context, pmt student.Payment) (student.Payment, error) {
	var exists bool
	if err := repo.db.GetContext(ctx, &exists, repo.db.Rebind(`SELECT EXISTS (SELECT 1 FROM students WHERE id = ?)`), pmt.StudentID); err != nil {
		return student.Payment{}, errors.Wrap(err, "checking payment student")
	}
	if !exists {
		return student.Payment{}, student.ErrNotFound
	}

	q := `INSERT INTO payments (` + paymentColumns + `)
		VALUES (:id, :student_id, :amount, :currency, :period, :paid_at, :note, :created_at)`
	if _, err := repo.db.NamedExecContext(ctx, q, pmt); err != nil {
		return student.Payment{}, errors.Wrap(err, "inserting payment")
	}
	return pmt, nil
}

func (repo *studentRepository) QueryPayments(ctx context.Context, filter student.PaymentFilter) ([]student.Payment, error) {
	var w where
	if filter.StudentID != "" {
		w.add("student_id = ?", filter.StudentID)
	}
	if filter.Currency != "" {
		w.add("currency = ?", filter.Currency)
	}
	if filter.PeriodFrom != "" {
		w.add("period >= ?", filter.PeriodFrom)
	}
	if filter.PeriodTo != "" {
		w.add("period <= ?", filter.PeriodTo)
	}

	q, args, err := w.build(repo.db, `SELECT `+paymentColumns+` FROM payments`, " ORDER BY period ASC, paid_at ASC, id ASC")
	if err != nil {
		return nil, errors.Wrap(err, "building payments query")
	}

	pmts := make([]student.Payment, 0)
	if err = repo.db.SelectContext(ctx, &pmts, q, args...); err != nil {
		return nil, errors.Wrap(err, "selecting payments")
	}
	return pmts, nil
}

func (repo *studentRepository) DeletePayment(ctx context.Context, id string) error {
	res, err := repo.db.ExecContext(ctx, repo.db.Rebind(`DELETE FROM payments WHERE id = ?`), id)
	if err != nil {
		return errors.Wrapf(err, "deleting payment %s", id)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return student.ErrPaymentNotFound
	}
	return nil
}
