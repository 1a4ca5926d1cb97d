package sqlxrepos

import (
	"context"
	"regexp"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"

	"github.com/trezcool/bolsa/core"
	"github.com/trezcool/bolsa/core/candidate"
	"github.com/trezcool/bolsa/core/student"
)

func newMockDB(t *testing.T) (*sqlx.DB, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New() error = %v", err)
	}
	t.Cleanup(func() {
		if err := mock.ExpectationsWereMet(); err != nil {
			t.Error(err)
		}
		_ = db.Close()
	})
	return sqlx.NewDb(db, "postgres"), mock
}

func Test_candidateRepository_QueryCandidates(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewCandidateRepository(db)

	yes := true
	mock.ExpectQuery(regexp.QuoteMeta(`SELECT `+candidateColumns+` FROM candidates`+
		` WHERE (name ILIKE $1 OR email ILIKE $2) AND status IN ($3, $4) AND COALESCE(student_id, '') <> ''`+
		` ORDER BY created_at DESC, lower(name) ASC, id ASC`)).
		WithArgs(`%50\%\_ana%`, `%50\%\_ana%`, candidate.StatusAccepted, candidate.StatusEnrolled).
		WillReturnRows(sqlmock.NewRows([]string{"id", "name"}).AddRow("c1", "Ana Mussa"))

	cands, err := repo.QueryCandidates(context.Background(), candidate.QueryFilter{
		Search:    "50%_ana",
		Statuses:  []string{candidate.StatusAccepted, candidate.StatusEnrolled},
		Converted: &yes,
	}, core.DBOrdering{Field: "created_at"}, core.DBOrdering{Field: "password", Ascending: true})
	if err != nil {
		t.Fatalf("QueryCandidates() error = %v", err)
	}
	if len(cands) != 1 || cands[0].Name != "Ana Mussa" {
		t.Errorf("QueryCandidates() = %+v", cands)
	}
}

func Test_candidateRepository_GetCandidateByID_notFound(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewCandidateRepository(db)

	mock.ExpectQuery(regexp.QuoteMeta(`FROM candidates WHERE id = $1`)).
		WithArgs("lol").
		WillReturnRows(sqlmock.NewRows([]string{"id"}))

	if _, err := repo.GetCandidateByID(context.Background(), "lol"); err != candidate.ErrNotFound {
		t.Errorf("GetCandidateByID() error = %v; want %v", err, candidate.ErrNotFound)
	}
}

func Test_studentRepository_QueryStudents_byCandidate(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewStudentRepository(db)

	mock.ExpectQuery(regexp.QuoteMeta(`SELECT ` + studentColumns + ` FROM students WHERE candidate_id = $1 ORDER BY lower(name) ASC, id ASC`)).
		WithArgs("c1").
		WillReturnRows(sqlmock.NewRows([]string{"id", "candidate_id"}).AddRow("s1", "c1"))

	stds, err := repo.QueryStudents(context.Background(), student.QueryFilter{CandidateID: "c1"})
	if err != nil {
		t.Fatalf("QueryStudents() error = %v", err)
	}
	if len(stds) != 1 || stds[0].CandidateID.String != "c1" {
		t.Errorf("QueryStudents() = %+v", stds)
	}
}

func Test_studentRepository_DeletePayment_notFound(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewStudentRepository(db)

	mock.ExpectExec(regexp.QuoteMeta(`DELETE FROM payments WHERE id = $1`)).
		WithArgs("lol").
		WillReturnResult(sqlmock.NewResult(0, 0))

	if err := repo.DeletePayment(context.Background(), "lol"); err != student.ErrPaymentNotFound {
		t.Errorf("DeletePayment() error = %v; want %v", err, student.ErrPaymentNotFound)
	}
}

func Test_candidateRepository_cancelledContext(t *testing.T) {
	db, _ := newMockDB(t)
	repo := NewCandidateRepository(db)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := repo.QueryCandidates(ctx, candidate.QueryFilter{}); err == nil {
		t.Error("QueryCandidates() error = nil; want an error")
	}
}
