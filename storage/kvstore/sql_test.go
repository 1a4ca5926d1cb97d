package kvstore

import (
	"context"
	"regexp"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
)

func newTestSQLStore(t *testing.T) (*SQLStore, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New() error = %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })
	return NewSQLStore(sqlx.NewDb(db, "postgres")), mock
}

var (
	selectQuery = regexp.QuoteMeta(`SELECT value FROM kv_store WHERE key = $1`)
	upsertQuery = regexp.QuoteMeta(`INSERT INTO kv_store (key, value, updated_at) VALUES ($1, $2, $3)`)
	deleteQuery = regexp.QuoteMeta(`DELETE FROM kv_store WHERE key = $1`)
)

func TestSQLStore(t *testing.T) {
	ctx := context.Background()
	s, mock := newTestSQLStore(t)

	mock.ExpectQuery(selectQuery).WithArgs("missing").WillReturnRows(sqlmock.NewRows([]string{"value"}))
	mock.ExpectExec(upsertQuery).WithArgs("financeCurrency", "MZN", sqlmock.AnyArg()).WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectQuery(selectQuery).WithArgs("financeCurrency").WillReturnRows(sqlmock.NewRows([]string{"value"}).AddRow("MZN"))
	mock.ExpectExec(deleteQuery).WithArgs("financeCurrency").WillReturnResult(sqlmock.NewResult(0, 1))

	if _, ok, err := s.Get(ctx, "missing"); ok || err != nil {
		t.Fatalf("Get(missing) = ok %v, err %v; want false, nil", ok, err)
	}
	if err := s.Set(ctx, "financeCurrency", "MZN"); err != nil {
		t.Fatalf("Set() error = %v", err)
	}
	if val, ok, err := s.Get(ctx, "financeCurrency"); !ok || err != nil || val != "MZN" {
		t.Errorf("Get() = %q, %v, %v; want MZN, true, nil", val, ok, err)
	}
	if err := s.Delete(ctx, "financeCurrency"); err != nil {
		t.Fatalf("Delete() error = %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Error(err)
	}
}

func TestSQLStore_cancelledContext(t *testing.T) {
	s, mock := newTestSQLStore(t)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if _, ok, err := s.Get(ctx, "finance_usd_mzn_rate"); err == nil || ok {
		t.Errorf("Get() = ok %v, err %v; want an error", ok, err)
	}
	if err := s.Set(ctx, "finance_usd_mzn_rate", "63.6"); err == nil {
		t.Error("Set() error = nil; want an error")
	}
	// nothing reached the database
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Error(err)
	}
}
