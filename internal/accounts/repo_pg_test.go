package accounts

import (
	"context"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
)

func TestPGRepoGetMapsNullStatus(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })

	repo := &PGRepo{DB: db}
	now := time.Now().UTC()

	rows := sqlmock.NewRows([]string{"username", "doc_verification", "created_at", "updated_at"}).
		AddRow("alice", nil, now, now)
	mock.ExpectQuery("SELECT username, doc_verification").
		WithArgs("alice").
		WillReturnRows(rows)

	account, err := repo.Get(context.Background(), "alice")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if account.Status != StatusUnset {
		t.Fatalf("status = %q, want unset", account.Status)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("ExpectationsWereMet: %v", err)
	}
}

func TestPGRepoGetNotFound(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })

	repo := &PGRepo{DB: db}
	mock.ExpectQuery("SELECT username, doc_verification").
		WithArgs("missing").
		WillReturnRows(sqlmock.NewRows([]string{"username", "doc_verification", "created_at", "updated_at"}))

	if _, err := repo.Get(context.Background(), "missing"); err != ErrNotFound {
		t.Fatalf("err = %v, want ErrNotFound", err)
	}
}

func TestPGRepoSetStatusNotFound(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })

	repo := &PGRepo{DB: db}
	mock.ExpectExec("UPDATE accounts").
		WithArgs(StatusVerified, "missing").
		WillReturnResult(sqlmock.NewResult(0, 0))

	if err := repo.SetStatus(context.Background(), "missing", StatusVerified); err != ErrNotFound {
		t.Fatalf("err = %v, want ErrNotFound", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("ExpectationsWereMet: %v", err)
	}
}

func TestPGRepoUpsertProfileNullsEmptyFields(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })

	repo := &PGRepo{DB: db}
	mock.ExpectExec("INSERT INTO users").
		WithArgs("alice", "Alice Doe", nil, nil).
		WillReturnResult(sqlmock.NewResult(1, 1))

	profile := Profile{Username: "alice", Name: "Alice Doe"}
	if err := repo.UpsertProfile(context.Background(), profile); err != nil {
		t.Fatalf("UpsertProfile: %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("ExpectationsWereMet: %v", err)
	}
}
