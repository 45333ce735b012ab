package verifications

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"time"

	"docverify-backend/internal/match"
)

// PGRepo implements Repo using Postgres.
type PGRepo struct {
	DB *sql.DB
}

// Create inserts a new verification run.
func (r *PGRepo) Create(ctx context.Context, verification Verification) error {
	const query = `
INSERT INTO verifications (id, username, status, created_at)
VALUES ($1, $2, $3, $4)`
	_, err := r.DB.ExecContext(ctx, query,
		verification.ID,
		verification.Username,
		verification.Status,
		verification.CreatedAt,
	)
	return err
}

// GetByID returns a verification run by ID.
func (r *PGRepo) GetByID(ctx context.Context, verificationID string) (Verification, error) {
	const query = `
SELECT id, username, status, id_fields, bank_fields, result, error_code, error_message, created_at, started_at, completed_at
FROM verifications
WHERE id = $1
LIMIT 1`
	row := r.DB.QueryRowContext(ctx, query, verificationID)
	verification, err := scanVerification(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Verification{}, ErrNotFound
		}
		return Verification{}, err
	}
	return verification, nil
}

// ListByUsername returns runs for a username, newest first.
func (r *PGRepo) ListByUsername(ctx context.Context, username string, limit, offset int) ([]Verification, error) {
	if limit <= 0 {
		limit = 20
	}
	if limit > 100 {
		limit = 100
	}
	if offset < 0 {
		offset = 0
	}
	const query = `
SELECT id, username, status, id_fields, bank_fields, result, error_code, error_message, created_at, started_at, completed_at
FROM verifications
WHERE username = $1
ORDER BY created_at DESC
LIMIT $2 OFFSET $3`

	rows, err := r.DB.QueryContext(ctx, query, username, limit, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Verification
	for rows.Next() {
		verification, err := scanVerification(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, verification)
	}
	return out, rows.Err()
}

// MarkProcessing moves a queued run into processing.
func (r *PGRepo) MarkProcessing(ctx context.Context, verificationID string, startedAt time.Time) error {
	const query = `
UPDATE verifications
SET status = $1, started_at = $2
WHERE id = $3`
	res, err := r.DB.ExecContext(ctx, query, StatusProcessing, startedAt, verificationID)
	if err != nil {
		return err
	}
	if affected, err := res.RowsAffected(); err == nil && affected == 0 {
		return ErrNotFound
	}
	return nil
}

// Complete stores the extracted fields and comparison result for a run.
func (r *PGRepo) Complete(ctx context.Context, verificationID string, idFields, bankFields match.Fields, result match.Result, completedAt time.Time) error {
	const query = `
UPDATE verifications
SET status = $1,
    id_fields = $2::jsonb,
    bank_fields = $3::jsonb,
    result = $4::jsonb,
    error_code = NULL,
    error_message = NULL,
    completed_at = $5
WHERE id = $6`

	idPayload, err := json.Marshal(idFields)
	if err != nil {
		return err
	}
	bankPayload, err := json.Marshal(bankFields)
	if err != nil {
		return err
	}
	resultPayload, err := json.Marshal(result)
	if err != nil {
		return err
	}
	res, err := r.DB.ExecContext(ctx, query, StatusCompleted, idPayload, bankPayload, resultPayload, completedAt, verificationID)
	if err != nil {
		return err
	}
	if affected, err := res.RowsAffected(); err == nil && affected == 0 {
		return ErrNotFound
	}
	return nil
}

// Fail marks a run as failed with a classified error.
func (r *PGRepo) Fail(ctx context.Context, verificationID, errorCode, errorMessage string, completedAt time.Time) error {
	const query = `
UPDATE verifications
SET status = $1, error_code = $2, error_message = $3, completed_at = $4
WHERE id = $5`
	res, err := r.DB.ExecContext(ctx, query, StatusFailed, errorCode, errorMessage, completedAt, verificationID)
	if err != nil {
		return err
	}
	if affected, err := res.RowsAffected(); err == nil && affected == 0 {
		return ErrNotFound
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanVerification(row rowScanner) (Verification, error) {
	var verification Verification
	var idPayload, bankPayload, resultPayload []byte
	var errorCode, errorMessage sql.NullString
	var startedAt, completedAt sql.NullTime
	err := row.Scan(
		&verification.ID,
		&verification.Username,
		&verification.Status,
		&idPayload,
		&bankPayload,
		&resultPayload,
		&errorCode,
		&errorMessage,
		&verification.CreatedAt,
		&startedAt,
		&completedAt,
	)
	if err != nil {
		return Verification{}, err
	}
	if len(idPayload) > 0 {
		var fields match.Fields
		if err := json.Unmarshal(idPayload, &fields); err != nil {
			return Verification{}, err
		}
		verification.IDFields = &fields
	}
	if len(bankPayload) > 0 {
		var fields match.Fields
		if err := json.Unmarshal(bankPayload, &fields); err != nil {
			return Verification{}, err
		}
		verification.BankFields = &fields
	}
	if len(resultPayload) > 0 {
		var result match.Result
		if err := json.Unmarshal(resultPayload, &result); err != nil {
			return Verification{}, err
		}
		verification.Result = &result
	}
	if errorCode.Valid {
		verification.ErrorCode = errorCode.String
	}
	if errorMessage.Valid {
		verification.ErrorMessage = errorMessage.String
	}
	if startedAt.Valid {
		verification.StartedAt = &startedAt.Time
	}
	if completedAt.Valid {
		verification.CompletedAt = &completedAt.Time
	}
	return verification, nil
}

var _ Repo = (*PGRepo)(nil)
