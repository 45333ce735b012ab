package documents

import (
	"context"
	"database/sql"
)

// PGRepo implements Repo using Postgres.
type PGRepo struct {
	DB *sql.DB
}

// Create inserts a new document metadata row.
func (r *PGRepo) Create(ctx context.Context, doc Document) error {
	const query = `
INSERT INTO documents (id, verification_id, username, kind, file_name, mime_type, size_bytes, created_at)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`

	var mimeType sql.NullString
	if doc.MimeType != "" {
		mimeType = sql.NullString{String: doc.MimeType, Valid: true}
	}
	_, err := r.DB.ExecContext(ctx, query,
		doc.ID,
		doc.VerificationID,
		doc.Username,
		doc.Kind,
		doc.FileName,
		mimeType,
		doc.SizeBytes,
		doc.CreatedAt,
	)
	return err
}

// ListByVerification returns the documents uploaded for a verification run,
// in upload order.
func (r *PGRepo) ListByVerification(ctx context.Context, verificationID string) ([]Document, error) {
	const query = `
SELECT id, verification_id, username, kind, file_name, mime_type, size_bytes, created_at
FROM documents
WHERE verification_id = $1
ORDER BY created_at ASC, kind ASC`

	rows, err := r.DB.QueryContext(ctx, query, verificationID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Document
	for rows.Next() {
		var doc Document
		var mimeType sql.NullString
		if err := rows.Scan(
			&doc.ID,
			&doc.VerificationID,
			&doc.Username,
			&doc.Kind,
			&doc.FileName,
			&mimeType,
			&doc.SizeBytes,
			&doc.CreatedAt,
		); err != nil {
			return nil, err
		}
		if mimeType.Valid {
			doc.MimeType = mimeType.String
		}
		out = append(out, doc)
	}
	return out, rows.Err()
}

var _ Repo = (*PGRepo)(nil)
