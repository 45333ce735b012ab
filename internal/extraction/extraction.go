package extraction

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"docverify-backend/internal/match"
)

// DocumentKind tells the extractor what kind of document it is reading so the
// prompt can steer the model toward the right part of the text.
type DocumentKind string

const (
	KindID   DocumentKind = "id"
	KindBank DocumentKind = "bank"
)

// Input is one document to extract fields from.
type Input struct {
	Data     []byte
	MimeType string
	FileName string
	Kind     DocumentKind
}

// Service converts a document into its structured fields. Implementations
// must not panic; any OCR, model, or decode failure is returned as an error
// and the caller degrades to empty fields.
type Service interface {
	Extract(ctx context.Context, in Input) (match.Fields, error)
}

// ErrNotConfigured is returned by the placeholder service.
var ErrNotConfigured = errors.New("extraction backend not configured")

// Placeholder is a stub Service used when no backend is wired.
type Placeholder struct{}

// Extract returns ErrNotConfigured.
func (Placeholder) Extract(ctx context.Context, in Input) (match.Fields, error) {
	_ = ctx
	_ = in
	return match.Fields{}, ErrNotConfigured
}

// rawFields mirrors the JSON object the model is asked to return.
type rawFields struct {
	Name    *string `json:"name"`
	Phone   *string `json:"phone"`
	Address *string `json:"address"`
}

// ParseFields decodes a model response into Fields. String values of "null",
// "none", or whitespace collapse to absent; the model does not always honor
// JSON null for missing data.
func ParseFields(raw json.RawMessage) (match.Fields, error) {
	var parsed rawFields
	if err := json.Unmarshal(raw, &parsed); err != nil {
		return match.Fields{}, fmt.Errorf("decode extraction response: %w", err)
	}
	return match.Fields{
		Name:    cleanValue(parsed.Name),
		Phone:   cleanValue(parsed.Phone),
		Address: cleanValue(parsed.Address),
	}, nil
}

func cleanValue(v *string) *string {
	if v == nil {
		return nil
	}
	trimmed := strings.TrimSpace(*v)
	switch strings.ToLower(trimmed) {
	case "", "null", "none", "n/a":
		return nil
	}
	return &trimmed
}
