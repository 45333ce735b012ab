package verifications

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"docverify-backend/internal/accounts"
	"docverify-backend/internal/documents"
	"docverify-backend/internal/extraction"
	"docverify-backend/internal/match"
	"docverify-backend/internal/shared/metrics"
	"docverify-backend/internal/shared/storage/object"
	"docverify-backend/internal/shared/telemetry"
)

// Upload is one document handed in with a verification request.
type Upload struct {
	FileName string
	MimeType string
	Body     io.Reader
}

// CreateInput carries everything needed to start a verification run.
type CreateInput struct {
	Username      string
	IDDocument    Upload
	BankStatement Upload
}

type storedUpload struct {
	Kind     string
	Key      string
	FileName string
	MimeType string
}

// Service contains business logic for verification runs.
type Service struct {
	Repo      Repo
	Docs      documents.Repo
	Accounts  *accounts.Service
	Store     object.ObjectStore
	Extractor extraction.Service
	Threshold int

	userLocks sync.Map // username -> *sync.Mutex
}

// Create stores the uploaded documents, records a queued run, and kicks off
// asynchronous completion.
func (s *Service) Create(ctx context.Context, input CreateInput) (Verification, error) {
	username := strings.TrimSpace(input.Username)
	if username == "" {
		return Verification{}, fmt.Errorf("%w: username is required", ErrInvalidInput)
	}
	if input.IDDocument.Body == nil || input.BankStatement.Body == nil {
		return Verification{}, fmt.Errorf("%w: id document and bank statement are required", ErrInvalidInput)
	}
	if s.Store == nil || s.Extractor == nil {
		return Verification{}, errors.New("verification service not configured")
	}

	if _, err := s.Accounts.EnsureExists(ctx, username); err != nil {
		return Verification{}, fmt.Errorf("ensure account: %w", err)
	}

	verification := Verification{
		ID:        uuid.NewString(),
		Username:  username,
		Status:    StatusQueued,
		CreatedAt: time.Now().UTC(),
	}
	// The run row goes in first so document metadata can reference it.
	if err := s.Repo.Create(ctx, verification); err != nil {
		return Verification{}, err
	}
	scope := "verifications/" + verification.ID

	uploads := make([]storedUpload, 0, 2)
	pending := []struct {
		kind   string
		upload Upload
	}{
		{documents.KindID, input.IDDocument},
		{documents.KindBank, input.BankStatement},
	}
	for _, p := range pending {
		key, size, mimeType, err := s.Store.Save(ctx, scope, p.upload.FileName, p.upload.Body)
		if err != nil {
			s.abortCreate(ctx, verification, uploads, fmt.Errorf("storage save %s: %w", p.kind, err))
			return Verification{}, fmt.Errorf("storage save %s: %w", p.kind, err)
		}
		if p.upload.MimeType != "" {
			mimeType = p.upload.MimeType
		}
		uploads = append(uploads, storedUpload{
			Kind:     p.kind,
			Key:      key,
			FileName: p.upload.FileName,
			MimeType: mimeType,
		})
		if s.Docs != nil {
			doc := documents.Document{
				ID:             uuid.NewString(),
				VerificationID: verification.ID,
				Username:       username,
				Kind:           p.kind,
				FileName:       p.upload.FileName,
				MimeType:       mimeType,
				SizeBytes:      size,
				CreatedAt:      time.Now().UTC(),
			}
			if err := s.Docs.Create(ctx, doc); err != nil {
				s.abortCreate(ctx, verification, uploads, fmt.Errorf("document metadata: %w", err))
				return Verification{}, fmt.Errorf("document metadata: %w", err)
			}
		}
	}

	go s.completeAsync(backgroundWithRequestID(ctx), verification, uploads)

	return verification, nil
}

// Get returns a verification run by ID.
func (s *Service) Get(ctx context.Context, verificationID string) (Verification, error) {
	if verificationID == "" {
		return Verification{}, errors.New("verificationID is required")
	}
	return s.Repo.GetByID(ctx, verificationID)
}

// List returns runs for a username ordered newest-first.
func (s *Service) List(ctx context.Context, username string, limit, offset int) ([]Verification, error) {
	if username == "" {
		return nil, errors.New("username is required")
	}
	return s.Repo.ListByUsername(ctx, username, limit, offset)
}

func (s *Service) completeAsync(ctx context.Context, verification Verification, uploads []storedUpload) {
	defer func() {
		if r := recover(); r != nil {
			s.failVerification(ctx, verification, fmt.Errorf("panic: %v", r), nil)
		}
	}()
	defer s.removeUploads(ctx, uploads)

	// Runs for the same username are serialized so the account status always
	// reflects the last run to finish.
	unlock := s.lockUsername(verification.Username)
	defer unlock()

	startedAt := time.Now().UTC()
	if err := s.Repo.MarkProcessing(ctx, verification.ID, startedAt); err != nil {
		s.failVerification(ctx, verification, fmt.Errorf("set processing failed: %w", err), &startedAt)
		return
	}
	metrics.IncVerificationStarted()
	telemetry.Info("verification.status", map[string]any{
		"request_id":        requestIDFromContext(ctx),
		"username":          verification.Username,
		"verification_id":   verification.ID,
		"status":            StatusProcessing,
		"status_transition": "queued->processing",
	})

	var idFields, bankFields match.Fields
	g, gctx := errgroup.WithContext(ctx)
	for _, upload := range uploads {
		upload := upload
		g.Go(func() error {
			fields, err := s.extractUpload(gctx, verification, upload)
			if err != nil {
				return err
			}
			switch upload.Kind {
			case documents.KindID:
				idFields = fields
			case documents.KindBank:
				bankFields = fields
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		s.failVerification(ctx, verification, err, &startedAt)
		return
	}

	result := match.CompareFields(idFields, bankFields, s.Threshold)

	completedAt := time.Now().UTC()
	if err := s.Repo.Complete(ctx, verification.ID, idFields, bankFields, result, completedAt); err != nil {
		s.failVerification(ctx, verification, fmt.Errorf("persist result: %w", err), &startedAt)
		return
	}
	if err := s.Accounts.RecordResult(ctx, verification.Username, result.Verified, idFields); err != nil {
		s.failVerification(ctx, verification, fmt.Errorf("persist account status: %w", err), &startedAt)
		return
	}

	if result.Verified {
		metrics.IncVerificationVerified()
	} else {
		metrics.IncVerificationNotVerified()
	}
	metrics.ObserveVerificationDurationMs(durationMs(&startedAt, &completedAt))
	telemetry.Info("verification.status", map[string]any{
		"request_id":        requestIDFromContext(ctx),
		"username":          verification.Username,
		"verification_id":   verification.ID,
		"status":            StatusCompleted,
		"status_transition": "processing->completed",
		"verified":          result.Verified,
		"matched_fields":    result.Matched,
		"duration_ms":       durationMs(&startedAt, &completedAt),
	})
}

// extractUpload fetches a stored upload and runs field extraction on it.
// Storage errors abort the run; extraction errors degrade to empty fields so
// the comparison proceeds and fails closed.
func (s *Service) extractUpload(ctx context.Context, verification Verification, upload storedUpload) (match.Fields, error) {
	body, err := s.Store.Open(ctx, upload.Key)
	if err != nil {
		return match.Fields{}, fmt.Errorf("storage open %s: %w", upload.Kind, err)
	}
	defer body.Close()
	data, err := io.ReadAll(body)
	if err != nil {
		return match.Fields{}, fmt.Errorf("storage read %s: %w", upload.Kind, err)
	}

	fields, err := s.Extractor.Extract(ctx, extraction.Input{
		Data:     data,
		MimeType: upload.MimeType,
		FileName: upload.FileName,
		Kind:     extraction.DocumentKind(upload.Kind),
	})
	if err != nil {
		metrics.IncExtractionDegraded()
		telemetry.Info("verification.extraction_degraded", map[string]any{
			"request_id":      requestIDFromContext(ctx),
			"username":        verification.Username,
			"verification_id": verification.ID,
			"kind":            upload.Kind,
			"error":           sanitizeError(err),
		})
		return match.Fields{}, nil
	}
	return fields, nil
}

func (s *Service) failVerification(ctx context.Context, verification Verification, err error, startedAt *time.Time) {
	code := classifyFailure(err)
	msg := sanitizeError(err)
	completedAt := time.Now().UTC()
	if updateErr := s.Repo.Fail(context.Background(), verification.ID, code, msg, completedAt); updateErr != nil {
		telemetry.Error("verification.fail_update", map[string]any{
			"verification_id": verification.ID,
			"error":           sanitizeError(updateErr),
			"original_error":  msg,
		})
	}
	metrics.IncVerificationFailed()
	transition := "queued->failed"
	if startedAt != nil {
		metrics.ObserveVerificationDurationMs(durationMs(startedAt, &completedAt))
		transition = "processing->failed"
	}
	telemetry.Info("verification.status", map[string]any{
		"request_id":        requestIDFromContext(ctx),
		"username":          verification.Username,
		"verification_id":   verification.ID,
		"status":            StatusFailed,
		"status_transition": transition,
		"error_code":        code,
		"duration_ms":       durationMs(startedAt, &completedAt),
	})
}

// abortCreate marks an already-created run as failed when staging its inputs
// does not finish, so no run row is left queued forever.
func (s *Service) abortCreate(ctx context.Context, verification Verification, uploads []storedUpload, cause error) {
	s.removeUploads(ctx, uploads)
	s.failVerification(ctx, verification, cause, nil)
}

func (s *Service) removeUploads(ctx context.Context, uploads []storedUpload) {
	for _, upload := range uploads {
		if err := s.Store.Delete(ctx, upload.Key); err != nil {
			telemetry.Error("verification.cleanup", map[string]any{
				"key":   upload.Key,
				"error": sanitizeError(err),
			})
		}
	}
}

func (s *Service) lockUsername(username string) func() {
	value, _ := s.userLocks.LoadOrStore(username, &sync.Mutex{})
	mu := value.(*sync.Mutex)
	mu.Lock()
	return mu.Unlock
}

func durationMs(startedAt, completedAt *time.Time) float64 {
	if startedAt == nil || completedAt == nil {
		return 0
	}
	return float64(completedAt.Sub(*startedAt).Microseconds()) / 1000.0
}
