package verifications

import (
	"bytes"
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"docverify-backend/internal/accounts"
	"docverify-backend/internal/documents"
	"docverify-backend/internal/extraction"
	"docverify-backend/internal/match"
	"docverify-backend/internal/shared/storage/object/local"
)

type stubExtractor struct {
	byKind map[extraction.DocumentKind]match.Fields
	errFor map[extraction.DocumentKind]error
}

func (s stubExtractor) Extract(ctx context.Context, input extraction.Input) (match.Fields, error) {
	_ = ctx
	if err, ok := s.errFor[input.Kind]; ok && err != nil {
		return match.Fields{}, err
	}
	return s.byKind[input.Kind], nil
}

func setupService(t *testing.T, extractor extraction.Service) (*Service, *MemoryRepo, *accounts.MemoryRepo) {
	t.Helper()
	verificationRepo := NewMemoryRepo()
	accountRepo := accounts.NewMemoryRepo()
	svc := &Service{
		Repo:      verificationRepo,
		Docs:      documents.NewMemoryRepo(),
		Accounts:  accounts.NewService(accountRepo),
		Store:     local.New(t.TempDir()),
		Extractor: extractor,
	}
	return svc, verificationRepo, accountRepo
}

// queueRun persists a queued run and stages both uploads in the object store,
// mirroring what Create does before it hands off to completeAsync.
func queueRun(t *testing.T, svc *Service, repo *MemoryRepo, username string) (Verification, []storedUpload) {
	t.Helper()
	ctx := context.Background()

	if _, err := svc.Accounts.EnsureExists(ctx, username); err != nil {
		t.Fatalf("ensure account: %v", err)
	}

	verification := Verification{
		ID:        "ver-1",
		Username:  username,
		Status:    StatusQueued,
		CreatedAt: time.Now().UTC(),
	}
	if err := repo.Create(ctx, verification); err != nil {
		t.Fatalf("create verification: %v", err)
	}

	scope := "verifications/" + verification.ID
	uploads := make([]storedUpload, 0, 2)
	for _, kind := range []string{documents.KindID, documents.KindBank} {
		key, _, _, err := svc.Store.Save(ctx, scope, kind+".txt", bytes.NewReader([]byte("document body")))
		if err != nil {
			t.Fatalf("save upload: %v", err)
		}
		uploads = append(uploads, storedUpload{
			Kind:     kind,
			Key:      key,
			FileName: kind + ".txt",
			MimeType: "text/plain",
		})
	}
	return verification, uploads
}

func TestCompleteAsyncVerifiesMatchingDocuments(t *testing.T) {
	extractor := stubExtractor{byKind: map[extraction.DocumentKind]match.Fields{
		extraction.KindID: {
			Name:    match.StringPtr("Jane A. Doe"),
			Phone:   match.StringPtr("(555) 123-4567"),
			Address: match.StringPtr("123 Main Street, Springfield"),
		},
		extraction.KindBank: {
			Name:    match.StringPtr("jane a doe"),
			Phone:   match.StringPtr("555-123-4567"),
			Address: match.StringPtr("123 Main St Springfield"),
		},
	}}
	svc, repo, accountRepo := setupService(t, extractor)
	verification, uploads := queueRun(t, svc, repo, "jane")

	svc.completeAsync(context.Background(), verification, uploads)

	got, err := repo.GetByID(context.Background(), verification.ID)
	if err != nil {
		t.Fatalf("get verification: %v", err)
	}
	if got.Status != StatusCompleted {
		t.Fatalf("status = %q, want completed (error: %s %s)", got.Status, got.ErrorCode, got.ErrorMessage)
	}
	if got.Result == nil || !got.Result.Verified {
		t.Fatalf("expected a verified result, got %+v", got.Result)
	}
	if len(got.Result.Matched) != 3 {
		t.Fatalf("matched = %v, want all three fields", got.Result.Matched)
	}

	account, err := accountRepo.Get(context.Background(), "jane")
	if err != nil {
		t.Fatalf("get account: %v", err)
	}
	if account.Status != accounts.StatusVerified {
		t.Fatalf("account status = %q, want verified", account.Status)
	}
	profile, err := accountRepo.GetProfile(context.Background(), "jane")
	if err != nil {
		t.Fatalf("get profile: %v", err)
	}
	if profile.Name != "Jane A. Doe" {
		t.Fatalf("profile name = %q, want the ID-document name", profile.Name)
	}
}

func TestCompleteAsyncNameMismatchStillVerifiesOnQuorum(t *testing.T) {
	extractor := stubExtractor{byKind: map[extraction.DocumentKind]match.Fields{
		extraction.KindID: {
			Name:    match.StringPtr("John Smith"),
			Phone:   match.StringPtr("555-123-4567"),
			Address: match.StringPtr("42 Elm Street, Portland"),
		},
		extraction.KindBank: {
			Name:    match.StringPtr("Jon Smyth"),
			Phone:   match.StringPtr("(555) 123-4567"),
			Address: match.StringPtr("42 Elm Street Portland"),
		},
	}}
	svc, repo, _ := setupService(t, extractor)
	verification, uploads := queueRun(t, svc, repo, "john")

	svc.completeAsync(context.Background(), verification, uploads)

	got, err := repo.GetByID(context.Background(), verification.ID)
	if err != nil {
		t.Fatalf("get verification: %v", err)
	}
	if got.Status != StatusCompleted {
		t.Fatalf("status = %q, want completed", got.Status)
	}
	if got.Result == nil || !got.Result.Verified {
		t.Fatalf("expected verified on phone+address quorum, got %+v", got.Result)
	}
	if len(got.Result.Mismatched) != 1 || got.Result.Mismatched[0] != match.FieldName {
		t.Fatalf("mismatched = %v, want only name", got.Result.Mismatched)
	}
}

func TestCompleteAsyncDegradedExtractionFailsClosed(t *testing.T) {
	extractor := stubExtractor{
		byKind: map[extraction.DocumentKind]match.Fields{
			extraction.KindID: {
				Name:  match.StringPtr("Jane Doe"),
				Phone: match.StringPtr("555-123-4567"),
			},
		},
		errFor: map[extraction.DocumentKind]error{
			extraction.KindBank: errors.New("model returned invalid json"),
		},
	}
	svc, repo, accountRepo := setupService(t, extractor)
	verification, uploads := queueRun(t, svc, repo, "jane")

	svc.completeAsync(context.Background(), verification, uploads)

	got, err := repo.GetByID(context.Background(), verification.ID)
	if err != nil {
		t.Fatalf("get verification: %v", err)
	}
	if got.Status != StatusCompleted {
		t.Fatalf("status = %q, want completed with degraded fields", got.Status)
	}
	if got.Result == nil || got.Result.Verified {
		t.Fatalf("degraded extraction must not verify, got %+v", got.Result)
	}
	if len(got.Result.Matched) != 0 || len(got.Result.Mismatched) != 0 {
		t.Fatalf("no fields should be comparable, got matched=%v mismatched=%v", got.Result.Matched, got.Result.Mismatched)
	}

	account, err := accountRepo.Get(context.Background(), "jane")
	if err != nil {
		t.Fatalf("get account: %v", err)
	}
	if account.Status != accounts.StatusNotVerified {
		t.Fatalf("account status = %q, want not_verified", account.Status)
	}
}

func TestCompleteAsyncRemovesTempUploads(t *testing.T) {
	extractor := stubExtractor{byKind: map[extraction.DocumentKind]match.Fields{}}
	svc, repo, _ := setupService(t, extractor)
	verification, uploads := queueRun(t, svc, repo, "jane")

	svc.completeAsync(context.Background(), verification, uploads)

	for _, upload := range uploads {
		if _, err := svc.Store.Open(context.Background(), upload.Key); err == nil {
			t.Fatalf("upload %s still present after run", upload.Key)
		}
	}
}

func TestCompleteAsyncStorageOpenFailureFailsRun(t *testing.T) {
	extractor := stubExtractor{byKind: map[extraction.DocumentKind]match.Fields{}}
	svc, repo, _ := setupService(t, extractor)
	verification, uploads := queueRun(t, svc, repo, "jane")
	uploads[0].Key = "verifications/ver-1/missing.txt"

	svc.completeAsync(context.Background(), verification, uploads)

	got, err := repo.GetByID(context.Background(), verification.ID)
	if err != nil {
		t.Fatalf("get verification: %v", err)
	}
	if got.Status != StatusFailed {
		t.Fatalf("status = %q, want failed", got.Status)
	}
	if got.ErrorCode != ErrorCodeStorage {
		t.Fatalf("errorCode = %q, want %s", got.ErrorCode, ErrorCodeStorage)
	}
}

func TestCreateValidatesInput(t *testing.T) {
	svc, _, _ := setupService(t, stubExtractor{})

	if _, err := svc.Create(context.Background(), CreateInput{Username: "  "}); !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("err = %v, want ErrInvalidInput for blank username", err)
	}
	if _, err := svc.Create(context.Background(), CreateInput{
		Username:   "jane",
		IDDocument: Upload{FileName: "id.txt", Body: bytes.NewReader([]byte("x"))},
	}); !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("err = %v, want ErrInvalidInput for missing bank statement", err)
	}
}

func TestLockUsernameSerializesSameUser(t *testing.T) {
	svc, _, _ := setupService(t, stubExtractor{})

	var inside, overlaps int32
	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			unlock := svc.lockUsername("jane")
			if atomic.AddInt32(&inside, 1) > 1 {
				atomic.AddInt32(&overlaps, 1)
			}
			time.Sleep(time.Millisecond)
			atomic.AddInt32(&inside, -1)
			unlock()
		}()
	}
	wg.Wait()

	if overlaps != 0 {
		t.Fatalf("observed %d overlapping critical sections for the same username", overlaps)
	}
}

func TestLockUsernameDoesNotBlockOtherUsers(t *testing.T) {
	svc, _, _ := setupService(t, stubExtractor{})

	unlockJane := svc.lockUsername("jane")
	defer unlockJane()

	done := make(chan struct{})
	go func() {
		unlock := svc.lockUsername("john")
		unlock()
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatalf("lock for a different username blocked behind jane's run")
	}
}
