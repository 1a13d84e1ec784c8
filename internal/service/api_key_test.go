package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/glebarez/sqlite"
	"gorm.io/gorm"

	"github.com/greendental/backend/internal/model"
	"github.com/greendental/backend/internal/repository"
)

func setupAPIKeyService(t *testing.T) (*apiKeyService, repository.APIKeyRepository) {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	if err != nil {
		t.Fatalf("failed to open db: %v", err)
	}
	if err := db.AutoMigrate(&model.APIKey{}); err != nil {
		t.Fatalf("failed to migrate: %v", err)
	}
	repo := repository.NewAPIKeyRepository(db)
	return NewAPIKeyService(repo).(*apiKeyService), repo
}

func createKey(t *testing.T, svc APIKeyService, name string, priority int) *model.APIKey {
	t.Helper()
	key, err := svc.CreateAPIKey(context.Background(), &CreateAPIKeyRequest{
		Name:     name,
		Provider: "openai",
		BaseURL:  "https://api.openai.com/v1",
		APIKey:   "sk-test-1234567890",
		Model:    "gpt-4o-mini",
		Priority: priority,
	})
	if err != nil {
		t.Fatalf("CreateAPIKey error: %v", err)
	}
	return key
}

func TestAPIKeyServiceCreateDuplicate(t *testing.T) {
	svc, _ := setupAPIKeyService(t)
	createKey(t, svc, "primary", 0)

	_, err := svc.CreateAPIKey(context.Background(), &CreateAPIKeyRequest{Name: "primary", Provider: "openai", BaseURL: "x", APIKey: "y", Model: "z"})
	if !errors.Is(err, repository.ErrAPIKeyDuplicate) {
		t.Fatalf("expected duplicate error, got %v", err)
	}
}

func TestAPIKeyServiceUpdate(t *testing.T) {
	svc, _ := setupAPIKeyService(t)
	key := createKey(t, svc, "primary", 5)
	createKey(t, svc, "secondary", 6)

	zero := 0
	updated, err := svc.UpdateAPIKey(context.Background(), key.ID, &UpdateAPIKeyRequest{Model: "gpt-4o", Priority: &zero})
	if err != nil {
		t.Fatalf("UpdateAPIKey error: %v", err)
	}
	if updated.Model != "gpt-4o" || updated.Priority != 0 || updated.Name != "primary" {
		t.Fatalf("unexpected update result: %+v", updated)
	}

	if _, err := svc.UpdateAPIKey(context.Background(), key.ID, &UpdateAPIKeyRequest{Name: "secondary"}); !errors.Is(err, repository.ErrAPIKeyDuplicate) {
		t.Fatalf("expected duplicate error, got %v", err)
	}
}

func TestAPIKeyServiceUpdateStatusValidation(t *testing.T) {
	svc, _ := setupAPIKeyService(t)
	key := createKey(t, svc, "primary", 0)

	if err := svc.UpdateAPIKeyStatus(context.Background(), key.ID, model.APIKeyStatusUnavailable); !errors.Is(err, ErrInvalidStatus) {
		t.Fatalf("expected invalid status, got %v", err)
	}
	if err := svc.UpdateAPIKeyStatus(context.Background(), key.ID, model.APIKeyStatusDisabled); err != nil {
		t.Fatalf("UpdateAPIKeyStatus error: %v", err)
	}
	available, err := svc.ListAvailable(context.Background())
	if err != nil {
		t.Fatalf("ListAvailable error: %v", err)
	}
	if len(available) != 0 {
		t.Fatalf("disabled key must not be available")
	}
}

func TestAPIKeyServiceListAvailableRestoresExpiredRateLimit(t *testing.T) {
	svc, repo := setupAPIKeyService(t)
	ctx := context.Background()
	now := time.Now()
	svc.now = func() time.Time { return now }

	expired := createKey(t, svc, "expired", 1)
	cooling := createKey(t, svc, "cooling", 0)
	healthy := createKey(t, svc, "healthy", 2)

	if err := svc.MarkUnavailable(ctx, expired.ID, now.Add(-time.Minute)); err != nil {
		t.Fatalf("MarkUnavailable error: %v", err)
	}
	if err := svc.MarkUnavailable(ctx, cooling.ID, now.Add(time.Hour)); err != nil {
		t.Fatalf("MarkUnavailable error: %v", err)
	}

	available, err := svc.ListAvailable(ctx)
	if err != nil {
		t.Fatalf("ListAvailable error: %v", err)
	}
	if len(available) != 2 || available[0].ID != expired.ID || available[1].ID != healthy.ID {
		t.Fatalf("unexpected available keys: %+v", available)
	}

	stored, err := repo.GetByID(ctx, expired.ID)
	if err != nil {
		t.Fatalf("GetByID error: %v", err)
	}
	if stored.Status != model.APIKeyStatusEnabled || stored.RateLimitResetAt != nil {
		t.Fatalf("expected expired key restored, got %+v", stored)
	}
}

func TestAPIKeyServiceRecordRequest(t *testing.T) {
	svc, _ := setupAPIKeyService(t)
	ctx := context.Background()
	key := createKey(t, svc, "primary", 0)

	if err := svc.RecordRequest(ctx, key.ID, true); err != nil {
		t.Fatalf("RecordRequest error: %v", err)
	}
	if err := svc.RecordRequest(ctx, key.ID, false); err != nil {
		t.Fatalf("RecordRequest error: %v", err)
	}

	stats, err := svc.GetStats(ctx)
	if err != nil {
		t.Fatalf("GetStats error: %v", err)
	}
	if stats.TotalRequests != 2 || stats.TotalErrors != 1 || stats.EnabledCount != 1 {
		t.Fatalf("unexpected stats: %+v", stats)
	}
}
