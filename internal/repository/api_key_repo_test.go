package repository

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/glebarez/sqlite"
	"gorm.io/gorm"

	"github.com/greendental/backend/internal/model"
)

func setupAPIKeyRepo(t *testing.T) (APIKeyRepository, *gorm.DB) {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	if err != nil {
		t.Fatalf("failed to connect database: %v", err)
	}
	if err := db.AutoMigrate(&model.APIKey{}); err != nil {
		t.Fatalf("failed to migrate: %v", err)
	}
	return NewAPIKeyRepository(db), db
}

func TestAPIKeyRepository_List(t *testing.T) {
	repo, _ := setupAPIKeyRepo(t)
	ctx := context.Background()

	keys := []model.APIKey{
		{Name: "key3", Provider: "openai", BaseURL: "http://test", APIKey: "sk-3", Model: "gpt", Status: "unavailable", Priority: 3},
		{Name: "key1", Provider: "openai", BaseURL: "http://test", APIKey: "sk-1", Model: "gpt", Status: "enabled", Priority: 1},
		{Name: "key2", Provider: "openai", BaseURL: "http://test", APIKey: "sk-2", Model: "gpt", Status: "disabled", Priority: 2},
	}
	for _, k := range keys {
		if err := repo.Create(ctx, &k); err != nil {
			t.Fatalf("failed to create key: %v", err)
		}
	}

	list, err := repo.List(ctx)
	if err != nil {
		t.Fatalf("List failed: %v", err)
	}
	if len(list) != 3 {
		t.Fatalf("List should return all 3 keys regardless of status, got %d", len(list))
	}
	if list[0].Name != "key1" || list[2].Name != "key3" {
		t.Errorf("List should be ordered by priority, got %s..%s", list[0].Name, list[2].Name)
	}

	// 禁用的 Key 不参与调用
	active, err := repo.ListActive(ctx)
	if err != nil {
		t.Fatalf("ListActive failed: %v", err)
	}
	if len(active) != 2 || active[0].Name != "key1" || active[1].Name != "key3" {
		t.Errorf("ListActive should return enabled and unavailable keys, got %d", len(active))
	}
}

func TestAPIKeyRepository_RateLimit(t *testing.T) {
	repo, _ := setupAPIKeyRepo(t)
	ctx := context.Background()

	key := model.APIKey{Name: "test-limit", Provider: "openai", BaseURL: "url", APIKey: "sk", Model: "gpt", Status: "enabled", Priority: 1}
	if err := repo.Create(ctx, &key); err != nil {
		t.Fatalf("failed to create key: %v", err)
	}

	resetTime := time.Now().Add(10 * time.Minute)
	if err := repo.SetRateLimitReset(ctx, key.ID, resetTime); err != nil {
		t.Fatalf("SetRateLimitReset failed: %v", err)
	}

	limited, err := repo.GetByID(ctx, key.ID)
	if err != nil {
		t.Fatalf("GetByID failed: %v", err)
	}
	if limited.Status != model.APIKeyStatusUnavailable || limited.RateLimitResetAt == nil {
		t.Fatalf("key should be unavailable until reset, got %s %v", limited.Status, limited.RateLimitResetAt)
	}
	if limited.IsAvailable(time.Now()) {
		t.Errorf("rate limited key must not be available")
	}
	if !limited.IsAvailable(resetTime.Add(time.Second)) {
		t.Errorf("key should be available after reset time")
	}

	if err := repo.ClearRateLimit(ctx, key.ID); err != nil {
		t.Fatalf("ClearRateLimit failed: %v", err)
	}
	released, err := repo.GetByID(ctx, key.ID)
	if err != nil {
		t.Fatalf("GetByID failed: %v", err)
	}
	if released.Status != model.APIKeyStatusEnabled || released.RateLimitResetAt != nil {
		t.Errorf("ClearRateLimit should restore the key, got %s %v", released.Status, released.RateLimitResetAt)
	}
}

func TestAPIKeyRepository_UpdateStatusAndStats(t *testing.T) {
	repo, _ := setupAPIKeyRepo(t)
	ctx := context.Background()

	key := model.APIKey{Name: "stats", Provider: "openai", BaseURL: "url", APIKey: "sk", Model: "gpt", Status: "enabled"}
	if err := repo.Create(ctx, &key); err != nil {
		t.Fatalf("failed to create key: %v", err)
	}

	if err := repo.IncrementStats(ctx, key.ID, 1, 0); err != nil {
		t.Fatalf("IncrementStats failed: %v", err)
	}
	if err := repo.IncrementStats(ctx, key.ID, 1, 1); err != nil {
		t.Fatalf("IncrementStats failed: %v", err)
	}
	if err := repo.UpdateStatus(ctx, key.ID, model.APIKeyStatusDisabled); err != nil {
		t.Fatalf("UpdateStatus failed: %v", err)
	}
	if err := repo.UpdateStatus(ctx, 999, model.APIKeyStatusDisabled); !errors.Is(err, ErrAPIKeyNotFound) {
		t.Fatalf("expected ErrAPIKeyNotFound, got %v", err)
	}

	stats, err := repo.GetStats(ctx)
	if err != nil {
		t.Fatalf("GetStats failed: %v", err)
	}
	if stats.TotalCount != 1 || stats.DisabledCount != 1 || stats.TotalRequests != 2 || stats.TotalErrors != 1 {
		t.Errorf("unexpected stats: %+v", stats)
	}

	if _, err := repo.GetByName(ctx, "missing"); !errors.Is(err, ErrAPIKeyNotFound) {
		t.Errorf("expected ErrAPIKeyNotFound, got %v", err)
	}
}
