// Package repo implements the data persistence layer for domain entities,
// backed by GORM. This file provides repository functions for the durable
// tier of the response cache (ai_response_cache).
//
// Error semantics:
//   - When no live entry exists for a hash, functions return ErrNotFound
//     (an alias of gorm.ErrRecordNotFound).
//   - On DB errors (connectivity, constraint violations, etc.), the raw
//     gorm error is propagated; the cache store above this layer decides
//     whether the failure is fatal (it never is; durable-tier failures
//     degrade to memory-only caching).
package repo

import (
	"context"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/mktware/go-assist-backend/internal/domain"
)

// ErrNotFound is returned when a requested record does not exist.
// It aliases gorm.ErrRecordNotFound for convenience and consistency
// across the service layer and handlers.
var ErrNotFound = gorm.ErrRecordNotFound

// GetCachedResponse fetches the cache row for hash if it has not expired at
// `now`, and increments its hit counter in the same call. Expired or missing
// rows yield ErrNotFound.
func GetCachedResponse(ctx context.Context, db *gorm.DB, hash string, now time.Time) (*domain.ResponseCache, error) {
	var row domain.ResponseCache
	err := db.WithContext(ctx).
		Where("query_hash = ? AND expires_at > ?", hash, now).
		First(&row).Error
	if err != nil {
		return nil, err
	}

	// Best effort: a failed bump still serves the hit.
	res := db.WithContext(ctx).
		Model(&domain.ResponseCache{}).
		Where("query_hash = ?", hash).
		UpdateColumn("hit_count", gorm.Expr("hit_count + 1"))
	if res.Error == nil {
		row.HitCount++
	}
	return &row, nil
}

// PutCachedResponse inserts or replaces the cache row for entry.QueryHash.
// Re-caching the same fingerprint resets the TTL and hit count, matching
// "created on cache miss after successful completion" semantics.
func PutCachedResponse(ctx context.Context, db *gorm.DB, entry *domain.ResponseCache) error {
	return db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns: []clause.Column{{Name: "query_hash"}},
			DoUpdates: clause.AssignmentColumns([]string{
				"query_text", "response_text", "model_used", "tokens_used",
				"expires_at", "hit_count", "updated_at",
			}),
		}).
		Create(entry).Error
}
