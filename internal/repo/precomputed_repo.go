// Package repo implements the data persistence layer for domain entities,
// backed by GORM. This file provides repository functions for the curated
// precomputed-response table consumed by the pattern matcher.
package repo

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/mktware/go-assist-backend/internal/domain"
)

// ListActivePrecomputed returns all active precomputed responses ordered by
// priority descending. The stored order is the tie-break for equal
// priorities, so no secondary sort is applied here.
func ListActivePrecomputed(ctx context.Context, db *gorm.DB) ([]domain.PrecomputedResponse, error) {
	var out []domain.PrecomputedResponse
	err := db.WithContext(ctx).
		Where("active = ?", true).
		Order("priority desc").
		Find(&out).Error
	return out, err
}

// CreatePrecomputed inserts a curated pattern/response pair. Used by seeding
// and ops tooling; the request path only reads.
func CreatePrecomputed(ctx context.Context, db *gorm.DB, pattern, response string, priority int) (*domain.PrecomputedResponse, error) {
	p := &domain.PrecomputedResponse{
		ID:        uuid.NewString(),
		Pattern:   pattern,
		Response:  response,
		Priority:  priority,
		Active:    true,
		CreatedAt: time.Now().UTC(),
	}
	if err := db.WithContext(ctx).Create(p).Error; err != nil {
		return nil, err
	}
	return p, nil
}
