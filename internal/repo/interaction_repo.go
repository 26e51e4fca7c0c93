// Package repo implements the data persistence layer for domain entities,
// backed by GORM. This file provides repository functions for the user
// interaction history consumed by the context assembler.
package repo

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/mktware/go-assist-backend/internal/domain"
)

// ListRecentInteractions returns the most recent `limit` interaction rows
// for userID, newest first. An empty slice is a normal outcome for new or
// anonymous users.
func ListRecentInteractions(ctx context.Context, db *gorm.DB, userID string, limit int) ([]domain.UserInteraction, error) {
	var out []domain.UserInteraction
	err := db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("created_at desc").
		Limit(limit).
		Find(&out).Error
	return out, err
}

// RecordInteraction appends one interaction event. Callers treat failures as
// non-fatal; interaction history is an enhancement, not a requirement.
func RecordInteraction(ctx context.Context, db *gorm.DB, userID, interactionType, itemType, itemName, category string) (*domain.UserInteraction, error) {
	rec := &domain.UserInteraction{
		ID:              uuid.NewString(),
		UserID:          userID,
		InteractionType: interactionType,
		ItemType:        itemType,
		ItemName:        itemName,
		Category:        category,
		CreatedAt:       time.Now().UTC(),
	}
	if err := db.WithContext(ctx).Create(rec).Error; err != nil {
		return nil, err
	}
	return rec, nil
}
