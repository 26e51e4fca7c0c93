// Package repo implements the data persistence layer for domain entities,
// backed by GORM. This file provides repository functions for conversation
// transcripts. Messages and request context are stored as JSON text; this
// layer owns the (de)serialization so callers only see typed values.
package repo

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/mktware/go-assist-backend/internal/domain"
)

// GetActiveConversation returns the most recently updated conversation for
// userID, or ErrNotFound when the user has none.
func GetActiveConversation(ctx context.Context, db *gorm.DB, userID string) (*domain.Conversation, error) {
	var row domain.Conversation
	err := db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("updated_at desc").
		First(&row).Error
	if err != nil {
		return nil, err
	}
	return &row, nil
}

// AppendConversation appends turns to the user's active conversation,
// creating the conversation if the user has none. The supplied context blob
// replaces the stored one (latest page/cart snapshot wins).
func AppendConversation(ctx context.Context, db *gorm.DB, userID string, turns []domain.ChatTurn, contextBlob map[string]any) error {
	now := time.Now().UTC()

	conv, err := GetActiveConversation(ctx, db, userID)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		conv = &domain.Conversation{
			ID:        uuid.NewString(),
			UserID:    userID,
			Messages:  "[]",
			Context:   "{}",
			CreatedAt: now,
		}
	} else if err != nil {
		return err
	}

	var existing []domain.ChatTurn
	if err := json.Unmarshal([]byte(conv.Messages), &existing); err != nil {
		// A corrupt transcript should not block new history; start over.
		existing = nil
	}
	existing = append(existing, turns...)

	msgJSON, err := json.Marshal(existing)
	if err != nil {
		return err
	}
	conv.Messages = string(msgJSON)

	if contextBlob != nil {
		ctxJSON, err := json.Marshal(contextBlob)
		if err != nil {
			return err
		}
		conv.Context = string(ctxJSON)
	}

	conv.UpdatedAt = now
	return db.WithContext(ctx).Save(conv).Error
}

// ConversationTurns decodes the stored transcript of conv.
func ConversationTurns(conv *domain.Conversation) ([]domain.ChatTurn, error) {
	var turns []domain.ChatTurn
	if err := json.Unmarshal([]byte(conv.Messages), &turns); err != nil {
		return nil, err
	}
	return turns, nil
}
