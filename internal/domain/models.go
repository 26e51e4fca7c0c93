// Package domain defines the persistence models for the assistant: curated
// precomputed responses, cached completions, user interaction history, usage
// metering, and conversation transcripts. These types are mapped with GORM
// and form the core data layer of the application.
package domain

import (
	"time"

	"gorm.io/gorm"
)

// Interaction type values recorded in UserInteraction rows.
const (
	InteractionSearch    = "search"
	InteractionView      = "view"
	InteractionAddToCart = "add_to_cart"
)

// PrecomputedResponse is an operator-curated canned answer keyed by a
// substring pattern. Entries are evaluated highest priority first; only
// active entries participate in matching.
//
// Fields:
//   - ID: stable UUID primary key (char(36)).
//   - Pattern: case-insensitive substring to look for in the user message.
//   - Response: the canned answer returned on a match.
//   - Priority: higher wins; ties broken by the stored ordering.
//   - Active: inactive entries are ignored by the matcher.
//   - CreatedAt / UpdatedAt: timestamps managed by GORM.
type PrecomputedResponse struct {
	ID        string    `json:"id"        gorm:"type:char(36);primaryKey"`
	Pattern   string    `json:"pattern"   gorm:"type:varchar(255);not null;index"`
	Response  string    `json:"response"  gorm:"type:text;not null"`
	Priority  int       `json:"priority"  gorm:"not null;default:0;index"`
	Active    bool      `json:"active"    gorm:"not null;default:true"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// TableName returns the database table name for PrecomputedResponse.
func (PrecomputedResponse) TableName() string { return "ai_precomputed_responses" }

// ResponseCache is the durable tier of the response cache, keyed by the
// query fingerprint. A row is logically absent once now > ExpiresAt;
// HitCount only ever grows on successful read hits.
//
// Fields:
//   - QueryHash: fingerprint primary key (query + user).
//   - QueryText: original query, kept for inspection and ops tooling.
//   - ResponseText: the cached completion text.
//   - ModelUsed / TokensUsed: completion metadata, when the entry came
//     from a real provider call.
//   - ExpiresAt: expiry timestamp; expired rows are treated as misses.
//   - HitCount: number of durable-tier hits served from this row.
type ResponseCache struct {
	QueryHash    string    `json:"query_hash"    gorm:"type:varchar(32);primaryKey"`
	QueryText    string    `json:"query_text"    gorm:"type:text;not null"`
	ResponseText string    `json:"response_text" gorm:"type:text;not null"`
	ModelUsed    *string   `json:"model_used,omitempty"  gorm:"type:varchar(64)"`
	TokensUsed   *int      `json:"tokens_used,omitempty"`
	ExpiresAt    time.Time `json:"expires_at"    gorm:"not null;index"`
	HitCount     int       `json:"hit_count"     gorm:"not null;default:0"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// TableName returns the database table name for ResponseCache.
func (ResponseCache) TableName() string { return "ai_response_cache" }

// UserInteraction is one recorded marketplace event (a search, a product
// view, a cart addition) used to personalize the assistant's system prompt.
//
// Fields:
//   - ID: UUID primary key (char(36)).
//   - UserID: owner of the event; indexed for the recency query.
//   - InteractionType: one of the Interaction* constants.
//   - ItemType / ItemName / Category: what the event was about.
//   - CreatedAt: event time; the assembler reads the most recent N rows.
type UserInteraction struct {
	ID              string    `json:"id"               gorm:"type:char(36);primaryKey"`
	UserID          string    `json:"user_id"          gorm:"type:varchar(64);not null;index:idx_user_interactions,priority:1"`
	InteractionType string    `json:"interaction_type" gorm:"type:varchar(32);not null"`
	ItemType        string    `json:"item_type"        gorm:"type:varchar(64)"`
	ItemName        string    `json:"item_name"        gorm:"type:varchar(255)"`
	Category        string    `json:"category"         gorm:"type:varchar(128)"`
	CreatedAt       time.Time `json:"created_at"       gorm:"index:idx_user_interactions,priority:2"`
}

// TableName returns the database table name for UserInteraction.
func (UserInteraction) TableName() string { return "user_interactions" }

// UsagePeriod meters assistant usage per (user, calendar month). At most one
// row exists per pair; increments are read-modify-write across two store
// calls, so concurrent requests by the same user can lose updates (kept
// deliberately, see repo.AddUsage).
type UsagePeriod struct {
	ID           string    `json:"id"            gorm:"type:char(36);primaryKey"`
	UserID       string    `json:"user_id"       gorm:"type:varchar(64);not null;uniqueIndex:ux_usage_user_period"`
	PeriodStart  time.Time `json:"period_start"  gorm:"not null;uniqueIndex:ux_usage_user_period"`
	RequestCount int       `json:"request_count" gorm:"not null;default:0"`
	TokenCount   int       `json:"token_count"   gorm:"not null;default:0"`
	CostEstimate float64   `json:"cost_estimate" gorm:"not null;default:0"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// TableName returns the database table name for UsagePeriod.
func (UsagePeriod) TableName() string { return "user_ai_usage" }

// ChatTurn is one utterance inside a conversation transcript. Role is
// "user" or "assistant".
type ChatTurn struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// Conversation is the durable append point for a user's chat history. The
// application keeps at most one active conversation per user and appends to
// it rather than creating new rows per session (policy, not a DB constraint).
//
// Messages and Context are stored as JSON text; the repo layer owns the
// (de)serialization so the pipeline only sees typed values.
type Conversation struct {
	ID        string         `json:"id"         gorm:"type:char(36);primaryKey"`
	UserID    string         `json:"user_id"    gorm:"type:varchar(64);not null;index"`
	Messages  string         `json:"-"          gorm:"type:text;not null;default:'[]'"`
	Context   string         `json:"-"          gorm:"type:text;not null;default:'{}'"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at" gorm:"index"`
	DeletedAt gorm.DeletedAt `json:"-"          gorm:"index"`
}

// TableName returns the database table name for Conversation.
func (Conversation) TableName() string { return "ai_conversations" }
