// Package services – AssistService
//
// This file implements AssistService, the orchestrator of the assistant's
// response-resolution pipeline. An incoming message is resolved through an
// ordered cascade of increasingly expensive strategies (precomputed pattern
// match, rule match, cache lookup, and finally a completion-provider call
// personalized with the user's recent marketplace activity), each a
// short-circuit exit when it produces a response.
//
// Failure policy ("fail open toward availability"): only validation errors
// and completion failures ever reach the caller. Every other collaborator
// failure (durable cache, interaction history, usage metering, conversation
// persistence) is logged and absorbed; a transient database hiccup must
// never turn into a user-visible chat failure.
//
// Observability: Respond is OpenTelemetry-instrumented, and every exit path
// reports its state and elapsed wall-clock time to the analytics tracker.
package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/rs/zerolog"

	"github.com/mktware/go-assist-backend/internal/analytics"
	"github.com/mktware/go-assist-backend/internal/assist"
	"github.com/mktware/go-assist-backend/internal/domain"
)

// Response source values, in pipeline order.
const (
	SourcePrecomputed = "precomputed"
	SourceRule        = "rule"
	SourceCache       = "cache"
	SourceAI          = "ai"
	sourceError       = "error"
)

// baseSystemPrompt frames the assistant before personalization is appended.
const baseSystemPrompt = "You are the shopping assistant for a multi-vertical " +
	"marketplace covering shop products, vehicles, services, and sim-racing. " +
	"Answer concisely and helpfully. When the user asks about their own cart " +
	"or orders, rely on the context provided rather than guessing."

// modelCostPer1K maps model identifiers to an estimated cost per 1000
// tokens, driving the usage meter's cost column.
var modelCostPer1K = map[string]float64{
	assist.ModelFast:     0.0006,
	assist.ModelStandard: 0.01,
}

// ChatRequest is one inbound assistant request. Context carries the
// client's loosely-structured page/cart/order snapshot; it is persisted
// verbatim with the conversation and mapped to typed values only where the
// pipeline needs them.
type ChatRequest struct {
	Message string
	History []domain.ChatTurn
	Context map[string]any
	UserID  string
}

// ChatResponse is the pipeline's terminal result for a request.
type ChatResponse struct {
	Response string
	Source   string
	Cached   bool
	Model    string
	Tokens   int
	Cost     float64
	Actions  []assist.Action
}

// Completer resolves an optimized prompt through the completion provider.
type Completer interface {
	Complete(ctx context.Context, model string, prompt assist.OptimizedPrompt) (string, int, error)
}

// ContextSource builds the personalization summary for a user.
type ContextSource interface {
	Assemble(ctx context.Context, userID string) string
}

// UsageSink meters a completed request against the user's monthly usage.
type UsageSink interface {
	Add(ctx context.Context, userID string, tokens int, cost float64) error
}

// ConversationSink appends the exchanged turns to the user's transcript.
type ConversationSink interface {
	Append(ctx context.Context, userID string, turns []domain.ChatTurn, contextBlob map[string]any) error
}

// AssistService sequences the pipeline. All collaborators are injected;
// tests substitute fresh fakes per test.
type AssistService struct {
	Precomputed *assist.PrecomputedMatcher
	Rules       *assist.RuleMatcher
	Cache       *assist.Cache
	Contexts    ContextSource
	Completer   Completer
	Usage       UsageSink
	Convos      ConversationSink
	Breaker     *assist.Breaker
	Tracker     *analytics.Tracker
	Log         zerolog.Logger

	// Prompt bounds (see config.AssistConfig).
	Limits assist.PromptLimits

	// Cache TTL policy by classified complexity.
	SimpleTTL  time.Duration
	DefaultTTL time.Duration
}

// Respond resolves one chat request. The returned error is either
// ErrEmptyMessage or (a wrapped) ErrUpstreamUnavailable; everything else is
// absorbed per the failure policy.
func (s *AssistService) Respond(ctx context.Context, req ChatRequest) (*ChatResponse, error) {
	start := time.Now()

	tr := otel.Tracer("services/AssistService")
	ctx, span := tr.Start(ctx, "Respond",
		trace.WithAttributes(attribute.String("user.id", req.UserID)),
	)
	defer span.End()

	message := strings.TrimSpace(req.Message)
	if message == "" {
		return nil, ErrEmptyMessage
	}

	actx := assist.ActionContextFrom(req.Context)

	// Operator-curated answers win outright.
	if text, ok := s.Precomputed.Match(message); ok {
		return s.exit(ctx, span, req, start, &ChatResponse{
			Response: text,
			Source:   SourcePrecomputed,
			Actions:  assist.DeriveActions(message, actx, text),
		}, "")
	}

	// Built-in rules are generic fallbacks, consulted only after precomputed misses.
	if text, ok := s.Rules.Match(message); ok {
		return s.exit(ctx, span, req, start, &ChatResponse{
			Response: text,
			Source:   SourceRule,
			Actions:  assist.DeriveActions(message, actx, text),
		}, "")
	}

	// Cache lookup. The fingerprint is stable per (query, user).
	key := assist.Fingerprint(message, req.UserID)
	if hit, ok := s.Cache.Get(ctx, key); ok {
		resp := &ChatResponse{
			Response: hit.Text,
			Source:   SourceCache,
			Cached:   true,
			Actions:  assist.DeriveActions(message, actx, hit.Text),
		}
		if hit.Model != nil {
			resp.Model = *hit.Model
		}
		if hit.Tokens != nil {
			resp.Tokens = *hit.Tokens
		}
		return s.exit(ctx, span, req, start, resp, hit.Tier)
	}

	// Personalization is an enhancement; empty on any failure.
	system := baseSystemPrompt
	if s.Contexts != nil {
		if summary := s.Contexts.Assemble(ctx, req.UserID); summary != "" {
			system += "\n\nWhat we know about this customer:\n" + summary
		}
	}

	cls := assist.Classify(message)
	prompt := assist.OptimizePrompt(system, req.History, message, s.Limits)
	span.SetAttributes(
		attribute.String("assist.model", cls.Model),
		attribute.String("assist.complexity", cls.Complexity),
		attribute.Int("assist.token_estimate", prompt.TokenEstimate),
	)

	// The completion call is the only step whose failure reaches the caller.
	text, tokens, err := s.Completer.Complete(ctx, cls.Model, prompt)
	s.publishBreakerState()
	if err != nil {
		s.track(req, start, &ChatResponse{Source: sourceError}, "", err)
		span.RecordError(err)
		return nil, fmt.Errorf("%w: %w", ErrUpstreamUnavailable, err)
	}

	cost := float64(tokens) / 1000 * modelCostPer1K[cls.Model]

	// The durable tier is best-effort inside the cache store.
	ttl := s.DefaultTTL
	if cls.Complexity == assist.ComplexitySimple {
		ttl = s.SimpleTTL
	}
	model := cls.Model
	s.Cache.Put(ctx, key, message, text, &model, &tokens, ttl)

	// Usage metering and conversation persistence are best-effort; failures
	// are logged by bestEffort and never surface.
	if req.UserID != "" && s.Usage != nil {
		s.bestEffort("usage", func() error {
			return s.Usage.Add(ctx, req.UserID, tokens, cost)
		})
	}
	if req.UserID != "" && s.Convos != nil {
		s.bestEffort("conversation", func() error {
			return s.Convos.Append(ctx, req.UserID, []domain.ChatTurn{
				{Role: "user", Content: message},
				{Role: "assistant", Content: text},
			}, req.Context)
		})
	}

	return s.exit(ctx, span, req, start, &ChatResponse{
		Response: text,
		Source:   SourceAI,
		Model:    cls.Model,
		Tokens:   tokens,
		Cost:     cost,
		Actions:  assist.DeriveActions(message, actx, text),
	}, "")
}

// exit finalizes a successful pipeline exit: telemetry, span attributes,
// return.
func (s *AssistService) exit(_ context.Context, span trace.Span, req ChatRequest, start time.Time, resp *ChatResponse, tier string) (*ChatResponse, error) {
	span.SetAttributes(
		attribute.String("assist.source", resp.Source),
		attribute.Bool("assist.cached", resp.Cached),
	)
	s.track(req, start, resp, tier, nil)
	return resp, nil
}

// track reports the exit to the analytics sink. The sink itself guarantees
// it never throws or blocks; the nil check keeps sparsely-wired tests safe.
func (s *AssistService) track(req ChatRequest, start time.Time, resp *ChatResponse, tier string, err error) {
	if s.Tracker == nil {
		return
	}
	s.Tracker.Track(analytics.Event{
		Source:  resp.Source,
		Cached:  resp.Cached,
		Tier:    tier,
		Model:   resp.Model,
		Tokens:  resp.Tokens,
		Elapsed: time.Since(start),
		UserID:  req.UserID,
		Err:     err,
	})
}

// bestEffort runs an optional side effect and logs (only) its failure.
func (s *AssistService) bestEffort(name string, fn func() error) {
	if err := fn(); err != nil && !errors.Is(err, context.Canceled) {
		s.Log.Warn().Err(err).Str("side_effect", name).Msg("optional side effect failed; continuing")
	}
}

// publishBreakerState pushes the breaker gauge after each completion attempt.
func (s *AssistService) publishBreakerState() {
	if s.Tracker == nil || s.Breaker == nil {
		return
	}
	s.Tracker.SetBreakerState(int(s.Breaker.State()))
}
