package assist

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/rs/zerolog"

	"github.com/mktware/go-assist-backend/internal/domain"
)

// ErrUnavailable is returned when the completion provider cannot be called
// (breaker open) or an attempted call failed. The orchestrator converts it
// into the single user-facing error response.
var ErrUnavailable = errors.New("completion service unavailable")

// Fixed sampling parameters for provider calls.
const (
	completionTemperature = 0.7
	completionMaxTokens   = 500
)

// mockResponses is the deterministic fallback used when no provider
// credential is configured. Selection is keyed off the message fingerprint,
// so the same question always receives the same filler sentence. The
// sentences deliberately avoid the action-trigger vocabulary.
var mockResponses = []string{
	"I'm here to help with anything on the marketplace. Could you tell me a little more about what you need?",
	"Happy to help with that. Can you share a few more details so I can point you in the right direction?",
	"Thanks for asking! I can walk you through it. What would you like to know first?",
	"Good question. Let me know a bit more about what you're after and I'll take it from there.",
}

// Invoker calls the external text-completion provider through the circuit
// breaker. When no API key is configured it serves deterministic mock
// responses instead (local/dev mode), never an error.
type Invoker struct {
	apiKey  string
	baseURL string
	breaker *Breaker
	client  *http.Client
	timeout time.Duration
	log     zerolog.Logger
}

// NewInvoker constructs an Invoker. An empty apiKey selects mock mode.
// timeout bounds each provider call; values <= 0 fall back to 30s.
func NewInvoker(apiKey, baseURL string, timeout time.Duration, breaker *Breaker, log zerolog.Logger) *Invoker {
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &Invoker{
		apiKey:  apiKey,
		baseURL: baseURL,
		breaker: breaker,
		client:  &http.Client{Timeout: timeout},
		timeout: timeout,
		log:     log,
	}
}

// MockMode reports whether the invoker answers from the fixed filler set.
func (iv *Invoker) MockMode() bool { return iv.apiKey == "" }

// chat-completions wire types (provider contract).
type completionRequest struct {
	Model       string            `json:"model"`
	Messages    []domain.ChatTurn `json:"messages"`
	Temperature float64           `json:"temperature"`
	MaxTokens   int               `json:"max_tokens"`
}

type completionResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
	Usage struct {
		TotalTokens int `json:"total_tokens"`
	} `json:"usage"`
}

// Complete resolves the optimized prompt to a response text and token count.
//
// Order matters: the breaker gate comes first (open breaker fails fast with
// ErrUnavailable and no network I/O), then the mock fallback, then the real
// call. Call outcomes, including timeouts, are reported to the breaker.
func (iv *Invoker) Complete(ctx context.Context, model string, prompt OptimizedPrompt) (string, int, error) {
	if iv.breaker != nil && !iv.breaker.Allow() {
		return "", 0, fmt.Errorf("circuit breaker open: %w", ErrUnavailable)
	}

	if iv.MockMode() {
		// No credential configured; answer deterministically and keep the
		// breaker untouched (no real attempt was made).
		last := ""
		for i := len(prompt.Messages) - 1; i >= 0; i-- {
			if prompt.Messages[i].Role == "user" {
				last = prompt.Messages[i].Content
				break
			}
		}
		idx := mockIndex(last, len(mockResponses))
		return mockResponses[idx], prompt.TokenEstimate, nil
	}

	text, tokens, err := iv.call(ctx, model, prompt)
	if err != nil {
		if iv.breaker != nil {
			iv.breaker.RecordFailure()
		}
		iv.log.Warn().Err(err).Str("model", model).Msg("completion call failed")
		return "", 0, fmt.Errorf("completion call: %w", errors.Join(err, ErrUnavailable))
	}
	if iv.breaker != nil {
		iv.breaker.RecordSuccess()
	}
	return text, tokens, nil
}

// call issues one provider HTTP request within the configured timeout.
func (iv *Invoker) call(ctx context.Context, model string, prompt OptimizedPrompt) (string, int, error) {
	msgs := make([]domain.ChatTurn, 0, len(prompt.Messages)+1)
	if prompt.System != "" {
		msgs = append(msgs, domain.ChatTurn{Role: "system", Content: prompt.System})
	}
	msgs = append(msgs, prompt.Messages...)

	body, err := json.Marshal(completionRequest{
		Model:       model,
		Messages:    msgs,
		Temperature: completionTemperature,
		MaxTokens:   completionMaxTokens,
	})
	if err != nil {
		return "", 0, err
	}

	ctx, cancel := context.WithTimeout(ctx, iv.timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, iv.baseURL+"/chat/completions", bytes.NewReader(body))
	if err != nil {
		return "", 0, err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+iv.apiKey)

	resp, err := iv.client.Do(req)
	if err != nil {
		return "", 0, err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		// Drain a bounded slice of the body for the log line only.
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return "", 0, fmt.Errorf("provider status %d: %s", resp.StatusCode, snippet)
	}

	var out completionResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return "", 0, fmt.Errorf("decode provider response: %w", err)
	}
	if len(out.Choices) == 0 || out.Choices[0].Message.Content == "" {
		return "", 0, errors.New("provider response missing content")
	}

	tokens := out.Usage.TotalTokens
	if tokens == 0 {
		tokens = prompt.TokenEstimate
	}
	return out.Choices[0].Message.Content, tokens, nil
}

// mockIndex maps text to a stable index in [0, n).
func mockIndex(text string, n int) int {
	if n <= 0 {
		return 0
	}
	var h uint32
	for _, r := range text {
		h = h*31 + uint32(r)
	}
	return int(h % uint32(n))
}
