package assist

import (
	"unicode/utf8"

	"github.com/mktware/go-assist-backend/internal/domain"
)

// PromptLimits bounds the optimized prompt.
type PromptLimits struct {
	MaxHistory         int // conversation turns kept (most recent)
	MaxSystemPromptLen int // system prompt cap, in runes
	MaxMessageLen      int // user message cap, in runes
}

// OptimizedPrompt is the bounded prompt handed to the completion invoker.
// Messages always ends with the (possibly truncated) current user message;
// history ordering is preserved.
type OptimizedPrompt struct {
	System        string
	Messages      []domain.ChatTurn
	TokenEstimate int
}

// OptimizePrompt truncates history to the last MaxHistory turns, rune-clips
// the system prompt and current message, and estimates the token footprint.
//
// The estimate is chars/4 rounded up: a cheap proxy, monotonic in input
// size, used consistently for both cost and usage accounting.
func OptimizePrompt(system string, history []domain.ChatTurn, message string, limits PromptLimits) OptimizedPrompt {
	if limits.MaxHistory > 0 && len(history) > limits.MaxHistory {
		history = history[len(history)-limits.MaxHistory:]
	}
	system = clipRunes(system, limits.MaxSystemPromptLen)
	message = clipRunes(message, limits.MaxMessageLen)

	msgs := make([]domain.ChatTurn, 0, len(history)+1)
	msgs = append(msgs, history...)
	msgs = append(msgs, domain.ChatTurn{Role: "user", Content: message})

	chars := utf8.RuneCountInString(system)
	for _, m := range msgs {
		chars += utf8.RuneCountInString(m.Content)
	}

	return OptimizedPrompt{
		System:        system,
		Messages:      msgs,
		TokenEstimate: (chars + 3) / 4,
	}
}

// clipRunes truncates s to max runes; max <= 0 means no cap.
func clipRunes(s string, max int) string {
	if max <= 0 || utf8.RuneCountInString(s) <= max {
		return s
	}
	return string([]rune(s)[:max])
}
