package assist

import (
	"strings"
	"sync"

	"github.com/mktware/go-assist-backend/internal/domain"
)

// PrecomputedMatcher answers messages from an operator-curated,
// priority-ordered pattern list. Matching is case-insensitive substring
// containment; the first hit in stored order wins. The pattern set is
// swapped wholesale by a background refresher, so reads take a shared lock.
type PrecomputedMatcher struct {
	mu       sync.RWMutex
	patterns []domain.PrecomputedResponse
}

// NewPrecomputedMatcher constructs a matcher over the given entries, which
// must already be filtered to active rows and ordered priority-descending
// (repo.ListActivePrecomputed does both).
func NewPrecomputedMatcher(patterns []domain.PrecomputedResponse) *PrecomputedMatcher {
	return &PrecomputedMatcher{patterns: patterns}
}

// SetPatterns replaces the pattern set. Called by the startup warm-load and
// the periodic refresher.
func (m *PrecomputedMatcher) SetPatterns(patterns []domain.PrecomputedResponse) {
	m.mu.Lock()
	m.patterns = patterns
	m.mu.Unlock()
}

// Len returns the current pattern count.
func (m *PrecomputedMatcher) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.patterns)
}

// Match returns the response of the first active pattern contained in
// message, or ("", false). Pure with respect to the message; no side effects.
func (m *PrecomputedMatcher) Match(message string) (string, bool) {
	lower := strings.ToLower(message)

	m.mu.RLock()
	defer m.mu.RUnlock()
	for _, p := range m.patterns {
		if !p.Active || p.Pattern == "" {
			continue
		}
		if strings.Contains(lower, strings.ToLower(p.Pattern)) {
			return p.Response, true
		}
	}
	return "", false
}

// rule is one generic keyword-triggered canned answer.
type rule struct {
	keywords []string
	response string
}

// RuleMatcher is the generic fallback responder consulted only after the
// precomputed matcher misses. Rules are built in and ordered; the first rule
// with any keyword contained in the message wins.
type RuleMatcher struct {
	rules []rule
}

// NewRuleMatcher constructs the built-in rule set.
func NewRuleMatcher() *RuleMatcher {
	return &RuleMatcher{rules: []rule{
		{
			keywords: []string{"shipping", "delivery time", "how long to arrive"},
			response: "Standard shipping takes 3-5 business days. Express options are shown at checkout, and you can follow every parcel from your orders page.",
		},
		{
			keywords: []string{"return", "refund"},
			response: "You can return most items within 30 days of delivery. Start a return from your orders page and we'll email you a prepaid label.",
		},
		{
			keywords: []string{"payment", "pay with", "credit card"},
			response: "We accept major credit cards, PayPal, and bank transfer. Payment details are only ever entered on the secure checkout page.",
		},
		{
			keywords: []string{"opening hours", "open on", "business hours"},
			response: "Vendor opening hours vary; each vendor page lists theirs. Marketplace support is available every day from 8:00 to 22:00.",
		},
		{
			keywords: []string{"contact", "support", "help me with my account"},
			response: "You can reach marketplace support through the contact form or by replying here; a human picks up anything I can't resolve.",
		},
	}}
}

// Match returns the first rule whose keyword appears in message
// (case-insensitive), or ("", false). Pure; no side effects.
func (m *RuleMatcher) Match(message string) (string, bool) {
	lower := strings.ToLower(message)
	for _, r := range m.rules {
		for _, kw := range r.keywords {
			if strings.Contains(lower, kw) {
				return r.response, true
			}
		}
	}
	return "", false
}
