package assist

import (
	"strings"
	"unicode/utf8"
)

// Completion-tier model identifiers requested from the provider.
const (
	ModelFast     = "gpt-4o-mini"
	ModelStandard = "gpt-4o"
)

// Complexity tags produced by Classify. ComplexitySimple drives the longer
// cache TTL.
const (
	ComplexitySimple  = "simple"
	ComplexityComplex = "complex"
)

// Classification is the outcome of Classify: which model tier to request and
// how complex the query looks.
type Classification struct {
	Model      string
	Complexity string
}

// simpleMarkers are phrasings that almost always resolve to a short factual
// answer; they push the query to the fast tier.
var simpleMarkers = []string{
	"hello", "hi ", "hey", "thanks", "thank you",
	"what is", "what's", "where is", "where's",
	"when", "how much", "price of", "status",
}

// complexMarkers are phrasings that need reasoning or multi-item output;
// they push the query to the standard tier.
var complexMarkers = []string{
	"compare", " vs ", "versus", "difference between",
	"recommend", "suggest", "best ", "which should",
	"why", "how do i", "how to", "explain", "plan",
}

// Classify maps a message to a completion tier and a complexity tag using a
// deterministic keyword/length heuristic. Short messages without complex
// markers are "simple"; anything long, multi-question, or carrying a complex
// marker is "complex".
func Classify(message string) Classification {
	lower := strings.ToLower(strings.TrimSpace(message))
	length := utf8.RuneCountInString(lower)

	for _, m := range complexMarkers {
		if strings.Contains(lower, m) {
			return Classification{Model: ModelStandard, Complexity: ComplexityComplex}
		}
	}
	if length > 160 || strings.Count(lower, "?") > 1 {
		return Classification{Model: ModelStandard, Complexity: ComplexityComplex}
	}

	if length <= 60 {
		return Classification{Model: ModelFast, Complexity: ComplexitySimple}
	}
	for _, m := range simpleMarkers {
		if strings.Contains(lower, m) {
			return Classification{Model: ModelFast, Complexity: ComplexitySimple}
		}
	}

	return Classification{Model: ModelStandard, Complexity: ComplexityComplex}
}
