package assist

import (
	"context"
	"strings"

	"github.com/rs/zerolog"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/mktware/go-assist-backend/internal/domain"
)

const (
	// recentInteractionLimit caps how many history rows feed the summary.
	recentInteractionLimit = 20
	// maxCategoryInterests caps the deduplicated category interest list.
	maxCategoryInterests = 5
)

// InteractionReader supplies a user's recent marketplace events.
// repo.ListRecentInteractions satisfies it via a shim at wiring time.
type InteractionReader interface {
	Recent(ctx context.Context, userID string, limit int) ([]domain.UserInteraction, error)
}

// ContextAssembler turns a user's recent interactions into a bounded,
// human-readable summary used to personalize the system prompt.
//
// Personalization is an enhancement, never a requirement: absence of data or
// a fetch failure yields an empty summary, not an error.
type ContextAssembler struct {
	reader InteractionReader
	log    zerolog.Logger
	caser  cases.Caser
}

// NewContextAssembler constructs an assembler over the given reader.
func NewContextAssembler(reader InteractionReader, log zerolog.Logger) *ContextAssembler {
	return &ContextAssembler{
		reader: reader,
		log:    log,
		caser:  cases.Title(language.English),
	}
}

// Assemble fetches the user's most recent interactions and buckets them into
// searches, product views, cart additions, and deduplicated category
// interests. Empty userID, no data, or a fetch failure all yield "".
func (a *ContextAssembler) Assemble(ctx context.Context, userID string) string {
	if a == nil || a.reader == nil || userID == "" {
		return ""
	}

	rows, err := a.reader.Recent(ctx, userID, recentInteractionLimit)
	if err != nil {
		a.log.Debug().Err(err).Str("user_id", userID).Msg("interaction fetch failed; skipping personalization")
		return ""
	}
	if len(rows) == 0 {
		return ""
	}

	var searches, views, cartAdds []string
	interests := make([]string, 0, maxCategoryInterests)
	seen := make(map[string]struct{})

	for _, r := range rows {
		switch r.InteractionType {
		case domain.InteractionSearch:
			if r.ItemName != "" {
				searches = append(searches, r.ItemName)
			}
		case domain.InteractionView:
			if r.ItemName != "" {
				views = append(views, r.ItemName)
			}
		case domain.InteractionAddToCart:
			if r.ItemName != "" {
				cartAdds = append(cartAdds, r.ItemName)
			}
		}

		cat := strings.ToLower(strings.TrimSpace(r.Category))
		if cat == "" {
			continue
		}
		if _, dup := seen[cat]; dup || len(interests) >= maxCategoryInterests {
			continue
		}
		seen[cat] = struct{}{}
		interests = append(interests, a.caser.String(cat))
	}

	var b strings.Builder
	writeLine := func(label string, items []string) {
		if len(items) == 0 {
			return
		}
		b.WriteString(label)
		b.WriteString(strings.Join(items, ", "))
		b.WriteString("\n")
	}
	writeLine("Recent searches: ", searches)
	writeLine("Recently viewed: ", views)
	writeLine("Recently added to cart: ", cartAdds)
	writeLine("Category interests: ", interests)

	return strings.TrimRight(b.String(), "\n")
}
