package engine

import (
	"crypto/sha256"
	"fmt"
	"log/slog"
	"sort"

	"github.com/mailsift/mailsift/internal/common"
	"github.com/mailsift/mailsift/internal/model"
)

// DigestBuilder assembles an immutable digest from recorded outcomes.
// Building is deterministic: the same outcomes and window always yield an
// identical digest, including its ID and GeneratedAt stamp.
type DigestBuilder struct {
	order    []model.Category
	position map[model.Category]int
}

// NewDigestBuilder validates the category ordering and returns a builder.
// A duplicate or missing category in the order is a fatal configuration
// error.
func NewDigestBuilder(order []model.Category) (*DigestBuilder, error) {
	if len(order) == 0 {
		return nil, fmt.Errorf("%w: empty category order", common.ErrInvalidConfig)
	}
	position := make(map[model.Category]int, len(order))
	for i, cat := range order {
		if _, dup := position[cat]; dup {
			return nil, fmt.Errorf("%w: category %q appears twice in digest order", common.ErrInvalidConfig, cat)
		}
		position[cat] = i
	}
	if _, ok := position[model.CategoryUnclassified]; !ok {
		return nil, fmt.Errorf("%w: digest order must include the Unclassified bucket", common.ErrInvalidConfig)
	}
	return &DigestBuilder{order: order, position: position}, nil
}

// Build groups outcomes by category in the fixed order. Within a category
// items sort by ReceivedAt descending, with insertion order as the stable
// tie-break. Every outcome lands somewhere: failed classifications and
// categories no longer in the configured order go to Unclassified. An
// empty window produces a valid zero-count digest.
func (b *DigestBuilder) Build(outcomes []model.EmailOutcome, window model.Window) *model.Digest {
	groups := make(map[model.Category][]model.DigestItem)

	for _, outcome := range outcomes {
		category := model.CategoryUnclassified
		if outcome.Classification != nil {
			category = outcome.Classification.Category
			if _, known := b.position[category]; !known {
				slog.Debug("Outcome references category absent from digest order",
					"email_id", outcome.Email.ID,
					"category", category)
				category = model.CategoryUnclassified
			}
		}
		groups[category] = append(groups[category], model.DigestItem{
			Email:          outcome.Email,
			Classification: outcome.Classification,
			Drafts:         outcome.Drafts,
		})
	}

	digest := &model.Digest{
		ID:          digestID(window),
		GeneratedAt: window.End,
		Window:      window,
		Counts:      make(map[model.Category]int),
	}

	for _, category := range b.order {
		items := groups[category]
		if len(items) == 0 {
			continue
		}
		sort.SliceStable(items, func(i, j int) bool {
			return items[i].Email.ReceivedAt.After(items[j].Email.ReceivedAt)
		})
		digest.Entries = append(digest.Entries, model.DigestEntry{
			Category: category,
			Items:    items,
		})
		digest.Counts[category] = len(items)
		digest.Total += len(items)
	}

	return digest
}

// digestID derives a stable identifier from the window so rebuilding the
// same window yields the same digest.
func digestID(window model.Window) string {
	sum := sha256.Sum256([]byte(window.Start.UTC().Format("2006-01-02T15:04:05.000000000") + "|" + window.End.UTC().Format("2006-01-02T15:04:05.000000000")))
	return fmt.Sprintf("%x", sum[:6])
}
