package match

import (
	"fmt"
	"strings"

	"github.com/robzajac581/glowra-search-api-sub002/internal/config"
)

// Aggregator combines the four scoring signals of a candidate into a single
// confidence score with a human-readable reason trail. Confidence is fully
// determined by the signals: same inputs, same score, no hidden state.
type Aggregator struct {
	thresholds *config.Thresholds
}

// NewAggregator creates an aggregator. A nil thresholds falls back to the
// defaults.
func NewAggregator(thresholds *config.Thresholds) *Aggregator {
	if thresholds == nil {
		thresholds = config.DefaultThresholds()
	}
	return &Aggregator{thresholds: thresholds}
}

// Score fills in Confidence and Reasons from the candidate's NameScore,
// DistanceKm, SameCity and SameState signals. On each axis only the single
// highest qualifying tier contributes; an unknown distance contributes
// nothing, it is never treated as near or far.
func (a *Aggregator) Score(c *Candidate) {
	t := a.thresholds

	confidence := 0
	var reasons []string

	switch {
	case c.NameScore >= t.NameStrong:
		confidence += t.NameStrongPoints
		reasons = append(reasons, fmt.Sprintf("Name match: %d%%", c.NameScore))
	case c.NameScore >= t.NameSimilar:
		confidence += t.NameSimilarPoints
		reasons = append(reasons, fmt.Sprintf("Name similar: %d%%", c.NameScore))
	case c.NameScore >= t.NamePartial:
		confidence += t.NamePartialPoints
		reasons = append(reasons, fmt.Sprintf("Name partial: %d%%", c.NameScore))
	}

	if c.DistanceKm != nil {
		switch {
		case *c.DistanceKm < t.SameLocationKm:
			confidence += t.SameLocationPoints
			reasons = append(reasons, fmt.Sprintf("Same location: %.1fkm", *c.DistanceKm))
		case *c.DistanceKm <= t.NearbyKm:
			// The nearby band runs from the same-location cutoff up to
			// and including NearbyKm.
			confidence += t.NearbyPoints
			reasons = append(reasons, fmt.Sprintf("Nearby: %.1fkm", *c.DistanceKm))
		}
	}

	if c.SameState {
		confidence += t.SameStatePoints
		reasons = append(reasons, "Same state")
	}
	if c.SameCity {
		confidence += t.SameCityPoints
		reasons = append(reasons, "Same city")
	}

	c.Confidence = confidence
	c.Reasons = reasons
}

// Admissible reports whether a scored candidate clears the admission gate:
// confidence at or above the floor, or a strong name score combined with a
// shared state. The second clause keeps strong in-state name matches alive
// when addresses are noisy or coordinates are missing.
func (a *Aggregator) Admissible(c *Candidate) bool {
	if c.Confidence >= a.thresholds.AdmitFloor {
		return true
	}
	return c.NameScore >= a.thresholds.NameStateEscape && c.SameState
}

// sameCity reports whether two extracted city values refer to the same
// place: non-empty and one contains the other after normalization, which
// tolerates prefixes like "North Miami" vs "Miami".
func sameCity(a, b string) bool {
	ca := strings.ToLower(strings.TrimSpace(a))
	cb := strings.ToLower(strings.TrimSpace(b))
	if ca == "" || cb == "" {
		return false
	}
	return strings.Contains(ca, cb) || strings.Contains(cb, ca)
}

// sameState reports whether two state codes match, ignoring case.
func sameState(a, b string) bool {
	sa := strings.ToUpper(strings.TrimSpace(a))
	sb := strings.ToUpper(strings.TrimSpace(b))
	if sa == "" || sb == "" {
		return false
	}
	return sa == sb
}
