package match

import (
	"sort"

	"go.uber.org/zap"

	"github.com/robzajac581/glowra-search-api-sub002/internal/config"
	"github.com/robzajac581/glowra-search-api-sub002/internal/geo"
	"github.com/robzajac581/glowra-search-api-sub002/internal/normalize"
	"github.com/robzajac581/glowra-search-api-sub002/internal/similarity"
)

// Classifier runs one reconciliation pass: every unresolved source row is
// scored against the full clinic set, admissible candidates are ranked, and
// each row is classified as a duplicate of an existing clinic or as a new
// clinic needing creation.
//
// The scan is exhaustive and sequential, O(sources x clinics). At the scale
// this system targets (low thousands on each side) that is deliberate:
// determinism of tie-breaks and auditability beat asymptotic cleverness.
type Classifier struct {
	agg        *Aggregator
	thresholds *config.Thresholds
	log        *zap.Logger
}

// NewClassifier creates a classifier. Nil thresholds or logger fall back to
// defaults / a no-op logger.
func NewClassifier(thresholds *config.Thresholds, log *zap.Logger) *Classifier {
	if thresholds == nil {
		thresholds = config.DefaultThresholds()
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &Classifier{
		agg:        NewAggregator(thresholds),
		thresholds: thresholds,
		log:        log,
	}
}

// Classify scores every source row against every clinic and returns one
// decision per unresolved row, in source order. Rows whose place identifier
// exactly matches an existing clinic are already reconciled; they are
// skipped and counted in the second return value.
func (cl *Classifier) Classify(sources []Source, clinics []Clinic) ([]Decision, int) {
	linked := make(map[string]bool, len(clinics))
	for i := range clinics {
		if clinics[i].PlaceID != "" {
			linked[clinics[i].PlaceID] = true
		}
	}

	decisions := make([]Decision, 0, len(sources))
	skipped := 0

	for i := range sources {
		src := &sources[i]

		if src.PlaceID != "" && linked[src.PlaceID] {
			skipped++
			cl.log.Debug("source already linked by place id",
				zap.Int("source", i),
				zap.String("name", src.Name),
				zap.String("placeId", src.PlaceID))
			continue
		}

		decision := cl.classifyOne(i, src, clinics)
		decisions = append(decisions, decision)
	}

	return decisions, skipped
}

// classifyOne scans the full ordered clinic set for one source row. Ties on
// confidence are broken by the earlier-scanned clinic, so results are
// deterministic given a fixed clinic ordering.
func (cl *Classifier) classifyOne(index int, src *Source, clinics []Clinic) Decision {
	srcCity, srcState := cl.sourceLocality(src)

	var admissible []*Candidate

	for j := range clinics {
		tgt := &clinics[j]

		cand := cl.buildCandidate(src, tgt, srcCity, srcState)
		cl.agg.Score(cand)

		if cl.agg.Admissible(cand) {
			admissible = append(admissible, cand)
		}
	}

	// Stable sort keeps scan order for equal confidence.
	sort.SliceStable(admissible, func(a, b int) bool {
		return admissible[a].Confidence > admissible[b].Confidence
	})

	decision := Decision{
		SourceIndex: index,
		Source:      src,
		City:        srcCity,
		State:       srcState,
	}

	if len(admissible) == 0 {
		cl.log.Debug("no admissible candidate, creation needed",
			zap.Int("source", index),
			zap.String("name", src.Name))
		return decision
	}

	decision.Matched = true
	decision.Best = admissible[0]

	rest := admissible[1:]
	if len(rest) > cl.thresholds.MaxAlternates {
		rest = rest[:cl.thresholds.MaxAlternates]
	}
	decision.Alternates = rest

	cl.log.Debug("matched",
		zap.Int("source", index),
		zap.String("name", src.Name),
		zap.Int64("clinic", decision.Best.Target.ID),
		zap.Int("confidence", decision.Best.Confidence),
		zap.Strings("reasons", decision.Best.Reasons))

	return decision
}

func (cl *Classifier) buildCandidate(src *Source, tgt *Clinic, srcCity, srcState string) *Candidate {
	cand := &Candidate{
		Source:    src,
		Target:    tgt,
		NameScore: similarity.BestScore(src.Name, tgt.Name),
	}

	if d, ok := geo.DistanceKm(src.Coord, tgt.Coord); ok {
		cand.DistanceKm = &d
	}

	tgtCity, tgtState := normalize.Location(tgt.Address)
	cand.SameCity = sameCity(srcCity, tgtCity)
	cand.SameState = sameState(srcState, tgtState)

	return cand
}

// sourceLocality resolves the city/state for a source row, preferring the
// explicit spreadsheet columns over the address heuristic.
func (cl *Classifier) sourceLocality(src *Source) (city, state string) {
	city, state = normalize.Location(src.Address)
	if src.City != "" {
		city = src.City
	}
	if src.State != "" {
		state = src.State
	}
	return city, state
}
