package config

// Thresholds centralizes every tunable constant used by the reconciliation
// engine. Keeping them in one struct means threshold tuning is auditable and
// each knob can be tested in isolation instead of chasing literals through
// the scoring code.
type Thresholds struct {
	// Name similarity tiers (0-100 scores).
	NameStrong  int // >= this: strong name match
	NameSimilar int // >= this: similar name
	NamePartial int // >= this: partial name overlap

	// Points awarded per tier. Only the single highest qualifying tier on
	// each axis contributes.
	NameStrongPoints  int
	NameSimilarPoints int
	NamePartialPoints int

	// Distance tiers in kilometres.
	SameLocationKm float64 // < this: effectively the same site
	NearbyKm       float64 // <= this: close enough to matter

	SameLocationPoints int
	NearbyPoints       int

	SameStatePoints int
	SameCityPoints  int

	// Admission gate: a candidate is kept for ranking when its confidence
	// reaches AdmitFloor, or when its name score reaches NameStateEscape
	// and source and target share a state. A strong name inside the same
	// state is meaningful even when addresses are noisy or coordinates
	// are missing.
	AdmitFloor      int
	NameStateEscape int

	// MaxAlternates caps how many runner-up candidates are kept on a
	// matched decision for the reviewer to see disagreement.
	MaxAlternates int
}

// DefaultThresholds returns the production threshold configuration.
func DefaultThresholds() *Thresholds {
	return &Thresholds{
		NameStrong:  90,
		NameSimilar: 75,
		NamePartial: 60,

		NameStrongPoints:  50,
		NameSimilarPoints: 30,
		NamePartialPoints: 15,

		SameLocationKm: 0.5,
		NearbyKm:       5.0,

		SameLocationPoints: 40,
		NearbyPoints:       20,

		SameStatePoints: 10,
		SameCityPoints:  10,

		AdmitFloor:      40,
		NameStateEscape: 70,

		MaxAlternates: 2,
	}
}
