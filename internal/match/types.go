package match

import (
	"github.com/robzajac581/glowra-search-api-sub002/internal/geo"
)

// Source is one externally supplied clinic row awaiting reconciliation.
// Immutable once loaded for a run.
type Source struct {
	Name    string
	Address string

	// Optional components from the spreadsheet export. When present they
	// take precedence over heuristic extraction from Address.
	Street string
	City   string
	State  string
	Postal string

	PlaceID string
	Coord   *geo.Point

	Phone        string
	Website      string
	ProfileLinks []string
}

// Clinic is one canonical clinic record in the persistent store. Read-only
// during matching; only the correction path mutates the store.
type Clinic struct {
	ID      int64
	Name    string
	Address string
	Coord   *geo.Point
	PlaceID string
	Phone   string
	Website string
}

// Candidate pairs a source row with one clinic and carries the scoring
// signals plus the derived confidence and reason trail. Candidates are
// ephemeral; they exist only within one classification pass.
type Candidate struct {
	Source *Source
	Target *Clinic

	NameScore  int
	DistanceKm *float64
	SameCity   bool
	SameState  bool

	Confidence int
	Reasons    []string
}

// Decision is the outcome for one source row: either a best candidate with
// up to two admissible alternates, or unmatched, which flags the row as a
// creation candidate (no clinic exists for it yet).
type Decision struct {
	SourceIndex int
	Source      *Source

	Matched    bool
	Best       *Candidate
	Alternates []*Candidate

	// City/State extracted for the source row, carried so unmatched rows
	// can be reported with their locality.
	City  string
	State string
}
