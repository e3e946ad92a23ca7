package report

// The artifact structs are the single place where internal records are
// translated to the camelCase wire shape reviewers consume. Nothing outside
// this package should marshal matching results.

// Artifact is one run's durable review document.
type Artifact struct {
	Timestamp string    `json:"timestamp"`
	RunID     string    `json:"runId"`
	Summary   Summary   `json:"summary"`
	Matches   []Match   `json:"matches"`
	NoMatches []NoMatch `json:"noMatches"`
}

// Summary carries the overall counts for a run.
type Summary struct {
	TotalUnmatched  int `json:"totalUnmatched"`
	DuplicatesFound int `json:"duplicatesFound"`
	NewClinics      int `json:"newClinics"`
}

// Match is the full trace for one matched source row.
type Match struct {
	SourceRecord     int               `json:"sourceRecord"`
	SourceName       string            `json:"sourceName"`
	BestMatch        CandidateDetail   `json:"bestMatch"`
	AlternateMatches []CandidateDetail `json:"alternateMatches"`
}

// CandidateDetail is one scored source/clinic pairing.
type CandidateDetail struct {
	TargetRecord int64    `json:"targetRecord"`
	TargetName   string   `json:"targetName"`
	Confidence   int      `json:"confidence"`
	NameScore    int      `json:"nameScore"`
	DistanceKm   *float64 `json:"distanceKm"`
	Reasons      []string `json:"reasons"`
}

// NoMatch is one source row with no admissible candidate: a creation
// candidate awaiting a new clinic record.
type NoMatch struct {
	SourceRecord int    `json:"sourceRecord"`
	SourceName   string `json:"sourceName"`
	Address      string `json:"address"`
	City         string `json:"city"`
	State        string `json:"state"`
}

// CorrectionInput is the reviewer-produced artifact listing matches that
// were confirmed wrong and must be reversed.
type CorrectionInput struct {
	DefinitelyWrong []WrongMatch `json:"definitelyWrong"`
}

// WrongMatch identifies one confirmed-wrong pairing.
type WrongMatch struct {
	SourceRecord    int      `json:"sourceRecord"`
	SourceName      string   `json:"sourceName"`
	WrongTargetID   int64    `json:"wrongTargetId"`
	WrongTargetName string   `json:"wrongTargetName"`
	DistanceKm      *float64 `json:"distanceKm"`
}
