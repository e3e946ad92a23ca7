package report

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/robzajac581/glowra-search-api-sub002/internal/match"
)

// ErrNoSourceRows means a run produced nothing to report. This is fatal for
// the run: without a report there is nothing for a reviewer to approve, so
// no correction step may follow.
var ErrNoSourceRows = errors.New("report: run has no source rows")

// Writer serializes reconciliation runs into timestamped review artifacts.
// Each run writes a new, independently named file, so repeated runs never
// clobber each other.
type Writer struct {
	outputDir string
	log       *zap.Logger

	now func() time.Time
}

// NewWriter creates a writer targeting outputDir.
func NewWriter(outputDir string, log *zap.Logger) *Writer {
	if log == nil {
		log = zap.NewNop()
	}
	return &Writer{outputDir: outputDir, log: log, now: time.Now}
}

// Build assembles the artifact for one run's decisions.
func Build(runID string, now time.Time, decisions []match.Decision) (*Artifact, error) {
	if len(decisions) == 0 {
		return nil, ErrNoSourceRows
	}

	a := &Artifact{
		Timestamp: now.UTC().Format(time.RFC3339),
		RunID:     runID,
		Matches:   []Match{},
		NoMatches: []NoMatch{},
	}

	for _, d := range decisions {
		if d.Matched {
			m := Match{
				SourceRecord:     d.SourceIndex,
				SourceName:       d.Source.Name,
				BestMatch:        candidateDetail(d.Best),
				AlternateMatches: []CandidateDetail{},
			}
			for _, alt := range d.Alternates {
				m.AlternateMatches = append(m.AlternateMatches, candidateDetail(alt))
			}
			a.Matches = append(a.Matches, m)
			continue
		}

		a.NoMatches = append(a.NoMatches, NoMatch{
			SourceRecord: d.SourceIndex,
			SourceName:   d.Source.Name,
			Address:      d.Source.Address,
			City:         d.City,
			State:        d.State,
		})
	}

	a.Summary = Summary{
		TotalUnmatched:  len(decisions),
		DuplicatesFound: len(a.Matches),
		NewClinics:      len(a.NoMatches),
	}

	return a, nil
}

// Write builds and persists the artifact for one run, returning the path of
// the new file.
func (w *Writer) Write(decisions []match.Decision) (string, error) {
	runID := uuid.NewString()
	now := w.now()

	artifact, err := Build(runID, now, decisions)
	if err != nil {
		return "", err
	}

	if err := os.MkdirAll(w.outputDir, 0755); err != nil {
		return "", fmt.Errorf("failed to create report directory: %w", err)
	}

	name := fmt.Sprintf("reconciliation-report-%s.json", now.UTC().Format("20060102-150405"))
	path := filepath.Join(w.outputDir, name)

	data, err := json.MarshalIndent(artifact, "", "  ")
	if err != nil {
		return "", fmt.Errorf("failed to marshal report: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return "", fmt.Errorf("failed to write report %s: %w", path, err)
	}

	w.log.Info("wrote reconciliation report",
		zap.String("path", path),
		zap.String("runId", runID),
		zap.Int("sources", artifact.Summary.TotalUnmatched),
		zap.Int("duplicates", artifact.Summary.DuplicatesFound),
		zap.Int("newClinics", artifact.Summary.NewClinics))

	return path, nil
}

// ReadCorrections loads a reviewer's correction input artifact.
func ReadCorrections(path string) (*CorrectionInput, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read correction input %s: %w", path, err)
	}

	var input CorrectionInput
	if err := json.Unmarshal(data, &input); err != nil {
		return nil, fmt.Errorf("failed to parse correction input %s: %w", path, err)
	}
	return &input, nil
}

func candidateDetail(c *match.Candidate) CandidateDetail {
	return CandidateDetail{
		TargetRecord: c.Target.ID,
		TargetName:   c.Target.Name,
		Confidence:   c.Confidence,
		NameScore:    c.NameScore,
		DistanceKm:   c.DistanceKm,
		Reasons:      c.Reasons,
	}
}
