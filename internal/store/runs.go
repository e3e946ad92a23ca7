package store

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/robzajac581/glowra-search-api-sub002/internal/match"
)

// The run tables are the typed system of record for reconciliation output.
// The JSON report artifact remains the reviewer-facing export, but the
// matching run and the correction run are decoupled through these tables
// rather than through a loosely-shaped file.

// CreateRun opens a new reconciliation run row and returns its identifier.
func (s *Store) CreateRun(ctx context.Context, runUUID, label string) (int64, error) {
	var runID int64
	err := s.DB.QueryRowContext(ctx, `
		INSERT INTO recon_run (run_uuid, run_label)
		VALUES ($1, $2)
		RETURNING run_id
	`, runUUID, label).Scan(&runID)
	if err != nil {
		return 0, fmt.Errorf("failed to create recon run: %w", err)
	}
	return runID, nil
}

// SaveDecisions persists every decision of a run in one transaction: the
// best candidate at rank 1, alternates at ranks 2+, and unmatched rows with
// a null clinic. A failure on one row aborts only the transaction for this
// run; the caller decides whether to re-run.
func (s *Store) SaveDecisions(ctx context.Context, runID int64, decisions []match.Decision) error {
	tx, err := s.DB.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO recon_decision (run_id, source_index, source_name, matched,
			clinic_id, tie_rank, confidence, name_score, distance_km, reasons)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
	`)
	if err != nil {
		return fmt.Errorf("failed to prepare decision insert: %w", err)
	}
	defer stmt.Close()

	saved := 0
	for _, d := range decisions {
		if !d.Matched {
			_, err = stmt.ExecContext(ctx, runID, d.SourceIndex, d.Source.Name,
				false, nil, nil, nil, nil, nil, nil)
			if err != nil {
				return fmt.Errorf("failed to save unmatched decision %d: %w", d.SourceIndex, err)
			}
			saved++
			continue
		}

		candidates := append([]*match.Candidate{d.Best}, d.Alternates...)
		for rank, c := range candidates {
			_, err = stmt.ExecContext(ctx, runID, d.SourceIndex, d.Source.Name,
				true, c.Target.ID, rank+1, c.Confidence, c.NameScore,
				c.DistanceKm, reasonsText(c.Reasons))
			if err != nil {
				return fmt.Errorf("failed to save decision %d rank %d: %w", d.SourceIndex, rank+1, err)
			}
			saved++
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit decisions: %w", err)
	}

	s.log.Info("saved run decisions",
		zap.Int64("runId", runID),
		zap.Int("rows", saved))
	return nil
}

// SaveCorrection records one applied correction, binding the wrongly
// assigned clinic id to the newly created one for after-the-fact tracing.
func (s *Store) SaveCorrection(ctx context.Context, runUUID string, placeID string, oldClinicID, newClinicID int64, state string) error {
	_, err := s.DB.ExecContext(ctx, `
		INSERT INTO recon_correction (run_uuid, place_id, old_clinic_id, new_clinic_id, state)
		VALUES ($1, $2, $3, $4, $5)
	`, runUUID, placeID, oldClinicID, newClinicID, state)
	if err != nil {
		return fmt.Errorf("failed to save correction %d -> %d: %w", oldClinicID, newClinicID, err)
	}
	return nil
}

func reasonsText(reasons []string) string {
	return strings.Join(reasons, "; ")
}
