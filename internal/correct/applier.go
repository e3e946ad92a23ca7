package correct

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/robzajac581/glowra-search-api-sub002/internal/match"
	"github.com/robzajac581/glowra-search-api-sub002/internal/store"
)

// State tracks a correction action through its lifecycle.
type State string

const (
	StatePending      State = "pending"
	StateReversalDone State = "reversal_done"
	StateCreated      State = "created"
	StateComplete     State = "complete"
	StateFailed       State = "failed"
)

// Action is one human-confirmed instruction to reverse a wrong match: the
// enrichment linkage keyed by (place id, wrong clinic id) is removed, and
// the source row is re-created as a new independent clinic.
type Action struct {
	Source        match.Source
	PlaceID       string
	WrongClinicID int64
}

// Result reports the final state of one action.
type Result struct {
	Action      Action
	State       State
	NewClinicID int64
	Err         error
}

// Store is the slice of the persistent store the applier needs. The
// concrete implementation is *store.Store; tests substitute a fake.
type Store interface {
	DeletePlaceLink(ctx context.Context, placeID string, clinicID int64) (int64, error)
	InsertClinic(ctx context.Context, c match.Clinic) error
	InsertPlaceDetails(ctx context.Context, clinicID int64, d store.PlaceDetails) error
	SaveCorrection(ctx context.Context, runUUID, placeID string, oldClinicID, newClinicID int64, state string) error
}

// Allocator reserves clinic identifiers. Reservation must be atomic across
// the batch; the shared store.IDAllocator satisfies this.
type Allocator interface {
	Next() int64
}

// Applier walks each action through pending -> reversal_done -> created ->
// complete. Failures are isolated per action: one failed correction never
// stops the rest of the batch.
type Applier struct {
	store Store
	alloc Allocator
	runID string
	log   *zap.Logger
}

// NewApplier creates an applier for one correction batch. runID ties every
// audit record of the batch together.
func NewApplier(s Store, alloc Allocator, runID string, log *zap.Logger) *Applier {
	if log == nil {
		log = zap.NewNop()
	}
	return &Applier{store: s, alloc: alloc, runID: runID, log: log}
}

// Apply processes the batch sequentially and returns one result per action,
// in input order.
func (a *Applier) Apply(ctx context.Context, actions []Action) []Result {
	results := make([]Result, 0, len(actions))
	for _, action := range actions {
		results = append(results, a.applyOne(ctx, action))
	}
	return results
}

func (a *Applier) applyOne(ctx context.Context, action Action) Result {
	res := Result{Action: action, State: StatePending}

	// Step 1: reverse the erroneous linkage. Zero rows deleted means a
	// prior partial run already removed it; that is a no-op, not an error,
	// and the state still advances.
	rows, err := a.store.DeletePlaceLink(ctx, action.PlaceID, action.WrongClinicID)
	if err != nil {
		res.State = StateFailed
		res.Err = fmt.Errorf("failed to reverse linkage for clinic %d: %w", action.WrongClinicID, err)
		a.log.Error("correction reversal failed",
			zap.Int64("wrongClinicId", action.WrongClinicID),
			zap.String("placeId", action.PlaceID),
			zap.Error(err))
		a.record(ctx, action, 0, res.State)
		return res
	}
	res.State = StateReversalDone
	if rows == 0 {
		a.log.Info("linkage already removed, continuing",
			zap.Int64("wrongClinicId", action.WrongClinicID),
			zap.String("placeId", action.PlaceID))
	}

	// Step 2: re-create the source as a new independent clinic under a
	// freshly reserved identifier.
	newID := a.alloc.Next()

	clinic := match.Clinic{
		ID:      newID,
		Name:    action.Source.Name,
		Address: action.Source.Address,
		Coord:   action.Source.Coord,
		PlaceID: action.Source.PlaceID,
		Phone:   action.Source.Phone,
		Website: action.Source.Website,
	}
	if err := a.store.InsertClinic(ctx, clinic); err != nil {
		res.State = StateFailed
		res.Err = fmt.Errorf("failed to create clinic %d: %w", newID, err)
		a.log.Error("correction create failed",
			zap.Int64("newClinicId", newID),
			zap.String("name", action.Source.Name),
			zap.Error(err))
		a.record(ctx, action, newID, res.State)
		return res
	}
	res.State = StateCreated
	res.NewClinicID = newID

	details := store.PlaceDetails{
		PlaceID: action.Source.PlaceID,
		Phone:   action.Source.Phone,
		Website: action.Source.Website,
	}
	if err := a.store.InsertPlaceDetails(ctx, newID, details); err != nil {
		// The clinic row is now the sole representation of this clinic, so
		// it must survive. The action stays in created and is flagged for
		// manual follow-up; it is not retried or rolled back here.
		res.Err = fmt.Errorf("clinic %d created but enrichment insert failed: %w", newID, err)
		a.log.Error("correction needs manual follow-up: enrichment insert failed",
			zap.Int64("newClinicId", newID),
			zap.String("placeId", action.Source.PlaceID),
			zap.Error(err))
		a.record(ctx, action, newID, res.State)
		return res
	}

	// Step 3: complete, with the old -> new binding on the audit trail.
	res.State = StateComplete
	a.log.Info("correction applied",
		zap.Int64("oldClinicId", action.WrongClinicID),
		zap.Int64("newClinicId", newID),
		zap.String("name", action.Source.Name))
	a.record(ctx, action, newID, res.State)

	return res
}

// record persists the audit row binding old and new identifiers. Audit
// failures are logged but never change the action's outcome.
func (a *Applier) record(ctx context.Context, action Action, newID int64, state State) {
	err := a.store.SaveCorrection(ctx, a.runID, action.PlaceID, action.WrongClinicID, newID, string(state))
	if err != nil {
		a.log.Warn("failed to record correction audit row",
			zap.Int64("oldClinicId", action.WrongClinicID),
			zap.Int64("newClinicId", newID),
			zap.Error(err))
	}
}
