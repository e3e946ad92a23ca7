package correct

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/robzajac581/glowra-search-api-sub002/internal/match"
	"github.com/robzajac581/glowra-search-api-sub002/internal/store"
)

// fakeStore keeps linkage and clinic state in memory and can be told to
// fail specific operations.
type fakeStore struct {
	links   map[string]bool // "placeID/clinicID"
	clinics map[int64]match.Clinic
	details map[int64]store.PlaceDetails
	audits  []string

	failInsertClinic  bool
	failInsertDetails bool
	failDelete        bool
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		links:   make(map[string]bool),
		clinics: make(map[int64]match.Clinic),
		details: make(map[int64]store.PlaceDetails),
	}
}

func linkKey(placeID string, clinicID int64) string {
	return fmt.Sprintf("%s/%d", placeID, clinicID)
}

func (f *fakeStore) DeletePlaceLink(_ context.Context, placeID string, clinicID int64) (int64, error) {
	if f.failDelete {
		return 0, errors.New("store unavailable")
	}
	key := linkKey(placeID, clinicID)
	if !f.links[key] {
		return 0, nil
	}
	delete(f.links, key)
	return 1, nil
}

func (f *fakeStore) InsertClinic(_ context.Context, c match.Clinic) error {
	if f.failInsertClinic {
		return errors.New("insert rejected")
	}
	if _, exists := f.clinics[c.ID]; exists {
		return fmt.Errorf("duplicate clinic id %d", c.ID)
	}
	f.clinics[c.ID] = c
	return nil
}

func (f *fakeStore) InsertPlaceDetails(_ context.Context, clinicID int64, d store.PlaceDetails) error {
	if f.failInsertDetails {
		return errors.New("insert rejected")
	}
	f.details[clinicID] = d
	return nil
}

func (f *fakeStore) SaveCorrection(_ context.Context, runUUID, placeID string, oldID, newID int64, state string) error {
	f.audits = append(f.audits, fmt.Sprintf("%s:%d->%d:%s", runUUID, oldID, newID, state))
	return nil
}

func action(placeID string, wrongID int64, name string) Action {
	return Action{
		Source: match.Source{
			Name:    name,
			Address: "1 Main St, Miami, FL 33139",
			PlaceID: placeID,
			Phone:   "305-555-0100",
		},
		PlaceID:       placeID,
		WrongClinicID: wrongID,
	}
}

func TestApplyCreatesFreshIncreasingIDs(t *testing.T) {
	fs := newFakeStore()
	fs.links[linkKey("p1", 10)] = true
	fs.links[linkKey("p2", 11)] = true
	fs.links[linkKey("p3", 12)] = true

	applier := NewApplier(fs, store.NewIDAllocatorAt(100), "batch-1", nil)

	results := applier.Apply(context.Background(), []Action{
		action("p1", 10, "Clinic One"),
		action("p2", 11, "Clinic Two"),
		action("p3", 12, "Clinic Three"),
	})

	require.Len(t, results, 3)

	prev := int64(0)
	for _, r := range results {
		assert.Equal(t, StateComplete, r.State)
		assert.NoError(t, r.Err)
		assert.Greater(t, r.NewClinicID, prev, "ids must be strictly increasing")
		prev = r.NewClinicID
	}

	assert.Len(t, fs.clinics, 3)
	assert.Len(t, fs.details, 3)
	assert.Empty(t, fs.links, "all wrong linkages removed")
}

func TestApplyReversalIdempotent(t *testing.T) {
	fs := newFakeStore()
	fs.links[linkKey("p1", 10)] = true

	applier := NewApplier(fs, store.NewIDAllocatorAt(100), "batch-1", nil)
	act := action("p1", 10, "Clinic One")

	first := applier.Apply(context.Background(), []Action{act})
	require.Equal(t, StateComplete, first[0].State)

	// Re-running the same action finds the linkage already gone; the
	// deletion is a no-op and the action still completes.
	second := applier.Apply(context.Background(), []Action{act})
	assert.Equal(t, StateComplete, second[0].State)
	assert.Empty(t, fs.links)
}

func TestApplyDeleteFailureIsolated(t *testing.T) {
	fs := newFakeStore()
	fs.failDelete = true

	applier := NewApplier(fs, store.NewIDAllocatorAt(100), "batch-1", nil)
	results := applier.Apply(context.Background(), []Action{action("p1", 10, "Clinic One")})

	require.Len(t, results, 1)
	assert.Equal(t, StateFailed, results[0].State)
	assert.Error(t, results[0].Err)
	assert.Empty(t, fs.clinics, "no clinic created after failed reversal")
}

func TestApplyEnrichmentFailureLeavesCreated(t *testing.T) {
	fs := newFakeStore()
	fs.links[linkKey("p1", 10)] = true
	fs.failInsertDetails = true

	applier := NewApplier(fs, store.NewIDAllocatorAt(100), "batch-1", nil)
	results := applier.Apply(context.Background(), []Action{action("p1", 10, "Clinic One")})

	require.Len(t, results, 1)
	r := results[0]

	// The clinic row must survive: it is now the only representation of
	// this clinic. The action is flagged, not rolled back.
	assert.Equal(t, StateCreated, r.State)
	assert.Error(t, r.Err)
	assert.Contains(t, fs.clinics, r.NewClinicID)
	assert.NotContains(t, fs.details, r.NewClinicID)
}

func TestApplyBatchContinuesPastFailure(t *testing.T) {
	fs := newFakeStore()
	fs.links[linkKey("p2", 11)] = true

	// Fail only the first clinic insert.
	calls := 0
	wrapped := &flakyStore{fakeStore: fs, failFirst: &calls}

	applier := NewApplier(wrapped, store.NewIDAllocatorAt(100), "batch-1", nil)
	results := applier.Apply(context.Background(), []Action{
		action("p1", 10, "Clinic One"),
		action("p2", 11, "Clinic Two"),
	})

	require.Len(t, results, 2)
	assert.Equal(t, StateFailed, results[0].State)
	assert.Equal(t, StateComplete, results[1].State)
	// The failed action's reserved id is burned, never reused.
	assert.Greater(t, results[1].NewClinicID, int64(100))
}

// flakyStore fails the first InsertClinic call and then behaves normally.
type flakyStore struct {
	*fakeStore
	failFirst *int
}

func (f *flakyStore) InsertClinic(ctx context.Context, c match.Clinic) error {
	*f.failFirst++
	if *f.failFirst == 1 {
		return errors.New("insert rejected")
	}
	return f.fakeStore.InsertClinic(ctx, c)
}

func TestApplyAuditBindsOldToNew(t *testing.T) {
	fs := newFakeStore()
	fs.links[linkKey("p1", 10)] = true

	applier := NewApplier(fs, store.NewIDAllocatorAt(200), "batch-7", nil)
	results := applier.Apply(context.Background(), []Action{action("p1", 10, "Clinic One")})

	require.Len(t, fs.audits, 1)
	assert.Equal(t, fmt.Sprintf("batch-7:10->%d:complete", results[0].NewClinicID), fs.audits[0])
}
