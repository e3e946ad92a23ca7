package places

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/robzajac581/glowra-search-api-sub002/internal/geo"
	"github.com/robzajac581/glowra-search-api-sub002/internal/match"
)

func testClient(baseURL string) *Client {
	return NewClientWith(baseURL, "test-key", 3, time.Millisecond, nil)
}

func TestFetchPlaceRetriesTransient(t *testing.T) {
	attempts := 0
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		attempts++
		if attempts < 3 {
			w.WriteHeader(http.StatusBadGateway)
			return
		}
		w.Write([]byte(`{"placeId": "p1", "name": "Glow Clinic", "latitude": 25.76, "longitude": -80.19}`))
	}))
	defer srv.Close()

	place, err := testClient(srv.URL).FetchPlace(context.Background(), "p1")
	require.NoError(t, err)
	assert.Equal(t, 3, attempts)
	assert.Equal(t, "Glow Clinic", place.Name)
	require.NotNil(t, place.Coord())
	assert.InDelta(t, 25.76, place.Coord().Lat, 0.001)
}

func TestFetchPlaceGivesUpAfterCap(t *testing.T) {
	attempts := 0
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		attempts++
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	_, err := testClient(srv.URL).FetchPlace(context.Background(), "p1")
	require.Error(t, err)
	assert.Equal(t, 3, attempts, "transient failures retried up to the cap")
	assert.False(t, IsPermanent(err))
}

func TestFetchPlacePermanentNotRetried(t *testing.T) {
	attempts := 0
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		attempts++
		w.WriteHeader(http.StatusNotFound)
	}))
	defer srv.Close()

	_, err := testClient(srv.URL).FetchPlace(context.Background(), "missing")
	require.Error(t, err)
	assert.Equal(t, 1, attempts, "permanent failures must not be retried")
	assert.True(t, IsPermanent(err))
}

func TestSearchText(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Contains(t, r.URL.RawQuery, "query=")
		w.Write([]byte(`{"places": [{"placeId": "p1", "name": "Glow Clinic"}, {"placeId": "p2", "name": "Glow Spa"}]}`))
	}))
	defer srv.Close()

	places, err := testClient(srv.URL).SearchText(context.Background(), "glow clinic miami")
	require.NoError(t, err)
	require.Len(t, places, 2)
	assert.Equal(t, "p2", places[1].PlaceID)
}

func TestEnrichFillsMissingCoordinates(t *testing.T) {
	var mu sync.Mutex
	served := map[string]bool{}

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := r.URL.Path[strings.LastIndex(r.URL.Path, "/")+1:]
		mu.Lock()
		served[id] = true
		mu.Unlock()

		if id == "p-broken" {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		w.Write([]byte(`{"placeId": "` + id + `", "latitude": 25.76, "longitude": -80.19, "phone": "305-555-0100"}`))
	}))
	defer srv.Close()

	sources := []match.Source{
		{Name: "A", PlaceID: "p1"},
		{Name: "B", PlaceID: "p-broken"},
		{Name: "C", PlaceID: "p3"},
		{Name: "D"}, // no place id, skipped
		{Name: "E", PlaceID: "p5", Coord: &geo.Point{Lat: 1, Lng: 2}}, // already has coordinates
	}

	enricher := NewEnricherWith(testClient(srv.URL), 2, time.Millisecond, nil)
	enriched, err := enricher.Enrich(context.Background(), sources)
	require.NoError(t, err)

	// One failing lookup must not stop its siblings.
	assert.Equal(t, 2, enriched)
	assert.NotNil(t, sources[0].Coord)
	assert.Nil(t, sources[1].Coord)
	assert.NotNil(t, sources[2].Coord)
	assert.Equal(t, "305-555-0100", sources[0].Phone)

	mu.Lock()
	defer mu.Unlock()
	assert.False(t, served["p5"], "rows with coordinates are not re-fetched")
}
