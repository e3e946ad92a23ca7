package places

import (
	"context"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/robzajac581/glowra-search-api-sub002/internal/config"
	"github.com/robzajac581/glowra-search-api-sub002/internal/match"
)

// Enricher fills missing coordinates on source rows from the places
// provider. Requests run in fixed-size concurrent batches with a mandatory
// delay between batches to respect upstream rate limits. Failures are
// isolated per request: a row whose lookup fails simply keeps an unknown
// coordinate and its distance signal stays non-contributing.
type Enricher struct {
	client      *Client
	concurrency int
	batchDelay  time.Duration
	log         *zap.Logger
}

// NewEnricher builds an enricher; concurrency and delay come from the
// PLACES_* environment when not overridden.
func NewEnricher(client *Client, log *zap.Logger) *Enricher {
	if log == nil {
		log = zap.NewNop()
	}
	return &Enricher{
		client:      client,
		concurrency: config.GetEnvInt("PLACES_CONCURRENCY", 5),
		batchDelay:  config.GetEnvDuration("PLACES_BATCH_DELAY", time.Second),
		log:         log,
	}
}

// NewEnricherWith builds an enricher with explicit batching settings.
func NewEnricherWith(client *Client, concurrency int, batchDelay time.Duration, log *zap.Logger) *Enricher {
	if log == nil {
		log = zap.NewNop()
	}
	if concurrency < 1 {
		concurrency = 1
	}
	return &Enricher{client: client, concurrency: concurrency, batchDelay: batchDelay, log: log}
}

// Enrich resolves coordinates for every source row that has a place
// identifier but no coordinate, mutating the slice in place. It returns the
// number of rows enriched. The only error it returns is context
// cancellation; individual lookup failures are logged and skipped.
func (e *Enricher) Enrich(ctx context.Context, sources []match.Source) (int, error) {
	var pending []int
	for i := range sources {
		if sources[i].PlaceID != "" && sources[i].Coord == nil {
			pending = append(pending, i)
		}
	}
	if len(pending) == 0 {
		return 0, nil
	}

	e.log.Info("enriching source coordinates",
		zap.Int("pending", len(pending)),
		zap.Int("concurrency", e.concurrency))

	enriched := 0
	for start := 0; start < len(pending); start += e.concurrency {
		if err := ctx.Err(); err != nil {
			return enriched, err
		}
		if start > 0 {
			select {
			case <-time.After(e.batchDelay):
			case <-ctx.Done():
				return enriched, ctx.Err()
			}
		}

		end := start + e.concurrency
		if end > len(pending) {
			end = len(pending)
		}

		enriched += e.runBatch(ctx, sources, pending[start:end])
	}

	e.log.Info("enrichment complete",
		zap.Int("enriched", enriched),
		zap.Int("pending", len(pending)))
	return enriched, nil
}

// runBatch dispatches one batch concurrently. Goroutines always return nil
// so a failing request never cancels its siblings.
func (e *Enricher) runBatch(ctx context.Context, sources []match.Source, batch []int) int {
	results := make([]*Place, len(batch))

	g := new(errgroup.Group)
	for bi, si := range batch {
		bi, si := bi, si
		g.Go(func() error {
			place, err := e.client.FetchPlace(ctx, sources[si].PlaceID)
			if err != nil {
				if IsPermanent(err) {
					e.log.Warn("place lookup failed permanently, skipping row",
						zap.String("placeId", sources[si].PlaceID),
						zap.Error(err))
				} else {
					e.log.Warn("place lookup failed after retries, skipping row",
						zap.String("placeId", sources[si].PlaceID),
						zap.Error(err))
				}
				return nil
			}
			results[bi] = place
			return nil
		})
	}
	g.Wait()

	enriched := 0
	for bi, si := range batch {
		place := results[bi]
		if place == nil {
			continue
		}
		if coord := place.Coord(); coord != nil {
			sources[si].Coord = coord
			enriched++
		}
		if sources[si].Phone == "" {
			sources[si].Phone = place.Phone
		}
		if sources[si].Website == "" {
			sources[si].Website = place.Website
		}
	}
	return enriched
}
