package places

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"go.uber.org/zap"

	"github.com/robzajac581/glowra-search-api-sub002/internal/config"
	"github.com/robzajac581/glowra-search-api-sub002/internal/geo"
)

// Place is the provider's view of one business location.
type Place struct {
	PlaceID     string   `json:"placeId"`
	Name        string   `json:"name"`
	Address     string   `json:"formattedAddress"`
	Latitude    *float64 `json:"latitude"`
	Longitude   *float64 `json:"longitude"`
	Phone       string   `json:"phone"`
	Website     string   `json:"website"`
	Rating      float64  `json:"rating"`
	ReviewCount int      `json:"reviewCount"`
}

// Coord returns the place's coordinates, or nil when the provider did not
// supply both components.
func (p *Place) Coord() *geo.Point {
	if p.Latitude == nil || p.Longitude == nil {
		return nil
	}
	return &geo.Point{Lat: *p.Latitude, Lng: *p.Longitude}
}

// TransientError marks a failure worth retrying: timeouts, connection
// resets, throttling, upstream 5xx.
type TransientError struct {
	Status int
	Op     string
	Err    error
}

func (e *TransientError) Error() string {
	if e.Status != 0 {
		return fmt.Sprintf("%s: transient upstream status %d", e.Op, e.Status)
	}
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

func (e *TransientError) Unwrap() error { return e.Err }

// PermanentError marks a failure that retrying cannot fix: not found,
// invalid request, access denied.
type PermanentError struct {
	Status int
	Op     string
}

func (e *PermanentError) Error() string {
	return fmt.Sprintf("%s: permanent upstream status %d", e.Op, e.Status)
}

// IsPermanent reports whether err is a non-retryable provider failure.
func IsPermanent(err error) bool {
	var pe *PermanentError
	return errors.As(err, &pe)
}

// Client talks to the external places provider. Its contract is narrow:
// fetch one place by identifier, or search places by free text.
type Client struct {
	baseURL     string
	apiKey      string
	httpClient  *http.Client
	maxAttempts int
	backoffBase time.Duration
	log         *zap.Logger
}

// NewClient builds a client from the PLACES_* environment variables.
func NewClient(log *zap.Logger) *Client {
	if log == nil {
		log = zap.NewNop()
	}
	return &Client{
		baseURL: config.GetEnv("PLACES_BASE_URL", "https://places.googleapis.com/v1"),
		apiKey:  config.GetEnv("PLACES_API_KEY", ""),
		httpClient: &http.Client{
			Timeout: config.GetEnvDuration("PLACES_TIMEOUT", 10*time.Second),
		},
		maxAttempts: config.GetEnvInt("PLACES_MAX_ATTEMPTS", 3),
		backoffBase: config.GetEnvDuration("PLACES_BACKOFF_BASE", 500*time.Millisecond),
		log:         log,
	}
}

// NewClientWith builds a client with explicit settings. Used by tests and
// by callers that already resolved configuration.
func NewClientWith(baseURL, apiKey string, maxAttempts int, backoffBase time.Duration, log *zap.Logger) *Client {
	if log == nil {
		log = zap.NewNop()
	}
	return &Client{
		baseURL:     baseURL,
		apiKey:      apiKey,
		httpClient:  &http.Client{Timeout: 10 * time.Second},
		maxAttempts: maxAttempts,
		backoffBase: backoffBase,
		log:         log,
	}
}

// FetchPlace resolves a single place by its provider identifier.
func (c *Client) FetchPlace(ctx context.Context, placeID string) (*Place, error) {
	var place Place
	endpoint := fmt.Sprintf("%s/places/%s", c.baseURL, url.PathEscape(placeID))
	if err := c.getJSON(ctx, "fetch place", endpoint, &place); err != nil {
		return nil, err
	}
	return &place, nil
}

// SearchText finds places matching a free-text query.
func (c *Client) SearchText(ctx context.Context, query string) ([]Place, error) {
	var out struct {
		Places []Place `json:"places"`
	}
	endpoint := fmt.Sprintf("%s/places:search?query=%s", c.baseURL, url.QueryEscape(query))
	if err := c.getJSON(ctx, "search places", endpoint, &out); err != nil {
		return nil, err
	}
	return out.Places, nil
}

// getJSON performs a GET with retry on transient failures. Permanent
// failures propagate immediately; transient ones back off exponentially up
// to the attempt cap.
func (c *Client) getJSON(ctx context.Context, op, endpoint string, out interface{}) error {
	var lastErr error

	for attempt := 0; attempt < c.maxAttempts; attempt++ {
		if attempt > 0 {
			delay := c.backoffBase << (attempt - 1)
			c.log.Debug("retrying provider request",
				zap.String("op", op),
				zap.Int("attempt", attempt+1),
				zap.Duration("delay", delay))
			select {
			case <-time.After(delay):
			case <-ctx.Done():
				return ctx.Err()
			}
		}

		err := c.getJSONOnce(ctx, op, endpoint, out)
		if err == nil {
			return nil
		}
		if IsPermanent(err) || errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			return err
		}
		lastErr = err
	}

	return fmt.Errorf("%s: giving up after %d attempts: %w", op, c.maxAttempts, lastErr)
}

func (c *Client) getJSONOnce(ctx context.Context, op, endpoint string, out interface{}) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return fmt.Errorf("%s: failed to build request: %w", op, err)
	}
	if c.apiKey != "" {
		req.Header.Set("X-Goog-Api-Key", c.apiKey)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return &TransientError{Op: op, Err: err}
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusOK:
		// Fall through to decode.
	case resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= 500:
		io.Copy(io.Discard, resp.Body)
		return &TransientError{Status: resp.StatusCode, Op: op}
	default:
		io.Copy(io.Discard, resp.Body)
		return &PermanentError{Status: resp.StatusCode, Op: op}
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return &TransientError{Op: op, Err: fmt.Errorf("failed to decode response: %w", err)}
	}
	return nil
}
