// internal/adapters/google/client.go
package google

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"golang.org/x/time/rate"

	"flexreviews/internal/adapters/observability"
	"flexreviews/internal/domain"
)

const service = "google_places"

type Client struct {
	base string
	key  string
	hc   *http.Client
	rl   *rate.Limiter
}

func New(base, key string, rps int, timeout time.Duration) (*Client, error) {
	if key == "" {
		return nil, fmt.Errorf("API key is required")
	}
	if rps <= 0 {
		rps = 5
	}
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &Client{
		base: strings.TrimRight(base, "/"),
		key:  key,
		hc:   &http.Client{Timeout: timeout},
		rl:   rate.NewLimiter(rate.Limit(rps), rps),
	}, nil
}

type detailsResponse struct {
	Status       string `json:"status"`
	ErrorMessage string `json:"error_message"`
	Result       struct {
		Name             string                  `json:"name"`
		Rating           *float64                `json:"rating"`
		UserRatingsTotal int                     `json:"user_ratings_total"`
		Reviews          []domain.ExternalReview `json:"reviews"`
	} `json:"result"`
}

// GetPlace fetches rating and reviews for placeID.
func (c *Client) GetPlace(ctx context.Context, placeID string) (domain.PlaceSummary, error) {
	if err := c.rl.Wait(ctx); err != nil {
		return domain.PlaceSummary{}, err
	}

	q := url.Values{
		"place_id": {placeID},
		"fields":   {"name,rating,user_ratings_total,reviews"},
		"key":      {c.key},
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.base+"/details/json?"+q.Encode(), nil)
	if err != nil {
		return domain.PlaceSummary{}, err
	}
	req.Header.Set("Accept", "application/json")

	start := time.Now()
	resp, err := c.hc.Do(req)
	if err != nil {
		observability.ObserveExternal(service, "details", 0, time.Since(start))
		return domain.PlaceSummary{}, fmt.Errorf("%w: %v", domain.ErrUnavailable, err)
	}
	defer resp.Body.Close()
	observability.ObserveExternal(service, "details", resp.StatusCode, time.Since(start))

	if resp.StatusCode != http.StatusOK {
		b, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return domain.PlaceSummary{}, fmt.Errorf("%w: bad status %d: %s", domain.ErrUnavailable, resp.StatusCode, strings.TrimSpace(string(b)))
	}

	var dr detailsResponse
	if err := json.NewDecoder(resp.Body).Decode(&dr); err != nil {
		return domain.PlaceSummary{}, fmt.Errorf("decode details: %w", err)
	}
	switch dr.Status {
	case "OK":
	case "NOT_FOUND", "INVALID_REQUEST", "ZERO_RESULTS":
		return domain.PlaceSummary{}, fmt.Errorf("%w: place %s: %s", domain.ErrNotFound, placeID, dr.Status)
	default:
		return domain.PlaceSummary{}, fmt.Errorf("%w: %s %s", domain.ErrUnavailable, dr.Status, dr.ErrorMessage)
	}

	reviews := dr.Result.Reviews
	if reviews == nil {
		reviews = []domain.ExternalReview{}
	}
	return domain.PlaceSummary{Rating: dr.Result.Rating, Reviews: reviews}, nil
}
