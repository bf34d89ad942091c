// internal/adapters/hostaway/client.go
package hostaway

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"
	"golang.org/x/time/rate"

	"flexreviews/internal/adapters/observability"
	"flexreviews/internal/domain"
)

const service = "hostaway"

// tokens are refreshed this long before the upstream expiry
const tokenSkew = time.Minute

type Client struct {
	base      string
	accountID string
	apiKey    string
	scope     string
	hc        *http.Client
	rl        *rate.Limiter
	timeout   time.Duration

	sf     singleflight.Group
	mu     sync.Mutex
	token  string
	expiry time.Time
	now    func() time.Time
}

func New(base, accountID, apiKey, scope string, rps int, timeout time.Duration) (*Client, error) {
	if accountID == "" || apiKey == "" {
		return nil, fmt.Errorf("hostaway account id and api key are required")
	}
	if rps <= 0 {
		rps = 5
	}
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	if scope == "" {
		scope = "general"
	}
	return &Client{
		base:      strings.TrimRight(base, "/"),
		accountID: accountID,
		apiKey:    apiKey,
		scope:     scope,
		hc:        &http.Client{Timeout: timeout},
		timeout:   timeout,
		rl:        rate.NewLimiter(rate.Limit(rps), rps),
		now:       time.Now,
	}, nil
}

type tokenResponse struct {
	TokenType   string `json:"token_type"`
	ExpiresIn   int64  `json:"expires_in"`
	AccessToken string `json:"access_token"`
}

type reviewsResponse struct {
	Status string                    `json:"status"`
	Result []domain.RawChannelReview `json:"result"`
}

// FetchReviews makes a single attempt; callers fall back on any error.
func (c *Client) FetchReviews(ctx context.Context) ([]domain.RawChannelReview, error) {
	tok, err := c.accessToken(ctx)
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.base+"/reviews", nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Authorization", "Bearer "+tok)
	req.Header.Set("Cache-control", "no-cache")

	var out reviewsResponse
	if err := c.do(req, "reviews", &out); err != nil {
		if errors.Is(err, domain.ErrUnauthorized) {
			c.dropToken()
		}
		return nil, err
	}
	if out.Status != "" && out.Status != "success" {
		return nil, fmt.Errorf("%w: reviews status %q", domain.ErrUnavailable, out.Status)
	}
	return out.Result, nil
}

// accessToken returns the cached token or runs one client-credentials exchange
// shared by all concurrent callers. The exchange outlives any single caller's
// cancellation; each caller stops waiting when its own ctx is done.
func (c *Client) accessToken(ctx context.Context) (string, error) {
	c.mu.Lock()
	if c.token != "" && c.now().Before(c.expiry) {
		tok := c.token
		c.mu.Unlock()
		return tok, nil
	}
	c.mu.Unlock()

	ch := c.sf.DoChan("token", func() (any, error) {
		xctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), c.timeout)
		defer cancel()
		return c.exchange(xctx)
	})
	select {
	case <-ctx.Done():
		return "", ctx.Err()
	case res := <-ch:
		if res.Err != nil {
			return "", res.Err
		}
		return res.Val.(string), nil
	}
}

func (c *Client) exchange(ctx context.Context) (string, error) {
	form := url.Values{
		"grant_type":    {"client_credentials"},
		"client_id":     {c.accountID},
		"client_secret": {c.apiKey},
		"scope":         {c.scope},
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.base+"/accessTokens", strings.NewReader(form.Encode()))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	var tr tokenResponse
	if err := c.do(req, "accessTokens", &tr); err != nil {
		return "", fmt.Errorf("access token: %w", err)
	}
	if tr.AccessToken == "" {
		return "", fmt.Errorf("access token: %w: empty token", domain.ErrUnauthorized)
	}

	c.mu.Lock()
	c.token = tr.AccessToken
	c.expiry = c.now().Add(time.Duration(tr.ExpiresIn)*time.Second - tokenSkew)
	c.mu.Unlock()
	return tr.AccessToken, nil
}

func (c *Client) dropToken() {
	c.mu.Lock()
	c.token = ""
	c.expiry = time.Time{}
	c.mu.Unlock()
}

// do sends req once, maps the status and decodes a JSON body into out.
func (c *Client) do(req *http.Request, endpoint string, out any) error {
	if err := c.rl.Wait(req.Context()); err != nil {
		return err
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", "flexreviews/1.0")

	start := time.Now()
	resp, err := c.hc.Do(req)
	if err != nil {
		observability.ObserveExternal(service, endpoint, 0, time.Since(start))
		return fmt.Errorf("%w: %v", domain.ErrUnavailable, err)
	}
	defer resp.Body.Close()
	observability.ObserveExternal(service, endpoint, resp.StatusCode, time.Since(start))

	switch {
	case resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden:
		return fmt.Errorf("%w: status %d", domain.ErrUnauthorized, resp.StatusCode)
	case resp.StatusCode == http.StatusNotFound:
		return domain.ErrNotFound
	case resp.StatusCode < 200 || resp.StatusCode > 299:
		// read a small error body for diagnostics
		b, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return fmt.Errorf("%w: bad status %d: %s", domain.ErrUnavailable, resp.StatusCode, strings.TrimSpace(string(b)))
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode %s: %w", endpoint, err)
	}
	return nil
}
