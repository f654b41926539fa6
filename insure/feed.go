package insure

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"golang.org/x/time/rate"
)

// FeedSource returns the raw activity-feed payload for the operator account.
// A nil FeedSource on the engine means no credential is configured.
type FeedSource interface {
	FetchEvents(ctx context.Context) (json.RawMessage, error)
}

// TornFeed fetches the events selection from the Torn API. Requests are
// bounded by the client timeout and paced by a per-minute rate limiter so
// repeated scheduler ticks stay inside the API's request budget.
type TornFeed struct {
	baseURL string
	apiKey  string
	client  *http.Client
	limiter *rate.Limiter
}

func NewTornFeed(baseURL, apiKey string, timeout time.Duration, perMinute int) *TornFeed {
	if baseURL == "" {
		baseURL = "https://api.torn.com"
	}
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	if perMinute <= 0 {
		perMinute = 60
	}
	return &TornFeed{
		baseURL: baseURL,
		apiKey:  apiKey,
		client:  &http.Client{Timeout: timeout},
		limiter: rate.NewLimiter(rate.Limit(float64(perMinute))/60.0, 1),
	}
}

type apiEnvelope struct {
	Error  *apiError       `json:"error"`
	Events json.RawMessage `json:"events"`
}

type apiError struct {
	Code    int    `json:"code"`
	Message string `json:"error"`
}

func (f *TornFeed) FetchEvents(ctx context.Context) (json.RawMessage, error) {
	if err := f.limiter.Wait(ctx); err != nil {
		return nil, err
	}
	endpoint := fmt.Sprintf("%s/user/?selections=events&key=%s", f.baseURL, url.QueryEscape(f.apiKey))
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, err
	}
	resp, err := f.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("feed fetch: http %d", resp.StatusCode)
	}
	var env apiEnvelope
	if err := json.NewDecoder(resp.Body).Decode(&env); err != nil {
		return nil, fmt.Errorf("feed decode: %w", err)
	}
	if env.Error != nil {
		return nil, fmt.Errorf("feed api error %d: %s", env.Error.Code, env.Error.Message)
	}
	return env.Events, nil
}
