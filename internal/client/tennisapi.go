package client

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"tennisdata/ingestion/internal/ingest"
	"tennisdata/ingestion/internal/metrics"
	"tennisdata/ingestion/internal/models"

	"github.com/rs/zerolog/log"
)

// DefaultTimeout matches the upstream provider's recommended request budget.
const DefaultTimeout = 40 * time.Second

// Client is the api-tennis fixtures API client. All requests go to a single
// base URL with the method selected by query parameter.
type Client struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
}

// NewClient creates a fixtures API client. A zero timeout falls back to
// DefaultTimeout.
func NewClient(baseURL, apiKey string, timeout time.Duration) *Client {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &Client{
		baseURL: baseURL,
		apiKey:  apiKey,
		httpClient: &http.Client{
			Timeout: timeout,
			Transport: &http.Transport{
				MaxIdleConns:        100,
				MaxIdleConnsPerHost: 10,
				IdleConnTimeout:     90 * time.Second,
			},
		},
	}
}

// FetchFixtures issues one GET for a single calendar day and returns the
// parsed response envelope. Connection failures, timeouts and non-2xx
// statuses surface as *ingest.NetworkError. The envelope's success flag is
// not inspected here; that is the caller's concern.
func (c *Client) FetchFixtures(ctx context.Context, date time.Time, timezone string) (*models.Envelope, error) {
	day := date.Format(models.DateLayout)
	start := time.Now()

	body, err := c.get(ctx, map[string]string{
		"method":     "get_fixtures",
		"APIkey":     c.apiKey,
		"date_start": day,
		"date_stop":  day,
		"timezone":   timezone,
	})
	if err != nil {
		metrics.RecordAPICall("get_fixtures", "error", time.Since(start).Seconds())
		return nil, err
	}

	var env models.Envelope
	if err := json.Unmarshal(body, &env); err != nil {
		metrics.RecordAPICall("get_fixtures", "bad_body", time.Since(start).Seconds())
		return nil, &ingest.NetworkError{URL: c.baseURL, Err: fmt.Errorf("failed to unmarshal fixtures response: %w", err)}
	}

	metrics.RecordAPICall("get_fixtures", "success", time.Since(start).Seconds())
	log.Debug().
		Str("date", day).
		Str("timezone", timezone).
		Int("success", env.Success).
		Int("records", len(env.Result)).
		Msg("Fixtures fetched")

	return &env, nil
}

// get performs a GET request against the base URL with the given query
// parameters and returns the raw body of a 2xx response.
func (c *Client) get(ctx context.Context, params map[string]string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	q := url.Values{}
	for key, value := range params {
		q.Set(key, value)
	}
	req.URL.RawQuery = q.Encode()
	req.Header.Set("Accept", "application/json")

	log.Debug().
		Str("url", c.baseURL).
		Str("method", params["method"]).
		Msg("Making API request")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, &ingest.NetworkError{URL: c.baseURL, Err: err}
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &ingest.NetworkError{URL: c.baseURL, Err: fmt.Errorf("failed to read response body: %w", err)}
	}

	if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices {
		return nil, &ingest.NetworkError{
			URL: c.baseURL,
			Err: fmt.Errorf("API returned status %d: %s", resp.StatusCode, truncate(body, 512)),
		}
	}

	log.Debug().
		Int("status", resp.StatusCode).
		Int("size", len(body)).
		Msg("API request successful")

	return body, nil
}

func truncate(b []byte, n int) string {
	if len(b) <= n {
		return string(b)
	}
	return string(b[:n]) + "..."
}
