package sor

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"

	"github.com/telewarm/warmup-engine-go/internal/config"
)

// Client reads authoritative account status from the external system of
// record. All list calls return the complete remote set; pagination is an
// implementation detail hidden behind the interface.
type Client interface {
	FrozenSessions(ctx context.Context) ([]string, error)
	DeletedSessions(ctx context.Context) ([]string, error)
	PermanentlyBannedSessions(ctx context.Context) ([]string, error)
	HelperSessions(ctx context.Context) ([]string, error)
}

type HTTPClient struct {
	baseURL  string
	token    string
	client   *http.Client
	pageSize int
}

func NewHTTPClient(baseURL, token string) *HTTPClient {
	return &HTTPClient{
		baseURL:  baseURL,
		token:    token,
		client:   &http.Client{Timeout: config.RegistryTimeout},
		pageSize: config.ReconcilePageSize,
	}
}

func (c *HTTPClient) FrozenSessions(ctx context.Context) ([]string, error) {
	return c.listSessions(ctx, url.Values{"status": {"frozen"}})
}

func (c *HTTPClient) DeletedSessions(ctx context.Context) ([]string, error) {
	return c.listSessions(ctx, url.Values{"status": {"deleted"}})
}

func (c *HTTPClient) PermanentlyBannedSessions(ctx context.Context) ([]string, error) {
	return c.listSessions(ctx, url.Values{
		"spamblock":  {"true"},
		"unban_date": {"null"},
	})
}

func (c *HTTPClient) HelperSessions(ctx context.Context) ([]string, error) {
	return c.listSessions(ctx, url.Values{"role": {"helper"}})
}

// listSessions walks every page of a filtered session query and returns the
// full id set. A failure on any page fails the whole fetch; callers rely on
// that to keep sub-syncs all-or-nothing.
func (c *HTTPClient) listSessions(ctx context.Context, filter url.Values) ([]string, error) {
	var all []string

	for page := 0; ; page++ {
		q := url.Values{}
		for k, vs := range filter {
			q[k] = vs
		}
		q.Set("limit", strconv.Itoa(c.pageSize))
		q.Set("offset", strconv.Itoa(page*c.pageSize))

		ids, err := c.fetchPage(ctx, q)
		if err != nil {
			return nil, err
		}

		all = append(all, ids...)
		if len(ids) < c.pageSize {
			return all, nil
		}
	}
}

func (c *HTTPClient) fetchPage(ctx context.Context, q url.Values) ([]string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/sessions?"+q.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("registry request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("registry returned status %d", resp.StatusCode)
	}

	var out struct {
		SessionIDs []string `json:"session_ids"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, fmt.Errorf("decode registry response: %w", err)
	}

	return out.SessionIDs, nil
}
