package messaging

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"github.com/rs/zerolog/log"
	"golang.org/x/time/rate"

	"github.com/telewarm/warmup-engine-go/internal/config"
)

// Client is the surface of the messaging backend consumed by the warmup
// executor. Every call returns either a success payload or an error; callers
// treat errors as per-step failures, never as a plan-level abort.
type Client interface {
	JoinChannel(ctx context.Context, sessionID, channel string) error
	SendMessage(ctx context.Context, sessionID, peer, text string) error
	SendReaction(ctx context.Context, sessionID, channel string) error
	Dialogs(ctx context.Context, sessionID string) ([]Dialog, error)
	History(ctx context.Context, sessionID, peer string, limit int) ([]Message, error)
	ResolvePeer(ctx context.Context, sessionID, username string) (*Peer, error)
	UpdateProfile(ctx context.Context, sessionID, bio string) error
	SyncContacts(ctx context.Context, sessionID string) error
	UpdatePrivacy(ctx context.Context, sessionID string) error
	CreateGroup(ctx context.Context, sessionID, name string) error
	ForwardMessage(ctx context.Context, sessionID, fromChat, toChat string) error
}

type Dialog struct {
	PeerID   string `json:"peer_id"`
	Title    string `json:"title"`
	Unread   int    `json:"unread"`
	IsUser   bool   `json:"is_user"`
	Username string `json:"username,omitempty"`
}

type Message struct {
	ID     int64  `json:"id"`
	PeerID string `json:"peer_id"`
	Text   string `json:"text"`
	Out    bool   `json:"out"`
}

type Peer struct {
	ID       string `json:"id"`
	Username string `json:"username"`
	Kind     string `json:"kind"` // user, channel, group
}

// HTTPClient talks to the messaging bridge over HTTP. A client-side rate
// limiter keeps the fleet's aggregate call rate under the bridge's ceiling.
type HTTPClient struct {
	baseURL string
	token   string
	client  *http.Client
	limiter *rate.Limiter
}

func NewHTTPClient(baseURL, token string, rps float64, burst int) *HTTPClient {
	return &HTTPClient{
		baseURL: baseURL,
		token:   token,
		client:  &http.Client{Timeout: config.BackendTimeout},
		limiter: rate.NewLimiter(rate.Limit(rps), burst),
	}
}

func (c *HTTPClient) JoinChannel(ctx context.Context, sessionID, channel string) error {
	return c.post(ctx, "/sessions/"+sessionID+"/join", map[string]any{
		"channel": channel,
	}, nil)
}

func (c *HTTPClient) SendMessage(ctx context.Context, sessionID, peer, text string) error {
	return c.post(ctx, "/sessions/"+sessionID+"/messages", map[string]any{
		"peer": peer,
		"text": text,
	}, nil)
}

func (c *HTTPClient) SendReaction(ctx context.Context, sessionID, channel string) error {
	return c.post(ctx, "/sessions/"+sessionID+"/reactions", map[string]any{
		"channel": channel,
	}, nil)
}

func (c *HTTPClient) Dialogs(ctx context.Context, sessionID string) ([]Dialog, error) {
	var out struct {
		Dialogs []Dialog `json:"dialogs"`
	}
	if err := c.get(ctx, "/sessions/"+sessionID+"/dialogs", &out); err != nil {
		return nil, err
	}
	return out.Dialogs, nil
}

func (c *HTTPClient) History(ctx context.Context, sessionID, peer string, limit int) ([]Message, error) {
	var out struct {
		Messages []Message `json:"messages"`
	}
	path := fmt.Sprintf("/sessions/%s/history?peer=%s&limit=%d", sessionID, peer, limit)
	if err := c.get(ctx, path, &out); err != nil {
		return nil, err
	}
	return out.Messages, nil
}

func (c *HTTPClient) ResolvePeer(ctx context.Context, sessionID, username string) (*Peer, error) {
	var out Peer
	path := fmt.Sprintf("/sessions/%s/resolve?username=%s", sessionID, username)
	if err := c.get(ctx, path, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *HTTPClient) UpdateProfile(ctx context.Context, sessionID, bio string) error {
	return c.post(ctx, "/sessions/"+sessionID+"/profile", map[string]any{
		"bio": bio,
	}, nil)
}

func (c *HTTPClient) SyncContacts(ctx context.Context, sessionID string) error {
	return c.post(ctx, "/sessions/"+sessionID+"/contacts/sync", map[string]any{}, nil)
}

func (c *HTTPClient) UpdatePrivacy(ctx context.Context, sessionID string) error {
	return c.post(ctx, "/sessions/"+sessionID+"/privacy", map[string]any{}, nil)
}

func (c *HTTPClient) CreateGroup(ctx context.Context, sessionID, name string) error {
	return c.post(ctx, "/sessions/"+sessionID+"/groups", map[string]any{
		"name": name,
	}, nil)
}

func (c *HTTPClient) ForwardMessage(ctx context.Context, sessionID, fromChat, toChat string) error {
	return c.post(ctx, "/sessions/"+sessionID+"/forward", map[string]any{
		"from_chat": fromChat,
		"to_chat":   toChat,
	}, nil)
}

func (c *HTTPClient) post(ctx context.Context, path string, payload any, out any) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshal payload: %w", err)
	}
	return c.do(ctx, http.MethodPost, path, bytes.NewReader(body), out)
}

func (c *HTTPClient) get(ctx context.Context, path string, out any) error {
	return c.do(ctx, http.MethodGet, path, nil, out)
}

func (c *HTTPClient) do(ctx context.Context, method, path string, body io.Reader, out any) error {
	if err := c.limiter.Wait(ctx); err != nil {
		return fmt.Errorf("rate limiter: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return fmt.Errorf("backend request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		log.Debug().
			Str("method", method).
			Str("path", path).
			Int("status", resp.StatusCode).
			Msg("backend call rejected")
		return fmt.Errorf("backend returned status %d", resp.StatusCode)
	}

	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode backend response: %w", err)
	}
	return nil
}
