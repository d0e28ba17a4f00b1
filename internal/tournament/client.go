package tournament

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/padmiss/cabd/internal/config"
	"github.com/padmiss/cabd/internal/records"
)

// Client talks to the remote padmiss tournament service. It holds the
// session token set by Authenticate as client-instance state: one
// logical session per Client, and concurrent calls against the same
// instance are not supported. Callers must serialize or use one Client
// per session.
type Client struct {
	url           string
	key           string
	broadcastAddr string
	http          *http.Client
	logger        *slog.Logger

	session *session
}

// session is the state returned by a successful authentication
type session struct {
	Token string `json:"token"`
}

// apiResponse is the envelope every non-query endpoint answers with
type apiResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
	Token   string `json:"token"`
}

// New creates a client from the daemon configuration
func New(cfg *config.Config, logger *slog.Logger) *Client {
	return &Client{
		url:           strings.TrimRight(cfg.API.URL, "/"),
		key:           cfg.API.Key,
		broadcastAddr: cfg.Webserver.Addr(),
		http:          &http.Client{Timeout: cfg.API.Timeout},
		logger:        logger,
	}
}

// NewWithURL creates a client from a bare service URL. Such a client
// has no API key, so Broadcast and PostScore are only useful on clients
// built from a full configuration.
func NewWithURL(url string, logger *slog.Logger) *Client {
	return &Client{
		url:    strings.TrimRight(url, "/"),
		http:   &http.Client{Timeout: 30 * time.Second},
		logger: logger,
	}
}

// postJSON posts a JSON body to a service path and decodes the standard
// response envelope.
func (c *Client) postJSON(ctx context.Context, path string, body any) (*apiResponse, error) {
	buf, err := json.Marshal(body)
	if err != nil {
		return nil, fmt.Errorf("encoding request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.url+path, bytes.NewReader(buf))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	var out apiResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, fmt.Errorf("decoding response: %w", err)
	}

	return &out, nil
}

// Authenticate posts the operator credentials and stores the returned
// session on the client for later authorized calls.
func (c *Client) Authenticate(ctx context.Context, username, password string) error {
	resp, err := c.postJSON(ctx, "/authenticate", map[string]any{
		"email":    username,
		"password": password,
	})
	if err != nil {
		return err
	}

	if !resp.Success {
		return &AuthenticationError{Message: resp.Message}
	}

	c.session = &session{Token: resp.Token}
	return nil
}

// RegisterCab registers this cabinet under the given name. Requires a
// prior successful Authenticate.
func (c *Client) RegisterCab(ctx context.Context, name string) error {
	if c.session == nil {
		return ErrNotAuthenticated
	}

	resp, err := c.postJSON(ctx, "/api/arcade-cabs/create", map[string]any{
		"token": c.session.Token,
		"name":  name,
	})
	if err != nil {
		return err
	}

	if !resp.Success {
		return &CabRegistrationError{Message: resp.Message}
	}

	return nil
}

// Broadcast announces this cabinet's reachable address to the service
// using the pre-shared API key. Broadcast is advisory: it runs on a
// timer and must never crash the calling loop, so any failure (network,
// malformed response, rejection) is logged at debug level and reported
// as false.
func (c *Client) Broadcast(ctx context.Context) bool {
	resp, err := c.postJSON(ctx, "/api/arcade-cabs/broadcast", map[string]any{
		"apiKey": c.key,
		"ip":     c.broadcastAddr,
	})
	if err != nil {
		c.logger.Debug("broadcast failed", "error", err)
		return false
	}

	if !resp.Success {
		c.logger.Debug("broadcast rejected", "message", resp.Message)
		return false
	}

	return true
}

// PostScore flattens the upload into a single flat payload and submits
// it. The fixed top-level fields (apiKey, playerId) join the upload's
// flattened namespace; null fields never reach the wire.
func (c *Client) PostScore(ctx context.Context, player *records.Player, upload *records.ChartUpload) error {
	payload := upload.Flatten()
	payload["apiKey"] = c.key
	payload["playerId"] = player.ID

	resp, err := c.postJSON(ctx, "/post-score", payload)
	if err != nil {
		return err
	}

	if !resp.Success {
		return &ScoreSubmissionError{Message: resp.Message}
	}

	return nil
}
