// Package sync talks to the remote sync endpoint. It performs exactly one
// request per call and never retries; callers decide what to do with the
// typed errors it returns.
package sync

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/existflow/taskboard/internal/logger"
	"github.com/existflow/taskboard/internal/model"
)

// DefaultServerURL is used when no server is configured
const DefaultServerURL = "http://localhost:8080"

// maxErrorBody caps how much of an error response is kept for the message
const maxErrorBody = 4 << 10

// Client is the sync client
type Client struct {
	serverURL  string
	httpClient *http.Client
}

// Option configures a Client
type Option func(*Client)

// WithHTTPClient replaces the underlying HTTP client
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.httpClient = hc }
}

// WithTimeout sets the per-request timeout
func WithTimeout(d time.Duration) Option {
	return func(c *Client) { c.httpClient.Timeout = d }
}

// NewClient creates a new sync client for serverURL
func NewClient(serverURL string, opts ...Option) *Client {
	if serverURL == "" {
		serverURL = DefaultServerURL
	}
	c := &Client{
		serverURL:  strings.TrimRight(serverURL, "/"),
		httpClient: &http.Client{Timeout: 30 * time.Second},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// ServerURL returns the base URL requests are sent to
func (c *Client) ServerURL() string {
	return c.serverURL
}

// Fetch reads the signed-in user's dataset. A user with no record yet gets an empty dataset.
func (c *Client) Fetch(ctx context.Context, token string) (model.UserDataset, error) {
	logger.Debug("Fetching remote dataset")

	payload, err := c.do(ctx, http.MethodGet, token, nil)
	var httpErr *HTTPError
	if errors.As(err, &httpErr) && httpErr.Status == http.StatusNotFound {
		logger.Debug("No remote record yet")
		return model.Empty(), nil
	}
	if err != nil {
		return model.UserDataset{}, err
	}

	ds := payload.Dataset()
	logger.Info("Fetched remote dataset", logger.F("boards", len(ds.Boards)), logger.F("updatedAt", payload.UpdatedAt))
	return ds, nil
}

// Push writes the full board list and returns the server's canonical copy.
// base is the server updatedAt the boards derive from; zero skips the staleness check.
func (c *Client) Push(ctx context.Context, token string, dataset model.UserDataset, base time.Time) (model.UserDataset, error) {
	req := PushRequest{Boards: dataset.Boards}
	if req.Boards == nil {
		req.Boards = []model.Board{}
	}
	if !base.IsZero() {
		b := base.UTC()
		req.ClientUpdatedAt = &b
	}

	body, err := json.Marshal(req)
	if err != nil {
		return model.UserDataset{}, fmt.Errorf("failed to encode push: %w", err)
	}

	logger.Info("Pushing dataset to server", logger.F("boards", len(req.Boards)), logger.F("base", base))

	payload, err := c.do(ctx, http.MethodPut, token, body)
	if err != nil {
		return model.UserDataset{}, err
	}

	ds := payload.Dataset()
	logger.Info("Push completed", logger.F("updatedAt", payload.UpdatedAt))
	return ds, nil
}

func (c *Client) do(ctx context.Context, method, token string, body []byte) (*Payload, error) {
	url := c.serverURL + Path

	var reader io.Reader
	if body != nil {
		reader = bytes.NewReader(body)
	}
	req, err := http.NewRequestWithContext(ctx, method, url, reader)
	if err != nil {
		return nil, fmt.Errorf("failed to build request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("Accept", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	logger.Debug("HTTP Request",
		logger.F("method", method),
		logger.F("url", url),
		logger.F("bodySize", len(body)))

	resp, err := c.httpClient.Do(req)
	if err != nil {
		logger.Error("HTTP request failed", logger.F("error", err), logger.F("url", url))
		return nil, fmt.Errorf("%w: %w", ErrNetwork, err)
	}
	defer resp.Body.Close()

	logger.Debug("HTTP Response",
		logger.F("status", resp.StatusCode),
		logger.F("statusText", resp.Status))

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, readHTTPError(resp)
	}

	var envelope Response
	if err := json.NewDecoder(resp.Body).Decode(&envelope); err != nil {
		if ctx.Err() != nil {
			return nil, fmt.Errorf("%w: %w", ErrNetwork, ctx.Err())
		}
		return nil, &HTTPError{Status: resp.StatusCode, Message: "malformed response: " + err.Error()}
	}
	if !envelope.Success || envelope.Data == nil {
		return nil, &HTTPError{Status: resp.StatusCode, Message: "response carried no data"}
	}
	return envelope.Data, nil
}

func readHTTPError(resp *http.Response) error {
	raw, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))

	herr := &HTTPError{Status: resp.StatusCode}
	var envelope Response
	if json.Unmarshal(raw, &envelope) == nil && envelope.Message != "" {
		herr.Message = envelope.Message
	} else {
		herr.Message = strings.TrimSpace(string(raw))
	}

	if resp.StatusCode != http.StatusNotFound {
		logger.Error("Sync request rejected",
			logger.F("status", resp.StatusCode),
			logger.F("response", herr.Message))
	}
	return herr
}
