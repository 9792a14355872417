// Package apiclient is a small HTTP client for the bookability API, used by
// the CLI and the load generator.
package apiclient

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/okian/bookability/internal/domain/types"
)

const defaultTimeout = 10 * time.Second

// ErrUnexpectedStatus is wrapped by every *StatusError.
var ErrUnexpectedStatus = errors.New("unexpected status")

// StatusError carries a non-2xx response and its {code, message} envelope.
type StatusError struct {
	StatusCode int
	Code       string
	Message    string
}

func (e *StatusError) Error() string {
	if e.Code == "" {
		return fmt.Sprintf("HTTP %d", e.StatusCode)
	}
	return fmt.Sprintf("HTTP %d %s: %s", e.StatusCode, e.Code, e.Message)
}

// Unwrap lets callers match ErrUnexpectedStatus.
func (e *StatusError) Unwrap() error { return ErrUnexpectedStatus }

// Retryable reports whether the request may succeed if sent again.
func (e *StatusError) Retryable() bool {
	return e.StatusCode == http.StatusTooManyRequests || e.StatusCode == http.StatusServiceUnavailable
}

// SnapshotRequest is the body of POST /snapshots.
type SnapshotRequest struct {
	SnapshotID         string `json:"snapshot_id,omitempty"`
	DJID               string `json:"dj_id"`
	InstagramFollowers int64  `json:"instagram_followers"`
	SpotifyListeners   int64  `json:"spotify_listeners"`
	TakenAt            string `json:"taken_at,omitempty"`
}

// Ack is the response to POST /snapshots.
type Ack struct {
	Status     string `json:"status"`
	Duplicate  bool   `json:"duplicate"`
	SnapshotID string `json:"snapshot_id"`
}

// Stats is the subset of GET /stats the tools read.
type Stats struct {
	Started     bool  `json:"started"`
	QueueLength int   `json:"queueLength"`
	Processed   int64 `json:"processed"`
	TotalDJs    int   `json:"totalDJs"`
}

// Client talks to one bookability server.
type Client struct {
	baseURL string
	http    *http.Client
}

// New returns a client for baseURL. A non-positive timeout selects 10s.
func New(baseURL string, timeout time.Duration) *Client {
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    &http.Client{Timeout: timeout},
	}
}

// Health checks GET /healthz.
func (c *Client) Health(ctx context.Context) error {
	return c.do(ctx, http.MethodGet, "/healthz", nil, nil)
}

// Submit posts one snapshot.
func (c *Client) Submit(ctx context.Context, req SnapshotRequest) (Ack, error) {
	var ack Ack
	err := c.do(ctx, http.MethodPost, "/snapshots", req, &ack)
	return ack, err
}

// Leaderboard fetches the top limit entries.
func (c *Client) Leaderboard(ctx context.Context, limit int) ([]types.Entry, error) {
	var entries []types.Entry
	err := c.do(ctx, http.MethodGet, "/leaderboard?limit="+strconv.Itoa(limit), nil, &entries)
	return entries, err
}

// DJ fetches the ranked entry of one DJ.
func (c *Client) DJ(ctx context.Context, djID string) (types.Entry, error) {
	var entry types.Entry
	err := c.do(ctx, http.MethodGet, "/djs/"+url.PathEscape(djID), nil, &entry)
	return entry, err
}

// Stats fetches GET /stats.
func (c *Client) Stats(ctx context.Context) (Stats, error) {
	var st Stats
	err := c.do(ctx, http.MethodGet, "/stats", nil, &st)
	return st, err
}

func (c *Client) do(ctx context.Context, method, path string, body, out any) error {
	var reader io.Reader
	if body != nil {
		buf, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("marshal request body: %w", err)
		}
		reader = bytes.NewReader(buf)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		se := &StatusError{StatusCode: resp.StatusCode}
		var envelope struct {
			Code    string `json:"code"`
			Message string `json:"message"`
		}
		if json.NewDecoder(resp.Body).Decode(&envelope) == nil {
			se.Code, se.Message = envelope.Code, envelope.Message
		}
		return se
	}

	if out == nil {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode %s response: %w", path, err)
	}
	return nil
}
