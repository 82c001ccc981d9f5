package votesim

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/okian/parkrank/internal/domain/model"
)

// ErrStatus reports an unexpected HTTP status.
var ErrStatus = errors.New("unexpected status")

// client talks to the parkrank HTTP API.
type client struct {
	http    *http.Client
	baseURL string
}

func newClient(baseURL string, timeout time.Duration) *client {
	return &client{
		http:    &http.Client{Timeout: timeout},
		baseURL: baseURL,
	}
}

// getJSON decodes the body of a 200 response into out.
func (c *client) getJSON(ctx context.Context, path string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, http.NoBody)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("GET %s: %w", path, err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("GET %s: %w %d", path, ErrStatus, resp.StatusCode)
	}
	if out == nil {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("GET %s: decode: %w", path, err)
	}
	return nil
}

func (c *client) ready(ctx context.Context) error {
	return c.getJSON(ctx, "/readyz", nil)
}

func (c *client) matchup(ctx context.Context) (model.Matchup, error) {
	var m model.Matchup
	err := c.getJSON(ctx, "/api/matchup", &m)
	return m, err
}

func (c *client) ranking(ctx context.Context) ([]model.Park, error) {
	var parks []model.Park
	err := c.getJSON(ctx, "/api/ranking", &parks)
	return parks, err
}

func (c *client) recentVotes(ctx context.Context, limit int) ([]model.Vote, error) {
	var votes []model.Vote
	err := c.getJSON(ctx, fmt.Sprintf("/api/votes/recent?limit=%d", limit), &votes)
	return votes, err
}

// vote posts a ballot and returns the response status.
func (c *client) vote(ctx context.Context, b voteRequest, key string) (int, error) {
	body, err := json.Marshal(b)
	if err != nil {
		return 0, fmt.Errorf("marshal ballot: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/api/vote", bytes.NewReader(body))
	if err != nil {
		return 0, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if key != "" {
		req.Header.Set("Idempotency-Key", key)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return 0, fmt.Errorf("POST /api/vote: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode == http.StatusCreated {
		var vr voteResponse
		if err := json.NewDecoder(resp.Body).Decode(&vr); err != nil {
			return resp.StatusCode, fmt.Errorf("POST /api/vote: decode: %w", err)
		}
	}
	return resp.StatusCode, nil
}
