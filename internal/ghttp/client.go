package ghttp

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
)

// Client reads the views served by [HTTPServer].
type Client struct {
	// Base URL such as "http://127.0.0.1:8080".
	// A bare host:port is accepted and treated as http.
	BaseURL string

	// Defaults to [http.DefaultClient].
	HTTP *http.Client
}

func (c Client) Participants(ctx context.Context) ([]Participant, error) {
	var out []Participant
	if err := c.getJSON(ctx, "/participants", &out); err != nil {
		return nil, err
	}
	return out, nil
}

// Recoveries returns up to limit records, newest first.
// A zero limit returns every record.
func (c Client) Recoveries(ctx context.Context, limit int) ([]Recovery, error) {
	path := "/recoveries"
	if limit > 0 {
		path = fmt.Sprintf("%s?limit=%d", path, limit)
	}

	var out []Recovery
	if err := c.getJSON(ctx, path, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (c Client) getJSON(ctx context.Context, path string, dst any) error {
	base := strings.TrimSuffix(c.BaseURL, "/")
	if !strings.Contains(base, "://") {
		base = "http://" + base
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, base+path, nil)
	if err != nil {
		return fmt.Errorf("failed to build request for %s: %w", path, err)
	}

	hc := c.HTTP
	if hc == nil {
		hc = http.DefaultClient
	}

	resp, err := hc.Do(req)
	if err != nil {
		return fmt.Errorf("failed to GET %s: %w", path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return fmt.Errorf("GET %s: unexpected status %s: %s", path, resp.Status, strings.TrimSpace(string(body)))
	}

	if err := json.NewDecoder(resp.Body).Decode(dst); err != nil {
		return fmt.Errorf("failed to decode %s response: %w", path, err)
	}
	return nil
}
