package peer

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/BioHazard786/pairrelay/internal/server"
)

// Status is the result of probing a relay's health endpoint.
type Status struct {
	URL     string
	Health  server.HealthResponse
	Latency time.Duration
}

// FetchStatus queries GET /health on the relay at base.
func FetchStatus(ctx context.Context, base string) (*Status, error) {
	url := strings.TrimSuffix(base, "/") + "/health"

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("build health request: %w", err)
	}

	start := time.Now()
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("health request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("health request: unexpected status %s", resp.Status)
	}

	st := &Status{URL: base, Latency: time.Since(start)}
	if err := json.NewDecoder(resp.Body).Decode(&st.Health); err != nil {
		return nil, fmt.Errorf("decode health response: %w", err)
	}
	return st, nil
}
