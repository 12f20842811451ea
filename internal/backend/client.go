// Package backend calls the domain backends and turns their responses
// into evidence chunks for the formatter.
package backend

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/consulta-ai/consulta/internal/observability"
)

// ErrNotFound marks a 404 from a backend. Executors treat it as an empty
// result rather than a failure.
var ErrNotFound = errors.New("recurso no encontrado")

// Client is a thin JSON client for one domain backend. Calls are bounded
// by a fixed timeout and made exactly once; there is no retry layer.
type Client struct {
	name       string
	baseURL    string
	httpClient *http.Client
	logger     *observability.Logger
}

// NewClient creates a backend client. The timeout bounds every call.
func NewClient(name, baseURL string, timeout time.Duration, logger *observability.Logger) *Client {
	if logger == nil {
		logger = observability.Nop()
	}
	if timeout <= 0 {
		timeout = 10 * time.Second
	}

	return &Client{
		name:       name,
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Timeout: timeout},
		logger:     logger,
	}
}

// Name returns the backend's name, used in provenance and logs.
func (c *Client) Name() string { return c.name }

// BaseURL returns the backend's base URL.
func (c *Client) BaseURL() string { return c.baseURL }

// FetchJSON issues a GET for path and decodes the JSON response into out.
// A 404 maps to ErrNotFound; other non-2xx statuses are errors carrying a
// body snippet.
func (c *Client) FetchJSON(ctx context.Context, path string, out any) error {
	url := c.baseURL + path

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return fmt.Errorf("create request for %s: %w", url, err)
	}
	req.Header.Set("Accept", "application/json")

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.logger.Warn().Err(err).Str("backend", c.name).Str("path", path).Msg("backend call failed")
		return fmt.Errorf("llamada a %s falló: %w", c.name, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 4<<20))
	if err != nil {
		return fmt.Errorf("read response from %s: %w", url, err)
	}

	c.logger.Debug().
		Str("backend", c.name).
		Str("path", path).
		Int("status", resp.StatusCode).
		Dur("elapsed", time.Since(start)).
		Msg("backend call")

	if resp.StatusCode == http.StatusNotFound {
		return fmt.Errorf("%s %s: %w", c.name, path, ErrNotFound)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("%s devolvió estado %d: %s", c.name, resp.StatusCode, truncateBody(body))
	}

	if out == nil {
		return nil
	}

	if err := json.Unmarshal(body, out); err != nil {
		return fmt.Errorf("decode response from %s: %w", url, err)
	}

	return nil
}

func truncateBody(b []byte) string {
	s := strings.TrimSpace(string(b))
	if len(s) > 200 {
		return s[:200] + "..."
	}
	return s
}
