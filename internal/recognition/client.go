// Package recognition integrates the external price recognition service.
// The service is treated as unreliable by contract: every failure mode —
// transport error, bad status, malformed body, low confidence — degrades
// to core.ErrPriceNotFound so the entry flow falls back to manual typing
// and never crashes.
package recognition

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"hogar/internal/core"
)

// PriceExtractor extracts a price from a photographed label or receipt.
type PriceExtractor interface {
	Extract(ctx context.Context, image []byte) (core.Amount, error)
}

// Client calls the recognition endpoint over HTTP. An empty endpoint
// disables recognition entirely; Extract then always reports not found.
type Client struct {
	httpClient *http.Client
	endpoint   string
}

func NewClient(endpoint string, timeout time.Duration) *Client {
	return &Client{
		httpClient: &http.Client{Timeout: timeout},
		endpoint:   endpoint,
	}
}

type extractResponse struct {
	Found       bool  `json:"found"`
	AmountCents int64 `json:"amount_cents"`
}

// Extract posts the raw image and reads back the detected amount.
// Returns core.ErrPriceNotFound for every outcome that is not a usable
// positive price.
func (c *Client) Extract(ctx context.Context, image []byte) (core.Amount, error) {
	if c.endpoint == "" {
		return 0, core.ErrPriceNotFound
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(image))
	if err != nil {
		slog.WarnContext(ctx, "Recognition request build failed", "error", err)
		return 0, core.ErrPriceNotFound
	}
	req.Header.Set("Content-Type", "application/octet-stream")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		slog.WarnContext(ctx, "Recognition service unreachable", "error", err)
		return 0, core.ErrPriceNotFound
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		slog.WarnContext(ctx, "Recognition service returned non-OK status", "status", resp.StatusCode)
		return 0, core.ErrPriceNotFound
	}

	var body extractResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		slog.WarnContext(ctx, "Recognition response malformed", "error", err)
		return 0, core.ErrPriceNotFound
	}

	if !body.Found || body.AmountCents <= 0 {
		return 0, core.ErrPriceNotFound
	}

	return core.Amount(body.AmountCents), nil
}
