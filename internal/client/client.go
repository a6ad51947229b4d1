// Package client calls the claim analysis endpoint. It holds no scoring rules
// of its own.
package client

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

	"github.com/sirupsen/logrus"

	"claim-risk/internal/scoring"
)

const analyzePath = "/api/analyze-claim"

// ErrAnalysisFailed is returned for every failed call; callers do not
// distinguish between validation, server and network failures.
var ErrAnalysisFailed = errors.New("claim analysis failed")

// Config holds client settings.
type Config struct {
	BaseURL string
	Timeout time.Duration
}

// Client posts claims to a claim-risk server.
type Client struct {
	httpClient *http.Client
	baseURL    string
}

// New constructs a Client.
func New(cfg Config) (*Client, error) {
	base := strings.TrimRight(strings.TrimSpace(cfg.BaseURL), "/")
	if base == "" {
		return nil, errors.New("base url required")
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &Client{
		httpClient: &http.Client{Timeout: timeout},
		baseURL:    base,
	}, nil
}

type errorBody struct {
	Error string `json:"error"`
}

// AnalyzeClaim submits the claim and returns the server's prediction.
func (c *Client) AnalyzeClaim(ctx context.Context, claim scoring.ClaimInput) (scoring.Prediction, error) {
	var prediction scoring.Prediction

	body, err := json.Marshal(claim)
	if err != nil {
		return prediction, fmt.Errorf("%w: encode claim: %v", ErrAnalysisFailed, err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+analyzePath, bytes.NewReader(body))
	if err != nil {
		return prediction, fmt.Errorf("%w: build request: %v", ErrAnalysisFailed, err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return prediction, fmt.Errorf("%w: %v", ErrAnalysisFailed, err)
	}
	defer resp.Body.Close()

	payload, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return prediction, fmt.Errorf("%w: read response: %v", ErrAnalysisFailed, err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		var eb errorBody
		_ = json.Unmarshal(payload, &eb)
		logrus.WithFields(logrus.Fields{
			"status":     resp.StatusCode,
			"error":      eb.Error,
			"request_id": resp.Header.Get("X-Request-ID"),
		}).Debug("claim analysis rejected")
		if eb.Error != "" {
			return prediction, fmt.Errorf("%w: status %d: %s", ErrAnalysisFailed, resp.StatusCode, eb.Error)
		}
		return prediction, fmt.Errorf("%w: status %d", ErrAnalysisFailed, resp.StatusCode)
	}

	if err := json.Unmarshal(payload, &prediction); err != nil {
		return scoring.Prediction{}, fmt.Errorf("%w: decode prediction: %v", ErrAnalysisFailed, err)
	}
	return prediction, nil
}
