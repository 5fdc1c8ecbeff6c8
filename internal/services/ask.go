package services

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/minsnailee/llm-detective/pkg/chat"
)

// AskEndpoints is the ordered endpoint-fallback chain for the NPC answer
// service. Deployments have mounted the route at different prefixes over
// time; candidates are tried in this fixed order.
var AskEndpoints = []string{
	"/game/ask",
	"/api/game/ask",
	"/ask",
}

// Failure kinds of an ask attempt. The first two advance the fallback
// chain; anything else aborts immediately.
var (
	ErrAccessDenied       = errors.New("access denied")
	ErrNotFound           = errors.New("endpoint not found")
	ErrEndpointsExhausted = errors.New("no reachable ask endpoint")
)

// AskClient is the boundary to the NPC-response oracle. The engine never
// generates dialogue; it only sends one request per suspect and consumes
// the answer text.
type AskClient interface {
	Ask(ctx context.Context, req chat.AskRequest) (string, error)
}

// HTTPAskClient implements AskClient against an HTTP answer service,
// trying each candidate path in AskEndpoints until one succeeds.
type HTTPAskClient struct {
	baseURL    string
	endpoints  []string
	httpClient *http.Client
	logger     *slog.Logger
}

var _ AskClient = (*HTTPAskClient)(nil)

// NewHTTPAskClient creates an ask client for the given base URL. A nil
// endpoints slice selects the default chain.
func NewHTTPAskClient(baseURL string, endpoints []string, logger *slog.Logger) *HTTPAskClient {
	if endpoints == nil {
		endpoints = AskEndpoints
	}
	return &HTTPAskClient{
		baseURL:   strings.TrimRight(baseURL, "/"),
		endpoints: endpoints,
		logger:    logger,
		httpClient: &http.Client{
			Timeout: 60 * time.Second,
		},
	}
}

// Ask sends the question to the answer service. Candidates are tried in
// order; an authorization-denied or not-found failure advances to the
// next candidate, any other failure propagates immediately, and
// exhausting the chain returns ErrEndpointsExhausted wrapping the last
// candidate's failure.
func (c *HTTPAskClient) Ask(ctx context.Context, req chat.AskRequest) (string, error) {
	if err := req.Validate(); err != nil {
		return "", fmt.Errorf("invalid ask request: %w", err)
	}

	requestID := uuid.New().String()
	var lastErr error
	for _, ep := range c.endpoints {
		answer, err := c.post(ctx, ep, requestID, req)
		if err == nil {
			return answer, nil
		}
		if errors.Is(err, ErrAccessDenied) || errors.Is(err, ErrNotFound) {
			c.logger.Debug("Ask endpoint rejected, trying next candidate",
				"request_id", requestID,
				"endpoint", ep,
				"error", err)
			lastErr = err
			continue
		}
		return "", err
	}

	return "", fmt.Errorf("%w: %w", ErrEndpointsExhausted, lastErr)
}

func (c *HTTPAskClient) post(ctx context.Context, endpoint, requestID string, askReq chat.AskRequest) (string, error) {
	body, err := json.Marshal(askReq)
	if err != nil {
		return "", fmt.Errorf("failed to marshal ask request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+endpoint, bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("failed to create ask request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("X-Request-ID", requestID)

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return "", fmt.Errorf("ask request failed: %w", err)
	}
	defer func() {
		_ = resp.Body.Close() // Ignore error in defer
	}()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("failed to read ask response: %w", err)
	}

	switch resp.StatusCode {
	case http.StatusOK:
		// fall through to decode
	case http.StatusUnauthorized, http.StatusForbidden:
		return "", fmt.Errorf("%w: %s returned status %d", ErrAccessDenied, endpoint, resp.StatusCode)
	case http.StatusNotFound:
		return "", fmt.Errorf("%w: %s returned status %d", ErrNotFound, endpoint, resp.StatusCode)
	default:
		return "", fmt.Errorf("ask endpoint %s returned status %d: %s", endpoint, resp.StatusCode, string(respBody))
	}

	var askResp chat.AskResponse
	if err := json.Unmarshal(respBody, &askResp); err != nil {
		return "", fmt.Errorf("failed to parse ask response: %w", err)
	}
	return askResp.Answer, nil
}
