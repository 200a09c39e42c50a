// Package wavespeed wraps the WaveSpeedAI image-to-video API: job submission,
// status retrieval, and normalization of the asynchronous callback payloads
// the provider has been observed to send over time.
package wavespeed

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

	"github.com/rs/zerolog"

	"vidgen/internal/domain"
	"vidgen/internal/infra"
)

// ErrMissingAPIKey indicates that the client was configured without credentials.
var ErrMissingAPIKey = errors.New("wavespeed: api key is required")

const (
	defaultBaseURL = "https://api.wavespeed.ai"
	createEndpoint = "/api/v3/wavespeed-ai/framepack"
	resultEndpoint = "/api/v3/predictions/%s/result"
	defaultTimeout = 60 * time.Second
)

// Options configures the WaveSpeed client.
type Options struct {
	APIKey         string
	BaseURL        string
	WebhookURL     string
	HTTPClient     *http.Client
	Logger         *infra.Logger
	RequestTimeout time.Duration
}

// Client performs HTTP calls to the WaveSpeedAI API.
type Client struct {
	apiKey     string
	baseURL    string
	webhookURL string
	httpClient *http.Client
	logger     *infra.Logger
}

// NewClient constructs a client with sane defaults and injected dependencies.
func NewClient(opts Options) *Client {
	httpClient := opts.HTTPClient
	if httpClient == nil {
		timeout := opts.RequestTimeout
		if timeout <= 0 {
			timeout = defaultTimeout
		}
		httpClient = &http.Client{Timeout: timeout}
	}
	baseURL := strings.TrimRight(opts.BaseURL, "/")
	if baseURL == "" {
		baseURL = defaultBaseURL
	}
	var logger *infra.Logger
	if opts.Logger != nil {
		logger = opts.Logger
	} else {
		discard := zerolog.New(io.Discard)
		l := infra.Logger(discard)
		logger = &l
	}
	return &Client{
		apiKey:     strings.TrimSpace(opts.APIKey),
		baseURL:    baseURL,
		webhookURL: opts.WebhookURL,
		httpClient: httpClient,
		logger:     logger,
	}
}

// HasCredentials reports whether the client can perform remote calls.
func (c *Client) HasCredentials() bool {
	return c.apiKey != ""
}

// CreateGeneration submits an image-to-video job and returns the external job
// id extracted from the provider's nested response envelope.
func (c *Client) CreateGeneration(ctx context.Context, req CreateRequest) (*CreateResult, error) {
	if !c.HasCredentials() {
		return nil, ErrMissingAPIKey
	}
	if strings.TrimSpace(req.ImageURL) == "" {
		return nil, errors.New("wavespeed: image url is required")
	}
	body, err := json.Marshal(createPayload{
		Image:      req.ImageURL,
		Prompt:     req.Prompt,
		WebhookURL: c.webhookURL,
	})
	if err != nil {
		return nil, fmt.Errorf("wavespeed: encode request: %w", err)
	}
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+createEndpoint, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("wavespeed: build request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Authorization", "Bearer "+c.apiKey)

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("%w: create: %v", domain.ErrProviderFailure, err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("wavespeed: read response: %w", err)
	}
	if resp.StatusCode >= 300 {
		return nil, fmt.Errorf("%w: %s", domain.ErrProviderFailure, providerMessage(resp.StatusCode, raw))
	}

	var decoded createResponse
	if err := json.Unmarshal(raw, &decoded); err != nil {
		return nil, fmt.Errorf("wavespeed: decode response: %w", err)
	}
	if decoded.Data.ID == "" {
		return nil, fmt.Errorf("%w: create response missing job id", domain.ErrProviderFailure)
	}
	c.logger.Debug().
		Str("provider_id", decoded.Data.ID).
		Str("status", decoded.Data.Status).
		Msg("wavespeed: job submitted")
	return &CreateResult{ID: decoded.Data.ID, StatusURL: decoded.Data.URLs.Get}, nil
}

// GetStatus fetches the current result for an external job id and normalizes
// it through the same parser the webhook path uses.
func (c *Client) GetStatus(ctx context.Context, providerID string) (*Callback, error) {
	if !c.HasCredentials() {
		return nil, ErrMissingAPIKey
	}
	url := c.baseURL + fmt.Sprintf(resultEndpoint, providerID)
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("wavespeed: build request: %w", err)
	}
	httpReq.Header.Set("Authorization", "Bearer "+c.apiKey)

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("%w: status: %v", domain.ErrProviderFailure, err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("wavespeed: read response: %w", err)
	}
	if resp.StatusCode >= 300 {
		return nil, fmt.Errorf("%w: %s", domain.ErrProviderFailure, providerMessage(resp.StatusCode, raw))
	}

	var decoded any
	if err := json.Unmarshal(raw, &decoded); err != nil {
		return nil, fmt.Errorf("wavespeed: decode status response: %w", err)
	}
	cb := ParseCallback(decoded)
	if cb == nil {
		return nil, fmt.Errorf("wavespeed: status payload for %s has no recognizable id", providerID)
	}
	return cb, nil
}

// ParseCallback normalizes a decoded provider payload into a Callback. The
// webhook schema is not under our control and has shifted over time, so the
// id, status, video url and error message are each looked up under every
// historically seen field name, nested under data or flat. A payload with no
// recognizable id yields nil, which callers treat as "ignore", not an error.
func ParseCallback(body any) *Callback {
	m, ok := body.(map[string]any)
	if !ok {
		return nil
	}
	data, _ := m["data"].(map[string]any)

	id := firstString(data["id"], m["id"], m["request_id"], m["task_id"], m["generation_id"])
	if id == "" {
		return nil
	}
	status := firstString(data["status"], data["state"], m["status"], m["state"])
	videoURL := firstOutputURL(data["outputs"])
	if videoURL == "" {
		videoURL = firstOutputURL(m["outputs"])
	}
	if videoURL == "" {
		videoURL = firstString(data["video_url"], data["output_url"], m["video_url"], m["output_url"], m["video"], m["url"])
	}
	errMsg := firstString(data["error"], m["error_message"], m["error"], m["message"])

	return &Callback{
		ID:           id,
		Status:       status,
		VideoURL:     videoURL,
		ErrorMessage: errMsg,
	}
}

// CanonicalStatus maps the provider's status vocabulary onto the record
// states. Anything unrecognized means the job is still in flight.
func CanonicalStatus(status string) domain.GenerationStatus {
	switch strings.ToLower(strings.TrimSpace(status)) {
	case "completed", "succeeded", "success":
		return domain.GenerationCompleted
	case "failed", "error":
		return domain.GenerationFailed
	default:
		return domain.GenerationPending
	}
}

func providerMessage(statusCode int, raw []byte) string {
	var detail errorResponse
	if err := json.Unmarshal(raw, &detail); err == nil {
		if detail.Message != "" {
			return detail.Message
		}
		if detail.Error != "" {
			return detail.Error
		}
	}
	return fmt.Sprintf("status %d: %s", statusCode, strings.TrimSpace(string(raw)))
}

func firstString(candidates ...any) string {
	for _, c := range candidates {
		if s, ok := c.(string); ok && s != "" {
			return s
		}
	}
	return ""
}

func firstOutputURL(outputs any) string {
	list, ok := outputs.([]any)
	if !ok || len(list) == 0 {
		return ""
	}
	switch first := list[0].(type) {
	case map[string]any:
		return firstString(first["url"])
	case string:
		return first
	}
	return ""
}
