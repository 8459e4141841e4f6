// Package gemini wraps the Google generative REST API for the three
// modalities the pipeline uses: text, image, and long-running video.
package gemini

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

	"github.com/dqalex/OmniSpark/internal/model"
)

// Options configures the client.
type Options struct {
	APIKey       string
	BaseURL      string
	APIVersion   string
	TextModel    string
	ImageModel   string
	ImageModelHQ string
	VideoModel   string
	HTTPClient   *http.Client
	Logger       *slog.Logger
}

// Client issues provider calls. It is safe for concurrent use; the
// configuration it was created with is immutable, so a config update means
// constructing a new Client while in-flight calls keep the old one.
type Client struct {
	apiKey       string
	baseURL      string
	apiVersion   string
	textModel    string
	imageModel   string
	imageModelHQ string
	videoModel   string
	httpClient   *http.Client
	logger       *slog.Logger
}

// New creates a provider client.
func New(opts Options) *Client {
	baseURL := strings.TrimRight(opts.BaseURL, "/")
	if baseURL == "" {
		baseURL = "https://generativelanguage.googleapis.com"
	}
	apiVersion := strings.TrimSpace(opts.APIVersion)
	if apiVersion == "" {
		apiVersion = "v1beta"
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	httpClient := opts.HTTPClient
	if httpClient == nil {
		httpClient = http.DefaultClient
	}

	return &Client{
		apiKey:       opts.APIKey,
		baseURL:      baseURL,
		apiVersion:   apiVersion,
		textModel:    opts.TextModel,
		imageModel:   opts.ImageModel,
		imageModelHQ: opts.ImageModelHQ,
		videoModel:   opts.VideoModel,
		httpClient:   httpClient,
		logger:       logger,
	}
}

// apiError is a non-2xx provider response.
type apiError struct {
	StatusCode int
	Status     string
	Body       string
}

func (e *apiError) Error() string {
	return fmt.Sprintf("gemini API %s: %s", e.Status, strings.TrimSpace(e.Body))
}

// permissionDenied reports whether the failure is credential-class, which
// callers surface separately so the user can re-select credentials instead
// of retrying.
func (e *apiError) permissionDenied() bool {
	if e.StatusCode == http.StatusUnauthorized || e.StatusCode == http.StatusForbidden {
		return true
	}
	return strings.Contains(e.Body, "PERMISSION_DENIED") || strings.Contains(e.Body, "API_KEY_INVALID")
}

// classify converts a transport-level error into the generation error
// taxonomy. Context errors pass through untouched.
func classify(err error, op string) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return err
	}
	var ae *apiError
	if errors.As(err, &ae) && ae.permissionDenied() {
		return model.WrapGenerationError(model.KindPermissionDenied, op+" rejected by provider", err)
	}
	return fmt.Errorf("%s: %w", op, err)
}

// postJSON sends payload to path and returns the raw response body.
func (c *Client) postJSON(ctx context.Context, path string, payload any) ([]byte, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("marshal request: %w", err)
	}

	url := c.baseURL + path
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("x-goog-api-key", c.apiKey)

	return c.do(req)
}

// getJSON fetches path and returns the raw response body.
func (c *Client) getJSON(ctx context.Context, path string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("x-goog-api-key", c.apiKey)

	return c.do(req)
}

func (c *Client) do(req *http.Request) ([]byte, error) {
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request: %w", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}
	if resp.StatusCode >= 400 {
		return nil, &apiError{StatusCode: resp.StatusCode, Status: resp.Status, Body: string(raw)}
	}
	return raw, nil
}

func (c *Client) modelPath(modelID, verb string) string {
	return fmt.Sprintf("/%s/models/%s:%s", c.apiVersion, modelID, verb)
}
