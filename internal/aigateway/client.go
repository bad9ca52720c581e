// Package aigateway sends text transformations to an OpenAI-compatible chat
// completion API behind a client-side rate limit.
package aigateway

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/sashabaranov/go-openai"

	"github.com/starford/notegraph/internal/ratelimit"
)

const (
	DefaultBaseURL   = "https://api.openai.com/v1"
	DefaultModel     = "gpt-4o-mini"
	DefaultMaxTokens = 500
	temperature      = 0.7
)

// Cache stores transformation results. A hit bypasses the rate limit.
type Cache interface {
	Get(ctx context.Context, key string) (string, bool, error)
	Set(ctx context.Context, key, value string) error
}

// flusher is implemented by caches that can drop every entry.
type flusher interface {
	Flush(ctx context.Context) error
}

// ClearCache drops every cached result. It is a no-op without a cache or
// when the cache cannot be cleared.
func (c *Client) ClearCache(ctx context.Context) error {
	f, ok := c.cache.(flusher)
	if !ok {
		return nil
	}
	if err := f.Flush(ctx); err != nil {
		return fmt.Errorf("aigateway: clear cache: %w", err)
	}
	c.logger.Info("aigateway: cache cleared")
	return nil
}

// Config holds the upstream connection settings.
type Config struct {
	APIKey  string
	BaseURL string
	Model   string
	Timeout time.Duration
}

// Request is one transformation.
type Request struct {
	Text              string
	SystemInstruction string
	MaxTokens         int
}

// Client is the rate-limited AI gateway.
type Client struct {
	cfg     Config
	http    *http.Client
	api     *openai.Client
	limiter *ratelimit.Window
	cache   Cache
	logger  *slog.Logger
}

// Option configures a Client.
type Option func(*Client)

// WithCache enables result caching.
func WithCache(c Cache) Option { return func(cl *Client) { cl.cache = c } }

// WithHTTPClient replaces the default HTTP client.
func WithHTTPClient(h *http.Client) Option { return func(cl *Client) { cl.http = h } }

// New creates a Client. The limiter is shared by every operation.
func New(cfg Config, limiter *ratelimit.Window, logger *slog.Logger, opts ...Option) *Client {
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultBaseURL
	}
	if cfg.Model == "" {
		cfg.Model = DefaultModel
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 30 * time.Second
	}
	if limiter == nil {
		limiter = ratelimit.New(ratelimit.DefaultMaxRequests, ratelimit.DefaultWindow)
	}
	if logger == nil {
		logger = slog.Default()
	}
	c := &Client{
		cfg:     cfg,
		http:    &http.Client{Timeout: cfg.Timeout},
		limiter: limiter,
		logger:  logger,
	}
	for _, o := range opts {
		o(c)
	}
	apiCfg := openai.DefaultConfig(cfg.APIKey)
	apiCfg.BaseURL = strings.TrimRight(cfg.BaseURL, "/")
	apiCfg.HTTPClient = c.http
	c.api = openai.NewClientWithConfig(apiCfg)
	return c
}

// Transform runs req. Checks happen in a fixed order: input validation,
// API key presence, cache lookup, then quota. Nothing reaches the network
// or consumes quota unless the earlier checks pass.
func (c *Client) Transform(ctx context.Context, req Request) (string, error) {
	if err := ValidateInput(req.Text); err != nil {
		return "", err
	}
	if p, ok := suspicious(req.Text); ok {
		c.logger.Warn("aigateway: suspicious pattern in input", slog.String("pattern", p))
	}
	if c.cfg.APIKey == "" {
		return "", newError(CodeNoAPIKey, msgNoAPIKey, nil)
	}
	if req.MaxTokens <= 0 {
		req.MaxTokens = DefaultMaxTokens
	}

	key := c.cacheKey(req)
	if c.cache != nil {
		if v, ok, err := c.cache.Get(ctx, key); err != nil {
			c.logger.Warn("aigateway: cache get failed", slog.String("error", err.Error()))
		} else if ok {
			c.logger.Debug("aigateway: cache hit")
			return v, nil
		}
	}

	if ok, retryAt := c.limiter.Acquire(); !ok {
		e := newError(CodeRateLimit, "Rate limit exceeded. Please try again at "+retryAt.Local().Format(time.Kitchen), nil)
		e.RetryAt = retryAt
		return "", e
	}

	out, err := c.complete(ctx, req)
	if err != nil {
		c.logger.Error("aigateway: request failed", slog.String("error", err.Error()))
		return "", err
	}

	if c.cache != nil {
		if err := c.cache.Set(ctx, key, out); err != nil {
			c.logger.Warn("aigateway: cache set failed", slog.String("error", err.Error()))
		}
	}
	return out, nil
}

func (c *Client) complete(ctx context.Context, req Request) (string, error) {
	resp, err := c.api.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: c.cfg.Model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: req.SystemInstruction},
			{Role: openai.ChatMessageRoleUser, Content: req.Text},
		},
		MaxTokens:   req.MaxTokens,
		Temperature: temperature,
	})
	if err != nil {
		return "", classify(err)
	}
	if len(resp.Choices) == 0 || strings.TrimSpace(resp.Choices[0].Message.Content) == "" {
		return "", newError(CodeUnknown, "No content in response", nil)
	}
	return strings.TrimSpace(resp.Choices[0].Message.Content), nil
}

// classify maps client errors onto gateway codes. Anything without an HTTP
// status never reached the service.
func classify(err error) *Error {
	status, msg := 0, ""
	var apiErr *openai.APIError
	var reqErr *openai.RequestError
	switch {
	case errors.As(err, &apiErr):
		status, msg = apiErr.HTTPStatusCode, apiErr.Message
	case errors.As(err, &reqErr):
		status = reqErr.HTTPStatusCode
	default:
		return newError(CodeNetworkError, msgNetwork, err)
	}

	switch status {
	case http.StatusUnauthorized:
		return newError(CodeInvalidAPIKey, msgInvalidAPIKey, err)
	case http.StatusTooManyRequests:
		return newError(CodeRateLimit, msgUpstreamLimit, err)
	}
	if msg == "" {
		msg = "An unexpected error occurred."
	}
	return newError(CodeUnknown, msg, err)
}

func (c *Client) cacheKey(req Request) string {
	h := sha256.New()
	for _, part := range []string{c.cfg.Model, req.SystemInstruction, req.Text} {
		h.Write([]byte(part))
		h.Write([]byte{0})
	}
	fmt.Fprintf(h, "%d", req.MaxTokens)
	return hex.EncodeToString(h.Sum(nil))
}

// Status describes gateway readiness for the settings view.
type Status struct {
	Configured bool           `json:"configured"`
	Model      string         `json:"model"`
	RateLimit  ratelimit.Info `json:"rateLimit"`
	Message    string         `json:"message"`
}

// Status reports configuration and quota state without any network call.
func (c *Client) Status() Status {
	return Status{
		Configured: c.cfg.APIKey != "",
		Model:      c.cfg.Model,
		RateLimit:  c.limiter.Info(),
		Message:    c.limiter.StatusMessage(),
	}
}
