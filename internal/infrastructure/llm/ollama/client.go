package ollama

import (
	"context"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/kirillkom/compliance-navigator/internal/core/domain"
	"github.com/kirillkom/compliance-navigator/internal/core/ports"
	"github.com/kirillkom/compliance-navigator/internal/infrastructure/resilience"
)

// Client talks to the Ollama HTTP API. Every call goes through the shared
// resilience executor when one is configured.
type Client struct {
	baseURL    string
	model      string
	httpClient *http.Client
	executor   *resilience.Executor
	logger     *slog.Logger
}

func New(baseURL, model string, timeout time.Duration, executor *resilience.Executor, logger *slog.Logger) *Client {
	if timeout <= 0 {
		timeout = 120 * time.Second
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		model:      model,
		httpClient: &http.Client{Timeout: timeout},
		executor:   executor,
		logger:     logger,
	}
}

type generateOptions struct {
	Temperature float64 `json:"temperature"`
	NumPredict  int     `json:"num_predict,omitempty"`
}

type generateRequest struct {
	Model   string          `json:"model"`
	Prompt  string          `json:"prompt"`
	System  string          `json:"system,omitempty"`
	Stream  bool            `json:"stream"`
	Options generateOptions `json:"options"`
}

type generateResponse struct {
	Response string `json:"response"`
}

// Generate implements ports.TextGenerator against /api/generate.
func (c *Client) Generate(ctx context.Context, req ports.GenerationRequest) (string, error) {
	const op = "ollama.generate"
	payload := generateRequest{
		Model:  c.model,
		Prompt: req.Prompt,
		System: req.System,
		Stream: false,
		Options: generateOptions{
			Temperature: req.Temperature,
			NumPredict:  req.MaxTokens,
		},
	}

	started := time.Now()
	var resp generateResponse
	err := c.call(ctx, op, func(ctx context.Context) error {
		return c.postJSON(ctx, "/api/generate", payload, &resp, "generate")
	})
	if err != nil {
		c.logger.Warn("ollama.generate.failed", "model", c.model, "duration_ms", time.Since(started).Milliseconds(), "error", err)
		return "", wrapModelError(op, err)
	}

	text := strings.TrimSpace(resp.Response)
	if text == "" {
		return "", domain.WrapError(domain.ErrModelResponseUnparseable, op, errEmptyResponse)
	}
	c.logger.Debug("ollama.generate.ok", "model", c.model, "duration_ms", time.Since(started).Milliseconds(), "chars", len(text))
	return text, nil
}

// Ping checks that the server answers and the configured model is listed.
func (c *Client) Ping(ctx context.Context) error {
	var tags struct {
		Models []struct {
			Name string `json:"name"`
		} `json:"models"`
	}
	if err := c.getJSON(ctx, "/api/tags", &tags, "tags"); err != nil {
		return wrapModelError("ollama.ping", err)
	}
	for _, m := range tags.Models {
		if m.Name == c.model || strings.TrimSuffix(m.Name, ":latest") == c.model {
			return nil
		}
	}
	return domain.WrapError(domain.ErrModelUnavailable, "ollama.ping", errModelNotPulled{model: c.model})
}

func (c *Client) call(ctx context.Context, op string, fn func(context.Context) error) error {
	if c.executor == nil {
		return fn(ctx)
	}
	return c.executor.Execute(ctx, op, fn, classifyOllamaError)
}
