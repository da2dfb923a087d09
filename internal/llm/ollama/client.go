// Package ollama implements the llm.Classifier against a local Ollama
// server's /api/chat endpoint.
package ollama

import (
	"context"
	"encoding/base64"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/time/rate"

	"github.com/rfields/scanwatch/internal/extract"
	"github.com/rfields/scanwatch/internal/llm"
)

type Config struct {
	BaseURL string
	Model   string
	Timeout time.Duration
}

type Client struct {
	baseURL    string
	model      string
	timeout    time.Duration
	httpClient *http.Client
	// One local model serves every call; pacing keeps a burst of scanner
	// output from piling requests onto a busy inference server.
	limiter *rate.Limiter
	log     *slog.Logger
}

func New(cfg Config, logger *slog.Logger) *Client {
	if logger == nil {
		logger = slog.Default()
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 120 * time.Second
	}
	return &Client{
		baseURL:    strings.TrimRight(cfg.BaseURL, "/"),
		model:      cfg.Model,
		timeout:    cfg.Timeout,
		httpClient: &http.Client{},
		limiter:    rate.NewLimiter(rate.Every(time.Second), 1),
		log:        logger,
	}
}

// Classify implements llm.Classifier. Transport failures, timeouts, and
// retryable HTTP statuses surface as common.ErrModelUnavailable; a reply
// outside the acceptance grammar becomes KindUnrecognized, not an error.
func (c *Client) Classify(ctx context.Context, payload extract.Payload) (llm.Classification, error) {
	rid := uuid.New().String()
	start := time.Now()

	if err := c.limiter.Wait(ctx); err != nil {
		return llm.Classification{}, err
	}

	callCtx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	reqBody := map[string]any{
		"model":  c.model,
		"stream": false,
		"options": map[string]any{
			"temperature": 0,
		},
		"messages": []map[string]any{
			{
				"role":    "user",
				"content": llm.InstructionPrompt,
				"images":  []string{base64.StdEncoding.EncodeToString(payload.Data)},
			},
		},
	}

	c.log.Info("classify.request",
		"req_id", rid,
		"model", c.model,
		"image_bytes", len(payload.Data),
		"source_kind", payload.SourceKind,
	)

	var response struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	}
	if err := c.postJSON(callCtx, "/api/chat", reqBody, &response, "chat"); err != nil {
		c.log.Error("classify.error",
			"req_id", rid,
			"error", err,
			"elapsed_ms", time.Since(start).Milliseconds(),
		)
		return llm.Classification{}, wrapModelError("chat", err)
	}

	raw := strings.TrimSpace(response.Message.Content)
	result := llm.ParseReply(raw)

	c.log.Info("classify.response",
		"req_id", rid,
		"kind", string(result.Kind),
		"reply_bytes", len(raw),
		"elapsed_ms", time.Since(start).Milliseconds(),
	)
	return result, nil
}

// Unload asks Ollama to release the model from VRAM. Best effort, used
// once at shutdown.
func (c *Client) Unload(ctx context.Context) error {
	reqBody := map[string]any{
		"model":      c.model,
		"keep_alive": 0,
	}
	var response struct{}
	return c.postJSON(ctx, "/api/generate", reqBody, &response, "unload")
}
