// internal/providers/openai/client.go
package openai

import (
	"bytes"
	"context"
	"encoding/json"
	stderrors "errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/curios-devops/curios-search/internal/common/errors"
	"github.com/curios-devops/curios-search/internal/common/logger"
	"github.com/curios-devops/curios-search/internal/common/metrics"
	"github.com/curios-devops/curios-search/internal/common/retry"
)

const ProviderName = "openai"

type Config struct {
	BaseURL      string
	APIKey       string
	Organization string
	ProjectID    string
	Temperature  float64
	MaxTokens    int
	MaxRetries   int
	BaseDelay    time.Duration
	Timeout      time.Duration
}

// CompletionRequest is a single chat-completion call. Model is chosen by the
// caller; JSONMode asks the API for a strict JSON object response.
type CompletionRequest struct {
	Model        string
	SystemPrompt string
	UserPrompt   string
	Temperature  float64
	MaxTokens    int
	JSONMode     bool
}

// Client calls an OpenAI-compatible chat/completions endpoint.
type Client struct {
	config *Config
	client *http.Client
	logger logger.Logger
}

func NewClient(config *Config, log logger.Logger) *Client {
	// Zero means unset; pass a negative value for a single-attempt client.
	if config.MaxRetries == 0 {
		config.MaxRetries = 3
	}
	if config.MaxRetries < 0 {
		config.MaxRetries = 0
	}
	if config.BaseDelay == 0 {
		config.BaseDelay = time.Second
	}
	return &Client{
		config: config,
		// No client-level timeout: LLM calls rely on the request context.
		client: &http.Client{},
		logger: log.With(map[string]interface{}{"provider": ProviderName}),
	}
}

// Complete sends the prompt pair and returns the raw assistant message text.
// The HTTP call is retried with exponential backoff; the last error is
// returned after exhaustion so the caller can substitute its fallback.
func (c *Client) Complete(ctx context.Context, req CompletionRequest) (string, error) {
	if c.config.APIKey == "" {
		return "", errors.NewMissingAPIKeyError(ProviderName)
	}

	temperature := req.Temperature
	if temperature == 0 {
		temperature = c.config.Temperature
	}
	maxTokens := req.MaxTokens
	if maxTokens == 0 {
		maxTokens = c.config.MaxTokens
	}

	requestBody := map[string]interface{}{
		"model": req.Model,
		"messages": []map[string]string{
			{"role": "system", "content": req.SystemPrompt},
			{"role": "user", "content": req.UserPrompt},
		},
		"temperature": temperature,
		"max_tokens":  maxTokens,
	}
	if req.JSONMode {
		requestBody["response_format"] = map[string]string{"type": "json_object"}
	}
	body, _ := json.Marshal(requestBody)

	var content string
	attempt := 0

	err := retry.Do(ctx, retry.Policy{
		MaxRetries:  c.config.MaxRetries,
		BaseDelay:   c.config.BaseDelay,
		IsRetryable: errors.IsRetryable,
	}, func() error {
		if attempt > 0 {
			metrics.AnswerRetries.Inc()
		}
		attempt++

		text, err := c.doRequest(ctx, body)
		if err != nil {
			return err
		}
		content = text
		return nil
	})

	if err != nil {
		c.logger.Error("completion failed after retries", map[string]interface{}{
			"attempts": attempt,
			"model":    req.Model,
			"error":    err.Error(),
		})
		return "", errors.NewAnswerGenerationFailedError(err)
	}

	return content, nil
}

func (c *Client) doRequest(ctx context.Context, body []byte) (string, error) {
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.config.BaseURL+"/chat/completions", bytes.NewBuffer(body))
	if err != nil {
		return "", errors.NewProviderFailedError(ProviderName, err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Authorization", "Bearer "+c.config.APIKey)
	if c.config.Organization != "" {
		httpReq.Header.Set("OpenAI-Organization", c.config.Organization)
	}
	if c.config.ProjectID != "" {
		httpReq.Header.Set("OpenAI-Project", c.config.ProjectID)
	}

	resp, err := c.client.Do(httpReq)
	if err != nil {
		if stderrors.Is(err, context.DeadlineExceeded) || ctx.Err() == context.DeadlineExceeded {
			return "", errors.NewProviderTimeoutError(ProviderName)
		}
		return "", errors.NewProviderFailedError(ProviderName, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		// Drain so the connection can be reused across retries.
		_, _ = io.Copy(io.Discard, resp.Body)
		return "", errors.NewProviderBadStatusError(ProviderName, resp.StatusCode)
	}

	var apiResponse struct {
		Choices []struct {
			Message struct {
				Content string `json:"content"`
			} `json:"message"`
		} `json:"choices"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&apiResponse); err != nil {
		return "", errors.NewProviderDecodeError(ProviderName, err)
	}

	if len(apiResponse.Choices) == 0 {
		return "", errors.NewProviderDecodeError(ProviderName, fmt.Errorf("empty choices"))
	}

	return apiResponse.Choices[0].Message.Content, nil
}
