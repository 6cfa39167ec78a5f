// internal/providers/tavily/client.go
package tavily

import (
	"bytes"
	"context"
	"encoding/json"
	stderrors "errors"
	"net/http"
	"time"

	"github.com/curios-devops/curios-search/internal/common/errors"
	"github.com/curios-devops/curios-search/internal/common/logger"
	"github.com/curios-devops/curios-search/internal/models"
)

const ProviderName = "tavily"

type Config struct {
	BaseURL    string
	APIKey     string
	Timeout    time.Duration
	MaxResults int
}

// Client is a secondary text provider used by the perspective agent. It
// posts to the Tavily /search endpoint and can include images in responses.
type Client struct {
	config *Config
	client *http.Client
	logger logger.Logger
}

func NewClient(config *Config, log logger.Logger) *Client {
	if config.MaxResults == 0 {
		config.MaxResults = 10
	}
	return &Client{
		config: config,
		client: &http.Client{Timeout: config.Timeout},
		logger: log.With(map[string]interface{}{"provider": ProviderName}),
	}
}

func (c *Client) Name() string { return ProviderName }

func (c *Client) Search(ctx context.Context, query string) (*models.ProviderResponse, error) {
	if c.config.APIKey == "" {
		return nil, errors.NewMissingAPIKeyError(ProviderName)
	}

	requestBody := map[string]interface{}{
		"api_key":        c.config.APIKey,
		"query":          query,
		"search_depth":   "basic",
		"include_images": true,
		"max_results":    c.config.MaxResults,
	}
	body, _ := json.Marshal(requestBody)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.config.BaseURL+"/search", bytes.NewBuffer(body))
	if err != nil {
		return nil, errors.NewProviderFailedError(ProviderName, err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		if stderrors.Is(err, context.DeadlineExceeded) || ctx.Err() == context.DeadlineExceeded {
			return nil, errors.NewProviderTimeoutError(ProviderName)
		}
		return nil, errors.NewProviderFailedError(ProviderName, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, errors.NewProviderBadStatusError(ProviderName, resp.StatusCode)
	}

	var apiResponse struct {
		Results []struct {
			Title   string  `json:"title"`
			URL     string  `json:"url"`
			Content string  `json:"content"`
			Score   float64 `json:"score"`
		} `json:"results"`
		Images []string `json:"images"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&apiResponse); err != nil {
		return nil, errors.NewProviderDecodeError(ProviderName, err)
	}

	out := &models.ProviderResponse{}
	for _, r := range apiResponse.Results {
		out.Web = append(out.Web, models.SearchResult{
			Title:   r.Title,
			URL:     r.URL,
			Content: r.Content,
			Score:   r.Score,
		})
	}
	for _, img := range apiResponse.Images {
		out.Images = append(out.Images, models.ImageResult{URL: img})
	}

	c.logger.Info("search completed", map[string]interface{}{
		"query":      query,
		"webCount":   len(out.Web),
		"imageCount": len(out.Images),
	})

	return out, nil
}
