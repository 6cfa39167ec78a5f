// internal/providers/apify/client.go
package apify

import (
	"bytes"
	"context"
	"encoding/json"
	stderrors "errors"
	"net/http"
	"net/url"
	"time"

	"github.com/curios-devops/curios-search/internal/common/errors"
	"github.com/curios-devops/curios-search/internal/common/logger"
	"github.com/curios-devops/curios-search/internal/models"
)

const ProviderName = "apify"

type Config struct {
	BaseURL    string
	Token      string
	ActorID    string
	Timeout    time.Duration
	MaxResults int
}

// Client is the fallback search provider. It runs a Google-scraper actor
// synchronously and reads the dataset items from the response.
type Client struct {
	config *Config
	client *http.Client
	logger logger.Logger
}

func NewClient(config *Config, log logger.Logger) *Client {
	if config.MaxResults == 0 {
		config.MaxResults = 20
	}
	return &Client{
		config: config,
		client: &http.Client{Timeout: config.Timeout},
		logger: log.With(map[string]interface{}{"provider": ProviderName}),
	}
}

func (c *Client) Name() string { return ProviderName }

func (c *Client) Search(ctx context.Context, query string) (*models.ProviderResponse, error) {
	if c.config.Token == "" {
		return nil, errors.NewMissingAPIKeyError(ProviderName)
	}

	input := map[string]interface{}{
		"queries":          query,
		"maxPagesPerQuery": 1,
		"resultsPerPage":   c.config.MaxResults,
		"mobileResults":    false,
	}
	body, _ := json.Marshal(input)

	endpoint := c.config.BaseURL + "/acts/" + url.PathEscape(c.config.ActorID) +
		"/run-sync-get-dataset-items?token=" + url.QueryEscape(c.config.Token)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewBuffer(body))
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

	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusCreated {
		return nil, errors.NewProviderBadStatusError(ProviderName, resp.StatusCode)
	}

	var items []struct {
		OrganicResults []struct {
			Title       string `json:"title"`
			URL         string `json:"url"`
			Description string `json:"description"`
		} `json:"organicResults"`
		RelatedImages []struct {
			ImageURL string `json:"imageUrl"`
			Title    string `json:"title"`
			Source   string `json:"source"`
		} `json:"relatedImages"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&items); err != nil {
		return nil, errors.NewProviderDecodeError(ProviderName, err)
	}

	out := &models.ProviderResponse{}
	for _, item := range items {
		for _, r := range item.OrganicResults {
			out.Web = append(out.Web, models.SearchResult{
				Title:   r.Title,
				URL:     r.URL,
				Content: r.Description,
			})
		}
		for _, img := range item.RelatedImages {
			out.Images = append(out.Images, models.ImageResult{
				URL:       img.ImageURL,
				Alt:       img.Title,
				SourceURL: img.Source,
				Title:     img.Title,
			})
		}
	}

	c.logger.Info("fallback search completed", map[string]interface{}{
		"query":      query,
		"webCount":   len(out.Web),
		"imageCount": len(out.Images),
	})

	return out, nil
}
