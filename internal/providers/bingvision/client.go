// internal/providers/bingvision/client.go
package bingvision

import (
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

const ProviderName = "bing-vision"

type Config struct {
	BaseURL string
	APIKey  string
	Timeout time.Duration
}

// Client performs reverse image search through the Bing visual search API.
// The query is an image URL, not text.
type Client struct {
	config *Config
	client *http.Client
	logger logger.Logger
}

func NewClient(config *Config, log logger.Logger) *Client {
	return &Client{
		config: config,
		client: &http.Client{Timeout: config.Timeout},
		logger: log.With(map[string]interface{}{"provider": ProviderName}),
	}
}

func (c *Client) Name() string { return ProviderName }

// SearchByImage looks up pages and visually similar images for imageURL.
func (c *Client) SearchByImage(ctx context.Context, imageURL string) (*models.ProviderResponse, error) {
	if c.config.APIKey == "" {
		return nil, errors.NewMissingAPIKeyError(ProviderName)
	}

	params := url.Values{}
	params.Add("imgurl", imageURL)
	params.Add("mkt", "en-US")

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.config.BaseURL+"/details?"+params.Encode(), nil)
	if err != nil {
		return nil, errors.NewProviderFailedError(ProviderName, err)
	}
	req.Header.Set("Ocp-Apim-Subscription-Key", c.config.APIKey)

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
		PagesIncluding struct {
			Value []struct {
				Name        string `json:"name"`
				HostPageURL string `json:"hostPageUrl"`
				Snippet     string `json:"snippet"`
			} `json:"value"`
		} `json:"pagesIncluding"`
		VisuallySimilarImages struct {
			Value []struct {
				Name        string `json:"name"`
				ContentURL  string `json:"contentUrl"`
				HostPageURL string `json:"hostPageUrl"`
			} `json:"value"`
		} `json:"visuallySimilarImages"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&apiResponse); err != nil {
		return nil, errors.NewProviderDecodeError(ProviderName, err)
	}

	out := &models.ProviderResponse{}
	for _, page := range apiResponse.PagesIncluding.Value {
		out.Web = append(out.Web, models.SearchResult{
			Title:   page.Name,
			URL:     page.HostPageURL,
			Content: page.Snippet,
		})
	}
	for _, img := range apiResponse.VisuallySimilarImages.Value {
		out.Images = append(out.Images, models.ImageResult{
			URL:       img.ContentURL,
			Alt:       img.Name,
			SourceURL: img.HostPageURL,
			Title:     img.Name,
		})
	}

	c.logger.Info("reverse image search completed", map[string]interface{}{
		"imageUrl":   imageURL,
		"webCount":   len(out.Web),
		"imageCount": len(out.Images),
	})

	return out, nil
}
