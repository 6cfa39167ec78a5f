// internal/providers/brave/client.go
package brave

import (
	"context"
	"encoding/json"
	stderrors "errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/curios-devops/curios-search/internal/common/errors"
	"github.com/curios-devops/curios-search/internal/common/logger"
	"github.com/curios-devops/curios-search/internal/models"
)

const ProviderName = "brave"

type Config struct {
	BaseURL string
	APIKey  string
	Timeout time.Duration
	Count   int
}

// Client is the primary text search provider. It hits the web, image and
// video endpoints of the Brave Search API.
type Client struct {
	config *Config
	client *http.Client
	logger logger.Logger
}

func NewClient(config *Config, log logger.Logger) *Client {
	if config.Count == 0 {
		config.Count = 20
	}
	return &Client{
		config: config,
		client: &http.Client{Timeout: config.Timeout},
		logger: log.With(map[string]interface{}{"provider": ProviderName}),
	}
}

func (c *Client) Name() string { return ProviderName }

// Search runs web, image and video queries sequentially and returns the
// merged provider response. Image and video failures are tolerated; only a
// web failure fails the call.
func (c *Client) Search(ctx context.Context, query string) (*models.ProviderResponse, error) {
	if c.config.APIKey == "" {
		return nil, errors.NewMissingAPIKeyError(ProviderName)
	}

	web, err := c.searchWeb(ctx, query)
	if err != nil {
		return nil, err
	}

	images, err := c.searchImages(ctx, query)
	if err != nil {
		c.logger.Warn("image search failed, continuing with web results", map[string]interface{}{
			"error": err.Error(),
		})
		images = nil
	}

	videos, err := c.searchVideos(ctx, query)
	if err != nil {
		c.logger.Warn("video search failed, continuing without videos", map[string]interface{}{
			"error": err.Error(),
		})
		videos = nil
	}

	c.logger.Info("search completed", map[string]interface{}{
		"query":      query,
		"webCount":   len(web),
		"imageCount": len(images),
		"videoCount": len(videos),
	})

	return &models.ProviderResponse{Web: web, Images: images, Videos: videos}, nil
}

func (c *Client) searchWeb(ctx context.Context, query string) ([]models.SearchResult, error) {
	var apiResponse struct {
		Web struct {
			Results []struct {
				Title       string `json:"title"`
				URL         string `json:"url"`
				Description string `json:"description"`
			} `json:"results"`
		} `json:"web"`
	}

	if err := c.get(ctx, "/web/search", query, &apiResponse); err != nil {
		return nil, err
	}

	results := make([]models.SearchResult, 0, len(apiResponse.Web.Results))
	for _, r := range apiResponse.Web.Results {
		results = append(results, models.SearchResult{
			Title:   r.Title,
			URL:     r.URL,
			Content: r.Description,
		})
	}
	return results, nil
}

func (c *Client) searchImages(ctx context.Context, query string) ([]models.ImageResult, error) {
	var apiResponse struct {
		Results []struct {
			Title      string `json:"title"`
			URL        string `json:"url"`
			Properties struct {
				URL string `json:"url"`
			} `json:"properties"`
		} `json:"results"`
	}

	if err := c.get(ctx, "/images/search", query, &apiResponse); err != nil {
		return nil, err
	}

	images := make([]models.ImageResult, 0, len(apiResponse.Results))
	for _, r := range apiResponse.Results {
		images = append(images, models.ImageResult{
			URL:       r.Properties.URL,
			Alt:       r.Title,
			SourceURL: r.URL,
			Title:     r.Title,
		})
	}
	return images, nil
}

func (c *Client) searchVideos(ctx context.Context, query string) ([]models.VideoResult, error) {
	var apiResponse struct {
		Results []struct {
			Title     string `json:"title"`
			URL       string `json:"url"`
			Thumbnail struct {
				Src string `json:"src"`
			} `json:"thumbnail"`
			Video struct {
				Duration string `json:"duration"`
			} `json:"video"`
		} `json:"results"`
	}

	if err := c.get(ctx, "/videos/search", query, &apiResponse); err != nil {
		return nil, err
	}

	videos := make([]models.VideoResult, 0, len(apiResponse.Results))
	for _, r := range apiResponse.Results {
		videos = append(videos, models.VideoResult{
			Title:     r.Title,
			URL:       r.URL,
			Thumbnail: r.Thumbnail.Src,
			Duration:  r.Video.Duration,
		})
	}
	return videos, nil
}

func (c *Client) get(ctx context.Context, path, query string, out interface{}) error {
	params := url.Values{}
	params.Add("q", query)
	params.Add("count", strconv.Itoa(c.config.Count))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.config.BaseURL+path+"?"+params.Encode(), nil)
	if err != nil {
		return errors.NewProviderFailedError(ProviderName, err)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("X-Subscription-Token", c.config.APIKey)

	resp, err := c.client.Do(req)
	if err != nil {
		if stderrors.Is(err, context.DeadlineExceeded) || ctx.Err() == context.DeadlineExceeded {
			return errors.NewProviderTimeoutError(ProviderName)
		}
		return errors.NewProviderFailedError(ProviderName, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return errors.NewProviderBadStatusError(ProviderName, resp.StatusCode)
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return errors.NewProviderDecodeError(ProviderName, fmt.Errorf("decode %s: %w", path, err))
	}
	return nil
}
