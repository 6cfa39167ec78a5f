// internal/search/normalize.go
package search

import (
	"net/url"
	"strings"

	"github.com/curios-devops/curios-search/internal/models"
)

// DeduplicateResults drops later entries that repeat an earlier entry's URL.
// Matching is exact-string; first occurrence wins and order is preserved.
func DeduplicateResults(results []models.SearchResult) []models.SearchResult {
	seen := make(map[string]bool, len(results))
	out := make([]models.SearchResult, 0, len(results))

	for _, r := range results {
		if seen[r.URL] {
			continue
		}
		seen[r.URL] = true
		out = append(out, r)
	}

	return out
}

// sanitizeResults discards records whose URL does not parse as an absolute
// URL.
func sanitizeResults(results []models.SearchResult) []models.SearchResult {
	out := make([]models.SearchResult, 0, len(results))
	for _, r := range results {
		u, err := url.Parse(r.URL)
		if err != nil || !u.IsAbs() || u.Host == "" {
			continue
		}
		out = append(out, r)
	}
	return out
}

// filterImages keeps HTTPS-only images, deduplicated by exact URL with first
// occurrence winning.
func filterImages(images []models.ImageResult) []models.ImageResult {
	seen := make(map[string]bool, len(images))
	out := make([]models.ImageResult, 0, len(images))

	for _, img := range images {
		if !strings.HasPrefix(img.URL, "https://") {
			continue
		}
		if seen[img.URL] {
			continue
		}
		seen[img.URL] = true
		out = append(out, img)
	}

	return out
}

func capResults(results []models.SearchResult, max int) []models.SearchResult {
	if len(results) > max {
		return results[:max]
	}
	return results
}

func capImages(images []models.ImageResult, max int) []models.ImageResult {
	if len(images) > max {
		return images[:max]
	}
	return images
}

func capVideos(videos []models.VideoResult, max int) []models.VideoResult {
	if len(videos) > max {
		return videos[:max]
	}
	return videos
}
