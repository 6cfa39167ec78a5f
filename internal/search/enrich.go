// internal/search/enrich.go
package search

import (
	"net/url"
	"regexp"
	"strings"

	"github.com/curios-devops/curios-search/internal/models"
)

const (
	enrichedQueryMaxChars = 400
	enrichedQueryMaxWords = 50

	maxContextKeywords = 10
	maxContextDomains  = 4
	maxContextCaptions = 2
	captionMaxChars    = 30

	keywordMinLength    = 4 // strictly more than 3 characters
	keywordsPerTitle    = 3
	contextResultWindow = 4
)

var enrichStopwords = map[string]bool{
	"the": true, "and": true, "for": true, "with": true,
	"from": true, "this": true, "that": true, "https": true,
}

var siteFilterPattern = regexp.MustCompile(`\bsite:\S+`)

// BuildEnrichedQuery synthesizes the text-search query for the image+text
// branch: the user's words plus keywords, domains and captions extracted
// from the reverse image search results. The output is bounded at 50 words
// and 400 characters.
func BuildEnrichedQuery(originalQuery string, resp *models.ProviderResponse) string {
	var parts []string

	if keywords := extractKeywords(resp.Web); len(keywords) > 0 {
		parts = append(parts, strings.Join(keywords, " "))
	}
	if domains := extractDomains(resp.Web); len(domains) > 0 {
		parts = append(parts, strings.Join(domains, " "))
	}
	if captions := extractCaptions(resp.Images); len(captions) > 0 {
		parts = append(parts, strings.Join(captions, ". "))
	}

	context := strings.Join(parts, ". ")
	context = siteFilterPattern.ReplaceAllString(context, "")
	context = strings.Join(strings.Fields(context), " ")

	enriched := context
	if q := strings.TrimSpace(originalQuery); q != "" {
		if enriched != "" {
			enriched = q + " " + enriched
		} else {
			enriched = q
		}
	}

	return truncateQuery(enriched)
}

// extractKeywords takes the first 3 qualifying words from each of the first
// 4 result titles, capped at 10 unique keywords overall.
func extractKeywords(results []models.SearchResult) []string {
	var keywords []string
	seen := make(map[string]bool)

	for i, r := range results {
		if i >= contextResultWindow {
			break
		}

		taken := 0
		for _, word := range strings.Fields(r.Title) {
			cleaned := strings.ToLower(strings.Trim(word, `.,!?:;"'()[]`))
			if len(cleaned) < keywordMinLength || enrichStopwords[cleaned] {
				continue
			}
			if seen[cleaned] {
				continue
			}
			seen[cleaned] = true
			keywords = append(keywords, cleaned)

			taken++
			if taken >= keywordsPerTitle {
				break
			}
		}

		if len(keywords) >= maxContextKeywords {
			keywords = keywords[:maxContextKeywords]
			break
		}
	}

	return keywords
}

// extractDomains collects up to 4 distinct hostnames from the same result
// window used for keywords.
func extractDomains(results []models.SearchResult) []string {
	var domains []string
	seen := make(map[string]bool)

	for i, r := range results {
		if i >= contextResultWindow || len(domains) >= maxContextDomains {
			break
		}

		u, err := url.Parse(r.URL)
		if err != nil || u.Host == "" {
			continue
		}
		host := strings.TrimPrefix(u.Host, "www.")
		if seen[host] {
			continue
		}
		seen[host] = true
		domains = append(domains, host)
	}

	return domains
}

// extractCaptions takes up to 2 image captions, truncated to 30 characters.
func extractCaptions(images []models.ImageResult) []string {
	var captions []string

	for _, img := range images {
		if len(captions) >= maxContextCaptions {
			break
		}

		caption := strings.TrimSpace(img.Title)
		if caption == "" {
			caption = strings.TrimSpace(img.Alt)
		}
		if caption == "" {
			continue
		}

		// Slice on runes so a multibyte caption is not cut mid-character.
		if runes := []rune(caption); len(runes) > captionMaxChars {
			caption = string(runes[:captionMaxChars]) + "..."
		}
		captions = append(captions, caption)
	}

	return captions
}

// truncateQuery enforces the 50-word and 400-character bounds, ellipsis
// included inside the bound.
func truncateQuery(query string) string {
	words := strings.Fields(query)
	if len(words) > enrichedQueryMaxWords {
		query = strings.Join(words[:enrichedQueryMaxWords], " ") + "..."
	}

	if runes := []rune(query); len(runes) > enrichedQueryMaxChars {
		query = string(runes[:enrichedQueryMaxChars-3]) + "..."
	}

	return query
}
