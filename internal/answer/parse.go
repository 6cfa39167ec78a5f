// internal/answer/parse.go
package answer

import (
	"encoding/json"
	"regexp"
	"strings"

	"github.com/curios-devops/curios-search/internal/models"
)

var (
	codeFencePattern = regexp.MustCompile("(?s)^```(?:json)?\\s*(.*?)\\s*```$")

	// matches a "Follow-up questions:" style section heading
	followUpHeadingPattern = regexp.MustCompile(`(?im)^\s*(?:follow[- ]?up questions?|related questions?)\s*:?\s*$`)
	// matches a numbered or bulleted question line
	questionLinePattern = regexp.MustCompile(`(?m)^\s*(?:\d+[.)]|[-*])\s*(.+\?)\s*$`)
	urlPattern         = regexp.MustCompile(`https?://[^\s)\]"']+`)
)

// rawArticle tolerates both the requested shape and the common deviations
// models produce ("answer" instead of "content", citations as bare strings).
type rawArticle struct {
	Content           string            `json:"content"`
	Answer            string            `json:"answer"`
	FollowUpQuestions []string          `json:"followUpQuestions"`
	Citations         []json.RawMessage `json:"citations"`
}

// ParseArticleResponse turns the model's raw text into an ArticleResult.
// It tries strict JSON first (after stripping markdown fences), then falls
// back to regex section extraction over the raw text, then to the canned
// article. It never fails.
func ParseArticleResponse(raw, query string, results []models.SearchResult) *models.ArticleResult {
	cleaned := stripCodeFences(strings.TrimSpace(raw))

	if article, ok := parseJSON(cleaned); ok {
		fillDefaults(article, query, results)
		return article
	}

	if article, ok := parseHeuristic(cleaned); ok {
		fillDefaults(article, query, results)
		return article
	}

	return FallbackArticle(query, results)
}

func stripCodeFences(s string) string {
	if m := codeFencePattern.FindStringSubmatch(s); m != nil {
		return m[1]
	}
	return s
}

func parseJSON(s string) (*models.ArticleResult, bool) {
	var raw rawArticle
	if err := json.Unmarshal([]byte(s), &raw); err != nil {
		return nil, false
	}

	content := raw.Content
	if content == "" {
		content = raw.Answer
	}
	if content == "" {
		return nil, false
	}

	article := &models.ArticleResult{
		Content:           content,
		FollowUpQuestions: raw.FollowUpQuestions,
	}
	for _, rawCitation := range raw.Citations {
		if c, ok := parseCitation(rawCitation); ok {
			article.Citations = append(article.Citations, c)
		}
	}
	return article, true
}

// parseCitation accepts either the object shape or a bare URL string.
func parseCitation(raw json.RawMessage) (models.Citation, bool) {
	var obj models.Citation
	if err := json.Unmarshal(raw, &obj); err == nil && obj.URL != "" {
		if obj.SiteName == "" {
			obj.SiteName = SiteName(obj.URL)
		}
		return obj, true
	}

	var s string
	if err := json.Unmarshal(raw, &s); err == nil && s != "" {
		return models.Citation{URL: s, SiteName: SiteName(s)}, true
	}
	return models.Citation{}, false
}

// parseHeuristic salvages non-JSON model output: the text body becomes the
// content, question-shaped list lines become follow-ups, and any URLs found
// in the text become citations.
func parseHeuristic(s string) (*models.ArticleResult, bool) {
	if strings.TrimSpace(s) == "" {
		return nil, false
	}

	content := s
	var followUps []string

	if loc := followUpHeadingPattern.FindStringIndex(s); loc != nil {
		content = strings.TrimSpace(s[:loc[0]])
		section := s[loc[1]:]
		for _, m := range questionLinePattern.FindAllStringSubmatch(section, followUpTarget) {
			followUps = append(followUps, strings.TrimSpace(m[1]))
		}
	} else {
		for _, m := range questionLinePattern.FindAllStringSubmatch(s, followUpTarget) {
			followUps = append(followUps, strings.TrimSpace(m[1]))
		}
	}

	if content == "" {
		return nil, false
	}

	article := &models.ArticleResult{
		Content:           content,
		FollowUpQuestions: followUps,
	}

	seen := make(map[string]bool)
	for _, u := range urlPattern.FindAllString(s, -1) {
		u = strings.TrimRight(u, ".,;")
		if seen[u] {
			continue
		}
		seen[u] = true
		article.Citations = append(article.Citations, models.Citation{
			URL:      u,
			SiteName: SiteName(u),
		})
	}

	return article, true
}

// fillDefaults tops up missing follow-ups and citations so consumers always
// see a complete article shape.
func fillDefaults(article *models.ArticleResult, query string, results []models.SearchResult) {
	if len(article.FollowUpQuestions) == 0 {
		article.FollowUpQuestions = FallbackArticle(query, results).FollowUpQuestions
	}
	if len(article.Citations) == 0 {
		for i, r := range results {
			if i >= cannedCitationCount {
				break
			}
			article.Citations = append(article.Citations, models.Citation{
				URL:      r.URL,
				Title:    r.Title,
				SiteName: SiteName(r.URL),
			})
		}
	}
}
