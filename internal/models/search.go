// internal/models/search.go
package models

// SearchResult is a single normalized web result from any provider.
// URL is the dedup key across providers.
type SearchResult struct {
	Title   string  `json:"title"`
	URL     string  `json:"url"`
	Content string  `json:"content"`
	Score   float64 `json:"score,omitempty"`
}

// ImageResult is a normalized image hit. URL must be HTTPS; records with
// empty or non-HTTPS URLs are filtered during normalization.
type ImageResult struct {
	URL       string `json:"url"`
	Alt       string `json:"alt"`
	SourceURL string `json:"source_url,omitempty"`
	Title     string `json:"title,omitempty"`
}

// VideoResult is a normalized video hit.
type VideoResult struct {
	Title     string `json:"title"`
	URL       string `json:"url"`
	Thumbnail string `json:"thumbnail,omitempty"`
	Duration  string `json:"duration,omitempty"`
}

// ProviderResponse is the transient, provider-shaped result set returned by
// a single provider call. It is normalized immediately and never outlives
// the orchestration call.
type ProviderResponse struct {
	Web    []SearchResult `json:"web"`
	Images []ImageResult  `json:"images"`
	Videos []VideoResult  `json:"videos,omitempty"`
}

// RetrievalBundle is the orchestrator's output: deduplicated, capped and
// sanitized. Created fresh per call, immutable once returned.
type RetrievalBundle struct {
	Query                string         `json:"query"`
	Results              []SearchResult `json:"results"`
	Images               []ImageResult  `json:"images"`
	Videos               []VideoResult  `json:"videos"`
	IsReverseImageSearch bool           `json:"isReverseImageSearch"`
}

// Citation points at a source used by a generated article.
type Citation struct {
	URL      string `json:"url"`
	Title    string `json:"title"`
	SiteName string `json:"siteName"`
}

// ArticleResult is the generated answer produced from a RetrievalBundle.
type ArticleResult struct {
	Content           string     `json:"content"`
	FollowUpQuestions []string   `json:"followUpQuestions"`
	Citations         []Citation `json:"citations"`
}

// Perspective is an alternate angle on a query, either LLM-generated or
// derived directly from raw results when the LLM is unavailable.
type Perspective struct {
	Title     string  `json:"title"`
	Content   string  `json:"content"`
	Relevance float64 `json:"relevance"`
	SourceURL string  `json:"sourceUrl,omitempty"`
}
