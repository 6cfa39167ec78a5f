// internal/answer/generator.go
package answer

import (
	"context"
	"fmt"
	"net/url"
	"strings"

	"github.com/curios-devops/curios-search/internal/common/logger"
	"github.com/curios-devops/curios-search/internal/models"
	"github.com/curios-devops/curios-search/internal/providers/openai"
)

const (
	maxPromptSources    = 8
	maxSourceContent    = 600
	cannedCitationCount = 5
	followUpTarget      = 5
)

// Completer is the LLM dependency; satisfied by providers/openai.Client.
type Completer interface {
	Complete(ctx context.Context, req openai.CompletionRequest) (string, error)
}

// Config selects the two models and generation parameters. VisionModel is
// the cheaper model used for reverse-image bundles.
type Config struct {
	TextModel   string
	VisionModel string
	Temperature float64
	MaxTokens   int
}

// Generator turns a retrieval bundle into a cited article. It never returns
// an error: LLM failure after retries yields the canned fallback article so
// callers always have something to render.
type Generator struct {
	llm    Completer
	config Config
	logger logger.Logger
}

func NewGenerator(llm Completer, config Config, log logger.Logger) *Generator {
	if config.TextModel == "" {
		config.TextModel = "gpt-4o"
	}
	if config.VisionModel == "" {
		config.VisionModel = "gpt-4o-mini"
	}
	return &Generator{llm: llm, config: config, logger: log}
}

// Generate produces the article for a bundle. onStatus may be nil.
func (g *Generator) Generate(ctx context.Context, bundle *models.RetrievalBundle, focus FocusMode, onStatus func(status string)) *models.ArticleResult {
	notify := func(status string) {
		if onStatus != nil {
			onStatus(status)
		}
	}
	notify("generating answer")

	sources := promptSources(bundle.Results)

	model := g.config.TextModel
	if bundle.IsReverseImageSearch {
		model = g.config.VisionModel
	}

	raw, err := g.llm.Complete(ctx, openai.CompletionRequest{
		Model:        model,
		SystemPrompt: buildSystemPrompt(focus),
		UserPrompt:   buildUserPrompt(bundle.Query, sources),
		Temperature:  g.config.Temperature,
		MaxTokens:    g.config.MaxTokens,
		JSONMode:     true,
	})
	if err != nil {
		g.logger.Error("answer generation failed, serving fallback", map[string]interface{}{
			"query": bundle.Query,
			"model": model,
			"error": err.Error(),
		})
		return FallbackArticle(bundle.Query, bundle.Results)
	}

	notify("answer ready")
	return ParseArticleResponse(raw, bundle.Query, bundle.Results)
}

// promptSource is one result as presented to the model.
type promptSource struct {
	SiteName string
	Title    string
	URL      string
	Content  string
}

// promptSources takes the top results, truncates their content and annotates
// each with its extracted site name.
func promptSources(results []models.SearchResult) []promptSource {
	if len(results) > maxPromptSources {
		results = results[:maxPromptSources]
	}

	sources := make([]promptSource, 0, len(results))
	for _, r := range results {
		content := r.Content
		// Slice on runes so multibyte content is not cut mid-character.
		if runes := []rune(content); len(runes) > maxSourceContent {
			content = string(runes[:maxSourceContent])
		}
		sources = append(sources, promptSource{
			SiteName: SiteName(r.URL),
			Title:    r.Title,
			URL:      r.URL,
			Content:  content,
		})
	}
	return sources
}

// SiteName extracts a short display name from a URL: hostname without the
// leading www. and without the trailing TLD segment. "https://www.example.com/x"
// becomes "example".
func SiteName(rawURL string) string {
	u, err := url.Parse(rawURL)
	if err != nil || u.Host == "" {
		return "source"
	}

	host := strings.TrimPrefix(strings.ToLower(u.Hostname()), "www.")
	if idx := strings.LastIndex(host, "."); idx > 0 {
		host = host[:idx]
	}
	if host == "" {
		return "source"
	}
	return host
}

func buildSystemPrompt(focus FocusMode) string {
	var b strings.Builder
	b.WriteString("You are a research assistant that writes well-structured, factual answers. ")
	b.WriteString("Ground every claim in the provided sources only; do not invent information. ")
	b.WriteString("Cite sources inline using [Website Name] for a single source and [Website Name +N] when N additional sources support the same claim. ")
	b.WriteString(focus.promptFragment())
	b.WriteString("\n\nRespond with a strict JSON object of the shape ")
	b.WriteString(`{"content": string, "followUpQuestions": string[5], "citations": [{"url": string, "title": string, "siteName": string}]}. `)
	b.WriteString("Return JSON only, with no surrounding prose or markdown fences.")
	return b.String()
}

func buildUserPrompt(query string, sources []promptSource) string {
	var b strings.Builder
	if query != "" {
		fmt.Fprintf(&b, "Question: %s\n\n", query)
	} else {
		b.WriteString("Summarize what these sources describe.\n\n")
	}

	b.WriteString("Sources:\n")
	for i, s := range sources {
		fmt.Fprintf(&b, "%d. [%s] %s (%s)\n%s\n\n", i+1, s.SiteName, s.Title, s.URL, s.Content)
	}
	return b.String()
}

// FallbackArticle is the canned response served when generation or parsing
// is beyond saving: fixed apology text, five follow-up questions templated
// from the query, and citations lifted straight from the top results.
func FallbackArticle(query string, results []models.SearchResult) *models.ArticleResult {
	topic := strings.TrimSpace(query)
	if topic == "" {
		topic = "this topic"
	}

	citations := make([]models.Citation, 0, cannedCitationCount)
	for i, r := range results {
		if i >= cannedCitationCount {
			break
		}
		citations = append(citations, models.Citation{
			URL:      r.URL,
			Title:    r.Title,
			SiteName: SiteName(r.URL),
		})
	}

	return &models.ArticleResult{
		Content: "We apologize, but we could not process your search at this time. " +
			"The sources below may still be useful. Please try again in a moment.",
		FollowUpQuestions: []string{
			fmt.Sprintf("What is %s?", topic),
			fmt.Sprintf("What are the key aspects of %s?", topic),
			fmt.Sprintf("How does %s work?", topic),
			fmt.Sprintf("What are common questions about %s?", topic),
			fmt.Sprintf("Where can I learn more about %s?", topic),
		},
		Citations: citations,
	}
}
