// internal/perspective/agent.go
package perspective

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/curios-devops/curios-search/internal/common/logger"
	"github.com/curios-devops/curios-search/internal/models"
	"github.com/curios-devops/curios-search/internal/providers/openai"
	"github.com/curios-devops/curios-search/internal/search"
)

const (
	perspectiveTarget = 5
	defaultRelevance  = 0.5
	maxContextResults = 10
)

// Completer is the LLM dependency; satisfied by providers/openai.Client.
type Completer interface {
	Complete(ctx context.Context, req openai.CompletionRequest) (string, error)
}

// Config selects the model used for perspective generation.
type Config struct {
	Model       string
	Temperature float64
	MaxTokens   int
}

// Agent produces alternate angles on a query. In pro mode it gathers context
// from two providers concurrently; in regular mode only the primary runs.
// LLM failure degrades to pseudo-perspectives built from the raw results, so
// the agent never returns an error once it has any results at all.
type Agent struct {
	primary   search.TextProvider
	secondary search.TextProvider
	llm       Completer
	config    Config
	logger    logger.Logger
}

func NewAgent(primary, secondary search.TextProvider, llm Completer, config Config, log logger.Logger) *Agent {
	if config.Model == "" {
		config.Model = "gpt-4o-mini"
	}
	return &Agent{
		primary:   primary,
		secondary: secondary,
		llm:       llm,
		config:    config,
		logger:    log,
	}
}

// Generate returns up to 5 perspectives for the query. Pro mode fans out to
// both providers; regular mode uses only the primary.
func (a *Agent) Generate(ctx context.Context, query string, pro bool) ([]models.Perspective, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return nil, fmt.Errorf("perspective query is empty")
	}

	results := a.gatherContext(ctx, query, pro)
	if len(results) == 0 {
		return nil, nil
	}

	perspectives, err := a.generateWithLLM(ctx, query, results)
	if err != nil {
		a.logger.Warn("perspective generation degraded to raw results", map[string]interface{}{
			"query": query,
			"error": err.Error(),
		})
		return pseudoPerspectives(results), nil
	}
	return perspectives, nil
}

// gatherContext collects provider results. Pro mode runs both providers
// concurrently and waits for both to settle; a failed provider contributes
// nothing rather than failing the call.
func (a *Agent) gatherContext(ctx context.Context, query string, pro bool) []models.SearchResult {
	providers := []search.TextProvider{a.primary}
	if pro && a.secondary != nil {
		providers = append(providers, a.secondary)
	}

	responses := make([]*models.ProviderResponse, len(providers))
	var wg sync.WaitGroup
	for i, p := range providers {
		wg.Add(1)
		go func(idx int, provider search.TextProvider) {
			defer wg.Done()
			resp, err := provider.Search(ctx, query)
			if err != nil {
				a.logger.Warn("perspective context provider failed", map[string]interface{}{
					"provider": provider.Name(),
					"error":    err.Error(),
				})
				return
			}
			responses[idx] = resp
		}(i, p)
	}
	wg.Wait()

	var merged []models.SearchResult
	for _, resp := range responses {
		if resp != nil {
			merged = append(merged, resp.Web...)
		}
	}

	merged = search.DeduplicateResults(merged)
	for i := range merged {
		if merged[i].Score == 0 {
			merged[i].Score = defaultRelevance
		}
	}
	sort.SliceStable(merged, func(i, j int) bool {
		return merged[i].Score > merged[j].Score
	})

	if len(merged) > maxContextResults {
		merged = merged[:maxContextResults]
	}
	return merged
}

func (a *Agent) generateWithLLM(ctx context.Context, query string, results []models.SearchResult) ([]models.Perspective, error) {
	var b strings.Builder
	fmt.Fprintf(&b, "Query: %s\n\nContext results:\n", query)
	for i, r := range results {
		fmt.Fprintf(&b, "%d. %s (%s)\n%s\n\n", i+1, r.Title, r.URL, r.Content)
	}

	raw, err := a.llm.Complete(ctx, openai.CompletionRequest{
		Model: a.config.Model,
		SystemPrompt: "You explore alternate angles on a question. From the query and context, produce exactly 5 distinct perspectives: " +
			"each a short question a curious reader might ask next, with a two-sentence explanation grounded in the context. " +
			`Respond with strict JSON: {"perspectives": [{"title": string, "content": string, "relevance": number}]}. Return JSON only.`,
		UserPrompt:  b.String(),
		Temperature: a.config.Temperature,
		MaxTokens:   a.config.MaxTokens,
		JSONMode:    true,
	})
	if err != nil {
		return nil, err
	}

	var parsed struct {
		Perspectives []models.Perspective `json:"perspectives"`
	}
	if err := json.Unmarshal([]byte(raw), &parsed); err != nil {
		return nil, fmt.Errorf("decoding perspectives: %w", err)
	}
	if len(parsed.Perspectives) == 0 {
		return nil, fmt.Errorf("model returned no perspectives")
	}

	perspectives := parsed.Perspectives
	for i := range perspectives {
		if perspectives[i].Relevance == 0 {
			perspectives[i].Relevance = defaultRelevance
		}
	}
	if len(perspectives) > perspectiveTarget {
		perspectives = perspectives[:perspectiveTarget]
	}
	return perspectives, nil
}

// pseudoPerspectives wraps raw results directly when the LLM is unavailable.
func pseudoPerspectives(results []models.SearchResult) []models.Perspective {
	n := len(results)
	if n > perspectiveTarget {
		n = perspectiveTarget
	}

	perspectives := make([]models.Perspective, 0, n)
	for _, r := range results[:n] {
		perspectives = append(perspectives, models.Perspective{
			Title:     r.Title,
			Content:   r.Content,
			Relevance: r.Score,
			SourceURL: r.URL,
		})
	}
	return perspectives
}
