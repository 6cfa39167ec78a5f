// internal/search/orchestrator.go
package search

import (
	"context"
	"strings"
	"time"

	"github.com/curios-devops/curios-search/internal/common/errors"
	"github.com/curios-devops/curios-search/internal/common/logger"
	"github.com/curios-devops/curios-search/internal/common/metrics"
	"github.com/curios-devops/curios-search/internal/common/observability"
	"github.com/curios-devops/curios-search/internal/common/result"
	"github.com/curios-devops/curios-search/internal/models"
)

// TextProvider runs a text query against one upstream search service.
type TextProvider interface {
	Name() string
	Search(ctx context.Context, query string) (*models.ProviderResponse, error)
}

// ImageProvider runs a reverse image lookup against one upstream service.
type ImageProvider interface {
	Name() string
	SearchByImage(ctx context.Context, imageURL string) (*models.ProviderResponse, error)
}

// StatusFunc receives coarse progress updates during an orchestration.
// Callbacks are best-effort and must not block.
type StatusFunc func(status string)

const (
	branchImageText = "image_text"
	branchImageOnly = "image_only"
	branchTextOnly  = "text_only"

	placeholderTitle = "Search Unavailable"
	placeholderURL   = "https://search.brave.com"
)

// Options tune orchestration behavior.
type Options struct {
	// MaxResults caps web results and images in the final bundle.
	MaxResults int
	// FallbackDelay is how long to pause before trying the fallback
	// provider after the primary fails or returns nothing.
	FallbackDelay time.Duration
}

func (o *Options) applyDefaults() {
	if o.MaxResults <= 0 {
		o.MaxResults = 10
	}
	if o.FallbackDelay <= 0 {
		o.FallbackDelay = 1000 * time.Millisecond
	}
}

// Orchestrator routes a search request across providers and assembles a
// clean retrieval bundle. Provider failures degrade the bundle rather than
// surfacing as errors; the only error a caller sees is invalid input.
type Orchestrator struct {
	primary  TextProvider
	fallback TextProvider
	image    ImageProvider
	opts     Options
	history  *History
	obs      *observability.Observability
	logger   logger.Logger
}

func NewOrchestrator(
	primary TextProvider,
	fallback TextProvider,
	image ImageProvider,
	opts Options,
	history *History,
	obs *observability.Observability,
	log logger.Logger,
) *Orchestrator {
	opts.applyDefaults()
	return &Orchestrator{
		primary:  primary,
		fallback: fallback,
		image:    image,
		opts:     opts,
		history:  history,
		obs:      obs,
		logger:   log,
	}
}

// Retrieve runs one search. Exactly one branch executes depending on the
// presence of a query and image references. onStatus may be nil.
func (o *Orchestrator) Retrieve(ctx context.Context, query string, imageRefs []string, onStatus StatusFunc) (*models.RetrievalBundle, error) {
	query = strings.TrimSpace(query)
	if query == "" && len(imageRefs) == 0 {
		return nil, errors.NewInvalidInputError("query and image references are both empty")
	}

	notify := func(status string) {
		if onStatus != nil {
			onStatus(status)
		}
	}

	branch := branchTextOnly
	switch {
	case len(imageRefs) > 0 && query != "":
		branch = branchImageText
	case len(imageRefs) > 0:
		branch = branchImageOnly
	}

	ctx, span := o.obs.StartSpan(ctx, "search.retrieve")
	defer span.End()

	metrics.SearchesActive.Inc()
	defer metrics.SearchesActive.Dec()
	start := time.Now()
	defer func() {
		elapsed := time.Since(start)
		metrics.SearchDuration.WithLabelValues(branch).Observe(elapsed.Seconds())
		o.obs.RecordSearchDuration(ctx, elapsed, branch)
	}()

	var (
		bundle *models.RetrievalBundle
		err    error
	)
	switch branch {
	case branchImageText:
		bundle, err = o.retrieveImageText(ctx, query, imageRefs[0], notify)
	case branchImageOnly:
		bundle, err = o.retrieveImageOnly(ctx, imageRefs[0], notify)
	default:
		bundle, err = o.retrieveTextOnly(ctx, query, notify)
	}
	if err != nil {
		o.obs.RecordSearch(ctx, branch, "error")
		return nil, err
	}

	finalizeBundle(bundle, o.opts.MaxResults)

	degraded := len(bundle.Results) == 1 && bundle.Results[0].Title == placeholderTitle
	status := "ok"
	if degraded {
		status = "degraded"
	}
	o.obs.RecordSearch(ctx, branch, status)
	o.history.Append(HistoryEntry{
		Query:       query,
		Branch:      branch,
		ResultCount: len(bundle.Results),
		ImageCount:  len(bundle.Images),
		Degraded:    degraded,
		Timestamp:   time.Now().UTC(),
	})

	notify("complete")
	return bundle, nil
}

// retrieveImageText runs the reverse image lookup first, folds its pages and
// captions into an enriched text query, then runs the text chain on that.
func (o *Orchestrator) retrieveImageText(ctx context.Context, query, imageRef string, notify StatusFunc) (*models.RetrievalBundle, error) {
	notify("analyzing image")

	imageResp := o.searchImage(ctx, imageRef)

	enriched := query
	if imageResp != nil {
		enriched = BuildEnrichedQuery(query, imageResp)
	}

	notify("searching web")
	textResp := o.searchTextChain(ctx, enriched, notify)

	// The bundle's images come from the reverse image lookup alone; the text
	// provider contributes web results and videos only.
	bundle := &models.RetrievalBundle{
		Query:                query,
		IsReverseImageSearch: true,
	}
	if textResp != nil {
		bundle.Results = append(bundle.Results, textResp.Web...)
		bundle.Videos = append(bundle.Videos, textResp.Videos...)
	}
	if imageResp != nil {
		bundle.Images = append(bundle.Images, imageResp.Images...)
	}
	if len(bundle.Results) == 0 {
		bundle.Results = placeholderResults(query)
	}
	return bundle, nil
}

// retrieveImageOnly serves the bundle straight from the reverse image
// provider; there is no text fallback chain to run.
func (o *Orchestrator) retrieveImageOnly(ctx context.Context, imageRef string, notify StatusFunc) (*models.RetrievalBundle, error) {
	notify("analyzing image")

	bundle := &models.RetrievalBundle{
		Query:                imageRef,
		IsReverseImageSearch: true,
	}
	imageResp := o.searchImage(ctx, imageRef)
	mergeResponse(bundle, imageResp)
	if len(bundle.Results) == 0 {
		bundle.Results = placeholderResults(imageRef)
	}
	return bundle, nil
}

func (o *Orchestrator) retrieveTextOnly(ctx context.Context, query string, notify StatusFunc) (*models.RetrievalBundle, error) {
	notify("searching web")

	bundle := &models.RetrievalBundle{Query: query}
	mergeResponse(bundle, o.searchTextChain(ctx, query, notify))
	if len(bundle.Results) == 0 {
		bundle.Results = placeholderResults(query)
	}
	return bundle, nil
}

// searchTextChain tries the primary provider, then the fallback after a
// short delay when the primary errors or comes back empty. A chain where
// every provider fails yields nil; the caller substitutes the placeholder.
func (o *Orchestrator) searchTextChain(ctx context.Context, query string, notify StatusFunc) *models.ProviderResponse {
	primary := o.callText(ctx, o.primary, query)

	res := primary.OrElse(func(err error) result.Result[*models.ProviderResponse] {
		metrics.ProviderFallbacks.WithLabelValues(o.primary.Name(), o.fallback.Name()).Inc()
		o.logger.Warn("primary provider unusable, falling back", map[string]interface{}{
			"primary":  o.primary.Name(),
			"fallback": o.fallback.Name(),
			"error":    err.Error(),
		})
		notify("trying fallback provider")

		select {
		case <-time.After(o.opts.FallbackDelay):
		case <-ctx.Done():
			return result.Err[*models.ProviderResponse](ctx.Err())
		}
		return o.callText(ctx, o.fallback, query)
	})

	if !res.IsOk() {
		o.logger.Error("all text providers failed", map[string]interface{}{
			"query": query,
			"error": res.ErrValue().Error(),
		})
		return nil
	}
	return res.Value()
}

// callText normalizes a provider call into a Result. A response with neither
// web results nor images counts as a failure so the chain advances; images
// alone are enough to accept the response.
func (o *Orchestrator) callText(ctx context.Context, p TextProvider, query string) result.Result[*models.ProviderResponse] {
	resp, err := p.Search(ctx, query)
	if err != nil {
		metrics.ProviderRequests.WithLabelValues(p.Name(), "error").Inc()
		return result.Err[*models.ProviderResponse](err)
	}
	if resp == nil || (len(resp.Web) == 0 && len(resp.Images) == 0) {
		metrics.ProviderRequests.WithLabelValues(p.Name(), "empty").Inc()
		return result.Err[*models.ProviderResponse](errors.NewProviderFailedError(p.Name(), errors.ErrNoResults))
	}
	metrics.ProviderRequests.WithLabelValues(p.Name(), "success").Inc()
	return result.Ok(resp)
}

// searchImage is tolerant: a reverse image failure logs and returns nil so
// the enclosing branch can still produce a bundle.
func (o *Orchestrator) searchImage(ctx context.Context, imageRef string) *models.ProviderResponse {
	if o.image == nil {
		return nil
	}
	resp, err := o.image.SearchByImage(ctx, imageRef)
	if err != nil {
		metrics.ProviderRequests.WithLabelValues(o.image.Name(), "error").Inc()
		o.logger.Warn("reverse image search failed", map[string]interface{}{
			"provider": o.image.Name(),
			"error":    err.Error(),
		})
		return nil
	}
	metrics.ProviderRequests.WithLabelValues(o.image.Name(), "success").Inc()
	return resp
}

func mergeResponse(bundle *models.RetrievalBundle, resp *models.ProviderResponse) {
	if resp == nil {
		return
	}
	bundle.Results = append(bundle.Results, resp.Web...)
	bundle.Images = append(bundle.Images, resp.Images...)
	bundle.Videos = append(bundle.Videos, resp.Videos...)
}

// finalizeBundle applies the shared output hygiene: drop malformed entries,
// deduplicate by exact URL keeping the first occurrence, enforce HTTPS on
// images, and cap each list.
func finalizeBundle(bundle *models.RetrievalBundle, maxResults int) {
	bundle.Results = capResults(DeduplicateResults(sanitizeResults(bundle.Results)), maxResults)
	bundle.Images = capImages(filterImages(bundle.Images), maxResults)
	bundle.Videos = capVideos(bundle.Videos, maxResults)
}

// placeholderResults is the degraded output when no provider produced
// anything usable. Downstream consumers get a well-formed bundle either way.
func placeholderResults(query string) []models.SearchResult {
	return []models.SearchResult{
		{
			Title:   placeholderTitle,
			URL:     placeholderURL,
			Content: "Search services are temporarily unavailable. Please try again in a moment. Your query was: " + query,
		},
	}
}
