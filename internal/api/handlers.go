// internal/api/handlers.go
package api

import (
	"context"
	"io"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/xeipuuv/gojsonschema"

	"github.com/curios-devops/curios-search/internal/answer"
	"github.com/curios-devops/curios-search/internal/common/errors"
	"github.com/curios-devops/curios-search/internal/common/logger"
	"github.com/curios-devops/curios-search/internal/models"
	"github.com/curios-devops/curios-search/internal/providers/openai"
	"github.com/curios-devops/curios-search/internal/search"
	"github.com/curios-devops/curios-search/internal/uploads"
)

// Retriever is the orchestration dependency.
type Retriever interface {
	Retrieve(ctx context.Context, query string, imageRefs []string, onStatus search.StatusFunc) (*models.RetrievalBundle, error)
}

// AnswerGenerator turns a bundle into an article.
type AnswerGenerator interface {
	Generate(ctx context.Context, bundle *models.RetrievalBundle, focus answer.FocusMode, onStatus func(status string)) *models.ArticleResult
}

// PerspectiveGenerator produces alternate angles on a query.
type PerspectiveGenerator interface {
	Generate(ctx context.Context, query string, pro bool) ([]models.Perspective, error)
}

// UploadStore holds transient image uploads.
type UploadStore interface {
	Put(ctx context.Context, url, contentType string) (*uploads.Upload, error)
	Get(ctx context.Context, id string) (*uploads.Upload, error)
	Cleanup(ctx context.Context, id string)
}

// Completer proxies raw LLM calls for the fetch-openai endpoint.
type Completer interface {
	Complete(ctx context.Context, req openai.CompletionRequest) (string, error)
}

type errorResponse struct {
	Error     string    `json:"error"`
	Code      string    `json:"code"`
	Timestamp time.Time `json:"timestamp"`
}

// Handler holds the HTTP request handlers and their dependencies.
type Handler struct {
	retriever    Retriever
	generator    AnswerGenerator
	perspectives PerspectiveGenerator
	uploadStore  UploadStore
	llm          Completer
	history      *search.History
	logger       logger.Logger

	searchSchema       *gojsonschema.Schema
	perspectivesSchema *gojsonschema.Schema
	fetchOpenAISchema  *gojsonschema.Schema
	uploadSchema       *gojsonschema.Schema
}

func NewHandler(
	retriever Retriever,
	generator AnswerGenerator,
	perspectives PerspectiveGenerator,
	uploadStore UploadStore,
	llm Completer,
	history *search.History,
	log logger.Logger,
) *Handler {
	return &Handler{
		retriever:          retriever,
		generator:          generator,
		perspectives:       perspectives,
		uploadStore:        uploadStore,
		llm:                llm,
		history:            history,
		logger:             log,
		searchSchema:       mustCompileSchema(searchRequestSchema),
		perspectivesSchema: mustCompileSchema(perspectivesRequestSchema),
		fetchOpenAISchema:  mustCompileSchema(fetchOpenAIRequestSchema),
		uploadSchema:       mustCompileSchema(uploadRequestSchema),
	}
}

// readValidatedBody reads the request body and validates it against a schema.
func (h *Handler) readValidatedBody(c *gin.Context, schema *gojsonschema.Schema) ([]byte, bool) {
	body, err := io.ReadAll(c.Request.Body)
	if err != nil {
		h.badRequest(c, "could not read request body")
		return nil, false
	}
	if err := validateBody(schema, body); err != nil {
		h.badRequest(c, err.Error())
		return nil, false
	}
	return body, true
}

func (h *Handler) badRequest(c *gin.Context, msg string) {
	c.JSON(http.StatusBadRequest, errorResponse{
		Error:     msg,
		Code:      string(errors.ErrCodeInvalidInput),
		Timestamp: time.Now().UTC(),
	})
}

// ==========================
// Search
// ==========================

type searchRequest struct {
	Query     string   `json:"query"`
	ImageRefs []string `json:"image_refs"`
	UploadIDs []string `json:"upload_ids"`
	FocusMode string   `json:"focus_mode"`
	Pro       bool     `json:"pro"`
}

type searchResponse struct {
	*models.RetrievalBundle
	Article *models.ArticleResult `json:"article"`
}

// Search runs the full pipeline: retrieval, answer generation, and cleanup
// of any transient uploads referenced by the request.
func (h *Handler) Search(c *gin.Context) {
	body, ok := h.readValidatedBody(c, h.searchSchema)
	if !ok {
		return
	}

	var req searchRequest
	if err := bindJSON(body, &req); err != nil {
		h.badRequest(c, err.Error())
		return
	}

	imageRefs := req.ImageRefs
	for _, id := range req.UploadIDs {
		upload, err := h.uploadStore.Get(c.Request.Context(), id)
		if err != nil {
			h.logger.Warn("referenced upload not found", map[string]interface{}{"id": id})
			continue
		}
		imageRefs = append(imageRefs, upload.URL)
	}

	bundle, err := h.retriever.Retrieve(c.Request.Context(), req.Query, imageRefs, nil)
	if err != nil {
		h.badRequest(c, err.Error())
		return
	}

	article := h.generator.Generate(c.Request.Context(), bundle, answer.ParseFocusMode(req.FocusMode), nil)

	for _, id := range req.UploadIDs {
		h.uploadStore.Cleanup(c.Request.Context(), id)
	}

	c.JSON(http.StatusOK, searchResponse{RetrievalBundle: bundle, Article: article})
}

// ==========================
// Perspectives
// ==========================

type perspectivesRequest struct {
	Query string `json:"query"`
	Pro   bool   `json:"pro"`
}

func (h *Handler) Perspectives(c *gin.Context) {
	body, ok := h.readValidatedBody(c, h.perspectivesSchema)
	if !ok {
		return
	}

	var req perspectivesRequest
	if err := bindJSON(body, &req); err != nil {
		h.badRequest(c, err.Error())
		return
	}

	perspectives, err := h.perspectives.Generate(c.Request.Context(), req.Query, req.Pro)
	if err != nil {
		h.badRequest(c, err.Error())
		return
	}

	c.JSON(http.StatusOK, gin.H{"perspectives": perspectives})
}

// ==========================
// OpenAI proxy
// ==========================

type fetchOpenAIRequest struct {
	Query           string  `json:"query"`
	Prompt          string  `json:"prompt"`
	Model           string  `json:"model"`
	Temperature     float64 `json:"temperature"`
	MaxOutputTokens int     `json:"max_output_tokens"`
}

// FetchOpenAI proxies a raw completion call so API keys never reach clients.
func (h *Handler) FetchOpenAI(c *gin.Context) {
	body, ok := h.readValidatedBody(c, h.fetchOpenAISchema)
	if !ok {
		return
	}

	var req fetchOpenAIRequest
	if err := bindJSON(body, &req); err != nil {
		h.badRequest(c, err.Error())
		return
	}

	prompt := req.Prompt
	if prompt == "" {
		prompt = req.Query
	}
	if prompt == "" {
		h.badRequest(c, "either query or prompt is required")
		return
	}

	model := req.Model
	if model == "" {
		model = "gpt-4o-mini"
	}

	content, err := h.llm.Complete(c.Request.Context(), openai.CompletionRequest{
		Model:       model,
		UserPrompt:  prompt,
		Temperature: req.Temperature,
		MaxTokens:   req.MaxOutputTokens,
	})
	if err != nil {
		c.JSON(http.StatusBadGateway, gin.H{"success": false, "error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{"success": true, "content": content})
}

// ==========================
// Uploads
// ==========================

type uploadRequest struct {
	URL         string `json:"url"`
	ContentType string `json:"content_type"`
}

func (h *Handler) CreateUpload(c *gin.Context) {
	body, ok := h.readValidatedBody(c, h.uploadSchema)
	if !ok {
		return
	}

	var req uploadRequest
	if err := bindJSON(body, &req); err != nil {
		h.badRequest(c, err.Error())
		return
	}

	upload, err := h.uploadStore.Put(c.Request.Context(), req.URL, req.ContentType)
	if err != nil {
		c.JSON(http.StatusInternalServerError, errorResponse{
			Error:     "could not store upload",
			Code:      string(errors.CodeOf(err)),
			Timestamp: time.Now().UTC(),
		})
		return
	}

	c.JSON(http.StatusCreated, upload)
}

// ==========================
// Introspection
// ==========================

func (h *Handler) History(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"entries": h.history.Snapshot()})
}

func (h *Handler) Health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}
