// internal/api/handlers_test.go
package api

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/curios-devops/curios-search/internal/answer"
	"github.com/curios-devops/curios-search/internal/common/errors"
	"github.com/curios-devops/curios-search/internal/common/logger"
	"github.com/curios-devops/curios-search/internal/models"
	"github.com/curios-devops/curios-search/internal/providers/openai"
	"github.com/curios-devops/curios-search/internal/search"
	"github.com/curios-devops/curios-search/internal/uploads"
)

// ==========================
// Test Helper Functions
// ==========================

type stubRetriever struct {
	bundle *models.RetrievalBundle
	err    error
	query  string
	refs   []string
}

func (s *stubRetriever) Retrieve(_ context.Context, query string, imageRefs []string, _ search.StatusFunc) (*models.RetrievalBundle, error) {
	s.query = query
	s.refs = imageRefs
	if s.err != nil {
		return nil, s.err
	}
	return s.bundle, nil
}

type stubGenerator struct {
	article *models.ArticleResult
	focus   answer.FocusMode
}

func (s *stubGenerator) Generate(_ context.Context, _ *models.RetrievalBundle, focus answer.FocusMode, _ func(string)) *models.ArticleResult {
	s.focus = focus
	return s.article
}

type stubPerspectives struct {
	perspectives []models.Perspective
	err          error
	pro          bool
}

func (s *stubPerspectives) Generate(_ context.Context, _ string, pro bool) ([]models.Perspective, error) {
	s.pro = pro
	if s.err != nil {
		return nil, s.err
	}
	return s.perspectives, nil
}

type stubUploadStore struct {
	uploads map[string]*uploads.Upload
	putErr  error
	cleaned []string
	lastPut *uploads.Upload
}

func (s *stubUploadStore) Put(_ context.Context, url, contentType string) (*uploads.Upload, error) {
	if s.putErr != nil {
		return nil, s.putErr
	}
	u := &uploads.Upload{ID: "generated-id", URL: url, ContentType: contentType}
	s.lastPut = u
	return u, nil
}

func (s *stubUploadStore) Get(_ context.Context, id string) (*uploads.Upload, error) {
	if u, ok := s.uploads[id]; ok {
		return u, nil
	}
	return nil, assert.AnError
}

func (s *stubUploadStore) Cleanup(_ context.Context, id string) {
	s.cleaned = append(s.cleaned, id)
}

type stubCompleter struct {
	response string
	err      error
}

func (s *stubCompleter) Complete(_ context.Context, _ openai.CompletionRequest) (string, error) {
	if s.err != nil {
		return "", s.err
	}
	return s.response, nil
}

type testDeps struct {
	retriever    *stubRetriever
	generator    *stubGenerator
	perspectives *stubPerspectives
	uploadStore  *stubUploadStore
	llm          *stubCompleter
	history      *search.History
}

func newTestRouter(t *testing.T, deps *testDeps) *gin.Engine {
	gin.SetMode(gin.TestMode)

	if deps.retriever == nil {
		deps.retriever = &stubRetriever{bundle: &models.RetrievalBundle{Query: "q"}}
	}
	if deps.generator == nil {
		deps.generator = &stubGenerator{article: &models.ArticleResult{Content: "answer"}}
	}
	if deps.perspectives == nil {
		deps.perspectives = &stubPerspectives{}
	}
	if deps.uploadStore == nil {
		deps.uploadStore = &stubUploadStore{uploads: map[string]*uploads.Upload{}}
	}
	if deps.llm == nil {
		deps.llm = &stubCompleter{response: "ok"}
	}
	if deps.history == nil {
		deps.history = search.NewHistory(10)
	}

	handler := NewHandler(
		deps.retriever,
		deps.generator,
		deps.perspectives,
		deps.uploadStore,
		deps.llm,
		deps.history,
		logger.NewTestLogger(t),
	)

	engine := gin.New()
	setupRoutes(engine, handler, nil)
	return engine
}

func doJSON(t *testing.T, engine *gin.Engine, method, path string, body interface{}) *httptest.ResponseRecorder {
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	engine.ServeHTTP(w, req)
	return w
}

// ==========================
// Search Endpoint Tests
// ==========================

func TestSearch_Success(t *testing.T) {
	deps := &testDeps{
		retriever: &stubRetriever{bundle: &models.RetrievalBundle{
			Query:   "golang",
			Results: []models.SearchResult{{Title: "r", URL: "https://example.com", Content: "c"}},
		}},
		generator: &stubGenerator{article: &models.ArticleResult{Content: "generated answer"}},
	}
	engine := newTestRouter(t, deps)

	w := doJSON(t, engine, http.MethodPost, "/api/search", gin.H{"query": "golang"})

	require.Equal(t, http.StatusOK, w.Code)
	var resp searchResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "golang", resp.Query)
	assert.Equal(t, "generated answer", resp.Article.Content)
	assert.Equal(t, "golang", deps.retriever.query)
}

func TestSearch_FocusModePassedThrough(t *testing.T) {
	deps := &testDeps{generator: &stubGenerator{article: &models.ArticleResult{Content: "a"}}}
	engine := newTestRouter(t, deps)

	w := doJSON(t, engine, http.MethodPost, "/api/search", gin.H{"query": "golang", "focus_mode": "academic"})

	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, answer.FocusAcademic, deps.generator.focus)
}

func TestSearch_UploadIDsResolvedAndCleaned(t *testing.T) {
	deps := &testDeps{
		uploadStore: &stubUploadStore{uploads: map[string]*uploads.Upload{
			"u1": {ID: "u1", URL: "https://uploads.example.com/photo.jpg"},
		}},
	}
	engine := newTestRouter(t, deps)

	w := doJSON(t, engine, http.MethodPost, "/api/search", gin.H{
		"query":      "what is this",
		"upload_ids": []string{"u1"},
	})

	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, []string{"https://uploads.example.com/photo.jpg"}, deps.retriever.refs)
	assert.Equal(t, []string{"u1"}, deps.uploadStore.cleaned, "uploads must be cleaned up after the search")
}

func TestSearch_InvalidInput(t *testing.T) {
	deps := &testDeps{retriever: &stubRetriever{err: errors.NewInvalidInputError("empty")}}
	engine := newTestRouter(t, deps)

	w := doJSON(t, engine, http.MethodPost, "/api/search", gin.H{"query": ""})

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestSearch_SchemaRejectsUnknownFields(t *testing.T) {
	engine := newTestRouter(t, &testDeps{})

	w := doJSON(t, engine, http.MethodPost, "/api/search", gin.H{"query": "x", "bogus": true})

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), "validation failed")
}

func TestSearch_MalformedJSON(t *testing.T) {
	engine := newTestRouter(t, &testDeps{})

	req := httptest.NewRequest(http.MethodPost, "/api/search", bytes.NewBufferString("{not json"))
	w := httptest.NewRecorder()
	engine.ServeHTTP(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

// ==========================
// Perspectives Endpoint Tests
// ==========================

func TestPerspectives_Success(t *testing.T) {
	deps := &testDeps{perspectives: &stubPerspectives{perspectives: []models.Perspective{
		{Title: "Angle?", Content: "Because.", Relevance: 0.8},
	}}}
	engine := newTestRouter(t, deps)

	w := doJSON(t, engine, http.MethodPost, "/api/perspectives", gin.H{"query": "golang", "pro": true})

	require.Equal(t, http.StatusOK, w.Code)
	assert.True(t, deps.perspectives.pro)
	assert.Contains(t, w.Body.String(), "Angle?")
}

func TestPerspectives_RequiresQuery(t *testing.T) {
	engine := newTestRouter(t, &testDeps{})

	w := doJSON(t, engine, http.MethodPost, "/api/perspectives", gin.H{"pro": true})

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

// ==========================
// OpenAI Proxy Tests
// ==========================

func TestFetchOpenAI_Success(t *testing.T) {
	deps := &testDeps{llm: &stubCompleter{response: "model output"}}
	engine := newTestRouter(t, deps)

	w := doJSON(t, engine, http.MethodPost, "/api/fetch-openai", gin.H{"prompt": "say hi"})

	require.Equal(t, http.StatusOK, w.Code)
	var resp map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, true, resp["success"])
	assert.Equal(t, "model output", resp["content"])
}

func TestFetchOpenAI_QueryAlias(t *testing.T) {
	engine := newTestRouter(t, &testDeps{llm: &stubCompleter{response: "out"}})

	w := doJSON(t, engine, http.MethodPost, "/api/fetch-openai", gin.H{"query": "say hi"})

	assert.Equal(t, http.StatusOK, w.Code)
}

func TestFetchOpenAI_MissingPrompt(t *testing.T) {
	engine := newTestRouter(t, &testDeps{})

	w := doJSON(t, engine, http.MethodPost, "/api/fetch-openai", gin.H{"model": "gpt-4o"})

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestFetchOpenAI_UpstreamFailure(t *testing.T) {
	deps := &testDeps{llm: &stubCompleter{err: errors.NewAnswerGenerationFailedError(assert.AnError)}}
	engine := newTestRouter(t, deps)

	w := doJSON(t, engine, http.MethodPost, "/api/fetch-openai", gin.H{"prompt": "hi"})

	assert.Equal(t, http.StatusBadGateway, w.Code)
	assert.Contains(t, w.Body.String(), `"success":false`)
}

// ==========================
// Uploads Endpoint Tests
// ==========================

func TestCreateUpload_Success(t *testing.T) {
	engine := newTestRouter(t, &testDeps{})

	w := doJSON(t, engine, http.MethodPost, "/api/uploads", gin.H{
		"url":          "https://uploads.example.com/photo.jpg",
		"content_type": "image/jpeg",
	})

	require.Equal(t, http.StatusCreated, w.Code)
	assert.Contains(t, w.Body.String(), "generated-id")
}

func TestCreateUpload_RequiresURL(t *testing.T) {
	engine := newTestRouter(t, &testDeps{})

	w := doJSON(t, engine, http.MethodPost, "/api/uploads", gin.H{"content_type": "image/jpeg"})

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestCreateUpload_StoreFailure(t *testing.T) {
	deps := &testDeps{uploadStore: &stubUploadStore{putErr: errors.NewUploadStoreFailedError(assert.AnError)}}
	engine := newTestRouter(t, deps)

	w := doJSON(t, engine, http.MethodPost, "/api/uploads", gin.H{"url": "https://uploads.example.com/p.jpg"})

	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.Contains(t, w.Body.String(), string(errors.ErrCodeUploadStoreFailed))
}

// ==========================
// Introspection Tests
// ==========================

func TestHistory_ReturnsEntries(t *testing.T) {
	history := search.NewHistory(10)
	history.Append(search.HistoryEntry{Query: "recorded", Branch: "text_only"})
	engine := newTestRouter(t, &testDeps{history: history})

	req := httptest.NewRequest(http.MethodGet, "/api/history", nil)
	w := httptest.NewRecorder()
	engine.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "recorded")
}

func TestHealthz(t *testing.T) {
	engine := newTestRouter(t, &testDeps{})

	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	w := httptest.NewRecorder()
	engine.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
}

func TestReadyz_NoChecker(t *testing.T) {
	engine := newTestRouter(t, &testDeps{})

	req := httptest.NewRequest(http.MethodGet, "/readyz", nil)
	w := httptest.NewRecorder()
	engine.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
}
