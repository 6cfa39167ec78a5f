// test/e2e/e2e_test.go
package e2e

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/curios-devops/curios-search/internal/answer"
	"github.com/curios-devops/curios-search/internal/api"
	"github.com/curios-devops/curios-search/internal/common/config"
	"github.com/curios-devops/curios-search/internal/common/logger"
	"github.com/curios-devops/curios-search/internal/common/observability"
	"github.com/curios-devops/curios-search/internal/perspective"
	"github.com/curios-devops/curios-search/internal/providers/apify"
	"github.com/curios-devops/curios-search/internal/providers/bingvision"
	"github.com/curios-devops/curios-search/internal/providers/brave"
	"github.com/curios-devops/curios-search/internal/providers/openai"
	"github.com/curios-devops/curios-search/internal/providers/tavily"
	"github.com/curios-devops/curios-search/internal/search"
	"github.com/curios-devops/curios-search/internal/uploads"
)

// ==========================
// Fake Upstream Services
// ==========================

// fakeBrave serves the three Brave endpoints. Failing can be toggled to
// exercise the fallback chain.
type fakeBrave struct {
	server  *httptest.Server
	failing atomic.Bool
}

func newFakeBrave() *fakeBrave {
	f := &fakeBrave{}
	mux := http.NewServeMux()
	mux.HandleFunc("/web/search", func(w http.ResponseWriter, r *http.Request) {
		if f.failing.Load() {
			w.WriteHeader(http.StatusInternalServerError)
			return
		}
		json.NewEncoder(w).Encode(map[string]interface{}{
			"web": map[string]interface{}{
				"results": []map[string]string{
					{"title": "Brave result one", "url": "https://one.example.com/a", "description": "first"},
					{"title": "Brave result two", "url": "https://two.example.com/b", "description": "second"},
				},
			},
		})
	})
	mux.HandleFunc("/images/search", func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]interface{}{
			"results": []map[string]interface{}{
				{"title": "an image", "url": "https://one.example.com/a", "properties": map[string]string{"url": "https://img.example.com/a.jpg"}},
			},
		})
	})
	mux.HandleFunc("/videos/search", func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]interface{}{"results": []map[string]interface{}{}})
	})
	f.server = httptest.NewServer(mux)
	return f
}

func newFakeApify() *httptest.Server {
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode([]map[string]interface{}{
			{
				"organicResults": []map[string]string{
					{"title": "Apify fallback result", "url": "https://fallback.example.com/x", "description": "from the fallback"},
				},
				"relatedImages": []map[string]string{},
			},
		})
	}))
}

func newFakeBing() *httptest.Server {
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]interface{}{
			"pagesIncluding": map[string]interface{}{
				"value": []map[string]string{
					{"name": "Golden Gate Bridge photos", "hostPageUrl": "https://photos.example.com/gg", "snippet": "bridge page"},
				},
			},
			"visuallySimilarImages": map[string]interface{}{
				"value": []map[string]string{
					{"name": "similar bridge", "contentUrl": "https://img.example.com/similar.jpg", "hostPageUrl": "https://photos.example.com/gg"},
				},
			},
		})
	}))
}

func newFakeOpenAI(content string) *httptest.Server {
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		payload, _ := json.Marshal(content)
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"choices": [{"message": {"content": ` + string(payload) + `}}]}`))
	}))
}

// ==========================
// Pipeline Assembly
// ==========================

func testConfig() *config.Config {
	return &config.Config{
		App: config.AppConfig{Name: "curios-search-test", Environment: "test"},
		Server: config.ServerConfig{
			Port:         0,
			ReadTimeout:  30000,
			WriteTimeout: 60000,
			IdleTimeout:  120000,
		},
	}
}

type pipeline struct {
	engine  *gin.Engine
	brave   *fakeBrave
	history *search.History
}

func buildPipeline(t *testing.T) *pipeline {
	gin.SetMode(gin.TestMode)
	log := logger.NewTestLogger(t)

	fb := newFakeBrave()
	t.Cleanup(fb.server.Close)
	apifyServer := newFakeApify()
	t.Cleanup(apifyServer.Close)
	bingServer := newFakeBing()
	t.Cleanup(bingServer.Close)
	openaiServer := newFakeOpenAI(`{"content": "A grounded answer [one.example].", "followUpQuestions": ["A?", "B?", "C?", "D?", "E?"], "citations": [{"url": "https://one.example.com/a", "title": "Brave result one", "siteName": "one.example"}]}`)
	t.Cleanup(openaiServer.Close)

	braveClient := brave.NewClient(&brave.Config{
		BaseURL: fb.server.URL,
		APIKey:  "test-key",
		Timeout: 2 * time.Second,
		Count:   10,
	}, log)
	apifyClient := apify.NewClient(&apify.Config{
		BaseURL: apifyServer.URL,
		Token:   "test-token",
		ActorID: "test-actor",
		Timeout: 2 * time.Second,
	}, log)
	bingClient := bingvision.NewClient(&bingvision.Config{
		BaseURL: bingServer.URL,
		APIKey:  "test-key",
		Timeout: 2 * time.Second,
	}, log)
	tavilyClient := tavily.NewClient(&tavily.Config{
		BaseURL: fb.server.URL, // unused unless pro perspectives run
		APIKey:  "test-key",
		Timeout: 2 * time.Second,
	}, log)
	openaiClient := openai.NewClient(&openai.Config{
		BaseURL:    openaiServer.URL,
		APIKey:     "test-key",
		MaxRetries: 1,
		BaseDelay:  time.Millisecond,
	}, log)

	history := search.NewHistory(20)
	orchestrator := search.NewOrchestrator(
		braveClient,
		apifyClient,
		bingClient,
		search.Options{MaxResults: 10, FallbackDelay: 10 * time.Millisecond},
		history,
		observability.NewNoop(),
		log,
	)
	generator := answer.NewGenerator(openaiClient, answer.Config{}, log)
	perspectiveAgent := perspective.NewAgent(tavilyClient, braveClient, openaiClient, perspective.Config{}, log)

	mr := miniredis.RunT(t)
	uploadStore := uploads.NewStore(
		redis.NewClient(&redis.Options{Addr: mr.Addr()}),
		time.Minute,
		log,
	)

	handler := api.NewHandler(orchestrator, generator, perspectiveAgent, uploadStore, openaiClient, history, log)
	server := api.NewServer(testConfig(), handler, nil, log)

	return &pipeline{engine: server.Engine(), brave: fb, history: history}
}

func (p *pipeline) post(t *testing.T, path string, body interface{}) *httptest.ResponseRecorder {
	var buf bytes.Buffer
	require.NoError(t, json.NewEncoder(&buf).Encode(body))
	req := httptest.NewRequest(http.MethodPost, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	p.engine.ServeHTTP(w, req)
	return w
}

// ==========================
// End-to-End Tests
// ==========================

func TestE2E_TextSearch(t *testing.T) {
	p := buildPipeline(t)

	w := p.post(t, "/api/search", map[string]interface{}{"query": "golden gate bridge"})

	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	var resp struct {
		Query   string `json:"query"`
		Results []struct {
			Title string `json:"title"`
			URL   string `json:"url"`
		} `json:"results"`
		Article struct {
			Content           string   `json:"content"`
			FollowUpQuestions []string `json:"followUpQuestions"`
		} `json:"article"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))

	assert.Equal(t, "golden gate bridge", resp.Query)
	require.Len(t, resp.Results, 2)
	assert.Equal(t, "Brave result one", resp.Results[0].Title)
	assert.Contains(t, resp.Article.Content, "grounded answer")
	assert.Len(t, resp.Article.FollowUpQuestions, 5)
}

func TestE2E_FallbackChain(t *testing.T) {
	p := buildPipeline(t)
	p.brave.failing.Store(true)

	w := p.post(t, "/api/search", map[string]interface{}{"query": "golden gate bridge"})

	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Contains(t, w.Body.String(), "Apify fallback result",
		"primary failure must surface fallback provider results")
}

func TestE2E_ReverseImageSearch(t *testing.T) {
	p := buildPipeline(t)

	// store an upload, search with it, then confirm cleanup
	w := p.post(t, "/api/uploads", map[string]interface{}{
		"url":          "https://uploads.example.com/bridge.jpg",
		"content_type": "image/jpeg",
	})
	require.Equal(t, http.StatusCreated, w.Code)
	var upload struct {
		ID string `json:"id"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &upload))

	w = p.post(t, "/api/search", map[string]interface{}{
		"upload_ids": []string{upload.ID},
	})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Contains(t, w.Body.String(), `"isReverseImageSearch":true`)
	assert.Contains(t, w.Body.String(), "Golden Gate Bridge photos")
}

func TestE2E_Perspectives(t *testing.T) {
	p := buildPipeline(t)

	w := p.post(t, "/api/perspectives", map[string]interface{}{"query": "golden gate bridge", "pro": true})

	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Contains(t, w.Body.String(), "perspectives")
}

func TestE2E_HistoryRecordsSearches(t *testing.T) {
	p := buildPipeline(t)

	p.post(t, "/api/search", map[string]interface{}{"query": "first query"})
	p.post(t, "/api/search", map[string]interface{}{"query": "second query"})

	req := httptest.NewRequest(http.MethodGet, "/api/history", nil)
	w := httptest.NewRecorder()
	p.engine.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "first query")
	assert.Contains(t, w.Body.String(), "second query")
}

func TestE2E_InvalidRequest(t *testing.T) {
	p := buildPipeline(t)

	w := p.post(t, "/api/search", map[string]interface{}{"query": ""})

	assert.Equal(t, http.StatusBadRequest, w.Code)
}
