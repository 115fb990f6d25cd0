package rest

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/heartmarshall/kotoba-backend/internal/adapter/lock"
	"github.com/heartmarshall/kotoba-backend/internal/adapter/memstore"
	"github.com/heartmarshall/kotoba-backend/internal/config"
	"github.com/heartmarshall/kotoba-backend/internal/domain"
	"github.com/heartmarshall/kotoba-backend/internal/parser"
	"github.com/heartmarshall/kotoba-backend/internal/service/integration"
	"github.com/heartmarshall/kotoba-backend/internal/service/learning"
	"github.com/heartmarshall/kotoba-backend/internal/service/parsing"
	"github.com/heartmarshall/kotoba-backend/internal/transport/middleware"
)

const cardBlob = `【文章标题】猫の話

📘 第1句
【日文原文】猫が好きです。
【罗马音】neko ga suki desu.
【中文翻译】我喜欢猫。
【句子结构】名词 + が + 形容动词 + です
【词汇解析表】
猫｜neko｜猫
好き｜suki｜喜欢
`

type analyzerStub struct {
	out string
	err error
}

func (a analyzerStub) Analyze(_ context.Context, _ string) (string, error) {
	return a.out, a.err
}

type server struct {
	store   *memstore.Store
	handler http.Handler
}

func newServer(t *testing.T, analyzer *analyzerStub, perMinute int) *server {
	t.Helper()

	log := slog.New(slog.NewTextHandler(io.Discard, nil))
	st := memstore.New()

	integ := integration.NewService(log,
		st.Records(), st.Vocabulary(), st.Structures(), st.Jobs(),
		lock.NewLocal(), integration.DefaultConfig())

	var parse *parsing.Service
	if analyzer != nil {
		parse = parsing.NewService(log, analyzer, parser.New(nil), st.Records(), integ)
	} else {
		parse = parsing.NewService(log, nil, parser.New(nil), st.Records(), integ)
	}

	learn := learning.NewService(log, st.Records(), st.Vocabulary(), st.Structures(), nil)

	limiter := middleware.NewRateLimiter(time.Minute)
	t.Cleanup(limiter.Stop)

	h := NewRouter(Handlers{
		Health:      NewHealthHandler("test"),
		Parse:       NewParseHandler(parse, log),
		Integration: NewIntegrationHandler(integ, log),
		Learning:    NewLearningHandler(learn, log),
	}, RouterConfig{
		CORS:             config.CORSConfig{AllowedOrigins: "*", AllowedMethods: "GET,POST", AllowedHeaders: "Content-Type"},
		AnalyzePerMinute: perMinute,
	}, limiter, log)

	return &server{store: st, handler: h}
}

func (s *server) do(t *testing.T, method, path, body string) (*httptest.ResponseRecorder, map[string]any) {
	t.Helper()

	var r io.Reader
	if body != "" {
		r = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, r)
	req.RemoteAddr = "192.0.2.1:4000"
	rec := httptest.NewRecorder()
	s.handler.ServeHTTP(rec, req)

	var out map[string]any
	if rec.Body.Len() > 0 {
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out), rec.Body.String())
	}
	return rec, out
}

func TestRouter_ParseThenLearn(t *testing.T) {
	t.Parallel()

	s := newServer(t, &analyzerStub{out: cardBlob}, 10)

	rec, body := s.do(t, http.MethodPost, "/api/v1/parse", `{"text":"猫が好きです。"}`)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, true, body["success"])
	assert.Equal(t, float64(1), body["sentenceCount"])
	id, _ := body["recordId"].(string)
	require.NotEmpty(t, id)
	assert.NotEmpty(t, rec.Header().Get(middleware.RequestIDHeader))

	rec, body = s.do(t, http.MethodGet, "/api/v1/records/"+id, "")
	require.Equal(t, http.StatusOK, rec.Code)
	record := body["record"].(map[string]any)
	assert.Equal(t, "猫の話", record["title"])

	rec, body = s.do(t, http.MethodGet, "/api/v1/learning/words?count=5", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, true, body["success"])
	assert.Len(t, body["words"], 2)

	rec, body = s.do(t, http.MethodGet, "/api/v1/stats", "")
	require.Equal(t, http.StatusOK, rec.Code)
	stats := body["statistics"].(map[string]any)
	assert.Equal(t, float64(1), stats["records"])
	vocab := stats["vocabulary"].(map[string]any)
	assert.Equal(t, float64(2), vocab["all"])
	assert.Equal(t, float64(2), vocab["unmastered"])

	rec, body = s.do(t, http.MethodGet, "/api/v1/vocabulary?mastery=unmastered&limit=1", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, float64(2), body["total"])
	assert.Len(t, body["items"], 1)

	rec, body = s.do(t, http.MethodGet, "/api/v1/structures", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, float64(1), body["total"])
}

func TestRouter_EmptyLibraryIsNotAnHTTPError(t *testing.T) {
	t.Parallel()

	s := newServer(t, nil, 10)

	rec, body := s.do(t, http.MethodPost, "/api/v1/learning/plan", `{"totalCount":10}`)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, false, body["success"])
	assert.Equal(t, learning.EmptyLibraryMessage, body["error"])
	assert.Empty(t, body["words"])
}

func TestRouter_ErrorMapping(t *testing.T) {
	t.Parallel()

	s := newServer(t, nil, 10)

	tests := []struct {
		name   string
		method string
		path   string
		body   string
		status int
	}{
		{"analyzer disabled", http.MethodPost, "/api/v1/parse", `{"text":"猫"}`, http.StatusServiceUnavailable},
		{"bad json", http.MethodPost, "/api/v1/records", `{"sentences":`, http.StatusBadRequest},
		{"no sentences", http.MethodPost, "/api/v1/records", `{"sentences":[]}`, http.StatusBadRequest},
		{"bad record id", http.MethodGet, "/api/v1/records/nope", "", http.StatusBadRequest},
		{"unknown record", http.MethodGet, "/api/v1/records/4b4e8a45-5b2d-4a7e-9d0c-6f1c2f0a9e11", "", http.StatusNotFound},
		{"integrate unknown record", http.MethodPost, "/api/v1/integration/records/4b4e8a45-5b2d-4a7e-9d0c-6f1c2f0a9e11", "", http.StatusNotFound},
		{"bad count", http.MethodGet, "/api/v1/learning/words?count=abc", "", http.StatusBadRequest},
		{"count out of range", http.MethodGet, "/api/v1/learning/words?count=101", "", http.StatusBadRequest},
		{"bad plan type", http.MethodPost, "/api/v1/learning/plan", `{"type":"weekly"}`, http.StatusBadRequest},
		{"bad mastery", http.MethodGet, "/api/v1/vocabulary?mastery=some", "", http.StatusBadRequest},
		{"bad collection", http.MethodPost, "/api/v1/integration/repair", `{"collection":"kanji"}`, http.StatusBadRequest},
		{"bad token", http.MethodPost, "/api/v1/integration/rebuild", `{"continuationToken":"x"}`, http.StatusBadRequest},
		{"reset unknown word", http.MethodPost, "/api/v1/vocabulary/%E7%8C%AB/reset-mastery", "", http.StatusNotFound},
		{"wrong method", http.MethodGet, "/api/v1/parse", "", http.StatusMethodNotAllowed},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var body io.Reader
			if tt.body != "" {
				body = strings.NewReader(tt.body)
			}
			req := httptest.NewRequest(tt.method, tt.path, body)
			rec := httptest.NewRecorder()
			s.handler.ServeHTTP(rec, req)
			assert.Equal(t, tt.status, rec.Code, rec.Body.String())
		})
	}
}

func TestRouter_ValidationFields(t *testing.T) {
	t.Parallel()

	s := newServer(t, nil, 10)

	rec, body := s.do(t, http.MethodPost, "/api/v1/learning/plan", `{"totalCount":500,"newRatio":-1}`)
	require.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, false, body["success"])
	fields, ok := body["fields"].([]any)
	require.True(t, ok)
	assert.Len(t, fields, 2)
}

func TestRouter_SubmitRebuildRepair(t *testing.T) {
	t.Parallel()

	s := newServer(t, nil, 10)

	submit := map[string]any{
		"title": "manual",
		"sentences": []domain.SentenceAnnotation{{
			OriginalText: "本を読みます。",
			Structure:    "名词 + を + 动词",
			Vocabulary:   []domain.VocabEntry{{Word: "本", Romanization: "hon", Meaning: "书"}},
		}},
	}
	raw, err := json.Marshal(submit)
	require.NoError(t, err)

	rec, body := s.do(t, http.MethodPost, "/api/v1/records", string(raw))
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	id := body["recordId"].(string)

	rec, body = s.do(t, http.MethodPost, "/api/v1/integration/records/"+id, "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, float64(0), body["addedCount"])
	assert.Equal(t, float64(2), body["unchangedCount"])

	rec, body = s.do(t, http.MethodPost, "/api/v1/integration/rebuild", "")
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, true, body["done"])
	assert.Equal(t, float64(1), body["totalWords"])
	assert.Equal(t, float64(1), body["processedRecords"])

	rec, body = s.do(t, http.MethodPost, "/api/v1/integration/repair", `{"collection":"vocabulary"}`)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, true, body["done"])
	assert.Equal(t, float64(0), body["repairedGroups"])
}

func TestRouter_AnalyzeRateLimited(t *testing.T) {
	t.Parallel()

	s := newServer(t, &analyzerStub{err: errors.New("provider down")}, 1)

	rec, _ := s.do(t, http.MethodPost, "/api/v1/parse", `{"text":"猫"}`)
	assert.Equal(t, http.StatusInternalServerError, rec.Code)

	rec, body := s.do(t, http.MethodPost, "/api/v1/parse", `{"text":"猫"}`)
	assert.Equal(t, http.StatusTooManyRequests, rec.Code)
	assert.Equal(t, "rate limit exceeded", body["error"])

	// Other endpoints are not limited.
	rec, _ = s.do(t, http.MethodGet, "/api/v1/stats", "")
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestRouter_CORSPreflight(t *testing.T) {
	t.Parallel()

	s := newServer(t, nil, 10)

	req := httptest.NewRequest(http.MethodOptions, "/api/v1/parse", bytes.NewReader(nil))
	req.Header.Set("Origin", "https://app.example")
	rec := httptest.NewRecorder()
	s.handler.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Equal(t, "https://app.example", rec.Header().Get("Access-Control-Allow-Origin"))
}
