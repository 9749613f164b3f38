package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/civicdocs/planrag/internal/core/domain"
	"github.com/civicdocs/planrag/internal/core/ports/driving"
)

// --- Mock implementations ---

type mockAnswerService struct {
	answer domain.Answer
	err    error
	gotQ   string
	gotK   int
}

func (m *mockAnswerService) Answer(_ context.Context, query string, topK int) (domain.Answer, error) {
	m.gotQ = query
	m.gotK = topK
	return m.answer, m.err
}

type mockStatusService struct {
	status driving.Status
	err    error
}

func (m *mockStatusService) Check(context.Context) (driving.Status, error) {
	return m.status, m.err
}

func doRequest(t *testing.T, server *Server, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, path, nil)
	} else {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	}
	rec := httptest.NewRecorder()
	server.Handler().ServeHTTP(rec, req)
	return rec
}

// --- Tests ---

func TestQuery_ReturnsAnswer(t *testing.T) {
	answerSvc := &mockAnswerService{
		answer: domain.Answer{
			Text: "Heights are capped at 24 metres.",
			Sources: []domain.Citation{
				{Title: "City Plan", Page: 42, Relevance: 0.9},
			},
			State: domain.QueryStateAnswered,
		},
	}
	server := NewServer(answerSvc, &mockStatusService{})

	rec := doRequest(t, server, http.MethodPost, "/query",
		`{"query": "What are the height limits?", "top_k": 3}`)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "What are the height limits?", answerSvc.gotQ)
	assert.Equal(t, 3, answerSvc.gotK)

	var body struct {
		Answer  string            `json:"answer"`
		Sources []domain.Citation `json:"sources"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "Heights are capped at 24 metres.", body.Answer)
	require.Len(t, body.Sources, 1)
	assert.Equal(t, "City Plan", body.Sources[0].Title)
}

func TestQuery_MissingQuery(t *testing.T) {
	server := NewServer(&mockAnswerService{}, &mockStatusService{})

	rec := doRequest(t, server, http.MethodPost, "/query", `{"top_k": 3}`)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestQuery_ServiceError(t *testing.T) {
	server := NewServer(&mockAnswerService{err: errors.New("boom")}, &mockStatusService{})

	rec := doRequest(t, server, http.MethodPost, "/query", `{"query": "What are the height limits?"}`)

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
}

func TestHealth_OK(t *testing.T) {
	statusSvc := &mockStatusService{
		status: driving.Status{
			Counts:          domain.RowCounts{DocumentCount: 2, ChunkCount: 10, ChunksWithEmbedding: 10},
			EmbeddingOK:     true,
			EmbeddingModel:  "text-embedding-3-small",
			GenerationOK:    true,
			GenerationModel: "gpt-4o-mini",
		},
	}
	server := NewServer(&mockAnswerService{}, statusSvc)

	rec := doRequest(t, server, http.MethodGet, "/health", "")

	require.Equal(t, http.StatusOK, rec.Code)

	var body driving.Status
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, int64(2), body.Counts.DocumentCount)
	assert.True(t, body.EmbeddingOK)
}

func TestHealth_StoreFailure(t *testing.T) {
	server := NewServer(&mockAnswerService{}, &mockStatusService{err: domain.ErrStoreUnavailable})

	rec := doRequest(t, server, http.MethodGet, "/health", "")

	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}
