package routes

import (
	"bytes"
	"context"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"docchat-platform/internal/ai"
	"docchat-platform/internal/jobs"
	"docchat-platform/internal/session"
	"docchat-platform/internal/storage"
	"docchat-platform/models"
	"docchat-platform/services"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type replyModel struct{ calls int }

func (m *replyModel) SendTurn(_ context.Context, prompt string, history []models.Turn) (*ai.TurnResult, error) {
	m.calls++
	out := append(append([]models.Turn(nil), history...),
		models.Turn{Role: models.RoleUser, Text: prompt},
		models.Turn{Role: models.RoleModel, Text: "the answer"},
	)
	return &ai.TurnResult{Text: "the answer", History: out}, nil
}

type noHits struct{}

func (noHits) SimilaritySearch(context.Context, string, string, int) ([]models.ScoredChunk, error) {
	return nil, nil
}

type memQueue struct{ jobs []models.IngestionJob }

func (q *memQueue) Enqueue(_ context.Context, job models.IngestionJob) error {
	q.jobs = append(q.jobs, job)
	return nil
}

type server struct {
	router   *gin.Engine
	sessions session.Store
	jobs     *jobs.MemoryStore
	queue    *memQueue
	model    *replyModel
}

func newServer(t *testing.T) *server {
	t.Helper()
	gin.SetMode(gin.TestMode)

	files, err := storage.NewLocalStore(t.TempDir())
	require.NoError(t, err)
	s := &server{
		router:   gin.New(),
		sessions: session.NewMemoryStore(100, time.Hour),
		jobs:     jobs.NewMemoryStore(100, time.Hour),
		queue:    &memQueue{},
		model:    &replyModel{},
	}
	ingestor := services.NewIngestionService(files, s.sessions, s.jobs, s.queue, []string{"application/pdf", "text/plain"}, 1<<20)
	asker := services.NewChatService(s.sessions, noHits{}, s.model, services.ChatOptions{SystemPrompt: "sys"}, nil)
	Register(s.router, ingestor, asker, 1<<20)
	return s
}

func (s *server) do(req *http.Request) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	s.router.ServeHTTP(w, req)
	return w
}

func multipartRequest(t *testing.T, path, field, filename, contentType string, data []byte) *http.Request {
	t.Helper()
	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	if field != "" {
		h := make(map[string][]string)
		h["Content-Disposition"] = []string{`form-data; name="` + field + `"; filename="` + filename + `"`}
		h["Content-Type"] = []string{contentType}
		part, err := mw.CreatePart(h)
		require.NoError(t, err)
		_, err = part.Write(data)
		require.NoError(t, err)
	}
	require.NoError(t, mw.Close())

	req := httptest.NewRequest(http.MethodPost, path, &body)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	return req
}

func decode(t *testing.T, w *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var out map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &out))
	return out
}

func TestUploadThenStatus(t *testing.T) {
	s := newServer(t)

	w := s.do(multipartRequest(t, "/upload", "file", "notes.txt", "text/plain", []byte("hello")))
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	body := decode(t, w)
	assert.Equal(t, true, body["success"])
	sessionID, _ := body["sessionId"].(string)
	require.NotEmpty(t, sessionID)
	assert.NotEmpty(t, body["jobId"])
	require.Len(t, s.queue.jobs, 1)

	w = s.do(httptest.NewRequest(http.MethodGet, "/job/status/"+sessionID, nil))
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, map[string]any{"status": "waiting"}, decode(t, w))

	w = s.do(httptest.NewRequest(http.MethodGet, "/job/"+sessionID, nil))
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"state":"waiting"`)
}

func TestUploadPDFAlias(t *testing.T) {
	s := newServer(t)

	w := s.do(multipartRequest(t, "/upload/pdf", "pdf", "a.pdf", "application/pdf", []byte("%PDF-1.4\n")))
	assert.Equal(t, http.StatusOK, w.Code, w.Body.String())
}

func TestUploadRejections(t *testing.T) {
	s := newServer(t)

	w := s.do(multipartRequest(t, "/upload", "", "", "", nil))
	assert.Equal(t, http.StatusBadRequest, w.Code)
	body := decode(t, w)
	assert.Equal(t, false, body["success"])
	assert.Contains(t, body["error"], "No file uploaded")

	w = s.do(multipartRequest(t, "/upload", "file", "a.png", "image/png", []byte{0x89, 'P', 'N', 'G'}))
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Empty(t, s.queue.jobs)
}

func TestJobStatusNotFound(t *testing.T) {
	s := newServer(t)

	w := s.do(httptest.NewRequest(http.MethodGet, "/job/status/unknown", nil))
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, map[string]any{"status": "not_found"}, decode(t, w))
}

func askRequest(path, body string) *http.Request {
	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	return req
}

func TestAskReturnsAnswerAndCookie(t *testing.T) {
	s := newServer(t)

	w := s.do(askRequest("/ask/s1", `{"message":"what is this?"}`))
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Equal(t, map[string]any{
		"success":    true,
		"answerText": "the answer",
		"message":    "the answer",
		"sessionId":  "s1",
	}, decode(t, w))

	cookies := w.Result().Cookies()
	require.Len(t, cookies, 1)
	assert.Equal(t, "sessionId", cookies[0].Name)
	assert.Equal(t, "s1", cookies[0].Value)
	assert.Equal(t, 86400, cookies[0].MaxAge)
	assert.True(t, cookies[0].HttpOnly)
}

func TestAskWithoutSessionStartsOne(t *testing.T) {
	s := newServer(t)

	w := s.do(askRequest("/ask", `{"message":"hi"}`))
	require.Equal(t, http.StatusOK, w.Code)
	sessionID, _ := decode(t, w)["sessionId"].(string)
	assert.NotEmpty(t, sessionID)

	// the cookie carries the session into the next turn
	req := askRequest("/ask", `{"message":"again"}`)
	req.AddCookie(&http.Cookie{Name: "sessionId", Value: sessionID})
	w = s.do(req)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, sessionID, decode(t, w)["sessionId"])

	rec, err := s.sessions.Get(context.Background(), sessionID)
	require.NoError(t, err)
	assert.Len(t, rec.History, 5)
}

func TestAskEmptyMessage(t *testing.T) {
	s := newServer(t)
	w := s.do(askRequest("/ask/s1", `{"message":"hello"}`))
	require.Equal(t, http.StatusOK, w.Code)

	for _, body := range []string{`{"message":""}`, `{"message":"   "}`, `{}`, `not json`, `{"message":42}`} {
		w := s.do(askRequest("/ask/s1", body))
		assert.Equal(t, http.StatusBadRequest, w.Code, body)
		assert.Equal(t, false, decode(t, w)["success"])
	}

	rec, err := s.sessions.Get(context.Background(), "s1")
	require.NoError(t, err)
	assert.Len(t, rec.History, 3)
	assert.Equal(t, 1, s.model.calls)
}

func TestHistoryAndExport(t *testing.T) {
	s := newServer(t)

	w := s.do(httptest.NewRequest(http.MethodGet, "/session/s1/history", nil))
	assert.Equal(t, http.StatusNotFound, w.Code)

	require.Equal(t, http.StatusOK, s.do(askRequest("/ask/s1", `{"message":"hello"}`)).Code)

	w = s.do(httptest.NewRequest(http.MethodGet, "/session/s1/history", nil))
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Len(t, decode(t, w)["history"], 3)

	w = s.do(httptest.NewRequest(http.MethodGet, "/session/s1/export", nil))
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet", w.Header().Get("Content-Type"))
	assert.Contains(t, w.Header().Get("Content-Disposition"), "session-s1.xlsx")
}

func TestRootAndHealth(t *testing.T) {
	s := newServer(t)

	w := s.do(httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, map[string]any{"status": "All Good!"}, decode(t, w))

	w = s.do(httptest.NewRequest(http.MethodGet, "/health", nil))
	assert.Equal(t, http.StatusOK, w.Code)
}
