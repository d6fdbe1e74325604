package web

import (
	"bytes"
	"context"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/hurricanerix/icecarve/internal/conversation"
	"github.com/hurricanerix/icecarve/internal/image"
	"github.com/hurricanerix/icecarve/internal/metrics"
	"github.com/hurricanerix/icecarve/internal/studio"
)

// fakeModel stands in for the remote model API.
type fakeModel struct {
	mu sync.Mutex

	chatReply     string
	chatErr       error
	analysisReply string
	analysisErr   error
	imageURL      string
	imageErr      error

	chatInputs   []string
	dataURLs     []string
	imagePrompts []string
}

func newFakeModel() *fakeModel {
	return &fakeModel{
		chatReply:     "A graceful ice swan.",
		analysisReply: "This photo would make a fine ice sculpture.",
		imageURL:      "https://images.example.com/swan.png",
	}
}

func (f *fakeModel) Chat(_ context.Context, _ string, userInput string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.chatInputs = append(f.chatInputs, userInput)
	return f.chatReply, f.chatErr
}

func (f *fakeModel) AnalyzeImage(_ context.Context, dataURL string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.dataURLs = append(f.dataURLs, dataURL)
	return f.analysisReply, f.analysisErr
}

func (f *fakeModel) GenerateImage(_ context.Context, prompt string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.imagePrompts = append(f.imagePrompts, prompt)
	return f.imageURL, f.imageErr
}

type testServer struct {
	*Server
	model     *fakeModel
	sessions  *conversation.SessionManager
	metrics   *metrics.Metrics
	uploadDir string
}

func newTestServer(t *testing.T, scope SessionScope) *testServer {
	t.Helper()

	model := newFakeModel()
	sessions := conversation.NewSessionManager(nil)
	t.Cleanup(sessions.Shutdown)

	dir := t.TempDir()
	uploads := image.NewUploads(dir)
	require.NoError(t, uploads.EnsureDir())

	m := metrics.New()
	s, err := NewServerWithDeps("", Deps{
		Chat:           studio.NewChatOrchestrator(model, nil, m, nil),
		Images:         studio.NewImageOrchestrator(model, m),
		Sessions:       sessions,
		Uploads:        uploads,
		Metrics:        m,
		Scope:          scope,
		RequestTimeout: 5 * time.Second,
	})
	require.NoError(t, err)

	return &testServer{Server: s, model: model, sessions: sessions, metrics: m, uploadDir: dir}
}

func (ts *testServer) do(req *http.Request) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	ts.Handler().ServeHTTP(rec, req)
	return rec
}

func textRequest(input string) *http.Request {
	form := url.Values{"user_input": {input}}
	req := httptest.NewRequest(http.MethodPost, "/chatbot", strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	return req
}

// multipartRequest builds a chatbot request with an optional image part.
// A nil data with a non-empty filename still writes an empty file part.
func multipartRequest(t *testing.T, input, filename string, data []byte) *http.Request {
	t.Helper()

	var body bytes.Buffer
	w := multipart.NewWriter(&body)
	require.NoError(t, w.WriteField("user_input", input))
	if filename != "" || data != nil {
		part, err := w.CreateFormFile("image", filename)
		require.NoError(t, err)
		_, err = part.Write(data)
		require.NoError(t, err)
	}
	require.NoError(t, w.Close())

	req := httptest.NewRequest(http.MethodPost, "/chatbot", &body)
	req.Header.Set("Content-Type", w.FormDataContentType())
	return req
}

func decodeBody(t *testing.T, rec *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()
	var out map[string]interface{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out), rec.Body.String())
	return out
}

// pngBytes returns a minimal byte slice that sniffs as image/png.
func pngBytes(tag byte) []byte {
	return append([]byte("\x89PNG\r\n\x1a\n"), tag, tag, tag)
}
