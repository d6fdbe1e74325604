// Package web serves the ice-sculpture chat page and its JSON endpoints.
package web

import (
	"context"
	"embed"
	"errors"
	"fmt"
	"html/template"
	"mime/multipart"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	jsoniter "github.com/json-iterator/go"

	"github.com/hurricanerix/icecarve/internal/conversation"
	"github.com/hurricanerix/icecarve/internal/image"
	"github.com/hurricanerix/icecarve/internal/llm"
	"github.com/hurricanerix/icecarve/internal/logging"
	"github.com/hurricanerix/icecarve/internal/metrics"
	"github.com/hurricanerix/icecarve/internal/sculpture"
	"github.com/hurricanerix/icecarve/internal/studio"
)

//go:embed templates/* static/*
var embeddedFS embed.FS

var json = jsoniter.ConfigCompatibleWithStandardLibrary

const (
	// DefaultAddr is the default address the server listens on.
	DefaultAddr = "0.0.0.0:5000"

	// ReadTimeout is the maximum duration for reading the entire request.
	ReadTimeout = 15 * time.Second

	// WriteTimeout is the maximum duration before timing out writes.
	// The chatbot handler lifts it for the duration of its remote calls.
	WriteTimeout = 15 * time.Second

	// IdleTimeout is the maximum amount of time to wait for the next request.
	IdleTimeout = 60 * time.Second

	// ShutdownTimeout is the maximum time to wait for graceful shutdown.
	ShutdownTimeout = 30 * time.Second

	// MaxRequestBodySize is the maximum size of a chatbot request body.
	MaxRequestBodySize = image.MaxUploadSize + 1*1024*1024

	// multipartMemory is how much of a multipart body is held in memory
	// before spilling to temporary files.
	multipartMemory = 8 * 1024 * 1024

	// ErrorPrefix starts the response text of every failed chatbot request.
	ErrorPrefix = "Error: "
)

// ErrInvalidForm indicates the chatbot request body could not be parsed.
var ErrInvalidForm = errors.New("invalid form data")

// Deps holds the collaborators of the server.
// Chat, Images, Sessions and Uploads are required.
type Deps struct {
	Chat     *studio.ChatOrchestrator
	Images   *studio.ImageOrchestrator
	Sessions *conversation.SessionManager
	Uploads  *image.Uploads
	Metrics  *metrics.Metrics
	Logger   *logging.Logger

	// Scope selects global or cookie sessions. Empty means ScopeGlobal.
	Scope SessionScope

	// RequestTimeout bounds the remote calls of one chatbot request.
	// Zero means no timeout beyond the client's own.
	RequestTimeout time.Duration
}

// Server provides HTTP serving for the web UI.
type Server struct {
	addr      string
	server    *http.Server
	templates *template.Template

	chat           *studio.ChatOrchestrator
	images         *studio.ImageOrchestrator
	sessions       *conversation.SessionManager
	uploads        *image.Uploads
	metrics        *metrics.Metrics
	logger         *logging.Logger
	scope          SessionScope
	requestTimeout time.Duration
}

// chatResponse is the body of every POST /chatbot response.
// ImageURL and SculptureState are only set on the text path.
type chatResponse struct {
	Response       string           `json:"response"`
	ImageURL       *string          `json:"image_url,omitempty"`
	SculptureState *sculpture.State `json:"sculpture_state,omitempty"`
}

// indexTemplateData holds data passed to the index.html template.
type indexTemplateData struct {
	History []conversation.Entry
	State   sculpture.State
}

// NewServerWithDeps creates a new Server listening on addr.
// If addr is empty, DefaultAddr is used.
// Returns an error if a required dependency is missing or templates cannot
// be parsed.
func NewServerWithDeps(addr string, deps Deps) (*Server, error) {
	if addr == "" {
		addr = DefaultAddr
	}
	if deps.Chat == nil || deps.Images == nil || deps.Sessions == nil || deps.Uploads == nil {
		return nil, errors.New("web: chat, images, sessions and uploads are required")
	}
	if deps.Logger == nil {
		deps.Logger = logging.Nop()
	}
	if deps.Scope == "" {
		deps.Scope = ScopeGlobal
	}

	tmpl, err := template.ParseFS(embeddedFS, "templates/*.html")
	if err != nil {
		return nil, fmt.Errorf("failed to parse templates: %w", err)
	}

	s := &Server{
		addr:           addr,
		templates:      tmpl,
		chat:           deps.Chat,
		images:         deps.Images,
		sessions:       deps.Sessions,
		uploads:        deps.Uploads,
		metrics:        deps.Metrics,
		logger:         deps.Logger,
		scope:          deps.Scope,
		requestTimeout: deps.RequestTimeout,
	}

	mux := http.NewServeMux()
	s.registerRoutes(mux)

	s.server = &http.Server{
		Addr:         addr,
		Handler:      SessionMiddleware(deps.Scope, mux),
		ReadTimeout:  ReadTimeout,
		WriteTimeout: WriteTimeout,
		IdleTimeout:  IdleTimeout,
	}

	return s, nil
}

// Addr returns the listen address.
func (s *Server) Addr() string {
	return s.addr
}

// Handler returns the root handler, session middleware included.
func (s *Server) Handler() http.Handler {
	return s.server.Handler
}

// registerRoutes sets up all HTTP routes.
func (s *Server) registerRoutes(mux *http.ServeMux) {
	mux.HandleFunc("GET /{$}", s.handleIndex)
	mux.Handle("GET /static/", http.FileServer(http.FS(embeddedFS)))

	mux.HandleFunc("POST /chatbot", s.handleChatbot)
	mux.HandleFunc("GET /state", s.handleState)
	mux.HandleFunc("POST /reset", s.handleReset)

	mux.HandleFunc("GET /ready", s.handleReady)
	if s.metrics != nil {
		mux.Handle("GET /metrics", s.metrics.Handler())
	}
}

// ListenAndServe starts the HTTP server and blocks until the context is cancelled.
// Returns an error if the server fails to start or encounters a non-graceful shutdown error.
func (s *Server) ListenAndServe(ctx context.Context) error {
	errCh := make(chan error, 1)

	go func() {
		s.logger.Info("Starting web server on http://%s", s.addr)
		if err := s.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case <-ctx.Done():
		s.logger.Info("Shutting down web server...")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), ShutdownTimeout)
		defer cancel()

		if err := s.server.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("server shutdown failed: %w", err)
		}

		s.logger.Info("Web server stopped")
		return nil

	case err := <-errCh:
		return fmt.Errorf("server error: %w", err)
	}
}

// handleIndex serves the chat page with the session's conversation log.
func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	session := s.sessions.GetOrCreate(GetSessionID(r.Context()))
	data := indexTemplateData{
		History: session.History(),
		State:   session.State(),
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := s.templates.ExecuteTemplate(w, "index.html", data); err != nil {
		s.logger.Error("Failed to execute template: %v", err)
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}
}

// chatForm is the parsed body of a chatbot request.
type chatForm struct {
	input string
	image *multipart.FileHeader
}

// parseChatForm reads user_input and the optional image file from a
// multipart or urlencoded body. A file part with an empty filename is
// treated as absent.
func parseChatForm(r *http.Request) (chatForm, error) {
	var form chatForm

	if strings.HasPrefix(r.Header.Get("Content-Type"), "multipart/form-data") {
		if err := r.ParseMultipartForm(multipartMemory); err != nil {
			return form, fmt.Errorf("%w: %v", ErrInvalidForm, err)
		}
	} else if err := r.ParseForm(); err != nil {
		return form, fmt.Errorf("%w: %v", ErrInvalidForm, err)
	}

	form.input = strings.TrimSpace(r.FormValue("user_input"))
	if r.MultipartForm != nil {
		if files := r.MultipartForm.File["image"]; len(files) > 0 && files[0].Filename != "" {
			form.image = files[0]
		}
	}
	return form, nil
}

// handleChatbot runs one conversation turn.
// An uploaded image is analyzed and nothing else happens. Otherwise the
// input goes to the chat model and the sculpture is rendered. Failures are
// reported in the response text with status 200.
func (s *Server) handleChatbot(w http.ResponseWriter, r *http.Request) {
	sessionID := GetSessionID(r.Context())
	logger := s.logger.With("request_id", uuid.NewString()).With("session", sessionID)

	// Large uploads outlast ReadTimeout and remote calls outlast WriteTimeout.
	// The body stays bounded by MaxRequestBodySize.
	rc := http.NewResponseController(w)
	_ = rc.SetReadDeadline(time.Time{})
	_ = rc.SetWriteDeadline(time.Time{})

	// SECURITY: Limit request body size
	r.Body = http.MaxBytesReader(w, r.Body, MaxRequestBodySize)

	ctx := r.Context()
	if s.requestTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.requestTimeout)
		defer cancel()
	}

	form, err := parseChatForm(r)
	if err != nil {
		s.fail(w, logger, metrics.PathText, err)
		return
	}

	session := s.sessions.GetOrCreate(sessionID)

	if form.image != nil {
		reply, err := s.analyzeUpload(ctx, logger, session, form.image)
		if err != nil {
			s.fail(w, logger, metrics.PathImage, err)
			return
		}
		s.metrics.ObserveRequest(metrics.PathImage, nil)
		logger.Info("Analyzed uploaded image")
		writeJSON(w, logger, chatResponse{Response: reply})
		return
	}

	reply, err := s.chat.Converse(ctx, session, form.input)
	if err != nil {
		s.fail(w, logger, metrics.PathText, err)
		return
	}

	url, err := s.images.Generate(ctx, llm.BuildImagePrompt(session.State(), form.input))
	if err != nil {
		s.fail(w, logger, metrics.PathText, err)
		return
	}

	state := session.State()
	s.metrics.ObserveRequest(metrics.PathText, nil)
	logger.Info("Completed chat turn (%d log entries)", session.Len())
	writeJSON(w, logger, chatResponse{
		Response:       reply,
		ImageURL:       &url,
		SculptureState: &state,
	})
}

// analyzeUpload stages the file under a unique path, encodes it, removes
// it and sends it to the vision model.
func (s *Server) analyzeUpload(ctx context.Context, logger *logging.Logger, session *conversation.Session, fh *multipart.FileHeader) (string, error) {
	f, err := fh.Open()
	if err != nil {
		return "", fmt.Errorf("failed to open upload: %w", err)
	}
	defer f.Close()

	upload, err := s.uploads.Save(f)
	if err != nil {
		return "", err
	}
	defer func() {
		if err := s.uploads.Remove(upload.Path); err != nil {
			logger.Warn("%v", err)
		}
	}()
	s.metrics.ObserveUpload(upload.Size)
	logger.Debug("Staged upload %s (%s, %d bytes)", upload.Path, upload.MIME, upload.Size)

	encoded, err := image.EncodeFile(upload.Path)
	if err != nil {
		return "", err
	}

	return s.chat.Analyze(ctx, session, image.DataURL(upload.MIME, encoded))
}

// fail logs err and writes it as the response text.
func (s *Server) fail(w http.ResponseWriter, logger *logging.Logger, path string, err error) {
	s.metrics.ObserveRequest(path, err)
	logger.Error("Chatbot request failed: %v", err)
	writeJSON(w, logger, chatResponse{Response: ErrorPrefix + err.Error()})
}

// handleState returns the session's sculpture state. A session that does
// not exist yet reports the default state without being created.
func (s *Server) handleState(w http.ResponseWriter, r *http.Request) {
	state := sculpture.New()
	if session := s.sessions.Get(GetSessionID(r.Context())); session != nil {
		state = session.State()
	}
	writeJSON(w, s.logger, state)
}

// handleReset starts the session over with default state and a
// welcome-only log. Cookie sessions are dropped and recreated on the next
// request; the shared global session is reset in place.
func (s *Server) handleReset(w http.ResponseWriter, r *http.Request) {
	sessionID := GetSessionID(r.Context())
	if s.scope == ScopeCookie {
		s.sessions.Delete(sessionID)
	} else if session := s.sessions.Get(sessionID); session != nil {
		session.Reset()
	}
	s.logger.Info("Reset session %s", sessionID)
	writeJSON(w, s.logger, map[string]string{"status": "ok"})
}

// handleReady is a health check endpoint.
func (s *Server) handleReady(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, s.logger, map[string]string{"status": "ok"})
}

func writeJSON(w http.ResponseWriter, logger *logging.Logger, v interface{}) {
	body, err := json.Marshal(v)
	if err != nil {
		logger.Error("Failed to encode response: %v", err)
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(body)
}
