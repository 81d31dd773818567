package httpapi

import (
	"bufio"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"sync/atomic"
	"time"

	"go.uber.org/zap"

	"hexboard.app/internal/board"
	"hexboard.app/internal/library"
	"hexboard.app/internal/notify"
	"hexboard.app/internal/share"
	"hexboard.app/internal/store"
)

const maxBodyBytes = 64 * 1024

type Server struct {
	lib    *library.Service
	hub    *notify.Hub
	origin string
	log    *zap.Logger

	metrics metrics
}

type metrics struct {
	generated      atomic.Uint64
	encoded        atomic.Uint64
	opened         atomic.Uint64
	decodeFailures atomic.Uint64
	saved          atomic.Uint64
	deleted        atomic.Uint64
}

// NewServer wires the HTTP surface. hub may be nil, which disables the
// notification stream.
func NewServer(lib *library.Service, hub *notify.Hub, origin string, logger *zap.Logger) *Server {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Server{
		lib:    lib,
		hub:    hub,
		origin: strings.TrimRight(origin, "/"),
		log:    logger.Named("http"),
	}
}

func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /healthz", func(rw http.ResponseWriter, r *http.Request) {
		rw.WriteHeader(200)
		_, _ = rw.Write([]byte("ok"))
	})
	mux.HandleFunc("GET /metrics", s.handleMetrics)

	mux.HandleFunc("POST /v1/boards/generate", s.handleGenerate)
	mux.HandleFunc("POST /v1/boards/encode", s.handleEncode)
	mux.HandleFunc("GET /map/{token...}", s.handleOpenShared)

	mux.HandleFunc("GET /v1/users/{userID}/boards", s.handleList)
	mux.HandleFunc("POST /v1/users/{userID}/boards", s.handleSave)
	mux.HandleFunc("GET /v1/users/{userID}/boards/{id}", s.handleLoad)
	mux.HandleFunc("DELETE /v1/users/{userID}/boards/{id}", s.handleDelete)
	mux.HandleFunc("GET /v1/users/{userID}/boards/{id}/share", s.handleShare)
	mux.HandleFunc("GET /v1/users/{userID}/notifications", s.handleNotifications)

	// Legacy tokens may contain "//", which ServeMux would clean and
	// redirect; shared links skip the mux.
	return s.logRequests(http.HandlerFunc(func(rw http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodGet && strings.HasPrefix(r.URL.Path, share.PathPrefix) {
			s.handleOpenShared(rw, r)
			return
		}
		mux.ServeHTTP(rw, r)
	}))
}

type boardResponse struct {
	Seed     string         `json:"seed,omitempty"`
	Tiles    board.Board    `json:"tiles"`
	Rows     [][]board.Tile `json:"rows"`
	Stats    board.Stats    `json:"stats"`
	Token    string         `json:"token,omitempty"`
	ShareURL string         `json:"share_url,omitempty"`
}

func newBoardResponse(b board.Board) boardResponse {
	return boardResponse{Tiles: b, Rows: b.Rows(), Stats: b.Stats()}
}

func (s *Server) handleGenerate(rw http.ResponseWriter, r *http.Request) {
	var g library.Generated
	if raw := strings.TrimSpace(r.URL.Query().Get("seed")); raw != "" {
		seed, err := strconv.ParseUint(raw, 10, 64)
		if err != nil {
			writeError(rw, http.StatusBadRequest, ErrBadRequest, "seed must be an unsigned integer")
			return
		}
		g = s.lib.GenerateSeeded(r.Context(), seed)
	} else {
		var err error
		if g, err = s.lib.Generate(r.Context()); err != nil {
			s.writeErr(rw, r, err)
			return
		}
	}
	s.metrics.generated.Add(1)

	resp := newBoardResponse(g.Board)
	resp.Seed = strconv.FormatUint(g.Seed, 10)
	tok, err := s.lib.ShareToken(g.Board)
	if err != nil {
		s.writeErr(rw, r, err)
		return
	}
	resp.Token = tok
	resp.ShareURL = share.URL(s.origin, tok)
	writeJSON(rw, http.StatusOK, resp)
}

type encodeRequest struct {
	Tiles board.Board `json:"tiles"`
}

type shareResponse struct {
	Token string `json:"token,omitempty"`
	URL   string `json:"url"`
}

func (s *Server) handleEncode(rw http.ResponseWriter, r *http.Request) {
	var req encodeRequest
	if err := decodeBody(rw, r, &req); err != nil {
		writeError(rw, http.StatusBadRequest, ErrBadRequest, err.Error())
		return
	}
	tok, err := s.lib.ShareToken(req.Tiles)
	if err != nil {
		s.writeErr(rw, r, err)
		return
	}
	s.metrics.encoded.Add(1)
	writeJSON(rw, http.StatusOK, shareResponse{Token: tok, URL: share.URL(s.origin, tok)})
}

func (s *Server) handleOpenShared(rw http.ResponseWriter, r *http.Request) {
	tok, _ := share.TokenFromPath(r.URL.EscapedPath())
	if u, err := url.PathUnescape(tok); err == nil {
		tok = u
	}
	b, err := s.lib.OpenShared(tok)
	if err != nil {
		s.writeErr(rw, r, err)
		return
	}
	s.metrics.opened.Add(1)
	writeJSON(rw, http.StatusOK, newBoardResponse(b))
}

type listResponse struct {
	Boards []store.SavedBoard `json:"boards"`
}

func (s *Server) handleList(rw http.ResponseWriter, r *http.Request) {
	boards, err := s.lib.List(r.Context(), r.PathValue("userID"))
	if err != nil {
		s.writeErr(rw, r, err)
		return
	}
	writeJSON(rw, http.StatusOK, listResponse{Boards: boards})
}

type saveRequest struct {
	Name  string      `json:"name"`
	Tiles board.Board `json:"tiles,omitempty"`
}

func (s *Server) handleSave(rw http.ResponseWriter, r *http.Request) {
	var req saveRequest
	if err := decodeBody(rw, r, &req); err != nil {
		writeError(rw, http.StatusBadRequest, ErrBadRequest, err.Error())
		return
	}
	b := req.Tiles
	if b == nil {
		g, err := s.lib.Generate(r.Context())
		if err != nil {
			s.writeErr(rw, r, err)
			return
		}
		b = g.Board
	}
	sb, err := s.lib.Save(r.Context(), r.PathValue("userID"), req.Name, b)
	if err != nil {
		s.writeErr(rw, r, err)
		return
	}
	s.metrics.saved.Add(1)
	writeJSON(rw, http.StatusCreated, sb)
}

func (s *Server) handleLoad(rw http.ResponseWriter, r *http.Request) {
	sb, err := s.lib.Load(r.Context(), r.PathValue("userID"), r.PathValue("id"))
	if err != nil {
		s.writeErr(rw, r, err)
		return
	}
	writeJSON(rw, http.StatusOK, sb)
}

func (s *Server) handleDelete(rw http.ResponseWriter, r *http.Request) {
	if err := s.lib.Delete(r.Context(), r.PathValue("userID"), r.PathValue("id")); err != nil {
		s.writeErr(rw, r, err)
		return
	}
	s.metrics.deleted.Add(1)
	rw.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleShare(rw http.ResponseWriter, r *http.Request) {
	link, err := s.lib.Share(r.Context(), r.PathValue("userID"), r.PathValue("id"), s.origin)
	if err != nil {
		s.writeErr(rw, r, err)
		return
	}
	s.metrics.encoded.Add(1)
	writeJSON(rw, http.StatusOK, shareResponse{URL: link})
}

func (s *Server) handleNotifications(rw http.ResponseWriter, r *http.Request) {
	if s.hub == nil {
		writeError(rw, http.StatusNotFound, ErrNotFound, "notifications disabled")
		return
	}
	userID := strings.TrimSpace(r.PathValue("userID"))
	if userID == "" {
		writeError(rw, http.StatusBadRequest, ErrBadRequest, store.ErrEmptyUserID.Error())
		return
	}
	s.hub.Serve(rw, r, userID)
}

func (s *Server) handleMetrics(rw http.ResponseWriter, r *http.Request) {
	rw.Header().Set("Content-Type", "text/plain; version=0.0.4")

	counters := []struct {
		name, help string
		v          uint64
	}{
		{"hexboard_boards_generated_total", "Boards generated.", s.metrics.generated.Load()},
		{"hexboard_share_tokens_encoded_total", "Share tokens issued.", s.metrics.encoded.Load()},
		{"hexboard_shared_boards_opened_total", "Share tokens decoded successfully.", s.metrics.opened.Load()},
		{"hexboard_share_decode_failures_total", "Share tokens rejected as invalid.", s.metrics.decodeFailures.Load()},
		{"hexboard_boards_saved_total", "Boards saved.", s.metrics.saved.Load()},
		{"hexboard_boards_deleted_total", "Saved boards deleted.", s.metrics.deleted.Load()},
	}
	for _, c := range counters {
		fmt.Fprintf(rw, "# HELP %s %s\n", c.name, c.help)
		fmt.Fprintf(rw, "# TYPE %s counter\n", c.name)
		fmt.Fprintf(rw, "%s %d\n", c.name, c.v)
	}
}

func decodeBody(rw http.ResponseWriter, r *http.Request, v any) error {
	dec := json.NewDecoder(http.MaxBytesReader(rw, r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		if errors.Is(err, io.EOF) {
			return fmt.Errorf("empty request body")
		}
		return fmt.Errorf("bad request body: %w", err)
	}
	return nil
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (w *statusRecorder) WriteHeader(code int) {
	w.status = code
	w.ResponseWriter.WriteHeader(code)
}

// Hijack lets the websocket upgrader take over the connection.
func (w *statusRecorder) Hijack() (net.Conn, *bufio.ReadWriter, error) {
	h, ok := w.ResponseWriter.(http.Hijacker)
	if !ok {
		return nil, nil, fmt.Errorf("response writer does not support hijacking")
	}
	w.status = http.StatusSwitchingProtocols
	return h.Hijack()
}

func (s *Server) logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(rw http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: rw, status: http.StatusOK}
		next.ServeHTTP(rec, r)
		s.log.Debug("request",
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.Int("status", rec.status),
			zap.Duration("took", time.Since(start)),
		)
	})
}
