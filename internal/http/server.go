package httpapp

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"

	"github.com/alphabot-ai/discuss/internal/config"
	"github.com/alphabot-ai/discuss/internal/model"
	"github.com/alphabot-ai/discuss/internal/pkg/log"
	"github.com/alphabot-ai/discuss/internal/rate"
	"github.com/alphabot-ai/discuss/internal/store"
)

const maxBodyBytes = 1 << 20

type Server struct {
	store   store.Store
	limiter rate.Limiter
	cfg     config.ServerConfig
	metrics *metrics
	router  chi.Router
}

func NewServer(st store.Store, limiter rate.Limiter, cfg config.ServerConfig, logger *slog.Logger) (*Server, error) {
	m, err := newMetrics()
	if err != nil {
		return nil, fmt.Errorf("register metrics: %w", err)
	}
	if cfg.Author == "" {
		cfg.Author = "Admin"
	}
	s := &Server{store: st, limiter: limiter, cfg: cfg, metrics: m}
	s.router = s.routes(logger)
	return s, nil
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

func (s *Server) routes(logger *slog.Logger) chi.Router {
	r := chi.NewRouter()
	r.Use(
		Recover(),
		RequestID(),
		Logging(logger),
		s.metrics.Instrument(),
		chimw.StripSlashes,
		Timeout(s.cfg.RequestTimeout),
	)
	r.NotFound(func(w http.ResponseWriter, r *http.Request) { notFound(w) })
	r.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) { methodNotAllowed(w) })

	r.Get("/healthz", s.handleHealth)
	r.Handle("/metrics", s.metrics.Handler())

	r.Route("/api", func(r chi.Router) {
		r.Get("/stats", s.handleGetStats)
		r.Route("/comments", func(r chi.Router) {
			r.Get("/", s.handleListComments)
			r.Post("/", s.handleCreateComment)
			r.Get("/{id}", s.handleGetComment)
			r.Patch("/{id}", s.handlePatchComment)
			r.Delete("/{id}", s.handleDeleteComment)
		})
	})
	return r
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// handleGetStats godoc
//
//	@Summary	Site statistics
//	@Tags		Ops
//	@Produce	json
//	@Success	200	{object}	map[string]int
//	@Router		/api/stats/ [get]
func (s *Server) handleGetStats(w http.ResponseWriter, r *http.Request) {
	stats, err := s.store.GetSiteStats(r.Context())
	if err != nil {
		s.internalError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"comments": stats.Comments,
		"likes":    stats.Likes,
	})
}

// handleListComments godoc
//
//	@Summary		List comments
//	@Description	Get every comment, newest first
//	@Tags			Comments
//	@Produce		json
//	@Success		200	{array}	model.Comment
//	@Router			/api/comments/ [get]
func (s *Server) handleListComments(w http.ResponseWriter, r *http.Request) {
	comments, err := s.store.ListComments(r.Context())
	if err != nil {
		s.internalError(w, r, err)
		return
	}
	if comments == nil {
		comments = []model.Comment{}
	}
	writeJSON(w, http.StatusOK, comments)
}

// handleCreateComment godoc
//
//	@Summary		Create a comment
//	@Description	The server assigns id, author, date and a zero like count
//	@Tags			Comments
//	@Accept			json
//	@Produce		json
//	@Param			comment	body		object{text=string,image=string}	true	"Comment text and optional image URL"
//	@Success		201		{object}	model.Comment
//	@Failure		400		{object}	map[string]string	"Blank text"
//	@Failure		429		{object}	map[string]string	"Rate limited"
//	@Router			/api/comments/ [post]
func (s *Server) handleCreateComment(w http.ResponseWriter, r *http.Request) {
	if !s.allowRateLimit(w, r, "write", s.cfg.RateLimits.WritesPerMinute) {
		return
	}
	var req struct {
		Text  string  `json:"text"`
		Image *string `json:"image"`
	}
	if err := readJSON(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	if strings.TrimSpace(req.Text) == "" {
		writeError(w, http.StatusBadRequest, errors.New("text required"))
		return
	}
	if req.Image != nil && strings.TrimSpace(*req.Image) == "" {
		req.Image = nil
	}

	comment := model.Comment{
		Author: s.cfg.Author,
		Text:   strings.TrimSpace(req.Text),
		Image:  req.Image,
		Date:   time.Now().UTC().Truncate(time.Second),
	}
	id, err := s.store.CreateComment(r.Context(), &comment)
	if err != nil {
		s.internalError(w, r, err)
		return
	}
	comment.ID = id
	s.metrics.commentsCreated.Inc()
	log.From(r.Context()).Info("comment created", slog.Int64("comment_id", id))

	writeJSON(w, http.StatusCreated, comment)
}

// handleGetComment godoc
//
//	@Summary	Get a comment
//	@Tags		Comments
//	@Produce	json
//	@Param		id	path		int	true	"Comment ID"
//	@Success	200	{object}	model.Comment
//	@Failure	404	{object}	map[string]string	"Comment not found"
//	@Router		/api/comments/{id}/ [get]
func (s *Server) handleGetComment(w http.ResponseWriter, r *http.Request) {
	id, ok := commentID(w, r)
	if !ok {
		return
	}
	comment, err := s.store.GetComment(r.Context(), id)
	if err != nil {
		s.storeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, comment)
}

// handlePatchComment godoc
//
//	@Summary		Update a comment
//	@Description	Partial update of text and/or the absolute like count
//	@Tags			Comments
//	@Accept			json
//	@Produce		json
//	@Param			id		path		int								true	"Comment ID"
//	@Param			patch	body		object{text=string,likes=int}	true	"Fields to update"
//	@Success		200		{object}	model.Comment
//	@Failure		400		{object}	map[string]string	"Negative likes or blank text"
//	@Failure		404		{object}	map[string]string	"Comment not found"
//	@Failure		429		{object}	map[string]string	"Rate limited"
//	@Router			/api/comments/{id}/ [patch]
func (s *Server) handlePatchComment(w http.ResponseWriter, r *http.Request) {
	id, ok := commentID(w, r)
	if !ok {
		return
	}
	var req struct {
		Text  *string `json:"text"`
		Likes *int    `json:"likes"`
	}
	if err := readJSON(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}

	action, limit := "write", s.cfg.RateLimits.WritesPerMinute
	if req.Text == nil {
		action, limit = "like", s.cfg.RateLimits.LikesPerMinute
	}
	if !s.allowRateLimit(w, r, action, limit) {
		return
	}

	switch {
	case req.Text == nil && req.Likes == nil:
		writeError(w, http.StatusBadRequest, errors.New("text or likes required"))
		return
	case req.Likes != nil && *req.Likes < 0:
		writeError(w, http.StatusBadRequest, errors.New("likes must be >= 0"))
		return
	case req.Text != nil && strings.TrimSpace(*req.Text) == "":
		writeError(w, http.StatusBadRequest, errors.New("text must not be blank"))
		return
	}
	if req.Text != nil {
		text := strings.TrimSpace(*req.Text)
		req.Text = &text
	}

	comment, err := s.store.PatchComment(r.Context(), id, model.CommentPatch{Text: req.Text, Likes: req.Likes})
	if err != nil {
		s.storeError(w, r, err)
		return
	}
	if req.Likes != nil {
		s.metrics.likeUpdates.Inc()
	}
	writeJSON(w, http.StatusOK, comment)
}

// handleDeleteComment godoc
//
//	@Summary	Delete a comment
//	@Tags		Comments
//	@Param		id	path	int	true	"Comment ID"
//	@Success	204
//	@Failure	404	{object}	map[string]string	"Comment not found"
//	@Failure	429	{object}	map[string]string	"Rate limited"
//	@Router		/api/comments/{id}/ [delete]
func (s *Server) handleDeleteComment(w http.ResponseWriter, r *http.Request) {
	id, ok := commentID(w, r)
	if !ok {
		return
	}
	if !s.allowRateLimit(w, r, "write", s.cfg.RateLimits.WritesPerMinute) {
		return
	}
	if err := s.store.DeleteComment(r.Context(), id); err != nil {
		s.storeError(w, r, err)
		return
	}
	s.metrics.commentsDeleted.Inc()
	log.From(r.Context()).Info("comment deleted", slog.Int64("comment_id", id))
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) allowRateLimit(w http.ResponseWriter, r *http.Request, action string, limit int) bool {
	if limit <= 0 || s.limiter == nil {
		return true
	}
	ipKey := fmt.Sprintf("%s:ip:%s", action, clientIP(r))
	if ok, retry := s.limiter.Allow(ipKey, limit, time.Minute); !ok {
		s.metrics.rateLimited.WithLabelValues(action).Inc()
		writeRateLimit(w, retry)
		return false
	}
	return true
}

func (s *Server) storeError(w http.ResponseWriter, r *http.Request, err error) {
	if errors.Is(err, store.ErrNotFound) {
		writeError(w, http.StatusNotFound, errors.New("comment not found"))
		return
	}
	s.internalError(w, r, err)
}

func (s *Server) internalError(w http.ResponseWriter, r *http.Request, err error) {
	log.From(r.Context()).Error("request failed", slog.String("err", err.Error()))
	writeError(w, http.StatusInternalServerError, errors.New("internal error"))
}

func commentID(w http.ResponseWriter, r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil || id <= 0 {
		writeError(w, http.StatusBadRequest, errors.New("invalid comment id"))
		return 0, false
	}
	return id, true
}

func clientIP(r *http.Request) string {
	if forwarded := r.Header.Get("X-Forwarded-For"); forwarded != "" {
		parts := strings.Split(forwarded, ",")
		return strings.TrimSpace(parts[0])
	}
	if host, _, err := net.SplitHostPort(r.RemoteAddr); err == nil {
		return host
	}
	return r.RemoteAddr
}

func readJSON(w http.ResponseWriter, r *http.Request, dest any) error {
	body := http.MaxBytesReader(w, r.Body, maxBodyBytes)
	defer body.Close()
	dec := json.NewDecoder(body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(dest); err != nil {
		if errors.Is(err, io.EOF) {
			return errors.New("request body required")
		}
		return err
	}
	return nil
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func writeError(w http.ResponseWriter, status int, err error) {
	writeJSON(w, status, map[string]any{"error": err.Error()})
}

func writeRateLimit(w http.ResponseWriter, retry time.Duration) {
	secs := int(retry.Seconds() + 0.999)
	w.Header().Set("Retry-After", strconv.Itoa(secs))
	writeJSON(w, http.StatusTooManyRequests, map[string]any{
		"error":       "rate limit exceeded",
		"retry_after": secs,
	})
}

func notFound(w http.ResponseWriter) {
	writeError(w, http.StatusNotFound, errors.New("not found"))
}

func methodNotAllowed(w http.ResponseWriter) {
	writeError(w, http.StatusMethodNotAllowed, errors.New("method not allowed"))
}
