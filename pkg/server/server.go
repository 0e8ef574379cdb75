// Package server exposes the agent's operations over a small JSON HTTP API.
package server

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"

	"github.com/perchlabs/perch/pkg/agent"
	"github.com/perchlabs/perch/pkg/logging"
	"github.com/perchlabs/perch/pkg/publisher"
	"github.com/perchlabs/perch/pkg/scraper"
)

// Core is what the HTTP layer needs from the agent. Satisfied by
// *agent.Agent; handler tests substitute a stub.
type Core interface {
	Open(ctx context.Context) error
	Post(ctx context.Context, text string) (*publisher.Result, error)
	Reply(ctx context.Context, targetID, text string) (*publisher.Result, error)
	CheckMentions(ctx context.Context) ([]scraper.Record, error)
	CheckChat(ctx context.Context) ([]scraper.ScrapedMessage, error)
	StartMonitoring(interval time.Duration)
	StopMonitoring()
	Stats() agent.Stats
}

// Server is the HTTP front for one agent.
type Server struct {
	core Core
	log  *logging.Logger
}

// New creates a Server over the given core.
func New(core Core, log *logging.Logger) *Server {
	return &Server{core: core, log: log}
}

// Router builds the chi router with all routes mounted.
func (s *Server) Router() http.Handler {
	r := chi.NewRouter()

	r.Use(chiMiddleware.RequestID)
	r.Use(chiMiddleware.RealIP)
	r.Use(chiMiddleware.Recoverer)
	r.Use(chiMiddleware.Heartbeat("/health"))

	r.Post("/init", s.handleInit)
	r.Post("/post", s.handlePost)
	r.Post("/reply", s.handleReply)
	r.Get("/mentions", s.handleMentions)
	r.Get("/chat", s.handleChat)
	r.Post("/monitor/start", s.handleMonitorStart)
	r.Post("/monitor/stop", s.handleMonitorStop)
	r.Get("/stats", s.handleStats)

	return r
}

// JSON writes a JSON response with the given status code.
func JSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		http.Error(w, `{"error": "failed to encode response"}`, http.StatusInternalServerError)
	}
}

// Error writes a JSON error response.
func Error(w http.ResponseWriter, status int, message string) {
	JSON(w, status, map[string]string{"error": message})
}

func (s *Server) handleInit(w http.ResponseWriter, r *http.Request) {
	if err := s.core.Open(r.Context()); err != nil {
		s.log.Errorf("init failed: %v", err)
		Error(w, http.StatusInternalServerError, err.Error())
		return
	}
	JSON(w, http.StatusOK, map[string]bool{"initialized": true})
}

type postRequest struct {
	Content string `json:"content"`
}

func (s *Server) handlePost(w http.ResponseWriter, r *http.Request) {
	var req postRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		Error(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	if req.Content == "" {
		Error(w, http.StatusBadRequest, "content is required")
		return
	}

	result, err := s.core.Post(r.Context(), req.Content)
	if err != nil {
		s.log.Errorf("post failed: %v", err)
		Error(w, http.StatusInternalServerError, err.Error())
		return
	}
	JSON(w, http.StatusOK, result)
}

type replyRequest struct {
	TargetID string `json:"targetId"`
	Content  string `json:"content"`
}

func (s *Server) handleReply(w http.ResponseWriter, r *http.Request) {
	var req replyRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		Error(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	if req.TargetID == "" || req.Content == "" {
		Error(w, http.StatusBadRequest, "targetId and content are required")
		return
	}

	result, err := s.core.Reply(r.Context(), req.TargetID, req.Content)
	if err != nil {
		s.log.Errorf("reply failed: %v", err)
		Error(w, http.StatusInternalServerError, err.Error())
		return
	}
	JSON(w, http.StatusOK, result)
}

func (s *Server) handleMentions(w http.ResponseWriter, r *http.Request) {
	records, err := s.core.CheckMentions(r.Context())
	if err != nil {
		s.log.Errorf("mention check failed: %v", err)
		Error(w, http.StatusInternalServerError, err.Error())
		return
	}
	if records == nil {
		records = []scraper.Record{}
	}
	JSON(w, http.StatusOK, map[string]interface{}{
		"count":    len(records),
		"mentions": records,
	})
}

func (s *Server) handleChat(w http.ResponseWriter, r *http.Request) {
	messages, err := s.core.CheckChat(r.Context())
	if err != nil {
		s.log.Errorf("chat check failed: %v", err)
		Error(w, http.StatusInternalServerError, err.Error())
		return
	}
	if messages == nil {
		messages = []scraper.ScrapedMessage{}
	}
	JSON(w, http.StatusOK, map[string]interface{}{
		"count":    len(messages),
		"messages": messages,
	})
}

type monitorStartRequest struct {
	IntervalSeconds int `json:"intervalSeconds"`
}

func (s *Server) handleMonitorStart(w http.ResponseWriter, r *http.Request) {
	var req monitorStartRequest
	// Body is optional; an empty or absent body means the default interval.
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil && !errors.Is(err, io.EOF) {
		Error(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	if req.IntervalSeconds < 0 {
		Error(w, http.StatusBadRequest, "intervalSeconds must not be negative")
		return
	}

	s.core.StartMonitoring(time.Duration(req.IntervalSeconds) * time.Second)
	JSON(w, http.StatusOK, map[string]bool{"monitoring": true})
}

func (s *Server) handleMonitorStop(w http.ResponseWriter, r *http.Request) {
	s.core.StopMonitoring()
	JSON(w, http.StatusOK, map[string]bool{"monitoring": false})
}

func (s *Server) handleStats(w http.ResponseWriter, r *http.Request) {
	JSON(w, http.StatusOK, s.core.Stats())
}
