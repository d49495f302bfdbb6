// Package server exposes the generation pipeline over HTTP.
package server

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"net/http"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"auto_sketch_enhancer/config"
	"auto_sketch_enhancer/generator"
	"auto_sketch_enhancer/publisher"
	"auto_sketch_enhancer/surface"
)

const (
	// maxBody caps request size; sketches arrive as base64 JSON.
	maxBody = 32 << 20
	// maxGenerations bounds the in-memory store, oldest evicted first.
	maxGenerations = 256
)

type Server struct {
	orch    *generator.Orchestrator
	cfg     config.Config
	store   *generationStore
	logger  *log.Logger
	verbose bool
}

type generationStore struct {
	mu    sync.Mutex
	byID  map[string]*generator.Session
	order []string
	limit int
}

func newStore(limit int) *generationStore {
	return &generationStore{byID: make(map[string]*generator.Session), limit: limit}
}

func (s *generationStore) set(id string, sess *generator.Session) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.byID[id]; !ok {
		s.order = append(s.order, id)
	}
	s.byID[id] = sess
	for len(s.order) > s.limit {
		delete(s.byID, s.order[0])
		s.order = s.order[1:]
	}
}

func (s *generationStore) get(id string) (*generator.Session, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	sess, ok := s.byID[id]
	return sess, ok
}

func New(orch *generator.Orchestrator, cfg config.Config, verbose bool, logger *log.Logger) (*Server, error) {
	if orch == nil {
		return nil, errors.New("generator orchestrator required")
	}
	if logger == nil {
		logger = log.Default()
	}
	return &Server{
		orch:    orch,
		cfg:     cfg,
		store:   newStore(maxGenerations),
		logger:  logger,
		verbose: verbose,
	}, nil
}

func (s *Server) Routes() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/healthz", s.handleHealth)
	mux.HandleFunc("/api/generate", s.handleGenerate)
	mux.HandleFunc("/api/generations/", s.handleGenerationByID)
	return logMiddleware(s.logger, mux)
}

// --- Handlers ---

type generateReq struct {
	Image  string   `json:"image"`
	Prompt string   `json:"prompt"`
	Styles []string `json:"styles"`
}

type generateResp struct {
	ID string `json:"id"`
	generator.Result
}

type eventResp struct {
	Stage     string    `json:"stage"`
	Component string    `json:"component,omitempty"`
	Message   string    `json:"message,omitempty"`
	Error     string    `json:"error,omitempty"`
	At        time.Time `json:"at"`
}

type generationResp struct {
	ID        string           `json:"id"`
	CreatedAt time.Time        `json:"created_at"`
	Prompt    string           `json:"prompt,omitempty"`
	Styles    []string         `json:"styles,omitempty"`
	Result    generator.Result `json:"result"`
	History   []eventResp      `json:"history"`
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, map[string]string{"status": "ok"})
}

func (s *Server) handleGenerate(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	var req generateReq
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBody)).Decode(&req); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	// 空画布直接拒绝，不进入流水线。
	if strings.TrimSpace(surface.StripDataURI(req.Image)) == "" {
		http.Error(w, "please draw something first", http.StatusBadRequest)
		return
	}

	id := newGenerationID()
	sess := generator.NewSession(id, generator.Input{Sketch: req.Image, Prompt: req.Prompt, Styles: req.Styles}, s.orch)
	ctx := r.Context()
	if d := s.cfg.AnalysisTimeout(); d > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, d)
		defer cancel()
	}
	res := sess.Run(ctx)
	s.store.set(id, sess)
	if s.verbose {
		s.logger.Printf("[INFO] [server] generation %s fallback=%t", id, res.Fallback)
	}
	writeJSON(w, generateResp{ID: id, Result: res})
}

func (s *Server) handleGenerationByID(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	rest := strings.TrimPrefix(r.URL.Path, "/api/generations/")
	id, view, _ := strings.Cut(rest, "/")
	if id == "" {
		http.NotFound(w, r)
		return
	}
	sess, ok := s.store.get(id)
	if !ok {
		http.Error(w, "generation not found", http.StatusNotFound)
		return
	}

	switch view {
	case "":
		writeJSON(w, toGenerationResp(sess))
	case "report":
		html, err := publisher.RenderHTML(reportFor(sess))
		if err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		_, _ = w.Write([]byte(html))
	case "pdf":
		var buf bytes.Buffer
		if err := publisher.WritePDF(&buf, reportFor(sess)); err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}
		w.Header().Set("Content-Type", "application/pdf")
		w.Header().Set("Content-Disposition", fmt.Sprintf(`inline; filename="%s.pdf"`, id))
		_, _ = w.Write(buf.Bytes())
	default:
		http.NotFound(w, r)
	}
}

// --- Helpers ---

func toGenerationResp(sess *generator.Session) generationResp {
	out := generationResp{
		ID:        sess.ID,
		CreatedAt: sess.CreatedAt,
		Prompt:    sess.Input.Prompt,
		Styles:    sess.Input.Styles,
		Result:    sess.Result,
	}
	for _, t := range sess.History() {
		e := eventResp{Stage: string(t.Event.Stage), Component: t.Event.Component, Message: t.Event.Message, At: t.CreatedAt}
		if t.Event.Err != nil {
			e.Error = t.Event.Err.Error()
		}
		out.History = append(out.History, e)
	}
	return out
}

func reportFor(sess *generator.Session) publisher.Report {
	r := publisher.Report{
		Title:       "Generation " + sess.ID,
		Description: sess.Result.Description,
		Prompt:      sess.Input.Prompt,
		Styles:      sess.Input.Styles,
		Fallback:    sess.Result.Fallback,
		CreatedAt:   sess.CreatedAt,
	}
	if orig, err := surface.ParseSketch(sess.Input.Sketch); err == nil {
		r.Original = orig
	}
	if len(sess.Result.Images) > 0 {
		if res, err := surface.ParseSketch(sess.Result.Images[0]); err == nil {
			r.Result = res
		}
	}
	return r
}

var idSeq atomic.Uint64

func newGenerationID() string {
	ts := strings.ReplaceAll(time.Now().Format("20060102T150405.000000000"), ".", "")
	return fmt.Sprintf("%s-%d", ts, idSeq.Add(1))
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(v)
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(code int) {
	r.status = code
	r.ResponseWriter.WriteHeader(code)
}

func logMiddleware(logger *log.Logger, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, r)
		path := r.URL.Path
		if path == "" {
			path = "/"
		}
		logger.Printf("[http] %s %s %d %s", r.Method, path, rec.status, time.Since(start).Round(time.Millisecond))
	})
}
