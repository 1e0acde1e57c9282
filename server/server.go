// Package server exposes a drawing session over a JSON HTTP API.
package server

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"github.com/juruen/inkrec/config"
	"github.com/juruen/inkrec/failure"
	"github.com/juruen/inkrec/log"
	"github.com/juruen/inkrec/raster"
	"github.com/juruen/inkrec/recognizer"
	"github.com/juruen/inkrec/stroke"
	"github.com/pkg/errors"
)

type ApiServer struct {
	session *recognizer.Session
	cfg     config.Config
	router  *mux.Router
}

type ErrorResponse struct {
	Error string `json:"error"`
}

type SuccessResponse struct {
	Message string      `json:"message,omitempty"`
	Data    interface{} `json:"data,omitempty"`
}

type PointJSON struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

type StrokeRequest struct {
	Points []PointJSON `json:"points"`
	Color  *stroke.RGB `json:"color,omitempty"`
	Width  float64     `json:"width,omitempty"`
}

type ResultJSON struct {
	File   string    `json:"file"`
	Scores []float32 `json:"scores"`
	Class  int       `json:"class"`
	Label  string    `json:"label"`
}

type StatusJSON struct {
	Session  string `json:"session"`
	State    string `json:"state"`
	Segments int    `json:"segments"`
}

func NewApiServer(session *recognizer.Session, cfg config.Config) *ApiServer {
	s := &ApiServer{session: session, cfg: cfg}
	s.router = s.newRouter()
	return s
}

func (s *ApiServer) newRouter() *mux.Router {
	r := mux.NewRouter()
	r.Use(requestID)
	r.MethodNotAllowedHandler = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		s.writeError(w, http.StatusMethodNotAllowed, fmt.Errorf("method %s not allowed", r.Method))
	})
	r.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprintln(w, "OK")
	}).Methods("GET")

	// API routes stay on the root router so a method mismatch answers 405.
	s.handle(r, "GET", "/api/status", s.handleStatus)
	s.handle(r, "POST", "/api/strokes", s.handleStrokes)
	s.handle(r, "POST", "/api/clear", s.handleClear)
	s.handle(r, "POST", "/api/save", s.handleSave)
	s.handle(r, "POST", "/api/recognize", s.handleRecognize)
	s.handle(r, "GET", "/api/render", s.handleRender)
	return r
}

// handle registers an API route, behind bearer auth when a secret is set.
func (s *ApiServer) handle(r *mux.Router, method, path string, h http.HandlerFunc) {
	var handler http.Handler = h
	if s.cfg.JWTSecret != "" {
		handler = bearerAuth([]byte(s.cfg.JWTSecret), s.writeError)(handler)
	}
	r.Handle(path, handler).Methods(method)
}

func (s *ApiServer) Handler() http.Handler {
	return s.router
}

// ListenAndServe blocks serving on the configured address.
func (s *ApiServer) ListenAndServe() error {
	srv := &http.Server{
		Addr:              s.cfg.Addr,
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
	}
	log.Info.Printf("listening on %s", s.cfg.Addr)
	return srv.ListenAndServe()
}

func (s *ApiServer) writeError(w http.ResponseWriter, status int, err error) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(ErrorResponse{Error: err.Error()})
}

func (s *ApiServer) writeSuccess(w http.ResponseWriter, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(SuccessResponse{Data: data})
}

// writeFailure maps a pipeline error to a status code: 409 for an action
// cancelled by a newer one, 503 while the model can't be loaded. The server
// keeps running after any of them.
func (s *ApiServer) writeFailure(w http.ResponseWriter, r *http.Request, err error) {
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, context.Canceled):
		status = http.StatusConflict
	case failure.Is(err, failure.ModelLoad):
		status = http.StatusServiceUnavailable
	}
	log.Error.Printf("%s %s: %v", w.Header().Get(requestIDHeader), r.URL.Path, err)
	s.writeError(w, status, err)
}

// GET /api/status
func (s *ApiServer) handleStatus(w http.ResponseWriter, r *http.Request) {
	s.writeSuccess(w, StatusJSON{
		Session:  s.session.ID(),
		State:    s.session.State().String(),
		Segments: s.session.Strokes().Len(),
	})
}

// POST /api/strokes {"points":[{"x":0,"y":0},...],"color":"#000000","width":10}
func (s *ApiServer) handleStrokes(w http.ResponseWriter, r *http.Request) {
	var req StrokeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.writeError(w, http.StatusBadRequest, err)
		return
	}
	if len(req.Points) == 0 {
		s.writeError(w, http.StatusBadRequest, fmt.Errorf("points are required"))
		return
	}
	if req.Width < 0 {
		s.writeError(w, http.StatusBadRequest, fmt.Errorf("width must be positive"))
		return
	}

	pen := s.session.Recorder().Pen()
	if req.Color != nil {
		pen.Color = *req.Color
	}
	if req.Width > 0 {
		pen.Width = req.Width
	}

	points := make([]stroke.Point, len(req.Points))
	for i, p := range req.Points {
		points[i] = stroke.Point{X: p.X, Y: p.Y}
		if !points[i].Finite() {
			s.writeError(w, http.StatusBadRequest, fmt.Errorf("point %d is not finite", i))
			return
		}
	}
	stroke.NewRecorder(s.session.Strokes(), pen).Polyline(points...)

	s.writeSuccess(w, map[string]int{"segments": s.session.Strokes().Len()})
}

// POST /api/clear
func (s *ApiServer) handleClear(w http.ResponseWriter, r *http.Request) {
	s.session.Clear()
	s.writeSuccess(w, map[string]int{"segments": 0})
}

// POST /api/save
func (s *ApiServer) handleSave(w http.ResponseWriter, r *http.Request) {
	path, err := s.session.Save(r.Context())
	if err != nil {
		s.writeFailure(w, r, err)
		return
	}
	s.writeSuccess(w, map[string]string{"file": path})
}

// POST /api/recognize
func (s *ApiServer) handleRecognize(w http.ResponseWriter, r *http.Request) {
	res, err := s.session.Recognize(r.Context())
	if err != nil {
		s.writeFailure(w, r, err)
		return
	}
	s.writeSuccess(w, ResultJSON{
		File:   res.Path,
		Scores: res.Scores,
		Class:  res.Class,
		Label:  res.Label,
	})
}

// GET /api/render
func (s *ApiServer) handleRender(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "image/png")
	if err := raster.Encode(w, s.session.Render()); err != nil {
		log.Error.Printf("render: %v", err)
	}
}
