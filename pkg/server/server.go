// Package server exposes layouts, scenes and meshes over HTTP so a browser
// renderer can draw them.
package server

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/sirupsen/logrus"

	"github.com/chazu/minerack/pkg/engine"
	"github.com/chazu/minerack/pkg/kernel"
	"github.com/chazu/minerack/pkg/layout"
	"github.com/chazu/minerack/pkg/scene"
	"github.com/chazu/minerack/pkg/tessellate"
)

// maxSourceBytes caps the size of a posted DSL program.
const maxSourceBytes = 1 << 20

// Evaluator runs DSL source for one client. Calls from different clients
// must not affect each other; *engine.Engine does this via
// EvaluateIndependent.
//
// Evaluations that time out keep running inside the interpreter, so the
// evaluator should cap how many run at once (engine.WithMaxRunning) and
// return engine.ErrBusy when full. The server answers that with 503.
type Evaluator interface {
	EvaluateIndependent(source string) (*engine.Program, []engine.EvalError, error)
}

// Server holds the collaborators shared by every handler. Handlers keep no
// per-request state on it.
type Server struct {
	log     logrus.FieldLogger
	engine  Evaluator
	kernel  kernel.Kernel
	variant layout.Variant // used when a request names none
}

// New returns a server that evaluates DSL with eng and meshes with k.
func New(log logrus.FieldLogger, eng Evaluator, k kernel.Kernel, variant layout.Variant) *Server {
	return &Server{log: log, engine: eng, kernel: k, variant: variant}
}

// Router builds the route table.
func (s *Server) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(s.requestLogger)
	r.Use(middleware.Recoverer)

	r.Get("/healthz", s.handleHealth)
	r.Route("/api", func(r chi.Router) {
		r.Get("/variants", s.handleVariants)
		r.Get("/layout", s.handleLayout)
		r.Get("/meshes", s.handleMeshes)
		r.Post("/evaluate", s.handleEvaluate)
	})
	return r
}

// ListenAndServe serves the API on addr until ctx is cancelled.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.Router(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errc := make(chan error, 1)
	go func() {
		s.log.WithField("addr", addr).Info("listening")
		errc <- srv.ListenAndServe()
	}()

	select {
	case err := <-errc:
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return err
		}
		s.log.Info("server stopped")
		return nil
	}
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

type variantsResponse struct {
	Presets []layout.Preset   `json:"presets"`
	Limits  layout.Limits     `json:"limits"`
	Default layout.RackConfig `json:"default"`
}

func (s *Server) handleVariants(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, variantsResponse{
		Presets: layout.Presets(),
		Limits:  layout.DefaultLimits(),
		Default: layout.DefaultConfig(),
	})
}

type layoutResponse struct {
	Scene      *scene.Scene            `json:"scene"`
	Inspection layout.InspectionResult `json:"inspection"`
}

func (s *Server) handleLayout(w http.ResponseWriter, r *http.Request) {
	sc, ok := s.buildScene(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, layoutResponse{Scene: sc, Inspection: layout.Inspect(sc.Rack)})
}

func (s *Server) handleMeshes(w http.ResponseWriter, r *http.Request) {
	roles, err := parseRoles(r.URL.Query())
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error(), nil)
		return
	}
	sc, ok := s.buildScene(w, r)
	if !ok {
		return
	}

	start := time.Now()
	res, err := tessellate.Tessellate(sc.Components, s.kernel, tessellate.Options{Roles: roles})
	if err != nil {
		s.entry(r).WithError(err).Error("tessellation failed")
		writeError(w, http.StatusInternalServerError, "tessellation failed", nil)
		return
	}
	s.entry(r).WithFields(logrus.Fields{
		"meshes":  len(res.Meshes),
		"skipped": len(res.Skipped),
		"elapsed": time.Since(start).String(),
	}).Debug("tessellated scene")
	writeJSON(w, http.StatusOK, res)
}

// buildScene parses the query and composes the scene, writing the error
// response itself when that fails.
func (s *Server) buildScene(w http.ResponseWriter, r *http.Request) (*scene.Scene, bool) {
	req, err := parseLayoutQuery(r.URL.Query(), s.variant)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error(), nil)
		return nil, false
	}
	sc, err := scene.Build(req.config, req.variant)
	if err != nil {
		s.writeBuildError(w, r, err)
		return nil, false
	}
	return sc, true
}

type evaluateResponse struct {
	Scenes   []*scene.Scene       `json:"scenes"`
	Errors   []engine.EvalError   `json:"errors"`
	Warnings []engine.EvalWarning `json:"warnings"`
}

func (s *Server) handleEvaluate(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxSourceBytes))
	if err != nil {
		writeError(w, http.StatusRequestEntityTooLarge, "source too large", nil)
		return
	}

	resp := evaluateResponse{
		Scenes:   []*scene.Scene{},
		Errors:   []engine.EvalError{},
		Warnings: []engine.EvalWarning{},
	}

	prog, evalErrs, err := s.engine.EvaluateIndependent(string(body))
	if errors.Is(err, engine.ErrBusy) {
		s.entry(r).Warn("evaluation refused, interpreters busy")
		w.Header().Set("Retry-After", "5")
		writeError(w, http.StatusServiceUnavailable, err.Error(), nil)
		return
	}
	if err != nil {
		s.entry(r).WithError(err).Warn("evaluation aborted")
		resp.Errors = append(resp.Errors, engine.EvalError{Message: err.Error()})
		writeJSON(w, http.StatusUnprocessableEntity, resp)
		return
	}
	if len(evalErrs) > 0 {
		resp.Errors = evalErrs
		writeJSON(w, http.StatusUnprocessableEntity, resp)
		return
	}

	scenes, warnings, err := prog.Build()
	if err != nil {
		s.writeBuildError(w, r, err)
		return
	}
	resp.Scenes = append(resp.Scenes, scenes...)
	resp.Warnings = append(resp.Warnings, warnings...)
	writeJSON(w, http.StatusOK, resp)
}

// writeBuildError maps a layout failure to a status: rejected parameters are
// the client's problem, anything else is ours.
func (s *Server) writeBuildError(w http.ResponseWriter, r *http.Request, err error) {
	var verrs layout.ValidationErrors
	switch {
	case errors.As(err, &verrs):
		writeError(w, http.StatusUnprocessableEntity, err.Error(), verrs)
	case errors.Is(err, layout.ErrUnknownVariant):
		writeError(w, http.StatusBadRequest, err.Error(), nil)
	default:
		s.entry(r).WithError(err).Error("scene build failed")
		writeError(w, http.StatusInternalServerError, "scene build failed", nil)
	}
}

func (s *Server) entry(r *http.Request) logrus.FieldLogger {
	return s.log.WithField("request_id", middleware.GetReqID(r.Context()))
}

type errorResponse struct {
	Error    string                   `json:"error"`
	Code     int                      `json:"code"`
	Problems []layout.ValidationError `json:"problems,omitempty"`
}

func writeError(w http.ResponseWriter, code int, message string, problems []layout.ValidationError) {
	writeJSON(w, code, errorResponse{Error: message, Code: code, Problems: problems})
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}
