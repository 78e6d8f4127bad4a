package server

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/smykla-skalski/sendguard/internal/governor"
	"github.com/smykla-skalski/sendguard/internal/limits"
	"github.com/smykla-skalski/sendguard/internal/session"
)

// maxBodyBytes bounds request bodies.
const maxBodyBytes = 1 << 16

// ErrBadRequest is returned for malformed request bodies.
var ErrBadRequest = errors.New("bad request")

type registerRequest struct {
	ID string `json:"id"`
}

type cooldownRequest struct {
	Reason string `json:"reason"`
}

type errorResponse struct {
	Error string `json:"error"`
}

// Handler returns the HTTP routes.
func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()

	r.Use(s.logRequests)

	r.Get("/health", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})

	if s.gatherer != nil {
		r.Handle("/metrics", promhttp.HandlerFor(s.gatherer, promhttp.HandlerOpts{}))
	}

	r.Route("/v1/sessions", func(r chi.Router) {
		r.Get("/", s.handleList)
		r.Post("/", s.handleRegister)
		r.Post("/evaluate", s.handleEvaluateAll)

		r.Route("/{id}", func(r chi.Router) {
			r.Get("/", s.handleGet)
			r.Delete("/", s.handleRemove)
			r.Post("/admit", s.handleAdmit)
			r.Post("/events", s.handleEvent)
			r.Post("/evaluate", s.handleEvaluate)
			r.Put("/limits", s.handleSetLimits)
			r.Post("/cooldown", s.handleCooldown)
			r.Post("/unblock", s.handleUnblock)
		})
	})

	return r
}

func (s *Server) logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		s.logger.Debug("request", "method", r.Method, "path", r.URL.Path)
		next.ServeHTTP(w, r)
	})
}

func (s *Server) handleList(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, s.sessions.List())
}

func (s *Server) handleGet(w http.ResponseWriter, r *http.Request) {
	rec, err := s.sessions.Get(chi.URLParam(r, "id"))
	if err != nil {
		s.writeError(w, err)

		return
	}

	writeJSON(w, http.StatusOK, rec)
}

func (s *Server) handleRegister(w http.ResponseWriter, r *http.Request) {
	var req registerRequest
	if err := decodeBody(r, &req); err != nil {
		s.writeError(w, err)

		return
	}

	rec, err := s.engine.Register(r.Context(), req.ID)
	s.respond(w, http.StatusCreated, rec, err)
}

func (s *Server) handleRemove(w http.ResponseWriter, r *http.Request) {
	if err := s.engine.Remove(r.Context(), chi.URLParam(r, "id")); err != nil {
		s.writeError(w, err)

		return
	}

	if err := s.save(); err != nil {
		s.writeError(w, err)

		return
	}

	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleAdmit(w http.ResponseWriter, r *http.Request) {
	res, err := s.engine.Admit(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		s.writeError(w, err)

		return
	}

	if res.Allowed {
		writeJSON(w, http.StatusOK, res)

		return
	}

	if res.RetryAfter > 0 {
		w.Header().Set("Retry-After", retryAfterSeconds(res))
	}

	writeJSON(w, http.StatusTooManyRequests, res)
}

func (s *Server) handleEvent(w http.ResponseWriter, r *http.Request) {
	var ev governor.Event
	if err := decodeBody(r, &ev); err != nil {
		s.writeError(w, err)

		return
	}

	s.respondEvaluation(w, r, func(ctx context.Context, id string) (*governor.Evaluation, error) {
		return s.engine.RecordEvent(ctx, id, ev)
	})
}

func (s *Server) handleEvaluate(w http.ResponseWriter, r *http.Request) {
	s.respondEvaluation(w, r, s.engine.Evaluate)
}

func (s *Server) handleUnblock(w http.ResponseWriter, r *http.Request) {
	s.respondEvaluation(w, r, s.engine.Unblock)
}

func (s *Server) handleCooldown(w http.ResponseWriter, r *http.Request) {
	var req cooldownRequest
	if err := decodeBody(r, &req); err != nil {
		s.writeError(w, err)

		return
	}

	s.respondEvaluation(w, r, func(ctx context.Context, id string) (*governor.Evaluation, error) {
		return s.engine.ForceCooldown(ctx, id, req.Reason)
	})
}

func (s *Server) handleSetLimits(w http.ResponseWriter, r *http.Request) {
	var l limits.SendLimits
	if err := decodeBody(r, &l); err != nil {
		s.writeError(w, err)

		return
	}

	rec, err := s.engine.SetLimits(r.Context(), chi.URLParam(r, "id"), l)
	s.respond(w, http.StatusOK, rec, err)
}

func (s *Server) handleEvaluateAll(w http.ResponseWriter, r *http.Request) {
	if err := s.EvaluatePass(r.Context()); err != nil {
		s.writeError(w, err)

		return
	}

	writeJSON(w, http.StatusOK, s.sessions.List())
}

func (s *Server) respondEvaluation(
	w http.ResponseWriter,
	r *http.Request,
	fn func(ctx context.Context, id string) (*governor.Evaluation, error),
) {
	ev, err := fn(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		s.writeError(w, err)

		return
	}

	s.respond(w, http.StatusOK, ev.Summary(), nil)
}

// respond saves state after a successful mutation and writes body.
func (s *Server) respond(w http.ResponseWriter, status int, body any, err error) {
	if err == nil {
		err = s.save()
	}

	if err != nil {
		s.writeError(w, err)

		return
	}

	writeJSON(w, status, body)
}

func (s *Server) writeError(w http.ResponseWriter, err error) {
	status := statusFor(err)
	if status >= http.StatusInternalServerError {
		s.logger.Error("request failed", "error", err)
	}

	writeJSON(w, status, errorResponse{Error: err.Error()})
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, session.ErrSessionNotFound):
		return http.StatusNotFound
	case errors.Is(err, session.ErrSessionExists):
		return http.StatusConflict
	case errors.Is(err, session.ErrEmptySessionID),
		errors.Is(err, governor.ErrUnknownEvent),
		errors.Is(err, ErrBadRequest):
		return http.StatusBadRequest
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

func decodeBody(r *http.Request, v any) error {
	dec := json.NewDecoder(io.LimitReader(r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()

	if err := dec.Decode(v); err != nil && !errors.Is(err, io.EOF) {
		return errors.Mark(errors.Wrap(err, "decoding request body"), ErrBadRequest)
	}

	return nil
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// retryAfterSeconds rounds up to whole seconds for the Retry-After header.
func retryAfterSeconds(res *governor.Admission) string {
	secs := int64((res.RetryAfter + time.Second - 1) / time.Second)

	return strconv.FormatInt(max(secs, 1), 10)
}
