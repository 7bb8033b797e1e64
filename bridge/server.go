// Package bridge exposes an rl.Env to an external trainer over HTTP JSON.
package bridge

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"sync"
	"time"

	"depgraph/experiments/metrics"
	"depgraph/rl"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog/log"
)

type StepRequest struct {
	Action int `json:"action"`
}

type StepResponse struct {
	Observation []float64 `json:"observation"`
	Reward      float64   `json:"reward"`
	Done        bool      `json:"done"`
	Outcome     string    `json:"outcome"`
	Error       string    `json:"error,omitempty"`
}

type ResetResponse struct {
	Observation []float64 `json:"observation"`
}

type PayoffsResponse struct {
	Attacker float64 `json:"attacker"`
	Defender float64 `json:"defender"`
}

type InfoResponse struct {
	NodeCount       int `json:"nodeCount"`
	PassAction      int `json:"passAction"`
	ObservationSize int `json:"observationSize"`
}

// Server serializes access to one environment.
type Server struct {
	env      *rl.Env
	registry *metrics.Registry
	mutex    sync.RWMutex
}

type Option func(s *Server)

// WithRegistry serves the registry on /metrics.
func WithRegistry(r *metrics.Registry) Option {
	return func(s *Server) {
		s.registry = r
	}
}

func NewServer(env *rl.Env, options ...Option) *Server {
	s := &Server{env: env}
	for _, option := range options {
		option(s)
	}
	return s
}

func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("POST /reset", s.handleReset)
	mux.HandleFunc("POST /step", s.handleStep)
	mux.HandleFunc("GET /payoffs", s.handlePayoffs)
	mux.HandleFunc("GET /render", s.handleRender)
	mux.HandleFunc("GET /info", s.handleInfo)
	if s.registry != nil {
		mux.Handle("GET /metrics", promhttp.HandlerFor(s.registry.GetPrometheusRegistry(), promhttp.HandlerOpts{}))
	}
	return mux
}

// ListenAndServe serves until ctx is done, then shuts down gracefully.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 5 * time.Second,
	}
	errc := make(chan error, 1)
	go func() {
		log.Info().Msgf("bridge listening on %s", addr)
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
		if err := <-errc; !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	}
}

func (s *Server) handleReset(w http.ResponseWriter, r *http.Request) {
	s.mutex.Lock()
	obs := s.env.Reset()
	s.mutex.Unlock()
	log.Debug().Msg("bridge reset")
	writeJSON(w, ResetResponse{Observation: obs})
}

func (s *Server) handleStep(w http.ResponseWriter, r *http.Request) {
	var req StepRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid step request: "+err.Error(), http.StatusBadRequest)
		return
	}
	s.mutex.Lock()
	result := s.env.Step(req.Action)
	s.mutex.Unlock()

	resp := StepResponse{
		Observation: result.Observation,
		Reward:      result.Reward,
		Done:        result.Done,
		Outcome:     result.Outcome.String(),
	}
	if result.Err != nil {
		resp.Error = result.Err.Error()
		log.Error().Err(result.Err).Int("action", req.Action).Msg("bridge step failed")
	}
	log.Debug().Int("action", req.Action).Str("outcome", resp.Outcome).Float64("reward", resp.Reward).Msg("bridge step")
	writeJSON(w, resp)
}

func (s *Server) handlePayoffs(w http.ResponseWriter, r *http.Request) {
	s.mutex.RLock()
	p := s.env.TotalPayoffs()
	s.mutex.RUnlock()
	writeJSON(w, PayoffsResponse{Attacker: p.Attacker, Defender: p.Defender})
}

func (s *Server) handleRender(w http.ResponseWriter, r *http.Request) {
	s.mutex.RLock()
	text := s.env.Render()
	s.mutex.RUnlock()
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.Write([]byte(text))
}

func (s *Server) handleInfo(w http.ResponseWriter, r *http.Request) {
	s.mutex.RLock()
	info := InfoResponse{
		NodeCount:       s.env.NodeCount(),
		PassAction:      s.env.PassAction(),
		ObservationSize: s.env.ObservationSize(),
	}
	s.mutex.RUnlock()
	writeJSON(w, info)
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Error().Err(err).Msg("failed to encode response")
	}
}
