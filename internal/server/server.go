// Package server exposes a Predictor over HTTP.
package server

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cast"

	"loanscore/internal/artifact"
	"loanscore/internal/loan"
	"loanscore/internal/metrics"
	"loanscore/internal/ml"
	"loanscore/internal/preprocess"
	"loanscore/internal/storage"
)

// RequestIDHeader carries the caller's request id, echoed on every response.
const RequestIDHeader = "X-Request-ID"

const maxBodyBytes = 1 << 20

// Config holds the HTTP settings of a Server.
type Config struct {
	ListenAddr     string
	RequestTimeout time.Duration
	HistoryLimit   int
}

// Server serves predictions for one loaded bundle.
type Server struct {
	predictor *ml.Predictor
	store     *storage.Store
	metrics   *metrics.Wrapper
	gatherer  prometheus.Gatherer
	drift     *ml.DriftDetector
	config    Config
	startedAt time.Time

	server *http.Server
}

// Option configures a Server.
type Option func(*Server)

// WithStore logs every served prediction to store.
func WithStore(store *storage.Store) Option {
	return func(s *Server) { s.store = store }
}

// WithMetrics records HTTP metrics on w and exposes g on /metrics.
func WithMetrics(w *metrics.Wrapper, g prometheus.Gatherer) Option {
	return func(s *Server) {
		s.metrics = w
		s.gatherer = g
	}
}

// WithDriftDetector exposes d on /model/drift.
func WithDriftDetector(d *ml.DriftDetector) Option {
	return func(s *Server) { s.drift = d }
}

// PredictionResponse is the body of a successful POST /predict.
type PredictionResponse struct {
	RequestID   string       `json:"request_id"`
	Predictions []Prediction `json:"predictions"`
	ModelSHA256 string       `json:"model_sha256"`
	Latency     float64      `json:"latency_ms"`
	Timestamp   time.Time    `json:"timestamp"`
}

// Prediction is the outcome for one applicant row.
type Prediction struct {
	Label                loan.Decision `json:"label"`
	ApprovalProbability  float64       `json:"approval_probability"`
	RejectionProbability float64       `json:"rejection_probability"`
}

// ErrorResponse is the body of every failed request.
type ErrorResponse struct {
	Error     string `json:"error"`
	Kind      string `json:"kind,omitempty"`
	Field     string `json:"field,omitempty"`
	Value     string `json:"value,omitempty"`
	RequestID string `json:"request_id,omitempty"`
}

// HealthResponse is the body of GET /health.
type HealthResponse struct {
	Status      string    `json:"status"`
	ModelKind   string    `json:"model_kind,omitempty"`
	ModelSHA256 string    `json:"model_sha256,omitempty"`
	LoadedAt    time.Time `json:"loaded_at,omitempty"`
	Uptime      string    `json:"uptime"`
}

// ModelInfoResponse is the body of GET /model/info.
type ModelInfoResponse struct {
	artifact.Info
	Features   []string            `json:"features"`
	Roles      preprocess.Roles    `json:"roles"`
	Categories map[string][]string `json:"categories"`
	Education  []string            `json:"education_levels"`
}

// DriftResponse is the body of GET /model/drift.
type DriftResponse struct {
	Features map[string]ml.FeatureDistribution `json:"features"`
	Alerts   []ml.DriftAlert                   `json:"alerts"`
}

// New builds a server around predictor. A nil predictor answers every
// prediction with 503.
func New(predictor *ml.Predictor, config Config, opts ...Option) *Server {
	if config.RequestTimeout <= 0 {
		config.RequestTimeout = 5 * time.Second
	}
	if config.HistoryLimit <= 0 {
		config.HistoryLimit = 20
	}
	s := &Server{
		predictor: predictor,
		config:    config,
		startedAt: time.Now(),
	}
	for _, opt := range opts {
		opt(s)
	}

	s.server = &http.Server{
		Addr:         config.ListenAddr,
		Handler:      s.Handler(),
		ReadTimeout:  10 * time.Second,
		WriteTimeout: config.RequestTimeout + 5*time.Second,
		IdleTimeout:  120 * time.Second,
	}
	return s
}

// Handler returns the routed handler, for use with httptest.
func (s *Server) Handler() http.Handler {
	r := mux.NewRouter()
	r.HandleFunc("/predict", s.handlePredict).Methods(http.MethodPost)
	r.HandleFunc("/health", s.handleHealth).Methods(http.MethodGet)
	r.HandleFunc("/model/info", s.handleModelInfo).Methods(http.MethodGet)
	r.HandleFunc("/model/drift", s.handleDrift).Methods(http.MethodGet)
	r.HandleFunc("/predictions", s.handlePredictions).Methods(http.MethodGet)
	if s.gatherer != nil {
		r.Handle("/metrics", promhttp.HandlerFor(s.gatherer, promhttp.HandlerOpts{})).Methods(http.MethodGet)
	}
	r.Use(s.requestID, s.instrument)
	return r
}

// Start begins serving HTTP requests. It returns http.ErrServerClosed after
// Shutdown.
func (s *Server) Start() error {
	log.Info().Str("addr", s.server.Addr).Msg("Starting prediction server")
	return s.server.ListenAndServe()
}

// Shutdown gracefully shuts down the server
func (s *Server) Shutdown(ctx context.Context) error {
	return s.server.Shutdown(ctx)
}

type ctxKey struct{}

func requestIDFrom(r *http.Request) string {
	id, _ := r.Context().Value(ctxKey{}).(string)
	return id
}

func (s *Server) requestID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := r.Header.Get(RequestIDHeader)
		if id == "" {
			id = uuid.NewString()
		}
		w.Header().Set(RequestIDHeader, id)
		next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), ctxKey{}, id)))
	})
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (sr *statusRecorder) WriteHeader(code int) {
	sr.status = code
	sr.ResponseWriter.WriteHeader(code)
}

func (s *Server) instrument(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, r)

		path := r.URL.Path
		if route := mux.CurrentRoute(r); route != nil {
			if tpl, err := route.GetPathTemplate(); err == nil {
				path = tpl
			}
		}
		if s.metrics != nil {
			s.metrics.RequestDuration(path).Observe(time.Since(start).Seconds())
			s.metrics.RequestsInc(path, strconv.Itoa(rec.status))
		}
		log.Debug().
			Str("method", r.Method).
			Str("path", path).
			Int("status", rec.status).
			Dur("duration", time.Since(start)).
			Str("request_id", requestIDFrom(r)).
			Msg("Handled request")
	})
}

type outcome struct {
	result *ml.Result
	err    error
}

func (s *Server) handlePredict(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	requestID := requestIDFrom(r)

	if s.predictor == nil {
		s.writeError(w, r, fmt.Errorf("%w: no bundle loaded", artifact.ErrArtifactNotFound))
		return
	}

	var body bytes.Buffer
	if _, err := body.ReadFrom(http.MaxBytesReader(w, r.Body, maxBodyBytes)); err != nil {
		writeJSON(w, http.StatusBadRequest, ErrorResponse{Error: fmt.Sprintf("invalid request: %v", err), RequestID: requestID})
		return
	}
	in, err := preprocess.ParseJSON(body.Bytes())
	if err != nil {
		writeJSON(w, http.StatusBadRequest, ErrorResponse{Error: fmt.Sprintf("invalid request: %v", err), RequestID: requestID})
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), s.config.RequestTimeout)
	defer cancel()

	done := make(chan outcome, 1)
	go func() {
		res, err := s.predictor.PredictLoanStatus(in)
		done <- outcome{res, err}
	}()

	var out outcome
	select {
	case out = <-done:
	case <-ctx.Done():
		log.Warn().Str("request_id", requestID).Dur("timeout", s.config.RequestTimeout).Msg("Prediction timed out")
		writeJSON(w, http.StatusGatewayTimeout, ErrorResponse{Error: "prediction timed out", RequestID: requestID})
		return
	}

	batch := preprocess.AsBatch(in)
	sha := s.predictor.Bundle().Info.ModelSHA256
	if out.err != nil {
		s.logPredictions(storage.PredictionRecord{
			RequestID:   requestID,
			Source:      "http",
			ModelSHA256: sha,
			Error:       out.err.Error(),
			ErrorKind:   ml.ErrorKind(out.err),
		})
		s.writeError(w, r, out.err)
		return
	}

	resp := PredictionResponse{
		RequestID:   requestID,
		Predictions: make([]Prediction, len(out.result.Labels)),
		ModelSHA256: sha,
		Latency:     float64(time.Since(start).Microseconds()) / 1000,
		Timestamp:   time.Now(),
	}
	records := make([]storage.PredictionRecord, len(out.result.Labels))
	for i, label := range out.result.Labels {
		p := out.result.Probabilities[i]
		resp.Predictions[i] = Prediction{
			Label:                label,
			ApprovalProbability:  p.Approve(),
			RejectionProbability: p.Reject(),
		}
		records[i] = storage.PredictionRecord{
			RequestID:   requestID,
			Source:      "http",
			Applicant:   batch[i],
			Label:       string(label),
			PReject:     p.Reject(),
			PApprove:    p.Approve(),
			ModelSHA256: sha,
		}
	}
	s.logPredictions(records...)

	log.Info().
		Str("request_id", requestID).
		Int("rows", len(records)).
		Float64("latency_ms", resp.Latency).
		Msg("Served prediction")
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) logPredictions(records ...storage.PredictionRecord) {
	if s.store == nil {
		return
	}
	if err := s.store.StorePredictions(records...); err != nil {
		log.Warn().Err(err).Msg("Failed to store predictions")
	}
}

// writeError maps predictor errors onto status codes: input problems are
// 422, artifact problems 503, anything else 500.
func (s *Server) writeError(w http.ResponseWriter, r *http.Request, err error) {
	kind := ml.ErrorKind(err)
	resp := ErrorResponse{Error: err.Error(), Kind: kind, RequestID: requestIDFrom(r)}

	var fieldErr preprocess.FieldError
	if errors.As(err, &fieldErr) {
		resp.Field = fieldErr.Field()
	}
	var (
		typeErr *preprocess.TypeMismatchError
		catErr  *preprocess.UnknownCategoryError
	)
	switch {
	case errors.As(err, &catErr):
		resp.Value = catErr.Value
	case errors.As(err, &typeErr):
		resp.Value = typeErr.Value
	}

	status := http.StatusInternalServerError
	switch {
	case ml.IsInputError(err):
		status = http.StatusUnprocessableEntity
	case kind == ml.KindArtifact:
		status = http.StatusServiceUnavailable
	}
	if status >= 500 {
		log.Error().Err(err).Str("kind", kind).Str("request_id", resp.RequestID).Msg("Prediction failed")
	} else {
		log.Warn().Err(err).Str("kind", kind).Str("request_id", resp.RequestID).Msg("Rejected prediction input")
	}
	writeJSON(w, status, resp)
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	resp := HealthResponse{Status: "ok", Uptime: time.Since(s.startedAt).Round(time.Second).String()}
	status := http.StatusOK
	if s.predictor == nil {
		resp.Status = "unavailable"
		status = http.StatusServiceUnavailable
	} else {
		info := s.predictor.Bundle().Info
		resp.ModelKind = info.ModelKind
		resp.ModelSHA256 = info.ModelSHA256
		resp.LoadedAt = info.LoadedAt
	}
	writeJSON(w, status, resp)
}

func (s *Server) handleModelInfo(w http.ResponseWriter, r *http.Request) {
	if s.predictor == nil {
		s.writeError(w, r, fmt.Errorf("%w: no bundle loaded", artifact.ErrArtifactNotFound))
		return
	}
	b := s.predictor.Bundle()
	resp := ModelInfoResponse{
		Info:       b.Info,
		Features:   b.FeatureNames(),
		Roles:      b.Roles,
		Categories: make(map[string][]string, len(b.OneHot.Columns)),
		Education:  b.Ordinal.Categories,
	}
	for j, col := range b.OneHot.Columns {
		resp.Categories[col] = b.OneHot.Categories[j]
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleDrift(w http.ResponseWriter, r *http.Request) {
	if s.drift == nil {
		writeJSON(w, http.StatusNotFound, ErrorResponse{Error: "drift detection is disabled", RequestID: requestIDFrom(r)})
		return
	}
	alerts := s.drift.DetectDrift()
	if alerts == nil {
		alerts = []ml.DriftAlert{}
	}
	writeJSON(w, http.StatusOK, DriftResponse{Features: s.drift.Status(), Alerts: alerts})
}

func (s *Server) handlePredictions(w http.ResponseWriter, r *http.Request) {
	if s.store == nil {
		writeJSON(w, http.StatusNotFound, ErrorResponse{Error: "prediction log is disabled", RequestID: requestIDFrom(r)})
		return
	}
	limit := s.config.HistoryLimit
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := cast.ToIntE(v)
		if err != nil || n <= 0 {
			writeJSON(w, http.StatusBadRequest, ErrorResponse{Error: fmt.Sprintf("invalid limit %q", v), RequestID: requestIDFrom(r)})
			return
		}
		limit = n
	}
	records, err := s.store.Recent(limit)
	if err != nil {
		log.Error().Err(err).Msg("Failed to read prediction log")
		writeJSON(w, http.StatusInternalServerError, ErrorResponse{Error: "failed to read prediction log", RequestID: requestIDFrom(r)})
		return
	}
	if records == nil {
		records = []storage.PredictionRecord{}
	}
	writeJSON(w, http.StatusOK, records)
}

// writeJSON encodes before writing the status, so an unencodable body becomes
// a 500 instead of a truncated 200.
func writeJSON(w http.ResponseWriter, status int, v any) {
	var buf bytes.Buffer
	if err := json.NewEncoder(&buf).Encode(v); err != nil {
		log.Error().Err(err).Msg("Failed to encode response")
		status = http.StatusInternalServerError
		buf.Reset()
		buf.WriteString(`{"error":"failed to encode response","kind":"internal"}` + "\n")
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if _, err := w.Write(buf.Bytes()); err != nil {
		log.Debug().Err(err).Msg("Failed to write response")
	}
}
