// Package tzhttp serves zone lookups over HTTP.
package tzhttp

import (
	"context"
	"encoding/json"
	"errors"
	"math"
	"net/http"
	"strconv"
	"time"

	"github.com/datatrails/go-datatrails-common/logger"
	"github.com/forestrie/go-tzlookup/tzindex"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

const (
	defaultMaxBatch = 100000
	// bytesPerPair bounds the JSON size of one lat/lon pair in a batch body.
	bytesPerPair    = 64
	shutdownTimeout = 10 * time.Second
)

type Options struct {
	Policy   tzindex.BatchPolicy
	Workers  int
	MaxBatch int
}

type Option func(*Options)

func WithPolicy(policy tzindex.BatchPolicy) Option {
	return func(o *Options) { o.Policy = policy }
}

func WithWorkers(n int) Option {
	return func(o *Options) { o.Workers = n }
}

func WithMaxBatch(n int) Option {
	return func(o *Options) { o.MaxBatch = n }
}

// Server answers lookups against a single immutable index.
type Server struct {
	log  logger.Logger
	ix   *tzindex.Index
	opts Options
}

func NewServer(log logger.Logger, ix *tzindex.Index, opts ...Option) *Server {
	o := Options{Policy: tzindex.PolicyElement, Workers: 1, MaxBatch: defaultMaxBatch}
	for _, opt := range opts {
		opt(&o)
	}
	if o.Workers < 1 {
		o.Workers = 1
	}
	if o.MaxBatch < 1 {
		o.MaxBatch = defaultMaxBatch
	}
	return &Server{log: log, ix: ix, opts: o}
}

// Router returns the routes:
//
//	GET  /healthz
//	GET  /v1/lookup?lat=..&lon=..
//	POST /v1/batch
func (s *Server) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(s.logRequests)
	r.Use(middleware.Recoverer)

	r.Get("/healthz", s.handleHealth)
	r.Route("/v1", func(r chi.Router) {
		r.Get("/lookup", s.handleLookup)
		r.Post("/batch", s.handleBatch)
	})
	return r
}

// logRequests logs one line per request through the server's logger.
func (s *Server) logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		start := time.Now()
		defer func() {
			s.log.Infof("%s %s %d %dB %s request_id=%s",
				r.Method, r.URL.Path, ww.Status(), ww.BytesWritten(), time.Since(start),
				middleware.GetReqID(r.Context()))
		}()
		next.ServeHTTP(ww, r)
	})
}

// ListenAndServe serves until ctx is cancelled, then shuts down gracefully.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.Router(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errc := make(chan error, 1)
	go func() {
		s.log.Infof("listening on %s", addr)
		errc <- srv.ListenAndServe()
	}()

	select {
	case err := <-errc:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	if err := <-errc; !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

type lookupResponse struct {
	Zone string `json:"zone"`
}

type batchRequest struct {
	Lat []*float64 `json:"lat"`
	Lon []*float64 `json:"lon"`
}

type batchResponse struct {
	Zones []*string `json:"zones"`
}

type healthResponse struct {
	Status  string `json:"status"`
	BuildID string `json:"build_id"`
	Labels  int    `json:"labels"`
}

type errorResponse struct {
	Error string `json:"error"`
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, healthResponse{
		Status:  "ok",
		BuildID: s.ix.BuildID().String(),
		Labels:  s.ix.LabelCount(),
	})
}

func (s *Server) handleLookup(w http.ResponseWriter, r *http.Request) {
	lat, err := queryFloat(r, "lat")
	if err != nil {
		s.writeError(w, http.StatusBadRequest, err)
		return
	}
	lon, err := queryFloat(r, "lon")
	if err != nil {
		s.writeError(w, http.StatusBadRequest, err)
		return
	}

	zone, err := s.ix.Resolve(lat, lon)
	if err != nil {
		s.writeError(w, statusFor(err), err)
		return
	}
	s.writeJSON(w, http.StatusOK, lookupResponse{Zone: zone})
}

func (s *Server) handleBatch(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, int64(s.opts.MaxBatch)*bytesPerPair+1024)

	var req batchRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			s.writeError(w, http.StatusRequestEntityTooLarge, err)
			return
		}
		s.writeError(w, http.StatusBadRequest, err)
		return
	}
	if len(req.Lat) > s.opts.MaxBatch || len(req.Lon) > s.opts.MaxBatch {
		s.writeError(w, http.StatusRequestEntityTooLarge,
			errors.New("batch exceeds "+strconv.Itoa(s.opts.MaxBatch)+" positions"))
		return
	}

	results, err := s.ix.ResolveBatchParallel(
		r.Context(), unwrapFloats(req.Lat), unwrapFloats(req.Lon), s.opts.Workers,
		tzindex.WithPolicy(s.opts.Policy))
	if err != nil {
		s.writeError(w, statusFor(err), err)
		return
	}

	resp := batchResponse{Zones: make([]*string, len(results))}
	for i := range results {
		if results[i].OK() {
			resp.Zones[i] = &results[i].Zone
		}
	}
	s.writeJSON(w, http.StatusOK, resp)
}

// statusFor maps resolver errors onto HTTP statuses.
func statusFor(err error) int {
	switch {
	case errors.Is(err, tzindex.ErrMissingInput), errors.Is(err, tzindex.ErrOutOfRange):
		return http.StatusUnprocessableEntity
	case errors.Is(err, tzindex.ErrLengthMismatch):
		return http.StatusBadRequest
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

func queryFloat(r *http.Request, name string) (float64, error) {
	v := r.URL.Query().Get(name)
	if v == "" || v == "NA" {
		return math.NaN(), nil
	}
	return strconv.ParseFloat(v, 64)
}

// unwrapFloats maps JSON null to NaN, the missing value marker.
func unwrapFloats(vs []*float64) []float64 {
	out := make([]float64, len(vs))
	for i, v := range vs {
		if v == nil {
			out[i] = math.NaN()
			continue
		}
		out[i] = *v
	}
	return out
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		s.log.Infof("write response: %v", err)
	}
}

func (s *Server) writeError(w http.ResponseWriter, status int, err error) {
	if status >= http.StatusInternalServerError {
		s.log.Infof("%d: %v", status, err)
	}
	s.writeJSON(w, status, errorResponse{Error: err.Error()})
}
