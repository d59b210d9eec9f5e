package httpapi

import (
	"net/http"
	"time"

	"ubio-intake/internal/metrics"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Router http.ServeMux wrapper; every route is counted under its pattern
type Router struct {
	mux     *http.ServeMux
	metrics *metrics.Collector
	logger  *zap.Logger
}

func NewRouter(m *metrics.Collector, logger *zap.Logger) *Router {
	return &Router{
		mux:     http.NewServeMux(),
		metrics: m,
		logger:  logger,
	}
}

func (r *Router) Handle(pattern string, h http.HandlerFunc) {
	r.mux.HandleFunc(pattern, r.instrument(pattern, h))
}

// HandleHandler registers a plain http.Handler (metrics endpoint)
func (r *Router) HandleHandler(pattern string, h http.Handler) {
	r.mux.Handle(pattern, h)
}

func (r *Router) ServeHTTP(w http.ResponseWriter, req *http.Request) {
	r.mux.ServeHTTP(w, req)
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (s *statusRecorder) WriteHeader(code int) {
	s.status = code
	s.ResponseWriter.WriteHeader(code)
}

func (r *Router) instrument(pattern string, h http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, req *http.Request) {
		start := time.Now()
		reqID := req.Header.Get("X-Request-ID")
		if reqID == "" {
			reqID = uuid.NewString()
		}
		w.Header().Set("X-Request-ID", reqID)
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		h(rec, req)
		elapsed := time.Since(start)
		r.metrics.ObserveRequest(req.Method, pattern, rec.status, elapsed)
		r.logger.Debug("http request",
			zap.String("request_id", reqID),
			zap.String("method", req.Method),
			zap.String("path", req.URL.Path),
			zap.Int("status", rec.status),
			zap.Duration("elapsed", elapsed),
		)
	}
}

// RegisterHealthRoutes liveness probe
func (r *Router) RegisterHealthRoutes() {
	r.Handle("/healthz", func(w http.ResponseWriter, req *http.Request) {
		if req.Method != http.MethodGet {
			w.WriteHeader(http.StatusMethodNotAllowed)
			return
		}
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})
}

// RegisterIntakeRoutes routes of the intake application
func (r *Router) RegisterIntakeRoutes(h *IntakeHandler) {
	r.Handle("/intake/api/v1/records", h.SubmitRecord)
	r.Handle("/intake/api/v1/derived", h.Derive)
	r.Handle("/intake/api/v1/waveform/import", h.ImportWaveform)

	r.Handle("/intake/api/v1/table", h.GetTable)
	r.Handle("/intake/api/v1/table/filter", h.SetFilter)
	r.Handle("/intake/api/v1/table/sort", h.ToggleSort)
	r.Handle("/intake/api/v1/table/scroll", h.Scroll)
	r.Handle("/intake/api/v1/table/select", h.Select)
	r.Handle("/intake/api/v1/table/delete-selected", h.DeleteSelected)
	r.Handle("/intake/api/v1/table/refresh", h.Refresh)
	r.Handle("/intake/api/v1/table/records/", h.EditRecord)
	r.Handle("/intake/api/v1/table/export", h.Export)
	r.Handle("/intake/api/v1/table/backup", h.Backup)
	r.Handle("/intake/api/v1/table/restore", h.Restore)
	r.Handle("/intake/api/v1/table/import", h.Import)
}

// RegisterRecordsRoutes routes of the records endpoint
func (r *Router) RegisterRecordsRoutes(h *RecordsHandler) {
	r.Handle("/api/userinfo", h.Collection)
	r.Handle("/api/userinfo/", h.Item)
}
