package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"pitline/internal/config"
	"pitline/internal/database"
	"pitline/internal/domain"
	"pitline/internal/metrics"
	"pitline/internal/models"
	"pitline/internal/service"
)

// Exporter writes appointments for a period into a file and returns its path.
type Exporter interface {
	Export(ctx context.Context, startDate, endDate time.Time) (string, error)
}

// HTTPServer exposes the booking API: open endpoints for customers and
// key-protected endpoints for the workshop staff.
type HTTPServer struct {
	cfg          config.APIConfig
	appointments domain.AppointmentService
	reports      domain.ReportService
	blackouts    domain.BlackoutService
	catalog      domain.CatalogService
	exporter     Exporter
	auth         *HTTPAuth
	logger       *zerolog.Logger
	server       *http.Server
}

func NewHTTPServer(
	cfg config.APIConfig,
	appointments domain.AppointmentService,
	reports domain.ReportService,
	blackouts domain.BlackoutService,
	catalog domain.CatalogService,
	exporter Exporter,
	logger *zerolog.Logger,
) *HTTPServer {
	srv := &HTTPServer{
		cfg:          cfg,
		appointments: appointments,
		reports:      reports,
		blackouts:    blackouts,
		catalog:      catalog,
		exporter:     exporter,
		auth:         NewHTTPAuth(cfg),
		logger:       logger,
	}

	mux := http.NewServeMux()
	mux.HandleFunc("/api/v1/appointments", srv.handleAppointments)
	mux.HandleFunc("/api/v1/appointments/booked-dates", srv.handleBookedDates)
	mux.HandleFunc("/api/v1/appointments/check-status", srv.handleCheckStatus)
	mux.HandleFunc("/api/v1/service-types", srv.handleServiceTypes)
	mux.HandleFunc("/healthz", srv.handleHealth)

	adminMux := http.NewServeMux()
	adminMux.HandleFunc("/api/v1/admin/appointments", srv.handleAdminAppointments)
	adminMux.HandleFunc("/api/v1/admin/appointments/summary", srv.handleSummary)
	adminMux.HandleFunc("/api/v1/admin/appointments/export", srv.handleExport)
	adminMux.HandleFunc("/api/v1/admin/appointments/", srv.handleAdminAppointmentByID)
	adminMux.HandleFunc("/api/v1/admin/blackout-dates", srv.handleBlackoutDates)
	adminMux.HandleFunc("/api/v1/admin/blackout-dates/", srv.handleBlackoutDateByKey)
	adminMux.HandleFunc("/api/v1/admin/service-types", srv.handleAdminServiceTypes)
	adminMux.HandleFunc("/api/v1/admin/service-types/", srv.handleAdminServiceTypeByID)
	mux.Handle("/api/v1/admin/", srv.auth.Wrap(adminMux))

	srv.server = &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.HTTP.Port),
		Handler:           loggingMiddleware(logger, mux),
		ReadHeaderTimeout: 5 * time.Second,
		WriteTimeout:      15 * time.Second,
	}

	return srv
}

func (s *HTTPServer) Start() error {
	if s.server == nil {
		return fmt.Errorf("http server is not initialized")
	}
	s.logger.Info().Str("addr", s.server.Addr).Msg("HTTP API listening")
	if err := s.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return err
	}
	return nil
}

func (s *HTTPServer) Shutdown(ctx context.Context) error {
	if s.server == nil {
		return nil
	}
	return s.server.Shutdown(ctx)
}

// Handler returns the root handler; used by the tests.
func (s *HTTPServer) Handler() http.Handler {
	return s.server.Handler
}

func (s *HTTPServer) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *HTTPServer) handleAppointments(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	var req models.CreateAppointmentRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}

	appt, err := s.appointments.Create(r.Context(), req)
	if err != nil {
		s.writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, appt)
}

func (s *HTTPServer) handleBookedDates(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	dates, err := s.reports.BookedDates(r.Context())
	if err != nil {
		s.writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"dates": dates})
}

func (s *HTTPServer) handleCheckStatus(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	var req struct {
		Phone string `json:"phone"`
	}
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}

	appts, err := s.reports.FindByPhone(r.Context(), req.Phone)
	if err != nil {
		s.writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"appointments": appts})
}

func (s *HTTPServer) handleServiceTypes(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	types, err := s.catalog.ListServiceTypes(r.Context())
	if err != nil {
		s.writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"service_types": types})
}

// writeDomainError maps service and store errors onto HTTP statuses.
func (s *HTTPServer) writeDomainError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, service.ErrValidation):
		writeError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, database.ErrNotFound):
		writeError(w, http.StatusNotFound, "not found")
	case errors.Is(err, database.ErrDateClosed):
		writeJSON(w, http.StatusConflict, map[string]string{"error": "date is closed", "reason": "closed"})
	case errors.Is(err, database.ErrDateFull):
		writeJSON(w, http.StatusConflict, map[string]string{"error": "date is full", "reason": "full"})
	case errors.Is(err, database.ErrBlackoutExists):
		writeError(w, http.StatusConflict, "date is already closed")
	case errors.Is(err, database.ErrServiceTypeExists):
		writeError(w, http.StatusConflict, "service type already exists")
	case errors.Is(err, service.ErrRateLimited):
		writeError(w, http.StatusTooManyRequests, "too many requests")
	default:
		s.logger.Error().Err(err).Msg("internal error")
		writeError(w, http.StatusInternalServerError, "internal error")
	}
}

func decodeJSON(r *http.Request, dst any) error {
	decoder := json.NewDecoder(r.Body)
	return decoder.Decode(dst)
}

func loggingMiddleware(logger *zerolog.Logger, next http.Handler) http.Handler {
	base := zerolog.Nop()
	if logger != nil {
		base = logger.With().Str("component", "http").Logger()
	}

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requestID := strings.TrimSpace(r.Header.Get("X-Request-Id"))
		if requestID == "" {
			requestID = uuid.NewString()
		}
		w.Header().Set("X-Request-Id", requestID)

		start := time.Now()
		recorder := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(recorder, r)
		dur := time.Since(start)

		metrics.IncHTTP(r.URL.Path, strconv.Itoa(recorder.status))
		base.Info().
			Str("request_id", requestID).
			Str("method", r.Method).
			Str("path", r.URL.Path).
			Int("status", recorder.status).
			Dur("duration", dur).
			Msg("http request")
	})
}

func writeJSON(w http.ResponseWriter, statusCode int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	_ = json.NewEncoder(w).Encode(payload)
}

func writeError(w http.ResponseWriter, statusCode int, message string) {
	writeJSON(w, statusCode, map[string]string{"error": message})
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(status int) {
	r.status = status
	r.ResponseWriter.WriteHeader(status)
}
