package api

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/facturaIA/identity-ocr-service/internal/auth"
	"github.com/facturaIA/identity-ocr-service/internal/db"
	"github.com/facturaIA/identity-ocr-service/internal/idparse"
	"github.com/facturaIA/identity-ocr-service/internal/metrics"
	"github.com/facturaIA/identity-ocr-service/internal/models"
	"github.com/facturaIA/identity-ocr-service/internal/reftable"
	"github.com/facturaIA/identity-ocr-service/internal/services"
	"github.com/facturaIA/identity-ocr-service/internal/session"
	"github.com/facturaIA/identity-ocr-service/internal/storage"
)

const Version = "1.0.0"

// Handler handles HTTP requests for identity document sessions
type Handler struct {
	config        *models.Config
	sessions      *session.Store
	reviewer      *services.RecordReviewer
	nationalities []idparse.Nationality
	metrics       *metrics.Metrics
	gatherer      prometheus.Gatherer
	logger        *zap.Logger
}

// Deps are the collaborators of a Handler.
type Deps struct {
	Sessions      *session.Store
	Nationalities []idparse.Nationality
	Metrics       *metrics.Metrics
	Gatherer      prometheus.Gatherer
	Logger        *zap.Logger
}

// NewHandler creates a new API handler
func NewHandler(config *models.Config, deps Deps) *Handler {
	log := deps.Logger
	if log == nil {
		log = zap.NewNop()
	}
	gatherer := deps.Gatherer
	if gatherer == nil {
		gatherer = prometheus.DefaultGatherer
	}
	return &Handler{
		config:        config,
		sessions:      deps.Sessions,
		reviewer:      services.NewRecordReviewer(),
		nationalities: deps.Nationalities,
		metrics:       deps.Metrics,
		gatherer:      gatherer,
		logger:        log,
	}
}

// SetupRoutes configures the HTTP routes
func (h *Handler) SetupRoutes() *mux.Router {
	router := mux.NewRouter()

	// Operator authentication
	router.Handle("/api/login", &auth.LoginHandler{Logger: h.logger}).Methods("POST")
	router.HandleFunc("/api/me", auth.MeHandler).Methods("GET")

	// Document sessions
	router.HandleFunc("/api/sessions", h.CreateSession).Methods("POST")
	router.HandleFunc("/api/sessions/{id}", h.GetSession).Methods("GET")
	router.HandleFunc("/api/sessions/{id}", h.DeleteSession).Methods("DELETE")
	router.HandleFunc("/api/sessions/{id}/observations", h.Observe).Methods("POST")
	router.HandleFunc("/api/sessions/{id}/reset", h.ResetSession).Methods("POST")
	router.HandleFunc("/api/sessions/{id}/commit", h.CommitSession).Methods("POST")

	// Committed records
	router.HandleFunc("/api/records", h.GetRecords).Methods("GET")
	router.HandleFunc("/api/records/stats", h.GetRecordStats).Methods("GET")
	router.HandleFunc("/api/records/{id}", h.GetRecord).Methods("GET")
	router.HandleFunc("/api/records/{id}", h.DeleteRecord).Methods("DELETE")

	// Reference data
	router.HandleFunc("/api/nationalities", h.GetNationalities).Methods("GET")

	// Monitoring
	router.HandleFunc("/health", h.Health).Methods("GET")
	router.Handle("/metrics", promhttp.HandlerFor(h.gatherer, promhttp.HandlerOpts{})).Methods("GET")

	return router
}

// HealthResponse is the /health body. Mode is "full" with a database and
// "parse-only" without one.
type HealthResponse struct {
	Status    string           `json:"status"`
	Version   string           `json:"version"`
	Uptime    string           `json:"uptime"`
	Mode      string           `json:"mode"`
	Sessions  SessionStatus    `json:"sessions"`
	Database  DependencyStatus `json:"database"`
	Storage   DependencyStatus `json:"storage"`
	Reference ReferenceStatus  `json:"reference"`
}

// SessionStatus summarizes the session store.
type SessionStatus struct {
	Open    int    `json:"open"`
	IdleTTL string `json:"idle_ttl"`
	Archive bool   `json:"archive"`
}

// DependencyStatus is the state of an optional backend.
type DependencyStatus struct {
	Configured bool   `json:"configured"`
	Available  bool   `json:"available"`
	Detail     string `json:"detail,omitempty"`
	Error      string `json:"error,omitempty"`
}

// ReferenceStatus describes the nationality table and parser settings in use.
type ReferenceStatus struct {
	Rows        int                `json:"rows"`
	Output      idparse.OutputMode `json:"output"`
	CurrentYear int                `json:"current_year"`
	Collisions  []string           `json:"collisions,omitempty"`
}

var startTime = time.Now()

// Health reports dependency status. A missing database or object store is a
// mode, not a failure; a configured one that stops answering marks the
// service degraded.
func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")

	year := h.config.Parser.CurrentYear
	if year == 0 {
		year = time.Now().Year()
	}

	response := HealthResponse{
		Status:  "healthy",
		Version: Version,
		Uptime:  time.Since(startTime).Round(time.Second).String(),
		Mode:    "full",
		Sessions: SessionStatus{
			Open:    h.sessions.Len(),
			IdleTTL: h.config.Session.TTL.String(),
			Archive: h.config.Session.ArchiveObservations && storage.Client != nil,
		},
		Database: checkDatabase(r.Context()),
		Storage:  checkStorage(r.Context()),
		Reference: ReferenceStatus{
			Rows:        len(h.nationalities),
			Output:      h.config.Parser.Output,
			CurrentYear: year,
		},
	}
	if !response.Database.Configured {
		response.Mode = "parse-only"
	}
	for _, c := range reftable.Collisions(h.nationalities) {
		response.Reference.Collisions = append(response.Reference.Collisions, c.A+"/"+c.B)
	}

	status := http.StatusOK
	for _, dep := range []DependencyStatus{response.Database, response.Storage} {
		if dep.Configured && !dep.Available {
			response.Status = "degraded"
			status = http.StatusServiceUnavailable
		}
	}
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(response)
}

func checkDatabase(ctx context.Context) DependencyStatus {
	if db.Pool == nil {
		return DependencyStatus{}
	}
	if err := db.Ping(ctx); err != nil {
		return DependencyStatus{Configured: true, Error: err.Error()}
	}
	return DependencyStatus{Configured: true, Available: true, Detail: "postgresql"}
}

func checkStorage(ctx context.Context) DependencyStatus {
	if storage.Client == nil {
		return DependencyStatus{}
	}
	if err := storage.Ping(ctx); err != nil {
		return DependencyStatus{Configured: true, Error: err.Error()}
	}
	return DependencyStatus{Configured: true, Available: true, Detail: "bucket " + storage.BucketName}
}

// GetNationalities returns the reference table in match order.
func (h *Handler) GetNationalities(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]interface{}{
		"nationalities": h.nationalities,
		"count":         len(h.nationalities),
		"output":        h.config.Parser.Output,
	})
}

// operatorID returns the authenticated operator, or "" when auth is disabled.
func operatorID(r *http.Request) string {
	if claims, err := auth.GetClaimsFromContext(r.Context()); err == nil {
		return claims.UserID
	}
	return ""
}

func (h *Handler) sendError(w http.ResponseWriter, statusCode int, message string) {
	w.WriteHeader(statusCode)
	json.NewEncoder(w).Encode(map[string]string{
		"error": message,
	})
}
