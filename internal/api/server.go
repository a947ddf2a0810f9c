// Package api exposes the engine's operations over HTTP.
package api

import (
	"encoding/json"
	"log"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"vitals/adapters/excel"
	"vitals/app"
	internalalerting "vitals/internal/alerting"
)

// Server is the HTTP surface over the experimentation and monitoring
// engine.
type Server struct {
	router     *chi.Mux
	registry   *app.Registry
	assigner   *app.Assigner
	results    *app.Aggregator
	monitor    *app.Monitor
	alerts     *internalalerting.Manager
	exporter   *excel.ResultsExporter
	sampleRate float64
}

// NewServer wires the HTTP routes. sampleRate is the fraction of reported
// page visits that get run through the monitoring pipeline.
func NewServer(registry *app.Registry, assigner *app.Assigner, results *app.Aggregator, monitor *app.Monitor, sampleRate float64) *Server {
	s := &Server{
		router:     chi.NewRouter(),
		registry:   registry,
		assigner:   assigner,
		results:    results,
		monitor:    monitor,
		alerts:     monitor.Alerts(),
		exporter:   excel.NewResultsExporter(),
		sampleRate: sampleRate,
	}
	s.setupMiddleware()
	s.setupRoutes()
	return s
}

func (s *Server) setupMiddleware() {
	s.router.Use(middleware.RequestID)
	s.router.Use(middleware.RealIP)
	s.router.Use(middleware.Logger)
	s.router.Use(middleware.Recoverer)
}

func (s *Server) setupRoutes() {
	s.router.Route("/api", func(r chi.Router) {
		r.Post("/experiments", s.handleCreateExperiment)
		r.Get("/experiments", s.handleListExperiments)
		r.Get("/experiments/{id}", s.handleGetExperiment)
		r.Post("/experiments/{id}/start", s.handleStartExperiment)
		r.Post("/experiments/{id}/complete", s.handleCompleteExperiment)
		r.Get("/experiments/{id}/results", s.handleGetResults)
		r.Get("/experiments/{id}/export", s.handleExportResults)

		r.Post("/assignments", s.handleAssign)
		r.Post("/performance", s.handleRecordPerformance)
		r.Post("/conversions", s.handleRecordConversion)

		r.Post("/visits", s.handleRecordVisit)
		r.Post("/budget/evaluate", s.handleEvaluateBudget)
		r.Post("/regressions/check", s.handleCheckRegression)

		r.Get("/alerts", s.handleListAlerts)
		r.Post("/alerts/{id}/resolve", s.handleResolveAlert)
		r.Get("/alerts/rules", s.handleListRules)
		r.Post("/alerts/rules", s.handleAddRule)
	})
	s.router.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})
}

// Router returns the configured mux.
func (s *Server) Router() http.Handler {
	return s.router
}

// Start runs the HTTP server on the given port.
func (s *Server) Start(port string) error {
	log.Printf("[API] listening on :%s", port)
	return http.ListenAndServe(":"+port, s.router)
}

// writeJSON writes a JSON response with the given status.
func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Printf("[API] response encode failed: %v", err)
	}
}

// writeError writes a JSON error body.
func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"error": message})
}
