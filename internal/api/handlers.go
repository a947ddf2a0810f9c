package api

import (
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"vitals/domain/alerting"
	"vitals/domain/core"
	"vitals/domain/experiment"
	"vitals/domain/perf"
)

func (s *Server) handleCreateExperiment(w http.ResponseWriter, r *http.Request) {
	var def experiment.Experiment
	if err := json.NewDecoder(r.Body).Decode(&def); err != nil {
		writeError(w, http.StatusBadRequest, "invalid experiment payload")
		return
	}
	if err := s.registry.Create(&def); err != nil {
		writeError(w, http.StatusUnprocessableEntity, err.Error())
		return
	}
	writeJSON(w, http.StatusCreated, def)
}

func (s *Server) handleListExperiments(w http.ResponseWriter, r *http.Request) {
	status := experiment.Status(r.URL.Query().Get("status"))
	writeJSON(w, http.StatusOK, s.registry.List(status))
}

func (s *Server) handleGetExperiment(w http.ResponseWriter, r *http.Request) {
	id := core.ExperimentID(chi.URLParam(r, "id"))
	exp, ok := s.registry.Get(id)
	if !ok {
		writeError(w, http.StatusNotFound, "experiment not found")
		return
	}
	writeJSON(w, http.StatusOK, exp)
}

func (s *Server) handleStartExperiment(w http.ResponseWriter, r *http.Request) {
	id := core.ExperimentID(chi.URLParam(r, "id"))
	if err := s.registry.Start(id); err != nil {
		if core.IsNotFoundError(err) {
			writeError(w, http.StatusNotFound, err.Error())
			return
		}
		writeError(w, http.StatusConflict, err.Error())
		return
	}
	exp, _ := s.registry.Get(id)
	writeJSON(w, http.StatusOK, exp)
}

func (s *Server) handleCompleteExperiment(w http.ResponseWriter, r *http.Request) {
	id := core.ExperimentID(chi.URLParam(r, "id"))
	results, err := s.registry.Complete(id)
	if err != nil {
		if core.IsNotFoundError(err) {
			writeError(w, http.StatusNotFound, err.Error())
			return
		}
		writeError(w, http.StatusConflict, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, results)
}

func (s *Server) handleGetResults(w http.ResponseWriter, r *http.Request) {
	id := core.ExperimentID(chi.URLParam(r, "id"))
	results := s.results.GetResults(id)
	if results == nil {
		writeError(w, http.StatusNotFound, "experiment not found")
		return
	}
	writeJSON(w, http.StatusOK, results)
}

func (s *Server) handleExportResults(w http.ResponseWriter, r *http.Request) {
	id := core.ExperimentID(chi.URLParam(r, "id"))
	exp, ok := s.registry.Get(id)
	if !ok {
		writeError(w, http.StatusNotFound, "experiment not found")
		return
	}
	results := s.results.GetResults(id)
	if results == nil {
		writeError(w, http.StatusNotFound, "no results available")
		return
	}

	w.Header().Set("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%s-results.xlsx", id))
	if err := s.exporter.Export(exp, results, w); err != nil {
		writeError(w, http.StatusInternalServerError, "export failed")
	}
}

type assignRequest struct {
	ExperimentID string `json:"experiment_id"`
	UserID       string `json:"user_id"`
}

func (s *Server) handleAssign(w http.ResponseWriter, r *http.Request) {
	var req assignRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid assignment payload")
		return
	}
	experimentID, err := core.ParseExperimentID(req.ExperimentID)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	userID, err := core.ParseUserID(req.UserID)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	variantID := s.assigner.Assign(r.Context(), experimentID, userID)
	writeJSON(w, http.StatusOK, map[string]string{
		"experiment_id": req.ExperimentID,
		"user_id":       req.UserID,
		"variant_id":    variantID.String(),
	})
}

type performanceRequest struct {
	ExperimentID string             `json:"experiment_id"`
	VariantID    string             `json:"variant_id"`
	UserID       string             `json:"user_id"`
	Metrics      map[string]float64 `json:"metrics"`
}

func (s *Server) handleRecordPerformance(w http.ResponseWriter, r *http.Request) {
	var req performanceRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid performance payload")
		return
	}
	if req.ExperimentID == "" || req.VariantID == "" {
		writeError(w, http.StatusBadRequest, "experiment_id and variant_id are required")
		return
	}
	s.results.RecordPerformance(
		core.ExperimentID(req.ExperimentID),
		core.VariantID(req.VariantID),
		req.Metrics,
		core.UserID(req.UserID),
	)
	w.WriteHeader(http.StatusAccepted)
}

type conversionRequest struct {
	ExperimentID string `json:"experiment_id"`
	VariantID    string `json:"variant_id"`
	UserID       string `json:"user_id"`
}

func (s *Server) handleRecordConversion(w http.ResponseWriter, r *http.Request) {
	var req conversionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid conversion payload")
		return
	}
	if req.ExperimentID == "" || req.VariantID == "" {
		writeError(w, http.StatusBadRequest, "experiment_id and variant_id are required")
		return
	}
	s.results.RecordConversion(
		core.ExperimentID(req.ExperimentID),
		core.VariantID(req.VariantID),
		core.UserID(req.UserID),
	)
	w.WriteHeader(http.StatusAccepted)
}

type visitRequest struct {
	Page      string             `json:"page"`
	PageClass string             `json:"page_class"`
	SessionID string             `json:"session_id"`
	UserID    string             `json:"user_id"`
	Metrics   map[string]float64 `json:"metrics"`
}

// handleRecordVisit feeds one reported page visit through the collection
// pipeline at the server's configured sample rate. Unsampled visits are
// acknowledged but dropped.
func (s *Server) handleRecordVisit(w http.ResponseWriter, r *http.Request) {
	var req visitRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid visit payload")
		return
	}
	if req.Page == "" {
		writeError(w, http.StatusBadRequest, "page is required")
		return
	}

	visit := s.monitor.ObservePage(req.Page, perf.PageClass(req.PageClass), s.sampleRate, req.SessionID, req.UserID)
	for metric, value := range req.Metrics {
		visit.Record(metric, value)
	}
	visit.Close()
	writeJSON(w, http.StatusAccepted, map[string]interface{}{
		"page":    req.Page,
		"sampled": visit.Sampled(),
	})
}

type budgetRequest struct {
	PageClass string            `json:"page_class"`
	Sample    perf.MetricSample `json:"sample"`
}

func (s *Server) handleEvaluateBudget(w http.ResponseWriter, r *http.Request) {
	var req budgetRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid budget payload")
		return
	}
	report := s.monitor.EvaluateBudget(req.Sample, perf.PageClass(req.PageClass))
	writeJSON(w, http.StatusOK, report)
}

type regressionRequest struct {
	Page   string            `json:"page"`
	Sample perf.MetricSample `json:"sample"`
}

func (s *Server) handleCheckRegression(w http.ResponseWriter, r *http.Request) {
	var req regressionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid regression payload")
		return
	}
	if req.Sample.Timestamp.IsZero() {
		req.Sample.Timestamp = time.Now()
	}
	regressions := s.monitor.CheckRegression(req.Page, req.Sample)
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"page":        req.Page,
		"regressions": regressions,
	})
}

func (s *Server) handleListAlerts(w http.ResponseWriter, r *http.Request) {
	filter := alerting.Filter{
		ActiveOnly: r.URL.Query().Get("active") == "true",
		Kind:       alerting.Kind(r.URL.Query().Get("kind")),
		Page:       r.URL.Query().Get("page"),
		Metric:     r.URL.Query().Get("metric"),
	}
	writeJSON(w, http.StatusOK, s.alerts.List(filter))
}

func (s *Server) handleResolveAlert(w http.ResponseWriter, r *http.Request) {
	id, err := core.ParseAlertID(chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if !s.alerts.Resolve(id) {
		writeError(w, http.StatusNotFound, "alert not found")
		return
	}
	writeJSON(w, http.StatusOK, map[string]bool{"resolved": true})
}

func (s *Server) handleListRules(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.alerts.Rules())
}

func (s *Server) handleAddRule(w http.ResponseWriter, r *http.Request) {
	var rule alerting.Rule
	if err := json.NewDecoder(r.Body).Decode(&rule); err != nil {
		writeError(w, http.StatusBadRequest, "invalid rule payload")
		return
	}
	if err := s.alerts.AddRule(rule); err != nil {
		writeError(w, http.StatusUnprocessableEntity, err.Error())
		return
	}
	writeJSON(w, http.StatusCreated, rule)
}
