package api

import (
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/FocuswithJustin/RefTax/core/errors"
	"github.com/FocuswithJustin/RefTax/internal/formats/base"
)

// APIResponse is the standard API response wrapper.
type APIResponse struct {
	Success bool      `json:"success"`
	Data    any       `json:"data,omitempty"`
	Error   *APIError `json:"error,omitempty"`
	Meta    *APIMeta  `json:"meta,omitempty"`
}

// APIError represents an API error.
type APIError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// APIMeta contains response metadata.
type APIMeta struct {
	Total     int    `json:"total,omitempty"`
	Timestamp string `json:"timestamp"`
}

// FormatInfo describes a registered table format.
type FormatInfo struct {
	Name       string   `json:"name"`
	Extensions []string `json:"extensions"`
}

// HealthInfo is the health check response.
type HealthInfo struct {
	Status      string `json:"status"`
	Version     string `json:"version"`
	Uptime      string `json:"uptime"`
	Runs        int    `json:"runs"`
	Jobs        int    `json:"jobs"`
	Subscribers int    `json:"subscribers"`
}

const apiVersion = "0.1.0"

var startTime = time.Now()

func handleRoot(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/" {
		respondError(w, http.StatusNotFound, "NOT_FOUND", "Endpoint not found")
		return
	}

	respond(w, http.StatusOK, map[string]any{
		"name":    "RefTax API",
		"version": apiVersion,
		"endpoints": []string{
			"GET /health",
			"GET /formats",
			"GET /runs",
			"GET /runs/:id",
			"GET /runs/:id/audits",
			"GET /jobs",
			"POST /jobs",
			"GET /jobs/:id",
			"DELETE /jobs/:id",
			"WS /ws",
		},
	})
}

func handleHealth(w http.ResponseWriter, r *http.Request) {
	if !requireMethod(w, r, http.MethodGet) {
		return
	}

	runs := 0
	if runStore != nil {
		if list, err := runStore.ListRuns(r.Context()); err == nil {
			runs = len(list)
		}
	}
	subscribers := 0
	if GlobalHub != nil {
		subscribers = GlobalHub.ClientCount()
	}

	respond(w, http.StatusOK, HealthInfo{
		Status:      "healthy",
		Version:     apiVersion,
		Uptime:      time.Since(startTime).String(),
		Runs:        runs,
		Jobs:        len(globalJobStore.List()),
		Subscribers: subscribers,
	})
}

func handleFormats(w http.ResponseWriter, r *http.Request) {
	if !requireMethod(w, r, http.MethodGet) {
		return
	}

	var formats []FormatInfo
	for _, name := range base.Names() {
		h, ok := base.Lookup(name)
		if !ok {
			continue
		}
		formats = append(formats, FormatInfo{Name: h.Name(), Extensions: h.Extensions()})
	}

	respondList(w, formats, len(formats))
}

func handleRuns(w http.ResponseWriter, r *http.Request) {
	if !requireMethod(w, r, http.MethodGet) {
		return
	}
	if !requireStore(w) {
		return
	}

	runs, err := runStore.ListRuns(r.Context())
	if err != nil {
		respondError(w, http.StatusInternalServerError, "DB_ERROR", "Failed to list runs")
		return
	}

	respondList(w, runs, len(runs))
}

// handleRunByID handles GET /runs/{id} and GET /runs/{id}/audits.
func handleRunByID(w http.ResponseWriter, r *http.Request) {
	if !requireMethod(w, r, http.MethodGet) {
		return
	}

	rest := strings.TrimPrefix(r.URL.Path, "/runs/")
	id, sub, _ := strings.Cut(rest, "/")
	if id == "" {
		respondError(w, http.StatusBadRequest, "MISSING_ID", "Run ID is required")
		return
	}
	if _, err := uuid.Parse(id); err != nil {
		respondError(w, http.StatusBadRequest, "INVALID_ID", "Run ID must be a UUID")
		return
	}
	if !requireStore(w) {
		return
	}

	switch sub {
	case "":
		run, err := runStore.GetRun(r.Context(), id)
		if err != nil {
			respondStoreError(w, err)
			return
		}
		respond(w, http.StatusOK, run)
	case "audits":
		audits, err := runStore.Audits(r.Context(), id)
		if err != nil {
			respondStoreError(w, err)
			return
		}
		respondList(w, audits, len(audits))
	default:
		respondError(w, http.StatusNotFound, "NOT_FOUND", "Endpoint not found")
	}
}

// handleJobs handles GET /jobs - list jobs, and POST /jobs - create a build job.
func handleJobs(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		jobs := globalJobStore.List()
		respondList(w, jobs, len(jobs))
	case http.MethodPost:
		createJobHandler(w, r)
	default:
		respondError(w, http.StatusMethodNotAllowed, "METHOD_NOT_ALLOWED", "Only GET and POST are allowed")
	}
}

func createJobHandler(w http.ResponseWriter, r *http.Request) {
	var req BuildRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "INVALID_JSON", "Invalid JSON body")
		return
	}

	if req.RunID == "" {
		respondError(w, http.StatusBadRequest, "MISSING_PARAMS", "run_id is required")
		return
	}
	if _, err := uuid.Parse(req.RunID); err != nil {
		respondError(w, http.StatusBadRequest, "INVALID_ID", "run_id must be a UUID")
		return
	}
	switch req.Format {
	case "", "newick", "phyloxml":
	default:
		respondError(w, http.StatusBadRequest, "INVALID_FORMAT", "format must be newick or phyloxml")
		return
	}
	if !requireStore(w) {
		return
	}

	job := globalJobStore.Create(req)
	respond(w, http.StatusCreated, job)

	go runBuildJob(job)
}

// handleJobByID handles GET /jobs/{id} - job status, and DELETE /jobs/{id} - cancel.
func handleJobByID(w http.ResponseWriter, r *http.Request) {
	id := strings.TrimPrefix(r.URL.Path, "/jobs/")
	if id == "" {
		respondError(w, http.StatusBadRequest, "MISSING_ID", "Job ID is required")
		return
	}

	switch r.Method {
	case http.MethodGet:
		job, exists := globalJobStore.Get(id)
		if !exists {
			respondError(w, http.StatusNotFound, "NOT_FOUND", "Job not found")
			return
		}
		respond(w, http.StatusOK, job)
	case http.MethodDelete:
		if err := globalJobStore.Cancel(id); err != nil {
			if strings.Contains(err.Error(), "not found") {
				respondError(w, http.StatusNotFound, "NOT_FOUND", err.Error())
				return
			}
			respondError(w, http.StatusBadRequest, "CANCEL_FAILED", err.Error())
			return
		}
		respond(w, http.StatusOK, map[string]string{"message": "Job cancelled"})
	default:
		respondError(w, http.StatusMethodNotAllowed, "METHOD_NOT_ALLOWED", "Only GET and DELETE are allowed")
	}
}

// requireMethod rejects any method other than want with a 405.
func requireMethod(w http.ResponseWriter, r *http.Request, want string) bool {
	if r.Method != want {
		respondError(w, http.StatusMethodNotAllowed, "METHOD_NOT_ALLOWED", "Only "+want+" is allowed")
		return false
	}
	return true
}

// requireStore rejects with a 503 when the snapshot store is not open.
func requireStore(w http.ResponseWriter) bool {
	if runStore == nil {
		respondError(w, http.StatusServiceUnavailable, "STORE_UNAVAILABLE", "Snapshot store is not open")
		return false
	}
	return true
}

// respondStoreError maps store lookup failures onto API error responses.
func respondStoreError(w http.ResponseWriter, err error) {
	var nf *errors.NotFoundError
	if errors.As(err, &nf) {
		respondError(w, http.StatusNotFound, "NOT_FOUND", err.Error())
		return
	}
	respondError(w, http.StatusInternalServerError, "DB_ERROR", err.Error())
}

func writeJSON(w http.ResponseWriter, status int, response APIResponse) {
	response.Meta = &APIMeta{
		Total:     response.Meta.Total,
		Timestamp: time.Now().UTC().Format(time.RFC3339),
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(response)
}

func respond(w http.ResponseWriter, status int, data any) {
	writeJSON(w, status, APIResponse{Success: true, Data: data, Meta: &APIMeta{}})
}

// respondList wraps a collection with its total in the response metadata.
func respondList(w http.ResponseWriter, data any, total int) {
	writeJSON(w, http.StatusOK, APIResponse{Success: true, Data: data, Meta: &APIMeta{Total: total}})
}

func respondError(w http.ResponseWriter, status int, code, message string) {
	writeJSON(w, status, APIResponse{
		Success: false,
		Error:   &APIError{Code: code, Message: message},
		Meta:    &APIMeta{},
	})
}
