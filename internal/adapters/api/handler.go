package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/mikey/llm-mail-triage/internal/core"
	"go.uber.org/zap"
)

// Request bounds for the processing endpoints
const (
	minDays       = 1
	maxDays       = 30
	minMaxResults = 1
	maxMaxResults = 100
)

// TriageService is the part of the core service the API drives
type TriageService interface {
	ProcessBatch(ctx context.Context, windowDays, limit int) *core.BatchResult
	TestConnections(ctx context.Context) *core.ConnectionReport
}

// BatchObserver records finished batch runs
type BatchObserver interface {
	ObserveBatch(result *core.BatchResult, elapsed time.Duration)
}

// Options configure the handler
type Options struct {
	Version           string
	SourceName        string
	ModelName         string
	SinkName          string
	DefaultDays       int
	DefaultMaxResults int
}

// Handler serves the reporting endpoints
type Handler struct {
	service  TriageService
	taxonomy *core.Taxonomy
	observer BatchObserver
	opts     Options
	logger   *zap.Logger
	now      func() time.Time
}

// NewHandler creates a handler. observer may be nil.
func NewHandler(service TriageService, taxonomy *core.Taxonomy, observer BatchObserver, opts Options, logger *zap.Logger) *Handler {
	if opts.DefaultDays == 0 {
		opts.DefaultDays = 7
	}
	if opts.DefaultMaxResults == 0 {
		opts.DefaultMaxResults = 50
	}
	return &Handler{
		service:  service,
		taxonomy: taxonomy,
		observer: observer,
		opts:     opts,
		logger:   logger,
		now:      time.Now,
	}
}

// ErrorResponse is the body of every failed request
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message"`
}

type serviceStatus struct {
	Source bool `json:"source_api"`
	Model  bool `json:"llm_api"`
	Sink   bool `json:"sink_api"`
}

type healthResponse struct {
	Status    string        `json:"status"`
	Message   string        `json:"message"`
	Timestamp time.Time     `json:"timestamp"`
	Services  serviceStatus `json:"services"`
	Version   string        `json:"version"`
}

type statsResponse struct {
	SystemStatus       string              `json:"system_status"`
	Services           serviceStatus       `json:"services"`
	Backends           map[string]string   `json:"backends"`
	SupportedLanguages []string            `json:"supported_languages"`
	CommandCategories  int                 `json:"command_categories"`
	CommandCount       int                 `json:"command_count"`
	AvailableCommands  map[string][]string `json:"available_commands"`
	TeamRouting        map[string][]string `json:"team_routing"`
	Version            string              `json:"version"`
	LastCheck          time.Time           `json:"last_check"`
}

// processRequest is the JSON body of the processing endpoints
type processRequest struct {
	Days            *int `json:"days"`
	MaxResults      *int `json:"max_results"`
	IncludeFullData bool `json:"include_full_data"`
}

func (h *Handler) services() serviceStatus {
	return serviceStatus{
		Source: h.opts.SourceName != "",
		Model:  h.opts.ModelName != "",
		Sink:   h.opts.SinkName != "",
	}
}

// Health reports liveness and which collaborators are configured
func (h *Handler) Health(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, healthResponse{
		Status:    "healthy",
		Message:   "All systems operational",
		Timestamp: h.now().UTC(),
		Services:  h.services(),
		Version:   h.opts.Version,
	})
}

// Stats describes the taxonomy and the configured backends
func (h *Handler) Stats(w http.ResponseWriter, _ *http.Request) {
	commands := make(map[string][]string, len(h.taxonomy.Groups()))
	for _, g := range h.taxonomy.Groups() {
		commands[g.Name] = commandNames(g.Commands)
	}
	routing := make(map[string][]string, len(h.taxonomy.Routes()))
	for _, r := range h.taxonomy.Routes() {
		routing[r.Team] = commandNames(r.Commands)
	}

	writeJSON(w, http.StatusOK, statsResponse{
		SystemStatus: "healthy",
		Services:     h.services(),
		Backends: map[string]string{
			"source": h.opts.SourceName,
			"llm":    h.opts.ModelName,
			"sink":   h.opts.SinkName,
		},
		SupportedLanguages: core.SupportedLanguages,
		CommandCategories:  len(h.taxonomy.Groups()),
		CommandCount:       h.taxonomy.Len(),
		AvailableCommands:  commands,
		TeamRouting:        routing,
		Version:            h.opts.Version,
		LastCheck:          h.now().UTC(),
	})
}

// ProcessEmails runs a batch and returns it without bodies or raw headers
func (h *Handler) ProcessEmails(w http.ResponseWriter, r *http.Request) {
	req, ok := h.decodeProcessRequest(w, r)
	if !ok {
		return
	}
	result := h.runBatch(r.Context(), req)
	writeJSON(w, http.StatusOK, result.Redacted())
}

// ProcessBatch runs a batch, keeping full email data when asked to
func (h *Handler) ProcessBatch(w http.ResponseWriter, r *http.Request) {
	req, ok := h.decodeProcessRequest(w, r)
	if !ok {
		return
	}
	result := h.runBatch(r.Context(), req)
	if !req.IncludeFullData {
		result = result.Redacted()
	}
	writeJSON(w, http.StatusOK, result)
}

// TestConnection checks the collaborators without processing mail
func (h *Handler) TestConnection(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.service.TestConnections(r.Context()))
}

// NotFound answers unknown routes
func (h *Handler) NotFound(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusNotFound, map[string]any{
		"error":   "Endpoint not found",
		"message": "The requested URL was not found on this server.",
		"available_endpoints": []string{
			"/api/health",
			"/api/stats",
			"/api/process-emails",
			"/api/process-batch",
			"/api/test-connection",
		},
	})
}

// MethodNotAllowed answers known routes called with the wrong method
func (h *Handler) MethodNotAllowed(w http.ResponseWriter, r *http.Request) {
	writeError(w, http.StatusMethodNotAllowed, "Method not allowed",
		fmt.Sprintf("%s is not supported on %s", r.Method, r.URL.Path))
}

func (h *Handler) runBatch(ctx context.Context, req processRequest) *core.BatchResult {
	days, limit := *req.Days, *req.MaxResults
	h.logger.Info("Processing emails request",
		zap.Int("days", days),
		zap.Int("max_results", limit))

	start := time.Now()
	result := h.service.ProcessBatch(ctx, days, limit)
	if h.observer != nil {
		h.observer.ObserveBatch(result, time.Since(start))
	}
	return result
}

// decodeProcessRequest parses and validates the body, writing a 400 on failure.
// An empty body means all defaults.
func (h *Handler) decodeProcessRequest(w http.ResponseWriter, r *http.Request) (processRequest, bool) {
	var req processRequest
	if r.Body != nil {
		err := json.NewDecoder(r.Body).Decode(&req)
		var typeErr *json.UnmarshalTypeError
		switch {
		case err == nil, errors.Is(err, io.EOF):
		case errors.As(err, &typeErr) && typeErr.Field == "days":
			writeError(w, http.StatusBadRequest, "Invalid days parameter", daysMessage())
			return req, false
		case errors.As(err, &typeErr) && typeErr.Field == "max_results":
			writeError(w, http.StatusBadRequest, "Invalid max_results parameter", maxResultsMessage())
			return req, false
		default:
			writeError(w, http.StatusBadRequest, "Invalid request body", err.Error())
			return req, false
		}
	}

	if req.Days == nil {
		req.Days = &h.opts.DefaultDays
	}
	if req.MaxResults == nil {
		req.MaxResults = &h.opts.DefaultMaxResults
	}

	if *req.Days < minDays || *req.Days > maxDays {
		writeError(w, http.StatusBadRequest, "Invalid days parameter", daysMessage())
		return req, false
	}
	if *req.MaxResults < minMaxResults || *req.MaxResults > maxMaxResults {
		writeError(w, http.StatusBadRequest, "Invalid max_results parameter", maxResultsMessage())
		return req, false
	}
	return req, true
}

func daysMessage() string {
	return fmt.Sprintf("Days must be an integer between %d and %d", minDays, maxDays)
}

func maxResultsMessage() string {
	return fmt.Sprintf("max_results must be an integer between %d and %d", minMaxResults, maxMaxResults)
}

func commandNames(commands []core.Command) []string {
	names := make([]string, len(commands))
	for i, c := range commands {
		names[i] = string(c)
	}
	return names
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func writeError(w http.ResponseWriter, status int, errMsg, message string) {
	writeJSON(w, status, ErrorResponse{Error: errMsg, Message: message})
}
