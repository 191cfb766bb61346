package server

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	jsoniter "github.com/json-iterator/go"
	"go.uber.org/zap"

	"github.com/xkilldash9x/ui-differ/api/schemas"
	"github.com/xkilldash9x/ui-differ/internal/pipeline"
	"github.com/xkilldash9x/ui-differ/internal/recorder"
	"github.com/xkilldash9x/ui-differ/internal/store"
	"github.com/xkilldash9x/ui-differ/internal/transport"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// Comparer runs one comparison.
type Comparer interface {
	Compare(ctx context.Context, in pipeline.Input) (*schemas.DiffResult, error)
}

// RunStore persists comparison runs.
type RunStore interface {
	SaveRun(ctx context.Context, result *schemas.DiffResult) error
	GetRun(ctx context.Context, runID string) (*schemas.DiffResult, error)
	ListRuns(ctx context.Context, limit int) ([]store.RunSummary, error)
}

// CompareRequest is the body of POST /api/v1/compare. Exactly one of Design,
// DesignNodes and Clipboard must be set.
type CompareRequest struct {
	Name        string                   `json:"name,omitempty"`
	DOM         *schemas.ElementSnapshot `json:"dom"`
	Viewport    *schemas.Viewport        `json:"viewport,omitempty"`
	Design      *schemas.SceneNode       `json:"design,omitempty"`
	DesignNodes *schemas.NodeMap         `json:"designNodes,omitempty"`
	Clipboard   string                   `json:"clipboard,omitempty"`
	// Persist stores the result when a run store is configured.
	Persist bool `json:"persist,omitempty"`
}

// ClipboardRequest is the JSON form of POST /api/v1/clipboard/decode. A plain
// text body holding the clipboard payload is accepted as well.
type ClipboardRequest struct {
	Text string `json:"text"`
}

// Response is the envelope of every JSON reply.
type Response struct {
	Status string      `json:"status"`
	Data   interface{} `json:"data,omitempty"`
	Error  string      `json:"error,omitempty"`
}

// Handlers manages the HTTP request handling for the API.
type Handlers struct {
	log      *zap.Logger
	comparer Comparer
	runs     RunStore
}

// NewHandlers creates a new Handlers instance.
func NewHandlers(logger *zap.Logger, comparer Comparer, runs RunStore) *Handlers {
	return &Handlers{
		log:      logger.Named("handlers"),
		comparer: comparer,
		runs:     runs,
	}
}

// RegisterRoutes sets up the routing for the API.
func (h *Handlers) RegisterRoutes(r chi.Router) {
	// Health check endpoint (unversioned)
	r.Get("/healthz", h.HandleHealthCheck)

	r.Route("/api/v1", func(r chi.Router) {
		r.Post("/compare", h.HandleCompare)
		r.Post("/clipboard/decode", h.HandleDecodeClipboard)
		r.Get("/runs", h.HandleListRuns)
		r.Get("/runs/{runID}", h.HandleGetRun)
	})
}

// HandleHealthCheck is a simple handler to confirm the server is responsive.
func (h *Handlers) HandleHealthCheck(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	w.Write([]byte("OK"))
}

// HandleCompare runs a comparison of the posted DOM and design.
func (h *Handlers) HandleCompare(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(r.Body)
	if err != nil {
		h.respondWithBodyError(w, err)
		return
	}
	var req CompareRequest
	if err := json.Unmarshal(body, &req); err != nil {
		h.respondWithError(w, http.StatusBadRequest, fmt.Sprintf("Invalid request body: %v", err))
		return
	}

	in, err := req.input()
	if err != nil {
		h.respondWithError(w, http.StatusBadRequest, err.Error())
		return
	}

	result, err := h.comparer.Compare(r.Context(), in)
	switch {
	case err == nil:
	case errors.Is(err, context.DeadlineExceeded), errors.Is(err, context.Canceled):
		// The timeout middleware answers.
		h.log.Warn("Comparison abandoned", zap.Error(err))
		return
	case errors.Is(err, recorder.ErrNoGeometry):
		h.respondWithError(w, http.StatusUnprocessableEntity, err.Error())
		return
	default:
		h.log.Error("Comparison failed", zap.Error(err))
		h.respondWithError(w, http.StatusInternalServerError, err.Error())
		return
	}

	if req.Persist {
		if h.runs == nil {
			h.respondWithError(w, http.StatusServiceUnavailable, "run store is unavailable (database not configured)")
			return
		}
		if err := h.runs.SaveRun(r.Context(), result); err != nil {
			h.log.Error("Failed to save run", zap.String("run_id", result.RunID), zap.Error(err))
			h.respondWithError(w, http.StatusInternalServerError, "failed to save run")
			return
		}
	}
	h.respondWithSuccess(w, http.StatusOK, result)
}

// HandleDecodeClipboard decodes a clipboard payload into its node list.
func (h *Handlers) HandleDecodeClipboard(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(r.Body)
	if err != nil {
		h.respondWithBodyError(w, err)
		return
	}

	text := string(body)
	if trimmed := bytes.TrimSpace(body); len(trimmed) > 0 && trimmed[0] == '{' {
		var req ClipboardRequest
		if err := json.Unmarshal(trimmed, &req); err != nil {
			h.respondWithError(w, http.StatusBadRequest, fmt.Sprintf("Invalid request body: %v", err))
			return
		}
		text = req.Text
	}

	nodes, err := transport.DecodeClipboard(text)
	if err != nil {
		h.respondWithError(w, http.StatusBadRequest, err.Error())
		return
	}
	h.respondWithSuccess(w, http.StatusOK, nodes)
}

// HandleListRuns lists stored runs, newest first.
func (h *Handlers) HandleListRuns(w http.ResponseWriter, r *http.Request) {
	if h.runs == nil {
		h.respondWithError(w, http.StatusServiceUnavailable, "run store is unavailable (database not configured)")
		return
	}
	limit := 0
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 0 {
			h.respondWithError(w, http.StatusBadRequest, fmt.Sprintf("invalid limit %q", v))
			return
		}
		limit = n
	}
	runs, err := h.runs.ListRuns(r.Context(), limit)
	if err != nil {
		h.log.Error("Failed to list runs", zap.Error(err))
		h.respondWithError(w, http.StatusInternalServerError, "failed to list runs")
		return
	}
	if runs == nil {
		runs = []store.RunSummary{}
	}
	h.respondWithSuccess(w, http.StatusOK, runs)
}

// HandleGetRun returns one stored run.
func (h *Handlers) HandleGetRun(w http.ResponseWriter, r *http.Request) {
	if h.runs == nil {
		h.respondWithError(w, http.StatusServiceUnavailable, "run store is unavailable (database not configured)")
		return
	}
	runID := chi.URLParam(r, "runID")
	result, err := h.runs.GetRun(r.Context(), runID)
	switch {
	case errors.Is(err, store.ErrRunNotFound):
		h.respondWithError(w, http.StatusNotFound, fmt.Sprintf("run %s not found", runID))
	case err != nil:
		h.log.Error("Failed to load run", zap.String("run_id", runID), zap.Error(err))
		h.respondWithError(w, http.StatusInternalServerError, "failed to load run")
	default:
		h.respondWithSuccess(w, http.StatusOK, result)
	}
}

// input turns the request into a pipeline input.
func (req *CompareRequest) input() (pipeline.Input, error) {
	if req.DOM == nil {
		return pipeline.Input{}, errors.New("dom is required")
	}
	sources := 0
	for _, set := range []bool{req.Design != nil, req.DesignNodes != nil, req.Clipboard != ""} {
		if set {
			sources++
		}
	}
	if sources != 1 {
		return pipeline.Input{}, errors.New("exactly one of design, designNodes or clipboard is required")
	}

	in := pipeline.Input{
		Name: req.Name,
		DOM:  &schemas.PageSnapshot{Root: req.DOM},
	}
	if req.Viewport != nil {
		in.DOM.Viewport = *req.Viewport
	}
	switch {
	case req.Design != nil:
		in.Design = req.Design
	case req.DesignNodes != nil:
		if err := req.DesignNodes.Validate(); err != nil {
			return pipeline.Input{}, fmt.Errorf("designNodes: %w", err)
		}
		in.DesignNodes = req.DesignNodes
		in.DesignNormalized = true
	default:
		nodes, err := transport.DecodeClipboard(req.Clipboard)
		if err != nil {
			return pipeline.Input{}, fmt.Errorf("clipboard: %w", err)
		}
		in.DesignNodes = nodes
		in.DesignNormalized = true
	}
	return in, nil
}

// respondWithBodyError maps body read failures to 413 or 400.
func (h *Handlers) respondWithBodyError(w http.ResponseWriter, err error) {
	var tooLarge *http.MaxBytesError
	if errors.As(err, &tooLarge) {
		h.respondWithError(w, http.StatusRequestEntityTooLarge, fmt.Sprintf("request body exceeds %d bytes", tooLarge.Limit))
		return
	}
	h.respondWithError(w, http.StatusBadRequest, fmt.Sprintf("Invalid request body: %v", err))
}

// respondWithError sends a standardized JSON error response.
func (h *Handlers) respondWithError(w http.ResponseWriter, statusCode int, message string) {
	h.respond(w, statusCode, Response{Status: "error", Error: message})
}

// respondWithSuccess sends a standardized JSON success response.
func (h *Handlers) respondWithSuccess(w http.ResponseWriter, statusCode int, data interface{}) {
	h.respond(w, statusCode, Response{Status: "success", Data: data})
}

func (h *Handlers) respond(w http.ResponseWriter, statusCode int, resp Response) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	if err := json.NewEncoder(w).Encode(resp); err != nil {
		h.log.Error("Failed to encode response", zap.Error(err))
	}
}
