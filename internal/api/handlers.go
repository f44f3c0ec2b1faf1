package api

import (
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/rcliao/recall/internal/model"
	"github.com/rcliao/recall/internal/service"
	"github.com/rcliao/recall/internal/store"
)

const (
	maxBodyBytes   = 1 << 20
	maxImportBytes = 64 << 20
)

// Handler serves the recall HTTP API.
type Handler struct {
	svc *service.Service
	log *slog.Logger
}

// NewHandler returns a Handler backed by svc.
func NewHandler(svc *service.Service, log *slog.Logger) *Handler {
	return &Handler{svc: svc, log: log}
}

type addMemoryRequest struct {
	Text string `json:"text"`
	service.AddOptions
}

type summaryRequest struct {
	Summary string `json:"summary"`
}

type settingsResponse struct {
	*model.Settings
	Domain              string `json:"domain,omitempty"`
	AutoAssembleAllowed *bool  `json:"autoAssembleAllowed,omitempty"`
}

type importResponse struct {
	Status string `json:"status"`
}

// decode reads a JSON body into v, writing a 400 reply on failure.
func (h *Handler) decode(w http.ResponseWriter, r *http.Request, limit int64, v interface{}) bool {
	r.Body = http.MaxBytesReader(w, r.Body, limit)
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		msg := "invalid request body: " + err.Error()
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			writeError(w, r, http.StatusRequestEntityTooLarge, ErrCodeBadRequest, "request body too large")
			return false
		}
		if errors.Is(err, io.EOF) {
			msg = "request body is empty"
		}
		writeError(w, r, http.StatusBadRequest, ErrCodeBadRequest, msg)
		return false
	}
	return true
}

func (h *Handler) fail(w http.ResponseWriter, r *http.Request, err error) {
	status, code := statusFromError(err)
	if status >= http.StatusInternalServerError {
		h.log.ErrorContext(r.Context(), "request failed", "path", r.URL.Path, "error", err)
	}
	writeError(w, r, status, code, err.Error())
}

// AddMemory handles POST /api/v1/memories.
func (h *Handler) AddMemory(w http.ResponseWriter, r *http.Request) {
	var req addMemoryRequest
	if !h.decode(w, r, maxBodyBytes, &req) {
		return
	}
	m, err := h.svc.AddMemory(r.Context(), req.Text, req.AddOptions)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, m)
}

// ListMemories handles GET /api/v1/memories. With domain set it lists that
// domain's memories; otherwise it searches by q and tags.
func (h *Handler) ListMemories(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	if domain := q.Get("domain"); domain != "" {
		out, err := h.svc.ListByDomain(r.Context(), domain)
		if err != nil {
			h.fail(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, out)
		return
	}

	limit := 0
	if raw := q.Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 0 {
			writeError(w, r, http.StatusBadRequest, ErrCodeValidationFailed, "limit must be a non-negative integer")
			return
		}
		limit = n
	}
	out, err := h.svc.Search(r.Context(), store.SearchParams{
		Query: q.Get("q"),
		Tags:  model.ParseTags(q.Get("tags")),
		Limit: limit,
	})
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, out)
}

// GetMemory handles GET /api/v1/memories/{id}.
func (h *Handler) GetMemory(w http.ResponseWriter, r *http.Request) {
	m, err := h.svc.GetMemory(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, m)
}

// UpdateMemory handles PATCH /api/v1/memories/{id}.
func (h *Handler) UpdateMemory(w http.ResponseWriter, r *http.Request) {
	var patch model.MemoryPatch
	if !h.decode(w, r, maxBodyBytes, &patch) {
		return
	}
	m, err := h.svc.UpdateMemory(r.Context(), chi.URLParam(r, "id"), patch)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, m)
}

// DeleteMemory handles DELETE /api/v1/memories/{id}.
func (h *Handler) DeleteMemory(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	deleted, err := h.svc.DeleteMemory(r.Context(), id)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	if !deleted {
		h.fail(w, r, &store.NotFoundError{Kind: "memory", ID: id})
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// TouchMemory handles POST /api/v1/memories/{id}/touch.
func (h *Handler) TouchMemory(w http.ResponseWriter, r *http.Request) {
	m, err := h.svc.TouchUsage(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, m)
}

// ListTags handles GET /api/v1/tags.
func (h *Handler) ListTags(w http.ResponseWriter, r *http.Request) {
	tags, err := h.svc.Tags(r.Context())
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, tags)
}

// ListByTag handles GET /api/v1/tags/{tag}.
func (h *Handler) ListByTag(w http.ResponseWriter, r *http.Request) {
	out, err := h.svc.ListByTag(r.Context(), chi.URLParam(r, "tag"))
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, out)
}

// AssembleContext handles POST /api/v1/context.
func (h *Handler) AssembleContext(w http.ResponseWriter, r *http.Request) {
	var p store.AssembleParams
	if !h.decode(w, r, maxBodyBytes, &p) {
		return
	}
	resp := h.svc.GetAssembledContext(r.Context(), p)
	status := http.StatusOK
	if resp.Status != service.StatusOK {
		status = http.StatusServiceUnavailable
	}
	writeJSON(w, status, resp)
}

// GetSettings handles GET /api/v1/settings. With ?domain= set the reply also
// says whether auto-assembly is allowed there.
func (h *Handler) GetSettings(w http.ResponseWriter, r *http.Request) {
	s, err := h.svc.Settings(r.Context())
	if err != nil {
		h.fail(w, r, err)
		return
	}
	domain := r.URL.Query().Get("domain")
	if domain == "" {
		writeJSON(w, http.StatusOK, s)
		return
	}
	allowed, err := h.svc.AutoAssembleAllowed(r.Context(), domain)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, settingsResponse{Settings: s, Domain: domain, AutoAssembleAllowed: &allowed})
}

// UpdateSettings handles PATCH /api/v1/settings.
func (h *Handler) UpdateSettings(w http.ResponseWriter, r *http.Request) {
	var patch model.SettingsPatch
	if !h.decode(w, r, maxBodyBytes, &patch) {
		return
	}
	s, err := h.svc.UpdateSettings(r.Context(), patch)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, s)
}

// GetSummary handles GET /api/v1/summaries/{domain}.
func (h *Handler) GetSummary(w http.ResponseWriter, r *http.Request) {
	s, err := h.svc.GetSummary(r.Context(), chi.URLParam(r, "domain"))
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, s)
}

// PutSummary handles PUT /api/v1/summaries/{domain}.
func (h *Handler) PutSummary(w http.ResponseWriter, r *http.Request) {
	var req summaryRequest
	if !h.decode(w, r, maxBodyBytes, &req) {
		return
	}
	s, err := h.svc.SaveSummary(r.Context(), chi.URLParam(r, "domain"), req.Summary)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, s)
}

// Stats handles GET /api/v1/stats.
func (h *Handler) Stats(w http.ResponseWriter, r *http.Request) {
	st, err := h.svc.Stats(r.Context())
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, st)
}

// Export handles GET /api/v1/export.
func (h *Handler) Export(w http.ResponseWriter, r *http.Request) {
	exp, err := h.svc.ExportAll(r.Context())
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, exp)
}

// Import handles POST /api/v1/import.
func (h *Handler) Import(w http.ResponseWriter, r *http.Request) {
	var exp service.Export
	if !h.decode(w, r, maxImportBytes, &exp) {
		return
	}
	if err := h.svc.ImportAll(r.Context(), exp); err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, importResponse{Status: "ok"})
}

// Health handles GET /healthz. It fails when the backend cannot be read.
func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	if _, err := h.svc.Settings(r.Context()); err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}
