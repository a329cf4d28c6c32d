package dashboard

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/charmbracelet/log"

	"github.com/Hysas/procside/internal/app"
	"github.com/Hysas/procside/internal/domain"
	"github.com/Hysas/procside/internal/render"
)

// Handler serves the dashboard pages, the JSON API, and the SSE stream.
type Handler struct {
	svc    *app.Service
	gates  app.GatesConfig
	hub    *Hub
	logger *log.Logger
	clock  app.Clock
}

// processRow is one entry of the /api/processes payload: the registry
// summary merged with the live collections of the full document.
type processRow struct {
	domain.ProcessMeta
	Steps     []domain.Step     `json:"steps,omitempty"`
	Evidence  []domain.Evidence `json:"evidence,omitempty"`
	Decisions []domain.Decision `json:"decisions,omitempty"`
	Risks     []domain.Risk     `json:"risks,omitempty"`
}

// NewHandler wires the dashboard over the process service. A nil hub
// gets a private one, leaving /events functional but silent.
func NewHandler(svc *app.Service, gates app.GatesConfig, h *Hub, logger *log.Logger) (*Handler, error) {
	if svc == nil {
		return nil, fmt.Errorf("process service is required")
	}
	if h == nil {
		h = NewHub()
	}
	if len(gates.Gates) == 0 {
		gates = app.DefaultGatesConfig()
	}
	return &Handler{svc: svc, gates: gates, hub: h, logger: logger, clock: time.Now}, nil
}

// ServeHTTP routes one dashboard request.
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.Header().Set("Allow", http.MethodGet)
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	path := r.URL.Path
	switch {
	case path == "/api/processes":
		h.handleAPIProcesses(w, r)
	case path == "/events":
		h.handleEvents(w, r)
	case strings.HasPrefix(path, "/process/"):
		h.handleProcessPage(w, r, strings.TrimPrefix(path, "/process/"))
	default:
		style, ok := animationStyles[path]
		if !ok {
			http.NotFound(w, r)
			return
		}
		h.handleIndexPage(w, r, style)
	}
}

// handleAPIProcesses serves GET /api/processes.
func (h *Handler) handleAPIProcesses(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	metas, err := h.svc.List(ctx, false)
	if err != nil {
		h.serveError(w, "load processes", err)
		return
	}
	activeID, err := h.svc.ActiveID(ctx)
	if err != nil {
		h.serveError(w, "load registry", err)
		return
	}
	rows := make([]processRow, 0, len(metas))
	for _, meta := range metas {
		row := processRow{ProcessMeta: meta}
		if p, err := h.svc.Get(ctx, meta.ID); err == nil {
			row.Steps = p.Steps
			row.Evidence = p.Evidence
			row.Decisions = p.Decisions
			row.Risks = p.Risks
		}
		rows = append(rows, row)
	}

	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(map[string]any{
		"processes":       rows,
		"activeProcessId": activeID,
	}); err != nil && h.logger != nil {
		h.logger.Warn("encode processes payload", "err", err)
	}
}

// handleIndexPage serves the multi-process overview.
func (h *Handler) handleIndexPage(w http.ResponseWriter, r *http.Request, style string) {
	ctx := r.Context()
	metas, err := h.svc.List(ctx, false)
	if err != nil {
		h.serveError(w, "load processes", err)
		return
	}
	activeID, err := h.svc.ActiveID(ctx)
	if err != nil {
		h.serveError(w, "load registry", err)
		return
	}
	data := indexData{
		Title:          "Process Dashboard",
		AnimationStyle: style,
		ActiveID:       activeID,
		Processes:      metas,
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := pageTemplates.ExecuteTemplate(w, "index.html.tmpl", data); err != nil && h.logger != nil {
		h.logger.Warn("render index", "err", err)
	}
}

// handleProcessPage serves one process detail page.
func (h *Handler) handleProcessPage(w http.ResponseWriter, r *http.Request, id string) {
	p, err := h.svc.Get(r.Context(), id)
	if errors.Is(err, app.ErrProcessNotFound) {
		http.Error(w, "process not found", http.StatusNotFound)
		return
	}
	if err != nil {
		h.serveError(w, "load process", err)
		return
	}
	data := newDetailData(p, h.gates, h.clock())
	data.Mermaid = render.Mermaid(p)

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := pageTemplates.ExecuteTemplate(w, "process.html.tmpl", data); err != nil && h.logger != nil {
		h.logger.Warn("render process page", "err", err)
	}
}

// handleEvents serves the SSE change stream. Each artifact change
// yields one process-update message; clients refetch on receipt.
func (h *Handler) handleEvents(w http.ResponseWriter, r *http.Request) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "streaming unsupported", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.WriteHeader(http.StatusOK)
	flusher.Flush()

	signals, cancel := h.hub.subscribe()
	defer cancel()

	for {
		select {
		case <-r.Context().Done():
			return
		case <-signals:
			if _, err := fmt.Fprint(w, "data: {\"type\":\"process-update\"}\n\n"); err != nil {
				return
			}
			flusher.Flush()
		}
	}
}

func (h *Handler) serveError(w http.ResponseWriter, action string, err error) {
	if h.logger != nil {
		h.logger.Error(action, "err", err)
	}
	http.Error(w, "internal error", http.StatusInternalServerError)
}
