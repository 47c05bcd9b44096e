package handler

import (
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/gocarina/gocsv"

	"github.com/FACorreiaa/sheet-insights/internal/domain/insights"
	"github.com/FACorreiaa/sheet-insights/internal/domain/ledger"
	"github.com/FACorreiaa/sheet-insights/pkg/server"
)

const sessionNotFound = "Sessão não encontrada."

// InsightsHandler serves the read-only views of a normalized session.
type InsightsHandler struct {
	insightsSvc *insights.Service
	logger      *slog.Logger
}

// NewInsightsHandler creates a new insights handler
func NewInsightsHandler(insightsSvc *insights.Service, logger *slog.Logger) *InsightsHandler {
	return &InsightsHandler{
		insightsSvc: insightsSvc,
		logger:      logger,
	}
}

// Routes mounts the handler on r.
func (h *InsightsHandler) Routes(r chi.Router) {
	r.Get("/kpis/{session}", h.GetKpis)
	r.Get("/charts/{session}", h.GetCharts)
	r.Get("/report/{session}", h.GetReport)
	r.Get("/data/{session}", h.GetData)
	r.Get("/data/{session}/export.csv", h.ExportCSV)
}

type reportResponse struct {
	Report string `json:"report"`
}

type exportRow struct {
	Data      string `csv:"data"`
	Tipo      string `csv:"tipo"`
	Categoria string `csv:"categoria"`
	Valor     string `csv:"valor"`
}

func (h *InsightsHandler) GetKpis(w http.ResponseWriter, r *http.Request) {
	kpis, err := h.insightsSvc.GetKpis(r.Context(), chi.URLParam(r, "session"))
	if err != nil {
		h.writeError(w, r, err, "Erro ao calcular KPIs.")
		return
	}
	server.WriteJSON(w, http.StatusOK, kpis)
}

func (h *InsightsHandler) GetCharts(w http.ResponseWriter, r *http.Request) {
	charts, err := h.insightsSvc.GetCharts(r.Context(), chi.URLParam(r, "session"))
	if err != nil {
		h.writeError(w, r, err, "Erro ao preparar dados para gráficos.")
		return
	}
	server.WriteJSON(w, http.StatusOK, charts)
}

func (h *InsightsHandler) GetReport(w http.ResponseWriter, r *http.Request) {
	report, err := h.insightsSvc.GetReport(r.Context(), chi.URLParam(r, "session"), r.URL.Query().Get("topic"))
	if err != nil {
		h.writeError(w, r, err, "Erro ao gerar relatório.")
		return
	}
	server.WriteJSON(w, http.StatusOK, reportResponse{Report: report})
}

// GetData returns the session rows as a JSON list, filtered by the q
// category query when given.
func (h *InsightsHandler) GetData(w http.ResponseWriter, r *http.Request) {
	table, err := h.insightsSvc.GetData(r.Context(), chi.URLParam(r, "session"), r.URL.Query().Get("q"))
	if err != nil {
		h.writeError(w, r, err, "Erro ao carregar dados.")
		return
	}

	rows := make([]map[string]any, 0, len(table.Records))
	for _, rec := range table.Records {
		rows = append(rows, insights.Row(table, rec))
	}
	server.WriteJSON(w, http.StatusOK, rows)
}

// ExportCSV streams the canonical columns of the session as a CSV download.
func (h *InsightsHandler) ExportCSV(w http.ResponseWriter, r *http.Request) {
	session := chi.URLParam(r, "session")
	table, err := h.insightsSvc.GetData(r.Context(), session, r.URL.Query().Get("q"))
	if err != nil {
		h.writeError(w, r, err, "Erro ao exportar dados.")
		return
	}

	rows := make([]exportRow, 0, len(table.Records))
	for _, rec := range table.Records {
		rows = append(rows, exportRow{
			Data:      rec.Date.Format("2006-01-02"),
			Tipo:      deref(rec.Type),
			Categoria: deref(rec.Category),
			Valor:     rec.Amount.StringFixed(2),
		})
	}

	w.Header().Set("Content-Type", "text/csv; charset=utf-8")
	w.Header().Set("Content-Disposition", `attachment; filename="`+session+`.csv"`)
	if err := gocsv.Marshal(rows, w); err != nil {
		h.logger.Error("failed to write csv export",
			slog.String("session_id", session),
			slog.Any("error", err),
		)
	}
}

func (h *InsightsHandler) writeError(w http.ResponseWriter, r *http.Request, err error, fallback string) {
	var schemaErr *ledger.SchemaError
	switch {
	case errors.Is(err, ledger.ErrNotFound):
		server.WriteError(w, http.StatusNotFound, sessionNotFound)
	case errors.As(err, &schemaErr):
		server.WriteError(w, http.StatusUnprocessableEntity, "Colunas obrigatórias não encontradas: "+strings.Join(schemaErr.Missing, ", "))
	default:
		h.logger.Error("insights request failed",
			slog.String("path", r.URL.Path),
			slog.Any("error", err),
		)
		server.WriteError(w, http.StatusInternalServerError, fallback)
	}
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
