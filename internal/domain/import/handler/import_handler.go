package handler

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/FACorreiaa/sheet-insights/internal/domain/import/parser"
	importservice "github.com/FACorreiaa/sheet-insights/internal/domain/import/service"
	"github.com/FACorreiaa/sheet-insights/pkg/server"
	"github.com/FACorreiaa/sheet-insights/pkg/storage"
)

const normalizedMessage = "Dados normalizados e salvos."

// ImportHandler serves the upload and normalize endpoints
type ImportHandler struct {
	importSvc      *importservice.ImportService
	maxUploadBytes int64
	logger         *slog.Logger
}

// NewImportHandler creates a new import handler
func NewImportHandler(importSvc *importservice.ImportService, maxUploadBytes int64, logger *slog.Logger) *ImportHandler {
	return &ImportHandler{
		importSvc:      importSvc,
		maxUploadBytes: maxUploadBytes,
		logger:         logger,
	}
}

// Routes mounts the handler on r.
func (h *ImportHandler) Routes(r chi.Router) {
	r.Post("/upload", h.Upload)
	r.Get("/normalize/{session}", h.Normalize)
	r.Post("/normalize/{session}", h.Normalize)
}

type uploadResponse struct {
	SessionID string `json:"session_id"`
	Filename  string `json:"filename"`
}

type normalizeResponse struct {
	Message string `json:"message"`
	Rows    int    `json:"linhas_processadas"`
}

// Upload stores the multipart "file" field under a new session id.
func (h *ImportHandler) Upload(w http.ResponseWriter, r *http.Request) {
	if h.maxUploadBytes > 0 {
		if r.ContentLength > h.maxUploadBytes {
			server.WriteError(w, http.StatusRequestEntityTooLarge, "arquivo excede o tamanho máximo permitido")
			return
		}
		r.Body = http.MaxBytesReader(w, r.Body, h.maxUploadBytes)
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			server.WriteError(w, http.StatusRequestEntityTooLarge, "arquivo excede o tamanho máximo permitido")
			return
		}
		server.WriteError(w, http.StatusBadRequest, "campo 'file' ausente ou inválido")
		return
	}
	defer file.Close()

	info, err := h.importSvc.Upload(r.Context(), header.Filename, header.Header.Get("Content-Type"), file)
	if err != nil {
		h.logger.Error("failed to store upload", slog.Any("error", err))
		server.WriteError(w, http.StatusInternalServerError, "erro ao salvar arquivo")
		return
	}

	server.WriteJSON(w, http.StatusOK, uploadResponse{SessionID: info.SessionID, Filename: info.Name})
}

// Normalize runs the normalizer on the session's uploaded file.
func (h *ImportHandler) Normalize(w http.ResponseWriter, r *http.Request) {
	session := chi.URLParam(r, "session")

	rows, err := h.importSvc.NormalizeSession(r.Context(), session)
	if err != nil {
		var decodeErr *parser.DecodeError
		switch {
		case errors.Is(err, storage.ErrFileNotFound), errors.Is(err, storage.ErrInvalidSession):
			server.WriteError(w, http.StatusNotFound, "Sessão não encontrada.")
		case errors.As(err, &decodeErr):
			server.WriteError(w, http.StatusUnprocessableEntity, "Erro ao processar arquivo: "+decodeErr.Error())
		default:
			h.logger.Error("failed to normalize session",
				slog.String("session_id", session),
				slog.Any("error", err),
			)
			server.WriteError(w, http.StatusInternalServerError, "Erro ao processar arquivo.")
		}
		return
	}

	server.WriteJSON(w, http.StatusOK, normalizeResponse{Message: normalizedMessage, Rows: rows})
}
