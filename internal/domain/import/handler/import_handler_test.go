package handler

import (
	"bytes"
	"encoding/json"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	importservice "github.com/FACorreiaa/sheet-insights/internal/domain/import/service"
	"github.com/FACorreiaa/sheet-insights/internal/domain/ledger/repository"
	"github.com/FACorreiaa/sheet-insights/pkg/storage"
)

func newTestRouter(t *testing.T, maxUpload int64) http.Handler {
	t.Helper()
	files, err := storage.NewLocalStorage(t.TempDir())
	require.NoError(t, err)
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	svc := importservice.NewImportService(repository.NewMemoryStore(), files, nil, logger)

	r := chi.NewRouter()
	NewImportHandler(svc, maxUpload, logger).Routes(r)
	return r
}

func multipartBody(t *testing.T, field, filename string, content []byte) (*bytes.Buffer, string) {
	t.Helper()
	var body bytes.Buffer
	w := multipart.NewWriter(&body)
	part, err := w.CreateFormFile(field, filename)
	require.NoError(t, err)
	_, err = part.Write(content)
	require.NoError(t, err)
	require.NoError(t, w.Close())
	return &body, w.FormDataContentType()
}

func upload(t *testing.T, router http.Handler, content []byte) uploadResponse {
	t.Helper()
	body, contentType := multipartBody(t, "file", "extrato.csv", content)
	req := httptest.NewRequest(http.MethodPost, "/upload", body)
	req.Header.Set("Content-Type", contentType)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var resp uploadResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	return resp
}

func TestImportHandler_UploadAndNormalize(t *testing.T) {
	router := newTestRouter(t, 1<<20)
	csv := []byte("data,tipo,categoria,valor\n01/01/2024,Receita,Salário,\"1.000,00\"\n05/01/2024,Despesa,Aluguel,\"300,00\"\n")

	up := upload(t, router, csv)
	assert.Equal(t, "extrato.csv", up.Filename)
	assert.NotEmpty(t, up.SessionID)

	for _, method := range []string{http.MethodGet, http.MethodPost} {
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, httptest.NewRequest(method, "/normalize/"+up.SessionID, nil))
		require.Equal(t, http.StatusOK, rec.Code)
		assert.JSONEq(t, `{"message":"Dados normalizados e salvos.","linhas_processadas":2}`, rec.Body.String())
	}
}

func TestImportHandler_Errors(t *testing.T) {
	t.Run("missing file field", func(t *testing.T) {
		router := newTestRouter(t, 1<<20)
		body, contentType := multipartBody(t, "other", "x.csv", []byte("a"))
		req := httptest.NewRequest(http.MethodPost, "/upload", body)
		req.Header.Set("Content-Type", contentType)
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, req)
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("upload too large", func(t *testing.T) {
		router := newTestRouter(t, 64)
		body, contentType := multipartBody(t, "file", "x.csv", bytes.Repeat([]byte("a"), 1024))
		req := httptest.NewRequest(http.MethodPost, "/upload", body)
		req.Header.Set("Content-Type", contentType)
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, req)
		assert.Equal(t, http.StatusRequestEntityTooLarge, rec.Code)
	})

	t.Run("unknown session", func(t *testing.T) {
		router := newTestRouter(t, 1<<20)
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/normalize/does-not-exist", nil))
		assert.Equal(t, http.StatusNotFound, rec.Code)
		assert.JSONEq(t, `{"detail":"Sessão não encontrada."}`, rec.Body.String())
	})

	t.Run("undecodable file", func(t *testing.T) {
		router := newTestRouter(t, 1<<20)
		up := upload(t, router, []byte{})

		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/normalize/"+up.SessionID, nil))
		assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	})
}
