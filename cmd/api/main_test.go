package main

import (
	"bytes"
	"encoding/json"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/FACorreiaa/sheet-insights/pkg/config"
)

func testConfig(t *testing.T, driver string) *config.Config {
	return &config.Config{
		Server: config.ServerConfig{
			AllowedOrigins: []string{"http://localhost:3000"},
			MaxUploadBytes: 1 << 20,
		},
		Database: config.DatabaseConfig{
			Driver:     driver,
			SQLitePath: t.TempDir() + "/financeiro.db",
		},
		Storage:   config.StorageConfig{UploadDir: t.TempDir()},
		Retention: config.RetentionConfig{SessionTTL: time.Hour},
		LogLevel:  "error",
	}
}

func do(t *testing.T, h http.Handler, req *http.Request) map[string]any {
	t.Helper()
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var body map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	return body
}

func TestEndToEnd(t *testing.T) {
	for _, driver := range []string{config.DriverMemory, config.DriverSQLite} {
		t.Run(driver, func(t *testing.T) {
			logger := slog.New(slog.NewTextHandler(io.Discard, nil))
			deps, err := InitDependencies(testConfig(t, driver), logger)
			require.NoError(t, err)
			t.Cleanup(deps.Cleanup)

			router := newRouter(deps)

			var body bytes.Buffer
			mw := multipart.NewWriter(&body)
			part, err := mw.CreateFormFile("file", "extrato.csv")
			require.NoError(t, err)
			_, err = part.Write([]byte("data,tipo,categoria,valor\n" +
				"01/01/2024,Receita,Salário,\"1.000,00\"\n" +
				"05/01/2024,Despesa,Aluguel,300\n"))
			require.NoError(t, err)
			require.NoError(t, mw.Close())

			req := httptest.NewRequest(http.MethodPost, "/upload", &body)
			req.Header.Set("Content-Type", mw.FormDataContentType())
			session := do(t, router, req)["session_id"].(string)

			normalized := do(t, router, httptest.NewRequest(http.MethodPost, "/normalize/"+session, nil))
			assert.EqualValues(t, 2, normalized["linhas_processadas"])

			kpis := do(t, router, httptest.NewRequest(http.MethodGet, "/kpis/"+session, nil))
			assert.Equal(t, map[string]any{
				"Receita Total":   "R$ 1,000.00",
				"Despesa Total":   "R$ -300.00",
				"Lucro Líquido":   "R$ 700.00",
				"Margem de Lucro": "70.00%",
			}, kpis)

			charts := do(t, router, httptest.NewRequest(http.MethodGet, "/charts/"+session, nil))
			flow := charts["fluxo_mensal"].(map[string]any)
			assert.Equal(t, []any{"2024-01"}, flow["meses"])
			assert.Equal(t, []any{1000.0}, flow["receitas"])
			assert.Equal(t, []any{-300.0}, flow["despesas"])

			health := do(t, router, httptest.NewRequest(http.MethodGet, "/health", nil))
			assert.Equal(t, "ok", health["status"])
		})
	}
}
