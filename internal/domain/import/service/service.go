// Package service orchestrates uploads and normalization: it stores the raw
// file per session, decodes it, runs the normalizer and replaces the session
// table in the store.
package service

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/FACorreiaa/sheet-insights/internal/domain/import/normalizer"
	"github.com/FACorreiaa/sheet-insights/internal/domain/import/parser"
	"github.com/FACorreiaa/sheet-insights/internal/domain/ledger/repository"
	"github.com/FACorreiaa/sheet-insights/pkg/metrics"
	"github.com/FACorreiaa/sheet-insights/pkg/storage"
)

var tracer = otel.Tracer("github.com/FACorreiaa/sheet-insights/internal/domain/import/service")

// ImportService normalizes uploads into session tables
type ImportService struct {
	store   repository.Store
	files   storage.Storage
	metrics *metrics.Metrics
	logger  *slog.Logger
}

// NewImportService creates a new import service. files may be nil when only
// Normalize is used; m may be nil to skip metrics.
func NewImportService(store repository.Store, files storage.Storage, m *metrics.Metrics, logger *slog.Logger) *ImportService {
	return &ImportService{
		store:   store,
		files:   files,
		metrics: m,
		logger:  logger,
	}
}

// Upload stores a raw spreadsheet under a newly generated session id.
func (s *ImportService) Upload(ctx context.Context, filename, contentType string, r io.Reader) (*storage.FileInfo, error) {
	if s.files == nil {
		return nil, errors.New("upload storage not configured")
	}

	sessionID := uuid.NewString()
	info, err := s.files.Upload(ctx, sessionID, filename, contentType, r)
	if err != nil {
		return nil, fmt.Errorf("store upload: %w", err)
	}

	s.logger.Info("file uploaded",
		slog.String("session_id", sessionID),
		slog.String("filename", filename),
		slog.Int64("size", info.Size),
	)
	return info, nil
}

// NormalizeSession normalizes the file previously uploaded for sessionKey.
func (s *ImportService) NormalizeSession(ctx context.Context, sessionKey string) (int, error) {
	if s.files == nil {
		return 0, errors.New("upload storage not configured")
	}

	rc, info, err := s.files.Open(ctx, sessionKey)
	if err != nil {
		return 0, fmt.Errorf("open upload: %w", err)
	}
	defer rc.Close()

	return s.Normalize(ctx, rc, info.Name, sessionKey)
}

// Normalize decodes file, normalizes it and replaces the table stored under
// sessionKey. It returns the number of rows persisted. A *parser.DecodeError
// means nothing was written.
func (s *ImportService) Normalize(ctx context.Context, file io.Reader, filename, sessionKey string) (rows int, err error) {
	ctx, span := tracer.Start(ctx, "ImportService.Normalize", trace.WithAttributes(
		attribute.String("session.id", sessionKey),
		attribute.String("file.name", filename),
	))
	defer func() {
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
		}
		span.End()
	}()

	raw, err := parser.Decode(file, filename)
	if err != nil {
		s.metrics.ObserveNormalization("decode_error")
		s.logger.Warn("upload could not be decoded",
			slog.String("session_id", sessionKey),
			slog.String("filename", filename),
			slog.Any("error", err),
		)
		return 0, err
	}

	table, stats := normalizer.Normalize(raw)
	span.SetAttributes(
		attribute.String("file.encoding", raw.Encoding),
		attribute.Int("rows.read", stats.RowsRead),
		attribute.Int("rows.kept", stats.RowsKept),
	)

	if err := s.store.WriteTable(ctx, sessionKey, table); err != nil {
		s.metrics.ObserveNormalization("error")
		return 0, fmt.Errorf("write session table: %w", err)
	}

	s.metrics.ObserveNormalization("ok")
	s.metrics.ObserveRows(stats.RowsKept, stats.Duplicates, stats.Invalid)
	s.logger.Info("session normalized",
		slog.String("session_id", sessionKey),
		slog.String("encoding", raw.Encoding),
		slog.Int("rows_read", stats.RowsRead),
		slog.Int("rows_kept", stats.RowsKept),
		slog.Int("duplicates", stats.Duplicates),
		slog.Int("invalid", stats.Invalid),
		slog.Int("amount_failures", stats.AmountFailures),
		slog.Int("date_failures", stats.DateFailures),
		slog.Int("signs_repaired", stats.SignsRepaired),
	)
	return stats.RowsKept, nil
}
