// Package insights derives KPIs, chart series, text reports and filtered row
// views from a session's canonical table. Every call reads the table afresh
// from the store.
package insights

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/FACorreiaa/sheet-insights/internal/domain/ledger"
	"github.com/FACorreiaa/sheet-insights/internal/domain/ledger/repository"
)

var tracer = otel.Tracer("github.com/FACorreiaa/sheet-insights/internal/domain/insights")

// Service handles insights business logic
type Service struct {
	store  repository.Store
	logger *slog.Logger
}

// NewService creates a new insights service
func NewService(store repository.Store, logger *slog.Logger) *Service {
	return &Service{
		store:  store,
		logger: logger,
	}
}

// GetKpis computes revenue, expense, net profit and margin for a session.
func (s *Service) GetKpis(ctx context.Context, sessionKey string) (*KpiResult, error) {
	ctx, span := s.start(ctx, "Insights.GetKpis", sessionKey)
	defer span.End()

	table, err := s.load(ctx, span, sessionKey)
	if err != nil {
		return nil, err
	}
	return ComputeKpis(table), nil
}

// GetCharts builds the expense-by-category and monthly flow series.
func (s *Service) GetCharts(ctx context.Context, sessionKey string) (*ChartResult, error) {
	ctx, span := s.start(ctx, "Insights.GetCharts", sessionKey)
	defer span.End()

	table, err := s.load(ctx, span, sessionKey)
	if err != nil {
		return nil, err
	}

	charts, err := PrepareCharts(table)
	if err != nil {
		span.SetStatus(codes.Error, err.Error())
		s.logger.Warn("session table cannot be charted",
			slog.String("session_id", sessionKey),
			slog.Any("error", err),
		)
		return nil, err
	}
	return charts, nil
}

// GetReport composes the text summary, optionally detailed by topic.
func (s *Service) GetReport(ctx context.Context, sessionKey, topic string) (string, error) {
	ctx, span := s.start(ctx, "Insights.GetReport", sessionKey)
	defer span.End()
	span.SetAttributes(attribute.String("report.topic", topic))

	table, err := s.load(ctx, span, sessionKey)
	if err != nil {
		return "", err
	}
	return ComposeReport(table, topic), nil
}

// GetData returns the session table, keeping only records whose category
// matches query when it is not empty.
func (s *Service) GetData(ctx context.Context, sessionKey, query string) (*ledger.Table, error) {
	ctx, span := s.start(ctx, "Insights.GetData", sessionKey)
	defer span.End()

	table, err := s.load(ctx, span, sessionKey)
	if err != nil {
		return nil, err
	}
	return FilterByCategory(table, query), nil
}

func (s *Service) start(ctx context.Context, name, sessionKey string) (context.Context, trace.Span) {
	return tracer.Start(ctx, name, trace.WithAttributes(attribute.String("session.id", sessionKey)))
}

// load reads the session table. Any read failure is reported as not found.
func (s *Service) load(ctx context.Context, span trace.Span, sessionKey string) (*ledger.Table, error) {
	table, err := s.store.ReadTable(ctx, sessionKey)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "session table unavailable")
		if !errors.Is(err, ledger.ErrNotFound) {
			s.logger.Warn("session table unreadable",
				slog.String("session_id", sessionKey),
				slog.Any("error", err),
			)
			return nil, fmt.Errorf("%w: %v", ledger.ErrNotFound, err)
		}
		return nil, err
	}
	span.SetAttributes(attribute.Int("table.rows", len(table.Records)))
	return table, nil
}
