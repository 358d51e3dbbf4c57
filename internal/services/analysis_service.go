package services

import (
	"context"
	"log/slog"

	"cgmdose/internal/dosing"
	apperrors "cgmdose/internal/errors"
	"cgmdose/internal/exporter"
	"cgmdose/internal/infrastructure"
	"cgmdose/internal/storage"
	"cgmdose/pkg/contracts/domain"
)

// AnalysisRequest selects the records to analyze and where to export them.
type AnalysisRequest struct {
	// Days limits the analysis to records from midnight Days days ago.
	// Ignored when All is set.
	Days int
	All  bool

	// Optional export paths; empty skips the export.
	CSVPath  string
	XLSXPath string
}

// AnalysisService reads stored records and runs the dosing analytics on them.
type AnalysisService struct {
	gateway storage.Gateway
	engine  *dosing.Engine
	csv     *exporter.CSVWriter
	reports *exporter.ReportWriter
	logger  *slog.Logger
}

// NewAnalysisService creates an analysis service.
func NewAnalysisService(gateway storage.Gateway, engine *dosing.Engine, logger *slog.Logger) *AnalysisService {
	if logger == nil {
		logger = slog.Default()
	}
	return &AnalysisService{
		gateway: gateway,
		engine:  engine,
		csv:     exporter.NewCSVWriter(logger, false),
		reports: exporter.NewReportWriter(logger),
		logger:  infrastructure.WithComponent(logger, "analysis_service"),
	}
}

// Analyze reads the requested window and returns its report. An undefined
// ISF still yields a complete report, which is exported and returned
// together with the DOMAIN error.
func (s *AnalysisService) Analyze(ctx context.Context, req AnalysisRequest) (dosing.Report, error) {
	if s.gateway == nil {
		return dosing.Report{}, ErrNoGateway
	}

	table, err := s.read(ctx, req)
	if err != nil {
		return dosing.Report{}, err
	}

	report, analyzeErr := s.engine.Analyze(table)
	if analyzeErr != nil && report.Table.Len() == 0 {
		return report, analyzeErr
	}
	if analyzeErr != nil {
		s.logger.WarnContext(ctx, "Analysis incomplete",
			slog.String("error", analyzeErr.Error()))
	}

	if err := s.export(req, report); err != nil {
		return report, err
	}

	s.logger.InfoContext(ctx, "Analysis completed",
		slog.Int("records", report.Table.Len()),
		slog.Float64("tdd", report.TDD),
		slog.Float64("isf", report.ISF))
	return report, analyzeErr
}

func (s *AnalysisService) read(ctx context.Context, req AnalysisRequest) (domain.Table, error) {
	if req.All {
		return s.gateway.ReadAll(ctx)
	}
	if req.Days < 0 {
		return domain.Table{}, apperrors.NewAppValidationError("days must not be negative").
			WithContext("days", req.Days)
	}
	return s.gateway.ReadDaysFromNow(ctx, req.Days)
}

func (s *AnalysisService) export(req AnalysisRequest, report dosing.Report) error {
	if req.CSVPath != "" {
		if err := s.csv.WriteTableFile(req.CSVPath, report.Table); err != nil {
			return err
		}
	}
	if req.XLSXPath != "" {
		if err := s.reports.WriteFile(req.XLSXPath, report); err != nil {
			return err
		}
	}
	return nil
}
