package services

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"golang.org/x/sync/errgroup"

	"cgmdose/internal/exporter"
	"cgmdose/internal/files"
	"cgmdose/internal/infrastructure"
	"cgmdose/internal/storage"
	"cgmdose/internal/validation"
	"cgmdose/pkg/contracts/domain"
)

// Transformer turns one export file into a normalized table.
type Transformer interface {
	TransformFile(ctx context.Context, path string) (domain.Table, error)
}

// FileResult describes one transformed source file.
type FileResult struct {
	Source  string
	Records int
	Output  string
}

// TransformResult is the outcome of transforming an input directory. Table
// merges every file, newest record first.
type TransformResult struct {
	Files    []FileResult
	Table    domain.Table
	Duration time.Duration
}

// IngestResult adds the persistence outcome to a TransformResult.
type IngestResult struct {
	TransformResult
	Inserted int64
}

// IngestService discovers export files, transforms them in parallel and
// persists the merged table.
type IngestService struct {
	transformer Transformer
	gateway     storage.Gateway
	discovery   *files.Discovery
	validator   *validation.FileValidator
	manager     *files.Manager
	writer      *exporter.CSVWriter
	workers     int
	logger      *slog.Logger
}

// NewIngestService creates an ingest service. gateway may be nil for
// transform-only runs. When outputDir is set each transformed file is also
// written there as CSV.
func NewIngestService(transformer Transformer, gateway storage.Gateway, outputDir string, workers int, logger *slog.Logger) *IngestService {
	if logger == nil {
		logger = slog.Default()
	}
	if workers < 1 {
		workers = 1
	}

	s := &IngestService{
		transformer: transformer,
		gateway:     gateway,
		discovery:   files.NewDiscovery(""),
		validator:   validation.NewFileValidator(logger),
		workers:     workers,
		logger:      infrastructure.WithComponent(logger, "ingest_service"),
	}
	if outputDir != "" {
		s.manager = files.NewManager(outputDir)
		s.writer = exporter.NewCSVWriter(logger, false)
	}
	return s
}

// Transform validates dir, transforms every export in it with at most
// workers files in flight and merges the results. The first failing file
// cancels the rest and fails the run.
func (s *IngestService) Transform(ctx context.Context, dir string) (TransformResult, error) {
	start := time.Now()

	if _, err := s.validator.ValidateInputDirectory(dir); err != nil {
		return TransformResult{}, err
	}
	if s.manager != nil {
		if err := s.validator.ValidateOutputDirectory(s.manager.OutputDir()); err != nil {
			return TransformResult{}, err
		}
	}

	exports, err := s.discovery.FindExports(dir)
	if err != nil {
		return TransformResult{}, fmt.Errorf("discover exports: %w", err)
	}

	s.logger.InfoContext(ctx, "Transforming exports",
		slog.String("directory", dir),
		slog.Int("files", len(exports)),
		slog.Int("workers", s.workers))

	tables := make([]domain.Table, len(exports))
	results := make([]FileResult, len(exports))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.workers)
	for i, export := range exports {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			if err := s.validator.ValidateExportFile(export.Path); err != nil {
				return err
			}
			table, err := s.transformer.TransformFile(gctx, export.Path)
			if err != nil {
				return err
			}

			result := FileResult{Source: export.Path, Records: table.Len()}
			if s.writer != nil {
				result.Output = s.manager.TransformedPath(export.Path)
				if err := s.writer.WriteTableFile(result.Output, table.SortByDateTime(true)); err != nil {
					return fmt.Errorf("write %s: %w", result.Output, err)
				}
			}
			tables[i], results[i] = table, result
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return TransformResult{}, err
	}

	var merged []domain.Record
	for _, t := range tables {
		merged = append(merged, t.Records...)
	}

	result := TransformResult{
		Files:    results,
		Table:    domain.NewTable(merged).SortByDateTime(true),
		Duration: time.Since(start),
	}
	s.logger.InfoContext(ctx, "Exports transformed",
		slog.Int("files", len(results)),
		slog.Int("records", result.Table.Len()),
		slog.Duration("duration", result.Duration))
	return result, nil
}

// Ingest transforms dir and inserts the merged table through the gateway.
// Rows whose timestamp is already stored are skipped.
func (s *IngestService) Ingest(ctx context.Context, dir string) (IngestResult, error) {
	if s.gateway == nil {
		return IngestResult{}, ErrNoGateway
	}

	transformed, err := s.Transform(ctx, dir)
	if err != nil {
		return IngestResult{}, err
	}

	inserted, err := s.gateway.InsertRecords(ctx, transformed.Table)
	if err != nil {
		return IngestResult{TransformResult: transformed}, err
	}

	s.logger.InfoContext(ctx, "Records ingested",
		slog.Int("records", transformed.Table.Len()),
		slog.Int64("inserted", inserted),
		slog.Int64("skipped", int64(transformed.Table.Len())-inserted))
	return IngestResult{TransformResult: transformed, Inserted: inserted}, nil
}
