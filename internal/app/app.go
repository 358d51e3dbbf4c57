package app

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"

	"github.com/jonboulle/clockwork"

	"cgmdose/internal/config"
	"cgmdose/internal/dataprocessing"
	"cgmdose/internal/dataprocessing/clarity"
	"cgmdose/internal/dosing"
	"cgmdose/internal/infrastructure"
	"cgmdose/internal/services"
	"cgmdose/internal/storage"
	"cgmdose/pkg/contracts"
)

// Application holds the components shared by every command of one process.
type Application struct {
	Config    *config.Config
	Logger    *slog.Logger
	Telemetry *infrastructure.Telemetry
	Clock     clockwork.Clock

	closeLog func() error
}

// NewApplication builds the logger and telemetry described by cfg. Logs
// written to the console go to out.
func NewApplication(cfg *config.Config, out io.Writer) (*Application, error) {
	logger, closeLog, err := infrastructure.NewLogger(cfg.Logging, out)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize logger: %w", err)
	}

	telemetry, err := infrastructure.InitializeTelemetry(cfg.Telemetry, contracts.Version, logger)
	if err != nil {
		_ = closeLog()
		return nil, fmt.Errorf("failed to initialize telemetry: %w", err)
	}

	logger.Debug("Application starting",
		slog.String("name", config.AppName),
		slog.String("version", contracts.Version))

	return &Application{
		Config:    cfg,
		Logger:    logger,
		Telemetry: telemetry,
		Clock:     clockwork.NewRealClock(),
		closeLog:  closeLog,
	}, nil
}

// Pipeline returns a Clarity pipeline instrumented with the application's
// tracer and meter.
func (a *Application) Pipeline() (*dataprocessing.Pipeline, error) {
	tracer, err := dataprocessing.NewPipelineTracer(a.Telemetry.Tracer, a.Telemetry.Meter)
	if err != nil {
		return nil, fmt.Errorf("failed to create pipeline instruments: %w", err)
	}
	return dataprocessing.NewPipeline(clarity.New(),
		dataprocessing.WithLogger(a.Logger),
		dataprocessing.WithTracer(tracer)), nil
}

// Engine returns a dosing engine using the configured target and ISF.
func (a *Application) Engine() *dosing.Engine {
	return dosing.New(
		dosing.WithTarget(a.Config.Analytics.Target),
		dosing.WithFixedISF(a.Config.Analytics.ISF),
		dosing.WithLogger(a.Logger))
}

// StorageConfig maps the database section onto the gateway configuration.
func (a *Application) StorageConfig() storage.Config {
	db := a.Config.Database
	return storage.Config{
		Host:            db.Host,
		Port:            db.Port,
		Database:        db.Name,
		Username:        db.User,
		Password:        db.Password,
		SSLMode:         db.SSLMode,
		Schema:          db.Schema,
		Table:           db.Table,
		MaxConns:        db.MaxConns,
		ConnectAttempts: db.ConnectAttempts,
		Logger:          a.Logger,
		Clock:           a.Clock,
	}
}

// OpenGateway connects to PostgreSQL and ensures the record table exists.
// A dry run gets an empty in-memory gateway instead.
func (a *Application) OpenGateway(ctx context.Context, dryRun bool) (storage.Gateway, error) {
	if dryRun {
		a.Logger.Info("Dry run, records are kept in memory")
		return storage.NewMemory(a.Clock), nil
	}

	pg, err := storage.NewPostgres(ctx, a.StorageConfig())
	if err != nil {
		return nil, err
	}
	if err := pg.Migrate(ctx); err != nil {
		pg.Close()
		return nil, err
	}
	return pg, nil
}

// IngestService wires the pipeline and gateway into an ingest service.
func (a *Application) IngestService(gateway storage.Gateway, outputDir string) (*services.IngestService, error) {
	pipeline, err := a.Pipeline()
	if err != nil {
		return nil, err
	}
	return services.NewIngestService(pipeline, gateway, outputDir, a.Config.Ingest.Workers, a.Logger), nil
}

// AnalysisService wires the gateway and engine into an analysis service.
func (a *Application) AnalysisService(gateway storage.Gateway) *services.AnalysisService {
	return services.NewAnalysisService(gateway, a.Engine(), a.Logger)
}

// Stop pushes the run's metrics, flushes telemetry and closes the log file.
// Every step runs even when an earlier one fails.
func (a *Application) Stop(ctx context.Context) error {
	var errs []error
	if err := a.Telemetry.Push(ctx); err != nil {
		a.Logger.Warn("Failed to push metrics", slog.String("error", err.Error()))
		errs = append(errs, err)
	}
	errs = append(errs, a.Telemetry.Shutdown(ctx))
	errs = append(errs, a.closeLog())
	return errors.Join(errs...)
}
