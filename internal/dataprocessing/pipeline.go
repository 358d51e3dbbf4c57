package dataprocessing

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	apperrors "cgmdose/internal/errors"
	"cgmdose/internal/hourgroup"
	"cgmdose/pkg/contracts/domain"
)

// Source is one export to transform.
type Source struct {
	// Name identifies the source in logs and selects the reader (by extension).
	Name   string
	Reader io.Reader
}

// Adapter supplies the format-specific parts of the pipeline.
type Adapter interface {
	// Name identifies the export format.
	Name() string

	// RequiredColumns lists the source columns retained after reading.
	RequiredColumns() []string

	// TimestampColumn is the source name of the primary timestamp column.
	TimestampColumn() string

	// Read parses the source into a frame, dropping rows without a timestamp.
	Read(src Source) (*RawFrame, error)

	// Rename maps source column names to canonical names.
	Rename(f *RawFrame) *RawFrame

	// Finish derives the canonical columns, fills missing values with zero
	// and produces the final table.
	Finish(f *Frame) (domain.Table, error)
}

// Frame is a renamed frame with its datetime column typed and the hour and
// hour group derived. Times is nil when the frame has no datetime column.
type Frame struct {
	*RawFrame
	Times      []time.Time
	Hours      []int
	HourGroups []int
}

// HasTimes reports whether the datetime column was typed.
func (f *Frame) HasTimes() bool {
	return f.Times != nil
}

// Pipeline runs the fixed transformation sequence for one adapter.
type Pipeline struct {
	adapter Adapter
	groups  *hourgroup.Table
	logger  *slog.Logger
	tracer  *PipelineTracer
}

// Option configures a Pipeline.
type Option func(*Pipeline)

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(p *Pipeline) {
		if logger != nil {
			p.logger = logger
		}
	}
}

// WithHourGroups sets the hour grouping table.
func WithHourGroups(groups *hourgroup.Table) Option {
	return func(p *Pipeline) {
		if groups != nil {
			p.groups = groups
		}
	}
}

// WithTracer sets the tracing and metrics instrumentation.
func WithTracer(tracer *PipelineTracer) Option {
	return func(p *Pipeline) {
		if tracer != nil {
			p.tracer = tracer
		}
	}
}

// NewPipeline creates a pipeline for the given adapter.
func NewPipeline(adapter Adapter, opts ...Option) *Pipeline {
	p := &Pipeline{
		adapter: adapter,
		groups:  hourgroup.Default(),
		logger:  slog.Default(),
		tracer:  NewNoopTracer(),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// TransformFile opens path and transforms it.
func (p *Pipeline) TransformFile(ctx context.Context, path string) (domain.Table, error) {
	file, err := os.Open(path)
	if err != nil {
		return domain.Table{}, apperrors.NewFormatError(fmt.Sprintf("failed to open %s", path), err)
	}
	defer file.Close()

	return p.Transform(ctx, Source{Name: filepath.Base(path), Reader: file})
}

// Transform reads one source and returns its normalized table.
func (p *Pipeline) Transform(ctx context.Context, src Source) (domain.Table, error) {
	start := time.Now()
	ctx, span := p.tracer.StartTransform(ctx, p.adapter.Name(), src.Name)
	defer span.End()

	logger := p.logger.With(
		slog.String("adapter", p.adapter.Name()),
		slog.String("source", src.Name))

	table, err := p.run(ctx, src, logger)
	p.tracer.RecordTransform(ctx, span, p.adapter.Name(), time.Since(start), table.Len(), err)
	if err != nil {
		logger.ErrorContext(ctx, "Transform failed", slog.String("error", err.Error()))
		return domain.Table{}, fmt.Errorf("transform %s: %w", src.Name, err)
	}

	logger.InfoContext(ctx, "Transform completed",
		slog.Int("records", table.Len()),
		slog.Duration("duration", time.Since(start)))
	return table, nil
}

func (p *Pipeline) run(ctx context.Context, src Source, logger *slog.Logger) (domain.Table, error) {
	// 1. read
	raw, err := p.adapter.Read(src)
	if err != nil {
		return domain.Table{}, err
	}
	if !raw.Has(p.adapter.TimestampColumn()) {
		return domain.Table{}, apperrors.NewFormatError(
			fmt.Sprintf("timestamp column %q not found", p.adapter.TimestampColumn()), nil).
			WithContext("columns", raw.Columns)
	}
	p.tracer.StepCompleted(ctx, "read", raw.Len())
	p.tracer.RecordRowsRead(ctx, p.adapter.Name(), raw.Len())

	// 2. column selection
	raw = raw.Select(p.adapter.RequiredColumns())
	p.tracer.StepCompleted(ctx, "select", raw.Len())

	// 3. rename
	raw = p.adapter.Rename(raw)
	p.tracer.StepCompleted(ctx, "rename", raw.Len())

	// 4. datetime typing
	frame, dropped := ParseDateTimes(raw, string(domain.ColumnDateTime), domain.TimestampLayout)
	if dropped > 0 {
		logger.WarnContext(ctx, "Dropped rows with unparsable timestamps", slog.Int("dropped", dropped))
		p.tracer.RecordRowsDropped(ctx, p.adapter.Name(), "unparsable_timestamp", dropped)
	}
	p.tracer.StepCompleted(ctx, "datetime", frame.Len())

	// 5. hour derivation
	if err := DeriveHours(frame, p.groups); err != nil {
		return domain.Table{}, err
	}
	p.tracer.StepCompleted(ctx, "hours", frame.Len())

	// 6. format-specific finishing
	table, err := p.adapter.Finish(frame)
	if err != nil {
		return domain.Table{}, err
	}
	p.tracer.StepCompleted(ctx, "finish", table.Len())

	logger.DebugContext(ctx, "Pipeline steps completed",
		slog.Int("records", table.Len()),
		slog.Int("dropped_timestamps", dropped))
	return table, nil
}

// ParseDateTimes types the datetime column of f using layout. Rows whose
// timestamp does not parse are removed; the count removed is returned. When
// the column is absent the frame is returned untyped.
func ParseDateTimes(f *RawFrame, column, layout string) (*Frame, int) {
	if !f.Has(column) {
		return &Frame{RawFrame: f}, 0
	}

	kept := &RawFrame{Columns: f.Columns, Rows: make([][]string, 0, len(f.Rows))}
	times := make([]time.Time, 0, len(f.Rows))
	for i, row := range f.Rows {
		ts, err := time.Parse(layout, f.Value(i, column))
		if err != nil {
			continue
		}
		kept.Rows = append(kept.Rows, row)
		times = append(times, ts)
	}
	return &Frame{RawFrame: kept, Times: times}, len(f.Rows) - len(kept.Rows)
}

// DeriveHours fills Hours and HourGroups from Times. It is a no-op for an
// untyped frame.
func DeriveHours(f *Frame, groups *hourgroup.Table) error {
	if !f.HasTimes() {
		return nil
	}

	f.Hours = make([]int, len(f.Times))
	f.HourGroups = make([]int, len(f.Times))
	for i, ts := range f.Times {
		group, err := groups.GroupOf(ts.Hour())
		if err != nil {
			return err
		}
		f.Hours[i] = ts.Hour()
		f.HourGroups[i] = group
	}
	return nil
}
