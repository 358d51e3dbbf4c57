// Package dosing derives insulin-dosing analytics from a normalized record
// table: total daily dose, insulin sensitivity factor, post-meal target
// deviation, observed bolus ratio and a recalculated bolus ratio, plus a
// per-hour-group summary of those values.
//
// Every operation reads a table snapshot and returns a scalar or a new
// table. Inputs are never mutated, so one Engine may be shared between
// goroutines.
//
// Aggregates over an empty subset are reported as NaN together with a
// DOMAIN AppError wrapping errors.ErrInsufficientData. Per-row window
// lookups that find nothing are not errors and yield 0.
package dosing

import (
	"log/slog"
	"time"

	"cgmdose/internal/hourgroup"
)

const (
	// DefaultTarget is the glucose target in mg/dL used for target deviation.
	DefaultTarget = 120.0

	// ISFNumerator is the rule constant of ISF = ISFNumerator / TDD.
	ISFNumerator = 1800.0

	// DeviationWindowStart and DeviationWindowEnd bound, relative to a carb
	// event, the glucose readings averaged for target deviation.
	DeviationWindowStart = 2 * time.Hour
	DeviationWindowEnd   = 3 * time.Hour

	// BolusWindow is the half-width of the window around a carb event in
	// which bolus doses are matched.
	BolusWindow = 15 * time.Minute
)

// Engine computes dosing analytics.
type Engine struct {
	target float64
	isf    float64
	groups *hourgroup.Table
	logger *slog.Logger
}

// Option configures an Engine.
type Option func(*Engine)

// WithTarget sets the glucose target. Non-positive values are ignored.
func WithTarget(target float64) Option {
	return func(e *Engine) {
		if target > 0 {
			e.target = target
		}
	}
}

// WithFixedISF makes Analyze use isf instead of deriving it from the table.
// Zero keeps the automatic computation.
func WithFixedISF(isf float64) Option {
	return func(e *Engine) {
		if isf > 0 {
			e.isf = isf
		}
	}
}

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(e *Engine) {
		if logger != nil {
			e.logger = logger
		}
	}
}

// WithHourGroups sets the hour grouping table used by the summary.
func WithHourGroups(groups *hourgroup.Table) Option {
	return func(e *Engine) {
		if groups != nil {
			e.groups = groups
		}
	}
}

// New creates an Engine.
func New(opts ...Option) *Engine {
	e := &Engine{
		target: DefaultTarget,
		groups: hourgroup.Default(),
		logger: slog.Default(),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Target returns the glucose target.
func (e *Engine) Target() float64 {
	return e.target
}
