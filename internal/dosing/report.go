package dosing

import (
	"log/slog"
	"math"
	"time"

	apperrors "cgmdose/internal/errors"
	"cgmdose/pkg/contracts/domain"
)

// Report bundles the analytics for one table. TDD and ISF may be NaN.
type Report struct {
	TDD    float64
	ISF    float64
	Target float64
	First  time.Time
	Last   time.Time
	Table  domain.Table
	Groups []GroupSummary
}

// Analyze computes TDD and ISF, enriches t with every derived column and
// summarizes it by hour group. When the ISF cannot be derived the report is
// still complete, with NaN TDD/ISF and zero deviations, and the DOMAIN error
// is returned with it. An empty table is a DOMAIN error with an empty report.
func (e *Engine) Analyze(t domain.Table) (Report, error) {
	if t.Len() == 0 {
		return Report{TDD: math.NaN(), ISF: math.NaN(), Target: e.target},
			apperrors.NewDomainError("no records to analyze", apperrors.ErrInsufficientData)
	}

	report := Report{Target: e.target}
	report.First, report.Last = t.Span()

	tdd, tddErr := e.TotalDailyDose(t)
	report.TDD = tdd

	isf := e.isf
	if isf == 0 && tddErr == nil {
		isf, tddErr = e.InsulinSensitivityFactor(t)
	}
	if isf == 0 {
		isf = math.NaN()
	}
	report.ISF = isf

	// A NaN ISF leaves deviations at zero inside the matcher, so the
	// enrichment below never re-derives it.
	enriched, err := e.RecalculateBolusRatio(t, isf)
	if err != nil {
		return Report{}, err
	}
	report.Table = enriched
	report.Groups = e.SummarizeByHourGroup(enriched)

	e.logger.Debug("analysis completed",
		slog.Int("records", t.Len()),
		slog.Float64("tdd", report.TDD),
		slog.Float64("isf", report.ISF))

	if e.isf == 0 && tddErr != nil {
		return report, tddErr
	}
	return report, nil
}
