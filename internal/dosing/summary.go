package dosing

import (
	"log/slog"

	"cgmdose/internal/hourgroup"
	"cgmdose/pkg/contracts/domain"
)

// GroupSummary aggregates one hour group of an enriched table.
type GroupSummary struct {
	Group  int    `json:"group"`
	Label  string `json:"label"`
	Events int    `json:"events"`

	CarbEvents  int     `json:"carb_events"`
	MeanGlucose float64 `json:"mean_glucose"`

	// MatchedRatios counts carb events with at least one bolus in window;
	// MeanBolusRatio averages over those only.
	MatchedRatios  int     `json:"matched_ratios"`
	MeanBolusRatio float64 `json:"mean_bolus_ratio"`
	MeanNewRatio   float64 `json:"mean_new_ratio"`

	TotalBolus float64 `json:"total_bolus"`
	TotalBasal float64 `json:"total_basal"`
}

type accumulator struct {
	glucose, glucoseN float64
	ratio, newRatio   float64
	newRatioN         float64
}

// SummarizeByHourGroup returns one summary per hour group, in group order.
// Tables without the derived ratio columns are enriched first using the
// automatic ISF.
func (e *Engine) SummarizeByHourGroup(t domain.Table) []GroupSummary {
	if !t.Has(domain.ColumnBolusRatio) || !t.Has(domain.ColumnNewRatio) {
		enriched, err := e.RecalculateBolusRatio(t, 0)
		if err != nil {
			e.logger.Debug("summary uses zero target deviation", slog.String("reason", err.Error()))
		}
		t = enriched
	}

	out := make([]GroupSummary, hourgroup.Groups)
	acc := make([]accumulator, hourgroup.Groups)
	for g := range out {
		out[g] = GroupSummary{Group: g, Label: e.groups.Label(g)}
	}

	for _, r := range t.Records {
		g, err := e.groups.GroupOf(r.Hour)
		if err != nil {
			e.logger.Warn("skipping record outside hour range",
				slog.Time("datetime", r.DateTime), slog.Int("hour", r.Hour))
			continue
		}
		s, a := &out[g], &acc[g]
		s.Events++
		s.TotalBolus += r.Bolus
		s.TotalBasal += r.Basal
		if r.Glucose > 0 {
			a.glucose += r.Glucose
			a.glucoseN++
		}
		if r.Carbs > 0 {
			s.CarbEvents++
		}
		if r.BolusRatio > 0 {
			s.MatchedRatios++
			a.ratio += r.BolusRatio
		}
		if r.NewRatio != 0 {
			a.newRatio += r.NewRatio
			a.newRatioN++
		}
	}

	for g := range out {
		a := acc[g]
		if a.glucoseN > 0 {
			out[g].MeanGlucose = a.glucose / a.glucoseN
		}
		if out[g].MatchedRatios > 0 {
			out[g].MeanBolusRatio = a.ratio / float64(out[g].MatchedRatios)
		}
		if a.newRatioN > 0 {
			out[g].MeanNewRatio = a.newRatio / a.newRatioN
		}
	}
	return out
}
