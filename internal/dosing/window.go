package dosing

import (
	"math"
	"sort"
	"time"

	"cgmdose/pkg/contracts/domain"
)

// within returns the records whose timestamp lies in [from, to]. records
// must be ordered by time, as the subset helpers return them.
func within(records []domain.Record, from, to time.Time) []domain.Record {
	lo := sort.Search(len(records), func(i int) bool {
		return !records[i].DateTime.Before(from)
	})
	hi := sort.Search(len(records), func(i int) bool {
		return records[i].DateTime.After(to)
	})
	if lo >= hi {
		return nil
	}
	return records[lo:hi]
}

// TargetDeviation returns (mean glucose - target) / isf over the readings
// taken 2h to 3h after the carb event in row. glucose must be ordered by
// time. The bool is false, and the value 0, when row has no carbs, the
// window holds no reading or isf is unusable.
func TargetDeviation(row domain.Record, glucose []domain.Record, isf, target float64) (float64, bool) {
	if row.Carbs <= 0 || isf == 0 || math.IsNaN(isf) || math.IsInf(isf, 0) {
		return 0, false
	}
	window := within(glucose,
		row.DateTime.Add(DeviationWindowStart),
		row.DateTime.Add(DeviationWindowEnd))
	avg, ok := mean(window, func(r domain.Record) float64 { return r.Glucose })
	if !ok {
		return 0, false
	}
	return (avg - target) / isf, true
}

// BolusRatio returns carbs / mean bolus over the doses within BolusWindow of
// the carb event in row. bolus must be ordered by time. The bool is false,
// and the value 0, when row has no carbs or no dose matches.
func BolusRatio(row domain.Record, bolus []domain.Record) (float64, bool) {
	if row.Carbs <= 0 {
		return 0, false
	}
	window := within(bolus,
		row.DateTime.Add(-BolusWindow),
		row.DateTime.Add(BolusWindow))
	avg, ok := mean(window, func(r domain.Record) float64 { return r.Bolus })
	if !ok || avg == 0 {
		return 0, false
	}
	return row.Carbs / avg, true
}

// NewRatio returns carbs / ((carbs / bolusRatio) + targetDeviation), with
// any NaN or infinite result replaced by 0.
func NewRatio(carbs, bolusRatio, targetDeviation float64) float64 {
	v := carbs / ((carbs / bolusRatio) + targetDeviation)
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return 0
	}
	return v
}
