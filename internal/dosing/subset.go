package dosing

import (
	"slices"

	"cgmdose/pkg/contracts/domain"
)

// CarbsSubset returns the rows with a carb event, ordered by time.
func CarbsSubset(t domain.Table) []domain.Record {
	return subset(t, func(r domain.Record) bool { return r.Carbs > 0 })
}

// GlucoseSubset returns the rows with a glucose reading, ordered by time.
func GlucoseSubset(t domain.Table) []domain.Record {
	return subset(t, func(r domain.Record) bool { return r.Glucose > 0 })
}

// BolusSubset returns the rows with a bolus dose, ordered by time.
func BolusSubset(t domain.Table) []domain.Record {
	return subset(t, func(r domain.Record) bool { return r.Bolus > 0 })
}

// BasalSubset returns the rows with a basal dose, ordered by time.
func BasalSubset(t domain.Table) []domain.Record {
	return subset(t, func(r domain.Record) bool { return r.Basal > 0 })
}

func subset(t domain.Table, keep func(domain.Record) bool) []domain.Record {
	var out []domain.Record
	for _, r := range t.Records {
		if keep(r) {
			out = append(out, r)
		}
	}
	slices.SortStableFunc(out, func(a, b domain.Record) int {
		return a.DateTime.Compare(b.DateTime)
	})
	return out
}

func mean(records []domain.Record, value func(domain.Record) float64) (float64, bool) {
	if len(records) == 0 {
		return 0, false
	}
	var sum float64
	for _, r := range records {
		sum += value(r)
	}
	return sum / float64(len(records)), true
}
