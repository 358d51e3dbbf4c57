package dosing

import (
	"log/slog"

	"cgmdose/pkg/contracts/domain"
)

// AddTargetDeviation returns a copy of t with the target_deviation column
// materialized. isf == 0 derives the ISF from t itself; if that ISF is
// undefined every deviation is 0 and the DOMAIN error is returned alongside
// the complete table.
func (e *Engine) AddTargetDeviation(t domain.Table, isf float64) (domain.Table, error) {
	var isfErr error
	if isf == 0 {
		isf, isfErr = e.InsulinSensitivityFactor(t)
	}

	out := t.WithDerived(domain.ColumnTargetDeviation)
	if isfErr != nil {
		for i := range out.Records {
			out.Records[i].TargetDeviation = 0
		}
		e.logger.Warn("target deviation left at zero", slog.String("reason", isfErr.Error()))
		return out, isfErr
	}

	glucose := GlucoseSubset(t)
	for i := range out.Records {
		out.Records[i].TargetDeviation, _ = TargetDeviation(out.Records[i], glucose, isf, e.target)
	}
	return out, nil
}

// AddBolusRatio returns a copy of t with the bolus_ratio column materialized.
func (e *Engine) AddBolusRatio(t domain.Table) domain.Table {
	out := t.WithDerived(domain.ColumnBolusRatio)
	bolus := BolusSubset(t)
	for i := range out.Records {
		out.Records[i].BolusRatio, _ = BolusRatio(out.Records[i], bolus)
	}
	return out
}

// RecalculateBolusRatio materializes bolus_ratio and target_deviation, then
// new_ratio from them. A DOMAIN error from an undefined automatic ISF is
// returned with the complete table.
func (e *Engine) RecalculateBolusRatio(t domain.Table, isf float64) (domain.Table, error) {
	out, err := e.AddTargetDeviation(e.AddBolusRatio(t), isf)
	out = out.WithDerived(domain.ColumnNewRatio)
	for i := range out.Records {
		r := &out.Records[i]
		r.NewRatio = NewRatio(r.Carbs, r.BolusRatio, r.TargetDeviation)
	}
	return out, err
}
