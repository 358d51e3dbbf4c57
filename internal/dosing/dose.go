package dosing

import (
	"fmt"
	"math"

	apperrors "cgmdose/internal/errors"
	"cgmdose/pkg/contracts/domain"
)

// TotalDailyDose returns the mean nonzero basal dose plus the mean nonzero
// bolus dose. When either subset is empty it returns NaN and a DOMAIN error.
func (e *Engine) TotalDailyDose(t domain.Table) (float64, error) {
	basal, ok := mean(BasalSubset(t), func(r domain.Record) float64 { return r.Basal })
	if !ok {
		return math.NaN(), insufficient("total daily dose", domain.ColumnBasal)
	}
	bolus, ok := mean(BolusSubset(t), func(r domain.Record) float64 { return r.Bolus })
	if !ok {
		return math.NaN(), insufficient("total daily dose", domain.ColumnBolus)
	}
	return basal + bolus, nil
}

// InsulinSensitivityFactor returns ISFNumerator / TDD. An undefined or zero
// TDD yields NaN and a DOMAIN error.
func (e *Engine) InsulinSensitivityFactor(t domain.Table) (float64, error) {
	tdd, err := e.TotalDailyDose(t)
	if err != nil {
		return math.NaN(), fmt.Errorf("insulin sensitivity factor: %w", err)
	}
	if tdd == 0 {
		return math.NaN(), apperrors.NewDomainError("insulin sensitivity factor undefined for zero total daily dose",
			apperrors.ErrInsufficientData)
	}
	return ISFNumerator / tdd, nil
}

func insufficient(aggregate string, column domain.Column) error {
	return apperrors.NewDomainError(
		fmt.Sprintf("%s undefined: no nonzero %s rows", aggregate, column),
		apperrors.ErrInsufficientData).
		WithContext("column", string(column))
}
