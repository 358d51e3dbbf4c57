package validation

import (
	"fmt"
	"regexp"
	"strings"
	"sync"

	"github.com/go-playground/validator/v10"

	apperrors "cgmdose/internal/errors"
)

var (
	structValidator *validator.Validate
	validatorOnce   sync.Once

	sqlIdentifier = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]{0,62}$`)
)

func instance() *validator.Validate {
	validatorOnce.Do(func() {
		v := validator.New(validator.WithRequiredStructEnabled())
		_ = v.RegisterValidation("sqlident", isSQLIdentifier)
		structValidator = v
	})
	return structValidator
}

// Struct validates v against its `validate` tags. Failures are returned as a
// single VALIDATION AppError listing every field.
func Struct(v interface{}) error {
	err := instance().Struct(v)
	if err == nil {
		return nil
	}

	fieldErrs, ok := err.(validator.ValidationErrors)
	if !ok {
		return apperrors.NewAppError(apperrors.ErrTypeValidation, "invalid value", err)
	}

	messages := make([]string, 0, len(fieldErrs))
	for _, fe := range fieldErrs {
		messages = append(messages, formatFieldError(fe))
	}
	return apperrors.NewAppValidationError(strings.Join(messages, "; ")).
		WithContext("fields", len(fieldErrs))
}

func formatFieldError(err validator.FieldError) string {
	field := err.Namespace()
	param := err.Param()

	switch err.Tag() {
	case "required":
		return fmt.Sprintf("%s is required", field)
	case "min", "gte":
		return fmt.Sprintf("%s must be at least %s", field, param)
	case "max", "lte":
		return fmt.Sprintf("%s must be at most %s", field, param)
	case "gt":
		return fmt.Sprintf("%s must be greater than %s", field, param)
	case "oneof":
		return fmt.Sprintf("%s must be one of: %s", field, strings.ReplaceAll(param, " ", ", "))
	case "url":
		return fmt.Sprintf("%s must be a valid URL", field)
	case "sqlident":
		return fmt.Sprintf("%s must be a plain SQL identifier", field)
	default:
		return fmt.Sprintf("%s failed %s validation", field, err.Tag())
	}
}

// isSQLIdentifier accepts unquoted PostgreSQL identifiers.
func isSQLIdentifier(fl validator.FieldLevel) bool {
	return sqlIdentifier.MatchString(fl.Field().String())
}
