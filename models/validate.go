package models

import (
	"errors"
	"fmt"
	"reflect"
	"strings"
	"sync"

	"github.com/go-playground/validator/v10"
)

// ContractError reports a profiling result that does not honour the API
// contract. The dashboard treats it like a failed request.
type ContractError struct {
	Violations []string
}

func (e *ContractError) Error() string {
	return "profiling result violates contract: " + strings.Join(e.Violations, "; ")
}

var (
	validate     *validator.Validate
	validateOnce sync.Once
)

// GetValidator returns the shared validator, keyed on json field names
func GetValidator() *validator.Validate {
	validateOnce.Do(func() {
		validate = validator.New()
		validate.RegisterTagNameFunc(func(fld reflect.StructField) string {
			name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
			if name == "-" {
				return ""
			}
			if name == "" {
				return wireName(fld.Name)
			}
			return name
		})
	})
	return validate
}

// wireName maps untagged ColumnAnalysis fields to their wire keys
func wireName(field string) string {
	switch field {
	case "DType":
		return "dtype"
	case "NullCount":
		return "null_count"
	case "NullPercentage":
		return "null_percentage"
	case "UniqueCount":
		return "unique_count"
	case "UniquePercentage":
		return "unique_percentage"
	}
	return strings.ToLower(field)
}

// Validate checks required fields, ranges and the cross-field rules:
// success must be true and column_count must match the columns received.
func (r *ProfilingResult) Validate() error {
	if r == nil {
		return &ContractError{Violations: []string{"empty document"}}
	}

	var violations []string
	if err := GetValidator().Struct(r); err != nil {
		violations = append(violations, formatValidationError(err)...)
	}
	if !r.Success {
		violations = append(violations, "success is false")
	}
	if r.BasicStats.ColumnCount != len(r.Columns) {
		violations = append(violations, fmt.Sprintf("basic_stats.column_count is %d but %d columns were returned",
			r.BasicStats.ColumnCount, len(r.Columns)))
	}
	for i := range r.Columns {
		if err := r.Columns[i].checkKind(); err != nil {
			violations = append(violations, err.Error())
		}
	}

	if len(violations) > 0 {
		return &ContractError{Violations: violations}
	}
	return nil
}

// formatValidationError turns validator output into readable violations
func formatValidationError(err error) []string {
	var validationErrors validator.ValidationErrors
	if !errors.As(err, &validationErrors) {
		return []string{err.Error()}
	}

	out := make([]string, 0, len(validationErrors))
	for _, e := range validationErrors {
		field := e.Namespace()
		if idx := strings.Index(field, "."); idx >= 0 {
			field = field[idx+1:]
		}

		var message string
		switch e.Tag() {
		case "required":
			message = fmt.Sprintf("%s is required", field)
		case "gte":
			message = fmt.Sprintf("%s must be >= %s", field, e.Param())
		case "lte":
			message = fmt.Sprintf("%s must be <= %s", field, e.Param())
		default:
			message = fmt.Sprintf("%s failed %s", field, e.Tag())
		}
		out = append(out, message)
	}
	return out
}
