package models

import (
	"encoding/json"
	"fmt"
)

// ProfilingResult is the document the analysis API returns for one upload.
// It is held only in memory by the dashboard and replaced on reset or re-upload.
type ProfilingResult struct {
	FileName      string           `json:"file_name" validate:"required"`
	Timestamp     string           `json:"timestamp"`
	BasicStats    BasicStats       `json:"basic_stats"`
	Columns       []ColumnAnalysis `json:"columns" validate:"required,dive"`
	QualityIssues []QualityIssue   `json:"quality_issues" validate:"required,dive"`
	LLMInsights   *LLMInsights     `json:"llm_insights,omitempty"`
	UploadID      string           `json:"upload_id,omitempty"`
	FileSizeMB    *float64         `json:"file_size_mb,omitempty" validate:"omitempty,gte=0"`
	Description   string           `json:"description,omitempty"`
	Success       bool             `json:"success"`
}

// BasicStats holds dataset-level counts
type BasicStats struct {
	RowCount       int     `json:"row_count" validate:"gte=0"`
	ColumnCount    int     `json:"column_count" validate:"gte=0"`
	MemoryUsageMB  float64 `json:"memory_usage_mb" validate:"gte=0"`
	DuplicateRows  int     `json:"duplicate_rows" validate:"gte=0"`
	TotalNulls     int     `json:"total_nulls" validate:"gte=0"`
	NullPercentage float64 `json:"null_percentage" validate:"gte=0,lte=100"`
}

// HasInsights reports whether the AI-insights panel has anything to show
func (r *ProfilingResult) HasInsights() bool {
	return r != nil && r.LLMInsights != nil
}

// Severity is the tier of a quality issue. Values outside high/medium/low
// are kept as received; the backend also emits "info".
type Severity string

const (
	SeverityHigh   Severity = "high"
	SeverityMedium Severity = "medium"
	SeverityLow    Severity = "low"
)

// Known reports whether the severity is one of the three recognised tiers
func (s Severity) Known() bool {
	switch s {
	case SeverityHigh, SeverityMedium, SeverityLow:
		return true
	}
	return false
}

// QualityIssue is a flagged data-quality concern. Column is empty for
// dataset-level issues such as duplicate rows.
type QualityIssue struct {
	Severity       Severity `json:"severity"`
	Type           string   `json:"type"`
	Column         string   `json:"column,omitempty"`
	Description    string   `json:"description" validate:"required"`
	Recommendation string   `json:"recommendation" validate:"required"`
}

// LLMInsights is the free-text narrative produced server-side. Error is set
// when generation failed; Insights then carries a placeholder sentence. An
// empty narrative is accepted and renders an empty panel.
type LLMInsights struct {
	Insights   string `json:"insights"`
	ModelUsed  string `json:"model_used,omitempty"`
	TokensUsed *int   `json:"tokens_used,omitempty" validate:"omitempty,gte=0"`
	Error      string `json:"error,omitempty"`
}

// ErrorResponse is the failure body the analysis API documents
type ErrorResponse struct {
	Success bool   `json:"success"`
	Error   string `json:"error"`
	Detail  string `json:"detail,omitempty"`
}

// ColumnKind tags which statistics group a column carries
type ColumnKind string

const (
	KindNumeric ColumnKind = "numeric"
	KindText    ColumnKind = "text"
	KindDate    ColumnKind = "date"
	KindNone    ColumnKind = "none"
)

// NumericStats is populated for numeric dtypes. Every field is nil when the
// column is entirely null.
type NumericStats struct {
	Min    *float64
	Max    *float64
	Mean   *float64
	Median *float64
	Std    *float64
}

// TextStats is populated for string/object dtypes with at least one value
type TextStats struct {
	AvgLength    *float64
	MaxLength    *int
	MinLength    *int
	SampleValues []any
}

// DateStats is populated for datetime dtypes
type DateStats struct {
	MinDate *string
	MaxDate *string
}

// ColumnAnalysis describes one source column. Exactly one of Numeric, Text
// and Date is non-nil, matching Kind; all are nil for KindNone.
type ColumnAnalysis struct {
	Name             string  `validate:"required"`
	DType            string  `validate:"required"`
	NullCount        int     `validate:"gte=0"`
	NullPercentage   float64 `validate:"gte=0,lte=100"`
	UniqueCount      int     `validate:"gte=0"`
	UniquePercentage float64 `validate:"gte=0"`

	Kind    ColumnKind
	Numeric *NumericStats
	Text    *TextStats
	Date    *DateStats
}

// columnWire is the flat shape on the wire
type columnWire struct {
	Name             string   `json:"name"`
	DType            string   `json:"dtype"`
	NullCount        *int     `json:"null_count"`
	NullPercentage   *float64 `json:"null_percentage"`
	UniqueCount      *int     `json:"unique_count"`
	UniquePercentage *float64 `json:"unique_percentage"`

	Min    *float64 `json:"min,omitempty"`
	Max    *float64 `json:"max,omitempty"`
	Mean   *float64 `json:"mean,omitempty"`
	Median *float64 `json:"median,omitempty"`
	Std    *float64 `json:"std,omitempty"`

	AvgLength    *float64 `json:"avg_length,omitempty"`
	MaxLength    *int     `json:"max_length,omitempty"`
	MinLength    *int     `json:"min_length,omitempty"`
	SampleValues []any    `json:"sample_values,omitempty"`

	MinDate *string `json:"min_date,omitempty"`
	MaxDate *string `json:"max_date,omitempty"`
}

// UnmarshalJSON decodes the flat wire shape and classifies the column.
// Numeric fields win over string-length fields, which win over dates.
func (c *ColumnAnalysis) UnmarshalJSON(data []byte) error {
	var w columnWire
	if err := json.Unmarshal(data, &w); err != nil {
		return err
	}

	var missing []string
	if w.NullCount == nil {
		missing = append(missing, "null_count")
	}
	if w.NullPercentage == nil {
		missing = append(missing, "null_percentage")
	}
	if w.UniqueCount == nil {
		missing = append(missing, "unique_count")
	}
	if w.UniquePercentage == nil {
		missing = append(missing, "unique_percentage")
	}
	if len(missing) > 0 {
		violations := make([]string, len(missing))
		for i, f := range missing {
			violations[i] = fmt.Sprintf("column %q: %s is required", w.Name, f)
		}
		return &ContractError{Violations: violations}
	}

	*c = ColumnAnalysis{
		Name:             w.Name,
		DType:            w.DType,
		NullCount:        *w.NullCount,
		NullPercentage:   *w.NullPercentage,
		UniqueCount:      *w.UniqueCount,
		UniquePercentage: *w.UniquePercentage,
		Kind:             KindNone,
	}

	switch {
	case w.Min != nil || w.Max != nil || w.Mean != nil || w.Median != nil || w.Std != nil:
		c.Kind = KindNumeric
		c.Numeric = &NumericStats{Min: w.Min, Max: w.Max, Mean: w.Mean, Median: w.Median, Std: w.Std}
	case w.AvgLength != nil || w.MaxLength != nil || w.MinLength != nil || len(w.SampleValues) > 0:
		c.Kind = KindText
		c.Text = &TextStats{AvgLength: w.AvgLength, MaxLength: w.MaxLength, MinLength: w.MinLength, SampleValues: w.SampleValues}
	case w.MinDate != nil || w.MaxDate != nil:
		c.Kind = KindDate
		c.Date = &DateStats{MinDate: w.MinDate, MaxDate: w.MaxDate}
	}
	return nil
}

// MarshalJSON re-emits the flat wire shape
func (c ColumnAnalysis) MarshalJSON() ([]byte, error) {
	w := columnWire{
		Name:             c.Name,
		DType:            c.DType,
		NullCount:        &c.NullCount,
		NullPercentage:   &c.NullPercentage,
		UniqueCount:      &c.UniqueCount,
		UniquePercentage: &c.UniquePercentage,
	}
	switch c.Kind {
	case KindNumeric:
		if n := c.Numeric; n != nil {
			w.Min, w.Max, w.Mean, w.Median, w.Std = n.Min, n.Max, n.Mean, n.Median, n.Std
		}
	case KindText:
		if t := c.Text; t != nil {
			w.AvgLength, w.MaxLength, w.MinLength, w.SampleValues = t.AvgLength, t.MaxLength, t.MinLength, t.SampleValues
		}
	case KindDate:
		if d := c.Date; d != nil {
			w.MinDate, w.MaxDate = d.MinDate, d.MaxDate
		}
	}
	return json.Marshal(w)
}

// checkKind verifies the tag agrees with the populated group
func (c *ColumnAnalysis) checkKind() error {
	groups := 0
	if c.Numeric != nil {
		groups++
	}
	if c.Text != nil {
		groups++
	}
	if c.Date != nil {
		groups++
	}

	ok := false
	switch c.Kind {
	case KindNumeric:
		ok = groups == 1 && c.Numeric != nil
	case KindText:
		ok = groups == 1 && c.Text != nil
	case KindDate:
		ok = groups == 1 && c.Date != nil
	case KindNone, "":
		ok = groups == 0
	}
	if !ok {
		return fmt.Errorf("column %q: kind %q does not match its statistics", c.Name, c.Kind)
	}
	return nil
}
