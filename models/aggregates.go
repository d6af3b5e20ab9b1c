package models

import (
	"github.com/montanaflynn/stats"
)

// ColumnAggregates summarizes per-column percentages across a result
type ColumnAggregates struct {
	Columns         int
	MedianNullPct   float64
	MaxNullPct      float64
	MeanUniquePct   float64
	CompleteColumns int // columns with no nulls
	ConstantColumns int // columns with a single distinct value
	IdentifierLike  int // columns whose values are all distinct
}

// Aggregates computes ColumnAggregates. A result with no columns yields the
// zero value.
func (r *ProfilingResult) Aggregates() ColumnAggregates {
	agg := ColumnAggregates{Columns: len(r.Columns)}
	if len(r.Columns) == 0 {
		return agg
	}

	nullPcts := make(stats.Float64Data, 0, len(r.Columns))
	uniquePcts := make(stats.Float64Data, 0, len(r.Columns))
	for _, col := range r.Columns {
		nullPcts = append(nullPcts, col.NullPercentage)
		uniquePcts = append(uniquePcts, col.UniquePercentage)
		if col.NullCount == 0 {
			agg.CompleteColumns++
		}
		if col.UniqueCount == 1 {
			agg.ConstantColumns++
		}
		if col.UniquePercentage >= 100 {
			agg.IdentifierLike++
		}
	}

	// errors only occur on empty input, which is excluded above
	agg.MedianNullPct, _ = stats.Median(nullPcts)
	agg.MaxNullPct, _ = stats.Max(nullPcts)
	agg.MeanUniquePct, _ = stats.Mean(uniquePcts)
	return agg
}
