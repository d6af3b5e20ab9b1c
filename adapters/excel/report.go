package excel

import (
	"fmt"
	"io"
	"strings"

	"dataops/models"

	"github.com/xuri/excelize/v2"
)

// ContentType is the MIME type of the workbook WriteReport produces
const ContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

// Sheet names in the exported workbook
const (
	SheetSummary  = "Summary"
	SheetColumns  = "Columns"
	SheetIssues   = "Issues"
	SheetInsights = "Insights"
)

var columnHeaders = []any{
	"Name", "Type", "Kind", "Null Count", "Null %", "Unique Count", "Unique %",
	"Min", "Max", "Mean", "Median", "Std",
	"Avg Length", "Min Length", "Max Length", "Min Date", "Max Date",
}

var issueFills = map[models.Severity]string{
	models.SeverityHigh:   "#FEE2E2",
	models.SeverityMedium: "#FEF9C3",
	models.SeverityLow:    "#DBEAFE",
}

// WriteReport writes the profiling result as an XLSX workbook with Summary,
// Columns and Issues sheets, plus Insights when the result carries them
func WriteReport(w io.Writer, result *models.ProfilingResult) error {
	f := excelize.NewFile()
	defer f.Close()

	bold, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return fmt.Errorf("failed to create header style: %w", err)
	}

	if err := f.SetSheetName("Sheet1", SheetSummary); err != nil {
		return fmt.Errorf("failed to rename sheet: %w", err)
	}
	if err := writeSummary(f, result, bold); err != nil {
		return err
	}
	if err := writeColumns(f, result, bold); err != nil {
		return err
	}
	if err := writeIssues(f, result, bold); err != nil {
		return err
	}
	if result.LLMInsights != nil {
		if err := writeInsights(f, result.LLMInsights, bold); err != nil {
			return err
		}
	}

	f.SetActiveSheet(0)
	if err := f.Write(w); err != nil {
		return fmt.Errorf("failed to write workbook: %w", err)
	}
	return nil
}

func writeSummary(f *excelize.File, result *models.ProfilingResult, bold int) error {
	stats := result.BasicStats
	agg := result.Aggregates()

	rows := [][]any{
		{"Metric", "Value"},
		{"File", result.FileName},
		{"Profiled At", result.Timestamp},
		{"Upload ID", result.UploadID},
		{"Description", result.Description},
		{"Rows", stats.RowCount},
		{"Columns", stats.ColumnCount},
		{"Memory (MB)", stats.MemoryUsageMB},
		{"Duplicate Rows", stats.DuplicateRows},
		{"Total Nulls", stats.TotalNulls},
		{"Null %", stats.NullPercentage},
		{"Quality Issues", len(result.QualityIssues)},
		{"Median Column Null %", agg.MedianNullPct},
		{"Max Column Null %", agg.MaxNullPct},
		{"Mean Column Unique %", agg.MeanUniquePct},
		{"Complete Columns", agg.CompleteColumns},
		{"Constant Columns", agg.ConstantColumns},
		{"Identifier-like Columns", agg.IdentifierLike},
	}
	if result.FileSizeMB != nil {
		rows = append(rows, []any{"File Size (MB)", *result.FileSizeMB})
	}

	if err := setRows(f, SheetSummary, rows); err != nil {
		return err
	}
	if err := f.SetCellStyle(SheetSummary, "A1", "B1", bold); err != nil {
		return fmt.Errorf("failed to style summary header: %w", err)
	}
	return f.SetColWidth(SheetSummary, "A", "B", 28)
}

func writeColumns(f *excelize.File, result *models.ProfilingResult, bold int) error {
	if _, err := f.NewSheet(SheetColumns); err != nil {
		return fmt.Errorf("failed to create %s sheet: %w", SheetColumns, err)
	}

	rows := make([][]any, 0, len(result.Columns)+1)
	rows = append(rows, columnHeaders)
	for _, col := range result.Columns {
		rows = append(rows, columnRow(col))
	}
	if err := setRows(f, SheetColumns, rows); err != nil {
		return err
	}

	last, err := excelize.CoordinatesToCellName(len(columnHeaders), 1)
	if err != nil {
		return err
	}
	if err := f.SetCellStyle(SheetColumns, "A1", last, bold); err != nil {
		return fmt.Errorf("failed to style column header: %w", err)
	}
	return f.SetPanes(SheetColumns, &excelize.Panes{Freeze: true, YSplit: 1, TopLeftCell: "A2", ActivePane: "bottomLeft"})
}

// columnRow flattens a column; cells for groups the column lacks stay empty
func columnRow(col models.ColumnAnalysis) []any {
	row := make([]any, len(columnHeaders))
	row[0], row[1], row[2] = col.Name, col.DType, string(col.Kind)
	row[3], row[4] = col.NullCount, col.NullPercentage
	row[5], row[6] = col.UniqueCount, col.UniquePercentage

	switch col.Kind {
	case models.KindNumeric:
		if n := col.Numeric; n != nil {
			row[7], row[8], row[9], row[10], row[11] = floatCell(n.Min), floatCell(n.Max), floatCell(n.Mean), floatCell(n.Median), floatCell(n.Std)
		}
	case models.KindText:
		if t := col.Text; t != nil {
			row[12], row[13], row[14] = floatCell(t.AvgLength), intCell(t.MinLength), intCell(t.MaxLength)
		}
	case models.KindDate:
		if d := col.Date; d != nil {
			row[15], row[16] = stringCell(d.MinDate), stringCell(d.MaxDate)
		}
	}
	return row
}

func writeIssues(f *excelize.File, result *models.ProfilingResult, bold int) error {
	if _, err := f.NewSheet(SheetIssues); err != nil {
		return fmt.Errorf("failed to create %s sheet: %w", SheetIssues, err)
	}

	rows := [][]any{{"Severity", "Type", "Column", "Description", "Recommendation"}}
	for _, issue := range result.QualityIssues {
		rows = append(rows, []any{string(issue.Severity), issue.Type, issue.Column, issue.Description, issue.Recommendation})
	}
	if err := setRows(f, SheetIssues, rows); err != nil {
		return err
	}
	if err := f.SetCellStyle(SheetIssues, "A1", "E1", bold); err != nil {
		return fmt.Errorf("failed to style issues header: %w", err)
	}

	fills := map[models.Severity]int{}
	for i, issue := range result.QualityIssues {
		color, ok := issueFills[issue.Severity]
		if !ok {
			continue
		}
		style, seen := fills[issue.Severity]
		if !seen {
			var err error
			style, err = f.NewStyle(&excelize.Style{Fill: excelize.Fill{Type: "pattern", Color: []string{color}, Pattern: 1}})
			if err != nil {
				return fmt.Errorf("failed to create severity style: %w", err)
			}
			fills[issue.Severity] = style
		}
		cell := fmt.Sprintf("A%d", i+2)
		if err := f.SetCellStyle(SheetIssues, cell, cell, style); err != nil {
			return fmt.Errorf("failed to style issue row: %w", err)
		}
	}
	return f.SetColWidth(SheetIssues, "D", "E", 60)
}

func writeInsights(f *excelize.File, insights *models.LLMInsights, bold int) error {
	if _, err := f.NewSheet(SheetInsights); err != nil {
		return fmt.Errorf("failed to create %s sheet: %w", SheetInsights, err)
	}

	rows := [][]any{{"Model", insights.ModelUsed}}
	if insights.TokensUsed != nil {
		rows = append(rows, []any{"Tokens", *insights.TokensUsed})
	}
	if insights.Error != "" {
		rows = append(rows, []any{"Error", insights.Error})
	}
	rows = append(rows, []any{})
	for _, line := range strings.Split(insights.Insights, "\n") {
		rows = append(rows, []any{line})
	}

	if err := setRows(f, SheetInsights, rows); err != nil {
		return err
	}
	if err := f.SetCellStyle(SheetInsights, "A1", "A1", bold); err != nil {
		return fmt.Errorf("failed to style insights header: %w", err)
	}
	return f.SetColWidth(SheetInsights, "A", "A", 100)
}

func setRows(f *excelize.File, sheet string, rows [][]any) error {
	for i, row := range rows {
		if len(row) == 0 {
			continue
		}
		cell, err := excelize.CoordinatesToCellName(1, i+1)
		if err != nil {
			return err
		}
		if err := f.SetSheetRow(sheet, cell, &row); err != nil {
			return fmt.Errorf("failed to write %s row %d: %w", sheet, i+1, err)
		}
	}
	return nil
}

func floatCell(v *float64) any {
	if v == nil {
		return nil
	}
	return *v
}

func intCell(v *int) any {
	if v == nil {
		return nil
	}
	return *v
}

func stringCell(v *string) any {
	if v == nil {
		return nil
	}
	return *v
}
