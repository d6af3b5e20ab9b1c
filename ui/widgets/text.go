package widgets

import (
	"fmt"
	"strings"
	"text/tabwriter"

	"dataops/models"
)

// RenderText prints the results sections as plain text for terminals
func RenderText(result *models.ProfilingResult) string {
	view := BuildResults(result, Options{})
	var b strings.Builder

	fmt.Fprintf(&b, "%s: %s\n\n", view.Header.Title, view.Header.FileName)
	for _, card := range view.Cards {
		fmt.Fprintf(&b, "  %-12s %s\n", card.Label, card.Value)
	}
	b.WriteString("\n")

	if view.Issues != nil {
		fmt.Fprintf(&b, "%s\n", view.Issues.Title)
		for _, issue := range view.Issues.Issues {
			fmt.Fprintf(&b, "  [%s] %s\n", strings.ToUpper(issue.Severity), issue.Description)
			fmt.Fprintf(&b, "      Recommendation: %s\n", issue.Recommendation)
		}
		b.WriteString("\n")
	}

	b.WriteString("Column Analysis\n")
	tw := tabwriter.NewWriter(&b, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "  COLUMN\tTYPE\tUNIQUE\tNULLS\tSTATS")
	for _, row := range view.Columns {
		fmt.Fprintf(tw, "  %s\t%s\t%s\t%s\t%s\n", row.Name, row.DType, row.Unique, row.Nulls, row.Stats)
	}
	_ = tw.Flush()

	if agg := result.Aggregates(); agg.Columns > 0 {
		fmt.Fprintf(&b, "  median null %s, max null %s, mean unique %s\n",
			percent(agg.MedianNullPct), percent(agg.MaxNullPct), percent(agg.MeanUniquePct))
	}
	b.WriteString("\n")

	if view.Insights != nil {
		fmt.Fprintf(&b, "%s\n", view.Insights.Title)
		if view.Insights.Warning != "" {
			fmt.Fprintf(&b, "  (%s)\n", view.Insights.Warning)
		}
		for _, line := range strings.Split(view.Insights.Text, "\n") {
			fmt.Fprintf(&b, "  %s\n", line)
		}
		if view.Insights.Credit != "" {
			fmt.Fprintf(&b, "  -- %s\n", view.Insights.Credit)
		}
		b.WriteString("\n")
	}

	b.WriteString(view.Footer.Message)
	b.WriteString("\n")
	return b.String()
}
