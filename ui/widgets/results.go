package widgets

import (
	"fmt"
	"html/template"

	"dataops/models"

	"github.com/gomarkdown/markdown"
	mdhtml "github.com/gomarkdown/markdown/html"
	"github.com/gomarkdown/markdown/parser"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

// Tone is the badge color family for a quality issue
type Tone string

const (
	ToneRed    Tone = "red"
	ToneYellow Tone = "yellow"
	ToneBlue   Tone = "blue"
	ToneGray   Tone = "gray"
)

// SeverityTone maps a severity to its badge color. Unrecognised values are
// neutral, never an error.
func SeverityTone(s models.Severity) Tone {
	switch s {
	case models.SeverityHigh:
		return ToneRed
	case models.SeverityMedium:
		return ToneYellow
	case models.SeverityLow:
		return ToneBlue
	default:
		return ToneGray
	}
}

// Options tweak how results are presented
type Options struct {
	MarkdownInsights bool
}

// ResultsView is the complete, ordered set of sections for one result
type ResultsView struct {
	Header   HeaderView
	Cards    []StatCard
	Issues   *IssuesPanel
	Columns  []ColumnRow
	Insights *InsightsPanel
	Footer   FooterView
}

type HeaderView struct {
	Title      string
	FileName   string
	UploadID   string
	ResetLabel string
}

// StatCard is one of the three summary cards
type StatCard struct {
	Label string
	Value string
}

type IssuesPanel struct {
	Title  string
	Issues []IssueCard
}

type IssueCard struct {
	Severity       string
	Tone           Tone
	Column         string
	Description    string
	Recommendation string
}

// ColumnRow is one row of the column-analysis table
type ColumnRow struct {
	Name   string
	DType  string
	Unique string
	Nulls  string
	Stats  string
}

// InsightsPanel holds the AI narrative. HTML is set only when markdown
// rendering is enabled; otherwise Text is shown with line breaks kept.
type InsightsPanel struct {
	Title   string
	Text    string
	HTML    template.HTML
	Credit  string
	Warning string
}

type FooterView struct {
	Message string
}

var printer = message.NewPrinter(language.English)

// groupThousands renders an integer with comma separators
func groupThousands(n int) string {
	return printer.Sprintf("%d", n)
}

func percent(p float64) string {
	return fmt.Sprintf("%.1f%%", p)
}

// BuildResults turns a profiling result into its rendered sections. It has
// no side effects and always yields the same view for the same input.
func BuildResults(result *models.ProfilingResult, opts Options) ResultsView {
	view := ResultsView{
		Header: HeaderView{
			Title:      "Analysis Results",
			FileName:   result.FileName,
			UploadID:   result.UploadID,
			ResetLabel: "Upload New File",
		},
		Cards: []StatCard{
			{Label: "Total Rows", Value: groupThousands(result.BasicStats.RowCount)},
			{Label: "Columns", Value: fmt.Sprintf("%d", result.BasicStats.ColumnCount)},
			{Label: "Null Values", Value: percent(result.BasicStats.NullPercentage)},
		},
		Footer: FooterView{Message: "Analysis complete! Your data has been profiled successfully."},
	}

	if len(result.QualityIssues) > 0 {
		panel := &IssuesPanel{
			Title:  fmt.Sprintf("Data Quality Issues (%d)", len(result.QualityIssues)),
			Issues: make([]IssueCard, 0, len(result.QualityIssues)),
		}
		for _, issue := range result.QualityIssues {
			panel.Issues = append(panel.Issues, IssueCard{
				Severity:       string(issue.Severity),
				Tone:           SeverityTone(issue.Severity),
				Column:         issue.Column,
				Description:    issue.Description,
				Recommendation: issue.Recommendation,
			})
		}
		view.Issues = panel
	}

	view.Columns = make([]ColumnRow, 0, len(result.Columns))
	for _, col := range result.Columns {
		view.Columns = append(view.Columns, ColumnRow{
			Name:   col.Name,
			DType:  col.DType,
			Unique: fmt.Sprintf("%s (%s)", groupThousands(col.UniqueCount), percent(col.UniquePercentage)),
			Nulls:  fmt.Sprintf("%s (%s)", groupThousands(col.NullCount), percent(col.NullPercentage)),
			Stats:  statsCell(col),
		})
	}

	if result.LLMInsights != nil {
		view.Insights = buildInsights(result.LLMInsights, opts)
	}
	return view
}

// statsCell shows the mean when present, else the average length
func statsCell(col models.ColumnAnalysis) string {
	switch col.Kind {
	case models.KindNumeric:
		if col.Numeric != nil && col.Numeric.Mean != nil {
			return fmt.Sprintf("Mean: %.2f", *col.Numeric.Mean)
		}
	case models.KindText:
		if col.Text != nil && col.Text.AvgLength != nil {
			return fmt.Sprintf("Avg length: %.0f", *col.Text.AvgLength)
		}
	}
	return ""
}

func buildInsights(in *models.LLMInsights, opts Options) *InsightsPanel {
	panel := &InsightsPanel{
		Title:   "AI-Powered Insights",
		Text:    in.Insights,
		Warning: in.Error,
	}
	if in.ModelUsed != "" {
		panel.Credit = "Generated by " + in.ModelUsed
		if in.TokensUsed != nil {
			panel.Credit += " · " + groupThousands(*in.TokensUsed) + " tokens"
		}
	}
	if opts.MarkdownInsights {
		panel.HTML = renderMarkdown(in.Insights)
	}
	return panel
}

// renderMarkdown converts insight text to HTML. Raw HTML in the source is
// dropped and only http, https, mailto and relative links are kept, so the
// model output cannot inject markup or script URLs.
func renderMarkdown(src string) template.HTML {
	p := parser.NewWithExtensions(parser.CommonExtensions | parser.HardLineBreak)
	renderer := mdhtml.NewRenderer(mdhtml.RendererOptions{
		Flags: mdhtml.CommonFlags | mdhtml.SkipHTML | mdhtml.Safelink | mdhtml.NofollowLinks | mdhtml.NoreferrerLinks,
	})
	return template.HTML(markdown.ToHTML([]byte(src), p, renderer))
}
