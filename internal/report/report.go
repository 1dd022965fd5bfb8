// Package report renders analysis reports for the terminal and the dashboard.
package report

import (
	"fmt"
	"io"
	"math"
	"sort"
	"strings"
	"text/tabwriter"

	"pairstat/app"
	"pairstat/internal/analysis"

	"github.com/gomarkdown/markdown"
	"github.com/gomarkdown/markdown/html"
	"github.com/gomarkdown/markdown/parser"
)

// BarWidth is the widest histogram bar in characters
const BarWidth = 40

var stepTitles = map[string]string{
	app.StepCorrelation:      "Correlation",
	app.StepRatio:            "Ratio statistics",
	app.StepHistogram:        "Ratio histogram",
	app.StepLinear:           "Linear regression",
	app.StepLogLog:           "Log-log regression",
	app.StepLinearPrediction: "Linear predictions",
	app.StepLogLogPrediction: "Log-log predictions",
}

// Text renders r for a terminal: aligned tables and an ASCII histogram.
func Text(r *app.Report) string {
	var b strings.Builder
	sel := r.Selection

	fmt.Fprintf(&b, "=== Analysis %s ===\n", r.ID.Short())
	tw := tabwriter.NewWriter(&b, 0, 0, 2, ' ', 0)
	if r.Source != "" {
		fmt.Fprintf(tw, "Source:\t%s\n", r.Source)
	}
	fmt.Fprintf(tw, "Columns:\tX = %s, Y = %s\n", sel.X, sel.Y)
	if r.Category != nil {
		fmt.Fprintf(tw, "Filter:\t%s = %s\n", r.Category.Column, r.Category.Value)
	}
	fmt.Fprintf(tw, "Valid rows:\t%d of %d (%d missing, %d with x = 0)\n",
		r.Cleaning.RowsOut, r.Cleaning.RowsIn, r.Cleaning.DroppedMissing, r.Cleaning.DroppedZeroX)
	tw.Flush()

	b.WriteString("\n=== Statistics ===\n")
	tw = tabwriter.NewWriter(&b, 0, 0, 2, ' ', tabwriter.AlignRight)
	fmt.Fprintln(tw, "\tcount\tmin\tmax\tmean\tmedian\t")
	for _, s := range []struct {
		name string
		st   analysis.SummaryStatistics
	}{{sel.X, r.SummaryX}, {sel.Y, r.SummaryY}} {
		fmt.Fprintf(tw, "%s\t%d\t%.4f\t%.4f\t%.4f\t%.4f\t\n", s.name, s.st.Count, s.st.Min, s.st.Max, s.st.Mean, s.st.Median)
	}
	tw.Flush()

	b.WriteString("\n=== Correlation ===\n")
	if c := r.Correlation; c != nil {
		fmt.Fprintf(&b, "Pearson r = %.4f (n = %d, p = %s)\n", c.R, c.N, formatP(c.PValue))
		fmt.Fprintf(&b, "r = Σ(x-x̄)(y-ȳ) / √(Σ(x-x̄)² · Σ(y-ȳ)²) = %.4e / √(%.4e · %.4e)\n", c.Numerator, c.SumSqX, c.SumSqY)
	} else {
		writeUnavailable(&b, r, app.StepCorrelation)
	}

	fmt.Fprintf(&b, "\n=== Ratio k = %s / %s ===\n", sel.Y, sel.X)
	if k := r.Ratio; k != nil {
		tw = tabwriter.NewWriter(&b, 0, 0, 2, ' ', 0)
		fmt.Fprintf(tw, "count:\t%d\n", k.Count)
		fmt.Fprintf(tw, "min:\t%.4e\n", k.Min)
		fmt.Fprintf(tw, "max:\t%.4e\n", k.Max)
		fmt.Fprintf(tw, "median:\t%.4e\n", k.Median)
		tw.Flush()
		if r.RatioHistogram != nil {
			b.WriteString("\n")
			writeHistogram(&b, *r.RatioHistogram)
		}
	} else {
		writeUnavailable(&b, r, app.StepRatio)
	}

	b.WriteString("\n=== Linear regression ===\n")
	writeModel(&b, r, r.Linear, app.StepLinear, app.StepLinearPrediction)
	b.WriteString("\n=== Log-log regression ===\n")
	writeModel(&b, r, r.LogLog, app.StepLogLog, app.StepLogLogPrediction)

	fmt.Fprintf(&b, "\n=== First %d rows ===\n", len(r.Preview.Rows))
	tw = tabwriter.NewWriter(&b, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, strings.Join(r.Preview.Columns, "\t"))
	for _, row := range r.Preview.Rows {
		fmt.Fprintln(tw, strings.Join(row, "\t"))
	}
	tw.Flush()

	return b.String()
}

func writeModel(w io.Writer, r *app.Report, m *app.ModelReport, step, predictionStep string) {
	if m == nil {
		writeUnavailable(w, r, step)
		return
	}
	fmt.Fprintln(w, m.Equation)
	if m.IsLogLog() {
		fmt.Fprintf(w, "y = %.4f · x^%.4f\n", m.Coefficient, m.Slope)
	}
	fmt.Fprintf(w, "R² = %.4f (n = %d)\n", m.RSquared, m.N)
	if msg, ok := r.Errors[predictionStep]; ok {
		fmt.Fprintf(w, "predictions unavailable: %s\n", msg)
		return
	}
	for _, p := range m.Predictions {
		fmt.Fprintf(w, "ŷ(%g) = %.4f\n", p.X, p.Y)
	}
}

func writeUnavailable(w io.Writer, r *app.Report, step string) {
	fmt.Fprintf(w, "unavailable: %s\n", r.Errors[step])
}

func writeHistogram(w io.Writer, h analysis.Histogram) {
	peak := 0.0
	for _, c := range h.Counts {
		peak = math.Max(peak, c)
	}
	tw := tabwriter.NewWriter(w, 0, 0, 1, ' ', 0)
	for i, c := range h.Counts {
		bar := 0
		if peak > 0 {
			bar = int(math.Round(c / peak * BarWidth))
		}
		if c > 0 && bar == 0 {
			bar = 1
		}
		fmt.Fprintf(tw, "[%.3e,\t%.3e)\t%4.0f\t%s\n", h.Edges[i], h.Edges[i+1], c, strings.Repeat("#", bar))
	}
	tw.Flush()
}

func formatP(p float64) string {
	if p < 1e-4 {
		return fmt.Sprintf("%.2e", p)
	}
	return fmt.Sprintf("%.4f", p)
}

// Markdown renders r as a markdown document.
func Markdown(r *app.Report) string {
	var b strings.Builder
	sel := r.Selection

	fmt.Fprintf(&b, "# Analysis %s\n\n", r.ID.Short())
	if r.Source != "" {
		fmt.Fprintf(&b, "- **Source:** %s\n", mdEscape(r.Source))
	}
	fmt.Fprintf(&b, "- **X:** %s\n- **Y:** %s\n", mdEscape(sel.X), mdEscape(sel.Y))
	if r.Category != nil {
		fmt.Fprintf(&b, "- **Filter:** %s = %s\n", mdEscape(r.Category.Column), mdEscape(r.Category.Value))
	}
	fmt.Fprintf(&b, "- **Valid rows:** %d of %d (%d missing, %d with x = 0)\n\n",
		r.Cleaning.RowsOut, r.Cleaning.RowsIn, r.Cleaning.DroppedMissing, r.Cleaning.DroppedZeroX)

	b.WriteString("## Statistics\n\n")
	b.WriteString("| column | count | min | max | mean | median |\n|---|---:|---:|---:|---:|---:|\n")
	fmt.Fprintf(&b, "| %s | %d | %.4f | %.4f | %.4f | %.4f |\n", mdEscape(sel.X),
		r.SummaryX.Count, r.SummaryX.Min, r.SummaryX.Max, r.SummaryX.Mean, r.SummaryX.Median)
	fmt.Fprintf(&b, "| %s | %d | %.4f | %.4f | %.4f | %.4f |\n\n", mdEscape(sel.Y),
		r.SummaryY.Count, r.SummaryY.Min, r.SummaryY.Max, r.SummaryY.Mean, r.SummaryY.Median)

	b.WriteString("## Correlation\n\n")
	if c := r.Correlation; c != nil {
		fmt.Fprintf(&b, "Pearson **r = %.4f** (n = %d, p = %s)\n\n", c.R, c.N, formatP(c.PValue))
		fmt.Fprintf(&b, "`r = %.4e / sqrt(%.4e * %.4e)`\n\n", c.Numerator, c.SumSqX, c.SumSqY)
	}

	b.WriteString("## Ratio k\n\n")
	if k := r.Ratio; k != nil {
		b.WriteString("| count | min | max | median |\n|---:|---:|---:|---:|\n")
		fmt.Fprintf(&b, "| %d | %.4e | %.4e | %.4e |\n\n", k.Count, k.Min, k.Max, k.Median)
	}

	for _, section := range []struct {
		title string
		model *app.ModelReport
	}{{"Linear regression", r.Linear}, {"Log-log regression", r.LogLog}} {
		fmt.Fprintf(&b, "## %s\n\n", section.title)
		m := section.model
		if m == nil {
			continue
		}
		fmt.Fprintf(&b, "`%s`\n\n", m.Equation)
		fmt.Fprintf(&b, "- **R²:** %.4f\n- **n:** %d\n", m.RSquared, m.N)
		for _, p := range m.Predictions {
			fmt.Fprintf(&b, "- **ŷ(%g):** %.4f\n", p.X, p.Y)
		}
		b.WriteString("\n")
	}

	if len(r.Preview.Columns) > 0 {
		fmt.Fprintf(&b, "## First %d rows\n\n", len(r.Preview.Rows))
		cols := make([]string, len(r.Preview.Columns))
		for i, c := range r.Preview.Columns {
			cols[i] = mdEscape(c)
		}
		fmt.Fprintf(&b, "| %s |\n|%s\n", strings.Join(cols, " | "), strings.Repeat("---|", len(cols)))
		for _, row := range r.Preview.Rows {
			cells := make([]string, len(row))
			for i, c := range row {
				cells[i] = mdEscape(c)
			}
			fmt.Fprintf(&b, "| %s |\n", strings.Join(cells, " | "))
		}
		b.WriteString("\n")
	}

	if len(r.Errors) > 0 {
		b.WriteString("## Unavailable sections\n\n")
		steps := make([]string, 0, len(r.Errors))
		for step := range r.Errors {
			steps = append(steps, step)
		}
		sort.Strings(steps)
		for _, step := range steps {
			title := stepTitles[step]
			if title == "" {
				title = step
			}
			fmt.Fprintf(&b, "- **%s:** %s\n", title, mdEscape(r.Errors[step]))
		}
	}
	return b.String()
}

// HTML renders the markdown report as a standalone HTML page.
func HTML(r *app.Report) []byte {
	p := parser.NewWithExtensions(parser.CommonExtensions | parser.AutoHeadingIDs)
	doc := p.Parse([]byte(Markdown(r)))

	renderer := html.NewRenderer(html.RendererOptions{
		Flags: html.CommonFlags | html.CompletePage,
		Title: "Analysis " + r.ID.Short(),
	})
	return markdown.Render(doc, renderer)
}

var mdReplacer = strings.NewReplacer("|", `\|`, "*", `\*`, "_", `\_`, "`", "\\`", "<", "&lt;", ">", "&gt;")

func mdEscape(s string) string {
	return mdReplacer.Replace(s)
}
