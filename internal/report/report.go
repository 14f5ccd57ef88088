// Package report renders estimation reports as markdown and HTML.
package report

import (
	"fmt"
	"strings"

	"gostatlab/domain/estimation"
	"gostatlab/domain/sampling"

	"github.com/gomarkdown/markdown"
	"github.com/gomarkdown/markdown/html"
	"github.com/gomarkdown/markdown/parser"
)

// Markdown renders r as a markdown document with one table per step.
func Markdown(r *estimation.Report) string {
	var b strings.Builder

	title := r.Label
	if title == "" {
		title = "Estimation report"
	}
	fmt.Fprintf(&b, "# %s\n\n", title)
	if r.ID != "" {
		fmt.Fprintf(&b, "- Report: `%s`\n", r.ID)
	}
	fmt.Fprintf(&b, "- Samples: %d\n", r.SampleCount)
	fmt.Fprintf(&b, "- z: %g\n", r.Z)
	if !r.CreatedAt.IsZero() {
		fmt.Fprintf(&b, "- Created: %s\n", r.CreatedAt.Format("2006-01-02 15:04:05 MST"))
	}
	b.WriteString("\n")

	if len(r.References) > 0 {
		b.WriteString("## Reference proportions\n\n")
		b.WriteString("| Category | Proportion |\n|---|---|\n")
		for _, p := range r.References {
			fmt.Fprintf(&b, "| %s | %g |\n", escape(p.Category), p.Value)
		}
		b.WriteString("\n")
	}

	writeFluctuation(&b, r.Fluctuation)
	writeConfidence(&b, r.Confidence)
	writeBatch(&b, r.Batch)

	return b.String()
}

func writeFluctuation(b *strings.Builder, step estimation.FluctuationStep) {
	if len(step.Checks) == 0 {
		return
	}
	fmt.Fprintf(b, "## Fluctuation intervals (n = %d)\n\n", step.SampleCount)
	b.WriteString("| Category | Mean | Frequency | Interval | Reference | Result |\n|---|---|---|---|---|---|\n")
	for i, c := range step.Checks {
		mean := ""
		if i < len(step.Means) {
			mean = fmt.Sprintf("%g", step.Means[i].Mean)
		}
		fmt.Fprintf(b, "| %s | %s | %g | %s | %s | %s |\n",
			escape(c.Category), mean, c.Frequency, c.Interval, reference(c.Reference), dash(c.Containment))
	}
	b.WriteString("\n")
}

func writeConfidence(b *strings.Builder, step estimation.ConfidenceStep) {
	if len(step.Checks) == 0 {
		return
	}
	fmt.Fprintf(b, "## Confidence intervals (sample %d, n = %d)\n\n", step.SampleIndex, step.SampleSize)
	b.WriteString("| Category | Frequency | Interval | Reference | Confidence | Fluctuation |\n|---|---|---|---|---|---|\n")
	for _, c := range step.Checks {
		fmt.Fprintf(b, "| %s | %g | %s | %s | %s | %s |\n",
			escape(c.Category), c.Frequency, c.Interval, reference(c.Reference),
			dash(c.Containment), dash(c.FluctuationContainment))
	}
	b.WriteString("\n")
}

func writeBatch(b *strings.Builder, batch sampling.BatchResult) {
	if len(batch.Rows) == 0 && len(batch.Failures) == 0 {
		return
	}
	b.WriteString("## Per-sample confidence intervals\n\n")
	b.WriteString("| Sample | n | Category | p | Interval |\n|---|---|---|---|---|\n")
	for _, row := range batch.Rows {
		for _, iv := range row.Intervals {
			fmt.Fprintf(b, "| %d | %d | %s | %g | %s |\n", row.Index, row.SampleSize, escape(iv.Category), iv.Proportion, iv.Interval)
		}
	}
	b.WriteString("\n")
	if len(batch.Failures) > 0 {
		b.WriteString("Skipped samples:\n\n")
		for _, f := range batch.Failures {
			fmt.Fprintf(b, "- sample %d: %s\n", f.Index, f.Cause)
		}
		b.WriteString("\n")
	}
}

// HTML renders r as a standalone HTML page.
func HTML(r *estimation.Report) []byte {
	p := parser.NewWithExtensions(parser.CommonExtensions | parser.AutoHeadingIDs)
	doc := p.Parse([]byte(Markdown(r)))

	renderer := html.NewRenderer(html.RendererOptions{
		Flags: html.CommonFlags | html.CompletePage,
		Title: r.Label,
	})
	return markdown.Render(doc, renderer)
}

func reference(v *float64) string {
	if v == nil {
		return "-"
	}
	return fmt.Sprintf("%g", *v)
}

func dash(c sampling.Containment) string {
	if c == "" {
		return "-"
	}
	return string(c)
}

func escape(s string) string {
	return strings.ReplaceAll(s, "|", `\|`)
}
