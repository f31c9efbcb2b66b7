// Package report renders result bundles as Markdown: a performance
// summary of per-model timings and a full view of a stored run.
package report

import (
	"fmt"
	"sort"
	"strings"

	"github.com/redpen-ai/redpen/internal/pipeline"
)

// FormatSeconds renders an elapsed time in seconds with two decimals,
// e.g. "12.34s".
func FormatSeconds(seconds float64) string {
	return fmt.Sprintf("%.2fs", seconds)
}

type timing struct {
	model   string
	seconds float64
}

// Performance returns a Markdown table of per-model timings, fastest
// first, with fastest/slowest callouts and the synthesis time listed
// separately.
func Performance(times map[string]float64) string {
	var rows []timing
	var final float64
	var hasFinal bool
	for model, secs := range times {
		if model == pipeline.FinalTimingKey {
			final = secs
			hasFinal = true
			continue
		}
		rows = append(rows, timing{model: model, seconds: secs})
	}
	sort.Slice(rows, func(i, j int) bool {
		if rows[i].seconds != rows[j].seconds {
			return rows[i].seconds < rows[j].seconds
		}
		return rows[i].model < rows[j].model
	})

	var b strings.Builder
	b.WriteString("## Performance\n\n")

	if len(rows) == 0 {
		b.WriteString("No model timings recorded.\n")
	} else {
		b.WriteString("| Model | Time |\n|---|---|\n")
		for _, r := range rows {
			fmt.Fprintf(&b, "| %s | %s |\n", r.model, FormatSeconds(r.seconds))
		}
		b.WriteString("\n")
		fmt.Fprintf(&b, "Fastest: %s (%s)\n", rows[0].model, FormatSeconds(rows[0].seconds))
		if len(rows) > 1 {
			last := rows[len(rows)-1]
			fmt.Fprintf(&b, "Slowest: %s (%s)\n", last.model, FormatSeconds(last.seconds))
		}
	}

	if hasFinal {
		fmt.Fprintf(&b, "\nSynthesis: %s\n", FormatSeconds(final))
	}
	return b.String()
}

// Render returns the full Markdown view of a stored result: metadata,
// the synthesized section, editor notes, per-model outputs, and the
// performance table.
func Render(bundle *pipeline.ResultBundle) string {
	var b strings.Builder

	fmt.Fprintf(&b, "# %s\n\n", bundle.SectionType)
	if bundle.ID != "" {
		fmt.Fprintf(&b, "Result: %s\n", bundle.ID)
	}
	if !bundle.Timestamp.IsZero() {
		fmt.Fprintf(&b, "Processed: %s\n", bundle.Timestamp.Format("2006-01-02 15:04:05 MST"))
	}
	b.WriteString("\n## Final Section\n\n")
	b.WriteString(strings.TrimSpace(bundle.Artifacts.Section))
	b.WriteString("\n")

	if bundle.Artifacts.Parsed && strings.TrimSpace(bundle.Artifacts.Notes) != "" {
		b.WriteString("\n## Editor Notes\n\n")
		b.WriteString(strings.TrimSpace(bundle.Artifacts.Notes))
		b.WriteString("\n")
	}

	models := make([]string, 0, len(bundle.ModelOutputs))
	for m := range bundle.ModelOutputs {
		models = append(models, m)
	}
	sort.Strings(models)
	if len(models) > 0 {
		b.WriteString("\n## Model Outputs\n")
		for _, m := range models {
			fmt.Fprintf(&b, "\n### %s\n\n%s\n", m, strings.TrimSpace(bundle.ModelOutputs[m]))
		}
	}

	b.WriteString("\n")
	b.WriteString(Performance(bundle.ProcessingTimes))
	return b.String()
}
