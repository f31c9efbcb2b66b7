package report

import (
	"strings"
	"testing"
	"time"

	"github.com/redpen-ai/redpen/internal/pipeline"
)

func TestFormatSeconds(t *testing.T) {
	cases := map[float64]string{
		0:      "0.00s",
		1.5:    "1.50s",
		12.345: "12.35s",
	}
	for in, want := range cases {
		if got := FormatSeconds(in); got != want {
			t.Errorf("FormatSeconds(%v) = %q, want %q", in, got, want)
		}
	}
}

func TestPerformance_SortedWithCallouts(t *testing.T) {
	out := Performance(map[string]float64{
		"slow/model":            9.1,
		"fast/model":            1.2,
		"mid/model":             4.0,
		pipeline.FinalTimingKey: 3.3,
	})

	fast := strings.Index(out, "fast/model")
	mid := strings.Index(out, "mid/model")
	slow := strings.Index(out, "slow/model")
	if fast == -1 || mid == -1 || slow == -1 || !(fast < mid && mid < slow) {
		t.Errorf("rows not sorted fastest first:\n%s", out)
	}
	if !strings.Contains(out, "Fastest: fast/model (1.20s)") {
		t.Errorf("missing fastest callout:\n%s", out)
	}
	if !strings.Contains(out, "Slowest: slow/model (9.10s)") {
		t.Errorf("missing slowest callout:\n%s", out)
	}
	if !strings.Contains(out, "Synthesis: 3.30s") {
		t.Errorf("missing synthesis line:\n%s", out)
	}
	if strings.Contains(out, "| final |") {
		t.Errorf("reserved timing key must not appear as a model row:\n%s", out)
	}
}

func TestPerformance_Empty(t *testing.T) {
	out := Performance(nil)
	if !strings.Contains(out, "No model timings recorded.") {
		t.Errorf("unexpected output for empty timings:\n%s", out)
	}
}

func TestRender_FullBundle(t *testing.T) {
	bundle := &pipeline.ResultBundle{
		ID:           "memo_20260827_150000_abcd1234",
		Timestamp:    time.Date(2026, 8, 27, 15, 0, 0, 0, time.UTC),
		OriginalText: "Draft.",
		SectionType:  "Revenue Model",
		ModelOutputs: map[string]string{
			"b/model": "Second edit",
			"a/model": "First edit",
		},
		ProcessingTimes: map[string]float64{
			"a/model": 1.0, "b/model": 2.0, pipeline.FinalTimingKey: 3.0,
		},
		FinalOutput: "raw synthesis",
		Artifacts: pipeline.Artifacts{
			Section: "Polished section.",
			Notes:   "Tightened the claims.",
			Parsed:  true,
		},
	}

	out := Render(bundle)
	for _, want := range []string{
		"# Revenue Model",
		"Result: memo_20260827_150000_abcd1234",
		"## Final Section",
		"Polished section.",
		"## Editor Notes",
		"Tightened the claims.",
		"## Model Outputs",
		"### a/model",
		"### b/model",
		"## Performance",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("missing %q in render:\n%s", want, out)
		}
	}
	// Model sections come in sorted order.
	if strings.Index(out, "### a/model") > strings.Index(out, "### b/model") {
		t.Error("model outputs not sorted")
	}
}

func TestRender_UnparsedArtifactsSkipNotes(t *testing.T) {
	bundle := &pipeline.ResultBundle{
		SectionType: "Team",
		Artifacts: pipeline.Artifacts{
			Section: "whole output",
			Notes:   "whole output",
			Parsed:  false,
		},
	}
	out := Render(bundle)
	if strings.Contains(out, "## Editor Notes") {
		t.Errorf("unparsed artifacts should not render a notes section:\n%s", out)
	}
	if !strings.Contains(out, "whole output") {
		t.Errorf("section text missing:\n%s", out)
	}
}
