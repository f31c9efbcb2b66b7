package store

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/redpen-ai/redpen/internal/pipeline"
)

func sampleBundle(ts time.Time) *pipeline.ResultBundle {
	return &pipeline.ResultBundle{
		Timestamp:    ts,
		OriginalText: "Draft paragraph.",
		SectionType:  "Revenue Model",
		ModelOutputs: map[string]string{
			"A": "Edited A",
			"B": "Error: connection refused",
		},
		ProcessingTimes: map[string]float64{
			"A": 1.0, "B": 0.2, pipeline.FinalTimingKey: 3.4,
		},
		FinalOutput: "Final version",
		Artifacts:   pipeline.Artifacts{Section: "Final version", Notes: "Final version"},
	}
}

func TestStore_SaveLoadRoundTrip(t *testing.T) {
	s, err := New(t.TempDir())
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	in := sampleBundle(time.Date(2026, 8, 27, 15, 0, 0, 0, time.UTC))
	id, err := s.Save(in)
	if err != nil {
		t.Fatalf("Save: %v", err)
	}
	if id == "" {
		t.Fatal("empty identifier")
	}

	out, err := s.Load(id)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if out.ID != id {
		t.Errorf("ID = %q, want %q", out.ID, id)
	}
	if out.OriginalText != in.OriginalText || out.FinalOutput != in.FinalOutput {
		t.Errorf("round trip mismatch: %+v", out)
	}
	if out.ModelOutputs["B"] != "Error: connection refused" {
		t.Errorf(`ModelOutputs["B"] = %q`, out.ModelOutputs["B"])
	}
	if out.ProcessingTimes[pipeline.FinalTimingKey] != 3.4 {
		t.Errorf("final time = %f", out.ProcessingTimes[pipeline.FinalTimingKey])
	}
}

func TestStore_ListMostRecentFirst(t *testing.T) {
	s, err := New(t.TempDir())
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	base := time.Date(2026, 8, 27, 10, 0, 0, 0, time.UTC)
	var saved []string
	for i := 0; i < 3; i++ {
		id, err := s.Save(sampleBundle(base.Add(time.Duration(i) * time.Minute)))
		if err != nil {
			t.Fatalf("Save: %v", err)
		}
		saved = append(saved, id)
	}

	ids, err := s.List()
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(ids) != 3 {
		t.Fatalf("len(List()) = %d, want 3", len(ids))
	}
	// Most recent first: the last save carries the latest timestamp.
	if ids[0] != saved[2] || ids[2] != saved[0] {
		t.Errorf("order = %v, saved = %v", ids, saved)
	}
}

func TestStore_LoadNotFound(t *testing.T) {
	s, err := New(t.TempDir())
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if _, err := s.Load("memo_20990101_000000_deadbeef"); !errors.Is(err, ErrNotFound) {
		t.Errorf("err = %v, want ErrNotFound", err)
	}
}

func TestStore_LoadRejectsTraversal(t *testing.T) {
	s, err := New(t.TempDir())
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	for _, id := range []string{"../etc/passwd", "a/b", ""} {
		if _, err := s.Load(id); err == nil {
			t.Errorf("Load(%q) should fail", id)
		}
	}
}

func TestStore_LoadRejectsCorruptRecord(t *testing.T) {
	dir := t.TempDir()
	s, err := New(dir)
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	// Valid JSON, wrong shape: model_outputs holds a number.
	bad := `{"original_text":"x","section_type":"s","model_outputs":{"a":5},"processing_times":{},"final_output":"f"}`
	if err := os.WriteFile(filepath.Join(dir, "bad.json"), []byte(bad), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := s.Load("bad"); err == nil {
		t.Error("schema-invalid record must not load")
	}

	// Not JSON at all.
	if err := os.WriteFile(filepath.Join(dir, "garbage.json"), []byte("not json"), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := s.Load("garbage"); err == nil {
		t.Error("non-JSON record must not load")
	}
}
