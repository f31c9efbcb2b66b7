// Package store persists result bundles as JSON files in a directory.
// It is the trivial record store behind the pipeline: save, list
// most-recent-first, load by identifier.
package store

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/santhosh-tekuri/jsonschema/v6"
	"github.com/segmentio/encoding/json"

	"github.com/redpen-ai/redpen/internal/pipeline"
)

// ErrNotFound is returned by Load for an unknown identifier.
var ErrNotFound = errors.New("store: result not found")

// recordSchema guards Load against corrupt or foreign files in the
// results directory. It checks shape, not content.
const recordSchema = `{
	"type": "object",
	"required": ["original_text", "section_type", "model_outputs", "processing_times", "final_output"],
	"properties": {
		"original_text":    {"type": "string"},
		"section_type":     {"type": "string"},
		"final_output":     {"type": "string"},
		"model_outputs":    {"type": "object", "additionalProperties": {"type": "string"}},
		"processing_times": {"type": "object", "additionalProperties": {"type": "number"}}
	}
}`

// Store is a JSON-file result store rooted at one directory.
type Store struct {
	dir    string
	schema *jsonschema.Schema
}

// New creates the results directory if needed and compiles the record
// schema once for the store's lifetime.
func New(dir string) (*Store, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("store: create dir %s: %w", dir, err)
	}

	var doc any
	if err := json.Unmarshal([]byte(recordSchema), &doc); err != nil {
		return nil, fmt.Errorf("store: parse record schema: %w", err)
	}
	compiler := jsonschema.NewCompiler()
	if err := compiler.AddResource("record.json", doc); err != nil {
		return nil, fmt.Errorf("store: add record schema: %w", err)
	}
	schema, err := compiler.Compile("record.json")
	if err != nil {
		return nil, fmt.Errorf("store: compile record schema: %w", err)
	}

	return &Store{dir: dir, schema: schema}, nil
}

// Save writes a bundle and returns its identifier. Identifiers embed a
// UTC timestamp so lexical order is chronological, plus a short random
// suffix against same-second collisions.
func (s *Store) Save(b *pipeline.ResultBundle) (string, error) {
	ts := b.Timestamp
	if ts.IsZero() {
		ts = time.Now().UTC()
	}
	id := fmt.Sprintf("memo_%s_%s", ts.UTC().Format("20060102_150405"), uuid.NewString()[:8])

	rec := *b
	rec.ID = id

	raw, err := json.MarshalIndent(&rec, "", "  ")
	if err != nil {
		return "", fmt.Errorf("store: marshal %s: %w", id, err)
	}
	if err := os.WriteFile(s.path(id), raw, 0o644); err != nil {
		return "", fmt.Errorf("store: write %s: %w", id, err)
	}
	return id, nil
}

// List returns all result identifiers, most recent first.
func (s *Store) List() ([]string, error) {
	entries, err := os.ReadDir(s.dir)
	if err != nil {
		return nil, fmt.Errorf("store: read dir %s: %w", s.dir, err)
	}

	var ids []string
	for _, e := range entries {
		name := e.Name()
		if e.IsDir() || !strings.HasSuffix(name, ".json") {
			continue
		}
		ids = append(ids, strings.TrimSuffix(name, ".json"))
	}
	sort.Sort(sort.Reverse(sort.StringSlice(ids)))
	return ids, nil
}

// Load reads and validates a stored bundle. Unknown identifiers return
// ErrNotFound; files that fail schema validation are reported as corrupt
// rather than half-decoded.
func (s *Store) Load(id string) (*pipeline.ResultBundle, error) {
	if id == "" || id != filepath.Base(id) || strings.Contains(id, "..") {
		return nil, fmt.Errorf("store: invalid identifier %q", id)
	}

	raw, err := os.ReadFile(s.path(id))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("store: read %s: %w", id, err)
	}

	var doc any
	if err := json.Unmarshal(raw, &doc); err != nil {
		return nil, fmt.Errorf("store: corrupt record %s: %w", id, err)
	}
	if err := s.schema.Validate(doc); err != nil {
		return nil, fmt.Errorf("store: record %s failed validation: %w", id, err)
	}

	var bundle pipeline.ResultBundle
	if err := json.Unmarshal(raw, &bundle); err != nil {
		return nil, fmt.Errorf("store: decode record %s: %w", id, err)
	}
	if bundle.ID == "" {
		bundle.ID = id
	}
	return &bundle, nil
}

func (s *Store) path(id string) string {
	return filepath.Join(s.dir, id+".json")
}
