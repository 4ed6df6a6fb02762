package report

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/google/uuid"
	"gopkg.in/yaml.v3"

	"github.com/user/sdsec/pkg/engine"
)

// Format selects a renderer
type Format string

const (
	FormatText Format = "text"
	FormatJSON Format = "json"
	FormatYAML Format = "yaml"
)

func ParseFormat(s string) (Format, error) {
	switch f := Format(strings.ToLower(strings.TrimSpace(s))); f {
	case FormatText, FormatJSON, FormatYAML:
		return f, nil
	default:
		return "", fmt.Errorf("unknown output format: %s", s)
	}
}

// Document is the machine readable report. The analysis fields sit at the
// top level next to the run metadata.
type Document struct {
	RunID                 string    `json:"run_id" yaml:"run_id"`
	GeneratedAt           time.Time `json:"generated_at" yaml:"generated_at"`
	Predicate             *string   `json:"predicate" yaml:"predicate"`
	engine.AnalysisResult `yaml:",inline"`
}

// NewDocument stamps a result with a fresh run id.
func NewDocument(result engine.AnalysisResult, predicate string, now time.Time) Document {
	doc := Document{
		RunID:          uuid.New().String(),
		GeneratedAt:    now.UTC(),
		AnalysisResult: result,
	}
	if predicate != "" {
		doc.Predicate = &predicate
	}
	if doc.SelectedRecords == nil {
		doc.SelectedRecords = []engine.ServiceRecord{}
	}
	return doc
}

func WriteJSON(w io.Writer, doc Document) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(doc)
}

func WriteYAML(w io.Writer, doc Document) error {
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(doc); err != nil {
		return err
	}
	return enc.Close()
}
