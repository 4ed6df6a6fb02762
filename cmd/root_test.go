package cmd

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/user/sdsec/pkg/config"
	"github.com/user/sdsec/pkg/engine"
	"github.com/user/sdsec/pkg/filter"
	"github.com/user/sdsec/pkg/report"
	"github.com/user/sdsec/pkg/wrappers"
)

const fleetOutput = `[
	{"unit":"a.service","exposure":0.1,"predicate":"OK","happy":"😀"},
	{"unit":"b.service","exposure":"4.0","predicate":"MEDIUM","happy":"🙂"},
	{"unit":"c.service","exposure":7.2,"predicate":"EXPOSED","happy":"😐"},
	{"unit":"d.service","exposure":9.9,"predicate":"EXPOSED","happy":"🙁"},
	{"unit":"e.service","exposure":9.9,"predicate":"UNSAFE","happy":"😨"},
	{"unit":"broken.service","exposure":1.0}
]`

type fakeAnalyzer struct {
	out []byte
	err error
}

func (f *fakeAnalyzer) Name() string { return "fake-analyze" }

func (f *fakeAnalyzer) Collect(ctx context.Context) ([]byte, error) {
	return f.out, f.err
}

func parseRequest(t *testing.T, c *config.Config, args ...string) (request, error) {
	t.Helper()
	command := &cobra.Command{Use: "test"}
	o := &runOptions{}
	bindRunFlags(command, o)
	if err := command.ParseFlags(args); err != nil {
		t.Fatalf("parse flags: %v", err)
	}
	return resolveRequest(command.Flags(), o, c)
}

func TestResolveRequestDefaults(t *testing.T) {
	req, err := parseRequest(t, config.New())
	if err != nil {
		t.Fatalf("resolveRequest failed: %v", err)
	}
	if req.filter.IsSet() || req.topN != engine.Unlimited || req.format != report.FormatText {
		t.Errorf("Unexpected defaults: %+v", req)
	}
}

func TestResolveRequestFlagsOverrideConfig(t *testing.T) {
	c := config.New()
	n := 3
	c.DefaultTopN = &n
	c.DefaultPredicate = "MEDIUM"
	c.Output = config.OutputYAML

	req, err := parseRequest(t, c)
	if err != nil {
		t.Fatalf("resolveRequest failed: %v", err)
	}
	if req.filter.Label() != "MEDIUM" || req.topN != 3 || req.format != report.FormatYAML {
		t.Errorf("Config defaults not applied: %+v", req)
	}

	req, err = parseRequest(t, c, "--exposed", "-t", "0", "--json")
	if err != nil {
		t.Fatalf("resolveRequest failed: %v", err)
	}
	if req.filter.Label() != "EXPOSED" || req.topN != 0 || req.format != report.FormatJSON {
		t.Errorf("Flags did not win: %+v", req)
	}
}

func TestResolveRequestRejects(t *testing.T) {
	if _, err := parseRequest(t, config.New(), "--top-n", "-1"); err == nil {
		t.Error("Expected negative --top-n to be rejected")
	}
	if _, err := parseRequest(t, config.New(), "--ok", "--unsafe"); !errors.Is(err, filter.ErrConflictingFilters) {
		t.Errorf("Expected conflicting filters, got %v", err)
	}
	if _, err := parseRequest(t, config.New(), "--format", "xml"); err == nil {
		t.Error("Expected unknown format to be rejected")
	}
}

func TestRunAnalysisText(t *testing.T) {
	color.NoColor = true
	f, _ := filter.New("EXPOSED")

	var stdout, stderr bytes.Buffer
	err := runAnalysis(context.Background(), &fakeAnalyzer{out: []byte(fleetOutput)},
		request{filter: f, topN: 1, format: report.FormatText}, &stdout, &stderr)
	if err != nil {
		t.Fatalf("runAnalysis failed: %v", err)
	}

	out := stdout.String()
	if !strings.Contains(out, "## Top 1 services for predicate: 'EXPOSED'") {
		t.Errorf("Unexpected heading:\n%s", out)
	}
	if !strings.Contains(out, "• d.service -> (EXPOSED 9.90)") || strings.Contains(out, "c.service") {
		t.Errorf("Expected only d.service:\n%s", out)
	}
	if !strings.Contains(out, "1 entries skipped") {
		t.Errorf("Expected skipped entry in footer:\n%s", out)
	}
	if stderr.Len() != 0 {
		t.Errorf("Expected no raw echo without debug, got %q", stderr.String())
	}
}

func TestRunAnalysisJSONAndMetrics(t *testing.T) {
	metricsPath := filepath.Join(t.TempDir(), "sdsec.prom")

	var stdout, stderr bytes.Buffer
	err := runAnalysis(context.Background(), &fakeAnalyzer{out: []byte(fleetOutput)},
		request{filter: filter.None, topN: 2, format: report.FormatJSON, metricsFile: metricsPath, debug: true},
		&stdout, &stderr)
	if err != nil {
		t.Fatalf("runAnalysis failed: %v", err)
	}

	var doc struct {
		AverageExposure float64                `json:"average_exposure"`
		TopServices     []engine.ServiceRecord `json:"top_services"`
	}
	if err := json.Unmarshal(stdout.Bytes(), &doc); err != nil {
		t.Fatalf("stdout is not JSON: %v\n%s", err, stdout.String())
	}
	if len(doc.TopServices) != 2 || doc.TopServices[0].Unit != "d.service" || doc.TopServices[1].Unit != "e.service" {
		t.Errorf("Unexpected selection: %+v", doc.TopServices)
	}
	if doc.AverageExposure < 6.21 || doc.AverageExposure > 6.23 {
		t.Errorf("Unexpected average exposure: %v", doc.AverageExposure)
	}

	if !strings.Contains(stderr.String(), "Raw JSON output:") {
		t.Errorf("Expected raw echo on stderr in debug mode")
	}

	data, err := os.ReadFile(metricsPath)
	if err != nil {
		t.Fatalf("metrics file not written: %v", err)
	}
	if !strings.Contains(string(data), "sdsec_units_total 5") || !strings.Contains(string(data), "sdsec_units_skipped_total 1") {
		t.Errorf("Unexpected metrics:\n%s", data)
	}
}

func TestRunAnalysisFatalErrors(t *testing.T) {
	var stdout, stderr bytes.Buffer
	req := request{filter: filter.None, topN: engine.Unlimited, format: report.FormatText}

	err := runAnalysis(context.Background(), &fakeAnalyzer{err: wrappers.ErrAnalyzerFailed}, req, &stdout, &stderr)
	if !errors.Is(err, wrappers.ErrAnalyzerFailed) {
		t.Errorf("Expected analyzer failure to propagate, got %v", err)
	}

	err = runAnalysis(context.Background(), &fakeAnalyzer{out: []byte("Failed to open bus")}, req, &stdout, &stderr)
	if !errors.Is(err, engine.ErrMalformedInput) {
		t.Errorf("Expected malformed input error, got %v", err)
	}
	if stdout.Len() != 0 {
		t.Errorf("Nothing should be rendered on fatal errors, got %q", stdout.String())
	}
}

func TestRunAnalysisNonArrayIsEmptyReport(t *testing.T) {
	color.NoColor = true
	var stdout, stderr bytes.Buffer
	err := runAnalysis(context.Background(), &fakeAnalyzer{out: []byte(`{"units":[]}`)},
		request{filter: filter.None, topN: engine.Unlimited, format: report.FormatText}, &stdout, &stderr)
	if err != nil {
		t.Fatalf("Expected non-array output to be a valid empty run, got %v", err)
	}
	if !strings.Contains(stdout.String(), "Average Exposure: NaN | Average Happiness: NaN") {
		t.Errorf("Expected sentinel averages:\n%s", stdout.String())
	}
}

func TestRunAnalysisInvalidUTF8WithMetrics(t *testing.T) {
	metricsPath := filepath.Join(t.TempDir(), "sdsec.prom")
	out := []byte("[{\"unit\":\"bad\xff.service\",\"exposure\":1.0,\"predicate\":\"OK\",\"happy\":\"😀\"}]")

	var stdout, stderr bytes.Buffer
	err := runAnalysis(context.Background(), &fakeAnalyzer{out: out},
		request{filter: filter.None, topN: engine.Unlimited, format: report.FormatText, metricsFile: metricsPath},
		&stdout, &stderr)
	if !errors.Is(err, engine.ErrMalformedInput) {
		t.Fatalf("Expected malformed input error, got %v", err)
	}
	if _, statErr := os.Stat(metricsPath); !os.IsNotExist(statErr) {
		t.Errorf("Metrics file must not be written on a fatal error, stat: %v", statErr)
	}
}
