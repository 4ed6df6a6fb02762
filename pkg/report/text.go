package report

import (
	"fmt"
	"io"
	"sort"
	"strings"

	"github.com/fatih/color"

	"github.com/user/sdsec/pkg/engine"
	"github.com/user/sdsec/pkg/filter"
)

var (
	heading = color.New(color.Bold, color.FgCyan)
	bullet  = color.New(color.FgGreen)
	arrow   = color.New(color.FgBlue)
	unit    = color.New(color.Bold)
	rawHead = color.New(color.Bold, color.FgYellow)
	rawBody = color.New(color.FgGreen)
)

// ColorizePredicate colours the conventional labels; others print plain.
func ColorizePredicate(predicate string) string {
	switch predicate {
	case engine.PredicateOK:
		return color.GreenString(predicate)
	case engine.PredicateMedium:
		return color.WhiteString(predicate)
	case engine.PredicateExposed:
		return color.YellowString(predicate)
	case engine.PredicateUnsafe:
		return color.RedString(predicate)
	default:
		return predicate
	}
}

// WriteText renders the human readable report.
func WriteText(w io.Writer, s *engine.Summary, f filter.Filter) error {
	var sb strings.Builder

	sb.WriteString(heading.Sprint("# Systemd Security Analysis"))
	sb.WriteString("\n\n")
	sb.WriteString(fmt.Sprintf("Average Exposure: %.2f | Average Happiness: %.2f\n",
		s.Result.AverageExposure.Float64(), s.Result.AverageHappiness.Float64()))

	label := f.String()
	if f.IsSet() {
		label = ColorizePredicate(f.Label())
	}
	sb.WriteString(fmt.Sprintf("\n%s %d %s '%s'\n\n",
		heading.Sprint("## Top"),
		len(s.Result.SelectedRecords),
		heading.Sprint("services for predicate:"),
		label))

	for _, r := range s.Result.SelectedRecords {
		sb.WriteString(fmt.Sprintf("%s %s %s (%s %.2f)\n",
			bullet.Sprint("•"),
			unit.Sprint(r.Unit),
			arrow.Sprint("->"),
			ColorizePredicate(r.Predicate),
			r.Exposure))
	}

	sb.WriteString("\n")
	sb.WriteString(footer(s))
	sb.WriteString("\n")

	_, err := io.WriteString(w, sb.String())
	return err
}

func footer(s *engine.Summary) string {
	labels := make([]string, 0, len(s.ByPredicate))
	for p := range s.ByPredicate {
		labels = append(labels, p)
	}
	sort.Strings(labels)

	parts := make([]string, 0, len(labels))
	for _, p := range labels {
		parts = append(parts, fmt.Sprintf("%s=%d", p, s.ByPredicate[p]))
	}

	out := fmt.Sprintf("%d units analyzed", s.Total)
	if len(parts) > 0 {
		out += " (" + strings.Join(parts, ", ") + ")"
	}
	if s.Skipped > 0 {
		out += fmt.Sprintf(", %d entries skipped", s.Skipped)
	}
	return out
}

// EchoRaw prints the analyzer output verbatim for --debug.
func EchoRaw(w io.Writer, data []byte) error {
	_, err := fmt.Fprintf(w, "%s\n%s\n", rawHead.Sprint("Raw JSON output:"), rawBody.Sprint(string(data)))
	return err
}
