// Package filter resolves the predicate filter once at the CLI boundary so the
// engine only ever sees a final label or none.
package filter

import (
	"errors"
	"fmt"
	"strings"

	"github.com/user/sdsec/pkg/engine"
)

var ErrConflictingFilters = errors.New("conflicting predicate filters")

// Filter is a resolved predicate filter. The zero value matches every unit.
type Filter struct {
	label string
}

// None matches every unit.
var None = Filter{}

// Flags mirrors the CLI switches that can request a predicate.
type Flags struct {
	OK        bool
	Medium    bool
	Exposed   bool
	Unsafe    bool
	Predicate string
}

// New builds a filter for an explicit label. Labels outside the conventional
// set are accepted verbatim since the analyzer may emit new ones.
func New(label string) (Filter, error) {
	if strings.TrimSpace(label) == "" {
		return None, fmt.Errorf("predicate must not be empty")
	}
	return Filter{label: label}, nil
}

// FromFlags collapses the shortcut switches and --predicate into one filter.
// At most one of them may be set.
func FromFlags(f Flags) (Filter, error) {
	var requested []string
	if f.OK {
		requested = append(requested, engine.PredicateOK)
	}
	if f.Medium {
		requested = append(requested, engine.PredicateMedium)
	}
	if f.Exposed {
		requested = append(requested, engine.PredicateExposed)
	}
	if f.Unsafe {
		requested = append(requested, engine.PredicateUnsafe)
	}
	if f.Predicate != "" {
		requested = append(requested, f.Predicate)
	}

	switch len(requested) {
	case 0:
		return None, nil
	case 1:
		return New(requested[0])
	default:
		return None, fmt.Errorf("%w: %s", ErrConflictingFilters, strings.Join(requested, ", "))
	}
}

// IsSet reports whether the filter restricts the selection.
func (f Filter) IsSet() bool {
	return f.label != ""
}

// Label returns the predicate label, empty when unset.
func (f Filter) Label() string {
	return f.label
}

// Conventional reports whether the label is one of OK, MEDIUM, EXPOSED, UNSAFE.
func (f Filter) Conventional() bool {
	switch f.label {
	case engine.PredicateOK, engine.PredicateMedium, engine.PredicateExposed, engine.PredicateUnsafe:
		return true
	}
	return false
}

func (f Filter) String() string {
	if !f.IsSet() {
		return "N/A"
	}
	return f.label
}

// Selection turns the filter and a limit into the engine request.
func (f Filter) Selection(topN int) engine.Selection {
	return engine.Selection{Predicate: f.label, TopN: topN}
}
