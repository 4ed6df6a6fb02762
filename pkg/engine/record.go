package engine

import (
	"fmt"
	"math"
	"strconv"

	"github.com/tidwall/gjson"
)

// Wire names used by systemd-analyze security --json=short
const (
	FieldUnit      = "unit"
	FieldExposure  = "exposure"
	FieldPredicate = "predicate"
	FieldHappy     = "happy"
)

// Conventional predicate labels. Any other label is kept verbatim.
const (
	PredicateOK      = "OK"
	PredicateMedium  = "MEDIUM"
	PredicateExposed = "EXPOSED"
	PredicateUnsafe  = "UNSAFE"
)

// ServiceRecord represents one audited systemd unit
type ServiceRecord struct {
	Unit        string  `json:"unit" yaml:"unit"`
	Exposure    float64 `json:"exposure" yaml:"exposure"`
	Predicate   string  `json:"predicate" yaml:"predicate"`
	HappySymbol string  `json:"happy" yaml:"happy"`
}

// Happiness returns the rating behind the record's happy symbol.
func (r ServiceRecord) Happiness() Happiness {
	return ParseHappiness(r.HappySymbol)
}

// Happiness is the satisfaction rating carried by a happy symbol. Recognized
// ratings equal their score on the 1-5 scale.
type Happiness int

const (
	HappinessUnrecognized Happiness = iota
	HappinessTerrified
	HappinessUnhappy
	HappinessNeutral
	HappinessContent
	HappinessDelighted
)

var happinessSymbols = map[string]Happiness{
	"😀": HappinessDelighted,
	"🙂": HappinessContent,
	"😐": HappinessNeutral,
	"🙁": HappinessUnhappy,
	"😨": HappinessTerrified,
}

// ParseHappiness maps a symbol to its rating, or HappinessUnrecognized.
func ParseHappiness(symbol string) Happiness {
	if h, ok := happinessSymbols[symbol]; ok {
		return h
	}
	return HappinessUnrecognized
}

// Score returns the 1-5 score and false for an unrecognized rating.
func (h Happiness) Score() (float64, bool) {
	if h < HappinessTerrified || h > HappinessDelighted {
		return 0, false
	}
	return float64(h), true
}

func (h Happiness) String() string {
	switch h {
	case HappinessDelighted:
		return "delighted"
	case HappinessContent:
		return "content"
	case HappinessNeutral:
		return "neutral"
	case HappinessUnhappy:
		return "unhappy"
	case HappinessTerrified:
		return "terrified"
	default:
		return "unrecognized"
	}
}

// DecodeDiagnostic reports one skipped entry. Raw holds the entry exactly as
// the analyzer emitted it.
type DecodeDiagnostic struct {
	Raw    string
	Reason string
}

func (d DecodeDiagnostic) Error() string {
	return fmt.Sprintf("could not parse entry (%s): %s", d.Reason, d.Raw)
}

// Decode turns one raw entry into a ServiceRecord. Decoding is all or
// nothing: any missing or mistyped field yields a diagnostic instead.
func Decode(entry gjson.Result) (ServiceRecord, *DecodeDiagnostic) {
	reject := func(reason string) (ServiceRecord, *DecodeDiagnostic) {
		return ServiceRecord{}, &DecodeDiagnostic{Raw: entry.Raw, Reason: reason}
	}

	if !entry.IsObject() {
		return reject("entry is not an object")
	}

	unit, ok := stringField(entry, FieldUnit)
	if !ok {
		return reject(missingField(FieldUnit))
	}
	if unit == "" {
		return reject("empty unit")
	}

	exposure, ok := exposureField(entry)
	if !ok {
		return reject(missingField(FieldExposure))
	}
	if math.IsNaN(exposure) || math.IsInf(exposure, 0) {
		return reject("non-finite exposure")
	}
	if exposure < 0 {
		return reject("negative exposure")
	}

	predicate, ok := stringField(entry, FieldPredicate)
	if !ok {
		return reject(missingField(FieldPredicate))
	}

	happy, ok := stringField(entry, FieldHappy)
	if !ok {
		return reject(missingField(FieldHappy))
	}

	return ServiceRecord{
		Unit:        unit,
		Exposure:    exposure,
		Predicate:   predicate,
		HappySymbol: happy,
	}, nil
}

func missingField(name string) string {
	return fmt.Sprintf("missing or mistyped field %q", name)
}

func stringField(entry gjson.Result, name string) (string, bool) {
	v := entry.Get(name)
	if v.Type != gjson.String {
		return "", false
	}
	return v.Str, true
}

// exposureField accepts both a JSON number and a numeric string.
func exposureField(entry gjson.Result) (float64, bool) {
	v := entry.Get(FieldExposure)
	switch v.Type {
	case gjson.Number:
		return v.Num, true
	case gjson.String:
		f, err := strconv.ParseFloat(v.Str, 64)
		if err != nil {
			return 0, false
		}
		return f, true
	default:
		return 0, false
	}
}
