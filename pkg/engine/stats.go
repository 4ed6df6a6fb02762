package engine

import (
	"encoding/json"
	"math"

	"github.com/user/sdsec/pkg/logger"
)

// Mean is an average that may be the not-a-number sentinel when nothing
// contributed to it.
type Mean float64

// Sentinel is returned instead of a mean when no data contributed.
var Sentinel = Mean(math.NaN())

// IsSentinel reports whether m carries no value.
func (m Mean) IsSentinel() bool {
	return math.IsNaN(float64(m))
}

func (m Mean) Float64() float64 {
	return float64(m)
}

// MarshalJSON encodes the sentinel as null.
func (m Mean) MarshalJSON() ([]byte, error) {
	f := float64(m)
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return []byte("null"), nil
	}
	return json.Marshal(f)
}

// AverageExposure is the arithmetic mean exposure over every record.
func AverageExposure(records []ServiceRecord) Mean {
	if len(records) == 0 {
		return Sentinel
	}
	var total float64
	for _, r := range records {
		total += r.Exposure
	}
	return Mean(total / float64(len(records)))
}

// AverageHappiness averages the happiness score over records with a
// recognized symbol. Unrecognized symbols are warned about and left out.
func AverageHappiness(records []ServiceRecord) Mean {
	var total float64
	count := 0
	for _, r := range records {
		score, ok := r.Happiness().Score()
		if !ok {
			logger.Warnw("unmatched happy value", "unit", r.Unit, "happy", r.HappySymbol)
			continue
		}
		total += score
		count++
	}
	if count == 0 {
		return Sentinel
	}
	return Mean(total / float64(count))
}

// CountByPredicate tallies records per predicate label.
func CountByPredicate(records []ServiceRecord) map[string]int {
	counts := make(map[string]int)
	for _, r := range records {
		counts[r.Predicate]++
	}
	return counts
}
