package engine

import (
	"errors"
	"unicode/utf8"

	"github.com/tidwall/gjson"

	"github.com/user/sdsec/pkg/logger"
)

// ErrMalformedInput means the analyzer output is not JSON at all, or not
// valid UTF-8.
var ErrMalformedInput = errors.New("analyzer output is not valid JSON")

// Batch holds the outcome of one ingestion pass
type Batch struct {
	Records     []ServiceRecord
	Diagnostics []DecodeDiagnostic
}

// Skipped returns the number of entries that failed to decode.
func (b *Batch) Skipped() int {
	return len(b.Diagnostics)
}

// Ingest decodes every entry of the analyzer output independently. A failed
// entry is logged and skipped; it never stops the pass. A top level that is
// not an array yields an empty batch.
func Ingest(data []byte) (*Batch, error) {
	if !utf8.Valid(data) || !gjson.ValidBytes(data) {
		return nil, ErrMalformedInput
	}

	batch := &Batch{
		Records: make([]ServiceRecord, 0),
	}

	root := gjson.ParseBytes(data)
	if !root.IsArray() {
		logger.Warnw("analyzer output is not an array, treating it as empty", "type", root.Type.String())
		return batch, nil
	}

	root.ForEach(func(_, entry gjson.Result) bool {
		record, diag := Decode(entry)
		if diag != nil {
			logger.Warnw("could not parse entry", "reason", diag.Reason, "entry", diag.Raw)
			batch.Diagnostics = append(batch.Diagnostics, *diag)
			return true
		}
		batch.Records = append(batch.Records, record)
		return true
	})

	logger.Debugf("Ingested %d records, skipped %d entries", len(batch.Records), batch.Skipped())
	return batch, nil
}
