package engine

// AnalysisResult is the report bundle handed to the renderers.
type AnalysisResult struct {
	AverageExposure  Mean            `json:"average_exposure" yaml:"average_exposure"`
	AverageHappiness Mean            `json:"average_happiness" yaml:"average_happiness"`
	SelectedRecords  []ServiceRecord `json:"top_services" yaml:"top_services"`
}

// Summary carries the result together with batch-wide counts used by the
// text footer and the metrics export.
type Summary struct {
	Result      AnalysisResult
	Selection   Selection
	Total       int
	Skipped     int
	ByPredicate map[string]int
}

// Analyze computes the statistics over the whole batch and the selection.
func Analyze(records []ServiceRecord, sel Selection) AnalysisResult {
	return AnalysisResult{
		AverageExposure:  AverageExposure(records),
		AverageHappiness: AverageHappiness(records),
		SelectedRecords:  Select(records, sel),
	}
}

// Run ingests raw analyzer output and analyzes the valid records.
func Run(data []byte, sel Selection) (*Summary, error) {
	batch, err := Ingest(data)
	if err != nil {
		return nil, err
	}
	return &Summary{
		Result:      Analyze(batch.Records, sel),
		Selection:   sel,
		Total:       len(batch.Records),
		Skipped:     batch.Skipped(),
		ByPredicate: CountByPredicate(batch.Records),
	}, nil
}
