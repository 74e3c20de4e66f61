// Package benchmarks serves industry loss event frequency and loss
// magnitude baselines from the embedded IRIS 2025 dataset.
package benchmarks

import (
	_ "embed"
	"encoding/json"
	"fmt"
)

//go:embed data/iris2025_benchmarks.json
var benchmarksJSON []byte

// LEFEntry is one loss event frequency baseline: the annual probability
// of a material loss event for a cohort.
type LEFEntry struct {
	Probability *float64 `json:"probability"`
	Confidence  string   `json:"confidence"`
	Description string   `json:"description"`
	Source      string   `json:"source"`
}

// LMEntry is one loss magnitude baseline: per-event loss percentiles in
// USD for a cohort.
type LMEntry struct {
	P10         *float64 `json:"p10"`
	P50         *float64 `json:"p50"`
	P90         *float64 `json:"p90"`
	Confidence  string   `json:"confidence"`
	Description string   `json:"description"`
	Source      string   `json:"source"`
}

// Metadata describes the dataset the baselines come from.
type Metadata struct {
	Source      string `json:"source"`
	Version     string `json:"version"`
	Description string `json:"description"`
}

// LEFResult is a combined lookup for one industry/revenue pair. Industry
// is always populated when requested, with a no-data marker entry for
// unknown industries; Revenue is nil when the tier is unknown.
type LEFResult struct {
	Industry        *LEFEntry `json:"industry"`
	Revenue         *LEFEntry `json:"revenue"`
	OverallBaseline LEFEntry  `json:"overall_baseline"`
}

// LMResult is the loss magnitude counterpart of LEFResult. Unknown
// industries and tiers are nil.
type LMResult struct {
	Industry        *LMEntry `json:"industry"`
	Revenue         *LMEntry `json:"revenue"`
	OverallBaseline LMEntry  `json:"overall_baseline"`
}

type dataset struct {
	Metadata           Metadata            `json:"metadata"`
	LEFOverallBaseline LEFEntry            `json:"lef_overall_baseline"`
	LEFByIndustry      map[string]LEFEntry `json:"lef_by_industry"`
	LEFByRevenue       map[string]LEFEntry `json:"lef_by_revenue"`
	LMOverallBaseline  LMEntry             `json:"lm_overall_baseline"`
	LMByIndustry       map[string]LMEntry  `json:"lm_by_industry"`
	LMByRevenue        map[string]LMEntry  `json:"lm_by_revenue"`
}

// Library provides benchmark lookups over the embedded dataset.
type Library struct {
	data dataset
}

// NewLibrary parses the embedded dataset.
func NewLibrary() (*Library, error) {
	var data dataset
	if err := json.Unmarshal(benchmarksJSON, &data); err != nil {
		return nil, fmt.Errorf("failed to parse embedded benchmarks: %w", err)
	}
	return &Library{data: data}, nil
}

// Metadata returns the dataset metadata.
func (l *Library) Metadata() Metadata {
	return l.data.Metadata
}

// LEF returns loss event frequency baselines for an optional industry
// and revenue tier, always including the overall baseline.
func (l *Library) LEF(industry, revenue string) LEFResult {
	result := LEFResult{OverallBaseline: l.data.LEFOverallBaseline}

	if industry != "" {
		if entry, ok := l.data.LEFByIndustry[industry]; ok {
			result.Industry = &entry
		} else {
			// An explicit marker, so callers can tell "unknown industry"
			// apart from "none requested".
			result.Industry = &LEFEntry{
				Confidence:  "none",
				Description: fmt.Sprintf("No data available for %s", industry),
				Source:      l.data.Metadata.Source,
			}
		}
	}

	if revenue != "" {
		if entry, ok := l.data.LEFByRevenue[revenue]; ok {
			result.Revenue = &entry
		}
	}

	return result
}

// LM returns loss magnitude baselines for an optional industry and
// revenue tier, always including the overall baseline.
func (l *Library) LM(industry, revenue string) LMResult {
	result := LMResult{OverallBaseline: l.data.LMOverallBaseline}

	if industry != "" {
		if entry, ok := l.data.LMByIndustry[industry]; ok {
			result.Industry = &entry
		}
	}
	if revenue != "" {
		if entry, ok := l.data.LMByRevenue[revenue]; ok {
			result.Revenue = &entry
		}
	}

	return result
}

// Industries lists the industries with LEF baselines.
func (l *Library) Industries() []string {
	out := make([]string, 0, len(l.data.LEFByIndustry))
	for k := range l.data.LEFByIndustry {
		out = append(out, k)
	}
	return out
}
