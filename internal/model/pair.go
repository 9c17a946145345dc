package model

import (
	"fmt"
	"strings"
	"time"
)

// Dataset identifies one of the chart corpora. The set is fixed ahead of time:
// static hosting offers no directory listing, so datasets cannot be discovered
// at runtime.
type Dataset struct {
	Key         string `json:"key"`          // directory name, e.g. "Inc500Charts"
	DisplayName string `json:"display_name"` // human-readable name shown to raters
}

// Datasets returns the fixed dataset list in presentation order. Resolution
// iterates this order, so it also fixes the global pair order.
func Datasets() []Dataset {
	return []Dataset{
		{Key: "ATP_rendered_charts", DisplayName: "ATP Number 1 Rankings"},
		{Key: "fifa18_rendered_charts", DisplayName: "FIFA 18 Dataset"},
		{Key: "Inc500Charts", DisplayName: "Inc5000 Company List 2014"},
	}
}

// DatasetByKey looks up a dataset by its directory key.
func DatasetByKey(key string) (Dataset, bool) {
	for _, d := range Datasets() {
		if d.Key == key {
			return d, true
		}
	}
	return Dataset{}, false
}

// SummarySets maps each dataset key to its summary-set directories, in
// presentation order. Static configuration, same as the dataset list.
func SummarySets() map[string][]string {
	return map[string][]string{
		"ATP_rendered_charts":    {"sum1_ques3", "sum3_ques2"},
		"fifa18_rendered_charts": {"sum1_ques1", "sum1_ques2", "sum3_ques1", "sum3_ques2"},
		"Inc500Charts":           {"sum1_ques1", "sum3_ques1", "sum3_ques2"},
	}
}

// SummarySet is a parsed "sum{N}_ques{M}" directory name.
type SummarySet struct {
	Name     string `json:"name"`     // e.g. "sum3_ques2"
	Summary  string `json:"summary"`  // e.g. "sum3"
	Question string `json:"question"` // e.g. "ques2"
}

// ParseSummarySet splits a summary-set directory name into its summary and
// question parts. Names without the expected separator keep the full name as
// the summary part.
func ParseSummarySet(name string) SummarySet {
	s := SummarySet{Name: name, Summary: name}
	if idx := strings.Index(name, "_"); idx > 0 {
		s.Summary = name[:idx]
		s.Question = name[idx+1:]
	}
	return s
}

// Image is a resolved chart image. Immutable once resolved.
type Image struct {
	Name    string `json:"name"`     // filename, e.g. "8.png"
	Path    string `json:"path"`     // resolved URL path
	FullURL string `json:"full_url"` // presentation URL, optionally cache-busted
}

// Pair is the central unit of work: exactly two images presented side by side
// for A/B comparison. Pairs are created once during resolution and are
// read-only reference data afterwards.
type Pair struct {
	ID         string       `json:"id"` // "<dataset>_<summarySet>_pair<N>"
	DatasetKey string       `json:"dataset_key"`
	SummarySet string       `json:"summary_set"`
	PairDir    string       `json:"pair_dir"` // "pair<N>" or "virtual_pair_<N>"
	FullPath   string       `json:"full_path"`
	Images     []Image      `json:"images"` // always exactly two, sorted by leading integer
	Metadata   PairMetadata `json:"metadata"`
}

// PairMetadata carries the descriptive fields persisted alongside evaluations
// and echoed in submission payloads.
type PairMetadata struct {
	Dataset    string    `json:"dataset"` // display name
	Summary    string    `json:"summary"`
	Question   string    `json:"question"`
	PairNumber int       `json:"pairNumber"`
	Created    time.Time `json:"created"`
}

// PairID composes the globally unique pair identifier.
func PairID(datasetKey, summarySet, pairDir string) string {
	return fmt.Sprintf("%s_%s_%s", datasetKey, summarySet, pairDir)
}
