// Package report aggregates the evaluation state map into a rater-facing
// progress report.
package report

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/ppiankov/pairlens/internal/model"
)

// Report summarizes a session's progress across datasets and categories.
type Report struct {
	GeneratedAt   time.Time `json:"generated_at"`
	ResolvedPairs int       `json:"resolved_pairs"` // pairs found by the resolver, 0 if unknown
	TrackedPairs  int       `json:"tracked_pairs"`  // pairs with any recorded input
	Completed     int       `json:"completed"`      // all four categories recorded
	Submitted     int       `json:"submitted"`
	PendingSubmit int       `json:"pending_submit"` // complete but not yet delivered

	Datasets   []DatasetStats  `json:"datasets"`
	Categories []CategoryStats `json:"categories"`
}

// DatasetStats breaks progress down per dataset display name.
type DatasetStats struct {
	Dataset   string `json:"dataset"`
	Tracked   int    `json:"tracked"`
	Completed int    `json:"completed"`
	Submitted int    `json:"submitted"`
}

// CategoryStats summarizes one category's recorded responses.
type CategoryStats struct {
	Category     model.Category `json:"category"`
	Completed    int            `json:"completed"`
	ChoiceCounts map[string]int `json:"choice_counts"`
	MeanChartA   float64        `json:"mean_chart_a"`
	MeanChartB   float64        `json:"mean_chart_b"`
}

// Build computes a report over the given evaluations. resolvedPairs may be
// zero when the caller only has stored state and no fresh resolution.
func Build(evals []*model.PairEvaluation, resolvedPairs int, now time.Time) Report {
	r := Report{
		GeneratedAt:   now.UTC(),
		ResolvedPairs: resolvedPairs,
		TrackedPairs:  len(evals),
	}

	perDataset := make(map[string]*DatasetStats)
	perCategory := make(map[model.Category]*CategoryStats)
	sums := make(map[model.Category][2]float64)

	for _, c := range model.Categories() {
		perCategory[c] = &CategoryStats{Category: c, ChoiceCounts: make(map[string]int)}
	}

	for _, ev := range evals {
		ds, ok := perDataset[ev.Metadata.Dataset]
		if !ok {
			ds = &DatasetStats{Dataset: ev.Metadata.Dataset}
			perDataset[ev.Metadata.Dataset] = ds
		}
		ds.Tracked++

		if ev.IsComplete() {
			r.Completed++
			ds.Completed++
			if ev.Submitted {
				r.Submitted++
				ds.Submitted++
			} else {
				r.PendingSubmit++
			}
		}

		for c, result := range ev.Evaluations {
			if result == nil || !result.Completed {
				continue
			}
			cs, ok := perCategory[c]
			if !ok {
				continue
			}
			cs.Completed++
			cs.ChoiceCounts[result.Responses.Primary]++
			s := sums[c]
			s[0] += float64(result.Responses.ChartA)
			s[1] += float64(result.Responses.ChartB)
			sums[c] = s
		}
	}

	for _, c := range model.Categories() {
		cs := perCategory[c]
		if cs.Completed > 0 {
			cs.MeanChartA = sums[c][0] / float64(cs.Completed)
			cs.MeanChartB = sums[c][1] / float64(cs.Completed)
		}
		r.Categories = append(r.Categories, *cs)
	}

	names := make([]string, 0, len(perDataset))
	for name := range perDataset {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		r.Datasets = append(r.Datasets, *perDataset[name])
	}

	return r
}

// Markdown renders the report for terminal or file output.
func (r Report) Markdown() string {
	var b strings.Builder

	b.WriteString("# pairlens session report\n\n")
	fmt.Fprintf(&b, "Generated: %s\n\n", r.GeneratedAt.Format(time.RFC3339))

	b.WriteString("## Progress\n\n")
	if r.ResolvedPairs > 0 {
		fmt.Fprintf(&b, "- Pairs resolved: %d\n", r.ResolvedPairs)
	}
	fmt.Fprintf(&b, "- Pairs started: %d\n", r.TrackedPairs)
	fmt.Fprintf(&b, "- Pairs completed: %d\n", r.Completed)
	fmt.Fprintf(&b, "- Submitted: %d\n", r.Submitted)
	fmt.Fprintf(&b, "- Awaiting submission: %d\n\n", r.PendingSubmit)

	if len(r.Datasets) > 0 {
		b.WriteString("## Datasets\n\n")
		b.WriteString("| Dataset | Started | Completed | Submitted |\n")
		b.WriteString("|---|---|---|---|\n")
		for _, ds := range r.Datasets {
			fmt.Fprintf(&b, "| %s | %d | %d | %d |\n",
				ds.Dataset, ds.Tracked, ds.Completed, ds.Submitted)
		}
		b.WriteString("\n")
	}

	b.WriteString("## Categories\n\n")
	b.WriteString("| Category | Completed | Chart A | Chart B | About the same | Mean A | Mean B |\n")
	b.WriteString("|---|---|---|---|---|---|---|\n")
	for _, cs := range r.Categories {
		fmt.Fprintf(&b, "| %s | %d | %d | %d | %d | %.1f | %.1f |\n",
			cs.Category.DisplayName(), cs.Completed,
			cs.ChoiceCounts[model.ChoiceChartA],
			cs.ChoiceCounts[model.ChoiceChartB],
			cs.ChoiceCounts[model.ChoiceAboutSame],
			cs.MeanChartA, cs.MeanChartB)
	}

	return b.String()
}
