package model

import (
	"fmt"
	"strings"
	"time"
	"unicode/utf8"
)

// Category is one of the four rating dimensions scored per pair. The string
// values are the public vocabulary used in state keys and submission payloads
// and must not be renamed without migrating stored state.
type Category string

const (
	CategoryClutter          Category = "clutter"
	CategoryCognitiveLoad    Category = "cognitive_load"
	CategoryInterpretability Category = "interpretability"
	CategoryStyle            Category = "style"
)

// Categories returns all rating categories in presentation order.
func Categories() []Category {
	return []Category{
		CategoryClutter,
		CategoryCognitiveLoad,
		CategoryInterpretability,
		CategoryStyle,
	}
}

// ValidCategory reports whether name is a known category.
func ValidCategory(name string) bool {
	for _, c := range Categories() {
		if string(c) == name {
			return true
		}
	}
	return false
}

// DisplayName returns the rater-facing category title.
func (c Category) DisplayName() string {
	switch c {
	case CategoryClutter:
		return "Visual Clutter"
	case CategoryCognitiveLoad:
		return "Cognitive Load"
	case CategoryInterpretability:
		return "Interpretability"
	case CategoryStyle:
		return "Style"
	}
	return string(c)
}

// Forced-choice answers for the primary question.
const (
	ChoiceChartA    = "Chart A"
	ChoiceChartB    = "Chart B"
	ChoiceAboutSame = "About the same"
)

// Likert bounds.
const (
	RatingMin     = 1
	RatingMax     = 7
	ConfidenceMin = 1
	ConfidenceMax = 5
	RationaleMax  = 500
)

// ResponseBundle is one category's worth of rater input. Primary and both
// chart ratings are required; confidence and rationale are optional.
type ResponseBundle struct {
	Primary    string `json:"primary"`              // ChoiceChartA | ChoiceChartB | ChoiceAboutSame
	ChartA     int    `json:"chart_a"`              // 1-7
	ChartB     int    `json:"chart_b"`              // 1-7
	Confidence int    `json:"confidence,omitempty"` // 1-5, 0 = not given
	Rationale  string `json:"rationale,omitempty"`  // free text, <= 500 chars
}

// CategoryResult records a completed category: the response bundle and when it
// was saved. A category saved twice keeps only the latest bundle and timestamp.
type CategoryResult struct {
	Completed bool           `json:"completed"`
	Responses ResponseBundle `json:"responses"`
	Timestamp time.Time      `json:"timestamp"`
}

// PairEvaluation is the per-pair unit of persistence. The JSON shape matches
// the browser tool's localStorage blob so stored sessions round-trip verbatim.
type PairEvaluation struct {
	PairID           string                       `json:"pairId"`
	Metadata         PairMetadata                 `json:"metadata"`
	Evaluations      map[Category]*CategoryResult `json:"evaluations"`
	StartedAt        time.Time                    `json:"startedAt"`
	CompletedAt      *time.Time                   `json:"completedAt"`
	CompletionStatus map[Category]bool            `json:"completionStatus"`
	Submitted        bool                         `json:"submitted"`
	SubmittedAt      *time.Time                   `json:"submittedAt,omitempty"`
}

// NewPairEvaluation initializes a fresh evaluation with every category
// incomplete.
func NewPairEvaluation(pairID string, meta PairMetadata, now time.Time) *PairEvaluation {
	ev := &PairEvaluation{
		PairID:           pairID,
		Metadata:         meta,
		Evaluations:      make(map[Category]*CategoryResult, len(Categories())),
		StartedAt:        now,
		CompletionStatus: make(map[Category]bool, len(Categories())),
	}
	for _, c := range Categories() {
		ev.Evaluations[c] = &CategoryResult{}
		ev.CompletionStatus[c] = false
	}
	return ev
}

// IsComplete reports whether all four categories have been recorded.
func (ev *PairEvaluation) IsComplete() bool {
	for _, c := range Categories() {
		if !ev.CompletionStatus[c] {
			return false
		}
	}
	return true
}

// ValidationError reports the fields a response bundle is missing or out of
// range. It is surfaced to the rater verbatim, so messages stay actionable.
type ValidationError struct {
	Category Category
	Problems []string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s responses incomplete: %s",
		e.Category.DisplayName(), strings.Join(e.Problems, "; "))
}

// primaryPrompt is the rater-facing wording of each category's forced-choice
// question, used in validation messages.
func primaryPrompt(c Category) string {
	switch c {
	case CategoryClutter:
		return "select which chart looks more cluttered"
	case CategoryCognitiveLoad:
		return "select which chart requires less mental effort"
	case CategoryInterpretability:
		return "select which chart is more interpretable"
	case CategoryStyle:
		return "select which chart looks better designed"
	}
	return "select a chart"
}

// ValidateBundle checks a response bundle against the canonical required-field
// set. The required set is the same for every category: the primary choice and
// both chart ratings. Confidence and rationale are optional but range-checked
// when present. Returns nil when the bundle is acceptable.
func ValidateBundle(c Category, b ResponseBundle) error {
	var problems []string

	switch b.Primary {
	case ChoiceChartA, ChoiceChartB, ChoiceAboutSame:
	case "":
		problems = append(problems, "please "+primaryPrompt(c))
	default:
		problems = append(problems, fmt.Sprintf("unknown primary choice %q", b.Primary))
	}

	if b.ChartA < RatingMin || b.ChartA > RatingMax {
		problems = append(problems, fmt.Sprintf("please rate Chart A between %d and %d", RatingMin, RatingMax))
	}
	if b.ChartB < RatingMin || b.ChartB > RatingMax {
		problems = append(problems, fmt.Sprintf("please rate Chart B between %d and %d", RatingMin, RatingMax))
	}
	if b.Confidence != 0 && (b.Confidence < ConfidenceMin || b.Confidence > ConfidenceMax) {
		problems = append(problems, fmt.Sprintf("confidence must be between %d and %d", ConfidenceMin, ConfidenceMax))
	}
	if utf8.RuneCountInString(b.Rationale) > RationaleMax {
		problems = append(problems, fmt.Sprintf("rationale must be %d characters or fewer", RationaleMax))
	}

	if len(problems) > 0 {
		return &ValidationError{Category: c, Problems: problems}
	}
	return nil
}
