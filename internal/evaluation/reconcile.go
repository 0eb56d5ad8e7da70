package evaluation

import (
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/Malaz-al-Mahdi/academic-evaluation-system/internal/rubric"
)

// Candidate is a raw (section, score, feedback) tuple produced by a scorer
// or supplied by a caller. Score stays untyped until reconciliation because
// model output may carry numbers as JSON numbers or strings.
type Candidate struct {
	Section  string
	Score    any
	Feedback string
}

// Coverage selects the reconciliation policy for rubrics that received no
// candidate.
type Coverage int

const (
	// CoveragePartial fills unmatched rubrics with a zero-score default.
	CoveragePartial Coverage = iota
	// CoverageFull fails with IncompleteEvaluationError when any rubric is
	// unmatched.
	CoverageFull
)

// ScoreInput is a validated, clamped score ready for persistence.
type ScoreInput struct {
	RubricID string
	Section  string
	Score    float64
	Feedback string
}

// ReconcileReport carries the accepted scores plus everything that was
// dropped on the way, so callers can surface it instead of losing it.
type ReconcileReport struct {
	Scores    []ScoreInput
	Malformed []string // candidate sections dropped for uncoercible scores
	Unmatched []string // candidate sections with no canonical rubric
}

// Reconcile matches candidates against the canonical rubric list by exact
// section-name equality, coerces and clamps scores, and returns them in
// rubric display order. Out-of-range scores are clamped, never rejected.
func Reconcile(rubrics []rubric.Rubric, cands []Candidate, cov Coverage) (ReconcileReport, error) {
	byName := make(map[string]rubric.Rubric, len(rubrics))
	for _, r := range rubrics {
		byName[r.SectionName] = r
	}

	var rep ReconcileReport
	matched := make(map[string]ScoreInput, len(cands))
	for _, c := range cands {
		r, ok := byName[c.Section]
		if !ok {
			rep.Unmatched = append(rep.Unmatched, c.Section)
			continue
		}
		v, ok := coerceScore(c.Score)
		if !ok {
			rep.Malformed = append(rep.Malformed, c.Section)
			continue
		}
		matched[r.SectionName] = ScoreInput{
			RubricID: r.ID,
			Section:  r.SectionName,
			Score:    clamp(v, r.MaxPoints),
			Feedback: c.Feedback,
		}
	}

	var missing []string
	rep.Scores = make([]ScoreInput, 0, len(rubrics))
	for _, r := range rubrics {
		if in, ok := matched[r.SectionName]; ok {
			rep.Scores = append(rep.Scores, in)
			continue
		}
		if cov == CoverageFull {
			missing = append(missing, r.SectionName)
			continue
		}
		rep.Scores = append(rep.Scores, ScoreInput{
			RubricID: r.ID,
			Section:  r.SectionName,
			Score:    0,
			Feedback: fmt.Sprintf("No score produced for %s.", r.SectionName),
		})
	}
	if len(missing) > 0 {
		return ReconcileReport{}, &IncompleteEvaluationError{Missing: missing}
	}
	return rep, nil
}

func clamp(v, max float64) float64 {
	if v < 0 {
		return 0
	}
	if v > max {
		return max
	}
	return v
}

func coerceScore(v any) (float64, bool) {
	switch t := v.(type) {
	case float64:
		return finite(t)
	case float32:
		return finite(float64(t))
	case int:
		return float64(t), true
	case int64:
		return float64(t), true
	case json.Number:
		f, err := t.Float64()
		if err != nil {
			return 0, false
		}
		return finite(f)
	case string:
		f, err := strconv.ParseFloat(strings.TrimSpace(t), 64)
		if err != nil {
			return 0, false
		}
		return finite(f)
	default:
		return 0, false
	}
}

func finite(f float64) (float64, bool) {
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, false
	}
	return f, true
}
