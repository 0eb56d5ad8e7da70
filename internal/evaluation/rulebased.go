package evaluation

import (
	"fmt"
	"strings"

	"github.com/Malaz-al-Mahdi/academic-evaluation-system/internal/rubric"
)

// sectionRule classifies a rubric by substrings of its section name and
// scores it by keyword presence in the submission text. Rules are evaluated
// in order; the first whose nameHints match claims the rubric.
type sectionRule struct {
	category  string
	nameHints []string
	keywords  []string
	weight    float64
}

var sectionRules = []sectionRule{
	{"Introduction", []string{"introduction"}, []string{"introduction", "introduce", "overview"}, 0.7},
	{"Objectives", []string{"objective", "overview"}, []string{"objective", "goal", "aim", "purpose"}, 0.7},
	{"Requirements", []string{"requirement"}, []string{"requirement", "specification", "spec"}, 0.7},
	{"Design", []string{"design"}, []string{"design", "architecture", "structure"}, 0.7},
	{"Results/Discussion", []string{"result", "discussion"}, []string{"result", "discussion", "finding"}, 0.7},
}

// Weight for rubrics no rule claims, scored by verbatim section-name
// presence.
const defaultWeight = 0.5

// ScoreHeuristically produces exactly one candidate per rubric for any
// input, including empty text. It never fails; absent evidence degrades to a
// zero score.
func ScoreHeuristically(rubrics []rubric.Rubric, submission string) []Candidate {
	text := strings.ToLower(submission)

	out := make([]Candidate, 0, len(rubrics))
	for _, r := range rubrics {
		name := strings.ToLower(r.SectionName)

		if rule, ok := matchRule(name); ok {
			if containsAny(text, rule.keywords) {
				out = append(out, Candidate{
					Section:  r.SectionName,
					Score:    r.MaxPoints * rule.weight,
					Feedback: rule.category + " section found.",
				})
			} else {
				out = append(out, notFound(r))
			}
			continue
		}

		if name != "" && strings.Contains(text, name) {
			out = append(out, Candidate{
				Section:  r.SectionName,
				Score:    r.MaxPoints * defaultWeight,
				Feedback: r.SectionName + " section found.",
			})
		} else {
			out = append(out, notFound(r))
		}
	}
	return out
}

func matchRule(sectionName string) (sectionRule, bool) {
	for _, rule := range sectionRules {
		for _, h := range rule.nameHints {
			if strings.Contains(sectionName, h) {
				return rule, true
			}
		}
	}
	return sectionRule{}, false
}

func containsAny(text string, words []string) bool {
	for _, w := range words {
		if strings.Contains(text, w) {
			return true
		}
	}
	return false
}

func notFound(r rubric.Rubric) Candidate {
	return Candidate{
		Section:  r.SectionName,
		Score:    0.0,
		Feedback: fmt.Sprintf("No matching content found for %s.", r.SectionName),
	}
}
