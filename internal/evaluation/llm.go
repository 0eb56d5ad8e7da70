package evaluation

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"sort"
	"strings"

	"github.com/Malaz-al-Mahdi/academic-evaluation-system/internal/llm"
	"github.com/Malaz-al-Mahdi/academic-evaluation-system/internal/rubric"
)

// TextCompleter is the text-generation collaborator boundary.
type TextCompleter interface {
	Complete(ctx context.Context, req llm.Request) (string, error)
}

const systemPrompt = "You are an experienced academic evaluator. Respond only with valid JSON."

// ModelScorer builds a rubric-grounded prompt, invokes the collaborator
// across an ordered fallback list of model ids, and parses the structured
// response into candidates. It holds no hidden mutable state; construct it
// once and pass it in.
type ModelScorer struct {
	client     TextCompleter
	models     []string
	maxExcerpt int
}

// NewModelScorer accepts a nil client, which makes Score fail fast with
// ModelUnavailableError; that keeps "credential missing" a configuration
// concern instead of a scattered env lookup.
func NewModelScorer(client TextCompleter, models []string, maxExcerpt int) *ModelScorer {
	if maxExcerpt <= 0 {
		maxExcerpt = 4000
	}
	return &ModelScorer{client: client, models: models, maxExcerpt: maxExcerpt}
}

// Score returns one candidate per well-formed response entry. Entries the
// model omitted or mangled individually are skipped and logged; an unusable
// response as a whole fails with ModelResponseError.
func (m *ModelScorer) Score(ctx context.Context, rubrics []rubric.Rubric, title, submission string) ([]Candidate, error) {
	if m.client == nil {
		return nil, &ModelUnavailableError{Reason: "no API credential configured"}
	}
	if len(m.models) == 0 {
		return nil, &ModelUnavailableError{Reason: "no candidate model identifiers configured"}
	}

	prompt := buildPrompt(rubrics, title, submission, m.maxExcerpt)

	var lastUnavailable error
	for _, model := range m.models {
		raw, err := m.client.Complete(ctx, llm.Request{
			Model:       model,
			System:      systemPrompt,
			User:        prompt,
			Temperature: 0.3,
			JSONOnly:    true,
		})
		if err != nil {
			if errors.Is(err, llm.ErrModelUnavailable) {
				log.Printf("model %s unavailable, trying next candidate: %v", model, err)
				lastUnavailable = err
				continue
			}
			return nil, &ModelResponseError{Msg: err.Error()}
		}
		cands, skipped, err := parseScorePayload(raw)
		if err != nil {
			return nil, err
		}
		for _, s := range skipped {
			log.Printf("model %s: skipped response entry: %s", model, s)
		}
		return cands, nil
	}

	return nil, &ModelResponseError{
		Msg: fmt.Sprintf("all candidate models exhausted: %v", lastUnavailable),
	}
}

// parseScorePayload decodes the strict-JSON score contract. The payload may
// arrive wrapped in a fenced code block; fencing is stripped before parsing.
func parseScorePayload(raw string) ([]Candidate, []string, error) {
	body := stripFences(raw)

	var payload struct {
		Scores []json.RawMessage `json:"scores"`
	}
	dec := json.NewDecoder(strings.NewReader(body))
	dec.UseNumber()
	if err := dec.Decode(&payload); err != nil {
		return nil, nil, &ModelResponseError{Msg: "response is not valid JSON", Preview: preview(raw)}
	}
	if payload.Scores == nil {
		return nil, nil, &ModelResponseError{Msg: `response lacks a "scores" array`, Preview: preview(raw)}
	}

	var cands []Candidate
	var skipped []string
	for i, entry := range payload.Scores {
		var e struct {
			SectionName string      `json:"section_name"`
			Score       json.Number `json:"score"`
			Feedback    string      `json:"feedback"`
		}
		ed := json.NewDecoder(strings.NewReader(string(entry)))
		ed.UseNumber()
		if err := ed.Decode(&e); err != nil {
			skipped = append(skipped, fmt.Sprintf("entry %d: not a well-formed object", i))
			continue
		}
		if e.SectionName == "" {
			skipped = append(skipped, fmt.Sprintf("entry %d: missing section_name", i))
			continue
		}
		cands = append(cands, Candidate{Section: e.SectionName, Score: e.Score, Feedback: e.Feedback})
	}
	return cands, skipped, nil
}

// stripFences removes a surrounding ```...``` block, with or without a
// language tag.
func stripFences(s string) string {
	t := strings.TrimSpace(s)
	if !strings.HasPrefix(t, "```") {
		return t
	}
	t = strings.TrimPrefix(t, "```")
	if i := strings.Index(t, "\n"); i >= 0 {
		// drop the language tag line ("json", "JSON", or empty)
		first := strings.TrimSpace(t[:i])
		if len(first) <= 8 {
			t = t[i+1:]
		}
	}
	t = strings.TrimSuffix(strings.TrimSpace(t), "```")
	return strings.TrimSpace(t)
}

func buildPrompt(rubrics []rubric.Rubric, title, submission string, maxExcerpt int) string {
	var b strings.Builder

	b.WriteString("Evaluate the following academic report against the provided rubrics.\n\n")
	fmt.Fprintf(&b, "Report Title: %s\n\n", title)
	b.WriteString("Report Content:\n")
	b.WriteString(excerpt(submission, maxExcerpt))
	b.WriteString("\n\nRubrics:\n")
	for _, r := range rubrics {
		fmt.Fprintf(&b, "- %s (max %g points)", r.SectionName, r.MaxPoints)
		if r.Description != "" {
			b.WriteString(": " + r.Description)
		}
		b.WriteString("\n")
		for _, k := range sortedKeys(r.Criteria) {
			fmt.Fprintf(&b, "    %s points: %s\n", k, r.Criteria[k])
		}
	}
	b.WriteString("\nFor each rubric section provide a score between 0 and its max points and 1-2 sentences of feedback justified against the stated criteria.\n")
	b.WriteString("Respond with exactly this JSON shape, one entry per rubric section:\n")
	b.WriteString(`{"scores": [{"section_name": "...", "score": 0.0, "feedback": "..."}]}`)
	b.WriteString("\n")
	return b.String()
}

// excerpt bounds the submission text included in the prompt so a long
// report cannot blow the collaborator's input limit.
func excerpt(s string, max int) string {
	if len(s) <= max {
		return s
	}
	return s[:max]
}

func sortedKeys(m map[string]string) []string {
	if len(m) == 0 {
		return nil
	}
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
