package evaluation_test

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/Malaz-al-Mahdi/academic-evaluation-system/internal/evaluation"
	"github.com/Malaz-al-Mahdi/academic-evaluation-system/internal/llm"
)

// fakeCompleter scripts one response (or error) per model id, recording the
// order models were tried in.
type fakeCompleter struct {
	responses map[string]string
	errs      map[string]error
	calls     []string
}

func (f *fakeCompleter) Complete(_ context.Context, req llm.Request) (string, error) {
	f.calls = append(f.calls, req.Model)
	if err, ok := f.errs[req.Model]; ok {
		return "", err
	}
	if resp, ok := f.responses[req.Model]; ok {
		return resp, nil
	}
	return "", fmt.Errorf("unscripted model %q", req.Model)
}

const goodPayload = `{"scores": [
	{"section_name": "Introduction", "score": 8.5, "feedback": "Clear framing."},
	{"section_name": "Design", "score": 15, "feedback": "Sound layering."}
]}`

func TestModelScorerNilClient(t *testing.T) {
	s := evaluation.NewModelScorer(nil, []string{"gpt-4o"}, 4000)
	_, err := s.Score(context.Background(), thesisRubrics(), "Title", "text")
	var mu *evaluation.ModelUnavailableError
	if !errors.As(err, &mu) {
		t.Fatalf("got %v, want ModelUnavailableError", err)
	}
}

func TestModelScorerParsesWellFormedResponse(t *testing.T) {
	fc := &fakeCompleter{responses: map[string]string{"gpt-4o": goodPayload}}
	s := evaluation.NewModelScorer(fc, []string{"gpt-4o"}, 4000)

	cands, err := s.Score(context.Background(), thesisRubrics(), "Title", "text")
	if err != nil {
		t.Fatalf("score: %v", err)
	}
	if len(cands) != 2 {
		t.Fatalf("got %d candidates, want 2", len(cands))
	}
	if cands[0].Section != "Introduction" || cands[1].Section != "Design" {
		t.Errorf("unexpected sections: %+v", cands)
	}
}

func TestModelScorerStripsCodeFences(t *testing.T) {
	fenced := "```json\n" + goodPayload + "\n```"
	fc := &fakeCompleter{responses: map[string]string{"gpt-4o": fenced}}
	s := evaluation.NewModelScorer(fc, []string{"gpt-4o"}, 4000)

	cands, err := s.Score(context.Background(), thesisRubrics(), "Title", "text")
	if err != nil {
		t.Fatalf("score: %v", err)
	}
	if len(cands) != 2 {
		t.Fatalf("got %d candidates, want 2", len(cands))
	}
}

func TestModelScorerRejectsNonJSON(t *testing.T) {
	fc := &fakeCompleter{responses: map[string]string{"gpt-4o": "I think this report deserves a B+."}}
	s := evaluation.NewModelScorer(fc, []string{"gpt-4o"}, 4000)

	_, err := s.Score(context.Background(), thesisRubrics(), "Title", "text")
	var mr *evaluation.ModelResponseError
	if !errors.As(err, &mr) {
		t.Fatalf("got %v, want ModelResponseError", err)
	}
	if mr.Preview == "" {
		t.Error("expected a bounded response preview")
	}
}

func TestModelScorerRejectsMissingScoresKey(t *testing.T) {
	fc := &fakeCompleter{responses: map[string]string{"gpt-4o": `{"grades": []}`}}
	s := evaluation.NewModelScorer(fc, []string{"gpt-4o"}, 4000)

	_, err := s.Score(context.Background(), thesisRubrics(), "Title", "text")
	var mr *evaluation.ModelResponseError
	if !errors.As(err, &mr) {
		t.Fatalf("got %v, want ModelResponseError", err)
	}
}

func TestModelScorerSkipsMalformedEntries(t *testing.T) {
	payload := `{"scores": [
		{"score": 5, "feedback": "no section name"},
		{"section_name": "Design", "score": 12, "feedback": "ok"}
	]}`
	fc := &fakeCompleter{responses: map[string]string{"gpt-4o": payload}}
	s := evaluation.NewModelScorer(fc, []string{"gpt-4o"}, 4000)

	cands, err := s.Score(context.Background(), thesisRubrics(), "Title", "text")
	if err != nil {
		t.Fatalf("score: %v", err)
	}
	if len(cands) != 1 || cands[0].Section != "Design" {
		t.Errorf("got %+v, want only the Design entry", cands)
	}
}

func TestModelScorerAdvancesFallbackOnUnavailable(t *testing.T) {
	fc := &fakeCompleter{
		errs:      map[string]error{"gpt-4": fmt.Errorf("model gpt-4 decommissioned: %w", llm.ErrModelUnavailable)},
		responses: map[string]string{"gpt-4o": goodPayload},
	}
	s := evaluation.NewModelScorer(fc, []string{"gpt-4", "gpt-4o"}, 4000)

	cands, err := s.Score(context.Background(), thesisRubrics(), "Title", "text")
	if err != nil {
		t.Fatalf("score: %v", err)
	}
	if len(cands) != 2 {
		t.Fatalf("got %d candidates, want 2", len(cands))
	}
	if len(fc.calls) != 2 || fc.calls[0] != "gpt-4" || fc.calls[1] != "gpt-4o" {
		t.Errorf("call order = %v, want [gpt-4 gpt-4o]", fc.calls)
	}
}

func TestModelScorerDoesNotAdvanceOnOtherErrors(t *testing.T) {
	fc := &fakeCompleter{
		errs:      map[string]error{"gpt-4": errors.New("429 rate limited")},
		responses: map[string]string{"gpt-4o": goodPayload},
	}
	s := evaluation.NewModelScorer(fc, []string{"gpt-4", "gpt-4o"}, 4000)

	_, err := s.Score(context.Background(), thesisRubrics(), "Title", "text")
	var mr *evaluation.ModelResponseError
	if !errors.As(err, &mr) {
		t.Fatalf("got %v, want ModelResponseError", err)
	}
	if len(fc.calls) != 1 {
		t.Errorf("tried %v, want a single attempt", fc.calls)
	}
}

func TestModelScorerAllModelsExhausted(t *testing.T) {
	fc := &fakeCompleter{errs: map[string]error{
		"a": fmt.Errorf("gone: %w", llm.ErrModelUnavailable),
		"b": fmt.Errorf("gone: %w", llm.ErrModelUnavailable),
	}}
	s := evaluation.NewModelScorer(fc, []string{"a", "b"}, 4000)

	_, err := s.Score(context.Background(), thesisRubrics(), "Title", "text")
	var mr *evaluation.ModelResponseError
	if !errors.As(err, &mr) {
		t.Fatalf("got %v, want ModelResponseError", err)
	}
	if len(fc.calls) != 2 {
		t.Errorf("tried %v, want both candidates", fc.calls)
	}
}
