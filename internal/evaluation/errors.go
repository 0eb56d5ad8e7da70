package evaluation

import (
	"fmt"
	"strings"
)

// NotFoundError reports a missing referenced entity (student, report type,
// rubric, evaluation).
type NotFoundError struct {
	Kind string
	ID   string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s %q not found", e.Kind, e.ID)
}

// ValidationError reports malformed caller input.
type ValidationError struct {
	Msg string
}

func (e *ValidationError) Error() string { return e.Msg }

// IncompleteEvaluationError reports that reconciliation could not cover
// every canonical rubric in full-coverage mode.
type IncompleteEvaluationError struct {
	Missing []string
}

func (e *IncompleteEvaluationError) Error() string {
	return "evaluation incomplete, missing sections: " + strings.Join(e.Missing, ", ")
}

// ModelUnavailableError means no text-generation collaborator can be
// reached at all: no credential configured, or the endpoint is categorically
// unreachable. Callers should fix configuration rather than retry.
type ModelUnavailableError struct {
	Reason string
}

func (e *ModelUnavailableError) Error() string {
	return "model unavailable: " + e.Reason
}

// ModelResponseError means the collaborator was reachable but returned
// unusable output. Preview carries a bounded excerpt of the raw response for
// operator debugging, never the full payload.
type ModelResponseError struct {
	Msg     string
	Preview string
}

func (e *ModelResponseError) Error() string {
	if e.Preview == "" {
		return "model response error: " + e.Msg
	}
	return fmt.Sprintf("model response error: %s (response preview: %s)", e.Msg, e.Preview)
}

const previewLimit = 200

func preview(raw string) string {
	raw = strings.TrimSpace(raw)
	if len(raw) > previewLimit {
		return raw[:previewLimit] + "..."
	}
	return raw
}
