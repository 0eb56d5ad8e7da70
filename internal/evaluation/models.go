package evaluation

import (
	"time"

	"github.com/Malaz-al-Mahdi/academic-evaluation-system/internal/rubric"
	"github.com/Malaz-al-Mahdi/academic-evaluation-system/internal/student"
)

type Method string

const (
	MethodManual    Method = "manual"
	MethodRuleBased Method = "rule-based"
	MethodLLM       Method = "llm"
)

func (m Method) Valid() bool {
	switch m {
	case MethodManual, MethodRuleBased, MethodLLM:
		return true
	}
	return false
}

// Score is one rubric's result within an evaluation. Rubric is resolved on
// read-back so report rendering never needs a second lookup.
type Score struct {
	ID           string         `json:"id"`
	EvaluationID string         `json:"evaluation_id"`
	RubricID     string         `json:"rubric_id"`
	Score        float64        `json:"score"`
	Feedback     string         `json:"feedback,omitempty"`
	CreatedAt    time.Time      `json:"created_at"`
	Rubric       *rubric.Rubric `json:"rubric,omitempty"`
}

// Evaluation is one completed grading pass over one student submission.
// TotalScore and MaxPossibleScore are derived from the child scores and the
// referenced rubrics, never settable by callers.
type Evaluation struct {
	ID               string             `json:"id"`
	StudentID        string             `json:"student_id"`
	ReportTypeID     string             `json:"report_type_id"`
	ReportTitle      string             `json:"report_title"`
	SeminarDate      string             `json:"seminar_date,omitempty"`
	SeminarTime      string             `json:"seminar_time,omitempty"`
	TotalScore       float64            `json:"total_score"`
	MaxPossibleScore float64            `json:"max_possible_score"`
	Method           Method             `json:"evaluation_method"`
	EvaluatorID      string             `json:"evaluator_id,omitempty"`
	CreatedAt        time.Time          `json:"created_at"`
	UpdatedAt        time.Time          `json:"updated_at"`
	Student          *student.Student   `json:"student,omitempty"`
	ReportType       *rubric.ReportType `json:"report_type,omitempty"`
	Scores           []Score            `json:"scores,omitempty"`
}
