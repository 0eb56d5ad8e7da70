package rubric

import "time"

type ReportType struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	Description string    `json:"description,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
}

// Rubric is one scored section of a report type. Criteria maps a
// score-range label (e.g. "8-10") to the expectation for that range.
type Rubric struct {
	ID           string            `json:"id"`
	ReportTypeID string            `json:"report_type_id"`
	SectionName  string            `json:"section_name"`
	MaxPoints    float64           `json:"max_points"`
	Description  string            `json:"description,omitempty"`
	Criteria     map[string]string `json:"criteria,omitempty"`
	DisplayOrder int               `json:"order"`
	CreatedAt    time.Time         `json:"created_at"`
}

type Statistics struct {
	ReportTypeID      string  `json:"report_type_id"`
	ReportTypeName    string  `json:"report_type_name"`
	TotalEvaluations  int     `json:"total_evaluations"`
	AverageScore      float64 `json:"average_score"`
	AveragePercentage float64 `json:"average_percentage"`
	MaxPossibleScore  float64 `json:"max_possible_score"`
	MinScore          float64 `json:"min_score"`
	MaxScore          float64 `json:"max_score"`
}
