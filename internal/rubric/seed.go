package rubric

import (
	"context"
	"errors"
)

type seedRubric struct {
	Section     string
	MaxPoints   float64
	Description string
	Criteria    map[string]string
	Order       int
}

// Default catalog created on first boot. Report types that already exist in
// the store keep their rubrics untouched.
var defaultCatalog = map[string][]seedRubric{
	"Thesis": {
		{"Introduction", 10, "Motivation, context and problem statement", map[string]string{
			"0-3":  "Missing or unclear motivation",
			"4-7":  "Motivation present but context incomplete",
			"8-10": "Clear motivation, context and problem statement",
		}, 1},
		{"Objectives", 10, "Goals and research questions", map[string]string{
			"0-3":  "Objectives missing or vague",
			"4-7":  "Objectives stated but not measurable",
			"8-10": "Precise, measurable objectives",
		}, 2},
		{"Requirements", 15, "Functional and non-functional requirements", nil, 3},
		{"Design", 20, "Architecture and design decisions", map[string]string{
			"0-7":   "No recognizable architecture",
			"8-14":  "Architecture described, decisions not justified",
			"15-20": "Well-justified architecture and design decisions",
		}, 4},
		{"Results and Discussion", 25, "Evaluation of results against objectives", nil, 5},
		{"Conclusion", 10, "Summary and outlook", nil, 6},
		{"Form and Style", 10, "Structure, citations, language", nil, 7},
	},
	"Seminar Report": {
		{"Introduction", 10, "Topic motivation and outline", nil, 1},
		{"Overview", 15, "Survey of the state of the art", nil, 2},
		{"Design", 15, "Method or system description", nil, 3},
		{"Discussion", 10, "Critical assessment", nil, 4},
		{"Form and Style", 10, "Structure, citations, language", nil, 5},
	},
}

// SeedDefaults creates the default report types and their rubrics when the
// catalog is empty for that report type. Safe to call on every boot.
func SeedDefaults(ctx context.Context, s *SQLStore) error {
	for name, seeds := range defaultCatalog {
		rt, err := s.GetReportTypeByName(ctx, name)
		if errors.Is(err, ErrNotFound) {
			rt, err = s.CreateReportType(ctx, name, "Default "+name+" report type")
		}
		if err != nil {
			return err
		}
		existing, err := s.ListRubrics(ctx, rt.ID)
		if err != nil {
			return err
		}
		if len(existing) > 0 {
			continue
		}
		for _, sd := range seeds {
			if _, err := s.CreateRubric(ctx, Rubric{
				ReportTypeID: rt.ID,
				SectionName:  sd.Section,
				MaxPoints:    sd.MaxPoints,
				Description:  sd.Description,
				Criteria:     sd.Criteria,
				DisplayOrder: sd.Order,
			}); err != nil {
				return err
			}
		}
	}
	return nil
}
