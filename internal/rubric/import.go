package rubric

import (
	"context"
	"encoding/csv"
	"encoding/json"
	"errors"
	"io"
	"strconv"
	"strings"
)

// ImportCSV loads rubrics from a CSV stream. Expected header:
// report_type,section_name,max_points[,description,criteria,order]
// criteria is a JSON object mapping score-range labels to expectations.
// Report types are created on demand. Returns the number of rubrics created.
func ImportCSV(ctx context.Context, s *SQLStore, r io.Reader) (int, error) {
	cr := csv.NewReader(r)
	cr.TrimLeadingSpace = true
	hdr, err := cr.Read()
	if err != nil {
		return 0, err
	}
	idx := map[string]int{}
	for i, h := range hdr {
		idx[strings.ToLower(strings.TrimSpace(h))] = i
	}
	for _, k := range []string{"report_type", "section_name", "max_points"} {
		if _, ok := idx[k]; !ok {
			return 0, errors.New("missing column: " + k)
		}
	}

	get := func(rec []string, k string) string {
		i, ok := idx[k]
		if !ok || i >= len(rec) {
			return ""
		}
		return strings.TrimSpace(rec[i])
	}

	types := map[string]string{} // name -> id
	created := 0
	for {
		rec, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return created, err
		}

		typeName := get(rec, "report_type")
		section := get(rec, "section_name")
		if typeName == "" || section == "" {
			continue
		}
		max, err := strconv.ParseFloat(get(rec, "max_points"), 64)
		if err != nil {
			return created, errors.New("bad max_points for section " + section)
		}

		typeID, ok := types[typeName]
		if !ok {
			rt, err := s.GetReportTypeByName(ctx, typeName)
			if errors.Is(err, ErrNotFound) {
				rt, err = s.CreateReportType(ctx, typeName, "")
			}
			if err != nil {
				return created, err
			}
			typeID = rt.ID
			types[typeName] = typeID
		}

		var criteria map[string]string
		if cj := get(rec, "criteria"); cj != "" {
			if err := json.Unmarshal([]byte(cj), &criteria); err != nil {
				return created, errors.New("bad criteria JSON for section " + section)
			}
		}
		order := 0
		if o := get(rec, "order"); o != "" {
			order, _ = strconv.Atoi(o)
		}

		if _, err := s.CreateRubric(ctx, Rubric{
			ReportTypeID: typeID,
			SectionName:  section,
			MaxPoints:    max,
			Description:  get(rec, "description"),
			Criteria:     criteria,
			DisplayOrder: order,
		}); err != nil {
			return created, err
		}
		created++
	}
	return created, nil
}
