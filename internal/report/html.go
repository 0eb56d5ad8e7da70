// Package report renders a fully-populated evaluation as a print-ready
// HTML document. PDF conversion is left to external tooling.
package report

import (
	"bytes"
	"errors"
	"fmt"
	"html/template"

	"github.com/Malaz-al-Mahdi/academic-evaluation-system/internal/evaluation"
)

var reportTmpl = template.Must(template.New("report").Funcs(template.FuncMap{
	"pts": func(v float64) string { return fmt.Sprintf("%.1f", v) },
}).Parse(`<!DOCTYPE html>
<html>
<head>
    <meta charset="utf-8">
    <title>Evaluation Report - {{ .ReportTitle }}</title>
    <style>
        body { font-family: Arial, sans-serif; margin: 40px; }
        h1 { color: #333; }
        .header { border-bottom: 2px solid #333; padding-bottom: 20px; margin-bottom: 30px; }
        table { border-collapse: collapse; width: 100%; }
        th, td { border: 1px solid #ccc; padding: 8px; text-align: left; }
        .score { font-weight: bold; color: #0066cc; }
        .total { font-size: 1.2em; margin-top: 30px; padding-top: 20px; border-top: 2px solid #333; }
        .meta { color: #666; font-size: 0.9em; margin-top: 20px; }
    </style>
</head>
<body>
    <div class="header">
        <h1>Academic Evaluation Report</h1>
        <p><strong>Student:</strong> {{ .Student.FirstName }} {{ .Student.LastName }}</p>
        <p><strong>Matriculation Number:</strong> {{ .Student.MatriculationNumber }}</p>
        <p><strong>Report Title:</strong> {{ .ReportTitle }}</p>
        <p><strong>Report Type:</strong> {{ .ReportType.Name }}</p>
        {{ if .SeminarDate }}<p><strong>Seminar Date:</strong> {{ .SeminarDate }}</p>{{ end }}
        {{ if .SeminarTime }}<p><strong>Seminar Time:</strong> {{ .SeminarTime }}</p>{{ end }}
    </div>
    <table>
        <tr><th>Section</th><th>Score</th><th>Max</th><th>Feedback</th></tr>
        {{ range .Scores }}
        <tr>
            <td>{{ .Rubric.SectionName }}</td>
            <td class="score">{{ pts .Score }}</td>
            <td>{{ pts .Rubric.MaxPoints }}</td>
            <td>{{ .Feedback }}</td>
        </tr>
        {{ end }}
    </table>
    <p class="total"><strong>Total:</strong> <span class="score">{{ pts .TotalScore }}</span> / {{ pts .MaxPossibleScore }}</p>
    <p class="meta">Method: {{ .Method }} &middot; Created: {{ .CreatedAt.Format "2006-01-02 15:04" }}</p>
</body>
</html>
`))

// RenderHTML requires the evaluation to carry its resolved associations,
// which the store's read-back guarantees.
func RenderHTML(ev evaluation.Evaluation) ([]byte, error) {
	if ev.Student == nil || ev.ReportType == nil {
		return nil, errors.New("evaluation missing resolved associations")
	}
	var buf bytes.Buffer
	if err := reportTmpl.Execute(&buf, ev); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
