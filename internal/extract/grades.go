package extract

import (
	"strings"

	"studentcorner-backend/lib/htmlutil"

	"github.com/PuerkitoBio/goquery"
)

type GradeRecord struct {
	Semester    string `json:"semester"`
	MonthYear   string `json:"month_year"`
	SubjectCode string `json:"subject_code"`
	SubjectName string `json:"subject_name"`
	Credit      string `json:"credit"`
	Grade       string `json:"grade"`
	GradePoints string `json:"grade_points"`
	Result      string `json:"result"`
}

type GradeReport struct {
	// Cgpa is nil when the report does not show one.
	Cgpa     *string       `json:"cgpa"`
	Subjects []GradeRecord `json:"subjects"`
}

// Grades extracts the exam mark details report with the overall CGPA.
type Grades struct{}

func skipGradeRow(semester, code string) bool {
	return semester == "" || code == "" ||
		semester == "Semester" || code == "Subject Code"
}

func findCgpa(doc *goquery.Document) *string {
	var cgpa *string
	doc.Find("div").EachWithBreak(func(_ int, div *goquery.Selection) bool {
		if !strings.Contains(htmlutil.OwnText(div.Get(0)), "CGPA") {
			return true
		}
		text := htmlutil.CleanText(htmlutil.GetText(div.Get(0)))
		text = strings.ReplaceAll(text, "CGPA", "")
		text = strings.TrimSpace(strings.ReplaceAll(text, ":", ""))
		cgpa = &text
		return false
	})
	return cgpa
}

func (Grades) Extract(markup string) Result {
	report := GradeReport{Subjects: []GradeRecord{}}

	doc, shaped := rows(markup, 8, func(r row) {
		semester := r.cell(0, "")
		code := r.cell(2, "")
		if skipGradeRow(semester, code) {
			return
		}
		report.Subjects = append(report.Subjects, GradeRecord{
			Semester:    semester,
			MonthYear:   r.cell(1, ""),
			SubjectCode: code,
			SubjectName: r.cell(3, ""),
			Credit:      r.cell(4, "0"),
			Grade:       r.cell(5, ""),
			GradePoints: r.cell(6, "0"),
			Result:      r.cell(7, ""),
		})
	})
	if doc != nil {
		report.Cgpa = findCgpa(doc)
	}

	return Result{Data: report, Degraded: !shaped}
}
