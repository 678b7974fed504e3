// Package extract turns report markup into structured records.
//
// Extraction is row-shape driven: a table row is first checked against the
// minimum amount of cells a record needs, then against the header and
// footnote texts the portal is known to render, and only then projected into
// a record. A row that does not fit is skipped, it never aborts the rest.
package extract

import (
	"strings"

	"studentcorner-backend/lib/htmlutil"

	"github.com/PuerkitoBio/goquery"
)

// Result is the structured form of a report. Data is nil for reports without
// a structured form. Degraded is set when the markup did not have the
// expected shape, Data then holds whatever could be salvaged.
type Result struct {
	Data     any
	Degraded bool
}

type Extractor interface {
	Extract(markup string) Result
}

type ExtractorFunc func(markup string) Result

func (f ExtractorFunc) Extract(markup string) Result {
	return f(markup)
}

// Passthrough is used for reports that have no structured form, the raw
// markup is the whole result.
type Passthrough struct{}

func (Passthrough) Extract(string) Result {
	return Result{}
}

var registry = map[int]Extractor{
	1:  Profile{},
	3:  Attendance{},
	6:  Grades{},
	10: Timetable{},
}

// For returns the extractor of a report selector.
func For(selector int) Extractor {
	extractor, ok := registry[selector]
	if !ok {
		return Passthrough{}
	}
	return extractor
}

// Structured reports whether selector has an extractor other than Passthrough.
func Structured(selector int) bool {
	_, ok := registry[selector]
	return ok
}

type row []string

// cell returns the i-th cell or fallback when the row is too short.
func (r row) cell(i int, fallback string) string {
	if i < len(r) {
		return r[i]
	}
	return fallback
}

// rows parses markup and calls fn with the cells of every table row that has
// at least minCells cells. It returns false when the document has no such row.
func rows(markup string, minCells int, fn func(r row)) (doc *goquery.Document, shaped bool) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(markup))
	if err != nil {
		return nil, false
	}

	// every tr is visited once, even inside nested tables
	doc.Find("table tr").Each(func(_ int, tr *goquery.Selection) {
		cells := htmlutil.Cells(tr)
		if len(cells) < minCells {
			return
		}
		shaped = true
		fn(row(cells))
	})
	return doc, shaped
}
