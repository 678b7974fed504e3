package htmlutil

import (
	"strings"
	"testing"

	"github.com/PuerkitoBio/goquery"
	"github.com/stretchr/testify/require"
)

func TestCleanText(t *testing.T) {
	require.Equal(t, "Data Structures", CleanText("  Data\n\t Structures  "))
	require.Equal(t, "", CleanText(" \n "))
}

func TestCellsAndOwnText(t *testing.T) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(`
		<table><tr><td> CS101 </td><td>Data <b>Structures</b></td></tr></table>
		<div>CGPA : 8.5<span>ignored</span></div>`))
	require.NoError(t, err)

	require.Equal(t, []string{"CS101", "Data Structures"}, Cells(doc.Find("tr").First()))

	div := doc.Find("div").Get(0)
	require.Equal(t, "CGPA : 8.5", CleanText(OwnText(div)))
	require.Equal(t, "CGPA : 8.5ignored", CleanText(GetText(div)))
}
