package extract

import (
	"fmt"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/require"
)

func table(rows ...[]string) string {
	var out strings.Builder
	out.WriteString("<html><body><table>")
	for _, r := range rows {
		out.WriteString("<tr>")
		for _, c := range r {
			fmt.Fprintf(&out, "<td>%s</td>", c)
		}
		out.WriteString("</tr>")
	}
	out.WriteString("</table></body></html>")
	return out.String()
}

func requireDiff(t *testing.T, expected, actual any) {
	t.Helper()
	if diff := cmp.Diff(expected, actual); diff != "" {
		t.Fatalf("unexpected result (-want +got):\n%s", diff)
	}
}

func TestAttendanceSingleRow(t *testing.T) {
	result := Attendance{}.Extract(table(
		[]string{"CS101", "Data Structures", "40", "38", "2", "0", "95", "0", "95"},
	))
	require.False(t, result.Degraded)
	requireDiff(t, []AttendanceRecord{{
		SubjectCode:          "CS101",
		SubjectName:          "Data Structures",
		ClassesConducted:     "40",
		Present:              "38",
		Absent:               "2",
		OdMlTaken:            "0",
		PresentPercentage:    "95",
		OdMlApproved:         "0",
		AttendancePercentage: "95",
	}}, result.Data)
}

func TestAttendanceSkipsHeadersAndFootnotes(t *testing.T) {
	result := Attendance{}.Extract(table(
		[]string{"Subject Code", "Subject Name", "Conducted", "Present", "Absent", "OD/ML", "%", "Approved", "%"},
		[]string{"CS101", "Data Structures", "40", "38", "2", "0", "95", "0", "95"},
		[]string{"MA102", "Linear&nbsp;Algebra", "30", "24", "6", "2", "80", "2", "86.67"},
		[]string{"", "", "", "", "", "", "", "", ""},
		[]string{"For any discrepancy contact the office", "", "", "", "", "", "", "", ""},
		[]string{"too", "short"},
	))

	records := result.Data.([]AttendanceRecord)
	require.Len(t, records, 2)
	require.Equal(t, "CS101", records[0].SubjectCode)
	require.Equal(t, "Linear Algebra", records[1].SubjectName)
	require.Equal(t, "86.67", records[1].AttendancePercentage)
}

func TestAttendanceDegraded(t *testing.T) {
	result := Attendance{}.Extract("<html><body>Session expired</body></html>")
	require.True(t, result.Degraded)
	require.Empty(t, result.Data)

	result = Attendance{}.Extract("")
	require.True(t, result.Degraded)
}

func TestProfile(t *testing.T) {
	result := Profile{}.Extract(table(
		[]string{"Name :", "Jane Doe"},
		[]string{"Register No:", "AP123"},
		[]string{"Photo", ""},
		[]string{"", "orphan"},
		[]string{"single"},
		[]string{"Name", "J. Doe"},
	))
	require.False(t, result.Degraded)
	requireDiff(t, []ProfileField{
		{Label: "Name", Value: "J. Doe"},
		{Label: "Register No", Value: "AP123"},
	}, result.Data)
}

func TestGrades(t *testing.T) {
	markup := `<html><body>
		<div class="summary"><div>CGPA : 8.52</div></div>
		<table>
			<tr><td>Semester</td><td>Month/Year</td><td>Subject Code</td><td>Subject Name</td><td>Credit</td><td>Grade</td><td>Grade Points</td><td>Result</td></tr>
			<tr><td>1</td><td>Dec 2023</td><td>CS101</td><td>Data Structures</td><td>4</td><td>A</td><td>9</td><td>P</td></tr>
			<tr><td>1</td><td>Dec 2023</td><td></td><td>Orphan</td><td>4</td><td>A</td><td>9</td><td>P</td></tr>
			<tr><td>2</td><td>May 2024</td><td>MA102</td><td>Linear Algebra</td><td>3</td><td>B+</td><td>8</td><td>P</td></tr>
		</table>
	</body></html>`

	result := Grades{}.Extract(markup)
	require.False(t, result.Degraded)

	report := result.Data.(GradeReport)
	require.NotNil(t, report.Cgpa)
	require.Equal(t, "8.52", *report.Cgpa)
	requireDiff(t, []GradeRecord{
		{Semester: "1", MonthYear: "Dec 2023", SubjectCode: "CS101", SubjectName: "Data Structures", Credit: "4", Grade: "A", GradePoints: "9", Result: "P"},
		{Semester: "2", MonthYear: "May 2024", SubjectCode: "MA102", SubjectName: "Linear Algebra", Credit: "3", Grade: "B+", GradePoints: "8", Result: "P"},
	}, report.Subjects)
}

func TestGradesWithoutCgpa(t *testing.T) {
	result := Grades{}.Extract(table(
		[]string{"1", "Dec 2023", "CS101", "Data Structures", "4", "A", "9", "P"},
	))
	report := result.Data.(GradeReport)
	require.Nil(t, report.Cgpa)
	require.Len(t, report.Subjects, 1)
}

func TestTimetable(t *testing.T) {
	result := Timetable{}.Extract(table(
		[]string{"Day", "09:00", "10:00", "11:00"},
		[]string{"Monday", "CS101", "-", "MA102"},
		[]string{"Tuesday", "", "PH103", "-"},
		[]string{"Days", "x"},
	))
	require.False(t, result.Degraded)
	requireDiff(t, []TimetableRow{
		{Day: "Monday", Periods: []string{"CS101", "", "MA102"}},
		{Day: "Tuesday", Periods: []string{"", "PH103", ""}},
	}, result.Data)
}

func TestNestedTablesVisitRowsOnce(t *testing.T) {
	inner := table([]string{"CS101", "Data Structures", "40", "38", "2", "0", "95", "0", "95"})
	markup := fmt.Sprintf("<table><tr><td>%s</td></tr></table>", inner)

	records := Attendance{}.Extract(markup).Data.([]AttendanceRecord)
	require.Len(t, records, 1)
}

func TestRegistry(t *testing.T) {
	require.IsType(t, Profile{}, For(1))
	require.IsType(t, Attendance{}, For(3))
	require.IsType(t, Grades{}, For(6))
	require.IsType(t, Timetable{}, For(10))
	require.IsType(t, Passthrough{}, For(5))
	require.True(t, Structured(3))
	require.False(t, Structured(107))

	result := For(107).Extract("<html>announcements</html>")
	require.Nil(t, result.Data)
	require.False(t, result.Degraded)
}
