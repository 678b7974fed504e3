package extract

import "strings"

type AttendanceRecord struct {
	SubjectCode          string `json:"subject_code"`
	SubjectName          string `json:"subject_name"`
	ClassesConducted     string `json:"classes_conducted"`
	Present              string `json:"present"`
	Absent               string `json:"absent"`
	OdMlTaken            string `json:"od_ml_taken"`
	PresentPercentage    string `json:"present_percentage"`
	OdMlApproved         string `json:"od_ml_approved"`
	AttendancePercentage string `json:"attendance_percentage"`
}

type Attendance struct{}

func skipAttendanceRow(code string) bool {
	return code == "" ||
		code == "Subject Code" ||
		strings.HasPrefix(code, "For any")
}

func (Attendance) Extract(markup string) Result {
	records := []AttendanceRecord{}

	_, shaped := rows(markup, 9, func(r row) {
		code := r.cell(0, "")
		if skipAttendanceRow(code) {
			return
		}
		records = append(records, AttendanceRecord{
			SubjectCode:          code,
			SubjectName:          r.cell(1, ""),
			ClassesConducted:     r.cell(2, "0"),
			Present:              r.cell(3, "0"),
			Absent:               r.cell(4, "0"),
			OdMlTaken:            r.cell(5, "0"),
			PresentPercentage:    r.cell(6, "0"),
			OdMlApproved:         r.cell(7, "0"),
			AttendancePercentage: r.cell(8, "0"),
		})
	})

	return Result{Data: records, Degraded: !shaped}
}
