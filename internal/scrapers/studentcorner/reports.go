package studentcorner

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strconv"
)

const report_session_fetch = "session.fetch"

// ReportResourcesPath serves every report that is not bound to its own page.
const ReportResourcesPath = "students/report/studentreportresources.jsp"

// ErrLoginRedirect is returned when the portal answers a report request with
// its login page, which means its side of the session is gone.
var ErrLoginRedirect = errors.New("studentcorner: redirected to login page")

// UpstreamError is a non-2xx answer from the portal.
type UpstreamError struct {
	Endpoint string
	Status   int
}

func (e *UpstreamError) Error() string {
	return fmt.Sprintf("studentcorner: %s answered with status %d", e.Endpoint, e.Status)
}

// ReportInfo describes a page the portal renders for a report selector.
type ReportInfo struct {
	Selector int    `json:"selector"`
	Name     string `json:"name"`
	Category string `json:"category"`
	// Route is the path under /api that exposes the report, ex. "student/attendance".
	Route string `json:"route"`
	// Path is relative to the portal base url.
	Path string `json:"-"`
}

// Reports lists every report page known to exist on the portal. Selectors
// outside of it are still fetchable through ReportResourcesPath.
var Reports = []ReportInfo{
	{Selector: 1, Name: "Profile", Category: "academic", Route: "student/profile", Path: ReportResourcesPath},
	{Selector: 2, Name: "Student Wise Subjects", Category: "academic", Route: "student/subjects", Path: ReportResourcesPath},
	{Selector: 3, Name: "Attendance Details", Category: "academic", Route: "student/attendance", Path: ReportResourcesPath},
	{Selector: 5, Name: "Internal Mark Details", Category: "academic", Route: "student/internal-marks", Path: ReportResourcesPath},
	{Selector: 6, Name: "Exam Mark Details / CGPA", Category: "academic", Route: "student/cgpa", Path: ReportResourcesPath},
	{Selector: 10, Name: "Time Table", Category: "academic", Route: "student/timetable", Path: ReportResourcesPath},
	{Selector: 15, Name: "Current Semester Results", Category: "academic", Route: "student/current-semester-results", Path: ReportResourcesPath},
	{Selector: 22, Name: "Earlier Internal Marks", Category: "academic", Route: "student/earlier-internal-marks", Path: ReportResourcesPath},
	{Selector: 53, Name: "OD/ML Details", Category: "academic", Route: "student/od-ml-details", Path: ReportResourcesPath},
	{Selector: 33, Name: "Student Attendance Marking", Category: "academic", Route: "student/student-attendance-marking", Path: "students/transaction/studentattendance.jsp"},

	{Selector: 7, Name: "Fee Paid Details", Category: "finance", Route: "finance/fee-paid", Path: ReportResourcesPath},
	{Selector: 8, Name: "Fee Due Details", Category: "finance", Route: "finance/fee-due", Path: "students/transaction/feeduegroups.jsp"},
	{Selector: 26, Name: "Payment Verification", Category: "finance", Route: "finance/payment-verification", Path: "students/onlinepayments/onlinepaymentreconcilation.jsp"},
	{Selector: 27, Name: "Payment Acknowledgment", Category: "finance", Route: "finance/payment-acknowledgment", Path: "students/report/receiptgeneration.jsp"},
	{Selector: 54, Name: "Bank Account Details", Category: "finance", Route: "finance/bank-details", Path: "students/transaction/studentbankdetails.jsp"},

	{Selector: 13, Name: "Exam Registration", Category: "examination", Route: "exam/registration", Path: "students/transaction/semesterexamapplicationinstruction.jsp"},
	{Selector: 159, Name: "Exam Registration Details", Category: "examination", Route: "exam/registration-details", Path: "students/report/examaplicationreport.jsp"},

	{Selector: 31, Name: "Hostel Booking", Category: "hostel", Route: "hostel/booking", Path: "students/registrations/hostelregistrationinstruction.jsp"},
	{Selector: 21, Name: "Room Details (Hostel)", Category: "hostel", Route: "hostel/room-details", Path: ReportResourcesPath},
	{Selector: 19, Name: "Room Request", Category: "hostel", Route: "hostel/room-request", Path: "students/transaction/hostelroomrequest.jsp"},
	{Selector: 32, Name: "Room Transfer", Category: "hostel", Route: "hostel/room-transfer", Path: "students/transaction/hostelroomtransfer.jsp"},

	{Selector: 51, Name: "Transport Registration", Category: "transport", Route: "transport/registration", Path: "students/registrations/transportregistrationinstructions.jsp"},
	{Selector: 52, Name: "Transport Acknowledgment", Category: "transport", Route: "transport/acknowledgment", Path: "students/report/transportconfirmationprint.jsp"},

	{Selector: 39, Name: "Course Registration", Category: "course_registration", Route: "course/registration", Path: "students/registrations/studentscourseregistrationinstruction2022.jsp"},
	{Selector: 42, Name: "Course Registration Cancellation", Category: "course_registration", Route: "course/registration-cancellation", Path: "students/registrations/studentcourseregistrationcancellation.jsp"},
	{Selector: 152, Name: "Minor Program Registration", Category: "course_registration", Route: "course/minor-registration", Path: "students/registrations/minorregistrationinstruction.jsp"},

	{Selector: 47, Name: "SAP Details", Category: "sap", Route: "sap/details", Path: ReportResourcesPath},
	{Selector: 43, Name: "SAP Process", Category: "sap", Route: "sap/process", Path: "students/registrations/sapregistrationinstruction.jsp"},
	{Selector: 46, Name: "SAP Withdraw", Category: "sap", Route: "sap/withdraw", Path: "students/registrations/sapwithdraw.jsp"},
	{Selector: 48, Name: "SAP Attachments", Category: "sap", Route: "sap/attachments", Path: "students/registrations/sapattachfiles.jsp"},
	{Selector: 49, Name: "SAP Feedback", Category: "sap", Route: "sap/feedback", Path: "students/registrations/sapfeedback.jsp"},

	{Selector: 9, Name: "End Semester Feedback", Category: "feedback", Route: "feedback/end-semester", Path: "students/transaction/subjectwisefeedback.jsp"},

	{Selector: 107, Name: "Announcements", Category: "other", Route: "announcements", Path: "students/report/announcements.jsp"},
	{Selector: 17, Name: "Change Password", Category: "other", Route: "change-password", Path: "students/transaction/changepassoword.jsp"},
}

// LookupReport returns the catalog entry of selector, unknown selectors get a
// generic entry served by ReportResourcesPath.
func LookupReport(selector int) (ReportInfo, bool) {
	for _, info := range Reports {
		if info.Selector == selector {
			return info, true
		}
	}
	return ReportInfo{
		Selector: selector,
		Name:     fmt.Sprintf("Report %d", selector),
		Path:     ReportResourcesPath,
	}, false
}

// Fetch posts `ids=<selector>` (plus extra) to the page serving selector and
// returns the raw markup.
func (s *Session) Fetch(ctx context.Context, selector int, extra url.Values) (string, error) {
	info, _ := LookupReport(selector)

	form := url.Values{}
	for key, values := range extra {
		form[key] = append([]string(nil), values...)
	}
	form.Set("ids", strconv.Itoa(selector))

	s.tel.ReportDebug(report_session_fetch, selector, info.Path)

	res, err := s.http.R().
		SetContext(ctx).
		SetHeader("Referer", s.BaseUrl.String()+"/").
		SetFormDataFromValues(form).
		Post("/" + info.Path)
	if err != nil {
		s.tel.ReportBroken(report_session_fetch, err, info.Path)
		return "", fmt.Errorf("studentcorner: fetch %s: %w", info.Path, err)
	}
	if !res.IsSuccess() {
		err := &UpstreamError{Endpoint: info.Path, Status: res.StatusCode()}
		s.tel.ReportWarning(report_session_fetch, err)
		return "", err
	}
	if isLoginUrl(finalUrl(res)) {
		s.tel.ReportWarning(report_session_fetch, ErrLoginRedirect, info.Path)
		return "", ErrLoginRedirect
	}

	return res.String(), nil
}
