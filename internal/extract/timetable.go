package extract

type TimetableRow struct {
	Day string `json:"day"`
	// Periods has one entry per period column, free periods are empty.
	Periods []string `json:"periods"`
}

type Timetable struct{}

func skipTimetableRow(day string) bool {
	return day == "" || day == "Day" || day == "Days"
}

func (Timetable) Extract(markup string) Result {
	days := []TimetableRow{}

	_, shaped := rows(markup, 2, func(r row) {
		day := r[0]
		if skipTimetableRow(day) {
			return
		}
		periods := make([]string, 0, len(r)-1)
		for _, period := range r[1:] {
			if period == "-" {
				period = ""
			}
			periods = append(periods, period)
		}
		days = append(days, TimetableRow{Day: day, Periods: periods})
	})

	return Result{Data: days, Degraded: !shaped}
}
