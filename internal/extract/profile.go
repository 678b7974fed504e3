package extract

import "strings"

type ProfileField struct {
	Label string `json:"label"`
	Value string `json:"value"`
}

// Profile extracts the label/value pairs of the profile report. Labels keep
// their first position, a repeated label takes the last value.
type Profile struct{}

func (Profile) Extract(markup string) Result {
	fields := []ProfileField{}
	index := map[string]int{}

	_, shaped := rows(markup, 2, func(r row) {
		label := strings.TrimSpace(strings.ReplaceAll(r[0], ":", ""))
		value := r[1]
		if label == "" || value == "" {
			return
		}
		if i, seen := index[label]; seen {
			fields[i].Value = value
			return
		}
		index[label] = len(fields)
		fields = append(fields, ProfileField{Label: label, Value: value})
	})

	return Result{Data: fields, Degraded: !shaped}
}
