package task

import "strings"

// DeriveView returns, in list order, the tasks whose description contains
// search (case-insensitive) and whose completion state matches mode. The
// input slice is never modified and the result never aliases it.
func DeriveView(tasks []Task, mode FilterMode, search string) []Task {
	needle := strings.ToLower(search)
	view := make([]Task, 0, len(tasks))
	for _, t := range tasks {
		if !mode.matches(t) {
			continue
		}
		if needle != "" && !strings.Contains(strings.ToLower(t.Description), needle) {
			continue
		}
		view = append(view, t)
	}
	return view
}

// Stats summarizes completion across the whole list.
type Stats struct {
	Total     int
	Completed int
	Pending   int
}

// Percent is the completed share, 0..100.
func (s Stats) Percent() int {
	if s.Total == 0 {
		return 0
	}
	return (s.Completed * 100) / s.Total
}

// Ratio is the completed share, 0..1, for progress bars.
func (s Stats) Ratio() float64 {
	if s.Total == 0 {
		return 0
	}
	return float64(s.Completed) / float64(s.Total)
}

func computeStats(tasks []Task) Stats {
	st := Stats{Total: len(tasks)}
	for _, t := range tasks {
		if t.Completed {
			st.Completed++
		}
	}
	st.Pending = st.Total - st.Completed
	return st
}
