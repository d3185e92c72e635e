package models

// SubtaskProgress is the share of completed subtasks as a percentage
// rounded half up, or 0 when there are no subtasks.
func SubtaskProgress(subtasks []SubTask) int {
	total := len(subtasks)
	if total == 0 {
		return 0
	}

	completed := 0
	for _, st := range subtasks {
		if st.Completed {
			completed++
		}
	}
	return (200*completed + total) / (2 * total)
}

func ClampProgress(progress int) int {
	switch {
	case progress < 0:
		return 0
	case progress > 100:
		return 100
	default:
		return progress
	}
}
