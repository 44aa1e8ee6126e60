package selection

import "github.com/Web-Star-Studio/daton-esg-insight-sub000/internal/catalog"

// Summary reports how many of a standard's questions are selected.
type Summary struct {
	Selected int
	Total    int
}

// Summarize counts the selected questions under items.
func Summarize(items []catalog.StandardItem, set Set) Summary {
	questionIDs := catalog.CollectQuestionIDs(items)
	selected := 0
	for _, questionID := range questionIDs {
		if set.Contains(questionID) {
			selected++
		}
	}
	return Summary{Selected: selected, Total: len(questionIDs)}
}

// BulkToggleAvailable reports whether a select-all control makes sense.
// Standards without questions offer none.
func (summary Summary) BulkToggleAvailable() bool {
	return summary.Total > 0
}

// AllSelected reports whether every question is selected.
func (summary Summary) AllSelected() bool {
	return summary.Total > 0 && summary.Selected == summary.Total
}

// Ratio returns the selected fraction, or zero when there are no questions.
func (summary Summary) Ratio() float64 {
	if summary.Total == 0 {
		return 0
	}
	return float64(summary.Selected) / float64(summary.Total)
}
