package syncer

import (
	"github.com/dori/taskdeck/internal/model"
)

// Filter projects tasks through mode. The result is a new slice that
// keeps the relative order of tasks; it never aliases the input.
func Filter(tasks []model.Task, mode model.FilterMode) []model.Task {
	out := make([]model.Task, 0, len(tasks))
	for _, t := range tasks {
		if mode.Matches(t) {
			out = append(out, t)
		}
	}
	return out
}
