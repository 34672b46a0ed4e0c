package mapper

import (
	"github.com/dori/taskdeck/internal/model"
)

// StatsWire is the stats service response
type StatsWire struct {
	TotalTodos     int     `json:"totalTodos"`
	CompletedTodos int     `json:"completedTodos"`
	PendingTodos   int     `json:"pendingTodos"`
	CompletionRate float64 `json:"completionRate"`
	TotalUsers     int     `json:"totalUsers"`
}

func ToStats(w StatsWire) model.StatsSnapshot {
	return model.StatsSnapshot{
		TotalTodos:     w.TotalTodos,
		CompletedTodos: w.CompletedTodos,
		PendingTodos:   w.PendingTodos,
		CompletionRate: w.CompletionRate,
		TotalUsers:     w.TotalUsers,
	}
}

// FromStats is used by the fake stats service
func FromStats(s model.StatsSnapshot) StatsWire {
	return StatsWire{
		TotalTodos:     s.TotalTodos,
		CompletedTodos: s.CompletedTodos,
		PendingTodos:   s.PendingTodos,
		CompletionRate: s.CompletionRate,
		TotalUsers:     s.TotalUsers,
	}
}
