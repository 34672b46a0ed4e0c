package model

// StatsSnapshot is the aggregate computed by the stats service.
// The client only displays it.
type StatsSnapshot struct {
	TotalTodos     int
	CompletedTodos int
	PendingTodos   int
	CompletionRate float64 // percent, 0-100
	TotalUsers     int
}

// UsersMissing reports the placeholder the stats service returns when
// it could not reach the user service: zero users while todos exist.
func (s StatsSnapshot) UsersMissing() bool {
	return s.TotalUsers == 0 && s.TotalTodos > 0
}
