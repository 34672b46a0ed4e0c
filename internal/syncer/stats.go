package syncer

import (
	"context"
	"sync"

	"github.com/dori/taskdeck/internal/health"
	"github.com/dori/taskdeck/internal/model"
)

// StatsService is the remote side of a StatsBoard
type StatsService interface {
	Service() string
	Get(ctx context.Context) (model.StatsSnapshot, error)
}

// StatsBoard keeps the latest snapshot from the stats service
type StatsBoard struct {
	api    StatsService
	health *health.Tracker

	mu   sync.Mutex
	snap model.StatsSnapshot
	has  bool
}

func NewStatsBoard(api StatsService, tracker *health.Tracker) *StatsBoard {
	if tracker == nil {
		tracker = health.NewTracker(api.Service())
	}
	return &StatsBoard{api: api, health: tracker}
}

func (b *StatsBoard) Health() *health.Tracker {
	return b.health
}

// Load fetches a snapshot; on failure the previous one stays
func (b *StatsBoard) Load(ctx context.Context) error {
	snap, err := b.api.Get(ctx)
	b.health.Observe(err)
	if err != nil {
		return err
	}

	b.mu.Lock()
	b.snap = snap
	b.has = true
	b.mu.Unlock()
	return nil
}

// Snapshot returns the latest snapshot and whether one was ever fetched
func (b *StatsBoard) Snapshot() (model.StatsSnapshot, bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.snap, b.has
}

// UsersDependency is the user service's status as seen through the
// stats service. It is separate from the stats service's own status.
func (b *StatsBoard) UsersDependency() health.Status {
	snap, ok := b.Snapshot()
	switch {
	case !ok:
		return health.StatusChecking
	case snap.UsersMissing():
		return health.StatusOffline
	default:
		return health.StatusOnline
	}
}
