package remote

import (
	"context"
	"net/http"

	"github.com/dori/taskdeck/internal/mapper"
	"github.com/dori/taskdeck/internal/model"
)

// StatsAPI is the read-only statistics service
type StatsAPI struct {
	c *Client
}

func NewStatsAPI(c *Client) *StatsAPI {
	return &StatsAPI{c: c}
}

func (a *StatsAPI) Service() string {
	return a.c.Service()
}

// Get fetches the latest snapshot
func (a *StatsAPI) Get(ctx context.Context) (model.StatsSnapshot, error) {
	var w mapper.StatsWire
	if _, err := a.c.Do(ctx, OpGet, http.MethodGet, "/stats", nil, &w); err != nil {
		return model.StatsSnapshot{}, err
	}
	return mapper.ToStats(w), nil
}
