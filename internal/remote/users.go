package remote

import (
	"context"
	"fmt"
	"net/http"

	"github.com/dori/taskdeck/internal/mapper"
	"github.com/dori/taskdeck/internal/model"
)

// UserAPI is the user directory service
type UserAPI struct {
	c *Client
}

// NewUserAPI wraps a client pointed at the user service
func NewUserAPI(c *Client) *UserAPI {
	return &UserAPI{c: c}
}

// Service returns the service name used in messages
func (a *UserAPI) Service() string {
	return a.c.Service()
}

// List returns all users in backend order
func (a *UserAPI) List(ctx context.Context) ([]model.User, error) {
	var ws []mapper.UserWire
	if _, err := a.c.Do(ctx, OpList, http.MethodGet, "/users", nil, &ws); err != nil {
		return nil, err
	}
	return mapper.ToUsers(ws), nil
}

// Create posts a new user. A duplicate username or email fails with
// KindConflict.
func (a *UserAPI) Create(ctx context.Context, d model.UserDraft) (model.User, error) {
	var w mapper.UserWire
	ok, err := a.c.Do(ctx, OpCreate, http.MethodPost, "/user", mapper.NewUser(d), &w)
	if err != nil {
		return model.User{}, err
	}
	if !ok || w.ID == nil {
		return model.User{}, &Error{Service: a.c.service, Op: OpCreate, Kind: KindUnreachable, Err: errNoRecord}
	}
	return mapper.ToUser(w), nil
}

// Delete removes a user
func (a *UserAPI) Delete(ctx context.Context, id int64) error {
	_, err := a.c.Do(ctx, OpDelete, http.MethodDelete, fmt.Sprintf("/user/%d", id), nil, nil)
	return err
}

// Ping is a lightweight reachability probe with the shorter health bound
func (a *UserAPI) Ping(ctx context.Context) error {
	_, err := a.c.Do(ctx, OpHealth, http.MethodGet, "/users", nil, nil)
	return err
}
