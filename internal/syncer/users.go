package syncer

import (
	"context"
	"strings"
	"sync"

	"github.com/dori/taskdeck/internal/health"
	"github.com/dori/taskdeck/internal/model"
	"github.com/dori/taskdeck/internal/remote"
)

// UserService is the remote side of a UserList
type UserService interface {
	Service() string
	List(ctx context.Context) ([]model.User, error)
	Create(ctx context.Context, d model.UserDraft) (model.User, error)
	Delete(ctx context.Context, id int64) error
	Ping(ctx context.Context) error
}

// UserList is the canonical user directory for one view
type UserList struct {
	api    UserService
	health *health.Tracker

	mu    sync.Mutex
	users []model.User
}

// NewUserList creates an empty list backed by api
func NewUserList(api UserService, tracker *health.Tracker) *UserList {
	if tracker == nil {
		tracker = health.NewTracker(api.Service())
	}
	return &UserList{api: api, health: tracker}
}

func (l *UserList) Health() *health.Tracker {
	return l.health
}

// Users returns a copy of the canonical list
func (l *UserList) Users() []model.User {
	l.mu.Lock()
	defer l.mu.Unlock()
	return append([]model.User(nil), l.users...)
}

// Find looks a user up by username, case-insensitively
func (l *UserList) Find(username string) (model.User, bool) {
	l.mu.Lock()
	defer l.mu.Unlock()
	for _, u := range l.users {
		if strings.EqualFold(u.Username, username) {
			return u, true
		}
	}
	return model.User{}, false
}

// Load replaces the list with the backend's, keeping it on failure
func (l *UserList) Load(ctx context.Context) error {
	users, err := l.api.List(ctx)
	l.health.Observe(err)
	if err != nil {
		return err
	}

	l.mu.Lock()
	l.users = users
	l.mu.Unlock()
	return nil
}

// Ping probes the service and updates connectivity only
func (l *UserList) Ping(ctx context.Context) error {
	err := l.api.Ping(ctx)
	l.health.Observe(err)
	return err
}

// Create validates d, posts it and appends the created user. A conflict
// comes back as a *DuplicateError and leaves the list alone.
func (l *UserList) Create(ctx context.Context, d model.UserDraft) (model.User, error) {
	d.Username = strings.TrimSpace(d.Username)
	d.Email = strings.TrimSpace(d.Email)
	d.FullName = strings.TrimSpace(d.FullName)
	d.Role = strings.TrimSpace(d.Role)
	d.Department = strings.TrimSpace(d.Department)
	if d.Username == "" || d.Email == "" {
		return model.User{}, &ValidationError{Message: "Please fill in both username and email"}
	}

	user, err := l.api.Create(ctx, d)
	l.health.Observe(err)
	if err != nil {
		if k, ok := remote.KindOf(err); ok && k == remote.KindConflict {
			return model.User{}, &DuplicateError{Fields: "username or email", Err: err}
		}
		return model.User{}, err
	}

	l.mu.Lock()
	l.users = append(l.users, user)
	l.mu.Unlock()
	return user, nil
}

// Delete removes the user once the backend confirms
func (l *UserList) Delete(ctx context.Context, id int64) error {
	l.mu.Lock()
	found := l.indexOf(id) >= 0
	l.mu.Unlock()
	if !found {
		return ErrNotFound
	}

	err := l.api.Delete(ctx, id)
	l.health.Observe(err)
	if err != nil {
		return err
	}

	l.mu.Lock()
	defer l.mu.Unlock()
	if i := l.indexOf(id); i >= 0 {
		l.users = append(l.users[:i], l.users[i+1:]...)
	}
	return nil
}

func (l *UserList) indexOf(id int64) int {
	for i := range l.users {
		if l.users[i].ID == id {
			return i
		}
	}
	return -1
}
