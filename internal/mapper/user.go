package mapper

import (
	"github.com/dori/taskdeck/internal/model"
)

// Defaults applied to optional user fields on creation
const (
	DefaultRole       = "Member"
	DefaultDepartment = "General"
)

// UserWire is a user as the user service sends and receives it
type UserWire struct {
	ID         *int64 `json:"id,omitempty"`
	Username   string `json:"username"`
	Email      string `json:"email"`
	FullName   string `json:"fullName"`
	Role       string `json:"role"`
	Department string `json:"department"`
	Active     bool   `json:"active"`
}

// ToUser maps a wire user to a local user
func ToUser(w UserWire) model.User {
	u := model.User{
		Username:   w.Username,
		Email:      w.Email,
		FullName:   w.FullName,
		Role:       w.Role,
		Department: w.Department,
		Active:     w.Active,
	}
	if w.ID != nil {
		u.ID = *w.ID
	}
	return u
}

// ToUsers maps a list response, preserving order
func ToUsers(ws []UserWire) []model.User {
	users := make([]model.User, 0, len(ws))
	for _, w := range ws {
		users = append(users, ToUser(w))
	}
	return users
}

// NewUser builds the create payload, filling in defaults for the
// optional fields. New users are sent as active.
func NewUser(d model.UserDraft) UserWire {
	w := UserWire{
		Username:   d.Username,
		Email:      d.Email,
		FullName:   d.FullName,
		Role:       d.Role,
		Department: d.Department,
		Active:     true,
	}
	if w.FullName == "" {
		w.FullName = d.Username
	}
	if w.Role == "" {
		w.Role = DefaultRole
	}
	if w.Department == "" {
		w.Department = DefaultDepartment
	}
	return w
}
