package model

// User represents an entry in the user directory
type User struct {
	ID         int64
	Username   string
	Email      string
	FullName   string
	Role       string
	Department string
	Active     bool
}

// DisplayName returns the full name, falling back to the username
func (u *User) DisplayName() string {
	if u.FullName != "" {
		return u.FullName
	}
	return u.Username
}

// UserDraft is the form input for a new user. Only Username and Email
// are required; the rest are defaulted when the user is created.
type UserDraft struct {
	Username   string
	Email      string
	FullName   string
	Role       string
	Department string
}
