package domain

import "time"

const (
	RoleAdmin = "admin"
	RoleUser  = "user"
)

// ValidRole reports whether role is one of the roles the service grants.
func ValidRole(role string) bool {
	return role == RoleAdmin || role == RoleUser
}

// User is a registered account. PasswordHash never leaves the service.
type User struct {
	ID           string    `json:"id"`
	Username     string    `json:"username"`
	PasswordHash string    `json:"-"`
	Role         string    `json:"role"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// PublicUser is the view of a User that is safe to return to clients.
type PublicUser struct {
	ID       string `json:"id"`
	Username string `json:"username"`
	Role     string `json:"role"`
}

// Public strips everything but the identity fields.
func (u *User) Public() PublicUser {
	return PublicUser{ID: u.ID, Username: u.Username, Role: u.Role}
}

// UserUpdate describes an explicit change to a user. Nil fields are left
// untouched. Password is plaintext and is always rehashed before storage.
type UserUpdate struct {
	Username *string
	Role     *string
	Password *string
}

// Empty reports whether the update changes nothing.
func (u UserUpdate) Empty() bool {
	return u.Username == nil && u.Role == nil && u.Password == nil
}
