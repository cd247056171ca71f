package model

import "time"

// Role is the authorization role carried on a user's profile.
type Role string

const (
	RoleAdmin      Role = "admin"
	RoleInstructor Role = "instructor"
	RoleStudent    Role = "student"
)

// Valid reports whether r is one of the known roles.
func (r Role) Valid() bool {
	switch r {
	case RoleAdmin, RoleInstructor, RoleStudent:
		return true
	}
	return false
}

// User represents an account in the system
type User struct {
	ID           int64     `json:"id"`
	Username     string    `json:"username"`
	Email        string    `json:"email"`
	PasswordHash string    `json:"-"` // Do not expose password hash in JSON responses
	FirstName    string    `json:"first_name"`
	LastName     string    `json:"last_name"`
	CreatedAt    time.Time `json:"created_at"`
}

// DisplayName returns the full name, falling back to the username.
func (u *User) DisplayName() string {
	return DisplayName(u.FirstName, u.LastName, u.Username)
}

// DisplayName joins first and last name, falling back to username when both are empty.
func DisplayName(first, last, username string) string {
	switch {
	case first != "" && last != "":
		return first + " " + last
	case first != "":
		return first
	case last != "":
		return last
	}
	return username
}

// Profile is the one-to-one extension of User holding the role.
type Profile struct {
	ID     int64   `json:"id"`
	UserID int64   `json:"-"`
	Role   Role    `json:"role"`
	Phone  *string `json:"phone"`
}

// ProfileView is the combined user/profile representation served by /accounts/profile/.
type ProfileView struct {
	ID        int64   `json:"id"`
	Username  string  `json:"username"`
	Email     string  `json:"email"`
	FirstName string  `json:"first_name"`
	LastName  string  `json:"last_name"`
	Phone     *string `json:"phone"`
	Role      Role    `json:"role"`
}

// RegisterRequest is used for creating a new account
type RegisterRequest struct {
	Username  string `json:"username" binding:"required,max=150"`
	Email     string `json:"email" binding:"required,email"`
	Password  string `json:"password" binding:"required,min=8"`
	FirstName string `json:"first_name" binding:"max=150"`
	LastName  string `json:"last_name" binding:"max=150"`
	Role      Role   `json:"role" binding:"omitempty,lmsrole"`
	Phone     string `json:"phone" binding:"max=20"`
}

// LoginRequest accepts either an email or a username.
type LoginRequest struct {
	Email    string `json:"email"`
	Username string `json:"username"`
	Password string `json:"password" binding:"required"`
}

// UpdateProfileRequest carries a partial profile update. The role cannot be changed through it.
type UpdateProfileRequest struct {
	Email     *string `json:"email,omitempty" binding:"omitempty,email"`
	FirstName *string `json:"first_name,omitempty" binding:"omitempty,max=150"`
	LastName  *string `json:"last_name,omitempty" binding:"omitempty,max=150"`
	Phone     *string `json:"phone,omitempty" binding:"omitempty,max=20"`
}

type ChangePasswordRequest struct {
	OldPassword string `json:"old_password" binding:"required"`
	NewPassword string `json:"new_password" binding:"required,min=8"`
}

type ForgotPasswordRequest struct {
	Email string `json:"email" binding:"required,email"`
}

type ResetPasswordRequest struct {
	Token       string `json:"token" form:"token"`
	NewPassword string `json:"new_password"`
}

// AuthResult is returned by registration and login.
type AuthResult struct {
	User   *User
	Role   Role
	Tokens TokenPair
}

// TokenPair is the access/refresh token envelope.
type TokenPair struct {
	Access  string `json:"access"`
	Refresh string `json:"refresh"`
}

// CurrentUser is the lightweight identity returned by /protected/.
type CurrentUser struct {
	ID       int64  `json:"id"`
	Username string `json:"username"`
	Email    string `json:"email"`
	Role     *Role  `json:"role"`
}
