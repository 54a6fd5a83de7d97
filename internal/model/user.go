package model

import (
	"errors"
	"fmt"
	"strings"
	"time"
	_ "time/tzdata"
)

// CreatedAtLayout is the display pattern for a user's creation time,
// e.g. "Mar 05, 2024 02:30 PM".
const CreatedAtLayout = "Jan 02, 2006 03:04 PM"

var ErrInvalidTimestamp = errors.New("invalid timestamp")

// createdAtLayouts are the ISO-8601 forms accepted for CreatedAt, tried in
// order. An explicit offset is always required.
var createdAtLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04Z07:00",
}

// User represents a user in the database.
type User struct {
	ID                 int64     `db:"id"`
	Username           string    `db:"username"`
	Email              string    `db:"email"`
	PasswordHash       string    `db:"password_hash"`
	SecurityQuestion   string    `db:"security_question"`
	SecurityAnswerHash string    `db:"security_answer_hash"`
	CreatedAt          time.Time `db:"created_at"`
}

// RegisterRequest represents a user registration request.
type RegisterRequest struct {
	Username         string `json:"username" validate:"required"`
	Email            string `json:"email" validate:"required"`
	Password         string `json:"password" validate:"required"`
	SecurityQuestion string `json:"securityQuestion" validate:"required"`
	SecurityAnswer   string `json:"securityAnswer" validate:"required"`
}

// LoginRequest represents a user login request.
type LoginRequest struct {
	Email    string `json:"email" validate:"required"`
	Password string `json:"password" validate:"required"`
}

// LoginResponse carries the bearer token issued on a successful login.
type LoginResponse struct {
	Token string `json:"token"`
}

// ForgotPasswordRequest resets a password after the security answer is verified.
type ForgotPasswordRequest struct {
	Email          string `json:"email" validate:"required"`
	SecurityAnswer string `json:"securityAnswer" validate:"required"`
	NewPassword    string `json:"newPassword" validate:"required"`
}

// UserResponse represents user data safe for API responses (no sensitive fields).
// CreatedAt is an ISO-8601 timestamp with offset.
type UserResponse struct {
	ID        int64  `json:"id"`
	Username  string `json:"username"`
	Email     string `json:"email"`
	CreatedAt string `json:"createdAt"`
}

// ErrorResponse is the JSON body of every non-2xx API response.
type ErrorResponse struct {
	Error string `json:"error"`
}

// ToResponse converts a stored user into its wire form.
func (u *User) ToResponse() UserResponse {
	return UserResponse{
		ID:        u.ID,
		Username:  u.Username,
		Email:     u.Email,
		CreatedAt: u.CreatedAt.UTC().Format(time.RFC3339),
	}
}

// FormatCreatedAt parses CreatedAt, converts it to loc and renders it with
// CreatedAtLayout. A nil loc means time.Local.
func (u UserResponse) FormatCreatedAt(loc *time.Location) (string, error) {
	if loc == nil {
		loc = time.Local
	}

	t, err := parseCreatedAt(u.CreatedAt)
	if err != nil {
		return "", fmt.Errorf("%w %q: %v", ErrInvalidTimestamp, u.CreatedAt, err)
	}

	return t.In(loc).Format(CreatedAtLayout), nil
}

// parseCreatedAt accepts an offset timestamp optionally followed by a
// bracketed zone ID, e.g. "2024-03-05T15:30:00+01:00[Europe/Paris]". The
// offset fixes the instant; the zone ID must name a known location.
func parseCreatedAt(s string) (time.Time, error) {
	if i := strings.IndexByte(s, '['); i >= 0 {
		zone, ok := strings.CutSuffix(s[i+1:], "]")
		if !ok || zone == "" {
			return time.Time{}, fmt.Errorf("malformed zone suffix %q", s[i:])
		}
		if _, err := time.LoadLocation(zone); err != nil {
			return time.Time{}, err
		}
		s = s[:i]
	}

	var err error
	for _, layout := range createdAtLayouts {
		var t time.Time
		if t, err = time.Parse(layout, s); err == nil {
			return t, nil
		}
	}
	return time.Time{}, err
}

// FormattedCreatedAt renders CreatedAt in the system's local time zone.
func (u UserResponse) FormattedCreatedAt() (string, error) {
	return u.FormatCreatedAt(time.Local)
}
