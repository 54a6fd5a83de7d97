package screen

import (
	"context"
	"time"

	"github.com/basicauth/basicauth-go/internal/session"
)

const msgLoadUsersFailed = "Failed to load users"

// UserRow is one line of the user list, ready for display.
type UserRow struct {
	ID        int64
	Username  string
	Email     string
	CreatedAt string
}

// UsersResult is the outcome of loading the user list.
type UsersResult struct {
	Result
	Rows []UserRow
}

// UsersScreen lists all users using the stored token.
type UsersScreen struct {
	*base
	api   API
	store session.Store

	// Location used to display creation times. Nil means time.Local.
	Location *time.Location
}

func NewUsersScreen(parent context.Context, api API, store session.Store, n Notifier) *UsersScreen {
	return &UsersScreen{base: newBase(parent, n), api: api, store: store}
}

// Load fetches the list. A missing token is sent as an empty credential and
// left for the server to reject. A timestamp that fails to format is shown
// raw and reported, the rest of the list still renders.
func (s *UsersScreen) Load() (UsersResult, error) {
	release, err := s.acquire()
	if err != nil {
		return UsersResult{}, err
	}
	defer release()

	token, err := session.Token(s.ctx, s.store)
	if err != nil {
		res, ferr := s.finish(failure(err, msgLoadUsersFailed))
		return UsersResult{Result: res}, ferr
	}

	users, err := s.api.ListUsers(s.ctx, token)
	if err != nil {
		res, ferr := s.finish(failure(err, msgLoadUsersFailed))
		return UsersResult{Result: res}, ferr
	}

	rows := make([]UserRow, 0, len(users))
	var formatErr error
	for _, u := range users {
		created, err := u.FormatCreatedAt(s.Location)
		if err != nil {
			created = u.CreatedAt
			if formatErr == nil {
				formatErr = err
			}
		}
		rows = append(rows, UserRow{ID: u.ID, Username: u.Username, Email: u.Email, CreatedAt: created})
	}

	var res Result
	if formatErr != nil {
		res = failure(formatErr, msgLoadUsersFailed)
	}

	res, err = s.finish(res)
	if err != nil {
		return UsersResult{}, err
	}
	return UsersResult{Result: res, Rows: rows}, nil
}
