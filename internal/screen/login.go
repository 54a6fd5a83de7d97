package screen

import (
	"context"

	"github.com/basicauth/basicauth-go/internal/model"
	"github.com/basicauth/basicauth-go/internal/session"
)

const msgLoginFailed = "Login failed"

// LoginScreen exchanges credentials for a token and stores it.
type LoginScreen struct {
	*base
	api   API
	store session.Store
}

func NewLoginScreen(parent context.Context, api API, store session.Store, n Notifier) *LoginScreen {
	return &LoginScreen{base: newBase(parent, n), api: api, store: store}
}

// Submit logs in. On success the token is stored and the result routes to
// the user list; on any failure the store is left untouched.
func (s *LoginScreen) Submit(form model.LoginRequest) (Result, error) {
	release, err := s.acquire()
	if err != nil {
		return Result{}, err
	}
	defer release()

	if res, ok := s.validate(form); !ok {
		return res, nil
	}

	resp, err := s.api.Login(s.ctx, form)
	if err != nil {
		return s.finish(failure(err, msgLoginFailed))
	}

	if s.ctx.Err() != nil {
		return Result{}, ErrClosed
	}
	if err := s.store.Set(s.ctx, resp.Token); err != nil {
		return s.finish(failure(err, msgLoginFailed))
	}

	return s.finish(Result{Route: RouteUsers})
}
