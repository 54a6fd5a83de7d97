package screen

import (
	"context"

	"github.com/basicauth/basicauth-go/internal/model"
)

const (
	msgRegistered         = "Registration successful"
	msgRegistrationFailed = "Registration failed"
)

type RegisterScreen struct {
	*base
	api API
}

func NewRegisterScreen(parent context.Context, api API, n Notifier) *RegisterScreen {
	return &RegisterScreen{base: newBase(parent, n), api: api}
}

// Submit creates the account and routes back on success.
func (s *RegisterScreen) Submit(form model.RegisterRequest) (Result, error) {
	release, err := s.acquire()
	if err != nil {
		return Result{}, err
	}
	defer release()

	if res, ok := s.validate(form); !ok {
		return res, nil
	}

	if err := s.api.Register(s.ctx, form); err != nil {
		return s.finish(failure(err, msgRegistrationFailed))
	}

	return s.finish(Result{
		Notice: Notice{Kind: KindSuccess, Message: msgRegistered},
		Route:  RouteBack,
	})
}
