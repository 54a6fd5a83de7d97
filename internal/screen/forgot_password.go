package screen

import (
	"context"

	"github.com/basicauth/basicauth-go/internal/model"
)

const (
	msgPasswordReset       = "Password reset successful"
	msgPasswordResetFailed = "Failed to reset password"
)

type ForgotPasswordScreen struct {
	*base
	api API
}

func NewForgotPasswordScreen(parent context.Context, api API, n Notifier) *ForgotPasswordScreen {
	return &ForgotPasswordScreen{base: newBase(parent, n), api: api}
}

func (s *ForgotPasswordScreen) Submit(form model.ForgotPasswordRequest) (Result, error) {
	release, err := s.acquire()
	if err != nil {
		return Result{}, err
	}
	defer release()

	if res, ok := s.validate(form); !ok {
		return res, nil
	}

	if err := s.api.ForgotPassword(s.ctx, form); err != nil {
		return s.finish(failure(err, msgPasswordResetFailed))
	}

	return s.finish(Result{
		Notice: Notice{Kind: KindSuccess, Message: msgPasswordReset},
		Route:  RouteBack,
	})
}
