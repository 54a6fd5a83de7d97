// Package screen implements the four user-facing flows without any UI
// toolkit. A screen validates its form, issues at most one API call at a time
// and reports the outcome as a Notice plus an optional Route.
package screen

import (
	"context"
	"errors"
	"sync/atomic"

	"github.com/basicauth/basicauth-go/internal/client"
	"github.com/basicauth/basicauth-go/internal/model"
)

var (
	// ErrBusy is returned when Submit is called while a request is in flight.
	ErrBusy = errors.New("a request is already in flight")
	// ErrClosed is returned once the screen is closed; any result is discarded.
	ErrClosed = errors.New("screen closed")
)

const msgFillAllFields = "Please fill all fields"

// Kind classifies a Notice.
type Kind int

const (
	KindNone Kind = iota
	KindSuccess
	KindFailure
	KindValidation
)

func (k Kind) String() string {
	switch k {
	case KindSuccess:
		return "success"
	case KindFailure:
		return "failure"
	case KindValidation:
		return "validation"
	default:
		return "none"
	}
}

// Notice is a transient, non-blocking message for the user.
type Notice struct {
	Kind    Kind
	Message string
}

// Notifier shows notices to the user.
type Notifier interface {
	Notify(Notice)
}

// NotifierFunc adapts a function to Notifier.
type NotifierFunc func(Notice)

func (f NotifierFunc) Notify(n Notice) { f(n) }

// Route tells the host where to go after a submission.
type Route int

const (
	RouteNone Route = iota
	RouteUsers
	RouteBack
)

// Result is the outcome of one submission.
type Result struct {
	Notice Notice
	Route  Route
}

// API is the subset of the REST client the screens use.
type API interface {
	Register(ctx context.Context, req model.RegisterRequest) error
	Login(ctx context.Context, req model.LoginRequest) (model.LoginResponse, error)
	ForgotPassword(ctx context.Context, req model.ForgotPasswordRequest) error
	ListUsers(ctx context.Context, token string) ([]model.UserResponse, error)
}

// base carries the lifecycle shared by every screen: a context that dies
// with the screen and a single in-flight slot.
type base struct {
	ctx      context.Context
	cancel   context.CancelFunc
	notifier Notifier
	inFlight atomic.Bool
}

func newBase(parent context.Context, n Notifier) *base {
	ctx, cancel := context.WithCancel(parent)
	if n == nil {
		n = NotifierFunc(func(Notice) {})
	}
	return &base{ctx: ctx, cancel: cancel, notifier: n}
}

// Close cancels the in-flight request, if any. Its notice is never shown.
func (b *base) Close() {
	b.cancel()
}

// acquire claims the in-flight slot. The returned release must be called.
func (b *base) acquire() (func(), error) {
	if b.ctx.Err() != nil {
		return nil, ErrClosed
	}
	if !b.inFlight.CompareAndSwap(false, true) {
		return nil, ErrBusy
	}
	return func() { b.inFlight.Store(false) }, nil
}

// InFlight reports whether a request is running, e.g. to disable a button.
func (b *base) InFlight() bool {
	return b.inFlight.Load()
}

// validate emits the validation notice when form has empty required fields.
func (b *base) validate(form any) (Result, bool) {
	if err := model.Validate(form); err != nil {
		res := Result{Notice: Notice{Kind: KindValidation, Message: msgFillAllFields}}
		b.notifier.Notify(res.Notice)
		return res, false
	}
	return Result{}, true
}

// finish delivers res unless the screen was closed while the call ran.
func (b *base) finish(res Result) (Result, error) {
	if b.ctx.Err() != nil {
		return Result{}, ErrClosed
	}
	if res.Notice.Kind != KindNone {
		b.notifier.Notify(res.Notice)
	}
	return res, nil
}

// failure maps an API error to a notice: unsuccessful statuses get the
// screen's own message, everything else is shown as "Error: <cause>".
func failure(err error, statusMsg string) Result {
	if errors.Is(err, client.ErrStatus) {
		return Result{Notice: Notice{Kind: KindFailure, Message: statusMsg}}
	}
	return Result{Notice: Notice{Kind: KindFailure, Message: "Error: " + err.Error()}}
}
