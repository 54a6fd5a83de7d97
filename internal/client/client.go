// Package client is a typed client for the basicauth REST API.
package client

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/oklog/ulid/v2"

	"github.com/basicauth/basicauth-go/internal/model"
)

const (
	pathRegister       = "/register"
	pathLogin          = "/login"
	pathForgotPassword = "/forgot-password"
	pathUsers          = "/users"

	requestIDHeader = "X-Request-Id"
)

// Client calls the four API endpoints. It is safe for concurrent use.
type Client struct {
	http   *resty.Client
	logger *slog.Logger
}

// Option configures a Client.
type Option func(*Client)

// WithTimeout bounds every request. Zero keeps the HTTP client default.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) {
		if d > 0 {
			c.http.SetTimeout(d)
		}
	}
}

// WithTransport replaces the underlying round tripper.
func WithTransport(rt http.RoundTripper) Option {
	return func(c *Client) { c.http.SetTransport(rt) }
}

// WithLogger routes request logging (debug level) to l.
func WithLogger(l *slog.Logger) Option {
	return func(c *Client) {
		c.logger = l
		c.http.SetLogger(slogAdapter{l})
	}
}

// WithUserAgent sets the User-Agent header.
func WithUserAgent(ua string) Option {
	return func(c *Client) { c.http.SetHeader("User-Agent", ua) }
}

// New creates a Client for the server at baseURL.
func New(baseURL string, opts ...Option) *Client {
	c := &Client{
		http: resty.New().
			SetBaseURL(strings.TrimRight(baseURL, "/")).
			SetHeader("Accept", "application/json"),
		logger: slog.Default(),
	}
	c.http.SetLogger(slogAdapter{c.logger})

	for _, opt := range opts {
		opt(c)
	}

	c.http.OnBeforeRequest(func(_ *resty.Client, r *resty.Request) error {
		r.SetHeader(requestIDHeader, ulid.Make().String())
		return nil
	})

	return c
}

// Register creates an account. The response body is ignored.
func (c *Client) Register(ctx context.Context, req model.RegisterRequest) error {
	_, err := c.do(ctx, "register", c.http.R().SetBody(req), http.MethodPost, pathRegister)
	return err
}

// Login exchanges credentials for a bearer token. A 2xx response without a
// token is a *DecodeError.
func (c *Client) Login(ctx context.Context, req model.LoginRequest) (model.LoginResponse, error) {
	const op = "login"

	resp, err := c.do(ctx, op, c.http.R().SetBody(req), http.MethodPost, pathLogin)
	if err != nil {
		return model.LoginResponse{}, err
	}

	var out model.LoginResponse
	if err := json.Unmarshal(resp.Body(), &out); err != nil {
		return model.LoginResponse{}, &DecodeError{Op: op, Err: err}
	}
	if out.Token == "" {
		return model.LoginResponse{}, &DecodeError{Op: op, Err: errors.New("response has no token")}
	}
	return out, nil
}

// ForgotPassword resets the password of the account identified by email.
func (c *Client) ForgotPassword(ctx context.Context, req model.ForgotPasswordRequest) error {
	_, err := c.do(ctx, "forgot password", c.http.R().SetBody(req), http.MethodPost, pathForgotPassword)
	return err
}

// ListUsers fetches all users. The header is always "Bearer " + token, even
// for an empty token; rejecting it is the server's job.
func (c *Client) ListUsers(ctx context.Context, token string) ([]model.UserResponse, error) {
	const op = "list users"

	r := c.http.R().SetHeader("Authorization", "Bearer "+token)
	resp, err := c.do(ctx, op, r, http.MethodGet, pathUsers)
	if err != nil {
		return nil, err
	}

	var users []model.UserResponse
	if err := json.Unmarshal(resp.Body(), &users); err != nil {
		return nil, &DecodeError{Op: op, Err: err}
	}
	if users == nil {
		users = []model.UserResponse{}
	}
	return users, nil
}

func (c *Client) do(ctx context.Context, op string, r *resty.Request, method, path string) (*resty.Response, error) {
	resp, err := r.SetContext(ctx).Execute(method, path)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			err = fmt.Errorf("%w: %w", ctxErr, err)
		}
		return nil, &TransportError{Op: op, Err: err}
	}

	c.logger.Debug("api response",
		"op", op,
		"status", resp.StatusCode(),
		"duration", resp.Time(),
		"request_id", resp.Request.Header.Get(requestIDHeader),
	)

	if !resp.IsSuccess() {
		return nil, &StatusError{Op: op, StatusCode: resp.StatusCode(), Message: serverMessage(resp.Body())}
	}
	return resp, nil
}

func serverMessage(body []byte) string {
	var e model.ErrorResponse
	if json.Unmarshal(body, &e) == nil && e.Error != "" {
		return e.Error
	}
	return strings.TrimSpace(string(body))
}

// slogAdapter satisfies resty.Logger.
type slogAdapter struct {
	l *slog.Logger
}

func (a slogAdapter) Errorf(format string, v ...any) { a.l.Error(fmt.Sprintf(format, v...)) }
func (a slogAdapter) Warnf(format string, v ...any)  { a.l.Warn(fmt.Sprintf(format, v...)) }
func (a slogAdapter) Debugf(format string, v ...any) { a.l.Debug(fmt.Sprintf(format, v...)) }
