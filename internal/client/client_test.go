package client

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/basicauth/basicauth-go/internal/model"
)

// recordingTransport captures outgoing requests before they hit the wire,
// where header values are still untrimmed.
type recordingTransport struct {
	mu   sync.Mutex
	reqs []*http.Request
	next http.RoundTripper
}

func (rt *recordingTransport) RoundTrip(r *http.Request) (*http.Response, error) {
	rt.mu.Lock()
	rt.reqs = append(rt.reqs, r.Clone(r.Context()))
	rt.mu.Unlock()
	return rt.next.RoundTrip(r)
}

func (rt *recordingTransport) last() *http.Request {
	rt.mu.Lock()
	defer rt.mu.Unlock()
	return rt.reqs[len(rt.reqs)-1]
}

func newTestClient(t *testing.T, h http.HandlerFunc) (*Client, *recordingTransport) {
	t.Helper()
	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)

	rt := &recordingTransport{next: http.DefaultTransport}
	return New(srv.URL+"/", WithTransport(rt)), rt
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func TestRegisterSendsContract(t *testing.T) {
	var got map[string]string
	c, rt := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/register", r.URL.Path)
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		w.WriteHeader(http.StatusCreated)
	})

	err := c.Register(context.Background(), model.RegisterRequest{
		Username: "ada", Email: "ada@example.com", Password: "pw", SecurityQuestion: "q", SecurityAnswer: "a",
	})

	require.NoError(t, err)
	assert.Equal(t, map[string]string{
		"username": "ada", "email": "ada@example.com", "password": "pw",
		"securityQuestion": "q", "securityAnswer": "a",
	}, got)
	assert.Empty(t, rt.last().Header.Get("Authorization"))
	assert.NotEmpty(t, rt.last().Header.Get(requestIDHeader))
}

func TestLogin(t *testing.T) {
	c, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		var req model.LoginRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, model.LoginRequest{Email: "ada@example.com", Password: "pw"}, req)
		writeJSON(w, http.StatusOK, model.LoginResponse{Token: "tok-123"})
	})

	resp, err := c.Login(context.Background(), model.LoginRequest{Email: "ada@example.com", Password: "pw"})

	require.NoError(t, err)
	assert.Equal(t, "tok-123", resp.Token)
}

func TestLoginDecodeErrors(t *testing.T) {
	for name, body := range map[string]string{
		"not json":    "<html>",
		"empty token": `{"token":""}`,
		"no token":    `{}`,
	} {
		t.Run(name, func(t *testing.T) {
			c, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
				w.Header().Set("Content-Type", "application/json")
				w.Write([]byte(body))
			})

			_, err := c.Login(context.Background(), model.LoginRequest{Email: "a", Password: "b"})

			assert.ErrorIs(t, err, ErrDecode)
			var de *DecodeError
			assert.ErrorAs(t, err, &de)
		})
	}
}

func TestStatusError(t *testing.T) {
	c, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusUnauthorized, model.ErrorResponse{Error: "invalid credentials"})
	})

	_, err := c.Login(context.Background(), model.LoginRequest{Email: "a", Password: "b"})

	require.ErrorIs(t, err, ErrStatus)
	assert.NotErrorIs(t, err, ErrTransport)
	assert.Equal(t, http.StatusUnauthorized, StatusCode(err))

	var se *StatusError
	require.ErrorAs(t, err, &se)
	assert.Equal(t, "invalid credentials", se.Message)
	assert.Equal(t, "login: 401 invalid credentials", se.Error())
}

func TestStatusErrorPlainBody(t *testing.T) {
	c, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "User not found", http.StatusNotFound)
	})

	err := c.ForgotPassword(context.Background(), model.ForgotPasswordRequest{Email: "a", SecurityAnswer: "b", NewPassword: "c"})

	var se *StatusError
	require.ErrorAs(t, err, &se)
	assert.Equal(t, http.StatusNotFound, se.StatusCode)
	assert.Equal(t, "User not found", se.Message)
}

func TestForgotPasswordPath(t *testing.T) {
	c, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/forgot-password", r.URL.Path)
		var req map[string]string
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, map[string]string{"email": "a", "securityAnswer": "b", "newPassword": "c"}, req)
		w.WriteHeader(http.StatusOK)
	})

	err := c.ForgotPassword(context.Background(), model.ForgotPasswordRequest{Email: "a", SecurityAnswer: "b", NewPassword: "c"})
	assert.NoError(t, err)
}

func TestListUsers(t *testing.T) {
	users := []model.UserResponse{
		{ID: 1, Username: "ada", Email: "ada@example.com", CreatedAt: "2024-03-05T14:30:00Z"},
		{ID: 2, Username: "grace", Email: "grace@example.com", CreatedAt: "2024-03-06T08:00:00+02:00"},
	}
	c, rt := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodGet, r.Method)
		assert.Equal(t, "/users", r.URL.Path)
		writeJSON(w, http.StatusOK, users)
	})

	got, err := c.ListUsers(context.Background(), "tok-123")

	require.NoError(t, err)
	assert.Equal(t, users, got)
	assert.Equal(t, "Bearer tok-123", rt.last().Header.Get("Authorization"))
}

func TestListUsersEmptyTokenStillSendsBearer(t *testing.T) {
	var onWire string
	c, rt := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		onWire = r.Header.Get("Authorization")
		writeJSON(w, http.StatusUnauthorized, model.ErrorResponse{Error: "invalid authorization format"})
	})

	_, err := c.ListUsers(context.Background(), "")

	assert.Equal(t, "Bearer ", rt.last().Header.Get("Authorization"))
	assert.Equal(t, "Bearer", onWire)
	assert.Equal(t, http.StatusUnauthorized, StatusCode(err))
}

func TestListUsersNullIsEmpty(t *testing.T) {
	c, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte("null"))
	})

	got, err := c.ListUsers(context.Background(), "tok")

	require.NoError(t, err)
	assert.NotNil(t, got)
	assert.Empty(t, got)
}

func TestListUsersMalformed(t *testing.T) {
	c, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"id": 1}`))
	})

	_, err := c.ListUsers(context.Background(), "tok")
	assert.ErrorIs(t, err, ErrDecode)
}

func TestTransportError(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()

	err := New(url).Register(context.Background(), model.RegisterRequest{})

	assert.ErrorIs(t, err, ErrTransport)
	assert.NotErrorIs(t, err, ErrStatus)
	assert.Zero(t, StatusCode(err))
}

func TestContextCancelled(t *testing.T) {
	release := make(chan struct{})
	c, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-release:
		case <-r.Context().Done():
		}
	})
	defer close(release)

	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		time.Sleep(20 * time.Millisecond)
		cancel()
	}()

	_, err := c.ListUsers(ctx, "tok")

	assert.ErrorIs(t, err, ErrTransport)
	assert.True(t, errors.Is(err, context.Canceled), "got %v", err)
}

func TestTimeout(t *testing.T) {
	release := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-release:
		case <-r.Context().Done():
		}
	}))
	defer srv.Close()
	defer close(release)

	err := New(srv.URL, WithTimeout(30*time.Millisecond)).Register(context.Background(), model.RegisterRequest{})

	assert.ErrorIs(t, err, ErrTransport)
}

func TestUserAgentAndRequestIDs(t *testing.T) {
	c, rt := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusCreated)
	})
	WithUserAgent("basicauth-test/1.0")(c)

	require.NoError(t, c.Register(context.Background(), model.RegisterRequest{}))
	first := rt.last().Header.Get(requestIDHeader)
	require.NoError(t, c.Register(context.Background(), model.RegisterRequest{}))
	second := rt.last().Header.Get(requestIDHeader)

	assert.Equal(t, "basicauth-test/1.0", rt.last().Header.Get("User-Agent"))
	assert.Len(t, first, 26)
	assert.NotEqual(t, first, second)
}
