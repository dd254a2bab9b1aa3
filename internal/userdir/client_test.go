package userdir

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFetch_DecodesUser(t *testing.T) {
	var gotPath, gotKey, gotName string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotKey = r.Header.Get("X-Service-Key")
		gotName = r.Header.Get("X-Service-Name")
		json.NewEncoder(w).Encode(UserInfo{ID: 7, Name: "Jane", Surname: "Doe", Active: true})
	}))
	defer srv.Close()

	c := NewHTTPClient(srv.URL, "secret", "order-service")
	u, err := c.Fetch(context.Background(), 7)
	require.NoError(t, err)

	assert.Equal(t, "/api/v1/users/7", gotPath)
	assert.Equal(t, "secret", gotKey)
	assert.Equal(t, "order-service", gotName)
	assert.Equal(t, "Jane", u.Name)
	assert.True(t, u.Active)
}

func TestFetch_NotFoundIsNotRetried(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusNotFound)
	}))
	defer srv.Close()

	c := NewHTTPClient(srv.URL, "", "")
	_, err := c.Fetch(context.Background(), 404)

	assert.ErrorIs(t, err, ErrNotFound)
	assert.EqualValues(t, 1, calls.Load(), "404 must short-circuit the retry loop")
}

func TestFetch_ServerErrorExhaustsRetryBudget(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	c := NewHTTPClient(srv.URL, "", "")
	_, err := c.Fetch(context.Background(), 7)

	assert.ErrorIs(t, err, ErrUnavailable)
	assert.EqualValues(t, maxAttempts, calls.Load())
}

func TestFetch_RecoversWithinRetryBudget(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) < 3 {
			w.WriteHeader(http.StatusBadGateway)
			return
		}
		json.NewEncoder(w).Encode(UserInfo{ID: 7, Name: "Jane", Active: true})
	}))
	defer srv.Close()

	c := NewHTTPClient(srv.URL, "", "")
	u, err := c.Fetch(context.Background(), 7)

	require.NoError(t, err)
	assert.Equal(t, "Jane", u.Name)
	assert.EqualValues(t, 3, calls.Load())
}

func TestFetch_ConnectionRefusedReportsUnavailable(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	srv.Close() // nothing listening anymore

	c := NewHTTPClient(srv.URL, "", "")
	_, err := c.Fetch(context.Background(), 7)
	assert.ErrorIs(t, err, ErrUnavailable)
}

type stubClient struct {
	u   UserInfo
	err error
}

func (s stubClient) Fetch(context.Context, int64) (UserInfo, error) { return s.u, s.err }

func TestFallback_PassesThroughHealthyAnswer(t *testing.T) {
	c := WithFallback(stubClient{u: UserInfo{ID: 7, Name: "Jane", Active: true}})

	u, err := c.Fetch(context.Background(), 7)
	require.NoError(t, err)
	assert.Equal(t, "Jane", u.Name)
}

func TestFallback_NotFoundStaysAnError(t *testing.T) {
	c := WithFallback(stubClient{err: ErrNotFound})

	_, err := c.Fetch(context.Background(), 7)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestFallback_UnavailableServesPlaceholder(t *testing.T) {
	c := WithFallback(stubClient{err: ErrUnavailable})

	u, err := c.Fetch(context.Background(), 7)
	require.NoError(t, err)
	assert.Equal(t, UserInfo{ID: 7, Name: "Unavailable", Surname: "Unavailable", Active: true}, u)
}

func TestFallback_AnyNonNotFoundErrorServesPlaceholder(t *testing.T) {
	c := WithFallback(stubClient{err: errors.New("tls handshake failure")})

	u, err := c.Fetch(context.Background(), 42)
	require.NoError(t, err)
	assert.Equal(t, int64(42), u.ID)
	assert.True(t, u.Active)
}
