// Package userdir is the client for the external user-info service. Reads of
// order data are enriched with this data on every request; the service fails
// independently of us, so the client is wrapped with bounded retry and a
// placeholder fallback (see client.go and fallback.go).
package userdir

import (
	"context"
	"errors"
	"time"
)

var (
	// ErrNotFound means the directory answered authoritatively that the user
	// does not exist. Callers that need existence confirmed treat this as a
	// hard error.
	ErrNotFound = errors.New("user not found")

	// ErrUnavailable means the directory could not give a trustworthy answer
	// within the retry budget.
	ErrUnavailable = errors.New("user service unavailable")
)

type UserInfo struct {
	ID        int64      `json:"id"`
	Name      string     `json:"name"`
	Surname   string     `json:"surname"`
	BirthDate string     `json:"birthDate,omitempty"`
	Email     string     `json:"email,omitempty"`
	Active    bool       `json:"active"`
	CreatedAt *time.Time `json:"createdAt,omitempty"`
	UpdatedAt *time.Time `json:"updatedAt,omitempty"`
}

// Client fetches a user snapshot by id.
type Client interface {
	Fetch(ctx context.Context, userID int64) (UserInfo, error)
}
