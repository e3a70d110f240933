// Package credential keeps the Lost Ark developer API token.
package credential

import (
	"context"
	"errors"
	"strings"
)

// TokenKey is the fixed key the API token is stored under.
const TokenKey = "lostark_api_token"

var (
	ErrNotFound   = errors.New("credential not found")
	ErrEmptyToken = errors.New("token must not be blank")
)

// Store holds a single API token.
type Store interface {
	// Get returns ErrNotFound when no token is set.
	Get(ctx context.Context) (string, error)
	Set(ctx context.Context, token string) error
	// Clear removes the token. Clearing an unset token is not an error.
	Clear(ctx context.Context) error
}

func cleanToken(token string) (string, error) {
	token = strings.TrimSpace(token)
	if token == "" {
		return "", ErrEmptyToken
	}
	return token, nil
}
