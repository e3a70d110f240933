package tracker

import (
	"context"
	"errors"
	"fmt"

	"github.com/dukerupert/dailyboard/internal/credential"
)

// SetToken stores a new API token, optionally checking it against the API
// first. A rejected token leaves the stored one untouched.
func (s *Service) SetToken(ctx context.Context, token string, validate bool) error {
	if validate {
		if err := s.roster.ValidateToken(ctx, token); err != nil {
			if errors.Is(err, credential.ErrEmptyToken) {
				return invalid("enter an api token")
			}
			return fmt.Errorf("validate token: %w", err)
		}
	}
	if err := s.tokens.Set(ctx, token); err != nil {
		if errors.Is(err, credential.ErrEmptyToken) {
			return invalid("enter an api token")
		}
		return err
	}
	s.logger.Info("api token updated")
	return nil
}

func (s *Service) ClearToken(ctx context.Context) error {
	if err := s.tokens.Clear(ctx); err != nil {
		return err
	}
	s.logger.Info("api token cleared")
	return nil
}

// TokenStatus reports whether a token is set.
func (s *Service) TokenStatus(ctx context.Context) (bool, error) {
	_, err := s.tokens.Get(ctx)
	switch {
	case errors.Is(err, credential.ErrNotFound):
		return false, nil
	case err != nil:
		return false, err
	}
	return true, nil
}
