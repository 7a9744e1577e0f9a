package service

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/careerdesk/portal-server-go/internal/model"
	"github.com/careerdesk/portal-server-go/internal/repository"
	"github.com/careerdesk/portal-server-go/internal/util"
)

// SessionService issues and validates the cookie-backed session handle.
// Tokens are stored HMAC-hashed under the session secret; idle sessions are
// torn down lazily on the first validation past the timeout.
type SessionService struct {
	sessionRepo repository.SessionRepository
	secret      string
	idleTimeout time.Duration
}

func NewSessionService(
	sessionRepo repository.SessionRepository,
	secret string,
	idleTimeout time.Duration,
) *SessionService {
	return &SessionService{
		sessionRepo: sessionRepo,
		secret:      secret,
		idleTimeout: idleTimeout,
	}
}

// Open creates an authenticated session for the account and returns the raw
// token to be set as the cookie value.
func (s *SessionService) Open(ctx context.Context, account *model.Account) (string, error) {
	token, err := util.GenerateToken()
	if err != nil {
		return "", fmt.Errorf("generate session token: %w", err)
	}

	_, err = s.sessionRepo.Create(ctx, model.CreateSessionParams{
		TokenHash: util.HmacSHA256(s.secret, token),
		AccountID: account.ID,
		Role:      account.Role,
		Email:     account.Email,
	})
	if err != nil {
		return "", fmt.Errorf("create session: %w", err)
	}

	log.Info().
		Str("accountId", account.ID).
		Str("role", string(account.Role)).
		Msg("session opened")

	return token, nil
}

// Validate resolves a token to its live session. A session idle longer than
// the timeout is destroyed and nil is returned; otherwise its activity
// timestamp is refreshed, so every successful check slides the window.
func (s *SessionService) Validate(ctx context.Context, token string) (*model.Session, error) {
	if token == "" {
		return nil, nil
	}

	tokenHash := util.HmacSHA256(s.secret, token)
	session, err := s.sessionRepo.FindByTokenHash(ctx, tokenHash)
	if err != nil {
		return nil, fmt.Errorf("find session: %w", err)
	}
	if session == nil {
		return nil, nil
	}

	if time.Since(session.LastActivityAt) > s.idleTimeout {
		if err := s.sessionRepo.Delete(ctx, session.ID); err != nil {
			log.Error().Err(err).Str("sessionId", session.ID).Msg("failed to delete idle session")
		}
		log.Info().Str("accountId", session.AccountID).Msg("session expired after inactivity")
		return nil, nil
	}

	if err := s.sessionRepo.Touch(ctx, session.ID); err != nil {
		return nil, fmt.Errorf("touch session: %w", err)
	}
	session.LastActivityAt = time.Now()

	return session, nil
}

// Destroy tears down the session behind the token. Unknown tokens are a
// no-op so logout never fails.
func (s *SessionService) Destroy(ctx context.Context, token string) error {
	tokenHash := util.HmacSHA256(s.secret, token)
	session, _ := s.sessionRepo.FindByTokenHash(ctx, tokenHash)
	if session != nil {
		return s.sessionRepo.Delete(ctx, session.ID)
	}
	return nil
}

// DestroyAll removes every session for an account, used when a password is
// reset.
func (s *SessionService) DestroyAll(ctx context.Context, accountID string) error {
	return s.sessionRepo.DeleteByAccountID(ctx, accountID)
}
