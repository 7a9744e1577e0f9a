package repository

import (
	"context"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/careerdesk/portal-server-go/internal/model"
)

type SessionRepository interface {
	FindByTokenHash(ctx context.Context, tokenHash string) (*model.Session, error)
	Create(ctx context.Context, params model.CreateSessionParams) (*model.Session, error)
	Touch(ctx context.Context, id string) error
	Delete(ctx context.Context, id string) error
	DeleteByAccountID(ctx context.Context, accountID string) error
	DeleteIdle(ctx context.Context, idleTimeout time.Duration) (int64, error)
}

type sessionRepo struct {
	db *sqlx.DB
}

func NewSessionRepository(db *sqlx.DB) SessionRepository {
	return &sessionRepo{db: db}
}

func (r *sessionRepo) FindByTokenHash(ctx context.Context, tokenHash string) (*model.Session, error) {
	var session model.Session
	err := r.db.GetContext(ctx, &session, `
		SELECT * FROM sessions WHERE token_hash = $1
	`, tokenHash)
	return HandleNotFound(&session, err)
}

func (r *sessionRepo) Create(ctx context.Context, params model.CreateSessionParams) (*model.Session, error) {
	var session model.Session
	err := r.db.GetContext(ctx, &session, `
		INSERT INTO sessions (token_hash, account_id, role, email, last_activity_at)
		VALUES ($1, $2, $3, $4, NOW())
		RETURNING *
	`, params.TokenHash, params.AccountID, params.Role, params.Email)
	if err != nil {
		return nil, err
	}
	return &session, nil
}

// Touch refreshes last_activity_at, implementing the sliding idle window.
func (r *sessionRepo) Touch(ctx context.Context, id string) error {
	_, err := r.db.ExecContext(ctx, `
		UPDATE sessions SET last_activity_at = NOW() WHERE id = $1
	`, id)
	return err
}

func (r *sessionRepo) Delete(ctx context.Context, id string) error {
	_, err := r.db.ExecContext(ctx, `DELETE FROM sessions WHERE id = $1`, id)
	return err
}

func (r *sessionRepo) DeleteByAccountID(ctx context.Context, accountID string) error {
	_, err := r.db.ExecContext(ctx, `DELETE FROM sessions WHERE account_id = $1`, accountID)
	return err
}

func (r *sessionRepo) DeleteIdle(ctx context.Context, idleTimeout time.Duration) (int64, error) {
	result, err := r.db.ExecContext(ctx, `
		DELETE FROM sessions WHERE last_activity_at < NOW() - make_interval(secs => $1)
	`, idleTimeout.Seconds())
	if err != nil {
		return 0, err
	}
	return result.RowsAffected()
}
