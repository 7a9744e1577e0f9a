package repository

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"github.com/careerdesk/portal-server-go/internal/model"
)

// ErrDuplicateEmail is returned by Create when the email unique constraint
// fires, so callers can report a conflict without string-matching pq errors.
var ErrDuplicateEmail = errors.New("email already registered")

type AccountRepository interface {
	FindByID(ctx context.Context, id string) (*model.Account, error)
	FindByEmail(ctx context.Context, email string) (*model.Account, error)
	Create(ctx context.Context, params model.CreateAccountParams) (*model.Account, error)
	SetOTP(ctx context.Context, id string, params model.SetOTPParams) (*model.Account, error)
	ClearOTP(ctx context.Context, id string) error
	MarkVerified(ctx context.Context, id string) (*model.Account, error)
	SetResetMarker(ctx context.Context, id, marker string, expiresAt time.Time) (*model.Account, error)
	SetPassword(ctx context.Context, id, passwordHash string, clearReset bool) (*model.Account, error)
	MarkProfileComplete(ctx context.Context, id string) (*model.Account, error)
	UpdateLastLogin(ctx context.Context, id string) error
	ClearExpiredChallenges(ctx context.Context) (int64, error)
	// WithTx returns a new repository that uses the given transaction
	WithTx(tx *sqlx.Tx) AccountRepository
}

type accountRepo struct {
	db sqlxDB
}

// sqlxDB is an interface satisfied by both *sqlx.DB and *sqlx.Tx
type sqlxDB interface {
	GetContext(ctx context.Context, dest interface{}, query string, args ...interface{}) error
	SelectContext(ctx context.Context, dest interface{}, query string, args ...interface{}) error
	ExecContext(ctx context.Context, query string, args ...interface{}) (sql.Result, error)
}

func NewAccountRepository(db *sqlx.DB) AccountRepository {
	return &accountRepo{db: db}
}

func (r *accountRepo) WithTx(tx *sqlx.Tx) AccountRepository {
	return &accountRepo{db: tx}
}

func (r *accountRepo) FindByID(ctx context.Context, id string) (*model.Account, error) {
	var account model.Account
	err := r.db.GetContext(ctx, &account, `
		SELECT * FROM accounts WHERE id = $1
	`, id)
	return HandleNotFound(&account, err)
}

func (r *accountRepo) FindByEmail(ctx context.Context, email string) (*model.Account, error) {
	var account model.Account
	err := r.db.GetContext(ctx, &account, `
		SELECT * FROM accounts WHERE email = $1
	`, email)
	return HandleNotFound(&account, err)
}

func (r *accountRepo) Create(ctx context.Context, params model.CreateAccountParams) (*model.Account, error) {
	var account model.Account
	err := r.db.GetContext(ctx, &account, `
		INSERT INTO accounts (email, role)
		VALUES ($1, $2)
		RETURNING *
	`, params.Email, params.Role)
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code.Name() == "unique_violation" {
			return nil, ErrDuplicateEmail
		}
		return nil, err
	}
	return &account, nil
}

func (r *accountRepo) SetOTP(ctx context.Context, id string, params model.SetOTPParams) (*model.Account, error) {
	var account model.Account
	err := r.db.GetContext(ctx, &account, `
		UPDATE accounts SET
			otp_code = $2,
			otp_expires_at = $3,
			updated_at = $4
		WHERE id = $1
		RETURNING *
	`, id, params.Code, params.ExpiresAt, time.Now())
	return HandleNotFound(&account, err)
}

func (r *accountRepo) ClearOTP(ctx context.Context, id string) error {
	_, err := r.db.ExecContext(ctx, `
		UPDATE accounts SET
			otp_code = NULL,
			otp_expires_at = NULL,
			updated_at = $2
		WHERE id = $1
	`, id, time.Now())
	return err
}

func (r *accountRepo) MarkVerified(ctx context.Context, id string) (*model.Account, error) {
	var account model.Account
	err := r.db.GetContext(ctx, &account, `
		UPDATE accounts SET
			email_verified = TRUE,
			otp_code = NULL,
			otp_expires_at = NULL,
			updated_at = $2
		WHERE id = $1
		RETURNING *
	`, id, time.Now())
	return HandleNotFound(&account, err)
}

func (r *accountRepo) SetResetMarker(ctx context.Context, id, marker string, expiresAt time.Time) (*model.Account, error) {
	var account model.Account
	err := r.db.GetContext(ctx, &account, `
		UPDATE accounts SET
			reset_marker = $2,
			reset_expires_at = $3,
			otp_code = NULL,
			otp_expires_at = NULL,
			updated_at = $4
		WHERE id = $1
		RETURNING *
	`, id, marker, expiresAt, time.Now())
	return HandleNotFound(&account, err)
}

func (r *accountRepo) SetPassword(ctx context.Context, id, passwordHash string, clearReset bool) (*model.Account, error) {
	var account model.Account
	var err error
	if clearReset {
		err = r.db.GetContext(ctx, &account, `
			UPDATE accounts SET
				password_hash = $2,
				reset_marker = NULL,
				reset_expires_at = NULL,
				updated_at = $3
			WHERE id = $1
			RETURNING *
		`, id, passwordHash, time.Now())
	} else {
		err = r.db.GetContext(ctx, &account, `
			UPDATE accounts SET
				password_hash = $2,
				updated_at = $3
			WHERE id = $1
			RETURNING *
		`, id, passwordHash, time.Now())
	}
	return HandleNotFound(&account, err)
}

func (r *accountRepo) MarkProfileComplete(ctx context.Context, id string) (*model.Account, error) {
	var account model.Account
	err := r.db.GetContext(ctx, &account, `
		UPDATE accounts SET
			profile_complete = TRUE,
			updated_at = $2
		WHERE id = $1
		RETURNING *
	`, id, time.Now())
	return HandleNotFound(&account, err)
}

func (r *accountRepo) UpdateLastLogin(ctx context.Context, id string) error {
	_, err := r.db.ExecContext(ctx, `
		UPDATE accounts SET last_login_at = $2 WHERE id = $1
	`, id, time.Now())
	return err
}

// ClearExpiredChallenges nulls out OTP and reset columns past their expiry.
// Expiry is still enforced at every read; this just keeps rows tidy.
func (r *accountRepo) ClearExpiredChallenges(ctx context.Context) (int64, error) {
	result, err := r.db.ExecContext(ctx, `
		UPDATE accounts SET
			otp_code = CASE WHEN otp_expires_at < NOW() THEN NULL ELSE otp_code END,
			otp_expires_at = CASE WHEN otp_expires_at < NOW() THEN NULL ELSE otp_expires_at END,
			reset_marker = CASE WHEN reset_expires_at < NOW() THEN NULL ELSE reset_marker END,
			reset_expires_at = CASE WHEN reset_expires_at < NOW() THEN NULL ELSE reset_expires_at END
		WHERE otp_expires_at < NOW() OR reset_expires_at < NOW()
	`)
	if err != nil {
		return 0, err
	}
	return result.RowsAffected()
}
