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

// OTPService owns the single-slot verification code attached to an account.
// Generating a new code always overwrites the previous one, so at most one
// code is ever live per account and resend invalidates anything in flight.
type OTPService struct {
	accountRepo repository.AccountRepository
	ttl         time.Duration
}

func NewOTPService(accountRepo repository.AccountRepository, ttl time.Duration) *OTPService {
	return &OTPService{
		accountRepo: accountRepo,
		ttl:         ttl,
	}
}

// Generate draws a fresh 6-digit code, persists it with its expiry on the
// account, and returns it for delivery. The passed account is updated in
// place to reflect the stored state.
func (s *OTPService) Generate(ctx context.Context, account *model.Account) (string, error) {
	code, err := util.GenerateOTP()
	if err != nil {
		return "", fmt.Errorf("generate otp: %w", err)
	}

	updated, err := s.accountRepo.SetOTP(ctx, account.ID, model.SetOTPParams{
		Code:      code,
		ExpiresAt: time.Now().Add(s.ttl),
	})
	if err != nil {
		return "", fmt.Errorf("store otp: %w", err)
	}
	if updated == nil {
		return "", fmt.Errorf("store otp: account %s vanished", account.ID)
	}
	*account = *updated

	log.Info().
		Str("accountId", account.ID).
		Str("code", util.MaskCode(code)).
		Time("expiresAt", *account.OTPExpiresAt).
		Msg("verification code issued")

	return code, nil
}

// Verify reports whether submitted matches the outstanding code at the given
// instant. It is a pure function of (account, now): no code, an expired
// code, and a mismatch all yield false, and nothing is mutated or cleared.
func (s *OTPService) Verify(account *model.Account, submitted string, now time.Time) bool {
	if !account.HasOTP() {
		return false
	}
	if now.After(*account.OTPExpiresAt) {
		return false
	}
	return util.ConstantTimeEqual(*account.OTPCode, submitted)
}

// Clear removes the outstanding code, if any.
func (s *OTPService) Clear(ctx context.Context, account *model.Account) error {
	if err := s.accountRepo.ClearOTP(ctx, account.ID); err != nil {
		return fmt.Errorf("clear otp: %w", err)
	}
	account.OTPCode = nil
	account.OTPExpiresAt = nil
	return nil
}
