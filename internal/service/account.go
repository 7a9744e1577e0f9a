package service

import (
	"context"
	"errors"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/careerdesk/portal-server-go/internal/audit"
	apperrors "github.com/careerdesk/portal-server-go/internal/errors"
	"github.com/careerdesk/portal-server-go/internal/mail"
	"github.com/careerdesk/portal-server-go/internal/model"
	"github.com/careerdesk/portal-server-go/internal/repository"
	"github.com/careerdesk/portal-server-go/internal/util"
)

// AccountService drives the account lifecycle: registration, email
// verification, profile completion, login, and the password-reset sub-flow.
// Each transition is a strict sequence of single-document writes; there is
// no cross-step atomicity, and a half-finished registration is recovered by
// resending the code rather than rolled back.
type AccountService struct {
	accountRepo   repository.AccountRepository
	jobseekerRepo repository.JobseekerProfileRepository
	companyRepo   repository.CompanyProfileRepository
	otp           *OTPService
	sessions      *SessionService
	mailer        mail.Mailer
	resetTTL      time.Duration
}

func NewAccountService(
	accountRepo repository.AccountRepository,
	jobseekerRepo repository.JobseekerProfileRepository,
	companyRepo repository.CompanyProfileRepository,
	otp *OTPService,
	sessions *SessionService,
	mailer mail.Mailer,
	resetTTL time.Duration,
) *AccountService {
	return &AccountService{
		accountRepo:   accountRepo,
		jobseekerRepo: jobseekerRepo,
		companyRepo:   companyRepo,
		otp:           otp,
		sessions:      sessions,
		mailer:        mailer,
		resetTTL:      resetTTL,
	}
}

// Register creates an unverified account and emails it a verification code.
// A mail failure does not roll the account back: the account and its live
// code survive, and the returned error tells the caller to retry sending.
func (s *AccountService) Register(ctx context.Context, email string, role model.Role) (*model.Account, error) {
	email = util.NormalizeEmail(email)
	if !util.IsValidEmail(email) {
		return nil, apperrors.InvalidInput("email", "must be a valid email address")
	}
	if !role.Valid() {
		return nil, apperrors.InvalidInput("role", "must be jobseeker or company")
	}

	account, err := s.accountRepo.Create(ctx, model.CreateAccountParams{
		Email: email,
		Role:  role,
	})
	if err != nil {
		if errors.Is(err, repository.ErrDuplicateEmail) {
			return nil, apperrors.AlreadyExists("Account")
		}
		return nil, apperrors.Database(err)
	}

	audit.Log(ctx, audit.Event{
		Type:      audit.EventAccountRegister,
		AccountID: account.ID,
		Details:   map[string]interface{}{"role": string(role)},
	})

	code, err := s.otp.Generate(ctx, account)
	if err != nil {
		log.Error().Err(err).Str("accountId", account.ID).Msg("otp generation after register failed")
		return account, apperrors.Internal("Account created but code could not be issued, request a new code")
	}

	if err := s.mailer.Send(account.Email, model.MailTemplateVerifyEmail, code); err != nil {
		// Account stays registered with a usable code; only delivery failed.
		return account, apperrors.MailFailed()
	}

	return account, nil
}

// VerifyEmail consumes the outstanding code, marks the account verified,
// and opens a session. Each rejection keeps its own reason: the email was
// disclosed at registration, so not-found is not a secret here.
func (s *AccountService) VerifyEmail(ctx context.Context, email, code string) (*model.Account, string, error) {
	account, err := s.accountRepo.FindByEmail(ctx, util.NormalizeEmail(email))
	if err != nil {
		return nil, "", apperrors.Database(err)
	}
	if account == nil {
		return nil, "", apperrors.NotFound("Account")
	}
	if account.EmailVerified {
		return nil, "", apperrors.AlreadyVerified()
	}
	if !s.otp.Verify(account, code, time.Now()) {
		return nil, "", apperrors.CodeInvalid()
	}

	account, err = s.accountRepo.MarkVerified(ctx, account.ID)
	if err != nil || account == nil {
		return nil, "", apperrors.Database(err)
	}

	token, err := s.sessions.Open(ctx, account)
	if err != nil {
		return nil, "", apperrors.Internal("Email verified but session could not be opened")
	}

	audit.Log(ctx, audit.Event{
		Type:      audit.EventEmailVerified,
		AccountID: account.ID,
	})

	return account, token, nil
}

// ResendOTP replaces the outstanding code and resends the verification
// email. The previous code becomes unusable immediately.
func (s *AccountService) ResendOTP(ctx context.Context, email string) error {
	account, err := s.accountRepo.FindByEmail(ctx, util.NormalizeEmail(email))
	if err != nil {
		return apperrors.Database(err)
	}
	if account == nil {
		return apperrors.NotFound("Account")
	}
	if account.EmailVerified {
		return apperrors.AlreadyVerified()
	}

	code, err := s.otp.Generate(ctx, account)
	if err != nil {
		return apperrors.Internal("Could not issue a new code")
	}

	if err := s.mailer.Send(account.Email, model.MailTemplateVerifyEmail, code); err != nil {
		return apperrors.MailFailed()
	}

	return nil
}

type LoginResult struct {
	Account        *model.Account
	Token          string
	ProfilePending bool
}

// Login checks credentials and opens a session. Unknown email and wrong
// password collapse into one answer; only the unverified-email state is
// reported distinctly.
func (s *AccountService) Login(ctx context.Context, email, password string) (*LoginResult, error) {
	account, err := s.accountRepo.FindByEmail(ctx, util.NormalizeEmail(email))
	if err != nil {
		return nil, apperrors.Database(err)
	}
	if account == nil {
		return nil, apperrors.InvalidCredentials()
	}
	if !account.EmailVerified {
		return nil, apperrors.EmailNotVerified()
	}
	if account.PasswordHash == nil || !util.CheckPasswordHash(password, *account.PasswordHash) {
		audit.Log(ctx, audit.Event{
			Type:      audit.EventLoginFailure,
			AccountID: account.ID,
		})
		return nil, apperrors.InvalidCredentials()
	}

	if err := s.accountRepo.UpdateLastLogin(ctx, account.ID); err != nil {
		log.Error().Err(err).Str("accountId", account.ID).Msg("failed to record login time")
	}

	token, err := s.sessions.Open(ctx, account)
	if err != nil {
		return nil, apperrors.Internal("Could not open session")
	}

	pending, err := s.profilePending(ctx, account)
	if err != nil {
		return nil, apperrors.Database(err)
	}

	audit.Log(ctx, audit.Event{
		Type:      audit.EventLoginSuccess,
		AccountID: account.ID,
	})

	return &LoginResult{Account: account, Token: token, ProfilePending: pending}, nil
}

// profilePending reports whether the profile-setup step is still required.
// For companies the completed company profile record is authoritative.
func (s *AccountService) profilePending(ctx context.Context, account *model.Account) (bool, error) {
	if account.Role == model.RoleCompany {
		profile, err := s.companyRepo.FindByAccountID(ctx, account.ID)
		if err != nil {
			return false, err
		}
		return profile == nil, nil
	}
	return !account.ProfileComplete, nil
}

// CompleteJobseekerProfile attaches the jobseeker fields and first password
// to a verified account. This and password reset are the only paths that
// ever store a password hash.
func (s *AccountService) CompleteJobseekerProfile(
	ctx context.Context,
	account *model.Account,
	params model.CreateJobseekerProfileParams,
	password string,
) (*model.JobseekerProfile, error) {
	if account.Role != model.RoleJobseeker {
		return nil, apperrors.Forbidden("Endpoint is for jobseeker accounts")
	}
	if params.FirstName == "" || params.LastName == "" {
		return nil, apperrors.MissingRequired("name")
	}
	if err := s.storePassword(ctx, account, password, false); err != nil {
		return nil, err
	}

	params.AccountID = account.ID
	profile, err := s.jobseekerRepo.Create(ctx, params)
	if err != nil {
		return nil, apperrors.Database(err)
	}

	return profile, s.finishProfile(ctx, account)
}

// CompleteCompanyProfile is the company-role counterpart.
func (s *AccountService) CompleteCompanyProfile(
	ctx context.Context,
	account *model.Account,
	params model.CreateCompanyProfileParams,
	password string,
) (*model.CompanyProfile, error) {
	if account.Role != model.RoleCompany {
		return nil, apperrors.Forbidden("Endpoint is for company accounts")
	}
	if params.CompanyName == "" {
		return nil, apperrors.MissingRequired("companyName")
	}
	if err := s.storePassword(ctx, account, password, false); err != nil {
		return nil, err
	}

	params.AccountID = account.ID
	profile, err := s.companyRepo.Create(ctx, params)
	if err != nil {
		return nil, apperrors.Database(err)
	}

	return profile, s.finishProfile(ctx, account)
}

func (s *AccountService) storePassword(ctx context.Context, account *model.Account, password string, clearReset bool) error {
	if !util.IsValidPassword(password) {
		return apperrors.InvalidInput("password", "must be at least 6 characters")
	}

	hash, err := util.HashPassword(password)
	if err != nil {
		return apperrors.Internal("Could not hash password")
	}

	updated, err := s.accountRepo.SetPassword(ctx, account.ID, hash, clearReset)
	if err != nil || updated == nil {
		return apperrors.Database(err)
	}
	*account = *updated
	return nil
}

func (s *AccountService) finishProfile(ctx context.Context, account *model.Account) error {
	updated, err := s.accountRepo.MarkProfileComplete(ctx, account.ID)
	if err != nil || updated == nil {
		return apperrors.Database(err)
	}
	*account = *updated

	audit.Log(ctx, audit.Event{
		Type:      audit.EventProfileComplete,
		AccountID: account.ID,
	})

	if err := s.mailer.Send(account.Email, model.MailTemplateWelcome, account.Email); err != nil {
		// Profile completion already succeeded; a lost welcome mail is not
		// worth failing the request over.
		log.Error().Err(err).Str("accountId", account.ID).Msg("welcome mail failed")
	}

	return nil
}

// ForgotPassword issues a reset code. Verification of the email address is
// not required: the reset flow proves address control by itself.
func (s *AccountService) ForgotPassword(ctx context.Context, email string) error {
	account, err := s.accountRepo.FindByEmail(ctx, util.NormalizeEmail(email))
	if err != nil {
		return apperrors.Database(err)
	}
	if account == nil {
		return apperrors.NotFound("Account")
	}

	code, err := s.otp.Generate(ctx, account)
	if err != nil {
		return apperrors.Internal("Could not issue a reset code")
	}

	if err := s.mailer.Send(account.Email, model.MailTemplateResetCode, code); err != nil {
		return apperrors.MailFailed()
	}

	return nil
}

// VerifyResetOTP exchanges a valid reset code for the short-lived reset
// marker authorizing one password change.
func (s *AccountService) VerifyResetOTP(ctx context.Context, email, code string) error {
	account, err := s.accountRepo.FindByEmail(ctx, util.NormalizeEmail(email))
	if err != nil {
		return apperrors.Database(err)
	}
	if account == nil {
		return apperrors.NotFound("Account")
	}
	if !s.otp.Verify(account, code, time.Now()) {
		return apperrors.CodeInvalid()
	}

	if _, err := s.accountRepo.SetResetMarker(ctx, account.ID, model.ResetMarker, time.Now().Add(s.resetTTL)); err != nil {
		return apperrors.Database(err)
	}

	audit.Log(ctx, audit.Event{
		Type:      audit.EventResetAuthorized,
		AccountID: account.ID,
	})

	return nil
}

// ResetPassword changes the password if the reset marker is present and
// unexpired, then clears the marker and revokes existing sessions.
func (s *AccountService) ResetPassword(ctx context.Context, email, newPassword string) error {
	account, err := s.accountRepo.FindByEmail(ctx, util.NormalizeEmail(email))
	if err != nil {
		return apperrors.Database(err)
	}
	if account == nil {
		return apperrors.NotFound("Account")
	}
	if account.ResetMarker == nil || *account.ResetMarker != model.ResetMarker ||
		account.ResetExpiresAt == nil || time.Now().After(*account.ResetExpiresAt) {
		return apperrors.ResetExpired()
	}

	if err := s.storePassword(ctx, account, newPassword, true); err != nil {
		return err
	}

	if err := s.sessions.DestroyAll(ctx, account.ID); err != nil {
		log.Error().Err(err).Str("accountId", account.ID).Msg("failed to revoke sessions after reset")
	}

	audit.Log(ctx, audit.Event{
		Type:      audit.EventPasswordReset,
		AccountID: account.ID,
	})

	return nil
}
