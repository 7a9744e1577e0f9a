package service

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/careerdesk/portal-server-go/internal/model"
	"github.com/careerdesk/portal-server-go/internal/repository"
)

// fakeAccountRepo is an in-memory AccountRepository used by the lifecycle
// and OTP tests.
type fakeAccountRepo struct {
	mu       sync.Mutex
	accounts map[string]*model.Account
	nextID   int
}

func newFakeAccountRepo() *fakeAccountRepo {
	return &fakeAccountRepo{accounts: make(map[string]*model.Account)}
}

func (r *fakeAccountRepo) clone(a *model.Account) *model.Account {
	cp := *a
	return &cp
}

func (r *fakeAccountRepo) FindByID(ctx context.Context, id string) (*model.Account, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if a, ok := r.accounts[id]; ok {
		return r.clone(a), nil
	}
	return nil, nil
}

func (r *fakeAccountRepo) FindByEmail(ctx context.Context, email string) (*model.Account, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, a := range r.accounts {
		if a.Email == strings.ToLower(email) {
			return r.clone(a), nil
		}
	}
	return nil, nil
}

func (r *fakeAccountRepo) Create(ctx context.Context, params model.CreateAccountParams) (*model.Account, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, a := range r.accounts {
		if a.Email == params.Email {
			return nil, repository.ErrDuplicateEmail
		}
	}
	r.nextID++
	now := time.Now()
	account := &model.Account{
		ID:        fmt.Sprintf("acct-%d", r.nextID),
		Email:     params.Email,
		Role:      params.Role,
		CreatedAt: now,
		UpdatedAt: now,
	}
	r.accounts[account.ID] = account
	return r.clone(account), nil
}

func (r *fakeAccountRepo) SetOTP(ctx context.Context, id string, params model.SetOTPParams) (*model.Account, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	a, ok := r.accounts[id]
	if !ok {
		return nil, nil
	}
	code := params.Code
	expires := params.ExpiresAt
	a.OTPCode = &code
	a.OTPExpiresAt = &expires
	return r.clone(a), nil
}

func (r *fakeAccountRepo) ClearOTP(ctx context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if a, ok := r.accounts[id]; ok {
		a.OTPCode = nil
		a.OTPExpiresAt = nil
	}
	return nil
}

func (r *fakeAccountRepo) MarkVerified(ctx context.Context, id string) (*model.Account, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	a, ok := r.accounts[id]
	if !ok {
		return nil, nil
	}
	a.EmailVerified = true
	a.OTPCode = nil
	a.OTPExpiresAt = nil
	return r.clone(a), nil
}

func (r *fakeAccountRepo) SetResetMarker(ctx context.Context, id, marker string, expiresAt time.Time) (*model.Account, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	a, ok := r.accounts[id]
	if !ok {
		return nil, nil
	}
	a.ResetMarker = &marker
	a.ResetExpiresAt = &expiresAt
	a.OTPCode = nil
	a.OTPExpiresAt = nil
	return r.clone(a), nil
}

func (r *fakeAccountRepo) SetPassword(ctx context.Context, id, passwordHash string, clearReset bool) (*model.Account, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	a, ok := r.accounts[id]
	if !ok {
		return nil, nil
	}
	a.PasswordHash = &passwordHash
	if clearReset {
		a.ResetMarker = nil
		a.ResetExpiresAt = nil
	}
	return r.clone(a), nil
}

func (r *fakeAccountRepo) MarkProfileComplete(ctx context.Context, id string) (*model.Account, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	a, ok := r.accounts[id]
	if !ok {
		return nil, nil
	}
	a.ProfileComplete = true
	return r.clone(a), nil
}

func (r *fakeAccountRepo) UpdateLastLogin(ctx context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if a, ok := r.accounts[id]; ok {
		now := time.Now()
		a.LastLoginAt = &now
	}
	return nil
}

func (r *fakeAccountRepo) ClearExpiredChallenges(ctx context.Context) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var count int64
	now := time.Now()
	for _, a := range r.accounts {
		touched := false
		if a.OTPExpiresAt != nil && a.OTPExpiresAt.Before(now) {
			a.OTPCode = nil
			a.OTPExpiresAt = nil
			touched = true
		}
		if a.ResetExpiresAt != nil && a.ResetExpiresAt.Before(now) {
			a.ResetMarker = nil
			a.ResetExpiresAt = nil
			touched = true
		}
		if touched {
			count++
		}
	}
	return count, nil
}

func (r *fakeAccountRepo) WithTx(tx *sqlx.Tx) repository.AccountRepository {
	return r
}

// setExpiry rewrites challenge expiries directly, for expiry tests.
func (r *fakeAccountRepo) setExpiry(id string, otpExpiry, resetExpiry *time.Time) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if a, ok := r.accounts[id]; ok {
		if otpExpiry != nil {
			a.OTPExpiresAt = otpExpiry
		}
		if resetExpiry != nil {
			a.ResetExpiresAt = resetExpiry
		}
	}
}

// fakeSessionRepo is an in-memory SessionRepository.
type fakeSessionRepo struct {
	mu       sync.Mutex
	sessions map[string]*model.Session
	nextID   int
}

func newFakeSessionRepo() *fakeSessionRepo {
	return &fakeSessionRepo{sessions: make(map[string]*model.Session)}
}

func (r *fakeSessionRepo) FindByTokenHash(ctx context.Context, tokenHash string) (*model.Session, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, s := range r.sessions {
		if s.TokenHash == tokenHash {
			cp := *s
			return &cp, nil
		}
	}
	return nil, nil
}

func (r *fakeSessionRepo) Create(ctx context.Context, params model.CreateSessionParams) (*model.Session, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.nextID++
	now := time.Now()
	session := &model.Session{
		ID:             fmt.Sprintf("sess-%d", r.nextID),
		TokenHash:      params.TokenHash,
		AccountID:      params.AccountID,
		Role:           params.Role,
		Email:          params.Email,
		LastActivityAt: now,
		CreatedAt:      now,
	}
	r.sessions[session.ID] = session
	cp := *session
	return &cp, nil
}

func (r *fakeSessionRepo) Touch(ctx context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if s, ok := r.sessions[id]; ok {
		s.LastActivityAt = time.Now()
	}
	return nil
}

func (r *fakeSessionRepo) Delete(ctx context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.sessions, id)
	return nil
}

func (r *fakeSessionRepo) DeleteByAccountID(ctx context.Context, accountID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for id, s := range r.sessions {
		if s.AccountID == accountID {
			delete(r.sessions, id)
		}
	}
	return nil
}

func (r *fakeSessionRepo) DeleteIdle(ctx context.Context, idleTimeout time.Duration) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var count int64
	for id, s := range r.sessions {
		if time.Since(s.LastActivityAt) > idleTimeout {
			delete(r.sessions, id)
			count++
		}
	}
	return count, nil
}

// backdate rewinds a session's activity timestamp, for idle-timeout tests.
func (r *fakeSessionRepo) backdate(tokenHash string, by time.Duration) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, s := range r.sessions {
		if s.TokenHash == tokenHash {
			s.LastActivityAt = s.LastActivityAt.Add(-by)
		}
	}
}

func (r *fakeSessionRepo) count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.sessions)
}

// fakeJobseekerRepo / fakeCompanyRepo store one profile per account.
type fakeJobseekerRepo struct {
	mu       sync.Mutex
	profiles map[string]*model.JobseekerProfile
}

func newFakeJobseekerRepo() *fakeJobseekerRepo {
	return &fakeJobseekerRepo{profiles: make(map[string]*model.JobseekerProfile)}
}

func (r *fakeJobseekerRepo) FindByAccountID(ctx context.Context, accountID string) (*model.JobseekerProfile, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if p, ok := r.profiles[accountID]; ok {
		cp := *p
		return &cp, nil
	}
	return nil, nil
}

func (r *fakeJobseekerRepo) Create(ctx context.Context, params model.CreateJobseekerProfileParams) (*model.JobseekerProfile, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	profile := &model.JobseekerProfile{
		ID:        "jsp-" + params.AccountID,
		AccountID: params.AccountID,
		FirstName: params.FirstName,
		LastName:  params.LastName,
		Phone:     params.Phone,
		Headline:  params.Headline,
		Skills:    params.Skills,
		Location:  params.Location,
		CreatedAt: time.Now(),
		UpdatedAt: time.Now(),
	}
	r.profiles[params.AccountID] = profile
	cp := *profile
	return &cp, nil
}

type fakeCompanyRepo struct {
	mu       sync.Mutex
	profiles map[string]*model.CompanyProfile
}

func newFakeCompanyRepo() *fakeCompanyRepo {
	return &fakeCompanyRepo{profiles: make(map[string]*model.CompanyProfile)}
}

func (r *fakeCompanyRepo) FindByAccountID(ctx context.Context, accountID string) (*model.CompanyProfile, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if p, ok := r.profiles[accountID]; ok {
		cp := *p
		return &cp, nil
	}
	return nil, nil
}

func (r *fakeCompanyRepo) Create(ctx context.Context, params model.CreateCompanyProfileParams) (*model.CompanyProfile, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	profile := &model.CompanyProfile{
		ID:          "cp-" + params.AccountID,
		AccountID:   params.AccountID,
		CompanyName: params.CompanyName,
		Website:     params.Website,
		Industry:    params.Industry,
		Size:        params.Size,
		Location:    params.Location,
		Description: params.Description,
		CreatedAt:   time.Now(),
		UpdatedAt:   time.Now(),
	}
	r.profiles[params.AccountID] = profile
	cp := *profile
	return &cp, nil
}

// fakeMailer records sends and can be told to fail.
type fakeMailer struct {
	mu   sync.Mutex
	sent []sentMail
	fail bool
}

type sentMail struct {
	to       string
	template model.MailTemplate
	args     []string
}

func (m *fakeMailer) Send(to string, template model.MailTemplate, args ...string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.fail {
		return fmt.Errorf("smtp: connection refused")
	}
	m.sent = append(m.sent, sentMail{to: to, template: template, args: args})
	return nil
}

func (m *fakeMailer) lastSent() *sentMail {
	m.mu.Lock()
	defer m.mu.Unlock()
	if len(m.sent) == 0 {
		return nil
	}
	cp := m.sent[len(m.sent)-1]
	return &cp
}

func (m *fakeMailer) sentCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.sent)
}
