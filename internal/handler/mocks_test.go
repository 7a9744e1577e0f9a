package handler

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/careerdesk/portal-server-go/internal/model"
	"github.com/careerdesk/portal-server-go/internal/repository"
)

// In-memory repositories backing the handler tests, so requests exercise
// the full handler, service, and middleware path without Postgres.

type memAccountRepo struct {
	mu       sync.Mutex
	accounts map[string]*model.Account
	nextID   int
}

func newMemAccountRepo() *memAccountRepo {
	return &memAccountRepo{accounts: make(map[string]*model.Account)}
}

func (r *memAccountRepo) FindByID(ctx context.Context, id string) (*model.Account, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if a, ok := r.accounts[id]; ok {
		cp := *a
		return &cp, nil
	}
	return nil, nil
}

func (r *memAccountRepo) FindByEmail(ctx context.Context, email string) (*model.Account, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, a := range r.accounts {
		if a.Email == email {
			cp := *a
			return &cp, nil
		}
	}
	return nil, nil
}

func (r *memAccountRepo) Create(ctx context.Context, params model.CreateAccountParams) (*model.Account, error) {
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
	cp := *account
	return &cp, nil
}

func (r *memAccountRepo) SetOTP(ctx context.Context, id string, params model.SetOTPParams) (*model.Account, error) {
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
	cp := *a
	return &cp, nil
}

func (r *memAccountRepo) ClearOTP(ctx context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if a, ok := r.accounts[id]; ok {
		a.OTPCode = nil
		a.OTPExpiresAt = nil
	}
	return nil
}

func (r *memAccountRepo) MarkVerified(ctx context.Context, id string) (*model.Account, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	a, ok := r.accounts[id]
	if !ok {
		return nil, nil
	}
	a.EmailVerified = true
	a.OTPCode = nil
	a.OTPExpiresAt = nil
	cp := *a
	return &cp, nil
}

func (r *memAccountRepo) SetResetMarker(ctx context.Context, id, marker string, expiresAt time.Time) (*model.Account, error) {
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
	cp := *a
	return &cp, nil
}

func (r *memAccountRepo) SetPassword(ctx context.Context, id, passwordHash string, clearReset bool) (*model.Account, error) {
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
	cp := *a
	return &cp, nil
}

func (r *memAccountRepo) MarkProfileComplete(ctx context.Context, id string) (*model.Account, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	a, ok := r.accounts[id]
	if !ok {
		return nil, nil
	}
	a.ProfileComplete = true
	cp := *a
	return &cp, nil
}

func (r *memAccountRepo) UpdateLastLogin(ctx context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if a, ok := r.accounts[id]; ok {
		now := time.Now()
		a.LastLoginAt = &now
	}
	return nil
}

func (r *memAccountRepo) ClearExpiredChallenges(ctx context.Context) (int64, error) {
	return 0, nil
}

func (r *memAccountRepo) WithTx(tx *sqlx.Tx) repository.AccountRepository { return r }

type memSessionRepo struct {
	mu       sync.Mutex
	sessions map[string]*model.Session
	nextID   int
}

func newMemSessionRepo() *memSessionRepo {
	return &memSessionRepo{sessions: make(map[string]*model.Session)}
}

func (r *memSessionRepo) FindByTokenHash(ctx context.Context, tokenHash string) (*model.Session, error) {
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

func (r *memSessionRepo) Create(ctx context.Context, params model.CreateSessionParams) (*model.Session, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.nextID++
	session := &model.Session{
		ID:             fmt.Sprintf("sess-%d", r.nextID),
		TokenHash:      params.TokenHash,
		AccountID:      params.AccountID,
		Role:           params.Role,
		Email:          params.Email,
		LastActivityAt: time.Now(),
		CreatedAt:      time.Now(),
	}
	r.sessions[session.ID] = session
	cp := *session
	return &cp, nil
}

func (r *memSessionRepo) Touch(ctx context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if s, ok := r.sessions[id]; ok {
		s.LastActivityAt = time.Now()
	}
	return nil
}

func (r *memSessionRepo) Delete(ctx context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.sessions, id)
	return nil
}

func (r *memSessionRepo) DeleteByAccountID(ctx context.Context, accountID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for id, s := range r.sessions {
		if s.AccountID == accountID {
			delete(r.sessions, id)
		}
	}
	return nil
}

func (r *memSessionRepo) DeleteIdle(ctx context.Context, idleTimeout time.Duration) (int64, error) {
	return 0, nil
}

func (r *memSessionRepo) count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.sessions)
}

type memJobseekerRepo struct {
	mu       sync.Mutex
	profiles map[string]*model.JobseekerProfile
}

func newMemJobseekerRepo() *memJobseekerRepo {
	return &memJobseekerRepo{profiles: make(map[string]*model.JobseekerProfile)}
}

func (r *memJobseekerRepo) FindByAccountID(ctx context.Context, accountID string) (*model.JobseekerProfile, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if p, ok := r.profiles[accountID]; ok {
		cp := *p
		return &cp, nil
	}
	return nil, nil
}

func (r *memJobseekerRepo) Create(ctx context.Context, params model.CreateJobseekerProfileParams) (*model.JobseekerProfile, error) {
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

type memCompanyRepo struct {
	mu       sync.Mutex
	profiles map[string]*model.CompanyProfile
}

func newMemCompanyRepo() *memCompanyRepo {
	return &memCompanyRepo{profiles: make(map[string]*model.CompanyProfile)}
}

func (r *memCompanyRepo) FindByAccountID(ctx context.Context, accountID string) (*model.CompanyProfile, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if p, ok := r.profiles[accountID]; ok {
		cp := *p
		return &cp, nil
	}
	return nil, nil
}

func (r *memCompanyRepo) Create(ctx context.Context, params model.CreateCompanyProfileParams) (*model.CompanyProfile, error) {
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

// recordingMailer captures outgoing mail so tests can read codes back.
type recordingMailer struct {
	mu   sync.Mutex
	sent []recordedMail
	fail bool
}

type recordedMail struct {
	to       string
	template model.MailTemplate
	args     []string
}

func (m *recordingMailer) Send(to string, template model.MailTemplate, args ...string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.fail {
		return fmt.Errorf("smtp: connection refused")
	}
	m.sent = append(m.sent, recordedMail{to: to, template: template, args: args})
	return nil
}

func (m *recordingMailer) last() *recordedMail {
	m.mu.Lock()
	defer m.mu.Unlock()
	if len(m.sent) == 0 {
		return nil
	}
	cp := m.sent[len(m.sent)-1]
	return &cp
}

// stubLimiter lets tests flip rate limiting on and off per check.
type stubLimiter struct {
	denyLogin bool
	denyOTP   bool
}

func (l *stubLimiter) CheckLoginLimit(ctx context.Context, email string) (bool, time.Time) {
	return !l.denyLogin, time.Now().Add(time.Minute)
}

func (l *stubLimiter) CheckOTPRequestLimit(ctx context.Context, email string) (bool, time.Time) {
	return !l.denyOTP, time.Now().Add(5 * time.Minute)
}
