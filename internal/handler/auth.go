package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/careerdesk/portal-server-go/internal/audit"
	apperrors "github.com/careerdesk/portal-server-go/internal/errors"
	"github.com/careerdesk/portal-server-go/internal/middleware"
	"github.com/careerdesk/portal-server-go/internal/model"
	"github.com/careerdesk/portal-server-go/internal/service"
	"github.com/careerdesk/portal-server-go/internal/util"
)

// AuthLimiter is the slice of the rate limiter the auth endpoints need.
type AuthLimiter interface {
	CheckLoginLimit(ctx context.Context, email string) (bool, time.Time)
	CheckOTPRequestLimit(ctx context.Context, email string) (bool, time.Time)
}

var _ AuthLimiter = (*service.RateLimiter)(nil)

type AuthHandler struct {
	accounts     *service.AccountService
	sessions     *service.SessionService
	rateLimiter  AuthLimiter
	isProduction bool
}

func NewAuthHandler(
	accounts *service.AccountService,
	sessions *service.SessionService,
	rateLimiter AuthLimiter,
	isProduction bool,
) *AuthHandler {
	return &AuthHandler{
		accounts:     accounts,
		sessions:     sessions,
		rateLimiter:  rateLimiter,
		isProduction: isProduction,
	}
}

func (h *AuthHandler) Routes() chi.Router {
	r := chi.NewRouter()

	r.Post("/register", h.Register)
	r.Post("/verify-otp", h.VerifyOTP)
	r.Post("/resend-otp", h.ResendOTP)
	r.Post("/login", h.Login)
	r.Post("/logout", h.Logout)
	r.Get("/session", h.SessionStatus)
	r.Post("/forgot-password", h.ForgotPassword)
	r.Post("/verify-reset-otp", h.VerifyResetOTP)
	r.Post("/reset-password", h.ResetPassword)

	return r
}

func (h *AuthHandler) Register(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Email string     `json:"email"`
		Role  model.Role `json:"role"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, apperrors.ValidationError("Invalid request body"))
		return
	}

	account, err := h.accounts.Register(r.Context(), req.Email, req.Role)
	if err != nil {
		// A mail failure still created the account; report both facts.
		if account != nil {
			appErr, _ := apperrors.AsAppError(err)
			writeJSON(w, http.StatusBadGateway, map[string]any{
				"account": formatAccount(account),
				"error":   appErr.Message,
				"code":    appErr.Code,
			})
			return
		}
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, map[string]any{
		"account": formatAccount(account),
		"message": "Verification code sent",
	})
}

func (h *AuthHandler) VerifyOTP(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Email string `json:"email"`
		Code  string `json:"code"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, apperrors.ValidationError("Invalid request body"))
		return
	}

	account, token, err := h.accounts.VerifyEmail(r.Context(), req.Email, req.Code)
	if err != nil {
		writeError(w, err)
		return
	}

	middleware.SetSessionCookie(w, token, h.isProduction)
	writeJSON(w, http.StatusOK, map[string]any{
		"account": formatAccount(account),
	})
}

func (h *AuthHandler) ResendOTP(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Email string `json:"email"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, apperrors.ValidationError("Invalid request body"))
		return
	}

	if !h.allowOTPRequest(w, r, req.Email) {
		return
	}

	if err := h.accounts.ResendOTP(r.Context(), req.Email); err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{"message": "Verification code sent"})
}

func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, apperrors.ValidationError("Invalid request body"))
		return
	}

	email := util.NormalizeEmail(req.Email)
	if allowed, resetAt := h.rateLimiter.CheckLoginLimit(r.Context(), email); !allowed {
		audit.LogFromRequest(r, audit.Event{Type: audit.EventRateLimitExceed, Email: email})
		w.Header().Set("Retry-After", resetAt.UTC().Format(http.TimeFormat))
		writeError(w, apperrors.RateLimitExceeded())
		return
	}

	result, err := h.accounts.Login(r.Context(), email, req.Password)
	if err != nil {
		writeError(w, err)
		return
	}

	middleware.SetSessionCookie(w, result.Token, h.isProduction)
	writeJSON(w, http.StatusOK, map[string]any{
		"account":        formatAccount(result.Account),
		"profilePending": result.ProfilePending,
	})
}

func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	cookie, err := r.Cookie(middleware.SessionCookie)
	if err == nil && cookie.Value != "" {
		h.sessions.Destroy(r.Context(), cookie.Value)
		audit.LogFromRequest(r, audit.Event{Type: audit.EventLogout})
	}

	middleware.ClearSessionCookie(w)
	writeJSON(w, http.StatusOK, map[string]bool{"success": true})
}

func (h *AuthHandler) SessionStatus(w http.ResponseWriter, r *http.Request) {
	cookie, err := r.Cookie(middleware.SessionCookie)
	if err != nil || cookie.Value == "" {
		writeJSON(w, http.StatusOK, map[string]any{"authenticated": false})
		return
	}

	session, err := h.sessions.Validate(r.Context(), cookie.Value)
	if err != nil || session == nil {
		writeJSON(w, http.StatusOK, map[string]any{"authenticated": false})
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"authenticated": true,
		"accountId":     session.AccountID,
		"role":          session.Role,
		"email":         session.Email,
	})
}

func (h *AuthHandler) ForgotPassword(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Email string `json:"email"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, apperrors.ValidationError("Invalid request body"))
		return
	}

	if !h.allowOTPRequest(w, r, req.Email) {
		return
	}

	if err := h.accounts.ForgotPassword(r.Context(), req.Email); err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{"message": "Reset code sent"})
}

func (h *AuthHandler) VerifyResetOTP(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Email string `json:"email"`
		Code  string `json:"code"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, apperrors.ValidationError("Invalid request body"))
		return
	}

	if err := h.accounts.VerifyResetOTP(r.Context(), req.Email, req.Code); err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{"message": "Reset authorized"})
}

func (h *AuthHandler) ResetPassword(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Email       string `json:"email"`
		NewPassword string `json:"newPassword"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, apperrors.ValidationError("Invalid request body"))
		return
	}

	if err := h.accounts.ResetPassword(r.Context(), req.Email, req.NewPassword); err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{"message": "Password updated"})
}

func (h *AuthHandler) allowOTPRequest(w http.ResponseWriter, r *http.Request, email string) bool {
	email = util.NormalizeEmail(email)
	allowed, resetAt := h.rateLimiter.CheckOTPRequestLimit(r.Context(), email)
	if !allowed {
		audit.LogFromRequest(r, audit.Event{Type: audit.EventRateLimitExceed, Email: email})
		w.Header().Set("Retry-After", resetAt.UTC().Format(http.TimeFormat))
		writeError(w, apperrors.RateLimitExceeded())
		return false
	}
	return true
}
