package middleware

import (
	"context"
	"net/http"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/careerdesk/portal-server-go/internal/model"
	"github.com/careerdesk/portal-server-go/internal/repository"
	"github.com/careerdesk/portal-server-go/internal/service"
)

const (
	SessionCookie = "cd_session"
	// Cookie max age is a client hint only; the server enforces the sliding
	// idle timeout on every validated request.
	SessionCookieMaxAge = 7 * 24 * time.Hour
)

type contextKey string

const (
	SessionContextKey contextKey = "session"
	AccountContextKey contextKey = "account"
)

func GetSession(ctx context.Context) *model.Session {
	if session, ok := ctx.Value(SessionContextKey).(*model.Session); ok {
		return session
	}
	return nil
}

func GetAccount(ctx context.Context) *model.Account {
	if account, ok := ctx.Value(AccountContextKey).(*model.Account); ok {
		return account
	}
	return nil
}

// SessionMiddleware gates routes behind a valid authenticated session. Every
// pass through RequireAuth slides the idle window via SessionService.Validate
// and resolves the backing account; a session whose account no longer exists
// is rejected.
type SessionMiddleware struct {
	sessions    *service.SessionService
	accountRepo repository.AccountRepository
}

func NewSessionMiddleware(
	sessions *service.SessionService,
	accountRepo repository.AccountRepository,
) *SessionMiddleware {
	return &SessionMiddleware{
		sessions:    sessions,
		accountRepo: accountRepo,
	}
}

func (m *SessionMiddleware) RequireAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		cookie, err := r.Cookie(SessionCookie)
		if err != nil || cookie.Value == "" {
			writeJSON(w, http.StatusUnauthorized, map[string]string{
				"error": "Unauthorized",
			})
			return
		}

		session, err := m.sessions.Validate(r.Context(), cookie.Value)
		if err != nil {
			log.Error().Err(err).Msg("session middleware: validation error")
			writeJSON(w, http.StatusInternalServerError, map[string]string{
				"error": "Session validation failed",
			})
			return
		}

		if session == nil {
			writeJSON(w, http.StatusUnauthorized, map[string]string{
				"error": "Unauthorized",
			})
			return
		}

		account, err := m.accountRepo.FindByID(r.Context(), session.AccountID)
		if err != nil || account == nil {
			writeJSON(w, http.StatusUnauthorized, map[string]string{
				"error": "Unauthorized",
			})
			return
		}

		ctx := r.Context()
		ctx = context.WithValue(ctx, SessionContextKey, session)
		ctx = context.WithValue(ctx, AccountContextKey, account)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// RequireRole layers a role check on top of RequireAuth.
func (m *SessionMiddleware) RequireRole(role model.Role) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return m.RequireAuth(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			session := GetSession(r.Context())
			if session == nil || session.Role != role {
				writeJSON(w, http.StatusForbidden, map[string]string{
					"error": "Forbidden",
				})
				return
			}
			next.ServeHTTP(w, r)
		}))
	}
}

func SetSessionCookie(w http.ResponseWriter, token string, secure bool) {
	http.SetCookie(w, &http.Cookie{
		Name:     SessionCookie,
		Value:    token,
		Path:     "/",
		MaxAge:   int(SessionCookieMaxAge.Seconds()),
		HttpOnly: true,
		Secure:   secure,
		SameSite: http.SameSiteLaxMode,
	})
}

func ClearSessionCookie(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{
		Name:   SessionCookie,
		Value:  "",
		Path:   "/",
		MaxAge: -1,
	})
}
