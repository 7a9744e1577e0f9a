package audit

import (
	"context"
	"net/http"
	"time"

	"github.com/rs/zerolog/log"
)

type EventType string

const (
	EventAccountRegister  EventType = "account_register"
	EventEmailVerified    EventType = "email_verified"
	EventLoginSuccess     EventType = "login_success"
	EventLoginFailure     EventType = "login_failure"
	EventLogout           EventType = "logout"
	EventProfileComplete  EventType = "profile_complete"
	EventResetAuthorized  EventType = "reset_authorized"
	EventPasswordReset    EventType = "password_reset"
	EventRateLimitExceed  EventType = "rate_limit_exceeded"
	EventAuthFailure      EventType = "auth_failure"
	EventSessionDestroyed EventType = "session_destroyed"
)

type Event struct {
	Type      EventType
	AccountID string
	Email     string
	IP        string
	UserAgent string
	Details   map[string]interface{}
}

func Log(ctx context.Context, event Event) {
	logger := log.With().
		Str("audit", "security").
		Str("event_type", string(event.Type)).
		Time("timestamp", time.Now()).
		Logger()

	if event.AccountID != "" {
		logger = logger.With().Str("account_id", event.AccountID).Logger()
	}
	if event.Email != "" {
		logger = logger.With().Str("email", event.Email).Logger()
	}
	if event.IP != "" {
		logger = logger.With().Str("ip", event.IP).Logger()
	}
	if event.UserAgent != "" {
		logger = logger.With().Str("user_agent", event.UserAgent).Logger()
	}

	dict := logger.Info()
	for k, v := range event.Details {
		dict = dict.Interface(k, v)
	}
	dict.Msg("audit event")
}

// LogFromRequest fills transport details from the request.
func LogFromRequest(r *http.Request, event Event) {
	event.IP = r.RemoteAddr
	if forwarded := r.Header.Get("X-Forwarded-For"); forwarded != "" {
		event.IP = forwarded
	}
	event.UserAgent = r.UserAgent()
	Log(r.Context(), event)
}
