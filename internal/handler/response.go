package handler

import (
	"net/http"
	"time"

	"github.com/careerdesk/portal-server-go/internal/httputil"
	"github.com/careerdesk/portal-server-go/internal/model"
)

func writeJSON(w http.ResponseWriter, status int, data any) {
	httputil.WriteJSON(w, status, data)
}

func writeError(w http.ResponseWriter, err error) {
	httputil.WriteError(w, err)
}

func formatTime(t *time.Time) any {
	if t == nil {
		return nil
	}
	return t.Format(time.RFC3339)
}

func formatAccount(account *model.Account) map[string]any {
	return map[string]any{
		"id":              account.ID,
		"email":           account.Email,
		"role":            account.Role,
		"emailVerified":   account.EmailVerified,
		"profileComplete": account.ProfileComplete,
		"lastLoginAt":     formatTime(account.LastLoginAt),
		"createdAt":       account.CreatedAt.Format(time.RFC3339),
	}
}
