package handler

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"

	apperrors "github.com/careerdesk/portal-server-go/internal/errors"
	"github.com/careerdesk/portal-server-go/internal/middleware"
	"github.com/careerdesk/portal-server-go/internal/model"
	"github.com/careerdesk/portal-server-go/internal/service"
)

type ProfileHandler struct {
	accounts *service.AccountService
	guard    *middleware.SessionMiddleware
}

func NewProfileHandler(accounts *service.AccountService, guard *middleware.SessionMiddleware) *ProfileHandler {
	return &ProfileHandler{accounts: accounts, guard: guard}
}

func (h *ProfileHandler) Routes() chi.Router {
	r := chi.NewRouter()

	r.With(h.guard.RequireRole(model.RoleJobseeker)).Post("/jobseeker", h.CompleteJobseeker)
	r.With(h.guard.RequireRole(model.RoleCompany)).Post("/company", h.CompleteCompany)
	r.With(h.guard.RequireAuth).Get("/me", h.Me)

	return r
}

func (h *ProfileHandler) CompleteJobseeker(w http.ResponseWriter, r *http.Request) {
	account := middleware.GetAccount(r.Context())

	var req struct {
		FirstName string   `json:"firstName"`
		LastName  string   `json:"lastName"`
		Phone     *string  `json:"phone"`
		Headline  *string  `json:"headline"`
		Skills    []string `json:"skills"`
		Location  *string  `json:"location"`
		Password  string   `json:"password"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, apperrors.ValidationError("Invalid request body"))
		return
	}

	profile, err := h.accounts.CompleteJobseekerProfile(r.Context(), account, model.CreateJobseekerProfileParams{
		FirstName: req.FirstName,
		LastName:  req.LastName,
		Phone:     req.Phone,
		Headline:  req.Headline,
		Skills:    req.Skills,
		Location:  req.Location,
	}, req.Password)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, map[string]any{
		"account": formatAccount(account),
		"profile": profile,
	})
}

func (h *ProfileHandler) CompleteCompany(w http.ResponseWriter, r *http.Request) {
	account := middleware.GetAccount(r.Context())

	var req struct {
		CompanyName string  `json:"companyName"`
		Website     *string `json:"website"`
		Industry    *string `json:"industry"`
		Size        *string `json:"size"`
		Location    *string `json:"location"`
		Description *string `json:"description"`
		Password    string  `json:"password"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, apperrors.ValidationError("Invalid request body"))
		return
	}

	profile, err := h.accounts.CompleteCompanyProfile(r.Context(), account, model.CreateCompanyProfileParams{
		CompanyName: req.CompanyName,
		Website:     req.Website,
		Industry:    req.Industry,
		Size:        req.Size,
		Location:    req.Location,
		Description: req.Description,
	}, req.Password)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, map[string]any{
		"account": formatAccount(account),
		"profile": profile,
	})
}

func (h *ProfileHandler) Me(w http.ResponseWriter, r *http.Request) {
	account := middleware.GetAccount(r.Context())
	session := middleware.GetSession(r.Context())

	writeJSON(w, http.StatusOK, map[string]any{
		"account": formatAccount(account),
		"session": map[string]any{
			"lastActivityAt": session.LastActivityAt,
		},
	})
}
