package handlers

import (
	"net/http"

	"github.com/diagnosis/lifesave-bloodbank/internal/domain"
	httpmw "github.com/diagnosis/lifesave-bloodbank/internal/http/middleware"
	"github.com/diagnosis/lifesave-bloodbank/internal/http/response"
	"github.com/diagnosis/lifesave-bloodbank/internal/service"
	"github.com/diagnosis/lifesave-bloodbank/pkg/logger"
)

// Login handles POST /api/auth/login.
func (h *Handlers) Login(w http.ResponseWriter, r *http.Request) {
	var in struct {
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	if err := decodeJSON(r, &in); err != nil {
		response.BadRequest(w, "Invalid JSON body")
		return
	}

	res, err := h.auth.Login(r.Context(), in.Email, in.Password)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

type verifiedUser struct {
	*domain.Account
	Capabilities []domain.Capability `json:"capabilities"`
}

// Verify handles GET /api/auth/verify and echoes the caller with the
// capabilities the dashboards branch on.
func (h *Handlers) Verify(w http.ResponseWriter, r *http.Request) {
	p := httpmw.Principal(r)
	if p == nil {
		h.fail(w, r, domain.ErrUnauthenticated)
		return
	}
	acc, err := h.auth.CurrentUser(r.Context(), p.AccountID)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"user": verifiedUser{Account: acc, Capabilities: acc.Role.Capabilities()},
	})
}

// CreateAdmin handles POST /api/auth/create-admin. It is only mounted when
// dev seeding is allowed.
func (h *Handlers) CreateAdmin(w http.ResponseWriter, r *http.Request) {
	if err := h.auth.SeedDefaults(r.Context()); err != nil {
		h.fail(w, r, err)
		return
	}
	logger.WarnContext(r.Context(), "Default accounts seeded over HTTP", "admin", service.SeedAdminEmail)
	writeJSON(w, http.StatusOK, withMessage("Default users created successfully"))
}
