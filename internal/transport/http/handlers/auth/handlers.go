package authhandler

import (
	"encoding/json"
	"log"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"payflow/internal/domain/audit"
	"payflow/internal/domain/auth"
	"payflow/internal/transport/http/api"
	"payflow/internal/transport/http/middleware"
	"payflow/internal/transport/http/shared"
)

type Handler struct {
	DB       *pgxpool.Pool
	Secret   string
	TokenTTL time.Duration
}

func NewHandler(db *pgxpool.Pool, secret string, tokenTTL time.Duration) *Handler {
	return &Handler{DB: db, Secret: secret, TokenTTL: tokenTTL}
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type switchCompanyRequest struct {
	CompanyID string `json:"companyId"`
}

func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Route("/auth", func(r chi.Router) {
		r.Post("/login", h.handleLogin)
		r.Post("/logout", h.handleLogout)
		r.Get("/profile", h.handleProfile)
		r.Post("/switch-company", h.handleSwitchCompany)
	})
}

func (h *Handler) handleLogin(w http.ResponseWriter, r *http.Request) {
	var payload loginRequest
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		api.Fail(w, http.StatusBadRequest, "invalid_payload", "invalid request payload", middleware.GetRequestID(r.Context()))
		return
	}
	payload.Email = strings.TrimSpace(strings.ToLower(payload.Email))

	var id, companyID, role, fullName, hash string
	err := h.DB.QueryRow(r.Context(), `
    SELECT id, COALESCE(company_id::text, ''), role, COALESCE(full_name, ''), password_hash
    FROM users
    WHERE lower(email) = $1 AND active
  `, payload.Email).Scan(&id, &companyID, &role, &fullName, &hash)
	if err != nil {
		api.Fail(w, http.StatusUnauthorized, "invalid_credentials", "invalid credentials", middleware.GetRequestID(r.Context()))
		return
	}

	if err := auth.CheckPassword(hash, payload.Password); err != nil {
		api.Fail(w, http.StatusUnauthorized, "invalid_credentials", "invalid credentials", middleware.GetRequestID(r.Context()))
		return
	}

	token, err := auth.GenerateToken(h.Secret, auth.Claims{
		UserID:    id,
		CompanyID: companyID,
		Role:      role,
	}, h.TokenTTL)
	if err != nil {
		api.Fail(w, http.StatusInternalServerError, "token_error", "failed to issue token", middleware.GetRequestID(r.Context()))
		return
	}

	if _, err := h.DB.Exec(r.Context(), "UPDATE users SET last_login = now() WHERE id = $1", id); err != nil {
		log.Printf("update last_login failed: %v", err)
	}

	api.Success(w, map[string]any{
		"token": token,
		"user": map[string]string{
			"id":            id,
			"companyId":     companyID,
			"role":          role,
			"effectiveRole": auth.EffectiveRole(role, companyID),
			"fullName":      fullName,
		},
	}, middleware.GetRequestID(r.Context()))
}

// Tokens are stateless; logout exists so clients have a uniform endpoint
// to call when dropping theirs.
func (h *Handler) handleLogout(w http.ResponseWriter, r *http.Request) {
	api.Success(w, map[string]string{"status": "logged_out"}, middleware.GetRequestID(r.Context()))
}

func (h *Handler) handleProfile(w http.ResponseWriter, r *http.Request) {
	user, ok := middleware.GetUser(r.Context())
	if !ok {
		api.Fail(w, http.StatusUnauthorized, "unauthorized", "authentication required", middleware.GetRequestID(r.Context()))
		return
	}

	var email, fullName, companyName string
	err := h.DB.QueryRow(r.Context(), `
    SELECT u.email, COALESCE(u.full_name, ''), COALESCE(c.name, '')
    FROM users u
    LEFT JOIN companies c ON c.id::text = $2
    WHERE u.id = $1
  `, user.UserID, user.CompanyID).Scan(&email, &fullName, &companyName)
	if err != nil {
		api.Fail(w, http.StatusNotFound, "not_found", "user not found", middleware.GetRequestID(r.Context()))
		return
	}

	session := auth.Session{Role: user.Role, CompanyID: user.CompanyID, OriginalRole: user.OriginalRole}
	api.Success(w, map[string]any{
		"id":            user.UserID,
		"email":         email,
		"fullName":      fullName,
		"role":          user.Role,
		"effectiveRole": session.Effective(),
		"companyId":     user.CompanyID,
		"companyName":   companyName,
		"impersonating": session.Impersonating(),
	}, middleware.GetRequestID(r.Context()))
}

// handleSwitchCompany scopes a super-admin session to one company or, with
// an empty companyId, back to the global view. Each direction issues a
// fresh token; the stored role never changes.
func (h *Handler) handleSwitchCompany(w http.ResponseWriter, r *http.Request) {
	user, ok := middleware.GetUser(r.Context())
	if !ok {
		api.Fail(w, http.StatusUnauthorized, "unauthorized", "authentication required", middleware.GetRequestID(r.Context()))
		return
	}

	var payload switchCompanyRequest
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		api.Fail(w, http.StatusBadRequest, "invalid_payload", "invalid request payload", middleware.GetRequestID(r.Context()))
		return
	}
	payload.CompanyID = strings.TrimSpace(payload.CompanyID)

	session := auth.Session{Role: user.Role, CompanyID: user.CompanyID, OriginalRole: user.OriginalRole}

	var next auth.Session
	var action string
	if payload.CompanyID == "" {
		if user.Role != auth.RoleSuperAdmin {
			api.Fail(w, http.StatusForbidden, "forbidden", "super-admin role required", middleware.GetRequestID(r.Context()))
			return
		}
		next = session.SwitchBack()
		action = "auth.switch-back"
	} else {
		var active bool
		if err := h.DB.QueryRow(r.Context(), "SELECT active FROM companies WHERE id = $1", payload.CompanyID).Scan(&active); err != nil {
			api.Fail(w, http.StatusNotFound, "not_found", "company not found", middleware.GetRequestID(r.Context()))
			return
		}
		if !active {
			api.Fail(w, http.StatusConflict, "company_inactive", "company is deactivated", middleware.GetRequestID(r.Context()))
			return
		}

		// Re-scoping straight from one company to another is allowed for
		// convenience; it goes through the global state first.
		if session.Impersonating() {
			session = session.SwitchBack()
		}
		switched, err := session.SwitchCompany(payload.CompanyID)
		if err != nil {
			status := http.StatusForbidden
			if err == auth.ErrCompanyRequired {
				status = http.StatusBadRequest
			}
			api.Fail(w, status, "switch_refused", err.Error(), middleware.GetRequestID(r.Context()))
			return
		}
		next = switched
		action = "auth.switch-company"
	}

	token, err := auth.GenerateToken(h.Secret, auth.Claims{
		UserID:       user.UserID,
		CompanyID:    next.CompanyID,
		Role:         next.Role,
		OriginalRole: next.OriginalRole,
	}, h.TokenTTL)
	if err != nil {
		api.Fail(w, http.StatusInternalServerError, "token_error", "failed to issue token", middleware.GetRequestID(r.Context()))
		return
	}

	if err := audit.New(h.DB).Record(r.Context(), next.CompanyID, user.UserID, action, "company", payload.CompanyID, middleware.GetRequestID(r.Context()), shared.ClientIP(r), nil); err != nil {
		log.Printf("audit %s failed: %v", action, err)
	}

	api.Success(w, map[string]any{
		"token":         token,
		"role":          next.Role,
		"effectiveRole": next.Effective(),
		"companyId":     next.CompanyID,
		"impersonating": next.Impersonating(),
	}, middleware.GetRequestID(r.Context()))
}
