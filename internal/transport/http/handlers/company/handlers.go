package companyhandler

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
	DB *pgxpool.Pool
}

func NewHandler(db *pgxpool.Pool) *Handler {
	return &Handler{DB: db}
}

type Company struct {
	ID             string    `json:"id"`
	Name           string    `json:"name"`
	Address        string    `json:"address,omitempty"`
	Phone          string    `json:"phone,omitempty"`
	Email          string    `json:"email,omitempty"`
	PrimaryColor   string    `json:"primaryColor"`
	Latitude       *float64  `json:"latitude,omitempty"`
	Longitude      *float64  `json:"longitude,omitempty"`
	GeofenceRadius *float64  `json:"geofenceRadiusM,omitempty"`
	Active         bool      `json:"active"`
	CreatedAt      time.Time `json:"createdAt"`
}

type companyPayload struct {
	Name           string   `json:"name"`
	Address        string   `json:"address"`
	Phone          string   `json:"phone"`
	Email          string   `json:"email"`
	PrimaryColor   string   `json:"primaryColor"`
	Latitude       *float64 `json:"latitude"`
	Longitude      *float64 `json:"longitude"`
	GeofenceRadius *float64 `json:"geofenceRadiusM"`
}

func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Route("/entreprises", func(r chi.Router) {
		r.With(middleware.RequireRoles(auth.RoleSuperAdmin, auth.RoleAdmin)).Get("/", h.handleList)
		r.With(middleware.RequireRoles(auth.RoleSuperAdmin)).Post("/", h.handleCreate)
		r.With(middleware.RequireRoles(auth.RoleSuperAdmin, auth.RoleAdmin)).Get("/{companyID}", h.handleGet)
		r.With(middleware.RequireRoles(auth.RoleSuperAdmin, auth.RoleAdmin)).Put("/{companyID}", h.handleUpdate)
		r.With(middleware.RequireRoles(auth.RoleSuperAdmin)).Patch("/{companyID}/toggle-status", h.handleToggleStatus)
	})
}

// canAccess limits company reads and writes to the platform view or the
// caller's own company.
func canAccess(user auth.UserContext, companyID string) bool {
	if user.Role == auth.RoleSuperAdmin && user.CompanyID == "" {
		return true
	}
	return user.CompanyID == companyID
}

func (h *Handler) handleList(w http.ResponseWriter, r *http.Request) {
	user, ok := middleware.GetUser(r.Context())
	if !ok {
		api.Fail(w, http.StatusUnauthorized, "unauthorized", "authentication required", middleware.GetRequestID(r.Context()))
		return
	}

	query := `
    SELECT id, name, COALESCE(address,''), COALESCE(phone,''), COALESCE(email,''),
           primary_color, latitude, longitude, geofence_radius_m, active, created_at
    FROM companies
  `
	var args []any
	if user.CompanyID != "" {
		query += " WHERE id = $1"
		args = append(args, user.CompanyID)
	}
	query += " ORDER BY name"

	rows, err := h.DB.Query(r.Context(), query, args...)
	if err != nil {
		api.Fail(w, http.StatusInternalServerError, "company_list_failed", "failed to list companies", middleware.GetRequestID(r.Context()))
		return
	}
	defer rows.Close()

	var companies []Company
	for rows.Next() {
		var c Company
		if err := rows.Scan(&c.ID, &c.Name, &c.Address, &c.Phone, &c.Email, &c.PrimaryColor, &c.Latitude, &c.Longitude, &c.GeofenceRadius, &c.Active, &c.CreatedAt); err != nil {
			api.Fail(w, http.StatusInternalServerError, "company_list_failed", "failed to list companies", middleware.GetRequestID(r.Context()))
			return
		}
		companies = append(companies, c)
	}
	api.Success(w, companies, middleware.GetRequestID(r.Context()))
}

func (h *Handler) handleCreate(w http.ResponseWriter, r *http.Request) {
	user, ok := middleware.GetUser(r.Context())
	if !ok {
		api.Fail(w, http.StatusUnauthorized, "unauthorized", "authentication required", middleware.GetRequestID(r.Context()))
		return
	}

	var payload companyPayload
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		api.Fail(w, http.StatusBadRequest, "invalid_payload", "invalid request payload", middleware.GetRequestID(r.Context()))
		return
	}

	v := shared.NewValidator()
	v.Required("name", payload.Name, "company name is required")
	if v.Reject(w, middleware.GetRequestID(r.Context())) {
		return
	}

	if payload.PrimaryColor == "" {
		payload.PrimaryColor = "#2563eb"
	}

	var id string
	err := h.DB.QueryRow(r.Context(), `
    INSERT INTO companies (name, address, phone, email, primary_color, latitude, longitude, geofence_radius_m)
    VALUES ($1,$2,$3,$4,$5,$6,$7,$8)
    RETURNING id
  `, strings.TrimSpace(payload.Name), payload.Address, payload.Phone, payload.Email, payload.PrimaryColor,
		payload.Latitude, payload.Longitude, payload.GeofenceRadius).Scan(&id)
	if err != nil {
		api.Fail(w, http.StatusInternalServerError, "company_create_failed", "failed to create company", middleware.GetRequestID(r.Context()))
		return
	}

	if err := audit.New(h.DB).Record(r.Context(), id, user.UserID, "company.create", "company", id, middleware.GetRequestID(r.Context()), shared.ClientIP(r), payload); err != nil {
		log.Printf("audit company.create failed: %v", err)
	}
	api.Created(w, map[string]string{"id": id}, middleware.GetRequestID(r.Context()))
}

func (h *Handler) handleGet(w http.ResponseWriter, r *http.Request) {
	user, ok := middleware.GetUser(r.Context())
	if !ok {
		api.Fail(w, http.StatusUnauthorized, "unauthorized", "authentication required", middleware.GetRequestID(r.Context()))
		return
	}
	companyID := chi.URLParam(r, "companyID")
	if !canAccess(user, companyID) {
		api.Fail(w, http.StatusForbidden, "forbidden", "not allowed", middleware.GetRequestID(r.Context()))
		return
	}

	var c Company
	err := h.DB.QueryRow(r.Context(), `
    SELECT id, name, COALESCE(address,''), COALESCE(phone,''), COALESCE(email,''),
           primary_color, latitude, longitude, geofence_radius_m, active, created_at
    FROM companies
    WHERE id = $1
  `, companyID).Scan(&c.ID, &c.Name, &c.Address, &c.Phone, &c.Email, &c.PrimaryColor, &c.Latitude, &c.Longitude, &c.GeofenceRadius, &c.Active, &c.CreatedAt)
	if err != nil {
		api.Fail(w, http.StatusNotFound, "not_found", "company not found", middleware.GetRequestID(r.Context()))
		return
	}
	api.Success(w, c, middleware.GetRequestID(r.Context()))
}

func (h *Handler) handleUpdate(w http.ResponseWriter, r *http.Request) {
	user, ok := middleware.GetUser(r.Context())
	if !ok {
		api.Fail(w, http.StatusUnauthorized, "unauthorized", "authentication required", middleware.GetRequestID(r.Context()))
		return
	}
	companyID := chi.URLParam(r, "companyID")
	if !canAccess(user, companyID) {
		api.Fail(w, http.StatusForbidden, "forbidden", "not allowed", middleware.GetRequestID(r.Context()))
		return
	}

	var payload companyPayload
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		api.Fail(w, http.StatusBadRequest, "invalid_payload", "invalid request payload", middleware.GetRequestID(r.Context()))
		return
	}

	v := shared.NewValidator()
	v.Required("name", payload.Name, "company name is required")
	if v.Reject(w, middleware.GetRequestID(r.Context())) {
		return
	}

	tag, err := h.DB.Exec(r.Context(), `
    UPDATE companies
    SET name = $1, address = $2, phone = $3, email = $4, primary_color = COALESCE(NULLIF($5,''), primary_color),
        latitude = $6, longitude = $7, geofence_radius_m = $8, updated_at = now()
    WHERE id = $9
  `, strings.TrimSpace(payload.Name), payload.Address, payload.Phone, payload.Email, payload.PrimaryColor,
		payload.Latitude, payload.Longitude, payload.GeofenceRadius, companyID)
	if err != nil {
		api.Fail(w, http.StatusInternalServerError, "company_update_failed", "failed to update company", middleware.GetRequestID(r.Context()))
		return
	}
	if tag.RowsAffected() == 0 {
		api.Fail(w, http.StatusNotFound, "not_found", "company not found", middleware.GetRequestID(r.Context()))
		return
	}

	if err := audit.New(h.DB).Record(r.Context(), companyID, user.UserID, "company.update", "company", companyID, middleware.GetRequestID(r.Context()), shared.ClientIP(r), payload); err != nil {
		log.Printf("audit company.update failed: %v", err)
	}
	api.Success(w, map[string]string{"id": companyID}, middleware.GetRequestID(r.Context()))
}

func (h *Handler) handleToggleStatus(w http.ResponseWriter, r *http.Request) {
	user, ok := middleware.GetUser(r.Context())
	if !ok {
		api.Fail(w, http.StatusUnauthorized, "unauthorized", "authentication required", middleware.GetRequestID(r.Context()))
		return
	}
	companyID := chi.URLParam(r, "companyID")

	var active bool
	err := h.DB.QueryRow(r.Context(), `
    UPDATE companies SET active = NOT active, updated_at = now()
    WHERE id = $1
    RETURNING active
  `, companyID).Scan(&active)
	if err != nil {
		api.Fail(w, http.StatusNotFound, "not_found", "company not found", middleware.GetRequestID(r.Context()))
		return
	}

	if err := audit.New(h.DB).Record(r.Context(), companyID, user.UserID, "company.toggle-status", "company", companyID, middleware.GetRequestID(r.Context()), shared.ClientIP(r), map[string]bool{"active": active}); err != nil {
		log.Printf("audit company.toggle-status failed: %v", err)
	}
	api.Success(w, map[string]any{"id": companyID, "active": active}, middleware.GetRequestID(r.Context()))
}
