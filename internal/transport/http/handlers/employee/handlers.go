package employeehandler

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
	"payflow/internal/domain/employee"
	cryptoutil "payflow/internal/platform/crypto"
	"payflow/internal/transport/http/api"
	"payflow/internal/transport/http/middleware"
	"payflow/internal/transport/http/shared"
)

type Handler struct {
	DB     *pgxpool.Pool
	Crypto *cryptoutil.Service
}

func NewHandler(db *pgxpool.Pool, crypto *cryptoutil.Service) *Handler {
	return &Handler{DB: db, Crypto: crypto}
}

type Employee struct {
	ID            string    `json:"id"`
	CompanyID     string    `json:"companyId"`
	FirstName     string    `json:"firstName"`
	LastName      string    `json:"lastName"`
	Email         string    `json:"email,omitempty"`
	Phone         string    `json:"phone,omitempty"`
	Position      string    `json:"position,omitempty"`
	MaritalStatus string    `json:"maritalStatus,omitempty"`
	Nationality   string    `json:"nationality,omitempty"`
	ContractType  string    `json:"contractType"`
	BaseSalary    float64   `json:"baseSalary"`
	BankDetails   string    `json:"bankDetails,omitempty"`
	Status        string    `json:"status"`
	CreatedAt     time.Time `json:"createdAt"`
}

type employeePayload struct {
	FirstName     string  `json:"firstName"`
	LastName      string  `json:"lastName"`
	Email         string  `json:"email"`
	Phone         string  `json:"phone"`
	Position      string  `json:"position"`
	MaritalStatus string  `json:"maritalStatus"`
	Nationality   string  `json:"nationality"`
	ContractType  string  `json:"contractType"`
	BaseSalary    float64 `json:"baseSalary"`
	BankDetails   string  `json:"bankDetails"`
}

func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Route("/employes", func(r chi.Router) {
		r.With(middleware.RequireRoles(auth.RoleAdmin, auth.RoleCaissier, auth.RoleVigile)).Get("/", h.handleList)
		r.With(middleware.RequireRoles(auth.RoleAdmin)).Post("/", h.handleCreate)
		r.With(middleware.RequireRoles(auth.RoleAdmin, auth.RoleCaissier)).Get("/{employeeID}", h.handleGet)
		r.With(middleware.RequireRoles(auth.RoleAdmin)).Put("/{employeeID}", h.handleUpdate)
		r.With(middleware.RequireRoles(auth.RoleAdmin)).Patch("/{employeeID}", h.handleUpdate)
		r.With(middleware.RequireRoles(auth.RoleAdmin)).Patch("/{employeeID}/toggle-status", h.handleToggleStatus)
	})
}

func (h *Handler) bankDetailsOut(stored []byte) string {
	if len(stored) == 0 {
		return ""
	}
	plain, err := h.Crypto.DecryptString(stored)
	if err != nil {
		log.Printf("bank details decrypt failed: %v", err)
		return ""
	}
	return plain
}

func (h *Handler) handleList(w http.ResponseWriter, r *http.Request) {
	user, ok := middleware.GetUser(r.Context())
	if !ok || user.CompanyID == "" {
		api.Fail(w, http.StatusUnauthorized, "unauthorized", "company scope required", middleware.GetRequestID(r.Context()))
		return
	}

	query := `
    SELECT id, company_id, first_name, last_name, COALESCE(email,''), COALESCE(phone,''),
           COALESCE(position,''), COALESCE(marital_status,''), COALESCE(nationality,''),
           contract_type, base_salary, bank_details_enc, status, created_at
    FROM employees
    WHERE company_id = $1
  `
	args := []any{user.CompanyID}
	if status := r.URL.Query().Get("status"); status != "" {
		args = append(args, status)
		query += " AND status = $2"
	}
	query += " ORDER BY last_name, first_name"

	rows, err := h.DB.Query(r.Context(), query, args...)
	if err != nil {
		api.Fail(w, http.StatusInternalServerError, "employee_list_failed", "failed to list employees", middleware.GetRequestID(r.Context()))
		return
	}
	defer rows.Close()

	var employees []Employee
	for rows.Next() {
		var e Employee
		var bank []byte
		if err := rows.Scan(&e.ID, &e.CompanyID, &e.FirstName, &e.LastName, &e.Email, &e.Phone,
			&e.Position, &e.MaritalStatus, &e.Nationality, &e.ContractType, &e.BaseSalary, &bank, &e.Status, &e.CreatedAt); err != nil {
			api.Fail(w, http.StatusInternalServerError, "employee_list_failed", "failed to list employees", middleware.GetRequestID(r.Context()))
			return
		}
		e.BankDetails = h.bankDetailsOut(bank)
		employees = append(employees, e)
	}
	api.Success(w, employees, middleware.GetRequestID(r.Context()))
}

func (h *Handler) handleCreate(w http.ResponseWriter, r *http.Request) {
	user, ok := middleware.GetUser(r.Context())
	if !ok || user.CompanyID == "" {
		api.Fail(w, http.StatusUnauthorized, "unauthorized", "company scope required", middleware.GetRequestID(r.Context()))
		return
	}

	var payload employeePayload
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		api.Fail(w, http.StatusBadRequest, "invalid_payload", "invalid request payload", middleware.GetRequestID(r.Context()))
		return
	}

	v := shared.NewValidator()
	v.Required("firstName", payload.FirstName, "first name is required")
	v.Required("lastName", payload.LastName, "last name is required")
	v.Required("contractType", payload.ContractType, "contract type is required")
	v.Enum("contractType", payload.ContractType, employee.KnownContractTypes, "unknown contract type")
	v.Positive("baseSalary", payload.BaseSalary, "base salary must be positive")
	if v.Reject(w, middleware.GetRequestID(r.Context())) {
		return
	}

	bank, err := h.Crypto.EncryptString(payload.BankDetails)
	if err != nil {
		api.Fail(w, http.StatusInternalServerError, "employee_create_failed", "failed to create employee", middleware.GetRequestID(r.Context()))
		return
	}

	var id string
	err = h.DB.QueryRow(r.Context(), `
    INSERT INTO employees (company_id, first_name, last_name, email, phone, position,
                           marital_status, nationality, contract_type, base_salary, bank_details_enc)
    VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11)
    RETURNING id
  `, user.CompanyID, strings.TrimSpace(payload.FirstName), strings.TrimSpace(payload.LastName),
		payload.Email, payload.Phone, payload.Position, payload.MaritalStatus, payload.Nationality,
		payload.ContractType, payload.BaseSalary, bank).Scan(&id)
	if err != nil {
		api.Fail(w, http.StatusInternalServerError, "employee_create_failed", "failed to create employee", middleware.GetRequestID(r.Context()))
		return
	}

	if err := audit.New(h.DB).Record(r.Context(), user.CompanyID, user.UserID, "employee.create", "employee", id, middleware.GetRequestID(r.Context()), shared.ClientIP(r), map[string]string{"name": payload.FirstName + " " + payload.LastName}); err != nil {
		log.Printf("audit employee.create failed: %v", err)
	}
	api.Created(w, map[string]string{"id": id}, middleware.GetRequestID(r.Context()))
}

func (h *Handler) handleGet(w http.ResponseWriter, r *http.Request) {
	user, ok := middleware.GetUser(r.Context())
	if !ok || user.CompanyID == "" {
		api.Fail(w, http.StatusUnauthorized, "unauthorized", "company scope required", middleware.GetRequestID(r.Context()))
		return
	}
	employeeID := chi.URLParam(r, "employeeID")

	var e Employee
	var bank []byte
	err := h.DB.QueryRow(r.Context(), `
    SELECT id, company_id, first_name, last_name, COALESCE(email,''), COALESCE(phone,''),
           COALESCE(position,''), COALESCE(marital_status,''), COALESCE(nationality,''),
           contract_type, base_salary, bank_details_enc, status, created_at
    FROM employees
    WHERE company_id = $1 AND id = $2
  `, user.CompanyID, employeeID).Scan(&e.ID, &e.CompanyID, &e.FirstName, &e.LastName, &e.Email, &e.Phone,
		&e.Position, &e.MaritalStatus, &e.Nationality, &e.ContractType, &e.BaseSalary, &bank, &e.Status, &e.CreatedAt)
	if err != nil {
		api.Fail(w, http.StatusNotFound, "not_found", "employee not found", middleware.GetRequestID(r.Context()))
		return
	}
	e.BankDetails = h.bankDetailsOut(bank)
	api.Success(w, e, middleware.GetRequestID(r.Context()))
}

func (h *Handler) handleUpdate(w http.ResponseWriter, r *http.Request) {
	user, ok := middleware.GetUser(r.Context())
	if !ok || user.CompanyID == "" {
		api.Fail(w, http.StatusUnauthorized, "unauthorized", "company scope required", middleware.GetRequestID(r.Context()))
		return
	}
	employeeID := chi.URLParam(r, "employeeID")

	var payload employeePayload
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		api.Fail(w, http.StatusBadRequest, "invalid_payload", "invalid request payload", middleware.GetRequestID(r.Context()))
		return
	}

	v := shared.NewValidator()
	v.Required("firstName", payload.FirstName, "first name is required")
	v.Required("lastName", payload.LastName, "last name is required")
	v.Enum("contractType", payload.ContractType, employee.KnownContractTypes, "unknown contract type")
	v.Positive("baseSalary", payload.BaseSalary, "base salary must be positive")
	if v.Reject(w, middleware.GetRequestID(r.Context())) {
		return
	}

	bank, err := h.Crypto.EncryptString(payload.BankDetails)
	if err != nil {
		api.Fail(w, http.StatusInternalServerError, "employee_update_failed", "failed to update employee", middleware.GetRequestID(r.Context()))
		return
	}

	tag, err := h.DB.Exec(r.Context(), `
    UPDATE employees
    SET first_name = $1, last_name = $2, email = $3, phone = $4, position = $5,
        marital_status = $6, nationality = $7, contract_type = $8, base_salary = $9,
        bank_details_enc = $10, updated_at = now()
    WHERE company_id = $11 AND id = $12
  `, strings.TrimSpace(payload.FirstName), strings.TrimSpace(payload.LastName), payload.Email, payload.Phone,
		payload.Position, payload.MaritalStatus, payload.Nationality, payload.ContractType, payload.BaseSalary,
		bank, user.CompanyID, employeeID)
	if err != nil {
		api.Fail(w, http.StatusInternalServerError, "employee_update_failed", "failed to update employee", middleware.GetRequestID(r.Context()))
		return
	}
	if tag.RowsAffected() == 0 {
		api.Fail(w, http.StatusNotFound, "not_found", "employee not found", middleware.GetRequestID(r.Context()))
		return
	}

	if err := audit.New(h.DB).Record(r.Context(), user.CompanyID, user.UserID, "employee.update", "employee", employeeID, middleware.GetRequestID(r.Context()), shared.ClientIP(r), nil); err != nil {
		log.Printf("audit employee.update failed: %v", err)
	}
	api.Success(w, map[string]string{"id": employeeID}, middleware.GetRequestID(r.Context()))
}

func (h *Handler) handleToggleStatus(w http.ResponseWriter, r *http.Request) {
	user, ok := middleware.GetUser(r.Context())
	if !ok || user.CompanyID == "" {
		api.Fail(w, http.StatusUnauthorized, "unauthorized", "company scope required", middleware.GetRequestID(r.Context()))
		return
	}
	employeeID := chi.URLParam(r, "employeeID")

	var status string
	err := h.DB.QueryRow(r.Context(), `
    UPDATE employees
    SET status = CASE WHEN status = $1 THEN $2 ELSE $1 END, updated_at = now()
    WHERE company_id = $3 AND id = $4
    RETURNING status
  `, employee.StatusActive, employee.StatusInactive, user.CompanyID, employeeID).Scan(&status)
	if err != nil {
		api.Fail(w, http.StatusNotFound, "not_found", "employee not found", middleware.GetRequestID(r.Context()))
		return
	}

	if err := audit.New(h.DB).Record(r.Context(), user.CompanyID, user.UserID, "employee.toggle-status", "employee", employeeID, middleware.GetRequestID(r.Context()), shared.ClientIP(r), map[string]string{"status": status}); err != nil {
		log.Printf("audit employee.toggle-status failed: %v", err)
	}
	api.Success(w, map[string]string{"id": employeeID, "status": status}, middleware.GetRequestID(r.Context()))
}
