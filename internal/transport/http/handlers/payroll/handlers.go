package payrollhandler

import (
	"context"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jung-kurt/gofpdf"

	"payflow/internal/domain/audit"
	"payflow/internal/domain/auth"
	"payflow/internal/domain/payroll"
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

type payRunPayload struct {
	CycleType   string `json:"cycleType"`
	PeriodStart string `json:"periodStart"`
	PeriodEnd   string `json:"periodEnd"`
}

// editPayload accepts the loose client format: unit and money fields may
// arrive as numbers or numeric strings; anything unusable means "leave
// the stored value alone" rather than an error.
type editPayload struct {
	WorkedDays  json.RawMessage `json:"workedDays"`
	WorkedHours json.RawMessage `json:"workedHours"`
	Deductions  json.RawMessage `json:"deductions"`
	BaseSalary  json.RawMessage `json:"baseSalary"`

	Position      *string `json:"position"`
	MaritalStatus *string `json:"maritalStatus"`
	Nationality   *string `json:"nationality"`
	Email         *string `json:"email"`
	Phone         *string `json:"phone"`
	BankDetails   *string `json:"bankDetails"`

	Status *string `json:"status"`
}

func flexFloat(raw json.RawMessage) *float64 {
	trimmed := strings.TrimSpace(string(raw))
	if trimmed == "" || trimmed == "null" {
		return nil
	}
	var f float64
	if err := json.Unmarshal(raw, &f); err == nil {
		return &f
	}
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		if v, err := strconv.ParseFloat(strings.TrimSpace(s), 64); err == nil {
			return &v
		}
	}
	return nil
}

func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Route("/payruns", func(r chi.Router) {
		r.With(middleware.RequireRoles(auth.RoleAdmin, auth.RoleCaissier)).Get("/", h.handleListRuns)
		r.With(middleware.RequireRoles(auth.RoleAdmin)).Post("/", h.handleCreateRun)
		r.With(middleware.RequireRoles(auth.RoleAdmin, auth.RoleCaissier)).Get("/{payRunID}", h.handleGetRun)
		r.With(middleware.RequireRoles(auth.RoleAdmin)).Patch("/{payRunID}/approve", h.handleApproveRun)
		r.With(middleware.RequireRoles(auth.RoleAdmin)).Patch("/{payRunID}/status", h.handleRunStatus)
		r.With(middleware.RequireRoles(auth.RoleAdmin)).Post("/{payRunID}/generate-payslips", h.handleGeneratePayslips)
		r.With(middleware.RequireRoles(auth.RoleAdmin, auth.RoleCaissier)).Get("/{payRunID}/payslips", h.handleListRunPayslips)
		r.With(middleware.RequireRoles(auth.RoleAdmin)).Get("/{payRunID}/export/register", h.handleExportRegister)
	})
	r.Route("/payslips", func(r chi.Router) {
		r.With(middleware.RequireRoles(auth.RoleAdmin, auth.RoleCaissier)).Get("/payrun/{payRunID}", h.handleListRunPayslips)
		r.With(middleware.RequireRoles(auth.RoleAdmin, auth.RoleCaissier)).Get("/{payslipID}", h.handleGetPayslip)
		r.With(middleware.RequireRoles(auth.RoleAdmin, auth.RoleCaissier)).Get("/employee/{employeeID}", h.handleListEmployeePayslips)
		r.With(middleware.RequireRoles(auth.RoleAdmin)).Patch("/{payslipID}", h.handleEditPayslip)
		r.With(middleware.RequireRoles(auth.RoleAdmin, auth.RoleCaissier)).Get("/{payslipID}/download", h.handleDownloadPayslip)
	})
}

func (h *Handler) handleListRuns(w http.ResponseWriter, r *http.Request) {
	user, ok := middleware.GetUser(r.Context())
	if !ok || user.CompanyID == "" {
		api.Fail(w, http.StatusUnauthorized, "unauthorized", "company scope required", middleware.GetRequestID(r.Context()))
		return
	}

	rows, err := h.DB.Query(r.Context(), `
    SELECT id, company_id, cycle_type, period_start, period_end, status, created_at
    FROM pay_runs
    WHERE company_id = $1
    ORDER BY period_start DESC, created_at DESC
  `, user.CompanyID)
	if err != nil {
		api.Fail(w, http.StatusInternalServerError, "payrun_list_failed", "failed to list pay runs", middleware.GetRequestID(r.Context()))
		return
	}
	defer rows.Close()

	var runs []payroll.PayRun
	for rows.Next() {
		var run payroll.PayRun
		if err := rows.Scan(&run.ID, &run.CompanyID, &run.CycleType, &run.PeriodStart, &run.PeriodEnd, &run.Status, &run.CreatedAt); err != nil {
			api.Fail(w, http.StatusInternalServerError, "payrun_list_failed", "failed to list pay runs", middleware.GetRequestID(r.Context()))
			return
		}
		runs = append(runs, run)
	}
	api.Success(w, runs, middleware.GetRequestID(r.Context()))
}

func (h *Handler) handleCreateRun(w http.ResponseWriter, r *http.Request) {
	user, ok := middleware.GetUser(r.Context())
	if !ok || user.CompanyID == "" {
		api.Fail(w, http.StatusUnauthorized, "unauthorized", "company scope required", middleware.GetRequestID(r.Context()))
		return
	}

	var payload payRunPayload
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		api.Fail(w, http.StatusBadRequest, "invalid_payload", "invalid request payload", middleware.GetRequestID(r.Context()))
		return
	}

	v := shared.NewValidator()
	v.Required("cycleType", payload.CycleType, "cycle type is required")
	v.Enum("cycleType", payload.CycleType, payroll.KnownCycleTypes, "unknown cycle type")
	start, startOK := v.Date("periodStart", payload.PeriodStart)
	end, endOK := v.Date("periodEnd", payload.PeriodEnd)
	if startOK && endOK {
		v.DateOrder("periodStart", start, "periodEnd", end)
	}
	if v.Reject(w, middleware.GetRequestID(r.Context())) {
		return
	}

	var id string
	err := h.DB.QueryRow(r.Context(), `
    INSERT INTO pay_runs (company_id, cycle_type, period_start, period_end, status)
    VALUES ($1,$2,$3,$4,$5)
    RETURNING id
  `, user.CompanyID, payload.CycleType, start, end, payroll.RunStatusDraft).Scan(&id)
	if err != nil {
		api.Fail(w, http.StatusInternalServerError, "payrun_create_failed", "failed to create pay run", middleware.GetRequestID(r.Context()))
		return
	}

	if err := audit.New(h.DB).Record(r.Context(), user.CompanyID, user.UserID, "payrun.create", "pay_run", id, middleware.GetRequestID(r.Context()), shared.ClientIP(r), payload); err != nil {
		log.Printf("audit payrun.create failed: %v", err)
	}
	api.Created(w, map[string]string{"id": id, "status": payroll.RunStatusDraft}, middleware.GetRequestID(r.Context()))
}

func (h *Handler) handleGetRun(w http.ResponseWriter, r *http.Request) {
	user, ok := middleware.GetUser(r.Context())
	if !ok || user.CompanyID == "" {
		api.Fail(w, http.StatusUnauthorized, "unauthorized", "company scope required", middleware.GetRequestID(r.Context()))
		return
	}
	payRunID := chi.URLParam(r, "payRunID")

	var run payroll.PayRun
	err := h.DB.QueryRow(r.Context(), `
    SELECT id, company_id, cycle_type, period_start, period_end, status, created_at
    FROM pay_runs
    WHERE company_id = $1 AND id = $2
  `, user.CompanyID, payRunID).Scan(&run.ID, &run.CompanyID, &run.CycleType, &run.PeriodStart, &run.PeriodEnd, &run.Status, &run.CreatedAt)
	if err != nil {
		api.Fail(w, http.StatusNotFound, "not_found", "pay run not found", middleware.GetRequestID(r.Context()))
		return
	}

	var count int
	var gross, deductions, net float64
	if err := h.DB.QueryRow(r.Context(), `
    SELECT COUNT(1), COALESCE(SUM(gross),0), COALESCE(SUM(deductions),0), COALESCE(SUM(net),0)
    FROM payslips
    WHERE pay_run_id = $1
  `, payRunID).Scan(&count, &gross, &deductions, &net); err != nil {
		log.Printf("pay run totals query failed: %v", err)
	}

	api.Success(w, map[string]any{
		"payRun":          run,
		"payslipCount":    count,
		"totalGross":      gross,
		"totalDeductions": deductions,
		"totalNet":        net,
	}, middleware.GetRequestID(r.Context()))
}

func (h *Handler) handleApproveRun(w http.ResponseWriter, r *http.Request) {
	h.transitionRun(w, r, payroll.RunStatusApproved, "payrun.approve")
}

func (h *Handler) handleRunStatus(w http.ResponseWriter, r *http.Request) {
	var payload struct {
		Status string `json:"status"`
	}
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		api.Fail(w, http.StatusBadRequest, "invalid_payload", "invalid request payload", middleware.GetRequestID(r.Context()))
		return
	}
	h.transitionRun(w, r, payload.Status, "payrun.status")
}

func (h *Handler) transitionRun(w http.ResponseWriter, r *http.Request, target, action string) {
	user, ok := middleware.GetUser(r.Context())
	if !ok || user.CompanyID == "" {
		api.Fail(w, http.StatusUnauthorized, "unauthorized", "company scope required", middleware.GetRequestID(r.Context()))
		return
	}
	payRunID := chi.URLParam(r, "payRunID")

	var current string
	if err := h.DB.QueryRow(r.Context(), `
    SELECT status FROM pay_runs WHERE company_id = $1 AND id = $2
  `, user.CompanyID, payRunID).Scan(&current); err != nil {
		api.Fail(w, http.StatusNotFound, "not_found", "pay run not found", middleware.GetRequestID(r.Context()))
		return
	}

	if !payroll.ValidRunTransition(current, target) {
		api.Fail(w, http.StatusConflict, "invalid_transition",
			fmt.Sprintf("cannot move pay run from %s to %s", current, target), middleware.GetRequestID(r.Context()))
		return
	}

	if _, err := h.DB.Exec(r.Context(), `
    UPDATE pay_runs SET status = $1 WHERE company_id = $2 AND id = $3
  `, target, user.CompanyID, payRunID); err != nil {
		api.Fail(w, http.StatusInternalServerError, "payrun_update_failed", "failed to update pay run", middleware.GetRequestID(r.Context()))
		return
	}

	// Approval freezes pending payslips as validated.
	if target == payroll.RunStatusApproved {
		if _, err := h.DB.Exec(r.Context(), `
      UPDATE payslips SET status = $1, updated_at = now()
      WHERE pay_run_id = $2 AND status = $3
    `, payroll.PayslipStatusValidated, payRunID, payroll.PayslipStatusPending); err != nil {
			log.Printf("payslip validation sweep failed: %v", err)
		}
	}

	if err := audit.New(h.DB).Record(r.Context(), user.CompanyID, user.UserID, action, "pay_run", payRunID, middleware.GetRequestID(r.Context()), shared.ClientIP(r), map[string]string{"from": current, "to": target}); err != nil {
		log.Printf("audit %s failed: %v", action, err)
	}
	api.Success(w, map[string]string{"id": payRunID, "status": target}, middleware.GetRequestID(r.Context()))
}

// handleGeneratePayslips bulk-creates one payslip per active employee.
// Fixed contracts start at their base salary; unit-paid contracts start
// at zero until worked units are entered. Re-running skips employees
// that already have a payslip in the run.
func (h *Handler) handleGeneratePayslips(w http.ResponseWriter, r *http.Request) {
	user, ok := middleware.GetUser(r.Context())
	if !ok || user.CompanyID == "" {
		api.Fail(w, http.StatusUnauthorized, "unauthorized", "company scope required", middleware.GetRequestID(r.Context()))
		return
	}
	payRunID := chi.URLParam(r, "payRunID")

	var status string
	if err := h.DB.QueryRow(r.Context(), `
    SELECT status FROM pay_runs WHERE company_id = $1 AND id = $2
  `, user.CompanyID, payRunID).Scan(&status); err != nil {
		api.Fail(w, http.StatusNotFound, "not_found", "pay run not found", middleware.GetRequestID(r.Context()))
		return
	}
	if !payroll.Editable(status) {
		api.Fail(w, http.StatusConflict, "payrun_not_editable", "pay run is not in draft status", middleware.GetRequestID(r.Context()))
		return
	}

	tag, err := h.DB.Exec(r.Context(), `
    INSERT INTO payslips (pay_run_id, employee_id, gross, deductions, net, status)
    SELECT $1, e.id,
           CASE WHEN e.contract_type IN ('CDI','CDD') THEN e.base_salary ELSE 0 END,
           0,
           CASE WHEN e.contract_type IN ('CDI','CDD') THEN e.base_salary ELSE 0 END,
           $2
    FROM employees e
    WHERE e.company_id = $3 AND e.status = 'active'
    ON CONFLICT (pay_run_id, employee_id) DO NOTHING
  `, payRunID, payroll.PayslipStatusPending, user.CompanyID)
	if err != nil {
		api.Fail(w, http.StatusInternalServerError, "payslip_generate_failed", "failed to generate payslips", middleware.GetRequestID(r.Context()))
		return
	}

	if err := audit.New(h.DB).Record(r.Context(), user.CompanyID, user.UserID, "payrun.generate-payslips", "pay_run", payRunID, middleware.GetRequestID(r.Context()), shared.ClientIP(r), map[string]int64{"created": tag.RowsAffected()}); err != nil {
		log.Printf("audit payrun.generate-payslips failed: %v", err)
	}
	api.Success(w, map[string]int64{"created": tag.RowsAffected()}, middleware.GetRequestID(r.Context()))
}

type payslipRow struct {
	payroll.Payslip
	EmployeeName string `json:"employeeName"`
	ContractType string `json:"contractType"`
}

func (h *Handler) handleListRunPayslips(w http.ResponseWriter, r *http.Request) {
	user, ok := middleware.GetUser(r.Context())
	if !ok || user.CompanyID == "" {
		api.Fail(w, http.StatusUnauthorized, "unauthorized", "company scope required", middleware.GetRequestID(r.Context()))
		return
	}
	payRunID := chi.URLParam(r, "payRunID")

	rows, err := h.DB.Query(r.Context(), `
    SELECT p.id, p.pay_run_id, p.employee_id, p.gross, p.deductions, p.net,
           p.worked_days, p.worked_hours, p.status, p.created_at, p.updated_at,
           e.first_name || ' ' || e.last_name, e.contract_type
    FROM payslips p
    JOIN employees e ON e.id = p.employee_id
    JOIN pay_runs pr ON pr.id = p.pay_run_id
    WHERE pr.company_id = $1 AND p.pay_run_id = $2
    ORDER BY e.last_name, e.first_name
  `, user.CompanyID, payRunID)
	if err != nil {
		api.Fail(w, http.StatusInternalServerError, "payslip_list_failed", "failed to list payslips", middleware.GetRequestID(r.Context()))
		return
	}
	defer rows.Close()

	var slips []payslipRow
	for rows.Next() {
		var s payslipRow
		if err := rows.Scan(&s.ID, &s.PayRunID, &s.EmployeeID, &s.Gross, &s.Deductions, &s.Net,
			&s.WorkedDays, &s.WorkedHours, &s.Status, &s.CreatedAt, &s.UpdatedAt, &s.EmployeeName, &s.ContractType); err != nil {
			api.Fail(w, http.StatusInternalServerError, "payslip_list_failed", "failed to list payslips", middleware.GetRequestID(r.Context()))
			return
		}
		slips = append(slips, s)
	}
	api.Success(w, slips, middleware.GetRequestID(r.Context()))
}

func (h *Handler) handleGetPayslip(w http.ResponseWriter, r *http.Request) {
	user, ok := middleware.GetUser(r.Context())
	if !ok || user.CompanyID == "" {
		api.Fail(w, http.StatusUnauthorized, "unauthorized", "company scope required", middleware.GetRequestID(r.Context()))
		return
	}
	payslipID := chi.URLParam(r, "payslipID")

	var s payslipRow
	var paid float64
	err := h.DB.QueryRow(r.Context(), `
    SELECT p.id, p.pay_run_id, p.employee_id, p.gross, p.deductions, p.net,
           p.worked_days, p.worked_hours, p.status, p.created_at, p.updated_at,
           e.first_name || ' ' || e.last_name, e.contract_type,
           COALESCE((SELECT SUM(amount) FROM payments WHERE payslip_id = p.id), 0)
    FROM payslips p
    JOIN employees e ON e.id = p.employee_id
    JOIN pay_runs pr ON pr.id = p.pay_run_id
    WHERE pr.company_id = $1 AND p.id = $2
  `, user.CompanyID, payslipID).Scan(&s.ID, &s.PayRunID, &s.EmployeeID, &s.Gross, &s.Deductions, &s.Net,
		&s.WorkedDays, &s.WorkedHours, &s.Status, &s.CreatedAt, &s.UpdatedAt, &s.EmployeeName, &s.ContractType, &paid)
	if err != nil {
		api.Fail(w, http.StatusNotFound, "not_found", "payslip not found", middleware.GetRequestID(r.Context()))
		return
	}

	api.Success(w, map[string]any{
		"payslip":   s,
		"paid":      paid,
		"remaining": s.Net - paid,
	}, middleware.GetRequestID(r.Context()))
}

func (h *Handler) handleListEmployeePayslips(w http.ResponseWriter, r *http.Request) {
	user, ok := middleware.GetUser(r.Context())
	if !ok || user.CompanyID == "" {
		api.Fail(w, http.StatusUnauthorized, "unauthorized", "company scope required", middleware.GetRequestID(r.Context()))
		return
	}
	employeeID := chi.URLParam(r, "employeeID")
	page := shared.ParsePagination(r, 20, 100)

	rows, err := h.DB.Query(r.Context(), `
    SELECT p.id, p.pay_run_id, p.employee_id, p.gross, p.deductions, p.net,
           p.worked_days, p.worked_hours, p.status, p.created_at, p.updated_at
    FROM payslips p
    JOIN pay_runs pr ON pr.id = p.pay_run_id
    WHERE pr.company_id = $1 AND p.employee_id = $2
    ORDER BY pr.period_start DESC
    LIMIT $3 OFFSET $4
  `, user.CompanyID, employeeID, page.Limit, page.Offset)
	if err != nil {
		api.Fail(w, http.StatusInternalServerError, "payslip_list_failed", "failed to list payslips", middleware.GetRequestID(r.Context()))
		return
	}
	defer rows.Close()

	var slips []payroll.Payslip
	for rows.Next() {
		var s payroll.Payslip
		if err := rows.Scan(&s.ID, &s.PayRunID, &s.EmployeeID, &s.Gross, &s.Deductions, &s.Net,
			&s.WorkedDays, &s.WorkedHours, &s.Status, &s.CreatedAt, &s.UpdatedAt); err != nil {
			api.Fail(w, http.StatusInternalServerError, "payslip_list_failed", "failed to list payslips", middleware.GetRequestID(r.Context()))
			return
		}
		slips = append(slips, s)
	}
	api.Success(w, slips, middleware.GetRequestID(r.Context()))
}

// handleEditPayslip is the edit coordination: recompute through the
// calculator, write the payslip, then write the employee profile. A
// failure after the payslip write surfaces as an error without undoing
// the first write.
func (h *Handler) handleEditPayslip(w http.ResponseWriter, r *http.Request) {
	user, ok := middleware.GetUser(r.Context())
	if !ok || user.CompanyID == "" {
		api.Fail(w, http.StatusUnauthorized, "unauthorized", "company scope required", middleware.GetRequestID(r.Context()))
		return
	}
	payslipID := chi.URLParam(r, "payslipID")

	var payload editPayload
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		api.Fail(w, http.StatusBadRequest, "invalid_payload", "invalid request payload", middleware.GetRequestID(r.Context()))
		return
	}

	var slip payroll.Payslip
	var runStatus, cycleType, contractType, employeeID string
	var baseSalary float64
	err := h.DB.QueryRow(r.Context(), `
    SELECT p.id, p.gross, p.deductions, p.worked_days, p.worked_hours, p.status,
           pr.status, pr.cycle_type, e.id, e.contract_type, e.base_salary
    FROM payslips p
    JOIN pay_runs pr ON pr.id = p.pay_run_id
    JOIN employees e ON e.id = p.employee_id
    WHERE pr.company_id = $1 AND p.id = $2
  `, user.CompanyID, payslipID).Scan(&slip.ID, &slip.Gross, &slip.Deductions, &slip.WorkedDays, &slip.WorkedHours, &slip.Status,
		&runStatus, &cycleType, &employeeID, &contractType, &baseSalary)
	if err != nil {
		api.Fail(w, http.StatusNotFound, "not_found", "payslip not found", middleware.GetRequestID(r.Context()))
		return
	}

	decision, err := payroll.PlanEdit(runStatus, contractType, cycleType, baseSalary, slip, payroll.EditRequest{
		WorkedDays:  flexFloat(payload.WorkedDays),
		WorkedHours: flexFloat(payload.WorkedHours),
		Deductions:  flexFloat(payload.Deductions),
		BaseSalary:  flexFloat(payload.BaseSalary),
	})
	if err != nil {
		api.Fail(w, http.StatusConflict, "payrun_not_editable", "pay run is not in draft status", middleware.GetRequestID(r.Context()))
		return
	}

	newStatus := slip.Status
	if payload.Status != nil {
		if *payload.Status != payroll.PayslipStatusPending && *payload.Status != payroll.PayslipStatusValidated {
			api.Fail(w, http.StatusBadRequest, "invalid_status", "payslip status must be pending or validated", middleware.GetRequestID(r.Context()))
			return
		}
		newStatus = *payload.Status
	}

	if _, err := h.DB.Exec(r.Context(), `
    UPDATE payslips
    SET gross = $1, deductions = $2, net = $3, worked_days = $4, worked_hours = $5,
        status = $6, updated_at = now()
    WHERE id = $7
  `, decision.Gross, decision.Deductions, decision.Net, decision.WorkedDays, decision.WorkedHours, newStatus, payslipID); err != nil {
		api.Fail(w, http.StatusInternalServerError, "payslip_update_failed", "failed to update payslip", middleware.GetRequestID(r.Context()))
		return
	}

	if err := h.applyEmployeeEdit(r.Context(), user.CompanyID, employeeID, payload, decision); err != nil {
		api.Fail(w, http.StatusInternalServerError, "employee_update_failed", "payslip saved but employee update failed", middleware.GetRequestID(r.Context()))
		return
	}

	if err := audit.New(h.DB).Record(r.Context(), user.CompanyID, user.UserID, "payslip.edit", "payslip", payslipID, middleware.GetRequestID(r.Context()), shared.ClientIP(r), map[string]any{"gross": decision.Gross, "net": decision.Net, "status": newStatus}); err != nil {
		log.Printf("audit payslip.edit failed: %v", err)
	}

	api.Success(w, map[string]any{
		"id":         payslipID,
		"gross":      decision.Gross,
		"deductions": decision.Deductions,
		"net":        decision.Net,
		"status":     newStatus,
	}, middleware.GetRequestID(r.Context()))
}

func (h *Handler) applyEmployeeEdit(ctx context.Context, companyID, employeeID string, payload editPayload, decision payroll.EditDecision) error {
	sets := make([]string, 0, 8)
	args := make([]any, 0, 10)

	add := func(column string, value any) {
		args = append(args, value)
		sets = append(sets, fmt.Sprintf("%s = $%d", column, len(args)))
	}

	if payload.Position != nil {
		add("position", *payload.Position)
	}
	if payload.MaritalStatus != nil {
		add("marital_status", *payload.MaritalStatus)
	}
	if payload.Nationality != nil {
		add("nationality", *payload.Nationality)
	}
	if payload.Email != nil {
		add("email", *payload.Email)
	}
	if payload.Phone != nil {
		add("phone", *payload.Phone)
	}
	if payload.BankDetails != nil {
		encrypted, err := h.Crypto.EncryptString(*payload.BankDetails)
		if err != nil {
			return err
		}
		add("bank_details_enc", encrypted)
	}
	if decision.UpdateBaseSalary {
		add("base_salary", decision.NewBaseSalary)
	}

	if len(sets) == 0 {
		return nil
	}
	sets = append(sets, "updated_at = now()")

	args = append(args, companyID, employeeID)
	query := fmt.Sprintf("UPDATE employees SET %s WHERE company_id = $%d AND id = $%d",
		strings.Join(sets, ", "), len(args)-1, len(args))
	_, err := h.DB.Exec(ctx, query, args...)
	return err
}

func (h *Handler) handleExportRegister(w http.ResponseWriter, r *http.Request) {
	user, ok := middleware.GetUser(r.Context())
	if !ok || user.CompanyID == "" {
		api.Fail(w, http.StatusUnauthorized, "unauthorized", "company scope required", middleware.GetRequestID(r.Context()))
		return
	}
	payRunID := chi.URLParam(r, "payRunID")

	rows, err := h.DB.Query(r.Context(), `
    SELECT e.id, e.first_name, e.last_name, e.contract_type, p.gross, p.deductions, p.net, p.status
    FROM payslips p
    JOIN employees e ON e.id = p.employee_id
    JOIN pay_runs pr ON pr.id = p.pay_run_id
    WHERE pr.company_id = $1 AND p.pay_run_id = $2
    ORDER BY e.last_name, e.first_name
  `, user.CompanyID, payRunID)
	if err != nil {
		api.Fail(w, http.StatusInternalServerError, "export_failed", "failed to export register", middleware.GetRequestID(r.Context()))
		return
	}
	defer rows.Close()

	w.Header().Set("Content-Type", "text/csv")
	w.Header().Set("Content-Disposition", "attachment; filename=payroll-register.csv")
	writer := csv.NewWriter(w)
	if err := writer.Write([]string{"employee_id", "first_name", "last_name", "contract_type", "gross", "deductions", "net", "status"}); err != nil {
		log.Printf("export register header write failed: %v", err)
	}
	for rows.Next() {
		var id, first, last, contract, status string
		var gross, deductions, net float64
		if err := rows.Scan(&id, &first, &last, &contract, &gross, &deductions, &net, &status); err != nil {
			api.Fail(w, http.StatusInternalServerError, "export_failed", "failed to export register", middleware.GetRequestID(r.Context()))
			return
		}
		if err := writer.Write([]string{id, first, last, contract, fmt.Sprintf("%.2f", gross), fmt.Sprintf("%.2f", deductions), fmt.Sprintf("%.2f", net), status}); err != nil {
			log.Printf("export register row write failed: %v", err)
		}
	}
	writer.Flush()
	if err := writer.Error(); err != nil {
		log.Printf("export register flush failed: %v", err)
	}
}

func (h *Handler) handleDownloadPayslip(w http.ResponseWriter, r *http.Request) {
	user, ok := middleware.GetUser(r.Context())
	if !ok || user.CompanyID == "" {
		api.Fail(w, http.StatusUnauthorized, "unauthorized", "company scope required", middleware.GetRequestID(r.Context()))
		return
	}
	payslipID := chi.URLParam(r, "payslipID")

	var filePath string
	err := h.DB.QueryRow(r.Context(), `
    SELECT COALESCE(p.pdf_path, '')
    FROM payslips p
    JOIN pay_runs pr ON pr.id = p.pay_run_id
    WHERE pr.company_id = $1 AND p.id = $2
  `, user.CompanyID, payslipID).Scan(&filePath)
	if err != nil {
		api.Fail(w, http.StatusNotFound, "not_found", "payslip not found", middleware.GetRequestID(r.Context()))
		return
	}

	if filePath == "" {
		filePath, err = h.generatePayslipPDF(r.Context(), user.CompanyID, payslipID)
		if err != nil {
			log.Printf("payslip pdf generation failed: %v", err)
			api.Fail(w, http.StatusInternalServerError, "payslip_pdf_failed", "payslip not available", middleware.GetRequestID(r.Context()))
			return
		}
		if _, err := h.DB.Exec(r.Context(), "UPDATE payslips SET pdf_path = $1 WHERE id = $2", filePath, payslipID); err != nil {
			log.Printf("payslip pdf path update failed: %v", err)
		}
	}

	http.ServeFile(w, r, filePath)
}

func (h *Handler) generatePayslipPDF(ctx context.Context, companyID, payslipID string) (string, error) {
	var firstName, lastName, contractType, companyName, cycleType string
	var gross, deductions, net float64
	var periodStart, periodEnd time.Time
	err := h.DB.QueryRow(ctx, `
    SELECT e.first_name, e.last_name, e.contract_type, c.name, pr.cycle_type,
           p.gross, p.deductions, p.net, pr.period_start, pr.period_end
    FROM payslips p
    JOIN employees e ON e.id = p.employee_id
    JOIN pay_runs pr ON pr.id = p.pay_run_id
    JOIN companies c ON c.id = pr.company_id
    WHERE pr.company_id = $1 AND p.id = $2
  `, companyID, payslipID).Scan(&firstName, &lastName, &contractType, &companyName, &cycleType,
		&gross, &deductions, &net, &periodStart, &periodEnd)
	if err != nil {
		return "", err
	}

	if err := os.MkdirAll("storage/payslips", 0o755); err != nil {
		return "", err
	}
	filePath := filepath.Join("storage/payslips", payslipID+".pdf")

	pdf := gofpdf.New("P", "mm", "A4", "")
	pdf.AddPage()
	pdf.SetFont("Helvetica", "B", 16)
	pdf.Cell(40, 10, "Bulletin de paie")
	pdf.Ln(12)
	pdf.SetFont("Helvetica", "", 12)
	pdf.Cell(0, 8, fmt.Sprintf("Company: %s", companyName))
	pdf.Ln(7)
	pdf.Cell(0, 8, fmt.Sprintf("Employee: %s %s (%s)", firstName, lastName, contractType))
	pdf.Ln(7)
	pdf.Cell(0, 8, fmt.Sprintf("Period: %s to %s (%s)", periodStart.Format("2006-01-02"), periodEnd.Format("2006-01-02"), cycleType))
	pdf.Ln(10)
	pdf.Cell(0, 8, fmt.Sprintf("Gross: %.2f", gross))
	pdf.Ln(7)
	pdf.Cell(0, 8, fmt.Sprintf("Deductions: %.2f", deductions))
	pdf.Ln(7)
	pdf.Cell(0, 8, fmt.Sprintf("Net: %.2f", net))

	if err := pdf.OutputFileAndClose(filePath); err != nil {
		return "", err
	}
	return filePath, nil
}
