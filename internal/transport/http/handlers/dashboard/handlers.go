package dashboardhandler

import (
	"log"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"payflow/internal/domain/auth"
	"payflow/internal/domain/employee"
	"payflow/internal/domain/payroll"
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

func (h *Handler) RegisterRoutes(r chi.Router) {
	r.With(middleware.RequireRoles(auth.RoleAdmin, auth.RoleCaissier)).Get("/dashboard", h.handleStats)
}

func (h *Handler) handleStats(w http.ResponseWriter, r *http.Request) {
	user, ok := middleware.GetUser(r.Context())
	if !ok || user.CompanyID == "" {
		api.Fail(w, http.StatusUnauthorized, "unauthorized", "company scope required", middleware.GetRequestID(r.Context()))
		return
	}

	var activeEmployees int
	if err := h.DB.QueryRow(r.Context(), `
    SELECT COUNT(1) FROM employees WHERE company_id = $1 AND status = $2
  `, user.CompanyID, employee.StatusActive).Scan(&activeEmployees); err != nil {
		log.Printf("dashboard employee count failed: %v", err)
	}

	// Latest run by period, regardless of status: the dashboard shows
	// what is currently being processed.
	var latestRunID, latestRunStatus string
	var totalGross, totalNet float64
	err := h.DB.QueryRow(r.Context(), `
    SELECT pr.id, pr.status,
           COALESCE((SELECT SUM(gross) FROM payslips WHERE pay_run_id = pr.id), 0),
           COALESCE((SELECT SUM(net) FROM payslips WHERE pay_run_id = pr.id), 0)
    FROM pay_runs pr
    WHERE pr.company_id = $1
    ORDER BY pr.period_start DESC, pr.created_at DESC
    LIMIT 1
  `, user.CompanyID).Scan(&latestRunID, &latestRunStatus, &totalGross, &totalNet)
	if err != nil {
		latestRunID = ""
	}

	var totalPaid float64
	if err := h.DB.QueryRow(r.Context(), `
    SELECT COALESCE(SUM(amount), 0) FROM payments WHERE company_id = $1
  `, user.CompanyID).Scan(&totalPaid); err != nil {
		log.Printf("dashboard payments total failed: %v", err)
	}

	var outstanding float64
	if err := h.DB.QueryRow(r.Context(), `
    SELECT COALESCE(SUM(p.net), 0) - COALESCE((SELECT SUM(amount) FROM payments WHERE company_id = $1), 0)
    FROM payslips p
    JOIN pay_runs pr ON pr.id = p.pay_run_id
    WHERE pr.company_id = $1 AND p.status <> $2
  `, user.CompanyID, payroll.PayslipStatusPaid).Scan(&outstanding); err != nil {
		log.Printf("dashboard outstanding total failed: %v", err)
	}
	if outstanding < 0 {
		outstanding = 0
	}

	start, end := shared.DayBounds(time.Now())
	var todayAttendance int
	if err := h.DB.QueryRow(r.Context(), `
    SELECT COUNT(DISTINCT employee_id)
    FROM attendance_records
    WHERE company_id = $1 AND type = 'in' AND recorded_at >= $2 AND recorded_at < $3
  `, user.CompanyID, start, end).Scan(&todayAttendance); err != nil {
		log.Printf("dashboard attendance count failed: %v", err)
	}

	api.Success(w, map[string]any{
		"activeEmployees": activeEmployees,
		"latestPayRun": map[string]any{
			"id":         latestRunID,
			"status":     latestRunStatus,
			"totalGross": totalGross,
			"totalNet":   totalNet,
		},
		"totalPaid":       totalPaid,
		"outstanding":     outstanding,
		"todayAttendance": todayAttendance,
	}, middleware.GetRequestID(r.Context()))
}
