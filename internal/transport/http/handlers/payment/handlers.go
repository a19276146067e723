package paymenthandler

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"payflow/internal/domain/audit"
	"payflow/internal/domain/auth"
	"payflow/internal/domain/payment"
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

type paymentPayload struct {
	PayslipID string  `json:"payslipId"`
	Amount    float64 `json:"amount"`
	Method    string  `json:"method"`
	Reference string  `json:"reference"`
}

func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Route("/paies", func(r chi.Router) {
		r.With(middleware.RequireRoles(auth.RoleAdmin, auth.RoleCaissier)).Get("/", h.handleList)
		r.With(middleware.RequireRoles(auth.RoleAdmin, auth.RoleCaissier)).Post("/", h.handleCreate)
		r.With(middleware.RequireRoles(auth.RoleAdmin, auth.RoleCaissier)).Get("/payslip/{payslipID}", h.handleListByPayslip)
	})
}

// handleCreate records a payment against a payslip and moves the payslip
// status to partial or paid depending on the running total.
func (h *Handler) handleCreate(w http.ResponseWriter, r *http.Request) {
	user, ok := middleware.GetUser(r.Context())
	if !ok || user.CompanyID == "" {
		api.Fail(w, http.StatusUnauthorized, "unauthorized", "company scope required", middleware.GetRequestID(r.Context()))
		return
	}

	var payload paymentPayload
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		api.Fail(w, http.StatusBadRequest, "invalid_payload", "invalid request payload", middleware.GetRequestID(r.Context()))
		return
	}

	v := shared.NewValidator()
	v.Required("payslipId", payload.PayslipID, "payslip id is required")
	v.Required("method", payload.Method, "payment method is required")
	v.Enum("method", payload.Method, payment.KnownMethods, "unknown payment method")
	if v.Reject(w, middleware.GetRequestID(r.Context())) {
		return
	}

	var net, alreadyPaid float64
	err := h.DB.QueryRow(r.Context(), `
    SELECT p.net, COALESCE((SELECT SUM(amount) FROM payments WHERE payslip_id = p.id), 0)
    FROM payslips p
    JOIN pay_runs pr ON pr.id = p.pay_run_id
    WHERE pr.company_id = $1 AND p.id = $2
  `, user.CompanyID, payload.PayslipID).Scan(&net, &alreadyPaid)
	if err != nil {
		api.Fail(w, http.StatusNotFound, "not_found", "payslip not found", middleware.GetRequestID(r.Context()))
		return
	}

	if err := payment.ValidateAmount(payload.Amount, net, alreadyPaid); err != nil {
		code := "invalid_amount"
		if errors.Is(err, payment.ErrOverpayment) {
			code = "overpayment"
		}
		api.Fail(w, http.StatusBadRequest, code, err.Error(), middleware.GetRequestID(r.Context()))
		return
	}

	var id string
	err = h.DB.QueryRow(r.Context(), `
    INSERT INTO payments (payslip_id, company_id, amount, method, reference, created_by)
    VALUES ($1,$2,$3,$4,$5,$6)
    RETURNING id
  `, payload.PayslipID, user.CompanyID, payload.Amount, payload.Method, strings.TrimSpace(payload.Reference), user.UserID).Scan(&id)
	if err != nil {
		api.Fail(w, http.StatusInternalServerError, "payment_create_failed", "failed to record payment", middleware.GetRequestID(r.Context()))
		return
	}

	newStatus := payment.StatusAfterPayment(alreadyPaid+payload.Amount, net)
	if _, err := h.DB.Exec(r.Context(), `
    UPDATE payslips SET status = $1, updated_at = now() WHERE id = $2
  `, newStatus, payload.PayslipID); err != nil {
		log.Printf("payslip status update after payment failed: %v", err)
	}

	if err := audit.New(h.DB).Record(r.Context(), user.CompanyID, user.UserID, "payment.create", "payment", id, middleware.GetRequestID(r.Context()), shared.ClientIP(r), map[string]any{"payslipId": payload.PayslipID, "amount": payload.Amount, "method": payload.Method}); err != nil {
		log.Printf("audit payment.create failed: %v", err)
	}

	api.Created(w, map[string]any{
		"id":            id,
		"payslipStatus": newStatus,
		"remaining":     net - alreadyPaid - payload.Amount,
	}, middleware.GetRequestID(r.Context()))
}

func (h *Handler) handleList(w http.ResponseWriter, r *http.Request) {
	user, ok := middleware.GetUser(r.Context())
	if !ok || user.CompanyID == "" {
		api.Fail(w, http.StatusUnauthorized, "unauthorized", "company scope required", middleware.GetRequestID(r.Context()))
		return
	}
	page := shared.ParsePagination(r, 50, 200)

	rows, err := h.DB.Query(r.Context(), `
    SELECT id, payslip_id, amount, method, COALESCE(reference,''), created_by, created_at
    FROM payments
    WHERE company_id = $1
    ORDER BY created_at DESC
    LIMIT $2 OFFSET $3
  `, user.CompanyID, page.Limit, page.Offset)
	if err != nil {
		api.Fail(w, http.StatusInternalServerError, "payment_list_failed", "failed to list payments", middleware.GetRequestID(r.Context()))
		return
	}
	defer rows.Close()

	var payments []payment.Payment
	for rows.Next() {
		var p payment.Payment
		if err := rows.Scan(&p.ID, &p.PayslipID, &p.Amount, &p.Method, &p.Reference, &p.CreatedBy, &p.CreatedAt); err != nil {
			api.Fail(w, http.StatusInternalServerError, "payment_list_failed", "failed to list payments", middleware.GetRequestID(r.Context()))
			return
		}
		payments = append(payments, p)
	}
	api.Success(w, payments, middleware.GetRequestID(r.Context()))
}

func (h *Handler) handleListByPayslip(w http.ResponseWriter, r *http.Request) {
	user, ok := middleware.GetUser(r.Context())
	if !ok || user.CompanyID == "" {
		api.Fail(w, http.StatusUnauthorized, "unauthorized", "company scope required", middleware.GetRequestID(r.Context()))
		return
	}
	payslipID := chi.URLParam(r, "payslipID")

	rows, err := h.DB.Query(r.Context(), `
    SELECT id, payslip_id, amount, method, COALESCE(reference,''), created_by, created_at
    FROM payments
    WHERE company_id = $1 AND payslip_id = $2
    ORDER BY created_at
  `, user.CompanyID, payslipID)
	if err != nil {
		api.Fail(w, http.StatusInternalServerError, "payment_list_failed", "failed to list payments", middleware.GetRequestID(r.Context()))
		return
	}
	defer rows.Close()

	var payments []payment.Payment
	var total float64
	for rows.Next() {
		var p payment.Payment
		if err := rows.Scan(&p.ID, &p.PayslipID, &p.Amount, &p.Method, &p.Reference, &p.CreatedBy, &p.CreatedAt); err != nil {
			api.Fail(w, http.StatusInternalServerError, "payment_list_failed", "failed to list payments", middleware.GetRequestID(r.Context()))
			return
		}
		total += p.Amount
		payments = append(payments, p)
	}
	api.Success(w, map[string]any{"payments": payments, "totalPaid": total}, middleware.GetRequestID(r.Context()))
}
