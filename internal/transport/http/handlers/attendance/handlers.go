package attendancehandler

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"payflow/internal/domain/attendance"
	"payflow/internal/domain/audit"
	"payflow/internal/domain/auth"
	"payflow/internal/domain/employee"
	"payflow/internal/transport/http/api"
	"payflow/internal/transport/http/middleware"
	"payflow/internal/transport/http/shared"
)

type Handler struct {
	DB            *pgxpool.Pool
	Secret        string
	EmployeeQRTTL time.Duration
	CompanyQRTTL  time.Duration
}

func NewHandler(db *pgxpool.Pool, secret string, employeeQRTTL, companyQRTTL time.Duration) *Handler {
	return &Handler{DB: db, Secret: secret, EmployeeQRTTL: employeeQRTTL, CompanyQRTTL: companyQRTTL}
}

type checkInPayload struct {
	EmployeeID string   `json:"employeeId"`
	Method     string   `json:"method"`
	PIN        string   `json:"pin"`
	Type       string   `json:"type"`
	Latitude   *float64 `json:"latitude"`
	Longitude  *float64 `json:"longitude"`
}

type validateQRPayload struct {
	Token      string   `json:"token"`
	EmployeeID string   `json:"employeeId"`
	Latitude   *float64 `json:"latitude"`
	Longitude  *float64 `json:"longitude"`
}

func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Route("/pointages", func(r chi.Router) {
		// Kiosk endpoints: a wall tablet has no session, the PIN or the QR
		// token is the credential.
		r.Post("/check-in", h.handleCheckIn)
		r.Post("/validate-qr", h.handleValidateQR)
		r.Get("/can-checkin/{employeeID}", h.handleCanCheckIn)

		r.With(middleware.RequireRoles(auth.RoleAdmin, auth.RoleVigile)).Get("/qr-code/company", h.handleCompanyQR)
		r.With(middleware.RequireRoles(auth.RoleAdmin, auth.RoleVigile)).Get("/qr-code/employee/{employeeID}", h.handleEmployeeQR)
		r.With(middleware.RequireRoles(auth.RoleAdmin, auth.RoleVigile, auth.RoleCaissier)).Get("/today", h.handleListToday)
		r.With(middleware.RequireRoles(auth.RoleAdmin, auth.RoleVigile, auth.RoleCaissier)).Get("/", h.handleList)
	})
}

type employeeState struct {
	companyID string
	phone     string
	active    bool
	fence     *attendance.Geofence
}

func (h *Handler) loadEmployeeState(r *http.Request, employeeID string) (employeeState, error) {
	var state employeeState
	var status string
	var lat, lng, radius *float64
	err := h.DB.QueryRow(r.Context(), `
    SELECT e.company_id, COALESCE(e.phone,''), e.status, c.latitude, c.longitude, c.geofence_radius_m
    FROM employees e
    JOIN companies c ON c.id = e.company_id
    WHERE e.id = $1 AND c.active
  `, employeeID).Scan(&state.companyID, &state.phone, &status, &lat, &lng, &radius)
	if err != nil {
		return state, err
	}
	state.active = status == employee.StatusActive
	if lat != nil && lng != nil && radius != nil {
		state.fence = &attendance.Geofence{Latitude: *lat, Longitude: *lng, RadiusM: *radius}
	}
	return state, nil
}

func (h *Handler) checkedInToday(r *http.Request, employeeID string) (bool, error) {
	start, end := shared.DayBounds(time.Now())
	var count int
	err := h.DB.QueryRow(r.Context(), `
    SELECT COUNT(1)
    FROM attendance_records
    WHERE employee_id = $1 AND type = $2 AND recorded_at >= $3 AND recorded_at < $4
  `, employeeID, attendance.TypeIn, start, end).Scan(&count)
	return count > 0, err
}

func (h *Handler) record(r *http.Request, state employeeState, employeeID, recordType, method string, lat, lng *float64) (attendance.Record, error) {
	var rec attendance.Record
	err := h.DB.QueryRow(r.Context(), `
    INSERT INTO attendance_records (company_id, employee_id, type, method, latitude, longitude)
    VALUES ($1,$2,$3,$4,$5,$6)
    RETURNING id, company_id, employee_id, type, method, latitude, longitude, recorded_at
  `, state.companyID, employeeID, recordType, method, lat, lng).Scan(
		&rec.ID, &rec.CompanyID, &rec.EmployeeID, &rec.Type, &rec.Method, &rec.Latitude, &rec.Longitude, &rec.RecordedAt)
	return rec, err
}

func checkInFailure(w http.ResponseWriter, err error, requestID string) {
	switch {
	case errors.Is(err, attendance.ErrInvalidPIN):
		api.Fail(w, http.StatusUnauthorized, "invalid_pin", "pin does not match", requestID)
	case errors.Is(err, attendance.ErrInactiveEmployee):
		api.Fail(w, http.StatusConflict, "employee_inactive", "employee is not active", requestID)
	case errors.Is(err, attendance.ErrAlreadyCheckedIn):
		api.Fail(w, http.StatusConflict, "already_checked_in", "already checked in today", requestID)
	case errors.Is(err, attendance.ErrOutsideGeofence):
		api.Fail(w, http.StatusForbidden, "outside_geofence", "outside the company geofence", requestID)
	default:
		api.Fail(w, http.StatusInternalServerError, "checkin_failed", "failed to record attendance", requestID)
	}
}

func (h *Handler) performCheckIn(w http.ResponseWriter, r *http.Request, employeeID, recordType, method string, lat, lng *float64) {
	requestID := middleware.GetRequestID(r.Context())

	state, err := h.loadEmployeeState(r, employeeID)
	if err != nil {
		api.Fail(w, http.StatusNotFound, "not_found", "employee not found", requestID)
		return
	}

	if recordType == "" {
		recordType = attendance.TypeIn
	}
	if recordType != attendance.TypeIn && recordType != attendance.TypeOut {
		api.Fail(w, http.StatusBadRequest, "invalid_type", "type must be in or out", requestID)
		return
	}

	// Only a check-in is gated; a check-out just closes the day.
	if recordType == attendance.TypeIn {
		already, err := h.checkedInToday(r, employeeID)
		if err != nil {
			log.Printf("checked-in lookup failed: %v", err)
		}
		if err := attendance.CanCheckIn(attendance.CheckInState{
			Active:         state.active,
			CheckedInToday: already,
			Fence:          state.fence,
			Latitude:       lat,
			Longitude:      lng,
		}); err != nil {
			checkInFailure(w, err, requestID)
			return
		}
	}

	rec, err := h.record(r, state, employeeID, recordType, method, lat, lng)
	if err != nil {
		checkInFailure(w, err, requestID)
		return
	}

	if err := audit.New(h.DB).Record(r.Context(), state.companyID, employeeID, "attendance."+recordType, "attendance_record", rec.ID, requestID, shared.ClientIP(r), map[string]string{"method": method}); err != nil {
		log.Printf("audit attendance.%s failed: %v", recordType, err)
	}
	api.Created(w, rec, requestID)
}

// handleCheckIn covers the pin and gps methods. A PIN proves identity on
// a shared kiosk; the gps method trusts the authenticated device and is
// gated by the geofence instead.
func (h *Handler) handleCheckIn(w http.ResponseWriter, r *http.Request) {
	requestID := middleware.GetRequestID(r.Context())

	var payload checkInPayload
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		api.Fail(w, http.StatusBadRequest, "invalid_payload", "invalid request payload", requestID)
		return
	}
	if payload.EmployeeID == "" {
		api.Fail(w, http.StatusBadRequest, "invalid_payload", "employee id required", requestID)
		return
	}
	if payload.Method == "" {
		payload.Method = attendance.MethodPIN
	}

	switch payload.Method {
	case attendance.MethodPIN:
		state, err := h.loadEmployeeState(r, payload.EmployeeID)
		if err != nil {
			api.Fail(w, http.StatusNotFound, "not_found", "employee not found", requestID)
			return
		}
		if !attendance.VerifyPIN(state.phone, payload.PIN) {
			checkInFailure(w, attendance.ErrInvalidPIN, requestID)
			return
		}
	case attendance.MethodGPS:
		if payload.Latitude == nil || payload.Longitude == nil {
			api.Fail(w, http.StatusBadRequest, "invalid_payload", "gps check-in requires coordinates", requestID)
			return
		}
	default:
		api.Fail(w, http.StatusBadRequest, "invalid_method", "method must be pin or gps", requestID)
		return
	}

	h.performCheckIn(w, r, payload.EmployeeID, payload.Type, payload.Method, payload.Latitude, payload.Longitude)
}

func (h *Handler) handleValidateQR(w http.ResponseWriter, r *http.Request) {
	requestID := middleware.GetRequestID(r.Context())

	var payload validateQRPayload
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		api.Fail(w, http.StatusBadRequest, "invalid_payload", "invalid request payload", requestID)
		return
	}

	claims, err := attendance.VerifyQR(h.Secret, payload.Token)
	if err != nil {
		api.Fail(w, http.StatusUnauthorized, "invalid_qr", "invalid or expired qr token", requestID)
		return
	}

	employeeID := claims.EmployeeID
	if claims.Kind == attendance.QRKindCompany {
		// A company QR identifies the site only; the scanner says who is
		// checking in.
		employeeID = payload.EmployeeID
		if employeeID == "" {
			api.Fail(w, http.StatusBadRequest, "invalid_payload", "employee id required for a company qr", requestID)
			return
		}
	}

	state, err := h.loadEmployeeState(r, employeeID)
	if err != nil {
		api.Fail(w, http.StatusNotFound, "not_found", "employee not found", requestID)
		return
	}
	if state.companyID != claims.CompanyID {
		api.Fail(w, http.StatusForbidden, "forbidden", "qr token does not match the employee's company", requestID)
		return
	}

	h.performCheckIn(w, r, employeeID, attendance.TypeIn, attendance.MethodQR, payload.Latitude, payload.Longitude)
}

func (h *Handler) handleCanCheckIn(w http.ResponseWriter, r *http.Request) {
	requestID := middleware.GetRequestID(r.Context())
	employeeID := chi.URLParam(r, "employeeID")

	state, err := h.loadEmployeeState(r, employeeID)
	if err != nil {
		api.Fail(w, http.StatusNotFound, "not_found", "employee not found", requestID)
		return
	}
	already, err := h.checkedInToday(r, employeeID)
	if err != nil {
		log.Printf("checked-in lookup failed: %v", err)
	}

	reason := ""
	if err := attendance.CanCheckIn(attendance.CheckInState{Active: state.active, CheckedInToday: already}); err != nil {
		reason = err.Error()
	}
	api.Success(w, map[string]any{
		"canCheckIn":     reason == "",
		"reason":         reason,
		"checkedInToday": already,
		"hasGeofence":    state.fence != nil,
	}, requestID)
}

func (h *Handler) handleCompanyQR(w http.ResponseWriter, r *http.Request) {
	user, ok := middleware.GetUser(r.Context())
	if !ok || user.CompanyID == "" {
		api.Fail(w, http.StatusUnauthorized, "unauthorized", "company scope required", middleware.GetRequestID(r.Context()))
		return
	}

	token, err := attendance.IssueCompanyQR(h.Secret, user.CompanyID, h.CompanyQRTTL)
	if err != nil {
		api.Fail(w, http.StatusInternalServerError, "qr_failed", "failed to issue qr code", middleware.GetRequestID(r.Context()))
		return
	}
	h.writeQRPNG(w, r, token)
}

func (h *Handler) handleEmployeeQR(w http.ResponseWriter, r *http.Request) {
	user, ok := middleware.GetUser(r.Context())
	if !ok || user.CompanyID == "" {
		api.Fail(w, http.StatusUnauthorized, "unauthorized", "company scope required", middleware.GetRequestID(r.Context()))
		return
	}
	employeeID := chi.URLParam(r, "employeeID")

	var count int
	if err := h.DB.QueryRow(r.Context(), `
    SELECT COUNT(1) FROM employees WHERE company_id = $1 AND id = $2
  `, user.CompanyID, employeeID).Scan(&count); err != nil || count == 0 {
		api.Fail(w, http.StatusNotFound, "not_found", "employee not found", middleware.GetRequestID(r.Context()))
		return
	}

	token, err := attendance.IssueEmployeeQR(h.Secret, user.CompanyID, employeeID, h.EmployeeQRTTL)
	if err != nil {
		api.Fail(w, http.StatusInternalServerError, "qr_failed", "failed to issue qr code", middleware.GetRequestID(r.Context()))
		return
	}
	h.writeQRPNG(w, r, token)
}

func (h *Handler) writeQRPNG(w http.ResponseWriter, r *http.Request, token string) {
	data, err := attendance.RenderQRPNG(token, 256)
	if err != nil {
		api.Fail(w, http.StatusInternalServerError, "qr_failed", "failed to render qr code", middleware.GetRequestID(r.Context()))
		return
	}
	w.Header().Set("Content-Type", "image/png")
	w.Header().Set("Cache-Control", "no-store")
	if _, err := w.Write(data); err != nil {
		log.Printf("qr png write failed: %v", err)
	}
}

func (h *Handler) handleListToday(w http.ResponseWriter, r *http.Request) {
	user, ok := middleware.GetUser(r.Context())
	if !ok || user.CompanyID == "" {
		api.Fail(w, http.StatusUnauthorized, "unauthorized", "company scope required", middleware.GetRequestID(r.Context()))
		return
	}
	start, end := shared.DayBounds(time.Now())
	h.listRange(w, r, user.CompanyID, start, end)
}

func (h *Handler) handleList(w http.ResponseWriter, r *http.Request) {
	user, ok := middleware.GetUser(r.Context())
	if !ok || user.CompanyID == "" {
		api.Fail(w, http.StatusUnauthorized, "unauthorized", "company scope required", middleware.GetRequestID(r.Context()))
		return
	}

	v := shared.NewValidator()
	from, fromOK := v.Date("from", r.URL.Query().Get("from"))
	to, toOK := v.Date("to", r.URL.Query().Get("to"))
	if fromOK && toOK {
		v.DateOrder("from", from, "to", to)
	}
	if v.Reject(w, middleware.GetRequestID(r.Context())) {
		return
	}
	h.listRange(w, r, user.CompanyID, from, to.Add(24*time.Hour))
}

func (h *Handler) listRange(w http.ResponseWriter, r *http.Request, companyID string, from, to time.Time) {
	rows, err := h.DB.Query(r.Context(), `
    SELECT a.id, a.company_id, a.employee_id, a.type, a.method, a.latitude, a.longitude, a.recorded_at
    FROM attendance_records a
    WHERE a.company_id = $1 AND a.recorded_at >= $2 AND a.recorded_at < $3
    ORDER BY a.recorded_at DESC
  `, companyID, from, to)
	if err != nil {
		api.Fail(w, http.StatusInternalServerError, "attendance_list_failed", "failed to list attendance", middleware.GetRequestID(r.Context()))
		return
	}
	defer rows.Close()

	var records []attendance.Record
	for rows.Next() {
		var rec attendance.Record
		if err := rows.Scan(&rec.ID, &rec.CompanyID, &rec.EmployeeID, &rec.Type, &rec.Method, &rec.Latitude, &rec.Longitude, &rec.RecordedAt); err != nil {
			api.Fail(w, http.StatusInternalServerError, "attendance_list_failed", "failed to list attendance", middleware.GetRequestID(r.Context()))
			return
		}
		records = append(records, rec)
	}
	api.Success(w, records, middleware.GetRequestID(r.Context()))
}
