package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"payflow/internal/domain/auth"
)

const testSecret = "test-secret-for-middleware"

func TestAuthPopulatesUserContext(t *testing.T) {
	token, err := auth.GenerateToken(testSecret, auth.Claims{
		UserID:       "u-1",
		CompanyID:    "c-1",
		Role:         auth.RoleAdmin,
		OriginalRole: "",
	}, time.Hour)
	if err != nil {
		t.Fatalf("generate token: %v", err)
	}

	var user auth.UserContext
	var ok bool
	handler := Auth(testSecret)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		user, ok = GetUser(r.Context())
	}))

	req := httptest.NewRequest(http.MethodGet, "/api/v1/employes", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	handler.ServeHTTP(httptest.NewRecorder(), req)

	if !ok {
		t.Fatal("expected user in context")
	}
	if user.UserID != "u-1" || user.CompanyID != "c-1" || user.Role != auth.RoleAdmin {
		t.Fatalf("unexpected user context: %+v", user)
	}
}

func TestAuthIgnoresGarbageToken(t *testing.T) {
	var ok bool
	handler := Auth(testSecret)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, ok = GetUser(r.Context())
	}))

	req := httptest.NewRequest(http.MethodGet, "/api/v1/employes", nil)
	req.Header.Set("Authorization", "Bearer not-a-jwt")
	handler.ServeHTTP(httptest.NewRecorder(), req)

	if ok {
		t.Fatal("expected anonymous request for invalid token")
	}
}

func TestRequireRolesUsesEffectiveRole(t *testing.T) {
	adminOnly := RequireRoles(auth.RoleAdmin)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	}))

	cases := []struct {
		name string
		user *auth.UserContext
		want int
	}{
		{"anonymous", nil, http.StatusUnauthorized},
		{"admin", &auth.UserContext{UserID: "u", Role: auth.RoleAdmin, CompanyID: "c"}, http.StatusNoContent},
		{"cashier", &auth.UserContext{UserID: "u", Role: auth.RoleCaissier, CompanyID: "c"}, http.StatusForbidden},
		{"super admin without company", &auth.UserContext{UserID: "u", Role: auth.RoleSuperAdmin}, http.StatusForbidden},
		{"super admin impersonating", &auth.UserContext{UserID: "u", Role: auth.RoleSuperAdmin, CompanyID: "c"}, http.StatusNoContent},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/api/v1/payruns", nil)
			if tc.user != nil {
				req = req.WithContext(WithUser(req.Context(), *tc.user))
			}
			rec := httptest.NewRecorder()
			adminOnly.ServeHTTP(rec, req)
			if rec.Code != tc.want {
				t.Fatalf("got status %d, want %d", rec.Code, tc.want)
			}
		})
	}
}
