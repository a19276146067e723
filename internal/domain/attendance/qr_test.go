package attendance

import (
	"errors"
	"testing"
	"time"
)

const qrSecret = "qr-test-secret"

func TestEmployeeQRRoundTrip(t *testing.T) {
	token, err := IssueEmployeeQR(qrSecret, "c-1", "e-1", 15*time.Minute)
	if err != nil {
		t.Fatalf("issue: %v", err)
	}
	claims, err := VerifyQR(qrSecret, token)
	if err != nil {
		t.Fatalf("verify: %v", err)
	}
	if claims.Kind != QRKindEmployee || claims.CompanyID != "c-1" || claims.EmployeeID != "e-1" {
		t.Fatalf("unexpected claims: %+v", claims)
	}
}

func TestCompanyQRHasNoEmployee(t *testing.T) {
	token, err := IssueCompanyQR(qrSecret, "c-1", time.Hour)
	if err != nil {
		t.Fatalf("issue: %v", err)
	}
	claims, err := VerifyQR(qrSecret, token)
	if err != nil {
		t.Fatalf("verify: %v", err)
	}
	if claims.Kind != QRKindCompany || claims.EmployeeID != "" {
		t.Fatalf("unexpected claims: %+v", claims)
	}
}

func TestVerifyQRRejectsExpired(t *testing.T) {
	token, err := IssueEmployeeQR(qrSecret, "c-1", "e-1", -time.Minute)
	if err != nil {
		t.Fatalf("issue: %v", err)
	}
	if _, err := VerifyQR(qrSecret, token); !errors.Is(err, ErrInvalidQRToken) {
		t.Fatalf("got %v, want ErrInvalidQRToken", err)
	}
}

func TestVerifyQRRejectsWrongSecret(t *testing.T) {
	token, err := IssueCompanyQR(qrSecret, "c-1", time.Hour)
	if err != nil {
		t.Fatalf("issue: %v", err)
	}
	if _, err := VerifyQR("other-secret", token); !errors.Is(err, ErrInvalidQRToken) {
		t.Fatalf("got %v, want ErrInvalidQRToken", err)
	}
}

func TestRenderQRPNG(t *testing.T) {
	data, err := RenderQRPNG("some-token-payload", 256)
	if err != nil {
		t.Fatalf("render: %v", err)
	}
	if len(data) < 8 || string(data[1:4]) != "PNG" {
		t.Fatal("output is not a png")
	}
}
