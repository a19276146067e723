package attendance

import (
	"bytes"
	"errors"
	"image/png"
	"time"

	"github.com/boombuler/barcode"
	"github.com/boombuler/barcode/qr"
	"github.com/golang-jwt/jwt/v5"
)

// QR check-in tokens are short-lived signed claims rendered as a QR
// image. An employee token checks in one person; a company token is
// posted at the site entrance and identifies only the company, the
// scanner supplies the employee.
const (
	QRKindEmployee = "employee"
	QRKindCompany  = "company"
)

var ErrInvalidQRToken = errors.New("invalid or expired qr token")

type QRClaims struct {
	Kind       string `json:"kind"`
	CompanyID  string `json:"cid"`
	EmployeeID string `json:"eid,omitempty"`
	jwt.RegisteredClaims
}

func IssueEmployeeQR(secret, companyID, employeeID string, ttl time.Duration) (string, error) {
	return signQR(secret, QRClaims{Kind: QRKindEmployee, CompanyID: companyID, EmployeeID: employeeID}, ttl)
}

func IssueCompanyQR(secret, companyID string, ttl time.Duration) (string, error) {
	return signQR(secret, QRClaims{Kind: QRKindCompany, CompanyID: companyID}, ttl)
}

func signQR(secret string, claims QRClaims, ttl time.Duration) (string, error) {
	claims.RegisteredClaims = jwt.RegisteredClaims{
		ExpiresAt: jwt.NewNumericDate(time.Now().Add(ttl)),
		IssuedAt:  jwt.NewNumericDate(time.Now()),
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(secret))
}

func VerifyQR(secret, tokenString string) (*QRClaims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &QRClaims{}, func(token *jwt.Token) (interface{}, error) {
		if token.Method != jwt.SigningMethodHS256 {
			return nil, ErrInvalidQRToken
		}
		return []byte(secret), nil
	})
	if err != nil {
		return nil, ErrInvalidQRToken
	}
	claims, ok := token.Claims.(*QRClaims)
	if !ok || !token.Valid {
		return nil, ErrInvalidQRToken
	}
	if claims.Kind != QRKindEmployee && claims.Kind != QRKindCompany {
		return nil, ErrInvalidQRToken
	}
	return claims, nil
}

// RenderQRPNG encodes the token into a QR code PNG.
func RenderQRPNG(tokenString string, size int) ([]byte, error) {
	code, err := qr.Encode(tokenString, qr.M, qr.Auto)
	if err != nil {
		return nil, err
	}
	scaled, err := barcode.Scale(code, size, size)
	if err != nil {
		return nil, err
	}
	var buf bytes.Buffer
	if err := png.Encode(&buf, scaled); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
