package jwt

import (
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// Claims identifica al escritor (dispositivo o sesión) que origina los deltas.
// No transporta permisos: la autorización queda fuera del libro de lotes.
type Claims struct {
	jwt.RegisteredClaims
	WriterID  string `json:"writer_id"`
	CompanyID string `json:"company_id"`
}

// Generate emite un token firmado (HS256) para un escritor.
func Generate(secret, writerID, companyID, issuer string, expMinutes int) (string, error) {
	if secret == "" {
		return "", fmt.Errorf("jwt: secret vacío")
	}
	if writerID == "" {
		return "", fmt.Errorf("jwt: writer_id vacío")
	}
	now := time.Now()
	claims := Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    issuer,
			Subject:   writerID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(time.Duration(expMinutes) * time.Minute)),
		},
		WriterID:  writerID,
		CompanyID: companyID,
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(secret))
}

// Parse valida el token y devuelve writerID y companyID.
func Parse(secret, tokenString string) (writerID, companyID string, err error) {
	if secret == "" {
		return "", "", fmt.Errorf("jwt: secret vacío")
	}
	token, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("método de firma inesperado: %v", t.Header["alg"])
		}
		return []byte(secret), nil
	})
	if err != nil {
		return "", "", err
	}
	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid || claims.WriterID == "" {
		return "", "", fmt.Errorf("claims inválidos")
	}
	return claims.WriterID, claims.CompanyID, nil
}
