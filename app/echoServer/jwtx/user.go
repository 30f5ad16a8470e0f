// app/echoServer/jwtx/user.go
package jwtx

import (
	"errors"

	"github.com/golang-jwt/jwt/v5"
	"github.com/labstack/echo/v4"
)

// IdentityFromContext reads the ledger identity (sub claim) set by the jwt
// middleware.
func IdentityFromContext(c echo.Context) (string, error) {
	claims := claimsFromContext(c)
	if claims == nil {
		return "", errors.New("no jwt claims in context")
	}
	if s, ok := claims["sub"].(string); ok && s != "" {
		return s, nil
	}
	return "", errors.New("sub missing in claims")
}

// RoleFromContext reads the role claim, defaulting to "user".
func RoleFromContext(c echo.Context) string {
	claims := claimsFromContext(c)
	if s, ok := claims["role"].(string); ok && s != "" {
		return s
	}
	return "user"
}

func claimsFromContext(c echo.Context) jwt.MapClaims {
	switch v := c.Get("user").(type) {
	case *jwt.Token:
		claims, _ := v.Claims.(jwt.MapClaims)
		return claims
	case jwt.MapClaims:
		return v
	}
	return nil
}
