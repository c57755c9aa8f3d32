package auth

import (
	"fmt"
	"net/http"

	"github.com/golang-jwt/jwt/v5"
	"github.com/labstack/echo/v4"
)

// Verifier checks access tokens minted by the identity service. This service
// never issues or refreshes sessions itself.
type Verifier struct {
	Secret []byte
}

func (v *Verifier) parseCookie(c echo.Context) (jwt.MapClaims, error) {
	cookie, err := c.Cookie("accessToken")
	if err != nil {
		return nil, echo.NewHTTPError(http.StatusUnauthorized, "missing auth cookie")
	}
	if cookie.Value == "" {
		return nil, echo.NewHTTPError(http.StatusUnauthorized, "empty token")
	}

	token, err := jwt.Parse(cookie.Value, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return v.Secret, nil
	})
	if err != nil || !token.Valid {
		return nil, echo.NewHTTPError(http.StatusUnauthorized, "invalid token")
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return nil, echo.NewHTTPError(http.StatusUnauthorized, "invalid token claims")
	}
	if _, ok := claims["sub"].(float64); !ok {
		return nil, echo.NewHTTPError(http.StatusUnauthorized, "invalid subject claim")
	}
	return claims, nil
}

func setUserContext(c echo.Context, claims jwt.MapClaims) {
	c.Set("userID", uint(claims["sub"].(float64)))
	if role, ok := claims["role"].(string); ok {
		c.Set("role", role)
	}
}

func UserID(c echo.Context) (uint, error) {
	if id, ok := c.Get("userID").(uint); ok {
		return id, nil
	}
	return 0, echo.NewHTTPError(http.StatusUnauthorized, "not authenticated")
}

func Role(c echo.Context) string {
	if role, ok := c.Get("role").(string); ok {
		return role
	}
	return ""
}
