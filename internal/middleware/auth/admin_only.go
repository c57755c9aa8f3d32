package auth

import (
	"net/http"

	"github.com/labstack/echo/v4"
)

func (v *Verifier) RequireAdmin(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		claims, err := v.parseCookie(c)
		if err != nil {
			return err
		}
		setUserContext(c, claims)
		if Role(c) != "admin" {
			return echo.NewHTTPError(http.StatusForbidden, "you don't have enough rights")
		}
		return next(c)
	}
}
