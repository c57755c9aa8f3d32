package auth

import (
	"github.com/labstack/echo/v4"
)

func (v *Verifier) RequireLogin(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		claims, err := v.parseCookie(c)
		if err != nil {
			return err
		}
		setUserContext(c, claims)
		return next(c)
	}
}
