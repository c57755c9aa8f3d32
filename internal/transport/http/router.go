package httpserver

import (
	"github.com/labstack/echo/v4"
	"gorm.io/gorm"

	"github.com/Pattarach/checkup_shop/internal/handlers"
	"github.com/Pattarach/checkup_shop/internal/handlers/admin"
	"github.com/Pattarach/checkup_shop/internal/handlers/cart"
	"github.com/Pattarach/checkup_shop/internal/middleware/auth"
	"github.com/Pattarach/checkup_shop/internal/ratelimit"
)

type Deps struct {
	DB             *gorm.DB
	Verifier       *auth.Verifier
	Limiter        *ratelimit.Limiter
	RateLimit      int
	PackageHandler *handlers.PackageHandler
	SearchHandler  *handlers.SearchHandler
	CartHandler    *cart.CartHandler
	AdminHandler   *admin.AdminHandler
}

func Register(e *echo.Echo, d *Deps) {
	e.GET("/health/live", func(c echo.Context) error { return c.NoContent(200) })
	e.GET("/health/ready", func(c echo.Context) error { return c.NoContent(200) })

	v1 := e.Group("/api/v1")

	limited := ratelimit.Middleware(d.Limiter, d.RateLimit)

	v1.GET("/search", d.SearchHandler.Search, limited)
	v1.GET("/packages/:id", d.PackageHandler.GetPackage)

	// RequireLogin runs before the limiter so quota is tracked per user, not
	// per address, on authenticated routes.
	crt := v1.Group("/cart", d.Verifier.RequireLogin, limited)

	crt.GET("", d.CartHandler.GetCart)
	crt.POST("", d.CartHandler.AddToCart)
	crt.DELETE("/:packageId", d.CartHandler.RemoveFromCart)

	v1.POST("/checkout", d.CartHandler.Checkout, d.Verifier.RequireLogin, limited)

	adm := v1.Group("/admin", d.Verifier.RequireAdmin)

	adm.POST("/packages/bulk-status", d.AdminHandler.BulkStatus)
}
