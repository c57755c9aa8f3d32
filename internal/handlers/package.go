package handlers

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"
	"gorm.io/gorm"

	"github.com/Pattarach/checkup_shop/internal/catalog"
)

type PackageHandler struct {
	DB *gorm.DB
}

func (h *PackageHandler) GetPackage(c echo.Context) error {
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil || id <= 0 {
		return echo.NewHTTPError(http.StatusUnprocessableEntity, "invalid package id")
	}

	snap, err := catalog.Resolve(h.DB, uint(id))
	if err != nil {
		if errors.Is(err, catalog.ErrPackageNotFound) {
			return echo.NewHTTPError(http.StatusNotFound, "package not found")
		}
		return echo.NewHTTPError(http.StatusServiceUnavailable, err.Error())
	}
	return c.JSON(http.StatusOK, snap)
}
