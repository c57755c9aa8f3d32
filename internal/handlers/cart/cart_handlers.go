package cart

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/Pattarach/checkup_shop/internal/catalog"
	"github.com/Pattarach/checkup_shop/internal/middleware/auth"
	"github.com/Pattarach/checkup_shop/internal/models"
	"github.com/Pattarach/checkup_shop/internal/mykafka"
)

const maxLineQuantity = 10

type CartHandler struct {
	DB       *gorm.DB
	Producer *mykafka.Producer
}

type lineView struct {
	PackageID      uint       `json:"package_id"`
	Title          string     `json:"title"`
	HospitalName   string     `json:"hospital_name"`
	UnitPrice      float64    `json:"unit_price"`
	Quantity       uint       `json:"quantity"`
	Subtotal       float64    `json:"subtotal"`
	PromotionCode  string     `json:"promotion_code,omitempty"`
	PromotionLabel string     `json:"promotion_label,omitempty"`
	ScheduledFor   *time.Time `json:"scheduled_for,omitempty"`
}

type cartView struct {
	Items     []lineView `json:"items"`
	Total     float64    `json:"total"`
	UpdatedAt *time.Time `json:"updated_at,omitempty"`
}

func (h *CartHandler) GetCart(c echo.Context) error {
	userID, err := auth.UserID(c)
	if err != nil {
		return err
	}

	view := cartView{Items: []lineView{}}

	var crt models.Cart
	if err := h.DB.Where("user_id = ?", userID).First(&crt).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			// a read never creates a cart
			return c.JSON(http.StatusOK, view)
		}
		return echo.NewHTTPError(http.StatusServiceUnavailable, err.Error())
	}

	var lines []models.CartLine
	if err := h.DB.Where("cart_id = ?", crt.ID).Order("id ASC").Find(&lines).Error; err != nil {
		return echo.NewHTTPError(http.StatusServiceUnavailable, err.Error())
	}

	ids := make([]uint, 0, len(lines))
	for _, ln := range lines {
		ids = append(ids, ln.PackageID)
	}
	snaps, err := catalog.ResolveAll(h.DB, ids)
	if err != nil {
		return echo.NewHTTPError(http.StatusServiceUnavailable, err.Error())
	}

	for _, ln := range lines {
		snap, ok := snaps[ln.PackageID]
		if !ok {
			// package withdrawn since it was added
			continue
		}
		sub := float64(ln.Quantity) * snap.UnitPrice
		view.Items = append(view.Items, lineView{
			PackageID:      snap.ID,
			Title:          snap.Title,
			HospitalName:   snap.HospitalName,
			UnitPrice:      snap.UnitPrice,
			Quantity:       ln.Quantity,
			Subtotal:       sub,
			PromotionCode:  ln.PromotionCode,
			PromotionLabel: ln.PromotionLabel,
			ScheduledFor:   ln.ScheduledFor,
		})
		view.Total += sub
	}
	view.UpdatedAt = &crt.UpdatedAt

	return c.JSON(http.StatusOK, view)
}

func (h *CartHandler) AddToCart(c echo.Context) error {
	userID, err := auth.UserID(c)
	if err != nil {
		return err
	}

	var req struct {
		PackageID      uint   `json:"package_id"`
		Quantity       uint   `json:"quantity"`
		PromotionCode  string `json:"promotion_code"`
		PromotionLabel string `json:"promotion_label"`
		ScheduledFor   string `json:"scheduled_for"`
	}
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusUnprocessableEntity, "invalid payload")
	}
	if req.PackageID == 0 {
		return echo.NewHTTPError(http.StatusUnprocessableEntity, "package_id is required")
	}
	if req.Quantity < 1 {
		req.Quantity = 1
	}
	if req.Quantity > maxLineQuantity {
		return echo.NewHTTPError(http.StatusUnprocessableEntity, "quantity must be between 1 and 10")
	}
	var scheduledFor *time.Time
	if req.ScheduledFor != "" {
		ts, err := time.Parse(time.RFC3339, req.ScheduledFor)
		if err != nil {
			return echo.NewHTTPError(http.StatusUnprocessableEntity, "scheduled_for must be an RFC3339 timestamp")
		}
		scheduledFor = &ts
	}

	if _, err := catalog.Resolve(h.DB, req.PackageID); err != nil {
		if errors.Is(err, catalog.ErrPackageNotFound) {
			return echo.NewHTTPError(http.StatusUnprocessableEntity, "package not found")
		}
		return echo.NewHTTPError(http.StatusServiceUnavailable, err.Error())
	}

	now := time.Now()

	// Cart upsert keyed on the user_id unique index: create on first add,
	// otherwise just touch updated_at. No read-then-write race possible.
	crt := models.Cart{UserID: userID, UpdatedAt: now}
	if err := h.DB.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "user_id"}},
		DoUpdates: clause.Assignments(map[string]interface{}{"updated_at": now}),
	}).Create(&crt).Error; err != nil {
		return echo.NewHTTPError(http.StatusServiceUnavailable, err.Error())
	}
	if err := h.DB.Where("user_id = ?", userID).First(&crt).Error; err != nil {
		return echo.NewHTTPError(http.StatusServiceUnavailable, err.Error())
	}

	// One statement so concurrent adds of the same package sum quantities at
	// the storage layer. Promotion and schedule take the latest call's
	// values, they are overwritten rather than merged.
	line := models.CartLine{
		CartID:         crt.ID,
		PackageID:      req.PackageID,
		Quantity:       req.Quantity,
		PromotionCode:  req.PromotionCode,
		PromotionLabel: req.PromotionLabel,
		ScheduledFor:   scheduledFor,
		AddedAt:        now,
	}
	if err := h.DB.Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "cart_id"}, {Name: "package_id"}},
		DoUpdates: clause.Assignments(map[string]interface{}{
			"quantity":        gorm.Expr("quantity + ?", req.Quantity),
			"promotion_code":  req.PromotionCode,
			"promotion_label": req.PromotionLabel,
			"scheduled_for":   scheduledFor,
		}),
	}).Create(&line).Error; err != nil {
		return echo.NewHTTPError(http.StatusServiceUnavailable, err.Error())
	}
	if err := h.DB.Where("cart_id = ? AND package_id = ?", crt.ID, req.PackageID).First(&line).Error; err != nil {
		return echo.NewHTTPError(http.StatusServiceUnavailable, err.Error())
	}

	h.publish(c, map[string]any{
		"type":      "cart_line_upserted",
		"userID":    userID,
		"packageID": req.PackageID,
		"quantity":  line.Quantity,
	})
	return c.JSON(http.StatusOK, line)
}

func (h *CartHandler) RemoveFromCart(c echo.Context) error {
	userID, err := auth.UserID(c)
	if err != nil {
		return err
	}

	packageID, err := strconv.Atoi(c.Param("packageId"))
	if err != nil || packageID <= 0 {
		return echo.NewHTTPError(http.StatusUnprocessableEntity, "invalid package id")
	}

	var crt models.Cart
	if err := h.DB.Where("user_id = ?", userID).First(&crt).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			// nothing to remove, delete is idempotent
			return c.NoContent(http.StatusNoContent)
		}
		return echo.NewHTTPError(http.StatusServiceUnavailable, err.Error())
	}

	if err := h.DB.Where("cart_id = ? AND package_id = ?", crt.ID, packageID).Delete(&models.CartLine{}).Error; err != nil {
		return echo.NewHTTPError(http.StatusServiceUnavailable, err.Error())
	}
	if err := h.DB.Model(&crt).Update("updated_at", time.Now()).Error; err != nil {
		return echo.NewHTTPError(http.StatusServiceUnavailable, err.Error())
	}

	h.publish(c, map[string]any{
		"type":      "cart_line_removed",
		"userID":    userID,
		"packageID": packageID,
	})
	return c.NoContent(http.StatusNoContent)
}
