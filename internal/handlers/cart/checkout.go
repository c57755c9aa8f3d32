package cart

import (
	"context"
	"errors"
	"net/http"
	"net/mail"
	"time"

	"github.com/labstack/echo/v4"
	"gorm.io/gorm"

	"github.com/Pattarach/checkup_shop/internal/catalog"
	"github.com/Pattarach/checkup_shop/internal/middleware/auth"
	"github.com/Pattarach/checkup_shop/internal/models"
	"github.com/Pattarach/checkup_shop/internal/payment"
)

const (
	checkoutTimeout = 10 * time.Second
	refCodeAttempts = 3
)

var (
	errEmptyCart          = echo.NewHTTPError(http.StatusUnprocessableEntity, "no items in cart")
	errIncompleteSchedule = echo.NewHTTPError(http.StatusUnprocessableEntity, "pick a service date for every package before checkout")
	errInvalidTotal       = echo.NewHTTPError(http.StatusUnprocessableEntity, "order total must be positive")
)

type checkoutResponse struct {
	OrderID             uint                 `json:"order_id"`
	ReferenceCode       string               `json:"reference_code"`
	TotalAmount         float64              `json:"total_amount"`
	PaymentMethod       string               `json:"payment_method"`
	PaymentStatus       string               `json:"payment_status"`
	Status              string               `json:"status"`
	Items               []models.OrderLine   `json:"items"`
	PaymentInstructions payment.Instructions `json:"payment_instructions"`
}

// Checkout converts the caller's cart into an immutable order. Everything
// from reading the cart to clearing its lines runs in one transaction; a
// failure anywhere leaves the cart exactly as it was.
func (h *CartHandler) Checkout(c echo.Context) error {
	userID, err := auth.UserID(c)
	if err != nil {
		return err
	}

	var req struct {
		FullName      string `json:"full_name"`
		Email         string `json:"email"`
		Phone         string `json:"phone"`
		Notes         string `json:"notes"`
		PaymentMethod string `json:"payment_method"`
	}
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusUnprocessableEntity, "invalid payload")
	}
	if req.FullName == "" {
		return echo.NewHTTPError(http.StatusUnprocessableEntity, "full_name is required")
	}
	if _, err := mail.ParseAddress(req.Email); err != nil {
		return echo.NewHTTPError(http.StatusUnprocessableEntity, "a valid email is required")
	}
	method := payment.Normalize(payment.Method(req.PaymentMethod))
	initialStatus := payment.InitialStatus(method)

	ctx, cancel := context.WithTimeout(c.Request().Context(), checkoutTimeout)
	defer cancel()

	var (
		order      models.Order
		orderLines []models.OrderLine
		txErr      error
	)
	for attempt := 0; attempt < refCodeAttempts; attempt++ {
		order = models.Order{}
		orderLines = nil
		txErr = h.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
			var crt models.Cart
			if err := tx.Where("user_id = ?", userID).First(&crt).Error; err != nil {
				if errors.Is(err, gorm.ErrRecordNotFound) {
					return errEmptyCart
				}
				return err
			}

			var lines []models.CartLine
			if err := tx.Where("cart_id = ?", crt.ID).Order("id ASC").Find(&lines).Error; err != nil {
				return err
			}

			ids := make([]uint, 0, len(lines))
			for _, ln := range lines {
				ids = append(ids, ln.PackageID)
			}
			snaps, err := catalog.ResolveAll(tx, ids)
			if err != nil {
				return err
			}

			type resolvedLine struct {
				line models.CartLine
				snap catalog.Snapshot
			}
			kept := make([]resolvedLine, 0, len(lines))
			for _, ln := range lines {
				snap, ok := snaps[ln.PackageID]
				if !ok {
					// package withdrawn since it was added, drop the line
					continue
				}
				kept = append(kept, resolvedLine{line: ln, snap: snap})
			}
			if len(kept) == 0 {
				return errEmptyCart
			}
			for _, r := range kept {
				if r.line.ScheduledFor == nil {
					return errIncompleteSchedule
				}
			}

			var total float64
			for _, r := range kept {
				total += float64(r.line.Quantity) * r.snap.UnitPrice
			}
			if total <= 0 {
				return errInvalidTotal
			}

			ref, err := newReferenceCode(time.Now())
			if err != nil {
				return err
			}

			order = models.Order{
				UserID:        userID,
				ReferenceCode: ref,
				FullName:      req.FullName,
				Email:         req.Email,
				Phone:         req.Phone,
				Notes:         req.Notes,
				TotalAmount:   total,
				PaymentMethod: string(method),
				PaymentStatus: string(initialStatus),
				Status:        models.OrderStatusNew,
				CreatedAt:     time.Now(),
			}
			if err := tx.Create(&order).Error; err != nil {
				return err
			}

			orderLines = make([]models.OrderLine, 0, len(kept))
			for _, r := range kept {
				orderLines = append(orderLines, models.OrderLine{
					OrderID:        order.ID,
					PackageID:      r.snap.ID,
					PackageTitle:   r.snap.Title,
					HospitalName:   r.snap.HospitalName,
					UnitPrice:      r.snap.UnitPrice,
					Quantity:       r.line.Quantity,
					Subtotal:       float64(r.line.Quantity) * r.snap.UnitPrice,
					PromotionCode:  r.line.PromotionCode,
					PromotionLabel: r.line.PromotionLabel,
					ScheduledFor:   r.line.ScheduledFor,
				})
			}
			if err := tx.Create(&orderLines).Error; err != nil {
				return err
			}

			res := tx.Where("cart_id = ?", crt.ID).Delete(&models.CartLine{})
			if res.Error != nil {
				return res.Error
			}
			// A concurrent checkout that committed first already took these
			// lines; this order must not stand.
			if res.RowsAffected < int64(len(lines)) {
				return errEmptyCart
			}

			return tx.Model(&crt).Update("updated_at", time.Now()).Error
		})
		if errors.Is(txErr, gorm.ErrDuplicatedKey) {
			// reference code collision, retry with a fresh one
			continue
		}
		break
	}
	if txErr != nil {
		var he *echo.HTTPError
		if errors.As(txErr, &he) {
			return he
		}
		if errors.Is(txErr, gorm.ErrDuplicatedKey) {
			return echo.NewHTTPError(http.StatusServiceUnavailable, "could not allocate an order reference, please retry")
		}
		return echo.NewHTTPError(http.StatusServiceUnavailable, txErr.Error())
	}

	h.publish(c, map[string]any{
		"type":          "order_created",
		"userID":        userID,
		"orderID":       order.ID,
		"referenceCode": order.ReferenceCode,
		"total":         order.TotalAmount,
	})

	instructions := payment.Resolve(method, payment.Status(order.PaymentStatus), order.TotalAmount, order.ReferenceCode)
	return c.JSON(http.StatusCreated, checkoutResponse{
		OrderID:             order.ID,
		ReferenceCode:       order.ReferenceCode,
		TotalAmount:         order.TotalAmount,
		PaymentMethod:       order.PaymentMethod,
		PaymentStatus:       order.PaymentStatus,
		Status:              order.Status,
		Items:               orderLines,
		PaymentInstructions: instructions,
	})
}
