package cart

import (
	"net/http"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/Pattarach/checkup_shop/internal/models"
)

func (env *testEnv) addLine(userID, packageID, quantity uint, scheduled bool) {
	body := map[string]any{
		"package_id": packageID,
		"quantity":   quantity,
	}
	if scheduled {
		body["scheduled_for"] = time.Date(2025, 6, 15, 8, 30, 0, 0, time.UTC).Format(time.RFC3339)
	}
	_, c := env.doJSONRequest(http.MethodPost, "/api/v1/cart", body, userID)
	require.NoError(env.T, env.H.AddToCart(c))
}

func checkoutBody(method string) map[string]any {
	return map[string]any{
		"full_name":      "Somsri T.",
		"email":          "somsri@example.com",
		"phone":          "0812345678",
		"payment_method": method,
	}
}

func TestCheckoutCreatesOrderAndEmptiesCart(t *testing.T) {
	env := newTestEnv(t)
	pkg := env.seedPackage("Premium Checkup", 1990)
	env.addLine(1, pkg.ID, 2, true)

	rec, c := env.doJSONRequest(http.MethodPost, "/api/v1/cart/checkout", checkoutBody("promptpay"), 1)
	require.NoError(t, env.H.Checkout(c))
	require.Equal(t, http.StatusCreated, rec.Code)

	var order models.Order
	require.NoError(t, env.DB.First(&order).Error)
	require.Equal(t, float64(3980), order.TotalAmount)
	require.Equal(t, "promptpay", order.PaymentMethod)
	require.Equal(t, "pending", order.PaymentStatus)
	require.Equal(t, models.OrderStatusNew, order.Status)
	require.True(t, strings.HasPrefix(order.ReferenceCode, "CHK-"))

	var orderLines []models.OrderLine
	require.NoError(t, env.DB.Find(&orderLines).Error)
	require.Len(t, orderLines, 1)
	require.Equal(t, "Premium Checkup", orderLines[0].PackageTitle)
	require.Equal(t, float64(1990), orderLines[0].UnitPrice)
	require.Equal(t, uint(2), orderLines[0].Quantity)
	require.Equal(t, float64(3980), orderLines[0].Subtotal)

	var remaining int64
	env.DB.Model(&models.CartLine{}).Count(&remaining)
	require.Zero(t, remaining, "checkout empties the cart")
}

func TestCheckoutEmptyCart(t *testing.T) {
	env := newTestEnv(t)

	_, c := env.doJSONRequest(http.MethodPost, "/api/v1/cart/checkout", checkoutBody("promptpay"), 1)
	requireHTTPError(t, env.H.Checkout(c), http.StatusUnprocessableEntity)
}

func TestCheckoutRequiresScheduleOnEveryLine(t *testing.T) {
	env := newTestEnv(t)
	pkg := env.seedPackage("Premium Checkup", 1990)
	env.addLine(1, pkg.ID, 1, false)

	_, c := env.doJSONRequest(http.MethodPost, "/api/v1/cart/checkout", checkoutBody("promptpay"), 1)
	requireHTTPError(t, env.H.Checkout(c), http.StatusUnprocessableEntity)

	// the failed checkout must not touch the cart
	var lines, orders int64
	env.DB.Model(&models.CartLine{}).Count(&lines)
	env.DB.Model(&models.Order{}).Count(&orders)
	require.Equal(t, int64(1), lines)
	require.Zero(t, orders)
}

func TestCheckoutValidatesContact(t *testing.T) {
	env := newTestEnv(t)
	pkg := env.seedPackage("Premium Checkup", 1990)
	env.addLine(1, pkg.ID, 1, true)

	body := checkoutBody("promptpay")
	body["email"] = "not-an-address"
	_, c := env.doJSONRequest(http.MethodPost, "/api/v1/cart/checkout", body, 1)
	requireHTTPError(t, env.H.Checkout(c), http.StatusUnprocessableEntity)

	body = checkoutBody("promptpay")
	body["full_name"] = ""
	_, c = env.doJSONRequest(http.MethodPost, "/api/v1/cart/checkout", body, 1)
	requireHTTPError(t, env.H.Checkout(c), http.StatusUnprocessableEntity)
}

func TestCheckoutCashAwaitsConfirmation(t *testing.T) {
	env := newTestEnv(t)
	pkg := env.seedPackage("Premium Checkup", 1990)
	env.addLine(1, pkg.ID, 1, true)

	rec, c := env.doJSONRequest(http.MethodPost, "/api/v1/cart/checkout", checkoutBody("cash"), 1)
	require.NoError(t, env.H.Checkout(c))
	require.Equal(t, http.StatusCreated, rec.Code)

	var order models.Order
	require.NoError(t, env.DB.First(&order).Error)
	require.Equal(t, "awaiting_confirmation", order.PaymentStatus)
}

func TestCheckoutDropsWithdrawnPackages(t *testing.T) {
	env := newTestEnv(t)
	keep := env.seedPackage("Premium Checkup", 1990)
	gone := env.seedPackage("Pulled Checkup", 900)
	env.addLine(1, keep.ID, 1, true)
	env.addLine(1, gone.ID, 1, true)

	require.NoError(t, env.DB.Model(&models.Package{}).
		Where("id = ?", gone.ID).
		Update("status", models.PackageStatusArchived).Error)

	rec, c := env.doJSONRequest(http.MethodPost, "/api/v1/cart/checkout", checkoutBody("promptpay"), 1)
	require.NoError(t, env.H.Checkout(c))
	require.Equal(t, http.StatusCreated, rec.Code)

	var order models.Order
	require.NoError(t, env.DB.First(&order).Error)
	require.Equal(t, float64(1990), order.TotalAmount)

	var orderLines []models.OrderLine
	require.NoError(t, env.DB.Find(&orderLines).Error)
	require.Len(t, orderLines, 1)
	require.Equal(t, keep.ID, orderLines[0].PackageID)
}

func TestConcurrentCheckoutProducesOneOrder(t *testing.T) {
	env := newTestEnv(t)
	pkg := env.seedPackage("Premium Checkup", 1990)
	env.addLine(1, pkg.ID, 2, true)

	errs := make([]error, 2)
	var wg sync.WaitGroup
	wg.Add(2)
	for i := 0; i < 2; i++ {
		go func(i int) {
			defer wg.Done()
			_, c := env.doJSONRequest(http.MethodPost, "/api/v1/cart/checkout", checkoutBody("promptpay"), 1)
			errs[i] = env.H.Checkout(c)
		}(i)
	}
	wg.Wait()

	var succeeded, failed int
	for _, err := range errs {
		if err == nil {
			succeeded++
		} else {
			requireHTTPError(t, err, http.StatusUnprocessableEntity)
			failed++
		}
	}
	require.Equal(t, 1, succeeded, "exactly one checkout wins")
	require.Equal(t, 1, failed)

	var orders int64
	env.DB.Model(&models.Order{}).Count(&orders)
	require.Equal(t, int64(1), orders)
}

func TestCheckoutUnknownMethodFallsBack(t *testing.T) {
	env := newTestEnv(t)
	pkg := env.seedPackage("Premium Checkup", 1990)
	env.addLine(1, pkg.ID, 1, true)

	rec, c := env.doJSONRequest(http.MethodPost, "/api/v1/cart/checkout", checkoutBody("crypto"), 1)
	require.NoError(t, env.H.Checkout(c))
	require.Equal(t, http.StatusCreated, rec.Code)

	var order models.Order
	require.NoError(t, env.DB.First(&order).Error)
	require.Equal(t, "bank_transfer", order.PaymentMethod)
	require.Equal(t, "awaiting_confirmation", order.PaymentStatus)
}
