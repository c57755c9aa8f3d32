package admin

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/glebarez/sqlite"
	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/Pattarach/checkup_shop/internal/models"
)

type testEnv struct {
	T  *testing.T
	E  *echo.Echo
	H  *AdminHandler
	DB *gorm.DB
}

func newTestEnv(t *testing.T) *testEnv {
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{TranslateError: true})
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	sqlDB.SetMaxIdleConns(1)

	require.NoError(t, db.AutoMigrate(
		&models.Package{},
		&models.ApprovalLog{},
		&models.AuditEntry{},
	))

	return &testEnv{T: t, E: echo.New(), H: &AdminHandler{DB: db}, DB: db}
}

func (env *testEnv) seedPackage(title, status string) models.Package {
	p := models.Package{
		Title:        title,
		HospitalName: "Bangkok General",
		Price:        1500,
		Status:       status,
	}
	require.NoError(env.T, env.DB.Create(&p).Error)
	return p
}

func (env *testEnv) doBulk(action string, ids []uint, actorID uint) (*httptest.ResponseRecorder, error) {
	body := map[string]any{"action": action, "package_ids": ids}
	var buf bytes.Buffer
	require.NoError(env.T, json.NewEncoder(&buf).Encode(body))

	req := httptest.NewRequest(http.MethodPost, "/api/v1/admin/packages/bulk-status", &buf)
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()
	c := env.E.NewContext(req, rec)
	c.Set("userID", actorID)
	c.Set("role", "admin")
	return rec, env.H.BulkStatus(c)
}

func requireHTTPError(t *testing.T, err error, code int) {
	t.Helper()
	var he *echo.HTTPError
	require.ErrorAs(t, err, &he)
	require.Equal(t, code, he.Code)
}

func TestBulkArchive(t *testing.T) {
	env := newTestEnv(t)
	a := env.seedPackage("Checkup A", models.PackageStatusApproved)
	b := env.seedPackage("Checkup B", models.PackageStatusApproved)

	rec, err := env.doBulk("archive", []uint{a.ID, b.ID}, 42)
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, rec.Code)

	var resp struct {
		Updated int    `json:"updated"`
		Status  string `json:"status"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.Equal(t, 2, resp.Updated)
	require.Equal(t, models.PackageStatusArchived, resp.Status)

	var pkgs []models.Package
	require.NoError(t, env.DB.Find(&pkgs).Error)
	for _, p := range pkgs {
		require.Equal(t, models.PackageStatusArchived, p.Status)
	}

	var approvals []models.ApprovalLog
	require.NoError(t, env.DB.Find(&approvals).Error)
	require.Len(t, approvals, 2)
	require.Equal(t, uint(42), approvals[0].ActorID)
	require.Equal(t, "archive", approvals[0].Action)

	var audits []models.AuditEntry
	require.NoError(t, env.DB.Find(&audits).Error)
	require.Len(t, audits, 2)
	require.Equal(t, audits[0].BatchID, audits[1].BatchID, "one batch id for the whole call")
	require.Contains(t, audits[0].Diff, `"from":"approved"`)
	require.Contains(t, audits[0].Diff, `"to":"archived"`)
}

func TestBulkApprove(t *testing.T) {
	env := newTestEnv(t)
	p := env.seedPackage("Checkup A", models.PackageStatusPending)

	rec, err := env.doBulk("approve", []uint{p.ID}, 42)
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, rec.Code)

	var got models.Package
	require.NoError(t, env.DB.First(&got, p.ID).Error)
	require.Equal(t, models.PackageStatusApproved, got.Status)
}

func TestBulkIgnoresUnknownIDs(t *testing.T) {
	env := newTestEnv(t)
	p := env.seedPackage("Checkup A", models.PackageStatusPending)

	rec, err := env.doBulk("approve", []uint{p.ID, 999}, 42)
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, rec.Code)

	var resp struct {
		Updated int `json:"updated"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.Equal(t, 1, resp.Updated)
}

func TestBulkValidation(t *testing.T) {
	env := newTestEnv(t)
	p := env.seedPackage("Checkup A", models.PackageStatusPending)

	_, err := env.doBulk("delete", []uint{p.ID}, 42)
	requireHTTPError(t, err, http.StatusUnprocessableEntity)

	_, err = env.doBulk("approve", nil, 42)
	requireHTTPError(t, err, http.StatusUnprocessableEntity)

	tooMany := make([]uint, maxBulkIDs+1)
	for i := range tooMany {
		tooMany[i] = uint(i + 1)
	}
	_, err = env.doBulk("approve", tooMany, 42)
	requireHTTPError(t, err, http.StatusUnprocessableEntity)

	_, err = env.doBulk("approve", []uint{888, 999}, 42)
	requireHTTPError(t, err, http.StatusUnprocessableEntity)

	// nothing was written along the way
	var approvals, audits int64
	env.DB.Model(&models.ApprovalLog{}).Count(&approvals)
	env.DB.Model(&models.AuditEntry{}).Count(&audits)
	require.Zero(t, approvals)
	require.Zero(t, audits)
}
