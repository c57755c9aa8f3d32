package admin

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/elastic/go-elasticsearch/v9"
	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"

	"github.com/Pattarach/checkup_shop/internal/cache"
	"github.com/Pattarach/checkup_shop/internal/logging"
	"github.com/Pattarach/checkup_shop/internal/middleware/auth"
	"github.com/Pattarach/checkup_shop/internal/models"
	"github.com/Pattarach/checkup_shop/internal/mykafka"
	"github.com/Pattarach/checkup_shop/internal/service/search"
)

const (
	bulkTimeout = 10 * time.Second
	maxBulkIDs  = 50
)

type AdminHandler struct {
	DB       *gorm.DB
	Producer *mykafka.Producer
	Cache    *redis.Client
	ES       *elasticsearch.Client
	Index    string
}

// BulkStatus flips the status of up to 50 packages and appends one approval
// and one audit row per package, all in one transaction. Cache and search
// index cleanup happens after commit and is allowed to fail.
func (h *AdminHandler) BulkStatus(c echo.Context) error {
	actorID, err := auth.UserID(c)
	if err != nil {
		return err
	}

	var req struct {
		Action     string `json:"action"`
		PackageIDs []uint `json:"package_ids"`
	}
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusUnprocessableEntity, "invalid payload")
	}

	var target string
	switch req.Action {
	case "approve":
		target = models.PackageStatusApproved
	case "archive":
		target = models.PackageStatusArchived
	default:
		return echo.NewHTTPError(http.StatusUnprocessableEntity, "action must be approve or archive")
	}
	if len(req.PackageIDs) < 1 || len(req.PackageIDs) > maxBulkIDs {
		return echo.NewHTTPError(http.StatusUnprocessableEntity, "package_ids must contain between 1 and 50 ids")
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), bulkTimeout)
	defer cancel()

	var affected []models.Package
	txErr := h.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("id IN ?", req.PackageIDs).Find(&affected).Error; err != nil {
			return err
		}
		if len(affected) == 0 {
			return echo.NewHTTPError(http.StatusUnprocessableEntity, "no matching packages")
		}

		now := time.Now()
		ids := make([]uint, 0, len(affected))
		for _, p := range affected {
			ids = append(ids, p.ID)
		}
		if err := tx.Model(&models.Package{}).Where("id IN ?", ids).
			Updates(map[string]interface{}{"status": target, "updated_at": now}).Error; err != nil {
			return err
		}

		batchID := uuid.NewString()
		approvals := make([]models.ApprovalLog, 0, len(affected))
		audits := make([]models.AuditEntry, 0, len(affected))
		for _, p := range affected {
			diff, _ := json.Marshal(map[string]any{
				"status": map[string]string{"from": p.Status, "to": target},
			})
			approvals = append(approvals, models.ApprovalLog{
				ActorID:   actorID,
				Action:    req.Action,
				PackageID: p.ID,
				Status:    target,
				CreatedAt: now,
			})
			audits = append(audits, models.AuditEntry{
				BatchID:    batchID,
				ActorID:    actorID,
				Action:     req.Action,
				EntityType: "package",
				EntityID:   p.ID,
				Diff:       string(diff),
				CreatedAt:  now,
			})
		}
		if err := tx.Create(&approvals).Error; err != nil {
			return err
		}
		return tx.Create(&audits).Error
	})
	if txErr != nil {
		var he *echo.HTTPError
		if errors.As(txErr, &he) {
			return he
		}
		return echo.NewHTTPError(http.StatusServiceUnavailable, txErr.Error())
	}

	h.invalidate(c, affected, target)
	h.publish(c, map[string]any{
		"type":   "packages_bulk_status",
		"userID": actorID,
		"action": req.Action,
		"count":  len(affected),
	})

	return c.JSON(http.StatusOK, map[string]any{
		"updated": len(affected),
		"status":  target,
	})
}

// invalidate is best-effort by contract: the transition already committed,
// failures here are logged and swallowed.
func (h *AdminHandler) invalidate(c echo.Context, pkgs []models.Package, target string) {
	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()
	log := logging.FromContext(ctx)

	if h.Cache != nil {
		ids := make([]uint, 0, len(pkgs))
		for _, p := range pkgs {
			ids = append(ids, p.ID)
		}
		if err := cache.InvalidatePackages(ctx, h.Cache, ids); err != nil {
			log.Error("cache invalidation failed", "error", err)
		}
	}

	if h.ES != nil {
		for _, p := range pkgs {
			p.Status = target
			var err error
			if target == models.PackageStatusApproved {
				err = search.IndexPackage(ctx, h.ES, h.Index, p)
			} else {
				err = search.RemovePackage(ctx, h.ES, h.Index, p.ID)
			}
			if err != nil {
				log.Error("search index update failed", "package_id", p.ID, "error", err)
			}
		}
	}
}

func (h *AdminHandler) publish(c echo.Context, event map[string]any) {
	if h.Producer == nil {
		return
	}
	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()
	if err := h.Producer.PublishEvent(ctx, "catalog_events", fmt.Sprint(event["userID"]), event); err != nil {
		c.Logger().Errorf("kafka publish error: %v", err)
	}
}
