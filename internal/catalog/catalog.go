package catalog

import (
	"errors"

	"gorm.io/gorm"

	"github.com/Pattarach/checkup_shop/internal/models"
)

var ErrPackageNotFound = errors.New("package not found")

// Snapshot is the live catalog view the commerce side is allowed to see.
// Orders copy these fields instead of referencing the package row, so later
// price edits never reach a placed order.
type Snapshot struct {
	ID           uint    `json:"id"`
	Title        string  `json:"title"`
	HospitalName string  `json:"hospital_name"`
	UnitPrice    float64 `json:"unit_price"`
}

// Resolve accepts any handle, including an open transaction, so checkout can
// read package state with the isolation of its own transaction.
func Resolve(db *gorm.DB, id uint) (Snapshot, error) {
	var p models.Package
	err := db.Where("id = ? AND status = ?", id, models.PackageStatusApproved).First(&p).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return Snapshot{}, ErrPackageNotFound
		}
		return Snapshot{}, err
	}
	return snapshotOf(p), nil
}

// ResolveAll returns snapshots keyed by package id; ids that no longer
// resolve are simply absent from the result.
func ResolveAll(db *gorm.DB, ids []uint) (map[uint]Snapshot, error) {
	out := make(map[uint]Snapshot, len(ids))
	if len(ids) == 0 {
		return out, nil
	}
	var pkgs []models.Package
	if err := db.Where("id IN ? AND status = ?", ids, models.PackageStatusApproved).Find(&pkgs).Error; err != nil {
		return nil, err
	}
	for _, p := range pkgs {
		out[p.ID] = snapshotOf(p)
	}
	return out, nil
}

func snapshotOf(p models.Package) Snapshot {
	return Snapshot{ID: p.ID, Title: p.Title, HospitalName: p.HospitalName, UnitPrice: p.Price}
}
