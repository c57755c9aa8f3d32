package models

import (
	"time"
)

const (
	PackageStatusPending  = "pending"
	PackageStatusApproved = "approved"
	PackageStatusArchived = "archived"
)

const OrderStatusNew = "new"

type Package struct {
	ID           uint      `gorm:"primaryKey;autoIncrement"       json:"id"`
	Title        string    `gorm:"not null"                       json:"title"`
	HospitalName string    `gorm:"not null"                       json:"hospital_name"`
	Description  string    `json:"description"`
	Price        float64   `gorm:"not null"                       json:"price"`
	Status       string    `gorm:"not null;default:pending;index" json:"status"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// Cart is the user's single mutable selection. The unique index on UserID is
// what enforces one-cart-per-user; application code never locks for it.
type Cart struct {
	ID        uint      `gorm:"primaryKey;autoIncrement" json:"id"`
	UserID    uint      `gorm:"uniqueIndex;not null"     json:"user_id"`
	UpdatedAt time.Time `json:"updated_at"`
}

type CartLine struct {
	ID             uint       `gorm:"primaryKey;autoIncrement"                         json:"id"`
	CartID         uint       `gorm:"not null;uniqueIndex:idx_cart_lines_cart_package" json:"cart_id"`
	PackageID      uint       `gorm:"not null;uniqueIndex:idx_cart_lines_cart_package" json:"package_id"`
	Quantity       uint       `gorm:"not null;default:1;check:quantity>0"              json:"quantity"`
	PromotionCode  string     `json:"promotion_code,omitempty"`
	PromotionLabel string     `json:"promotion_label,omitempty"`
	ScheduledFor   *time.Time `json:"scheduled_for,omitempty"`
	AddedAt        time.Time  `json:"added_at"`
}

type Order struct {
	ID            uint      `gorm:"primaryKey;autoIncrement" json:"id"`
	UserID        uint      `gorm:"index;not null"           json:"user_id"`
	ReferenceCode string    `gorm:"uniqueIndex;not null"     json:"reference_code"`
	FullName      string    `gorm:"not null"                 json:"full_name"`
	Email         string    `gorm:"not null"                 json:"email"`
	Phone         string    `json:"phone,omitempty"`
	Notes         string    `json:"notes,omitempty"`
	TotalAmount   float64   `gorm:"not null"                 json:"total_amount"`
	PaymentMethod string    `gorm:"not null"                 json:"payment_method"`
	PaymentStatus string    `gorm:"not null"                 json:"payment_status"`
	Status        string    `gorm:"not null"                 json:"status"`
	CreatedAt     time.Time `json:"created_at"`
}

// OrderLine freezes the cart line at checkout time so later catalog edits
// never change a placed order.
type OrderLine struct {
	ID             uint       `gorm:"primaryKey;autoIncrement" json:"id"`
	OrderID        uint       `gorm:"index;not null"           json:"order_id"`
	PackageID      uint       `gorm:"not null"                 json:"package_id"`
	PackageTitle   string     `gorm:"not null"                 json:"package_title"`
	HospitalName   string     `gorm:"not null"                 json:"hospital_name"`
	UnitPrice      float64    `gorm:"not null"                 json:"unit_price"`
	Quantity       uint       `gorm:"not null"                 json:"quantity"`
	Subtotal       float64    `gorm:"not null"                 json:"subtotal"`
	PromotionCode  string     `json:"promotion_code,omitempty"`
	PromotionLabel string     `json:"promotion_label,omitempty"`
	ScheduledFor   *time.Time `json:"scheduled_for,omitempty"`
}

// ApprovalLog and AuditEntry are append-only; nothing in the codebase
// updates or deletes rows of either table.
type ApprovalLog struct {
	ID        uint      `gorm:"primaryKey;autoIncrement" json:"id"`
	ActorID   uint      `gorm:"index;not null"           json:"actor_id"`
	Action    string    `gorm:"not null"                 json:"action"`
	PackageID uint      `gorm:"index;not null"           json:"package_id"`
	Status    string    `gorm:"not null"                 json:"status"`
	CreatedAt time.Time `json:"created_at"`
}

type AuditEntry struct {
	ID         uint      `gorm:"primaryKey;autoIncrement" json:"id"`
	BatchID    string    `gorm:"index;not null"           json:"batch_id"`
	ActorID    uint      `gorm:"index;not null"           json:"actor_id"`
	Action     string    `gorm:"not null"                 json:"action"`
	EntityType string    `gorm:"not null"                 json:"entity_type"`
	EntityID   uint      `gorm:"index;not null"           json:"entity_id"`
	Diff       string    `json:"diff"`
	CreatedAt  time.Time `json:"created_at"`
}
