package models

import (
	"time"

	"github.com/shopspring/decimal"
)

type OrderStatus string

const (
	OrderStatusNew       OrderStatus = "NEW"
	OrderStatusPaid      OrderStatus = "PAID"
	OrderStatusCancelled OrderStatus = "CANCELLED"
)

type PaymentStatus string

const (
	PaymentStatusPending  PaymentStatus = "PENDING"
	PaymentStatusApproved PaymentStatus = "APPROVED"
)

type PaymentMethod string

const (
	PaymentMethodCash PaymentMethod = "CASH"
	PaymentMethodCard PaymentMethod = "CARD"
)

func (m PaymentMethod) Valid() bool {
	return m == PaymentMethodCash || m == PaymentMethodCard
}

type Role string

const (
	RoleUser  Role = "ROLE_USER"
	RoleAdmin Role = "ROLE_ADMIN"
)

func (r Role) Valid() bool {
	return r == RoleUser || r == RoleAdmin
}

type Category struct {
	ID          uint   `gorm:"primaryKey;autoIncrement"          json:"id"`
	Name        string `gorm:"size:50;uniqueIndex;not null"      json:"name"`
	Description string `gorm:"size:255"                          json:"description"`
}

type Product struct {
	ID          uint            `gorm:"primaryKey;autoIncrement"       json:"id"`
	CategoryID  uint            `gorm:"index;not null"                 json:"category_id"`
	Name        string          `gorm:"size:100;not null"              json:"name"`
	Description string          `gorm:"size:255"                       json:"description"`
	Price       decimal.Decimal `gorm:"type:numeric(19,2);not null"    json:"price"`
	Quantity    int             `gorm:"not null;default:0"             json:"quantity"`
}

type Order struct {
	ID          uint            `gorm:"primaryKey;autoIncrement"       json:"id"`
	UserID      uint            `gorm:"index;not null"                 json:"user_id"`
	Status      OrderStatus     `gorm:"size:16;not null"               json:"status"`
	TotalAmount decimal.Decimal `gorm:"type:numeric(19,2);not null"    json:"total_amount"`
	PaidAt      *time.Time      `json:"paid_at"`
	CancelledAt *time.Time      `json:"cancelled_at"`
	CreatedAt   time.Time       `json:"created_at"`
	UpdatedAt   time.Time       `json:"updated_at"`
}

type OrderItem struct {
	ID         uint            `gorm:"primaryKey;autoIncrement"       json:"id"`
	OrderID    uint            `gorm:"index;not null"                 json:"order_id"`
	ProductID  uint            `gorm:"index;not null"                 json:"product_id"`
	Quantity   int             `gorm:"not null"                       json:"quantity"`
	UnitPrice  decimal.Decimal `gorm:"type:numeric(19,2);not null"    json:"unit_price"`
	TotalPrice decimal.Decimal `gorm:"type:numeric(19,2);not null"    json:"total_price"`
}

type Payment struct {
	ID            uint            `gorm:"primaryKey;autoIncrement"       json:"id"`
	OrderID       uint            `gorm:"uniqueIndex;not null"           json:"order_id"`
	PaymentMethod PaymentMethod   `gorm:"size:16;not null"               json:"payment_method"`
	PaymentStatus PaymentStatus   `gorm:"size:16;not null"               json:"payment_status"`
	Amount        decimal.Decimal `gorm:"type:numeric(19,2);not null"    json:"amount"`
	TransactionID string          `gorm:"size:64;uniqueIndex;not null"   json:"transaction_id"`
	CreatedAt     time.Time       `json:"created_at"`
	UpdatedAt     time.Time       `json:"updated_at"`
}

type User struct {
	ID           uint      `gorm:"primaryKey;autoIncrement"  json:"id"`
	Username     string    `gorm:"size:30;uniqueIndex;not null" json:"username"`
	PasswordHash string    `gorm:"not null"                  json:"-"`
	Email        string    `gorm:"size:255;uniqueIndex;not null" json:"email"`
	Phone        string    `gorm:"size:15;uniqueIndex;not null" json:"phone"`
	Bio          string    `gorm:"size:500"                  json:"bio"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// UserRole is a row of the user/role join table.
type UserRole struct {
	UserID uint `gorm:"primaryKey"          json:"user_id"`
	Role   Role `gorm:"primaryKey;size:32"  json:"role"`
}

func (UserRole) TableName() string { return "user_roles" }

type RefreshToken struct {
	ID        uint      `gorm:"primaryKey"                  json:"id"`
	UserID    uint      `gorm:"index;not null"              json:"user_id"`
	TokenHash string    `gorm:"size:64;uniqueIndex;not null" json:"-"`
	JTI       string    `gorm:"size:64;uniqueIndex;not null" json:"jti"`
	ExpiresAt time.Time `gorm:"not null"                    json:"expires_at"`
	Revoked   bool      `gorm:"not null;default:false"      json:"revoked"`
	CreatedAt time.Time `json:"created_at"`
}

func (t RefreshToken) Usable(now time.Time) bool {
	return !t.Revoked && now.Before(t.ExpiresAt)
}
