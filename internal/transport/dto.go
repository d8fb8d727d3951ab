package transport

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/Skotchmaster/sale/internal/models"
)

type CategoryRequest struct {
	Name        string `json:"name"`
	Description string `json:"description"`
}

type CreateProductRequest struct {
	Name        string          `json:"name"`
	Description string          `json:"description"`
	CategoryID  uint            `json:"categoryId"`
	Price       decimal.Decimal `json:"price"`
	Quantity    int             `json:"quantity"`
}

// PatchProductRequest only touches the fields that are present.
type PatchProductRequest struct {
	Name        *string          `json:"name"`
	Description *string          `json:"description"`
	CategoryID  *uint            `json:"categoryId"`
	Price       *decimal.Decimal `json:"price"`
	Quantity    *int             `json:"quantity"`
}

type ProductCriteria struct {
	Name         string
	Description  string
	Category     string
	PriceFrom    *decimal.Decimal
	PriceTo      *decimal.Decimal
	QuantityFrom *int
	QuantityTo   *int
}

type OrderRequest struct {
	ProductIDs []uint `json:"productIds"`
	Quantities []int  `json:"quantities"`
}

type PayRequest struct {
	Amount        decimal.Decimal       `json:"amount"`
	PaymentMethod *models.PaymentMethod `json:"paymentMethod"`
}

type RegisterRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
	Email    string `json:"email"`
	Phone    string `json:"phone"`
}

type LoginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type RefreshRequest struct {
	RefreshToken string `json:"refreshToken"`
}

type ChangePasswordRequest struct {
	CurrentPassword string `json:"currentPassword"`
	NewPassword     string `json:"newPassword"`
}

type UpdateUserRequest struct {
	Email *string `json:"email"`
	Phone *string `json:"phone"`
	Bio   *string `json:"bio"`
}

type UserCriteria struct {
	Username string
	Email    string
	Phone    string
	Role     string
}

type CategoryDto struct {
	ID          uint   `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description"`
}

type ProductDto struct {
	ID           uint            `json:"id"`
	Name         string          `json:"name"`
	CategoryID   uint            `json:"categoryId"`
	CategoryName string          `json:"categoryName"`
	Description  string          `json:"description"`
	Price        decimal.Decimal `json:"price"`
	Quantity     int             `json:"quantity"`
}

type OrderItemDto struct {
	ID         uint            `json:"id"`
	ProductID  uint            `json:"productId"`
	Quantity   int             `json:"quantity"`
	UnitPrice  decimal.Decimal `json:"unitPrice"`
	TotalPrice decimal.Decimal `json:"totalPrice"`
}

type OrderDto struct {
	ID          uint               `json:"id"`
	UserID      uint               `json:"userId"`
	Status      models.OrderStatus `json:"status"`
	TotalAmount decimal.Decimal    `json:"totalAmount"`
	PaidAt      *time.Time         `json:"paidAt"`
	CancelledAt *time.Time         `json:"cancelledAt"`
	CreatedAt   time.Time          `json:"createdAt"`
	OrderItems  []OrderItemDto     `json:"orderItems"`
}

type PaymentDto struct {
	ID            uint                 `json:"id"`
	OrderID       uint                 `json:"orderId"`
	PaymentMethod models.PaymentMethod `json:"paymentMethod"`
	PaymentStatus models.PaymentStatus `json:"paymentStatus"`
	Amount        decimal.Decimal      `json:"amount"`
	TransactionID string               `json:"transactionId"`
}

type UserDto struct {
	ID       uint          `json:"id"`
	Username string        `json:"username"`
	Email    string        `json:"email"`
	Phone    string        `json:"phone"`
	Bio      string        `json:"bio"`
	Roles    []models.Role `json:"roles"`
}

type AuthDto struct {
	AccessToken      string    `json:"accessToken"`
	RefreshToken     string    `json:"refreshToken"`
	AccessExpiresAt  time.Time `json:"accessExpiresAt"`
	RefreshExpiresAt time.Time `json:"refreshExpiresAt"`
}
