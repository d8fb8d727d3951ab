package transport

import "github.com/Skotchmaster/sale/internal/models"

func CategoryFromModel(c models.Category) CategoryDto {
	return CategoryDto{ID: c.ID, Name: c.Name, Description: c.Description}
}

func ProductFromModel(p models.Product, categoryName string) ProductDto {
	return ProductDto{
		ID:           p.ID,
		Name:         p.Name,
		CategoryID:   p.CategoryID,
		CategoryName: categoryName,
		Description:  p.Description,
		Price:        p.Price,
		Quantity:     p.Quantity,
	}
}

func OrderFromModel(o models.Order, items []models.OrderItem) OrderDto {
	dto := OrderDto{
		ID:          o.ID,
		UserID:      o.UserID,
		Status:      o.Status,
		TotalAmount: o.TotalAmount,
		PaidAt:      o.PaidAt,
		CancelledAt: o.CancelledAt,
		CreatedAt:   o.CreatedAt,
		OrderItems:  make([]OrderItemDto, 0, len(items)),
	}
	for _, it := range items {
		dto.OrderItems = append(dto.OrderItems, OrderItemDto{
			ID:         it.ID,
			ProductID:  it.ProductID,
			Quantity:   it.Quantity,
			UnitPrice:  it.UnitPrice,
			TotalPrice: it.TotalPrice,
		})
	}
	return dto
}

func PaymentFromModel(p models.Payment) PaymentDto {
	return PaymentDto{
		ID:            p.ID,
		OrderID:       p.OrderID,
		PaymentMethod: p.PaymentMethod,
		PaymentStatus: p.PaymentStatus,
		Amount:        p.Amount,
		TransactionID: p.TransactionID,
	}
}

func UserFromModel(u models.User, roles []models.Role) UserDto {
	if roles == nil {
		roles = []models.Role{}
	}
	return UserDto{
		ID:       u.ID,
		Username: u.Username,
		Email:    u.Email,
		Phone:    u.Phone,
		Bio:      u.Bio,
		Roles:    roles,
	}
}
