package service

import (
	"regexp"
	"strings"
	"unicode/utf8"

	"github.com/shopspring/decimal"

	"github.com/Skotchmaster/sale/internal/apperr"
	"github.com/Skotchmaster/sale/internal/transport"
)

var (
	emailRe = regexp.MustCompile(`^[^@\s]+@[^@\s]+\.[^@\s]+$`)
	phoneRe = regexp.MustCompile(`^[0-9]{10,15}$`)

	minAmount = decimal.New(1, -2)
)

func length(s string) int { return utf8.RuneCountInString(s) }

func validatePrice(api string, price decimal.Decimal) error {
	if price.IsNegative() {
		return apperr.Validation(api, "Price must be greater than or equal to 0")
	}
	return nil
}

func validateQuantity(api string, qty int) error {
	if qty <= 0 {
		return apperr.Validation(api, "Quantity must be positive")
	}
	return nil
}

func validateCategory(api, name, description string) error {
	if n := length(strings.TrimSpace(name)); n < 2 || n > 50 {
		return apperr.Validation(api, "Category name must be between 2 and 50 characters")
	}
	if length(description) > 255 {
		return apperr.Validation(api, "Category description must be at most 255 characters")
	}
	return nil
}

func validateProductName(api, name string) error {
	if strings.TrimSpace(name) == "" {
		return apperr.Validation(api, "Product name is required")
	}
	if length(name) > 100 {
		return apperr.Validation(api, "Product name must be at most 100 characters")
	}
	return nil
}

func validateProductDescription(api, description string) error {
	if length(description) > 255 {
		return apperr.Validation(api, "Product description must be at most 255 characters")
	}
	return nil
}

func validateEmail(api, email string) error {
	if !emailRe.MatchString(email) {
		return apperr.Validation(api, "Email is not valid")
	}
	return nil
}

func validatePhone(api, phone string) error {
	if !phoneRe.MatchString(phone) {
		return apperr.Validation(api, "Phone must contain 10 to 15 digits")
	}
	return nil
}

func validateRegister(req transport.RegisterRequest) error {
	if n := length(req.Username); n < 3 || n > 30 {
		return apperr.Validation(APIAuth, "Username must be between 3 and 30 characters")
	}
	if n := length(req.Password); n < 6 || n > 100 {
		return apperr.Validation(APIAuth, "Password must be between 6 and 100 characters")
	}
	if err := validateEmail(APIAuth, req.Email); err != nil {
		return err
	}
	return validatePhone(APIAuth, req.Phone)
}

func validateNewPassword(pw string) error {
	if length(pw) < 8 {
		return apperr.Validation(APIAuth, "New password must be at least 8 characters")
	}
	if length(pw) > 100 {
		return apperr.Validation(APIAuth, "New password must be at most 100 characters")
	}
	return nil
}

func validateCriteria(c transport.ProductCriteria) error {
	for _, p := range []*decimal.Decimal{c.PriceFrom, c.PriceTo} {
		if p != nil && p.IsNegative() {
			return apperr.Validation(APIProducts, "Price bounds must be greater than or equal to 0")
		}
	}
	for _, q := range []*int{c.QuantityFrom, c.QuantityTo} {
		if q != nil && *q < 0 {
			return apperr.Validation(APIProducts, "Quantity bounds must be greater than or equal to 0")
		}
	}
	if c.PriceFrom != nil && c.PriceTo != nil && c.PriceFrom.GreaterThan(*c.PriceTo) {
		return apperr.Validation(APIProducts, "priceFrom must be less than or equal to priceTo")
	}
	if c.QuantityFrom != nil && c.QuantityTo != nil && *c.QuantityFrom > *c.QuantityTo {
		return apperr.Validation(APIProducts, "quantityFrom must be less than or equal to quantityTo")
	}
	return nil
}

func validateAmount(amount decimal.Decimal) error {
	if amount.LessThan(minAmount) {
		return apperr.Validation(APIPayments, "Amount must be at least 0.01")
	}
	return nil
}
