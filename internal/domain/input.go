package domain

import (
	"strconv"
	"strings"

	"github.com/shopspring/decimal"
)

// MinPasswordLength is the shortest password the register form accepts.
const MinPasswordLength = 6

// ProductInput is the admin product form.
type ProductInput struct {
	Name        string
	Description string
	Price       decimal.Decimal
	Stock       int
	Category    string
	Image       string
}

// ParseProductInput builds a ProductInput from raw form values. Price and
// stock that do not parse are reported as validation errors.
func ParseProductInput(name, description, price, stock, category, image string) (ProductInput, error) {
	in := ProductInput{
		Name:        strings.TrimSpace(name),
		Description: strings.TrimSpace(description),
		Category:    strings.TrimSpace(category),
		Image:       strings.TrimSpace(image),
	}
	if strings.TrimSpace(price) == "" || strings.TrimSpace(stock) == "" {
		return in, NewValidationError("product", "Please fill in all required fields")
	}
	p, err := decimal.NewFromString(strings.TrimSpace(price))
	if err != nil {
		return in, NewValidationError("price", "Price must be a number")
	}
	s, err := strconv.Atoi(strings.TrimSpace(stock))
	if err != nil {
		return in, NewValidationError("stock", "Stock must be a whole number")
	}
	in.Price = p
	in.Stock = s
	return in, in.Validate()
}

// Validate checks required fields. A price must be positive; a stock of
// zero is allowed and marks the product out of stock.
func (in ProductInput) Validate() error {
	if in.Name == "" || in.Description == "" || in.Category == "" {
		return NewValidationError("product", "Please fill in all required fields")
	}
	if !in.Price.IsPositive() {
		return NewValidationError("price", "Price must be greater than zero")
	}
	if in.Stock < 0 {
		return NewValidationError("stock", "Stock cannot be negative")
	}
	return nil
}

// RegisterInput is the registration form.
type RegisterInput struct {
	Name     string
	Email    string
	Password string
	Role     Role
}

// Validate checks the registration form.
func (in RegisterInput) Validate() error {
	if strings.TrimSpace(in.Name) == "" || strings.TrimSpace(in.Email) == "" || strings.TrimSpace(in.Password) == "" {
		return NewValidationError("register", "Please fill in all fields")
	}
	if len(strings.TrimSpace(in.Password)) < MinPasswordLength {
		return NewValidationError("password", "Password must be at least 6 characters")
	}
	return nil
}

// ValidateLogin checks the login form.
func ValidateLogin(email, password string) error {
	if strings.TrimSpace(email) == "" || strings.TrimSpace(password) == "" {
		return NewValidationError("login", "Please fill in all fields")
	}
	return nil
}
