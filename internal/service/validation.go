package service

import (
	"net/mail"
	"strings"
	"unicode/utf8"

	"github.com/shopspring/decimal"
)

const (
	maxNameLength        = 255
	maxDescriptionLength = 2000
	priceScale           = 4
	maxPriceDigits       = 15

	minUsernameLength = 3
	maxUsernameLength = 50
	minPasswordLength = 6
)

// ProductInput is the writable part of a product.
type ProductInput struct {
	Name        string
	Description string
	Price       *decimal.Decimal
}

func (in ProductInput) normalize() ProductInput {
	in.Name = strings.TrimSpace(in.Name)
	in.Description = strings.TrimSpace(in.Description)
	return in
}

func validateProduct(in ProductInput) map[string]string {
	errs := map[string]string{}

	switch {
	case in.Name == "":
		errs["name"] = "Name is required"
	case utf8.RuneCountInString(in.Name) > maxNameLength:
		errs["name"] = "Name must be at most 255 characters"
	}

	if utf8.RuneCountInString(in.Description) > maxDescriptionLength {
		errs["description"] = "Description must be at most 2000 characters"
	}

	switch {
	case in.Price == nil:
		errs["price"] = "Price is required"
	case !in.Price.IsPositive():
		errs["price"] = "Price must be greater than zero"
	case !in.Price.Equal(in.Price.Truncate(priceScale)):
		errs["price"] = "Price must have at most 4 decimal places"
	case integerDigits(*in.Price) > maxPriceDigits:
		errs["price"] = "Price is too large"
	}

	return errs
}

func integerDigits(d decimal.Decimal) int {
	return len(d.Truncate(0).Abs().String())
}

func validateUsername(errs map[string]string, username string) {
	n := utf8.RuneCountInString(username)
	switch {
	case username == "":
		errs["username"] = "Username is required"
	case n < minUsernameLength || n > maxUsernameLength:
		errs["username"] = "Username must be between 3 and 50 characters"
	}
}

func validateEmail(errs map[string]string, email string) {
	if email == "" {
		errs["email"] = "Email is required"
		return
	}
	addr, err := mail.ParseAddress(email)
	if err != nil || addr.Address != email {
		errs["email"] = "Email must be a valid address"
	}
}

func validatePassword(errs map[string]string, password string) {
	if utf8.RuneCountInString(password) < minPasswordLength {
		errs["password"] = "Password must be at least 6 characters"
	}
}
