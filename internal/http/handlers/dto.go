package handlers

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/rogerio-castellano/product-management/internal/models"
)

type ProductRequest struct {
	Name        string           `json:"name" example:"Widget"`
	Description string           `json:"description,omitempty" example:"A small widget"`
	Price       *decimal.Decimal `json:"price" swaggertype:"string" example:"9.99"`
}

// SearchRequest is the JSON form of the search criteria. Omitted fields impose no constraint.
type SearchRequest struct {
	Name          string           `json:"name,omitempty"`
	Description   string           `json:"description,omitempty"`
	MinPrice      *decimal.Decimal `json:"minPrice,omitempty" swaggertype:"string"`
	MaxPrice      *decimal.Decimal `json:"maxPrice,omitempty" swaggertype:"string"`
	CreatedAfter  *time.Time       `json:"createdAfter,omitempty"`
	CreatedBefore *time.Time       `json:"createdBefore,omitempty"`
	Page          *int             `json:"page,omitempty"`
	Size          *int             `json:"size,omitempty"`
	SortBy        string           `json:"sortBy,omitempty" example:"createdAt"`
	SortDirection string           `json:"sortDirection,omitempty" example:"DESC"`
}

type ProductPage = models.Page[models.ProductView]

type RegisterRequest struct {
	Username    string   `json:"username"`
	Email       string   `json:"email"`
	Password    string   `json:"password"`
	FirstName   string   `json:"firstName,omitempty"`
	LastName    string   `json:"lastName,omitempty"`
	PhoneNumber string   `json:"phoneNumber,omitempty"`
	Roles       []string `json:"roles,omitempty"`
}

type UpdateUserRequest struct {
	Username    *string  `json:"username,omitempty"`
	Email       *string  `json:"email,omitempty"`
	Password    *string  `json:"password,omitempty"`
	FirstName   *string  `json:"firstName,omitempty"`
	LastName    *string  `json:"lastName,omitempty"`
	PhoneNumber *string  `json:"phoneNumber,omitempty"`
	Roles       []string `json:"roles,omitempty"`
}

// LoginRequest accepts either field name for the identifier.
type LoginRequest struct {
	Username        string `json:"username,omitempty"`
	UsernameOrEmail string `json:"usernameOrEmail,omitempty"`
	Password        string `json:"password"`
}

func (r LoginRequest) identifier() string {
	if r.UsernameOrEmail != "" {
		return r.UsernameOrEmail
	}
	return r.Username
}

type RefreshRequest struct {
	RefreshToken string `json:"refreshToken"`
}

type TokenResponse struct {
	Token        string `json:"token"`
	RefreshToken string `json:"refreshToken"`
	Username     string `json:"username"`
	Email        string `json:"email"`
}

type LoginResponse struct {
	Token        string      `json:"token"`
	RefreshToken string      `json:"refreshToken"`
	User         models.User `json:"user"`
}

type ImportRowError struct {
	Row     int    `json:"row"`
	Message string `json:"message"`
}

type ImportProductsResult struct {
	Imported int              `json:"imported"`
	Updated  int              `json:"updated"`
	Skipped  int              `json:"skipped"`
	Errors   []ImportRowError `json:"errors"`
}

type HealthResponse struct {
	Status string `json:"status" example:"ok"`
}
