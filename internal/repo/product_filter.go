package repo

import (
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/rogerio-castellano/product-management/internal/apperr"
)

const (
	DefaultPageSize      = 10
	DefaultSortBy        = "createdAt"
	DefaultSortDirection = "DESC"
	MaxPageSize          = 1000
)

// ProductFilter holds the search criteria for products. Empty strings and nil pointers
// impose no constraint.
type ProductFilter struct {
	Name          string
	Description   string
	MinPrice      *decimal.Decimal
	MaxPrice      *decimal.Decimal
	CreatedAfter  *time.Time
	CreatedBefore *time.Time

	Page          int
	Size          int
	SortBy        string
	SortDirection string
}

// NewProductFilter returns a filter with the default page window and ordering.
func NewProductFilter() ProductFilter {
	return ProductFilter{
		Size:          DefaultPageSize,
		SortBy:        DefaultSortBy,
		SortDirection: DefaultSortDirection,
	}
}

// sortColumns maps the accepted sort keys to ORDER BY expressions.
var sortColumns = map[string]string{
	"id":          "id",
	"name":        "LOWER(name)",
	"description": "LOWER(description)",
	"price":       "price",
	"createdAt":   "created_at",
	"created_at":  "created_at",
	"updatedAt":   "updated_at",
	"updated_at":  "updated_at",
}

// Offset is the index of the first row of the page. Validate guarantees it does not overflow.
func (f ProductFilter) Offset() int {
	return f.Page * f.Size
}

// Validate checks the page window first, then the ordering.
func (f ProductFilter) Validate() error {
	errs := map[string]string{}
	if f.Page < 0 {
		errs["page"] = "Page number must be greater than or equal to 0"
	}
	switch {
	case f.Size < 1:
		errs["size"] = "Page size must be greater than 0"
	case f.Size > MaxPageSize:
		errs["size"] = fmt.Sprintf("Page size must not exceed %d", MaxPageSize)
	case f.Page > math.MaxInt/f.Size:
		errs["page"] = "Page number is out of range"
	}
	if len(errs) > 0 {
		return apperr.Validation(errs)
	}

	if _, err := f.sortColumn(); err != nil {
		return err
	}
	if _, err := f.descending(); err != nil {
		return err
	}
	return nil
}

func (f ProductFilter) sortColumn() (string, error) {
	key := strings.TrimSpace(f.SortBy)
	if key == "" {
		key = DefaultSortBy
	}
	col, ok := sortColumns[key]
	if !ok {
		return "", apperr.Query(fmt.Sprintf("cannot sort products by %q", f.SortBy), ErrInvalidSortField)
	}
	return col, nil
}

func (f ProductFilter) descending() (bool, error) {
	switch strings.ToUpper(strings.TrimSpace(f.SortDirection)) {
	case "", "DESC":
		return true, nil
	case "ASC":
		return false, nil
	default:
		return false, apperr.Query(fmt.Sprintf("invalid sort direction %q, expected ASC or DESC", f.SortDirection), nil)
	}
}

// orderClause orders by the requested column with id as the tie-breaker. Text columns
// compare lowercased in byte order so every store returns the same sequence.
func (f ProductFilter) orderClause() (string, error) {
	col, err := f.sortColumn()
	if err != nil {
		return "", err
	}
	desc, err := f.descending()
	if err != nil {
		return "", err
	}
	dir := "ASC"
	if desc {
		dir = "DESC"
	}
	if col == "id" {
		return " ORDER BY id " + dir, nil
	}
	if strings.HasPrefix(col, "LOWER(") {
		col += ` COLLATE "C"`
	}
	return fmt.Sprintf(" ORDER BY %s %s, id ASC", col, dir), nil
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

// containsPattern builds an unanchored LIKE pattern that matches value literally.
func containsPattern(value string) string {
	return "%" + likeEscaper.Replace(value) + "%"
}
