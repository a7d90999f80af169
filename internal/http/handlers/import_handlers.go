package handlers

import (
	"encoding/csv"
	"fmt"
	"io"
	"net/http"
	"sort"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/rogerio-castellano/product-management/internal/apperr"
	"github.com/rogerio-castellano/product-management/internal/http/middleware"
	"github.com/rogerio-castellano/product-management/internal/service"
)

const maxImportBytes = 10 << 20

type csvRow struct {
	line  int
	input service.ProductInput
	err   error
}

// parseCSV reads a name,description,price file. Columns are matched by header and the
// description column is optional. Row-level problems are kept on the row.
func parseCSV(r io.Reader) ([]csvRow, error) {
	reader := csv.NewReader(r)
	reader.TrimLeadingSpace = true
	reader.FieldsPerRecord = -1

	headers, err := reader.Read()
	if err != nil {
		return nil, apperr.Validation(map[string]string{"file": "invalid CSV header"})
	}

	index := map[string]int{}
	for i, h := range headers {
		index[strings.ToLower(strings.TrimSpace(h))] = i
	}
	for _, required := range []string{"name", "price"} {
		if _, ok := index[required]; !ok {
			return nil, apperr.Validation(map[string]string{"file": fmt.Sprintf("missing %q column", required)})
		}
	}

	field := func(record []string, name string) string {
		i, ok := index[name]
		if !ok || i >= len(record) {
			return ""
		}
		return strings.TrimSpace(record[i])
	}

	var rows []csvRow
	for line := 2; ; line++ { // header is line 1
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, apperr.Validation(map[string]string{"file": fmt.Sprintf("CSV read error: %v", err)})
		}

		row := csvRow{line: line, input: service.ProductInput{
			Name:        field(record, "name"),
			Description: field(record, "description"),
		}}
		if raw := field(record, "price"); raw != "" {
			price, err := decimal.NewFromString(raw)
			if err != nil {
				row.err = fmt.Errorf("invalid price %q", raw)
			} else {
				row.input.Price = &price
			}
		}
		rows = append(rows, row)
	}
	return rows, nil
}

// rowMessage flattens a service error into one line for the import report.
func rowMessage(err error) string {
	var appErr *apperr.Error
	if !apperr.As(err, &appErr) {
		return "internal error"
	}
	if len(appErr.Fields) == 0 {
		return appErr.Msg
	}
	keys := make([]string, 0, len(appErr.Fields))
	for k := range appErr.Fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	parts := make([]string, len(keys))
	for i, k := range keys {
		parts[i] = appErr.Fields[k]
	}
	return strings.Join(parts, "; ")
}

// ImportProducts godoc
// @Summary Import products via CSV
// @Description Columns: name, description, price. Existing names are skipped, or updated with mode=update.
// @Tags products
// @Accept multipart/form-data
// @Produce json
// @Security BearerAuth
// @Param file formData file true "CSV file"
// @Param mode query string false "Import mode (skip|update)" default(skip)
// @Success 200 {object} ImportProductsResult
// @Failure 400 {object} respond.ErrorResponse
// @Failure 401 {object} respond.ErrorResponse
// @Router /api/products/import [post]
func (a *ProductAPI) ImportProducts(w http.ResponseWriter, r *http.Request) {
	mode := strings.ToLower(r.URL.Query().Get("mode"))
	if mode != "update" {
		mode = "skip"
	}

	r.Body = http.MaxBytesReader(w, r.Body, maxImportBytes)
	file, _, err := r.FormFile("file")
	if err != nil {
		writeError(w, r, apperr.Validation(map[string]string{"file": "missing file"}))
		return
	}
	defer file.Close()

	rows, err := parseCSV(file)
	if err != nil {
		writeError(w, r, err)
		return
	}

	ctx := r.Context()
	caller := middleware.Caller(r)
	result := ImportProductsResult{Errors: []ImportRowError{}}
	fail := func(line int, msg string) {
		result.Errors = append(result.Errors, ImportRowError{Row: line, Message: msg})
	}

	for _, row := range rows {
		if row.err != nil {
			fail(row.line, row.err.Error())
			continue
		}

		existing, found, err := a.Products.FindByName(ctx, row.input.Name)
		if err != nil {
			writeError(w, r, err)
			return
		}

		if found {
			if mode == "skip" {
				result.Skipped++
				continue
			}
			if _, err := a.Products.Update(ctx, caller, existing.ID, row.input); err != nil {
				if apperr.Is(err, apperr.KindUnauthorized) || apperr.Is(err, apperr.KindForbidden) {
					writeError(w, r, err)
					return
				}
				fail(row.line, rowMessage(err))
				continue
			}
			result.Updated++
			continue
		}

		if _, err := a.Products.Create(ctx, caller, row.input); err != nil {
			if apperr.Is(err, apperr.KindUnauthorized) || apperr.Is(err, apperr.KindForbidden) {
				writeError(w, r, err)
				return
			}
			fail(row.line, rowMessage(err))
			continue
		}
		result.Imported++
	}

	writeJSON(w, http.StatusOK, result)
}
