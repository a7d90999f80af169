package handlers

import (
	"net/http"

	"github.com/rogerio-castellano/product-management/internal/http/middleware"
	"github.com/rogerio-castellano/product-management/internal/service"
)

func (req ProductRequest) input() service.ProductInput {
	return service.ProductInput{Name: req.Name, Description: req.Description, Price: req.Price}
}

// CreateProduct godoc
// @Summary Create a new product
// @Description Adds a product to the catalog. The caller is recorded as creator.
// @Tags products
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param product body ProductRequest true "Product to add"
// @Success 201 {object} models.ProductView
// @Failure 400 {object} respond.ErrorResponse
// @Failure 401 {object} respond.ErrorResponse
// @Failure 409 {object} respond.ErrorResponse
// @Router /api/products [post]
func (a *ProductAPI) CreateProduct(w http.ResponseWriter, r *http.Request) {
	var req ProductRequest
	if err := readJSON(w, r, &req); err != nil {
		writeError(w, r, err)
		return
	}

	created, err := a.Products.Create(r.Context(), middleware.Caller(r), req.input())
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, created)
}

// ListProducts godoc
// @Summary List products
// @Tags products
// @Produce json
// @Param search query string false "Name contains"
// @Param page query int false "Page number" default(0)
// @Param size query int false "Page size" default(10)
// @Param sort query string false "Sort as field,direction" example(name,asc)
// @Success 200 {object} ProductPage
// @Failure 400 {object} respond.ErrorResponse
// @Router /api/products [get]
func (a *ProductAPI) ListProducts(w http.ResponseWriter, r *http.Request) {
	search, page, size, sortBy, direction, err := listParams(r.URL.Query())
	if err != nil {
		writeError(w, r, err)
		return
	}

	result, err := a.Products.List(r.Context(), search, page, size, sortBy, direction)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

// GetProduct godoc
// @Summary Get product by ID
// @Tags products
// @Produce json
// @Param id path string true "Product ID" format(uuid)
// @Success 200 {object} models.ProductView
// @Failure 400 {object} respond.ErrorResponse
// @Failure 404 {object} respond.ErrorResponse
// @Router /api/products/{id} [get]
func (a *ProductAPI) GetProduct(w http.ResponseWriter, r *http.Request) {
	id, err := uuidParam(r, "id")
	if err != nil {
		writeError(w, r, err)
		return
	}

	product, err := a.Products.Get(r.Context(), id)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, product)
}

// UpdateProduct godoc
// @Summary Update a product
// @Tags products
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "Product ID" format(uuid)
// @Param product body ProductRequest true "Replacement values"
// @Success 200 {object} models.ProductView
// @Failure 400 {object} respond.ErrorResponse
// @Failure 404 {object} respond.ErrorResponse
// @Failure 409 {object} respond.ErrorResponse
// @Router /api/products/{id} [put]
func (a *ProductAPI) UpdateProduct(w http.ResponseWriter, r *http.Request) {
	id, err := uuidParam(r, "id")
	if err != nil {
		writeError(w, r, err)
		return
	}

	var req ProductRequest
	if err := readJSON(w, r, &req); err != nil {
		writeError(w, r, err)
		return
	}

	updated, err := a.Products.Update(r.Context(), middleware.Caller(r), id, req.input())
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, updated)
}

// DeleteProduct godoc
// @Summary Delete a product
// @Tags products
// @Security BearerAuth
// @Param id path string true "Product ID" format(uuid)
// @Success 204
// @Failure 404 {object} respond.ErrorResponse
// @Router /api/products/{id} [delete]
func (a *ProductAPI) DeleteProduct(w http.ResponseWriter, r *http.Request) {
	id, err := uuidParam(r, "id")
	if err != nil {
		writeError(w, r, err)
		return
	}

	if err := a.Products.Delete(r.Context(), middleware.Caller(r), id); err != nil {
		writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// SearchProducts godoc
// @Summary Search products
// @Description Criteria are combined with AND. Omitted criteria impose no constraint.
// @Tags products
// @Produce json
// @Param name query string false "Name contains (case-insensitive)"
// @Param description query string false "Description contains (case-insensitive)"
// @Param minPrice query string false "Inclusive lower price bound"
// @Param maxPrice query string false "Inclusive upper price bound"
// @Param createdAfter query string false "Inclusive lower creation bound (ISO-8601)"
// @Param createdBefore query string false "Inclusive upper creation bound (ISO-8601)"
// @Param page query int false "Page number" default(0)
// @Param size query int false "Page size" default(10)
// @Param sortBy query string false "Sort field" default(createdAt)
// @Param sortDirection query string false "ASC or DESC" default(DESC)
// @Success 200 {object} ProductPage
// @Failure 400 {object} respond.ErrorResponse
// @Router /api/products/search [get]
func (a *ProductAPI) SearchProducts(w http.ResponseWriter, r *http.Request) {
	filter, err := filterFromQuery(r.URL.Query())
	if err != nil {
		writeError(w, r, err)
		return
	}

	result, err := a.Products.Search(r.Context(), filter)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

// SearchProductsJSON godoc
// @Summary Search products with a JSON body
// @Tags products
// @Accept json
// @Produce json
// @Param criteria body SearchRequest true "Search criteria"
// @Success 200 {object} ProductPage
// @Failure 400 {object} respond.ErrorResponse
// @Router /api/products/search [post]
func (a *ProductAPI) SearchProductsJSON(w http.ResponseWriter, r *http.Request) {
	var req SearchRequest
	if err := readJSON(w, r, &req); err != nil {
		writeError(w, r, err)
		return
	}

	result, err := a.Products.Search(r.Context(), req.toFilter())
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}
