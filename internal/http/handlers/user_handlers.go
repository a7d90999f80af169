package handlers

import (
	"context"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/rogerio-castellano/product-management/internal/http/middleware"
	"github.com/rogerio-castellano/product-management/internal/models"
	"github.com/rogerio-castellano/product-management/internal/service"
)

func (req UpdateUserRequest) input() service.UpdateUserInput {
	return service.UpdateUserInput{
		Username:    req.Username,
		Email:       req.Email,
		Password:    req.Password,
		FirstName:   req.FirstName,
		LastName:    req.LastName,
		PhoneNumber: req.PhoneNumber,
		Roles:       req.Roles,
	}
}

// CreateUser godoc
// @Summary Create a user
// @Description Assigning roles requires the ADMIN role.
// @Tags users
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param user body RegisterRequest true "New user"
// @Success 201 {object} models.User
// @Failure 400 {object} respond.ErrorResponse
// @Failure 403 {object} respond.ErrorResponse
// @Failure 409 {object} respond.ErrorResponse
// @Router /api/users [post]
func (a *UserAPI) CreateUser(w http.ResponseWriter, r *http.Request) {
	var req RegisterRequest
	if err := readJSON(w, r, &req); err != nil {
		writeError(w, r, err)
		return
	}

	user, err := a.Users.Create(r.Context(), middleware.Caller(r), req.input())
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, user)
}

// ListUsers godoc
// @Summary List all users
// @Tags users
// @Produce json
// @Security BearerAuth
// @Success 200 {array} models.User
// @Router /api/users [get]
func (a *UserAPI) ListUsers(w http.ResponseWriter, r *http.Request) {
	users, err := a.Users.List(r.Context())
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, nonNil(users))
}

// ListActiveUsers godoc
// @Summary List active users
// @Tags users
// @Produce json
// @Security BearerAuth
// @Success 200 {array} models.User
// @Router /api/users/active [get]
func (a *UserAPI) ListActiveUsers(w http.ResponseWriter, r *http.Request) {
	users, err := a.Users.ListActive(r.Context())
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, nonNil(users))
}

// CurrentUser godoc
// @Summary The authenticated user
// @Tags users
// @Produce json
// @Security BearerAuth
// @Success 200 {object} models.User
// @Failure 401 {object} respond.ErrorResponse
// @Router /api/users/me [get]
func (a *UserAPI) CurrentUser(w http.ResponseWriter, r *http.Request) {
	user, err := a.Users.Current(r.Context(), middleware.Caller(r))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, user)
}

// GetUserByUsername godoc
// @Summary Get user by username
// @Tags users
// @Produce json
// @Security BearerAuth
// @Param username path string true "Username"
// @Success 200 {object} models.User
// @Failure 404 {object} respond.ErrorResponse
// @Router /api/users/username/{username} [get]
func (a *UserAPI) GetUserByUsername(w http.ResponseWriter, r *http.Request) {
	user, err := a.Users.GetByUsername(r.Context(), chi.URLParam(r, "username"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, user)
}

// GetUser godoc
// @Summary Get user by ID
// @Tags users
// @Produce json
// @Security BearerAuth
// @Param id path string true "User ID" format(uuid)
// @Success 200 {object} models.User
// @Failure 400 {object} respond.ErrorResponse
// @Failure 404 {object} respond.ErrorResponse
// @Router /api/users/{id} [get]
func (a *UserAPI) GetUser(w http.ResponseWriter, r *http.Request) {
	id, err := uuidParam(r, "id")
	if err != nil {
		writeError(w, r, err)
		return
	}

	user, err := a.Users.GetByID(r.Context(), id)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, user)
}

// UpdateUser godoc
// @Summary Update a user
// @Description Only supplied fields change. Users may update themselves; changing roles requires ADMIN.
// @Tags users
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "User ID" format(uuid)
// @Param user body UpdateUserRequest true "Fields to change"
// @Success 200 {object} models.User
// @Failure 400 {object} respond.ErrorResponse
// @Failure 403 {object} respond.ErrorResponse
// @Failure 404 {object} respond.ErrorResponse
// @Failure 409 {object} respond.ErrorResponse
// @Router /api/users/{id} [put]
func (a *UserAPI) UpdateUser(w http.ResponseWriter, r *http.Request) {
	id, err := uuidParam(r, "id")
	if err != nil {
		writeError(w, r, err)
		return
	}

	var req UpdateUserRequest
	if err := readJSON(w, r, &req); err != nil {
		writeError(w, r, err)
		return
	}

	user, err := a.Users.Update(r.Context(), middleware.Caller(r), id, req.input())
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, user)
}

// DeleteUser godoc
// @Summary Soft-delete a user
// @Tags users
// @Security BearerAuth
// @Param id path string true "User ID" format(uuid)
// @Success 204
// @Failure 403 {object} respond.ErrorResponse
// @Failure 404 {object} respond.ErrorResponse
// @Router /api/users/{id} [delete]
func (a *UserAPI) DeleteUser(w http.ResponseWriter, r *http.Request) {
	id, err := uuidParam(r, "id")
	if err != nil {
		writeError(w, r, err)
		return
	}

	if err := a.Users.Delete(r.Context(), middleware.Caller(r), id); err != nil {
		writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// ActivateUser godoc
// @Summary Activate a user
// @Tags users
// @Produce json
// @Security BearerAuth
// @Param id path string true "User ID" format(uuid)
// @Success 200 {object} models.User
// @Failure 403 {object} respond.ErrorResponse
// @Failure 404 {object} respond.ErrorResponse
// @Router /api/users/{id}/activate [patch]
func (a *UserAPI) ActivateUser(w http.ResponseWriter, r *http.Request) {
	a.changeStatus(w, r, a.Users.Activate)
}

// DeactivateUser godoc
// @Summary Deactivate a user
// @Tags users
// @Produce json
// @Security BearerAuth
// @Param id path string true "User ID" format(uuid)
// @Success 200 {object} models.User
// @Failure 403 {object} respond.ErrorResponse
// @Failure 404 {object} respond.ErrorResponse
// @Router /api/users/{id}/deactivate [patch]
func (a *UserAPI) DeactivateUser(w http.ResponseWriter, r *http.Request) {
	a.changeStatus(w, r, a.Users.Deactivate)
}

type statusChange func(ctx context.Context, caller string, id uuid.UUID) (models.User, error)

func (a *UserAPI) changeStatus(w http.ResponseWriter, r *http.Request, change statusChange) {
	id, err := uuidParam(r, "id")
	if err != nil {
		writeError(w, r, err)
		return
	}

	user, err := change(r.Context(), middleware.Caller(r), id)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, user)
}

// UserProducts godoc
// @Summary Products from the product service
// @Description Calls the product service list endpoint.
// @Tags users
// @Produce json
// @Security BearerAuth
// @Success 200 {array} models.ProductView
// @Failure 502 {object} respond.ErrorResponse
// @Router /api/users/products [get]
func (a *UserAPI) UserProducts(w http.ResponseWriter, r *http.Request) {
	products, err := a.Products.ListProducts(r.Context())
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, nonNil(products))
}

// ListBans godoc
// @Summary Recent rate-limit bans
// @Tags admin
// @Produce json
// @Security BearerAuth
// @Param limit query int false "Maximum entries" default(50)
// @Success 200 {array} ban.Entry
// @Failure 403 {object} respond.ErrorResponse
// @Router /api/admin/bans [get]
func (a *UserAPI) ListBans(w http.ResponseWriter, r *http.Request) {
	limit := 50
	if raw := r.URL.Query().Get("limit"); raw != "" {
		if n, err := strconv.Atoi(raw); err == nil && n > 0 {
			limit = n
		}
	}

	entries, err := a.Bans.Recent(r.Context(), limit)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, nonNil(entries))
}

func nonNil[T any](items []T) []T {
	if items == nil {
		return []T{}
	}
	return items
}
