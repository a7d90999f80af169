package handlers

import (
	"net/http"

	"github.com/rogerio-castellano/product-management/internal/service"
)

func (req RegisterRequest) input() service.CreateUserInput {
	return service.CreateUserInput{
		Username:    req.Username,
		Email:       req.Email,
		Password:    req.Password,
		FirstName:   req.FirstName,
		LastName:    req.LastName,
		PhoneNumber: req.PhoneNumber,
		Roles:       req.Roles,
	}
}

func tokenResponse(p service.TokenPair) TokenResponse {
	return TokenResponse{
		Token:        p.Token,
		RefreshToken: p.RefreshToken,
		Username:     p.User.Username,
		Email:        p.User.Email,
	}
}

// Register godoc
// @Summary Register a new user and return tokens
// @Tags auth
// @Accept json
// @Produce json
// @Param credentials body RegisterRequest true "username, email and password"
// @Success 201 {object} TokenResponse
// @Failure 400 {object} respond.ErrorResponse
// @Failure 409 {object} respond.ErrorResponse
// @Failure 429 {object} respond.ErrorResponse
// @Router /api/auth/register [post]
func (a *ProductAPI) Register(w http.ResponseWriter, r *http.Request) {
	var req RegisterRequest
	if err := readJSON(w, r, &req); err != nil {
		writeError(w, r, err)
		return
	}

	pair, err := a.Auth.Register(r.Context(), req.input())
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, tokenResponse(pair))
}

// Login godoc
// @Summary Log in with username or email
// @Tags auth
// @Accept json
// @Produce json
// @Param credentials body LoginRequest true "username (or email) and password"
// @Success 200 {object} TokenResponse
// @Failure 401 {object} respond.ErrorResponse
// @Failure 429 {object} respond.ErrorResponse
// @Router /api/auth/login [post]
func (a *ProductAPI) Login(w http.ResponseWriter, r *http.Request) {
	var req LoginRequest
	if err := readJSON(w, r, &req); err != nil {
		writeError(w, r, err)
		return
	}

	pair, err := a.Auth.Login(r.Context(), req.identifier(), req.Password)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, tokenResponse(pair))
}

// Refresh godoc
// @Summary Exchange a refresh token for a new token pair
// @Description The presented refresh token is revoked.
// @Tags auth
// @Accept json
// @Produce json
// @Param body body RefreshRequest true "Refresh token"
// @Success 200 {object} TokenResponse
// @Failure 401 {object} respond.ErrorResponse
// @Router /api/auth/refresh [post]
func (a *ProductAPI) Refresh(w http.ResponseWriter, r *http.Request) {
	var req RefreshRequest
	if err := readJSON(w, r, &req); err != nil {
		writeError(w, r, err)
		return
	}

	pair, err := a.Auth.Refresh(r.Context(), req.RefreshToken)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, tokenResponse(pair))
}

// RegisterUser godoc
// @Summary Register a new user
// @Tags auth
// @Accept json
// @Produce json
// @Param user body RegisterRequest true "New user"
// @Success 201 {object} models.User
// @Failure 400 {object} respond.ErrorResponse
// @Failure 409 {object} respond.ErrorResponse
// @Router /api/auth/register [post]
func (a *UserAPI) RegisterUser(w http.ResponseWriter, r *http.Request) {
	var req RegisterRequest
	if err := readJSON(w, r, &req); err != nil {
		writeError(w, r, err)
		return
	}

	user, err := a.Users.Register(r.Context(), req.input())
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, user)
}

// LoginUser godoc
// @Summary Log in with username or email
// @Description Records the login time on success.
// @Tags auth
// @Accept json
// @Produce json
// @Param credentials body LoginRequest true "usernameOrEmail and password"
// @Success 200 {object} LoginResponse
// @Failure 401 {object} respond.ErrorResponse
// @Router /api/auth/login [post]
func (a *UserAPI) LoginUser(w http.ResponseWriter, r *http.Request) {
	var req LoginRequest
	if err := readJSON(w, r, &req); err != nil {
		writeError(w, r, err)
		return
	}

	pair, err := a.Auth.Login(r.Context(), req.identifier(), req.Password)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, LoginResponse{Token: pair.Token, RefreshToken: pair.RefreshToken, User: pair.User})
}

// Logout godoc
// @Summary Revoke a refresh token
// @Tags auth
// @Accept json
// @Produce json
// @Param body body RefreshRequest true "Refresh token"
// @Success 200 {object} map[string]string
// @Failure 400 {object} respond.ErrorResponse
// @Router /api/auth/logout [post]
func (a *UserAPI) Logout(w http.ResponseWriter, r *http.Request) {
	var req RefreshRequest
	if err := readJSON(w, r, &req); err != nil {
		writeError(w, r, err)
		return
	}

	if err := a.Auth.Logout(r.Context(), req.RefreshToken); err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"message": "Logged out successfully"})
}
