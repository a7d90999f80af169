package router

import (
	"bytes"
	"context"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"github.com/rogerio-castellano/product-management/internal/auth"
	"github.com/rogerio-castellano/product-management/internal/http/ban"
	"github.com/rogerio-castellano/product-management/internal/http/handlers"
	"github.com/rogerio-castellano/product-management/internal/http/respond"
	"github.com/rogerio-castellano/product-management/internal/models"
	"github.com/rogerio-castellano/product-management/internal/repo"
	"github.com/rogerio-castellano/product-management/internal/service"
)

const testSecret = "test-secret"

type productEnv struct {
	router   http.Handler
	products *repo.InMemoryProductRepository
	users    *repo.InMemoryUserRepository
	token    string
}

func newProductEnv(t *testing.T, guard Guard) *productEnv {
	t.Helper()
	env := &productEnv{
		products: repo.NewInMemoryProductRepository(),
		users:    repo.NewInMemoryUserRepository(),
	}
	metricsRepo := repo.NewInMemoryMetricsRepository()
	metricsRepo.SetRepositories(env.products, env.users)

	issuer := auth.NewTokenIssuer(testSecret, time.Minute)
	api := &handlers.ProductAPI{
		Products: service.NewProductService(env.products, env.users),
		Auth:     service.NewAuthService(env.users, issuer, auth.NewMemoryRefreshStore(), time.Hour),
		Metrics:  metricsRepo,
	}
	env.router = NewProductRouter(api, issuer, guard)

	w := doJSON(env.router, http.MethodPost, "/api/auth/register", "", handlers.RegisterRequest{
		Username: "admin", Email: "admin@example.com", Password: "secret1",
	})
	if w.Code != http.StatusCreated {
		t.Fatalf("register failed: %d %s", w.Code, w.Body.String())
	}
	var resp handlers.TokenResponse
	decode(t, w, &resp)
	env.token = resp.Token
	return env
}

type userEnv struct {
	router     http.Handler
	users      *repo.InMemoryUserRepository
	bans       *ban.MemoryStore
	adminToken string
	userToken  string
	admin      models.User
	user       models.User
}

func newUserEnv(t *testing.T, products handlers.ProductLister) *userEnv {
	t.Helper()
	env := &userEnv{
		users: repo.NewInMemoryUserRepository(),
		bans:  ban.NewMemoryStore(ban.Policy{Threshold: 3, Duration: time.Minute}),
	}
	issuer := auth.NewTokenIssuer(testSecret, time.Minute)
	api := &handlers.UserAPI{
		Users:    service.NewUserService(env.users),
		Auth:     service.NewAuthService(env.users, issuer, auth.NewMemoryRefreshStore(), time.Hour),
		Products: products,
		Bans:     env.bans,
	}
	env.router = NewUserRouter(api, issuer, Guard{})

	env.admin = registerUser(t, env.router, "admin")
	env.admin.Roles = []string{models.RoleUser, models.RoleAdmin}
	if _, err := env.users.Update(context.Background(), env.admin); err != nil {
		t.Fatalf("promote admin: %v", err)
	}
	env.user = registerUser(t, env.router, "jdoe")

	env.adminToken = login(t, env.router, "admin").Token
	env.userToken = login(t, env.router, "jdoe").Token
	return env
}

func registerUser(t *testing.T, r http.Handler, username string) models.User {
	t.Helper()
	w := doJSON(r, http.MethodPost, "/api/auth/register", "", handlers.RegisterRequest{
		Username: username, Email: username + "@example.com", Password: "secret1",
	})
	if w.Code != http.StatusCreated {
		t.Fatalf("register %s failed: %d %s", username, w.Code, w.Body.String())
	}
	var u models.User
	decode(t, w, &u)
	return u
}

func login(t *testing.T, r http.Handler, identifier string) handlers.LoginResponse {
	t.Helper()
	w := doJSON(r, http.MethodPost, "/api/auth/login", "", handlers.LoginRequest{
		UsernameOrEmail: identifier, Password: "secret1",
	})
	if w.Code != http.StatusOK {
		t.Fatalf("login %s failed: %d %s", identifier, w.Code, w.Body.String())
	}
	var resp handlers.LoginResponse
	decode(t, w, &resp)
	return resp
}

func doJSON(r http.Handler, method, path, token string, payload any) *httptest.ResponseRecorder {
	var body bytes.Buffer
	if payload != nil {
		_ = json.NewEncoder(&body).Encode(payload)
	}
	req := httptest.NewRequest(method, path, &body)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func decode(t *testing.T, w *httptest.ResponseRecorder, v any) {
	t.Helper()
	if err := json.NewDecoder(w.Body).Decode(v); err != nil {
		t.Fatalf("error decoding response: %v (%s)", err, w.Body.String())
	}
}

func decodeError(t *testing.T, w *httptest.ResponseRecorder) respond.ErrorResponse {
	t.Helper()
	var resp respond.ErrorResponse
	decode(t, w, &resp)
	if resp.Status != w.Code {
		t.Errorf("envelope status %d does not match response code %d", resp.Status, w.Code)
	}
	return resp
}

func price(s string) *decimal.Decimal {
	d := decimal.RequireFromString(s)
	return &d
}

func (e *productEnv) createProduct(t *testing.T, name, p string) models.ProductView {
	t.Helper()
	w := doJSON(e.router, http.MethodPost, "/api/products", e.token, handlers.ProductRequest{Name: name, Price: price(p)})
	if w.Code != http.StatusCreated {
		t.Fatalf("create %s failed: %d %s", name, w.Code, w.Body.String())
	}
	var view models.ProductView
	decode(t, w, &view)
	return view
}

func multipartCSV(csvContent string, filename string) (*bytes.Buffer, string) {
	var buf bytes.Buffer
	writer := multipart.NewWriter(&buf)

	part, _ := writer.CreateFormFile("file", filename)
	_, _ = part.Write([]byte(csvContent))

	_ = writer.Close()
	return &buf, writer.FormDataContentType()
}
