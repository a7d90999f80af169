package router

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/rogerio-castellano/product-management/internal/http/ban"
	"github.com/rogerio-castellano/product-management/internal/http/handlers"
	rl "github.com/rogerio-castellano/product-management/internal/http/rate_limiter"
	"github.com/rogerio-castellano/product-management/internal/models"
	"github.com/rogerio-castellano/product-management/internal/repo"
)

func TestCreateProduct_Valid(t *testing.T) {
	env := newProductEnv(t, Guard{})

	w := doJSON(env.router, http.MethodPost, "/api/products", env.token, handlers.ProductRequest{
		Name: "Laptop", Description: "14 inch", Price: price("1500.00"),
	})
	if w.Code != http.StatusCreated {
		t.Fatalf("expected 201 Created, got %d: %s", w.Code, w.Body.String())
	}

	var resp models.ProductView
	decode(t, w, &resp)

	if resp.Name != "Laptop" {
		t.Errorf("expected name 'Laptop', got %v", resp.Name)
	}
	if !resp.Price.Equal(*price("1500")) {
		t.Errorf("expected price 1500, got %v", resp.Price)
	}
	if resp.CreatedBy != "admin" || resp.UpdatedBy != "admin" {
		t.Errorf("expected admin as creator and updater, got %q/%q", resp.CreatedBy, resp.UpdatedBy)
	}
	if resp.ID == uuid.Nil {
		t.Error("expected an id to be assigned")
	}
}

func TestCreateProduct_Invalid(t *testing.T) {
	env := newProductEnv(t, Guard{})

	tests := []struct {
		name           string
		payload        handlers.ProductRequest
		expectedErrors []string
	}{
		{"Empty name and missing price", handlers.ProductRequest{}, []string{"name", "price"}},
		{"Empty name only", handlers.ProductRequest{Name: "  ", Price: price("100")}, []string{"name"}},
		{"Zero price", handlers.ProductRequest{Name: "Mouse", Price: price("0")}, []string{"price"}},
		{"Negative price", handlers.ProductRequest{Name: "Mouse", Price: price("-5")}, []string{"price"}},
		{"Too precise price", handlers.ProductRequest{Name: "Mouse", Price: price("1.23456")}, []string{"price"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := doJSON(env.router, http.MethodPost, "/api/products", env.token, tt.payload)
			if w.Code != http.StatusBadRequest {
				t.Fatalf("expected status 400, got %d", w.Code)
			}

			resp := decodeError(t, w)
			if resp.Message != "Validation failed" {
				t.Errorf("expected 'Validation failed', got %q", resp.Message)
			}
			if len(resp.Errors) != len(tt.expectedErrors) {
				t.Errorf("expected %d field errors, got %v", len(tt.expectedErrors), resp.Errors)
			}
			for _, field := range tt.expectedErrors {
				if _, ok := resp.Errors[field]; !ok {
					t.Errorf("expected an error for %q, got %v", field, resp.Errors)
				}
			}
		})
	}
}

func TestCreateProduct_MalformedBody(t *testing.T) {
	env := newProductEnv(t, Guard{})

	req := httptest.NewRequest(http.MethodPost, "/api/products", strings.NewReader(`{"name": `))
	req.Header.Set("Authorization", "Bearer "+env.token)
	w := httptest.NewRecorder()
	env.router.ServeHTTP(w, req)

	if w.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", w.Code)
	}
}

func TestCreateProduct_Unauthenticated(t *testing.T) {
	env := newProductEnv(t, Guard{})

	for _, token := range []string{"", "not-a-token"} {
		w := doJSON(env.router, http.MethodPost, "/api/products", token, handlers.ProductRequest{Name: "X", Price: price("1")})
		if w.Code != http.StatusUnauthorized {
			t.Errorf("token %q: expected 401, got %d", token, w.Code)
		}
	}
}

func TestCreateProduct_DuplicateName(t *testing.T) {
	env := newProductEnv(t, Guard{})
	env.createProduct(t, "Widget", "9.99")

	w := doJSON(env.router, http.MethodPost, "/api/products", env.token, handlers.ProductRequest{Name: "Widget", Price: price("1")})
	if w.Code != http.StatusConflict {
		t.Fatalf("expected 409, got %d", w.Code)
	}
	resp := decodeError(t, w)
	if !strings.Contains(resp.Message, "Widget") {
		t.Errorf("expected the conflicting name in the message, got %q", resp.Message)
	}
}

func TestGetProduct(t *testing.T) {
	env := newProductEnv(t, Guard{})
	created := env.createProduct(t, "Widget", "9.99")

	tests := []struct {
		name       string
		path       string
		expectCode int
	}{
		{"existing", "/api/products/" + created.ID.String(), http.StatusOK},
		{"missing", "/api/products/" + uuid.NewString(), http.StatusNotFound},
		{"malformed id", "/api/products/42", http.StatusBadRequest},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := doJSON(env.router, http.MethodGet, tt.path, "", nil)
			if w.Code != tt.expectCode {
				t.Fatalf("expected %d, got %d", tt.expectCode, w.Code)
			}
		})
	}
}

func TestUpdateProduct(t *testing.T) {
	env := newProductEnv(t, Guard{})
	created := env.createProduct(t, "Widget", "9.99")
	env.createProduct(t, "Gadget", "5")

	path := "/api/products/" + created.ID.String()
	w := doJSON(env.router, http.MethodPut, path, env.token, handlers.ProductRequest{
		Name: "Widget Pro", Description: "better", Price: price("19.99"),
	})
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", w.Code, w.Body.String())
	}
	var updated models.ProductView
	decode(t, w, &updated)
	if updated.Name != "Widget Pro" || updated.Description != "better" {
		t.Errorf("unexpected product after update: %+v", updated)
	}
	if !updated.CreatedAt.Equal(created.CreatedAt) {
		t.Errorf("createdAt changed from %v to %v", created.CreatedAt, updated.CreatedAt)
	}
	if updated.UpdatedAt.Before(updated.CreatedAt) {
		t.Errorf("updatedAt %v is before createdAt %v", updated.UpdatedAt, updated.CreatedAt)
	}

	w = doJSON(env.router, http.MethodPut, path, env.token, handlers.ProductRequest{Name: "Gadget", Price: price("1")})
	if w.Code != http.StatusConflict {
		t.Errorf("expected 409 when renaming onto an existing name, got %d", w.Code)
	}

	w = doJSON(env.router, http.MethodPut, "/api/products/"+uuid.NewString(), env.token, handlers.ProductRequest{Name: "X", Price: price("1")})
	if w.Code != http.StatusNotFound {
		t.Errorf("expected 404, got %d", w.Code)
	}
}

func TestDeleteProduct(t *testing.T) {
	env := newProductEnv(t, Guard{})
	created := env.createProduct(t, "Widget", "9.99")
	path := "/api/products/" + created.ID.String()

	w := doJSON(env.router, http.MethodDelete, path, env.token, nil)
	if w.Code != http.StatusNoContent {
		t.Fatalf("expected 204, got %d", w.Code)
	}

	w = doJSON(env.router, http.MethodDelete, path, env.token, nil)
	if w.Code != http.StatusNotFound {
		t.Fatalf("expected 404 on second delete, got %d", w.Code)
	}
	resp := decodeError(t, w)
	expected := "Product not found with id : '" + created.ID.String() + "'"
	if resp.Message != expected {
		t.Errorf("expected %q, got %q", expected, resp.Message)
	}
}

func TestSearchProducts_Query(t *testing.T) {
	env := newProductEnv(t, Guard{})
	for _, p := range []string{"5", "50", "150"} {
		env.createProduct(t, "P"+p, p)
	}

	tests := []struct {
		name     string
		query    string
		expected []string
	}{
		{"price range", "minPrice=10&maxPrice=100", []string{"P50"}},
		{"inclusive bounds", "minPrice=50&maxPrice=150&sortBy=price&sortDirection=ASC", []string{"P50", "P150"}},
		{"name contains, case-insensitive", "name=p1", []string{"P150"}},
		{"no criteria", "sortBy=name&sortDirection=asc", []string{"P150", "P5", "P50"}},
		{"created in the future", "createdAfter=2999-01-01T00:00:00Z", []string{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := doJSON(env.router, http.MethodGet, "/api/products/search?"+tt.query, "", nil)
			if w.Code != http.StatusOK {
				t.Fatalf("expected 200, got %d: %s", w.Code, w.Body.String())
			}
			var page handlers.ProductPage
			decode(t, w, &page)

			if page.TotalElements != len(tt.expected) {
				t.Errorf("expected %d results, got %d", len(tt.expected), page.TotalElements)
			}
			if len(page.Content) != len(tt.expected) {
				t.Fatalf("expected content %v, got %d items", tt.expected, len(page.Content))
			}
			for i, name := range tt.expected {
				if page.Content[i].Name != name {
					t.Errorf("position %d: expected %s, got %s", i, name, page.Content[i].Name)
				}
			}
		})
	}
}

func TestSearchProducts_Paging(t *testing.T) {
	env := newProductEnv(t, Guard{})
	for _, n := range []string{"a", "b", "c", "d", "e"} {
		env.createProduct(t, n, "1")
	}

	w := doJSON(env.router, http.MethodGet, "/api/products/search?page=2&size=2&sortBy=name&sortDirection=ASC", "", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	var page handlers.ProductPage
	decode(t, w, &page)

	if page.TotalElements != 5 || page.TotalPages != 3 || page.Page != 2 || page.Size != 2 {
		t.Errorf("unexpected page metadata: %+v", page)
	}
	if len(page.Content) != 1 || page.Content[0].Name != "e" {
		t.Errorf("expected only 'e' on the last page, got %+v", page.Content)
	}
}

func TestSearchProducts_JSONBody(t *testing.T) {
	env := newProductEnv(t, Guard{})
	for _, p := range []string{"5", "50", "150"} {
		env.createProduct(t, "P"+p, p)
	}

	w := doJSON(env.router, http.MethodPost, "/api/products/search", "", handlers.SearchRequest{
		MinPrice: price("10"), MaxPrice: price("100"),
	})
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", w.Code, w.Body.String())
	}
	var page handlers.ProductPage
	decode(t, w, &page)
	if page.TotalElements != 1 || page.Content[0].Name != "P50" {
		t.Errorf("expected only P50, got %+v", page)
	}
	if page.Size != repo.DefaultPageSize || page.Page != 0 {
		t.Errorf("expected default window, got page %d size %d", page.Page, page.Size)
	}
}

func TestSearchProducts_InvalidCriteria(t *testing.T) {
	env := newProductEnv(t, Guard{})

	tests := []struct {
		name  string
		query string
		field string
	}{
		{"non-numeric price", "minPrice=cheap", "minPrice"},
		{"bad date", "createdBefore=yesterday", "createdBefore"},
		{"non-numeric page", "page=first", "page"},
		{"zero size", "size=0", ""},
		{"negative page", "page=-1", ""},
		{"size above maximum", "size=1001", "size"},
		{"page overflowing offset", "page=4611686018427387904&size=4", "page"},
		{"huge size", "size=9223372036854775807", "size"},
		{"unknown sort field", "sortBy=colour", ""},
		{"unknown direction", "sortDirection=sideways", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := doJSON(env.router, http.MethodGet, "/api/products/search?"+tt.query, "", nil)
			if w.Code != http.StatusBadRequest {
				t.Fatalf("expected 400, got %d", w.Code)
			}
			resp := decodeError(t, w)
			if tt.field == "" {
				return
			}
			if _, ok := resp.Errors[tt.field]; !ok {
				t.Errorf("expected an error for %q, got %v", tt.field, resp.Errors)
			}
		})
	}
}

func TestListProducts(t *testing.T) {
	env := newProductEnv(t, Guard{})
	for _, n := range []string{"Red Chair", "Blue Chair", "Table"} {
		env.createProduct(t, n, "10")
	}

	w := doJSON(env.router, http.MethodGet, "/api/products?search=chair&sort=name,asc", "", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", w.Code, w.Body.String())
	}
	var page handlers.ProductPage
	decode(t, w, &page)

	if page.TotalElements != 2 {
		t.Fatalf("expected 2 chairs, got %d", page.TotalElements)
	}
	if page.Content[0].Name != "Blue Chair" || page.Content[1].Name != "Red Chair" {
		t.Errorf("unexpected order: %s, %s", page.Content[0].Name, page.Content[1].Name)
	}
}

func importCSV(env *productEnv, csvData, mode string) *httptest.ResponseRecorder {
	body, contentType := multipartCSV(csvData, "products.csv")
	path := "/api/products/import"
	if mode != "" {
		path += "?mode=" + mode
	}
	req := httptest.NewRequest(http.MethodPost, path, body)
	req.Header.Set("Content-Type", contentType)
	req.Header.Set("Authorization", "Bearer "+env.token)

	w := httptest.NewRecorder()
	env.router.ServeHTTP(w, req)
	return w
}

func TestImportProducts(t *testing.T) {
	t.Run("File with unique valid products", func(t *testing.T) {
		env := newProductEnv(t, Guard{})
		w := importCSV(env, "name,description,price\nMouse,Wireless,25.99\nKeyboard,,45.00\n", "")
		if w.Code != http.StatusOK {
			t.Fatalf("expected 200 OK, got %d: %s", w.Code, w.Body.String())
		}

		var resp handlers.ImportProductsResult
		decode(t, w, &resp)
		if resp.Imported != 2 {
			t.Errorf("expected 2 imported products, got %d", resp.Imported)
		}
		if len(resp.Errors) != 0 {
			t.Errorf("expected no errors, got %v", resp.Errors)
		}
		if env.products.Count() != 2 {
			t.Errorf("expected 2 stored products, got %d", env.products.Count())
		}
	})

	t.Run("File with invalid rows", func(t *testing.T) {
		env := newProductEnv(t, Guard{})
		w := importCSV(env, "name,price\nMouse,25.99\nFree,0\nBroken,abc\nKeyboard,45.00\n", "")
		if w.Code != http.StatusOK {
			t.Fatalf("expected 200 OK, got %d", w.Code)
		}

		var resp handlers.ImportProductsResult
		decode(t, w, &resp)
		if resp.Imported != 2 {
			t.Errorf("expected 2 imported products, got %d", resp.Imported)
		}
		if len(resp.Errors) != 2 {
			t.Fatalf("expected 2 row errors, got %v", resp.Errors)
		}
		if resp.Errors[0].Row != 3 || resp.Errors[1].Row != 4 {
			t.Errorf("expected errors on rows 3 and 4, got %v", resp.Errors)
		}
	})

	t.Run("Existing products are skipped by default", func(t *testing.T) {
		env := newProductEnv(t, Guard{})
		env.createProduct(t, "Mouse", "10")

		w := importCSV(env, "name,price\nMouse,25.99\n", "")
		var resp handlers.ImportProductsResult
		decode(t, w, &resp)
		if resp.Skipped != 1 || resp.Imported != 0 || resp.Updated != 0 {
			t.Errorf("expected one skipped row, got %+v", resp)
		}
	})

	t.Run("Existing products are updated in update mode", func(t *testing.T) {
		env := newProductEnv(t, Guard{})
		created := env.createProduct(t, "Mouse", "10")

		w := importCSV(env, "name,description,price\nMouse,Updated,25.99\n", "update")
		var resp handlers.ImportProductsResult
		decode(t, w, &resp)
		if resp.Updated != 1 {
			t.Fatalf("expected one updated row, got %+v", resp)
		}

		w = doJSON(env.router, http.MethodGet, "/api/products/"+created.ID.String(), "", nil)
		var got models.ProductView
		decode(t, w, &got)
		if !got.Price.Equal(*price("25.99")) || got.Description != "Updated" {
			t.Errorf("product not updated: %+v", got)
		}
	})

	t.Run("Missing price column", func(t *testing.T) {
		env := newProductEnv(t, Guard{})
		w := importCSV(env, "name,quantity\nMouse,3\n", "")
		if w.Code != http.StatusBadRequest {
			t.Errorf("expected 400, got %d", w.Code)
		}
	})
}

func TestDashboardMetrics(t *testing.T) {
	env := newProductEnv(t, Guard{})
	env.createProduct(t, "Keyboard", "40")
	time.Sleep(time.Millisecond)
	env.createProduct(t, "Monitor", "150")

	w := doJSON(env.router, http.MethodGet, "/api/stats/dashboard", "", nil)
	if w.Code != http.StatusUnauthorized {
		t.Errorf("expected 401 without a token, got %d", w.Code)
	}

	w = doJSON(env.router, http.MethodGet, "/api/stats/dashboard", env.token, nil)
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	var m repo.Metrics
	decode(t, w, &m)

	if m.TotalProducts != 2 {
		t.Errorf("expected 2 products, got %d", m.TotalProducts)
	}
	if m.TotalUsers != 1 || m.ActiveUsers != 1 {
		t.Errorf("expected 1 active user, got %d/%d", m.ActiveUsers, m.TotalUsers)
	}
	if m.NewestProduct == nil || m.NewestProduct.Name != "Monitor" {
		t.Errorf("expected Monitor as newest product, got %+v", m.NewestProduct)
	}
}

func TestRefreshRotatesTokens(t *testing.T) {
	env := newProductEnv(t, Guard{})

	w := doJSON(env.router, http.MethodPost, "/api/auth/login", "", handlers.LoginRequest{Username: "admin@example.com", Password: "secret1"})
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	var first handlers.TokenResponse
	decode(t, w, &first)
	if first.Username != "admin" || first.Email != "admin@example.com" {
		t.Errorf("unexpected login response: %+v", first)
	}

	w = doJSON(env.router, http.MethodPost, "/api/auth/refresh", "", handlers.RefreshRequest{RefreshToken: first.RefreshToken})
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	var second handlers.TokenResponse
	decode(t, w, &second)
	if second.RefreshToken == first.RefreshToken {
		t.Error("expected a new refresh token")
	}

	w = doJSON(env.router, http.MethodPost, "/api/auth/refresh", "", handlers.RefreshRequest{RefreshToken: first.RefreshToken})
	if w.Code != http.StatusUnauthorized {
		t.Errorf("expected 401 on reuse, got %d", w.Code)
	}

	w = doJSON(env.router, http.MethodPost, "/api/auth/login", "", handlers.LoginRequest{Username: "admin", Password: "wrong"})
	if w.Code != http.StatusUnauthorized {
		t.Errorf("expected 401 for a bad password, got %d", w.Code)
	}
}

func TestAuthRoutesAreRateLimited(t *testing.T) {
	bans := ban.NewMemoryStore(ban.Policy{Threshold: 3, Duration: time.Minute})
	env := newProductEnv(t, Guard{Limiter: rl.New(0.001, 2), Bans: bans})

	login := func() int {
		return doJSON(env.router, http.MethodPost, "/api/auth/login", "", handlers.LoginRequest{Username: "admin", Password: "secret1"}).Code
	}

	// registration in newProductEnv used the first token
	expected := []int{
		http.StatusOK,
		http.StatusTooManyRequests,
		http.StatusTooManyRequests,
		http.StatusForbidden,
		http.StatusForbidden,
	}
	for i, code := range expected {
		if got := login(); got != code {
			t.Errorf("request %d: expected %d, got %d", i+1, code, got)
		}
	}

	entries, _ := bans.Recent(t.Context(), 10)
	if len(entries) != 1 || entries[0].Route != "/api/auth/login" {
		t.Errorf("expected one ban log entry for the login route, got %+v", entries)
	}

	w := doJSON(env.router, http.MethodGet, "/api/products", "", nil)
	if w.Code != http.StatusOK {
		t.Errorf("product routes are not rate limited, got %d", w.Code)
	}
}

func TestOpsEndpoints(t *testing.T) {
	env := newProductEnv(t, Guard{})

	w := doJSON(env.router, http.MethodGet, "/health", "", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("health: expected 200, got %d", w.Code)
	}
	if id := w.Header().Get("X-Request-ID"); id == "" {
		t.Error("expected a request id header")
	}

	w = doJSON(env.router, http.MethodGet, "/metrics", "", nil)
	if w.Code != http.StatusOK || !strings.Contains(w.Body.String(), "http_requests_total") {
		t.Errorf("metrics: expected prometheus output, got %d", w.Code)
	}

	w = doJSON(env.router, http.MethodGet, "/swagger/doc.json", "", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("swagger: expected 200, got %d", w.Code)
	}
	var doc map[string]any
	if err := json.Unmarshal(w.Body.Bytes(), &doc); err != nil {
		t.Fatalf("swagger doc is not JSON: %v", err)
	}
	paths, _ := doc["paths"].(map[string]any)
	if _, ok := paths["/api/products/search"]; !ok {
		t.Error("expected the search endpoint in the swagger doc")
	}
}
