// Package router assembles the chi routers of the product and user services.
package router

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	httpSwagger "github.com/swaggo/http-swagger/v2"

	"github.com/rogerio-castellano/product-management/docs"
	"github.com/rogerio-castellano/product-management/internal/auth"
	"github.com/rogerio-castellano/product-management/internal/http/ban"
	"github.com/rogerio-castellano/product-management/internal/http/handlers"
	mw "github.com/rogerio-castellano/product-management/internal/http/middleware"
	rl "github.com/rogerio-castellano/product-management/internal/http/rate_limiter"
	"github.com/rogerio-castellano/product-management/internal/models"
)

// Guard throttles the public auth endpoints.
type Guard struct {
	Limiter *rl.Limiter
	Bans    ban.Store
}

func (g Guard) middleware() func(http.Handler) http.Handler {
	if g.Limiter == nil || g.Bans == nil {
		return func(next http.Handler) http.Handler { return next }
	}
	return mw.RateLimit(g.Limiter, g.Bans)
}

func base(swaggerInstance string) chi.Router {
	r := chi.NewRouter()
	r.Use(chimw.RealIP)
	r.Use(mw.RequestLogger)
	r.Use(chimw.Recoverer)
	r.Use(mw.Metrics)

	r.Get("/health", handlers.Health)
	r.Handle("/metrics", promhttp.Handler())
	r.Get("/swagger/*", httpSwagger.Handler(
		httpSwagger.URL("/swagger/doc.json"),
		httpSwagger.InstanceName(swaggerInstance),
	))
	return r
}

func NewProductRouter(api *handlers.ProductAPI, issuer *auth.TokenIssuer, guard Guard) http.Handler {
	r := base(docs.ProductsInstance)

	r.Route("/api/auth", func(r chi.Router) {
		r.Use(guard.middleware())
		r.Post("/register", api.Register)
		r.Post("/login", api.Login)
		r.Post("/refresh", api.Refresh)
	})

	r.Route("/api/products", func(r chi.Router) {
		r.Get("/", api.ListProducts)
		r.Get("/search", api.SearchProducts)
		r.Post("/search", api.SearchProductsJSON)
		r.Get("/{id}", api.GetProduct)

		r.Group(func(r chi.Router) {
			r.Use(mw.Authenticate(issuer))
			r.Post("/", api.CreateProduct)
			r.Post("/import", api.ImportProducts)
			r.Put("/{id}", api.UpdateProduct)
			r.Delete("/{id}", api.DeleteProduct)
		})
	})

	r.With(mw.Authenticate(issuer)).Get("/api/stats/dashboard", api.GetDashboardMetrics)
	return r
}

func NewUserRouter(api *handlers.UserAPI, issuer *auth.TokenIssuer, guard Guard) http.Handler {
	r := base(docs.UsersInstance)

	r.Route("/api/auth", func(r chi.Router) {
		r.Use(guard.middleware())
		r.Post("/register", api.RegisterUser)
		r.Post("/login", api.LoginUser)
		r.Post("/logout", api.Logout)
	})

	r.Route("/api/users", func(r chi.Router) {
		r.Use(mw.Authenticate(issuer))
		r.Post("/", api.CreateUser)
		r.Get("/", api.ListUsers)
		r.Get("/active", api.ListActiveUsers)
		r.Get("/me", api.CurrentUser)
		r.Get("/products", api.UserProducts)
		r.Get("/username/{username}", api.GetUserByUsername)
		r.Get("/{id}", api.GetUser)
		r.Put("/{id}", api.UpdateUser)

		r.Group(func(r chi.Router) {
			r.Use(mw.RequireRole(models.RoleAdmin))
			r.Delete("/{id}", api.DeleteUser)
			r.Patch("/{id}/activate", api.ActivateUser)
			r.Patch("/{id}/deactivate", api.DeactivateUser)
		})
	})

	r.With(mw.Authenticate(issuer), mw.RequireRole(models.RoleAdmin)).Get("/api/admin/bans", api.ListBans)
	return r
}
