package routes

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/fornihq/forni-backend/api/controllers"
	"github.com/fornihq/forni-backend/api/middleware"
	"github.com/fornihq/forni-backend/internal/analytics"
	"github.com/fornihq/forni-backend/internal/auth"
	bakerysvc "github.com/fornihq/forni-backend/internal/bakeries"
	ordersvc "github.com/fornihq/forni-backend/internal/orders"
	productsvc "github.com/fornihq/forni-backend/internal/products"
	recommendationsvc "github.com/fornihq/forni-backend/internal/recommendations"
	reviewsvc "github.com/fornihq/forni-backend/internal/reviews"
	surplusbagsvc "github.com/fornihq/forni-backend/internal/surplusbags"
	"github.com/fornihq/forni-backend/internal/users"
	"github.com/fornihq/forni-backend/pkg/auth/session"
	"github.com/fornihq/forni-backend/pkg/config"
	"github.com/fornihq/forni-backend/pkg/db"
	"github.com/fornihq/forni-backend/pkg/logger"
	"github.com/fornihq/forni-backend/pkg/metrics"
	"github.com/fornihq/forni-backend/pkg/redis"
)

// Services bundles the service graph the router exposes over HTTP.
type Services struct {
	Auth            auth.Service
	Register        auth.RegisterService
	Users           users.Service
	Bakeries        bakerysvc.Service
	Products        productsvc.Service
	SurplusBags     surplusbagsvc.Service
	Orders          ordersvc.Service
	Reviews         reviewsvc.Service
	Recommendations recommendationsvc.Service
	Analytics       analytics.Service
}

func NewRouter(
	cfg *config.Config,
	logg *logger.Logger,
	dbClient *db.Client,
	redisClient *redis.Client,
	sessionManager *session.Manager,
	httpMetrics *metrics.HTTPMetrics,
	promRegistry *prometheus.Registry,
	svcs Services,
) http.Handler {
	r := chi.NewRouter()

	r.Use(
		middleware.Recoverer(logg),
		middleware.RequestID(logg),
		middleware.Logging(logg),
		middleware.Metrics(httpMetrics),
		middleware.CORS(),
	)

	loginPolicy := middleware.NewAuthRateLimitPolicy(
		"login",
		cfg.AuthRateLimit.LoginWindow,
		cfg.AuthRateLimit.LoginIPLimit,
		cfg.AuthRateLimit.LoginEmailLimit,
	)
	registerPolicy := middleware.NewAuthRateLimitPolicy(
		"register",
		cfg.AuthRateLimit.RegisterWindow,
		cfg.AuthRateLimit.RegisterIPLimit,
		cfg.AuthRateLimit.RegisterEmailLimit,
	)

	r.Route("/health", func(r chi.Router) {
		r.Get("/live", controllers.HealthLive(cfg))
		r.Get("/ready", controllers.HealthReady(cfg, logg, controllers.ReadyDeps(dbClient, redisClient)))
	})

	if promRegistry != nil {
		r.Method(http.MethodGet, "/metrics", promhttp.HandlerFor(promRegistry, promhttp.HandlerOpts{}))
	}

	r.Group(func(r chi.Router) {
		r.Use(middleware.Idempotency(redisClient, logg))

		r.With(middleware.AuthRateLimit(registerPolicy, redisClient, logg)).
			Post("/register", controllers.AuthRegister(svcs.Register, svcs.Auth, logg))
		r.With(middleware.AuthRateLimit(loginPolicy, redisClient, logg)).
			Post("/login", controllers.AuthLogin(svcs.Auth, logg))
		r.Post("/refresh", controllers.AuthRefresh(svcs.Auth, logg))
		r.Post("/logout", controllers.AuthLogout(svcs.Auth, cfg.JWT, logg))

		// Catalog reads stay public so customers can browse before signing up.
		r.Get("/bakery", controllers.BakeryList(svcs.Bakeries, logg))
		r.Get("/bakery/nearby", controllers.BakeryNearby(svcs.Bakeries, logg))
		r.Get("/bakery/{bakeryId}", controllers.BakeryGet(svcs.Bakeries, logg))
		r.Get("/bakery/{bakeryId}/reviews", controllers.BakeryReviews(svcs.Reviews, logg))
		r.Get("/product", controllers.ProductList(svcs.Products, logg))
		r.Get("/product/{productId}", controllers.ProductGet(svcs.Products, logg))
		r.Get("/surplus_bag", controllers.SurplusBagList(svcs.SurplusBags, logg))
		r.Get("/surplus_bag/{bagId}", controllers.SurplusBagGet(svcs.SurplusBags, logg))
		r.Get("/review", controllers.ReviewList(svcs.Reviews, logg))
		r.Get("/review/{reviewId}", controllers.ReviewGet(svcs.Reviews, logg))

		r.Group(func(r chi.Router) {
			r.Use(middleware.Auth(cfg.JWT, sessionManager, logg))

			r.Get("/profile", controllers.Profile(svcs.Users, logg))
			r.Put("/profile", controllers.ProfileUpdate(svcs.Users, logg))

			r.Post("/bakery", controllers.BakeryCreate(svcs.Bakeries, logg))
			r.Get("/bakery/my", controllers.BakeryMine(svcs.Bakeries, logg))
			r.Put("/bakery/{bakeryId}", controllers.BakeryUpdate(svcs.Bakeries, logg))
			r.Delete("/bakery/{bakeryId}", controllers.BakeryDelete(svcs.Bakeries, logg))

			r.Post("/product", controllers.ProductCreate(svcs.Products, logg))
			r.Put("/product/{productId}", controllers.ProductUpdate(svcs.Products, logg))
			r.Delete("/product/{productId}", controllers.ProductDelete(svcs.Products, logg))

			r.Post("/surplus_bag", controllers.SurplusBagCreate(svcs.SurplusBags, logg))
			r.Put("/surplus_bag/{bagId}", controllers.SurplusBagUpdate(svcs.SurplusBags, logg))
			r.Delete("/surplus_bag/{bagId}", controllers.SurplusBagDelete(svcs.SurplusBags, logg))

			r.Post("/order", controllers.OrderCreate(svcs.Orders, logg))
			r.Get("/order", controllers.OrderList(svcs.Orders, logg))
			r.Get("/order/{orderId}", controllers.OrderGet(svcs.Orders, logg))
			r.Put("/order/{orderId}", controllers.OrderUpdateStatus(svcs.Orders, logg))
			r.Post("/order/{orderId}/confirm-pickup", controllers.OrderConfirmPickup(svcs.Orders, logg))

			r.Post("/review", controllers.ReviewCreate(svcs.Reviews, logg))
			r.Put("/review/{reviewId}", controllers.ReviewUpdate(svcs.Reviews, logg))
			r.Delete("/review/{reviewId}", controllers.ReviewDelete(svcs.Reviews, logg))

			r.Get("/recommendation", controllers.RecommendationList(svcs.Recommendations, logg))

			r.Get("/analytics/waste-prevented", controllers.AnalyticsWastePrevented(svcs.Analytics, logg))
		})
	})

	return r
}
