package routes

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/jmcastellanos/tienda-backend/api/controllers"
	"github.com/jmcastellanos/tienda-backend/api/middleware"
	ordersvc "github.com/jmcastellanos/tienda-backend/internal/orders"
	productsvc "github.com/jmcastellanos/tienda-backend/internal/products"
	"github.com/jmcastellanos/tienda-backend/internal/reservations"
	"github.com/jmcastellanos/tienda-backend/pkg/config"
	"github.com/jmcastellanos/tienda-backend/pkg/logger"
	"github.com/jmcastellanos/tienda-backend/pkg/redis"
)

func NewRouter(
	cfg *config.Config,
	logg *logger.Logger,
	dbPinger controllers.Pinger,
	redisClient *redis.Client,
	reservationService reservations.Service,
	orderService ordersvc.Service,
	productService productsvc.Service,
) http.Handler {
	r := chi.NewRouter()
	r.Use(
		middleware.Recoverer(logg),
		middleware.RequestID(logg),
		middleware.Logging(logg),
	)

	r.Route("/health", func(r chi.Router) {
		r.Get("/live", controllers.HealthLive(cfg))
		r.Get("/ready", controllers.HealthReady(cfg, logg, map[string]controllers.Pinger{
			"db":    dbPinger,
			"redis": redisClient,
		}))
	})

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(middleware.Identity(logg))
		r.Use(middleware.Idempotency(redisClient, logg))

		r.Route("/inventory", func(r chi.Router) {
			r.Post("/reserve", controllers.ReserveStock(reservationService, logg))
			r.Post("/release", controllers.ReleaseStock(reservationService, logg))
			r.Post("/settle", controllers.SettleStock(reservationService, logg))
			r.With(middleware.CronSecret(cfg.Cron.Secret, logg)).
				Get("/cleanup", controllers.CleanupReservations(reservationService, cfg.Reservations.SweepBatch, logg))
		})

		r.Route("/orders", func(r chi.Router) {
			r.Post("/", controllers.CreateOrder(orderService, logg))
			r.Get("/", controllers.ListOrders(orderService, logg))
			r.Get("/{orderId}", controllers.GetOrder(orderService, logg))
			r.Patch("/{orderId}/status", controllers.UpdateOrderStatus(orderService, logg))
			r.Post("/{orderId}/cancel", controllers.CancelOrder(orderService, logg))
		})

		r.Route("/products", func(r chi.Router) {
			r.Post("/", controllers.CreateProduct(productService, logg))
			r.Get("/", controllers.ListProducts(productService, logg))
			r.Get("/slug/{slug}", controllers.GetProductBySlug(productService, logg))
			r.Get("/{productId}", controllers.GetProduct(productService, logg))
			r.Patch("/{productId}", controllers.UpdateProduct(productService, logg))
			r.Delete("/{productId}", controllers.DeleteProduct(productService, logg))
		})
	})

	return r
}
