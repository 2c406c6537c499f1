package routes

import (
	"net/http"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/rs/zerolog"

	"github.com/lonshanworld/inventory-forecasting/handlers"
	"github.com/lonshanworld/inventory-forecasting/middleware"
)

// AppOptions configures the fiber app built by NewApp.
type AppOptions struct {
	BodyLimit    int
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
	Logger       zerolog.Logger
	// Recorder and Metrics may be nil; /metrics is only mounted when
	// Metrics is set.
	Recorder middleware.RequestRecorder
	Metrics  http.Handler
}

// NewApp builds the fiber app with the shared middleware and every route.
func NewApp(h *handlers.Handler, opts AppOptions) *fiber.App {
	app := fiber.New(fiber.Config{
		AppName:               "inventory-forecasting",
		BodyLimit:             opts.BodyLimit,
		ReadTimeout:           opts.ReadTimeout,
		WriteTimeout:          opts.WriteTimeout,
		ErrorHandler:          middleware.ErrorHandler,
		DisableStartupMessage: true,
	})

	app.Use(cors.New())
	app.Use(middleware.RequestID)
	app.Use(middleware.Logger(opts.Logger, opts.Recorder))
	app.Use(recover.New())

	SetupRoutes(app, h)
	if opts.Metrics != nil {
		app.Get("/metrics", adaptor.HTTPHandler(opts.Metrics))
	}
	return app
}

// SetupRoutes defines all the routes for the application.
func SetupRoutes(app *fiber.App, h *handlers.Handler) {
	app.Get("/healthz", h.HandleHealth)
	app.Get("/version", h.HandleVersion)

	// --- Sales Data Routes ---
	sales := app.Group("/sales-data")
	sales.Post("/upload", h.HandleUploadSalesData)
	sales.Post("/", h.HandleCreateSalesRecord)
	sales.Get("/", h.HandleGetSalesData)

	// --- Forecast Routes ---
	forecasts := app.Group("/forecasts")
	forecasts.Post("/", h.HandleGenerateForecast)
	forecasts.Get("/", h.HandleListForecasts)
	forecasts.Get("/:productId/history", h.HandleGetForecastHistory)
	forecasts.Get("/:productId", h.HandleGetForecast)

	// --- Product Catalog Routes ---
	products := app.Group("/products")
	products.Get("/", h.HandleListProducts)
	products.Post("/", h.HandleCreateProduct)
	products.Get("/:id", h.HandleGetProduct)
	products.Put("/:id", h.HandleUpdateProduct)
	products.Delete("/:id", h.HandleDeleteProduct)
}
