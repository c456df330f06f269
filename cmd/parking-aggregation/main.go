package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	fiberlogger "github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/joho/godotenv"
	"go.uber.org/zap"

	httpapi "github.com/i474232898/bs-smart-parking/internal/api/http"
	"github.com/i474232898/bs-smart-parking/internal/config"
	"github.com/i474232898/bs-smart-parking/internal/location"
	"github.com/i474232898/bs-smart-parking/internal/logger"
	"github.com/i474232898/bs-smart-parking/internal/parking"
	"github.com/i474232898/bs-smart-parking/internal/parking/sources"
	"github.com/i474232898/bs-smart-parking/internal/scheduler"
	"github.com/i474232898/bs-smart-parking/internal/store"
	"github.com/i474232898/bs-smart-parking/internal/upstream"
	"github.com/i474232898/bs-smart-parking/internal/weather"
	"github.com/i474232898/bs-smart-parking/internal/weather/providers"
)

func main() {
	if err := godotenv.Load(); err != nil {
		log.Printf("INFO: No .env file found or error loading it: %v", err)
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	zl, err := logger.New(cfg.LogLevel)
	if err != nil {
		log.Fatalf("failed to build logger: %v", err)
	}
	defer zl.Sync()

	// Shared HTTP client for feeds and weather providers.
	httpClient := &http.Client{Timeout: cfg.HTTPTimeout}

	// Overpass enforces its own server-side timeout; allow a little headroom
	// and retry at most once.
	overpassClient := upstream.New("overpass",
		&http.Client{Timeout: cfg.OverpassTimeout + 5*time.Second},
		upstream.BackoffConfig{MaxRetries: 1, InitialInterval: 2 * time.Second, MaxInterval: 2 * time.Second})

	static := sources.NewStaticSource()
	street := sources.NewStreetSource(sources.StreetConfig{
		URL:       cfg.OverpassURL,
		BBox:      cfg.StreetBBox,
		Timeout:   cfg.OverpassTimeout,
		City:      cfg.CityName,
		Reference: cfg.Center,
	}, overpassClient, sources.NewOccupancyEstimator(cfg.Timezone, sources.RandomJitter(time.Now().UnixNano())), zl)
	live := sources.NewLiveSource(sources.LiveConfig{
		PrimaryURL: cfg.LiveFeedURL,
		SmartURL:   cfg.SmartFeedURL,
		City:       cfg.CityName,
		Center:     cfg.Center,
		Timeout:    cfg.HTTPTimeout,
	},
		upstream.New("live-primary", httpClient, upstream.DefaultBackoff),
		upstream.New("live-smart", httpClient, upstream.DefaultBackoff),
		zl)

	memStore := store.NewMemoryStore(cfg.StoreMaxAge)
	parkingSvc := parking.NewService(memStore, []parking.Source{static, street, live}, parking.Options{
		Fallback:              cfg.Center,
		StreetRefreshInterval: cfg.StreetRefreshMinInterval,
	}, zl)

	// Initial load of every source; later street refreshes happen on request only.
	startupCtx, cancelStartup := context.WithTimeout(context.Background(), cfg.OverpassTimeout+15*time.Second)
	report := parkingSvc.Refresh(startupCtx)
	cancelStartup()
	zl.Info("initial parking load finished",
		zap.String("refresh_id", report.ID),
		zap.Int64("took_ms", report.TookMs))

	sched := scheduler.New(cfg.LiveRefreshInterval, parkingSvc, zl)
	if err := sched.Start(); err != nil {
		zl.Fatal("failed to start scheduler", zap.Error(err))
	}
	defer sched.Stop()

	resolver := location.NewResolver(cfg.Center,
		location.GoogleGeocoder(cfg.GeocoderAPIKey, cfg.CityName, "Germany"), zl)

	weatherSvc := weather.NewService(weather.Location{
		City:        cfg.CityName,
		Country:     "DE",
		Coordinates: cfg.Center,
	}, []weather.Provider{
		providers.NewOpenWeatherProvider(upstream.New("openweather", httpClient, upstream.DefaultBackoff), cfg.OpenWeatherAPIKey),
		providers.NewWeatherAPIProvider(upstream.New("weatherapi", httpClient, upstream.DefaultBackoff), cfg.WeatherAPIKey),
	}, cfg.WeatherCacheTTL, zl)

	app := fiber.New(fiber.Config{
		AppName:               "bs-smart-parking",
		DisableStartupMessage: true,
		ReadTimeout:           10 * time.Second,
		WriteTimeout:          cfg.OverpassTimeout + 15*time.Second,
		ErrorHandler: func(c *fiber.Ctx, err error) error {
			code := fiber.StatusInternalServerError
			var fe *fiber.Error
			if errors.As(err, &fe) {
				code = fe.Code
			}
			return c.Status(code).JSON(fiber.Map{
				"error":   true,
				"message": err.Error(),
			})
		},
	})

	app.Use(fiberlogger.New())
	app.Use(recover.New())

	app.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{
			"status":  "ok",
			"service": "bs-smart-parking",
		})
	})

	httpapi.RegisterRoutes(app, parkingSvc, resolver, weatherSvc)

	go func() {
		if err := app.Listen(":" + cfg.Port); err != nil {
			zl.Error("fiber server stopped", zap.Error(err))
		}
	}()
	zl.Info("listening", zap.String("port", cfg.Port), zap.String("city", cfg.CityName))

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	<-ctx.Done()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := app.ShutdownWithContext(shutdownCtx); err != nil {
		zl.Error("error during shutdown", zap.Error(err))
	}
}
