package config

import (
	"context"
	"io"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/log"
	"github.com/gofiber/fiber/v2/middleware/limiter"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"gorm.io/gorm"

	"github.com/kazuki11111/expiry-tracker/internal/api/handlers"
	"github.com/kazuki11111/expiry-tracker/internal/api/routes"
	"github.com/kazuki11111/expiry-tracker/internal/middleware"
	"github.com/kazuki11111/expiry-tracker/internal/utils"
	"github.com/kazuki11111/expiry-tracker/internal/utils/clock"
	"github.com/kazuki11111/expiry-tracker/internal/utils/mailing"
	"github.com/kazuki11111/expiry-tracker/internal/utils/storage"
	"github.com/kazuki11111/expiry-tracker/pkg/changefeed"
	"github.com/kazuki11111/expiry-tracker/pkg/memo"
	"github.com/kazuki11111/expiry-tracker/pkg/notification"
	"github.com/kazuki11111/expiry-tracker/pkg/product"
	"github.com/kazuki11111/expiry-tracker/pkg/receipt"
	"github.com/kazuki11111/expiry-tracker/pkg/scan"
	"github.com/kazuki11111/expiry-tracker/pkg/settings"
)

// Application is the wired server plus the background workers main runs
// next to it.
type Application struct {
	App       *fiber.App
	Scheduler *notification.Scheduler
	Scans     scan.ScanService
}

func NewApp(ctx context.Context, db *gorm.DB, accessLog io.Writer) (*Application, error) {
	utils.InitValidator()
	app := fiber.New(fiber.Config{
		AppName:               "expiry-tracker",
		DisableStartupMessage: true,
		BodyLimit:             10 * 1024 * 1024,
	})
	middlewares := middleware.NewMiddleware()
	validator := utils.Validate
	loc := utils.GetLocation()
	clk := clock.NewRealClock()

	// setting up logging and limiter
	app.Use(logger.New(logger.Config{
		TimeFormat: "2006-01-02 15:04:05",
		TimeZone:   loc.String(),
		Output:     accessLog,
	}))

	app.Use(limiter.New(limiter.Config{
		Max:        30,
		Expiration: 1 * time.Second,
		Next: func(c *fiber.Ctx) bool {
			return strings.HasSuffix(c.Path(), "/stream")
		},
	}))

	// utils
	hub := changefeed.NewHub()
	s3, err := storage.NewAwsS3(ctx)
	if err != nil {
		return nil, err
	}
	if s3 == nil {
		log.Info("receipt image storage disabled")
	}

	// Repository
	productRepository := product.NewProductRepository(db)
	receiptRepository := receipt.NewReceiptRepository(db)
	settingsRepository := settings.NewSettingsRepository(db)
	memoRepository := memo.NewMemoRepository(db)

	// Service
	productService := product.NewProductService(productRepository, hub, clk, loc)
	receiptService := receipt.NewReceiptService(receiptRepository, s3, hub, clk)
	settingsService := settings.NewSettingsService(settingsRepository, hub)
	memoService := memo.NewMemoService(memoRepository, hub, clk)
	sessions := scan.NewSessionStore(utils.GetDuration("SCAN_SESSION_TTL", 2*time.Hour), clk)
	scanService := scan.NewScanService(newRecognizer(), sessions, productService, receiptService)

	evaluator := notification.NewEvaluator(settingsService, productService, newSink(clk, loc))
	scheduler := notification.NewScheduler(evaluator,
		notification.WithInterval(utils.GetDuration("NOTIFY_INTERVAL", notification.DefaultInterval)),
		notification.WithPassTimeout(utils.GetDuration("NOTIFY_PASS_TIMEOUT", 5*time.Minute)),
	)

	// Handler
	productHandler := handlers.NewProductHandler(productService, hub, validator)
	scanHandler := handlers.NewScanHandler(scanService, validator)
	settingsHandler := handlers.NewSettingsHandler(settingsService, validator)
	memoHandler := handlers.NewMemoHandler(memoService, hub)
	notificationHandler := handlers.NewNotificationHandler(scheduler)

	// routes
	routesConfig := routes.Config{
		App:                 app,
		ProductHandler:      productHandler,
		ScanHandler:         scanHandler,
		SettingsHandler:     settingsHandler,
		MemoHandler:         memoHandler,
		NotificationHandler: notificationHandler,
		Middleware:          middlewares,
	}
	routesConfig.Setup()

	return &Application{
		App:       app,
		Scheduler: scheduler,
		Scans:     scanService,
	}, nil
}

// newRecognizer prefers an explicit OCR proxy, then a direct API key. It
// returns nil when neither is configured.
func newRecognizer() scan.Recognizer {
	if url := utils.GetConfig("OCR_PROXY_URL"); url != "" {
		log.Infow("receipt recognition via proxy", "url", url)
		return scan.NewProxyRecognizer(url)
	}
	if key := utils.GetConfig("ANTHROPIC_API_KEY"); key != "" {
		log.Infow("receipt recognition via api", "model", utils.GetConfig("ANTHROPIC_MODEL"))
		return scan.NewAnthropicRecognizer(key, utils.GetConfig("ANTHROPIC_MODEL"))
	}
	log.Warn("receipt recognition not configured")
	return nil
}

func newSink(clk clock.Clock, loc *time.Location) notification.Sink {
	sinks := notification.MultiSink{notification.LogSink{}}
	mailConfig := mailing.LoadMailConfig()
	if mailConfig.Configured() {
		sinks = append(sinks, notification.NewMailSink(mailing.NewMailer(mailConfig), mailConfig))
	}
	return notification.NewDedupeSink(sinks, clk, loc)
}
