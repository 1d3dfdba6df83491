package main

import (
	"context"
	"database/sql"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/fiber/v2/middleware/requestid"
	jwtware "github.com/gofiber/jwt/v2"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"github.com/itsalifarrukh/hb-apparel/internal/address"
	"github.com/itsalifarrukh/hb-apparel/internal/apperr"
	"github.com/itsalifarrukh/hb-apparel/internal/cart"
	"github.com/itsalifarrukh/hb-apparel/internal/category"
	"github.com/itsalifarrukh/hb-apparel/internal/checkout"
	"github.com/itsalifarrukh/hb-apparel/internal/config"
	"github.com/itsalifarrukh/hb-apparel/internal/database"
	"github.com/itsalifarrukh/hb-apparel/internal/deal"
	"github.com/itsalifarrukh/hb-apparel/internal/events"
	"github.com/itsalifarrukh/hb-apparel/internal/idempotency"
	"github.com/itsalifarrukh/hb-apparel/internal/logging"
	"github.com/itsalifarrukh/hb-apparel/internal/metrics"
	"github.com/itsalifarrukh/hb-apparel/internal/order"
	"github.com/itsalifarrukh/hb-apparel/internal/payment"
	"github.com/itsalifarrukh/hb-apparel/internal/paymentmethod"
	"github.com/itsalifarrukh/hb-apparel/internal/product"
	"github.com/itsalifarrukh/hb-apparel/internal/recommended"
	"github.com/itsalifarrukh/hb-apparel/internal/response"
	"github.com/itsalifarrukh/hb-apparel/internal/user"
	"github.com/itsalifarrukh/hb-apparel/internal/webhook"
	"github.com/itsalifarrukh/hb-apparel/internal/wishlist"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		bootLogger := logging.New("info", false)
		bootLogger.Fatal().Err(err).Msg("load config")
	}
	logger := logging.New(cfg.LogLevel, cfg.LogPretty)

	// money goes over the wire as JSON numbers
	decimal.MarshalJSONWithoutQuotes = true

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	db := mustOpenDB(ctx, cfg, logger)
	defer db.Close()

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewDBStatsCollector(db, "hb_apparel"))
	m := metrics.New(reg)

	publisher := newPublisher(cfg, logger)
	defer publisher.Close()

	gateway := newGateway(cfg, logger)
	tx := database.NewSQLTx(db)

	userService := user.NewService(user.NewPostgresRepository(db))
	userHandler := user.NewHandler(userService, cfg.JWTSecret, cfg.JWTTTL)

	productRepo := product.NewPostgresRepository(db)
	productService := product.NewService(productRepo, deal.NewPostgresRepository(db))
	productHandler := product.NewHandler(productService)

	recommendedHandler := recommended.NewHandler(recommended.NewService(productService))

	categoryHandler := category.NewHandler(category.NewService(category.NewPostgresRepository(db)))

	cartService := cart.NewService(cart.NewPostgresRepository(db), productService, tx)
	cartHandler := cart.NewHandler(cartService)

	wishlistHandler := wishlist.NewHandler(wishlist.NewService(wishlist.NewPostgresRepository(db), productService, cartService, tx))

	addressService := address.NewService(address.NewPostgresRepository(db), tx)
	addressHandler := address.NewHandler(addressService)

	customers := payment.NewCustomerResolver(userService, gateway)
	methodService := paymentmethod.NewService(paymentmethod.NewPostgresRepository(db), gateway, customers, userService, tx, logger)
	methodHandler := paymentmethod.NewHandler(methodService)

	orderService := order.NewService(order.NewPostgresRepository(db), productRepo, tx, publisher, cfg.Kafka.OrderTopic, logger)
	orderHandler := order.NewHandler(orderService)

	checkoutService := checkout.NewService(checkout.Deps{
		Carts:          cartService,
		Addresses:      addressService,
		PaymentMethods: methodService,
		Users:          userService,
		Orders:         orderService,
		Gateway:        gateway,
		Customers:      customers,
		Tx:             tx,
		Metrics:        m,
		Logger:         logger,
	}, checkout.Config{Currency: cfg.Payment.Currency, ReturnURL: cfg.Payment.ReturnURL})
	guard := idempotency.Middleware(newIdempotencyStore(ctx, cfg, logger), cfg.Redis.IdempotencyTTL, logger)
	checkoutHandler := checkout.NewHandler(checkoutService, guard)

	webhookHandler := webhook.NewHandler(webhook.NewProcessor(webhook.Options{
		Verifier:        gateway,
		Store:           webhook.NewPostgresStore(db),
		Orders:          orderService,
		Methods:         methodService,
		Tx:              tx,
		Publisher:       publisher,
		DeadLetterTopic: cfg.Kafka.DeadLetterTopic,
		Metrics:         m,
		Logger:          logger,
	}))

	app := fiber.New(fiber.Config{
		ErrorHandler: response.ErrorHandler(logger),
		BodyLimit:    1 << 20,
	})
	app.Use(recover.New())
	app.Use(requestid.New())
	setupCORS(app, cfg.CORSOrigins)
	app.Use(logging.Middleware(logger, user.LookupID))
	app.Use(m.Middleware())

	app.Get("/healthz", func(c *fiber.Ctx) error {
		if err := db.PingContext(c.UserContext()); err != nil {
			return apperr.Internal("database unreachable", err)
		}
		return response.OK(c, "ok", nil)
	})
	app.Get("/metrics", m.Handler())

	userHandler.RegisterPublicRoutes(app)
	categoryHandler.RegisterPublicRoutes(app)
	recommendedHandler.RegisterPublicRoutes(app)
	productHandler.RegisterPublicRoutes(app)
	webhookHandler.RegisterPublicRoutes(app)

	app.Use(jwtware.New(jwtware.Config{
		SigningKey: []byte(cfg.JWTSecret),
		ErrorHandler: func(c *fiber.Ctx, err error) error {
			return response.Fail(c, apperr.Unauthorized("Unauthorized"))
		},
	}))

	userHandler.RegisterProtectedRoutes(app)
	productHandler.RegisterProtectedRoutes(app)
	cartHandler.RegisterProtectedRoutes(app)
	wishlistHandler.RegisterProtectedRoutes(app)
	addressHandler.RegisterProtectedRoutes(app)
	methodHandler.RegisterProtectedRoutes(app)
	checkoutHandler.RegisterProtectedRoutes(app)
	orderHandler.RegisterProtectedRoutes(app)

	go func() {
		<-ctx.Done()
		logger.Info().Msg("shutting down")
		if err := app.ShutdownWithTimeout(10 * time.Second); err != nil {
			logger.Error().Err(err).Msg("shutdown")
		}
	}()

	logger.Info().Str("addr", cfg.Addr).Msg("listening")
	if err := app.Listen(cfg.Addr); err != nil {
		logger.Fatal().Err(err).Msg("server stopped")
	}
}

func setupCORS(app *fiber.App, origins string) {
	app.Use(cors.New(cors.Config{
		AllowOrigins: origins,
		AllowMethods: "GET,POST,HEAD,PUT,DELETE,PATCH",
		AllowHeaders: strings.Join([]string{"Origin", "Content-Type", "Accept", "Authorization", idempotency.Header}, ", "),
	}))
}

func mustOpenDB(ctx context.Context, cfg config.Config, logger zerolog.Logger) *sql.DB {
	db, err := database.Open(ctx, cfg.DatabaseURL)
	if err != nil {
		logger.Fatal().Err(err).Msg("open database")
	}
	if cfg.RunMigrations {
		if err := database.Migrate(db); err != nil {
			logger.Fatal().Err(err).Msg("migrate database")
		}
	}
	return db
}

func newPublisher(cfg config.Config, logger zerolog.Logger) events.Publisher {
	if len(cfg.Kafka.Brokers) == 0 {
		logger.Warn().Msg("KAFKA_BROKERS not set, order events are not published")
		return events.NopPublisher{}
	}
	return events.NewKafkaPublisher(cfg.Kafka.Brokers, logger)
}

func newGateway(cfg config.Config, logger zerolog.Logger) payment.Gateway {
	if cfg.Payment.SecretKey == "" {
		logger.Warn().Msg("PAYMENT_SECRET_KEY not set, using the in-process fake payment gateway")
		return payment.NewFakeGateway(cfg.Payment.WebhookSecret)
	}
	return payment.NewStripeGateway(cfg.Payment.SecretKey, cfg.Payment.WebhookSecret)
}

func newIdempotencyStore(ctx context.Context, cfg config.Config, logger zerolog.Logger) idempotency.Store {
	if cfg.Redis.Addr == "" {
		logger.Warn().Msg("REDIS_ADDR not set, idempotency keys are kept in process memory")
		return idempotency.NewMemoryStore()
	}
	client := redis.NewClient(&redis.Options{Addr: cfg.Redis.Addr, Password: cfg.Redis.Password})
	pingCtx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		logger.Warn().Err(err).Str("addr", cfg.Redis.Addr).Msg("redis unreachable, requests pass through until it recovers")
	}
	return idempotency.NewRedisStore(client, "hb-apparel:idempotency:")
}
