package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"storefront/internal/cartstore"
	"storefront/internal/config"
	"storefront/internal/handler"
	"storefront/internal/infra/cache"
	"storefront/internal/infra/db"
	"storefront/internal/infra/kafka"
	"storefront/internal/infra/payment"
	infraRepo "storefront/internal/infra/repository"
	"storefront/internal/logger"
	"storefront/internal/messaging"
	"storefront/internal/pricing"
	"storefront/internal/server"
	"storefront/internal/usecase"

	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run() error {
	//.env（本番は環境変数だけ）
	if err := godotenv.Load(); err != nil && isProd(os.Getenv("GO_ENV")) {
		return fmt.Errorf("load .env: %w", err)
	}

	cfg, err := config.Load()
	if err != nil {
		return err
	}

	log, err := logger.New(cfg.GoEnv, cfg.LogLevel)
	if err != nil {
		return err
	}
	defer func() { _ = log.Sync() }()

	//DB接続
	gormDB, err := db.Connect(cfg.Database, log)
	if err != nil {
		return err
	}
	if err := db.Migrate(gormDB, log); err != nil {
		return err
	}

	//Repository（GORM実装）生成
	txm := infraRepo.NewTxManagerGorm(gormDB)
	productRepo := infraRepo.NewProductGormRepository(gormDB)
	cartRepo := infraRepo.NewCartGormRepository(gormDB)
	cartItemRepo := infraRepo.NewCartItemGormRepository(gormDB)
	discountRepo := infraRepo.NewDiscountCodeGormRepository(gormDB)
	orderRepo := infraRepo.NewOrderGormRepository(gormDB)
	orderItemRepo := infraRepo.NewOrderItemGormRepository(gormDB)

	mirror, closeMirror := newCartMirror(cfg.Redis, log)
	defer closeMirror()

	publisher, closePublisher := newPublisher(cfg.Kafka, log)
	defer closePublisher()

	provider := payment.NewStripeProvider(cfg.Stripe.SecretKey, cfg.Stripe.WebhookSecret, log)

	//Usecase生成
	cartSvc := usecase.NewCartService(txm, cartRepo, cartItemRepo, productRepo, discountRepo, orderRepo, mirror, log.Named("cart"))
	checkoutSvc := usecase.NewCheckoutService(
		txm, cartRepo, cartItemRepo, productRepo, discountRepo, orderRepo, orderItemRepo,
		provider, publisher, mirror, checkoutConfig(cfg), log.Named("checkout"),
	)
	webhookSvc := usecase.NewWebhookService(txm, orderRepo, checkoutSvc, provider, publisher, log.Named("webhook"))
	orderUC := usecase.NewOrderUsecase(orderRepo, orderItemRepo)
	productUC := usecase.NewProductUsecase(productRepo)

	//Handler生成
	sessions := handler.Sessions{Secure: cfg.CookieSecure}
	e := server.New(cfg, log)
	server.RegisterRoutes(e, server.Handlers{
		Health:   handler.NewHealthHandler(pinger(gormDB)),
		Product:  handler.NewProductHandler(productUC),
		Cart:     handler.NewCartHandler(cartSvc, sessions),
		Checkout: handler.NewCheckoutHandler(checkoutSvc, sessions),
		Order:    handler.NewOrderHandler(orderUC, sessions),
		Webhook:  handler.NewWebhookHandler(webhookSvc),
	})

	//Server起動
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	return server.Start(ctx, e, cfg.Port, log)
}

func isProd(env string) bool {
	return env == "prod" || env == "production"
}

func checkoutConfig(cfg config.Config) usecase.CheckoutConfig {
	return usecase.CheckoutConfig{
		Currency: cfg.Pricing.Currency,
		TaxRate:  cfg.Pricing.TaxRate,
		Shipping: pricing.ShippingConfig{
			StandardRate:          cfg.Pricing.ShippingStandard,
			ExpressRate:           cfg.Pricing.ShippingExpress,
			ExpressPerPound:       cfg.Pricing.ShippingExpressPerLb,
			FreeShippingThreshold: cfg.Pricing.FreeShippingThreshold,
		},
		//{CHECKOUT_SESSION_ID} はStripeが置き換える
		SuccessURL: cfg.FEURL + "/checkout/success?session_id={CHECKOUT_SESSION_ID}",
		CancelURL:  cfg.FEURL + "/cart",
	}
}

// REDIS_ADDRが無ければキャッシュ無し
func newCartMirror(cfg config.Redis, log *zap.Logger) (cartstore.Persister, func()) {
	if cfg.Addr == "" {
		log.Info("cart cache disabled")
		return cache.Disabled{}, func() {}
	}
	client := redis.NewClient(&redis.Options{Addr: cfg.Addr, Password: cfg.Password})
	return cache.NewCartRedisCache(client), func() {
		if err := client.Close(); err != nil {
			log.Warn("failed to close redis", zap.Error(err))
		}
	}
}

// KAFKA_BROKERSが無ければイベントは送らない
func newPublisher(cfg config.Kafka, log *zap.Logger) (messaging.Publisher, func()) {
	if len(cfg.Brokers) == 0 {
		log.Info("order events disabled")
		return messaging.Noop{}, func() {}
	}
	p := kafka.NewOrderPublisher(cfg.Brokers, cfg.OrderTopic)
	return p, func() {
		if err := p.Close(); err != nil {
			log.Warn("failed to close kafka writer", zap.Error(err))
		}
	}
}

func pinger(gormDB *gorm.DB) handler.Pinger {
	return func(ctx context.Context) error {
		sqlDB, err := gormDB.DB()
		if err != nil {
			return err
		}
		return sqlDB.PingContext(ctx)
	}
}
