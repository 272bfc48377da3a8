package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"
)

// Configはアプリ全体の設定
type Config struct {
	Port string // サーバーポート（8080）

	Database Database

	JWTSecret string // JWT署名シークレット（発行は別サービス、ここでは検証だけ）

	GoEnv    string // dev/prod
	FEURL    string // フロントURL（CORS、決済後のリダイレクト先）
	LogLevel string // debug/info/warn/error

	//cart_session cookie の Secure 属性
	CookieSecure bool

	Stripe  Stripe
	Pricing Pricing
	Redis   Redis
	Kafka   Kafka
}

type Database struct {
	URL      string // DATABASE_URL（あれば優先）
	User     string
	Password string
	Name     string
	Host     string
	Port     int
	SSLMode  string
}

type Stripe struct {
	SecretKey     string
	WebhookSecret string
}

// 金額系の設定
type Pricing struct {
	Currency              string          // usd
	TaxRate               decimal.Decimal // 0.0825 など
	ShippingStandard      decimal.Decimal
	ShippingExpress       decimal.Decimal
	ShippingExpressPerLb  decimal.Decimal
	FreeShippingThreshold decimal.Decimal
}

// Addr が空ならカートのキャッシュを使わない
type Redis struct {
	Addr     string
	Password string
}

// Brokers が空ならイベントを送らない
type Kafka struct {
	Brokers    []string
	OrderTopic string
}

func (c Config) IsProd() bool {
	return c.GoEnv == "prod" || c.GoEnv == "production"
}

// Loadは環境変数
func Load() (Config, error) {
	cfg := Config{
		Port: os.Getenv("PORT"),

		Database: Database{
			URL:      os.Getenv("DATABASE_URL"),
			User:     os.Getenv("POSTGRES_USER"),
			Password: os.Getenv("POSTGRES_PASSWORD"),
			Name:     os.Getenv("POSTGRES_DB"),
			Host:     os.Getenv("POSTGRES_HOST"),
			SSLMode:  getenv("POSTGRES_SSLMODE", "disable"),
		},

		JWTSecret: os.Getenv("JWT_SECRET"),

		GoEnv:    os.Getenv("GO_ENV"),
		FEURL:    strings.TrimRight(os.Getenv("FE_URL"), "/"),
		LogLevel: getenv("LOG_LEVEL", "info"),

		Stripe: Stripe{
			SecretKey:     os.Getenv("STRIPE_SECRET_KEY"),
			WebhookSecret: os.Getenv("STRIPE_WEBHOOK_SECRET"),
		},

		Redis: Redis{
			Addr:     os.Getenv("REDIS_ADDR"),
			Password: os.Getenv("REDIS_PASSWORD"),
		},

		Kafka: Kafka{
			Brokers:    splitList(os.Getenv("KAFKA_BROKERS")),
			OrderTopic: getenv("KAFKA_ORDER_TOPIC", "orders"),
		},
	}

	//必須チェック
	if cfg.Port == "" {
		return Config{}, fmt.Errorf("PORT is required")
	}
	if cfg.Database.URL == "" {
		pgPort, err := mustAtoi("POSTGRES_PORT")
		if err != nil {
			return Config{}, err
		}
		cfg.Database.Port = pgPort

		if cfg.Database.User == "" {
			return Config{}, fmt.Errorf("POSTGRES_USER is required")
		}
		if cfg.Database.Password == "" {
			return Config{}, fmt.Errorf("POSTGRES_PASSWORD is required")
		}
		if cfg.Database.Name == "" {
			return Config{}, fmt.Errorf("POSTGRES_DB is required")
		}
		if cfg.Database.Host == "" {
			return Config{}, fmt.Errorf("POSTGRES_HOST is required")
		}
	}
	if cfg.JWTSecret == "" {
		return Config{}, fmt.Errorf("JWT_SECRET is required")
	}
	if cfg.Stripe.SecretKey == "" {
		return Config{}, fmt.Errorf("STRIPE_SECRET_KEY is required")
	}
	if cfg.Stripe.WebhookSecret == "" {
		return Config{}, fmt.Errorf("STRIPE_WEBHOOK_SECRET is required")
	}
	if cfg.GoEnv == "" {
		return Config{}, fmt.Errorf("GO_ENV is required")
	}
	if cfg.FEURL == "" {
		return Config{}, fmt.Errorf("FE_URL is required")
	}

	secure, err := strconv.ParseBool(getenv("COOKIE_SECURE", "true"))
	if err != nil {
		return Config{}, fmt.Errorf("COOKIE_SECURE must be bool: %w", err)
	}
	cfg.CookieSecure = secure

	pricing, err := loadPricing()
	if err != nil {
		return Config{}, err
	}
	cfg.Pricing = pricing

	return cfg, nil
}

func loadPricing() (Pricing, error) {
	p := Pricing{Currency: strings.ToLower(getenv("CURRENCY", "usd"))}

	fields := []struct {
		key string
		def string
		dst *decimal.Decimal
	}{
		{"TAX_RATE", "0", &p.TaxRate},
		{"SHIPPING_STANDARD", "5.00", &p.ShippingStandard},
		{"SHIPPING_EXPRESS", "15.00", &p.ShippingExpress},
		{"SHIPPING_EXPRESS_PER_LB", "1.00", &p.ShippingExpressPerLb},
		{"FREE_SHIPPING_THRESHOLD", "100.00", &p.FreeShippingThreshold},
	}
	for _, f := range fields {
		v, err := decimal.NewFromString(getenv(f.key, f.def))
		if err != nil {
			return Pricing{}, fmt.Errorf("%s must be a decimal: %w", f.key, err)
		}
		if v.IsNegative() {
			return Pricing{}, fmt.Errorf("%s must not be negative", f.key)
		}
		*f.dst = v
	}
	return p, nil
}

func mustAtoi(key string) (int, error) {
	v := os.Getenv(key)
	if v == "" {
		return 0, fmt.Errorf("%s is required", key)
	}
	i, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("%s must be number: %w", key, err)
	}
	return i, nil
}

func getenv(key string, def string) string {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	return v
}

func splitList(v string) []string {
	var out []string
	for _, s := range strings.Split(v, ",") {
		if s = strings.TrimSpace(s); s != "" {
			out = append(out, s)
		}
	}
	return out
}
