package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
	"github.com/shopspring/decimal"
)

const (
	EnvPrefix = "vendora"

	AppEnvDev  = "dev"
	AppEnvProd = "prod"
)

type Config struct {
	App      AppConfig
	DB       DBConfig
	Redis    RedisConfig
	Telegram TelegramConfig
	Shop     ShopConfig
	Cron     CronConfig
}

func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process(EnvPrefix, &cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}
	if cfg.Shop.MinOrderTotal >= cfg.Shop.MaxOrderTotal {
		return nil, fmt.Errorf("min order total %d must be below max %d", cfg.Shop.MinOrderTotal, cfg.Shop.MaxOrderTotal)
	}
	return &cfg, nil
}

type AppConfig struct {
	Env          string `envconfig:"VENDORA_APP_ENV" required:"true"`
	OpsPort      string `envconfig:"VENDORA_OPS_PORT" default:"9090"`
	LogLevel     string `envconfig:"VENDORA_LOG_LEVEL" default:"info"`
	LogWarnStack bool   `envconfig:"VENDORA_LOG_WARN_STACK" default:"false"`
	AutoMigrate  bool   `envconfig:"VENDORA_AUTO_MIGRATE" default:"false"`
}

func (a AppConfig) IsDev() bool {
	return strings.EqualFold(a.Env, AppEnvDev)
}

func (a AppConfig) IsProd() bool {
	return strings.EqualFold(a.Env, AppEnvProd)
}

type DBConfig struct {
	DSN string `envconfig:"VENDORA_DB_DSN" required:"true"`

	MaxOpenConns    int           `envconfig:"VENDORA_DB_MAX_OPEN_CONNS" default:"20"`
	MaxIdleConns    int           `envconfig:"VENDORA_DB_MAX_IDLE_CONNS" default:"10"`
	ConnMaxLifetime time.Duration `envconfig:"VENDORA_DB_CONN_MAX_LIFETIME" default:"1h"`
	ConnMaxIdleTime time.Duration `envconfig:"VENDORA_DB_CONN_MAX_IDLE_TIME" default:"10m"`
}

type RedisConfig struct {
	URL          string        `envconfig:"VENDORA_REDIS_URL"`
	Address      string        `envconfig:"VENDORA_REDIS_ADDR"`
	Password     string        `envconfig:"VENDORA_REDIS_PASSWORD"`
	DB           int           `envconfig:"VENDORA_REDIS_DB" default:"0"`
	PoolSize     int           `envconfig:"VENDORA_REDIS_POOL_SIZE" default:"10"`
	MinIdleConns int           `envconfig:"VENDORA_REDIS_MIN_IDLE_CONNS" default:"2"`
	DialTimeout  time.Duration `envconfig:"VENDORA_REDIS_DIAL_TIMEOUT" default:"5s"`
	ReadTimeout  time.Duration `envconfig:"VENDORA_REDIS_READ_TIMEOUT" default:"5s"`
	WriteTimeout time.Duration `envconfig:"VENDORA_REDIS_WRITE_TIMEOUT" default:"5s"`
}

type TelegramConfig struct {
	BotToken    string `envconfig:"VENDORA_BOT_TOKEN" required:"true"`
	AdminChatID int64  `envconfig:"VENDORA_ADMIN_CHAT_ID" required:"true"`
}

// ShopConfig carries the storefront business parameters.
type ShopConfig struct {
	MinOrderTotal        int     `envconfig:"VENDORA_SHOP_MIN_ORDER_TOTAL" default:"20"`
	MaxOrderTotal        int     `envconfig:"VENDORA_SHOP_MAX_ORDER_TOTAL" default:"1000"`
	BanThreshold         int     `envconfig:"VENDORA_SHOP_BAN_THRESHOLD" default:"3"`
	WalletAlertRatio     float64 `envconfig:"VENDORA_SHOP_WALLET_ALERT_RATIO" default:"0.2"`
	LocationsDir         string  `envconfig:"VENDORA_SHOP_LOCATIONS_DIR" default:"locations"`
	RequestRetentionDays int     `envconfig:"VENDORA_SHOP_REQUEST_RETENTION_DAYS" default:"30"`
	CouponTTLDays        int     `envconfig:"VENDORA_SHOP_COUPON_TTL_DAYS" default:"30"`
}

func (s ShopConfig) MinTotal() decimal.Decimal {
	return decimal.NewFromInt(int64(s.MinOrderTotal))
}

func (s ShopConfig) MaxTotal() decimal.Decimal {
	return decimal.NewFromInt(int64(s.MaxOrderTotal))
}

func (s ShopConfig) RequestRetention() time.Duration {
	return time.Duration(s.RequestRetentionDays) * 24 * time.Hour
}

func (s ShopConfig) CouponTTL() time.Duration {
	return time.Duration(s.CouponTTLDays) * 24 * time.Hour
}

type CronConfig struct {
	Interval time.Duration `envconfig:"VENDORA_CRON_INTERVAL" default:"1h"`
	LockTTL  time.Duration `envconfig:"VENDORA_CRON_LOCK_TTL" default:"55m"`
}
