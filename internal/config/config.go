package config

import (
	"errors"
	"log"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"github.com/spf13/viper"
)

// Store drivers
const (
	StoreDriverDatabase = "database"
	StoreDriverMemory   = "memory"
)

type Config struct {
	App       AppConfig
	Database  DatabaseConfig
	Store     StoreConfig
	Redis     RedisConfig
	Kafka     KafkaConfig
	JWT       JWTConfig
	CORS      CORSConfig
	RateLimit RateLimitConfig
	Checkout  CheckoutConfig
	Printer   PrinterConfig
}

type AppConfig struct {
	Name  string
	Env   string
	Port  string
	Debug bool
}

type DatabaseConfig struct {
	Driver   string
	Host     string
	Port     string
	Name     string
	User     string
	Password string
	SSLMode  string
	Timezone string
}

// StoreConfig selects the checkout store. The memory store is a local
// simulation and is refused in production.
type StoreConfig struct {
	Driver           string
	FallbackToMemory bool
}

type RedisConfig struct {
	Addr       string
	Password   string
	DB         int
	SessionTTL time.Duration
}

type KafkaConfig struct {
	Brokers    []string
	SalesTopic string
	StockTopic string
}

type JWTConfig struct {
	Secret      string
	ExpiryHours time.Duration
}

type CORSConfig struct {
	AllowedOrigins []string
	AllowedMethods []string
	AllowedHeaders []string
}

type RateLimitConfig struct {
	Requests int
	Duration int
}

type CheckoutConfig struct {
	MaxAttempts        int
	RetryBase          time.Duration
	CommitTimeout      time.Duration
	ReceiptPrefix      string
	ReceiptIncludeDate bool
	DefaultTaxRate     decimal.Decimal
}

type PrinterConfig struct {
	Type      string
	USBPath   string
	Address   string
	StoreName string
}

func Load() *Config {
	viper.SetConfigFile(".env")
	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err != nil {
		log.Printf("Warning: .env file not found, using environment variables: %v", err)
	}

	setDefaults()

	taxRate, err := decimal.NewFromString(viper.GetString("DEFAULT_TAX_RATE"))
	if err != nil {
		log.Printf("Warning: invalid DEFAULT_TAX_RATE %q, using 0", viper.GetString("DEFAULT_TAX_RATE"))
		taxRate = decimal.Zero
	}

	return &Config{
		App: AppConfig{
			Name:  viper.GetString("APP_NAME"),
			Env:   viper.GetString("APP_ENV"),
			Port:  viper.GetString("APP_PORT"),
			Debug: viper.GetBool("APP_DEBUG"),
		},
		Database: DatabaseConfig{
			Driver:   strings.ToLower(viper.GetString("DB_DRIVER")),
			Host:     viper.GetString("DB_HOST"),
			Port:     viper.GetString("DB_PORT"),
			Name:     viper.GetString("DB_NAME"),
			User:     viper.GetString("DB_USER"),
			Password: viper.GetString("DB_PASSWORD"),
			SSLMode:  viper.GetString("DB_SSL_MODE"),
			Timezone: viper.GetString("DB_TIMEZONE"),
		},
		Store: StoreConfig{
			Driver:           strings.ToLower(viper.GetString("STORE_DRIVER")),
			FallbackToMemory: viper.GetBool("STORE_FALLBACK_TO_MEMORY"),
		},
		Redis: RedisConfig{
			Addr:       viper.GetString("REDIS_ADDR"),
			Password:   viper.GetString("REDIS_PASSWORD"),
			DB:         viper.GetInt("REDIS_DB"),
			SessionTTL: time.Duration(viper.GetInt("SESSION_TTL_HOURS")) * time.Hour,
		},
		Kafka: KafkaConfig{
			Brokers:    splitList(viper.GetString("KAFKA_BROKERS")),
			SalesTopic: viper.GetString("KAFKA_SALES_TOPIC"),
			StockTopic: viper.GetString("KAFKA_STOCK_TOPIC"),
		},
		JWT: JWTConfig{
			Secret:      viper.GetString("JWT_SECRET"),
			ExpiryHours: time.Duration(viper.GetInt("JWT_EXPIRY_HOURS")) * time.Hour,
		},
		CORS: CORSConfig{
			AllowedOrigins: viper.GetStringSlice("CORS_ALLOWED_ORIGINS"),
			AllowedMethods: viper.GetStringSlice("CORS_ALLOWED_METHODS"),
			AllowedHeaders: viper.GetStringSlice("CORS_ALLOWED_HEADERS"),
		},
		RateLimit: RateLimitConfig{
			Requests: viper.GetInt("RATE_LIMIT_REQUESTS"),
			Duration: viper.GetInt("RATE_LIMIT_DURATION"),
		},
		Checkout: CheckoutConfig{
			MaxAttempts:        viper.GetInt("COMMIT_MAX_ATTEMPTS"),
			RetryBase:          time.Duration(viper.GetInt("COMMIT_RETRY_BASE_MS")) * time.Millisecond,
			CommitTimeout:      time.Duration(viper.GetInt("COMMIT_TIMEOUT_MS")) * time.Millisecond,
			ReceiptPrefix:      viper.GetString("RECEIPT_PREFIX"),
			ReceiptIncludeDate: viper.GetBool("RECEIPT_INCLUDE_DATE"),
			DefaultTaxRate:     taxRate,
		},
		Printer: PrinterConfig{
			Type:      viper.GetString("PRINTER_TYPE"),
			USBPath:   viper.GetString("PRINTER_USB_PATH"),
			Address:   viper.GetString("PRINTER_ADDRESS"),
			StoreName: viper.GetString("STORE_NAME"),
		},
	}
}

func setDefaults() {
	viper.SetDefault("APP_NAME", "investify-pos")
	viper.SetDefault("APP_ENV", "development")
	viper.SetDefault("APP_PORT", "8080")
	viper.SetDefault("APP_DEBUG", true)
	viper.SetDefault("DB_DRIVER", "postgres")
	viper.SetDefault("DB_HOST", "localhost")
	viper.SetDefault("DB_PORT", "5432")
	viper.SetDefault("DB_NAME", "investify_pos")
	viper.SetDefault("DB_USER", "postgres")
	viper.SetDefault("DB_PASSWORD", "postgres")
	viper.SetDefault("DB_SSL_MODE", "disable")
	viper.SetDefault("DB_TIMEZONE", "Africa/Nairobi")
	viper.SetDefault("STORE_DRIVER", StoreDriverDatabase)
	viper.SetDefault("STORE_FALLBACK_TO_MEMORY", false)
	viper.SetDefault("REDIS_ADDR", "")
	viper.SetDefault("REDIS_DB", 0)
	viper.SetDefault("SESSION_TTL_HOURS", 12)
	viper.SetDefault("KAFKA_BROKERS", "")
	viper.SetDefault("KAFKA_SALES_TOPIC", "pos.sales")
	viper.SetDefault("KAFKA_STOCK_TOPIC", "pos.stock")
	viper.SetDefault("JWT_SECRET", "change-this-secret-in-production")
	viper.SetDefault("JWT_EXPIRY_HOURS", 12)
	viper.SetDefault("CORS_ALLOWED_ORIGINS", "http://localhost:3000")
	viper.SetDefault("CORS_ALLOWED_HEADERS", []string{})
	viper.SetDefault("RATE_LIMIT_REQUESTS", 100)
	viper.SetDefault("RATE_LIMIT_DURATION", 60)
	viper.SetDefault("COMMIT_MAX_ATTEMPTS", 5)
	viper.SetDefault("COMMIT_RETRY_BASE_MS", 10)
	viper.SetDefault("COMMIT_TIMEOUT_MS", 5000)
	viper.SetDefault("RECEIPT_PREFIX", "RCP")
	viper.SetDefault("RECEIPT_INCLUDE_DATE", true)
	viper.SetDefault("DEFAULT_TAX_RATE", "0")
	viper.SetDefault("PRINTER_TYPE", "none")
	viper.SetDefault("PRINTER_USB_PATH", "/dev/usb/lp0")
	viper.SetDefault("PRINTER_ADDRESS", "")
	viper.SetDefault("STORE_NAME", "Investify POS")
}

// IsProduction reports whether the service runs with APP_ENV=production
func (c *Config) IsProduction() bool {
	return strings.EqualFold(c.App.Env, "production")
}

// Validate rejects configurations that must never start
func (c *Config) Validate() error {
	switch c.Store.Driver {
	case StoreDriverDatabase, StoreDriverMemory:
	default:
		return errors.New("config: STORE_DRIVER must be database or memory")
	}
	switch c.Database.Driver {
	case "postgres", "mysql":
	default:
		return errors.New("config: DB_DRIVER must be postgres or mysql")
	}
	if c.IsProduction() {
		if c.Store.Driver == StoreDriverMemory {
			return errors.New("config: the memory store is a local simulation and cannot run in production")
		}
		if c.Store.FallbackToMemory {
			return errors.New("config: STORE_FALLBACK_TO_MEMORY is not allowed in production")
		}
		if c.JWT.Secret == "change-this-secret-in-production" {
			return errors.New("config: JWT_SECRET must be set in production")
		}
	}
	if c.Checkout.MaxAttempts < 1 {
		return errors.New("config: COMMIT_MAX_ATTEMPTS must be at least 1")
	}
	if c.Checkout.DefaultTaxRate.IsNegative() || c.Checkout.DefaultTaxRate.GreaterThan(decimal.NewFromInt(100)) {
		return errors.New("config: DEFAULT_TAX_RATE must be between 0 and 100")
	}
	return nil
}

// DSN returns the connection string for the configured driver
func (c *DatabaseConfig) DSN() string {
	if c.Driver == "mysql" {
		return c.User + ":" + c.Password +
			"@tcp(" + c.Host + ":" + c.Port + ")/" + c.Name +
			"?charset=utf8mb4&parseTime=True&loc=Local"
	}
	return "host=" + c.Host +
		" user=" + c.User +
		" password=" + c.Password +
		" dbname=" + c.Name +
		" port=" + c.Port +
		" sslmode=" + c.SSLMode +
		" TimeZone=" + c.Timezone
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
