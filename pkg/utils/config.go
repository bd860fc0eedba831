package utils

import (
	"github.com/spf13/viper"
)

type Config struct {
	App        AppConfig
	Database   DatabaseConfig
	Redis      RedisConfig
	Gateway    GatewayConfig
	Storage    StorageConfig
	Settlement SettlementConfig
	Currency   CurrencyConfig
}

type AppConfig struct {
	Name    string
	Port    string
	Debug   bool
	LogPath string
}

type DatabaseConfig struct {
	Host     string
	Port     string
	Name     string
	User     string
	Password string
	MaxConns int32
}

type RedisConfig struct {
	Addr     string
	Password string
	DB       int
}

type GatewayConfig struct {
	PublicKey      string
	SecretKey      string
	TimeoutSeconds int
}

type StorageConfig struct {
	Region               string
	AccessKeyID          string
	SecretAccessKey      string
	Bucket               string
	PresignExpireMinutes int
}

type SettlementConfig struct {
	// StaleAfterMinutes is how long a non-terminal payment may sit idle
	// before a new initiate attempt cancels it as abandoned.
	StaleAfterMinutes int
	// LockTTLSeconds bounds the per-booking lock lease.
	LockTTLSeconds int
}

type CurrencyConfig struct {
	TableVersion string
	Settlement   string
	// Rates is "CODE:RATE,CODE:RATE" where RATE is the settlement-currency
	// value of one unit of CODE.
	Rates string
}

func LoadConfig() (*Config, error) {
	viper.SetConfigFile(".env")
	viper.SetConfigType("env")

	// Set defaults
	viper.SetDefault("PORT", "8080")
	viper.SetDefault("DEBUG", false)
	viper.SetDefault("DB_MAX_CONNS", 10)
	viper.SetDefault("LOG_PATH", "logs/")
	viper.SetDefault("REDIS_ADDR", "localhost:6379")
	viper.SetDefault("REDIS_DB", 0)
	viper.SetDefault("GATEWAY_TIMEOUT_SECONDS", 15)
	viper.SetDefault("PRESIGN_EXPIRE_MINUTES", 15)
	viper.SetDefault("PAYMENT_STALE_AFTER_MINUTES", 30)
	viper.SetDefault("BOOKING_LOCK_TTL_SECONDS", 30)
	viper.SetDefault("CURRENCY_TABLE_VERSION", "v1")
	viper.SetDefault("SETTLEMENT_CURRENCY", "USD")
	viper.SetDefault("CURRENCY_RATES", "LKR:0.0033")

	if err := viper.ReadInConfig(); err != nil {
		return nil, err
	}

	viper.AutomaticEnv()

	config := &Config{
		App: AppConfig{
			Name:    viper.GetString("APP_NAME"),
			Port:    viper.GetString("PORT"),
			Debug:   viper.GetBool("DEBUG"),
			LogPath: viper.GetString("LOG_PATH"),
		},
		Database: DatabaseConfig{
			Host:     viper.GetString("DB_HOST"),
			Port:     viper.GetString("DB_PORT"),
			Name:     viper.GetString("DB_NAME"),
			User:     viper.GetString("DB_USER"),
			Password: viper.GetString("DB_PASS"),
			MaxConns: viper.GetInt32("DB_MAX_CONNS"),
		},
		Redis: RedisConfig{
			Addr:     viper.GetString("REDIS_ADDR"),
			Password: viper.GetString("REDIS_PASSWORD"),
			DB:       viper.GetInt("REDIS_DB"),
		},
		Gateway: GatewayConfig{
			PublicKey:      viper.GetString("GATEWAY_PUBLIC_KEY"),
			SecretKey:      viper.GetString("GATEWAY_SECRET_KEY"),
			TimeoutSeconds: viper.GetInt("GATEWAY_TIMEOUT_SECONDS"),
		},
		Storage: StorageConfig{
			Region:               viper.GetString("S3_REGION"),
			AccessKeyID:          viper.GetString("S3_ACCESS_KEY_ID"),
			SecretAccessKey:      viper.GetString("S3_SECRET_ACCESS_KEY"),
			Bucket:               viper.GetString("S3_BUCKET"),
			PresignExpireMinutes: viper.GetInt("PRESIGN_EXPIRE_MINUTES"),
		},
		Settlement: SettlementConfig{
			StaleAfterMinutes: viper.GetInt("PAYMENT_STALE_AFTER_MINUTES"),
			LockTTLSeconds:    viper.GetInt("BOOKING_LOCK_TTL_SECONDS"),
		},
		Currency: CurrencyConfig{
			TableVersion: viper.GetString("CURRENCY_TABLE_VERSION"),
			Settlement:   viper.GetString("SETTLEMENT_CURRENCY"),
			Rates:        viper.GetString("CURRENCY_RATES"),
		},
	}

	return config, nil
}
