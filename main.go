// main.go
package main

import (
	"context"
	"log"
	"time"

	"service-marketplace/cmd"
	"service-marketplace/internal/data/repository"
	"service-marketplace/internal/settlement"
	"service-marketplace/internal/wire"
	"service-marketplace/pkg/currency"
	"service-marketplace/pkg/database"
	"service-marketplace/pkg/lock"
	"service-marketplace/pkg/storage"
	"service-marketplace/pkg/utils"

	"github.com/omise/omise-go"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

func main() {
	// Load config
	config, err := utils.LoadConfig()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	// Initialize logger
	logger, err := utils.InitLogger(config.App.LogPath, config.App.Debug)
	if err != nil {
		log.Printf("Failed to init logger: %v. Using standard log.", err)
		logger, _ = zap.NewProduction()
	}
	defer logger.Sync()

	logger.Info("Starting application",
		zap.String("app", config.App.Name),
		zap.String("port", config.App.Port),
		zap.Bool("debug", config.App.Debug),
	)

	// Connect to database
	db, err := database.InitDB(config.Database)
	if err != nil {
		logger.Fatal("Failed to connect to database", zap.Error(err))
	}
	defer db.Close()

	logger.Info("Database connected successfully")

	// Redis backs the per-booking settlement lock
	redisClient := redis.NewClient(&redis.Options{
		Addr:     config.Redis.Addr,
		Password: config.Redis.Password,
		DB:       config.Redis.DB,
	})
	if err := redisClient.Ping(context.Background()).Err(); err != nil {
		logger.Fatal("Failed to connect to redis", zap.Error(err))
	}
	defer redisClient.Close()
	locker := lock.NewRedisLocker(redisClient,
		time.Duration(config.Settlement.LockTTLSeconds)*time.Second, logger)

	// S3 stores receipt and evidence artifacts
	store, err := storage.NewS3(context.Background(), storage.S3Config{
		Region:               config.Storage.Region,
		AccessKeyID:          config.Storage.AccessKeyID,
		SecretAccessKey:      config.Storage.SecretAccessKey,
		Bucket:               config.Storage.Bucket,
		PresignExpireMinutes: config.Storage.PresignExpireMinutes,
	}, logger)
	if err != nil {
		logger.Fatal("Failed to init artifact storage", zap.Error(err))
	}

	// Conversion table for gateway settlement amounts
	rates, err := currency.ParseRates(config.Currency.Rates)
	if err != nil {
		logger.Fatal("Failed to parse currency rates", zap.Error(err))
	}
	table, err := currency.NewTable(config.Currency.TableVersion, config.Currency.Settlement, rates)
	if err != nil {
		logger.Fatal("Failed to build currency table", zap.Error(err))
	}

	// Payment gateway client and settlement adapters
	omiseClient, err := omise.NewClient(config.Gateway.PublicKey, config.Gateway.SecretKey)
	if err != nil {
		logger.Fatal("Failed to init gateway client", zap.Error(err))
	}
	gateway := settlement.NewOmiseGateway(omiseClient,
		time.Duration(config.Gateway.TimeoutSeconds)*time.Second, logger)
	adapters := settlement.NewRegistry(
		settlement.NewGatewayAdapter(gateway, table, logger),
		settlement.NewBankTransferAdapter(logger),
	)

	// Initialize all repositories
	repos := repository.NewRepository(db, logger)

	// Wire all dependencies
	app := wire.Wiring(repos, adapters, gateway, locker, store, config, logger)

	// Start server
	logger.Info("Starting HTTP server", zap.String("port", config.App.Port))

	cmd.APIServer(app.Router, config.App.Port)
}
