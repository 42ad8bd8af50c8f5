package di

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/aristath/folio/internal/clientdata"
	"github.com/aristath/folio/internal/clients/alphavantage"
	"github.com/aristath/folio/internal/clients/coingecko"
	"github.com/aristath/folio/internal/config"
	"github.com/aristath/folio/internal/events"
	"github.com/aristath/folio/internal/modules/auth"
	"github.com/aristath/folio/internal/modules/holdings"
	"github.com/aristath/folio/internal/modules/prices"
	"github.com/aristath/folio/internal/reliability"
	"github.com/aristath/folio/internal/scheduler"
)

// InitializeRepositories creates the repositories on top of the open databases
func InitializeRepositories(container *Container, log zerolog.Logger) error {
	if container == nil || container.FolioDB == nil || container.ClientDataDB == nil {
		return fmt.Errorf("databases must be initialized first")
	}

	container.UserRepo = auth.NewUserRepository(container.FolioDB.Conn(), log)
	container.HoldingRepo = holdings.NewRepository(container.FolioDB.Conn(), log)
	container.ClientDataRepo = clientdata.NewRepository(container.ClientDataDB.Conn())

	log.Debug().Msg("Repositories initialized")
	return nil
}

// InitializeServices creates clients, services and the scheduler
func InitializeServices(container *Container, cfg *config.Config, log zerolog.Logger) error {
	if container == nil || container.UserRepo == nil {
		return fmt.Errorf("repositories must be initialized first")
	}

	// Events
	container.EventBus = events.NewBus()
	container.EventManager = events.NewManager(container.EventBus, log)

	// Upstream clients
	container.CoinGeckoClient = coingecko.NewClient(cfg.CoinGeckoBaseURL, log)

	av := alphavantage.NewClient(cfg.AlphaVantage.APIKey, log)
	av.SetBaseURL(cfg.AlphaVantage.BaseURL)
	av.SetDailyLimit(cfg.AlphaVantage.DailyLimit)
	container.AlphaVantageClient = av
	if !av.Configured() {
		log.Warn().Msg("ALPHA_VANTAGE_API_KEY not set, stock prices are disabled")
	}

	// Auth
	container.TokenIssuer = auth.NewTokenIssuer(cfg.JWTSecret, cfg.TokenTTL)
	container.AuthService = auth.NewService(container.UserRepo, container.TokenIssuer, log)

	// Prices
	container.PriceProvider = prices.NewProvider(
		container.CoinGeckoClient,
		container.AlphaVantageClient,
		container.ClientDataRepo,
		cfg.SeriesCacheTTL,
		log,
	)
	container.PriceRefresher = prices.NewRefresher(
		container.PriceProvider,
		container.HoldingRepo,
		container.EventManager,
		prices.RefresherConfig{
			CryptoIDs:    cfg.DefaultCryptoIDs,
			StockSymbols: cfg.DefaultStockSymbols,
		},
		log,
	)

	// Holdings are valued from the refresher snapshot
	container.HoldingsService = holdings.NewService(container.HoldingRepo, container.PriceRefresher, log)

	// Backups
	if cfg.Backup.Enabled() {
		store, err := reliability.NewS3Store(context.Background(), reliability.S3Config{
			Bucket:          cfg.Backup.Bucket,
			Endpoint:        cfg.Backup.Endpoint,
			Region:          cfg.Backup.Region,
			AccessKeyID:     cfg.Backup.AccessKeyID,
			SecretAccessKey: cfg.Backup.SecretAccessKey,
		}, log)
		if err != nil {
			return fmt.Errorf("failed to create backup store: %w", err)
		}
		container.BackupService = reliability.NewBackupService(container.FolioDB, store, cfg.DataDir, container.EventManager, log)
	}

	container.Scheduler = scheduler.New(log)

	log.Debug().Msg("Services initialized")
	return nil
}
