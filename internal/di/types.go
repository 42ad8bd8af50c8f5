// Package di provides dependency injection type definitions.
//
// The Container holds every long-lived dependency of the server. It is built
// once by Wire and handed to the HTTP server and cmd/server.
package di

import (
	"github.com/aristath/folio/internal/clientdata"
	"github.com/aristath/folio/internal/clients/alphavantage"
	"github.com/aristath/folio/internal/clients/coingecko"
	"github.com/aristath/folio/internal/database"
	"github.com/aristath/folio/internal/events"
	"github.com/aristath/folio/internal/modules/auth"
	"github.com/aristath/folio/internal/modules/holdings"
	"github.com/aristath/folio/internal/modules/prices"
	"github.com/aristath/folio/internal/reliability"
	"github.com/aristath/folio/internal/scheduler"
)

// Container holds all application dependencies
type Container struct {
	// Databases
	FolioDB      *database.DB // users, holdings
	ClientDataDB *database.DB // upstream response cache

	// Repositories
	UserRepo       *auth.UserRepository
	HoldingRepo    *holdings.Repository
	ClientDataRepo *clientdata.Repository

	// Upstream clients
	CoinGeckoClient    *coingecko.Client
	AlphaVantageClient *alphavantage.Client

	// Events
	EventBus     *events.Bus
	EventManager *events.Manager

	// Services
	TokenIssuer     *auth.TokenIssuer
	AuthService     *auth.Service
	HoldingsService *holdings.Service
	PriceProvider   *prices.Provider
	PriceRefresher  *prices.Refresher
	BackupService   *reliability.BackupService // nil unless backups are configured

	Scheduler *scheduler.Scheduler
}

// Databases returns every open database, main database first
func (c *Container) Databases() []*database.DB {
	dbs := make([]*database.DB, 0, 2)
	for _, db := range []*database.DB{c.FolioDB, c.ClientDataDB} {
		if db != nil {
			dbs = append(dbs, db)
		}
	}
	return dbs
}

// Close closes every open database
func (c *Container) Close() {
	for _, db := range c.Databases() {
		db.Close()
	}
}

// JobInstances holds references to the registered background jobs
type JobInstances struct {
	PriceRefresh      scheduler.Job
	ClientDataCleanup scheduler.Job
	Maintenance       scheduler.Job
	Backup            scheduler.Job // nil unless backups are configured
}
