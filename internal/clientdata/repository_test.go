package clientdata

import (
	"database/sql"
	"testing"
	"time"

	_ "github.com/mattn/go-sqlite3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// testSchema creates all tables needed for testing
const testSchema = `
CREATE TABLE coingecko_chart (series_key TEXT PRIMARY KEY, data BLOB NOT NULL, expires_at INTEGER NOT NULL);
CREATE TABLE alphavantage_daily (series_key TEXT PRIMARY KEY, data BLOB NOT NULL, expires_at INTEGER NOT NULL);
`

type testSeries struct {
	Symbol string
	Prices []float64
	At     time.Time
}

func setupTestDB(t *testing.T) *sql.DB {
	db, err := sql.Open("sqlite3", ":memory:")
	require.NoError(t, err)
	db.SetMaxOpenConns(1)

	_, err = db.Exec(testSchema)
	require.NoError(t, err)

	return db
}

func TestStoreAndGetIfFresh(t *testing.T) {
	db := setupTestDB(t)
	defer db.Close()

	repo := NewRepository(db)
	in := testSeries{Symbol: "bitcoin", Prices: []float64{1, 2.5, 3}, At: time.Unix(1700000000, 0).UTC()}

	require.NoError(t, repo.Store(TableCoinGeckoChart, "bitcoin:7", in, time.Hour))

	var out testSeries
	found, err := repo.GetIfFresh(TableCoinGeckoChart, "bitcoin:7", &out)
	require.NoError(t, err)
	require.True(t, found)
	assert.Equal(t, in.Symbol, out.Symbol)
	assert.Equal(t, in.Prices, out.Prices)
	assert.True(t, in.At.Equal(out.At))
}

func TestGetIfFresh_Missing(t *testing.T) {
	db := setupTestDB(t)
	defer db.Close()

	repo := NewRepository(db)

	var out testSeries
	found, err := repo.GetIfFresh(TableAlphaVantageDaily, "nope", &out)
	require.NoError(t, err)
	assert.False(t, found)
}

func TestExpiredEntry_OnlyServedStale(t *testing.T) {
	db := setupTestDB(t)
	defer db.Close()

	repo := NewRepository(db)
	require.NoError(t, repo.Store(TableAlphaVantageDaily, "aapl", testSeries{Symbol: "aapl"}, -time.Minute))

	var out testSeries
	found, err := repo.GetIfFresh(TableAlphaVantageDaily, "aapl", &out)
	require.NoError(t, err)
	assert.False(t, found)

	found, err = repo.Get(TableAlphaVantageDaily, "aapl", &out)
	require.NoError(t, err)
	require.True(t, found)
	assert.Equal(t, "aapl", out.Symbol)
}

func TestStore_Overwrites(t *testing.T) {
	db := setupTestDB(t)
	defer db.Close()

	repo := NewRepository(db)
	require.NoError(t, repo.Store(TableCoinGeckoChart, "k", testSeries{Symbol: "old"}, time.Hour))
	require.NoError(t, repo.Store(TableCoinGeckoChart, "k", testSeries{Symbol: "new"}, time.Hour))

	var out testSeries
	found, err := repo.Get(TableCoinGeckoChart, "k", &out)
	require.NoError(t, err)
	require.True(t, found)
	assert.Equal(t, "new", out.Symbol)

	var count int
	require.NoError(t, db.QueryRow("SELECT COUNT(*) FROM coingecko_chart").Scan(&count))
	assert.Equal(t, 1, count)
}

func TestInvalidTable(t *testing.T) {
	db := setupTestDB(t)
	defer db.Close()

	repo := NewRepository(db)
	var out testSeries

	assert.Error(t, repo.Store("users; DROP TABLE x", "k", out, time.Hour))
	_, err := repo.GetIfFresh("holdings", "k", &out)
	assert.Error(t, err)
	_, err = repo.Get("holdings", "k", &out)
	assert.Error(t, err)
	assert.Error(t, repo.Delete("holdings", "k"))
	_, err = repo.DeleteExpired("holdings")
	assert.Error(t, err)
}

func TestDelete(t *testing.T) {
	db := setupTestDB(t)
	defer db.Close()

	repo := NewRepository(db)
	require.NoError(t, repo.Store(TableCoinGeckoChart, "k", testSeries{Symbol: "x"}, time.Hour))
	require.NoError(t, repo.Delete(TableCoinGeckoChart, "k"))

	var out testSeries
	found, err := repo.Get(TableCoinGeckoChart, "k", &out)
	require.NoError(t, err)
	assert.False(t, found)
}

func TestDeleteExpired(t *testing.T) {
	db := setupTestDB(t)
	defer db.Close()

	repo := NewRepository(db)
	require.NoError(t, repo.Store(TableCoinGeckoChart, "fresh", testSeries{}, time.Hour))
	require.NoError(t, repo.Store(TableCoinGeckoChart, "stale1", testSeries{}, -time.Hour))
	require.NoError(t, repo.Store(TableCoinGeckoChart, "stale2", testSeries{}, -time.Minute))

	deleted, err := repo.DeleteExpired(TableCoinGeckoChart)
	require.NoError(t, err)
	assert.Equal(t, int64(2), deleted)

	var out testSeries
	found, err := repo.Get(TableCoinGeckoChart, "fresh", &out)
	require.NoError(t, err)
	assert.True(t, found)
}

func TestInjectedClock(t *testing.T) {
	db := setupTestDB(t)
	defer db.Close()

	repo := NewRepository(db)
	now := time.Date(2025, 1, 1, 12, 0, 0, 0, time.UTC)
	repo.now = func() time.Time { return now }

	require.NoError(t, repo.Store(TableAlphaVantageDaily, "msft", testSeries{Symbol: "msft"}, 10*time.Minute))

	var out testSeries
	found, err := repo.GetIfFresh(TableAlphaVantageDaily, "msft", &out)
	require.NoError(t, err)
	assert.True(t, found)

	now = now.Add(11 * time.Minute)
	found, err = repo.GetIfFresh(TableAlphaVantageDaily, "msft", &out)
	require.NoError(t, err)
	assert.False(t, found)
}
