package clientdata

import "time"

// TTL constants for different data types.
// These are added to time.Now() when storing to calculate expires_at.
const (
	// TTLSeries is the default lifetime of a cached chart series. Intraday
	// points move, so keep it short; the stale copy still serves outages.
	TTLSeries = 15 * time.Minute
)
