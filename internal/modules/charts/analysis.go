// Package charts shapes historical price series for charting: display points,
// summary statistics and a moving average overlay.
package charts

import (
	"math"

	"github.com/markcheno/go-talib"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"

	"github.com/aristath/folio/internal/domain"
	"github.com/aristath/folio/internal/modules/valuation"
)

// DefaultSMAWindow is the moving average length used by chart endpoints.
const DefaultSMAWindow = 7

// ChartPoint is one point of a chart as served to clients.
type ChartPoint struct {
	Date      string  `json:"date"`      // "Jan 2"
	Timestamp int64   `json:"timestamp"` // Unix milliseconds
	Price     float64 `json:"price"`
}

// SeriesStats summarizes a series.
type SeriesStats struct {
	First         float64           `json:"first"`
	Last          float64           `json:"last"`
	Min           float64           `json:"min"`
	Max           float64           `json:"max"`
	Mean          float64           `json:"mean"`
	StdDev        float64           `json:"stdDev"`
	ChangePercent valuation.Percent `json:"changePercent"`
	SMAWindow     int               `json:"smaWindow"`
	SMA           []*float64        `json:"sma"` // aligned with the points; nil until the window fills
}

// ToChartPoints converts a series into display points, preserving order.
func ToChartPoints(points []domain.SeriesPoint) []ChartPoint {
	out := make([]ChartPoint, 0, len(points))
	for _, p := range points {
		out = append(out, ChartPoint{
			Date:      p.Timestamp.UTC().Format("Jan 2"),
			Timestamp: p.Timestamp.UnixMilli(),
			Price:     p.Price,
		})
	}
	return out
}

// Analyze computes statistics over an oldest-first series and a simple
// moving average of the given window.
func Analyze(points []domain.SeriesPoint, window int) SeriesStats {
	stats := SeriesStats{
		ChangePercent: valuation.Determinate(0),
		SMAWindow:     window,
		SMA:           make([]*float64, len(points)),
	}
	if len(points) == 0 {
		return stats
	}

	prices := make([]float64, len(points))
	for i, p := range points {
		prices[i] = p.Price
	}

	stats.First = prices[0]
	stats.Last = prices[len(prices)-1]
	stats.Min = floats.Min(prices)
	stats.Max = floats.Max(prices)
	stats.Mean = stat.Mean(prices, nil)
	if len(prices) > 1 {
		stats.StdDev = stat.StdDev(prices, nil)
	}
	stats.ChangePercent = valuation.PercentChange(stats.First, stats.Last)
	stats.SMA = movingAverage(prices, window)

	return stats
}

// movingAverage returns the SMA aligned with prices. Positions before the
// window fills are nil.
func movingAverage(prices []float64, window int) []*float64 {
	out := make([]*float64, len(prices))
	if window < 2 || window > len(prices) {
		return out
	}

	sma := talib.Sma(prices, window)
	for i := window - 1; i < len(sma); i++ {
		if v := sma[i]; !math.IsNaN(v) {
			out[i] = &v
		}
	}
	return out
}
