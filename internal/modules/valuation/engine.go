// Package valuation computes per-holding and portfolio-wide profit and loss
// from cost basis and current prices. Everything here is pure: no I/O and the
// inputs are never modified.
package valuation

import (
	"math"

	"github.com/shopspring/decimal"

	"github.com/aristath/folio/internal/domain"
)

// HoldingValuation is the derived value of one holding.
type HoldingValuation struct {
	CurrentPrice  float64 `json:"currentPrice"`
	PriceFound    bool    `json:"priceFound"` // false when CurrentPrice fell back to the cost basis
	Invested      float64 `json:"invested"`
	CurrentValue  float64 `json:"currentValue"`
	Profit        float64 `json:"profit"`
	ProfitPercent Percent `json:"profitPercent"`
}

// ValuedHolding pairs a holding with its valuation.
type ValuedHolding struct {
	domain.Holding
	Valuation HoldingValuation `json:"valuation"`
}

// Performer identifies the best or worst holding of a summary.
type Performer struct {
	HoldingID     int64   `json:"holdingId"`
	Symbol        string  `json:"symbol"`
	DisplayName   string  `json:"coinName"`
	ProfitPercent float64 `json:"percent"`
}

// PortfolioSummary aggregates a whole portfolio.
type PortfolioSummary struct {
	TotalInvestment    float64    `json:"totalInvestment"`
	TotalCurrentValue  float64    `json:"totalCurrentValue"`
	TotalProfit        float64    `json:"totalProfit"`
	TotalProfitPercent float64    `json:"totalProfitPercent"`
	BestPerformer      *Performer `json:"bestPerformer"`
	WorstPerformer     *Performer `json:"worstPerformer"`
	MissingPrices      []string   `json:"missingPrices,omitempty"`
}

func finite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}

// measurable reports whether the stored figures of a holding can be valued.
func measurable(h domain.Holding) bool {
	return finite(h.Quantity) && finite(h.CostBasisPrice)
}

// currentPrice resolves the price of a holding. A symbol missing from the
// lookup, or quoted at NaN or ±Inf, is valued at its cost basis (no change)
// rather than at zero.
func currentPrice(h domain.Holding, lookup domain.PriceLookup) (float64, bool) {
	if q, ok := lookup.Get(h.Symbol); ok && finite(q.CurrentPrice) {
		return q.CurrentPrice, true
	}
	return h.CostBasisPrice, false
}

// ValueHolding values a single holding against the lookup. A holding whose
// quantity or cost basis is not finite gets zero amounts and an indeterminate
// percent.
func ValueHolding(h domain.Holding, lookup domain.PriceLookup) HoldingValuation {
	price, found := currentPrice(h, lookup)
	if !measurable(h) {
		if !finite(price) {
			price = 0
		}
		return HoldingValuation{
			CurrentPrice:  price,
			PriceFound:    found,
			ProfitPercent: Indeterminate(),
		}
	}

	qty := decimal.NewFromFloat(h.Quantity)
	basis := decimal.NewFromFloat(h.CostBasisPrice)
	cur := decimal.NewFromFloat(price)

	return HoldingValuation{
		CurrentPrice:  price,
		PriceFound:    found,
		Invested:      basis.Mul(qty).InexactFloat64(),
		CurrentValue:  cur.Mul(qty).InexactFloat64(),
		Profit:        cur.Sub(basis).Mul(qty).InexactFloat64(),
		ProfitPercent: percentChange(h.CostBasisPrice, price),
	}
}

// Summarize values every holding and aggregates the portfolio. The returned
// valuations are in input order.
//
// Best and worst performers come from a single linear scan with strict
// comparisons, so the first holding in list order wins ties. Holdings whose
// percent is indeterminate cannot be ranked and are skipped. Holdings with a
// non-finite quantity or cost basis are left out of the totals as well.
func Summarize(holdings []domain.Holding, lookup domain.PriceLookup) ([]ValuedHolding, PortfolioSummary) {
	valued := make([]ValuedHolding, 0, len(holdings))
	totalInvestment := decimal.Zero
	totalCurrent := decimal.Zero

	var summary PortfolioSummary
	var best, worst *Performer

	for _, h := range holdings {
		v := ValueHolding(h, lookup)
		valued = append(valued, ValuedHolding{Holding: h, Valuation: v})
		if !measurable(h) {
			continue
		}

		qty := decimal.NewFromFloat(h.Quantity)
		totalInvestment = totalInvestment.Add(decimal.NewFromFloat(h.CostBasisPrice).Mul(qty))
		totalCurrent = totalCurrent.Add(decimal.NewFromFloat(v.CurrentPrice).Mul(qty))

		if !v.PriceFound {
			summary.MissingPrices = append(summary.MissingPrices, h.Symbol)
		}

		pct, ok := v.ProfitPercent.Value()
		if !ok {
			continue
		}
		if best == nil || pct > best.ProfitPercent {
			best = performerOf(h, pct)
		}
		if worst == nil || pct < worst.ProfitPercent {
			worst = performerOf(h, pct)
		}
	}

	totalProfit := totalCurrent.Sub(totalInvestment)

	summary.TotalInvestment = totalInvestment.InexactFloat64()
	summary.TotalCurrentValue = totalCurrent.InexactFloat64()
	summary.TotalProfit = totalProfit.InexactFloat64()
	if !totalInvestment.IsZero() {
		summary.TotalProfitPercent = totalProfit.Div(totalInvestment).Mul(decimal.NewFromInt(100)).InexactFloat64()
	}
	summary.BestPerformer = best
	summary.WorstPerformer = worst

	return valued, summary
}

func performerOf(h domain.Holding, pct float64) *Performer {
	return &Performer{
		HoldingID:     h.ID,
		Symbol:        h.Symbol,
		DisplayName:   h.DisplayName,
		ProfitPercent: pct,
	}
}
