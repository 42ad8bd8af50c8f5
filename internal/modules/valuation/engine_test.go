package valuation

import (
	"encoding/json"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aristath/folio/internal/domain"
)

func holding(id int64, symbol string, qty, cost float64) domain.Holding {
	return domain.Holding{
		ID:             id,
		UserID:         1,
		Symbol:         symbol,
		DisplayName:    symbol + " name",
		Kind:           domain.KindCrypto,
		Quantity:       qty,
		CostBasisPrice: cost,
	}
}

func prices(m map[string]float64) domain.PriceLookup {
	quotes := make(map[string]domain.Quote, len(m))
	for symbol, price := range m {
		quotes[symbol] = domain.Quote{CurrentPrice: price}
	}
	return domain.NewPriceLookup(quotes)
}

func TestValueHolding_ProfitFromLivePrice(t *testing.T) {
	tests := []struct {
		name  string
		qty   float64
		cost  float64
		price float64
	}{
		{"gain", 2, 100, 150},
		{"loss", 3, 50, 40},
		{"fractional quantity", 0.125, 97000, 97500},
		{"zero quantity", 0, 10, 20},
		{"unchanged", 5, 1.5, 1.5},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			v := ValueHolding(holding(1, "btc", tt.qty, tt.cost), prices(map[string]float64{"btc": tt.price}))

			assert.True(t, v.PriceFound)
			assert.Equal(t, tt.price, v.CurrentPrice)
			assert.InDelta(t, (tt.price-tt.cost)*tt.qty, v.Profit, 1e-9)
			assert.InDelta(t, tt.cost*tt.qty, v.Invested, 1e-9)
			assert.InDelta(t, tt.price*tt.qty, v.CurrentValue, 1e-9)

			pct, ok := v.ProfitPercent.Value()
			require.True(t, ok)
			assert.InDelta(t, (tt.price-tt.cost)/tt.cost*100, pct, 1e-9)
		})
	}
}

func TestValueHolding_MissingPriceFallsBackToCostBasis(t *testing.T) {
	v := ValueHolding(holding(1, "doge", 1000, 0.2), prices(map[string]float64{"btc": 1}))

	assert.False(t, v.PriceFound)
	assert.Equal(t, 0.2, v.CurrentPrice)
	assert.Equal(t, 0.0, v.Profit)
	pct, ok := v.ProfitPercent.Value()
	require.True(t, ok)
	assert.Equal(t, 0.0, pct)
}

func TestValueHolding_SymbolCaseInsensitive(t *testing.T) {
	v := ValueHolding(holding(1, "BTC", 1, 100), prices(map[string]float64{"btc": 110}))

	assert.True(t, v.PriceFound)
	assert.InDelta(t, 10.0, v.Profit, 1e-9)
}

func TestValueHolding_ZeroCostBasis(t *testing.T) {
	t.Run("zero price is no change", func(t *testing.T) {
		v := ValueHolding(holding(1, "air", 10, 0), prices(map[string]float64{"air": 0}))
		pct, ok := v.ProfitPercent.Value()
		require.True(t, ok)
		assert.Equal(t, 0.0, pct)
	})

	t.Run("non-zero price is indeterminate", func(t *testing.T) {
		v := ValueHolding(holding(1, "drop", 10, 0), prices(map[string]float64{"drop": 3}))
		assert.False(t, v.ProfitPercent.IsDeterminate())
		assert.InDelta(t, 30.0, v.Profit, 1e-9)
	})
}

func TestValueHolding_NonFinitePriceFallsBackToCostBasis(t *testing.T) {
	for _, price := range []float64{math.Inf(1), math.Inf(-1), math.NaN()} {
		var v HoldingValuation
		require.NotPanics(t, func() {
			v = ValueHolding(holding(1, "btc", 1, 100), prices(map[string]float64{"btc": price}))
		})

		assert.False(t, v.PriceFound)
		assert.Equal(t, 100.0, v.CurrentPrice)
		assert.Equal(t, 0.0, v.Profit)
		pct, ok := v.ProfitPercent.Value()
		require.True(t, ok)
		assert.Equal(t, 0.0, pct)
	}
}

func TestValueHolding_NonFiniteHoldingIsIndeterminate(t *testing.T) {
	tests := []struct {
		name string
		qty  float64
		cost float64
	}{
		{"infinite quantity", math.Inf(1), 100},
		{"NaN quantity", math.NaN(), 100},
		{"infinite cost basis", 1, math.Inf(1)},
		{"NaN cost basis", 1, math.NaN()},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var v HoldingValuation
			require.NotPanics(t, func() {
				v = ValueHolding(holding(1, "eth", tt.qty, tt.cost), prices(map[string]float64{"btc": 1}))
			})

			assert.False(t, v.ProfitPercent.IsDeterminate())
			assert.Equal(t, 0.0, v.Invested)
			assert.Equal(t, 0.0, v.CurrentValue)
			assert.Equal(t, 0.0, v.Profit)

			_, err := json.Marshal(v)
			assert.NoError(t, err)
		})
	}
}

func TestSummarize_SkipsNonFiniteHoldings(t *testing.T) {
	holdings := []domain.Holding{
		holding(1, "btc", 2, 100),
		holding(2, "eth", math.NaN(), 50),
		holding(3, "ada", 10, 1),
	}
	lookup := prices(map[string]float64{"btc": 150, "eth": 60, "ada": math.Inf(1)})

	var valued []ValuedHolding
	var summary PortfolioSummary
	require.NotPanics(t, func() {
		valued, summary = Summarize(holdings, lookup)
	})

	require.Len(t, valued, 3)
	assert.InDelta(t, 210.0, summary.TotalInvestment, 1e-9)
	assert.InDelta(t, 310.0, summary.TotalCurrentValue, 1e-9)
	assert.InDelta(t, 100.0, summary.TotalProfit, 1e-9)
	assert.Equal(t, []string{"ada"}, summary.MissingPrices)

	require.NotNil(t, summary.BestPerformer)
	assert.Equal(t, int64(1), summary.BestPerformer.HoldingID)
	require.NotNil(t, summary.WorstPerformer)
	assert.Equal(t, int64(3), summary.WorstPerformer.HoldingID)

	_, err := json.Marshal(summary)
	assert.NoError(t, err)
}

func TestSummarize_Empty(t *testing.T) {
	valued, s := Summarize(nil, prices(map[string]float64{"btc": 1}))

	assert.Empty(t, valued)
	assert.Equal(t, 0.0, s.TotalInvestment)
	assert.Equal(t, 0.0, s.TotalCurrentValue)
	assert.Equal(t, 0.0, s.TotalProfit)
	assert.Equal(t, 0.0, s.TotalProfitPercent)
	assert.Nil(t, s.BestPerformer)
	assert.Nil(t, s.WorstPerformer)
}

func TestSummarize_WorkedExample(t *testing.T) {
	holdings := []domain.Holding{
		holding(1, "btc", 2, 100),
		holding(2, "eth", 1, 50),
	}

	valued, s := Summarize(holdings, prices(map[string]float64{"btc": 150, "eth": 40}))

	require.Len(t, valued, 2)
	assert.Equal(t, int64(1), valued[0].ID)
	assert.Equal(t, int64(2), valued[1].ID)

	assert.InDelta(t, 250.0, s.TotalInvestment, 1e-9)
	assert.InDelta(t, 340.0, s.TotalCurrentValue, 1e-9)
	assert.InDelta(t, 90.0, s.TotalProfit, 1e-9)
	assert.InDelta(t, 36.0, s.TotalProfitPercent, 1e-9)

	require.NotNil(t, s.BestPerformer)
	require.NotNil(t, s.WorstPerformer)
	assert.Equal(t, "btc", s.BestPerformer.Symbol)
	assert.InDelta(t, 50.0, s.BestPerformer.ProfitPercent, 1e-9)
	assert.Equal(t, "eth", s.WorstPerformer.Symbol)
	assert.InDelta(t, -20.0, s.WorstPerformer.ProfitPercent, 1e-9)
}

func TestSummarize_AllZeroCostNeverDividesByZero(t *testing.T) {
	holdings := []domain.Holding{
		holding(1, "free", 10, 0),
		holding(2, "gift", 3, 0),
	}

	_, s := Summarize(holdings, prices(map[string]float64{"free": 0, "gift": 0}))

	assert.Equal(t, 0.0, s.TotalInvestment)
	assert.Equal(t, 0.0, s.TotalProfitPercent)
}

func TestSummarize_AllZeroCostWithValueStillGuarded(t *testing.T) {
	_, s := Summarize([]domain.Holding{holding(1, "airdrop", 10, 0)}, prices(map[string]float64{"airdrop": 2}))

	assert.InDelta(t, 20.0, s.TotalCurrentValue, 1e-9)
	assert.Equal(t, 0.0, s.TotalProfitPercent)
	assert.Nil(t, s.BestPerformer, "indeterminate percent cannot be ranked")
	assert.Nil(t, s.WorstPerformer)
}

func TestSummarize_MissingPriceUsesCostBasis(t *testing.T) {
	holdings := []domain.Holding{
		holding(1, "btc", 1, 100),
		holding(2, "unknown", 4, 25),
	}

	valued, s := Summarize(holdings, prices(map[string]float64{"btc": 120}))

	assert.Equal(t, 0.0, valued[1].Valuation.Profit)
	assert.Equal(t, 25.0, valued[1].Valuation.CurrentPrice)
	assert.InDelta(t, 200.0, s.TotalInvestment, 1e-9)
	assert.InDelta(t, 220.0, s.TotalCurrentValue, 1e-9)
	assert.Equal(t, []string{"unknown"}, s.MissingPrices)
}

func TestSummarize_TiesGoToFirstInListOrder(t *testing.T) {
	holdings := []domain.Holding{
		holding(1, "aaa", 1, 100),
		holding(2, "bbb", 2, 100),
	}

	_, s := Summarize(holdings, prices(map[string]float64{"aaa": 110, "bbb": 110}))

	require.NotNil(t, s.BestPerformer)
	require.NotNil(t, s.WorstPerformer)
	assert.Equal(t, int64(1), s.BestPerformer.HoldingID)
	assert.Equal(t, int64(1), s.WorstPerformer.HoldingID)
}

func TestSummarize_TrueExtremesWinRegardlessOfPosition(t *testing.T) {
	holdings := []domain.Holding{
		holding(1, "mid", 1, 100),
		holding(2, "low", 1, 100),
		holding(3, "mid2", 1, 100),
		holding(4, "high", 1, 100),
	}

	_, s := Summarize(holdings, prices(map[string]float64{"mid": 105, "low": 80, "mid2": 105, "high": 200}))

	assert.Equal(t, int64(4), s.BestPerformer.HoldingID)
	assert.Equal(t, int64(2), s.WorstPerformer.HoldingID)
}

func TestSummarize_DoesNotMutateInput(t *testing.T) {
	holdings := []domain.Holding{holding(1, "btc", 2, 100)}
	before := holdings[0]

	Summarize(holdings, prices(map[string]float64{"btc": 150}))

	assert.Equal(t, before, holdings[0])
}

func TestPercent_JSON(t *testing.T) {
	data, err := json.Marshal(struct {
		A Percent `json:"a"`
		B Percent `json:"b"`
	}{Determinate(12.5), Indeterminate()})
	require.NoError(t, err)
	assert.JSONEq(t, `{"a":12.5,"b":null}`, string(data))

	var p Percent
	require.NoError(t, json.Unmarshal([]byte("null"), &p))
	assert.False(t, p.IsDeterminate())
	require.NoError(t, json.Unmarshal([]byte("-3"), &p))
	v, ok := p.Value()
	assert.True(t, ok)
	assert.Equal(t, -3.0, v)
}

func TestPercentChange(t *testing.T) {
	v, ok := PercentChange(200, 150).Value()
	require.True(t, ok)
	assert.InDelta(t, -25.0, v, 1e-9)

	assert.False(t, PercentChange(0, 1).IsDeterminate())
	assert.True(t, Determinate(0).IsDeterminate())
}
