package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func offer(currency string, days, rate float64) MarketOffer {
	return MarketOffer{Currency: currency, DaysToMaturity: days, SettlementRate: Float(rate)}
}

func TestBestOffersByDay_KeepsHighestRate(t *testing.T) {
	offers := []MarketOffer{
		offer("ARS", 1, 30),
		offer("ARS", 1, 32.5),
		offer("ARS", 7, 34),
		offer("ARS", 7, 33),
	}
	best := BestOffersByDay(offers, "ARS")
	require.Len(t, best, 2)
	assert.Equal(t, 32.5, best[1].Rate())
	assert.Equal(t, 34.0, best[7].Rate())
	assert.Equal(t, []int{1, 7}, best.Days())
}

func TestBestOffersByDay_FiltersCurrency(t *testing.T) {
	offers := []MarketOffer{
		offer("USD", 1, 2),
		offer("ars", 1, 30),
		offer(" ARS ", 3, 31),
	}
	best := BestOffersByDay(offers, "ARS")
	assert.Equal(t, []int{1, 3}, best.Days())

	usd := BestOffersByDay(offers, "usd")
	assert.Equal(t, []int{1}, usd.Days())
}

func TestBestOffersByDay_DiscardsOutOfRange(t *testing.T) {
	offers := []MarketOffer{
		offer("ARS", 0, 50),
		offer("ARS", 31, 50),
		offer("ARS", 2.5, 50),
		offer("ARS", -1, 50),
		offer("ARS", 30, 35),
	}
	best := BestOffersByDay(offers, "ARS")
	assert.Equal(t, []int{30}, best.Days())
}

func TestBestOffersByDay_TieFirstWins(t *testing.T) {
	first := offer("ARS", 1, 30)
	first.MaturityDate = "2025-10-15"
	second := offer("ARS", 1, 30)
	second.MaturityDate = "2025-10-16"

	best := BestOffersByDay([]MarketOffer{first, second}, "ARS")
	assert.Equal(t, "2025-10-15", best[1].MaturityDate)
}

func TestBestOffersByDay_MissingRate(t *testing.T) {
	noRate := MarketOffer{Currency: "ARS", DaysToMaturity: 5}
	best := BestOffersByDay([]MarketOffer{noRate}, "ARS")
	require.Len(t, best, 1)

	_, ok := best.RateFor(5)
	assert.False(t, ok)

	// una oferta con tasa reemplaza a la que no informa
	best = BestOffersByDay([]MarketOffer{noRate, offer("ARS", 5, 29)}, "ARS")
	rate, ok := best.RateFor(5)
	assert.True(t, ok)
	assert.Equal(t, 29.0, rate)
}

func TestBestOffersByDay_Empty(t *testing.T) {
	best := BestOffersByDay(nil, "ARS")
	assert.Empty(t, best)
	_, ok := best.RateFor(1)
	assert.False(t, ok)
}

func TestSummarizeCurve_Weighted(t *testing.T) {
	a := offer("ARS", 1, 30)
	a.TradedQty = Float(300)
	b := offer("ARS", 7, 40)
	b.TradedQty = Float(100)

	s := SummarizeCurve(BestOffersByDay([]MarketOffer{a, b}, "ARS"))
	assert.Equal(t, 2, s.Buckets)
	assert.True(t, s.WeightedByQty)
	assert.InDelta(t, 32.5, s.MeanRatePct, 1e-9)
	assert.Equal(t, 40.0, s.MaxRatePct)
	assert.Equal(t, 7, s.MaxRateDays)
	assert.Greater(t, s.StdDevPct, 0.0)
}

func TestSummarizeCurve_UnweightedWhenQtyMissing(t *testing.T) {
	a := offer("ARS", 1, 30)
	a.TradedQty = Float(300)
	b := offer("ARS", 7, 40)

	s := SummarizeCurve(BestOffersByDay([]MarketOffer{a, b}, "ARS"))
	assert.False(t, s.WeightedByQty)
	assert.InDelta(t, 35.0, s.MeanRatePct, 1e-9)
}

func TestSummarizeCurve_Empty(t *testing.T) {
	s := SummarizeCurve(BestOfferMap{})
	assert.Equal(t, 0, s.Buckets)
	assert.Equal(t, 0.0, s.MeanRatePct)
	assert.False(t, s.WeightedByQty)
}
