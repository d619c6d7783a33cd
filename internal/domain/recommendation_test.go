package domain

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func eligibleBond(ticker string, days int, gain float64) DerivedBondMetrics {
	return DerivedBondMetrics{
		Ticker:              ticker,
		MaturityDays:        &days,
		HorizonEligible:     true,
		HorizonAdjustedGain: Float(gain),
	}
}

func TestRecommend_MoneyMarketWhenNothingClears(t *testing.T) {
	rec := Recommend(8510, Float(9000), []DerivedBondMetrics{eligibleBond("S24O5", 10, 9100)}, 1000)
	assert.Equal(t, InstrumentMoneyMarket, rec.Winner)
	assert.Equal(t, "FCI Money Market", rec.Label)
	require.NotNil(t, rec.CaucionExtra)
	assert.InDelta(t, 490, *rec.CaucionExtra, 1e-9)
	require.NotNil(t, rec.LecapExtra)
	assert.InDelta(t, 590, *rec.LecapExtra, 1e-9)
}

func TestRecommend_OnlyCaucion(t *testing.T) {
	rec := Recommend(8510, Float(13527), []DerivedBondMetrics{eligibleBond("S24O5", 10, 10999)}, 3000)
	assert.Equal(t, InstrumentCaucion, rec.Winner)
	assert.Equal(t, "Caución", rec.Label)
	assert.Empty(t, rec.SupportingTicker)
}

func TestRecommend_OnlyLecap(t *testing.T) {
	rec := Recommend(8510, Float(8000), []DerivedBondMetrics{eligibleBond("S24O5", 10, 10999)}, 1000)
	assert.Equal(t, InstrumentLecap, rec.Winner)
	assert.Equal(t, "LECAP S24O5 (10d)", rec.Label)
	assert.Equal(t, "S24O5", rec.SupportingTicker)
	require.NotNil(t, rec.SupportingDays)
	assert.Equal(t, 10, *rec.SupportingDays)
}

func TestRecommend_BothClearHigherWins(t *testing.T) {
	bonds := []DerivedBondMetrics{eligibleBond("S24O5", 10, 10999)}

	rec := Recommend(8510, Float(13527), bonds, 1000)
	assert.Equal(t, InstrumentCaucion, rec.Winner)

	rec = Recommend(8510, Float(10000), bonds, 1000)
	assert.Equal(t, InstrumentLecap, rec.Winner)
}

func TestRecommend_TieGoesToLecap(t *testing.T) {
	rec := Recommend(8510, Float(10999), []DerivedBondMetrics{eligibleBond("S24O5", 10, 10999)}, 1000)
	assert.Equal(t, InstrumentLecap, rec.Winner)
}

func TestRecommend_ThresholdInclusive(t *testing.T) {
	rec := Recommend(1000, Float(2000), nil, 1000)
	assert.Equal(t, InstrumentCaucion, rec.Winner)
}

func TestRecommend_NoCaucionNoBonds(t *testing.T) {
	rec := Recommend(8510, nil, nil, 0)
	assert.Equal(t, InstrumentMoneyMarket, rec.Winner)
	assert.Nil(t, rec.CaucionExtra)
	assert.Nil(t, rec.LecapExtra)
}

func TestRecommend_DoesNotMutateInput(t *testing.T) {
	bonds := []DerivedBondMetrics{eligibleBond("A", 5, 100), eligibleBond("B", 7, 200)}
	_ = Recommend(50, Float(60), bonds, 0)
	assert.Equal(t, "A", bonds[0].Ticker)
	assert.Equal(t, 100.0, *bonds[0].HorizonAdjustedGain)
}

func TestBestBond(t *testing.T) {
	noGain := DerivedBondMetrics{Ticker: "X", HorizonEligible: true}
	bonds := []DerivedBondMetrics{noGain, eligibleBond("A", 5, 100), eligibleBond("B", 7, 100), eligibleBond("C", 9, 50)}

	best, ok := BestBond(bonds)
	require.True(t, ok)
	assert.Equal(t, "A", best.Ticker)

	_, ok = BestBond([]DerivedBondMetrics{noGain})
	assert.False(t, ok)
}

func TestInstrument_JSON(t *testing.T) {
	b, err := json.Marshal(InstrumentLecap)
	require.NoError(t, err)
	assert.Equal(t, `"LECAP"`, string(b))

	var i Instrument
	require.NoError(t, json.Unmarshal([]byte(`"CAUCION"`), &i))
	assert.Equal(t, InstrumentCaucion, i)

	assert.Error(t, json.Unmarshal([]byte(`"PLAZO_FIJO"`), &i))
}
