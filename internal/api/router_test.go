package api_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/alejandrodnm/rendimientos/internal/adapters/storage"
	"github.com/alejandrodnm/rendimientos/internal/api"
	"github.com/alejandrodnm/rendimientos/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeComparisons struct {
	last     *domain.Comparison
	settings domain.Settings
	updated  []domain.Settings
}

func (f *fakeComparisons) Last() (domain.Comparison, bool) {
	if f.last == nil {
		return domain.Comparison{}, false
	}
	return *f.last, true
}

func (f *fakeComparisons) Settings() domain.Settings { return f.settings }

func (f *fakeComparisons) UpdateSettings(_ context.Context, s domain.Settings) (domain.Comparison, error) {
	f.updated = append(f.updated, s)
	s.Version = f.settings.Version + 1
	f.settings = s
	if f.last == nil {
		return domain.Comparison{}, domain.ErrNoData
	}
	c := *f.last
	c.Settings = s
	c.SettingsVersion = s.Version
	return c, nil
}

func sampleComparison(at time.Time) domain.Comparison {
	snap := domain.Snapshot{
		TakenAt: at,
		Offers: domain.Available([]domain.MarketOffer{
			{Currency: "ARS", DaysToMaturity: 7, SettlementRate: domain.Float(33)},
			{Currency: "ARS", DaysToMaturity: 1, SettlementRate: domain.Float(30)},
		}, at),
		Bonds: domain.Available([]domain.BondRow{
			{Ticker: "S24O5", Fields: map[string]string{"Días": "5", "Precio": "100", "Pago Final": "101"}},
			{Ticker: "S28N5", Fields: map[string]string{"Días": "45", "Precio": "95", "Pago Final": "101"}},
		}, at),
	}
	c := domain.Compare(domain.Settings{
		Capital:            100_000,
		HorizonDays:        7,
		MoneyMarketRatePct: 25,
		Favorites:          []string{"S24O5", "S28N5"},
	}, snap)
	c.ID = "cmp-1"
	return c
}

func do(t *testing.T, h http.Handler, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, path, nil)
	} else {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	}
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)
	return w
}

func TestHealth(t *testing.T) {
	h := api.NewRouter(&fakeComparisons{}, nil, nil)

	w := do(t, h, http.MethodGet, "/healthz", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"status":"ok","last_comparison":null}`, w.Body.String())
}

func TestComparison_NoDataYet(t *testing.T) {
	h := api.NewRouter(&fakeComparisons{}, nil, nil)

	w := do(t, h, http.MethodGet, "/api/comparison", "")
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
	assert.Contains(t, w.Body.String(), "no comparison yet")
}

func TestComparison_FromMemory(t *testing.T) {
	c := sampleComparison(time.Now().UTC())
	h := api.NewRouter(&fakeComparisons{last: &c}, nil, nil)

	w := do(t, h, http.MethodGet, "/api/comparison", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "application/json", w.Header().Get("Content-Type"))

	var got domain.Comparison
	require.NoError(t, json.NewDecoder(w.Body).Decode(&got))
	assert.Equal(t, "cmp-1", got.ID)
	assert.Equal(t, c.Recommendation.Winner, got.Recommendation.Winner)
}

func TestComparison_FallsBackToStorage(t *testing.T) {
	db, err := storage.NewSQLiteStorage(":memory:")
	require.NoError(t, err)
	defer db.Close()

	c := sampleComparison(time.Now().UTC())
	require.NoError(t, db.SaveComparison(context.Background(), c))

	h := api.NewRouter(&fakeComparisons{}, db, nil)
	w := do(t, h, http.MethodGet, "/api/comparison", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"id":"cmp-1"`)
}

func TestOffers_SortedByDays(t *testing.T) {
	c := sampleComparison(time.Now().UTC())
	h := api.NewRouter(&fakeComparisons{last: &c}, nil, nil)

	w := do(t, h, http.MethodGet, "/api/offers", "")
	require.Equal(t, http.StatusOK, w.Code)

	var resp struct {
		Offers []struct {
			Days           int     `json:"days"`
			SettlementRate float64 `json:"settlement_rate"`
		} `json:"offers"`
		Curve domain.CurveSummary `json:"curve"`
	}
	require.NoError(t, json.NewDecoder(w.Body).Decode(&resp))
	require.Len(t, resp.Offers, 2)
	assert.Equal(t, 1, resp.Offers[0].Days)
	assert.Equal(t, 7, resp.Offers[1].Days)
	assert.Equal(t, 33.0, resp.Curve.MaxRatePct)
}

func TestBonds_ListsEligible(t *testing.T) {
	c := sampleComparison(time.Now().UTC())
	h := api.NewRouter(&fakeComparisons{last: &c}, nil, nil)

	w := do(t, h, http.MethodGet, "/api/bonds", "")
	require.Equal(t, http.StatusOK, w.Code)

	var resp struct {
		Bonds    []domain.DerivedBondMetrics `json:"bonds"`
		Eligible []string                    `json:"eligible"`
	}
	require.NoError(t, json.NewDecoder(w.Body).Decode(&resp))
	assert.Len(t, resp.Bonds, 2)
	assert.Equal(t, []string{"S24O5"}, resp.Eligible)
}

func TestHistory(t *testing.T) {
	db, err := storage.NewSQLiteStorage(":memory:")
	require.NoError(t, err)
	defer db.Close()

	now := time.Now().UTC()
	old := sampleComparison(now.Add(-5 * time.Hour))
	old.ID = "old"
	recent := sampleComparison(now.Add(-time.Hour))
	recent.ID = "recent"
	require.NoError(t, db.SaveComparison(context.Background(), old))
	require.NoError(t, db.SaveComparison(context.Background(), recent))

	h := api.NewRouter(&fakeComparisons{}, db, nil)

	w := do(t, h, http.MethodGet, "/api/history?hours=2", "")
	require.Equal(t, http.StatusOK, w.Code)
	var list []domain.Comparison
	require.NoError(t, json.NewDecoder(w.Body).Decode(&list))
	require.Len(t, list, 1)
	assert.Equal(t, "recent", list[0].ID)

	w = do(t, h, http.MethodGet, "/api/history", "")
	require.Equal(t, http.StatusOK, w.Code)
	require.NoError(t, json.NewDecoder(w.Body).Decode(&list))
	assert.Len(t, list, 2)
}

func TestHistory_BadHours(t *testing.T) {
	db, err := storage.NewSQLiteStorage(":memory:")
	require.NoError(t, err)
	defer db.Close()

	h := api.NewRouter(&fakeComparisons{}, db, nil)
	for _, q := range []string{"abc", "0", "-3"} {
		w := do(t, h, http.MethodGet, "/api/history?hours="+q, "")
		assert.Equal(t, http.StatusBadRequest, w.Code, q)
	}
}

func TestHistory_Disabled(t *testing.T) {
	h := api.NewRouter(&fakeComparisons{}, nil, nil)
	w := do(t, h, http.MethodGet, "/api/history", "")
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
}

func TestSettings_GetAndPut(t *testing.T) {
	c := sampleComparison(time.Now().UTC())
	fc := &fakeComparisons{last: &c, settings: domain.Settings{Version: 4, Capital: 100_000}}
	h := api.NewRouter(fc, nil, nil)

	w := do(t, h, http.MethodGet, "/api/settings", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"version":4`)

	w = do(t, h, http.MethodPut, "/api/settings", `{"capital": 250000, "horizon_days": 14}`)
	require.Equal(t, http.StatusOK, w.Code)
	require.Len(t, fc.updated, 1)
	assert.Equal(t, 250_000.0, fc.updated[0].Capital)
	assert.Contains(t, w.Body.String(), `"comparison"`)
	assert.Contains(t, w.Body.String(), `"version":5`)
}

func TestSettings_PutWithoutSnapshot(t *testing.T) {
	fc := &fakeComparisons{}
	h := api.NewRouter(fc, nil, nil)

	w := do(t, h, http.MethodPut, "/api/settings", `{"capital": 1000}`)
	assert.Equal(t, http.StatusAccepted, w.Code)
	assert.NotContains(t, w.Body.String(), `"comparison"`)
}

func TestSettings_PutInvalid(t *testing.T) {
	h := api.NewRouter(&fakeComparisons{}, nil, nil)

	w := do(t, h, http.MethodPut, "/api/settings", `{"capital": "mucho"}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = do(t, h, http.MethodPut, "/api/settings", `{"unknown_field": 1}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestCORS_Preflight(t *testing.T) {
	h := api.NewRouter(&fakeComparisons{}, nil, []string{"http://localhost:5173"})

	req := httptest.NewRequest(http.MethodOptions, "/api/comparison", nil)
	req.Header.Set("Origin", "http://localhost:5173")
	req.Header.Set("Access-Control-Request-Method", http.MethodGet)
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)

	assert.Equal(t, "http://localhost:5173", w.Header().Get("Access-Control-Allow-Origin"))
}
