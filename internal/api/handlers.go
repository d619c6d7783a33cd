package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/alejandrodnm/rendimientos/internal/domain"
	"github.com/alejandrodnm/rendimientos/internal/ports"
)

const (
	defaultHistoryHours = 24
	maxHistoryHours     = 24 * 90
)

type handler struct {
	cmp     Comparisons
	history ports.Storage
}

type healthResponse struct {
	Status         string     `json:"status"`
	LastComparison *time.Time `json:"last_comparison"`
}

// offerView es una fila de la curva de cauciones.
type offerView struct {
	Days int `json:"days"`
	domain.MarketOffer
}

type offersResponse struct {
	ComputedAt time.Time           `json:"computed_at"`
	Offers     []offerView         `json:"offers"`
	Curve      domain.CurveSummary `json:"curve"`
}

type bondsResponse struct {
	ComputedAt time.Time                   `json:"computed_at"`
	Bonds      []domain.DerivedBondMetrics `json:"bonds"`
	Eligible   []string                    `json:"eligible"`
}

type settingsResponse struct {
	Settings   domain.Settings    `json:"settings"`
	Comparison *domain.Comparison `json:"comparison,omitempty"`
}

func (h *handler) health(w http.ResponseWriter, _ *http.Request) {
	resp := healthResponse{Status: "ok"}
	if c, ok := h.cmp.Last(); ok {
		at := c.ComputedAt
		resp.LastComparison = &at
	}
	respondJSON(w, http.StatusOK, resp)
}

// latest devuelve la comparación en memoria o, si no hay, la última persistida.
func (h *handler) latest(r *http.Request) (domain.Comparison, error) {
	if c, ok := h.cmp.Last(); ok {
		return c, nil
	}
	if h.history == nil {
		return domain.Comparison{}, domain.ErrNoData
	}
	return h.history.GetLatest(r.Context())
}

func (h *handler) respondLatestError(w http.ResponseWriter, err error) {
	if errors.Is(err, domain.ErrNoData) {
		respondError(w, http.StatusServiceUnavailable, "no comparison yet", nil)
		return
	}
	respondError(w, http.StatusInternalServerError, "load comparison", err)
}

func (h *handler) comparison(w http.ResponseWriter, r *http.Request) {
	c, err := h.latest(r)
	if err != nil {
		h.respondLatestError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, c)
}

func (h *handler) offers(w http.ResponseWriter, r *http.Request) {
	c, err := h.latest(r)
	if err != nil {
		h.respondLatestError(w, err)
		return
	}
	resp := offersResponse{ComputedAt: c.ComputedAt, Curve: c.Curve, Offers: []offerView{}}
	for _, d := range c.BestOffers.Days() {
		resp.Offers = append(resp.Offers, offerView{Days: d, MarketOffer: c.BestOffers[d]})
	}
	respondJSON(w, http.StatusOK, resp)
}

func (h *handler) bonds(w http.ResponseWriter, r *http.Request) {
	c, err := h.latest(r)
	if err != nil {
		h.respondLatestError(w, err)
		return
	}
	resp := bondsResponse{ComputedAt: c.ComputedAt, Bonds: c.Bonds, Eligible: []string{}}
	if resp.Bonds == nil {
		resp.Bonds = []domain.DerivedBondMetrics{}
	}
	for _, b := range domain.EligibleBonds(c.Bonds) {
		resp.Eligible = append(resp.Eligible, b.Ticker)
	}
	respondJSON(w, http.StatusOK, resp)
}

func (h *handler) historyRange(w http.ResponseWriter, r *http.Request) {
	if h.history == nil {
		respondError(w, http.StatusServiceUnavailable, "history disabled", nil)
		return
	}

	hours := defaultHistoryHours
	if raw := r.URL.Query().Get("hours"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n <= 0 {
			respondError(w, http.StatusBadRequest, "hours must be a positive integer", err)
			return
		}
		hours = min(n, maxHistoryHours)
	}

	to := time.Now().UTC()
	from := to.Add(-time.Duration(hours) * time.Hour)
	list, err := h.history.GetHistory(r.Context(), from, to)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "load history", err)
		return
	}
	if list == nil {
		list = []domain.Comparison{}
	}
	respondJSON(w, http.StatusOK, list)
}

func (h *handler) getSettings(w http.ResponseWriter, _ *http.Request) {
	respondJSON(w, http.StatusOK, settingsResponse{Settings: h.cmp.Settings()})
}

// putSettings reemplaza los parámetros y devuelve la comparación recalculada.
// Sin snapshot previo responde 202: los parámetros quedan para el próximo ciclo.
func (h *handler) putSettings(w http.ResponseWriter, r *http.Request) {
	var s domain.Settings
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, 64<<10))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&s); err != nil {
		respondError(w, http.StatusBadRequest, "invalid settings", err)
		return
	}

	c, err := h.cmp.UpdateSettings(r.Context(), s)
	if errors.Is(err, domain.ErrNoData) {
		respondJSON(w, http.StatusAccepted, settingsResponse{Settings: h.cmp.Settings()})
		return
	}
	if err != nil {
		respondError(w, http.StatusInternalServerError, "update settings", err)
		return
	}
	respondJSON(w, http.StatusOK, settingsResponse{Settings: c.Settings, Comparison: &c})
}
