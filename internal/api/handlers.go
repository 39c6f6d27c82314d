package api

import (
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/gorilla/mux"

	"strom_dashboard/internal/aggregate"
	"strom_dashboard/internal/fetch"
	"strom_dashboard/internal/log"
	"strom_dashboard/internal/model"
	"strom_dashboard/internal/store"
)

type handlers struct {
	deps Deps
}

// Sample is one point of a day's power curve.
type Sample struct {
	Timestamp time.Time `json:"timestamp"`
	Leistung  float64   `json:"leistung"`
}

// DayDetail is the response of /api/day/{day}.
type DayDetail struct {
	Day         string               `json:"day"`
	Verbrauch   float64              `json:"verbrauch"`
	Einspeisung float64              `json:"einspeisung"`
	Endstand    float64              `json:"endstand"`
	Anomaly     bool                 `json:"anomaly"`
	Power       aggregate.PowerStats `json:"power"`
	Verlauf     []Sample             `json:"verlauf"`
}

// DaysResponse is the response of /api/days.
type DaysResponse struct {
	Days []string `json:"days"`
}

func (h *handlers) health(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	fmt.Fprintln(w, "ok")
}

func (h *handlers) dashboard(w http.ResponseWriter, r *http.Request) {
	ref := h.deps.Dashboard.Now()
	if day := r.URL.Query().Get("day"); day != "" {
		if !fetch.ValidDay(day) {
			respondError(w, invalidDayError(day))
			return
		}
		ref, _ = model.ParseDay(day, h.deps.Dashboard.Location())
	}
	respondJSON(w, http.StatusOK, h.deps.Dashboard.Run(r.Context(), ref))
}

func (h *handlers) day(w http.ResponseWriter, r *http.Request) {
	day := mux.Vars(r)["day"]
	if !fetch.ValidDay(day) {
		respondError(w, invalidDayError(day))
		return
	}

	series, err := h.deps.Source.FetchDay(r.Context(), day)
	if err != nil && !isNotFound(err) {
		log.Warnf("Loading day %s: %v", day, err)
		respondError(w, NewAPIError(ErrorCodeUpstream, "could not load day "+day, nil, http.StatusBadGateway))
		return
	}
	if len(series) == 0 {
		respondError(w, NewAPIError(ErrorCodeNotFound, "no readings for day "+day, nil, http.StatusNotFound))
		return
	}

	respondJSON(w, http.StatusOK, dayDetail(day, series))
}

func (h *handlers) invalidDay(w http.ResponseWriter, r *http.Request) {
	respondError(w, invalidDayError(mux.Vars(r)["day"]))
}

func (h *handlers) days(w http.ResponseWriter, r *http.Request) {
	if h.deps.Days == nil {
		respondError(w, NewAPIError(ErrorCodeNotSupported, "the configured source cannot list days", nil, http.StatusNotImplemented))
		return
	}
	days, err := h.deps.Days.Days(r.Context())
	if err != nil {
		log.Errorf("Listing days: %v", err)
		respondError(w, NewAPIError(ErrorCodeInternalServerError, "could not list days", nil, http.StatusInternalServerError))
		return
	}
	respondJSON(w, http.StatusOK, DaysResponse{Days: days})
}

func dayDetail(day string, series model.DaySeries) DayDetail {
	verlauf := make([]Sample, len(series))
	for i, r := range series {
		verlauf[i] = Sample{Timestamp: r.Timestamp, Leistung: r.Leistung}
	}
	return DayDetail{
		Day:         day,
		Verbrauch:   aggregate.Consumption(series),
		Einspeisung: aggregate.FeedIn(series),
		Endstand:    aggregate.Endstand(series),
		Anomaly:     aggregate.Anomalous(series),
		Power:       aggregate.Power(series),
		Verlauf:     verlauf,
	}
}

func isNotFound(err error) bool {
	if errors.Is(err, store.ErrNoDay) {
		return true
	}
	var fe *fetch.FetchError
	return errors.As(err, &fe) && fe.StatusCode == http.StatusNotFound
}

func invalidDayError(day string) APIError {
	return NewAPIError(ErrorCodeInvalidFormat, fmt.Sprintf("invalid day %q, want YYYY-MM-DD", day), nil, http.StatusBadRequest)
}
