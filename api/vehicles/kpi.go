// Package vehicles serves per-vehicle ecological KPIs.
package vehicles

import (
	"encoding/json"
	"net/http"
	"time"

	eco "github.com/kilianp07/evroute/core/metrics/eco"
)

// KPIPattern is the route NewKPIHandler expects to be mounted on.
const KPIPattern = "GET /api/vehicles/{type}/kpis"

type kpi struct {
	Date       string  `json:"date"`
	Trips      int     `json:"trips"`
	DistanceKm float64 `json:"distance_km"`
	EnergyKWh  float64 `json:"energy_kwh"`
	Efficiency float64 `json:"kwh_per_100km"`
	CO2Emitted float64 `json:"co2_emitted_g"`
	CO2Avoided float64 `json:"co2_avoided_g"`
}

// NewKPIHandler exposes daily KPIs of a vehicle type. The optional start and
// end query parameters are RFC 3339 timestamps; end defaults to now and
// start to seven days before end.
func NewKPIHandler(store eco.Store, gridFactor, iceFactor float64) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		end, err := parseTime(r.URL.Query().Get("end"), time.Now())
		if err != nil {
			http.Error(w, "invalid end", http.StatusBadRequest)
			return
		}
		start, err := parseTime(r.URL.Query().Get("start"), end.AddDate(0, 0, -7))
		if err != nil {
			http.Error(w, "invalid start", http.StatusBadRequest)
			return
		}
		recs, err := store.Query(r.PathValue("type"), start, end)
		if err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}
		out := make([]kpi, len(recs))
		for i, rec := range recs {
			out[i] = kpi{
				Date:       rec.Date.Format("2006-01-02"),
				Trips:      rec.Trips,
				DistanceKm: rec.DistanceKm,
				EnergyKWh:  rec.EnergyKWh,
				Efficiency: rec.Efficiency(),
				CO2Emitted: rec.CO2Emitted(gridFactor),
				CO2Avoided: rec.CO2Avoided(iceFactor, gridFactor),
			}
		}
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(out)
	})
}

func parseTime(v string, def time.Time) (time.Time, error) {
	if v == "" {
		return def, nil
	}
	return time.Parse(time.RFC3339, v)
}
