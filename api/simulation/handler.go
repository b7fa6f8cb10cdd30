// Package simulation exposes the simulation controller over HTTP.
package simulation

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"gonum.org/v1/gonum/spatial/r3"

	"github.com/kilianp07/evroute/core/dashboard"
	"github.com/kilianp07/evroute/core/model"
	"github.com/kilianp07/evroute/core/network"
	"github.com/kilianp07/evroute/core/routing"
	coresim "github.com/kilianp07/evroute/core/simulation"
	"github.com/kilianp07/evroute/core/triplog"
	"github.com/kilianp07/evroute/pkg/export"
)

// Options holds the optional collaborators of the API.
type Options struct {
	Timeline *dashboard.Timeline
	Trips    triplog.Store
	// Token, when set, is required as a bearer token on POST requests.
	Token string
}

type handler struct {
	ctrl *coresim.Controller
	opts Options
}

// NewHandler returns the HTTP API of ctrl.
func NewHandler(ctrl *coresim.Controller, opts Options) http.Handler {
	h := &handler{ctrl: ctrl, opts: opts}
	mux := http.NewServeMux()
	mux.HandleFunc("GET /api/locations", h.locations)
	mux.HandleFunc("GET /api/route", h.route)
	mux.HandleFunc("GET /api/vehicles", h.vehicles)
	mux.HandleFunc("GET /api/vehicles/state", h.vehicleStates)
	mux.HandleFunc("POST /api/vehicles", h.auth(h.addVehicle))
	mux.HandleFunc("DELETE /api/vehicles/{type}", h.auth(h.removeVehicle))
	mux.HandleFunc("GET /api/dashboard", h.dashboard)
	mux.HandleFunc("GET /api/dashboard/timeline", h.timeline)
	mux.HandleFunc("GET /api/trips", h.trips)
	mux.HandleFunc("GET /api/simulation", h.status)
	mux.HandleFunc("POST /api/simulation/start", h.auth(h.start))
	mux.HandleFunc("POST /api/simulation/pause", h.auth(h.pause))
	mux.HandleFunc("POST /api/simulation/reset", h.auth(h.reset))
	mux.HandleFunc("POST /api/simulation/speed", h.auth(h.speed))
	mux.HandleFunc("POST /api/simulation/select", h.auth(h.selectLocations))
	return mux
}

func (h *handler) auth(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if h.opts.Token != "" && r.Header.Get("Authorization") != "Bearer "+h.opts.Token {
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}
		next(w, r)
	}
}

type locationView struct {
	Name      string   `json:"name"`
	Position  r3.Vec   `json:"position"`
	Neighbors []string `json:"neighbors"`
}

func (h *handler) locations(w http.ResponseWriter, _ *http.Request) {
	net := h.ctrl.Network()
	locs := net.Locations()
	out := make([]locationView, len(locs))
	for i, l := range locs {
		out[i] = locationView{Name: l.Name, Position: l.Position, Neighbors: net.Neighbors(l.Name)}
		if out[i].Neighbors == nil {
			out[i].Neighbors = []string{}
		}
	}
	writeJSON(w, http.StatusOK, out)
}

type routeView struct {
	From  string     `json:"from"`
	To    string     `json:"to"`
	Route []string   `json:"route"`
	Path  model.Path `json:"path"`
	Hops  int        `json:"hops"`
}

func (h *handler) route(w http.ResponseWriter, r *http.Request) {
	from, to := r.URL.Query().Get("from"), r.URL.Query().Get("to")
	if from == "" || to == "" {
		http.Error(w, "from and to are required", http.StatusBadRequest)
		return
	}
	f := h.ctrl.Finder()
	route, err := f.FindRoute(from, to)
	if err != nil {
		writeError(w, err)
		return
	}
	path, err := f.FindPath(from, to)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, routeView{From: from, To: to, Route: route, Path: path, Hops: len(route) - 1})
}

func (h *handler) vehicles(w http.ResponseWriter, _ *http.Request) {
	cat := h.ctrl.Catalog()
	out := make([]model.Profile, 0, len(cat))
	for _, t := range cat.Types() {
		out = append(out, cat[t])
	}
	writeJSON(w, http.StatusOK, map[string]any{"active": h.ctrl.Vehicles(), "profiles": out})
}

func (h *handler) vehicleStates(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, h.ctrl.Snapshot())
}

type vehicleRequest struct {
	Type string `json:"type"`
}

func (h *handler) addVehicle(w http.ResponseWriter, r *http.Request) {
	var req vehicleRequest
	if !decode(w, r, &req) {
		return
	}
	if err := h.ctrl.AddVehicle(req.Type); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"active": h.ctrl.Vehicles()})
}

func (h *handler) removeVehicle(w http.ResponseWriter, r *http.Request) {
	if !h.ctrl.RemoveVehicle(r.PathValue("type")) {
		http.NotFound(w, r)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

type dashboardView struct {
	Status coresim.Status   `json:"status"`
	Report dashboard.Report `json:"report"`
}

func (h *handler) dashboard(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, dashboardView{Status: h.ctrl.Status(), Report: h.ctrl.Report()})
}

func (h *handler) timeline(w http.ResponseWriter, r *http.Request) {
	var samples []dashboard.Sample
	if h.opts.Timeline != nil {
		samples = h.opts.Timeline.Samples()
	}
	if samples == nil {
		samples = []dashboard.Sample{}
	}
	format := r.URL.Query().Get("format")
	w.Header().Set("Content-Type", export.ContentType(format))
	if err := export.WriteTimeline(w, format, samples); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
	}
}

func (h *handler) trips(w http.ResponseWriter, r *http.Request) {
	if h.opts.Trips == nil {
		http.Error(w, "trip log disabled", http.StatusNotFound)
		return
	}
	v := r.URL.Query()
	q := triplog.Query{Vehicle: v.Get("vehicle"), Outcome: v.Get("outcome"), RunID: v.Get("run_id")}
	if s := v.Get("start"); s != "" {
		if t, err := time.Parse(time.RFC3339, s); err == nil {
			q.Start = t
		}
	}
	if s := v.Get("end"); s != "" {
		if t, err := time.Parse(time.RFC3339, s); err == nil {
			q.End = t
		}
	}
	if s := v.Get("limit"); s != "" {
		if n, err := strconv.Atoi(s); err == nil && n > 0 {
			q.Limit = n
		}
	}
	records, err := h.opts.Trips.Query(r.Context(), q)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	if records == nil {
		records = []triplog.Record{}
	}
	format := v.Get("format")
	w.Header().Set("Content-Type", export.ContentType(format))
	if err := export.WriteTrips(w, format, records); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
	}
}

func (h *handler) status(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, h.ctrl.Status())
}

type startRequest struct {
	From     string   `json:"from"`
	To       string   `json:"to"`
	Vehicles []string `json:"vehicles"`
}

type startResponse struct {
	coresim.StartReport
	Failed map[string]string `json:"failed"`
}

func (h *handler) start(w http.ResponseWriter, r *http.Request) {
	var req startRequest
	if !decode(w, r, &req) {
		return
	}
	if req.From == "" || req.To == "" {
		req.From, req.To = h.ctrl.Selection()
	}
	rep, err := h.ctrl.Start(req.From, req.To, req.Vehicles)
	if err != nil {
		writeError(w, err)
		return
	}
	out := startResponse{StartReport: rep, Failed: map[string]string{}}
	for t, ferr := range rep.Failed {
		out.Failed[t] = ferr.Error()
	}
	writeJSON(w, http.StatusOK, out)
}

func (h *handler) pause(w http.ResponseWriter, _ *http.Request) {
	if err := h.ctrl.Pause(); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, h.ctrl.Status())
}

func (h *handler) reset(w http.ResponseWriter, _ *http.Request) {
	h.ctrl.Reset()
	if h.opts.Timeline != nil {
		h.opts.Timeline.Clear()
	}
	writeJSON(w, http.StatusOK, h.ctrl.Status())
}

type speedRequest struct {
	Factor float64 `json:"factor"`
}

func (h *handler) speed(w http.ResponseWriter, r *http.Request) {
	var req speedRequest
	if !decode(w, r, &req) {
		return
	}
	if err := h.ctrl.SetSpeedFactor(req.Factor); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, h.ctrl.Status())
}

type selectRequest struct {
	From string `json:"from"`
	To   string `json:"to"`
}

func (h *handler) selectLocations(w http.ResponseWriter, r *http.Request) {
	var req selectRequest
	if !decode(w, r, &req) {
		return
	}
	if err := h.ctrl.SelectLocations(req.From, req.To); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, h.ctrl.Status())
}

// decode reads an optional JSON body into v. An empty body leaves v untouched.
func decode(w http.ResponseWriter, r *http.Request, v any) bool {
	if r.Body == nil || r.ContentLength == 0 {
		return true
	}
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		http.Error(w, "invalid body: "+err.Error(), http.StatusBadRequest)
		return false
	}
	return true
}

// writeError maps controller and routing errors onto HTTP status codes.
func writeError(w http.ResponseWriter, err error) {
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, coresim.ErrInvalidTransition):
		status = http.StatusConflict
	case errors.Is(err, coresim.ErrInvalidRequest),
		errors.Is(err, model.ErrUnknownVehicle):
		status = http.StatusBadRequest
	case errors.Is(err, routing.ErrNoPath),
		errors.Is(err, network.ErrLocationNotFound):
		status = http.StatusNotFound
	}
	http.Error(w, err.Error(), status)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
