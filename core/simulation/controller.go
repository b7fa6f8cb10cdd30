// Package simulation drives a set of vehicles along routes of a road
// network. The Controller owns the vehicle states; the host advances time
// by calling Tick and renders through a Scene.
package simulation

import (
	"errors"
	"fmt"
	"math"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"gonum.org/v1/gonum/spatial/r3"

	"github.com/kilianp07/evroute/core/dashboard"
	"github.com/kilianp07/evroute/core/kinematics"
	"github.com/kilianp07/evroute/core/logger"
	"github.com/kilianp07/evroute/core/model"
	"github.com/kilianp07/evroute/core/monitoring"
	"github.com/kilianp07/evroute/core/network"
	"github.com/kilianp07/evroute/core/routing"
	"github.com/kilianp07/evroute/internal/eventbus"
)

var (
	// ErrPathNotFound reports a vehicle that could not be routed.
	ErrPathNotFound = errors.New("path not found")
	// ErrInvalidRequest reports a command with unusable arguments.
	ErrInvalidRequest = errors.New("invalid request")
	// ErrInvalidTransition reports a command not allowed in the current phase.
	ErrInvalidTransition = errors.New("invalid transition")
)

// DefaultSpeedFactor is the simulated seconds per real second.
const DefaultSpeedFactor = 5.0

// ParkedHeading is the orientation of a vehicle waiting at its start.
const ParkedHeading = math.Pi

// Phase is the lifecycle state of a simulation.
type Phase int

const (
	PhaseIdle Phase = iota
	PhaseRunning
	PhasePaused
)

func (p Phase) String() string {
	switch p {
	case PhaseIdle:
		return "idle"
	case PhaseRunning:
		return "running"
	case PhasePaused:
		return "paused"
	default:
		return "unknown"
	}
}

// MarshalText encodes the phase by name.
func (p Phase) MarshalText() ([]byte, error) { return []byte(p.String()), nil }

// Options configures a Controller. Network and Catalog are required.
type Options struct {
	Network     *network.Network
	Catalog     model.Catalog
	Scene       Scene
	Bus         *eventbus.TypedBus[Event]
	Logger      logger.Logger
	SpeedFactor float64
	// Start and End preselect the route; they default to the first two
	// locations of the network.
	Start string
	End   string
	Clock func() time.Time
}

type vehicle struct {
	profile model.Profile
	perf    model.Performance
	state   model.VehicleState
}

// Controller runs the simulation. All methods are safe for concurrent use.
type Controller struct {
	mu      sync.Mutex
	ticking atomic.Bool

	net     *network.Network
	finder  *routing.Finder
	catalog model.Catalog
	scene   Scene
	bus     *eventbus.TypedBus[Event]
	log     logger.Logger
	now     func() time.Time

	phase       Phase
	speedFactor float64
	start, end  string
	runID       string
	order       []string
	vehicles    map[string]*vehicle
}

// StartReport lists what Start did for each requested vehicle.
type StartReport struct {
	RunID   string           `json:"run_id"`
	Route   []string         `json:"route,omitempty"`
	Started []string         `json:"started"`
	Failed  map[string]error `json:"-"`
}

// VehicleSnapshot is a read-only copy of one vehicle.
type VehicleSnapshot struct {
	Type       string             `json:"type"`
	Name       string             `json:"name"`
	State      model.VehicleState `json:"state"`
	Position   r3.Vec             `json:"position"`
	Heading    float64            `json:"heading"`
	BatteryKWh float64            `json:"battery_kwh"`
}

// Status summarises the controller.
type Status struct {
	Phase       Phase   `json:"phase"`
	RunID       string  `json:"run_id,omitempty"`
	SpeedFactor float64 `json:"speed_factor"`
	Start       string  `json:"start"`
	End         string  `json:"end"`
	Vehicles    int     `json:"vehicles"`
	Moving      int     `json:"moving"`
}

// New builds a Controller from opts.
func New(opts Options) (*Controller, error) {
	if opts.Network == nil {
		return nil, fmt.Errorf("%w: network is required", ErrInvalidRequest)
	}
	if len(opts.Catalog) == 0 {
		return nil, fmt.Errorf("%w: vehicle catalog is empty", ErrInvalidRequest)
	}
	c := &Controller{
		net:         opts.Network,
		finder:      routing.NewFinder(opts.Network),
		catalog:     opts.Catalog,
		scene:       opts.Scene,
		bus:         opts.Bus,
		log:         logger.OrNop(opts.Logger),
		now:         opts.Clock,
		speedFactor: opts.SpeedFactor,
		start:       opts.Start,
		end:         opts.End,
		vehicles:    map[string]*vehicle{},
	}
	if c.scene == nil {
		c.scene = NewMemoryScene()
	}
	if c.now == nil {
		c.now = time.Now
	}
	if c.speedFactor == 0 {
		c.speedFactor = DefaultSpeedFactor
	}
	if c.speedFactor < 0 {
		return nil, fmt.Errorf("%w: speed factor must be positive", ErrInvalidRequest)
	}
	locs := opts.Network.Locations()
	if c.start == "" && len(locs) > 0 {
		c.start = locs[0].Name
	}
	if c.end == "" && len(locs) > 1 {
		c.end = locs[1].Name
	}
	return c, nil
}

// Network returns the road network driven on.
func (c *Controller) Network() *network.Network { return c.net }

// Finder returns the route finder over the network.
func (c *Controller) Finder() *routing.Finder { return c.finder }

// Catalog returns the known vehicle profiles.
func (c *Controller) Catalog() model.Catalog { return c.catalog }

// AddVehicle registers a vehicle of the given type, parked at the selected
// start. Adding a type twice is a no-op.
func (c *Controller) AddVehicle(vehicleType string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.addLocked(vehicleType)
}

func (c *Controller) addLocked(vehicleType string) error {
	if _, ok := c.vehicles[vehicleType]; ok {
		c.log.Warnf("vehicle %s already exists", vehicleType)
		return nil
	}
	p, err := c.catalog.Profile(vehicleType)
	if err != nil {
		return err
	}
	c.vehicles[vehicleType] = &vehicle{profile: p, perf: p.Performance()}
	c.order = append(c.order, vehicleType)
	c.park(vehicleType)
	c.log.Debugf("vehicle %s added", vehicleType)
	return nil
}

// RemoveVehicle unregisters vehicleType and reports whether it existed.
func (c *Controller) RemoveVehicle(vehicleType string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if _, ok := c.vehicles[vehicleType]; !ok {
		return false
	}
	c.abortLocked(vehicleType, c.now())
	delete(c.vehicles, vehicleType)
	for i, t := range c.order {
		if t == vehicleType {
			c.order = append(c.order[:i], c.order[i+1:]...)
			break
		}
	}
	if ms, ok := c.scene.(*MemoryScene); ok {
		ms.Remove(vehicleType)
	}
	return true
}

// Vehicles returns the registered vehicle types in registration order.
func (c *Controller) Vehicles() []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]string, len(c.order))
	copy(out, c.order)
	return out
}

// SelectLocations changes the preselected route and resets the simulation.
func (c *Controller) SelectLocations(start, end string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, name := range []string{start, end} {
		if !c.net.Has(name) {
			return fmt.Errorf("%w: %w: %q", ErrInvalidRequest, network.ErrLocationNotFound, name)
		}
	}
	c.start, c.end = start, end
	c.resetLocked()
	return nil
}

// Selection returns the preselected start and end locations.
func (c *Controller) Selection() (start, end string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.start, c.end
}

// StartSelection starts the run described by sel.
func (c *Controller) StartSelection(sel Selection) (StartReport, error) {
	return c.Start(sel.SelectedStartLocation(), sel.SelectedEndLocation(), sel.SelectedVehicleTypes())
}

// Start routes every listed vehicle from start to end and begins the run.
// A nil list starts every registered vehicle. Vehicles that cannot be
// routed stay parked and are reported in StartReport.Failed; the others
// drive. Starting is allowed from idle or paused.
func (c *Controller) Start(start, end string, vehicles []string) (StartReport, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.phase == PhaseRunning {
		return StartReport{}, fmt.Errorf("%w: simulation already running", ErrInvalidTransition)
	}
	if start == end {
		return StartReport{}, fmt.Errorf("%w: start and end locations are the same", ErrInvalidRequest)
	}
	if vehicles == nil {
		vehicles = append([]string(nil), c.order...)
	}
	for _, t := range vehicles {
		if _, ok := c.vehicles[t]; ok {
			continue
		}
		if _, err := c.catalog.Profile(t); err != nil {
			return StartReport{}, fmt.Errorf("%w: %w", ErrInvalidRequest, err)
		}
	}

	now := c.now()
	for _, t := range vehicles {
		if _, ok := c.vehicles[t]; ok {
			c.abortLocked(t, now)
		}
	}

	if c.net.Has(start) && c.net.Has(end) {
		c.start, c.end = start, end
	}
	c.runID = uuid.NewString()
	rep := StartReport{RunID: c.runID, Started: []string{}, Failed: map[string]error{}}
	route, routeErr := c.finder.FindRoute(start, end)
	if routeErr == nil {
		rep.Route = route
	}
	for _, t := range vehicles {
		if err := c.addLocked(t); err != nil {
			return rep, err
		}
		v := c.vehicles[t]
		path, err := c.finder.FindPath(start, end)
		if err != nil {
			ferr := fmt.Errorf("%w: %s from %q to %q: %w", ErrPathNotFound, t, start, end, err)
			rep.Failed[t] = ferr
			c.park(t)
			c.log.Errorf("start %s: %v", t, ferr)
			monitoring.CaptureException(ferr, map[string]string{"vehicle": t, "from": start, "to": end})
			c.publish(Event{Kind: EventPathNotFound, Vehicle: t, From: start, To: end, Error: ferr.Error(), Time: now})
			continue
		}
		v.state.Reset()
		v.state.AssignPath(path)
		c.scene.SetVehiclePosition(t, path[0])
		if len(path) > 1 {
			c.scene.SetVehicleHeading(t, kinematics.HeadingTowards(r3.Sub(path[1], path[0])))
		}
		rep.Started = append(rep.Started, t)
		c.publish(Event{Kind: EventStarted, Vehicle: t, From: start, To: end, State: v.state.Clone(), Time: now})
	}
	c.phase = PhaseRunning
	c.log.Infof("simulation %s started from %s to %s: %d started, %d failed", c.runID, start, end, len(rep.Started), len(rep.Failed))
	return rep, nil
}

// Pause toggles between running and paused.
func (c *Controller) Pause() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	switch c.phase {
	case PhaseRunning:
		c.phase = PhasePaused
		c.publish(Event{Kind: EventPaused, Time: c.now()})
	case PhasePaused:
		c.phase = PhaseRunning
		c.publish(Event{Kind: EventResumed, Time: c.now()})
	default:
		return fmt.Errorf("%w: simulation is not running", ErrInvalidTransition)
	}
	c.log.Infof("simulation %s", c.phase)
	return nil
}

// Reset stops the run and parks every vehicle at the selected start with
// fresh state. Calling it repeatedly has no further effect.
func (c *Controller) Reset() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.resetLocked()
}

func (c *Controller) resetLocked() {
	now := c.now()
	for _, t := range c.order {
		c.abortLocked(t, now)
		c.park(t)
	}
	if c.phase != PhaseIdle {
		c.publish(Event{Kind: EventReset, Time: now})
	}
	c.phase = PhaseIdle
}

// abortLocked reports the trip of a vehicle that is still moving as
// aborted. The event carries the current run and selection.
func (c *Controller) abortLocked(vehicleType string, now time.Time) {
	v := c.vehicles[vehicleType]
	if v.state.Moving {
		c.publish(Event{Kind: EventReset, Vehicle: vehicleType, From: c.start, To: c.end, State: v.state.Clone(), Time: now})
	}
}

// park resets the vehicle and places it at the selected start.
func (c *Controller) park(vehicleType string) {
	c.vehicles[vehicleType].state.Reset()
	if pos, err := c.net.LocationPosition(c.start); err == nil {
		c.scene.SetVehiclePosition(vehicleType, pos)
	}
	c.scene.SetVehicleHeading(vehicleType, ParkedHeading)
}

// Tick advances the simulation by realDelta seconds of host time, scaled
// by the speed factor. It does nothing unless the simulation is running.
// A Tick issued while another is in progress is dropped.
func (c *Controller) Tick(realDelta float64) {
	if !c.ticking.CompareAndSwap(false, true) {
		return
	}
	defer c.ticking.Store(false)

	c.mu.Lock()
	defer c.mu.Unlock()
	if c.phase != PhaseRunning || realDelta <= 0 {
		return
	}
	dt := realDelta * c.speedFactor
	var now time.Time
	for _, t := range c.order {
		v := c.vehicles[t]
		if !v.state.Moving {
			continue
		}
		switch kinematics.Advance(&v.state, v.perf, dt, body{scene: c.scene, vehicle: t}) {
		case kinematics.OutcomeWaypoint:
			if now.IsZero() {
				now = c.now()
			}
			c.publish(Event{Kind: EventWaypoint, Vehicle: t, From: c.start, To: c.end, State: v.state.Clone(), Time: now})
		case kinematics.OutcomeFinished:
			if now.IsZero() {
				now = c.now()
			}
			c.log.Infof("vehicle %s arrived at %s after %.1f m", t, c.end, v.state.DistanceDriven)
			c.publish(Event{Kind: EventArrived, Vehicle: t, From: c.start, To: c.end, State: v.state.Clone(), Time: now})
		}
	}
}

// SetSpeedFactor changes the time scale from the next tick on.
func (c *Controller) SetSpeedFactor(f float64) error {
	if f <= 0 || math.IsNaN(f) || math.IsInf(f, 0) {
		return fmt.Errorf("%w: speed factor must be positive, got %v", ErrInvalidRequest, f)
	}
	c.mu.Lock()
	c.speedFactor = f
	c.mu.Unlock()
	return nil
}

// SpeedFactor returns the current time scale.
func (c *Controller) SpeedFactor() float64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.speedFactor
}

// Vehicle returns a copy of the state of vehicleType.
func (c *Controller) Vehicle(vehicleType string) (model.VehicleState, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	v, ok := c.vehicles[vehicleType]
	if !ok {
		return model.VehicleState{}, false
	}
	return v.state.Clone(), true
}

// Snapshot returns a copy of every vehicle in registration order.
func (c *Controller) Snapshot() []VehicleSnapshot {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]VehicleSnapshot, 0, len(c.order))
	for _, t := range c.order {
		v := c.vehicles[t]
		out = append(out, VehicleSnapshot{
			Type:       t,
			Name:       v.profile.Name,
			State:      v.state.Clone(),
			Position:   c.scene.VehiclePosition(t),
			Heading:    c.scene.VehicleHeading(t),
			BatteryKWh: v.profile.Capacity(),
		})
	}
	return out
}

// Report computes the dashboard over the registered vehicles.
func (c *Controller) Report() dashboard.Report {
	snap := c.Snapshot()
	readings := make([]dashboard.Reading, len(snap))
	for i, s := range snap {
		readings[i] = dashboard.Reading{State: s.State, BatteryKWh: s.BatteryKWh}
	}
	return dashboard.BuildReport(readings)
}

// Status returns the phase and counters of the controller.
func (c *Controller) Status() Status {
	c.mu.Lock()
	defer c.mu.Unlock()
	st := Status{
		Phase:       c.phase,
		RunID:       c.runID,
		SpeedFactor: c.speedFactor,
		Start:       c.start,
		End:         c.end,
		Vehicles:    len(c.order),
	}
	for _, v := range c.vehicles {
		if v.state.Moving {
			st.Moving++
		}
	}
	return st
}

func (c *Controller) publish(ev Event) {
	if c.bus == nil {
		return
	}
	ev.RunID = c.runID
	c.bus.Publish(ev)
}
