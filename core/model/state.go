// Package model holds the vehicle data shared by the simulation core:
// performance profiles, paths and the mutable per-vehicle state.
package model

import "gonum.org/v1/gonum/spatial/r3"

// Path is the ordered list of waypoints a vehicle drives through.
type Path []r3.Vec

// VehicleState is the kinematic and progress record of one vehicle.
type VehicleState struct {
	CurrentSpeed   float64 `json:"current_speed"`   // m/s
	DistanceDriven float64 `json:"distance_driven"` // metres
	EnergyUsed     float64 `json:"energy_used"`     // kWh
	Path           Path    `json:"path"`
	SegmentIndex   int     `json:"segment_index"`
	Moving         bool    `json:"moving"`
	ElapsedTime    float64 `json:"elapsed_time"` // seconds
}

// Reset returns the state to its stationary default with no path.
func (s *VehicleState) Reset() {
	*s = VehicleState{}
}

// AssignPath starts a new trip along p.
func (s *VehicleState) AssignPath(p Path) {
	s.Path = p
	s.SegmentIndex = 0
	s.Moving = len(p) > 1
}

// Target returns the next waypoint, or false when the path is exhausted.
func (s *VehicleState) Target() (r3.Vec, bool) {
	if s.SegmentIndex+1 >= len(s.Path) {
		return r3.Vec{}, false
	}
	return s.Path[s.SegmentIndex+1], true
}

// Finished reports whether the vehicle reached the end of a non-trivial path.
func (s *VehicleState) Finished() bool {
	return len(s.Path) > 1 && s.SegmentIndex >= len(s.Path)-1 && !s.Moving
}

// Clone returns a copy that shares no memory with s.
func (s VehicleState) Clone() VehicleState {
	if s.Path != nil {
		p := make(Path, len(s.Path))
		copy(p, s.Path)
		s.Path = p
	}
	return s
}
