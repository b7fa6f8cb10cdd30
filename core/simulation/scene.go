package simulation

import (
	"sync"

	"gonum.org/v1/gonum/spatial/r3"
)

// Scene is the presentation side of the simulation. The controller moves
// and orients vehicles through it and never knows how they are drawn.
type Scene interface {
	VehiclePosition(vehicleType string) r3.Vec
	SetVehiclePosition(vehicleType string, p r3.Vec)
	VehicleHeading(vehicleType string) float64
	SetVehicleHeading(vehicleType string, h float64)
}

// Selection is the user's current choice of vehicles and endpoints.
type Selection interface {
	SelectedVehicleTypes() []string
	SelectedStartLocation() string
	SelectedEndLocation() string
}

// StaticSelection is a fixed Selection.
type StaticSelection struct {
	Vehicles []string
	From     string
	To       string
}

func (s StaticSelection) SelectedVehicleTypes() []string { return s.Vehicles }
func (s StaticSelection) SelectedStartLocation() string  { return s.From }
func (s StaticSelection) SelectedEndLocation() string    { return s.To }

type pose struct {
	position r3.Vec
	heading  float64
}

// MemoryScene keeps poses in memory. It backs the headless service and tests.
type MemoryScene struct {
	mu    sync.RWMutex
	poses map[string]pose
}

// NewMemoryScene returns an empty scene.
func NewMemoryScene() *MemoryScene {
	return &MemoryScene{poses: map[string]pose{}}
}

func (s *MemoryScene) VehiclePosition(vehicleType string) r3.Vec {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.poses[vehicleType].position
}

func (s *MemoryScene) SetVehiclePosition(vehicleType string, p r3.Vec) {
	s.mu.Lock()
	defer s.mu.Unlock()
	ps := s.poses[vehicleType]
	ps.position = p
	s.poses[vehicleType] = ps
}

func (s *MemoryScene) VehicleHeading(vehicleType string) float64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.poses[vehicleType].heading
}

func (s *MemoryScene) SetVehicleHeading(vehicleType string, h float64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	ps := s.poses[vehicleType]
	ps.heading = h
	s.poses[vehicleType] = ps
}

// Remove forgets the pose of vehicleType.
func (s *MemoryScene) Remove(vehicleType string) {
	s.mu.Lock()
	delete(s.poses, vehicleType)
	s.mu.Unlock()
}

// body exposes one vehicle of a Scene as a kinematics.Body.
type body struct {
	scene   Scene
	vehicle string
}

func (b body) Position() r3.Vec     { return b.scene.VehiclePosition(b.vehicle) }
func (b body) SetPosition(p r3.Vec) { b.scene.SetVehiclePosition(b.vehicle, p) }
func (b body) Heading() float64     { return b.scene.VehicleHeading(b.vehicle) }
func (b body) SetHeading(h float64) { b.scene.SetVehicleHeading(b.vehicle, h) }
