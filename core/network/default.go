package network

import "gonum.org/v1/gonum/spatial/r3"

// Names of the default scene locations.
const (
	StartPointA    = "Start Point A"
	OfficeBuilding = "Office Building"
	ChargingHub    = "Charging Hub"
	ShoppingMall   = "Shopping Mall"
	ParkEntrance   = "Park Entrance"
)

// DefaultLocations is the five-location demo scene.
func DefaultLocations() []Location {
	return []Location{
		{Name: StartPointA, Position: r3.Vec{X: -40, Y: GroundOffset, Z: -40}},
		{Name: OfficeBuilding, Position: r3.Vec{X: 40, Y: GroundOffset, Z: 40}},
		{Name: ChargingHub, Position: r3.Vec{X: -30, Y: GroundOffset, Z: 30}},
		{Name: ShoppingMall, Position: r3.Vec{X: 20, Y: GroundOffset, Z: -35}},
		{Name: ParkEntrance, Position: r3.Vec{X: 0, Y: GroundOffset, Z: 0}},
	}
}

// DefaultEdges connects the demo scene through the park entrance.
func DefaultEdges() []Edge {
	return []Edge{
		{From: StartPointA, To: ParkEntrance},
		{From: ParkEntrance, To: OfficeBuilding},
		{From: ParkEntrance, To: ChargingHub},
		{From: ParkEntrance, To: ShoppingMall},
		{From: ChargingHub, To: OfficeBuilding},
		{From: ShoppingMall, To: OfficeBuilding},
	}
}

// Default returns the demo scene network.
func Default() *Network {
	n, err := New(DefaultLocations(), DefaultEdges())
	if err != nil {
		panic(err) // static data
	}
	return n
}
