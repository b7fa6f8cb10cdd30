package config

import (
	"fmt"

	"gonum.org/v1/gonum/spatial/r3"

	"github.com/kilianp07/evroute/core/model"
	"github.com/kilianp07/evroute/core/network"
)

// LocationConfig declares one named location.
type LocationConfig struct {
	Name string  `json:"name"`
	X    float64 `json:"x"`
	Y    float64 `json:"y"`
	Z    float64 `json:"z"`
}

// NetworkConfig declares the road graph. Leaving both lists empty selects
// the built-in scene.
type NetworkConfig struct {
	Locations []LocationConfig `json:"locations"`
	Edges     []network.Edge   `json:"edges"`
}

// SetDefaults copies the built-in scene when nothing is declared.
func (c *NetworkConfig) SetDefaults() {
	if len(c.Locations) > 0 || len(c.Edges) > 0 {
		return
	}
	for _, l := range network.DefaultLocations() {
		c.Locations = append(c.Locations, LocationConfig{Name: l.Name, X: l.Position.X, Y: l.Position.Y, Z: l.Position.Z})
	}
	c.Edges = network.DefaultEdges()
}

// Build validates the declaration and returns the network.
func (c NetworkConfig) Build() (*network.Network, error) {
	if len(c.Locations) == 0 {
		return nil, fmt.Errorf("no locations")
	}
	locs := make([]network.Location, 0, len(c.Locations))
	for _, l := range c.Locations {
		locs = append(locs, network.Location{Name: l.Name, Position: r3.Vec{X: l.X, Y: l.Y, Z: l.Z}})
	}
	return network.New(locs, c.Edges)
}

// VehiclesConfig declares the vehicle catalog and the types placed in the
// scene at startup.
type VehiclesConfig struct {
	Profiles []model.Profile `json:"profiles"`
	Active   []string        `json:"active"`
}

// SetDefaults uses the built-in profiles and activates all of them.
func (c *VehiclesConfig) SetDefaults() {
	if len(c.Profiles) == 0 {
		c.Profiles = model.DefaultProfiles()
	}
	if c.Active == nil {
		for _, p := range c.Profiles {
			c.Active = append(c.Active, p.Type)
		}
	}
}

// Catalog builds the profile catalog.
func (c VehiclesConfig) Catalog() (model.Catalog, error) {
	return model.NewCatalog(c.Profiles)
}

// Validate checks the profiles and that every active type is known.
func (c VehiclesConfig) Validate() error {
	cat, err := c.Catalog()
	if err != nil {
		return err
	}
	for _, t := range c.Active {
		if _, err := cat.Profile(t); err != nil {
			return fmt.Errorf("active vehicles: %w", err)
		}
	}
	return nil
}
