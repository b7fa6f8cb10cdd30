package model

import (
	"errors"
	"fmt"
	"sort"
)

// kmhToMS converts km/h (and km/h per second) into m/s (and m/s²).
const kmhToMS = 1000.0 / 3600.0

// DefaultBatteryKWh is assumed when a profile does not declare a capacity.
const DefaultBatteryKWh = 60.0

// ErrUnknownVehicle is returned when a vehicle type has no profile.
var ErrUnknownVehicle = errors.New("unknown vehicle type")

// Profile describes the performance of a vehicle type in the units used by
// configuration.
type Profile struct {
	Type                string  `json:"type"`
	Name                string  `json:"name"`
	MaxSpeedKmh         float64 `json:"max_speed_kmh"`
	AccelerationKmhPerS float64 `json:"acceleration_kmh_per_s"`
	BrakingKmhPerS      float64 `json:"braking_kmh_per_s"`
	ConsumptionKWhPerKm float64 `json:"consumption_kwh_per_km"`
	BatteryKWh          float64 `json:"battery_kwh"`
}

// Validate checks that the profile can drive a vehicle to completion.
func (p Profile) Validate() error {
	if p.Type == "" {
		return fmt.Errorf("vehicle type is required")
	}
	if p.MaxSpeedKmh <= 0 {
		return fmt.Errorf("vehicle %q: max speed must be positive", p.Type)
	}
	if p.AccelerationKmhPerS <= 0 || p.BrakingKmhPerS <= 0 {
		return fmt.Errorf("vehicle %q: acceleration and braking must be positive", p.Type)
	}
	if p.ConsumptionKWhPerKm < 0 {
		return fmt.Errorf("vehicle %q: consumption cannot be negative", p.Type)
	}
	if p.BatteryKWh < 0 {
		return fmt.Errorf("vehicle %q: battery capacity cannot be negative", p.Type)
	}
	return nil
}

// Capacity returns the battery capacity, falling back to DefaultBatteryKWh.
func (p Profile) Capacity() float64 {
	if p.BatteryKWh <= 0 {
		return DefaultBatteryKWh
	}
	return p.BatteryKWh
}

// Performance converts the profile into base units. This is the only place
// where per-hour rates are turned into per-second ones.
func (p Profile) Performance() Performance {
	return Performance{
		MaxSpeed:       p.MaxSpeedKmh * kmhToMS,
		Acceleration:   p.AccelerationKmhPerS * kmhToMS,
		Braking:        p.BrakingKmhPerS * kmhToMS,
		EnergyPerMeter: p.ConsumptionKWhPerKm / 1000,
	}
}

// Performance holds the profile in base units: m/s, m/s² and kWh per metre.
type Performance struct {
	MaxSpeed       float64
	Acceleration   float64
	Braking        float64
	EnergyPerMeter float64
}

// Catalog maps vehicle types to their profiles.
type Catalog map[string]Profile

// NewCatalog validates the profiles and indexes them by type.
func NewCatalog(profiles []Profile) (Catalog, error) {
	c := make(Catalog, len(profiles))
	for _, p := range profiles {
		if err := p.Validate(); err != nil {
			return nil, err
		}
		if _, dup := c[p.Type]; dup {
			return nil, fmt.Errorf("vehicle %q declared twice", p.Type)
		}
		c[p.Type] = p
	}
	return c, nil
}

// Profile returns the raw profile for vehicleType.
func (c Catalog) Profile(vehicleType string) (Profile, error) {
	p, ok := c[vehicleType]
	if !ok {
		return Profile{}, fmt.Errorf("%w: %q", ErrUnknownVehicle, vehicleType)
	}
	return p, nil
}

// Lookup returns the base-unit performance of vehicleType.
func (c Catalog) Lookup(vehicleType string) (Performance, error) {
	p, err := c.Profile(vehicleType)
	if err != nil {
		return Performance{}, err
	}
	return p.Performance(), nil
}

// Types returns the known vehicle types sorted alphabetically.
func (c Catalog) Types() []string {
	out := make([]string, 0, len(c))
	for t := range c {
		out = append(out, t)
	}
	sort.Strings(out)
	return out
}

// DefaultProfiles are the three demo EVs.
func DefaultProfiles() []Profile {
	return []Profile{
		{Type: "tesla-model3", Name: "Tesla Model 3", MaxSpeedKmh: 160, AccelerationKmhPerS: 20, BrakingKmhPerS: 40, ConsumptionKWhPerKm: 0.15, BatteryKWh: DefaultBatteryKWh},
		{Type: "nissan-leaf", Name: "Nissan Leaf", MaxSpeedKmh: 144, AccelerationKmhPerS: 15, BrakingKmhPerS: 35, ConsumptionKWhPerKm: 0.18, BatteryKWh: DefaultBatteryKWh},
		{Type: "mahindra-thar", Name: "Mahindra Thar", MaxSpeedKmh: 140, AccelerationKmhPerS: 12, BrakingKmhPerS: 30, ConsumptionKWhPerKm: 0.20, BatteryKWh: DefaultBatteryKWh},
	}
}

// DefaultCatalog returns the catalog of DefaultProfiles.
func DefaultCatalog() Catalog {
	c, err := NewCatalog(DefaultProfiles())
	if err != nil {
		panic(err) // static data
	}
	return c
}
