// Package network holds the static road graph the simulation drives on:
// named locations joined by undirected edges.
package network

import (
	"errors"
	"fmt"

	"gonum.org/v1/gonum/spatial/r3"
)

// GroundOffset is the y coordinate used for locations of the default scene.
const GroundOffset = 0.1

// ErrLocationNotFound is returned for names absent from the network.
var ErrLocationNotFound = errors.New("location not found")

// Location is a named point of the road network.
type Location struct {
	Name     string `json:"name"`
	Position r3.Vec `json:"position"`
}

// Edge is an undirected road between two locations.
type Edge struct {
	From string `json:"from"`
	To   string `json:"to"`
}

// Network is a read-only graph of locations and edges. Edges keep their
// declaration order, which makes neighbour enumeration deterministic.
type Network struct {
	locations []Location
	byName    map[string]Location
	edges     []Edge
}

// New validates and builds a Network. Every edge must join two distinct
// existing locations and location names must be unique.
func New(locations []Location, edges []Edge) (*Network, error) {
	n := &Network{byName: make(map[string]Location, len(locations))}
	for _, l := range locations {
		if l.Name == "" {
			return nil, fmt.Errorf("location with empty name")
		}
		if _, exists := n.byName[l.Name]; exists {
			return nil, fmt.Errorf("location %q already exists", l.Name)
		}
		n.byName[l.Name] = l
		n.locations = append(n.locations, l)
	}
	for _, e := range edges {
		if e.From == e.To {
			return nil, fmt.Errorf("edge %q-%q: endpoints must differ", e.From, e.To)
		}
		if _, ok := n.byName[e.From]; !ok {
			return nil, fmt.Errorf("edge %q-%q: %w: %q", e.From, e.To, ErrLocationNotFound, e.From)
		}
		if _, ok := n.byName[e.To]; !ok {
			return nil, fmt.Errorf("edge %q-%q: %w: %q", e.From, e.To, ErrLocationNotFound, e.To)
		}
		n.edges = append(n.edges, e)
	}
	return n, nil
}

// LocationPosition returns the position of the named location.
func (n *Network) LocationPosition(name string) (r3.Vec, error) {
	l, ok := n.byName[name]
	if !ok {
		return r3.Vec{}, fmt.Errorf("%w: %q", ErrLocationNotFound, name)
	}
	return l.Position, nil
}

// Has reports whether name is a location of the network.
func (n *Network) Has(name string) bool {
	_, ok := n.byName[name]
	return ok
}

// Neighbors returns the locations sharing an edge with name, in edge
// declaration order and without duplicates. Unknown names yield nil.
func (n *Network) Neighbors(name string) []string {
	if !n.Has(name) {
		return nil
	}
	var out []string
	seen := map[string]bool{}
	for _, e := range n.edges {
		var other string
		switch name {
		case e.From:
			other = e.To
		case e.To:
			other = e.From
		default:
			continue
		}
		if !seen[other] {
			seen[other] = true
			out = append(out, other)
		}
	}
	return out
}

// Locations returns the locations in declaration order.
func (n *Network) Locations() []Location {
	out := make([]Location, len(n.locations))
	copy(out, n.locations)
	return out
}

// Edges returns the edges in declaration order.
func (n *Network) Edges() []Edge {
	out := make([]Edge, len(n.edges))
	copy(out, n.edges)
	return out
}
