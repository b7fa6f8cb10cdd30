// Package routing finds hop-count shortest routes on a road network.
package routing

import (
	"errors"
	"fmt"

	"github.com/kilianp07/evroute/core/model"
	"github.com/kilianp07/evroute/core/network"
	"gonum.org/v1/gonum/spatial/r3"
)

// ErrNoPath is returned when no route joins the requested locations.
var ErrNoPath = errors.New("no path")

// Graph is the part of the road network the finder needs.
type Graph interface {
	Has(name string) bool
	Neighbors(name string) []string
	LocationPosition(name string) (r3.Vec, error)
}

// Finder runs breadth-first searches over a Graph.
type Finder struct {
	g Graph
}

// NewFinder returns a Finder over g.
func NewFinder(g Graph) *Finder {
	return &Finder{g: g}
}

// FindRoute returns the location names of a route with the fewest edges.
// Among equal routes the one found first by scanning edges in declaration
// order wins.
func (f *Finder) FindRoute(start, end string) ([]string, error) {
	if !f.g.Has(start) || !f.g.Has(end) {
		return nil, fmt.Errorf("%w: %q to %q: unknown location", ErrNoPath, start, end)
	}
	if start == end {
		return []string{start}, nil
	}

	type item struct {
		node  string
		route []string
	}
	visited := map[string]bool{start: true}
	queue := []item{{node: start, route: []string{start}}}
	for len(queue) > 0 {
		cur := queue[0]
		queue = queue[1:]
		if cur.node == end {
			return cur.route, nil
		}
		for _, next := range f.g.Neighbors(cur.node) {
			if visited[next] {
				continue
			}
			visited[next] = true
			route := make([]string, len(cur.route), len(cur.route)+1)
			copy(route, cur.route)
			queue = append(queue, item{node: next, route: append(route, next)})
		}
	}
	return nil, fmt.Errorf("%w: %q to %q", ErrNoPath, start, end)
}

// FindPath returns the waypoint positions of the route from start to end.
func (f *Finder) FindPath(start, end string) (model.Path, error) {
	names, err := f.FindRoute(start, end)
	if err != nil {
		return nil, err
	}
	path := make(model.Path, 0, len(names))
	for _, n := range names {
		pos, err := f.g.LocationPosition(n)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrNoPath, err)
		}
		path = append(path, pos)
	}
	return path, nil
}

// HopCount returns the number of edges on the route from start to end.
func (f *Finder) HopCount(start, end string) (int, error) {
	names, err := f.FindRoute(start, end)
	if err != nil {
		return 0, err
	}
	return len(names) - 1, nil
}

var _ Graph = (*network.Network)(nil)
