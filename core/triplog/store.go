// Package triplog keeps an audit trail of finished trips: one record per
// vehicle and run, written when the vehicle arrives, cannot be routed or
// is stopped by a reset.
package triplog

import (
	"context"
	"fmt"
	"sync"
	"time"
)

// Record describes one trip.
type Record struct {
	ID        string    `json:"id"`
	RunID     string    `json:"run_id"`
	Vehicle   string    `json:"vehicle"`
	From      string    `json:"from"`
	To        string    `json:"to"`
	Outcome   string    `json:"outcome"`
	StartedAt time.Time `json:"started_at"`
	EndedAt   time.Time `json:"ended_at"`
	DistanceM float64   `json:"distance_m"`
	EnergyKWh float64   `json:"energy_kwh"`
	DurationS float64   `json:"duration_s"`
	Waypoints int       `json:"waypoints"`
	Error     string    `json:"error,omitempty"`
}

// Query filters records. Zero fields match everything.
type Query struct {
	Start   time.Time
	End     time.Time
	Vehicle string
	Outcome string
	RunID   string
	Limit   int
}

// Match reports whether r passes every filter of q except Limit.
func (q Query) Match(r Record) bool {
	if !q.Start.IsZero() && r.EndedAt.Before(q.Start) {
		return false
	}
	if !q.End.IsZero() && r.EndedAt.After(q.End) {
		return false
	}
	if q.Vehicle != "" && r.Vehicle != q.Vehicle {
		return false
	}
	if q.Outcome != "" && r.Outcome != q.Outcome {
		return false
	}
	if q.RunID != "" && r.RunID != q.RunID {
		return false
	}
	return true
}

func (q Query) full(n int) bool { return q.Limit > 0 && n >= q.Limit }

// Store persists trip records.
type Store interface {
	Append(ctx context.Context, rec Record) error
	Query(ctx context.Context, q Query) ([]Record, error)
	Close() error
}

// Config selects and configures a Store.
type Config struct {
	// Type is one of "memory", "jsonl", "rotating" or "sqlite".
	Type       string `json:"type"`
	Path       string `json:"path"`
	MaxSizeMB  int    `json:"max_size_mb"`
	MaxBackups int    `json:"max_backups"`
	MaxAgeDays int    `json:"max_age_days"`
}

// SetDefaults fills the path of file-backed stores.
func (c *Config) SetDefaults() {
	if c.Path != "" {
		return
	}
	switch c.Type {
	case "jsonl", "rotating":
		c.Path = "trips.jsonl"
	case "sqlite":
		c.Path = "trips.db"
	}
}

// Validate checks the store type.
func (c Config) Validate() error {
	switch c.Type {
	case "", "memory", "jsonl", "rotating", "sqlite":
		return nil
	default:
		return fmt.Errorf("unknown trip log type %q", c.Type)
	}
}

// Open builds the store described by cfg. An empty type keeps trips in memory.
func Open(cfg Config) (Store, error) {
	switch cfg.Type {
	case "", "memory":
		return NewMemoryStore(), nil
	case "jsonl":
		return NewJSONLStore(cfg.Path)
	case "rotating":
		return NewRotatingJSONLStore(cfg.Path, cfg.MaxSizeMB, cfg.MaxBackups, cfg.MaxAgeDays)
	case "sqlite":
		return NewSQLiteStore(cfg.Path)
	default:
		return nil, fmt.Errorf("unknown trip log type %q", cfg.Type)
	}
}

// MemoryStore keeps records in memory.
type MemoryStore struct {
	mu   sync.RWMutex
	recs []Record
}

// NewMemoryStore returns an empty MemoryStore.
func NewMemoryStore() *MemoryStore { return &MemoryStore{} }

func (s *MemoryStore) Append(_ context.Context, rec Record) error {
	s.mu.Lock()
	s.recs = append(s.recs, rec)
	s.mu.Unlock()
	return nil
}

func (s *MemoryStore) Query(_ context.Context, q Query) ([]Record, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var res []Record
	for _, r := range s.recs {
		if q.full(len(res)) {
			break
		}
		if q.Match(r) {
			res = append(res, r)
		}
	}
	return res, nil
}

func (s *MemoryStore) Close() error { return nil }
