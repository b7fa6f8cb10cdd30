package kpi

import (
	"database/sql"
	"time"

	eco "github.com/kilianp07/evroute/core/metrics/eco"
	_ "modernc.org/sqlite"
)

// SQLiteStore persists daily eco records in a SQLite database.
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLiteStore opens or creates the database and ensures schema.
func NewSQLiteStore(path string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}
	schema := `CREATE TABLE IF NOT EXISTS eco_kpi (
        vehicle TEXT,
        day INTEGER,
        trips INTEGER,
        distance_km REAL,
        energy_kwh REAL,
        PRIMARY KEY(vehicle, day)
    );`
	if _, err := db.Exec(schema); err != nil {
		_ = db.Close()
		return nil, err
	}
	return &SQLiteStore{db: db}, nil
}

// Add merges r into the stored day of its vehicle.
func (s *SQLiteStore) Add(r eco.Record) error {
	_, err := s.db.Exec(`INSERT INTO eco_kpi (vehicle, day, trips, distance_km, energy_kwh)
        VALUES (?, ?, ?, ?, ?)
        ON CONFLICT(vehicle, day) DO UPDATE SET
            trips = trips + excluded.trips,
            distance_km = distance_km + excluded.distance_km,
            energy_kwh = energy_kwh + excluded.energy_kwh`,
		r.Vehicle, eco.Day(r.Date).Unix(), r.Trips, r.DistanceKm, r.EnergyKWh)
	return err
}

// Query returns records in the range [start,end], oldest first.
func (s *SQLiteStore) Query(vehicle string, start, end time.Time) ([]eco.Record, error) {
	rows, err := s.db.Query(`SELECT vehicle, day, trips, distance_km, energy_kwh
        FROM eco_kpi WHERE vehicle = ? AND day >= ? AND day <= ? ORDER BY day`,
		vehicle, eco.Day(start).Unix(), eco.Day(end).Unix())
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()
	var res []eco.Record
	for rows.Next() {
		var rec eco.Record
		var ts int64
		if err := rows.Scan(&rec.Vehicle, &ts, &rec.Trips, &rec.DistanceKm, &rec.EnergyKWh); err != nil {
			return nil, err
		}
		rec.Date = time.Unix(ts, 0).UTC()
		res = append(res, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return res, nil
}

// Close closes the underlying database.
func (s *SQLiteStore) Close() error { return s.db.Close() }
