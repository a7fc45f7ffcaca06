package db

import (
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"eve-chainmap/internal/graph"
	"eve-chainmap/internal/model"
)

// ErrNotFound is returned when a lookup matches no row.
var ErrNotFound = errors.New("not found")

// WormholeIDBase is the first solar system id of w-space.
const WormholeIDBase = 31000000

// SolarSystem is one row of the systems table.
type SolarSystem struct {
	ID       int32
	Name     string
	Security float64
	Region   string
	Class    string // highsec | lowsec | nullsec | "1".."6"
	Effect   string
	Static1  string
	Static2  string
}

// IsWormhole reports whether the system is in w-space.
func (s *SolarSystem) IsWormhole() bool {
	return s.ID > WormholeIDBase
}

// ClassFor maps a k-space security status to its band; highsec >= 0.45.
func ClassFor(security float64) string {
	switch {
	case security >= 0.45:
		return string(model.ClassHighsec)
	case security > 0:
		return string(model.ClassLowsec)
	default:
		return string(model.ClassNullsec)
	}
}

const systemColumns = "id, name, security, region, class, effect, COALESCE(static1, ''), COALESCE(static2, '')"

func scanSystem(row *sql.Row) (*SolarSystem, error) {
	var s SolarSystem
	err := row.Scan(&s.ID, &s.Name, &s.Security, &s.Region, &s.Class, &s.Effect, &s.Static1, &s.Static2)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &s, nil
}

// SystemByName looks a system up case-insensitively and returns it with
// its canonical name.
func (d *DB) SystemByName(name string) (*SolarSystem, error) {
	s, err := scanSystem(d.sql.QueryRow("SELECT "+systemColumns+" FROM systems WHERE name = ? COLLATE NOCASE", strings.TrimSpace(name)))
	if err != nil {
		return nil, fmt.Errorf("system %q: %w", name, err)
	}
	return s, nil
}

// SystemByID looks a system up by id.
func (d *DB) SystemByID(id int32) (*SolarSystem, error) {
	s, err := scanSystem(d.sql.QueryRow("SELECT "+systemColumns+" FROM systems WHERE id = ?", id))
	if err != nil {
		return nil, fmt.Errorf("system %d: %w", id, err)
	}
	return s, nil
}

// WHType returns the wormhole type with the given name.
func (d *DB) WHType(name string) (model.Static, error) {
	var w model.Static
	err := d.sql.QueryRow("SELECT name, dest, lifetime, jump_mass, max_mass FROM wh_types WHERE name = ?", name).
		Scan(&w.Name, &w.Dest, &w.Lifetime, &w.JumpMass, &w.MaxMass)
	if errors.Is(err, sql.ErrNoRows) {
		return w, fmt.Errorf("wormhole type %q: %w", name, ErrNotFound)
	}
	return w, err
}

// Autocomplete returns up to limit k-space system names (security above
// 0.0) starting with partial, ordered by name.
func (d *DB) Autocomplete(partial string, limit int) ([]string, error) {
	if limit <= 0 {
		limit = 15
	}
	rows, err := d.sql.Query(
		`SELECT name FROM systems WHERE name LIKE ? ESCAPE '\' AND security > 0.0 ORDER BY name LIMIT ?`,
		escapeLike(partial)+"%", limit,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	names := []string{}
	for rows.Next() {
		var n string
		if err := rows.Scan(&n); err != nil {
			return nil, err
		}
		names = append(names, n)
	}
	return names, rows.Err()
}

func escapeLike(s string) string {
	r := strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)
	return r.Replace(s)
}

// LoadUniverse builds the stargate graph of every k-space system.
func (d *DB) LoadUniverse() (*graph.Universe, error) {
	u := graph.NewUniverse()
	rows, err := d.sql.Query("SELECT id, name, security FROM systems WHERE id < ?", WormholeIDBase)
	if err != nil {
		return nil, err
	}
	for rows.Next() {
		var id int32
		var name string
		var sec float64
		if err := rows.Scan(&id, &name, &sec); err != nil {
			rows.Close()
			return nil, err
		}
		u.SetName(id, name)
		u.SetSecurity(id, sec)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, err
	}

	gates, err := d.sql.Query("SELECT from_id, to_id FROM stargates")
	if err != nil {
		return nil, err
	}
	defer gates.Close()
	for gates.Next() {
		var from, to int32
		if err := gates.Scan(&from, &to); err != nil {
			return nil, err
		}
		u.AddGate(from, to)
	}
	return u, gates.Err()
}
