package db

import (
	"bufio"
	"embed"
	"encoding/json"
	"fmt"
	"io/fs"

	"eve-chainmap/internal/logger"
	"eve-chainmap/internal/model"
)

//go:embed seed/*.jsonl
var seedFS embed.FS

type seedSystem struct {
	ID       int32   `json:"id"`
	Name     string  `json:"name"`
	Security float64 `json:"security"`
	Region   string  `json:"region"`
	Class    string  `json:"class"`
	Effect   string  `json:"effect"`
	Static1  string  `json:"static1"`
	Static2  string  `json:"static2"`
}

// seed fills the universe tables from the embedded static data. It runs
// only while the systems table is empty.
func (d *DB) seed() error {
	var count int
	if err := d.sql.QueryRow("SELECT COUNT(*) FROM systems").Scan(&count); err != nil {
		return err
	}
	if count > 0 {
		return nil
	}

	tx, err := d.sql.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	var types, systems, gates int
	err = readJSONL(seedFS, "seed/whTypes.jsonl", func(raw json.RawMessage) error {
		var w model.Static
		if err := json.Unmarshal(raw, &w); err != nil {
			return err
		}
		_, err := tx.Exec("INSERT INTO wh_types (name, dest, lifetime, jump_mass, max_mass) VALUES (?, ?, ?, ?, ?)",
			w.Name, w.Dest, w.Lifetime, w.JumpMass, w.MaxMass)
		types++
		return err
	})
	if err != nil {
		return fmt.Errorf("wh types: %w", err)
	}

	ids := make(map[string]int32)
	err = readJSONL(seedFS, "seed/mapSolarSystems.jsonl", func(raw json.RawMessage) error {
		var s seedSystem
		if err := json.Unmarshal(raw, &s); err != nil {
			return err
		}
		class := s.Class
		if class == "" {
			class = ClassFor(s.Security)
		}
		_, err := tx.Exec("INSERT INTO systems (id, name, security, region, class, effect, static1, static2) VALUES (?, ?, ?, ?, ?, ?, ?, ?)",
			s.ID, s.Name, s.Security, s.Region, class, s.Effect, nullable(s.Static1), nullable(s.Static2))
		ids[s.Name] = s.ID
		systems++
		return err
	})
	if err != nil {
		return fmt.Errorf("systems: %w", err)
	}

	err = readJSONL(seedFS, "seed/mapStargates.jsonl", func(raw json.RawMessage) error {
		var g struct {
			From string `json:"from"`
			To   string `json:"to"`
		}
		if err := json.Unmarshal(raw, &g); err != nil {
			return err
		}
		from, ok1 := ids[g.From]
		to, ok2 := ids[g.To]
		if !ok1 || !ok2 {
			return fmt.Errorf("stargate %s -> %s: unknown system", g.From, g.To)
		}
		for _, pair := range [][2]int32{{from, to}, {to, from}} {
			if _, err := tx.Exec("INSERT OR IGNORE INTO stargates (from_id, to_id) VALUES (?, ?)", pair[0], pair[1]); err != nil {
				return err
			}
		}
		gates++
		return nil
	})
	if err != nil {
		return fmt.Errorf("stargates: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return err
	}
	logger.Info("DB", fmt.Sprintf("Seeded %d systems, %d gates, %d wormhole types", systems, gates, types))
	return nil
}

// readJSONL calls fn for every non-empty line of a .jsonl file in fsys.
func readJSONL(fsys fs.FS, name string, fn func(json.RawMessage) error) error {
	f, err := fsys.Open(name)
	if err != nil {
		return err
	}
	defer f.Close()

	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 64*1024), 1024*1024)
	line := 0
	for scanner.Scan() {
		line++
		raw := scanner.Bytes()
		if len(raw) == 0 {
			continue
		}
		if err := fn(json.RawMessage(raw)); err != nil {
			return fmt.Errorf("%s:%d: %w", name, line, err)
		}
	}
	return scanner.Err()
}

func nullable(s string) interface{} {
	if s == "" {
		return nil
	}
	return s
}
