package db

import (
	"errors"
	"io"
	"reflect"
	"testing"

	"eve-chainmap/internal/logger"
)

// openTestDB opens an in-memory SQLite DB with migrations and seed data (for testing only).
func openTestDB(t *testing.T) *DB {
	t.Helper()
	logger.SetOutput(io.Discard)
	t.Cleanup(func() { logger.SetOutput(nil) })
	d, err := Open(":memory:")
	if err != nil {
		t.Fatalf("open in-memory db: %v", err)
	}
	t.Cleanup(func() { d.Close() })
	return d
}

func TestDB_MigrateIsIdempotent(t *testing.T) {
	d := openTestDB(t)
	if err := d.migrate(); err != nil {
		t.Fatalf("second migrate: %v", err)
	}
	if err := d.seed(); err != nil {
		t.Fatalf("second seed: %v", err)
	}
	var n int
	d.sql.QueryRow("SELECT COUNT(*) FROM systems WHERE name = 'Jita'").Scan(&n)
	if n != 1 {
		t.Errorf("Jita rows = %d, want 1", n)
	}
}

func TestDB_SystemByName(t *testing.T) {
	d := openTestDB(t)

	jita, err := d.SystemByName("jita")
	if err != nil {
		t.Fatalf("SystemByName(jita): %v", err)
	}
	if jita.Name != "Jita" || jita.ID != 30000142 {
		t.Errorf("Jita = %+v", jita)
	}
	if jita.Class != "highsec" || jita.Region != "The Forge" || jita.IsWormhole() {
		t.Errorf("Jita class/region = %q/%q wormhole=%v", jita.Class, jita.Region, jita.IsWormhole())
	}

	tama, _ := d.SystemByName("Tama")
	if tama.Class != "lowsec" {
		t.Errorf("Tama class = %q, want lowsec", tama.Class)
	}

	wh, err := d.SystemByName("J164710")
	if err != nil {
		t.Fatalf("SystemByName(J164710): %v", err)
	}
	if !wh.IsWormhole() || wh.Class != "4" || wh.Effect != "Pulsar" {
		t.Errorf("J164710 = %+v", wh)
	}
	if wh.Static1 != "Y683" || wh.Static2 != "H296" {
		t.Errorf("statics = %q/%q, want Y683/H296", wh.Static1, wh.Static2)
	}

	if _, err := d.SystemByName("Nowhere"); !errors.Is(err, ErrNotFound) {
		t.Errorf("SystemByName(Nowhere) err = %v, want ErrNotFound", err)
	}
}

func TestDB_WHType(t *testing.T) {
	d := openTestDB(t)
	w, err := d.WHType("D845")
	if err != nil {
		t.Fatalf("WHType: %v", err)
	}
	if w.Dest != "highsec" || w.Lifetime != 24 || w.JumpMass != 300 || w.MaxMass != 5000 {
		t.Errorf("D845 = %+v", w)
	}
	if _, err := d.WHType("X999"); !errors.Is(err, ErrNotFound) {
		t.Errorf("WHType(X999) err = %v, want ErrNotFound", err)
	}
}

func TestDB_Autocomplete(t *testing.T) {
	d := openTestDB(t)

	got, err := d.Autocomplete("a", 10)
	if err != nil {
		t.Fatalf("Autocomplete: %v", err)
	}
	want := []string{"Algogille", "Amamake", "Amarr", "Ashab", "Aufay"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("Autocomplete(a) = %v, want %v", got, want)
	}

	if got, _ := d.Autocomplete("a", 2); len(got) != 2 {
		t.Errorf("limit 2 returned %d names", len(got))
	}
	// Nullsec and w-space never match.
	if got, _ := d.Autocomplete("EC", 10); len(got) != 0 {
		t.Errorf("Autocomplete(EC) = %v, want none", got)
	}
	if got, _ := d.Autocomplete("J1", 10); len(got) != 0 {
		t.Errorf("Autocomplete(J1) = %v, want none", got)
	}
	// LIKE wildcards in the input are literal.
	if got, _ := d.Autocomplete("%", 10); len(got) != 0 {
		t.Errorf("Autocomplete(%%) = %v, want none", got)
	}
}

func TestDB_LoadUniverseRoutes(t *testing.T) {
	d := openTestDB(t)
	u, err := d.LoadUniverse()
	if err != nil {
		t.Fatalf("LoadUniverse: %v", err)
	}
	for hub, jumps := range map[int32]int{30002187: 9, 30002659: 11, 30002510: 8, 30000142: 0} {
		if got := u.ShortestPath(30000142, hub); got != jumps {
			t.Errorf("Jita -> %s = %d jumps, want %d", u.SystemName[hub], got, jumps)
		}
	}
	path, _ := u.Route(30000142, 30002187)
	if u.SystemName[path[0]] != "Perimeter" || u.SystemName[path[len(path)-1]] != "Amarr" {
		t.Errorf("Jita -> Amarr path = %v", path)
	}
	if _, ok := u.SystemName[31000501]; ok {
		t.Error("w-space systems should not be in the stargate graph")
	}
}

func TestDB_ActionLog(t *testing.T) {
	d := openTestDB(t)
	for _, msg := range []string{"added new root system J100820", "set J100820 to EoL", "deleted system J100820"} {
		if _, err := d.LogAction("bob", msg); err != nil {
			t.Fatalf("LogAction: %v", err)
		}
	}
	entries := d.RecentLog(2)
	if len(entries) != 2 {
		t.Fatalf("RecentLog(2) len = %d, want 2", len(entries))
	}
	if entries[0].Message != "deleted system J100820" || entries[0].Username != "bob" {
		t.Errorf("newest = %+v", entries[0])
	}

	if n, err := d.ClearLog(1); err != nil || n != 0 {
		t.Errorf("ClearLog(1) = %d, %v, want 0 (all fresh)", n, err)
	}
	d.sql.Exec("UPDATE action_log SET timestamp = '2000-01-01T00:00:00Z' WHERE id = 1")
	if n, _ := d.ClearLog(1); n != 1 {
		t.Errorf("ClearLog removed %d, want 1", n)
	}
	if got := len(d.RecentLog(0)); got != 2 {
		t.Errorf("entries left = %d, want 2", got)
	}
}
