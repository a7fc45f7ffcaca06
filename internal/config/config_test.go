package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestDefault_Values(t *testing.T) {
	c := Default()
	if c == nil {
		t.Fatal("Default() returned nil")
	}
	if c.Client.Transport != TransportAuto {
		t.Errorf("Transport = %v, want auto", c.Client.Transport)
	}
	if c.Client.ServerURL != "http://127.0.0.1:8888" {
		t.Errorf("ServerURL = %v", c.Client.ServerURL)
	}
	if c.Server.Listen != "127.0.0.1:8888" {
		t.Errorf("Listen = %v", c.Server.Listen)
	}
	if c.Server.CookieSecret != "" {
		t.Errorf("CookieSecret = %q, want empty (anonymous server)", c.Server.CookieSecret)
	}
	if c.Server.AutocompleteLimit != 15 {
		t.Errorf("AutocompleteLimit = %v, want 15", c.Server.AutocompleteLimit)
	}
}

func TestLoad_MissingFileUsesDefaults(t *testing.T) {
	c, err := Load(filepath.Join(t.TempDir(), "nope.toml"))
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if c.Client.Transport != TransportAuto {
		t.Errorf("Transport = %v, want auto", c.Client.Transport)
	}
}

func TestLoad_FileAndEnvOverride(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	body := "[client]\nserver_url = \"http://map.example:9000\"\ntransport = \"POLL\"\n\n[server]\nautocomplete_limit = 5\n"
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatal(err)
	}
	t.Setenv("CHAINMAP_COOKIE", "username=abc")

	c, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if c.Client.ServerURL != "http://map.example:9000" {
		t.Errorf("ServerURL = %v", c.Client.ServerURL)
	}
	if c.Client.Transport != TransportPoll {
		t.Errorf("Transport = %v, want poll", c.Client.Transport)
	}
	if c.Client.Cookie != "username=abc" {
		t.Errorf("Cookie = %v, want env value", c.Client.Cookie)
	}
	if c.Server.AutocompleteLimit != 5 {
		t.Errorf("AutocompleteLimit = %v, want 5", c.Server.AutocompleteLimit)
	}
	if c.Server.LogLimit != 50 {
		t.Errorf("LogLimit = %v, want default 50", c.Server.LogLimit)
	}
}

func TestValidate_RejectsUnknownTransport(t *testing.T) {
	c := Default()
	c.Client.Transport = "carrier-pigeon"
	if err := c.Validate(); err == nil {
		t.Error("Validate accepted unknown transport")
	}
}

func TestLoad_ServerSettings(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	body := "[server]\nhome_system = \"J100820\"\nlog_retention_days = -3\n"
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatal(err)
	}
	t.Setenv("CHAINMAP_DB", "/var/lib/chainmap/map.db")

	c, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if c.Server.HomeSystem != "J100820" {
		t.Errorf("HomeSystem = %v, want J100820", c.Server.HomeSystem)
	}
	if c.Server.LogRetentionDays != 0 {
		t.Errorf("LogRetentionDays = %v, want clamped to 0", c.Server.LogRetentionDays)
	}
	if c.Server.DBPath != "/var/lib/chainmap/map.db" {
		t.Errorf("DBPath = %v, want env value", c.Server.DBPath)
	}
}
