package main

import (
	"bytes"
	"net/http"
	"path/filepath"
	"strings"
	"testing"

	"eve-chainmap/internal/auth"
)

func runCookie(t *testing.T, args ...string) (string, error) {
	t.Helper()
	configPath = filepath.Join(t.TempDir(), "none.toml")
	t.Setenv("CHAINMAP_SECRET", "")
	cmd := cookieCmd()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return strings.TrimSpace(out.String()), err
}

func TestCookie_SignsWithSecret(t *testing.T) {
	line, err := runCookie(t, "--secret", "s3cret", "Pilot One")
	if err != nil {
		t.Fatalf("cookie: %v", err)
	}
	c, err := http.ParseSetCookie(line)
	if err != nil {
		t.Fatalf("parse %q: %v", line, err)
	}
	name, err := auth.NewSigner("s3cret").Verify(c.Value)
	if err != nil || name != "Pilot One" {
		t.Errorf("Verify = %q, %v; want Pilot One", name, err)
	}
}

func TestCookie_RefusesWithoutSecret(t *testing.T) {
	if _, err := runCookie(t, "Pilot One"); err == nil {
		t.Error("cookie minted without a configured secret")
	}
}
