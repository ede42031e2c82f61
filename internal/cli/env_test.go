package cli

import (
	"flag"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func writeEnvFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("write env file: %v", err)
	}
	return path
}

func newLoader(t *testing.T, args ...string) *EnvLoader {
	t.Helper()
	fs := flag.NewFlagSet("test", flag.ContinueOnError)
	fs.SetOutput(io.Discard)
	loader := AddEnvFlag(fs, "", "")
	loader.out = io.Discard
	if err := fs.Parse(args); err != nil {
		t.Fatalf("parse flags: %v", err)
	}
	return loader
}

func TestLoadKeepsExportedVariables(t *testing.T) {
	dir := t.TempDir()
	path := writeEnvFile(t, dir, "partyplan.env", "PARTYPLAN_TEST_KEEP=from-file\nPARTYPLAN_TEST_NEW=from-file\n")

	t.Setenv(EnvFileVar, "")
	t.Setenv("PARTYPLAN_TEST_KEEP", "exported")
	t.Setenv("PARTYPLAN_TEST_NEW", "")
	os.Unsetenv("PARTYPLAN_TEST_NEW")

	loaded, err := newLoader(t, "--env", path).Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if loaded != path {
		t.Fatalf("loaded %q, want %q", loaded, path)
	}
	if got := os.Getenv("PARTYPLAN_TEST_KEEP"); got != "exported" {
		t.Fatalf("exported variable was overwritten: %q", got)
	}
	if got := os.Getenv("PARTYPLAN_TEST_NEW"); got != "from-file" {
		t.Fatalf("unset variable not applied: %q", got)
	}
}

func TestLoadPrefersEnvFileVariable(t *testing.T) {
	dir := t.TempDir()
	override := writeEnvFile(t, dir, "override.env", "PARTYPLAN_TEST_SOURCE=override\n")
	flagged := writeEnvFile(t, dir, "flag.env", "PARTYPLAN_TEST_SOURCE=flag\n")

	t.Setenv(EnvFileVar, override)
	t.Setenv("PARTYPLAN_TEST_SOURCE", "")
	os.Unsetenv("PARTYPLAN_TEST_SOURCE")

	loaded, err := newLoader(t, "--env", flagged).Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if loaded != override || os.Getenv("PARTYPLAN_TEST_SOURCE") != "override" {
		t.Fatalf("expected override file, loaded %q value %q", loaded, os.Getenv("PARTYPLAN_TEST_SOURCE"))
	}
}

func TestLoadReportsMissingFiles(t *testing.T) {
	t.Setenv(EnvFileVar, "")

	missing := filepath.Join(t.TempDir(), "nope", "missing.env")
	_, err := newLoader(t, "--env", missing).Load()
	if err == nil {
		t.Fatalf("expected error when no env file exists")
	}
	if !strings.Contains(err.Error(), missing) {
		t.Fatalf("error should list tried paths, got %v", err)
	}
}

func TestCandidatesAreDeduplicated(t *testing.T) {
	t.Setenv(EnvFileVar, "")

	got := newLoader(t).candidates()
	if len(got) != 1 || got[0] != ".env" {
		t.Fatalf("unexpected candidates: %v", got)
	}
}
