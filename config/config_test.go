package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestLoadTeams(t *testing.T) {
	teams, err := LoadTeams(filepath.Join("testdata", "teams.json"))
	if err != nil {
		t.Fatalf("load failed: %v", err)
	}
	if len(teams) != 3 {
		t.Fatalf("expected 3 teams, got %d", len(teams))
	}
	if teams[1].ID() != 31 {
		t.Fatalf("expected string ncaa_id decoded to 31, got %d", teams[1].ID())
	}
	if teams[2].ID() != 0 {
		t.Fatalf("expected empty ncaa_id decoded to 0, got %d", teams[2].ID())
	}

	filtered := FilterTeams(teams, nil)
	if len(filtered) != 2 {
		t.Fatalf("expected 2 teams with urls, got %d", len(filtered))
	}
	filtered = FilterTeams(teams, []int{164})
	if len(filtered) != 1 || filtered[0].Name != "UConn" {
		t.Fatalf("expected only UConn, got %v", filtered)
	}
}

func TestLoadJobConfigs(t *testing.T) {
	dir := t.TempDir()
	job := "handler: showbuzz\nrate_limit_ms: 250\nparams:\n  start: 2019-05-20\n"
	if err := os.WriteFile(filepath.Join(dir, "ratings.yaml"), []byte(job), 0644); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(dir, "notes.txt"), []byte("ignored"), 0644); err != nil {
		t.Fatal(err)
	}

	cfg := &Config{Jobs: make(map[string]*JobConfig)}
	if err := cfg.loadJobConfigs(dir); err != nil {
		t.Fatalf("load failed: %v", err)
	}
	if len(cfg.Jobs) != 1 {
		t.Fatalf("expected 1 job, got %d", len(cfg.Jobs))
	}
	j := cfg.Jobs["ratings"]
	if j == nil {
		t.Fatalf("expected job id derived from filename")
	}
	if j.Delay() != 250*time.Millisecond {
		t.Fatalf("expected 250ms delay, got %v", j.Delay())
	}
	if j.Param("start", "") != "2019-05-20" {
		t.Fatalf("unexpected start param %q", j.Param("start", ""))
	}
	if j.Param("end", "x") != "x" {
		t.Fatalf("expected default for missing param")
	}
}

func TestLoadJobConfigsMissingDir(t *testing.T) {
	cfg := &Config{Jobs: make(map[string]*JobConfig)}
	if err := cfg.loadJobConfigs(filepath.Join(t.TempDir(), "missing")); err != nil {
		t.Fatalf("expected nil for missing dir, got %v", err)
	}
}

func TestGetEnvHelpers(t *testing.T) {
	t.Setenv("WBB_TEST_BOOL", "true")
	t.Setenv("WBB_TEST_DUR", "90s")
	t.Setenv("WBB_TEST_INT", "nope")

	if !getEnvBool("WBB_TEST_BOOL", false) {
		t.Fatalf("expected true")
	}
	if getEnvDuration("WBB_TEST_DUR", 0) != 90*time.Second {
		t.Fatalf("expected 90s")
	}
	if getEnvInt("WBB_TEST_INT", 7) != 7 {
		t.Fatalf("expected default for invalid int")
	}
}
