package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func TestLoadWithFileOverrides(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	configYAML := `
logging:
  development: false
fetch:
  timeout_seconds: 10
  max_retries: 5
  backoff_initial_ms: 200
  backoff_max_ms: 1600
fanout:
  days: 7
  day_workers: 3
  vote_workers: 4
similarity:
  min_common_votes: 5
  mode: store
resolver:
  aliases:
    - raw: Juan Perez
      canonical: "Pérez Soto, Juan"
staging:
  backend: gcs
  bucket: senado-staging
neo4j:
  uri: bolt://graph:7687
server:
  port: 9090
`
	if err := os.WriteFile(path, []byte(configYAML), 0o600); err != nil {
		t.Fatalf("failed to write config: %v", err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.Logging.Development {
		t.Fatal("expected production logging")
	}
	if cfg.Fetch.MaxRetries != 5 || cfg.FetchTimeout() != 10*time.Second {
		t.Fatalf("expected fetch overrides, got %+v", cfg.Fetch)
	}
	if cfg.BackoffInitial() != 200*time.Millisecond || cfg.BackoffMax() != 1600*time.Millisecond {
		t.Fatalf("unexpected backoff %v/%v", cfg.BackoffInitial(), cfg.BackoffMax())
	}
	if cfg.FanOut.Days != 7 || cfg.FanOut.DayWorkers != 3 || cfg.FanOut.VoteWorkers != 4 {
		t.Fatalf("expected fanout overrides, got %+v", cfg.FanOut)
	}
	if cfg.Similarity.Mode != SimilarityStore || cfg.Similarity.MinCommonVotes != 5 {
		t.Fatalf("expected similarity overrides, got %+v", cfg.Similarity)
	}
	if got := cfg.Resolver.AliasTable()["Juan Perez"]; got != "Pérez Soto, Juan" {
		t.Fatalf("expected alias to load, got %+v", cfg.Resolver.Aliases)
	}
	if cfg.Staging.Backend != StagingGCS || cfg.Staging.Bucket != "senado-staging" {
		t.Fatalf("expected staging overrides, got %+v", cfg.Staging)
	}
	if cfg.Server.Port != 9090 {
		t.Fatalf("expected port 9090, got %d", cfg.Server.Port)
	}
}

// TestLoadDottedAliases verifies abbreviated spellings survive loading with
// their case and punctuation intact.
func TestLoadDottedAliases(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "config.yaml")
	configYAML := `
resolver:
  aliases:
    - raw: "Ossandón I., Manuel"
      canonical: "Ossandón Irarrázabal, Manuel José"
    - raw: "Allamand Z., Andrés"
      canonical: "Allamand Zavala, Andrés"
`
	if err := os.WriteFile(path, []byte(configYAML), 0o600); err != nil {
		t.Fatalf("failed to write config: %v", err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	table := cfg.Resolver.AliasTable()
	if len(table) != 2 {
		t.Fatalf("expected 2 aliases, got %+v", table)
	}
	if got := table["Ossandón I., Manuel"]; got != "Ossandón Irarrázabal, Manuel José" {
		t.Fatalf("unexpected alias target %q", got)
	}
	if got := table["Allamand Z., Andrés"]; got != "Allamand Zavala, Andrés" {
		t.Fatalf("unexpected alias target %q", got)
	}
}

func TestLoadDefaults(t *testing.T) {
	t.Parallel()

	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.Fetch.MaxRetries != 3 {
		t.Fatalf("expected 3 attempts by default, got %d", cfg.Fetch.MaxRetries)
	}
	if cfg.BackoffInitial() != time.Second || cfg.BackoffMax() != time.Minute {
		t.Fatalf("unexpected default backoff %v/%v", cfg.BackoffInitial(), cfg.BackoffMax())
	}
	if cfg.Similarity.MinCommonVotes != 3 || cfg.Similarity.Mode != SimilarityLocal {
		t.Fatalf("unexpected similarity defaults %+v", cfg.Similarity)
	}
	if cfg.RunTimeout() != time.Hour {
		t.Fatalf("expected 1h run timeout, got %v", cfg.RunTimeout())
	}
	if !strings.Contains(cfg.Source.LawsURL, "tramitacion.php") {
		t.Fatalf("unexpected laws url %q", cfg.Source.LawsURL)
	}
}

func TestLoadEnvOverrides(t *testing.T) {
	t.Setenv("SENADO_FANOUT_DAYS", "3")
	t.Setenv("SENADO_NEO4J_PASSWORD", "secret")

	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.FanOut.Days != 3 {
		t.Fatalf("expected env override for days, got %d", cfg.FanOut.Days)
	}
	if cfg.Neo4j.Password != "secret" {
		t.Fatalf("expected env override for password")
	}
}

func TestLoadMissingFile(t *testing.T) {
	t.Parallel()

	if _, err := Load(filepath.Join(t.TempDir(), "missing.yaml")); err == nil {
		t.Fatal("expected error for missing config file")
	}
}

func TestValidate(t *testing.T) {
	t.Parallel()

	base, err := Load("")
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	cases := map[string]func(c *Config){
		"zero retries":     func(c *Config) { c.Fetch.MaxRetries = 0 },
		"inverted backoff": func(c *Config) { c.Fetch.BackoffMaxMs = c.Fetch.BackoffInitialMs - 1 },
		"zero days":        func(c *Config) { c.FanOut.Days = 0 },
		"zero workers":     func(c *Config) { c.FanOut.VoteWorkers = 0 },
		"bad mode":         func(c *Config) { c.Similarity.Mode = "fuzzy" },
		"gcs no bucket":    func(c *Config) { c.Staging.Backend = StagingGCS },
		"unknown backend":  func(c *Config) { c.Staging.Backend = "s3" },
		"no neo4j uri":     func(c *Config) { c.Neo4j.URI = "" },
		"zero timeout":     func(c *Config) { c.Run.TimeoutMinutes = 0 },
		"alias no target":  func(c *Config) { c.Resolver.Aliases = []AliasConfig{{Raw: "Rojas M., Juan"}} },
	}
	for name, mutate := range cases {
		cfg := base
		mutate(&cfg)
		if err := cfg.Validate(); err == nil {
			t.Fatalf("%s: expected validation error", name)
		}
	}
}
