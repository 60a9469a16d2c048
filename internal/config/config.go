// Package config loads and validates ingestion configuration via Viper.
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config captures all configuration knobs loaded via Viper.
type Config struct {
	Logging    LoggingConfig    `mapstructure:"logging"`
	Source     SourceConfig     `mapstructure:"source"`
	Fetch      FetchConfig      `mapstructure:"fetch"`
	FanOut     FanOutConfig     `mapstructure:"fanout"`
	Similarity SimilarityConfig `mapstructure:"similarity"`
	Resolver   ResolverConfig   `mapstructure:"resolver"`
	Neo4j      Neo4jConfig      `mapstructure:"neo4j"`
	Staging    StagingConfig    `mapstructure:"staging"`
	RunLog     RunLogConfig     `mapstructure:"runlog"`
	PubSub     PubSubConfig     `mapstructure:"pubsub"`
	Server     ServerConfig     `mapstructure:"server"`
	Run        RunConfig        `mapstructure:"run"`
}

// LoggingConfig toggles zap development features.
type LoggingConfig struct {
	Development bool `mapstructure:"development"`
}

// SourceConfig lists the remote endpoints.
type SourceConfig struct {
	LawsURL      string `mapstructure:"laws_url"`
	SenatorsURL  string `mapstructure:"senators_url"`
	LobbyistsURL string `mapstructure:"lobbyists_url"`
	TripsURL     string `mapstructure:"trips_url"`
	DonationsURL string `mapstructure:"donations_url"`
	UserAgent    string `mapstructure:"user_agent"`
}

// FetchConfig configures the HTTP client retry and throttling behavior.
type FetchConfig struct {
	TimeoutSeconds    int     `mapstructure:"timeout_seconds"`
	MaxRetries        int     `mapstructure:"max_retries"`
	BackoffInitialMs  int     `mapstructure:"backoff_initial_ms"`
	BackoffMaxMs      int     `mapstructure:"backoff_max_ms"`
	RequestsPerSecond float64 `mapstructure:"requests_per_second"`
	Burst             int     `mapstructure:"burst"`
}

// FanOutConfig sizes the two fan-out levels.
type FanOutConfig struct {
	Days        int `mapstructure:"days"`
	DayWorkers  int `mapstructure:"day_workers"`
	VoteWorkers int `mapstructure:"vote_workers"`
}

// SimilarityConfig controls voting-agreement scoring.
type SimilarityConfig struct {
	MinCommonVotes int    `mapstructure:"min_common_votes"`
	Mode           string `mapstructure:"mode"`
}

// ResolverConfig holds manual name aliases. They are a list rather than a
// map because raw spellings such as "Allamand Z., Andrés" contain the Viper
// key delimiter.
type ResolverConfig struct {
	Aliases []AliasConfig `mapstructure:"aliases"`
}

// AliasConfig maps one raw spelling to a canonical senator name.
type AliasConfig struct {
	Raw       string `mapstructure:"raw"`
	Canonical string `mapstructure:"canonical"`
}

// AliasTable returns the aliases keyed by raw spelling. Later entries win.
func (c ResolverConfig) AliasTable() map[string]string {
	if len(c.Aliases) == 0 {
		return nil
	}
	table := make(map[string]string, len(c.Aliases))
	for _, alias := range c.Aliases {
		table[alias.Raw] = alias.Canonical
	}
	return table
}

// Neo4jConfig controls access to the graph store.
type Neo4jConfig struct {
	URI       string `mapstructure:"uri"`
	Username  string `mapstructure:"username"`
	Password  string `mapstructure:"password"`
	Database  string `mapstructure:"database"`
	BatchSize int    `mapstructure:"batch_size"`
}

// StagingConfig selects where scraped datasets are exchanged.
type StagingConfig struct {
	Backend string `mapstructure:"backend"`
	Dir     string `mapstructure:"dir"`
	Bucket  string `mapstructure:"bucket"`
	Prefix  string `mapstructure:"prefix"`
}

// RunLogConfig controls the optional Postgres run ledger.
type RunLogConfig struct {
	DSN   string `mapstructure:"dsn"`
	Table string `mapstructure:"table"`
}

// PubSubConfig holds metadata for run completion notifications.
type PubSubConfig struct {
	ProjectID string `mapstructure:"project_id"`
	TopicName string `mapstructure:"topic_name"`
}

// ServerConfig controls the admin HTTP server. A zero port disables it.
type ServerConfig struct {
	Port int `mapstructure:"port"`
}

// RunConfig bounds the whole process.
type RunConfig struct {
	TimeoutMinutes int `mapstructure:"timeout_minutes"`
}

// Similarity modes.
const (
	SimilarityLocal = "local"
	SimilarityStore = "store"
)

// Staging backends.
const (
	StagingLocal  = "local"
	StagingGCS    = "gcs"
	StagingMemory = "memory"
)

// Load builds a Config from disk/environment.
func Load(path string) (Config, error) {
	return LoadWith(viper.New(), path)
}

// LoadWith is Load on a caller-provided Viper instance, so CLI flags bound to
// v take precedence over file and environment values.
func LoadWith(v *viper.Viper, path string) (Config, error) {
	v.SetEnvPrefix("SENADO")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	setDefaults(v)

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return Config{}, fmt.Errorf("read config: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("unmarshal config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}

	return cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("logging.development", true)
	v.SetDefault("source.laws_url", "https://tramitacion.senado.cl/wspublico/tramitacion.php")
	v.SetDefault("source.senators_url", "https://www.senado.cl/appsenado/index.php?mo=senadores&ac=listado")
	v.SetDefault("source.lobbyists_url", "https://tramitacion.senado.cl/appsenado/index.php?mo=lobby&ac=GetLobistas")
	v.SetDefault("source.trips_url", "https://tramitacion.senado.cl/appsenado/index.php?mo=lobby&ac=GetViajes")
	v.SetDefault("source.donations_url", "https://tramitacion.senado.cl/appsenado/index.php?mo=lobby&ac=GetDonativos")
	v.SetDefault("source.user_agent", "senado-graph-ingest/0.1")
	v.SetDefault("fetch.timeout_seconds", 30)
	v.SetDefault("fetch.max_retries", 3)
	v.SetDefault("fetch.backoff_initial_ms", 1000)
	v.SetDefault("fetch.backoff_max_ms", 60000)
	v.SetDefault("fetch.requests_per_second", 5.0)
	v.SetDefault("fetch.burst", 5)
	v.SetDefault("fanout.days", 30)
	v.SetDefault("fanout.day_workers", 10)
	v.SetDefault("fanout.vote_workers", 20)
	v.SetDefault("similarity.min_common_votes", 3)
	v.SetDefault("similarity.mode", SimilarityLocal)
	v.SetDefault("neo4j.uri", "bolt://localhost:7687")
	v.SetDefault("neo4j.username", "neo4j")
	v.SetDefault("neo4j.database", "neo4j")
	v.SetDefault("neo4j.batch_size", 500)
	v.SetDefault("staging.backend", StagingLocal)
	v.SetDefault("staging.dir", "data")
	v.SetDefault("staging.prefix", "staging")
	v.SetDefault("runlog.table", "ingest_runs")
	v.SetDefault("server.port", 0)
	v.SetDefault("run.timeout_minutes", 60)
}

// Validate enforces required values and reasonable limits.
func (c Config) Validate() error {
	for i, alias := range c.Resolver.Aliases {
		if strings.TrimSpace(alias.Raw) == "" || strings.TrimSpace(alias.Canonical) == "" {
			return fmt.Errorf("resolver.aliases[%d] needs both raw and canonical", i)
		}
	}
	if c.Fetch.TimeoutSeconds <= 0 {
		return fmt.Errorf("fetch.timeout_seconds must be > 0")
	}
	if c.Fetch.MaxRetries <= 0 {
		return fmt.Errorf("fetch.max_retries must be > 0")
	}
	if c.Fetch.BackoffInitialMs < 0 || c.Fetch.BackoffMaxMs < c.Fetch.BackoffInitialMs {
		return fmt.Errorf("fetch.backoff_max_ms must be >= fetch.backoff_initial_ms >= 0")
	}
	if c.FanOut.Days <= 0 {
		return fmt.Errorf("fanout.days must be > 0")
	}
	if c.FanOut.DayWorkers <= 0 || c.FanOut.VoteWorkers <= 0 {
		return fmt.Errorf("fanout.day_workers and fanout.vote_workers must be > 0")
	}
	if c.Similarity.MinCommonVotes <= 0 {
		return fmt.Errorf("similarity.min_common_votes must be > 0")
	}
	switch c.Similarity.Mode {
	case SimilarityLocal, SimilarityStore:
	default:
		return fmt.Errorf("similarity.mode must be %q or %q", SimilarityLocal, SimilarityStore)
	}
	switch c.Staging.Backend {
	case StagingLocal:
		if strings.TrimSpace(c.Staging.Dir) == "" {
			return fmt.Errorf("staging.dir is required for the local backend")
		}
	case StagingGCS:
		if c.Staging.Bucket == "" {
			return fmt.Errorf("staging.bucket is required for the gcs backend")
		}
	case StagingMemory:
	default:
		return fmt.Errorf("staging.backend %q is not supported", c.Staging.Backend)
	}
	if c.Neo4j.URI == "" {
		return fmt.Errorf("neo4j.uri is required")
	}
	if c.Server.Port < 0 {
		return fmt.Errorf("server.port must be >= 0")
	}
	if c.Run.TimeoutMinutes <= 0 {
		return fmt.Errorf("run.timeout_minutes must be > 0")
	}
	return nil
}

// FetchTimeout returns the per-attempt request timeout.
func (c Config) FetchTimeout() time.Duration {
	return time.Duration(c.Fetch.TimeoutSeconds) * time.Second
}

// BackoffInitial returns the wait before the first retry.
func (c Config) BackoffInitial() time.Duration {
	return time.Duration(c.Fetch.BackoffInitialMs) * time.Millisecond
}

// BackoffMax returns the backoff ceiling.
func (c Config) BackoffMax() time.Duration {
	return time.Duration(c.Fetch.BackoffMaxMs) * time.Millisecond
}

// RunTimeout returns the process-level deadline.
func (c Config) RunTimeout() time.Duration {
	return time.Duration(c.Run.TimeoutMinutes) * time.Minute
}
