package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// clearEnv blanks every variable Load reads so host settings don't leak in.
func clearEnv(t *testing.T) {
	t.Helper()
	for _, key := range []string{
		"ENV", "LOG_LEVEL", "STORE_PATH", "STORE_IN_MEMORY", "RULES_FILE",
		"SIMILARITY_LEXICAL_WEIGHT", "SIMILARITY_COOCCURRENCE_WEIGHT", "SIMILARITY_STRUCTURAL_WEIGHT",
		"MERGE_THRESHOLD", "EXHAUSTIVE_SCAN_LIMIT",
		"CONFLICT_FREQUENCY_RATIO", "CONFLICT_STRONG_RELATIONSHIP", "CONFLICT_SHARED_RELATIONSHIP",
		"CONFLICT_MIN_RELATIONSHIP_WEIGHT", "CLUSTER_MIN_SIZE", "CLUSTER_RESOLUTION",
		"SERVER_PORT", "SERVER_READ_TIMEOUT", "SERVER_WRITE_TIMEOUT", "SERVER_IDLE_TIMEOUT",
		"CORS_ALLOWED_ORIGINS", "WATCH_FILE", "WATCH_SETTLE_DELAY",
		"SERVER_WRITE_RATE", "SERVER_WRITE_BURST",
	} {
		t.Setenv(key, "")
	}
}

func noEnvFile(t *testing.T) string {
	return filepath.Join(t.TempDir(), "missing.env")
}

func validConfig() *Config {
	return &Config{
		App:    AppConfig{Environment: "development"},
		Logger: LoggerConfig{Level: "info"},
		Store:  StoreConfig{Path: "/var/lib/tagcurator"},
		Similarity: SimilarityConfig{
			LexicalWeight:       0.4,
			CooccurrenceWeight:  0.3,
			StructuralWeight:    0.3,
			MergeThreshold:      0.6,
			ExhaustiveScanLimit: 2000,
		},
		Conflicts: ConflictConfig{
			FrequencyMismatchRatio: 2,
			StrongRelationship:     0.5,
			SharedRelationship:     0.1,
			MinRelationshipWeight:  2,
		},
		Clustering: ClusteringConfig{MinSize: 2, Resolution: 1},
		Server: ServerConfig{
			Port:         "8080",
			ReadTimeout:  15 * time.Second,
			WriteTimeout: 15 * time.Second,
			IdleTimeout:  60 * time.Second,
			WriteRate:    5,
			WriteBurst:   20,
		},
		Watch: WatchConfig{SettleDelay: 500 * time.Millisecond},
	}
}

func TestLoad_Defaults(t *testing.T) {
	clearEnv(t)

	cfg, err := Load(Flags{EnvFile: noEnvFile(t)})
	require.NoError(t, err)

	assert.Equal(t, "development", cfg.App.Environment)
	assert.Equal(t, "info", cfg.Logger.Level)
	assert.True(t, filepath.IsAbs(cfg.Store.Path))
	assert.Equal(t, "store", filepath.Base(cfg.Store.Path))
	assert.InDelta(t, 0.4, cfg.Similarity.LexicalWeight, 1e-9)
	assert.InDelta(t, 0.6, cfg.Similarity.MergeThreshold, 1e-9)
	assert.Equal(t, 2000, cfg.Similarity.ExhaustiveScanLimit)
	assert.InDelta(t, 2.0, cfg.Conflicts.FrequencyMismatchRatio, 1e-9)
	assert.Equal(t, 2, cfg.Conflicts.MinRelationshipWeight)
	assert.Equal(t, 2, cfg.Clustering.MinSize)
	assert.Empty(t, cfg.Rules.File)
}

func TestLoad_Precedence(t *testing.T) {
	clearEnv(t)

	envFile := filepath.Join(t.TempDir(), ".env")
	require.NoError(t, os.WriteFile(envFile, []byte(
		"# comment\nLOG_LEVEL=debug\nMERGE_THRESHOLD=\"0.7\"\nCLUSTER_RESOLUTION=1.5\n",
	), 0o600))

	t.Setenv("MERGE_THRESHOLD", "0.8")

	cfg, err := Load(Flags{
		EnvFile:    envFile,
		InMemory:   "true",
		Resolution: "2.5",
	})
	require.NoError(t, err)

	assert.Equal(t, "debug", cfg.Logger.Level, ".env fills unset variables")
	assert.InDelta(t, 0.8, cfg.Similarity.MergeThreshold, 1e-9, "env beats .env")
	assert.InDelta(t, 2.5, cfg.Clustering.Resolution, 1e-9, "flag beats .env")
	assert.True(t, cfg.Store.InMemory)
}

func TestLoad_InvalidNumber(t *testing.T) {
	clearEnv(t)
	t.Setenv("EXHAUSTIVE_SCAN_LIMIT", "lots")

	_, err := Load(Flags{EnvFile: noEnvFile(t)})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "EXHAUSTIVE_SCAN_LIMIT")
}

func TestLoad_InvalidThreshold(t *testing.T) {
	clearEnv(t)

	_, err := Load(Flags{EnvFile: noEnvFile(t), Threshold: "1.5"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "merge threshold")
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
		valid  bool
	}{
		{"valid", func(*Config) {}, true},
		{"staging", func(c *Config) { c.App.Environment = "staging" }, true},
		{"unknown environment", func(c *Config) { c.App.Environment = "test" }, false},
		{"environment is case sensitive", func(c *Config) { c.App.Environment = "PRODUCTION" }, false},
		{"log level case insensitive", func(c *Config) { c.Logger.Level = "WARN" }, true},
		{"bad log level", func(c *Config) { c.Logger.Level = "verbose" }, false},
		{"empty store path", func(c *Config) { c.Store.Path = "" }, false},
		{"in memory needs no path", func(c *Config) { c.Store = StoreConfig{InMemory: true} }, true},
		{"negative weight", func(c *Config) { c.Similarity.LexicalWeight = -0.1 }, false},
		{"zero weights", func(c *Config) {
			c.Similarity.LexicalWeight, c.Similarity.CooccurrenceWeight, c.Similarity.StructuralWeight = 0, 0, 0
		}, false},
		{"lexical only", func(c *Config) {
			c.Similarity.CooccurrenceWeight, c.Similarity.StructuralWeight = 0, 0
		}, true},
		{"zero threshold", func(c *Config) { c.Similarity.MergeThreshold = 0 }, false},
		{"threshold one", func(c *Config) { c.Similarity.MergeThreshold = 1 }, true},
		{"negative scan limit", func(c *Config) { c.Similarity.ExhaustiveScanLimit = -1 }, false},
		{"ratio below one", func(c *Config) { c.Conflicts.FrequencyMismatchRatio = 0.5 }, false},
		{"strong above one", func(c *Config) { c.Conflicts.StrongRelationship = 1.2 }, false},
		{"zero relationship weight", func(c *Config) { c.Conflicts.MinRelationshipWeight = 0 }, false},
		{"zero cluster size", func(c *Config) { c.Clustering.MinSize = 0 }, false},
		{"zero resolution", func(c *Config) { c.Clustering.Resolution = 0 }, false},
		{"port out of range", func(c *Config) { c.Server.Port = "70000" }, false},
		{"zero read timeout", func(c *Config) { c.Server.ReadTimeout = 0 }, false},
		{"negative settle delay", func(c *Config) { c.Watch.SettleDelay = -time.Second }, false},
		{"write limit disabled", func(c *Config) { c.Server.WriteRate = 0 }, true},
		{"negative write rate", func(c *Config) { c.Server.WriteRate = -1 }, false},
		{"zero write burst", func(c *Config) { c.Server.WriteBurst = 0 }, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := validConfig()
			tt.mutate(cfg)

			err := cfg.Validate()
			if tt.valid {
				assert.NoError(t, err)
			} else {
				assert.Error(t, err)
			}
		})
	}
}

func TestExpandPath(t *testing.T) {
	home, err := os.UserHomeDir()
	require.NoError(t, err)

	got, err := expandPath("~/music/tags", "")
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(home, "music", "tags"), got)

	got, err = expandPath("", "/default")
	require.NoError(t, err)
	assert.Equal(t, "/default", got)

	got, err = expandPath("relative/dir", "")
	require.NoError(t, err)
	assert.True(t, filepath.IsAbs(got))
}

func TestLoadRules(t *testing.T) {
	path := filepath.Join(t.TempDir(), "rules.toml")
	require.NoError(t, os.WriteFile(path, []byte(`
[[rule]]
pattern = "prog metal"
replacement = "progressive metal"

[[rule]]
pattern = "hip ?hop"
replacement = "hip-hop"
min_similarity = 0.3
`), 0o600))

	rules, err := LoadRules(path)
	require.NoError(t, err)
	require.Len(t, rules, 2)
	assert.Equal(t, "prog metal", rules[0].Pattern)
	assert.Equal(t, "progressive metal", rules[0].Replacement)
	assert.Zero(t, rules[0].MinSimilarity)
	assert.Equal(t, "hip ?hop", rules[1].Pattern)
	assert.InDelta(t, 0.3, rules[1].MinSimilarity, 1e-9)
}

func TestLoadRules_Errors(t *testing.T) {
	dir := t.TempDir()

	_, err := LoadRules(filepath.Join(dir, "absent.toml"))
	require.Error(t, err)

	unknown := filepath.Join(dir, "unknown.toml")
	require.NoError(t, os.WriteFile(unknown, []byte("[[rule]]\npattern = \"x\"\ntarget = \"y\"\n"), 0o600))
	_, err = LoadRules(unknown)
	require.Error(t, err, "unknown keys are rejected")

	empty := filepath.Join(dir, "empty.toml")
	require.NoError(t, os.WriteFile(empty, nil, 0o600))
	rules, err := LoadRules(empty)
	require.NoError(t, err)
	assert.Empty(t, rules)
}

func TestLoad_Server(t *testing.T) {
	clearEnv(t)
	t.Setenv("SERVER_READ_TIMEOUT", "5s")
	t.Setenv("CORS_ALLOWED_ORIGINS", "http://localhost:3000, ,https://tags.example.com")
	watch := filepath.Join(t.TempDir(), "records.json")

	cfg, err := Load(Flags{EnvFile: noEnvFile(t), Port: "9090", WatchFile: watch})
	require.NoError(t, err)

	assert.Equal(t, "9090", cfg.Server.Port)
	assert.Equal(t, 5*time.Second, cfg.Server.ReadTimeout)
	assert.Equal(t, 15*time.Second, cfg.Server.WriteTimeout)
	assert.Equal(t, []string{"http://localhost:3000", "https://tags.example.com"}, cfg.Server.AllowedOrigins)
	assert.Equal(t, watch, cfg.Watch.File)
	assert.Equal(t, 500*time.Millisecond, cfg.Watch.SettleDelay)
	assert.Equal(t, 5.0, cfg.Server.WriteRate)
	assert.Equal(t, 20, cfg.Server.WriteBurst)

	t.Setenv("SERVER_WRITE_RATE", "0")
	cfg, err = Load(Flags{EnvFile: noEnvFile(t)})
	require.NoError(t, err)
	assert.Zero(t, cfg.Server.WriteRate)
}

func TestLoad_InvalidServerSettings(t *testing.T) {
	clearEnv(t)

	_, err := Load(Flags{EnvFile: noEnvFile(t), Port: "http"})
	assert.ErrorContains(t, err, "invalid server port")

	t.Setenv("SERVER_IDLE_TIMEOUT", "soon")
	_, err = Load(Flags{EnvFile: noEnvFile(t)})
	assert.ErrorContains(t, err, "SERVER_IDLE_TIMEOUT")
}
