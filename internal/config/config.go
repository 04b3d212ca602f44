// Package config provides application configuration management with support
// for environment variables, command-line flags, and .env files, plus loading
// of TOML consolidation rule files.
package config

import (
	"bufio"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/pelletier/go-toml/v2"

	"github.com/listenupapp/tagcurator/internal/domain"
)

// Config holds the application configuration.
type Config struct {
	App        AppConfig
	Logger     LoggerConfig
	Store      StoreConfig
	Similarity SimilarityConfig
	Conflicts  ConflictConfig
	Clustering ClusteringConfig
	Rules      RulesConfig
	Server     ServerConfig
	Watch      WatchConfig
}

// AppConfig holds application-level configuration.
type AppConfig struct {
	Environment string
}

// LoggerConfig holds logging configuration.
type LoggerConfig struct {
	Level string
}

// StoreConfig holds Badger storage configuration.
type StoreConfig struct {
	Path     string // Database directory (default: ~/.tagcurator/store)
	InMemory bool   // Keep everything in memory; nothing survives the process
}

// SimilarityConfig holds similarity scoring and candidate scan settings.
type SimilarityConfig struct {
	LexicalWeight      float64
	CooccurrenceWeight float64
	StructuralWeight   float64
	// MergeThreshold is the minimum combined score for a similarity proposal.
	MergeThreshold float64
	// ExhaustiveScanLimit is the tag count above which candidate pairs are
	// pruned through the graph and the fuzzy index. 0 always scans all pairs.
	ExhaustiveScanLimit int
}

// ConflictConfig holds merge conflict detection thresholds.
type ConflictConfig struct {
	FrequencyMismatchRatio float64
	StrongRelationship     float64
	SharedRelationship     float64
	MinRelationshipWeight  int
}

// ClusteringConfig holds community detection settings.
type ClusteringConfig struct {
	MinSize    int
	Resolution float64
}

// RulesConfig points at an optional TOML rule file loaded at startup.
type RulesConfig struct {
	File string
}

// ServerConfig holds settings for the review API started by `serve`.
type ServerConfig struct {
	Port           string        // Server port (default: 8080, 0 picks a free port)
	ReadTimeout    time.Duration // HTTP read timeout (default: 15s)
	WriteTimeout   time.Duration // HTTP write timeout (default: 15s)
	IdleTimeout    time.Duration // HTTP idle timeout (default: 60s)
	AllowedOrigins []string      // CORS origins; empty disables CORS
	WriteRate      float64       // Mutating requests per second per client (default: 5, 0 disables)
	WriteBurst     int           // Mutating requests allowed at once per client (default: 20)
}

// WatchConfig points `serve` at a records file to re-import on change.
type WatchConfig struct {
	File        string
	SettleDelay time.Duration // Quiet period before a change is acted on (default: 500ms)
}

// Flags carries raw command-line values. Empty strings mean "not set".
type Flags struct {
	Env        string
	LogLevel   string
	StorePath  string
	InMemory   string
	RulesFile  string
	Threshold  string
	Resolution string
	EnvFile    string
	Port       string
	WatchFile  string
}

// Load loads configuration from multiple sources with precedence:
// 1. Command-line flags (highest priority).
// 2. Environment variables.
// 3. .env file.
// 4. Default values (lowest priority).
func Load(flags Flags) (*Config, error) {
	envFile := flags.EnvFile
	if envFile == "" {
		envFile = ".env"
	}
	// Load .env file if it exists (silently ignore if not found).
	_ = loadEnvFile(envFile)

	cfg := &Config{
		App: AppConfig{
			Environment: getConfigValue(flags.Env, "ENV", "development"),
		},
		Logger: LoggerConfig{
			Level: getConfigValue(flags.LogLevel, "LOG_LEVEL", "info"),
		},
		Store: StoreConfig{
			Path:     getConfigValue(flags.StorePath, "STORE_PATH", ""),
			InMemory: getBoolConfigValue(flags.InMemory, "STORE_IN_MEMORY", false),
		},
		Rules: RulesConfig{
			File: getConfigValue(flags.RulesFile, "RULES_FILE", ""),
		},
		Server: ServerConfig{
			Port:           getConfigValue(flags.Port, "SERVER_PORT", "8080"),
			AllowedOrigins: splitList(getConfigValue("", "CORS_ALLOWED_ORIGINS", "")),
		},
		Watch: WatchConfig{
			File: getConfigValue(flags.WatchFile, "WATCH_FILE", ""),
		},
	}

	var err error
	parse := func(dst *float64, flagValue, envKey string, def float64) {
		if err != nil {
			return
		}
		*dst, err = getFloatConfigValue(flagValue, envKey, def)
	}
	parseInt := func(dst *int, flagValue, envKey string, def int) {
		if err != nil {
			return
		}
		*dst, err = getIntConfigValue(flagValue, envKey, def)
	}

	parse(&cfg.Similarity.LexicalWeight, "", "SIMILARITY_LEXICAL_WEIGHT", 0.4)
	parse(&cfg.Similarity.CooccurrenceWeight, "", "SIMILARITY_COOCCURRENCE_WEIGHT", 0.3)
	parse(&cfg.Similarity.StructuralWeight, "", "SIMILARITY_STRUCTURAL_WEIGHT", 0.3)
	parse(&cfg.Similarity.MergeThreshold, flags.Threshold, "MERGE_THRESHOLD", 0.6)
	parseInt(&cfg.Similarity.ExhaustiveScanLimit, "", "EXHAUSTIVE_SCAN_LIMIT", 2000)

	parse(&cfg.Conflicts.FrequencyMismatchRatio, "", "CONFLICT_FREQUENCY_RATIO", 2.0)
	parse(&cfg.Conflicts.StrongRelationship, "", "CONFLICT_STRONG_RELATIONSHIP", 0.5)
	parse(&cfg.Conflicts.SharedRelationship, "", "CONFLICT_SHARED_RELATIONSHIP", 0.1)
	parseInt(&cfg.Conflicts.MinRelationshipWeight, "", "CONFLICT_MIN_RELATIONSHIP_WEIGHT", 2)

	parseInt(&cfg.Clustering.MinSize, "", "CLUSTER_MIN_SIZE", 2)
	parse(&cfg.Clustering.Resolution, flags.Resolution, "CLUSTER_RESOLUTION", 1.0)

	parse(&cfg.Server.WriteRate, "", "SERVER_WRITE_RATE", 5)
	parseInt(&cfg.Server.WriteBurst, "", "SERVER_WRITE_BURST", 20)

	parseDuration := func(dst *time.Duration, envKey, def string) {
		if err != nil {
			return
		}
		*dst, err = getDurationConfigValue(envKey, def)
	}
	parseDuration(&cfg.Server.ReadTimeout, "SERVER_READ_TIMEOUT", "15s")
	parseDuration(&cfg.Server.WriteTimeout, "SERVER_WRITE_TIMEOUT", "15s")
	parseDuration(&cfg.Server.IdleTimeout, "SERVER_IDLE_TIMEOUT", "60s")
	parseDuration(&cfg.Watch.SettleDelay, "WATCH_SETTLE_DELAY", "500ms")
	if err != nil {
		return nil, err
	}

	if !cfg.Store.InMemory {
		if err := cfg.expandStorePath(); err != nil {
			return nil, fmt.Errorf("invalid store path: %w", err)
		}
	}
	if cfg.Rules.File != "" {
		if cfg.Rules.File, err = expandPath(cfg.Rules.File, ""); err != nil {
			return nil, fmt.Errorf("invalid rules file: %w", err)
		}
	}
	if cfg.Watch.File != "" {
		if cfg.Watch.File, err = expandPath(cfg.Watch.File, ""); err != nil {
			return nil, fmt.Errorf("invalid watch file: %w", err)
		}
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return cfg, nil
}

// Validate checks that all config values are present and within range.
func (c *Config) Validate() error {
	if c.App.Environment == "" {
		return errors.New("ENV is required")
	}

	validEnvs := map[string]bool{
		"development": true,
		"staging":     true,
		"production":  true,
	}
	if !validEnvs[c.App.Environment] {
		return fmt.Errorf("invalid environment: %s (must be development, staging, or production)", c.App.Environment)
	}

	validLevels := map[string]bool{
		"debug": true,
		"info":  true,
		"warn":  true,
		"error": true,
	}
	if !validLevels[strings.ToLower(c.Logger.Level)] {
		return fmt.Errorf("invalid log level: %s (must be debug, info, warn, or error)", c.Logger.Level)
	}

	if !c.Store.InMemory && c.Store.Path == "" {
		return errors.New("store path cannot be empty unless running in memory")
	}

	s := c.Similarity
	if s.LexicalWeight < 0 || s.CooccurrenceWeight < 0 || s.StructuralWeight < 0 {
		return errors.New("similarity weights must be non-negative")
	}
	if s.LexicalWeight+s.CooccurrenceWeight+s.StructuralWeight <= 0 {
		return errors.New("similarity weights must not all be zero")
	}
	if s.MergeThreshold <= 0 || s.MergeThreshold > 1 {
		return fmt.Errorf("invalid merge threshold: %g (must be in (0, 1])", s.MergeThreshold)
	}
	if s.ExhaustiveScanLimit < 0 {
		return fmt.Errorf("invalid exhaustive scan limit: %d (must be >= 0)", s.ExhaustiveScanLimit)
	}

	cf := c.Conflicts
	if cf.FrequencyMismatchRatio < 1 {
		return fmt.Errorf("invalid frequency mismatch ratio: %g (must be >= 1)", cf.FrequencyMismatchRatio)
	}
	if cf.StrongRelationship < 0 || cf.StrongRelationship > 1 {
		return fmt.Errorf("invalid strong relationship threshold: %g (must be in [0, 1])", cf.StrongRelationship)
	}
	if cf.SharedRelationship < 0 || cf.SharedRelationship > 1 {
		return fmt.Errorf("invalid shared relationship threshold: %g (must be in [0, 1])", cf.SharedRelationship)
	}
	if cf.MinRelationshipWeight < 1 {
		return fmt.Errorf("invalid minimum relationship weight: %d (must be >= 1)", cf.MinRelationshipWeight)
	}

	if c.Clustering.MinSize < 1 {
		return fmt.Errorf("invalid cluster minimum size: %d (must be >= 1)", c.Clustering.MinSize)
	}
	if c.Clustering.Resolution <= 0 {
		return fmt.Errorf("invalid cluster resolution: %g (must be > 0)", c.Clustering.Resolution)
	}

	// Port 0 lets the system pick a free port.
	if port, err := strconv.Atoi(c.Server.Port); err != nil || port < 0 || port > 65535 {
		return fmt.Errorf("invalid server port: %s (must be 0-65535)", c.Server.Port)
	}
	if c.Server.ReadTimeout <= 0 || c.Server.WriteTimeout <= 0 || c.Server.IdleTimeout <= 0 {
		return errors.New("server timeouts must be positive")
	}
	if c.Server.WriteRate < 0 || c.Server.WriteBurst < 1 {
		return fmt.Errorf("invalid write rate limit: %g/s burst %d (rate must be >= 0, burst >= 1)",
			c.Server.WriteRate, c.Server.WriteBurst)
	}
	if c.Watch.SettleDelay < 0 {
		return fmt.Errorf("invalid watch settle delay: %s (must be >= 0)", c.Watch.SettleDelay)
	}

	return nil
}

// expandPath expands ~ and makes the path absolute.
// If path is empty and defaultPath is provided, uses the default.
func expandPath(path, defaultPath string) (string, error) {
	if path == "" {
		return defaultPath, nil
	}

	if strings.HasPrefix(path, "~/") {
		homeDir, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("failed to get home directory: %w", err)
		}
		path = filepath.Join(homeDir, path[2:])
	}

	if !filepath.IsAbs(path) {
		absPath, err := filepath.Abs(path)
		if err != nil {
			return "", fmt.Errorf("failed to get absolute path: %w", err)
		}
		path = absPath
	}

	return filepath.Clean(path), nil
}

// expandStorePath defaults the store to ~/.tagcurator/store.
func (c *Config) expandStorePath() error {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return fmt.Errorf("failed to get home directory: %w", err)
	}
	defaultPath := filepath.Join(homeDir, ".tagcurator", "store")

	expanded, err := expandPath(c.Store.Path, defaultPath)
	if err != nil {
		return err
	}
	c.Store.Path = expanded
	return nil
}

// getConfigValue returns the first non-empty value from flag, env var, or default.
func getConfigValue(flagValue, envKey, defaultValue string) string {
	if flagValue != "" {
		return flagValue
	}
	if envValue := os.Getenv(envKey); envValue != "" {
		return envValue
	}
	return defaultValue
}

// getBoolConfigValue returns a bool from flag, env var, or default.
// Accepts: "true", "1", "yes" (case-insensitive) as true; anything else is false.
func getBoolConfigValue(flagValue, envKey string, defaultValue bool) bool {
	strValue := getConfigValue(flagValue, envKey, "")
	if strValue == "" {
		return defaultValue
	}
	strValue = strings.ToLower(strValue)
	return strValue == "true" || strValue == "1" || strValue == "yes"
}

// getIntConfigValue returns an int from flag, env var, or default.
func getIntConfigValue(flagValue, envKey string, defaultValue int) (int, error) {
	strValue := getConfigValue(flagValue, envKey, "")
	if strValue == "" {
		return defaultValue, nil
	}
	v, err := strconv.Atoi(strings.TrimSpace(strValue))
	if err != nil {
		return 0, fmt.Errorf("invalid %s %q: %w", envKey, strValue, err)
	}
	return v, nil
}

// getFloatConfigValue returns a float from flag, env var, or default.
func getFloatConfigValue(flagValue, envKey string, defaultValue float64) (float64, error) {
	strValue := getConfigValue(flagValue, envKey, "")
	if strValue == "" {
		return defaultValue, nil
	}
	v, err := strconv.ParseFloat(strings.TrimSpace(strValue), 64)
	if err != nil {
		return 0, fmt.Errorf("invalid %s %q: %w", envKey, strValue, err)
	}
	return v, nil
}

// getDurationConfigValue returns a duration from env var or default.
func getDurationConfigValue(envKey, defaultValue string) (time.Duration, error) {
	strValue := getConfigValue("", envKey, defaultValue)
	d, err := time.ParseDuration(strings.TrimSpace(strValue))
	if err != nil {
		return 0, fmt.Errorf("invalid %s %q: %w", envKey, strValue, err)
	}
	return d, nil
}

// splitList splits a comma-separated value, dropping blanks.
func splitList(value string) []string {
	var out []string
	for _, item := range strings.Split(value, ",") {
		if item = strings.TrimSpace(item); item != "" {
			out = append(out, item)
		}
	}
	return out
}

// loadEnvFile loads environment variables from a .env file.
// Format: KEY=value (one per line, # for comments).
func loadEnvFile(path string) error {
	file, err := os.Open(path) //#nosec G304 -- Config file path from user input is expected
	if err != nil {
		return err
	}
	defer file.Close()

	scanner := bufio.NewScanner(file)
	lineNum := 0

	for scanner.Scan() {
		lineNum++
		line := strings.TrimSpace(scanner.Text())

		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}

		key, value, ok := strings.Cut(line, "=")
		if !ok {
			return fmt.Errorf("invalid format at line %d: %s", lineNum, line)
		}

		key = strings.TrimSpace(key)
		value = strings.Trim(strings.TrimSpace(value), `"'`)

		// Only set if not already set (env vars take precedence over .env file).
		if os.Getenv(key) == "" {
			if err := os.Setenv(key, value); err != nil {
				return fmt.Errorf("failed to set env var %s: %w", key, err)
			}
		}
	}

	return scanner.Err()
}

// ruleFile is the TOML layout of a consolidation rule file:
//
//	[[rule]]
//	pattern = "prog(ressive)? metal"
//	replacement = "progressive metal"
//	min_similarity = 0.2
type ruleFile struct {
	Rules []domain.ConsolidationRule `toml:"rule"`
}

// LoadRules parses a TOML rule file. Rules come back in file order and
// uncompiled; the consolidator validates and compiles them.
func LoadRules(path string) ([]domain.ConsolidationRule, error) {
	file, err := os.Open(path) //#nosec G304 -- Rule file path from user input is expected
	if err != nil {
		return nil, fmt.Errorf("open rules: %w", err)
	}
	defer file.Close()

	var rf ruleFile
	decoder := toml.NewDecoder(file).DisallowUnknownFields()
	if err := decoder.Decode(&rf); err != nil {
		return nil, fmt.Errorf("parse rules %s: %w", path, err)
	}
	if rf.Rules == nil {
		rf.Rules = []domain.ConsolidationRule{}
	}
	return rf.Rules, nil
}
