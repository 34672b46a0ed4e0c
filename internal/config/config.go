// Package config resolves where the three backends live and the other
// runtime settings. Resolution happens once, in Load.
package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"
)

// Build-time overrides, set with
//
//	-ldflags "-X github.com/dori/taskdeck/internal/config.BuildTodoURL=http://..."
var (
	BuildTodoURL  string
	BuildUserURL  string
	BuildStatsURL string
)

// Hardcoded fallbacks
const (
	DefaultTodoURL  = "http://localhost:8080/todos"
	DefaultUserURL  = "http://localhost:8081/users"
	DefaultStatsURL = "http://localhost:8082/stats"

	DefaultRequestTimeout = 5 * time.Second
	DefaultHealthTimeout  = 3 * time.Second
	DefaultStatsInterval  = 10 * time.Second
)

// Keys of the runtime environment file
const (
	KeyTodoURL  = "TODO_API_URL"
	KeyUserURL  = "USER_API_URL"
	KeyStatsURL = "STATS_API_URL"
)

// EnvPrefix is prepended to every process environment variable
const EnvPrefix = "TASKDECK_"

// Source yields a value if it has one
type Source func() (string, bool)

// Resolve returns the first non-empty value, in order
func Resolve(sources ...Source) string {
	for _, src := range sources {
		if v, ok := src(); ok && strings.TrimSpace(v) != "" {
			return strings.TrimSpace(v)
		}
	}
	return ""
}

// Fixed always yields v
func Fixed(v string) Source {
	return func() (string, bool) {
		return v, v != ""
	}
}

// Env reads a process environment variable
func Env(name string) Source {
	return func() (string, bool) {
		return os.LookupEnv(name)
	}
}

// Lookup reads key from a runtime environment object
func Lookup(env map[string]string, key string) Source {
	return func() (string, bool) {
		v, ok := env[key]
		return v, ok
	}
}

// Overrides are explicit values, usually from command-line flags.
// Empty fields are unset.
type Overrides struct {
	TodoURL  string
	UserURL  string
	StatsURL string
	EnvFile  string
	Theme    string
	DebugLog string
	Metrics  string
}

// Config is the resolved configuration
type Config struct {
	TodoURL  string
	UserURL  string
	StatsURL string

	RequestTimeout time.Duration
	HealthTimeout  time.Duration
	StatsInterval  time.Duration

	Theme       string
	DebugLog    string // empty disables logging
	MetricsAddr string // empty disables the metrics endpoint
	Notify      bool
}

// DefaultEnvPath returns $XDG_CONFIG_HOME/taskdeck/env.json
func DefaultEnvPath() string {
	dir, err := os.UserConfigDir()
	if err != nil {
		return "env.json"
	}
	return filepath.Join(dir, "taskdeck", "env.json")
}

// LoadEnvFile reads a runtime environment object. A missing file is an
// empty environment.
func LoadEnvFile(path string) (map[string]string, error) {
	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return map[string]string{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read env file: %w", err)
	}

	env := map[string]string{}
	if err := json.Unmarshal(data, &env); err != nil {
		return nil, fmt.Errorf("failed to parse env file %s: %w", path, err)
	}
	return env, nil
}

// Load resolves every setting. Base addresses are taken from, in order:
// the override, the env file, the process environment, the build-time
// variable and the hardcoded default.
func Load(o Overrides) (*Config, error) {
	envPath := o.EnvFile
	if envPath == "" {
		envPath = Resolve(Env(EnvPrefix+"ENV_FILE"), Fixed(DefaultEnvPath()))
	}
	env, err := LoadEnvFile(envPath)
	if err != nil {
		return nil, err
	}

	cfg := &Config{
		TodoURL:  baseURL(o.TodoURL, env, KeyTodoURL, BuildTodoURL, DefaultTodoURL),
		UserURL:  baseURL(o.UserURL, env, KeyUserURL, BuildUserURL, DefaultUserURL),
		StatsURL: baseURL(o.StatsURL, env, KeyStatsURL, BuildStatsURL, DefaultStatsURL),

		RequestTimeout: durationEnv(EnvPrefix+"REQUEST_TIMEOUT", DefaultRequestTimeout),
		HealthTimeout:  durationEnv(EnvPrefix+"HEALTH_TIMEOUT", DefaultHealthTimeout),
		StatsInterval:  durationEnv(EnvPrefix+"STATS_INTERVAL", DefaultStatsInterval),

		Theme:       Resolve(Fixed(o.Theme), Env(EnvPrefix+"THEME")),
		MetricsAddr: Resolve(Fixed(o.Metrics), Env(EnvPrefix+"METRICS_ADDR")),
		Notify:      boolEnv(EnvPrefix+"NOTIFY", true),
	}

	cfg.DebugLog = o.DebugLog
	if cfg.DebugLog == "" && os.Getenv(EnvPrefix+"DEBUG") == "1" {
		cfg.DebugLog = filepath.Join(os.TempDir(), "taskdeck-debug.log")
	}

	return cfg, nil
}

func baseURL(override string, env map[string]string, key, build, fallback string) string {
	return Resolve(
		Fixed(override),
		Lookup(env, key),
		Env(EnvPrefix+key),
		Fixed(build),
		Fixed(fallback),
	)
}

func durationEnv(name string, fallback time.Duration) time.Duration {
	v, ok := os.LookupEnv(name)
	if !ok {
		return fallback
	}
	d, err := time.ParseDuration(v)
	if err != nil || d <= 0 {
		return fallback
	}
	return d
}

func boolEnv(name string, fallback bool) bool {
	v, ok := os.LookupEnv(name)
	if !ok {
		return fallback
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return fallback
	}
	return b
}
