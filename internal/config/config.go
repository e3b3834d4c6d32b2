// Package config resolves planner settings from defaults, a TOML file, the
// environment and command-line flags, in that order.
package config

import (
	"errors"
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
)

const (
	// AppName is used for every XDG directory planner creates.
	AppName = "planner"

	// ConfigFileName lives in the XDG config directory.
	ConfigFileName = "config.toml"

	BackendFile   = "file"
	BackendRedis  = "redis"
	BackendMemory = "memory"
)

// ErrFlags wraps command-line parse failures so callers can tell them apart
// from a bad config file.
var ErrFlags = errors.New("invalid flags")

// RedisConfig is used when Backend is "redis".
type RedisConfig struct {
	Addr   string `toml:"addr"`
	DB     int    `toml:"db"`
	Prefix string `toml:"prefix"`
}

// Config holds every setting planner reads at startup.
type Config struct {
	Backend     string        `toml:"backend"`
	DataFile    string        `toml:"data_file"`
	Redis       RedisConfig   `toml:"redis"`
	LogFile     string        `toml:"log_file"`
	LogLevel    string        `toml:"log_level"`
	LogFormat   string        `toml:"log_format"`
	Theme       string        `toml:"theme"`
	SaveTimeout time.Duration `toml:"save_timeout"`

	// ConfigFile is the file that was read, empty when none existed.
	ConfigFile string `toml:"-"`
}

// Default returns the built-in settings.
func Default() *Config {
	return &Config{
		Backend:  BackendFile,
		DataFile: filepath.Join(DefaultDataDir(), "store.json"),
		Redis: RedisConfig{
			Addr:   "localhost:6379",
			Prefix: "planner:",
		},
		LogFile:     filepath.Join(DefaultStateDir(), "planner.log"),
		LogLevel:    "info",
		LogFormat:   "logfmt",
		Theme:       "light",
		SaveTimeout: 2 * time.Second,
	}
}

// flagValues collects raw flag input before it is layered over the file and
// environment.
type flagValues struct {
	configFile  string
	backend     string
	dataFile    string
	redisAddr   string
	redisDB     int
	redisPrefix string
	logFile     string
	logLevel    string
	theme       string
}

// registerFlags adds the global flags to fs. Commands that need their own
// flags register them on the same set before calling Load.
func registerFlags(fs *flag.FlagSet, v *flagValues) {
	fs.StringVar(&v.configFile, "config", "", "path to config.toml")
	fs.StringVar(&v.backend, "backend", "", "storage backend: file, redis or memory")
	fs.StringVar(&v.dataFile, "data", "", "data file for the file backend")
	fs.StringVar(&v.redisAddr, "redis-addr", "", "redis address for the redis backend")
	fs.IntVar(&v.redisDB, "redis-db", 0, "redis database number")
	fs.StringVar(&v.redisPrefix, "redis-prefix", "", "key prefix for the redis backend")
	fs.StringVar(&v.logFile, "log-file", "", "log file path")
	fs.StringVar(&v.logLevel, "log-level", "", "log level: debug, info, warn or error")
	fs.StringVar(&v.theme, "theme", "", "theme used until one is saved: light or dark")
}

// Load resolves the configuration:
//  1. Defaults
//  2. Config file (--config, PLANNER_CONFIG, or the XDG config dir)
//  3. PLANNER_* environment variables
//  4. Flags set on the command line
//
// fs is parsed with args; fs.Args() holds whatever is left afterwards.
func Load(fs *flag.FlagSet, args []string) (*Config, error) {
	var fv flagValues
	registerFlags(fs, &fv)
	if err := fs.Parse(args); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrFlags, err)
	}

	cfg := Default()

	path, explicit := fv.configFile, fv.configFile != ""
	if !explicit {
		if env := os.Getenv("PLANNER_CONFIG"); env != "" {
			path, explicit = env, true
		} else {
			path = filepath.Join(DefaultConfigDir(), ConfigFileName)
		}
	}
	if err := loadFile(cfg, path, explicit); err != nil {
		return nil, err
	}

	if err := loadFromEnv(cfg); err != nil {
		return nil, err
	}

	applyFlags(cfg, fs, &fv)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func loadFile(cfg *Config, path string, required bool) error {
	md, err := toml.DecodeFile(path, cfg)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) && !required {
			return nil
		}
		return fmt.Errorf("loading config file %s: %w", path, err)
	}
	if undecoded := md.Undecoded(); len(undecoded) > 0 {
		keys := make([]string, 0, len(undecoded))
		for _, k := range undecoded {
			keys = append(keys, k.String())
		}
		return fmt.Errorf("config file %s: unknown keys: %s", path, strings.Join(keys, ", "))
	}
	cfg.ConfigFile = path
	return nil
}

func loadFromEnv(cfg *Config) error {
	if v := os.Getenv("PLANNER_BACKEND"); v != "" {
		cfg.Backend = v
	}
	if v := os.Getenv("PLANNER_DATA"); v != "" {
		cfg.DataFile = v
	}
	if v := os.Getenv("PLANNER_REDIS_ADDR"); v != "" {
		cfg.Redis.Addr = v
	}
	if v := os.Getenv("PLANNER_REDIS_DB"); v != "" {
		db, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("invalid PLANNER_REDIS_DB: %w", err)
		}
		cfg.Redis.DB = db
	}
	if v := os.Getenv("PLANNER_REDIS_PREFIX"); v != "" {
		cfg.Redis.Prefix = v
	}
	if v := os.Getenv("PLANNER_LOG_FILE"); v != "" {
		cfg.LogFile = v
	}
	if v := os.Getenv("PLANNER_LOG_LEVEL"); v != "" {
		cfg.LogLevel = v
	}
	if v := os.Getenv("PLANNER_THEME"); v != "" {
		cfg.Theme = v
	}
	if v := os.Getenv("PLANNER_SAVE_TIMEOUT"); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("invalid PLANNER_SAVE_TIMEOUT: %w", err)
		}
		cfg.SaveTimeout = d
	}
	return nil
}

// applyFlags copies only the flags the user actually set.
func applyFlags(cfg *Config, fs *flag.FlagSet, fv *flagValues) {
	fs.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "backend":
			cfg.Backend = fv.backend
		case "data":
			cfg.DataFile = fv.dataFile
		case "redis-addr":
			cfg.Redis.Addr = fv.redisAddr
		case "redis-db":
			cfg.Redis.DB = fv.redisDB
		case "redis-prefix":
			cfg.Redis.Prefix = fv.redisPrefix
		case "log-file":
			cfg.LogFile = fv.logFile
		case "log-level":
			cfg.LogLevel = fv.logLevel
		case "theme":
			cfg.Theme = fv.theme
		}
	})
}

// Validate checks enumerated settings.
func (c *Config) Validate() error {
	switch c.Backend {
	case BackendFile:
		if c.DataFile == "" {
			return fmt.Errorf("config: data_file is required for the file backend")
		}
	case BackendRedis:
		if c.Redis.Addr == "" {
			return fmt.Errorf("config: redis.addr is required for the redis backend")
		}
	case BackendMemory:
	default:
		return fmt.Errorf("config: unknown backend %q", c.Backend)
	}

	switch strings.ToLower(c.LogLevel) {
	case "debug", "info", "warn", "warning", "error":
	default:
		return fmt.Errorf("config: unknown log level %q", c.LogLevel)
	}
	switch strings.ToLower(c.LogFormat) {
	case "text", "logfmt", "json":
	default:
		return fmt.Errorf("config: unknown log format %q", c.LogFormat)
	}
	switch strings.ToLower(c.Theme) {
	case "light", "dark":
	default:
		return fmt.Errorf("config: unknown theme %q", c.Theme)
	}
	if c.SaveTimeout <= 0 {
		return fmt.Errorf("config: save_timeout must be positive")
	}
	return nil
}

// DefaultConfigDir uses XDG_CONFIG_HOME, falling back to ~/.config.
func DefaultConfigDir() string {
	return xdgDir("XDG_CONFIG_HOME", ".config")
}

// DefaultDataDir uses XDG_DATA_HOME, falling back to ~/.local/share.
func DefaultDataDir() string {
	return xdgDir("XDG_DATA_HOME", filepath.Join(".local", "share"))
}

// DefaultStateDir uses XDG_STATE_HOME, falling back to ~/.local/state.
func DefaultStateDir() string {
	return xdgDir("XDG_STATE_HOME", filepath.Join(".local", "state"))
}

func xdgDir(env, fallback string) string {
	if dir := os.Getenv(env); dir != "" {
		return filepath.Join(dir, AppName)
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return AppName
	}
	return filepath.Join(home, fallback, AppName)
}
