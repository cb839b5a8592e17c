// Package config provides Viper-based configuration loading for the idle RPG
// game server and the balance simulator.
package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"

	"github.com/cory-johannsen/idlerpg/internal/sim"
)

// DatabaseConfig holds PostgreSQL connection settings.
type DatabaseConfig struct {
	Host            string        `mapstructure:"host"`
	Port            int           `mapstructure:"port"`
	User            string        `mapstructure:"user"`
	Password        string        `mapstructure:"password"`
	Name            string        `mapstructure:"name"`
	SSLMode         string        `mapstructure:"sslmode"`
	MaxConns        int32         `mapstructure:"max_conns"`
	MinConns        int32         `mapstructure:"min_conns"`
	MaxConnLifetime time.Duration `mapstructure:"max_conn_lifetime"`
}

// DSN returns the PostgreSQL connection string.
//
// Precondition: Host, Port, User, and Name must be non-empty.
// Postcondition: Returns a valid PostgreSQL DSN string.
func (d DatabaseConfig) DSN() string {
	return fmt.Sprintf(
		"postgres://%s:%s@%s:%d/%s?sslmode=%s",
		d.User, d.Password, d.Host, d.Port, d.Name, d.SSLMode,
	)
}

// LogFileConfig configures the optional rotating log file.
type LogFileConfig struct {
	// Path enables file logging when non-empty.
	Path       string `mapstructure:"path"`
	MaxSizeMB  int    `mapstructure:"max_size_mb"`
	MaxBackups int    `mapstructure:"max_backups"`
	MaxAgeDays int    `mapstructure:"max_age_days"`
	Compress   bool   `mapstructure:"compress"`
}

// LoggingConfig holds structured logging settings.
type LoggingConfig struct {
	// Level is the minimum log level: "debug", "info", "warn", "error".
	Level string `mapstructure:"level"`
	// Format is the log output format: "json" or "console".
	Format string        `mapstructure:"format"`
	File   LogFileConfig `mapstructure:"file"`
}

// ArchiveConfig locates the local SQLite report archive.
type ArchiveConfig struct {
	Path string `mapstructure:"path"`
}

// GameServerConfig holds the interactive host settings.
type GameServerConfig struct {
	// GRPCHost is the bind address for the gRPC service.
	GRPCHost string `mapstructure:"grpc_host"`
	// GRPCPort is the TCP port for the gRPC service.
	GRPCPort int `mapstructure:"grpc_port"`
	// FrameInterval is how often registered characters are ticked.
	FrameInterval time.Duration `mapstructure:"frame_interval"`
	// SnapshotInterval is how often character snapshots are saved; 0 disables saving.
	SnapshotInterval time.Duration `mapstructure:"snapshot_interval"`
	// MaxDelta caps the elapsed time credited to a single frame.
	MaxDelta time.Duration `mapstructure:"max_delta"`
}

// Addr returns the "host:port" gRPC address.
//
// Postcondition: Returns a non-empty string in "host:port" format.
func (g GameServerConfig) Addr() string {
	return fmt.Sprintf("%s:%d", g.GRPCHost, g.GRPCPort)
}

// BalanceConfig locates the balance constants file. An empty path uses the
// built-in defaults.
type BalanceConfig struct {
	Path string `mapstructure:"path"`
}

// ScriptingConfig locates the Lua content scripts.
type ScriptingConfig struct {
	// Dir enables scripted challenge rewards when non-empty.
	Dir              string `mapstructure:"dir"`
	InstructionLimit int    `mapstructure:"instruction_limit"`
}

// SimConfig holds the balance simulator defaults.
type SimConfig struct {
	Defaults sim.SimConfig `mapstructure:"defaults"`
	// Workers bounds concurrent runs; 0 uses GOMAXPROCS.
	Workers   int    `mapstructure:"workers"`
	OutputDir string `mapstructure:"output_dir"`
}

// Config is the top-level application configuration.
type Config struct {
	Database   DatabaseConfig   `mapstructure:"database"`
	Logging    LoggingConfig    `mapstructure:"logging"`
	Archive    ArchiveConfig    `mapstructure:"archive"`
	GameServer GameServerConfig `mapstructure:"gameserver"`
	Balance    BalanceConfig    `mapstructure:"balance"`
	Scripting  ScriptingConfig  `mapstructure:"scripting"`
	Sim        SimConfig        `mapstructure:"sim"`
}

// Validate checks all configuration invariants.
//
// Postcondition: Returns nil if configuration is valid, or an error describing all violations.
func (c Config) Validate() error {
	var errs []string

	for _, err := range []error{
		validateDatabase(c.Database),
		validateLogging(c.Logging),
		validateGameServer(c.GameServer),
		validateScripting(c.Scripting),
		validateSim(c.Sim),
	} {
		if err != nil {
			errs = append(errs, err.Error())
		}
	}

	if len(errs) > 0 {
		return fmt.Errorf("configuration validation failed: %s", strings.Join(errs, "; "))
	}
	return nil
}

func validateDatabase(d DatabaseConfig) error {
	var errs []string
	if d.Host == "" {
		errs = append(errs, "database.host must not be empty")
	}
	if d.Port < 1 || d.Port > 65535 {
		errs = append(errs, fmt.Sprintf("database.port must be 1-65535, got %d", d.Port))
	}
	if d.User == "" {
		errs = append(errs, "database.user must not be empty")
	}
	if d.Name == "" {
		errs = append(errs, "database.name must not be empty")
	}
	validSSL := map[string]bool{"disable": true, "require": true, "verify-ca": true, "verify-full": true}
	if !validSSL[d.SSLMode] {
		errs = append(errs, fmt.Sprintf("database.sslmode must be one of [disable, require, verify-ca, verify-full], got %q", d.SSLMode))
	}
	if d.MaxConns < 1 {
		errs = append(errs, fmt.Sprintf("database.max_conns must be >= 1, got %d", d.MaxConns))
	}
	if d.MinConns < 0 {
		errs = append(errs, fmt.Sprintf("database.min_conns must be >= 0, got %d", d.MinConns))
	}
	if d.MinConns > d.MaxConns {
		errs = append(errs, "database.min_conns must not exceed database.max_conns")
	}
	if len(errs) > 0 {
		return fmt.Errorf("%s", strings.Join(errs, "; "))
	}
	return nil
}

func validateGameServer(g GameServerConfig) error {
	var errs []string
	if g.GRPCHost == "" {
		errs = append(errs, "gameserver.grpc_host must not be empty")
	}
	if g.GRPCPort < 1 || g.GRPCPort > 65535 {
		errs = append(errs, fmt.Sprintf("gameserver.grpc_port must be 1-65535, got %d", g.GRPCPort))
	}
	if g.FrameInterval <= 0 {
		errs = append(errs, fmt.Sprintf("gameserver.frame_interval must be > 0, got %s", g.FrameInterval))
	}
	if g.SnapshotInterval < 0 {
		errs = append(errs, "gameserver.snapshot_interval must not be negative")
	}
	if g.MaxDelta < g.FrameInterval {
		errs = append(errs, fmt.Sprintf("gameserver.max_delta (%s) must be >= gameserver.frame_interval (%s)", g.MaxDelta, g.FrameInterval))
	}
	if len(errs) > 0 {
		return fmt.Errorf("%s", strings.Join(errs, "; "))
	}
	return nil
}

func validateLogging(l LoggingConfig) error {
	validLevels := map[string]bool{"debug": true, "info": true, "warn": true, "error": true}
	if !validLevels[l.Level] {
		return fmt.Errorf("logging.level must be one of [debug, info, warn, error], got %q", l.Level)
	}
	validFormats := map[string]bool{"json": true, "console": true}
	if !validFormats[l.Format] {
		return fmt.Errorf("logging.format must be one of [json, console], got %q", l.Format)
	}
	if l.File.Path != "" && (l.File.MaxSizeMB < 1 || l.File.MaxBackups < 0 || l.File.MaxAgeDays < 0) {
		return errors.New("logging.file.max_size_mb must be >= 1 and max_backups, max_age_days >= 0")
	}
	return nil
}

func validateScripting(s ScriptingConfig) error {
	if s.InstructionLimit < 0 {
		return fmt.Errorf("scripting.instruction_limit must be >= 0, got %d", s.InstructionLimit)
	}
	return nil
}

func validateSim(s SimConfig) error {
	if s.Workers < 0 {
		return fmt.Errorf("sim.workers must be >= 0, got %d", s.Workers)
	}
	return nil
}

// Load reads configuration from the given file path, applies environment variable
// overrides, and validates the result.
//
// Precondition: path must be a valid file path to a YAML configuration file.
// Postcondition: Returns a valid Config or a non-nil error.
func Load(path string) (Config, error) {
	v := newViper()
	v.SetConfigFile(path)
	if err := v.ReadInConfig(); err != nil {
		return Config{}, fmt.Errorf("reading config file: %w", err)
	}
	return LoadFromViper(v)
}

// Defaults returns the configuration built from defaults and IDLE_ environment
// overrides alone.
//
// Postcondition: Returns a valid Config or a non-nil error.
func Defaults() (Config, error) {
	return LoadFromViper(newViper())
}

// LoadFromViper builds a Config from an already-configured Viper instance.
//
// Precondition: v must be non-nil and have configuration values set.
// Postcondition: Returns a valid Config or a non-nil error.
func LoadFromViper(v *viper.Viper) (Config, error) {
	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("unmarshalling config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func newViper() *viper.Viper {
	v := viper.New()
	// Environment variable overrides with IDLE_ prefix, e.g. IDLE_GAMESERVER_GRPC_PORT.
	v.SetEnvPrefix("IDLE")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	setDefaults(v)
	return v
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("database.host", "localhost")
	v.SetDefault("database.port", 5432)
	v.SetDefault("database.user", "idle")
	v.SetDefault("database.password", "idle")
	v.SetDefault("database.name", "idlerpg")
	v.SetDefault("database.sslmode", "disable")
	v.SetDefault("database.max_conns", 10)
	v.SetDefault("database.min_conns", 2)
	v.SetDefault("database.max_conn_lifetime", "1h")

	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "json")
	v.SetDefault("logging.file.path", "")
	v.SetDefault("logging.file.max_size_mb", 100)
	v.SetDefault("logging.file.max_backups", 3)
	v.SetDefault("logging.file.max_age_days", 28)
	v.SetDefault("logging.file.compress", false)

	v.SetDefault("archive.path", "balancesim.db")

	v.SetDefault("gameserver.grpc_host", "127.0.0.1")
	v.SetDefault("gameserver.grpc_port", 50051)
	v.SetDefault("gameserver.frame_interval", "100ms")
	v.SetDefault("gameserver.snapshot_interval", "30s")
	v.SetDefault("gameserver.max_delta", "1s")

	v.SetDefault("balance.path", "")

	v.SetDefault("scripting.dir", "")
	v.SetDefault("scripting.instruction_limit", 100_000)

	d := sim.DefaultSimConfig()
	v.SetDefault("sim.defaults.num_runs", d.NumRuns)
	v.SetDefault("sim.defaults.max_ticks_per_run", d.MaxTicksPerRun)
	v.SetDefault("sim.defaults.target_zone", d.TargetZone)
	v.SetDefault("sim.defaults.target_prestige", d.TargetPrestige)
	v.SetDefault("sim.defaults.simulate_loot", d.SimulateLoot)
	v.SetDefault("sim.defaults.simulate_prestige", d.SimulatePrestige)
	v.SetDefault("sim.workers", 0)
	v.SetDefault("sim.output_dir", ".")
}
