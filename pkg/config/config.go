package config

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"gopkg.in/yaml.v3"
)

// Environment overrides applied by Load.
const (
	EnvLogLevel = "SEACAT_LOG_LEVEL"
	EnvDBPath   = "SEACAT_DB_PATH"
)

// Config holds the application configuration.
type Config struct {
	Log    LogConfig    `yaml:"log"`
	DB     DBConfig     `yaml:"db"`
	Export ExportConfig `yaml:"export"`
	Trace  TraceConfig  `yaml:"trace"`
}

// LogConfig holds logging settings.
type LogConfig struct {
	Path       string `yaml:"path"`
	Level      string `yaml:"level"`
	MaxSizeMB  int    `yaml:"max_size_mb"`
	MaxBackups int    `yaml:"max_backups"`
	Trace      bool   `yaml:"trace"` // very verbose turn geometry logs
}

// DBConfig holds database settings.
type DBConfig struct {
	Path        string `yaml:"path"`
	KeepExports int    `yaml:"keep_exports"` // history records kept, 0 keeps all
}

// ExportConfig holds the mission file generation settings.
type ExportConfig struct {
	TurnRadius       Distance        `yaml:"turn_radius"`
	PayloadGap       int             `yaml:"payload_gap"`
	ManeuverGap      int             `yaml:"maneuver_gap"`
	AcomsRepetitions int             `yaml:"acoms_repetitions"`
	LowBatteryState  string          `yaml:"low_battery_state"`
	SafeAltitude     string          `yaml:"safe_altitude"`
	EmergencyEnd     string          `yaml:"emergency_end"`
	Template         string          `yaml:"template"`
	OutputDir        string          `yaml:"output_dir"`
	Resources        ResourcesConfig `yaml:"resources"`
}

// ResourcesConfig points at replacement tables. Empty paths use the built-in tables.
type ResourcesConfig struct {
	Active   string `yaml:"active"`
	Booleans string `yaml:"booleans"`
	Models   string `yaml:"models"`
}

// TraceConfig holds settings for the trajectory trace written next to the mission.
type TraceConfig struct {
	Enabled bool   `yaml:"enabled"`
	Format  string `yaml:"format"` // "geojson", "shp"
}

// DefaultConfig returns the default configuration.
func DefaultConfig() *Config {
	return &Config{
		Log: LogConfig{
			Path:       "./logs/seacat.log",
			Level:      "INFO",
			MaxSizeMB:  16,
			MaxBackups: 3,
		},
		DB: DBConfig{
			Path:        "./data/seacat.db",
			KeepExports: 200,
		},
		Export: ExportConfig{
			TurnRadius:       Distance(15),
			PayloadGap:       5,
			ManeuverGap:      10,
			AcomsRepetitions: 3,
			LowBatteryState:  "20",
			SafeAltitude:     "3.0",
			EmergencyEnd:     "P",
			OutputDir:        "./missions",
		},
		Trace: TraceConfig{
			Enabled: false,
			Format:  "geojson",
		},
	}
}

// Validate checks values that would otherwise produce a broken mission file.
func (c *Config) Validate() error {
	if c.Export.TurnRadius <= 0 {
		return fmt.Errorf("turn_radius must be positive, got %v", float64(c.Export.TurnRadius))
	}
	if c.Export.PayloadGap < 0 || c.Export.ManeuverGap < 0 {
		return fmt.Errorf("line gaps must not be negative")
	}
	switch strings.ToLower(c.Trace.Format) {
	case "geojson", "shp":
	default:
		return fmt.Errorf("invalid trace format '%s': must be geojson or shp", c.Trace.Format)
	}
	return nil
}

// Load loads the configuration from the given path.
// If the file does not exist, it creates it with default values.
// Environment overrides are applied in memory only.
func Load(path string) (*Config, error) {
	cfg := DefaultConfig()

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create config directory: %w", err)
	}

	if _, err := os.Stat(path); err == nil {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config file: %w", err)
		}
	} else if err := Save(path, cfg); err != nil {
		return nil, fmt.Errorf("failed to save config file: %w", err)
	}

	applyEnv(cfg)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func applyEnv(cfg *Config) {
	if level := os.Getenv(EnvLogLevel); level != "" {
		cfg.Log.Level = level
	}
	if path := os.Getenv(EnvDBPath); path != "" {
		cfg.DB.Path = path
	}
}

// Save writes the configuration to the path.
func Save(path string, cfg *Config) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	header := []byte(`# SeaCat-MK1 Exporter Configuration
# ---------------------------------
# Supported Units:
#   Distance: m (meters), km (kilometers), nm (nautical miles), ft (feet)

`)
	data = append(header, data...)

	reEnd := regexp.MustCompile(`(?m)^(\s+)emergency_end:`)
	data = reEnd.ReplaceAll(data, []byte("${1}# Options: P (keep position), D (drift)\n${1}emergency_end:"))

	reFormat := regexp.MustCompile(`(?m)^(\s+)format:`)
	data = reFormat.ReplaceAll(data, []byte("${1}# Options: geojson, shp\n${1}format:"))

	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}
	return nil
}

// GenerateDefault creates a default config file at the given path.
// Returns nil if the file already exists.
func GenerateDefault(path string) error {
	if _, err := os.Stat(path); err == nil {
		return nil
	}

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	return Save(path, DefaultConfig())
}
