// Package config handles tool configuration loading and management.
package config

// Config holds all octatool settings.
type Config struct {
	Maps    MapsConfig    `yaml:"maps"`
	Logging LoggingConfig `yaml:"logging"`
}

// MapsConfig holds map handling settings.
type MapsConfig struct {
	// MaxWorldSize rejects maps claiming an absurd world edge length.
	MaxWorldSize int32 `yaml:"max_world_size"`
	// Strict makes validation failures fatal instead of reported.
	Strict bool `yaml:"strict"`
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level   string `yaml:"level"`
	LogFile string `yaml:"log_file"`
}

// Default returns a Config with sensible default values.
func Default() *Config {
	return &Config{
		Maps: MapsConfig{
			MaxWorldSize: 1 << 20,
			Strict:       false,
		},
		Logging: LoggingConfig{
			Level:   "info",
			LogFile: "",
		},
	}
}
