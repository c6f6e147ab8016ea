package config

// LoggingConfig contains logging configuration
type LoggingConfig struct {
	Level      string `yaml:"level"`       // debug, info, warn, error
	OutputFile string `yaml:"output_file"` // Empty for stderr, or ~/.notefeed/notefeed.log while the TUI runs
	NoColor    bool   `yaml:"no_color"`
}
