package config

// Config holds app configuration
type Config struct {
	// OutputDir is where archives are unpacked to, or where a newly
	// built archive is placed when no explicit output path is given
	OutputDir string `mapstructure:"output_directory"`

	// Output is the path of the archive to build (archive command only)
	Output string `mapstructure:"output"`

	// DryRun validates and computes everything but writes nothing
	DryRun bool `mapstructure:"dry_run"`

	// Force allows overwriting existing destination files
	Force bool `mapstructure:"force"`

	// Verbose and Silent override LogLevel
	Verbose bool `mapstructure:"verbose"`
	Silent  bool `mapstructure:"silent"`

	LogLevel     string `mapstructure:"log_level"`
	LogOutputDir string `mapstructure:"log_output_dir"`
}
