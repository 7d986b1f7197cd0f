package config

import (
	"fmt"
	"os"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/kelseyhightower/envconfig"
	"gopkg.in/yaml.v2"
)

// EnvPrefix namespaces every environment variable (PANEL_LOGGING_LEVEL, ...)
const EnvPrefix = "PANEL"

// Config represents the complete application configuration
type Config struct {
	Logging   LoggingConfig   `yaml:"logging" envconfig:"LOGGING"`
	Paths     PathsConfig     `yaml:"paths" envconfig:"PATHS"`
	Telemetry TelemetryConfig `yaml:"telemetry" envconfig:"TELEMETRY"`
	Analysis  AnalysisConfig  `yaml:"analysis" envconfig:"ANALYSIS"`
}

// LoggingConfig contains logging configuration
type LoggingConfig struct {
	Level    string `yaml:"level" envconfig:"LEVEL" default:"info" validate:"oneof=debug info warn warning error"`
	Format   string `yaml:"format" envconfig:"FORMAT" default:"json" validate:"eq=json"`
	Output   string `yaml:"output" envconfig:"OUTPUT" default:"file" validate:"oneof=console file both"`
	FilePath string `yaml:"file_path" envconfig:"FILE_PATH" default:"logs/pipeline.log"`
}

// PathsConfig contains the directories the pipeline reads from and writes to.
// File names inside them are fixed, see paths.go.
type PathsConfig struct {
	DataDir     string `yaml:"data_dir" envconfig:"DATA_DIR" default:"." validate:"required"`
	OutputDir   string `yaml:"output_dir" envconfig:"OUTPUT_DIR" default:"." validate:"required"`
	AnalysisDir string `yaml:"analysis_dir" envconfig:"ANALYSIS_DIR" default:"output" validate:"required"`
	FiguresDir  string `yaml:"figures_dir" envconfig:"FIGURES_DIR" default:"figures" validate:"required"`
}

// TelemetryConfig controls tracing and metric export
type TelemetryConfig struct {
	TraceExporter string `yaml:"trace_exporter" envconfig:"TRACE_EXPORTER" default:"none" validate:"oneof=none stdout"`
	MetricsFile   string `yaml:"metrics_file" envconfig:"METRICS_FILE" default:"pipeline_metrics.prom"`
}

// AnalysisConfig controls the downstream analysis stage
type AnalysisConfig struct {
	Skip bool  `yaml:"skip" envconfig:"SKIP" default:"false"`
	Lags []int `yaml:"lags" envconfig:"LAGS" default:"1,2,3" validate:"min=1,dive,min=1,max=10"`
}

// Load loads configuration from environment variables and an optional config file
func Load() (*Config, error) {
	var cfg Config

	// Load from environment variables first
	if err := envconfig.Process(EnvPrefix, &cfg); err != nil {
		return nil, fmt.Errorf("failed to load config from env: %w", err)
	}

	if configFile := getConfigFilePath(); configFile != "" {
		fileConfig, err := loadFromFile(configFile)
		if err != nil {
			return nil, fmt.Errorf("failed to load config from file: %w", err)
		}
		cfg = mergeConfigs(*fileConfig, cfg)
	}

	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return &cfg, nil
}

// loadFromFile loads configuration from YAML file
func loadFromFile(filePath string) (*Config, error) {
	data, err := os.ReadFile(filePath)
	if err != nil {
		return nil, err
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// mergeConfigs overlays file values on env values.
// An env value wins whenever the variable was actually set.
func mergeConfigs(fileConfig, envConfig Config) Config {
	pick := func(envKey, envVal, fileVal string) string {
		if _, set := os.LookupEnv(envKey); set || fileVal == "" {
			return envVal
		}
		return fileVal
	}

	key := func(parts ...string) string {
		return EnvPrefix + "_" + strings.Join(parts, "_")
	}

	out := envConfig
	out.Logging.Level = pick(key("LOGGING", "LEVEL"), envConfig.Logging.Level, fileConfig.Logging.Level)
	out.Logging.Output = pick(key("LOGGING", "OUTPUT"), envConfig.Logging.Output, fileConfig.Logging.Output)
	out.Logging.FilePath = pick(key("LOGGING", "FILE_PATH"), envConfig.Logging.FilePath, fileConfig.Logging.FilePath)

	out.Paths.DataDir = pick(key("PATHS", "DATA_DIR"), envConfig.Paths.DataDir, fileConfig.Paths.DataDir)
	out.Paths.OutputDir = pick(key("PATHS", "OUTPUT_DIR"), envConfig.Paths.OutputDir, fileConfig.Paths.OutputDir)
	out.Paths.AnalysisDir = pick(key("PATHS", "ANALYSIS_DIR"), envConfig.Paths.AnalysisDir, fileConfig.Paths.AnalysisDir)
	out.Paths.FiguresDir = pick(key("PATHS", "FIGURES_DIR"), envConfig.Paths.FiguresDir, fileConfig.Paths.FiguresDir)

	out.Telemetry.TraceExporter = pick(key("TELEMETRY", "TRACE_EXPORTER"), envConfig.Telemetry.TraceExporter, fileConfig.Telemetry.TraceExporter)
	out.Telemetry.MetricsFile = pick(key("TELEMETRY", "METRICS_FILE"), envConfig.Telemetry.MetricsFile, fileConfig.Telemetry.MetricsFile)

	if _, set := os.LookupEnv(key("ANALYSIS", "SKIP")); !set && fileConfig.Analysis.Skip {
		out.Analysis.Skip = true
	}
	if _, set := os.LookupEnv(key("ANALYSIS", "LAGS")); !set && len(fileConfig.Analysis.Lags) > 0 {
		out.Analysis.Lags = fileConfig.Analysis.Lags
	}

	return out
}

// validate checks struct tags and normalizes a few values
func (c *Config) validate() error {
	// Always JSON
	c.Logging.Format = "json"
	c.Logging.Level = strings.ToLower(c.Logging.Level)

	if err := validator.New().Struct(c); err != nil {
		var msgs []string
		if verrs, ok := err.(validator.ValidationErrors); ok {
			for _, fe := range verrs {
				msgs = append(msgs, fmt.Sprintf("%s failed %q", fe.Namespace(), fe.Tag()))
			}
			return fmt.Errorf("%s", strings.Join(msgs, "; "))
		}
		return err
	}

	if c.Logging.Output != "console" && c.Logging.FilePath == "" {
		c.Logging.FilePath = "logs/pipeline.log"
	}

	return nil
}

// getConfigFilePath returns the path to the config file, or "" if none exists
func getConfigFilePath() string {
	if p := os.Getenv(EnvPrefix + "_CONFIG_FILE"); p != "" {
		return p
	}

	locations := []string{
		"config.yaml",
		"configs/config.yaml",
	}

	for _, location := range locations {
		if _, err := os.Stat(location); err == nil {
			return location
		}
	}

	return ""
}

// Default returns default configuration
func Default() *Config {
	return &Config{
		Logging: LoggingConfig{
			Level:    "info",
			Format:   "json",
			Output:   "file",
			FilePath: "logs/pipeline.log",
		},
		Paths: PathsConfig{
			DataDir:     ".",
			OutputDir:   ".",
			AnalysisDir: "output",
			FiguresDir:  "figures",
		},
		Telemetry: TelemetryConfig{
			TraceExporter: "none",
			MetricsFile:   "pipeline_metrics.prom",
		},
		Analysis: AnalysisConfig{
			Lags: []int{1, 2, 3},
		},
	}
}
