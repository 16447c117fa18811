package main

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/opal-lang/planwords/runtime/executor"
	"github.com/opal-lang/planwords/runtime/logging"
	"gopkg.in/yaml.v3"
)

// DefaultConfigFile is read from the working directory when --config is not given.
const DefaultConfigFile = ".planwords.yaml"

// Environment variables consulted between the config file and flags.
const (
	EnvLogLevel = "PLANWORDS_LOG_LEVEL"
	EnvDebug    = "PLANWORDS_DEBUG"
	EnvNoColor  = "NO_COLOR"
)

// FileConfig is the YAML config file layout.
//
//	log_level: debug
//	debug: paths
//	telemetry: timing
//	color: false
//	max_depth: 500
type FileConfig struct {
	LogLevel  string `yaml:"log_level"`
	Debug     string `yaml:"debug"`
	Telemetry string `yaml:"telemetry"`
	Color     *bool  `yaml:"color"`
	MaxDepth  int    `yaml:"max_depth"`
}

// Settings is the resolved configuration of one command invocation.
type Settings struct {
	LogLevel  logging.Level
	Debug     executor.DebugLevel
	Telemetry executor.TelemetryLevel
	UseColor  bool
	MaxDepth  int
}

// ExecutorConfig maps settings onto an executor configuration.
func (s Settings) ExecutorConfig(out io.Writer, logger *logging.Logger) executor.Config {
	return executor.Config{
		Output:    out,
		Logger:    logger,
		MaxDepth:  s.MaxDepth,
		Debug:     s.Debug,
		Telemetry: s.Telemetry,
	}
}

// configFlags holds the flags that take part in configuration.
type configFlags struct {
	configPath string
	logLevel   string
	debug      bool
	noColor    bool
}

// loadConfigFile reads a YAML config file. A missing file is only an error
// when the path was given explicitly.
func loadConfigFile(path string, required bool) (FileConfig, error) {
	var cfg FileConfig

	file, err := os.Open(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) && !required {
			return cfg, nil
		}
		return cfg, fmt.Errorf("config: %w", err)
	}
	defer file.Close()

	decoder := yaml.NewDecoder(file)
	decoder.KnownFields(true)
	if err := decoder.Decode(&cfg); err != nil {
		if errors.Is(err, io.EOF) {
			return cfg, nil
		}
		return cfg, fmt.Errorf("config: parse %s: %w", path, err)
	}
	return cfg, nil
}

// resolveSettings merges defaults, the config file, the environment and
// flags, later sources overriding earlier ones.
func resolveSettings(flags configFlags, changed func(name string) bool, getenv func(string) string, stdoutIsTTY bool) (Settings, error) {
	path, required := DefaultConfigFile, false
	if flags.configPath != "" {
		path, required = flags.configPath, true
	}
	file, err := loadConfigFile(path, required)
	if err != nil {
		return Settings{}, err
	}

	s := Settings{
		LogLevel: logging.LevelInfo,
		UseColor: stdoutIsTTY,
		MaxDepth: file.MaxDepth,
	}

	levelName := file.LogLevel
	debugName := file.Debug
	if file.Color != nil {
		s.UseColor = *file.Color && stdoutIsTTY
	}
	if file.Telemetry != "" {
		if s.Telemetry, err = parseTelemetryLevel(file.Telemetry); err != nil {
			return Settings{}, err
		}
	}

	if v := getenv(EnvLogLevel); v != "" {
		levelName = v
	}
	if v := getenv(EnvDebug); v != "" {
		debugName = v
	}
	if getenv(EnvNoColor) != "" {
		s.UseColor = false
	}

	if changed("log-level") {
		levelName = flags.logLevel
	}
	if changed("debug") && flags.debug {
		debugName = "detailed"
	}
	if flags.noColor {
		s.UseColor = false
	}

	if levelName != "" {
		if s.LogLevel, err = logging.ParseLevel(levelName); err != nil {
			return Settings{}, &CLIError{
				Type:    "config",
				Message: err.Error(),
				Hint:    "set --log-level, " + EnvLogLevel + " or log_level to error, warn, info, debug or verbose",
			}
		}
	}
	if s.Debug, err = parseDebugLevel(debugName); err != nil {
		return Settings{}, err
	}
	if s.Debug == executor.DebugDetailed && s.LogLevel < logging.LevelDebug {
		s.LogLevel = logging.LevelDebug
	}
	if s.MaxDepth < 0 {
		return Settings{}, &CLIError{Type: "config", Message: fmt.Sprintf("max_depth must not be negative, got %d", s.MaxDepth)}
	}

	return s, nil
}

func parseDebugLevel(name string) (executor.DebugLevel, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "", "off", "false", "0":
		return executor.DebugOff, nil
	case "paths":
		return executor.DebugPaths, nil
	case "detailed", "true", "1":
		return executor.DebugDetailed, nil
	default:
		return executor.DebugOff, &CLIError{
			Type:    "config",
			Message: fmt.Sprintf("unknown debug level %q", name),
			Hint:    "use off, paths or detailed",
		}
	}
}

func parseTelemetryLevel(name string) (executor.TelemetryLevel, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "", "off":
		return executor.TelemetryOff, nil
	case "basic":
		return executor.TelemetryBasic, nil
	case "timing":
		return executor.TelemetryTiming, nil
	default:
		return executor.TelemetryOff, &CLIError{
			Type:    "config",
			Message: fmt.Sprintf("unknown telemetry level %q", name),
			Hint:    "use off, basic or timing",
		}
	}
}
