package config

import (
	"fmt"
	"os"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
	"gopkg.in/yaml.v2"
)

// EnvPrefix namespaces every environment override (EMG_SIGNAL_TOLERANCE, ...).
const EnvPrefix = "EMG"

// Unmatched grid point policies.
const (
	UnmatchedNull = "null"
	UnmatchedDrop = "drop"
)

// Config represents the complete application configuration
type Config struct {
	Paths     PathsConfig     `yaml:"paths" envconfig:"PATHS"`
	Logging   LoggingConfig   `yaml:"logging" envconfig:"LOGGING"`
	Convert   ConvertConfig   `yaml:"convert" envconfig:"CONVERT"`
	Signal    SignalConfig    `yaml:"signal" envconfig:"SIGNAL"`
	Chart     ChartConfig     `yaml:"chart" envconfig:"CHART"`
	Export    ExportConfig    `yaml:"export" envconfig:"EXPORT"`
	Batch     BatchConfig     `yaml:"batch" envconfig:"BATCH"`
	Telemetry TelemetryConfig `yaml:"telemetry" envconfig:"TELEMETRY"`
}

// PathsConfig contains the stage directories, relative to BaseDir unless absolute
type PathsConfig struct {
	BaseDir     string `yaml:"base_dir" envconfig:"BASE_DIR" validate:"required"`
	SYLKDir     string `yaml:"sylk_dir" envconfig:"SYLK_DIR" validate:"required"`
	CSVDir      string `yaml:"csv_dir" envconfig:"CSV_DIR" validate:"required"`
	WorkbookDir string `yaml:"workbook_dir" envconfig:"WORKBOOK_DIR" validate:"required"`
	ChartDir    string `yaml:"chart_dir" envconfig:"CHART_DIR" validate:"required"`
	ImageDir    string `yaml:"image_dir" envconfig:"IMAGE_DIR"`
}

// LoggingConfig contains logging configuration
type LoggingConfig struct {
	Level    string `yaml:"level" envconfig:"LEVEL" validate:"oneof=debug info warn warning error"`
	Output   string `yaml:"output" envconfig:"OUTPUT" validate:"oneof=console file both"`
	FilePath string `yaml:"file_path" envconfig:"FILE_PATH"`
}

// ConvertConfig controls SYLK decoding
type ConvertConfig struct {
	Encoding string `yaml:"encoding" envconfig:"ENCODING" validate:"oneof=utf-8 windows-1252 latin1"`
	// Extensions selects input files; "" matches files without an extension.
	Extensions []string `yaml:"extensions" envconfig:"EXTENSIONS" validate:"min=1"`
	BOM        bool     `yaml:"bom" envconfig:"BOM"`
}

// SignalConfig controls CSV loading and resampling
type SignalConfig struct {
	HeaderRow  int     `yaml:"header_row" envconfig:"HEADER_ROW" validate:"min=1"`
	TimeColumn string  `yaml:"time_column" envconfig:"TIME_COLUMN" validate:"required"`
	ArmColumn  string  `yaml:"arm_column" envconfig:"ARM_COLUMN" validate:"required"`
	LegColumn  string  `yaml:"leg_column" envconfig:"LEG_COLUMN" validate:"required"`
	TimeLabel  string  `yaml:"time_label" envconfig:"TIME_LABEL" validate:"required"`
	ArmLabel   string  `yaml:"arm_label" envconfig:"ARM_LABEL" validate:"required"`
	LegLabel   string  `yaml:"leg_label" envconfig:"LEG_LABEL" validate:"required"`
	Step       float64 `yaml:"step" envconfig:"STEP" validate:"gt=0"`
	Tolerance  float64 `yaml:"tolerance" envconfig:"TOLERANCE" validate:"gte=0"`
	Limit      int     `yaml:"limit" envconfig:"LIMIT" validate:"gte=0"`
	Unmatched  string  `yaml:"unmatched" envconfig:"UNMATCHED" validate:"oneof=null drop"`
}

// ChartConfig controls the fixed chart layout
type ChartConfig struct {
	YMin          float64 `yaml:"y_min" envconfig:"Y_MIN"`
	YMax          float64 `yaml:"y_max" envconfig:"Y_MAX" validate:"gtfield=YMin"`
	TickLabelSkip int     `yaml:"tick_label_skip" envconfig:"TICK_LABEL_SKIP" validate:"min=1"`
	LabelRotation int     `yaml:"label_rotation" envconfig:"LABEL_ROTATION" validate:"min=-90,max=90"`
	LineWidth     float64 `yaml:"line_width" envconfig:"LINE_WIDTH" validate:"gt=0"`
	Width         uint    `yaml:"width" envconfig:"WIDTH" validate:"gt=0"`
	Height        uint    `yaml:"height" envconfig:"HEIGHT" validate:"gt=0"`
	ArmAnchor     string  `yaml:"arm_anchor" envconfig:"ARM_ANCHOR" validate:"required"`
	LegAnchor     string  `yaml:"leg_anchor" envconfig:"LEG_ANCHOR" validate:"required"`
	TimeTitle     string  `yaml:"time_title" envconfig:"TIME_TITLE"`

	// TitleFormat receives subject, scenario and channel name.
	TitleFormat string `yaml:"title_format" envconfig:"TITLE_FORMAT" validate:"required"`
	ArmName     string `yaml:"arm_name" envconfig:"ARM_NAME" validate:"required"`
	LegName     string `yaml:"leg_name" envconfig:"LEG_NAME" validate:"required"`
}

// ExportConfig controls PNG export of chart objects
type ExportConfig struct {
	Prefix string `yaml:"prefix" envconfig:"PREFIX" validate:"required"`
	Width  int    `yaml:"width" envconfig:"WIDTH" validate:"gt=0"`
	Height int    `yaml:"height" envconfig:"HEIGHT" validate:"gt=0"`
}

// BatchConfig controls per-file scheduling
type BatchConfig struct {
	Workers int `yaml:"workers" envconfig:"WORKERS" validate:"min=1"`
}

// TelemetryConfig controls tracing and metrics output
type TelemetryConfig struct {
	TraceExporter   string `yaml:"trace_exporter" envconfig:"TRACE_EXPORTER" validate:"oneof=none stdout file"`
	TraceFile       string `yaml:"trace_file" envconfig:"TRACE_FILE" validate:"required_if=TraceExporter file"`
	MetricsTextfile string `yaml:"metrics_textfile" envconfig:"METRICS_TEXTFILE"`
}

// Default returns default configuration
func Default() *Config {
	return &Config{
		Paths: PathsConfig{
			BaseDir:     ".",
			SYLKDir:     "data/emg",
			CSVDir:      "data/emg_csv",
			WorkbookDir: "data/emg_xlsx",
			ChartDir:    "data/emg_xlsx_with_charts",
			ImageDir:    "",
		},
		Logging: LoggingConfig{
			Level:    "info",
			Output:   "console",
			FilePath: "logs/emgpipe.log",
		},
		Convert: ConvertConfig{
			Encoding:   "utf-8",
			Extensions: []string{".slk", ".sylk", ".emg", ""},
		},
		Signal: SignalConfig{
			HeaderRow:  4,
			TimeColumn: "Time,s",
			ArmColumn:  "FLEX.CARP.R,uV",
			LegColumn:  "MED. GASTRO,uV",
			TimeLabel:  "time(s)",
			ArmLabel:   "근전도(팔,수근굴근)(uV)",
			LegLabel:   "근전도(종아리,비복근)(uV)",
			Step:       0.1,
			Tolerance:  0.05,
			Limit:      1,
			Unmatched:  UnmatchedNull,
		},
		Chart: ChartConfig{
			YMin:          0,
			YMax:          250,
			TickLabelSkip: 200,
			LabelRotation: -45,
			LineWidth:     0.75,
			Width:         756,
			Height:        283,
			ArmAnchor:     "E2",
			LegAnchor:     "E15",
			TimeTitle:     "time(s)",
			TitleFormat:   "피실험자%s 시나리오%s %s",
			ArmName:       "근전도(팔,수근굴근)",
			LegName:       "근전도(종아리,비복근)",
		},
		Export: ExportConfig{
			Prefix: "chart",
			Width:  756,
			Height: 283,
		},
		Batch: BatchConfig{
			Workers: 1,
		},
		Telemetry: TelemetryConfig{
			TraceExporter: "none",
		},
	}
}

// Load builds the configuration from defaults, an optional YAML file, an
// optional .env file and EMG_* environment variables, in increasing precedence.
// An empty path searches the usual locations.
func Load(path string) (*Config, error) {
	cfg := Default()

	if path == "" {
		path = findConfigFile()
	}
	if path != "" {
		if err := loadFromFile(path, cfg); err != nil {
			return nil, fmt.Errorf("failed to load config from file %s: %w", path, err)
		}
	}

	// .env is optional; variables already set in the process win.
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		return nil, fmt.Errorf("failed to load .env: %w", err)
	}

	if err := envconfig.Process(EnvPrefix, cfg); err != nil {
		return nil, fmt.Errorf("failed to load config from env: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return cfg, nil
}

// Validate checks struct constraints and normalises extensions.
func (c *Config) Validate() error {
	for i, ext := range c.Convert.Extensions {
		ext = strings.ToLower(strings.TrimSpace(ext))
		if ext != "" && !strings.HasPrefix(ext, ".") {
			ext = "." + ext
		}
		c.Convert.Extensions[i] = ext
	}
	return validator.New().Struct(c)
}

// loadFromFile overlays YAML values on top of cfg
func loadFromFile(filePath string, cfg *Config) error {
	data, err := os.ReadFile(filePath)
	if err != nil {
		return err
	}
	return yaml.Unmarshal(data, cfg)
}

// findConfigFile returns the first config file found in the common locations
func findConfigFile() string {
	locations := []string{
		"emgpipe.yaml",
		"configs/emgpipe.yaml",
	}

	for _, location := range locations {
		if _, err := os.Stat(location); err == nil {
			return location
		}
	}

	return ""
}
