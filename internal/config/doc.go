// Package config provides configuration loading for the EMG pipeline.
//
// # Configuration Sources
//
// Configuration is assembled from the following sources, later ones winning:
//
//	1. Default() values (the original experiment layout)
//	2. A YAML file (--config, emgpipe.yaml or configs/emgpipe.yaml)
//	3. A .env file in the working directory
//	4. EMG_* environment variables
//
// # Environment Variables
//
// Sections map to prefixes:
//
//	EMG_PATHS_BASE_DIR=/data/experiment
//	EMG_SIGNAL_TOLERANCE=0.05
//	EMG_SIGNAL_UNMATCHED=drop
//	EMG_BATCH_WORKERS=4
//	EMG_LOGGING_LEVEL=debug
//
// # Path Management
//
// PathsConfig.Resolve anchors the stage directories at BaseDir:
//
//	paths, err := cfg.Paths.Resolve()
//	csvDir := paths.CSVDir
//
// # Validation
//
// Load validates the result with go-playground/validator struct tags, so a
// bad value fails before any file is touched.
package config
