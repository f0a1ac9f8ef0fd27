// SPDX-License-Identifier: MPL-2.0

// Package config handles application configuration using Viper with CUE as the file format.
//
// Configuration is loaded from the --config flag, else ~/.config/artinav/config.cue (or the
// platform equivalent), else ./config.cue, else built-in defaults. ARTINAV_* environment
// variables override file values, e.g. ARTINAV_ARTIFACTS_DIR or ARTINAV_CATALOG_ORDER.
//
// Files are validated against the embedded CUE schema (config_schema.cue) before being
// merged into Viper; constraints CUE cannot express are checked by Config.IsValid.
package config
