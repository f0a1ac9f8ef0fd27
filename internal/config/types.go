// SPDX-License-Identifier: MPL-2.0

package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/artinav/artinav/pkg/catalog"
)

const (
	// ColorSchemeAuto detects the terminal color scheme automatically.
	ColorSchemeAuto ColorScheme = "auto"
	// ColorSchemeDark forces dark color scheme.
	ColorSchemeDark ColorScheme = "dark"
	// ColorSchemeLight forces light color scheme.
	ColorSchemeLight ColorScheme = "light"

	// DefaultArtifactsDir is where artifact pages live in a typical project.
	DefaultArtifactsDir = "src/artifacts"
	// DefaultAddress is the HTTP listen address.
	DefaultAddress = "127.0.0.1:5173"
	// DefaultSubject is the NATS subject for reload notifications.
	DefaultSubject = "artinav.catalog"
	// DefaultDebounce is the watch debounce window.
	DefaultDebounce = 300 * time.Millisecond
)

var (
	// ErrInvalidColorScheme is returned when a ColorScheme value is not recognized.
	ErrInvalidColorScheme = errors.New("invalid color scheme")
	// ErrInvalidConfig is the sentinel error wrapped by InvalidConfigError.
	ErrInvalidConfig = errors.New("invalid config")
	// ErrConflictingSources is returned when more than one artifact source is set.
	ErrConflictingSources = errors.New("only one of artifacts.manifest and artifacts.url may be set")
)

type (
	// ColorScheme specifies the terminal color scheme preference.
	ColorScheme string

	// InvalidColorSchemeError is returned when a ColorScheme value is not recognized.
	// It wraps ErrInvalidColorScheme for errors.Is() compatibility.
	InvalidColorSchemeError struct {
		Value ColorScheme
	}

	// InvalidConfigError is returned when a Config has invalid fields.
	// It wraps ErrInvalidConfig for errors.Is() compatibility and collects
	// field-level validation errors from all sub-components.
	InvalidConfigError struct {
		FieldErrors []error
	}

	// Config holds the application configuration.
	Config struct {
		Artifacts ArtifactsConfig `json:"artifacts" mapstructure:"artifacts"`
		Catalog   CatalogConfig   `json:"catalog" mapstructure:"catalog"`
		Server    ServerConfig    `json:"server" mapstructure:"server"`
		Notify    NotifyConfig    `json:"notify" mapstructure:"notify"`
		UI        UIConfig        `json:"ui" mapstructure:"ui"`
	}

	// ArtifactsConfig selects where artifact identifiers come from. Dir is
	// used unless Manifest or URL is set.
	ArtifactsConfig struct {
		// Dir is the directory scanned for artifact pages.
		Dir string `json:"dir" mapstructure:"dir"`
		// Extensions lists page file extensions without the dot.
		Extensions []string `json:"extensions" mapstructure:"extensions"`
		// Exclude lists doublestar globs, relative to Dir, to skip.
		Exclude []string `json:"exclude" mapstructure:"exclude"`
		// IndexName is the page name that never becomes a catalog entry.
		IndexName string `json:"index_name" mapstructure:"index_name"`
		// Manifest is a local JSON or YAML manifest file.
		Manifest string `json:"manifest" mapstructure:"manifest"`
		// URL is a remote manifest endpoint.
		URL string `json:"url" mapstructure:"url"`
	}

	// CatalogConfig configures tree construction.
	CatalogConfig struct {
		// Order is "insertion" (discovery order) or "name".
		Order string `json:"order" mapstructure:"order"`
	}

	// ServerConfig configures `artinav serve`.
	ServerConfig struct {
		Address    string        `json:"address" mapstructure:"address"`
		SSHAddress string        `json:"ssh_address" mapstructure:"ssh_address"`
		HostKey    string        `json:"host_key" mapstructure:"host_key"`
		Watch      bool          `json:"watch" mapstructure:"watch"`
		Debounce   time.Duration `json:"debounce" mapstructure:"debounce"`
	}

	// NotifyConfig configures reload notifications. An empty NATSURL disables them.
	NotifyConfig struct {
		NATSURL string `json:"nats_url" mapstructure:"nats_url"`
		Subject string `json:"subject" mapstructure:"subject"`
	}

	// UIConfig configures the user interface.
	UIConfig struct {
		// ColorScheme sets the color scheme
		ColorScheme ColorScheme `json:"color_scheme" mapstructure:"color_scheme"`
		// Verbose enables verbose output
		Verbose bool `json:"verbose" mapstructure:"verbose"`
	}
)

// CatalogOrder returns the parsed tree ordering.
func (c CatalogConfig) CatalogOrder() (catalog.Order, error) {
	return catalog.ParseOrder(c.Order)
}

// IsValid returns whether the Config has valid fields, and the field errors
// when it does not. It covers the constraints CUE cannot express.
func (c Config) IsValid() (bool, []error) {
	var errs []error
	if valid, fieldErrs := c.UI.ColorScheme.IsValid(); !valid {
		errs = append(errs, fieldErrs...)
	}
	if _, err := c.Catalog.CatalogOrder(); err != nil {
		errs = append(errs, err)
	}
	if c.Artifacts.Manifest != "" && c.Artifacts.URL != "" {
		errs = append(errs, ErrConflictingSources)
	}
	if c.Server.Debounce < 0 {
		errs = append(errs, fmt.Errorf("server.debounce must not be negative, got %s", c.Server.Debounce))
	}
	for _, ext := range c.Artifacts.Extensions {
		if strings.TrimSpace(ext) == "" || strings.HasPrefix(ext, ".") {
			errs = append(errs, fmt.Errorf("artifacts.extensions: %q must be a bare extension such as \"tsx\"", ext))
		}
	}
	if len(errs) > 0 {
		return false, []error{&InvalidConfigError{FieldErrors: errs}}
	}
	return true, nil
}

// Error implements the error interface for InvalidConfigError.
func (e *InvalidConfigError) Error() string {
	msgs := make([]string, 0, len(e.FieldErrors))
	for _, fe := range e.FieldErrors {
		msgs = append(msgs, fe.Error())
	}
	return fmt.Sprintf("invalid config: %s", strings.Join(msgs, "; "))
}

// Unwrap returns ErrInvalidConfig for errors.Is() compatibility.
func (e *InvalidConfigError) Unwrap() error { return ErrInvalidConfig }

// Error implements the error interface for InvalidColorSchemeError.
func (e *InvalidColorSchemeError) Error() string {
	return fmt.Sprintf("invalid color scheme %q (valid: auto, dark, light)", e.Value)
}

// Unwrap returns the sentinel error for errors.Is() compatibility.
func (e *InvalidColorSchemeError) Unwrap() error {
	return ErrInvalidColorScheme
}

// String returns the string representation of the ColorScheme.
func (cs ColorScheme) String() string { return string(cs) }

// IsValid returns whether the ColorScheme is one of the defined color schemes,
// and a list of validation errors if it is not.
func (cs ColorScheme) IsValid() (bool, []error) {
	switch cs {
	case ColorSchemeAuto, ColorSchemeDark, ColorSchemeLight:
		return true, nil
	default:
		return false, []error{&InvalidColorSchemeError{Value: cs}}
	}
}

// DefaultConfig returns the default configuration
func DefaultConfig() *Config {
	return &Config{
		Artifacts: ArtifactsConfig{
			Dir:        DefaultArtifactsDir,
			Extensions: []string{"tsx", "jsx"},
			Exclude:    []string{},
			IndexName:  "index",
		},
		Catalog: CatalogConfig{
			Order: string(catalog.OrderInsertion),
		},
		Server: ServerConfig{
			Address:  DefaultAddress,
			Watch:    true,
			Debounce: DefaultDebounce,
		},
		Notify: NotifyConfig{
			Subject: DefaultSubject,
		},
		UI: UIConfig{
			ColorScheme: ColorSchemeAuto,
		},
	}
}
