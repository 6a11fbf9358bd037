package config

import (
	"fmt"
	"os"
	"time"

	syncerrors "github.com/systmms/accountsync/internal/errors"
	"github.com/systmms/accountsync/internal/logging"
	"github.com/systmms/accountsync/internal/reconcile"
	"gopkg.in/yaml.v3"
)

// Config holds the runtime configuration
type Config struct {
	Path           string
	Logger         *logging.Logger
	NonInteractive bool
	Definition     *Definition
}

// Definition represents the accountsync.yaml structure
type Definition struct {
	Version    int              `yaml:"version"`
	Vault      VaultConfig      `yaml:"vault"`
	Search     SearchConfig     `yaml:"search,omitempty"`
	Safes      SafesConfig      `yaml:"safes,omitempty"`
	Onboarding OnboardingConfig `yaml:"onboarding,omitempty"`
	Reports    ReportsConfig    `yaml:"reports,omitempty"`
	Metrics    MetricsConfig    `yaml:"metrics,omitempty"`
}

// VaultConfig holds the connection settings for the vault REST API
type VaultConfig struct {
	URL               string `yaml:"url"`
	AuthMethod        string `yaml:"authMethod,omitempty"` // cyberark, ldap or radius
	Username          string `yaml:"username,omitempty"`
	ConcurrentSession bool   `yaml:"concurrentSession,omitempty"`
	TLSSkipVerify     bool   `yaml:"tlsSkipVerify,omitempty"`
	CACert            string `yaml:"caCert,omitempty"`
	TimeoutMs         int    `yaml:"timeout_ms,omitempty"` // Timeout in milliseconds (default: 30000)
}

// SearchConfig selects how existing accounts are looked up
type SearchConfig struct {
	Mode       string `yaml:"mode,omitempty"` // attribute, wide-name or narrow
	IgnoreName bool   `yaml:"ignoreName,omitempty"`
	Bypass     string `yaml:"bypass,omitempty"` // off, assume-missing or assume-exists
}

// SafesConfig controls safe existence checks and creation
type SafesConfig struct {
	Create                bool   `yaml:"create,omitempty"`
	Template              string `yaml:"template,omitempty"`
	ManagingCPM           string `yaml:"managingCPM,omitempty"`
	NumberOfDaysRetention int    `yaml:"numberOfDaysRetention,omitempty"`
	BypassCheck           bool   `yaml:"bypassCheck,omitempty"`
}

// OnboardingConfig holds the per-run behavior switches
type OnboardingConfig struct {
	AllowDuplicates bool `yaml:"allowDuplicates,omitempty"`
	SkipDuplicates  bool `yaml:"skipDuplicates,omitempty"`
	CreateOnUpdate  bool `yaml:"createOnUpdate,omitempty"`
}

// ReportsConfig holds the good/bad report file paths
type ReportsConfig struct {
	Good string `yaml:"good,omitempty"`
	Bad  string `yaml:"bad,omitempty"`
}

// MetricsConfig enables the Prometheus counters and their exposition
// endpoint
type MetricsConfig struct {
	Enabled bool `yaml:"enabled,omitempty"`
	Port    int  `yaml:"port,omitempty"` // Exposition port (default: 9090)
}

// ListenPort returns the metrics exposition port
func (m MetricsConfig) ListenPort() int {
	if m.Port <= 0 {
		return 9090
	}
	return m.Port
}

// Load reads, parses and validates the accountsync.yaml file
func (c *Config) Load() error {
	data, err := os.ReadFile(c.Path)
	if err != nil {
		if os.IsNotExist(err) {
			return syncerrors.ConfigError{
				Field:      "path",
				Value:      c.Path,
				Message:    "configuration file not found",
				Suggestion: "Run 'accountsync init' to create a new configuration file",
			}
		}
		return syncerrors.UserError{
			Message:    "Failed to read configuration file",
			Details:    err.Error(),
			Suggestion: "Check file permissions and path",
			Err:        err,
		}
	}

	if err := validateDocument(data); err != nil {
		return err
	}

	var def Definition
	if err := yaml.Unmarshal(data, &def); err != nil {
		return syncerrors.ConfigError{
			Message:    "invalid YAML syntax in configuration file",
			Suggestion: "Check for indentation errors, missing quotes, or invalid characters. Use a YAML validator",
		}
	}

	if def.Version != 0 {
		return syncerrors.ConfigError{
			Field:      "version",
			Value:      def.Version,
			Message:    "unsupported configuration version",
			Suggestion: "Set 'version: 0' at the top of your accountsync.yaml file",
		}
	}

	if def.Vault.URL == "" {
		return syncerrors.ConfigError{
			Field:      "vault.url",
			Message:    "vault URL is required",
			Suggestion: "Set 'vault.url' to the base URL of your vault, e.g. https://vault.example.com",
		}
	}

	c.Definition = &def
	return nil
}

// VaultTimeout returns the per-call HTTP timeout
func (v VaultConfig) VaultTimeout() time.Duration {
	if v.TimeoutMs <= 0 {
		return 30 * time.Second
	}
	return time.Duration(v.TimeoutMs) * time.Millisecond
}

// LookupOptions converts the search section into lookup options
func (d *Definition) LookupOptions() (reconcile.LookupOptions, error) {
	opts := reconcile.LookupOptions{IgnoreName: d.Search.IgnoreName}

	switch d.Search.Mode {
	case "", "attribute":
		opts.Mode = reconcile.SearchModeAttribute
	case "wide-name":
		opts.Mode = reconcile.SearchModeWideName
	case "narrow":
		opts.Mode = reconcile.SearchModeNarrow
	default:
		return opts, syncerrors.ConfigError{
			Field:      "search.mode",
			Value:      d.Search.Mode,
			Message:    "unknown search mode",
			Suggestion: "Use one of: attribute, wide-name, narrow",
		}
	}

	switch d.Search.Bypass {
	case "", "off":
		opts.Bypass = reconcile.BypassOff
	case "assume-missing":
		opts.Bypass = reconcile.BypassAssumeMissing
	case "assume-exists":
		opts.Bypass = reconcile.BypassAssumeExists
	default:
		return opts, syncerrors.ConfigError{
			Field:      "search.bypass",
			Value:      d.Search.Bypass,
			Message:    "unknown bypass setting",
			Suggestion: "Use one of: off, assume-missing, assume-exists",
		}
	}

	return opts, nil
}

// SafeOptions converts the safes section into safe manager options
func (d *Definition) SafeOptions() reconcile.SafeOptions {
	return reconcile.SafeOptions{
		Create:                d.Safes.Create,
		Template:              d.Safes.Template,
		ManagingCPM:           d.Safes.ManagingCPM,
		NumberOfDaysRetention: d.Safes.NumberOfDaysRetention,
		BypassCheck:           d.Safes.BypassCheck,
	}
}

// ReportPaths returns the good/bad report paths, defaulting next to the
// input file when unset.
func (d *Definition) ReportPaths(inputPath string) (good, bad string) {
	good = d.Reports.Good
	if good == "" {
		good = inputPath + ".good"
	}
	bad = d.Reports.Bad
	if bad == "" {
		bad = inputPath + ".bad"
	}
	return good, bad
}

// Describe returns a short human-readable summary for doctor output
func (d *Definition) Describe() string {
	mode := d.Search.Mode
	if mode == "" {
		mode = "attribute"
	}
	return fmt.Sprintf("vault=%s auth=%s search=%s safeCreation=%t",
		d.Vault.URL, d.AuthMethod(), mode, d.Safes.Create)
}

// AuthMethod returns the configured logon method, defaulting to cyberark
func (d *Definition) AuthMethod() string {
	if d.Vault.AuthMethod == "" {
		return "cyberark"
	}
	return d.Vault.AuthMethod
}
