// Package config loads the optional .dephellp.toml file at a repository root.
//
// Example:
//
//	ignore = ["left-pad", "@internal/legacy"]
//	report_overrides = true
//	parallel = true
//
//	[remediation]
//	package_manager = "pnpm"
//	install = false
//
// Every key is optional. Command-line flags take precedence over the file.
package config

import (
	"os"
	"path/filepath"
	"slices"
	"strings"

	"github.com/BurntSushi/toml"

	"github.com/NullVoxPopuli/dep-hellp/pkg/errors"
)

// FileName is the configuration file looked up at the repository root.
const FileName = ".dephellp.toml"

// Remediation configures the post-audit fix-up flow.
type Remediation struct {
	// PackageManager preselects the tool written to packageManager when
	// the root manifest has none ("npm", "pnpm", "yarn" or "bun").
	PackageManager string `toml:"package_manager"`

	// Install controls whether an install is offered. Nil means yes.
	Install *bool `toml:"install"`
}

// Config is the decoded configuration file.
type Config struct {
	Ignore          []string    `toml:"ignore"`
	ReportOverrides bool        `toml:"report_overrides"`
	Parallel        bool        `toml:"parallel"`
	Remediation     Remediation `toml:"remediation"`

	// Path is where the configuration was loaded from; empty for defaults.
	Path string `toml:"-"`

	// Unknown lists keys present in the file that are not recognized.
	Unknown []string `toml:"-"`
}

// OfferInstall reports whether remediation may offer an install.
func (c *Config) OfferInstall() bool {
	return c.Remediation.Install == nil || *c.Remediation.Install
}

var packageManagers = []string{"npm", "pnpm", "yarn", "bun"}

// Validate checks field values.
func (c *Config) Validate() error {
	if pm := c.Remediation.PackageManager; pm != "" && !slices.Contains(packageManagers, pm) {
		return errors.New(errors.ErrCodeInvalidConfig, "%s: remediation.package_manager must be one of %s, got %q",
			c.source(), strings.Join(packageManagers, ", "), pm)
	}
	for _, name := range c.Ignore {
		if err := errors.ValidatePackageName(name); err != nil {
			return errors.Wrap(errors.ErrCodeInvalidConfig, err, "%s: ignore", c.source())
		}
	}
	return nil
}

func (c *Config) source() string {
	if c.Path == "" {
		return FileName
	}
	return c.Path
}

// Load reads FileName from dir. A missing file yields the zero Config.
func Load(dir string) (*Config, error) {
	path := filepath.Join(dir, FileName)
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return &Config{}, nil
	}
	return LoadFile(path)
}

// LoadFile reads the configuration at path.
func LoadFile(path string) (*Config, error) {
	var cfg Config
	md, err := toml.DecodeFile(path, &cfg)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, errors.Wrap(errors.ErrCodeFileNotFound, err, "read %s", path)
		}
		return nil, errors.Wrap(errors.ErrCodeInvalidConfig, err, "parse %s", path)
	}
	cfg.Path = path
	for _, key := range md.Undecoded() {
		cfg.Unknown = append(cfg.Unknown, key.String())
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}
