// SPDX-FileCopyrightText: Copyright 2026 Stacklok, Inc.
// SPDX-License-Identifier: Apache-2.0

package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/adrg/xdg"
	"github.com/go-git/go-billy/v5"
	"github.com/go-git/go-billy/v5/osfs"
	"github.com/go-git/go-billy/v5/util"
	"gopkg.in/yaml.v3"

	"github.com/KDE/krita-sub040/env"
	"github.com/KDE/krita-sub040/logging"
)

// ErrInvalid is returned when a configuration file fails schema validation.
var ErrInvalid = errors.New("invalid configuration")

// FileName is the configuration file looked up under the XDG config home.
const FileName = "bundlectl.yaml"

// Environment variable names, without env.Prefix.
const (
	EnvInstallRoot = "INSTALL_ROOT"
	EnvBundleDir   = "DIR"
	EnvTagDir      = "TAG_DIR"
	EnvOCIStore    = "OCI_STORE"
	EnvLogFormat   = "LOG_FORMAT"
	EnvLogLevel    = "LOG_LEVEL"
)

// Config is the resolved bundlectl configuration.
type Config struct {
	// InstallRoot is where installed bundles are extracted, one directory
	// per resource category.
	InstallRoot string `yaml:"install_root"`
	// BundleDir holds the bundle archives managed by the registry.
	BundleDir string `yaml:"bundle_dir"`
	// TagDir holds the per-category tag assignment files.
	TagDir string `yaml:"tag_dir"`
	// OCIStore is the root of the local OCI image layout.
	OCIStore string         `yaml:"oci_store"`
	Log      LogConfig      `yaml:"log"`
	Registry RegistryConfig `yaml:"registry"`
}

// LogConfig selects the logger format and level.
type LogConfig struct {
	Format string `yaml:"format"`
	Level  string `yaml:"level"`
}

// RegistryConfig configures access to remote OCI registries.
type RegistryConfig struct {
	PlainHTTP bool `yaml:"plain_http"`
}

// Root returns the application directory within the given data home.
func Root(dataHome string) string {
	return filepath.Join(dataHome, "krita")
}

// Defaults returns the configuration rooted at dataHome.
func Defaults(dataHome string) *Config {
	root := Root(dataHome)
	return &Config{
		InstallRoot: filepath.Join(root, "resources"),
		BundleDir:   filepath.Join(root, "bundles"),
		TagDir:      filepath.Join(root, "tags"),
		OCIStore:    filepath.Join(root, "oci"),
		Log:         LogConfig{Format: "json", Level: "info"},
	}
}

// DefaultFile returns the configuration file path under the XDG config home.
func DefaultFile() string {
	return filepath.Join(xdg.ConfigHome, "krita", FileName)
}

type options struct {
	fs       billy.Filesystem
	env      env.Reader
	dataHome string
	file     string
	required bool
}

// Option configures Load.
type Option func(*options)

// WithFilesystem reads the configuration file from fs.
func WithFilesystem(fs billy.Filesystem) Option {
	return func(o *options) {
		o.fs = fs
	}
}

// WithEnv overrides the environment the loader consults.
func WithEnv(r env.Reader) Option {
	return func(o *options) {
		o.env = r
	}
}

// WithDataHome roots the defaults at dir instead of the XDG data home.
func WithDataHome(dir string) Option {
	return func(o *options) {
		o.dataHome = dir
	}
}

// WithFile loads path, which must exist. Without it the loader reads
// DefaultFile if present.
func WithFile(path string) Option {
	return func(o *options) {
		if path != "" {
			o.file = path
			o.required = true
		}
	}
}

// Load resolves the configuration: defaults, then the configuration file,
// then environment overrides.
func Load(opts ...Option) (*Config, error) {
	o := options{
		fs:       osfs.New("/"),
		env:      &env.OSReader{},
		dataHome: xdg.DataHome,
		file:     DefaultFile(),
	}
	for _, opt := range opts {
		opt(&o)
	}

	cfg := Defaults(o.dataHome)

	data, err := util.ReadFile(o.fs, o.file)
	switch {
	case err == nil:
		if err := cfg.decode(data); err != nil {
			return nil, fmt.Errorf("loading %s: %w", o.file, err)
		}
	case errors.Is(err, os.ErrNotExist) && !o.required:
	default:
		return nil, fmt.Errorf("reading config %s: %w", o.file, err)
	}

	cfg.applyEnv(o.env)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) decode(data []byte) error {
	var doc map[string]any
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalid, err)
	}
	if doc == nil {
		return nil
	}
	if err := validateDocument(doc); err != nil {
		return err
	}
	if err := yaml.Unmarshal(data, c); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalid, err)
	}
	return nil
}

func (c *Config) applyEnv(r env.Reader) {
	overrides := []struct {
		name string
		dst  *string
	}{
		{EnvInstallRoot, &c.InstallRoot},
		{EnvBundleDir, &c.BundleDir},
		{EnvTagDir, &c.TagDir},
		{EnvOCIStore, &c.OCIStore},
		{EnvLogFormat, &c.Log.Format},
		{EnvLogLevel, &c.Log.Level},
	}
	for _, ov := range overrides {
		if v, ok := env.Get(r, ov.name); ok {
			*ov.dst = v
		}
	}
}

// Validate checks values that environment overrides may have changed.
func (c *Config) Validate() error {
	if _, err := logging.ParseFormat(c.Log.Format); err != nil {
		return fmt.Errorf("%w: log.format: %w", ErrInvalid, err)
	}
	if _, err := logging.ParseLevel(c.Log.Level); err != nil {
		return fmt.Errorf("%w: log.level: %w", ErrInvalid, err)
	}
	for key, p := range map[string]string{
		"install_root": c.InstallRoot,
		"bundle_dir":   c.BundleDir,
		"tag_dir":      c.TagDir,
		"oci_store":    c.OCIStore,
	} {
		if p == "" {
			return fmt.Errorf("%w: %s is empty", ErrInvalid, key)
		}
	}
	return nil
}

// LoggingOptions maps the log section onto logging options.
func (c *Config) LoggingOptions() ([]logging.Option, error) {
	format, err := logging.ParseFormat(c.Log.Format)
	if err != nil {
		return nil, err
	}
	level, err := logging.ParseLevel(c.Log.Level)
	if err != nil {
		return nil, err
	}
	return []logging.Option{logging.WithFormat(format), logging.WithLevel(level)}, nil
}
