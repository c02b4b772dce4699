// Package config loads the .pest2phpunit.yaml configuration file.
package config

import (
	"errors"
	"fmt"
	"os"
	"regexp"
	"time"

	charmlog "github.com/charmbracelet/log"
	"gopkg.in/yaml.v3"

	"github.com/unbound-force/pest2phpunit/internal/convert"
	"github.com/unbound-force/pest2phpunit/internal/unwind"
)

// FileName is the configuration file looked up in the working
// directory.
const FileName = ".pest2phpunit.yaml"

// EnvVar names an explicit configuration file.
const EnvVar = "PEST2PHPUNIT_CONFIG"

// Config represents the .pest2phpunit.yaml configuration file.
type Config struct {
	// EntryPoint is the expectation function. Default "expect".
	EntryPoint string `yaml:"entry_point"`

	// BaseClass is the fully qualified class generated tests extend
	// when a file does not choose one.
	BaseClass string `yaml:"base_class"`

	// Namespace is declared in files that have none.
	Namespace string `yaml:"namespace"`

	// MethodStyle is "snake" or "camel".
	MethodStyle string `yaml:"method_style"`

	FinalClasses bool `yaml:"final_classes"`

	Exceptions ExceptionsConfig `yaml:"exceptions"`
	Scan       ScanConfig       `yaml:"scan"`
	Ledger     LedgerConfig     `yaml:"ledger"`
}

// ExceptionsConfig tunes how toThrow() strings are classified.
type ExceptionsConfig struct {
	// ClassPattern is the regular expression a class name must match.
	ClassPattern string `yaml:"class_pattern"`

	// ClassSuffixes mark a bare string as a class name.
	ClassSuffixes []string `yaml:"class_suffixes"`
}

// ScanConfig controls test file discovery.
type ScanConfig struct {
	// Include restricts the scan to matching paths when non-empty.
	Include []string `yaml:"include"`

	// Exclude skips matching paths.
	Exclude []string `yaml:"exclude"`

	// Timeout bounds the directory walk. Zero means no limit.
	Timeout time.Duration `yaml:"timeout"`
}

// LedgerConfig locates the conversion ledger.
type LedgerConfig struct {
	// Path is the SQLite database file, relative to the working
	// directory.
	Path string `yaml:"path"`
}

// DefaultConfig returns the configuration used when no file exists.
func DefaultConfig() *Config {
	return &Config{
		EntryPoint:  "expect",
		BaseClass:   convert.DefaultBaseClass,
		MethodStyle: string(convert.SnakeCase),
		Exceptions: ExceptionsConfig{
			ClassPattern:  unwind.DefaultClassPattern,
			ClassSuffixes: append([]string(nil), unwind.DefaultClassSuffixes...),
		},
		Scan: ScanConfig{
			Exclude: []string{"vendor/**", "node_modules/**", "Pest.php"},
			Timeout: 30 * time.Second,
		},
		Ledger: LedgerConfig{Path: ".pest2phpunit.db"},
	}
}

// Load resolves and loads the config file with priority: flagPath >
// PEST2PHPUNIT_CONFIG env > .pest2phpunit.yaml in cwd. Keys missing
// from the file keep their defaults. A missing default file yields
// DefaultConfig(); a missing explicit file is an error.
func Load(flagPath string) (*Config, error) {
	path := flagPath
	explicit := true

	if path == "" {
		path = os.Getenv(EnvVar)
	}

	if path == "" {
		path = FileName
		explicit = false
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) && !explicit {
			return DefaultConfig(), nil
		}
		return nil, fmt.Errorf("reading config: %w", err)
	}

	cfg := DefaultConfig()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing config %s: %w", path, err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config %s: %w", path, err)
	}
	return cfg, nil
}

var identifier = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)

// Validate checks values that would otherwise fail later in a run.
func (c *Config) Validate() error {
	var errs []error
	if !identifier.MatchString(c.EntryPoint) {
		errs = append(errs, fmt.Errorf("entry_point %q is not a PHP function name", c.EntryPoint))
	}
	if _, err := convert.ParseMethodStyle(c.MethodStyle); err != nil {
		errs = append(errs, fmt.Errorf("method_style: %w", err))
	}
	if _, err := unwind.NewClassNamePolicy(c.Exceptions.ClassPattern, c.Exceptions.ClassSuffixes); err != nil {
		errs = append(errs, fmt.Errorf("exceptions.class_pattern: %w", err))
	}
	if c.Scan.Timeout < 0 {
		errs = append(errs, fmt.Errorf("scan.timeout must not be negative, got %s", c.Scan.Timeout))
	}
	return errors.Join(errs...)
}

// ConvertOptions builds the converter options this configuration
// describes.
func (c *Config) ConvertOptions(logger *charmlog.Logger) (convert.Options, error) {
	style, err := convert.ParseMethodStyle(c.MethodStyle)
	if err != nil {
		return convert.Options{}, err
	}
	policy, err := unwind.NewClassNamePolicy(c.Exceptions.ClassPattern, c.Exceptions.ClassSuffixes)
	if err != nil {
		return convert.Options{}, err
	}
	return convert.Options{
		EntryPoint:  c.EntryPoint,
		BaseClass:   c.BaseClass,
		Namespace:   c.Namespace,
		MethodStyle: style,
		Final:       c.FinalClasses,
		ClassNames:  policy,
		Logger:      logger,
	}, nil
}
