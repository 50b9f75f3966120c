// Package config implements .hanlift.yaml configuration file support.
//
// The file lives in the project root. Every setting has a default, so a
// project without the file works out of the box; HANLIFT_* environment
// variables override the file.
//
//	output_dir: scripts/files
//	source_locale: zh-CN
//	target_locale: en-US
//	namespace:
//	  marker: pages
//	  fallback: pages
//	rewrite:
//	  func: t
//	  hook: useTranslation
//	  module: react-i18next
//	translate:
//	  qps: 1
//	  timeout: 15s
//	  max_retries: 2
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strconv"
	"strings"
	"time"

	"golang.org/x/text/language"
	"gopkg.in/yaml.v3"
)

// FileName is the default config file name.
const FileName = ".hanlift.yaml"

// ---------------------------------------------------------------------------
// YAML schema
// ---------------------------------------------------------------------------

// Config is the top-level .hanlift.yaml structure.
type Config struct {
	// OutputDir holds the catalogs, the lock file, the version history and
	// exports. Relative paths are resolved against the project root.
	OutputDir string `yaml:"output_dir"`
	// SourceLocale is the locale of the text found in the sources.
	SourceLocale string `yaml:"source_locale"`
	// TargetLocale is the locale translations are produced for.
	TargetLocale string `yaml:"target_locale"`
	// Exclude lists extra directories, relative to the root, never scanned.
	Exclude []string `yaml:"exclude,omitempty"`

	Namespace Namespace `yaml:"namespace"`
	Rewrite   Rewrite   `yaml:"rewrite"`
	Translate Translate `yaml:"translate"`
	Log       Log       `yaml:"log"`

	root string `yaml:"-"`
}

// Namespace controls how catalog namespaces derive from file paths.
type Namespace struct {
	// Marker is the directory name the namespace starts at.
	Marker string `yaml:"marker"`
	// Fallback is the namespace of files outside any Marker directory.
	Fallback string `yaml:"fallback"`
}

// Rewrite names the accessor the rewritten sources call.
type Rewrite struct {
	Func   string `yaml:"func"`
	Hook   string `yaml:"hook"`
	Module string `yaml:"module"`
}

// Translate configures the machine translation service.
type Translate struct {
	Endpoint   string        `yaml:"endpoint"`
	QPS        float64       `yaml:"qps"`
	Timeout    time.Duration `yaml:"timeout"`
	MaxRetries int           `yaml:"max_retries"`
	Proxy      string        `yaml:"proxy,omitempty"`
	// From and To override the service language codes derived from the
	// locales.
	From string `yaml:"from,omitempty"`
	To   string `yaml:"to,omitempty"`
}

// Log configures logging.
type Log struct {
	// Level is one of debug, info, warn, error.
	Level string `yaml:"level"`
	// Format is console or json.
	Format string `yaml:"format"`
}

// Default returns the configuration used when no file exists.
func Default() *Config {
	return &Config{
		OutputDir:    "scripts/files",
		SourceLocale: "zh-CN",
		TargetLocale: "en-US",
		Namespace:    Namespace{Marker: "pages", Fallback: "pages"},
		Rewrite:      Rewrite{Func: "t", Hook: "useTranslation", Module: "react-i18next"},
		Translate: Translate{
			Endpoint:   "https://fanyi-api.baidu.com/api/trans/vip/translate",
			QPS:        1,
			Timeout:    15 * time.Second,
			MaxRetries: 2,
		},
		Log:  Log{Level: "info", Format: "console"},
		root: ".",
	}
}

// ---------------------------------------------------------------------------
// Loading
// ---------------------------------------------------------------------------

// Load reads the configuration of the project at rootDir. path names an
// explicit config file; when empty, rootDir/.hanlift.yaml is used if it
// exists. Environment overrides are applied and the result is validated.
func Load(rootDir, path string) (*Config, error) {
	cfg := Default()
	cfg.root = rootDir

	explicit := path != ""
	if !explicit {
		path = filepath.Join(rootDir, FileName)
	}

	data, err := os.ReadFile(path)
	switch {
	case err == nil:
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parsing %s: %w", path, err)
		}
	case os.IsNotExist(err) && !explicit:
		// Defaults only
	default:
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}

	if err := cfg.applyEnv(); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return cfg, nil
}

// applyEnv overrides settings from HANLIFT_* environment variables.
func (c *Config) applyEnv() error {
	for env, dst := range map[string]*string{
		"HANLIFT_OUTPUT_DIR":    &c.OutputDir,
		"HANLIFT_SOURCE_LOCALE": &c.SourceLocale,
		"HANLIFT_TARGET_LOCALE": &c.TargetLocale,
		"HANLIFT_ENDPOINT":      &c.Translate.Endpoint,
		"HANLIFT_LOG_LEVEL":     &c.Log.Level,
	} {
		if v, ok := os.LookupEnv(env); ok && v != "" {
			*dst = v
		}
	}

	if v := os.Getenv("HANLIFT_QPS"); v != "" {
		qps, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return fmt.Errorf("HANLIFT_QPS: %w", err)
		}
		c.Translate.QPS = qps
	}
	return nil
}

// ---------------------------------------------------------------------------
// Validation
// ---------------------------------------------------------------------------

var identRe = regexp.MustCompile(`^[A-Za-z_$][\w$]*$`)

// Validate checks the settings for consistency.
func (c *Config) Validate() error {
	var errs []error

	if strings.TrimSpace(c.OutputDir) == "" {
		errs = append(errs, errors.New("output_dir is empty"))
	}

	src, err := language.Parse(c.SourceLocale)
	if err != nil {
		errs = append(errs, fmt.Errorf("source_locale %q: %w", c.SourceLocale, err))
	}
	dst, err2 := language.Parse(c.TargetLocale)
	if err2 != nil {
		errs = append(errs, fmt.Errorf("target_locale %q: %w", c.TargetLocale, err2))
	}
	if err == nil && err2 == nil && src == dst {
		errs = append(errs, fmt.Errorf("source and target locale are both %s", src))
	}

	if c.Namespace.Marker == "" || c.Namespace.Fallback == "" {
		errs = append(errs, errors.New("namespace marker and fallback must be set"))
	}

	if !identRe.MatchString(c.Rewrite.Func) {
		errs = append(errs, fmt.Errorf("rewrite.func %q is not an identifier", c.Rewrite.Func))
	}
	if !identRe.MatchString(c.Rewrite.Hook) {
		errs = append(errs, fmt.Errorf("rewrite.hook %q is not an identifier", c.Rewrite.Hook))
	}
	if c.Rewrite.Module == "" {
		errs = append(errs, errors.New("rewrite.module is empty"))
	}

	if c.Translate.QPS < 0 {
		errs = append(errs, fmt.Errorf("translate.qps %v is negative", c.Translate.QPS))
	}
	if c.Translate.MaxRetries < 0 {
		errs = append(errs, fmt.Errorf("translate.max_retries %d is negative", c.Translate.MaxRetries))
	}
	if c.Translate.Timeout < 0 {
		errs = append(errs, fmt.Errorf("translate.timeout %v is negative", c.Translate.Timeout))
	}

	switch c.Log.Level {
	case "debug", "info", "warn", "error":
	default:
		errs = append(errs, fmt.Errorf("log.level %q (valid: debug, info, warn, error)", c.Log.Level))
	}
	switch c.Log.Format {
	case "console", "json":
	default:
		errs = append(errs, fmt.Errorf("log.format %q (valid: console, json)", c.Log.Format))
	}

	return errors.Join(errs...)
}

// ---------------------------------------------------------------------------
// Paths
// ---------------------------------------------------------------------------

// Root returns the project root directory.
func (c *Config) Root() string {
	if c.root == "" {
		return "."
	}
	return c.root
}

// OutputPath returns the output directory resolved against the root.
func (c *Config) OutputPath() string {
	if filepath.IsAbs(c.OutputDir) {
		return c.OutputDir
	}
	return filepath.Join(c.Root(), c.OutputDir)
}

// CatalogPath returns the catalog file of locale.
func (c *Config) CatalogPath(locale string) string {
	return filepath.Join(c.OutputPath(), locale+".json")
}

// ExcludePaths returns the directories never scanned: the output directory
// and every configured exclude, resolved against the root.
func (c *Config) ExcludePaths() []string {
	out := []string{c.OutputPath()}
	for _, e := range c.Exclude {
		if filepath.IsAbs(e) {
			out = append(out, e)
		} else {
			out = append(out, filepath.Join(c.Root(), e))
		}
	}
	return out
}
