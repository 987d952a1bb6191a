// # internal/config/config.go
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/BurntSushi/toml"
)

// ConfigurationError is the only fatal error class: a broken configuration
// aborts before parsing, everything else degrades to findings.
type ConfigurationError struct {
	Detail string
}

func (e *ConfigurationError) Error() string {
	return "configuration error: " + e.Detail
}

type Config struct {
	Root   string `toml:"root"`
	SrcDir string `toml:"src_dir"` // alias target for ~ and @; "" means the project root
	FailOn string `toml:"fail_on"` // critical | high | medium | never

	Exclude       Exclude       `toml:"exclude"`
	Entrypoints   Entrypoints   `toml:"entrypoints"`
	Scanner       Scanner       `toml:"scanner"`
	Audit         Audit         `toml:"audit"`
	Output        Output        `toml:"output"`
	History       History       `toml:"history"`
	Observability Observability `toml:"observability"`
	Watch         Watch         `toml:"watch"`
}

type Exclude struct {
	Dirs  []string `toml:"dirs"`
	Files []string `toml:"files"` // glob patterns
}

// Entrypoints lists the roots of the liveness traversal. Directory rules
// mark every unit underneath as an entry; file rules match by glob against
// the root-relative path.
type Entrypoints struct {
	Dirs  []string `toml:"dirs"`
	Files []string `toml:"files"`

	// set when the dirs came from the config file rather than the defaults;
	// configured dirs must exist, defaults are filtered silently.
	configured bool
}

type Scanner struct {
	Sanitizers []string `toml:"sanitizers"`
}

type Audit struct {
	Enabled           bool          `toml:"enabled"`
	Endpoint          string        `toml:"endpoint"`
	AllowPackages     []string      `toml:"allow_packages"`
	RequestsPerSecond float64       `toml:"requests_per_second"`
	Timeout           time.Duration `toml:"timeout"`
}

type Output struct {
	CSV string `toml:"csv"`
}

type History struct {
	Enabled bool   `toml:"enabled"`
	Path    string `toml:"path"`
}

type Observability struct {
	MetricsAddr  string `toml:"metrics_addr"`  // "" disables the metrics server
	OTLPEndpoint string `toml:"otlp_endpoint"` // "" disables trace export
}

type Watch struct {
	Debounce time.Duration `toml:"debounce"`
}

// Framework conventions: these directories auto-register their contents, so
// everything in them is an entry point.
var defaultEntryDirs = []string{"pages", "layouts", "plugins", "middleware", "composables"}

var defaultEntryFiles = []string{"app.vue", "nuxt.config.*"}

var defaultExcludeDirs = []string{"node_modules", ".nuxt", ".output", "dist", ".git"}

var defaultSanitizers = []string{"sanitizeHtml", "DOMPurify.sanitize", "$sanitize"}

var defaultAllowPackages = []string{"nuxt", "vue", "vue-router"}

// Load reads a TOML config and applies defaults. A missing path yields the
// pure default configuration.
func Load(path string) (*Config, error) {
	var cfg Config

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, &ConfigurationError{Detail: err.Error()}
		}
		if _, err := toml.Decode(string(data), &cfg); err != nil {
			return nil, &ConfigurationError{Detail: fmt.Sprintf("parse %s: %v", path, err)}
		}
	}

	if cfg.Root == "" {
		cfg.Root = "."
	}
	if cfg.FailOn == "" {
		cfg.FailOn = "high"
	}
	cfg.Entrypoints.configured = len(cfg.Entrypoints.Dirs) > 0
	if !cfg.Entrypoints.configured {
		cfg.Entrypoints.Dirs = append([]string(nil), defaultEntryDirs...)
	}
	if len(cfg.Entrypoints.Files) == 0 {
		cfg.Entrypoints.Files = append([]string(nil), defaultEntryFiles...)
	}
	if len(cfg.Exclude.Dirs) == 0 {
		cfg.Exclude.Dirs = append([]string(nil), defaultExcludeDirs...)
	}
	if len(cfg.Scanner.Sanitizers) == 0 {
		cfg.Scanner.Sanitizers = append([]string(nil), defaultSanitizers...)
	}
	if len(cfg.Audit.AllowPackages) == 0 {
		cfg.Audit.AllowPackages = append([]string(nil), defaultAllowPackages...)
	}
	if cfg.Audit.RequestsPerSecond == 0 {
		cfg.Audit.RequestsPerSecond = 2
	}
	if cfg.Audit.Timeout == 0 {
		cfg.Audit.Timeout = 10 * time.Second
	}
	if cfg.Watch.Debounce == 0 {
		cfg.Watch.Debounce = 500 * time.Millisecond
	}

	return &cfg, nil
}

// Validate checks the fatal cases against the project tree. Explicitly
// configured entry directories must exist; the built-in defaults are pruned
// to whatever the project actually has.
func (c *Config) Validate() error {
	switch c.FailOn {
	case "critical", "high", "medium", "never":
	default:
		return &ConfigurationError{Detail: fmt.Sprintf("fail_on must be critical, high, medium or never, got %q", c.FailOn)}
	}

	info, err := os.Stat(c.Root)
	if err != nil || !info.IsDir() {
		return &ConfigurationError{Detail: fmt.Sprintf("project root %q is not a directory", c.Root)}
	}

	var existing []string
	for _, dir := range c.Entrypoints.Dirs {
		full := filepath.Join(c.Root, c.SrcDir, dir)
		info, err := os.Stat(full)
		switch {
		case err == nil && info.IsDir():
			existing = append(existing, dir)
		case c.Entrypoints.configured:
			return &ConfigurationError{Detail: fmt.Sprintf("entrypoint directory %q does not exist", dir)}
		}
	}
	c.Entrypoints.Dirs = existing

	if c.Audit.Enabled && c.Audit.Endpoint == "" {
		return &ConfigurationError{Detail: "audit.enabled requires audit.endpoint"}
	}
	if c.History.Enabled && c.History.Path == "" {
		return &ConfigurationError{Detail: "history.enabled requires history.path"}
	}

	return nil
}
