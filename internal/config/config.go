package config

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"
	"gopkg.in/yaml.v3"

	"github.com/stuttgart-things/repofleet/internal/manifest"
)

// EnvPath names the environment variable overriding the default config path
const EnvPath = "REPOFLEET_CONFIG"

// Config is the user configuration: which manifests to load and how
// repository URLs are formed.
type Config struct {
	Manifests []manifest.Ref   `json:"manifests" yaml:"manifests" toml:"manifests"`
	Hosting   manifest.Hosting `json:"hosting,omitempty" yaml:"hosting,omitempty" toml:"hosting"`

	// Path is the file the config was read from, empty if none was found
	Path string `json:"-" yaml:"-" toml:"-"`
}

// DefaultPath returns $REPOFLEET_CONFIG, or ~/.config/repofleet/config.json
func DefaultPath() string {
	if p := os.Getenv(EnvPath); p != "" {
		return p
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(".config", "repofleet", "config.json")
	}
	return filepath.Join(home, ".config", "repofleet", "config.json")
}

// Load reads the config at path. When required is false a missing file
// gives an empty Config instead of an error.
func Load(path string, required bool) (*Config, error) {
	path, err := ExpandTilde(path)
	if err != nil {
		return nil, err
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) && !required {
			return &Config{}, nil
		}
		if errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("%q does not exist", path)
		}
		return nil, fmt.Errorf("reading config file: %w", err)
	}

	cfg, err := Parse(data, filepath.Ext(path))
	if err != nil {
		return nil, fmt.Errorf("config %q: %w", path, err)
	}
	cfg.Path = path

	base := filepath.Dir(path)
	for i := range cfg.Manifests {
		p, err := ExpandTilde(cfg.Manifests[i].Path)
		if err != nil {
			return nil, err
		}
		if !filepath.IsAbs(p) {
			p = filepath.Join(base, p)
		}
		cfg.Manifests[i].Path = p
	}
	return cfg, nil
}

// Parse decodes and validates config data. The format is picked by file
// extension: .yaml/.yml, .toml, anything else is JSON.
func Parse(data []byte, ext string) (*Config, error) {
	var cfg Config

	switch strings.ToLower(ext) {
	case ".yaml", ".yml":
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return nil, fmt.Errorf("parsing YAML: %w", err)
		}
	case ".toml":
		if _, err := toml.Decode(string(data), &cfg); err != nil {
			return nil, fmt.Errorf("parsing TOML: %w", err)
		}
	default:
		dec := json.NewDecoder(bytes.NewReader(data))
		dec.DisallowUnknownFields()
		if err := dec.Decode(&cfg); err != nil {
			return nil, fmt.Errorf("parsing JSON: %w", err)
		}
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks every manifest entry names a manifest and a path, and that
// names are unique.
func (c *Config) Validate() error {
	seen := make(map[string]bool, len(c.Manifests))
	for i, m := range c.Manifests {
		if m.Name == "" {
			return fmt.Errorf("manifests[%d]: missing name", i)
		}
		if m.Path == "" {
			return fmt.Errorf("manifests[%d] (%s): missing path", i, m.Name)
		}
		if seen[m.Name] {
			return fmt.Errorf("manifests[%d]: duplicate manifest name %q", i, m.Name)
		}
		seen[m.Name] = true
	}
	return nil
}

// Enabled returns the manifests that are not disabled
func (c *Config) Enabled() []manifest.Ref {
	var out []manifest.Ref
	for _, m := range c.Manifests {
		if !m.Disabled {
			out = append(out, m)
		}
	}
	return out
}

// ExpandTilde replaces a leading "~" or "~/" with the home directory
func ExpandTilde(path string) (string, error) {
	if path != "~" && !strings.HasPrefix(path, "~/") {
		return path, nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("expanding %q: %w", path, err)
	}
	return filepath.Join(home, strings.TrimPrefix(path, "~")), nil
}
