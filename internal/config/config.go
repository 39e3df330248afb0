package config

import (
	"fmt"
	"net"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

// Config holds the optional settings a share can be started with. Every field
// has a usable zero-file default, see Default.
type Config struct {
	// Port is the listen port. 0 selects the first free port from the
	// automatic port scan range.
	Port int `yaml:"port"`

	// Interface pre-selects the advertised address by interface name or IPv4
	// and skips the interactive prompt.
	Interface string `yaml:"interface"`

	// FollowSymlinks allows symlinks inside the share to point outside of it.
	FollowSymlinks *bool `yaml:"followSymlinks"`

	Thumbnails *bool `yaml:"thumbnails"`
	Readme     *bool `yaml:"readme"`

	// WebDAV mounts the shared directory read-only under /.quickshare/dav/.
	WebDAV bool `yaml:"webdav"`

	QR struct {
		Invert bool `yaml:"invert"`
	} `yaml:"qr"`

	Auth Auth `yaml:"auth"`
}

// Auth enables HTTP basic auth when both fields are set. Bcrypt is a hash as
// printed by `quickshare passwd`.
type Auth struct {
	Username string `yaml:"username"`
	Bcrypt   string `yaml:"bcrypt"`
}

func (a Auth) Enabled() bool {
	return a.Username != "" && a.Bcrypt != ""
}

// Default returns the configuration used when no file is given.
func Default() *Config {
	cfg := &Config{}
	applyDefaults(cfg)

	return cfg
}

// Load reads and validates a YAML config file.
func Load(path string) (*Config, error) {
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return nil, fmt.Errorf("config file does not exist: %s", path)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("error reading config file: %w", err)
	}

	cfg := &Config{}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("error parsing config file: %w", err)
	}

	if err := validate(cfg); err != nil {
		return nil, fmt.Errorf("config validation error: %w", err)
	}

	applyDefaults(cfg)

	return cfg, nil
}

func validate(cfg *Config) error {
	if cfg.Port < 0 || cfg.Port > 65535 {
		return fmt.Errorf("port out of range: %d", cfg.Port)
	}

	cfg.Interface = strings.TrimSpace(cfg.Interface)
	if ip := net.ParseIP(cfg.Interface); ip != nil && ip.To4() == nil {
		return fmt.Errorf("interface address must be IPv4: %s", cfg.Interface)
	}

	if (cfg.Auth.Username == "") != (cfg.Auth.Bcrypt == "") {
		return fmt.Errorf("auth requires both username and bcrypt")
	}

	if cfg.Auth.Bcrypt != "" && !strings.HasPrefix(cfg.Auth.Bcrypt, "$2") {
		return fmt.Errorf("auth.bcrypt is not a bcrypt hash")
	}

	return nil
}

func applyDefaults(cfg *Config) {
	if cfg.FollowSymlinks == nil {
		cfg.FollowSymlinks = boolPtr(true)
	}

	if cfg.Thumbnails == nil {
		cfg.Thumbnails = boolPtr(true)
	}

	if cfg.Readme == nil {
		cfg.Readme = boolPtr(true)
	}
}

func boolPtr(v bool) *bool {
	return &v
}
