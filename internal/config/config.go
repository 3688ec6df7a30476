// Package config handles parsing and writing of the proxflix option file.
// The file is plain "key=value" lines; a missing file means all defaults
// apply, and keys this version does not understand are preserved verbatim
// so older and newer builds can share one file.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/spf13/afero"

	"github.com/BonFireWatch/proxflix/internal/util"
)

// Known option keys.
const (
	KeyDNSServer      = "dns-server"
	KeyManageIptables = "manage-iptables"
	KeyIPv6NAT        = "ipv6-nat"
)

// Built-in defaults, used when the file or the key is absent.
var defaults = map[string]string{
	KeyDNSServer:      "8.8.8.8,8.8.4.4",
	KeyManageIptables: "yes",
	KeyIPv6NAT:        "no",
}

// Config is the parsed option file. Options holds every key present in the
// file (known or not); order remembers the original line order so Save
// round-trips hand-edited files without reshuffling them.
type Config struct {
	options map[string]string
	order   []string
}

// New returns an empty Config (all defaults).
func New() *Config {
	return &Config{options: make(map[string]string)}
}

// Load reads the option file. A missing file is not an error.
func Load(env *util.Env) (*Config, error) {
	cfg := New()

	data, err := afero.ReadFile(env.Fs, util.ConfigFile)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	for _, line := range strings.Split(string(data), "\n") {
		line = strings.TrimSpace(line)
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		key, value, found := strings.Cut(line, "=")
		if !found {
			continue
		}
		key = strings.TrimSpace(key)
		cfg.set(key, strings.TrimSpace(value))
	}

	return cfg, nil
}

// Save writes the option file, keeping the original key order and
// appending newly set keys at the end.
func (c *Config) Save(env *util.Env) error {
	var sb strings.Builder
	for _, key := range c.order {
		fmt.Fprintf(&sb, "%s=%s\n", key, c.options[key])
	}

	if err := env.Fs.MkdirAll(filepath.Dir(util.ConfigFile), 0o755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}
	if err := afero.WriteFile(env.Fs, util.ConfigFile, []byte(sb.String()), 0o644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}
	return nil
}

// Get returns the value for key, falling back to the built-in default.
// The second result is false for keys that are neither set nor known.
func (c *Config) Get(key string) (string, bool) {
	if v, ok := c.options[key]; ok {
		return v, true
	}
	if v, ok := defaults[key]; ok {
		return v, true
	}
	return "", false
}

// Set validates and stores a value for a known key. Unknown keys are
// rejected so typos do not silently become dead config lines.
func (c *Config) Set(key, value string) error {
	if _, known := defaults[key]; !known {
		return fmt.Errorf("unknown config key %q (known keys: %s)", key, strings.Join(KnownKeys(), ", "))
	}
	if err := validate(key, value); err != nil {
		return err
	}
	c.set(key, value)
	return nil
}

// set stores without validation; used by Load so unrecognized keys survive.
func (c *Config) set(key, value string) {
	if _, exists := c.options[key]; !exists {
		c.order = append(c.order, key)
	}
	c.options[key] = value
}

// KnownKeys returns the known option keys, sorted.
func KnownKeys() []string {
	keys := make([]string, 0, len(defaults))
	for k := range defaults {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func validate(key, value string) error {
	switch key {
	case KeyManageIptables, KeyIPv6NAT:
		if value != "yes" && value != "no" {
			return fmt.Errorf("config key %q must be \"yes\" or \"no\", got %q", key, value)
		}
	case KeyDNSServer:
		if strings.TrimSpace(value) == "" {
			return fmt.Errorf("config key %q must not be empty", key)
		}
	}
	return nil
}

// DNSServers returns the configured DNS servers as a list.
func (c *Config) DNSServers() []string {
	raw, _ := c.Get(KeyDNSServer)
	parts := strings.Split(raw, ",")
	servers := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			servers = append(servers, p)
		}
	}
	return servers
}

// ManageIptables reports whether the controller should manage
// packet-filter rules at all.
func (c *Config) ManageIptables() bool {
	v, _ := c.Get(KeyManageIptables)
	return v == "yes"
}

// IPv6NAT reports whether the transient IPv6 NAT rule is wanted.
func (c *Config) IPv6NAT() bool {
	v, _ := c.Get(KeyIPv6NAT)
	return v == "yes"
}
