// Package config loads the sitesearch configuration from a YAML or TOML file.
package config

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"time"

	"github.com/pelletier/go-toml/v2"
	"gopkg.in/yaml.v2"
)

// Site is one configured crawl seed.
type Site struct {
	URL  string `yaml:"url" toml:"url"`
	Name string `yaml:"name" toml:"name"`
}

type Crawler struct {
	UserAgent       string `yaml:"user_agent" toml:"user_agent"`
	Workers         int    `yaml:"workers" toml:"workers"`
	RequestDelay    string `yaml:"request_delay" toml:"request_delay"`
	HTTPTimeout     string `yaml:"http_timeout" toml:"http_timeout"`
	HonorRobots     bool   `yaml:"honor_robots" toml:"honor_robots"`
	RobotsCacheSize int    `yaml:"robots_cache_size" toml:"robots_cache_size"`
	MaxPages        int    `yaml:"max_pages" toml:"max_pages"`
	MaxContentBytes int64  `yaml:"max_content_bytes" toml:"max_content_bytes"`
	RenderJS        bool   `yaml:"render_js" toml:"render_js"`
}

type Search struct {
	MaxLemmaFrequency int `yaml:"max_lemma_frequency" toml:"max_lemma_frequency"`
	DefaultLimit      int `yaml:"default_limit" toml:"default_limit"`
}

type Storage struct {
	Path string `yaml:"path" toml:"path"`
}

type Server struct {
	Addr string `yaml:"addr" toml:"addr"`
}

type Log struct {
	Level string `yaml:"level" toml:"level"`
	File  string `yaml:"file" toml:"file"`
}

// Config is the full application configuration. Durations are kept as
// strings in the file and parsed through the accessor methods.
type Config struct {
	Sites   []Site  `yaml:"sites" toml:"sites"`
	Crawler Crawler `yaml:"crawler" toml:"crawler"`
	Search  Search  `yaml:"search" toml:"search"`
	Storage Storage `yaml:"storage" toml:"storage"`
	Server  Server  `yaml:"server" toml:"server"`
	Log     Log     `yaml:"log" toml:"log"`
}

// Default returns a configuration populated with default values.
func Default() *Config {
	cfg := &Config{}
	cfg.SetDefaults()
	return cfg
}

// SetDefaults resets every member to its default value.
func (c *Config) SetDefaults() {
	c.Sites = nil

	c.Crawler.UserAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) SiteSearchBot/1.0"
	c.Crawler.Workers = 0
	c.Crawler.RequestDelay = "300ms"
	c.Crawler.HTTPTimeout = "30s"
	c.Crawler.HonorRobots = true
	c.Crawler.RobotsCacheSize = 1024
	c.Crawler.MaxPages = 0
	c.Crawler.MaxContentBytes = 10 * 1024 * 1024
	c.Crawler.RenderJS = false

	c.Search.MaxLemmaFrequency = 1000
	c.Search.DefaultLimit = 20

	c.Storage.Path = "sitesearch.db"
	c.Server.Addr = ":8080"
	c.Log.Level = "info"
	c.Log.File = ""
}

// Load reads the file at path on top of the defaults. The format is chosen
// by extension: .toml uses TOML, anything else YAML.
func Load(path string) (*Config, error) {
	cfg := Default()

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config %s: %w", path, err)
	}

	switch strings.ToLower(filepath.Ext(path)) {
	case ".toml":
		err = toml.Unmarshal(data, cfg)
	default:
		err = yaml.Unmarshal(data, cfg)
	}
	if err != nil {
		return nil, fmt.Errorf("parsing config %s: %w", path, err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks durations and site URLs and canonicalizes the latter.
func (c *Config) Validate() error {
	if _, err := time.ParseDuration(c.Crawler.RequestDelay); err != nil {
		return fmt.Errorf("crawler.request_delay: %w", err)
	}
	if _, err := time.ParseDuration(c.Crawler.HTTPTimeout); err != nil {
		return fmt.Errorf("crawler.http_timeout: %w", err)
	}
	if c.Search.MaxLemmaFrequency <= 0 {
		return errors.New("search.max_lemma_frequency must be positive")
	}

	for i := range c.Sites {
		canonical, err := CanonicalSiteURL(c.Sites[i].URL)
		if err != nil {
			return fmt.Errorf("sites[%d]: %w", i, err)
		}
		c.Sites[i].URL = canonical
		if c.Sites[i].Name == "" {
			u, _ := url.Parse(canonical)
			c.Sites[i].Name = u.Host
		}
	}
	return nil
}

// RequestDelay returns the pause taken before each fetch.
func (c *Config) RequestDelay() time.Duration {
	d, _ := time.ParseDuration(c.Crawler.RequestDelay)
	return d
}

func (c *Config) HTTPTimeout() time.Duration {
	d, _ := time.ParseDuration(c.Crawler.HTTPTimeout)
	return d
}

// Workers returns the crawl pool size; zero means one per CPU.
func (c *Config) Workers() int {
	if c.Crawler.Workers > 0 {
		return c.Crawler.Workers
	}
	return runtime.NumCPU()
}

// FindSite returns the configured site whose root is a prefix of rawURL.
// Scheme and host are compared case-insensitively; a URL naming the root
// without its trailing slash also matches.
func (c *Config) FindSite(rawURL string) (Site, bool) {
	u, err := url.Parse(strings.TrimSpace(rawURL))
	if err != nil || u.Host == "" {
		return Site{}, false
	}
	u.Scheme = strings.ToLower(u.Scheme)
	u.Host = strings.ToLower(u.Host)
	u.Fragment = ""
	if u.Path == "" {
		u.Path = "/"
	}
	target := u.String()

	for _, s := range c.Sites {
		if strings.HasPrefix(target, s.URL) || target+"/" == s.URL {
			return s, true
		}
	}
	return Site{}, false
}

// CanonicalSiteURL lowercases scheme and host and guarantees a trailing slash.
func CanonicalSiteURL(raw string) (string, error) {
	u, err := url.Parse(strings.TrimSpace(raw))
	if err != nil {
		return "", fmt.Errorf("invalid site url %q: %w", raw, err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return "", fmt.Errorf("invalid site url %q: scheme must be http or https", raw)
	}
	if u.Host == "" {
		return "", fmt.Errorf("invalid site url %q: missing host", raw)
	}
	u.Scheme = strings.ToLower(u.Scheme)
	u.Host = strings.ToLower(u.Host)
	u.Fragment = ""
	u.RawQuery = ""
	if !strings.HasSuffix(u.Path, "/") {
		u.Path += "/"
	}
	return u.String(), nil
}
