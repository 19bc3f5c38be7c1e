// Package config loads downsite's settings from a TOML file and DOWNSITE_*
// environment variables.
package config

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"os"
	"strconv"
	"strings"

	"github.com/BurntSushi/toml"

	"github.com/hypergopher/downsite"
	"github.com/hypergopher/downsite/contentstore"
)

const envPrefix = "DOWNSITE_"

type Config struct {
	Server  Server  `toml:"server"`
	Content Content `toml:"content"`
	Client  Client  `toml:"client"`
	Log     Log     `toml:"log"`

	// Authors maps usernames used in frontmatter to display details.
	Authors map[string]downsite.Author `toml:"authors"`
}

type Server struct {
	Addr     string `toml:"addr"`
	BaseURL  string `toml:"base_url"`
	SiteName string `toml:"site_name"`
}

type Content struct {
	MarkDir     string `toml:"mark_dir"`
	DataDir     string `toml:"data_dir"`
	Frontmatter string `toml:"frontmatter"`
	Reindex     bool   `toml:"reindex"`
	PageSize    int    `toml:"page_size"`
}

type Client struct {
	BaseURL      string            `toml:"base_url"`
	Endpoints    Endpoints         `toml:"endpoints"`
	TrackLoading TrackLoading      `toml:"track_loading"`
	Headers      map[string]string `toml:"headers"`
}

type Endpoints struct {
	Posts      string `toml:"posts"`
	Categories string `toml:"categories"`
	Post       string `toml:"post"`
}

type TrackLoading struct {
	Posts      *bool `toml:"posts"`
	Categories *bool `toml:"categories"`
	Post       *bool `toml:"post"`
}

type Log struct {
	Level  string `toml:"level"`
	Format string `toml:"format"`
}

// Default returns the settings used when neither file nor environment set a value.
func Default() Config {
	return Config{
		Server: Server{
			Addr:     ":8080",
			SiteName: "downsite",
		},
		Content: Content{
			MarkDir:     "content",
			DataDir:     "data",
			Frontmatter: "toml",
			Reindex:     true,
			PageSize:    5,
		},
		Log: Log{
			Level:  "info",
			Format: "text",
		},
	}
}

// Load reads path (skipped when empty) over the defaults, then applies
// environment overrides.
func Load(path string) (Config, error) {
	cfg := Default()

	if path != "" {
		md, err := toml.DecodeFile(path, &cfg)
		if err != nil {
			return cfg, fmt.Errorf("failed to read config %s: %w", path, err)
		}
		if undecoded := md.Undecoded(); len(undecoded) > 0 {
			return cfg, fmt.Errorf("unknown config keys in %s: %v", path, undecoded)
		}
	}

	if err := cfg.applyEnv(); err != nil {
		return cfg, err
	}

	cfg.fillDerived()
	return cfg, cfg.Validate()
}

func (c *Config) applyEnv() error {
	setString(&c.Server.Addr, "ADDR")
	setString(&c.Server.BaseURL, "BASE_URL")
	setString(&c.Server.SiteName, "SITE_NAME")
	setString(&c.Content.MarkDir, "MARK_DIR")
	setString(&c.Content.DataDir, "DATA_DIR")
	setString(&c.Content.Frontmatter, "FRONTMATTER")
	setString(&c.Client.BaseURL, "CLIENT_BASE_URL")
	setString(&c.Log.Level, "LOG_LEVEL")
	setString(&c.Log.Format, "LOG_FORMAT")

	if value, ok := lookupEnv("REINDEX"); ok {
		b, err := strconv.ParseBool(value)
		if err != nil {
			return fmt.Errorf("invalid %sREINDEX: %w", envPrefix, err)
		}
		c.Content.Reindex = b
	}

	if value, ok := lookupEnv("PAGE_SIZE"); ok {
		n, err := strconv.Atoi(value)
		if err != nil {
			return fmt.Errorf("invalid %sPAGE_SIZE: %w", envPrefix, err)
		}
		c.Content.PageSize = n
	}

	return nil
}

func lookupEnv(key string) (string, bool) {
	value, ok := os.LookupEnv(envPrefix + key)
	if !ok {
		return "", false
	}
	return strings.TrimSpace(value), true
}

func setString(dst *string, key string) {
	if value, ok := lookupEnv(key); ok {
		*dst = value
	}
}

func (c *Config) fillDerived() {
	for username, author := range c.Authors {
		author.Username = username
		c.Authors[username] = author
	}

	c.Server.BaseURL = strings.TrimRight(c.Server.BaseURL, "/")
	if c.Server.BaseURL == "" {
		c.Server.BaseURL = baseURLFromAddr(c.Server.Addr)
	}

	c.Client.BaseURL = strings.TrimRight(c.Client.BaseURL, "/")
	if c.Client.BaseURL == "" {
		c.Client.BaseURL = c.Server.BaseURL + "/api"
	}
}

// Validate checks the values that cannot be defaulted.
func (c Config) Validate() error {
	var errs []error

	switch c.Content.Frontmatter {
	case "toml", "yaml":
	default:
		errs = append(errs, fmt.Errorf("content.frontmatter must be toml or yaml, got %q", c.Content.Frontmatter))
	}

	if c.Content.PageSize < 1 {
		errs = append(errs, fmt.Errorf("content.page_size must be positive, got %d", c.Content.PageSize))
	}

	if _, err := parseLevel(c.Log.Level); err != nil {
		errs = append(errs, err)
	}

	switch c.Log.Format {
	case "text", "json":
	default:
		errs = append(errs, fmt.Errorf("log.format must be text or json, got %q", c.Log.Format))
	}

	return errors.Join(errs...)
}

// StoreOptions converts the client section into content store options.
func (c Config) StoreOptions(logger *slog.Logger) contentstore.Options {
	endpoints := contentstore.DefaultEndpoints()
	if c.Client.Endpoints.Posts != "" {
		endpoints.Posts = c.Client.Endpoints.Posts
	}
	if c.Client.Endpoints.Categories != "" {
		endpoints.Categories = c.Client.Endpoints.Categories
	}
	if c.Client.Endpoints.Post != "" {
		endpoints.Post = c.Client.Endpoints.Post
	}

	track := contentstore.DefaultTrackLoading()
	if v := c.Client.TrackLoading.Posts; v != nil {
		track.Posts = *v
	}
	if v := c.Client.TrackLoading.Categories; v != nil {
		track.Categories = *v
	}
	if v := c.Client.TrackLoading.Post; v != nil {
		track.Post = *v
	}

	return contentstore.Options{
		Endpoints:    &endpoints,
		TrackLoading: &track,
		Logger:       logger,
	}
}

// NewLogger builds the logger described by the log section.
func (c Config) NewLogger(w io.Writer) *slog.Logger {
	level, err := parseLevel(c.Log.Level)
	if err != nil {
		level = slog.LevelInfo
	}

	opts := &slog.HandlerOptions{Level: level}
	if c.Log.Format == "json" {
		return slog.New(slog.NewJSONHandler(w, opts))
	}
	return slog.New(slog.NewTextHandler(w, opts))
}

func parseLevel(level string) (slog.Level, error) {
	var l slog.Level
	if err := l.UnmarshalText([]byte(level)); err != nil {
		return l, fmt.Errorf("log.level %q: %w", level, err)
	}
	return l, nil
}

func baseURLFromAddr(addr string) string {
	addr = strings.TrimSpace(addr)
	if addr == "" {
		return ""
	}
	if strings.HasPrefix(addr, "http://") || strings.HasPrefix(addr, "https://") {
		return strings.TrimRight(addr, "/")
	}

	host, port, err := net.SplitHostPort(addr)
	if err != nil {
		host = addr
		port = ""
	}
	if host == "" || host == "0.0.0.0" || host == "::" {
		host = "localhost"
	}
	if port != "" {
		return "http://" + net.JoinHostPort(host, port)
	}
	return "http://" + host
}
