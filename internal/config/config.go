// Package config provides configuration management for the site using Viper
// for flexible loading from files, environment variables and command-line
// flags.
//
// Every value has a working default so the site runs out of the box for local
// development; the email relay identifiers in particular fall back to literal
// development credentials when neither CRAFTSITE_RELAY_* nor EMAILJS_* is set.
package config

import (
	"fmt"
	"net/netip"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config is the complete site configuration.
type Config struct {
	Server     ServerConfig     `mapstructure:"server" yaml:"server"`
	Relay      RelayConfig      `mapstructure:"relay" yaml:"relay"`
	Assets     AssetsConfig     `mapstructure:"assets" yaml:"assets"`
	Carousel   CarouselConfig   `mapstructure:"carousel" yaml:"carousel"`
	Navigation NavigationConfig `mapstructure:"navigation" yaml:"navigation"`
	Scroll     ScrollConfig     `mapstructure:"scroll" yaml:"scroll"`
	Archive    ArchiveConfig    `mapstructure:"archive" yaml:"archive"`
	Content    ContentConfig    `mapstructure:"content" yaml:"content"`
	RateLimit  RateLimitConfig  `mapstructure:"ratelimit" yaml:"ratelimit"`
	Log        LogConfig        `mapstructure:"log" yaml:"log"`
}

type ServerConfig struct {
	Port           int      `mapstructure:"port" yaml:"port"`
	Host           string   `mapstructure:"host" yaml:"host"`
	Environment    string   `mapstructure:"environment" yaml:"environment"`
	AllowedOrigins []string `mapstructure:"allowed_origins" yaml:"allowed_origins"`
	// TrustedProxies lists the addresses or CIDR ranges whose
	// X-Forwarded-For and X-Real-IP headers are believed.
	TrustedProxies []string `mapstructure:"trusted_proxies" yaml:"trusted_proxies"`
}

// RelayConfig configures the hosted email relay. ServiceID, TemplateID and
// PublicKey are only checked for presence.
type RelayConfig struct {
	Endpoint      string        `mapstructure:"endpoint" yaml:"endpoint"`
	ServiceID     string        `mapstructure:"service_id" yaml:"service_id"`
	TemplateID    string        `mapstructure:"template_id" yaml:"template_id"`
	PublicKey     string        `mapstructure:"public_key" yaml:"public_key"`
	ToEmail       string        `mapstructure:"to_email" yaml:"to_email"`
	FallbackEmail string        `mapstructure:"fallback_email" yaml:"fallback_email"`
	Timeout       time.Duration `mapstructure:"timeout" yaml:"timeout"`
}

type AssetsConfig struct {
	LogoDir string `mapstructure:"logo_dir" yaml:"logo_dir"`
	Watch   bool   `mapstructure:"watch" yaml:"watch"`
}

type CarouselConfig struct {
	Tick      time.Duration `mapstructure:"tick" yaml:"tick"`
	Step      int           `mapstructure:"step" yaml:"step"`
	ItemWidth int           `mapstructure:"item_width" yaml:"item_width"`
	Gap       int           `mapstructure:"gap" yaml:"gap"`
	Viewport  int           `mapstructure:"viewport" yaml:"viewport"`
}

type NavigationConfig struct {
	RetryInterval time.Duration `mapstructure:"retry_interval" yaml:"retry_interval"`
	MaxAttempts   int           `mapstructure:"max_attempts" yaml:"max_attempts"`
}

type ScrollConfig struct {
	InitDelay     time.Duration `mapstructure:"init_delay" yaml:"init_delay"`
	FrameInterval time.Duration `mapstructure:"frame_interval" yaml:"frame_interval"`
	Duration      time.Duration `mapstructure:"duration" yaml:"duration"`
}

type ArchiveConfig struct {
	Enabled bool   `mapstructure:"enabled" yaml:"enabled"`
	Path    string `mapstructure:"path" yaml:"path"`
}

type ContentConfig struct {
	File string `mapstructure:"file" yaml:"file"`
}

type RateLimitConfig struct {
	Enabled           bool `mapstructure:"enabled" yaml:"enabled"`
	RequestsPerMinute int  `mapstructure:"requests_per_minute" yaml:"requests_per_minute"`
	Burst             int  `mapstructure:"burst" yaml:"burst"`
}

type LogConfig struct {
	Level  string `mapstructure:"level" yaml:"level"`
	Format string `mapstructure:"format" yaml:"format"`
	File   string `mapstructure:"file" yaml:"file"`
}

// Development defaults for the email relay.
const (
	DefaultRelayEndpoint   = "https://api.emailjs.com/api/v1.0/email/send"
	DefaultRelayServiceID  = "service_ul211pn"
	DefaultRelayTemplateID = "template_8p37vwx"
	DefaultRelayPublicKey  = "ENc8vDenN56kJFs3S"
	DefaultContactEmail    = "codecraftpakistan@gmail.com"
)

// SetDefaults registers every default on v. It also binds the EMAILJS_*
// variables as secondary sources for the relay identifiers.
func SetDefaults(v *viper.Viper) {
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.host", "localhost")
	v.SetDefault("server.environment", "development")

	v.SetDefault("relay.endpoint", DefaultRelayEndpoint)
	v.SetDefault("relay.service_id", DefaultRelayServiceID)
	v.SetDefault("relay.template_id", DefaultRelayTemplateID)
	v.SetDefault("relay.public_key", DefaultRelayPublicKey)
	v.SetDefault("relay.to_email", DefaultContactEmail)
	v.SetDefault("relay.fallback_email", DefaultContactEmail)
	v.SetDefault("relay.timeout", 15*time.Second)

	v.SetDefault("assets.logo_dir", "assets/logos")
	v.SetDefault("assets.watch", false)

	v.SetDefault("carousel.tick", 16*time.Millisecond)
	v.SetDefault("carousel.step", 1)
	v.SetDefault("carousel.item_width", 176)
	v.SetDefault("carousel.gap", 24)
	v.SetDefault("carousel.viewport", 1024)

	v.SetDefault("navigation.retry_interval", 50*time.Millisecond)
	v.SetDefault("navigation.max_attempts", 30)

	v.SetDefault("scroll.init_delay", 100*time.Millisecond)
	v.SetDefault("scroll.frame_interval", 16*time.Millisecond)
	v.SetDefault("scroll.duration", 1200*time.Millisecond)

	v.SetDefault("archive.enabled", false)
	v.SetDefault("archive.path", ".craftsite/submissions.db")

	v.SetDefault("ratelimit.enabled", true)
	v.SetDefault("ratelimit.requests_per_minute", 6)
	v.SetDefault("ratelimit.burst", 3)

	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "text")

	_ = v.BindEnv("relay.service_id", "CRAFTSITE_RELAY_SERVICE_ID", "EMAILJS_SERVICE_ID")
	_ = v.BindEnv("relay.template_id", "CRAFTSITE_RELAY_TEMPLATE_ID", "EMAILJS_TEMPLATE_ID")
	_ = v.BindEnv("relay.public_key", "CRAFTSITE_RELAY_PUBLIC_KEY", "EMAILJS_PUBLIC_KEY")
}

// Load reads the configuration from the global viper instance.
func Load() (*Config, error) {
	return LoadFrom(viper.GetViper())
}

// LoadFrom reads the configuration from v, applying defaults for anything
// unset, and validates the result.
func LoadFrom(v *viper.Viper) (*Config, error) {
	SetDefaults(v)

	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, err
	}

	// Handle allowed origins set via a comma separated env var
	if len(config.Server.AllowedOrigins) == 1 && strings.Contains(config.Server.AllowedOrigins[0], ",") {
		config.Server.AllowedOrigins = splitList(config.Server.AllowedOrigins[0])
	}
	if len(config.Server.TrustedProxies) == 1 && strings.Contains(config.Server.TrustedProxies[0], ",") {
		config.Server.TrustedProxies = splitList(config.Server.TrustedProxies[0])
	}

	if err := validateConfig(&config); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &config, nil
}

// Addr returns the listen address.
func (c *ServerConfig) Addr() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

// IsDevelopment reports whether the server runs in development mode.
func (c *ServerConfig) IsDevelopment() bool {
	return c.Environment == "" || c.Environment == "development"
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

// validateConfig validates configuration values for security and correctness
func validateConfig(config *Config) error {
	if err := validateServerConfig(&config.Server); err != nil {
		return fmt.Errorf("server config: %w", err)
	}
	if err := validateRelayConfig(&config.Relay); err != nil {
		return fmt.Errorf("relay config: %w", err)
	}
	if err := validatePath(config.Assets.LogoDir); err != nil {
		return fmt.Errorf("assets config: logo_dir: %w", err)
	}
	if err := validateIntervals(config); err != nil {
		return err
	}
	if config.Archive.Enabled {
		if err := validatePath(config.Archive.Path); err != nil {
			return fmt.Errorf("archive config: path: %w", err)
		}
	}
	if config.RateLimit.Enabled && (config.RateLimit.RequestsPerMinute <= 0 || config.RateLimit.Burst <= 0) {
		return fmt.Errorf("ratelimit config: requests_per_minute and burst must be positive")
	}
	return nil
}

// validateServerConfig validates server configuration values
func validateServerConfig(config *ServerConfig) error {
	// Allow 0 for system-assigned ports in testing
	if config.Port < 0 || config.Port > 65535 {
		return fmt.Errorf("port %d is not in valid range 0-65535", config.Port)
	}

	if config.Host != "" {
		dangerousChars := []string{";", "&", "|", "$", "`", "(", ")", "<", ">", "\"", "'", "\\"}
		for _, char := range dangerousChars {
			if strings.Contains(config.Host, char) {
				return fmt.Errorf("host contains dangerous character: %s", char)
			}
		}
	}

	switch config.Environment {
	case "", "development", "production":
	default:
		return fmt.Errorf("unknown environment %q", config.Environment)
	}

	for _, proxy := range config.TrustedProxies {
		if _, err := ParseProxy(proxy); err != nil {
			return err
		}
	}

	return nil
}

// ParseProxy parses a trusted proxy entry, either a single address or a CIDR
// range.
func ParseProxy(entry string) (netip.Prefix, error) {
	entry = strings.TrimSpace(entry)
	if strings.Contains(entry, "/") {
		prefix, err := netip.ParsePrefix(entry)
		if err != nil {
			return netip.Prefix{}, fmt.Errorf("trusted proxy %q: %w", entry, err)
		}
		return prefix.Masked(), nil
	}
	addr, err := netip.ParseAddr(entry)
	if err != nil {
		return netip.Prefix{}, fmt.Errorf("trusted proxy %q: %w", entry, err)
	}
	addr = addr.Unmap()
	return netip.PrefixFrom(addr, addr.BitLen()), nil
}

func validateRelayConfig(config *RelayConfig) error {
	required := map[string]string{
		"endpoint":    config.Endpoint,
		"service_id":  config.ServiceID,
		"template_id": config.TemplateID,
		"public_key":  config.PublicKey,
		"to_email":    config.ToEmail,
	}
	for _, key := range []string{"endpoint", "service_id", "template_id", "public_key", "to_email"} {
		if strings.TrimSpace(required[key]) == "" {
			return fmt.Errorf("%s is required", key)
		}
	}
	if !strings.HasPrefix(config.Endpoint, "http://") && !strings.HasPrefix(config.Endpoint, "https://") {
		return fmt.Errorf("endpoint must be an http(s) URL: %s", config.Endpoint)
	}
	if config.Timeout <= 0 {
		return fmt.Errorf("timeout must be positive")
	}
	return nil
}

func validateIntervals(config *Config) error {
	if config.Carousel.Tick <= 0 || config.Carousel.Step <= 0 {
		return fmt.Errorf("carousel config: tick and step must be positive")
	}
	if config.Carousel.ItemWidth <= 0 || config.Carousel.Gap < 0 || config.Carousel.Viewport <= 0 {
		return fmt.Errorf("carousel config: item_width and viewport must be positive, gap non-negative")
	}
	if config.Navigation.RetryInterval <= 0 || config.Navigation.MaxAttempts <= 0 {
		return fmt.Errorf("navigation config: retry_interval and max_attempts must be positive")
	}
	if config.Scroll.InitDelay < 0 || config.Scroll.FrameInterval <= 0 || config.Scroll.Duration <= 0 {
		return fmt.Errorf("scroll config: frame_interval and duration must be positive")
	}
	return nil
}

// validatePath validates a file path for security
func validatePath(path string) error {
	if path == "" {
		return fmt.Errorf("empty path")
	}

	cleanPath := filepath.Clean(path)

	if strings.Contains(cleanPath, "..") {
		return fmt.Errorf("path contains traversal: %s", path)
	}

	dangerousChars := []string{";", "&", "|", "$", "`", "(", ")", "<", ">", "\"", "'"}
	for _, char := range dangerousChars {
		if strings.Contains(cleanPath, char) {
			return fmt.Errorf("path contains dangerous character: %s", char)
		}
	}

	return nil
}
