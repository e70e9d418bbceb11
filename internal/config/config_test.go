package config

import (
	"testing"
	"time"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	viper.Reset()
	t.Cleanup(viper.Reset)

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, 8080, cfg.Server.Port)
	assert.Equal(t, "localhost", cfg.Server.Host)
	assert.True(t, cfg.Server.IsDevelopment())

	assert.Equal(t, DefaultRelayEndpoint, cfg.Relay.Endpoint)
	assert.Equal(t, DefaultRelayServiceID, cfg.Relay.ServiceID)
	assert.Equal(t, DefaultRelayTemplateID, cfg.Relay.TemplateID)
	assert.Equal(t, DefaultRelayPublicKey, cfg.Relay.PublicKey)
	assert.Equal(t, DefaultContactEmail, cfg.Relay.ToEmail)
	assert.Equal(t, DefaultContactEmail, cfg.Relay.FallbackEmail)
	assert.Equal(t, 15*time.Second, cfg.Relay.Timeout)

	assert.Equal(t, 16*time.Millisecond, cfg.Carousel.Tick)
	assert.Equal(t, 1, cfg.Carousel.Step)
	assert.Equal(t, 50*time.Millisecond, cfg.Navigation.RetryInterval)
	assert.Equal(t, 30, cfg.Navigation.MaxAttempts)
	assert.Equal(t, 100*time.Millisecond, cfg.Scroll.InitDelay)
	assert.Equal(t, 1200*time.Millisecond, cfg.Scroll.Duration)

	assert.False(t, cfg.Archive.Enabled)
	assert.Equal(t, "assets/logos", cfg.Assets.LogoDir)
	assert.Equal(t, "localhost:8080", cfg.Server.Addr())
}

func TestLoadFrom_Overrides(t *testing.T) {
	v := viper.New()
	v.Set("server.port", 9090)
	v.Set("server.host", "0.0.0.0")
	v.Set("server.environment", "production")
	v.Set("server.allowed_origins", []string{"https://codecraft.pk"})
	v.Set("relay.service_id", "service_test")
	v.Set("carousel.tick", "32ms")
	v.Set("navigation.max_attempts", 10)

	cfg, err := LoadFrom(v)
	require.NoError(t, err)

	assert.Equal(t, 9090, cfg.Server.Port)
	assert.False(t, cfg.Server.IsDevelopment())
	assert.Equal(t, []string{"https://codecraft.pk"}, cfg.Server.AllowedOrigins)
	assert.Equal(t, "service_test", cfg.Relay.ServiceID)
	assert.Equal(t, DefaultRelayTemplateID, cfg.Relay.TemplateID)
	assert.Equal(t, 32*time.Millisecond, cfg.Carousel.Tick)
	assert.Equal(t, 10, cfg.Navigation.MaxAttempts)
}

func TestLoadFrom_EmailJSEnvironment(t *testing.T) {
	t.Setenv("EMAILJS_SERVICE_ID", "service_env")
	t.Setenv("EMAILJS_TEMPLATE_ID", "template_env")
	t.Setenv("EMAILJS_PUBLIC_KEY", "key_env")

	cfg, err := LoadFrom(viper.New())
	require.NoError(t, err)

	assert.Equal(t, "service_env", cfg.Relay.ServiceID)
	assert.Equal(t, "template_env", cfg.Relay.TemplateID)
	assert.Equal(t, "key_env", cfg.Relay.PublicKey)
}

func TestLoadFrom_PrefixedEnvironmentWins(t *testing.T) {
	t.Setenv("EMAILJS_SERVICE_ID", "service_env")
	t.Setenv("CRAFTSITE_RELAY_SERVICE_ID", "service_prefixed")

	cfg, err := LoadFrom(viper.New())
	require.NoError(t, err)
	assert.Equal(t, "service_prefixed", cfg.Relay.ServiceID)
}

func TestLoadFrom_CommaSeparatedOrigins(t *testing.T) {
	v := viper.New()
	v.Set("server.allowed_origins", []string{"https://a.example, https://b.example"})

	cfg, err := LoadFrom(v)
	require.NoError(t, err)
	assert.Equal(t, []string{"https://a.example", "https://b.example"}, cfg.Server.AllowedOrigins)
}

func TestLoadFrom_TrustedProxies(t *testing.T) {
	v := viper.New()
	v.Set("server.trusted_proxies", []string{"10.0.0.0/8, 127.0.0.1"})

	cfg, err := LoadFrom(v)
	require.NoError(t, err)
	assert.Equal(t, []string{"10.0.0.0/8", "127.0.0.1"}, cfg.Server.TrustedProxies)

	single, err := ParseProxy("127.0.0.1")
	require.NoError(t, err)
	assert.Equal(t, "127.0.0.1/32", single.String())

	masked, err := ParseProxy("10.1.2.3/8")
	require.NoError(t, err)
	assert.Equal(t, "10.0.0.0/8", masked.String())
}

func TestLoadFrom_Invalid(t *testing.T) {
	tests := []struct {
		name  string
		key   string
		value interface{}
		want  string
	}{
		{"port out of range", "server.port", 70000, "port 70000"},
		{"dangerous host", "server.host", "localhost;rm", "dangerous character"},
		{"unknown environment", "server.environment", "staging", "unknown environment"},
		{"blank service id", "relay.service_id", "  ", "service_id is required"},
		{"blank public key", "relay.public_key", "", "public_key is required"},
		{"non http endpoint", "relay.endpoint", "ftp://relay", "endpoint must be"},
		{"zero timeout", "relay.timeout", "0s", "timeout must be positive"},
		{"logo dir traversal", "assets.logo_dir", "../secrets", "traversal"},
		{"zero tick", "carousel.tick", "0s", "carousel config"},
		{"zero attempts", "navigation.max_attempts", 0, "navigation config"},
		{"zero frame", "scroll.frame_interval", "0s", "scroll config"},
		{"zero burst", "ratelimit.burst", 0, "ratelimit config"},
		{"bad trusted proxy", "server.trusted_proxies", []string{"proxy.internal"}, "trusted proxy"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			v := viper.New()
			v.Set(tt.key, tt.value)

			cfg, err := LoadFrom(v)
			require.Error(t, err)
			assert.Nil(t, cfg)
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}

func TestLoadFrom_ArchivePathCheckedOnlyWhenEnabled(t *testing.T) {
	v := viper.New()
	v.Set("archive.path", "../outside.db")
	_, err := LoadFrom(v)
	require.NoError(t, err)

	v.Set("archive.enabled", true)
	_, err = LoadFrom(v)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "archive config")
}

func TestLoadFrom_BadType(t *testing.T) {
	v := viper.New()
	v.Set("server.port", "not-a-port")

	cfg, err := LoadFrom(v)
	assert.Error(t, err)
	assert.Nil(t, cfg)
}
