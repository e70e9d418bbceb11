package server

import (
	"crypto/tls"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/codecraftpk/craftsite/internal/errors"
)

func TestIsValidOrigin(t *testing.T) {
	allowed := []string{"https://codecraft.pk/", "https://www.codecraft.pk"}

	tests := []struct {
		name    string
		host    string
		origin  string
		referer string
		want    bool
	}{
		{name: "same host", host: "localhost:8080", origin: "http://localhost:8080", want: true},
		{name: "same host case insensitive", host: "Example.com", origin: "https://example.com", want: true},
		{name: "allowed with trailing slash", host: "internal:8080", origin: "https://codecraft.pk", want: true},
		{name: "allowed", host: "internal:8080", origin: "https://www.codecraft.pk", want: true},
		{name: "foreign", host: "localhost:8080", origin: "http://evil.test", want: false},
		{name: "scheme mismatch with allowed", host: "internal:8080", origin: "http://codecraft.pk", want: false},
		{name: "non web scheme", host: "localhost", origin: "file://localhost", want: false},
		{name: "missing", host: "localhost", want: false},
		{name: "referer fallback", host: "localhost", referer: "http://localhost/#contact", want: true},
		{name: "foreign referer", host: "localhost", referer: "http://evil.test/page", want: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := httptest.NewRequest(http.MethodPost, "/contact", nil)
			r.Host = tt.host
			if tt.origin != "" {
				r.Header.Set("Origin", tt.origin)
			}
			if tt.referer != "" {
				r.Header.Set("Referer", tt.referer)
			}
			assert.Equal(t, tt.want, isValidOrigin(r, allowed))
		})
	}
}

func TestTrustedProxies_ClientIP(t *testing.T) {
	proxies, err := ParseTrustedProxies([]string{"10.0.0.0/8", "127.0.0.1"})
	require.NoError(t, err)

	tests := []struct {
		name    string
		headers map[string]string
		remote  string
		want    string
	}{
		{name: "forwarded by trusted proxy", headers: map[string]string{"X-Forwarded-For": "203.0.113.7, 10.0.0.2"}, remote: "10.0.0.1:1234", want: "203.0.113.7"},
		{name: "rightmost untrusted hop wins", headers: map[string]string{"X-Forwarded-For": "198.51.100.1, 203.0.113.7, 10.0.0.2"}, remote: "127.0.0.1:1234", want: "203.0.113.7"},
		{name: "real ip from trusted proxy", headers: map[string]string{"X-Real-IP": " 198.51.100.2 "}, remote: "10.0.0.1:1234", want: "198.51.100.2"},
		{name: "garbage forwarded hop", headers: map[string]string{"X-Forwarded-For": "not-an-ip"}, remote: "10.0.0.1:1234", want: "10.0.0.1"},
		{name: "forwarded from untrusted peer ignored", headers: map[string]string{"X-Forwarded-For": "203.0.113.7"}, remote: "192.0.2.9:5555", want: "192.0.2.9"},
		{name: "real ip from untrusted peer ignored", headers: map[string]string{"X-Real-IP": "198.51.100.2"}, remote: "192.0.2.9:5555", want: "192.0.2.9"},
		{name: "remote addr", remote: "192.0.2.9:5555", want: "192.0.2.9"},
		{name: "remote without port", remote: "192.0.2.9", want: "192.0.2.9"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := httptest.NewRequest(http.MethodGet, "/", nil)
			r.RemoteAddr = tt.remote
			for k, v := range tt.headers {
				r.Header.Set(k, v)
			}
			assert.Equal(t, tt.want, proxies.ClientIP(r))
		})
	}
}

func TestTrustedProxies_NoneConfigured(t *testing.T) {
	var proxies TrustedProxies

	r := httptest.NewRequest(http.MethodGet, "/", nil)
	r.RemoteAddr = "10.0.0.1:1234"
	r.Header.Set("X-Forwarded-For", "203.0.113.7")
	r.Header.Set("X-Real-IP", "198.51.100.2")
	assert.Equal(t, "10.0.0.1", proxies.ClientIP(r))

	_, err := ParseTrustedProxies([]string{"proxy.internal"})
	assert.Error(t, err)
}

func TestSecurityConfigFromAppConfig(t *testing.T) {
	cfg := testConfig(t, t.TempDir())
	cfg.Server.AllowedOrigins = []string{"https://codecraft.pk"}

	dev := SecurityConfigFromAppConfig(cfg, nil, nil)
	assert.Nil(t, dev.HSTS)
	assert.Equal(t, []string{"https://codecraft.pk"}, dev.AllowedOrigins)
	assert.NotContains(t, buildCSPHeader(dev.CSP), "upgrade-insecure-requests")

	cfg.Server.Environment = "production"
	prod := SecurityConfigFromAppConfig(cfg, nil, nil)
	require.NotNil(t, prod.HSTS)
	csp := buildCSPHeader(prod.CSP)
	assert.Contains(t, csp, "connect-src 'self' wss:;")
	assert.Contains(t, csp, "upgrade-insecure-requests")
	assert.Equal(t, "max-age=31536000; includeSubDomains", buildHSTSHeader(prod.HSTS))
}

func TestSecurityMiddleware(t *testing.T) {
	cfg := testConfig(t, t.TempDir())
	cfg.Server.Environment = "production"
	handler := SecurityMiddleware(SecurityConfigFromAppConfig(cfg, nil, nil))(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	}))

	t.Run("headers on reads", func(t *testing.T) {
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))

		assert.Equal(t, http.StatusNoContent, rec.Code)
		assert.Equal(t, "nosniff", rec.Header().Get("X-Content-Type-Options"))
		assert.Equal(t, "strict-origin-when-cross-origin", rec.Header().Get("Referrer-Policy"))
		assert.Contains(t, rec.Header().Get("Permissions-Policy"), "camera=()")
		assert.Empty(t, rec.Header().Get("Strict-Transport-Security"))
	})

	t.Run("hsts over tls", func(t *testing.T) {
		r := httptest.NewRequest(http.MethodGet, "/", nil)
		r.TLS = &tls.ConnectionState{}
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, r)

		assert.NotEmpty(t, rec.Header().Get("Strict-Transport-Security"))
	})

	t.Run("foreign post rejected", func(t *testing.T) {
		r := httptest.NewRequest(http.MethodPost, "/contact", nil)
		r.Header.Set("Origin", "http://evil.test")
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, r)

		assert.Equal(t, http.StatusForbidden, rec.Code)
	})

	t.Run("same origin post passes", func(t *testing.T) {
		r := httptest.NewRequest(http.MethodPost, "/contact", nil)
		r.Header.Set("Origin", "http://example.com")
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, r)

		assert.Equal(t, http.StatusNoContent, rec.Code)
	})
}

func TestOriginPatterns(t *testing.T) {
	got := originPatterns([]string{"https://codecraft.pk", "http://localhost:3000", "not a url", ""})
	assert.Equal(t, []string{"codecraft.pk", "localhost:3000"}, got)
}

func TestCheckOrigin(t *testing.T) {
	r := httptest.NewRequest(http.MethodGet, "/live", nil)
	err := checkOrigin(r, nil)
	require.Error(t, err)
	assert.Equal(t, errors.ErrorTypeValidation, errors.TypeOf(err))

	r.Header.Set("Origin", "http://evil.test")
	assert.Error(t, checkOrigin(r, nil))

	r.Header.Set("Origin", "http://example.com")
	assert.NoError(t, checkOrigin(r, nil))
}
