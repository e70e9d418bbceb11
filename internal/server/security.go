package server

import (
	"fmt"
	"net"
	"net/http"
	"net/netip"
	"net/url"
	"strings"

	"github.com/codecraftpk/craftsite/internal/config"
	"github.com/codecraftpk/craftsite/internal/logging"
)

// SecurityConfig holds security configuration
type SecurityConfig struct {
	CSP               *CSPConfig
	HSTS              *HSTSConfig
	XFrameOptions     string
	ReferrerPolicy    string
	PermissionsPolicy []string
	// AllowedOrigins are accepted for state-changing requests and live
	// connections in addition to the request's own host.
	AllowedOrigins []string
	Proxies        TrustedProxies
	Logger         logging.Logger
}

// CSPConfig holds Content Security Policy configuration
type CSPConfig struct {
	DefaultSrc              []string
	ScriptSrc               []string
	StyleSrc                []string
	ImgSrc                  []string
	ConnectSrc              []string
	FontSrc                 []string
	ObjectSrc               []string
	FrameAncestors          []string
	BaseURI                 []string
	FormAction              []string
	UpgradeInsecureRequests bool
}

// HSTSConfig holds HTTP Strict Transport Security configuration
type HSTSConfig struct {
	MaxAge            int
	IncludeSubDomains bool
}

// DefaultSecurityConfig returns the policy for the site. Every script, style
// and image is served by the site itself.
func DefaultSecurityConfig() *SecurityConfig {
	return &SecurityConfig{
		CSP: &CSPConfig{
			DefaultSrc:     []string{"'self'"},
			ScriptSrc:      []string{"'self'"},
			StyleSrc:       []string{"'self'"},
			ImgSrc:         []string{"'self'", "data:"},
			ConnectSrc:     []string{"'self'", "ws:", "wss:"},
			FontSrc:        []string{"'self'"},
			ObjectSrc:      []string{"'none'"},
			FrameAncestors: []string{"'none'"},
			BaseURI:        []string{"'self'"},
			FormAction:     []string{"'self'"},
		},
		XFrameOptions:     "DENY",
		ReferrerPolicy:    "strict-origin-when-cross-origin",
		PermissionsPolicy: []string{"camera=()", "microphone=()", "geolocation=()", "payment=()"},
	}
}

// SecurityConfigFromAppConfig creates security config from application config
func SecurityConfigFromAppConfig(cfg *config.Config, proxies TrustedProxies, logger logging.Logger) *SecurityConfig {
	secConfig := DefaultSecurityConfig()
	secConfig.AllowedOrigins = cfg.Server.AllowedOrigins
	secConfig.Proxies = proxies
	secConfig.Logger = logger

	if cfg.Server.Environment == "production" {
		secConfig.CSP.ConnectSrc = []string{"'self'", "wss:"}
		secConfig.CSP.UpgradeInsecureRequests = true
		secConfig.HSTS = &HSTSConfig{MaxAge: 31536000, IncludeSubDomains: true}
	}
	return secConfig
}

// SecurityMiddleware applies the security headers and rejects state-changing
// requests from foreign origins.
func SecurityMiddleware(secConfig *SecurityConfig) func(http.Handler) http.Handler {
	if secConfig == nil {
		secConfig = DefaultSecurityConfig()
	}
	logger := secConfig.Logger
	if logger == nil {
		logger = logging.Nop()
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			applySecurityHeaders(w, r, secConfig)

			if r.Method != http.MethodGet && r.Method != http.MethodHead && r.Method != http.MethodOptions {
				if !isValidOrigin(r, secConfig.AllowedOrigins) {
					logging.LogSecurityEvent(logger, r.Context(), "invalid_origin", map[string]interface{}{
						"origin":  r.Header.Get("Origin"),
						"referer": r.Header.Get("Referer"),
						"ip":      secConfig.Proxies.ClientIP(r),
					})
					http.Error(w, "Forbidden", http.StatusForbidden)
					return
				}
			}

			next.ServeHTTP(w, r)
		})
	}
}

// applySecurityHeaders applies all configured security headers
func applySecurityHeaders(w http.ResponseWriter, r *http.Request, config *SecurityConfig) {
	if config.CSP != nil {
		w.Header().Set("Content-Security-Policy", buildCSPHeader(config.CSP))
	}
	if config.HSTS != nil && r.TLS != nil {
		w.Header().Set("Strict-Transport-Security", buildHSTSHeader(config.HSTS))
	}
	if config.XFrameOptions != "" {
		w.Header().Set("X-Frame-Options", config.XFrameOptions)
	}
	if config.ReferrerPolicy != "" {
		w.Header().Set("Referrer-Policy", config.ReferrerPolicy)
	}
	if len(config.PermissionsPolicy) > 0 {
		w.Header().Set("Permissions-Policy", strings.Join(config.PermissionsPolicy, ", "))
	}

	w.Header().Set("X-Content-Type-Options", "nosniff")
	w.Header().Set("Cross-Origin-Opener-Policy", "same-origin")
	w.Header().Set("Cross-Origin-Resource-Policy", "same-origin")
}

// buildCSPHeader constructs the Content-Security-Policy header value
func buildCSPHeader(csp *CSPConfig) string {
	var directives []string

	addDirective := func(name string, values []string) {
		if len(values) > 0 {
			directives = append(directives, fmt.Sprintf("%s %s", name, strings.Join(values, " ")))
		}
	}

	addDirective("default-src", csp.DefaultSrc)
	addDirective("script-src", csp.ScriptSrc)
	addDirective("style-src", csp.StyleSrc)
	addDirective("img-src", csp.ImgSrc)
	addDirective("connect-src", csp.ConnectSrc)
	addDirective("font-src", csp.FontSrc)
	addDirective("object-src", csp.ObjectSrc)
	addDirective("frame-ancestors", csp.FrameAncestors)
	addDirective("base-uri", csp.BaseURI)
	addDirective("form-action", csp.FormAction)

	if csp.UpgradeInsecureRequests {
		directives = append(directives, "upgrade-insecure-requests")
	}

	return strings.Join(directives, "; ")
}

// buildHSTSHeader constructs the Strict-Transport-Security header value
func buildHSTSHeader(hsts *HSTSConfig) string {
	header := fmt.Sprintf("max-age=%d", hsts.MaxAge)
	if hsts.IncludeSubDomains {
		header += "; includeSubDomains"
	}
	return header
}

// requestOrigin returns the Origin header, falling back to the origin of the
// Referer.
func requestOrigin(r *http.Request) string {
	origin := r.Header.Get("Origin")
	if origin != "" {
		return origin
	}
	if referer := r.Header.Get("Referer"); referer != "" {
		if refererURL, err := url.Parse(referer); err == nil && refererURL.Host != "" {
			return fmt.Sprintf("%s://%s", refererURL.Scheme, refererURL.Host)
		}
	}
	return ""
}

// isValidOrigin accepts same-host origins and the configured ones.
func isValidOrigin(r *http.Request, allowedOrigins []string) bool {
	origin := requestOrigin(r)
	if origin == "" {
		return false
	}

	originURL, err := url.Parse(origin)
	if err != nil {
		return false
	}
	if originURL.Scheme != "http" && originURL.Scheme != "https" {
		return false
	}
	if strings.EqualFold(originURL.Host, r.Host) {
		return true
	}

	for _, allowed := range allowedOrigins {
		if strings.EqualFold(strings.TrimSuffix(allowed, "/"), origin) {
			return true
		}
	}
	return false
}

// TrustedProxies are the networks whose forwarding headers are believed when
// resolving a client address.
type TrustedProxies []netip.Prefix

// ParseTrustedProxies parses addresses and CIDR ranges.
func ParseTrustedProxies(entries []string) (TrustedProxies, error) {
	proxies := make(TrustedProxies, 0, len(entries))
	for _, entry := range entries {
		prefix, err := config.ParseProxy(entry)
		if err != nil {
			return nil, err
		}
		proxies = append(proxies, prefix)
	}
	return proxies, nil
}

func (tp TrustedProxies) trusts(addr netip.Addr) bool {
	for _, prefix := range tp {
		if prefix.Contains(addr) {
			return true
		}
	}
	return false
}

// ClientIP returns the address the request came from. X-Forwarded-For and
// X-Real-IP are only consulted when the peer is a trusted proxy; the
// forwarded chain is walked from the right and the first untrusted hop wins.
func (tp TrustedProxies) ClientIP(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		host = r.RemoteAddr
	}

	peer, err := netip.ParseAddr(host)
	if err != nil || !tp.trusts(peer.Unmap()) {
		return host
	}

	if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
		hops := strings.Split(xff, ",")
		for i := len(hops) - 1; i >= 0; i-- {
			hop, err := netip.ParseAddr(strings.TrimSpace(hops[i]))
			if err != nil {
				break
			}
			if !tp.trusts(hop.Unmap()) || i == 0 {
				return hop.String()
			}
		}
		return host
	}
	if xri, err := netip.ParseAddr(strings.TrimSpace(r.Header.Get("X-Real-IP"))); err == nil {
		return xri.String()
	}
	return host
}
