// Package proxypool reads the optional proxy list and hands out endpoints
// to wallets by position.
package proxypool

import (
	"fmt"
	"net/http"
	"net/url"
	"os"
	"strings"
	"time"

	"golang.org/x/net/proxy"
)

// Pool is an ordered list of proxy endpoints. Endpoint i mod len(pool) is
// paired with the i-th attempt of a cycle, so a pool smaller than the
// wallet list wraps around.
type Pool struct {
	endpoints []string
}

// Load reads proxies from path, one per line, `scheme://[user:pass@]host:port`.
// The file is optional: a missing file yields an empty pool and no error,
// and the run proceeds without proxying.
func Load(path string) (*Pool, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return &Pool{}, nil
		}
		return nil, fmt.Errorf("reading proxy file %s: %w", path, err)
	}

	var endpoints []string
	for _, line := range strings.Split(string(data), "\n") {
		if trimmed := strings.TrimSpace(line); trimmed != "" && !strings.HasPrefix(trimmed, "#") {
			endpoints = append(endpoints, normalize(trimmed))
		}
	}

	return &Pool{endpoints: endpoints}, nil
}

// New builds a pool from endpoints directly.
func New(endpoints []string) *Pool {
	normalized := make([]string, len(endpoints))
	for i, e := range endpoints {
		normalized[i] = normalize(e)
	}
	return &Pool{endpoints: normalized}
}

// normalize defaults a bare host:port to an http proxy URL.
func normalize(endpoint string) string {
	if strings.Contains(endpoint, "://") {
		return endpoint
	}
	return "http://" + endpoint
}

// Len returns the number of endpoints in the pool.
func (p *Pool) Len() int { return len(p.endpoints) }

// ForIndex returns endpoints[i mod len], or "" for an empty pool.
func (p *Pool) ForIndex(i int) string {
	if len(p.endpoints) == 0 {
		return ""
	}
	return p.endpoints[i%len(p.endpoints)]
}

// HTTPClient builds an *http.Client routed through the given endpoint.
// An empty endpoint returns a direct client. http/https proxies go through
// Transport.Proxy; socks5 through a x/net/proxy dialer.
func HTTPClient(endpoint string, timeout time.Duration) (*http.Client, error) {
	if endpoint == "" {
		return &http.Client{Timeout: timeout}, nil
	}

	u, err := url.Parse(normalize(endpoint))
	if err != nil {
		return nil, fmt.Errorf("parsing proxy %s: %w", endpoint, err)
	}

	switch u.Scheme {
	case "http", "https":
		return &http.Client{
			Transport: &http.Transport{Proxy: http.ProxyURL(u)},
			Timeout:   timeout,
		}, nil
	case "socks5", "socks5h":
		var auth *proxy.Auth
		if u.User != nil {
			pass, _ := u.User.Password()
			auth = &proxy.Auth{User: u.User.Username(), Password: pass}
		}
		dialer, err := proxy.SOCKS5("tcp", u.Host, auth, proxy.Direct)
		if err != nil {
			return nil, fmt.Errorf("building socks5 dialer for %s: %w", u.Host, err)
		}
		contextDialer, ok := dialer.(proxy.ContextDialer)
		if !ok {
			return nil, fmt.Errorf("socks5 dialer for %s does not support contexts", u.Host)
		}
		return &http.Client{
			Transport: &http.Transport{DialContext: contextDialer.DialContext},
			Timeout:   timeout,
		}, nil
	default:
		return nil, fmt.Errorf("unsupported proxy scheme %q", u.Scheme)
	}
}
