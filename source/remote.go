package source

import (
	"context"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"strings"
	"time"
)

// Pre-compiled CIDR networks for reserved ranges not covered by net.IP helpers.
var (
	cgnat    = mustCIDR("100.64.0.0/10")
	v6unique = mustCIDR("fc00::/7")
)

func mustCIDR(s string) *net.IPNet {
	_, n, err := net.ParseCIDR(s)
	if err != nil {
		panic("invalid CIDR " + s + ": " + err.Error())
	}
	return n
}

// Fetcher downloads remote inputs.
type Fetcher struct {
	// Client performs the requests; nil uses a client with a 2 minute timeout.
	Client *http.Client
	// AllowPrivate permits plain HTTP and hosts on loopback or private
	// networks. Published pipelines only read public HTTPS locations.
	AllowPrivate bool
}

// IsRemote reports whether location is an http(s) URL.
func IsRemote(location string) bool {
	return strings.HasPrefix(location, "https://") || strings.HasPrefix(location, "http://")
}

// ValidateURL checks that a remote location is a public HTTPS URL.
func ValidateURL(rawURL string) error {
	parsed, err := url.Parse(rawURL)
	if err != nil {
		return fmt.Errorf("invalid URL: %w", err)
	}
	if parsed.Scheme != "https" {
		return fmt.Errorf("only HTTPS URLs are allowed: %s", rawURL)
	}

	host := strings.ToLower(parsed.Hostname())
	if host == "" {
		return fmt.Errorf("URL has no host: %s", rawURL)
	}
	if host == "localhost" || strings.HasSuffix(host, ".local") || strings.HasSuffix(host, ".internal") {
		return fmt.Errorf("local hosts are not allowed: %s", host)
	}
	if ip := net.ParseIP(host); ip != nil && IsPrivateIP(ip) {
		return fmt.Errorf("private IP addresses are not allowed: %s", host)
	}
	return nil
}

// IsPrivateIP checks if an IP is in a private or reserved range.
func IsPrivateIP(ip net.IP) bool {
	if ip.IsLoopback() || ip.IsPrivate() || ip.IsLinkLocalUnicast() || ip.IsLinkLocalMulticast() || ip.IsUnspecified() {
		return true
	}
	if v4 := ip.To4(); v4 != nil {
		ip = v4
	}
	return cgnat.Contains(ip) || v6unique.Contains(ip)
}

// Open starts a GET request for rawURL and returns the response body.
func (f *Fetcher) Open(ctx context.Context, rawURL string) (io.ReadCloser, error) {
	if !f.AllowPrivate {
		if err := ValidateURL(rawURL); err != nil {
			return nil, err
		}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}

	client := f.Client
	if client == nil {
		client = &http.Client{Timeout: 2 * time.Minute}
	}
	resp, err := client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch %s: %w", rawURL, err)
	}
	if resp.StatusCode != http.StatusOK {
		resp.Body.Close()
		return nil, fmt.Errorf("fetch %s: unexpected status %s", rawURL, resp.Status)
	}
	return resp.Body, nil
}
