// Package connectivity walks the network path to an insight provider one
// layer at a time (DNS, TCP, TLS, then an authenticated GET of /models) and
// reports where it breaks.
package connectivity

import (
	"context"
	"crypto/tls"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"
)

// DefaultTimeout bounds each layer when Options.Timeout is unset.
const DefaultTimeout = 10 * time.Second

// Layer names, in the order they run.
const (
	LayerDNS  = "dns"
	LayerTCP  = "tcp"
	LayerTLS  = "tls"
	LayerHTTP = "http_auth"
)

const maxBodyBytes = 32 << 10

// Target is the endpoint under test.
type Target struct {
	AIProvider string
	BaseURL    string
	APIKey     string
}

// Options tune a run. LookupEnv defaults to os.LookupEnv.
type Options struct {
	Timeout   time.Duration
	LookupEnv func(string) (string, bool)
}

// Report is the outcome of one run.
type Report struct {
	Scheme      string  `json:"scheme"`
	Host        string  `json:"host"`
	Port        int     `json:"port"`
	Environment Env     `json:"environment"`
	Checks      []Check `json:"checks"`
	Summary     Summary `json:"summary"`
}

// Env records proxy settings that commonly explain failures.
type Env struct {
	HTTPProxySet   bool `json:"http_proxy_set"`
	HTTPSProxySet  bool `json:"https_proxy_set"`
	NoProxySet     bool `json:"no_proxy_set"`
	NoProxyMatches bool `json:"no_proxy_matches_host"`
}

type Check struct {
	Name      string         `json:"name"`
	OK        bool           `json:"ok,omitempty"`
	Skipped   bool           `json:"skipped,omitempty"`
	LatencyMS int64          `json:"latency_ms,omitempty"`
	Details   map[string]any `json:"details,omitempty"`
	Error     *ErrInfo       `json:"error,omitempty"`
}

type ErrInfo struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

type Summary struct {
	OK             bool     `json:"ok"`
	FailureLayer   string   `json:"failure_layer,omitempty"`
	Classification string   `json:"classification"`
	Hints          []string `json:"hints,omitempty"`
}

// Run checks target layer by layer and stops at the first failing layer.
// An error is returned only when the base URL cannot be interpreted.
func Run(ctx context.Context, target Target, opts Options) (*Report, error) {
	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	lookup := opts.LookupEnv
	if lookup == nil {
		lookup = os.LookupEnv
	}

	scheme, host, port, err := splitBaseURL(target.BaseURL)
	if err != nil {
		return nil, err
	}

	report := &Report{
		Scheme:      scheme,
		Host:        host,
		Port:        port,
		Environment: proxyEnv(lookup, host),
	}

	finish := func(c Check) *Report {
		report.Checks = append(report.Checks, c)
		report.Summary = classify(report)
		return report
	}

	dns := checkDNS(ctx, host, timeout)
	if !dns.OK {
		return finish(dns), nil
	}
	report.Checks = append(report.Checks, dns)

	tcp, conn := checkTCP(ctx, net.JoinHostPort(host, strconv.Itoa(port)), timeout)
	if !tcp.OK {
		return finish(tcp), nil
	}
	report.Checks = append(report.Checks, tcp)

	var tlsCheck Check
	if scheme == "https" {
		tlsCheck = checkTLS(ctx, host, conn, timeout)
	} else {
		_ = conn.Close()
		tlsCheck = Check{Name: LayerTLS, Skipped: true, Details: map[string]any{"reason": "plain http base_url"}}
	}
	if !tlsCheck.OK && !tlsCheck.Skipped {
		return finish(tlsCheck), nil
	}
	report.Checks = append(report.Checks, tlsCheck)

	return finish(checkHTTPAuth(ctx, target, timeout)), nil
}

func splitBaseURL(raw string) (scheme, host string, port int, err error) {
	u, err := url.Parse(strings.TrimSpace(raw))
	if err != nil {
		return "", "", 0, fmt.Errorf("parse base_url: %w", err)
	}
	scheme = strings.ToLower(u.Scheme)
	if scheme != "http" && scheme != "https" {
		return "", "", 0, fmt.Errorf("base_url %q: scheme must be http or https", raw)
	}
	host = u.Hostname()
	if host == "" {
		return "", "", 0, errors.New("base_url has no host")
	}

	port = 443
	if scheme == "http" {
		port = 80
	}
	if p := u.Port(); p != "" {
		if port, err = strconv.Atoi(p); err != nil {
			return "", "", 0, fmt.Errorf("base_url port %q: %w", p, err)
		}
	}
	return scheme, host, port, nil
}

func checkDNS(ctx context.Context, host string, timeout time.Duration) Check {
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	start := time.Now()
	addrs, err := net.DefaultResolver.LookupIPAddr(ctx, host)
	check := Check{Name: LayerDNS, LatencyMS: time.Since(start).Milliseconds()}
	if err != nil {
		check.Error = &ErrInfo{Code: "DNS_ERROR", Message: err.Error()}
		return check
	}

	ips := make([]string, 0, len(addrs))
	for _, a := range addrs {
		ips = append(ips, a.IP.String())
	}
	check.OK = true
	check.Details = map[string]any{"resolved_ips": ips}
	return check
}

func checkTCP(ctx context.Context, addr string, timeout time.Duration) (Check, net.Conn) {
	dialer := &net.Dialer{Timeout: timeout}

	start := time.Now()
	conn, err := dialer.DialContext(ctx, "tcp", addr)
	check := Check{Name: LayerTCP, LatencyMS: time.Since(start).Milliseconds()}
	if err != nil {
		check.Error = &ErrInfo{Code: "TCP_ERROR", Message: err.Error()}
		return check, nil
	}
	check.OK = true
	check.Details = map[string]any{"remote_addr": conn.RemoteAddr().String()}
	return check, conn
}

// checkTLS handshakes over conn and closes it.
func checkTLS(ctx context.Context, host string, conn net.Conn, timeout time.Duration) Check {
	_ = conn.SetDeadline(time.Now().Add(timeout))
	client := tls.Client(conn, &tls.Config{ServerName: host, MinVersion: tls.VersionTLS12})
	defer func() { _ = client.Close() }()

	start := time.Now()
	err := client.HandshakeContext(ctx)
	check := Check{Name: LayerTLS, LatencyMS: time.Since(start).Milliseconds()}
	if err != nil {
		check.Error = &ErrInfo{Code: "TLS_ERROR", Message: err.Error()}
		return check
	}

	check.OK = true
	state := client.ConnectionState()
	if len(state.PeerCertificates) == 0 {
		return check
	}
	leaf := state.PeerCertificates[0]
	nameMatch := leaf.VerifyHostname(host) == nil
	check.Details = map[string]any{
		"tls_version":         tls.VersionName(state.Version),
		"cipher_suite":        tls.CipherSuiteName(state.CipherSuite),
		"cert_subject":        leaf.Subject.CommonName,
		"cert_issuer":         leaf.Issuer.CommonName,
		"cert_not_after":      leaf.NotAfter.UTC().Format(time.RFC3339),
		"server_name_match":   nameMatch,
		"intercept_suspected": !nameMatch || interceptIssuer(leaf.Issuer.CommonName, leaf.Subject.CommonName),
	}
	return check
}

var interceptKeywords = []string{"zscaler", "netskope", "bluecoat", "fortinet", "proxy", "corporate", "inspection"}

func interceptIssuer(names ...string) bool {
	for _, name := range names {
		name = strings.ToLower(name)
		for _, kw := range interceptKeywords {
			if strings.Contains(name, kw) {
				return true
			}
		}
	}
	return false
}

// authStatus maps /models status codes to check error codes.
var authStatus = map[int]string{
	http.StatusUnauthorized:       "AUTH_ERROR",
	http.StatusForbidden:          "AUTH_ERROR",
	http.StatusTooManyRequests:    "RATE_LIMITED",
	http.StatusBadGateway:         "PROVIDER_UNAVAILABLE",
	http.StatusServiceUnavailable: "PROVIDER_UNAVAILABLE",
	http.StatusGatewayTimeout:     "PROVIDER_UNAVAILABLE",
}

func checkHTTPAuth(ctx context.Context, target Target, timeout time.Duration) Check {
	check := Check{Name: LayerHTTP}
	switch strings.ToLower(strings.TrimSpace(target.AIProvider)) {
	case "openai", "eino":
	default:
		check.Skipped = true
		check.Details = map[string]any{"reason": "no auth check for ai_provider " + target.AIProvider}
		return check
	}
	apiKey := strings.TrimSpace(target.APIKey)
	if apiKey == "" {
		check.Error = &ErrInfo{Code: "NO_API_KEY", Message: "selected credential has no api_key"}
		return check
	}

	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	modelsURL := strings.TrimRight(strings.TrimSpace(target.BaseURL), "/") + "/models"
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, modelsURL, nil)
	if err != nil {
		check.Error = &ErrInfo{Code: "HTTP_REQUEST_ERROR", Message: err.Error()}
		return check
	}
	req.Header.Set("Authorization", "Bearer "+apiKey)
	req.Header.Set("Accept", "application/json")

	start := time.Now()
	resp, err := (&http.Client{Timeout: timeout}).Do(req)
	check.LatencyMS = time.Since(start).Milliseconds()
	if err != nil {
		check.Error = &ErrInfo{Code: "HTTP_ERROR", Message: err.Error()}
		return check
	}
	defer func() { _ = resp.Body.Close() }()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		check.Error = &ErrInfo{Code: "HTTP_READ_ERROR", Message: err.Error()}
		return check
	}

	contentType := resp.Header.Get("Content-Type")
	check.Details = map[string]any{
		"url":          modelsURL,
		"status_code":  resp.StatusCode,
		"content_type": contentType,
	}
	addBodySnippet(check.Details, contentType, body)

	switch {
	case resp.StatusCode == http.StatusOK:
		check.OK = true
	case authStatus[resp.StatusCode] != "":
		check.Error = &ErrInfo{Code: authStatus[resp.StatusCode], Message: resp.Status}
	default:
		check.Error = &ErrInfo{Code: "HTTP_STATUS_ERROR", Message: resp.Status}
	}
	return check
}
