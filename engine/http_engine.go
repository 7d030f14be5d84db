package engine

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"strings"
	"time"

	tls "github.com/refraction-networking/utls"
	"golang.org/x/net/html/charset"

	"github.com/use-agent/propscrape/config"
	"github.com/use-agent/propscrape/models"
)

const (
	chromeUA = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/131.0.0.0 Safari/537.36"

	// maxBody caps how much of a response is read.
	maxBody = 10 << 20
)

// chromeH1Spec is a Chrome-like TLS ClientHello with ALPN forced to http/1.1
// only. Computed once at init time and reused for every connection.
var chromeH1Spec tls.ClientHelloSpec

func init() {
	spec, err := tls.UTLSIdToSpec(tls.HelloChrome_Auto)
	if err != nil {
		return
	}
	// Go's http.Transport cannot speak h2 over a utls connection.
	for i, ext := range spec.Extensions {
		if alpn, ok := ext.(*tls.ALPNExtension); ok {
			alpn.AlpnProtocols = []string{"http/1.1"}
			spec.Extensions[i] = alpn
			break
		}
	}
	chromeH1Spec = spec
}

// HTTPEngine fetches static HTML over plain HTTP with a browser-like TLS
// fingerprint and headers. It never retries.
type HTTPEngine struct {
	client       *http.Client
	relayURL     string
	userAgent    string
	minBodyBytes int
}

// NewHTTPEngine builds an engine from the fetcher configuration. Timeout
// and MaxRedirects are always finite; zero values fall back to 10s and 5.
func NewHTTPEngine(cfg config.FetcherConfig) *HTTPEngine {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	maxRedirects := cfg.MaxRedirects
	if maxRedirects <= 0 {
		maxRedirects = 5
	}
	ua := cfg.UserAgent
	if ua == "" {
		ua = chromeUA
	}

	transport := &http.Transport{
		DialTLSContext: func(ctx context.Context, network, addr string) (net.Conn, error) {
			dialer := &net.Dialer{Timeout: timeout}
			conn, err := dialer.DialContext(ctx, network, addr)
			if err != nil {
				return nil, err
			}
			host, _, _ := net.SplitHostPort(addr)
			tlsConn := tls.UClient(conn, &tls.Config{ServerName: host}, tls.HelloCustom)
			if err := tlsConn.ApplyPreset(&chromeH1Spec); err != nil {
				conn.Close()
				return nil, fmt.Errorf("http_engine: apply tls spec: %w", err)
			}
			if err := tlsConn.HandshakeContext(ctx); err != nil {
				conn.Close()
				return nil, err
			}
			return tlsConn, nil
		},
		ForceAttemptHTTP2: false,
	}
	if cfg.Proxy != "" {
		proxyURL, err := url.Parse(cfg.Proxy)
		if err == nil && (proxyURL.Scheme == "http" || proxyURL.Scheme == "https") {
			transport.Proxy = http.ProxyURL(proxyURL)
		}
	}

	return &HTTPEngine{
		client: &http.Client{
			Transport: transport,
			Timeout:   timeout,
			CheckRedirect: func(req *http.Request, via []*http.Request) error {
				if len(via) > maxRedirects {
					return fmt.Errorf("stopped after %d redirects", maxRedirects)
				}
				return nil
			},
		},
		relayURL:     cfg.RelayURL,
		userAgent:    ua,
		minBodyBytes: cfg.MinBodyBytes,
	}
}

func (e *HTTPEngine) Name() string {
	if e.relayURL != "" {
		return "relay"
	}
	return "http"
}

func (e *HTTPEngine) Fetch(ctx context.Context, targetURL string) (*models.RawDocument, error) {
	requestURL := e.requestURL(targetURL)

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, requestURL, nil)
	if err != nil {
		return nil, models.NewScrapeError(models.ErrCodeFetch, "invalid request URL", err)
	}

	httpReq.Header.Set("User-Agent", e.userAgent)
	httpReq.Header.Set("Accept", "text/html,application/xhtml+xml,application/xml;q=0.9,image/avif,image/webp,*/*;q=0.8")
	httpReq.Header.Set("Accept-Language", "en-ZA,en;q=0.9")
	httpReq.Header.Set("Cache-Control", "no-cache")

	resp, err := e.client.Do(httpReq)
	if err != nil {
		return nil, classifyTransportError(targetURL, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		se := models.NewScrapeError(models.ErrCodeFetch,
			fmt.Sprintf("upstream returned HTTP %d for %s", resp.StatusCode, targetURL), nil)
		se.StatusCode = resp.StatusCode
		return nil, se
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBody))
	if err != nil {
		return nil, classifyTransportError(targetURL, err)
	}

	// Interstitials and soft redirects often answer 200 with a near-empty page.
	if len(body) < e.minBodyBytes {
		se := models.NewScrapeError(models.ErrCodeFetch,
			fmt.Sprintf("response body too small (%d bytes) for %s", len(body), targetURL), nil)
		se.StatusCode = resp.StatusCode
		return nil, se
	}

	ct := resp.Header.Get("Content-Type")
	finalURL := targetURL
	if e.relayURL == "" && resp.Request != nil && resp.Request.URL != nil {
		finalURL = resp.Request.URL.String()
	}

	return &models.RawDocument{
		URL:         targetURL,
		FinalURL:    finalURL,
		StatusCode:  resp.StatusCode,
		ContentType: ct,
		HTML:        decodeBody(body, ct),
		Bytes:       len(body),
	}, nil
}

// requestURL rewrites targetURL through the relay when one is configured.
func (e *HTTPEngine) requestURL(targetURL string) string {
	if e.relayURL == "" {
		return targetURL
	}
	escaped := url.QueryEscape(targetURL)
	if strings.Contains(e.relayURL, "{url}") {
		return strings.Replace(e.relayURL, "{url}", escaped, 1)
	}
	return e.relayURL + escaped
}

// decodeBody converts the body to UTF-8 using the declared or sniffed charset.
func decodeBody(body []byte, contentType string) string {
	r, err := charset.NewReader(strings.NewReader(string(body)), contentType)
	if err != nil {
		return string(body)
	}
	decoded, err := io.ReadAll(r)
	if err != nil {
		return string(body)
	}
	return string(decoded)
}

func classifyTransportError(targetURL string, err error) *models.ScrapeError {
	var netErr net.Error
	if errors.Is(err, context.DeadlineExceeded) || (errors.As(err, &netErr) && netErr.Timeout()) {
		return models.NewScrapeError(models.ErrCodeFetchTimeout,
			fmt.Sprintf("timed out fetching %s", targetURL), err)
	}
	return models.NewScrapeError(models.ErrCodeFetch,
		fmt.Sprintf("request failed for %s", targetURL), err)
}
