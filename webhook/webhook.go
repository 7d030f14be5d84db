// Package webhook posts signed event notifications to caller-supplied URLs.
package webhook

import (
	"bytes"
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"net/url"
	"sync"
	"syscall"
	"time"
)

// SignatureHeader carries "sha256=<hex>" when a secret is configured.
const SignatureHeader = "X-Propscrape-Signature"

// EventBatchCompleted is sent once a batch has finished.
const EventBatchCompleted = "batch.completed"

// Event is the payload sent to webhook endpoints.
type Event struct {
	Type      string `json:"type"`
	JobID     string `json:"job_id"`
	Timestamp int64  `json:"timestamp"`
	Data      any    `json:"data"`
}

// NewEvent stamps an event with the current time.
func NewEvent(typ, jobID string, data any) *Event {
	return &Event{Type: typ, JobID: jobID, Timestamp: time.Now().Unix(), Data: data}
}

// Sign returns the hex HMAC-SHA256 of body under secret.
func Sign(secret string, body []byte) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write(body)
	return hex.EncodeToString(mac.Sum(nil))
}

// DefaultDelays is the wait before each attempt: immediate, then 1s, 5s, 30s.
var DefaultDelays = []time.Duration{0, time.Second, 5 * time.Second, 30 * time.Second}

// ErrBlockedDestination is returned for webhook URLs that point at
// loopback, private, link-local or unspecified addresses.
var ErrBlockedDestination = errors.New("webhook: destination address is not allowed")

// Notifier delivers events with retries and tracks in-flight deliveries so
// shutdown can wait for them.
type Notifier struct {
	// AllowPrivate lifts the destination address check, for local
	// development and tests.
	AllowPrivate bool

	client   *http.Client
	delays   []time.Duration
	resolver *net.Resolver
	wg       sync.WaitGroup
}

// NewNotifier returns a Notifier. A nil delays slice uses DefaultDelays.
// A nil client gets a transport that refuses to dial blocked addresses,
// which also covers names that resolve differently at delivery time.
func NewNotifier(client *http.Client, delays []time.Duration) *Notifier {
	if delays == nil {
		delays = DefaultDelays
	}
	n := &Notifier{client: client, delays: delays, resolver: net.DefaultResolver}
	if n.client == nil {
		dialer := &net.Dialer{Timeout: 5 * time.Second, Control: n.controlDial}
		n.client = &http.Client{
			Timeout:   10 * time.Second,
			Transport: &http.Transport{DialContext: dialer.DialContext},
		}
	}
	return n
}

func blockedIP(ip net.IP) bool {
	return ip.IsLoopback() || ip.IsPrivate() || ip.IsUnspecified() ||
		ip.IsLinkLocalUnicast() || ip.IsLinkLocalMulticast() || ip.IsMulticast()
}

func (n *Notifier) controlDial(_, address string, _ syscall.RawConn) error {
	if n.AllowPrivate {
		return nil
	}
	host, _, err := net.SplitHostPort(address)
	if err != nil {
		return err
	}
	if ip := net.ParseIP(host); ip != nil && blockedIP(ip) {
		return fmt.Errorf("%w: %s", ErrBlockedDestination, host)
	}
	return nil
}

// CheckURL reports whether raw is an absolute http(s) URL whose host does
// not resolve to a blocked address.
func (n *Notifier) CheckURL(ctx context.Context, raw string) error {
	u, err := url.Parse(raw)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Hostname() == "" {
		return fmt.Errorf("webhook: %q is not an absolute http(s) URL", raw)
	}
	if n.AllowPrivate {
		return nil
	}

	host := u.Hostname()
	if ip := net.ParseIP(host); ip != nil {
		if blockedIP(ip) {
			return fmt.Errorf("%w: %s", ErrBlockedDestination, host)
		}
		return nil
	}
	addrs, err := n.resolver.LookupIPAddr(ctx, host)
	if err != nil {
		return fmt.Errorf("webhook: resolve %s: %w", host, err)
	}
	for _, a := range addrs {
		if blockedIP(a.IP) {
			return fmt.Errorf("%w: %s resolves to %s", ErrBlockedDestination, host, a.IP)
		}
	}
	return nil
}

// Deliver sends one event synchronously.
func (n *Notifier) Deliver(ctx context.Context, url, secret string, event *Event) error {
	body, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("webhook: marshal event: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("webhook: create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("User-Agent", "Propscrape-Webhook/1.0")
	if secret != "" {
		req.Header.Set(SignatureHeader, "sha256="+Sign(secret, body))
	}

	resp, err := n.client.Do(req)
	if err != nil {
		return fmt.Errorf("webhook: deliver: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		return fmt.Errorf("webhook: endpoint returned status %d", resp.StatusCode)
	}
	return nil
}

// DeliverAsync sends the event in the background, retrying on failure
// according to the configured delays.
func (n *Notifier) DeliverAsync(url, secret string, event *Event) {
	n.wg.Add(1)
	go func() {
		defer n.wg.Done()
		for attempt, delay := range n.delays {
			if delay > 0 {
				time.Sleep(delay)
			}
			ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			err := n.Deliver(ctx, url, secret, event)
			cancel()
			if err == nil {
				slog.Info("webhook delivered",
					"url", url,
					"event", event.Type,
					"job_id", event.JobID,
					"attempt", attempt+1,
				)
				return
			}
			slog.Warn("webhook delivery failed",
				"url", url,
				"event", event.Type,
				"job_id", event.JobID,
				"attempt", attempt+1,
				"error", err,
			)
		}
		slog.Error("webhook delivery exhausted all retries",
			"url", url,
			"event", event.Type,
			"job_id", event.JobID,
		)
	}()
}

// Wait blocks until every pending DeliverAsync call has finished.
func (n *Notifier) Wait() {
	n.wg.Wait()
}
