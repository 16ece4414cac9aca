package alert

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/jpalmerr/slotwatch"
)

const (
	// DefaultNtfyServer is the public ntfy instance.
	DefaultNtfyServer = "https://ntfy.sh"

	ntfyTimeout      = 10 * time.Second
	ntfyMaxLines     = 10
	ntfyDefaultTitle = "Vaccination slots available"
)

// Ntfy publishes one push notification per alert to an ntfy topic.
// Publishing happens in a goroutine; failures are logged.
type Ntfy struct {
	endpoint string
	title    string
	priority int
	tags     []string
	client   *http.Client
	logger   *slog.Logger

	wg sync.WaitGroup
}

// NtfyOption configures an [Ntfy] sink.
type NtfyOption func(*Ntfy) error

// WithNtfyServer overrides [DefaultNtfyServer], for self-hosted instances.
func WithNtfyServer(server string) NtfyOption {
	return func(n *Ntfy) error {
		u, err := url.Parse(server)
		if err != nil || (u.Scheme != "http" && u.Scheme != "https") {
			return fmt.Errorf("invalid ntfy server %q", server)
		}
		n.endpoint = strings.TrimRight(server, "/")
		return nil
	}
}

// WithNtfyTitle sets the notification title.
func WithNtfyTitle(title string) NtfyOption {
	return func(n *Ntfy) error {
		n.title = title
		return nil
	}
}

// WithNtfyPriority sets the priority, 1 (min) to 5 (max). Defaults to 4.
func WithNtfyPriority(p int) NtfyOption {
	return func(n *Ntfy) error {
		if p < 1 || p > 5 {
			return fmt.Errorf("ntfy priority must be between 1 and 5, got %d", p)
		}
		n.priority = p
		return nil
	}
}

// WithNtfyLogger sets the logger receiving publish failures.
func WithNtfyLogger(logger *slog.Logger) NtfyOption {
	return func(n *Ntfy) error {
		if logger == nil {
			return errors.New("logger cannot be nil")
		}
		n.logger = logger
		return nil
	}
}

// NewNtfy creates a sink publishing to topic.
func NewNtfy(topic string, opts ...NtfyOption) (*Ntfy, error) {
	if topic == "" || strings.ContainsAny(topic, "/?# ") {
		return nil, fmt.Errorf("invalid ntfy topic %q", topic)
	}

	n := &Ntfy{
		endpoint: DefaultNtfyServer,
		title:    ntfyDefaultTitle,
		priority: 4,
		tags:     []string{"syringe", "tada"},
		client:   &http.Client{Timeout: ntfyTimeout},
		logger:   slog.Default(),
	}
	for _, opt := range opts {
		if err := opt(n); err != nil {
			return nil, err
		}
	}
	n.endpoint = n.endpoint + "/" + topic
	return n, nil
}

// Trigger publishes the alert in the background.
func (n *Ntfy) Trigger(a slotwatch.Alert) {
	body := ntfyMessage(a)

	n.wg.Add(1)
	go func() {
		defer n.wg.Done()

		ctx, cancel := context.WithTimeout(context.Background(), ntfyTimeout)
		defer cancel()

		if err := n.publish(ctx, body); err != nil {
			n.logger.Warn("ntfy publish failed",
				"session_id", a.SessionID,
				"tick", a.Tick,
				"error", err.Error(),
			)
			return
		}
		n.logger.Debug("ntfy notification sent", "session_id", a.SessionID, "tick", a.Tick)
	}()
}

// Wait blocks until every publish started so far has finished.
func (n *Ntfy) Wait() {
	n.wg.Wait()
}

func (n *Ntfy) publish(ctx context.Context, body string) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, n.endpoint, strings.NewReader(body))
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("Content-Type", "text/plain")
	req.Header.Set("Title", n.title)
	req.Header.Set("Priority", strconv.Itoa(n.priority))
	if len(n.tags) > 0 {
		req.Header.Set("Tags", strings.Join(n.tags, ","))
	}

	resp, err := n.client.Do(req)
	if err != nil {
		return err
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		b, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return fmt.Errorf("unexpected status %s: %s", resp.Status, strings.TrimSpace(string(b)))
	}
	return nil
}

// ntfyMessage renders one line per match, capped at ntfyMaxLines.
func ntfyMessage(a slotwatch.Alert) string {
	var b strings.Builder
	for i, m := range a.Matches {
		if i == ntfyMaxLines {
			fmt.Fprintf(&b, "... and %d more\n", len(a.Matches)-ntfyMaxLines)
			break
		}
		fmt.Fprintf(&b, "%s (%s, %s): %d x %s %d+ on %s\n",
			m.CenterName, m.District, m.PinCode, m.AvailableCapacity, m.Vaccine, m.MinAgeLimit, m.Date)
	}
	return strings.TrimSuffix(b.String(), "\n")
}
