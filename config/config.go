// Package config provides YAML configuration parsing for the slotwatch CLI.
//
// It lets the monitor run as a standalone binary with a configuration file,
// as an alternative to building a [slotwatch.Form] in code.
//
// Example configuration:
//
//	mode: district
//	state_id: 21
//	district_ids: [363, 395]
//	age_18_plus: true
//	poll_interval: 30s
//	dashboard_port: 8080
//
//	notify:
//	  bell: true
//	  ntfy:
//	    topic: ${NTFY_TOPIC}
//	  email:
//	    host: smtp.gmail.com
//	    port: 587
//	    username: me@gmail.com
//	    password: ${SMTP_PASSWORD}
//	    from: me@gmail.com
//	    to: [me@gmail.com]
package config

import (
	"fmt"
	"net/url"
	"os"
	"regexp"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// minTimeout is the minimum per-request timeout accepted from a config file.
const minTimeout = 1 * time.Second

// Config is the root configuration structure.
//
// It maps directly to the YAML configuration file structure.
// Use [Load] or [Parse] to create a Config from YAML.
type Config struct {
	// Title is the dashboard title. Defaults to "slotwatch" if not set.
	Title string `yaml:"title"`

	// Mode is "district" or "pincode". Defaults to "district".
	Mode string `yaml:"mode"`

	// StateID is the state whose districts are monitored (district mode).
	StateID int `yaml:"state_id"`

	// DistrictIDs are the monitored districts (district mode).
	DistrictIDs []int `yaml:"district_ids"`

	// PinCode is the monitored pin code (pincode mode). Accepts a number
	// or a string.
	PinCode PinCode `yaml:"pincode"`

	// Age18Plus selects sessions for the 18+ group. Defaults to true.
	Age18Plus *bool `yaml:"age_18_plus"`

	// Age45Plus selects sessions for the 45+ group. Defaults to false.
	Age45Plus *bool `yaml:"age_45_plus"`

	// Alert enables notifications on new matches. Defaults to true.
	Alert *bool `yaml:"alert"`

	// PollInterval is the time between ticks. Must be one of 20s, 30s, 45s,
	// 90s, 2m or 3m. Defaults to 20s.
	PollInterval Duration `yaml:"poll_interval"`

	// Dedupe lists each (center, session, date) once per session instead
	// of once per tick.
	Dedupe bool `yaml:"dedupe"`

	// DiscardLateResults drops results that arrive after the session stops.
	DiscardLateResults bool `yaml:"discard_late_results"`

	// MaxConcurrency bounds the queries in flight. Defaults to 10.
	MaxConcurrency int `yaml:"max_concurrency"`

	// DashboardPort serves the local dashboard on 127.0.0.1 when set.
	// Zero disables the dashboard.
	DashboardPort int `yaml:"dashboard_port"`

	// API configures the remote appointment API.
	API APIConfig `yaml:"api"`

	// Notify configures the alert sinks.
	Notify NotifyConfig `yaml:"notify"`
}

// APIConfig configures the remote appointment API.
type APIConfig struct {
	// BaseURL overrides the public API root.
	// Supports environment variable substitution: ${VAR} or ${VAR:-default}
	BaseURL string `yaml:"base_url"`

	// Timeout is the per-request timeout. Defaults to 10s.
	Timeout Duration `yaml:"timeout"`

	// Headers are extra HTTP headers sent with each request.
	// Values support environment variable substitution.
	Headers map[string]string `yaml:"headers"`
}

// NotifyConfig configures the alert sinks. Every configured sink receives
// every alert.
type NotifyConfig struct {
	// Bell rings the terminal bell. Defaults to true.
	Bell *bool `yaml:"bell"`

	// Pulses is the number of bell rings per alert. Defaults to 5.
	Pulses int `yaml:"pulses"`

	// PulseInterval is the delay between rings. Defaults to 1s.
	PulseInterval Duration `yaml:"pulse_interval"`

	// Ntfy pushes a notification to an ntfy topic when set.
	Ntfy *NtfyConfig `yaml:"ntfy"`

	// Email sends an HTML summary over SMTP when set.
	Email *EmailConfig `yaml:"email"`
}

// NtfyConfig configures ntfy push notifications.
type NtfyConfig struct {
	// Topic is the ntfy topic. Supports environment variable substitution.
	Topic string `yaml:"topic"`

	// Server overrides https://ntfy.sh.
	Server string `yaml:"server"`

	// Priority is 1 (min) to 5 (max). Defaults to 4.
	Priority int `yaml:"priority"`
}

// EmailConfig configures SMTP e-mail alerts.
type EmailConfig struct {
	Host string `yaml:"host"`
	Port int    `yaml:"port"`

	// Username and Password authenticate with PLAIN auth when Username is
	// set. Both support environment variable substitution.
	Username string `yaml:"username"`
	Password string `yaml:"password"`

	From string   `yaml:"from"`
	To   []string `yaml:"to"`
}

// Duration wraps time.Duration for YAML unmarshalling.
type Duration time.Duration

// UnmarshalYAML implements yaml.Unmarshaler for Duration.
func (d *Duration) UnmarshalYAML(node *yaml.Node) error {
	var s string
	if err := node.Decode(&s); err != nil {
		return err
	}

	parsed, err := time.ParseDuration(s)
	if err != nil {
		return fmt.Errorf("invalid duration %q: %w", s, err)
	}

	*d = Duration(parsed)
	return nil
}

// Duration returns the underlying time.Duration value.
func (d Duration) Duration() time.Duration {
	return time.Duration(d)
}

// PinCode is a pin code written either as a YAML number or string.
type PinCode string

// UnmarshalYAML implements yaml.Unmarshaler for PinCode.
func (p *PinCode) UnmarshalYAML(node *yaml.Node) error {
	if node.Kind != yaml.ScalarNode {
		return fmt.Errorf("pincode must be a number or string, got %v", node.Kind)
	}
	*p = PinCode(strings.TrimSpace(node.Value))
	return nil
}

// envVarPattern matches ${VAR} and ${VAR:-default} patterns.
// Group 1: variable name
// Group 2: the ":-default" part (if present, indicates a default was specified)
// Group 3: the default value (may be empty for ${VAR:-})
var envVarPattern = regexp.MustCompile(`\$\{([^}:]+)(:-([^}]*))?\}`)

// expandEnvVars replaces ${VAR} and ${VAR:-default} patterns with environment values.
func expandEnvVars(s string) (string, error) {
	var firstErr error

	result := envVarPattern.ReplaceAllStringFunc(s, func(match string) string {
		if firstErr != nil {
			return match
		}

		submatches := envVarPattern.FindStringSubmatch(match)
		if len(submatches) < 2 {
			return match
		}

		varName := submatches[1]
		hasDefault := len(submatches) > 2 && submatches[2] != ""
		defaultVal := ""
		if hasDefault && len(submatches) > 3 {
			defaultVal = submatches[3]
		}

		value, exists := os.LookupEnv(varName)
		if !exists {
			if hasDefault {
				return defaultVal
			}
			firstErr = fmt.Errorf("environment variable %q is not set", varName)
			return match
		}
		return value
	})

	if firstErr != nil {
		return "", firstErr
	}
	return result, nil
}

// Load reads and parses a YAML configuration file.
//
// Environment variables in the file are expanded before parsing.
// Returns an error if the file cannot be read or parsed.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}
	return Parse(data)
}

// Parse parses YAML configuration data.
//
// Environment variables are expanded in the API base URL and headers, the
// ntfy topic and server, and the SMTP credentials. Defaults are applied for
// Mode (district), PollInterval (20s) and MaxConcurrency (10).
//
// Parse checks the file's own settings. Whether the search criteria form a
// complete filter is checked by [BuildForm].
func Parse(data []byte) (*Config, error) {
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}

	if cfg.Mode == "" {
		cfg.Mode = "district"
	}
	if cfg.PollInterval == 0 {
		cfg.PollInterval = Duration(20 * time.Second)
	}
	if cfg.MaxConcurrency == 0 {
		cfg.MaxConcurrency = 10
	}

	if err := cfg.expandAndValidate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// expandAndValidate expands environment variables and validates the config.
func (c *Config) expandAndValidate() error {
	if c.MaxConcurrency < 0 {
		return fmt.Errorf("max_concurrency must be positive, got %d", c.MaxConcurrency)
	}
	if c.DashboardPort < 0 || c.DashboardPort > 65535 {
		return fmt.Errorf("dashboard_port must be between 1 and 65535, got %d", c.DashboardPort)
	}

	if err := c.API.expandAndValidate(); err != nil {
		return fmt.Errorf("api: %w", err)
	}

	n := &c.Notify
	if n.Pulses < 0 {
		return fmt.Errorf("notify: pulses cannot be negative, got %d", n.Pulses)
	}
	if n.PulseInterval.Duration() < 0 {
		return fmt.Errorf("notify: pulse_interval cannot be negative, got %s", n.PulseInterval.Duration())
	}
	if n.Ntfy != nil {
		if err := n.Ntfy.expandAndValidate(); err != nil {
			return fmt.Errorf("notify.ntfy: %w", err)
		}
	}
	if n.Email != nil {
		if err := n.Email.expandAndValidate(); err != nil {
			return fmt.Errorf("notify.email: %w", err)
		}
	}

	return nil
}

func (a *APIConfig) expandAndValidate() error {
	if a.BaseURL != "" {
		expanded, err := expandEnvVars(a.BaseURL)
		if err != nil {
			return fmt.Errorf("base_url: %w", err)
		}
		a.BaseURL = expanded

		if err := checkHTTPURL(a.BaseURL); err != nil {
			return fmt.Errorf("base_url: %w", err)
		}
	}

	for k, v := range a.Headers {
		expanded, err := expandEnvVars(v)
		if err != nil {
			return fmt.Errorf("headers[%s]: %w", k, err)
		}
		a.Headers[k] = expanded
	}

	if a.Timeout != 0 {
		if a.Timeout.Duration() < 0 {
			return fmt.Errorf("timeout cannot be negative, got %s", a.Timeout.Duration())
		}
		if a.Timeout.Duration() < minTimeout {
			return fmt.Errorf("timeout must be at least %s if specified, got %s", minTimeout, a.Timeout.Duration())
		}
	}
	return nil
}

func (n *NtfyConfig) expandAndValidate() error {
	topic, err := expandEnvVars(n.Topic)
	if err != nil {
		return fmt.Errorf("topic: %w", err)
	}
	n.Topic = topic
	if n.Topic == "" {
		return fmt.Errorf("topic is required")
	}

	if n.Server != "" {
		server, err := expandEnvVars(n.Server)
		if err != nil {
			return fmt.Errorf("server: %w", err)
		}
		n.Server = server
		if err := checkHTTPURL(n.Server); err != nil {
			return fmt.Errorf("server: %w", err)
		}
	}

	if n.Priority != 0 && (n.Priority < 1 || n.Priority > 5) {
		return fmt.Errorf("priority must be between 1 and 5, got %d", n.Priority)
	}
	return nil
}

func (e *EmailConfig) expandAndValidate() error {
	if e.Host == "" {
		return fmt.Errorf("host is required")
	}
	if e.Port == 0 {
		e.Port = 587
	}

	for name, field := range map[string]*string{"username": &e.Username, "password": &e.Password} {
		expanded, err := expandEnvVars(*field)
		if err != nil {
			return fmt.Errorf("%s: %w", name, err)
		}
		*field = expanded
	}

	if e.From == "" {
		return fmt.Errorf("from is required")
	}
	if len(e.To) == 0 {
		return fmt.Errorf("at least one recipient is required")
	}
	return nil
}

func checkHTTPURL(raw string) error {
	u, err := url.Parse(raw)
	if err != nil {
		return fmt.Errorf("invalid url: %w", err)
	}
	if u.Scheme == "" {
		return fmt.Errorf("url must have a scheme (http:// or https://)")
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Errorf("url scheme must be http or https, got %q", u.Scheme)
	}
	return nil
}

// boolOr returns *b, or def when b is nil.
func boolOr(b *bool, def bool) bool {
	if b == nil {
		return def
	}
	return *b
}

// String returns the pin code as text.
func (p PinCode) String() string {
	return string(p)
}

// intsString renders ids for display.
func intsString(ids []int) string {
	parts := make([]string, len(ids))
	for i, id := range ids {
		parts[i] = strconv.Itoa(id)
	}
	return strings.Join(parts, ", ")
}
