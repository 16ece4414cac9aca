package alert

import (
	"bytes"
	"errors"
	"fmt"
	"html/template"
	"log/slog"
	"net"
	"net/smtp"
	"strconv"
	"strings"
	"sync"

	"github.com/badoux/checkmail"
	"github.com/jpalmerr/slotwatch"
)

const emailTemplate = `<html>
<body>
<h2>Vaccination slots available</h2>
<table border="1" cellpadding="4" cellspacing="0">
<tr><th>Center</th><th>Address</th><th>District</th><th>Pin code</th><th>Date</th><th>Vaccine</th><th>Min age</th><th>Capacity</th><th>Fee</th></tr>
{{range .Matches}}<tr><td>{{.CenterName}}</td><td>{{.Address}}</td><td>{{.District}}</td><td>{{.PinCode}}</td><td>{{.Date}}</td><td>{{.Vaccine}}</td><td>{{.MinAgeLimit}}+</td><td>{{.AvailableCapacity}}</td><td>{{.FeeType}}</td></tr>
{{end}}</table>
<p>Book at <a href="https://selfregistration.cowin.gov.in/">selfregistration.cowin.gov.in</a></p>
</body>
</html>
`

var emailTmpl = template.Must(template.New("email").Parse(emailTemplate))

// SMTPConfig holds the mail server settings of an [Email] sink.
type SMTPConfig struct {
	Host     string
	Port     int
	Username string
	Password string
	From     string
	To       []string
}

// sendMailFunc matches smtp.SendMail.
type sendMailFunc func(addr string, a smtp.Auth, from string, to []string, msg []byte) error

// Email sends one HTML message per alert to a fixed recipient list.
// Sending happens in a goroutine; failures are logged.
type Email struct {
	cfg      SMTPConfig
	logger   *slog.Logger
	sendMail sendMailFunc

	wg sync.WaitGroup
}

// NewEmail creates an e-mail sink. Sender and recipient addresses must be
// well-formed; reachability is not checked.
func NewEmail(cfg SMTPConfig, logger *slog.Logger) (*Email, error) {
	if cfg.Host == "" {
		return nil, errors.New("smtp host is required")
	}
	if cfg.Port <= 0 || cfg.Port > 65535 {
		return nil, fmt.Errorf("smtp port must be between 1 and 65535, got %d", cfg.Port)
	}
	if err := checkmail.ValidateFormat(cfg.From); err != nil {
		return nil, fmt.Errorf("invalid sender %q: %w", cfg.From, err)
	}
	if len(cfg.To) == 0 {
		return nil, errors.New("at least one recipient is required")
	}
	for _, to := range cfg.To {
		if err := checkmail.ValidateFormat(to); err != nil {
			return nil, fmt.Errorf("invalid recipient %q: %w", to, err)
		}
	}
	if logger == nil {
		logger = slog.Default()
	}

	cfg.To = append([]string(nil), cfg.To...)
	return &Email{cfg: cfg, logger: logger, sendMail: smtp.SendMail}, nil
}

// Trigger sends the alert in the background.
func (e *Email) Trigger(a slotwatch.Alert) {
	msg, err := e.message(a)
	if err != nil {
		e.logger.Error("failed to render alert e-mail", "error", err)
		return
	}

	e.wg.Add(1)
	go func() {
		defer e.wg.Done()

		var auth smtp.Auth
		if e.cfg.Username != "" {
			auth = smtp.PlainAuth("", e.cfg.Username, e.cfg.Password, e.cfg.Host)
		}
		addr := net.JoinHostPort(e.cfg.Host, strconv.Itoa(e.cfg.Port))

		if err := e.sendMail(addr, auth, e.cfg.From, e.cfg.To, msg); err != nil {
			e.logger.Warn("alert e-mail failed",
				"session_id", a.SessionID,
				"tick", a.Tick,
				"error", err.Error(),
			)
			return
		}
		e.logger.Debug("alert e-mail sent", "recipients", len(e.cfg.To), "tick", a.Tick)
	}()
}

// Wait blocks until every send started so far has finished.
func (e *Email) Wait() {
	e.wg.Wait()
}

func (e *Email) message(a slotwatch.Alert) ([]byte, error) {
	var body bytes.Buffer
	fmt.Fprintf(&body, "From: %s\r\n", e.cfg.From)
	fmt.Fprintf(&body, "To: %s\r\n", strings.Join(e.cfg.To, ", "))
	fmt.Fprintf(&body, "Subject: %d vaccination slot(s) available\r\n", len(a.Matches))
	body.WriteString("MIME-Version: 1.0\r\n")
	body.WriteString("Content-Type: text/html; charset=\"UTF-8\"\r\n\r\n")

	if err := emailTmpl.Execute(&body, a); err != nil {
		return nil, err
	}
	return body.Bytes(), nil
}
