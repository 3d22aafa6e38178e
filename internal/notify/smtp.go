package notify

import (
	"bytes"
	"context"
	"crypto/tls"
	"errors"
	"fmt"
	"html/template"
	"mime"
	"net"
	"net/smtp"
	"strings"
	"time"
)

// Encryption modes
const (
	EncNone     = "NONE"
	EncStartTLS = "STARTTLS"
	EncSSLTLS   = "SSL/TLS"
)

// ErrStartTLSUnsupported is returned in STARTTLS mode when the server does not offer it.
// Mail is never sent in the clear as a fallback.
var ErrStartTLSUnsupported = errors.New("smtp server does not support STARTTLS")

const accessSubject = "Your Field Trip Access Link"

var accessTemplate = template.Must(template.New("access").Parse(`<div style="font-family: Arial, sans-serif; max-width: 600px; margin: 0 auto;">
  <h2 style="color: #00b7b6;">Hello {{.VolunteerName}}!</h2>
  <p>Thank you for volunteering with us.</p>
  <p>Click the button below to open the Field Trip photo upload app:</p>
  <div style="text-align: center; margin: 30px 0;">
    <a href="{{.Link}}" style="background-color: #00b7b6; color: white; padding: 15px 30px; text-decoration: none; border-radius: 5px; display: inline-block; font-weight: bold;">Access App</a>
  </div>
  <p style="color: #666; font-size: 14px;"><strong>Note:</strong> This link is valid for 24 hours and can only be used once.</p>
  <p style="color: #666; font-size: 14px;">If you didn't request this, please ignore this email.</p>
</div>
`))

// SMTPConfig holds SMTP connection settings
type SMTPConfig struct {
	Host       string
	Port       int
	Username   string
	Password   string
	FromAddr   string
	FromName   string
	Encryption string
}

// SMTPNotifier sends access links by email
type SMTPNotifier struct {
	cfg SMTPConfig
}

// NewSMTPNotifier creates an SMTP notifier. Unknown encryption modes fall back to STARTTLS.
func NewSMTPNotifier(cfg SMTPConfig) *SMTPNotifier {
	mode := strings.ToUpper(strings.TrimSpace(cfg.Encryption))
	if mode != EncNone && mode != EncStartTLS && mode != EncSSLTLS {
		mode = EncStartTLS
	}
	cfg.Encryption = mode
	return &SMTPNotifier{cfg: cfg}
}

// Send renders the access email and delivers it
func (n *SMTPNotifier) Send(ctx context.Context, msg Message) error {
	if msg.To == "" {
		return ErrNoDestination
	}

	body, err := renderAccessEmail(msg)
	if err != nil {
		return fmt.Errorf("failed to render email: %w", err)
	}
	data := buildMIMEMessage(n.cfg.FromName, n.cfg.FromAddr, msg.To, accessSubject, body)

	var d net.Dialer
	d.Timeout = 15 * time.Second
	if deadline, ok := ctx.Deadline(); ok {
		d.Timeout = time.Until(deadline)
	}

	address := net.JoinHostPort(n.cfg.Host, fmt.Sprint(n.cfg.Port))

	var conn net.Conn
	if n.cfg.Encryption == EncSSLTLS {
		conn, err = tls.DialWithDialer(&d, "tcp", address, &tls.Config{ServerName: n.cfg.Host})
	} else {
		conn, err = d.DialContext(ctx, "tcp", address)
	}
	if err != nil {
		return fmt.Errorf("failed to dial smtp server: %w", err)
	}
	defer conn.Close()

	if deadline, ok := ctx.Deadline(); ok {
		conn.SetDeadline(deadline)
	}

	c, err := smtp.NewClient(conn, n.cfg.Host)
	if err != nil {
		return fmt.Errorf("failed to create smtp client: %w", err)
	}
	defer c.Close()

	if n.cfg.Encryption == EncStartTLS {
		if ok, _ := c.Extension("STARTTLS"); !ok {
			return ErrStartTLSUnsupported
		}
		if err := c.StartTLS(&tls.Config{ServerName: n.cfg.Host}); err != nil {
			return fmt.Errorf("failed to start tls: %w", err)
		}
	}

	if n.cfg.Username != "" {
		auth := smtp.PlainAuth("", n.cfg.Username, n.cfg.Password, n.cfg.Host)
		if err := c.Auth(auth); err != nil {
			return fmt.Errorf("failed to authenticate: %w", err)
		}
	}

	if err := c.Mail(n.cfg.FromAddr); err != nil {
		return fmt.Errorf("failed to set sender: %w", err)
	}
	if err := c.Rcpt(msg.To); err != nil {
		return fmt.Errorf("failed to set recipient: %w", err)
	}

	w, err := c.Data()
	if err != nil {
		return fmt.Errorf("failed to open data: %w", err)
	}
	if _, err := w.Write(data); err != nil {
		w.Close()
		return fmt.Errorf("failed to write body: %w", err)
	}
	if err := w.Close(); err != nil {
		return fmt.Errorf("failed to close data: %w", err)
	}

	return c.Quit()
}

func renderAccessEmail(msg Message) (string, error) {
	var buf bytes.Buffer
	if err := accessTemplate.Execute(&buf, msg); err != nil {
		return "", err
	}
	return buf.String(), nil
}

func buildMIMEMessage(fromName, fromAddr, to, subject, htmlBody string) []byte {
	from := fromAddr
	if fromName != "" {
		from = fmt.Sprintf("%s <%s>", mime.QEncoding.Encode("utf-8", fromName), fromAddr)
	}

	var b strings.Builder
	b.WriteString("From: " + from + "\r\n")
	b.WriteString("To: " + to + "\r\n")
	b.WriteString("Subject: " + mime.QEncoding.Encode("utf-8", subject) + "\r\n")
	b.WriteString("MIME-Version: 1.0\r\n")
	b.WriteString("Content-Type: text/html; charset=\"UTF-8\"\r\n")
	b.WriteString("\r\n")
	b.WriteString(htmlBody)
	return []byte(b.String())
}
