package smtp

import (
	"bytes"
	"context"
	"crypto/tls"
	"fmt"
	"mime"
	"mime/multipart"
	"net"
	"net/mail"
	"net/smtp"
	"net/textproto"
	"time"

	"github.com/voucher-console/internal/config"
	"github.com/voucher-console/internal/domain"
)

// Message is one outbound email with plain-text and HTML alternatives.
type Message struct {
	To      string
	Subject string
	Text    string
	HTML    string
}

// Mailer sends emails.
type Mailer interface {
	SendEmail(ctx context.Context, m Message) error
}

const defaultTimeout = 10 * time.Second

type sendFunc func(ctx context.Context, addr string, a smtp.Auth, from string, to []string, msg []byte) error

type mailer struct {
	host     string
	port     string
	from     string
	fromName string
	username string
	password string
	timeout  time.Duration
	dialer   net.Dialer
	send     sendFunc
}

func NewMailer(cfg *config.Config) Mailer {
	m := &mailer{
		host:     cfg.SMTPHost,
		port:     cfg.SMTPPort,
		from:     cfg.SMTPFrom,
		fromName: cfg.SMTPFromName,
		username: cfg.SMTPUsername,
		password: cfg.SMTPPassword,
		timeout:  cfg.SMTPTimeout,
	}
	if m.timeout <= 0 {
		m.timeout = defaultTimeout
	}
	m.send = m.deliver
	return m
}

func (m *mailer) SendEmail(ctx context.Context, msg Message) error {
	if m.host == "" || m.from == "" {
		return fmt.Errorf("SMTP host and sender must be set: %w", domain.ErrConfiguration)
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	raw, err := m.build(msg)
	if err != nil {
		return fmt.Errorf("build message: %w", err)
	}
	addr := net.JoinHostPort(m.host, m.port)

	var auth smtp.Auth
	if m.username != "" {
		auth = smtp.PlainAuth("", m.username, m.password, m.host)
	}

	return m.send(ctx, addr, auth, m.from, []string{msg.To}, raw)
}

// deliver runs one SMTP transaction. The connection deadline is the earlier of
// ctx's deadline and the configured timeout, and cancelling ctx closes the
// connection, so a stalled server cannot hold the caller.
func (m *mailer) deliver(ctx context.Context, addr string, auth smtp.Auth, from string, to []string, msg []byte) (err error) {
	ctx, cancel := context.WithTimeout(ctx, m.timeout)
	defer cancel()

	conn, err := m.dialer.DialContext(ctx, "tcp", addr)
	if err != nil {
		return fmt.Errorf("dial smtp: %w", err)
	}
	defer func() {
		if err != nil && ctx.Err() != nil {
			err = fmt.Errorf("send email: %w", ctx.Err())
		}
	}()
	deadline, _ := ctx.Deadline()
	if err := conn.SetDeadline(deadline); err != nil {
		conn.Close()
		return err
	}
	stop := context.AfterFunc(ctx, func() { conn.Close() })
	defer stop()

	c, err := smtp.NewClient(conn, m.host)
	if err != nil {
		conn.Close()
		return fmt.Errorf("smtp greeting: %w", err)
	}
	defer c.Close()

	if ok, _ := c.Extension("STARTTLS"); ok {
		if err := c.StartTLS(&tls.Config{ServerName: m.host}); err != nil {
			return fmt.Errorf("starttls: %w", err)
		}
	}
	if auth != nil {
		if ok, _ := c.Extension("AUTH"); ok {
			if err := c.Auth(auth); err != nil {
				return fmt.Errorf("smtp auth: %w", err)
			}
		}
	}
	if err := c.Mail(from); err != nil {
		return err
	}
	for _, rcpt := range to {
		if err := c.Rcpt(rcpt); err != nil {
			return err
		}
	}
	w, err := c.Data()
	if err != nil {
		return err
	}
	if _, err := w.Write(msg); err != nil {
		return err
	}
	if err := w.Close(); err != nil {
		return err
	}
	return c.Quit()
}

func (m *mailer) build(msg Message) ([]byte, error) {
	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	for _, part := range []struct{ ctype, content string }{
		{"text/plain; charset=utf-8", msg.Text},
		{"text/html; charset=utf-8", msg.HTML},
	} {
		if part.content == "" {
			continue
		}
		w, err := mw.CreatePart(textproto.MIMEHeader{"Content-Type": {part.ctype}})
		if err != nil {
			return nil, err
		}
		if _, err := w.Write([]byte(part.content)); err != nil {
			return nil, err
		}
	}
	if err := mw.Close(); err != nil {
		return nil, err
	}

	from := (&mail.Address{Name: m.fromName, Address: m.from}).String()
	var out bytes.Buffer
	fmt.Fprintf(&out, "From: %s\r\n", from)
	fmt.Fprintf(&out, "To: %s\r\n", msg.To)
	fmt.Fprintf(&out, "Subject: %s\r\n", mime.QEncoding.Encode("utf-8", msg.Subject))
	out.WriteString("MIME-Version: 1.0\r\n")
	fmt.Fprintf(&out, "Content-Type: multipart/alternative; boundary=%q\r\n\r\n", mw.Boundary())
	out.Write(body.Bytes())
	return out.Bytes(), nil
}
