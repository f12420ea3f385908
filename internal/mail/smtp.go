package mail

import (
	"context"
	"crypto/tls"
	"fmt"
	"net"
	"net/smtp"
	"strconv"
	"time"
)

// smtpSendMail delivers one message. Tests replace it.
var smtpSendMail = sendMailTLS

// SMTPClient submits mail over an implicit-TLS connection (port 465 style).
type SMTPClient struct {
	host    string
	port    int
	user    string
	pass    string
	timeout time.Duration
}

// NewSMTPClient creates a new SMTPClient with the given server configuration.
// A zero timeout means no deadline beyond the transport defaults.
func NewSMTPClient(host string, port int, user, pass string, timeout time.Duration) *SMTPClient {
	return &SMTPClient{
		host:    host,
		port:    port,
		user:    user,
		pass:    pass,
		timeout: timeout,
	}
}

// Send authenticates with PLAIN auth and transmits msg from the envelope
// sender to the recipients.
func (c *SMTPClient) Send(ctx context.Context, from string, to []string, msg []byte) error {
	auth := smtp.PlainAuth("", c.user, c.pass, c.host)
	addr := net.JoinHostPort(c.host, strconv.Itoa(c.port))
	return smtpSendMail(ctx, addr, c.host, c.timeout, auth, from, to, msg)
}

func sendMailTLS(ctx context.Context, addr, host string, timeout time.Duration, a smtp.Auth, from string, to []string, msg []byte) error {
	dialer := &tls.Dialer{
		NetDialer: &net.Dialer{Timeout: timeout},
		Config: &tls.Config{
			ServerName: host,
			MinVersion: tls.VersionTLS12,
		},
	}
	conn, err := dialer.DialContext(ctx, "tcp", addr)
	if err != nil {
		return fmt.Errorf("dial %s: %w", addr, err)
	}
	if timeout > 0 {
		if err := conn.SetDeadline(time.Now().Add(timeout)); err != nil {
			conn.Close()
			return fmt.Errorf("set deadline: %w", err)
		}
	}

	c, err := smtp.NewClient(conn, host)
	if err != nil {
		conn.Close()
		return fmt.Errorf("smtp handshake: %w", err)
	}
	defer c.Close()

	if err := c.Auth(a); err != nil {
		return fmt.Errorf("smtp auth: %w", err)
	}
	if err := c.Mail(from); err != nil {
		return fmt.Errorf("smtp MAIL FROM: %w", err)
	}
	for _, rcpt := range to {
		if err := c.Rcpt(rcpt); err != nil {
			return fmt.Errorf("smtp RCPT TO %s: %w", rcpt, err)
		}
	}
	w, err := c.Data()
	if err != nil {
		return fmt.Errorf("smtp DATA: %w", err)
	}
	if _, err := w.Write(msg); err != nil {
		w.Close()
		return fmt.Errorf("smtp write: %w", err)
	}
	if err := w.Close(); err != nil {
		return fmt.Errorf("smtp end of data: %w", err)
	}
	return c.Quit()
}
