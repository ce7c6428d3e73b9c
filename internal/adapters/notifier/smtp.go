package notifier

import (
	"context"
	"crypto/tls"
	"fmt"
	"net"
	"net/smtp"
	"strconv"
	"strings"

	"github.com/pablo-ross/komornicka100/pkg/logger"
	"github.com/pablo-ross/komornicka100/pkg/metrics"
)

// SMTP ports with conventionally distinct handshakes. 1025 is the local
// development catcher (no auth, no TLS), 465 is implicit TLS, everything
// else is treated as STARTTLS.
const (
	portPlain = 1025
	portTLS   = 465
)

// Email sends HTML notification mails over SMTP.
type Email struct {
	host        string
	port        int
	username    string
	password    string
	fromName    string
	projectName string
	logger      logger.Logger
}

// NewEmail creates an SMTP notifier.
func NewEmail(host string, port int, username, password, projectName string, opts ...EmailOption) *Email {
	e := &Email{
		host:        host,
		port:        port,
		username:    username,
		password:    password,
		projectName: projectName,
		logger:      logger.Get().Named("notifier"),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// NotifyVerified sends the verified-activity mail.
func (e *Email) NotifyVerified(ctx context.Context, v Verification) error {
	subject := fmt.Sprintf("%s - Activity Verified!", e.projectName)
	body := fmt.Sprintf(`<html>
<body>
	<h1>Hello %s,</h1>
	<p>Good news! Your activity has been verified for the %s.</p>
	<p><strong>Activity:</strong> %s</p>
	<p><strong>Date:</strong> %s</p>
	<p><strong>Route:</strong> %s</p>
	<p>This activity has been added to your contest profile. Keep up the great work!</p>
	<p>Best regards,<br>%s Team</p>
</body>
</html>`,
		v.FirstName, e.projectName, v.ActivityName,
		v.ActivityDate.Format("2006-01-02"), v.RouteName, e.projectName)

	if err := e.send(v.Email, subject, body); err != nil {
		metrics.RecordNotificationError()
		e.logger.Error(ctx, "notification delivery failed",
			logger.String("email", v.Email), logger.Error(err))
		return fmt.Errorf("send notification: %w", err)
	}

	e.logger.Info(ctx, "verification notification sent",
		logger.String("email", v.Email), logger.String("route", v.RouteName))
	return nil
}

func (e *Email) send(to, subject, htmlBody string) error {
	msg := e.message(to, subject, htmlBody)
	addr := net.JoinHostPort(e.host, strconv.Itoa(e.port))

	switch e.port {
	case portPlain:
		return smtp.SendMail(addr, nil, e.username, []string{to}, msg)
	case portTLS:
		return e.sendImplicitTLS(addr, to, msg)
	default:
		auth := smtp.PlainAuth("", e.username, e.password, e.host)
		return smtp.SendMail(addr, auth, e.username, []string{to}, msg)
	}
}

// sendImplicitTLS dials TLS first; smtp.SendMail only speaks STARTTLS.
func (e *Email) sendImplicitTLS(addr, to string, msg []byte) error {
	conn, err := tls.Dial("tcp", addr, &tls.Config{ServerName: e.host})
	if err != nil {
		return fmt.Errorf("dial smtp tls: %w", err)
	}
	client, err := smtp.NewClient(conn, e.host)
	if err != nil {
		conn.Close()
		return fmt.Errorf("smtp handshake: %w", err)
	}
	defer client.Close()

	auth := smtp.PlainAuth("", e.username, e.password, e.host)
	if err := client.Auth(auth); err != nil {
		return fmt.Errorf("smtp auth: %w", err)
	}
	if err := client.Mail(e.username); err != nil {
		return fmt.Errorf("smtp mail from: %w", err)
	}
	if err := client.Rcpt(to); err != nil {
		return fmt.Errorf("smtp rcpt to: %w", err)
	}
	w, err := client.Data()
	if err != nil {
		return fmt.Errorf("smtp data: %w", err)
	}
	if _, err := w.Write(msg); err != nil {
		return fmt.Errorf("smtp write body: %w", err)
	}
	if err := w.Close(); err != nil {
		return fmt.Errorf("smtp close body: %w", err)
	}
	return client.Quit()
}

func (e *Email) message(to, subject, htmlBody string) []byte {
	from := e.username
	if e.fromName != "" {
		from = fmt.Sprintf("%s <%s>", e.fromName, e.username)
	}
	var b strings.Builder
	fmt.Fprintf(&b, "From: %s\r\n", from)
	fmt.Fprintf(&b, "To: %s\r\n", to)
	fmt.Fprintf(&b, "Subject: %s\r\n", subject)
	b.WriteString("MIME-Version: 1.0\r\n")
	b.WriteString("Content-Type: text/html; charset=\"UTF-8\"\r\n")
	b.WriteString("\r\n")
	b.WriteString(htmlBody)
	return []byte(b.String())
}
