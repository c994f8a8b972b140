package digest

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"mime"
	"mime/multipart"
	"mime/quotedprintable"
	"net"
	"net/smtp"
	"net/textproto"
	"strconv"
	"time"

	"github.com/google/uuid"
)

// ErrDeliveryUnknown means the caller stopped waiting while the relay was
// still talking; the message may or may not have been delivered.
var ErrDeliveryUnknown = errors.New("delivery outcome unknown")

// Mailer delivers rendered digests.
type Mailer interface {
	Send(ctx context.Context, to string, msg Message) error
}

type sendFunc func(addr string, a smtp.Auth, from string, to []string, msg []byte) error

// SMTPMailer sends mail through an SMTP relay with STARTTLS when offered.
type SMTPMailer struct {
	host     string
	port     int
	from     string
	auth     smtp.Auth
	send     sendFunc
	deadline time.Duration
}

var _ Mailer = (*SMTPMailer)(nil)

func NewSMTPMailer(host string, port int, user, password, from string) *SMTPMailer {
	var auth smtp.Auth
	if user != "" {
		auth = smtp.PlainAuth("", user, password, host)
	}

	return &SMTPMailer{
		host:     host,
		port:     port,
		from:     from,
		auth:     auth,
		send:     smtp.SendMail,
		deadline: 30 * time.Second,
	}
}

func (m *SMTPMailer) Send(ctx context.Context, to string, msg Message) error {
	data, err := m.buildMessage(to, msg)
	if err != nil {
		return err
	}

	if err := ctx.Err(); err != nil {
		return err
	}

	addr := net.JoinHostPort(m.host, strconv.Itoa(m.port))

	// smtp.SendMail has no context support, so the call runs aside and the
	// caller stops waiting on cancellation. The abandoned call may still
	// deliver, hence ErrDeliveryUnknown.
	done := make(chan error, 1)
	go func() {
		done <- m.send(addr, m.auth, m.from, []string{to}, data)
	}()

	timer := time.NewTimer(m.deadline)
	defer timer.Stop()

	select {
	case err := <-done:
		if err != nil {
			return fmt.Errorf("failed to send mail to %s: %w", to, err)
		}
		return nil
	case <-ctx.Done():
		return fmt.Errorf("%w: sending mail to %s: %w", ErrDeliveryUnknown, to, ctx.Err())
	case <-timer.C:
		return fmt.Errorf("%w: sending mail to %s timed out after %v", ErrDeliveryUnknown, to, m.deadline)
	}
}

// buildMessage assembles an RFC 5322 message with plain text and HTML
// alternatives.
func (m *SMTPMailer) buildMessage(to string, msg Message) ([]byte, error) {
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)

	headers := []struct{ key, value string }{
		{"From", m.from},
		{"To", to},
		{"Subject", mime.QEncoding.Encode("UTF-8", msg.Subject)},
		{"Date", time.Now().Format(time.RFC1123Z)},
		{"Message-ID", fmt.Sprintf("<%s@%s>", uuid.NewString(), m.host)},
		{"MIME-Version", "1.0"},
		{"Content-Type", fmt.Sprintf("multipart/alternative; boundary=%q", mw.Boundary())},
	}
	if msg.UnsubscribeURL != "" {
		headers = append(headers, struct{ key, value string }{"List-Unsubscribe", "<" + msg.UnsubscribeURL + ">"})
	}

	var head bytes.Buffer
	for _, h := range headers {
		head.WriteString(h.key)
		head.WriteString(": ")
		head.WriteString(h.value)
		head.WriteString("\r\n")
	}
	head.WriteString("\r\n")

	if err := writePart(mw, "text/plain; charset=UTF-8", msg.Text); err != nil {
		return nil, err
	}
	if err := writePart(mw, "text/html; charset=UTF-8", msg.HTML); err != nil {
		return nil, err
	}
	if err := mw.Close(); err != nil {
		return nil, fmt.Errorf("failed to close multipart body: %w", err)
	}

	return append(head.Bytes(), buf.Bytes()...), nil
}

func writePart(mw *multipart.Writer, contentType, body string) error {
	header := textproto.MIMEHeader{}
	header.Set("Content-Type", contentType)
	header.Set("Content-Transfer-Encoding", "quoted-printable")

	part, err := mw.CreatePart(header)
	if err != nil {
		return fmt.Errorf("failed to create %s part: %w", contentType, err)
	}

	qp := quotedprintable.NewWriter(part)
	if _, err := qp.Write([]byte(body)); err != nil {
		return fmt.Errorf("failed to write %s part: %w", contentType, err)
	}
	return qp.Close()
}
