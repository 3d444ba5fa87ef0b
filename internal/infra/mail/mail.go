// Package mail delivers multipart email over SMTP.
package mail

import (
	"bytes"
	"context"
	"fmt"
	netmail "net/mail"
	"time"

	gomail "github.com/wneessen/go-mail"
)

// Address is a display name plus email address.
type Address = netmail.Address

// Config holds SMTP configuration.
type Config struct {
	Host        string
	Port        int
	Username    string
	Password    string
	From        Address
	UseTLS      bool // implicit TLS
	UseStartTLS bool // upgrade when the server offers it
	DialTimeout time.Duration
}

func (c *Config) Validate() error {
	if c.Host == "" {
		return fmt.Errorf("SMTP host is required")
	}
	if c.Port == 0 {
		return fmt.Errorf("SMTP port is required")
	}
	if c.From.Address == "" {
		return fmt.Errorf("from address is required")
	}
	return nil
}

// Attachment is a file carried by a message.
type Attachment struct {
	Filename    string
	ContentType string
	Data        []byte
}

// Message is one outbound email.
type Message struct {
	To          []Address
	Subject     string
	Text        string
	HTML        string
	Attachments []Attachment
}

// Sender delivers messages.
type Sender interface {
	Send(ctx context.Context, msg *Message) error
}

// SMTPSender sends each message over its own SMTP session.
type SMTPSender struct {
	config Config
}

func NewSMTPSender(config Config) (*SMTPSender, error) {
	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid mail config: %w", err)
	}
	if config.DialTimeout == 0 {
		config.DialTimeout = 30 * time.Second
	}
	return &SMTPSender{config: config}, nil
}

func (s *SMTPSender) Send(ctx context.Context, msg *Message) error {
	if len(msg.To) == 0 {
		return fmt.Errorf("message has no recipients")
	}
	m, err := newMsg(s.config.From, msg, time.Now())
	if err != nil {
		return err
	}
	client, err := gomail.NewClient(s.config.Host, s.clientOptions()...)
	if err != nil {
		return fmt.Errorf("failed to create SMTP client: %w", err)
	}
	if err := client.DialAndSendWithContext(ctx, m); err != nil {
		return fmt.Errorf("failed to send mail: %w", err)
	}
	return nil
}

func (s *SMTPSender) clientOptions() []gomail.Option {
	opts := []gomail.Option{
		gomail.WithPort(s.config.Port),
		gomail.WithTimeout(s.config.DialTimeout),
	}
	switch {
	case s.config.UseTLS:
		opts = append(opts, gomail.WithSSL())
	case s.config.UseStartTLS:
		opts = append(opts, gomail.WithTLSPolicy(gomail.TLSOpportunistic))
	default:
		opts = append(opts, gomail.WithTLSPolicy(gomail.NoTLS))
	}
	if s.config.Username != "" && s.config.Password != "" {
		opts = append(opts,
			gomail.WithSMTPAuth(gomail.SMTPAuthPlain),
			gomail.WithUsername(s.config.Username),
			gomail.WithPassword(s.config.Password),
		)
	}
	return opts
}

// newMsg maps msg onto a go-mail message: plain text with an HTML alternative,
// plus one part per attachment.
func newMsg(from Address, msg *Message, date time.Time) (*gomail.Msg, error) {
	m := gomail.NewMsg()
	if err := m.FromFormat(from.Name, from.Address); err != nil {
		return nil, fmt.Errorf("invalid from address %q: %w", from.Address, err)
	}
	for _, to := range msg.To {
		if err := m.AddToFormat(to.Name, to.Address); err != nil {
			return nil, fmt.Errorf("invalid recipient %q: %w", to.Address, err)
		}
	}
	m.Subject(msg.Subject)
	m.SetDateWithValue(date)

	switch {
	case msg.Text != "":
		m.SetBodyString(gomail.TypeTextPlain, msg.Text)
		if msg.HTML != "" {
			m.AddAlternativeString(gomail.TypeTextHTML, msg.HTML)
		}
	case msg.HTML != "":
		m.SetBodyString(gomail.TypeTextHTML, msg.HTML)
	}

	for _, att := range msg.Attachments {
		ct := att.ContentType
		if ct == "" {
			ct = "application/octet-stream"
		}
		err := m.AttachReader(att.Filename, bytes.NewReader(att.Data), gomail.WithFileContentType(gomail.ContentType(ct)))
		if err != nil {
			return nil, fmt.Errorf("attach %s: %w", att.Filename, err)
		}
	}
	return m, nil
}

// Build renders msg as it would be written to the SMTP DATA stream.
func Build(from Address, msg *Message, date time.Time) ([]byte, error) {
	m, err := newMsg(from, msg, date)
	if err != nil {
		return nil, err
	}
	var buf bytes.Buffer
	if _, err := m.WriteTo(&buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
