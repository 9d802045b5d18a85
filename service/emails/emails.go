package emails

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/sendgrid/rest"
	"github.com/sendgrid/sendgrid-go"
	"github.com/sendgrid/sendgrid-go/helpers/mail"
	"github.com/sirupsen/logrus"

	"github.com/bkclothing/bk-site/env"
	"github.com/bkclothing/bk-site/service/logger"
	"github.com/bkclothing/bk-site/service/tracing"
	"github.com/bkclothing/bk-site/site"
)

const (
	sendGridHost     = "https://api.sendgrid.com"
	sendGridEndpoint = "/v3/mail/send"
)

func init() {
	env.RegisterValidation("FROM_EMAIL", "omitempty,email")
	env.RegisterValidation("CONTACT_TO_EMAIL", "omitempty,email")
}

// Address is an email recipient or sender.
type Address struct {
	Name  string
	Email string
}

// Message is a single email with both an HTML and a plain text body.
type Message struct {
	To        Address
	ReplyTo   *Address
	Subject   string
	PlainText string
	HTML      string
}

type Sender interface {
	Send(ctx context.Context, msg Message) error
}

// ErrSendFailed is returned when the email provider rejects a message.
type ErrSendFailed struct {
	Status int
	Body   string
}

func (e ErrSendFailed) Error() string {
	return fmt.Sprintf("email send failed with status %d: %s", e.Status, e.Body)
}

// SendGridSender sends messages through the SendGrid v3 mail API.
type SendGridSender struct {
	apiKey string
	host   string
	from   Address
	client *rest.Client
}

// NewSendGridSender creates a sender. A nil httpClient uses a traced client with a 15 second timeout.
func NewSendGridSender(apiKey string, from Address, httpClient *http.Client) *SendGridSender {
	if httpClient == nil {
		httpClient = &http.Client{
			Timeout:   15 * time.Second,
			Transport: tracing.NewTracingTransport(http.DefaultTransport, true),
		}
	}
	return &SendGridSender{
		apiKey: apiKey,
		host:   sendGridHost,
		from:   from,
		client: &rest.Client{HTTPClient: httpClient},
	}
}

// WithHost points the sender at a different API host.
func (s *SendGridSender) WithHost(host string) *SendGridSender {
	s.host = host
	return s
}

func (s *SendGridSender) Send(ctx context.Context, msg Message) error {
	m := mail.NewV3Mail()
	m.SetFrom(mail.NewEmail(s.from.Name, s.from.Email))
	m.Subject = msg.Subject

	p := mail.NewPersonalization()
	p.AddTos(mail.NewEmail(msg.To.Name, msg.To.Email))
	m.AddPersonalizations(p)

	if msg.ReplyTo != nil {
		m.SetReplyTo(mail.NewEmail(msg.ReplyTo.Name, msg.ReplyTo.Email))
	}

	m.AddContent(mail.NewContent("text/plain", msg.PlainText))
	if msg.HTML != "" {
		m.AddContent(mail.NewContent("text/html", msg.HTML))
	}

	request := sendgrid.GetRequest(s.apiKey, sendGridEndpoint, s.host)
	request.Method = rest.Post
	request.Body = mail.GetRequestBody(m)

	response, err := s.client.SendWithContext(ctx, request)
	if err != nil {
		return err
	}

	logger.For(ctx).WithFields(logrus.Fields{
		"status":  response.StatusCode,
		"subject": msg.Subject,
	}).Debug("sendgrid response")

	if response.StatusCode >= 300 {
		return ErrSendFailed{Status: response.StatusCode, Body: response.Body}
	}

	return nil
}

// LogSender writes messages to the log instead of sending them. It is used when no email provider
// is configured.
type LogSender struct{}

func (LogSender) Send(ctx context.Context, msg Message) error {
	fields := logrus.Fields{
		"to":      msg.To.Email,
		"subject": msg.Subject,
	}
	if msg.ReplyTo != nil {
		fields["replyTo"] = msg.ReplyTo.Email
	}
	logger.For(ctx).WithFields(fields).Infof("email not sent (no provider configured):\n%s", msg.PlainText)
	return nil
}

// DefaultFrom is the sender address used for site email.
func DefaultFrom() Address {
	from := env.GetString("FROM_EMAIL")
	if from == "" {
		from = site.Email
	}
	return Address{Name: site.Name, Email: from}
}

// NewSenderFromEnv returns a SendGrid sender when SENDGRID_API_KEY is set, otherwise a LogSender.
func NewSenderFromEnv() Sender {
	apiKey := env.GetString("SENDGRID_API_KEY")
	if apiKey == "" {
		logger.For(nil).Info("SENDGRID_API_KEY not set, contact submissions will be logged")
		return LogSender{}
	}
	return NewSendGridSender(apiKey, DefaultFrom(), nil)
}
