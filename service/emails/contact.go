package emails

import (
	"bytes"
	"context"
	"fmt"
	htmltemplate "html/template"
	"io"
	"text/template"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/bkclothing/bk-site/service/logger"
	"github.com/bkclothing/bk-site/site"
)

// ContactSubmission is a message sent through the site's contact form. Fields are expected to be
// validated and stripped of markup already.
type ContactSubmission struct {
	Name        string
	Phone       string
	Email       string
	Message     string
	SubmittedAt time.Time
}

type contactData struct {
	ContactSubmission
	SiteName string
	Phones   []site.Phone
	Address  string
}

var notificationText = template.Must(template.New("notification").Parse(`New contact form submission on {{.SiteName}}

Name: {{.Name}}
Phone: {{.Phone}}
Email: {{.Email}}
Received: {{.SubmittedAt.Format "2006-01-02 15:04 MST"}}

{{.Message}}
`))

var notificationHTML = htmltemplate.Must(htmltemplate.New("notification").Parse(`<h2>New contact form submission</h2>
<p><strong>Name:</strong> {{.Name}}</p>
<p><strong>Phone:</strong> {{.Phone}}</p>
<p><strong>Email:</strong> <a href="mailto:{{.Email}}">{{.Email}}</a></p>
<p><strong>Received:</strong> {{.SubmittedAt.Format "2006-01-02 15:04 MST"}}</p>
<p><strong>Message:</strong></p>
<p style="white-space: pre-wrap">{{.Message}}</p>
`))

var autoReplyText = template.Must(template.New("autoreply").Parse(`Hi {{.Name}},

Thank you for contacting {{.SiteName}}. We have received your message and will get back to you shortly.

Your message:
{{.Message}}

{{.SiteName}}
{{.Address}}
{{range .Phones}}{{.Display}}
{{end}}`))

var autoReplyHTML = htmltemplate.Must(htmltemplate.New("autoreply").Parse(`<p>Hi {{.Name}},</p>
<p>Thank you for contacting {{.SiteName}}. We have received your message and will get back to you shortly.</p>
<p><strong>Your message:</strong></p>
<p style="white-space: pre-wrap">{{.Message}}</p>
<p>{{.SiteName}}<br>{{.Address}}<br>{{range $i, $p := .Phones}}{{if $i}} | {{end}}<a href="{{$p.Href}}">{{$p.Display}}</a>{{end}}</p>
`))

func dataFor(sub ContactSubmission) contactData {
	if sub.SubmittedAt.IsZero() {
		sub.SubmittedAt = time.Now()
	}
	return contactData{
		ContactSubmission: sub,
		SiteName:          site.Name,
		Phones:            site.Phones,
		Address:           site.CompanyAddress.Full(),
	}
}

type executor interface {
	Execute(w io.Writer, data interface{}) error
}

func render(t executor, data contactData) (string, error) {
	var buf bytes.Buffer
	if err := t.Execute(&buf, data); err != nil {
		return "", err
	}
	return buf.String(), nil
}

// NotificationFor builds the message telling the site owner about a submission. Replies go to the
// person who submitted the form.
func NotificationFor(sub ContactSubmission, to string) (Message, error) {
	data := dataFor(sub)

	text, err := render(notificationText, data)
	if err != nil {
		return Message{}, err
	}
	html, err := render(notificationHTML, data)
	if err != nil {
		return Message{}, err
	}

	return Message{
		To:        Address{Name: site.Name, Email: to},
		ReplyTo:   &Address{Name: sub.Name, Email: sub.Email},
		Subject:   fmt.Sprintf("Contact Form: %s", sub.Name),
		PlainText: text,
		HTML:      html,
	}, nil
}

// AutoReplyFor builds the acknowledgement sent back to the person who submitted the form.
func AutoReplyFor(sub ContactSubmission) (Message, error) {
	data := dataFor(sub)

	text, err := render(autoReplyText, data)
	if err != nil {
		return Message{}, err
	}
	html, err := render(autoReplyHTML, data)
	if err != nil {
		return Message{}, err
	}

	return Message{
		To:        Address{Name: sub.Name, Email: sub.Email},
		Subject:   fmt.Sprintf("We received your message - %s", site.Name),
		PlainText: text,
		HTML:      html,
	}, nil
}

// ContactConfig controls where contact submissions are delivered.
type ContactConfig struct {
	To        string
	AutoReply bool
}

// SendContact delivers a submission to the owner and, if enabled, acknowledges it to the sender.
// Only a failed owner notification is returned; a failed acknowledgement is logged.
func SendContact(ctx context.Context, sender Sender, sub ContactSubmission, config ContactConfig) error {
	to := config.To
	if to == "" {
		to = site.Email
	}

	notification, err := NotificationFor(sub, to)
	if err != nil {
		return err
	}

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		if err := sender.Send(gctx, notification); err != nil {
			return fmt.Errorf("sending contact notification: %w", err)
		}
		return nil
	})

	if config.AutoReply {
		g.Go(func() error {
			reply, err := AutoReplyFor(sub)
			if err == nil {
				err = sender.Send(ctx, reply)
			}
			if err != nil {
				logger.For(ctx).Warnf("could not send contact auto-reply to %s: %s", sub.Email, err)
			}
			return nil
		})
	}

	return g.Wait()
}
