// Package mailer turns a problem email into a MIME message and delivers it
// through SES or Gmail, with retries and a circuit breaker in front of the
// provider.
package mailer

import (
	"context"
	"fmt"
	"time"

	"github.com/Hakote/Hakote/internal/engine"
	"github.com/Hakote/Hakote/internal/view"
)

// Transport hands a rendered message to a provider
type Transport interface {
	Deliver(ctx context.Context, msg *Message) error
}

// TransportFunc adapts a function to Transport
type TransportFunc func(ctx context.Context, msg *Message) error

// Deliver calls f
func (f TransportFunc) Deliver(ctx context.Context, msg *Message) error {
	return f(ctx, msg)
}

// Mailer renders problem emails and delivers them. It satisfies
// engine.Sender.
type Mailer struct {
	transport Transport
	views     *view.Renderer
	from      string
	replyTo   string
}

// New creates a mailer
func New(transport Transport, views *view.Renderer, from, replyTo string) *Mailer {
	if views == nil {
		views = view.NewRenderer()
	}
	return &Mailer{
		transport: transport,
		views:     views,
		from:      from,
		replyTo:   replyTo,
	}
}

// Send renders and delivers one problem email
func (m *Mailer) Send(ctx context.Context, email engine.Email) error {
	msg, err := m.Compose(email)
	if err != nil {
		return err
	}
	return m.transport.Deliver(ctx, msg)
}

// Compose renders the bodies of a problem email
func (m *Mailer) Compose(email engine.Email) (*Message, error) {
	data := view.Problem{
		Title:          email.Title,
		Difficulty:     email.Difficulty,
		URL:            email.URL,
		UnsubscribeURL: email.UnsubscribeURL,
	}
	html, err := m.views.ProblemHTML(data)
	if err != nil {
		return nil, fmt.Errorf("failed to render html body: %w", err)
	}
	text, err := m.views.ProblemText(data)
	if err != nil {
		return nil, fmt.Errorf("failed to render text body: %w", err)
	}
	return &Message{
		From:           m.from,
		To:             email.To,
		ReplyTo:        m.replyTo,
		Subject:        email.Subject,
		HTML:           html,
		Text:           text,
		UnsubscribeURL: email.UnsubscribeURL,
	}, nil
}

var _ engine.Sender = (*Mailer)(nil)

func encode(msg *Message) ([]byte, error) {
	raw, err := msg.MIME(time.Now())
	if err != nil {
		return nil, permanent(err)
	}
	return raw, nil
}
