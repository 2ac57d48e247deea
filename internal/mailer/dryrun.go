package mailer

import (
	"context"

	"github.com/sirupsen/logrus"

	"github.com/Hakote/Hakote/internal/engine"
)

// DryRunSender logs the mail it would send and never touches the network.
// Fail, when set, is returned from every call.
type DryRunSender struct {
	log  *logrus.Entry
	Fail error
}

// NewDryRunSender creates a dry-run sender logging to log
func NewDryRunSender(log *logrus.Logger) *DryRunSender {
	if log == nil {
		log = logrus.StandardLogger()
	}
	return &DryRunSender{log: logrus.NewEntry(log).WithField("mode", "dry_run")}
}

// Send logs email
func (s *DryRunSender) Send(ctx context.Context, email engine.Email) error {
	s.log.WithFields(logrus.Fields{
		"to":          email.To,
		"subject":     email.Subject,
		"title":       email.Title,
		"difficulty":  email.Difficulty,
		"url":         email.URL,
		"unsubscribe": email.UnsubscribeURL,
	}).Info("Simulated problem email")
	return s.Fail
}

var _ engine.Sender = (*DryRunSender)(nil)
