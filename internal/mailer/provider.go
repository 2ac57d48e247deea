package mailer

import (
	"context"
	"fmt"

	"github.com/sirupsen/logrus"

	"github.com/Hakote/Hakote/internal/config"
	"github.com/Hakote/Hakote/internal/engine"
	"github.com/Hakote/Hakote/internal/view"
)

// NewFromConfig builds the live sender for the configured provider:
// breaker, then retries, then the provider itself.
func NewFromConfig(ctx context.Context, cfg config.MailConfig, views *view.Renderer) (engine.Sender, error) {
	var transport Transport

	switch cfg.Provider {
	case config.ProviderSES:
		ses, err := NewSESTransport(ctx, cfg.SESRegion, cfg.SESAccessKey, cfg.SESSecretKey)
		if err != nil {
			return nil, err
		}
		transport = ses
		logrus.Infof("Using SES (%s) for outbound mail", cfg.SESRegion)
	case config.ProviderGmail:
		gm, err := NewGmailTransport(ctx, GmailConfig{
			ClientID:     cfg.ClientID,
			ClientSecret: cfg.ClientSecret,
			RefreshToken: cfg.RefreshToken,
			UserEmail:    cfg.UserEmail,
		})
		if err != nil {
			return nil, err
		}
		transport = gm
		logrus.Info("Using Gmail API for outbound mail")
	case config.ProviderDryRun:
		logrus.Warn("Mail provider is dryrun; no mail will leave this process")
		return NewDryRunSender(nil), nil
	default:
		return nil, fmt.Errorf("unknown mail provider %q", cfg.Provider)
	}

	policy := DefaultRetryPolicy()
	if cfg.MaxAttempts > 0 {
		policy.MaxAttempts = cfg.MaxAttempts
	}
	if cfg.AttemptTimeout > 0 {
		policy.AttemptTimeout = cfg.AttemptTimeout
	}
	transport = NewRetrying(transport, policy)
	transport = NewBreaker(transport, DefaultBreakerSettings(cfg.Provider))

	return New(transport, views, cfg.From, cfg.ReplyTo), nil
}
