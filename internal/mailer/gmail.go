package mailer

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"net/http"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
	gmail "google.golang.org/api/gmail/v1"
	"google.golang.org/api/googleapi"
	"google.golang.org/api/option"
)

// GmailConfig holds the OAuth2 credentials for the sending account
type GmailConfig struct {
	ClientID     string
	ClientSecret string
	RefreshToken string
	UserEmail    string
}

// GmailTransport sends raw MIME through users.messages.send
type GmailTransport struct {
	service   *gmail.Service
	userEmail string
}

// GmailOAuthConfig is the OAuth2 client for the send-only Gmail scope.
// redirectURL only matters when obtaining a refresh token.
func GmailOAuthConfig(clientID, clientSecret, redirectURL string) *oauth2.Config {
	return &oauth2.Config{
		ClientID:     clientID,
		ClientSecret: clientSecret,
		Scopes:       []string{gmail.GmailSendScope},
		Endpoint:     google.Endpoint,
		RedirectURL:  redirectURL,
	}
}

// NewGmailTransport creates a Gmail transport from a refresh token
func NewGmailTransport(ctx context.Context, cfg GmailConfig) (*GmailTransport, error) {
	oauth2Config := GmailOAuthConfig(cfg.ClientID, cfg.ClientSecret, "")
	tokenSource := oauth2Config.TokenSource(ctx, &oauth2.Token{RefreshToken: cfg.RefreshToken})

	return NewGmailTransportWithOptions(ctx, cfg.UserEmail, option.WithTokenSource(tokenSource))
}

// NewGmailTransportWithOptions creates a Gmail transport with explicit
// client options
func NewGmailTransportWithOptions(ctx context.Context, userEmail string, opts ...option.ClientOption) (*GmailTransport, error) {
	service, err := gmail.NewService(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create Gmail service: %w", err)
	}
	if userEmail == "" {
		userEmail = "me"
	}
	return &GmailTransport{service: service, userEmail: userEmail}, nil
}

// Deliver sends msg
func (t *GmailTransport) Deliver(ctx context.Context, msg *Message) error {
	raw, err := encode(msg)
	if err != nil {
		return err
	}

	_, err = t.service.Users.Messages.Send(t.userEmail, &gmail.Message{
		Raw: base64.URLEncoding.EncodeToString(raw),
	}).Context(ctx).Do()
	if err != nil {
		return classifyGmail(err)
	}
	return nil
}

// classifyGmail treats client errors other than rate limiting as permanent
func classifyGmail(err error) error {
	var apiErr *googleapi.Error
	if errors.As(err, &apiErr) {
		if apiErr.Code >= 400 && apiErr.Code < 500 && apiErr.Code != http.StatusTooManyRequests {
			return permanent(fmt.Errorf("gmail rejected message: %w", err))
		}
	}
	return fmt.Errorf("gmail send failed: %w", err)
}
