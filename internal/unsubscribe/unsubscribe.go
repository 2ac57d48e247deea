// Package unsubscribe builds the links placed in every problem mail.
package unsubscribe

import (
	"net/url"
	"strings"
)

// Path is the route that handles unsubscribe links
const Path = "/api/unsubscribe"

// Builder turns ids into absolute unsubscribe URLs
type Builder struct {
	base string
}

// NewBuilder creates a builder rooted at baseURL
func NewBuilder(baseURL string) *Builder {
	return &Builder{base: strings.TrimRight(baseURL, "/")}
}

// SubscriptionURL cancels a single subscription
func (b *Builder) SubscriptionURL(subscriptionID string) string {
	return b.build("subscription_id", subscriptionID)
}

// TokenURL cancels every subscription of a subscriber (legacy links)
func (b *Builder) TokenURL(token string) string {
	return b.build("token", token)
}

func (b *Builder) build(key, value string) string {
	q := url.Values{}
	q.Set(key, value)
	return b.base + Path + "?" + q.Encode()
}
