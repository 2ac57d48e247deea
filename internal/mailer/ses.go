package mailer

import (
	"context"
	"errors"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/sesv2"
	"github.com/aws/aws-sdk-go-v2/service/sesv2/types"
	"github.com/sirupsen/logrus"

	"github.com/Hakote/Hakote/internal/logging"
)

// SESAPI is the part of the SES v2 client the transport uses
type SESAPI interface {
	SendEmail(ctx context.Context, params *sesv2.SendEmailInput, optFns ...func(*sesv2.Options)) (*sesv2.SendEmailOutput, error)
}

// SESTransport sends raw MIME through SES v2
type SESTransport struct {
	api SESAPI
}

// NewSESTransport creates an SES transport. Static keys are used when both
// are set; otherwise the default AWS credential chain applies.
func NewSESTransport(ctx context.Context, region, accessKey, secretKey string) (*SESTransport, error) {
	opts := []func(*awsconfig.LoadOptions) error{awsconfig.WithRegion(region)}
	if accessKey != "" && secretKey != "" {
		opts = append(opts, awsconfig.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(accessKey, secretKey, ""),
		))
	}

	cfg, err := awsconfig.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS config: %w", err)
	}
	return NewSESTransportWithAPI(sesv2.NewFromConfig(cfg)), nil
}

// NewSESTransportWithAPI creates an SES transport over an existing client
func NewSESTransportWithAPI(api SESAPI) *SESTransport {
	return &SESTransport{api: api}
}

// Deliver sends msg as raw content
func (t *SESTransport) Deliver(ctx context.Context, msg *Message) error {
	raw, err := encode(msg)
	if err != nil {
		return err
	}

	out, err := t.api.SendEmail(ctx, &sesv2.SendEmailInput{
		Destination: &types.Destination{ToAddresses: []string{msg.To}},
		Content: &types.EmailContent{
			Raw: &types.RawMessage{Data: raw},
		},
	})
	if err != nil {
		return classifySES(err)
	}

	logrus.Debugf("SES accepted mail to %s (id: %s)", logging.RedactEmail(msg.To), aws.ToString(out.MessageId))
	return nil
}

// classifySES marks errors that will not go away on retry
func classifySES(err error) error {
	var rejected *types.MessageRejected
	var notVerified *types.MailFromDomainNotVerifiedException
	var suspended *types.AccountSuspendedException
	var badRequest *types.BadRequestException

	switch {
	case errors.As(err, &rejected), errors.As(err, &notVerified),
		errors.As(err, &suspended), errors.As(err, &badRequest):
		return permanent(fmt.Errorf("ses rejected message: %w", err))
	}
	return fmt.Errorf("ses send failed: %w", err)
}
