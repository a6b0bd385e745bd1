// Package mail delivers digest emails through AWS SES.
package mail

import (
	"context"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/ses"
	"github.com/aws/aws-sdk-go-v2/service/ses/types"
)

// Mailer sends one HTML email. The dispatcher is the only caller; it maps
// any error to a failed-dispatch outcome.
type Mailer interface {
	Send(ctx context.Context, to, subject, htmlBody string) error
}

// SESMailer implements Mailer on AWS SES.
type SESMailer struct {
	client *ses.Client
	sender string
}

// NewSESMailer loads the default AWS config for the region and returns a
// ready mailer sending from sender.
func NewSESMailer(ctx context.Context, region, sender string) (*SESMailer, error) {
	cfg, err := awsconfig.LoadDefaultConfig(ctx, awsconfig.WithRegion(region))
	if err != nil {
		return nil, fmt.Errorf("aws config load: %w", err)
	}
	return &SESMailer{client: ses.NewFromConfig(cfg), sender: sender}, nil
}

// Send delivers a single HTML email via SES.
func (m *SESMailer) Send(ctx context.Context, to, subject, htmlBody string) error {
	input := &ses.SendEmailInput{
		Destination: &types.Destination{
			ToAddresses: []string{to},
		},
		Message: &types.Message{
			Subject: &types.Content{
				Data: aws.String(subject),
			},
			Body: &types.Body{
				Html: &types.Content{
					Data: aws.String(htmlBody),
				},
			},
		},
		Source: aws.String(m.sender),
	}

	if _, err := m.client.SendEmail(ctx, input); err != nil {
		return fmt.Errorf("ses send: %w", err)
	}
	return nil
}
