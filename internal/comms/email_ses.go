package comms

import (
	"context"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/sesv2"
	"github.com/aws/aws-sdk-go-v2/service/sesv2/types"

	"github.com/careline/intake-platform/internal/domain"
	"github.com/careline/intake-platform/internal/pkg/logger"
)

// SESEmailSender delivers lifecycle email through AWS SES. When
// credentials are absent the client stays nil and sends degrade to log
// lines, so local development needs no AWS account.
type SESEmailSender struct {
	fromEmail string
	fromName  string
	client    *sesv2.Client
}

// NewSESEmailSender creates the email sender. Region defaults to us-east-1.
func NewSESEmailSender(accessKey, secretKey, region, fromEmail, fromName string) *SESEmailSender {
	if region == "" {
		region = "us-east-1"
	}

	s := &SESEmailSender{fromEmail: fromEmail, fromName: fromName}

	if accessKey != "" && secretKey != "" {
		cfg, err := awsconfig.LoadDefaultConfig(context.Background(),
			awsconfig.WithRegion(region),
			awsconfig.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(accessKey, secretKey, "")),
		)
		if err != nil {
			logger.Warn("ses init failed, falling back to dry-run", "error", err.Error())
		} else {
			s.client = sesv2.NewFromConfig(cfg)
		}
	}

	return s
}

func (s *SESEmailSender) Channel() domain.Channel { return domain.ChannelEmail }

// Send delivers one email. Content is sent as both the plain-text body
// and an HTML body so simple templates render everywhere.
func (s *SESEmailSender) Send(ctx context.Context, c *domain.Customer, msg Message) error {
	if c.Email == "" {
		return fmt.Errorf("customer %s has no email address", c.ID)
	}

	if s.client == nil {
		logger.Info("dry-run email dispatch",
			"customer_id", c.ID, "email", c.Email, "subject", msg.Subject)
		return nil
	}

	input := &sesv2.SendEmailInput{
		FromEmailAddress: aws.String(fmt.Sprintf("%s <%s>", s.fromName, s.fromEmail)),
		Destination:      &types.Destination{ToAddresses: []string{c.Email}},
		Content: &types.EmailContent{
			Simple: &types.Message{
				Subject: &types.Content{Data: aws.String(msg.Subject), Charset: aws.String("UTF-8")},
				Body: &types.Body{
					Text: &types.Content{Data: aws.String(msg.Body), Charset: aws.String("UTF-8")},
					Html: &types.Content{Data: aws.String(msg.Body), Charset: aws.String("UTF-8")},
				},
			},
		},
		EmailTags: []types.MessageTag{
			{Name: aws.String("customer_id"), Value: aws.String(c.ID)},
		},
	}

	result, err := s.client.SendEmail(ctx, input)
	if err != nil {
		return fmt.Errorf("ses send to %s: %w", logger.RedactEmail(c.Email), err)
	}

	messageID := ""
	if result.MessageId != nil {
		messageID = *result.MessageId
	}
	logger.Info("email dispatched",
		"customer_id", c.ID, "email", c.Email, "message_id", messageID)
	return nil
}
