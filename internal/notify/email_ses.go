package notify

import (
	"context"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/sesv2"
	"github.com/aws/aws-sdk-go-v2/service/sesv2/types"

	"github.com/dentalis/clinic-platform/pkg/logging"
)

// SESSender sends emails through AWS SES.
type SESSender struct {
	client *sesv2.Client
	from   string
	logger *logging.Logger
}

// SESConfig holds the SES from address.
type SESConfig struct {
	FromEmail string
	FromName  string
}

// NewSESSender returns an SES sender, or nil when no client is configured.
func NewSESSender(client *sesv2.Client, cfg SESConfig, logger *logging.Logger) *SESSender {
	if client == nil {
		return nil
	}
	if logger == nil {
		logger = logging.Default()
	}
	if cfg.FromName == "" {
		cfg.FromName = defaultFromName
	}
	return &SESSender{
		client: client,
		from:   fmt.Sprintf("%s <%s>", cfg.FromName, cfg.FromEmail),
		logger: logger,
	}
}

// Send sends an email via AWS SES.
func (s *SESSender) Send(ctx context.Context, msg EmailMessage) error {
	if s.client == nil {
		return fmt.Errorf("notify: SES client not configured")
	}

	output, err := s.client.SendEmail(ctx, &sesv2.SendEmailInput{
		FromEmailAddress: aws.String(s.from),
		Destination:      &types.Destination{ToAddresses: []string{msg.To}},
		Content: &types.EmailContent{
			Simple: &types.Message{
				Subject: sesContent(msg.Subject),
				Body: &types.Body{
					Text: sesContent(msg.Body),
					Html: sesContent(msg.HTML),
				},
			},
		},
	})
	if err != nil {
		s.logger.Error("SES send failed", "error", err, "to", msg.To)
		return fmt.Errorf("notify: SES send: %w", err)
	}

	s.logger.Info("email sent via SES", "to", msg.To, "subject", msg.Subject, "message_id", aws.ToString(output.MessageId))
	return nil
}

// sesContent wraps text as UTF-8 SES content, nil when empty so the API
// omits the part rather than sending a blank body.
func sesContent(data string) *types.Content {
	if data == "" {
		return nil
	}
	return &types.Content{Data: aws.String(data), Charset: aws.String("UTF-8")}
}

var _ EmailSender = (*SESSender)(nil)
