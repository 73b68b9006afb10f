package service

import (
	"context"
	"fmt"
	"net/url"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/sesv2"
	"github.com/aws/aws-sdk-go-v2/service/sesv2/types"
	"go.uber.org/zap"
)

// sesClient is the part of the SES v2 API the email service uses
type sesClient interface {
	SendEmail(ctx context.Context, params *sesv2.SendEmailInput, optFns ...func(*sesv2.Options)) (*sesv2.SendEmailOutput, error)
}

// EmailService sends account emails via Amazon SES
type EmailService struct {
	client     sesClient
	fromEmail  string
	fromName   string
	appBaseURL string
	enabled    bool
	logger     *zap.Logger
}

// NewEmailService creates a new email service. Without a sender address the
// service is disabled and skips every send.
func NewEmailService(ctx context.Context, awsRegion, fromEmail, fromName, appBaseURL string, logger *zap.Logger) (*EmailService, error) {
	if fromEmail == "" {
		logger.Info("email service disabled: SES_FROM_EMAIL not configured")
		return &EmailService{enabled: false, logger: logger}, nil
	}

	cfg, err := awsconfig.LoadDefaultConfig(ctx, awsconfig.WithRegion(awsRegion))
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS config: %w", err)
	}

	logger.Info("email service enabled", zap.String("from", fromEmail), zap.String("region", awsRegion))
	return newEmailService(sesv2.NewFromConfig(cfg), fromEmail, fromName, appBaseURL, logger), nil
}

func newEmailService(client sesClient, fromEmail, fromName, appBaseURL string, logger *zap.Logger) *EmailService {
	return &EmailService{
		client:     client,
		fromEmail:  fromEmail,
		fromName:   fromName,
		appBaseURL: appBaseURL,
		enabled:    true,
		logger:     logger,
	}
}

// IsEnabled returns whether the email service is enabled
func (s *EmailService) IsEnabled() bool {
	return s.enabled
}

// SendPasswordResetEmail sends a password reset link
func (s *EmailService) SendPasswordResetEmail(ctx context.Context, toEmail, toName, resetToken string, expiresAt time.Time) error {
	if !s.enabled {
		s.logger.Info("skipping email send (service disabled)", zap.String("kind", "password_reset"), zap.String("to", toEmail))
		return nil
	}

	resetLink := fmt.Sprintf("%s/reset-password?token=%s", s.appBaseURL, url.QueryEscape(resetToken))
	expiry := expiresAt.UTC().Format("2006-01-02 15:04 MST")
	subject := "Reset your Tutorhub password"

	htmlBody := fmt.Sprintf(`
<!DOCTYPE html>
<html>
<head>
	<meta charset="UTF-8">
	<style>
		body { font-family: Arial, sans-serif; line-height: 1.6; color: #333; }
		.container { max-width: 600px; margin: 0 auto; padding: 20px; }
		.button { display: inline-block; padding: 12px 30px; background-color: #2b6cb0; color: white; text-decoration: none; border-radius: 5px; }
		.footer { margin-top: 20px; font-size: 12px; color: #666; }
	</style>
</head>
<body>
	<div class="container">
		<p>Hi %s,</p>
		<p>Someone asked to reset the password of your Tutorhub account.</p>
		<p><a href="%s" class="button">Choose a new password</a></p>
		<p style="word-break: break-all; font-size: 12px;">%s</p>
		<p><strong>The link can be used once and expires at %s.</strong></p>
		<p>If this wasn't you, ignore this email. Your password stays the same.</p>
		<p class="footer">Automated message from Tutorhub.</p>
	</div>
</body>
</html>
`, toName, resetLink, resetLink, expiry)

	textBody := fmt.Sprintf(`Hi %s,

Someone asked to reset the password of your Tutorhub account.

Choose a new password:
%s

The link can be used once and expires at %s.

If this wasn't you, ignore this email. Your password stays the same.
`, toName, resetLink, expiry)

	return s.sendEmail(ctx, toEmail, subject, htmlBody, textBody)
}

// sendEmail sends an email using Amazon SES
func (s *EmailService) sendEmail(ctx context.Context, toEmail, subject, htmlBody, textBody string) error {
	fromAddress := s.fromEmail
	if s.fromName != "" {
		fromAddress = fmt.Sprintf("%s <%s>", s.fromName, s.fromEmail)
	}

	input := &sesv2.SendEmailInput{
		FromEmailAddress: aws.String(fromAddress),
		Destination: &types.Destination{
			ToAddresses: []string{toEmail},
		},
		Content: &types.EmailContent{
			Simple: &types.Message{
				Subject: &types.Content{
					Data:    aws.String(subject),
					Charset: aws.String("UTF-8"),
				},
				Body: &types.Body{
					Html: &types.Content{
						Data:    aws.String(htmlBody),
						Charset: aws.String("UTF-8"),
					},
					Text: &types.Content{
						Data:    aws.String(textBody),
						Charset: aws.String("UTF-8"),
					},
				},
			},
		},
	}

	result, err := s.client.SendEmail(ctx, input)
	if err != nil {
		return fmt.Errorf("failed to send email to %s: %w", toEmail, err)
	}

	s.logger.Info("email sent",
		zap.String("to", toEmail),
		zap.String("subject", subject),
		zap.String("message_id", aws.ToString(result.MessageId)),
	)
	return nil
}
