package service

import (
	"context"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/sesv2"
	"github.com/aws/aws-sdk-go-v2/service/sesv2/types"
	"github.com/rs/zerolog"
)

// EmailService sends transactional mail through Amazon SES. With no sender
// address configured it runs disabled and every send becomes a logged no-op,
// which keeps local development free of AWS credentials.
type EmailService struct {
	client     *sesv2.Client
	fromEmail  string
	fromName   string
	appBaseURL string
	enabled    bool
	log        zerolog.Logger
}

// NewEmailService creates a new email service.
func NewEmailService(ctx context.Context, awsRegion, fromEmail, fromName, appBaseURL string, log zerolog.Logger) (*EmailService, error) {
	if fromEmail == "" {
		log.Info().Msg("email service disabled: SES_FROM_EMAIL not configured")
		return &EmailService{enabled: false, log: log}, nil
	}

	cfg, err := config.LoadDefaultConfig(ctx, config.WithRegion(awsRegion))
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS config: %w", err)
	}

	log.Info().Str("from", fromEmail).Str("region", awsRegion).Msg("email service enabled")
	return &EmailService{
		client:     sesv2.NewFromConfig(cfg),
		fromEmail:  fromEmail,
		fromName:   fromName,
		appBaseURL: appBaseURL,
		enabled:    true,
		log:        log,
	}, nil
}

// IsEnabled returns whether the email service is enabled.
func (s *EmailService) IsEnabled() bool {
	return s.enabled
}

// SendPasswordResetEmail sends a password reset email with a reset link.
func (s *EmailService) SendPasswordResetEmail(ctx context.Context, toEmail, toName, resetToken string) error {
	if !s.enabled {
		s.log.Info().Str("to", toEmail).Msg("skipping password reset email, service disabled")
		return nil
	}

	resetLink := fmt.Sprintf("%s/auth/reset-password?token=%s", s.appBaseURL, resetToken)
	subject := "Reset your LuckaBet password"

	htmlBody := fmt.Sprintf(`<!DOCTYPE html>
<html>
<body style="font-family: Arial, sans-serif; color: #333;">
	<div style="max-width: 600px; margin: 0 auto; padding: 20px;">
		<h1>Password reset</h1>
		<p>Hi %s,</p>
		<p>We received a request to reset the password for your LuckaBet account.</p>
		<p style="text-align: center;">
			<a href="%s" style="display: inline-block; padding: 12px 30px; background-color: #4a90e2; color: white; text-decoration: none; border-radius: 5px;">Reset password</a>
		</p>
		<p>Or copy this link into your browser:</p>
		<p style="word-break: break-all; font-size: 12px; color: #666;">%s</p>
		<p><strong>This link expires in 1 hour.</strong></p>
		<p>If you didn't ask for a reset, you can ignore this email.</p>
	</div>
</body>
</html>`, toName, resetLink, resetLink)

	textBody := fmt.Sprintf(`Hi %s,

We received a request to reset the password for your LuckaBet account.

Open the link below to choose a new password:
%s

This link expires in 1 hour.

If you didn't ask for a reset, you can ignore this email.
`, toName, resetLink)

	return s.sendEmail(ctx, toEmail, subject, htmlBody, textBody)
}

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

	if _, err := s.client.SendEmail(ctx, input); err != nil {
		return fmt.Errorf("failed to send email to %s: %w", toEmail, err)
	}
	s.log.Info().Str("to", toEmail).Str("subject", subject).Msg("email sent")
	return nil
}
