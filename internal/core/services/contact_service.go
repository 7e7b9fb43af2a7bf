package services

import (
	"bytes"
	"context"
	"fmt"
	"html/template"
	"strings"

	"github.com/rs/zerolog"

	"github.com/JeanGrijp/contact-limiter/internal/core/domain"
	"github.com/JeanGrijp/contact-limiter/internal/core/ports"
)

// ContactConfig identifica o dono do site e o remetente das mensagens.
type ContactConfig struct {
	OwnerEmail string
	OwnerName  string
	FromEmail  string
}

// ContactService valida, sanitiza e despacha submissões do formulário de contato.
type ContactService struct {
	mailer ports.Mailer
	config ContactConfig
	logger zerolog.Logger

	notificationTmpl *template.Template
	confirmationTmpl *template.Template
}

var _ ports.ContactSender = (*ContactService)(nil)

func NewContactService(mailer ports.Mailer, cfg ContactConfig, logger zerolog.Logger) (*ContactService, error) {
	if mailer == nil {
		return nil, fmt.Errorf("mailer is required")
	}
	if strings.TrimSpace(cfg.OwnerEmail) == "" || strings.TrimSpace(cfg.FromEmail) == "" {
		return nil, fmt.Errorf("owner and sender addresses are required")
	}

	notification, err := template.New("notification").Parse(notificationEmailTemplate)
	if err != nil {
		return nil, fmt.Errorf("parse notification template: %w", err)
	}
	confirmation, err := template.New("confirmation").Parse(confirmationEmailTemplate)
	if err != nil {
		return nil, fmt.Errorf("parse confirmation template: %w", err)
	}

	return &ContactService{
		mailer:           mailer,
		config:           cfg,
		logger:           logger.With().Str("component", "contact").Logger(),
		notificationTmpl: notification,
		confirmationTmpl: confirmation,
	}, nil
}

// Submit processa uma submissão. Bots que preenchem o honeypot recebem sucesso sem envio.
func (s *ContactService) Submit(ctx context.Context, req domain.ContactRequest) (domain.ContactResult, error) {
	if req.IsHoneypot() {
		s.logger.Info().Msg("honeypot triggered, submission dropped")
		return domain.ContactResult{Honeypot: true}, nil
	}

	if err := req.Validate(); err != nil {
		return domain.ContactResult{}, err
	}

	contact := req.Normalize()
	s.logger.Info().
		Str("name", contact.Name).
		Str("email", domain.MaskValue(contact.Email, 3)).
		Msg("sending contact emails")

	notification, err := s.render(s.notificationTmpl, contact)
	if err != nil {
		return domain.ContactResult{}, err
	}

	notificationID, err := s.mailer.Send(ctx, domain.Message{
		From:    fmt.Sprintf("Portfolio Contact <%s>", s.config.FromEmail),
		To:      []string{s.config.OwnerEmail},
		ReplyTo: contact.Email,
		Subject: "New Contact Form Message from " + contact.Name,
		HTML:    notification,
	})
	if err != nil {
		s.logger.Error().Err(err).Msg("failed to send notification email")
		return domain.ContactResult{}, fmt.Errorf("%w: %v", domain.ErrMailDelivery, err)
	}

	result := domain.ContactResult{NotificationID: notificationID}

	confirmation, err := s.render(s.confirmationTmpl, contact)
	if err != nil {
		s.logger.Error().Err(err).Msg("failed to render confirmation email")
		return result, nil
	}

	// O dono já recebeu a mensagem; falha na confirmação não chega ao cliente.
	confirmationID, err := s.mailer.Send(ctx, domain.Message{
		From:    fmt.Sprintf("%s <%s>", s.config.OwnerName, s.config.FromEmail),
		To:      []string{contact.Email},
		Subject: "Thank you for your message!",
		HTML:    confirmation,
	})
	if err != nil {
		s.logger.Warn().Err(err).Msg("failed to send confirmation email")
		return result, nil
	}
	result.ConfirmationID = confirmationID

	return result, nil
}

type emailData struct {
	Contact   domain.ContactRequest
	OwnerName string
}

func (s *ContactService) render(tmpl *template.Template, contact domain.ContactRequest) (string, error) {
	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, emailData{Contact: contact, OwnerName: s.config.OwnerName}); err != nil {
		return "", fmt.Errorf("render %s email: %w", tmpl.Name(), err)
	}
	return buf.String(), nil
}

const notificationEmailTemplate = `<!DOCTYPE html>
<html>
<head><meta charset="utf-8"><title>New Contact Form Submission</title></head>
<body style="margin:0;padding:0;background-color:#f5f5f5;font-family:'Segoe UI',Tahoma,sans-serif;">
  <div style="max-width:600px;margin:0 auto;background-color:#ffffff;border:1px solid #e0e0e0;">
    <div style="background-color:#2563eb;padding:30px;text-align:center;">
      <h1 style="margin:0;color:#ffffff;font-size:24px;">New Contact Form Submission</h1>
      <p style="margin:10px 0 0 0;color:#e2e8f0;">{{.OwnerName}}</p>
    </div>
    <div style="padding:30px;">
      <p><strong>Name:</strong> {{.Contact.Name}}</p>
      <p><strong>Email:</strong> {{.Contact.Email}}</p>
      <p style="white-space:pre-wrap;">{{.Contact.Message}}</p>
    </div>
  </div>
</body>
</html>`

const confirmationEmailTemplate = `<!DOCTYPE html>
<html lang="en">
<head><meta charset="utf-8"><title>Thank You - {{.OwnerName}}</title></head>
<body style="margin:0;padding:0;background-color:#f5f5f5;font-family:system-ui,sans-serif;">
  <div style="max-width:600px;margin:0 auto;background-color:#ffffff;border:1px solid #e5e5e5;">
    <div style="border-bottom:3px solid #3DF584;padding:40px 30px;text-align:center;">
      <h1 style="margin:0;font-size:28px;">Thank You!</h1>
      <p style="margin:10px 0 0 0;color:#666;">Message Received Successfully</p>
    </div>
    <div style="padding:30px;">
      <h2>Hi {{.Contact.Name}},</h2>
      <p>Thank you for reaching out! I've received your message and will get back to you as soon as possible.</p>
      <p>Best regards,<br><strong>{{.OwnerName}}</strong></p>
      <p style="font-size:12px;color:#999;">This is an automated confirmation. Please do not reply to this email.</p>
    </div>
  </div>
</body>
</html>`
