package services

import (
	"context"
	"fmt"
	"log"

	"afisha/internal/domain"
)

type emailService struct {
	mailer   domain.Mailer
	renderer domain.EmailTemplateRenderer
}

// NewEmailService returns an EmailService that uses the given Mailer and template renderer.
func NewEmailService(mailer domain.Mailer, renderer domain.EmailTemplateRenderer) domain.EmailService {
	return &emailService{mailer: mailer, renderer: renderer}
}

// SendRequestDecision sends the participation decision email using the
// "request_confirmed" or "request_rejected" template.
func (s *emailService) SendRequestDecision(ctx context.Context, data *domain.RequestDecisionEmailData) error {
	if data == nil {
		return fmt.Errorf("request decision data is nil")
	}
	tmpl := "request_rejected"
	if data.Confirmed {
		tmpl = "request_confirmed"
	}
	subject, htmlBody, textBody, err := s.renderer.Render(tmpl, data)
	if err != nil {
		return fmt.Errorf("failed to render %s template: %w", tmpl, err)
	}
	if err := s.mailer.Send(data.Email, subject, htmlBody, textBody); err != nil {
		return fmt.Errorf("failed to send request decision email: %w", err)
	}
	log.Printf("[EMAIL] Request decision sent to %s", data.Email)
	return nil
}
