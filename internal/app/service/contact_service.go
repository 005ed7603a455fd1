package service

import (
	"context"
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/booktime/booktime-backend/pkg/logger"
	"github.com/booktime/booktime-backend/pkg/mailer"
)

const (
	contactSubject    = "Site Message"
	contactNameMin    = 15
	contactNameMax    = 100
	contactMessageMax = 600
)

type ContactService interface {
	Send(ctx context.Context, name, message string) error
}

type contactService struct {
	mail            mailer.Mailer
	fromAddress     string
	customerService string
}

func NewContactService(mail mailer.Mailer, fromAddress, customerService string) ContactService {
	return &contactService{
		mail:            mail,
		fromAddress:     fromAddress,
		customerService: customerService,
	}
}

// Send forwards a contact form message to customer service. Unlike the
// welcome email, a delivery failure is returned to the caller.
func (s *contactService) Send(ctx context.Context, name, message string) error {
	fields := map[string]string{}
	if n := utf8.RuneCountInString(name); n < contactNameMin || n > contactNameMax {
		fields["name"] = fmt.Sprintf("name must be between %d and %d characters", contactNameMin, contactNameMax)
	}
	if strings.TrimSpace(message) == "" {
		fields["message"] = "message is required"
	} else if utf8.RuneCountInString(message) > contactMessageMax {
		fields["message"] = fmt.Sprintf("message must be at most %d characters", contactMessageMax)
	}
	if len(fields) > 0 {
		return &ValidationError{Fields: fields}
	}

	logger.Info("Sending email to customer service")
	err := s.mail.Send(ctx, mailer.Message{
		From:    s.fromAddress,
		To:      []string{s.customerService},
		Subject: contactSubject,
		Body:    fmt.Sprintf("From: %s \n %s", name, message),
	})
	if err != nil {
		logger.Error("Contact form email failed", err)
		return fmt.Errorf("%w: %w", ErrMailDeliveryFailure, err)
	}
	return nil
}
