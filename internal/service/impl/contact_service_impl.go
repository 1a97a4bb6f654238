package impl

import (
	"context"
	"fmt"
	"strings"

	"vision-api/internal/domain"
	"vision-api/internal/dto"
	"vision-api/internal/mail"
	"vision-api/internal/observability/logging"
	"vision-api/internal/observability/metrics"
	"vision-api/internal/service"
	"vision-api/internal/store"
	"vision-api/internal/validation"
)

const defaultContactSubject = "New contact message"

type ContactServiceImpl struct {
	Store  dataStore
	Mailer service.Mailer
	// CommercialEmail receives every contact message.
	CommercialEmail string
}

func NewContactServiceImpl(st *store.Store, mailer service.Mailer, commercialEmail string) *ContactServiceImpl {
	return &ContactServiceImpl{
		Store:           newGormStore(st),
		Mailer:          mailer,
		CommercialEmail: commercialEmail,
	}
}

// Submit stores the message, forwards it to the commercial address and
// confirms receipt to the sender. The message stays stored when a mail
// fails so it still shows up in the administrator inbox.
func (s *ContactServiceImpl) Submit(ctx context.Context, r dto.ContactRequest) (_ *domain.ContactMessage, err error) {
	defer func() {
		metrics.ContactMessagesTotal.WithLabelValues(metrics.Result(err)).Inc()
	}()

	msg := &domain.ContactMessage{
		Name:    strings.TrimSpace(r.Name),
		Email:   domain.NormalizeEmail(r.Email),
		Subject: strings.TrimSpace(r.Subject),
		Content: strings.TrimSpace(r.Message),
		Status:  domain.MessageNew,
	}
	if msg.Name == "" || msg.Email == "" || msg.Content == "" {
		return nil, domain.NewValidationError(MsgContactRequired)
	}
	if !validation.EmailValid(msg.Email) {
		return nil, domain.NewValidationError(validation.MsgInvalidEmail)
	}
	if msg.Subject == "" {
		msg.Subject = defaultContactSubject
	}

	if err := s.Store.Messages().Create(ctx, msg); err != nil {
		return nil, fmt.Errorf("store contact message: %w", err)
	}

	if err := s.deliver(ctx, msg); err != nil {
		logging.FromContext(ctx).Error("contact mail not sent", "message_id", msg.ID, "error", err)
		return nil, fmt.Errorf("%w: %w", domain.ErrDelivery, err)
	}

	logging.FromContext(ctx).Info("contact message received", "message_id", msg.ID)
	return msg, nil
}

func (s *ContactServiceImpl) deliver(ctx context.Context, msg *domain.ContactMessage) error {
	subject, body, err := mail.ContactNotice(msg)
	if err != nil {
		return err
	}
	if err := s.Mailer.Send(ctx, s.CommercialEmail, subject, body); err != nil {
		return fmt.Errorf("notify commercial address: %w", err)
	}

	subject, body, err = mail.ContactConfirmation(msg)
	if err != nil {
		return err
	}
	if err := s.Mailer.Send(ctx, msg.Email, subject, body); err != nil {
		return fmt.Errorf("confirm to sender: %w", err)
	}
	return nil
}
