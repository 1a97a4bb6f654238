package impl

import (
	"context"
	"fmt"
	"math"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"

	"vision-api/internal/domain"
	"vision-api/internal/dto"
	"vision-api/internal/mail"
	"vision-api/internal/observability/logging"
	"vision-api/internal/observability/metrics"
	"vision-api/internal/service"
	"vision-api/internal/store"
)

const (
	DefaultHistoryLimit = 10
	MaxHistoryLimit     = 100
)

type NewsletterServiceImpl struct {
	Store  dataStore
	Mailer service.Mailer
	// Concurrency bounds the number of mails in flight.
	Concurrency int
	// SendTimeout bounds the whole fan-out. Zero means no bound.
	SendTimeout time.Duration
	Now         func() time.Time
}

func NewNewsletterServiceImpl(st *store.Store, mailer service.Mailer, concurrency int, sendTimeout time.Duration) *NewsletterServiceImpl {
	return &NewsletterServiceImpl{
		Store:       newGormStore(st),
		Mailer:      mailer,
		Concurrency: concurrency,
		SendTimeout: sendTimeout,
		Now:         time.Now,
	}
}

// Send mails the newsletter to every subscribed account and records the
// broadcast with the recipients that were actually reached. It fails only
// when there were subscribers and none of them could be reached.
func (s *NewsletterServiceImpl) Send(ctx context.Context, sender domain.AccountID, r dto.NewsletterRequest) (_ *domain.Newsletter, err error) {
	defer func() {
		metrics.NewslettersSentTotal.WithLabelValues(metrics.Result(err)).Inc()
	}()

	subject := strings.TrimSpace(r.Subject)
	content := strings.TrimSpace(r.Content)
	if subject == "" || content == "" {
		return nil, domain.NewValidationError(MsgNewsletterRequired)
	}

	subscribers, err := s.Store.Accounts().NewsletterSubscribers(ctx)
	if err != nil {
		return nil, fmt.Errorf("load subscribers: %w", err)
	}
	body, err := mail.Newsletter(subject, content)
	if err != nil {
		return nil, err
	}

	// Once mails go out the broadcast runs to the end and is recorded, even
	// if the request that started it times out or the client goes away.
	sendCtx := context.WithoutCancel(ctx)
	if s.SendTimeout > 0 {
		var cancel context.CancelFunc
		sendCtx, cancel = context.WithTimeout(sendCtx, s.SendTimeout)
		defer cancel()
	}

	delivered := make([]bool, len(subscribers))
	g, gctx := errgroup.WithContext(sendCtx)
	limit := s.Concurrency
	if limit <= 0 {
		limit = 1
	}
	g.SetLimit(limit)
	for i := range subscribers {
		i := i
		to := subscribers[i].Email
		g.Go(func() error {
			if err := s.Mailer.Send(gctx, to, subject, body); err != nil {
				metrics.NewsletterDeliveriesTotal.WithLabelValues("failure").Inc()
				logging.FromContext(ctx).Warn("newsletter not delivered", "to", to, "error", err)
				return nil
			}
			metrics.NewsletterDeliveriesTotal.WithLabelValues("success").Inc()
			delivered[i] = true
			return nil
		})
	}
	_ = g.Wait()

	recipients := make([]string, 0, len(subscribers))
	for i, ok := range delivered {
		if ok {
			recipients = append(recipients, subscribers[i].Email)
		}
	}
	if len(subscribers) > 0 && len(recipients) == 0 {
		return nil, fmt.Errorf("%w: no subscriber reached", domain.ErrDelivery)
	}

	now := time.Now
	if s.Now != nil {
		now = s.Now
	}
	nl := &domain.Newsletter{
		Subject:        subject,
		Content:        content,
		SentAt:         now().UTC(),
		SentBy:         sender,
		RecipientCount: len(recipients),
		Recipients:     recipients,
	}
	if err := s.Store.Newsletters().Create(context.WithoutCancel(ctx), nl); err != nil {
		return nil, fmt.Errorf("record newsletter: %w", err)
	}

	logging.FromContext(ctx).Info("newsletter sent",
		"newsletter_id", nl.ID,
		"subscribers", len(subscribers),
		"delivered", len(recipients),
	)
	return nl, nil
}

// History pages through past broadcasts. Out of range page and limit values
// fall back to the first page and the default limit.
func (s *NewsletterServiceImpl) History(ctx context.Context, page, limit int) (*dto.NewsletterHistoryResponse, error) {
	if page < 1 {
		page = 1
	}
	if limit < 1 {
		limit = DefaultHistoryLimit
	}
	if limit > MaxHistoryLimit {
		limit = MaxHistoryLimit
	}

	items, total, err := s.Store.Newsletters().Page(ctx, page, limit)
	if err != nil {
		return nil, err
	}
	return &dto.NewsletterHistoryResponse{
		Newsletters: items,
		Pagination: dto.Pagination{
			Total: total,
			Page:  page,
			Pages: int(math.Ceil(float64(total) / float64(limit))),
		},
	}, nil
}
