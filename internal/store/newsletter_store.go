package store

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"vision-api/internal/domain"
)

type NewsletterStore struct{ db *gorm.DB }

func (s *Store) Newsletters() *NewsletterStore { return &NewsletterStore{db: s.DB} }

func (n *NewsletterStore) Create(ctx context.Context, nl *domain.Newsletter) error {
	now := time.Now().UTC()
	if nl.ID == uuid.Nil {
		nl.ID = uuid.New()
	}
	if nl.SentAt.IsZero() {
		nl.SentAt = now
	}
	nl.CreatedAt = now
	nl.UpdatedAt = now
	return translateError(n.db.WithContext(ctx).Create(nl).Error)
}

// Page returns one page of the broadcast history, most recent first, along
// with the total number of newsletters. Pages start at 1.
func (n *NewsletterStore) Page(ctx context.Context, page, limit int) ([]domain.Newsletter, int64, error) {
	var total int64
	if err := n.db.WithContext(ctx).Model(&domain.Newsletter{}).Count(&total).Error; err != nil {
		return nil, 0, translateError(err)
	}

	out := []domain.Newsletter{}
	err := n.db.WithContext(ctx).
		Order("sent_at DESC").
		Offset((page - 1) * limit).
		Limit(limit).
		Find(&out).Error
	if err != nil {
		return nil, 0, translateError(err)
	}
	return out, total, nil
}
