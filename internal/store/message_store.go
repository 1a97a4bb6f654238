package store

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"vision-api/internal/domain"
)

type MessageStore struct{ db *gorm.DB }

func (s *Store) Messages() *MessageStore { return &MessageStore{db: s.DB} }

func (m *MessageStore) Create(ctx context.Context, msg *domain.ContactMessage) error {
	now := time.Now().UTC()
	if msg.ID == uuid.Nil {
		msg.ID = uuid.New()
	}
	if msg.Status == "" {
		msg.Status = domain.MessageNew
	}
	msg.CreatedAt = now
	msg.UpdatedAt = now
	return translateError(m.db.WithContext(ctx).Create(msg).Error)
}

func (m *MessageStore) GetByID(ctx context.Context, id domain.MessageID) (*domain.ContactMessage, error) {
	var msg domain.ContactMessage
	if err := m.db.WithContext(ctx).First(&msg, "id = ?", id).Error; err != nil {
		return nil, translateError(err)
	}
	return &msg, nil
}

// List returns every message, newest first.
func (m *MessageStore) List(ctx context.Context) ([]domain.ContactMessage, error) {
	var out []domain.ContactMessage
	if err := m.db.WithContext(ctx).Order("created_at DESC").Find(&out).Error; err != nil {
		return nil, translateError(err)
	}
	return out, nil
}

func (m *MessageStore) UpdateStatus(ctx context.Context, id domain.MessageID, status domain.MessageStatus) error {
	res := m.db.WithContext(ctx).Model(&domain.ContactMessage{}).
		Where("id = ?", id).
		Updates(map[string]any{"status": status, "updated_at": time.Now().UTC()})
	if res.Error != nil {
		return translateError(res.Error)
	}
	if res.RowsAffected == 0 {
		return domain.ErrNotFound
	}
	return nil
}

func (m *MessageStore) Delete(ctx context.Context, id domain.MessageID) error {
	res := m.db.WithContext(ctx).Where("id = ?", id).Delete(&domain.ContactMessage{})
	if res.Error != nil {
		return translateError(res.Error)
	}
	if res.RowsAffected == 0 {
		return domain.ErrNotFound
	}
	return nil
}
