package domain

import "time"

type MessageStatus string

const (
	MessageNew        MessageStatus = "new"
	MessageInProgress MessageStatus = "in_progress"
	MessageResolved   MessageStatus = "resolved"
)

func (s MessageStatus) Valid() bool {
	switch s {
	case MessageNew, MessageInProgress, MessageResolved:
		return true
	}
	return false
}

// ContactMessage is a message left through the public contact form.
type ContactMessage struct {
	ID        MessageID     `gorm:"type:uuid;primaryKey" db:"id" json:"id"`
	Name      string        `gorm:"type:text;not null" db:"name" json:"name"`
	Email     string        `gorm:"type:text;not null" db:"email" json:"email"`
	Subject   string        `gorm:"type:text;not null" db:"subject" json:"subject"`
	Content   string        `gorm:"type:text;not null" db:"content" json:"content"`
	Status    MessageStatus `gorm:"type:text;not null;default:'new';index" db:"status" json:"status"`
	CreatedAt time.Time     `gorm:"not null;index" db:"created_at" json:"createdAt"`
	UpdatedAt time.Time     `gorm:"not null" db:"updated_at" json:"updatedAt"`
}

func (ContactMessage) TableName() string { return "contact_messages" }
