package domain

import "time"

type Newsletter struct {
	ID             NewsletterID `gorm:"type:uuid;primaryKey" db:"id" json:"id"`
	Subject        string       `gorm:"type:text;not null" db:"subject" json:"subject"`
	Content        string       `gorm:"type:text;not null" db:"content" json:"content"`
	SentAt         time.Time    `gorm:"not null;index:ix_newsletters_sent_at,sort:desc" db:"sent_at" json:"sentAt"`
	SentBy         AccountID    `gorm:"type:uuid;not null;index" db:"sent_by" json:"sentBy"`
	RecipientCount int          `gorm:"not null" db:"recipient_count" json:"recipientCount"`
	Recipients     []string     `gorm:"type:jsonb;serializer:json" db:"recipients" json:"recipients"`
	CreatedAt      time.Time    `gorm:"not null" db:"created_at" json:"createdAt"`
	UpdatedAt      time.Time    `gorm:"not null" db:"updated_at" json:"updatedAt"`
}

func (Newsletter) TableName() string { return "newsletters" }
