package domain

import "github.com/google/uuid"

type AccountID = uuid.UUID
type MessageID = uuid.UUID
type NewsletterID = uuid.UUID
