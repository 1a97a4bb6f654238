package service

import (
	"context"

	"vision-api/internal/domain"
	"vision-api/internal/dto"
)

type ContactService interface {
	Submit(ctx context.Context, r dto.ContactRequest) (*domain.ContactMessage, error)
}
