package service

import (
	"context"

	"vision-api/internal/domain"
	"vision-api/internal/dto"
)

type NewsletterService interface {
	Send(ctx context.Context, sender domain.AccountID, r dto.NewsletterRequest) (*domain.Newsletter, error)
	History(ctx context.Context, page, limit int) (*dto.NewsletterHistoryResponse, error)
}
