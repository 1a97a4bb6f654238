package service

import (
	"context"

	"vision-api/internal/domain"
)

type AdminService interface {
	ListAccounts(ctx context.Context) ([]domain.Account, error)
	GetAccount(ctx context.Context, id domain.AccountID) (*domain.Account, error)
	SetRole(ctx context.Context, actor, id domain.AccountID, role string) (*domain.Account, error)
	DeleteAccount(ctx context.Context, actor, id domain.AccountID) error

	ListMessages(ctx context.Context) ([]domain.ContactMessage, error)
	SetMessageStatus(ctx context.Context, id domain.MessageID, status string) (*domain.ContactMessage, error)
	DeleteMessage(ctx context.Context, id domain.MessageID) error
}
