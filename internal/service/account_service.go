package service

import (
	"context"

	"vision-api/internal/domain"
	"vision-api/internal/dto"
)

// AccountService is the self-service side of account management. Every
// method acts on the account identified by id only.
type AccountService interface {
	Profile(ctx context.Context, id domain.AccountID) (*domain.Account, error)
	UpdateProfile(ctx context.Context, id domain.AccountID, r dto.ProfileUpdateRequest) (*domain.Account, error)
	ChangeUsername(ctx context.Context, id domain.AccountID, username string) (*domain.Account, error)
	ChangeEmail(ctx context.Context, id domain.AccountID, email string) (*domain.Account, error)
	ChangePassword(ctx context.Context, id domain.AccountID, current, next string) error
	SetNewsletter(ctx context.Context, id domain.AccountID, subscribed bool) (*domain.Account, error)
	Delete(ctx context.Context, id domain.AccountID, password string) error
}
