package service

import (
	"context"
	"time"

	"vision-api/internal/domain"
)

type TokenService interface {
	Issue(ctx context.Context, accountID domain.AccountID) (token string, expiresAt time.Time, err error)
	Verify(ctx context.Context, token string) (domain.AccountID, error)
}
