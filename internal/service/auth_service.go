package service

import (
	"context"

	"vision-api/internal/domain"
	"vision-api/internal/dto"
)

type AuthService interface {
	Register(ctx context.Context, r dto.RegisterRequest) (*dto.AuthResponse, error)
	Login(ctx context.Context, r dto.LoginRequest) (*dto.AuthResponse, error)
	RequestPasswordReset(ctx context.Context, email string) error
	ResetPassword(ctx context.Context, token, password string) error
	// Authenticate resolves a bearer token to its account.
	Authenticate(ctx context.Context, token string) (*domain.Account, error)
}
