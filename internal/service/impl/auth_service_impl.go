package impl

import (
	"context"
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"vision-api/internal/domain"
	"vision-api/internal/dto"
	"vision-api/internal/mail"
	"vision-api/internal/observability/logging"
	"vision-api/internal/observability/metrics"
	"vision-api/internal/service"
	"vision-api/internal/store"
	"vision-api/internal/validation"
)

type AuthConfig struct {
	Rules     validation.Rules
	ResetTTL  time.Duration
	ClientURL string // base of the reset link
}

type AuthServiceImpl struct {
	Store     dataStore
	Passwords service.PasswordService
	Tokens    service.TokenService
	Mailer    service.Mailer
	Config    AuthConfig
	Now       func() time.Time

	dummyOnce sync.Once
	dummyHash string
}

func NewAuthServiceImpl(st *store.Store, passwords service.PasswordService, tokens service.TokenService, mailer service.Mailer, cfg AuthConfig) *AuthServiceImpl {
	return &AuthServiceImpl{
		Store:     newGormStore(st),
		Passwords: passwords,
		Tokens:    tokens,
		Mailer:    mailer,
		Config:    cfg,
		Now:       time.Now,
	}
}

func (a *AuthServiceImpl) now() time.Time {
	if a.Now == nil {
		return time.Now().UTC()
	}
	return a.Now().UTC()
}

func (a *AuthServiceImpl) Register(ctx context.Context, r dto.RegisterRequest) (_ *dto.AuthResponse, err error) {
	defer func() {
		metrics.AuthRegistrationsTotal.WithLabelValues(metrics.Result(err)).Inc()
	}()

	username := strings.TrimSpace(r.Username)
	email := domain.NormalizeEmail(r.Email)
	if username == "" || email == "" || r.Password == "" {
		return nil, domain.NewValidationError(MsgRegisterRequired)
	}
	if problems := a.Config.Rules.Registration(username, email, r.Password); len(problems) > 0 {
		return nil, domain.NewValidationError(MsgInvalidRegistration, problems...)
	}

	exists, err := a.Store.Accounts().ExistsByEmailOrUsername(ctx, email, username)
	if err != nil {
		return nil, fmt.Errorf("check existing account: %w", err)
	}
	if exists {
		return nil, domain.ErrConflict
	}

	hash, err := a.Passwords.Hash(r.Password)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	acc := &domain.Account{
		Username:     username,
		Email:        email,
		PasswordHash: hash,
		Role:         domain.RoleUser,
		Newsletter:   r.Newsletter,
	}
	// The unique indexes settle races the pre-check cannot see.
	if err := a.Store.Accounts().Create(ctx, acc); err != nil {
		if errors.Is(err, domain.ErrConflict) {
			return nil, domain.ErrConflict
		}
		return nil, fmt.Errorf("create account: %w", err)
	}

	logging.FromContext(ctx).Info("account registered", "account_id", acc.ID)
	return a.issue(ctx, acc)
}

func (a *AuthServiceImpl) Login(ctx context.Context, r dto.LoginRequest) (_ *dto.AuthResponse, err error) {
	defer func() {
		metrics.AuthLoginsTotal.WithLabelValues(metrics.Result(err)).Inc()
	}()

	email := domain.NormalizeEmail(r.Email)
	if email == "" || r.Password == "" {
		return nil, domain.NewValidationError(MsgLoginRequired)
	}

	acc, err := a.Store.Accounts().GetByEmail(ctx, email)
	if errors.Is(err, domain.ErrNotFound) {
		// Spend the same work as a real comparison.
		a.Passwords.Verify(r.Password, a.dummy())
		return nil, domain.ErrInvalidCredentials
	}
	if err != nil {
		return nil, fmt.Errorf("load account: %w", err)
	}

	rehashNeeded, ok := a.Passwords.Verify(r.Password, acc.PasswordHash)
	if !ok {
		logging.FromContext(ctx).Info("login rejected", "account_id", acc.ID)
		return nil, domain.ErrInvalidCredentials
	}

	if rehashNeeded {
		if err := a.rehash(ctx, acc, r.Password); err != nil {
			logging.FromContext(ctx).Warn("password rehash failed", "account_id", acc.ID, "error", err)
		}
	}

	return a.issue(ctx, acc)
}

func (a *AuthServiceImpl) rehash(ctx context.Context, acc *domain.Account, password string) error {
	hash, err := a.Passwords.Hash(password)
	if err != nil {
		return err
	}
	if err := a.Store.Accounts().UpdatePasswordHash(ctx, acc.ID, hash); err != nil {
		return err
	}
	acc.PasswordHash = hash
	return nil
}

func (a *AuthServiceImpl) dummy() string {
	a.dummyOnce.Do(func() {
		a.dummyHash, _ = a.Passwords.Hash("timing-equalizer")
	})
	return a.dummyHash
}

func (a *AuthServiceImpl) issue(ctx context.Context, acc *domain.Account) (*dto.AuthResponse, error) {
	token, expiresAt, err := a.Tokens.Issue(ctx, acc.ID)
	if err != nil {
		return nil, fmt.Errorf("issue token: %w", err)
	}
	return &dto.AuthResponse{
		Token:     token,
		ExpiresIn: int64(expiresAt.Sub(a.now()).Round(time.Second).Seconds()),
		User:      dto.NewAccountView(acc),
	}, nil
}

func (a *AuthServiceImpl) RequestPasswordReset(ctx context.Context, email string) (err error) {
	defer func() {
		metrics.PasswordResetsTotal.WithLabelValues("request", metrics.Result(err)).Inc()
	}()

	email = domain.NormalizeEmail(email)
	if !validation.EmailValid(email) {
		return domain.NewValidationError(MsgInvalidEmail)
	}

	acc, err := a.Store.Accounts().GetByEmail(ctx, email)
	if err != nil {
		return err
	}

	raw, hash, err := newResetToken()
	if err != nil {
		return fmt.Errorf("generate reset token: %w", err)
	}
	if err := a.Store.Accounts().SetResetToken(ctx, acc.ID, hash, a.now().Add(a.Config.ResetTTL)); err != nil {
		return fmt.Errorf("store reset token: %w", err)
	}

	link := strings.TrimRight(a.Config.ClientURL, "/") + "/reset-password/" + raw
	subject, body, err := mail.ResetPassword(link, a.Config.ResetTTL)
	if err == nil {
		err = a.Mailer.Send(ctx, acc.Email, subject, body)
	}
	if err != nil {
		// Leave no usable token behind when the link never went out.
		if clearErr := a.Store.Accounts().ClearResetToken(context.WithoutCancel(ctx), acc.ID); clearErr != nil {
			logging.FromContext(ctx).Error("clear reset token", "account_id", acc.ID, "error", clearErr)
		}
		logging.FromContext(ctx).Error("reset mail not sent", "account_id", acc.ID, "error", err)
		return fmt.Errorf("%w: %w", domain.ErrDelivery, err)
	}

	logging.FromContext(ctx).Info("password reset requested", "account_id", acc.ID)
	return nil
}

func (a *AuthServiceImpl) ResetPassword(ctx context.Context, token, password string) (err error) {
	defer func() {
		metrics.PasswordResetsTotal.WithLabelValues("confirm", metrics.Result(err)).Inc()
	}()

	if password == "" {
		return domain.NewValidationError(MsgPasswordRequired)
	}
	if !a.Config.Rules.PasswordValid(password) {
		return domain.NewValidationError(a.Config.Rules.PasswordMessage())
	}
	if token == "" {
		return domain.ErrInvalidResetToken
	}

	tokenHash := hashResetToken(token)
	active, err := a.Store.Accounts().ResetTokenActive(ctx, tokenHash, a.now())
	if err != nil {
		return fmt.Errorf("look up reset token: %w", err)
	}
	if !active {
		return domain.ErrInvalidResetToken
	}

	hash, err := a.Passwords.Hash(password)
	if err != nil {
		return fmt.Errorf("hash password: %w", err)
	}

	ok, err := a.Store.Accounts().ConsumeResetToken(ctx, tokenHash, a.now(), hash)
	if err != nil {
		return fmt.Errorf("consume reset token: %w", err)
	}
	if !ok {
		return domain.ErrInvalidResetToken
	}

	logging.FromContext(ctx).Info("password reset completed")
	return nil
}

// Authenticate resolves a bearer token to the account it was issued for.
// Secrets are stripped from the returned account.
func (a *AuthServiceImpl) Authenticate(ctx context.Context, token string) (*domain.Account, error) {
	id, err := a.Tokens.Verify(ctx, token)
	if err != nil {
		return nil, err
	}
	acc, err := a.Store.Accounts().GetByID(ctx, id)
	if errors.Is(err, domain.ErrNotFound) {
		return nil, domain.ErrInvalidToken
	}
	if err != nil {
		return nil, fmt.Errorf("load account: %w", err)
	}
	acc.PasswordHash = ""
	acc.ResetTokenHash = nil
	acc.ResetTokenExpiresAt = nil
	return acc, nil
}

// newResetToken returns 32 random bytes hex encoded and the SHA-256 hex
// digest that gets stored.
func newResetToken() (raw, hash string, err error) {
	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		return "", "", err
	}
	raw = hex.EncodeToString(b)
	return raw, hashResetToken(raw), nil
}

func hashResetToken(raw string) string {
	sum := sha256.Sum256([]byte(raw))
	return hex.EncodeToString(sum[:])
}
