package impl

import (
	"context"
	"log/slog"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"vision-api/internal/domain"
	"vision-api/internal/jwtsigner"
	"vision-api/internal/observability/logging"
	"vision-api/internal/observability/metrics"
)

type TokenConfig struct {
	Issuer     string
	Audience   string
	TTL        time.Duration
	SigningKey []byte // HS256 secret, used by NewTokenServiceHS256
}

// TokenServiceImpl issues stateless signed bearer tokens. Nothing is
// persisted, so a token stays valid until it expires.
type TokenServiceImpl struct {
	cfg TokenConfig
	key *jwtsigner.Key
	now func() time.Time
}

func NewTokenService(cfg TokenConfig, key *jwtsigner.Key) *TokenServiceImpl {
	return &TokenServiceImpl{cfg: cfg, key: key, now: time.Now}
}

func NewTokenServiceHS256(cfg TokenConfig) *TokenServiceImpl {
	return NewTokenService(cfg, jwtsigner.HS256(cfg.SigningKey))
}

func (t *TokenServiceImpl) Issue(ctx context.Context, accountID domain.AccountID) (string, time.Time, error) {
	result := "success"
	defer func() {
		metrics.TokensIssuedTotal.WithLabelValues("issue", result).Inc()
	}()

	now := t.now().UTC()
	expiresAt := now.Add(t.cfg.TTL)
	claims := jwt.RegisteredClaims{
		Issuer:    t.cfg.Issuer,
		Subject:   accountID.String(),
		Audience:  jwt.ClaimStrings{t.cfg.Audience},
		ExpiresAt: jwt.NewNumericDate(expiresAt),
		IssuedAt:  jwt.NewNumericDate(now),
		ID:        uuid.NewString(),
	}
	signed, err := t.key.Sign(claims)
	if err != nil {
		result = "failure"
		return "", time.Time{}, err
	}

	logging.FromContext(ctx).Info("issued token", "account_id", accountID, "jti", claims.ID)
	return signed, expiresAt, nil
}

// Verify checks signature, issuer, audience and expiry. Every failure is
// reported as domain.ErrInvalidToken.
func (t *TokenServiceImpl) Verify(ctx context.Context, token string) (domain.AccountID, error) {
	claims := &jwt.RegisteredClaims{}
	parser := jwt.NewParser(
		jwt.WithValidMethods([]string{t.key.Alg()}),
		jwt.WithIssuer(t.cfg.Issuer),
		jwt.WithAudience(t.cfg.Audience),
		jwt.WithExpirationRequired(),
		jwt.WithIssuedAt(),
		jwt.WithTimeFunc(t.now),
	)
	if _, err := parser.ParseWithClaims(token, claims, t.key.Keyfunc); err != nil {
		logging.FromContext(ctx).Debug("token rejected", slog.String("reason", err.Error()))
		return uuid.Nil, domain.ErrInvalidToken
	}

	id, err := uuid.Parse(claims.Subject)
	if err != nil {
		logging.FromContext(ctx).Debug("token rejected", slog.String("reason", "bad subject"))
		return uuid.Nil, domain.ErrInvalidToken
	}
	return id, nil
}
