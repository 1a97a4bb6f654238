package store

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"vision-api/internal/domain"
)

type AccountStore struct{ db *gorm.DB }

func (s *Store) Accounts() *AccountStore { return &AccountStore{db: s.DB} }

func (a *AccountStore) Create(ctx context.Context, acc *domain.Account) error {
	now := time.Now().UTC()
	if acc.ID == uuid.Nil {
		acc.ID = uuid.New()
	}
	if acc.CreatedAt.IsZero() {
		acc.CreatedAt = now
	}
	acc.UpdatedAt = now
	acc.Email = domain.NormalizeEmail(acc.Email)
	acc.Role = acc.Role.Effective()
	return translateError(a.db.WithContext(ctx).Create(acc).Error)
}

func (a *AccountStore) GetByID(ctx context.Context, id domain.AccountID) (*domain.Account, error) {
	return a.first(ctx, "id = ?", id)
}

func (a *AccountStore) GetByEmail(ctx context.Context, email string) (*domain.Account, error) {
	return a.first(ctx, "email = ?", domain.NormalizeEmail(email))
}

func (a *AccountStore) GetByUsername(ctx context.Context, username string) (*domain.Account, error) {
	return a.first(ctx, "username = ?", username)
}

func (a *AccountStore) first(ctx context.Context, query string, args ...any) (*domain.Account, error) {
	var acc domain.Account
	if err := a.db.WithContext(ctx).Where(query, args...).First(&acc).Error; err != nil {
		return nil, translateError(err)
	}
	return &acc, nil
}

// ExistsByEmailOrUsername is the combined pre-insert check. It is advisory;
// the unique indexes decide.
func (a *AccountStore) ExistsByEmailOrUsername(ctx context.Context, email, username string) (bool, error) {
	var n int64
	err := a.db.WithContext(ctx).Model(&domain.Account{}).
		Where("email = ? OR username = ?", domain.NormalizeEmail(email), username).
		Count(&n).Error
	if err != nil {
		return false, translateError(err)
	}
	return n > 0, nil
}

// profileColumns are the columns a profile edit owns. Credentials, role and
// reset state are written only by their dedicated methods.
var profileColumns = []string{
	"username", "newsletter", "full_name", "birth_date",
	"mobile_phone", "landline", "address", "updated_at",
}

// UpdateProfile writes the profile columns of acc and nothing else.
func (a *AccountStore) UpdateProfile(ctx context.Context, acc *domain.Account) error {
	acc.UpdatedAt = time.Now().UTC()
	res := a.db.WithContext(ctx).Model(acc).Select(profileColumns).Updates(acc)
	if res.Error != nil {
		return translateError(res.Error)
	}
	if res.RowsAffected == 0 {
		return domain.ErrNotFound
	}
	return nil
}

func (a *AccountStore) SetUsername(ctx context.Context, id domain.AccountID, username string) error {
	return a.updates(ctx, id, map[string]any{"username": username})
}

func (a *AccountStore) SetEmail(ctx context.Context, id domain.AccountID, email string) error {
	return a.updates(ctx, id, map[string]any{"email": domain.NormalizeEmail(email)})
}

// UpdatePasswordHash swaps the stored hash for an equivalent one, as on a
// rehash after login. Pending reset tokens survive.
func (a *AccountStore) UpdatePasswordHash(ctx context.Context, id domain.AccountID, hash string) error {
	return a.updates(ctx, id, map[string]any{"password_hash": hash})
}

// SetPassword stores a new password hash and drops any pending reset token
// in the same statement.
func (a *AccountStore) SetPassword(ctx context.Context, id domain.AccountID, hash string) error {
	return a.updates(ctx, id, map[string]any{
		"password_hash":          hash,
		"reset_token_hash":       nil,
		"reset_token_expires_at": nil,
	})
}

func (a *AccountStore) SetRole(ctx context.Context, id domain.AccountID, role domain.Role) error {
	return a.updates(ctx, id, map[string]any{"role": role})
}

func (a *AccountStore) SetNewsletter(ctx context.Context, id domain.AccountID, subscribed bool) error {
	return a.updates(ctx, id, map[string]any{"newsletter": subscribed})
}

func (a *AccountStore) SetResetToken(ctx context.Context, id domain.AccountID, hash string, expiresAt time.Time) error {
	return a.updates(ctx, id, map[string]any{
		"reset_token_hash":       hash,
		"reset_token_expires_at": expiresAt.UTC(),
	})
}

func (a *AccountStore) ClearResetToken(ctx context.Context, id domain.AccountID) error {
	return a.updates(ctx, id, map[string]any{
		"reset_token_hash":       nil,
		"reset_token_expires_at": nil,
	})
}

// ConsumeResetToken replaces the password hash of the account holding an
// unexpired reset token with the given hash and clears the token in the same
// statement. It reports whether an account matched.
func (a *AccountStore) ConsumeResetToken(ctx context.Context, tokenHash string, now time.Time, passwordHash string) (bool, error) {
	res := a.db.WithContext(ctx).Model(&domain.Account{}).
		Where("reset_token_hash = ? AND reset_token_expires_at > ?", tokenHash, now.UTC()).
		Updates(map[string]any{
			"password_hash":          passwordHash,
			"reset_token_hash":       nil,
			"reset_token_expires_at": nil,
			"updated_at":             now.UTC(),
		})
	if res.Error != nil {
		return false, translateError(res.Error)
	}
	return res.RowsAffected > 0, nil
}

// ResetTokenActive reports whether some account holds tokenHash unexpired.
// It is a cheap read; ConsumeResetToken still decides.
func (a *AccountStore) ResetTokenActive(ctx context.Context, tokenHash string, now time.Time) (bool, error) {
	var n int64
	err := a.db.WithContext(ctx).Model(&domain.Account{}).
		Where("reset_token_hash = ? AND reset_token_expires_at > ?", tokenHash, now.UTC()).
		Count(&n).Error
	if err != nil {
		return false, translateError(err)
	}
	return n > 0, nil
}

func (a *AccountStore) updates(ctx context.Context, id domain.AccountID, values map[string]any) error {
	if _, ok := values["updated_at"]; !ok {
		values["updated_at"] = time.Now().UTC()
	}
	res := a.db.WithContext(ctx).Model(&domain.Account{}).Where("id = ?", id).Updates(values)
	if res.Error != nil {
		return translateError(res.Error)
	}
	if res.RowsAffected == 0 {
		return domain.ErrNotFound
	}
	return nil
}

func (a *AccountStore) Delete(ctx context.Context, id domain.AccountID) error {
	res := a.db.WithContext(ctx).Where("id = ?", id).Delete(&domain.Account{})
	if res.Error != nil {
		return translateError(res.Error)
	}
	if res.RowsAffected == 0 {
		return domain.ErrNotFound
	}
	return nil
}

// List returns every account, newest first.
func (a *AccountStore) List(ctx context.Context) ([]domain.Account, error) {
	var out []domain.Account
	if err := a.db.WithContext(ctx).Order("created_at DESC").Find(&out).Error; err != nil {
		return nil, translateError(err)
	}
	return out, nil
}

func (a *AccountStore) NewsletterSubscribers(ctx context.Context) ([]domain.Account, error) {
	var out []domain.Account
	if err := a.db.WithContext(ctx).Where("newsletter = ?", true).Order("created_at").Find(&out).Error; err != nil {
		return nil, translateError(err)
	}
	return out, nil
}
