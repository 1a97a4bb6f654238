package impl

import (
	"context"
	"errors"
	"time"

	"vision-api/internal/domain"
	"vision-api/internal/store"
)

// dataStore is the persistence seam of the services. The gorm store
// satisfies it through gormStoreAdapter; tests plug in memory stores.
type dataStore interface {
	storeTx
	WithTx(ctx context.Context, fn func(tx storeTx) error) error
}

type storeTx interface {
	Accounts() accountStore
	Messages() messageStore
	Newsletters() newsletterStore
}

type accountStore interface {
	Create(ctx context.Context, acc *domain.Account) error
	GetByID(ctx context.Context, id domain.AccountID) (*domain.Account, error)
	GetByEmail(ctx context.Context, email string) (*domain.Account, error)
	GetByUsername(ctx context.Context, username string) (*domain.Account, error)
	ExistsByEmailOrUsername(ctx context.Context, email, username string) (bool, error)
	UpdateProfile(ctx context.Context, acc *domain.Account) error
	SetUsername(ctx context.Context, id domain.AccountID, username string) error
	SetEmail(ctx context.Context, id domain.AccountID, email string) error
	UpdatePasswordHash(ctx context.Context, id domain.AccountID, hash string) error
	SetPassword(ctx context.Context, id domain.AccountID, hash string) error
	SetRole(ctx context.Context, id domain.AccountID, role domain.Role) error
	SetNewsletter(ctx context.Context, id domain.AccountID, subscribed bool) error
	SetResetToken(ctx context.Context, id domain.AccountID, hash string, expiresAt time.Time) error
	ClearResetToken(ctx context.Context, id domain.AccountID) error
	ResetTokenActive(ctx context.Context, tokenHash string, now time.Time) (bool, error)
	ConsumeResetToken(ctx context.Context, tokenHash string, now time.Time, passwordHash string) (bool, error)
	Delete(ctx context.Context, id domain.AccountID) error
	List(ctx context.Context) ([]domain.Account, error)
	NewsletterSubscribers(ctx context.Context) ([]domain.Account, error)
}

type messageStore interface {
	Create(ctx context.Context, msg *domain.ContactMessage) error
	GetByID(ctx context.Context, id domain.MessageID) (*domain.ContactMessage, error)
	List(ctx context.Context) ([]domain.ContactMessage, error)
	UpdateStatus(ctx context.Context, id domain.MessageID, status domain.MessageStatus) error
	Delete(ctx context.Context, id domain.MessageID) error
}

type newsletterStore interface {
	Create(ctx context.Context, nl *domain.Newsletter) error
	Page(ctx context.Context, page, limit int) ([]domain.Newsletter, int64, error)
}

type gormStoreAdapter struct {
	store *store.Store
}

func newGormStore(st *store.Store) dataStore { return gormStoreAdapter{store: st} }

func (g gormStoreAdapter) WithTx(ctx context.Context, fn func(tx storeTx) error) error {
	if g.store == nil {
		return errors.New("nil store")
	}
	return g.store.WithTx(ctx, func(tx *store.Store) error {
		return fn(gormStoreAdapter{store: tx})
	})
}

func (g gormStoreAdapter) Accounts() accountStore { return g.store.Accounts() }

func (g gormStoreAdapter) Messages() messageStore { return g.store.Messages() }

func (g gormStoreAdapter) Newsletters() newsletterStore { return g.store.Newsletters() }
