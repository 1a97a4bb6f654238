package impl

import (
	"context"
	"errors"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"vision-api/internal/domain"
)

type memoryStore struct {
	txMu sync.Mutex
	mu   sync.Mutex

	accounts    map[uuid.UUID]*domain.Account
	messages    map[uuid.UUID]*domain.ContactMessage
	newsletters []domain.Newsletter
}

type storeSnapshot struct {
	accounts    map[uuid.UUID]*domain.Account
	messages    map[uuid.UUID]*domain.ContactMessage
	newsletters []domain.Newsletter
}

func newMemoryStore() *memoryStore {
	return &memoryStore{
		accounts: make(map[uuid.UUID]*domain.Account),
		messages: make(map[uuid.UUID]*domain.ContactMessage),
	}
}

func (m *memoryStore) WithTx(ctx context.Context, fn func(tx storeTx) error) error {
	m.txMu.Lock()
	defer m.txMu.Unlock()

	snapshot := m.snapshot()
	if err := fn(m); err != nil {
		m.restore(snapshot)
		return err
	}
	return nil
}

func (m *memoryStore) snapshot() storeSnapshot {
	m.mu.Lock()
	defer m.mu.Unlock()
	accounts := make(map[uuid.UUID]*domain.Account, len(m.accounts))
	for id, acc := range m.accounts {
		copy := *acc
		accounts[id] = &copy
	}
	messages := make(map[uuid.UUID]*domain.ContactMessage, len(m.messages))
	for id, msg := range m.messages {
		copy := *msg
		messages[id] = &copy
	}
	return storeSnapshot{
		accounts:    accounts,
		messages:    messages,
		newsletters: append([]domain.Newsletter(nil), m.newsletters...),
	}
}

func (m *memoryStore) restore(s storeSnapshot) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.accounts = s.accounts
	m.messages = s.messages
	m.newsletters = s.newsletters
}

func (m *memoryStore) Accounts() accountStore { return &memoryAccountStore{store: m} }

func (m *memoryStore) Messages() messageStore { return &memoryMessageStore{store: m} }

func (m *memoryStore) Newsletters() newsletterStore { return &memoryNewsletterStore{store: m} }

// put stores a copy of acc as is, for seeding.
func (m *memoryStore) put(acc domain.Account) *domain.Account {
	m.mu.Lock()
	defer m.mu.Unlock()
	if acc.ID == uuid.Nil {
		acc.ID = uuid.New()
	}
	acc.Email = domain.NormalizeEmail(acc.Email)
	acc.Role = acc.Role.Effective()
	m.accounts[acc.ID] = &acc
	copy := acc
	return &copy
}

func (m *memoryStore) account(id uuid.UUID) (*domain.Account, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	acc, ok := m.accounts[id]
	if !ok {
		return nil, false
	}
	copy := *acc
	return &copy, true
}

func (m *memoryStore) accountByEmail(email string) (*domain.Account, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, acc := range m.accounts {
		if acc.Email == email {
			copy := *acc
			return &copy, true
		}
	}
	return nil, false
}

func (m *memoryStore) count() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.accounts)
}

type memoryAccountStore struct {
	store *memoryStore
}

func (s *memoryAccountStore) Create(ctx context.Context, acc *domain.Account) error {
	s.store.mu.Lock()
	defer s.store.mu.Unlock()
	acc.Email = domain.NormalizeEmail(acc.Email)
	for _, other := range s.store.accounts {
		if other.Email == acc.Email || other.Username == acc.Username {
			return domain.ErrConflict
		}
	}
	if acc.ID == uuid.Nil {
		acc.ID = uuid.New()
	}
	now := time.Now().UTC()
	acc.CreatedAt = now
	acc.UpdatedAt = now
	acc.Role = acc.Role.Effective()
	copy := *acc
	s.store.accounts[acc.ID] = &copy
	return nil
}

func (s *memoryAccountStore) find(match func(*domain.Account) bool) (*domain.Account, error) {
	s.store.mu.Lock()
	defer s.store.mu.Unlock()
	for _, acc := range s.store.accounts {
		if match(acc) {
			copy := *acc
			return &copy, nil
		}
	}
	return nil, domain.ErrNotFound
}

func (s *memoryAccountStore) GetByID(ctx context.Context, id domain.AccountID) (*domain.Account, error) {
	return s.find(func(a *domain.Account) bool { return a.ID == id })
}

func (s *memoryAccountStore) GetByEmail(ctx context.Context, email string) (*domain.Account, error) {
	email = domain.NormalizeEmail(email)
	return s.find(func(a *domain.Account) bool { return a.Email == email })
}

func (s *memoryAccountStore) GetByUsername(ctx context.Context, username string) (*domain.Account, error) {
	return s.find(func(a *domain.Account) bool { return a.Username == username })
}

func (s *memoryAccountStore) ExistsByEmailOrUsername(ctx context.Context, email, username string) (bool, error) {
	email = domain.NormalizeEmail(email)
	_, err := s.find(func(a *domain.Account) bool { return a.Email == email || a.Username == username })
	if errors.Is(err, domain.ErrNotFound) {
		return false, nil
	}
	return err == nil, err
}

func (s *memoryAccountStore) UpdateProfile(ctx context.Context, acc *domain.Account) error {
	s.store.mu.Lock()
	defer s.store.mu.Unlock()
	stored, ok := s.store.accounts[acc.ID]
	if !ok {
		return domain.ErrNotFound
	}
	for id, other := range s.store.accounts {
		if id != acc.ID && other.Username == acc.Username {
			return domain.ErrConflict
		}
	}
	acc.UpdatedAt = time.Now().UTC()
	stored.Username = acc.Username
	stored.Newsletter = acc.Newsletter
	stored.FullName = acc.FullName
	stored.BirthDate = acc.BirthDate
	stored.MobilePhone = acc.MobilePhone
	stored.Landline = acc.Landline
	stored.Address = acc.Address
	stored.UpdatedAt = acc.UpdatedAt
	return nil
}

// updateUnique applies fn unless another account already matches taken.
func (s *memoryAccountStore) updateUnique(id domain.AccountID, taken func(*domain.Account) bool, fn func(*domain.Account)) error {
	s.store.mu.Lock()
	defer s.store.mu.Unlock()
	acc, ok := s.store.accounts[id]
	if !ok {
		return domain.ErrNotFound
	}
	for otherID, other := range s.store.accounts {
		if otherID != id && taken(other) {
			return domain.ErrConflict
		}
	}
	fn(acc)
	acc.UpdatedAt = time.Now().UTC()
	return nil
}

func (s *memoryAccountStore) SetUsername(ctx context.Context, id domain.AccountID, username string) error {
	return s.updateUnique(id,
		func(a *domain.Account) bool { return a.Username == username },
		func(a *domain.Account) { a.Username = username })
}

func (s *memoryAccountStore) SetEmail(ctx context.Context, id domain.AccountID, email string) error {
	email = domain.NormalizeEmail(email)
	return s.updateUnique(id,
		func(a *domain.Account) bool { return a.Email == email },
		func(a *domain.Account) { a.Email = email })
}

func (s *memoryAccountStore) update(id domain.AccountID, fn func(*domain.Account)) error {
	s.store.mu.Lock()
	defer s.store.mu.Unlock()
	acc, ok := s.store.accounts[id]
	if !ok {
		return domain.ErrNotFound
	}
	fn(acc)
	acc.UpdatedAt = time.Now().UTC()
	return nil
}

func (s *memoryAccountStore) UpdatePasswordHash(ctx context.Context, id domain.AccountID, hash string) error {
	return s.update(id, func(a *domain.Account) { a.PasswordHash = hash })
}

func (s *memoryAccountStore) SetPassword(ctx context.Context, id domain.AccountID, hash string) error {
	return s.update(id, func(a *domain.Account) {
		a.PasswordHash = hash
		a.ResetTokenHash = nil
		a.ResetTokenExpiresAt = nil
	})
}

func (s *memoryAccountStore) SetRole(ctx context.Context, id domain.AccountID, role domain.Role) error {
	return s.update(id, func(a *domain.Account) { a.Role = role })
}

func (s *memoryAccountStore) SetNewsletter(ctx context.Context, id domain.AccountID, subscribed bool) error {
	return s.update(id, func(a *domain.Account) { a.Newsletter = &subscribed })
}

func (s *memoryAccountStore) SetResetToken(ctx context.Context, id domain.AccountID, hash string, expiresAt time.Time) error {
	return s.update(id, func(a *domain.Account) {
		a.ResetTokenHash = &hash
		a.ResetTokenExpiresAt = &expiresAt
	})
}

func (s *memoryAccountStore) ClearResetToken(ctx context.Context, id domain.AccountID) error {
	return s.update(id, func(a *domain.Account) {
		a.ResetTokenHash = nil
		a.ResetTokenExpiresAt = nil
	})
}

func (s *memoryAccountStore) ResetTokenActive(ctx context.Context, tokenHash string, now time.Time) (bool, error) {
	_, err := s.find(func(a *domain.Account) bool {
		return a.ResetTokenHash != nil && *a.ResetTokenHash == tokenHash && a.HasActiveResetToken(now)
	})
	if errors.Is(err, domain.ErrNotFound) {
		return false, nil
	}
	return err == nil, err
}

func (s *memoryAccountStore) ConsumeResetToken(ctx context.Context, tokenHash string, now time.Time, passwordHash string) (bool, error) {
	s.store.mu.Lock()
	defer s.store.mu.Unlock()
	for _, acc := range s.store.accounts {
		if acc.ResetTokenHash != nil && *acc.ResetTokenHash == tokenHash && acc.HasActiveResetToken(now) {
			acc.PasswordHash = passwordHash
			acc.ResetTokenHash = nil
			acc.ResetTokenExpiresAt = nil
			return true, nil
		}
	}
	return false, nil
}

func (s *memoryAccountStore) Delete(ctx context.Context, id domain.AccountID) error {
	s.store.mu.Lock()
	defer s.store.mu.Unlock()
	if _, ok := s.store.accounts[id]; !ok {
		return domain.ErrNotFound
	}
	delete(s.store.accounts, id)
	return nil
}

func (s *memoryAccountStore) List(ctx context.Context) ([]domain.Account, error) {
	s.store.mu.Lock()
	defer s.store.mu.Unlock()
	out := make([]domain.Account, 0, len(s.store.accounts))
	for _, acc := range s.store.accounts {
		out = append(out, *acc)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Username < out[j].Username })
	return out, nil
}

func (s *memoryAccountStore) NewsletterSubscribers(ctx context.Context) ([]domain.Account, error) {
	all, _ := s.List(ctx)
	out := all[:0]
	for _, acc := range all {
		if acc.Newsletter != nil && *acc.Newsletter {
			out = append(out, acc)
		}
	}
	return out, nil
}

type memoryMessageStore struct {
	store *memoryStore
}

func (s *memoryMessageStore) Create(ctx context.Context, msg *domain.ContactMessage) error {
	s.store.mu.Lock()
	defer s.store.mu.Unlock()
	if msg.ID == uuid.Nil {
		msg.ID = uuid.New()
	}
	if msg.Status == "" {
		msg.Status = domain.MessageNew
	}
	copy := *msg
	s.store.messages[msg.ID] = &copy
	return nil
}

func (s *memoryMessageStore) GetByID(ctx context.Context, id domain.MessageID) (*domain.ContactMessage, error) {
	s.store.mu.Lock()
	defer s.store.mu.Unlock()
	msg, ok := s.store.messages[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	copy := *msg
	return &copy, nil
}

func (s *memoryMessageStore) List(ctx context.Context) ([]domain.ContactMessage, error) {
	s.store.mu.Lock()
	defer s.store.mu.Unlock()
	out := make([]domain.ContactMessage, 0, len(s.store.messages))
	for _, msg := range s.store.messages {
		out = append(out, *msg)
	}
	return out, nil
}

func (s *memoryMessageStore) UpdateStatus(ctx context.Context, id domain.MessageID, status domain.MessageStatus) error {
	s.store.mu.Lock()
	defer s.store.mu.Unlock()
	msg, ok := s.store.messages[id]
	if !ok {
		return domain.ErrNotFound
	}
	msg.Status = status
	return nil
}

func (s *memoryMessageStore) Delete(ctx context.Context, id domain.MessageID) error {
	s.store.mu.Lock()
	defer s.store.mu.Unlock()
	if _, ok := s.store.messages[id]; !ok {
		return domain.ErrNotFound
	}
	delete(s.store.messages, id)
	return nil
}

type memoryNewsletterStore struct {
	store *memoryStore
}

func (s *memoryNewsletterStore) Create(ctx context.Context, nl *domain.Newsletter) error {
	s.store.mu.Lock()
	defer s.store.mu.Unlock()
	if nl.ID == uuid.Nil {
		nl.ID = uuid.New()
	}
	s.store.newsletters = append(s.store.newsletters, *nl)
	return nil
}

func (s *memoryNewsletterStore) Page(ctx context.Context, page, limit int) ([]domain.Newsletter, int64, error) {
	s.store.mu.Lock()
	defer s.store.mu.Unlock()
	all := append([]domain.Newsletter(nil), s.store.newsletters...)
	sort.Slice(all, func(i, j int) bool { return all[i].SentAt.After(all[j].SentAt) })
	start := (page - 1) * limit
	if start > len(all) {
		start = len(all)
	}
	end := start + limit
	if end > len(all) {
		end = len(all)
	}
	return all[start:end], int64(len(all)), nil
}
