package impl

import (
	"context"
	"errors"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"vision-api/internal/domain"
	"vision-api/internal/service"
	"vision-api/internal/validation"
)

var errSMTPDown = errors.New("smtp down")

type sentMail struct {
	to      string
	subject string
	body    string
}

type stubMailer struct {
	mu      sync.Mutex
	sent    []sentMail
	failAll error
	failFor map[string]error
}

func (s *stubMailer) Send(ctx context.Context, to, subject, htmlBody string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.failAll != nil {
		return s.failAll
	}
	if err, ok := s.failFor[to]; ok {
		return err
	}
	s.sent = append(s.sent, sentMail{to: to, subject: subject, body: htmlBody})
	return nil
}

func (s *stubMailer) mails() []sentMail {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]sentMail(nil), s.sent...)
}

type stubTokenService struct {
	issueErr  error
	verifyErr error
	issued    []uuid.UUID
}

func (s *stubTokenService) Issue(ctx context.Context, accountID domain.AccountID) (string, time.Time, error) {
	if s.issueErr != nil {
		return "", time.Time{}, s.issueErr
	}
	s.issued = append(s.issued, accountID)
	return "token-" + accountID.String(), time.Now().Add(time.Hour), nil
}

func (s *stubTokenService) Verify(ctx context.Context, token string) (domain.AccountID, error) {
	if s.verifyErr != nil {
		return uuid.Nil, s.verifyErr
	}
	id, err := uuid.Parse(strings.TrimPrefix(token, "token-"))
	if err != nil {
		return uuid.Nil, domain.ErrInvalidToken
	}
	return id, nil
}

// testArgon2Params keeps hashing fast in tests.
func testArgon2Params() Argon2Params {
	return Argon2Params{Time: 1, Memory: 8 * 1024, Threads: 1, KeyLen: 32, SaltLen: 16}
}

func newTestPasswords() *PasswordServiceImpl {
	return NewPasswordServiceArgon2id(testArgon2Params())
}

func testRules() validation.Rules { return validation.DefaultRules() }

// countingPasswords records how often Hash runs.
type countingPasswords struct {
	service.PasswordService
	hashes atomic.Int32
}

func (c *countingPasswords) Hash(password string) (string, error) {
	c.hashes.Add(1)
	return c.PasswordService.Hash(password)
}

// interleavedStore runs between once right after the first account read, so
// tests can land a concurrent write between a service's read and its write.
type interleavedStore struct {
	*memoryStore
	between func()
	once    *sync.Once
}

func newInterleavedStore(st *memoryStore, between func()) interleavedStore {
	return interleavedStore{memoryStore: st, between: between, once: &sync.Once{}}
}

func (s interleavedStore) WithTx(ctx context.Context, fn func(tx storeTx) error) error {
	return s.memoryStore.WithTx(ctx, func(storeTx) error { return fn(s) })
}

func (s interleavedStore) Accounts() accountStore {
	return interleavedAccounts{accountStore: s.memoryStore.Accounts(), store: s}
}

type interleavedAccounts struct {
	accountStore
	store interleavedStore
}

func (a interleavedAccounts) GetByID(ctx context.Context, id domain.AccountID) (*domain.Account, error) {
	acc, err := a.accountStore.GetByID(ctx, id)
	a.store.once.Do(a.store.between)
	return acc, err
}

// slowMailer delivers after delay unless its context ends first.
type slowMailer struct {
	delay time.Duration
	mu    sync.Mutex
	sent  []string
}

func (s *slowMailer) Send(ctx context.Context, to, subject, htmlBody string) error {
	select {
	case <-time.After(s.delay):
	case <-ctx.Done():
		return ctx.Err()
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sent = append(s.sent, to)
	return nil
}

func (s *slowMailer) delivered() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.sent)
}
