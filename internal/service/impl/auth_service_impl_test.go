package impl

import (
	"context"
	"errors"
	"regexp"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"vision-api/internal/domain"
	"vision-api/internal/dto"
)

const testSecret = "test-secret-key-with-enough-bytes"

type authFixture struct {
	svc    *AuthServiceImpl
	store  *memoryStore
	mailer *stubMailer
	tokens *TokenServiceImpl
	now    time.Time
}

func newAuthFixture(t *testing.T) *authFixture {
	t.Helper()
	f := &authFixture{
		store:  newMemoryStore(),
		mailer: &stubMailer{},
		tokens: NewTokenServiceHS256(TokenConfig{
			Issuer:     "vision-api",
			Audience:   "vision-web",
			TTL:        24 * time.Hour,
			SigningKey: []byte(testSecret),
		}),
		now: time.Now().UTC(),
	}
	f.svc = &AuthServiceImpl{
		Store:     f.store,
		Passwords: newTestPasswords(),
		Tokens:    f.tokens,
		Mailer:    f.mailer,
		Config: AuthConfig{
			Rules:     testRules(),
			ResetTTL:  30 * time.Minute,
			ClientURL: "http://localhost:5173/",
		},
		Now: func() time.Time { return f.now },
	}
	return f
}

func (f *authFixture) register(t *testing.T, username, email, password string) *dto.AuthResponse {
	t.Helper()
	resp, err := f.svc.Register(context.Background(), dto.RegisterRequest{Username: username, Email: email, Password: password})
	if err != nil {
		t.Fatalf("register %s: %v", username, err)
	}
	return resp
}

var resetLinkPattern = regexp.MustCompile(`/reset-password/([0-9a-f]{64})`)

func resetTokenFromMail(t *testing.T, m sentMail) string {
	t.Helper()
	match := resetLinkPattern.FindStringSubmatch(m.body)
	if match == nil {
		t.Fatalf("no reset link in mail body: %s", m.body)
	}
	return match[1]
}

func TestRegisterCreatesStandardAccountAndToken(t *testing.T) {
	f := newAuthFixture(t)

	resp := f.register(t, "john_doe", "John@Example.com", "Passw0rd!")

	if resp.Token == "" {
		t.Fatal("expected token")
	}
	if resp.User.Role != domain.RoleUser {
		t.Fatalf("expected role user, got %q", resp.User.Role)
	}
	if resp.User.Email != "john@example.com" {
		t.Fatalf("expected normalized email, got %q", resp.User.Email)
	}
	if resp.ExpiresIn != int64((24 * time.Hour).Seconds()) {
		t.Fatalf("unexpected expiresIn %d", resp.ExpiresIn)
	}

	id, err := f.tokens.Verify(context.Background(), resp.Token)
	if err != nil {
		t.Fatalf("verify issued token: %v", err)
	}
	if id.String() != resp.User.ID {
		t.Fatalf("token subject %s does not match account %s", id, resp.User.ID)
	}

	stored, ok := f.store.accountByEmail("john@example.com")
	if !ok {
		t.Fatal("account not stored")
	}
	if !strings.HasPrefix(stored.PasswordHash, "$argon2id$") {
		t.Fatalf("expected argon2id hash, got %q", stored.PasswordHash)
	}
	if stored.PasswordHash == "Passw0rd!" {
		t.Fatal("password stored in clear")
	}
}

func TestRegisterRequiresAllFields(t *testing.T) {
	f := newAuthFixture(t)

	_, err := f.svc.Register(context.Background(), dto.RegisterRequest{Username: "john", Email: "john@example.com"})

	var verr *domain.ValidationError
	if !errors.As(err, &verr) {
		t.Fatalf("expected validation error, got %v", err)
	}
	if verr.Message != MsgRegisterRequired {
		t.Fatalf("unexpected message %q", verr.Message)
	}
	if f.store.count() != 0 {
		t.Fatal("no account should be created")
	}
}

func TestRegisterReportsEveryViolatedRule(t *testing.T) {
	f := newAuthFixture(t)

	_, err := f.svc.Register(context.Background(), dto.RegisterRequest{Username: "ab", Email: "bad", Password: "short"})

	var verr *domain.ValidationError
	if !errors.As(err, &verr) {
		t.Fatalf("expected validation error, got %v", err)
	}
	if verr.Message != MsgInvalidRegistration {
		t.Fatalf("unexpected message %q", verr.Message)
	}
	if len(verr.Problems) != 3 {
		t.Fatalf("expected 3 problems, got %v", verr.Problems)
	}
}

func TestRegisterRejectsDuplicateEmailOrUsername(t *testing.T) {
	f := newAuthFixture(t)
	f.register(t, "john_doe", "john@example.com", "Passw0rd!")

	_, err := f.svc.Register(context.Background(), dto.RegisterRequest{Username: "other", Email: "JOHN@example.com", Password: "Passw0rd!"})
	if !errors.Is(err, domain.ErrConflict) {
		t.Fatalf("expected conflict for email, got %v", err)
	}

	_, err = f.svc.Register(context.Background(), dto.RegisterRequest{Username: "john_doe", Email: "new@example.com", Password: "Passw0rd!"})
	if !errors.Is(err, domain.ErrConflict) {
		t.Fatalf("expected conflict for username, got %v", err)
	}

	if f.store.count() != 1 {
		t.Fatalf("expected 1 account, got %d", f.store.count())
	}
}

func TestLoginSucceedsWithRole(t *testing.T) {
	f := newAuthFixture(t)
	f.register(t, "john_doe", "john@example.com", "Passw0rd!")

	resp, err := f.svc.Login(context.Background(), dto.LoginRequest{Email: " John@example.com ", Password: "Passw0rd!"})
	if err != nil {
		t.Fatalf("login: %v", err)
	}
	if resp.User.Role != domain.RoleUser || resp.Token == "" {
		t.Fatalf("unexpected login response %+v", resp)
	}
}

func TestLoginFailuresAreIndistinguishable(t *testing.T) {
	f := newAuthFixture(t)
	f.register(t, "john_doe", "john@example.com", "Passw0rd!")

	_, wrongPassword := f.svc.Login(context.Background(), dto.LoginRequest{Email: "john@example.com", Password: "Wrong0ne!"})
	_, unknownEmail := f.svc.Login(context.Background(), dto.LoginRequest{Email: "ghost@example.com", Password: "Passw0rd!"})

	if !errors.Is(wrongPassword, domain.ErrInvalidCredentials) || !errors.Is(unknownEmail, domain.ErrInvalidCredentials) {
		t.Fatalf("expected invalid credentials, got %v and %v", wrongPassword, unknownEmail)
	}
	if wrongPassword.Error() != unknownEmail.Error() {
		t.Fatalf("errors differ: %q vs %q", wrongPassword, unknownEmail)
	}
}

func TestLoginRequiresFields(t *testing.T) {
	f := newAuthFixture(t)

	_, err := f.svc.Login(context.Background(), dto.LoginRequest{Email: "john@example.com"})
	if !errors.Is(err, domain.ErrValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func TestLoginRehashesLegacyBcrypt(t *testing.T) {
	f := newAuthFixture(t)
	legacy, err := bcrypt.GenerateFromPassword([]byte("Passw0rd!"), bcrypt.MinCost)
	if err != nil {
		t.Fatalf("bcrypt: %v", err)
	}
	acc := f.store.put(domain.Account{Username: "legacy", Email: "legacy@example.com", PasswordHash: string(legacy)})

	if _, err := f.svc.Login(context.Background(), dto.LoginRequest{Email: "legacy@example.com", Password: "Passw0rd!"}); err != nil {
		t.Fatalf("login: %v", err)
	}

	stored, _ := f.store.account(acc.ID)
	if !strings.HasPrefix(stored.PasswordHash, "$argon2id$") {
		t.Fatalf("expected rehash to argon2id, got %q", stored.PasswordHash)
	}
	if _, err := f.svc.Login(context.Background(), dto.LoginRequest{Email: "legacy@example.com", Password: "Passw0rd!"}); err != nil {
		t.Fatalf("login after rehash: %v", err)
	}
}

func TestRequestPasswordResetStoresHashedTokenAndMailsLink(t *testing.T) {
	f := newAuthFixture(t)
	f.register(t, "john_doe", "john@example.com", "Passw0rd!")

	if err := f.svc.RequestPasswordReset(context.Background(), "JOHN@example.com"); err != nil {
		t.Fatalf("request reset: %v", err)
	}

	mails := f.mailer.mails()
	if len(mails) != 1 || mails[0].to != "john@example.com" {
		t.Fatalf("expected one mail to john, got %+v", mails)
	}
	if !strings.Contains(mails[0].body, "http://localhost:5173/reset-password/") {
		t.Fatalf("link should use the client url: %s", mails[0].body)
	}
	raw := resetTokenFromMail(t, mails[0])

	stored, _ := f.store.accountByEmail("john@example.com")
	if stored.ResetTokenHash == nil || *stored.ResetTokenHash != hashResetToken(raw) {
		t.Fatal("expected the hash of the mailed token to be stored")
	}
	if *stored.ResetTokenHash == raw {
		t.Fatal("raw token must not be stored")
	}
	if !stored.ResetTokenExpiresAt.Equal(f.now.Add(30 * time.Minute)) {
		t.Fatalf("unexpected expiry %v", stored.ResetTokenExpiresAt)
	}
}

func TestRequestPasswordResetErrors(t *testing.T) {
	f := newAuthFixture(t)

	err := f.svc.RequestPasswordReset(context.Background(), "not-an-email")
	var verr *domain.ValidationError
	if !errors.As(err, &verr) || verr.Message != MsgInvalidEmail {
		t.Fatalf("expected invalid email, got %v", err)
	}

	err = f.svc.RequestPasswordReset(context.Background(), "ghost@example.com")
	if !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
	if len(f.mailer.mails()) != 0 {
		t.Fatal("no mail expected")
	}
}

func TestRequestPasswordResetClearsTokenWhenMailFails(t *testing.T) {
	f := newAuthFixture(t)
	f.register(t, "john_doe", "john@example.com", "Passw0rd!")
	f.mailer.failAll = errSMTPDown

	err := f.svc.RequestPasswordReset(context.Background(), "john@example.com")
	if !errors.Is(err, domain.ErrDelivery) {
		t.Fatalf("expected delivery error, got %v", err)
	}

	stored, _ := f.store.accountByEmail("john@example.com")
	if stored.ResetTokenHash != nil || stored.ResetTokenExpiresAt != nil {
		t.Fatal("reset fields should be cleared after a failed mail")
	}
}

func TestResetPasswordIsSingleUse(t *testing.T) {
	f := newAuthFixture(t)
	f.register(t, "john_doe", "john@example.com", "Passw0rd!")
	if err := f.svc.RequestPasswordReset(context.Background(), "john@example.com"); err != nil {
		t.Fatalf("request reset: %v", err)
	}
	raw := resetTokenFromMail(t, f.mailer.mails()[0])

	if err := f.svc.ResetPassword(context.Background(), raw, "NewPassw0rd!"); err != nil {
		t.Fatalf("reset: %v", err)
	}

	if _, err := f.svc.Login(context.Background(), dto.LoginRequest{Email: "john@example.com", Password: "NewPassw0rd!"}); err != nil {
		t.Fatalf("login with new password: %v", err)
	}
	if _, err := f.svc.Login(context.Background(), dto.LoginRequest{Email: "john@example.com", Password: "Passw0rd!"}); !errors.Is(err, domain.ErrInvalidCredentials) {
		t.Fatalf("old password should be rejected, got %v", err)
	}

	stored, _ := f.store.accountByEmail("john@example.com")
	if stored.ResetTokenHash != nil || stored.ResetTokenExpiresAt != nil {
		t.Fatal("reset fields should be cleared")
	}

	if err := f.svc.ResetPassword(context.Background(), raw, "Another0ne!"); !errors.Is(err, domain.ErrInvalidResetToken) {
		t.Fatalf("second use should fail, got %v", err)
	}
}

func TestResetPasswordRejectsExpiredToken(t *testing.T) {
	f := newAuthFixture(t)
	f.register(t, "john_doe", "john@example.com", "Passw0rd!")
	if err := f.svc.RequestPasswordReset(context.Background(), "john@example.com"); err != nil {
		t.Fatalf("request reset: %v", err)
	}
	raw := resetTokenFromMail(t, f.mailer.mails()[0])

	f.now = f.now.Add(31 * time.Minute)

	if err := f.svc.ResetPassword(context.Background(), raw, "NewPassw0rd!"); !errors.Is(err, domain.ErrInvalidResetToken) {
		t.Fatalf("expected invalid reset token, got %v", err)
	}
}

func TestResetPasswordValidatesPasswordFirst(t *testing.T) {
	f := newAuthFixture(t)

	err := f.svc.ResetPassword(context.Background(), "whatever", "")
	var verr *domain.ValidationError
	if !errors.As(err, &verr) || verr.Message != MsgPasswordRequired {
		t.Fatalf("expected password required, got %v", err)
	}

	err = f.svc.ResetPassword(context.Background(), "whatever", "weakpass")
	if !errors.As(err, &verr) || verr.Message != testRules().PasswordMessage() {
		t.Fatalf("expected password rule message, got %v", err)
	}

	err = f.svc.ResetPassword(context.Background(), "unknown-token", "Passw0rd!")
	if !errors.Is(err, domain.ErrInvalidResetToken) {
		t.Fatalf("expected invalid reset token, got %v", err)
	}
}

func TestAuthenticate(t *testing.T) {
	f := newAuthFixture(t)
	resp := f.register(t, "john_doe", "john@example.com", "Passw0rd!")

	acc, err := f.svc.Authenticate(context.Background(), resp.Token)
	if err != nil {
		t.Fatalf("authenticate: %v", err)
	}
	if acc.ID.String() != resp.User.ID || acc.PasswordHash != "" {
		t.Fatalf("unexpected account %+v", acc)
	}

	if _, err := f.svc.Authenticate(context.Background(), "garbage"); !errors.Is(err, domain.ErrInvalidToken) {
		t.Fatalf("expected invalid token, got %v", err)
	}

	id := uuid.MustParse(resp.User.ID)
	if err := f.store.Accounts().Delete(context.Background(), id); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if _, err := f.svc.Authenticate(context.Background(), resp.Token); !errors.Is(err, domain.ErrInvalidToken) {
		t.Fatalf("deleted account should not authenticate, got %v", err)
	}
}

func TestRegisterSurfacesTokenFailure(t *testing.T) {
	f := newAuthFixture(t)
	stub := &stubTokenService{issueErr: errors.New("signer unavailable")}
	f.svc.Tokens = stub

	_, err := f.svc.Register(context.Background(), dto.RegisterRequest{Username: "john_doe", Email: "john@example.com", Password: "Passw0rd!"})
	if err == nil || errors.Is(err, domain.ErrValidation) {
		t.Fatalf("expected internal error, got %v", err)
	}

	stub.issueErr = nil
	resp, err := f.svc.Login(context.Background(), dto.LoginRequest{Email: "john@example.com", Password: "Passw0rd!"})
	if err != nil {
		t.Fatalf("login: %v", err)
	}
	if len(stub.issued) != 1 || resp.Token != "token-"+stub.issued[0].String() {
		t.Fatalf("unexpected issue calls %v", stub.issued)
	}

	acc, err := f.svc.Authenticate(context.Background(), resp.Token)
	if err != nil || acc.Email != "john@example.com" {
		t.Fatalf("authenticate with stub token: %v", err)
	}
}

func TestResetPasswordSkipsHashingForUnknownToken(t *testing.T) {
	f := newAuthFixture(t)
	f.register(t, "john_doe", "john@example.com", "Passw0rd!")
	if err := f.svc.RequestPasswordReset(context.Background(), "john@example.com"); err != nil {
		t.Fatalf("request reset: %v", err)
	}
	raw := resetTokenFromMail(t, f.mailer.mails()[0])

	passwords := &countingPasswords{PasswordService: f.svc.Passwords}
	f.svc.Passwords = passwords

	bogus := strings.Repeat("0", 64)
	if err := f.svc.ResetPassword(context.Background(), bogus, "NewPassw0rd!"); !errors.Is(err, domain.ErrInvalidResetToken) {
		t.Fatalf("expected invalid reset token, got %v", err)
	}
	if n := passwords.hashes.Load(); n != 0 {
		t.Fatalf("hashed %d times for an unknown token", n)
	}

	if err := f.svc.ResetPassword(context.Background(), raw, "NewPassw0rd!"); err != nil {
		t.Fatalf("reset: %v", err)
	}
	if n := passwords.hashes.Load(); n != 1 {
		t.Fatalf("expected one hash for the real token, got %d", n)
	}
}
