package impl

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"vision-api/internal/domain"
	"vision-api/internal/dto"
	"vision-api/internal/observability/logging"
	"vision-api/internal/service"
	"vision-api/internal/store"
	"vision-api/internal/validation"
)

type AccountServiceImpl struct {
	Store     dataStore
	Passwords service.PasswordService
	Rules     validation.Rules
	Now       func() time.Time
}

func NewAccountServiceImpl(st *store.Store, passwords service.PasswordService, rules validation.Rules) *AccountServiceImpl {
	return &AccountServiceImpl{
		Store:     newGormStore(st),
		Passwords: passwords,
		Rules:     rules,
		Now:       time.Now,
	}
}

func (s *AccountServiceImpl) now() time.Time {
	if s.Now == nil {
		return time.Now().UTC()
	}
	return s.Now().UTC()
}

func (s *AccountServiceImpl) Profile(ctx context.Context, id domain.AccountID) (*domain.Account, error) {
	return s.Store.Accounts().GetByID(ctx, id)
}

// UpdateProfile merges r into the stored profile. Nil fields are kept, empty
// strings clear, and every violated rule is reported at once.
func (s *AccountServiceImpl) UpdateProfile(ctx context.Context, id domain.AccountID, r dto.ProfileUpdateRequest) (*domain.Account, error) {
	var out *domain.Account
	err := s.Store.WithTx(ctx, func(tx storeTx) error {
		acc, err := tx.Accounts().GetByID(ctx, id)
		if err != nil {
			return err
		}

		var problems []string

		if r.Username != nil {
			username := strings.TrimSpace(*r.Username)
			switch {
			case !s.Rules.UsernameValid(username):
				problems = append(problems, s.Rules.UsernameMessage())
			case username != acc.Username:
				taken, err := usernameTaken(ctx, tx.Accounts(), username, acc.ID)
				if err != nil {
					return err
				}
				if taken {
					problems = append(problems, MsgUsernameTaken)
				}
			}
			acc.Username = username
		}

		if r.FullName != nil {
			var name domain.FullName
			if acc.FullName != nil {
				name = *acc.FullName
			}
			mergeFullName(&name, r.FullName)
			problems = append(problems, validation.FullName(name)...)
			acc.FullName = &name
			if name.IsZero() {
				acc.FullName = nil
			}
		}

		if r.BirthDate != nil {
			raw := strings.TrimSpace(*r.BirthDate)
			if raw == "" {
				acc.BirthDate = nil
			} else if t, ok := validation.ParseBirthDate(raw, s.now()); ok {
				acc.BirthDate = &t
			} else {
				problems = append(problems, validation.MsgInvalidBirthDate)
			}
		}

		if r.MobilePhone != nil {
			phone := strings.TrimSpace(*r.MobilePhone)
			if validation.MobileValid(phone) {
				acc.MobilePhone = optional(phone)
			} else {
				problems = append(problems, validation.MsgInvalidMobile)
			}
		}

		if r.Landline != nil {
			phone := strings.TrimSpace(*r.Landline)
			if validation.LandlineValid(phone) {
				acc.Landline = optional(phone)
			} else {
				problems = append(problems, validation.MsgInvalidLandline)
			}
		}

		if r.Address != nil {
			var addr domain.Address
			if acc.Address != nil {
				addr = *acc.Address
			}
			mergeAddress(&addr, r.Address)
			problems = append(problems, validation.Address(addr)...)
			acc.Address = &addr
			if addr.IsZero() {
				acc.Address = nil
			}
		}

		if r.Newsletter != nil {
			subscribed := *r.Newsletter
			acc.Newsletter = &subscribed
		}

		if len(problems) > 0 {
			return domain.NewValidationError(MsgInvalidProfile, problems...)
		}
		if err := tx.Accounts().UpdateProfile(ctx, acc); err != nil {
			return err
		}
		out, err = tx.Accounts().GetByID(ctx, id)
		return err
	})
	if err != nil {
		return nil, err
	}

	logging.FromContext(ctx).Info("profile updated", "account_id", id)
	return out, nil
}

func (s *AccountServiceImpl) ChangeUsername(ctx context.Context, id domain.AccountID, username string) (*domain.Account, error) {
	username = strings.TrimSpace(username)
	if username == "" {
		return nil, domain.NewValidationError("username is required")
	}
	if !s.Rules.UsernameValid(username) {
		return nil, domain.NewValidationError(s.Rules.UsernameMessage())
	}

	acc, err := s.Store.Accounts().GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if acc.Username == username {
		return acc, nil
	}
	taken, err := usernameTaken(ctx, s.Store.Accounts(), username, acc.ID)
	if err != nil {
		return nil, err
	}
	if taken {
		return nil, domain.ErrConflict
	}

	if err := s.Store.Accounts().SetUsername(ctx, id, username); err != nil {
		return nil, err
	}
	logging.FromContext(ctx).Info("username changed", "account_id", id)
	return s.Store.Accounts().GetByID(ctx, id)
}

func (s *AccountServiceImpl) ChangeEmail(ctx context.Context, id domain.AccountID, email string) (*domain.Account, error) {
	email = domain.NormalizeEmail(email)
	if email == "" {
		return nil, domain.NewValidationError("email is required")
	}
	if !validation.EmailValid(email) {
		return nil, domain.NewValidationError(validation.MsgInvalidEmail)
	}

	acc, err := s.Store.Accounts().GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if acc.Email == email {
		return acc, nil
	}
	other, err := s.Store.Accounts().GetByEmail(ctx, email)
	switch {
	case err == nil && other.ID != acc.ID:
		return nil, domain.ErrConflict
	case err != nil && !errors.Is(err, domain.ErrNotFound):
		return nil, err
	}

	if err := s.Store.Accounts().SetEmail(ctx, id, email); err != nil {
		return nil, err
	}
	logging.FromContext(ctx).Info("email changed", "account_id", id)
	return s.Store.Accounts().GetByID(ctx, id)
}

func (s *AccountServiceImpl) ChangePassword(ctx context.Context, id domain.AccountID, current, next string) error {
	if current == "" || next == "" {
		return domain.NewValidationError(MsgPasswordsRequired)
	}
	if !s.Rules.PasswordValid(next) {
		return domain.NewValidationError(s.Rules.PasswordMessage())
	}

	acc, err := s.Store.Accounts().GetByID(ctx, id)
	if err != nil {
		return err
	}
	if _, ok := s.Passwords.Verify(current, acc.PasswordHash); !ok {
		return domain.ErrInvalidCredentials
	}

	hash, err := s.Passwords.Hash(next)
	if err != nil {
		return fmt.Errorf("hash password: %w", err)
	}
	// A reset link mailed before the change must stop working.
	if err := s.Store.Accounts().SetPassword(ctx, id, hash); err != nil {
		return err
	}
	logging.FromContext(ctx).Info("password changed", "account_id", id)
	return nil
}

func (s *AccountServiceImpl) SetNewsletter(ctx context.Context, id domain.AccountID, subscribed bool) (*domain.Account, error) {
	if err := s.Store.Accounts().SetNewsletter(ctx, id, subscribed); err != nil {
		return nil, err
	}
	return s.Store.Accounts().GetByID(ctx, id)
}

func (s *AccountServiceImpl) Delete(ctx context.Context, id domain.AccountID, password string) error {
	if password == "" {
		return domain.NewValidationError("password is required to delete the account")
	}
	acc, err := s.Store.Accounts().GetByID(ctx, id)
	if err != nil {
		return err
	}
	if _, ok := s.Passwords.Verify(password, acc.PasswordHash); !ok {
		return domain.ErrInvalidCredentials
	}
	if err := s.Store.Accounts().Delete(ctx, id); err != nil {
		return err
	}
	logging.FromContext(ctx).Info("account deleted by owner", "account_id", id)
	return nil
}

func usernameTaken(ctx context.Context, accounts accountStore, username string, self domain.AccountID) (bool, error) {
	other, err := accounts.GetByUsername(ctx, username)
	if errors.Is(err, domain.ErrNotFound) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return other.ID != self, nil
}

func mergeFullName(n *domain.FullName, p *dto.FullNamePatch) {
	assign(&n.HonorificTitle, p.HonorificTitle)
	assign(&n.FirstName, p.FirstName)
	assign(&n.FatherName, p.FatherName)
	assign(&n.FamilyName, p.FamilyName)
	if p.Gender != nil {
		n.Gender = domain.Gender(strings.TrimSpace(*p.Gender))
	}
}

func mergeAddress(a *domain.Address, p *dto.AddressPatch) {
	assign(&a.Unit, p.Unit)
	assign(&a.BuildingName, p.BuildingName)
	assign(&a.Street, p.Street)
	assign(&a.DependentLocality, p.DependentLocality)
	assign(&a.POBox, p.POBox)
	assign(&a.City, p.City)
	assign(&a.Emirate, p.Emirate)
}

func assign(dst *string, src *string) {
	if src != nil {
		*dst = strings.TrimSpace(*src)
	}
}

func optional(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
