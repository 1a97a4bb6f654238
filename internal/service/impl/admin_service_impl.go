package impl

import (
	"context"

	"vision-api/internal/domain"
	"vision-api/internal/observability/logging"
	"vision-api/internal/store"
)

type AdminServiceImpl struct {
	Store dataStore
}

func NewAdminServiceImpl(st *store.Store) *AdminServiceImpl {
	return &AdminServiceImpl{Store: newGormStore(st)}
}

func (s *AdminServiceImpl) ListAccounts(ctx context.Context) ([]domain.Account, error) {
	return s.Store.Accounts().List(ctx)
}

func (s *AdminServiceImpl) GetAccount(ctx context.Context, id domain.AccountID) (*domain.Account, error) {
	return s.Store.Accounts().GetByID(ctx, id)
}

// SetRole changes the role of id. An administrator cannot demote itself,
// which keeps at least the acting administrator in place.
func (s *AdminServiceImpl) SetRole(ctx context.Context, actor, id domain.AccountID, role string) (*domain.Account, error) {
	r := domain.Role(role)
	if !r.Valid() {
		return nil, domain.NewValidationError(MsgInvalidRole)
	}
	if actor == id && r != domain.RoleAdmin {
		return nil, domain.NewValidationError(MsgSelfDemotion)
	}

	var out *domain.Account
	err := s.Store.WithTx(ctx, func(tx storeTx) error {
		if err := tx.Accounts().SetRole(ctx, id, r); err != nil {
			return err
		}
		acc, err := tx.Accounts().GetByID(ctx, id)
		if err != nil {
			return err
		}
		out = acc
		return nil
	})
	if err != nil {
		return nil, err
	}

	logging.FromContext(ctx).Info("role changed", "actor_id", actor, "account_id", id, "role", r)
	return out, nil
}

func (s *AdminServiceImpl) DeleteAccount(ctx context.Context, actor, id domain.AccountID) error {
	if actor == id {
		return domain.NewValidationError(MsgSelfDemotion)
	}
	if err := s.Store.Accounts().Delete(ctx, id); err != nil {
		return err
	}
	logging.FromContext(ctx).Info("account deleted by administrator", "actor_id", actor, "account_id", id)
	return nil
}

func (s *AdminServiceImpl) ListMessages(ctx context.Context) ([]domain.ContactMessage, error) {
	return s.Store.Messages().List(ctx)
}

func (s *AdminServiceImpl) SetMessageStatus(ctx context.Context, id domain.MessageID, status string) (*domain.ContactMessage, error) {
	st := domain.MessageStatus(status)
	if !st.Valid() {
		return nil, domain.NewValidationError(MsgInvalidStatus)
	}
	if err := s.Store.Messages().UpdateStatus(ctx, id, st); err != nil {
		return nil, err
	}
	return s.Store.Messages().GetByID(ctx, id)
}

func (s *AdminServiceImpl) DeleteMessage(ctx context.Context, id domain.MessageID) error {
	return s.Store.Messages().Delete(ctx, id)
}
