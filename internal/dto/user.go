package dto

import (
	"time"

	"vision-api/internal/domain"
)

// AccountView is the only shape in which an account leaves the service.
// Optional fields that are not set are omitted rather than sent as null, and
// the password hash and reset state have no field at all.
type AccountView struct {
	ID                string           `json:"id"`
	Username          string           `json:"username"`
	Email             string           `json:"email"`
	Role              domain.Role      `json:"role"`
	Newsletter        *bool            `json:"newsletter,omitempty"`
	FullName          *domain.FullName `json:"fullName,omitempty"`
	FormattedFullName string           `json:"formattedFullName,omitempty"`
	BirthDate         string           `json:"birthDate,omitempty"`
	MobilePhone       string           `json:"mobilePhone,omitempty"`
	Landline          string           `json:"landline,omitempty"`
	Address           *domain.Address  `json:"address,omitempty"`
	CreatedAt         *time.Time       `json:"createdAt,omitempty"`
	UpdatedAt         *time.Time       `json:"updatedAt,omitempty"`
}

func NewAccountView(a *domain.Account) AccountView {
	v := AccountView{
		ID:                a.ID.String(),
		Username:          a.Username,
		Email:             a.Email,
		Role:              a.Role.Effective(),
		Newsletter:        a.Newsletter,
		FormattedFullName: a.FormattedFullName(),
	}
	if !a.FullName.IsZero() {
		n := *a.FullName
		v.FullName = &n
	}
	if !a.Address.IsZero() {
		addr := *a.Address
		v.Address = &addr
	}
	if a.BirthDate != nil {
		v.BirthDate = a.BirthDate.Format("2006-01-02")
	}
	if a.MobilePhone != nil {
		v.MobilePhone = *a.MobilePhone
	}
	if a.Landline != nil {
		v.Landline = *a.Landline
	}
	if !a.CreatedAt.IsZero() {
		created := a.CreatedAt
		v.CreatedAt = &created
	}
	if !a.UpdatedAt.IsZero() {
		updated := a.UpdatedAt
		v.UpdatedAt = &updated
	}
	return v
}

func NewAccountViews(accounts []domain.Account) []AccountView {
	out := make([]AccountView, 0, len(accounts))
	for i := range accounts {
		out = append(out, NewAccountView(&accounts[i]))
	}
	return out
}
