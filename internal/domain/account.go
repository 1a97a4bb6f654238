package domain

import (
	"strings"
	"time"
)

type Role string

const (
	RoleUser  Role = "user"
	RoleAdmin Role = "admin"
)

// Valid reports whether r is one of the known roles. The empty role is
// treated as RoleUser by Effective and is not valid on its own.
func (r Role) Valid() bool { return r == RoleUser || r == RoleAdmin }

func (r Role) Effective() Role {
	if r == "" {
		return RoleUser
	}
	return r
}

type Gender string

const (
	GenderMale   Gender = "male"
	GenderFemale Gender = "female"
)

type FullName struct {
	HonorificTitle string `json:"honorificTitle,omitempty"`
	FirstName      string `json:"firstName,omitempty"`
	FatherName     string `json:"fatherName,omitempty"`
	FamilyName     string `json:"familyName,omitempty"`
	Gender         Gender `json:"gender,omitempty"`
}

func (n *FullName) IsZero() bool { return n == nil || *n == (FullName{}) }

type Address struct {
	Unit              string `json:"unit,omitempty"`
	BuildingName      string `json:"buildingName,omitempty"`
	Street            string `json:"street,omitempty"`
	DependentLocality string `json:"dependentLocality,omitempty"`
	POBox             string `json:"poBox,omitempty"`
	City              string `json:"city,omitempty"`
	Emirate           string `json:"emirate,omitempty"`
}

func (a *Address) IsZero() bool { return a == nil || *a == (Address{}) }

type Account struct {
	ID           AccountID `gorm:"type:uuid;primaryKey" db:"id"`
	Username     string    `gorm:"type:text;not null;uniqueIndex:ux_accounts_username" db:"username"`
	Email        string    `gorm:"type:text;not null;uniqueIndex:ux_accounts_email" db:"email"`
	PasswordHash string    `gorm:"type:text;not null" db:"password_hash"`
	Role         Role      `gorm:"type:text;not null;default:'user'" db:"role"`

	Newsletter  *bool      `db:"newsletter"`
	FullName    *FullName  `gorm:"type:jsonb;serializer:json" db:"full_name"`
	BirthDate   *time.Time `db:"birth_date"`
	MobilePhone *string    `gorm:"type:text" db:"mobile_phone"`
	Landline    *string    `gorm:"type:text" db:"landline"`
	Address     *Address   `gorm:"type:jsonb;serializer:json" db:"address"`

	ResetTokenHash      *string    `gorm:"type:text;index:ix_accounts_reset_token" db:"reset_token_hash"`
	ResetTokenExpiresAt *time.Time `db:"reset_token_expires_at"`

	CreatedAt time.Time `gorm:"not null" db:"created_at"`
	UpdatedAt time.Time `gorm:"not null" db:"updated_at"`
}

func (Account) TableName() string { return "accounts" }

func (a *Account) IsAdmin() bool { return a.Role.Effective() == RoleAdmin }

// HasActiveResetToken reports whether a reset token is stored and still
// usable at now. An expired token counts as absent.
func (a *Account) HasActiveResetToken(now time.Time) bool {
	return a.ResetTokenHash != nil && a.ResetTokenExpiresAt != nil && now.Before(*a.ResetTokenExpiresAt)
}

// FormattedFullName renders the name the way it is printed on documents,
// e.g. "Sheikh Mohammed bin Rashid Al Maktoum". It is empty unless the
// first, father's and family names and the gender are all known.
func (a *Account) FormattedFullName() string {
	n := a.FullName
	if n == nil || n.FirstName == "" || n.FatherName == "" || n.FamilyName == "" || n.Gender == "" {
		return ""
	}
	link := "bin"
	if n.Gender == GenderFemale {
		link = "bint"
	}
	parts := make([]string, 0, 5)
	if n.HonorificTitle != "" {
		parts = append(parts, n.HonorificTitle)
	}
	parts = append(parts, n.FirstName, link+" "+n.FatherName, n.FamilyName)
	return strings.Join(parts, " ")
}

// NormalizeEmail is the canonical form used for storage and lookups.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
