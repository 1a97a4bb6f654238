package dto

// ProfileUpdateRequest is a partial update: nil fields are left untouched,
// nested objects are merged field by field and an empty string clears a field.
type ProfileUpdateRequest struct {
	Username    *string        `json:"username,omitempty"`
	FullName    *FullNamePatch `json:"fullName,omitempty"`
	BirthDate   *string        `json:"birthDate,omitempty"`
	MobilePhone *string        `json:"mobilePhone,omitempty"`
	Landline    *string        `json:"landline,omitempty"`
	Address     *AddressPatch  `json:"address,omitempty"`
	Newsletter  *bool          `json:"newsletter,omitempty"`
}

type FullNamePatch struct {
	HonorificTitle *string `json:"honorificTitle,omitempty"`
	FirstName      *string `json:"firstName,omitempty"`
	FatherName     *string `json:"fatherName,omitempty"`
	FamilyName     *string `json:"familyName,omitempty"`
	Gender         *string `json:"gender,omitempty"`
}

type AddressPatch struct {
	Unit              *string `json:"unit,omitempty"`
	BuildingName      *string `json:"buildingName,omitempty"`
	Street            *string `json:"street,omitempty"`
	DependentLocality *string `json:"dependentLocality,omitempty"`
	POBox             *string `json:"poBox,omitempty"`
	City              *string `json:"city,omitempty"`
	Emirate           *string `json:"emirate,omitempty"`
}

type UsernameRequest struct {
	Username string `json:"username"`
}

type EmailRequest struct {
	Email string `json:"email"`
}

type NewsletterPreferenceRequest struct {
	Newsletter *bool `json:"newsletter"`
}
