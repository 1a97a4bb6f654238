package dto

// AuthResponse is returned by every flow that hands out a bearer token.
type AuthResponse struct {
	Token     string      `json:"token"`
	ExpiresIn int64       `json:"expiresIn"`
	User      AccountView `json:"user"`
}
