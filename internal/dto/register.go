package dto

type RegisterRequest struct {
	Username   string `json:"username"`
	Email      string `json:"email"`
	Password   string `json:"password,omitempty"`
	Newsletter *bool  `json:"newsletter,omitempty"`
}
