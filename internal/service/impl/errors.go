package impl

import "errors"

var (
	ErrEmptyPassword = errors.New("empty password")
	ErrMalformedHash = errors.New("malformed password hash")
)

// Client facing messages. Handlers return them verbatim.
const (
	MsgRegisterRequired    = "username, email and password are required"
	MsgInvalidRegistration = "invalid registration data"
	MsgLoginRequired       = "email and password are required"
	MsgInvalidEmail        = "invalid email"
	MsgPasswordRequired    = "password is required"
	MsgPasswordsRequired   = "current and new passwords are required"
	MsgInvalidProfile      = "invalid profile data"
	MsgUsernameTaken       = "this username is already taken"
	MsgInvalidRole         = "invalid role"
	MsgInvalidStatus       = "invalid status"
	MsgSelfDemotion        = "administrators cannot remove their own account or role"
	MsgContactRequired     = "name, email and message are required"
	MsgNewsletterRequired  = "subject and content are required"
)
