// Package validation holds the input rules shared by the registration,
// reset and profile flows.
package validation

import (
	"fmt"
	"regexp"
	"strings"
	"unicode/utf8"
)

var (
	emailPattern    = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)
	usernamePattern = regexp.MustCompile(`^[a-zA-Z0-9_-]+$`)
)

const MsgInvalidEmail = "invalid email format"

// Rules are the credential rules. They are loaded once at startup and only
// read afterwards.
type Rules struct {
	PasswordMinLength    int
	PasswordRequireUpper bool
	PasswordSpecialChars string
	UsernameMinLength    int
	UsernameMaxLength    int
}

func DefaultRules() Rules {
	return Rules{
		PasswordMinLength:    8,
		PasswordRequireUpper: true,
		PasswordSpecialChars: "!@#$%^&*",
		UsernameMinLength:    3,
		UsernameMaxLength:    50,
	}
}

func (r Rules) UsernameValid(username string) bool {
	n := utf8.RuneCountInString(username)
	return n >= r.UsernameMinLength && n <= r.UsernameMaxLength && usernamePattern.MatchString(username)
}

func (r Rules) PasswordValid(password string) bool {
	if utf8.RuneCountInString(password) < r.PasswordMinLength {
		return false
	}
	if r.PasswordRequireUpper && strings.IndexFunc(password, isASCIIUpper) < 0 {
		return false
	}
	if r.PasswordSpecialChars != "" && !strings.ContainsAny(password, r.PasswordSpecialChars) {
		return false
	}
	return true
}

// isASCIIUpper accepts A to Z only; accented capitals do not count.
func isASCIIUpper(r rune) bool { return r >= 'A' && r <= 'Z' }

func (r Rules) UsernameMessage() string {
	return fmt.Sprintf("username must be between %d and %d characters and contain only letters, digits, dashes and underscores",
		r.UsernameMinLength, r.UsernameMaxLength)
}

func (r Rules) PasswordMessage() string {
	var b strings.Builder
	fmt.Fprintf(&b, "password must contain at least %d characters", r.PasswordMinLength)
	if r.PasswordRequireUpper {
		b.WriteString(", one uppercase letter")
	}
	if r.PasswordSpecialChars != "" {
		fmt.Fprintf(&b, " and one special character (%s)", r.PasswordSpecialChars)
	}
	return b.String()
}

// Registration returns one problem per violated rule, in field order
// username, email, password. It never stops at the first failure.
func (r Rules) Registration(username, email, password string) []string {
	var problems []string
	if !r.UsernameValid(username) {
		problems = append(problems, r.UsernameMessage())
	}
	if !EmailValid(email) {
		problems = append(problems, MsgInvalidEmail)
	}
	if !r.PasswordValid(password) {
		problems = append(problems, r.PasswordMessage())
	}
	return problems
}

func EmailValid(email string) bool {
	return emailPattern.MatchString(strings.TrimSpace(email))
}
