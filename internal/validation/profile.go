package validation

import (
	"fmt"
	"regexp"
	"time"
	"unicode/utf8"

	"vision-api/internal/domain"
)

// Emirates maps the region codes accepted in an address to their names.
var Emirates = map[string]string{
	"AD":  "Abu Dhabi",
	"DU":  "Dubai",
	"SH":  "Sharjah",
	"AJ":  "Ajman",
	"UAQ": "Umm al-Quwain",
	"RAK": "Ras Al Khaimah",
	"FJR": "Fujairah",
}

var HonorificTitles = []string{"Sheikh", "Sayyid", "Al Haj"}

var (
	namePattern     = regexp.MustCompile(`^[a-zA-Z\s\-']+$`)
	mobilePattern   = regexp.MustCompile(`^\+971-?5[0-9]-?[0-9]{7}$`)
	landlinePattern = regexp.MustCompile(`^\+971-?[0-9]-?[0-9]{7}$`)
	poBoxPattern    = regexp.MustCompile(`^[0-9]{1,10}$`)
)

const (
	nameMinLength = 2
	nameMaxLength = 50

	MsgInvalidMobile    = "invalid mobile number, expected format +971-5X-XXXXXXX"
	MsgInvalidLandline  = "invalid landline number, expected format +971-X-XXXXXXX"
	MsgInvalidBirthDate = "invalid birth date"
)

// DateLayout is the wire format of birth dates.
const DateLayout = "2006-01-02"

func NamePartValid(s string) bool {
	n := utf8.RuneCountInString(s)
	return n >= nameMinLength && n <= nameMaxLength && namePattern.MatchString(s)
}

func MobileValid(phone string) bool   { return phone == "" || mobilePattern.MatchString(phone) }
func LandlineValid(phone string) bool { return phone == "" || landlinePattern.MatchString(phone) }

// ParseBirthDate accepts a calendar date or an RFC 3339 timestamp and
// rejects dates in the future.
func ParseBirthDate(raw string, now time.Time) (time.Time, bool) {
	t, err := time.Parse(DateLayout, raw)
	if err != nil {
		t, err = time.Parse(time.RFC3339, raw)
		if err != nil {
			return time.Time{}, false
		}
	}
	t = time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
	if t.After(now) {
		return time.Time{}, false
	}
	return t, true
}

// FullName checks every populated field of n.
func FullName(n domain.FullName) []string {
	var problems []string
	if n.HonorificTitle != "" && !contains(HonorificTitles, n.HonorificTitle) {
		problems = append(problems, "honorific title must be one of Sheikh, Sayyid, Al Haj")
	}
	for _, part := range []struct{ label, value string }{
		{"first name", n.FirstName},
		{"father's name", n.FatherName},
		{"family name", n.FamilyName},
	} {
		if part.value != "" && !NamePartValid(part.value) {
			problems = append(problems, fmt.Sprintf("%s must be between %d and %d letters", part.label, nameMinLength, nameMaxLength))
		}
	}
	if n.Gender != "" && n.Gender != domain.GenderMale && n.Gender != domain.GenderFemale {
		problems = append(problems, "gender must be male or female")
	}
	return problems
}

// Address checks every populated field of a.
func Address(a domain.Address) []string {
	var problems []string
	for _, f := range []struct {
		label string
		value string
		max   int
	}{
		{"unit", a.Unit, 50},
		{"building name", a.BuildingName, 100},
		{"street", a.Street, 100},
		{"dependent locality", a.DependentLocality, 100},
		{"city", a.City, 50},
	} {
		if utf8.RuneCountInString(f.value) > f.max {
			problems = append(problems, fmt.Sprintf("%s must be at most %d characters", f.label, f.max))
		}
	}
	if a.POBox != "" && !poBoxPattern.MatchString(a.POBox) {
		problems = append(problems, "PO box must contain 1 to 10 digits")
	}
	if _, ok := Emirates[a.Emirate]; a.Emirate != "" && !ok {
		problems = append(problems, "emirate must be one of AD, DU, SH, AJ, UAQ, RAK, FJR")
	}
	return problems
}

func contains(list []string, v string) bool {
	for _, s := range list {
		if s == v {
			return true
		}
	}
	return false
}
