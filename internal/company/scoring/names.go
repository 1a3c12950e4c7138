package scoring

import (
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/gartstein/companyrisk/internal/company/models"
)

// ResolveName returns the forename and surname of a person. Explicit
// fields win; missing parts are derived from a display name written as
// "SURNAME, Forename Middle", the form officer records use. Either value
// may be empty when it cannot be derived.
func ResolveName(p *models.Person) (forename, surname string) {
	forename = strings.TrimSpace(p.Forename)
	surname = strings.TrimSpace(p.Surname)
	if forename != "" && surname != "" {
		return forename, surname
	}

	before, after, found := strings.Cut(p.Name, ",")
	if !found {
		return forename, surname
	}
	if forename == "" {
		if fields := strings.Fields(after); len(fields) > 0 {
			forename = fields[0]
		}
	}
	if surname == "" {
		surname = capitalize(strings.TrimSpace(before))
	}
	return forename, surname
}

// FullName returns "Forename Surname" when both parts resolve.
func FullName(p *models.Person) string {
	forename, surname := ResolveName(p)
	if forename == "" || surname == "" {
		return ""
	}
	return forename + " " + surname
}

// capitalize upper-cases the first letter and lower-cases the rest.
func capitalize(s string) string {
	if s == "" {
		return s
	}
	r, size := utf8.DecodeRuneInString(s)
	return string(unicode.ToUpper(r)) + strings.ToLower(s[size:])
}
