// Package validation holds the field predicates for user records.
//
// Every predicate is total: it takes the raw input string, never panics and
// never mutates anything. The rules are expressed as go-playground/validator
// tags so that the same rules apply to single fields and to whole records.
package validation

import (
	"fmt"
	"strconv"
	"strings"
	"unicode"

	"github.com/go-playground/validator/v10"

	"usersync/internal/models"
)

const (
	MinYearOfBirth = 1900
	MaxYearOfBirth = 2024
)

var (
	validate = newValidate()
	yearTag  = fmt.Sprintf("gte=%d,lte=%d", MinYearOfBirth, MaxYearOfBirth)
)

func newValidate() *validator.Validate {
	v := validator.New()
	// Registration only fails for restricted tag names, which these are not.
	_ = v.RegisterValidation("digits", isDigits)
	_ = v.RegisterValidation("letters", isLetters)
	return v
}

// isDigits reports whether the field is a non-empty run of ASCII decimal digits.
func isDigits(fl validator.FieldLevel) bool {
	s := fl.Field().String()
	if s == "" {
		return false
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}

// isLetters reports whether the field is non-empty and made of letters only.
func isLetters(fl validator.FieldLevel) bool {
	s := fl.Field().String()
	if s == "" {
		return false
	}
	for _, r := range s {
		if !unicode.IsLetter(r) {
			return false
		}
	}
	return true
}

// ValidIdentifier reports whether s is exactly three decimal digits.
func ValidIdentifier(s string) bool {
	return validate.Var(s, "len=3,digits") == nil
}

// ValidAlpha reports whether s is a non-empty string of letters.
func ValidAlpha(s string) bool {
	return validate.Var(s, "letters") == nil
}

// ValidAge reports whether s is a digit string with a value above zero.
// Values that overflow int are rejected.
func ValidAge(s string) bool {
	n, ok := parseDigits(s)
	return ok && validate.Var(n, "gt=0") == nil
}

// ValidGender reports whether s is male, female or other, ignoring case.
func ValidGender(s string) bool {
	return validate.Var(NormalizeGender(s), "oneof=male female other") == nil
}

// ValidYearOfBirth reports whether s is a digit string within
// [MinYearOfBirth, MaxYearOfBirth].
func ValidYearOfBirth(s string) bool {
	n, ok := parseDigits(s)
	return ok && validate.Var(n, yearTag) == nil
}

// NormalizeGender returns the stored form of a gender value.
func NormalizeGender(s string) string {
	return strings.ToLower(s)
}

// ValidateUser checks a complete record, including its ID.
func ValidateUser(u models.User) error {
	return validate.Struct(u)
}

func parseDigits(s string) (int, bool) {
	if validate.Var(s, "digits") != nil {
		return 0, false
	}
	n, err := strconv.Atoi(s)
	if err != nil {
		return 0, false
	}
	return n, true
}
