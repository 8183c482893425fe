package services

import (
	"fmt"
	"strconv"

	"usersync/internal/models"
	"usersync/internal/validation"
)

// Prompter supplies candidate values for a field and shows rejection messages.
// The console implementation lives in internal/prompt.
type Prompter interface {
	Prompt(label string) (string, error)
	Reject(message string)
}

type fieldState int

const (
	statePrompting fieldState = iota
	stateValidating
	stateAccepted
)

type field struct {
	name    string
	label   string
	valid   func(string) bool
	message string
	assign  func(u *models.User, s string)
}

// Fields are collected in this order.
var recordFields = []field{
	{
		name:    "id",
		label:   "Enter your User ID (3 numeric characters): ",
		valid:   validation.ValidIdentifier,
		message: "User ID should be exactly 3 numeric characters.",
		assign:  func(u *models.User, s string) { u.ID = s },
	},
	{
		name:    "first_name",
		label:   "Enter first name: ",
		valid:   validation.ValidAlpha,
		message: "First name should only contain letters.",
		assign:  func(u *models.User, s string) { u.FirstName = s },
	},
	{
		name:    "last_name",
		label:   "Enter last name: ",
		valid:   validation.ValidAlpha,
		message: "Last name should only contain letters.",
		assign:  func(u *models.User, s string) { u.LastName = s },
	},
	{
		name:    "age",
		label:   "Enter your age: ",
		valid:   validation.ValidAge,
		message: "Age must be a positive integer.",
		assign:  func(u *models.User, s string) { u.Age, _ = strconv.Atoi(s) },
	},
	{
		name:    "gender",
		label:   "Enter gender (male/female/other): ",
		valid:   validation.ValidGender,
		message: "Gender must be 'male', 'female', or 'other'.",
		assign:  func(u *models.User, s string) { u.Gender = validation.NormalizeGender(s) },
	},
	{
		name:    "year_of_birth",
		label:   "Enter your year of birth: ",
		valid:   validation.ValidYearOfBirth,
		message: fmt.Sprintf("Year of birth must be a number between %d and %d.", validation.MinYearOfBirth, validation.MaxYearOfBirth),
		assign:  func(u *models.User, s string) { u.YearOfBirth, _ = strconv.Atoi(s) },
	},
}

// RecordBuilder assembles one validated user record from prompted input.
type RecordBuilder struct {
	prompter Prompter
}

// NewRecordBuilder creates a new RecordBuilder.
func NewRecordBuilder(prompter Prompter) *RecordBuilder {
	return &RecordBuilder{
		prompter: prompter,
	}
}

// Build asks for every field in order and retries each one until its
// validator accepts. It either returns a complete record or the prompter's
// error, never a partial record.
func (b *RecordBuilder) Build() (models.User, error) {
	var user models.User
	for _, f := range recordFields {
		value, err := b.collect(f)
		if err != nil {
			return models.User{}, fmt.Errorf("failed to read %s: %w", f.name, err)
		}
		f.assign(&user, value)
	}
	return user, nil
}

// collect runs one field through Prompting -> Validating -> Accepted, looping
// back to Prompting on every rejected value.
func (b *RecordBuilder) collect(f field) (string, error) {
	var value string
	state := statePrompting
	for state != stateAccepted {
		switch state {
		case statePrompting:
			v, err := b.prompter.Prompt(f.label)
			if err != nil {
				return "", err
			}
			value = v
			state = stateValidating
		case stateValidating:
			if f.valid(value) {
				state = stateAccepted
			} else {
				b.prompter.Reject(f.message)
				state = statePrompting
			}
		}
	}
	return value, nil
}
