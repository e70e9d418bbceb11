// Package contact implements the contact form: the draft being edited, its
// validation rules and the submission state machine that hands a valid draft
// to the email relay.
package contact

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/codecraftpk/craftsite/internal/errors"
)

// Field names as they appear in the form.
const (
	FieldName    = "name"
	FieldEmail   = "email"
	FieldSubject = "subject"
	FieldMessage = "message"
	// FieldWebsite is the honeypot. It is never shown to people.
	FieldWebsite = "website"
)

// Fields lists every form field in display order.
var Fields = []string{FieldName, FieldEmail, FieldSubject, FieldMessage, FieldWebsite}

var emailPattern = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)

// IsValidEmail reports whether s has the basic local@domain.tld shape.
func IsValidEmail(s string) bool {
	return emailPattern.MatchString(s)
}

// Draft holds the form fields.
type Draft struct {
	Name    string `json:"name" yaml:"name"`
	Email   string `json:"email" yaml:"email"`
	Subject string `json:"subject" yaml:"subject"`
	Message string `json:"message" yaml:"message"`
	Website string `json:"website,omitempty" yaml:"website,omitempty"`
}

// Set assigns value to the named field.
func (d *Draft) Set(field, value string) error {
	switch field {
	case FieldName:
		d.Name = value
	case FieldEmail:
		d.Email = value
	case FieldSubject:
		d.Subject = value
	case FieldMessage:
		d.Message = value
	case FieldWebsite:
		d.Website = value
	default:
		return errors.NewValidationError(errors.ErrCodeUnknownField, fmt.Sprintf("unknown form field %q", field)).
			WithContext("field", field)
	}
	return nil
}

// Get returns the value of the named field, or "" for unknown names.
func (d Draft) Get(field string) string {
	switch field {
	case FieldName:
		return d.Name
	case FieldEmail:
		return d.Email
	case FieldSubject:
		return d.Subject
	case FieldMessage:
		return d.Message
	case FieldWebsite:
		return d.Website
	}
	return ""
}

// IsBot reports whether the honeypot was filled in.
func (d Draft) IsBot() bool {
	return strings.TrimSpace(d.Website) != ""
}

// Complete reports whether every visible field passes validation.
func (d Draft) Complete() bool {
	return strings.TrimSpace(d.Name) != "" &&
		IsValidEmail(d.Email) &&
		strings.TrimSpace(d.Subject) != "" &&
		strings.TrimSpace(d.Message) != ""
}

// IsZero reports whether every field, honeypot included, is empty.
func (d Draft) IsZero() bool {
	return d == Draft{}
}
