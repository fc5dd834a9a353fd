// Package forms collects field-level validation messages for HTML form workflows.
//
// Request DTOs validate themselves into an Errors value; handlers re-render the
// submitted form with the messages attached to each field.
package forms

import (
	"strconv"
	"strings"

	"github.com/asaskevich/govalidator"
)

// NonField is the key for errors that belong to the form as a whole.
const NonField = "__all__"

// Errors maps a form field name to its validation messages, in the order added.
type Errors map[string][]string

// Add appends a message for field.
func (e Errors) Add(field, message string) {
	e[field] = append(e[field], message)
}

// Any reports whether at least one message was recorded.
func (e Errors) Any() bool {
	for _, msgs := range e {
		if len(msgs) > 0 {
			return true
		}
	}
	return false
}

// Get returns the messages recorded for field.
func (e Errors) Get(field string) []string {
	if e == nil {
		return nil
	}
	return e[field]
}

// Has reports whether field has at least one message.
func (e Errors) Has(field string) bool {
	return len(e.Get(field)) > 0
}

// Merge copies every message of other into e.
func (e Errors) Merge(other Errors) {
	for field, msgs := range other {
		for _, msg := range msgs {
			e.Add(field, msg)
		}
	}
}

// Required records "This field is required." when value is blank.
// Returns false when the message was recorded so callers can skip further checks.
func (e Errors) Required(field, value string) bool {
	if govalidator.IsNull(strings.TrimSpace(value)) {
		e.Add(field, "This field is required.")
		return false
	}
	return true
}

// MaxLength records an error when value is longer than max characters.
func (e Errors) MaxLength(field, value string, max int) bool {
	if !govalidator.RuneLength(value, "0", strconv.Itoa(max)) {
		e.Add(field, "Ensure this value has at most "+strconv.Itoa(max)+" characters (it has "+
			strconv.Itoa(len([]rune(value)))+").")
		return false
	}
	return true
}

// Email records an error when value is not a well-formed address.
func (e Errors) Email(field, value string) bool {
	if !govalidator.IsEmail(value) {
		e.Add(field, "Enter a valid email address.")
		return false
	}
	return true
}
