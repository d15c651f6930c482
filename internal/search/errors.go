package search

import (
	"errors"
	"sort"
	"strings"
)

// InputError collects field-level validation messages.
type InputError struct {
	fields map[string][]string
}

func newInputError() *InputError {
	return &InputError{
		fields: make(map[string][]string),
	}
}

// IsInputError returns the InputError inside err, or nil.
func IsInputError(err error) *InputError {
	if err == nil {
		return nil
	}

	var inputError *InputError
	if errors.As(err, &inputError) {
		return inputError
	}

	return nil
}

func (ie *InputError) fieldsCount() int {
	return len(ie.fields)
}

func (ie *InputError) addError(field, msg string) {
	ie.fields[field] = append(ie.fields[field], msg)
}

func (ie *InputError) has(field string) bool {
	return len(ie.fields[field]) > 0
}

func (ie *InputError) Error() string {
	names := make([]string, 0, len(ie.fields))
	for name := range ie.fields {
		names = append(names, name)
	}
	sort.Strings(names)

	parts := make([]string, 0, len(names))
	for _, name := range names {
		parts = append(parts, name+": "+strings.Join(ie.fields[name], ", "))
	}
	return "invalid search: " + strings.Join(parts, "; ")
}

// Fields returns the messages keyed by form field.
func (ie *InputError) Fields() map[string][]string {
	return ie.fields
}
