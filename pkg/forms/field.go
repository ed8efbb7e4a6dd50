// Package forms provides the field state and validation helpers shared by
// every panel of the registration form.
package forms

import "strings"

// Field is the state of one input: its identity, the current value and the
// invalid marking shown next to it.
type Field struct {
	// Name identifies the field (matches the input's name attribute).
	Name string

	// Value is the current raw value as typed by the user.
	Value string

	// Invalid marks the field visually as failing its last check.
	Invalid bool

	// Message is the message of the last failed check, if any.
	Message string
}

// NewField creates an empty field.
func NewField(name string) Field {
	return Field{Name: name}
}

// Set replaces the field value. The invalid marking is kept until the
// field is checked again.
func (f *Field) Set(value string) {
	f.Value = value
}

// Trimmed returns the value without surrounding whitespace.
func (f *Field) Trimmed() string {
	return strings.TrimSpace(f.Value)
}

// IsBlank reports whether the value is empty or whitespace only.
func (f *Field) IsBlank() bool {
	return f.Trimmed() == ""
}

// MarkInvalid flags the field with the given message.
func (f *Field) MarkInvalid(message string) {
	f.Invalid = true
	f.Message = message
}

// ClearInvalid removes the invalid marking.
func (f *Field) ClearInvalid() {
	f.Invalid = false
	f.Message = ""
}

// Reset empties the value and the invalid marking.
func (f *Field) Reset() {
	f.Value = ""
	f.ClearInvalid()
}

// Class returns the CSS class for the field's current marking.
func (f *Field) Class() string {
	if f.Invalid {
		return "invalid"
	}
	return ""
}
