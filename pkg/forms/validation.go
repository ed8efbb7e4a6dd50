package forms

import (
	"regexp"
	"strings"
)

// Check is a zero-argument validation. It returns an error message, or an
// empty string when the check passes.
type Check func() string

// ErrorTarget receives the rendered error summary of a group of checks.
type ErrorTarget interface {
	// Render shows the summary, replacing any summary shown before.
	Render(summary string)

	// Clear removes the summary.
	Clear()
}

// Result is the outcome of a group of checks.
type Result struct {
	Passed   bool
	Messages []string
}

// SummaryPrefix starts every rendered error summary.
const SummaryPrefix = "Errors:"

// EmailPattern accepts a basic local@domain.tld shape.
var EmailPattern = regexp.MustCompile(`^[^@\s]+@[^@\s.]+(\.[^@\s.]+)+$`)

// Validate runs every check in order and collects the failures.
// All checks always run so that every failing field gets marked.
func Validate(checks ...Check) Result {
	var messages []string
	for _, check := range checks {
		if check == nil {
			continue
		}
		if msg := check(); msg != "" {
			messages = append(messages, msg)
		}
	}
	return Result{
		Passed:   len(messages) == 0,
		Messages: messages,
	}
}

// RunValidations runs the checks and renders the failures into target as a
// single summary block. A passing run clears any previous block.
func RunValidations(target ErrorTarget, checks ...Check) bool {
	result := Validate(checks...)
	if target != nil {
		if result.Passed {
			target.Clear()
		} else {
			target.Render(Summary(result.Messages))
		}
	}
	return result.Passed
}

// Summary renders messages as "Errors: msg1 msg2 ...".
func Summary(messages []string) string {
	if len(messages) == 0 {
		return ""
	}
	return SummaryPrefix + " " + strings.Join(messages, " ")
}

// ValidateInputWithRegex returns a check that matches the field's current
// value against pattern. A failure marks the field invalid.
func ValidateInputWithRegex(field *Field, pattern *regexp.Regexp, message string) Check {
	return func() string {
		if pattern.MatchString(field.Value) {
			field.ClearInvalid()
			return ""
		}
		field.MarkInvalid(message)
		return message
	}
}

// Required returns a check that fails on a blank field.
func Required(field *Field, message string) Check {
	return func() string {
		if field.IsBlank() {
			field.MarkInvalid(message)
			return message
		}
		field.ClearInvalid()
		return ""
	}
}

// FirstFailure chains checks on the same field: the first failing check
// wins and the rest are skipped.
func FirstFailure(checks ...Check) Check {
	return func() string {
		for _, check := range checks {
			if msg := check(); msg != "" {
				return msg
			}
		}
		return ""
	}
}

// ErrorBlock is an in-memory ErrorTarget: the error area of one panel.
type ErrorBlock struct {
	Text string
}

// Render implements ErrorTarget.
func (b *ErrorBlock) Render(summary string) {
	b.Text = summary
}

// Clear implements ErrorTarget.
func (b *ErrorBlock) Clear() {
	b.Text = ""
}

// Shown reports whether the block currently holds a summary.
func (b *ErrorBlock) Shown() bool {
	return b.Text != ""
}
