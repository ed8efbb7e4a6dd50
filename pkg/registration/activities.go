package registration

import (
	"errors"
	"fmt"

	"github.com/gabrielmiguelok/regform/pkg/forms"
)

// Activity errors.
var (
	ErrUnknownActivity  = errors.New("unknown activity")
	ErrActivityDisabled = errors.New("activity conflicts with a selected activity")
)

// MsgNoActivity is reported when nothing is checked at submit.
const MsgNoActivity = "Must have one activity checked."

// ActivityPanel handles activity selection, time-slot conflicts and the
// running total.
type ActivityPanel struct{}

// ID implements Panel.
func (ActivityPanel) ID() PanelID { return PanelActivities }

// Init derives the disabled set from whatever is already checked.
func (ActivityPanel) Init(s *FormState) {
	refreshConflicts(&s.Activities)
}

// Toggle checks or unchecks the activity at index and recomputes which
// activities conflict with the checked set.
func (ActivityPanel) Toggle(s *FormState, index int, checked bool) error {
	a := &s.Activities
	if index < 0 || index >= len(a.Catalog) {
		return fmt.Errorf("%w: index %d", ErrUnknownActivity, index)
	}
	if checked && a.Disabled[index] {
		return fmt.Errorf("%w: %q", ErrActivityDisabled, a.Catalog[index].Name)
	}

	a.Checked[index] = checked
	refreshConflicts(a)
	return nil
}

// refreshConflicts disables (and unchecks) every unchecked activity whose
// time slot is taken by a checked one. Checked activities stay enabled.
func refreshConflicts(a *ActivityState) {
	for i, activity := range a.Catalog {
		if a.Checked[i] {
			a.Disabled[i] = false
			continue
		}
		a.Disabled[i] = false
		for j, other := range a.Catalog {
			if i != j && a.Checked[j] && activity.ConflictsWith(other) {
				a.Disabled[i] = true
				break
			}
		}
	}
}

// Total is the summed cost of the checked activities.
func (ActivityPanel) Total(s *FormState) float64 {
	var total float64
	for _, a := range s.Activities.Selected() {
		total += a.Cost
	}
	return total
}

// TotalText renders the running total.
func (p ActivityPanel) TotalText(s *FormState) string {
	return "Total Cost: $" + FormatAmount(p.Total(s))
}

// Validations requires at least one checked activity.
func (ActivityPanel) Validations(s *FormState) bool {
	return forms.RunValidations(&s.Activities.Errors, func() string {
		if len(s.Activities.Selected()) == 0 {
			return MsgNoActivity
		}
		return ""
	})
}
