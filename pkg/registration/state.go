package registration

import "github.com/gabrielmiguelok/regform/pkg/forms"

// PanelID identifies a section of the form.
type PanelID string

const (
	PanelBasicInfo  PanelID = "basic-info"
	PanelShirt      PanelID = "shirt"
	PanelActivities PanelID = "activities"
	PanelPayment    PanelID = "payment"
)

// Field names, matching the inputs they are bound to.
const (
	FieldName       = "name"
	FieldEmail      = "email"
	FieldOtherTitle = "other-title"
	FieldCardNumber = "cc-num"
	FieldZip        = "zip"
	FieldCVV        = "cvv"
)

// BasicInfoState is the name, email and job role section.
type BasicInfoState struct {
	Name       forms.Field
	Email      forms.Field
	OtherTitle forms.Field
	Role       string

	// OtherTitleVisible shows the free-text title field.
	OtherTitleVisible bool

	// EmailWarning is the live warning shown while typing.
	EmailWarning string

	Errors forms.ErrorBlock
}

// ColorOption is one entry of the color selector.
type ColorOption struct {
	Value   string
	Label   string
	Visible bool
}

// ShirtState is the t-shirt section.
type ShirtState struct {
	Size   string
	Design string
	Color  string
	Colors []ColorOption

	// ColorSectionVisible shows the color selector.
	ColorSectionVisible bool
}

// VisibleColors returns the values of the colors currently offered.
func (s *ShirtState) VisibleColors() []string {
	var out []string
	for _, c := range s.Colors {
		if c.Visible {
			out = append(out, c.Value)
		}
	}
	return out
}

// ActivityState is the activity checkbox section. Checked and Disabled are
// indexed like Catalog.
type ActivityState struct {
	Catalog  []Activity
	Checked  []bool
	Disabled []bool

	Errors forms.ErrorBlock
}

// Selected returns the checked activities in catalog order.
func (s *ActivityState) Selected() []Activity {
	var out []Activity
	for i, a := range s.Catalog {
		if s.Checked[i] {
			out = append(out, a)
		}
	}
	return out
}

// PaymentState is the payment section.
type PaymentState struct {
	Method     PaymentMethod
	CardNumber forms.Field
	Zip        forms.Field
	CVV        forms.Field
	ExpMonth   string
	ExpYear    string

	Errors forms.ErrorBlock
}

// SectionVisible reports whether the sub-form for section is shown.
// Exactly one section is visible at a time.
func (s *PaymentState) SectionVisible(section string) bool {
	return s.Method.Section() == section
}

// FormState is the whole form. It is owned by one connection and only
// mutated by the panels.
type FormState struct {
	// Focus names the field that holds the input focus.
	Focus string

	Basic      BasicInfoState
	Shirt      ShirtState
	Activities ActivityState
	Payment    PaymentState

	// Attempts counts submit attempts.
	Attempts int

	// Submitted is set once a submit attempt passed every panel.
	Submitted bool
}

// NewFormState returns an uninitialized form for catalog. Call
// Controller.Init before use.
func NewFormState(catalog Catalog) *FormState {
	activities := make([]Activity, len(catalog.Activities))
	copy(activities, catalog.Activities)

	return &FormState{
		Basic: BasicInfoState{
			Name:       forms.NewField(FieldName),
			Email:      forms.NewField(FieldEmail),
			OtherTitle: forms.NewField(FieldOtherTitle),
		},
		Activities: ActivityState{
			Catalog:  activities,
			Checked:  make([]bool, len(activities)),
			Disabled: make([]bool, len(activities)),
		},
		Payment: PaymentState{
			CardNumber: forms.NewField(FieldCardNumber),
			Zip:        forms.NewField(FieldZip),
			CVV:        forms.NewField(FieldCVV),
		},
	}
}

// ErrorBlock returns the error area of a panel, or nil for panels that
// never render errors.
func (s *FormState) ErrorBlock(id PanelID) *forms.ErrorBlock {
	switch id {
	case PanelBasicInfo:
		return &s.Basic.Errors
	case PanelActivities:
		return &s.Activities.Errors
	case PanelPayment:
		return &s.Payment.Errors
	default:
		return nil
	}
}
