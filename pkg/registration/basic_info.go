package registration

import "github.com/gabrielmiguelok/regform/pkg/forms"

// Job roles offered by the role selector.
const (
	RoleFullStack = "full-stack js developer"
	RoleFrontEnd  = "front-end developer"
	RoleBackEnd   = "back-end developer"
	RoleDesigner  = "designer"
	RoleStudent   = "student"
	RoleOther     = "other"
)

// Roles lists the role selector options in display order.
var Roles = []Option{
	{Value: RoleFullStack, Label: "Full Stack JavaScript Developer"},
	{Value: RoleFrontEnd, Label: "Front End Developer"},
	{Value: RoleBackEnd, Label: "Back End Developer"},
	{Value: RoleDesigner, Label: "Designer"},
	{Value: RoleStudent, Label: "Student"},
	{Value: RoleOther, Label: "Other"},
}

// Option is a value/label pair of a selector.
type Option struct {
	Value string
	Label string
}

// Messages reported by the basic info checks.
const (
	MsgNameBlank    = "Name field can't be blank."
	MsgEmailInvalid = "Email must be a valid email address."
)

// BasicInfoPanel handles name, email and job role.
type BasicInfoPanel struct{}

// ID implements Panel.
func (BasicInfoPanel) ID() PanelID { return PanelBasicInfo }

// Init focuses the name field and applies the role visibility rule.
func (p BasicInfoPanel) Init(s *FormState) {
	s.Focus = FieldName
	if s.Basic.Role == "" {
		s.Basic.Role = RoleFullStack
	}
	p.SetRole(s, s.Basic.Role)
}

// SetRole changes the role; the other-title field is visible only for
// RoleOther.
func (BasicInfoPanel) SetRole(s *FormState, role string) {
	s.Basic.Role = role
	s.Basic.OtherTitleVisible = role == RoleOther
}

// SetName updates the name field.
func (BasicInfoPanel) SetName(s *FormState, value string) {
	s.Basic.Name.Set(value)
}

// SetEmail updates the email field.
func (BasicInfoPanel) SetEmail(s *FormState, value string) {
	s.Basic.Email.Set(value)
}

// SetOtherTitle updates the free-text title.
func (BasicInfoPanel) SetOtherTitle(s *FormState, value string) {
	s.Basic.OtherTitle.Set(value)
}

// EmailWarning runs the live email check. An empty field shows no warning.
func (BasicInfoPanel) EmailWarning(s *FormState) {
	email := &s.Basic.Email
	if email.Value == "" {
		email.ClearInvalid()
		s.Basic.EmailWarning = ""
		return
	}
	s.Basic.EmailWarning = emailCheck(email)()
}

// Validations checks name and email and renders the panel errors.
func (BasicInfoPanel) Validations(s *FormState) bool {
	ok := forms.RunValidations(&s.Basic.Errors,
		forms.Required(&s.Basic.Name, MsgNameBlank),
		emailCheck(&s.Basic.Email),
	)
	s.Basic.EmailWarning = s.Basic.Email.Message
	return ok
}

func emailCheck(f *forms.Field) forms.Check {
	return forms.ValidateInputWithRegex(f, forms.EmailPattern, MsgEmailInvalid)
}
