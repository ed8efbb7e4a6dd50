package registration

// Panel is one section of the form.
type Panel interface {
	// ID identifies the panel.
	ID() PanelID

	// Init sets the panel's initial derived state.
	Init(s *FormState)

	// Validations runs the submit-time checks and renders the panel's
	// error area. It returns true when the panel may be submitted.
	Validations(s *FormState) bool
}

// Decision is the outcome of a submit attempt.
type Decision struct {
	Allowed bool
	Failed  []PanelID
}

// Controller wires the panels together. Panels never observe each other;
// the controller is the only place their results meet.
type Controller struct {
	BasicInfo  BasicInfoPanel
	Shirt      ShirtPanel
	Activities ActivityPanel
	Payment    PaymentPanel

	catalog Catalog
}

// NewController creates a controller for catalog.
func NewController(catalog Catalog) *Controller {
	return &Controller{catalog: catalog}
}

// Catalog returns the activity catalog.
func (c *Controller) Catalog() Catalog {
	return c.catalog
}

// panels returns the panels in initialization order.
func (c *Controller) panels() []Panel {
	return []Panel{c.BasicInfo, c.Shirt, c.Activities, c.Payment}
}

// validated returns the panels checked at submit, in order.
func (c *Controller) validated() []Panel {
	return []Panel{c.BasicInfo, c.Activities, c.Payment}
}

// NewState returns a freshly initialized form.
func (c *Controller) NewState() *FormState {
	s := NewFormState(c.catalog)
	c.Init(s)
	return s
}

// Init initializes every panel: basic info, shirt, activities, payment.
func (c *Controller) Init(s *FormState) {
	for _, p := range c.panels() {
		p.Init(s)
	}
}

// Submit validates basic info, activities and payment. Every panel is
// evaluated so all errors show at once.
func (c *Controller) Submit(s *FormState) Decision {
	s.Attempts++

	var d Decision
	for _, p := range c.validated() {
		if !p.Validations(s) {
			d.Failed = append(d.Failed, p.ID())
		}
	}
	d.Allowed = len(d.Failed) == 0
	s.Submitted = d.Allowed
	return d
}

// Reset puts s back into its initial state.
func (c *Controller) Reset(s *FormState) {
	*s = *NewFormState(c.catalog)
	c.Init(s)
}
