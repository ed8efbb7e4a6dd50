package registration

import (
	"errors"
	"fmt"
	"slices"
)

// Shirt designs.
const (
	DesignNone    = ""
	DesignJSPuns  = "js puns"
	DesignHeartJS = "heart js"
)

// Shirt errors.
var (
	ErrUnknownColor = errors.New("unknown shirt color")
	ErrUnknownSize  = errors.New("unknown shirt size")
)

// Designs lists the design selector options. The empty value means no
// design was chosen yet.
var Designs = []Option{
	{Value: DesignNone, Label: "Select Theme"},
	{Value: DesignJSPuns, Label: "Theme - JS Puns"},
	{Value: DesignHeartJS, Label: "Theme - I ♥ JS"},
}

// Sizes lists the size selector options.
var Sizes = []Option{
	{Value: "small", Label: "S"},
	{Value: "medium", Label: "M"},
	{Value: "large", Label: "L"},
	{Value: "extra large", Label: "XL"},
}

// shirtColors is every color in selector order.
var shirtColors = []Option{
	{Value: "cornflowerblue", Label: "Cornflower Blue"},
	{Value: "darkslategrey", Label: "Dark Slate Grey"},
	{Value: "gold", Label: "Gold"},
	{Value: "tomato", Label: "Tomato"},
	{Value: "steelblue", Label: "Steel Blue"},
	{Value: "dimgrey", Label: "Dim Grey"},
}

// designColors maps each design to the colors it is printed in.
var designColors = map[string][]string{
	DesignJSPuns:  {"cornflowerblue", "darkslategrey", "gold"},
	DesignHeartJS: {"tomato", "steelblue", "dimgrey"},
}

// ColorsFor returns the colors available for design, or nil when design
// does not filter colors.
func ColorsFor(design string) []string {
	return slices.Clone(designColors[design])
}

// ShirtPanel filters the color options by the chosen design.
type ShirtPanel struct{}

// ID implements Panel.
func (ShirtPanel) ID() PanelID { return PanelShirt }

// Init starts with no design and the color section hidden.
func (p ShirtPanel) Init(s *FormState) {
	s.Shirt.Colors = make([]ColorOption, len(shirtColors))
	for i, c := range shirtColors {
		s.Shirt.Colors[i] = ColorOption{Value: c.Value, Label: c.Label, Visible: true}
	}
	if s.Shirt.Size == "" {
		s.Shirt.Size = Sizes[1].Value
	}
	p.SelectDesign(s, s.Shirt.Design)
}

// SelectDesign shows only the colors of a known design and pre-selects the
// first of them. Any other design lifts the filter and hides the section.
func (ShirtPanel) SelectDesign(s *FormState, design string) {
	s.Shirt.Design = design

	allowed, known := designColors[design]
	for i := range s.Shirt.Colors {
		s.Shirt.Colors[i].Visible = !known || slices.Contains(allowed, s.Shirt.Colors[i].Value)
	}

	if !known {
		s.Shirt.Color = ""
		s.Shirt.ColorSectionVisible = false
		return
	}
	s.Shirt.Color = allowed[0]
	s.Shirt.ColorSectionVisible = true
}

// SelectColor picks a color among the visible ones.
func (ShirtPanel) SelectColor(s *FormState, color string) error {
	for _, c := range s.Shirt.Colors {
		if c.Value == color && c.Visible {
			s.Shirt.Color = color
			return nil
		}
	}
	return fmt.Errorf("%w: %q", ErrUnknownColor, color)
}

// SetSize picks a shirt size.
func (ShirtPanel) SetSize(s *FormState, size string) error {
	for _, o := range Sizes {
		if o.Value == size {
			s.Shirt.Size = size
			return nil
		}
	}
	return fmt.Errorf("%w: %q", ErrUnknownSize, size)
}

// Validations always passes: any color choice is valid.
func (ShirtPanel) Validations(*FormState) bool {
	return true
}
