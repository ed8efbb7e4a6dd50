package registration

import (
	"errors"
	"fmt"
	"regexp"

	"github.com/gabrielmiguelok/regform/pkg/forms"
)

// PaymentMethod is the selected way to pay.
type PaymentMethod string

const (
	PaymentCreditCard PaymentMethod = "credit card"
	PaymentPayPal     PaymentMethod = "paypal"
	PaymentBitcoin    PaymentMethod = "bitcoin"
)

// Payment sub-form sections.
const (
	SectionCreditCard = "credit-card"
	SectionPayPal     = "paypal"
	SectionBitcoin    = "bitcoin"
)

// ErrUnknownPaymentMethod is returned for values outside the three methods.
var ErrUnknownPaymentMethod = errors.New("unknown payment method")

// PaymentMethods lists the selector options in display order.
var PaymentMethods = []Option{
	{Value: string(PaymentCreditCard), Label: "Credit Card"},
	{Value: string(PaymentPayPal), Label: "PayPal"},
	{Value: string(PaymentBitcoin), Label: "Bitcoin"},
}

// ParsePaymentMethod maps a selector value to a PaymentMethod.
func ParsePaymentMethod(v string) (PaymentMethod, error) {
	switch m := PaymentMethod(v); m {
	case PaymentCreditCard, PaymentPayPal, PaymentBitcoin:
		return m, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnknownPaymentMethod, v)
	}
}

// Section returns the sub-form shown for the method.
func (m PaymentMethod) Section() string {
	switch m {
	case PaymentCreditCard:
		return SectionCreditCard
	case PaymentPayPal:
		return SectionPayPal
	case PaymentBitcoin:
		return SectionBitcoin
	default:
		return ""
	}
}

// Messages reported by the credit card checks.
const (
	MsgCardEmpty  = "Please enter a credit card number."
	MsgCardFormat = "Credit card number must be between 13 and 16 digits."
	MsgZip        = "Zip code must be 5 digits."
	MsgCVV        = "CVV must be 3 digits."
)

var (
	cardPattern = regexp.MustCompile(`^\d{13,16}$`)
	zipPattern  = regexp.MustCompile(`^\d{5}$`)
	cvvPattern  = regexp.MustCompile(`^\d{3}$`)
)

// PaymentPanel switches the payment sub-forms and checks card fields.
type PaymentPanel struct{}

// ID implements Panel.
func (PaymentPanel) ID() PanelID { return PanelPayment }

// Init selects credit card so its section is visible from the start.
func (PaymentPanel) Init(s *FormState) {
	s.Payment.Method = PaymentCreditCard
}

// SelectMethod switches the visible sub-form. Unknown values leave the
// state unchanged.
func (PaymentPanel) SelectMethod(s *FormState, value string) error {
	m, err := ParsePaymentMethod(value)
	if err != nil {
		return err
	}
	s.Payment.Method = m
	return nil
}

// SetCardNumber updates the card number.
func (PaymentPanel) SetCardNumber(s *FormState, v string) { s.Payment.CardNumber.Set(v) }

// SetZip updates the zip code.
func (PaymentPanel) SetZip(s *FormState, v string) { s.Payment.Zip.Set(v) }

// SetCVV updates the CVV.
func (PaymentPanel) SetCVV(s *FormState, v string) { s.Payment.CVV.Set(v) }

// SetExpiration updates the expiration month and year. Neither is checked.
func (PaymentPanel) SetExpiration(s *FormState, month, year string) {
	if month != "" {
		s.Payment.ExpMonth = month
	}
	if year != "" {
		s.Payment.ExpYear = year
	}
}

// Validations checks the card fields when paying by credit card. Other
// methods have no fields to check and always pass.
func (PaymentPanel) Validations(s *FormState) bool {
	p := &s.Payment
	if p.Method != PaymentCreditCard {
		p.CardNumber.ClearInvalid()
		p.Zip.ClearInvalid()
		p.CVV.ClearInvalid()
		p.Errors.Clear()
		return true
	}

	return forms.RunValidations(&p.Errors,
		forms.FirstFailure(
			forms.Required(&p.CardNumber, MsgCardEmpty),
			forms.ValidateInputWithRegex(&p.CardNumber, cardPattern, MsgCardFormat),
		),
		forms.ValidateInputWithRegex(&p.Zip, zipPattern, MsgZip),
		forms.ValidateInputWithRegex(&p.CVV, cvvPattern, MsgCVV),
	)
}
