package registration

import (
	"testing"

	"github.com/stretchr/testify/suite"
)

// ControllerSuite drives whole-form submit scenarios.
type ControllerSuite struct {
	suite.Suite
	c *Controller
	s *FormState
}

func TestControllerSuite(t *testing.T) {
	suite.Run(t, new(ControllerSuite))
}

func (s *ControllerSuite) SetupTest() {
	s.c = NewController(DefaultCatalog())
	s.s = s.c.NewState()
}

func (s *ControllerSuite) fillValid() {
	s.c.BasicInfo.SetName(s.s, "Grace Hopper")
	s.c.BasicInfo.SetEmail(s.s, "grace@navy.mil")
	s.Require().NoError(s.c.Activities.Toggle(s.s, 0, true))
	s.c.Payment.SetCardNumber(s.s, "4111111111111111")
	s.c.Payment.SetZip(s.s, "90210")
	s.c.Payment.SetCVV(s.s, "123")
}

func (s *ControllerSuite) TestInitOrderAppliesEveryPanel() {
	s.Equal(FieldName, s.s.Focus)
	s.False(s.s.Shirt.ColorSectionVisible)
	s.Equal(PaymentCreditCard, s.s.Payment.Method)
	s.Len(s.s.Activities.Disabled, DefaultCatalog().Len())
}

func (s *ControllerSuite) TestEmptySubmitRendersAllErrors() {
	d := s.c.Submit(s.s)

	s.False(d.Allowed)
	s.Equal([]PanelID{PanelBasicInfo, PanelActivities, PanelPayment}, d.Failed)
	s.True(s.s.Basic.Errors.Shown())
	s.Equal("Errors: Must have one activity checked.", s.s.Activities.Errors.Text)
	s.True(s.s.Payment.Errors.Shown())
	s.False(s.s.Submitted)
	s.Equal(1, s.s.Attempts)
}

func (s *ControllerSuite) TestZeroActivitiesBlocks() {
	s.fillValid()
	s.Require().NoError(s.c.Activities.Toggle(s.s, 0, false))

	d := s.c.Submit(s.s)

	s.False(d.Allowed)
	s.Equal([]PanelID{PanelActivities}, d.Failed)
	s.Equal("Errors: "+MsgNoActivity, s.s.Activities.Errors.Text)
	s.False(s.s.Basic.Errors.Shown())
}

func (s *ControllerSuite) TestValidSubmitAllowed() {
	s.fillValid()

	d := s.c.Submit(s.s)

	s.True(d.Allowed)
	s.Empty(d.Failed)
	s.True(s.s.Submitted)
}

func (s *ControllerSuite) TestNonCardPaymentSkipsCardChecks() {
	s.fillValid()
	s.c.Payment.SetCardNumber(s.s, "")
	s.Require().NoError(s.c.Payment.SelectMethod(s.s, string(PaymentBitcoin)))

	s.True(s.c.Submit(s.s).Allowed)
}

func (s *ControllerSuite) TestResubmitReplacesErrors() {
	s.c.Submit(s.s)
	s.True(s.s.Activities.Errors.Shown())

	s.fillValid()
	d := s.c.Submit(s.s)

	s.True(d.Allowed)
	s.False(s.s.Basic.Errors.Shown())
	s.False(s.s.Activities.Errors.Shown())
	s.False(s.s.Payment.Errors.Shown())
	s.Equal(2, s.s.Attempts)
}

func (s *ControllerSuite) TestReset() {
	s.fillValid()
	s.c.Shirt.SelectDesign(s.s, DesignJSPuns)
	s.c.Submit(s.s)

	s.c.Reset(s.s)

	s.Empty(s.s.Basic.Name.Value)
	s.Empty(s.s.Activities.Selected())
	s.False(s.s.Shirt.ColorSectionVisible)
	s.False(s.s.Submitted)
	s.Zero(s.s.Attempts)
}

func (s *ControllerSuite) TestErrorBlockLookup() {
	s.NotNil(s.s.ErrorBlock(PanelBasicInfo))
	s.NotNil(s.s.ErrorBlock(PanelActivities))
	s.NotNil(s.s.ErrorBlock(PanelPayment))
	s.Nil(s.s.ErrorBlock(PanelShirt))
}
