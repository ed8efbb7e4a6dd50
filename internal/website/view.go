package website

import (
	"context"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/gabrielmiguelok/regform/pkg/core"
	"github.com/gabrielmiguelok/regform/pkg/forms"
	"github.com/gabrielmiguelok/regform/pkg/logging"
	"github.com/gabrielmiguelok/regform/pkg/protocol"
	"github.com/gabrielmiguelok/regform/pkg/registration"
)

// Events handled by RegistrationView.
const (
	EventUpdateName       = "update_name"
	EventUpdateEmail      = "update_email"
	EventUpdateOtherTitle = "update_other_title"
	EventEmailKeyup       = "email_keyup"
	EventSelectRole       = "select_role"
	EventSelectDesign     = "select_design"
	EventSelectColor      = "select_color"
	EventSelectSize       = "select_size"
	EventToggleActivity   = "toggle_activity"
	EventSelectPayment    = "select_payment"
	EventUpdateCardNumber = "update_cc_num"
	EventUpdateZip        = "update_zip"
	EventUpdateCVV        = "update_cvv"
	EventUpdateExpMonth   = "update_exp_month"
	EventUpdateExpYear    = "update_exp_year"
	EventSubmit           = "submit"
	EventReset            = "reset"
)

// emailCheckDue is posted to the socket mailbox when the email debounce
// fires. The session loop hands it back to HandleInfo.
type emailCheckDue struct{}

// Options configures a RegistrationView.
type Options struct {
	Controller *registration.Controller

	// EmailDebounce is the quiet period after the last keystroke before
	// the live email warning is refreshed.
	EmailDebounce time.Duration

	// OnSubmit observes every submit decision.
	OnSubmit func(registration.Decision)

	Page   PageConfig
	Logger logging.Logger
	Tracer trace.Tracer
}

// RegistrationView is the live registration form. One instance serves one
// connection; its state is only touched from the session goroutine.
type RegistrationView struct {
	core.BaseComponent

	opts  Options
	ctrl  *registration.Controller
	state *registration.FormState

	emailCheck *forms.Debouncer
}

// NewRegistrationView creates an unmounted view.
func NewRegistrationView(opts Options) *RegistrationView {
	if opts.Controller == nil {
		opts.Controller = registration.NewController(registration.DefaultCatalog())
	}
	if opts.EmailDebounce <= 0 {
		opts.EmailDebounce = forms.DefaultDebounceWait
	}
	if opts.Logger == nil {
		opts.Logger = logging.NopLogger{}
	}
	if opts.Tracer == nil {
		opts.Tracer = otel.Tracer("github.com/gabrielmiguelok/regform/internal/website")
	}
	if opts.Page.Title == "" {
		opts.Page = DefaultPageConfig()
	}
	return &RegistrationView{opts: opts, ctrl: opts.Controller}
}

// Name implements core.Component.
func (v *RegistrationView) Name() string {
	return "registration"
}

// State returns the form state.
func (v *RegistrationView) State() *registration.FormState {
	return v.state
}

// Mount initializes a fresh form.
func (v *RegistrationView) Mount(ctx context.Context, params core.Params, session core.Session) error {
	v.state = v.ctrl.NewState()
	v.emailCheck = forms.Debounce(v.postEmailCheck, v.opts.EmailDebounce, false)
	return nil
}

// postEmailCheck runs on the debounce timer goroutine and must not touch
// the form state.
func (v *RegistrationView) postEmailCheck() {
	socket := v.Socket()
	if socket == nil {
		return
	}
	if err := socket.SendInfo(emailCheckDue{}); err != nil {
		v.opts.Logger.Debug("email check not delivered", logging.Err(err))
	}
}

// HandleInfo runs the live email check when its debounce fires.
func (v *RegistrationView) HandleInfo(ctx context.Context, msg any) error {
	switch msg.(type) {
	case emailCheckDue:
		v.ctrl.BasicInfo.EmailWarning(v.state)
	default:
		logging.L(ctx).Debug("ignoring info message", logging.String("type", fmt.Sprintf("%T", msg)))
	}
	return nil
}

// Terminate cancels the pending email check.
func (v *RegistrationView) Terminate(ctx context.Context, reason core.TerminateReason) error {
	if v.emailCheck != nil {
		v.emailCheck.Cancel()
	}
	return nil
}

// HandleEvent routes a browser event to the panel that owns it.
func (v *RegistrationView) HandleEvent(ctx context.Context, event string, payload map[string]any) error {
	s := v.state
	value := protocol.PayloadString(payload, "value")

	var err error
	switch event {
	case EventUpdateName:
		v.ctrl.BasicInfo.SetName(s, value)
	case EventUpdateEmail:
		v.ctrl.BasicInfo.SetEmail(s, value)
	case EventUpdateOtherTitle:
		v.ctrl.BasicInfo.SetOtherTitle(s, value)
	case EventEmailKeyup:
		// The page catches up when the debounced check posts emailCheckDue.
		v.ctrl.BasicInfo.SetEmail(s, value)
		v.emailCheck.Call()
		return core.SkipRender
	case EventSelectRole:
		v.ctrl.BasicInfo.SetRole(s, value)

	case EventSelectDesign:
		v.ctrl.Shirt.SelectDesign(s, value)
	case EventSelectColor:
		err = v.ctrl.Shirt.SelectColor(s, value)
	case EventSelectSize:
		err = v.ctrl.Shirt.SetSize(s, value)

	case EventToggleActivity:
		index, ok := protocol.PayloadInt(payload, "index")
		if !ok {
			err = fmt.Errorf("%w: missing index", registration.ErrUnknownActivity)
			break
		}
		err = v.ctrl.Activities.Toggle(s, index, protocol.PayloadBool(payload, "checked"))

	case EventSelectPayment:
		err = v.ctrl.Payment.SelectMethod(s, value)
	case EventUpdateCardNumber:
		v.ctrl.Payment.SetCardNumber(s, value)
	case EventUpdateZip:
		v.ctrl.Payment.SetZip(s, value)
	case EventUpdateCVV:
		v.ctrl.Payment.SetCVV(s, value)
	case EventUpdateExpMonth:
		v.ctrl.Payment.SetExpiration(s, value, "")
	case EventUpdateExpYear:
		v.ctrl.Payment.SetExpiration(s, "", value)

	case EventSubmit:
		v.submit(ctx)
	case EventReset:
		v.emailCheck.Cancel()
		v.ctrl.Reset(s)

	default:
		logging.L(ctx).Warn("unknown event", logging.String("event", event))
	}

	if err != nil {
		return fmt.Errorf("%s: %w", event, err)
	}
	return nil
}

func (v *RegistrationView) submit(ctx context.Context) {
	_, span := v.opts.Tracer.Start(ctx, "registration.submit")
	defer span.End()

	// The final validation supersedes any pending live check.
	v.emailCheck.Cancel()
	d := v.ctrl.Submit(v.state)

	failed := make([]string, len(d.Failed))
	for i, id := range d.Failed {
		failed[i] = string(id)
	}
	span.SetAttributes(
		attribute.Bool("registration.allowed", d.Allowed),
		attribute.StringSlice("registration.failed_panels", failed),
		attribute.Int("registration.attempt", v.state.Attempts),
	)

	logger := logging.L(ctx)
	if d.Allowed {
		logger.Info("registration submitted",
			logging.Int("activities", len(v.state.Activities.Selected())),
			logging.Float64("total", v.ctrl.Activities.Total(v.state)),
			logging.String("payment", string(v.state.Payment.Method)),
		)
	} else {
		logger.Debug("registration blocked", logging.String("failed", strings.Join(failed, ",")))
	}

	if v.opts.OnSubmit != nil {
		v.opts.OnSubmit(d)
	}
}

// Render renders the full page before the WebSocket joins and only the
// form afterwards.
func (v *RegistrationView) Render(ctx context.Context) core.Renderer {
	return core.RendererFunc(func(ctx context.Context, w io.Writer) error {
		var sb strings.Builder
		if err := formTemplate.Execute(&sb, v.viewModel()); err != nil {
			return fmt.Errorf("render form: %w", err)
		}

		if v.Socket() != nil {
			_, err := io.WriteString(w, sb.String())
			return err
		}
		_, err := io.WriteString(w, RenderDocument(v.opts.Page, sb.String()))
		return err
	})
}

type choice struct {
	Value    string
	Label    string
	Selected bool
	Hidden   bool
}

type fieldView struct {
	Value string
	Class string
}

type activityView struct {
	Index    int
	Name     string
	Text     string
	Checked  bool
	Disabled bool
}

type formView struct {
	Submitted bool

	Name              fieldView
	Email             fieldView
	OtherTitle        fieldView
	NameFocused       bool
	EmailWarning      string
	Roles             []choice
	OtherTitleVisible bool
	BasicErrors       string

	Sizes         []choice
	Designs       []choice
	Colors        []choice
	ColorsVisible bool

	Activities     []activityView
	Total          string
	ActivityErrors string

	Payments      []choice
	ShowCard      bool
	ShowPayPal    bool
	ShowBitcoin   bool
	CardNumber    fieldView
	Zip           fieldView
	CVV           fieldView
	ExpMonths     []choice
	ExpYears      []choice
	PaymentErrors string
}

func field(f forms.Field) fieldView {
	return fieldView{Value: f.Value, Class: f.Class()}
}

func choices(opts []registration.Option, selected string) []choice {
	out := make([]choice, len(opts))
	for i, o := range opts {
		out[i] = choice{Value: o.Value, Label: o.Label, Selected: o.Value == selected}
	}
	return out
}

// viewModel projects the form state onto the template.
func (v *RegistrationView) viewModel() formView {
	s := v.state
	vm := formView{
		Submitted: s.Submitted,

		Name:              field(s.Basic.Name),
		Email:             field(s.Basic.Email),
		OtherTitle:        field(s.Basic.OtherTitle),
		NameFocused:       s.Focus == registration.FieldName,
		EmailWarning:      s.Basic.EmailWarning,
		Roles:             choices(registration.Roles, s.Basic.Role),
		OtherTitleVisible: s.Basic.OtherTitleVisible,
		BasicErrors:       s.Basic.Errors.Text,

		Sizes:         choices(registration.Sizes, s.Shirt.Size),
		Designs:       choices(registration.Designs, s.Shirt.Design),
		ColorsVisible: s.Shirt.ColorSectionVisible,

		Total:          v.ctrl.Activities.TotalText(s),
		ActivityErrors: s.Activities.Errors.Text,

		Payments:      choices(registration.PaymentMethods, string(s.Payment.Method)),
		ShowCard:      s.Payment.SectionVisible(registration.SectionCreditCard),
		ShowPayPal:    s.Payment.SectionVisible(registration.SectionPayPal),
		ShowBitcoin:   s.Payment.SectionVisible(registration.SectionBitcoin),
		CardNumber:    field(s.Payment.CardNumber),
		Zip:           field(s.Payment.Zip),
		CVV:           field(s.Payment.CVV),
		ExpMonths:     choices(expMonths, s.Payment.ExpMonth),
		ExpYears:      choices(expYears(time.Now().Year()), s.Payment.ExpYear),
		PaymentErrors: s.Payment.Errors.Text,
	}

	for _, c := range s.Shirt.Colors {
		vm.Colors = append(vm.Colors, choice{
			Value:    c.Value,
			Label:    c.Label,
			Selected: c.Value == s.Shirt.Color,
			Hidden:   !c.Visible,
		})
	}

	for i, a := range s.Activities.Catalog {
		vm.Activities = append(vm.Activities, activityView{
			Index:    i,
			Name:     a.Name,
			Text:     a.DisplayText(),
			Checked:  s.Activities.Checked[i],
			Disabled: s.Activities.Disabled[i],
		})
	}
	return vm
}

var expMonths = func() []registration.Option {
	out := make([]registration.Option, 12)
	for m := 1; m <= 12; m++ {
		v := strconv.Itoa(m)
		out[m-1] = registration.Option{Value: v, Label: fmt.Sprintf("%02d - %s", m, time.Month(m))}
	}
	return out
}()

// expYears offers the current year and the five after it.
func expYears(from int) []registration.Option {
	out := make([]registration.Option, 6)
	for i := range out {
		y := strconv.Itoa(from + i)
		out[i] = registration.Option{Value: y, Label: y}
	}
	return out
}
