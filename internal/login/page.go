package login

import (
	"fmt"

	g "maragu.dev/gomponents"
	h "maragu.dev/gomponents/html"

	"github.com/ovaphlow/pitchfork/service-login-go/internal/identify"
	"github.com/ovaphlow/pitchfork/service-login-go/internal/ui"
)

// Intent endpoints posted to by the page's buttons.
const (
	pathPage       = "/login"
	pathTab        = "/login/intent/tab"
	pathSendOTP    = "/login/intent/otp/send"
	pathResendOTP  = "/login/intent/otp/resend"
	pathResetOTP   = "/login/intent/otp/reset"
	pathEditOTP    = "/login/intent/otp/code"
	pathCountry    = "/login/intent/country"
	pathFields     = "/login/intent/fields"
	pathIntent     = "/login/intent"
	pathStream     = "/login/intent/ws"
	pathCountries  = "/login/countries"
	pathStatic     = "/login/static/"
	fieldTab       = "tab"
	realmFallback  = "MYREALM"
	formID         = "kc-form-login"
	countdownLabel = "Resend in %ds"
)

type pageData struct {
	Realm        string
	View         identify.View
	Flash        string
	PasswordStep bool
	ActionURL    string
	Countries    []identify.Country
}

func page(d pageData) g.Node {
	return h.Doctype(
		h.HTML(
			h.Lang("en"),
			h.Head(
				h.Meta(h.Charset("utf-8")),
				h.Meta(h.Name("viewport"), h.Content("width=device-width, initial-scale=1")),
				h.TitleEl(g.Textf("Sign in | %s", d.Realm)),
				h.Link(h.Rel("stylesheet"), h.Href(pathStatic+"login.css")),
				h.Script(h.Src(pathStatic+"login.js"), h.Defer()),
			),
			h.Body(
				h.Class("login-body no-kc-locale no-kc-header no-kc-username"),
				h.Main(
					h.Class("login-wrap"),
					h.Header(h.Class("text-center text-xl font-semibold"), g.Text(d.Realm)),
					g.If(d.Flash != "", h.P(h.Role("alert"), h.Class("login-error"), g.Text(d.Flash))),
					identifierForm(d),
				),
			),
		),
	)
}

func identifierForm(d pageData) g.Node {
	v := d.View
	return h.Form(
		h.ID(formID),
		h.Action(d.ActionURL),
		h.Method("post"),
		h.Class("w-full flex justify-center"),
		h.Data("stream", pathStream),
		// First submit in tree order, so Enter posts to the action rather than a tab trigger.
		h.Button(h.Type("submit"), h.Class("sr-only"), h.TabIndex("-1"), h.Aria("hidden", "true"), g.Text("Sign in")),
		h.Div(
			h.Class("w-full max-w-sm flex flex-col gap-6"),
			ui.Tabs(v.ActiveIdentifier.String(), "",
				ui.TabsList("",
					g.Map(identify.Identifiers, func(id identify.Identifier) g.Node {
						return ui.TabsTrigger(ui.TabsTriggerProps{
							Name:       fieldTab,
							Value:      id.String(),
							Active:     v.ActiveIdentifier == id,
							FormAction: pathTab,
						}, g.Text(id.Title()))
					}),
				),
				ui.TabsContent(identify.Phone.String(), v.ActiveIdentifier == identify.Phone, "", phoneCard(d)),
				ui.TabsContent(identify.Email.String(), v.ActiveIdentifier == identify.Email, "", emailCard(v)),
				ui.TabsContent(identify.Username.String(), v.ActiveIdentifier == identify.Username, "", usernameCard(v, d.PasswordStep)),
			),
			h.Input(h.Type("hidden"), h.Name(identify.FieldSelectedIdentifierType), h.Value(v.ActiveIdentifier.String())),
		),
	)
}

func phoneCard(d pageData) g.Node {
	v := d.View
	off := !v.IsEnabled(identify.Phone)
	return ui.Card("",
		ui.CardHeader("",
			ui.CardTitle("", g.Text("Phone")),
			ui.CardDescription("", g.Text("Enter your mobile number.")),
		),
		ui.CardContent("grid gap-3",
			h.Div(h.Class("grid gap-2"),
				ui.Label("", "", g.Text("Country")),
				h.Div(h.Class("flex items-center gap-2"),
					ui.CountryDropdown(ui.CountryDropdownProps{
						Name:       identify.FieldCountry,
						Selected:   v.Country,
						Countries:  d.Countries,
						FormAction: pathCountry,
						Slim:       true,
						Disabled:   off,
					}),
					ui.Input(ui.InputProps{ID: identify.FieldDialCode, Name: identify.FieldDialCode, Value: v.DialCode, Class: "w-24", Disabled: off},
						h.Placeholder("+91")),
					ui.Input(ui.InputProps{ID: identify.FieldPhone, Name: identify.FieldPhone, Type: "tel", Value: v.Phone, Class: "flex-1", Disabled: off},
						h.AutoComplete("tel"), h.Placeholder("555 555 5555")),
				),
			),
			g.If(v.ShowSendOTP,
				h.Div(
					ui.Button(ui.ButtonProps{Type: "submit", Class: "w-full", FormAction: pathSendOTP, Disabled: off}, g.Text("Send OTP")),
				),
			),
			g.If(v.OTPRequested, otpBlock(v, off)),
		),
	)
}

func otpBlock(v identify.View, off bool) g.Node {
	return h.Div(h.Class("grid gap-3"),
		h.Div(h.Class("flex items-center justify-between"),
			ui.Label(identify.FieldOTP, "", g.Text("Enter OTP")),
			h.Span(
				h.Class("text-xs text-neutral-500"),
				h.Data("resend-wait", ""),
				g.If(v.CanResend, g.Attr("hidden")),
				g.Textf(countdownLabel, v.ResendCooldownSeconds),
			),
			h.Span(
				h.Data("resend-ready", ""),
				g.If(!v.CanResend, g.Attr("hidden")),
				ui.Button(ui.ButtonProps{Variant: ui.ButtonGhost, Type: "submit", Class: "h-6 px-2 text-xs", FormAction: pathResendOTP, Disabled: off},
					g.Text("Resend OTP")),
			),
		),
		ui.Input(ui.InputProps{ID: identify.FieldOTP, Name: identify.FieldOTP, Value: v.OTPCode, Disabled: off},
			g.Attr("inputmode", "numeric"),
			h.Pattern("[0-9]{6}"),
			h.MaxLength(fmt.Sprint(identify.OTPLength)),
			h.AutoComplete("one-time-code"),
			h.Placeholder("000000"),
		),
		ui.Button(ui.ButtonProps{Type: "submit", Class: "w-full", Disabled: off || !v.CanVerify},
			h.Data("verify", ""), g.Text("Verify & Continue")),
		ui.Button(ui.ButtonProps{Variant: ui.ButtonGhost, Type: "submit", Class: "w-full text-xs", FormAction: pathResetOTP, Disabled: off},
			g.Text("Use a different number")),
	)
}

func emailCard(v identify.View) g.Node {
	off := !v.IsEnabled(identify.Email)
	return ui.Card("",
		ui.CardHeader("",
			ui.CardTitle("", g.Text("Email")),
			ui.CardDescription("", g.Text("Enter your email address.")),
		),
		ui.CardContent("grid gap-3",
			h.Div(h.Class("grid gap-2"),
				ui.Label(identify.FieldEmail, "", g.Text("Email")),
				ui.Input(ui.InputProps{ID: identify.FieldEmail, Name: identify.FieldEmail, Type: "email", Value: v.Email, Disabled: off},
					h.AutoComplete("email")),
			),
			h.Div(h.Class("grid gap-2"),
				ui.Label(identify.FieldPassword, "", g.Text("Password")),
				ui.Input(ui.InputProps{ID: identify.FieldPassword, Name: identify.FieldPassword, Type: "password", Disabled: off},
					h.AutoComplete("current-password")),
			),
			ui.Button(ui.ButtonProps{Type: "submit", Class: "w-full", Disabled: off}, g.Text("Log me in")),
		),
	)
}

func usernameCard(v identify.View, passwordStep bool) g.Node {
	off := !v.IsEnabled(identify.Username)
	return ui.Card("",
		ui.CardHeader("",
			ui.CardTitle("", g.Text("Username")),
			ui.CardDescription("", g.Text("Enter your username.")),
		),
		ui.CardContent("grid gap-3",
			h.Div(h.Class("grid gap-2"),
				ui.Label("username", "", g.Text("Username")),
				ui.Input(ui.InputProps{ID: "username", Name: identify.FieldUsername, Value: v.Username, Disabled: off},
					h.AutoComplete("username")),
			),
			g.If(passwordStep,
				h.Div(h.Class("grid gap-2"),
					ui.Label("username-password", "", g.Text("Password")),
					ui.Input(ui.InputProps{ID: "username-password", Name: identify.FieldPassword, Type: "password", Disabled: off},
						h.AutoComplete("current-password"), h.AutoFocus()),
				),
			),
			ui.Button(ui.ButtonProps{Type: "submit", Class: "w-full", Disabled: off}, g.Text("Log me in")),
		),
	)
}
