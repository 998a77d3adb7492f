package identify

// View is a read-only snapshot of an intent plus the conditions the page
// renders from. The password is never part of it.
type View struct {
	ActiveIdentifier      Identifier          `json:"activeIdentifier"`
	OTPRequested          bool                `json:"otpRequested"`
	ResendCooldownSeconds int                 `json:"resendCooldownSeconds"`
	OTPCode               string              `json:"otpCode"`
	Country               string              `json:"country"`
	DialCode              string              `json:"dialCode"`
	Phone                 string              `json:"phone"`
	Email                 string              `json:"email"`
	Username              string              `json:"username"`
	ShowSendOTP           bool                `json:"showSendOtp"`
	CanResend             bool                `json:"canResend"`
	CanVerify             bool                `json:"canVerify"`
	Enabled               map[Identifier]bool `json:"enabled"`
}

// IsEnabled reports whether the inputs of id take part in the submission.
func (v View) IsEnabled(id Identifier) bool { return v.Enabled[id] }
