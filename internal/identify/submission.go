package identify

import (
	"errors"
	"fmt"
	"net/url"
	"strings"

	"github.com/go-playground/validator/v10"
)

// Form field names shared with the auth endpoint. They must not change.
const (
	FieldDialCode               = "dialCode"
	FieldPhone                  = "phone"
	FieldOTP                    = "otp"
	FieldEmail                  = "email"
	FieldPassword               = "password"
	FieldUsername               = "username"
	FieldSelectedIdentifierType = "selectedIdentifierType"

	// FieldCountry carries the selected country code on intent updates only.
	FieldCountry = "country"
)

var ErrInvalidSubmission = errors.New("invalid submission")

var validate = validator.New()

// Submission is what the login form posts for the active identifier. It is one
// of PhoneSubmission, EmailSubmission or UsernameSubmission.
type Submission interface {
	Identifier() Identifier
	Values() url.Values
}

type PhoneSubmission struct {
	DialCode string `validate:"required,startswith=+"`
	Phone    string `validate:"required,max=32"`
	OTP      string `validate:"required,len=6,numeric"`
}

func (PhoneSubmission) Identifier() Identifier { return Phone }

func (s PhoneSubmission) Values() url.Values {
	v := url.Values{}
	v.Set(FieldDialCode, s.DialCode)
	v.Set(FieldPhone, s.Phone)
	v.Set(FieldOTP, s.OTP)
	v.Set(FieldSelectedIdentifierType, Phone.String())
	return v
}

// E164 is the normalized number the OTP was sent to.
func (s PhoneSubmission) E164() string { return E164(s.DialCode, s.Phone) }

type EmailSubmission struct {
	Email    string `validate:"required,email,max=254"`
	Password string `validate:"required,max=512"`
}

func (EmailSubmission) Identifier() Identifier { return Email }

func (s EmailSubmission) Values() url.Values {
	v := url.Values{}
	v.Set(FieldEmail, s.Email)
	v.Set(FieldPassword, s.Password)
	v.Set(FieldSelectedIdentifierType, Email.String())
	return v
}

// UsernameSubmission carries a password only on the second step of the
// username flow.
type UsernameSubmission struct {
	Username string `validate:"required,max=255"`
	Password string `validate:"omitempty,max=512"`
}

func (UsernameSubmission) Identifier() Identifier { return Username }

func (s UsernameSubmission) Values() url.Values {
	v := url.Values{}
	v.Set(FieldUsername, s.Username)
	if s.Password != "" {
		v.Set(FieldPassword, s.Password)
	}
	v.Set(FieldSelectedIdentifierType, Username.String())
	return v
}

// ParseSubmission reads a posted login form. Only the fields of the selected
// identifier are looked at.
func ParseSubmission(form url.Values) (Submission, error) {
	id, err := ParseIdentifier(form.Get(FieldSelectedIdentifierType))
	if err != nil {
		return nil, fmt.Errorf("%w: %s", ErrInvalidSubmission, err)
	}
	var sub Submission
	switch id {
	case Phone:
		sub = PhoneSubmission{
			DialCode: strings.TrimSpace(form.Get(FieldDialCode)),
			Phone:    strings.TrimSpace(form.Get(FieldPhone)),
			OTP:      strings.TrimSpace(form.Get(FieldOTP)),
		}
	case Email:
		sub = EmailSubmission{
			Email:    strings.ToLower(strings.TrimSpace(form.Get(FieldEmail))),
			Password: form.Get(FieldPassword),
		}
	case Username:
		sub = UsernameSubmission{
			Username: strings.TrimSpace(form.Get(FieldUsername)),
			Password: form.Get(FieldPassword),
		}
	}
	if err := validate.Struct(sub); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidSubmission, err)
	}
	return sub, nil
}
