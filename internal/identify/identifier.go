package identify

import (
	"errors"
	"strings"
)

// Identifier is the credential type the user logs in with.
type Identifier string

const (
	Phone    Identifier = "phone"
	Email    Identifier = "email"
	Username Identifier = "username"
)

// Identifiers lists the tabs in display order.
var Identifiers = []Identifier{Phone, Email, Username}

var ErrUnknownIdentifier = errors.New("unknown identifier type")

// ParseIdentifier maps a form value such as "email" to an Identifier.
func ParseIdentifier(s string) (Identifier, error) {
	switch Identifier(strings.ToLower(strings.TrimSpace(s))) {
	case Phone:
		return Phone, nil
	case Email:
		return Email, nil
	case Username:
		return Username, nil
	}
	return "", ErrUnknownIdentifier
}

func (id Identifier) String() string { return string(id) }

// Title is the tab label.
func (id Identifier) Title() string {
	switch id {
	case Phone:
		return "Phone"
	case Email:
		return "Email"
	case Username:
		return "Username"
	}
	return string(id)
}
