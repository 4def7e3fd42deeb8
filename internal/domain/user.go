// Package domain contains entities without transport or lifecycle logic.
package domain

import "errors"

const MaxNameLen = 36

var (
	ErrNameEmpty         = errors.New("name empty")
	ErrNameTooLong       = errors.New("name too long")
	ErrNameTaken         = errors.New("name taken")
	ErrAlreadyRegistered = errors.New("connection already registered")
)

// ConnID identifies one live network connection. Process-assigned,
// never persisted, dies with the connection.
type ConnID string

// User is a presence entry: a display name bound to a live connection.
type User struct {
	Name string `json:"name"`
	Conn ConnID `json:"-"`
}

// ValidateName checks the registration-name rules shared by the
// registry and the adapters.
func ValidateName(name string) error {
	if len(name) == 0 {
		return ErrNameEmpty
	}
	if len(name) > MaxNameLen {
		return ErrNameTooLong
	}
	return nil
}
