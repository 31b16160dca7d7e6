package role

import (
	"fmt"

	"github.com/ARUMANDESU/validation"
)

// Role is the tag an account carries. It is not used for authorization here.
type Role string

const (
	Owner    = Role("Owner")
	Client   = Role("Client")
	Delivery = Role("Delivery")
)

var ErrInvalid = validation.NewError("validation_in_invalid", "must be a valid value")

func (r Role) String() string {
	return string(r)
}

func (r Role) IsValid() bool {
	switch r {
	case Owner, Client, Delivery:
		return true
	default:
		return false
	}
}

func (r Role) Validate() error {
	if !r.IsValid() {
		return ErrInvalid
	}
	return nil
}

func Parse(s string) (Role, error) {
	r := Role(s)
	if !r.IsValid() {
		return "", fmt.Errorf("unknown role %q: %w", s, ErrInvalid)
	}
	return r, nil
}
