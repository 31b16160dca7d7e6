package errorx

import (
	"errors"
)

// Persistable marks an error returned from a repository update function whose
// changes must still be committed before the error is handed back.
type Persistable struct {
	Err error
}

func (e *Persistable) Error() string { return e.Err.Error() }
func (e *Persistable) Unwrap() error { return e.Err }

// NewPersistable returns nil for a nil err, never a typed nil.
func NewPersistable(err error) error {
	if err == nil {
		return nil
	}
	return &Persistable{Err: err}
}

func IsPersistable(err error) bool {
	if err == nil {
		return false
	}

	var persistable *Persistable
	return errors.As(err, &persistable)
}
