package errorx

// OpError annotates an error with the operation that observed it, so logs read
// as a call path ("accountapp.App.Login: postgres.AccountRepo.GetCredentialsByEmail: ...")
// while errors.Is and errors.As still see the original error.
type OpError struct {
	Op  string
	Err error
}

func (e *OpError) Error() string {
	return e.Op + ": " + e.Err.Error()
}

func (e *OpError) Unwrap() error {
	return e.Err
}

// Wrap returns nil when err is nil.
func Wrap(err error, op string) error {
	if err == nil {
		return nil
	}
	return &OpError{Op: op, Err: err}
}
