package validationx

import (
	"errors"
	"reflect"
	"strings"
	"testing"
	"time"

	"github.com/ARUMANDESU/validation"
	"github.com/ARUMANDESU/validation/is"
	"golang.org/x/net/publicsuffix"
)

const (
	MaxEmailLen = 254
	// bcrypt only looks at the first 72 bytes of its input.
	MaxPasswordLen = 72
)

var (
	ErrNotRealDomain = validation.NewError(
		"validation_is_real_domain",
		"must use a registrable domain with a known public suffix",
	)
	ErrPasswordTooLong = validation.NewError(
		"validation_password_too_long",
		"must be at most 72 bytes long",
	)
)

var (
	EmailRules = []validation.Rule{
		validation.Required,
		validation.Length(3, MaxEmailLen),
		is.EmailFormat,
	}

	PasswordRules = []validation.Rule{
		validation.Required,
		PasswordLength,
	}
)

var (
	// Required is a validation rule that checks if a value is not empty. Use it for uuid verification, otherwise use validation.Required.
	Required = RequiredRule{}

	// RealDomain rejects emails whose domain has no ICANN-managed public suffix, e.g. "user@localhost" or "a@b.invalid".
	RealDomain = RealDomainRule{}

	PasswordLength = PasswordLengthRule{}
)

type RealDomainRule struct{}

func (r RealDomainRule) Validate(value any) error {
	value, _ = validation.Indirect(value)
	s, _ := value.(string)
	if s == "" {
		return nil // Let Required handle emptiness
	}

	at := strings.LastIndexByte(s, '@')
	if at < 0 || at == len(s)-1 {
		return ErrNotRealDomain
	}

	domain := strings.ToLower(strings.TrimSuffix(s[at+1:], "."))
	suffix, icann := publicsuffix.PublicSuffix(domain)
	if !icann || suffix == domain {
		return ErrNotRealDomain
	}

	return nil
}

// PasswordLengthRule counts bytes, not runes, since that is what the hash consumes.
type PasswordLengthRule struct{}

func (r PasswordLengthRule) Validate(value any) error {
	value, _ = validation.Indirect(value)
	s, _ := value.(string)
	if len(s) > MaxPasswordLen {
		return ErrPasswordTooLong
	}
	return nil
}

type RequiredRule struct{}

func (r RequiredRule) Validate(value any) error {
	value, isNil := validation.Indirect(value)
	if isNil || isEmpty(value) {
		return validation.ErrRequired
	}

	return nil
}

func isEmpty(value any) bool {
	v := reflect.ValueOf(value)
	switch v.Kind() {
	case reflect.Array:
		return v.Equal(reflect.Zero(v.Type())) || v.Len() == 0
	case reflect.String:
		return v.Len() == 0 || v.String() == "00000000-0000-0000-0000-000000000000"
	case reflect.Map, reflect.Slice:
		return v.IsNil() || v.Len() == 0
	case reflect.Bool:
		return !v.Bool()
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return v.Int() == 0
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64, reflect.Uintptr:
		return v.Uint() == 0
	case reflect.Float32, reflect.Float64:
		return v.Float() == 0
	case reflect.Invalid:
		return true
	case reflect.Interface, reflect.Ptr:
		if v.IsNil() {
			return true
		}
		return isEmpty(v.Elem().Interface())
	case reflect.Struct:
		if t, ok := value.(time.Time); ok {
			return t.IsZero()
		}
	}

	return false
}

// AssertValidationErrors checks that err is a validation.Errors map with
// exactly the fields of expected, each failing with the same code.
func AssertValidationErrors(t *testing.T, err error, expected validation.Errors) {
	t.Helper()
	if err == nil {
		t.Fatalf("expected error %v, got nil", expected)
	}

	var verrs validation.Errors
	if !errors.As(err, &verrs) {
		t.Fatalf("expected error to be of type validation.Errors, got %T: %v", err, err)
	}

	if len(verrs) != len(expected) {
		t.Fatalf("expected number of validation errors to match, got %v and %v", verrs, expected)
	}

	for field, expectedErr := range expected {
		actualErr, found := verrs[field]
		if !found {
			t.Errorf("field %s: expected error %v, got none", field, expectedErr)
			continue
		}
		AssertValidationError(t, actualErr, expectedErr)
	}
}

func AssertValidationError(t *testing.T, err error, expected error) {
	t.Helper()
	if err == nil {
		t.Fatalf("expected error %v, got nil", expected)
	}

	var verr validation.Error
	if !errors.As(err, &verr) {
		t.Fatalf("expected error to be of type validation.Error, got %T: %v", err, err)
	}
	var expectedVerr validation.Error
	if !errors.As(expected, &expectedVerr) {
		t.Fatalf("expected expected error to be of type validation.Error, got %T: %v", expected, expected)
	}

	if verr.Code() != expectedVerr.Code() {
		t.Errorf("expected validation error code %q, got %q (%v)", expectedVerr.Code(), verr.Code(), verr)
	}
}
