package validationx

import (
	"strings"
	"testing"
	"time"

	"github.com/ARUMANDESU/validation"
	"github.com/ARUMANDESU/validation/is"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
)

func TestRealDomain(t *testing.T) {
	t.Parallel()

	tests := []struct {
		email   string
		wantErr bool
	}{
		{email: "a@x.com"},
		{email: "user@mail.example.co.uk"},
		{email: "user@EXAMPLE.COM"},
		{email: "user@example.com."},
		{email: "", wantErr: false},
		{email: "user@localhost", wantErr: true},
		{email: "user@example.invalid", wantErr: true},
		{email: "user@co.uk", wantErr: true},
		{email: "user@", wantErr: true},
		{email: "no-at-sign", wantErr: true},
	}

	local := "user@localhost"
	AssertValidationError(t, RealDomain.Validate(&local), ErrNotRealDomain)

	for _, tt := range tests {
		t.Run(tt.email, func(t *testing.T) {
			t.Parallel()
			err := RealDomain.Validate(tt.email)
			if tt.wantErr {
				AssertValidationError(t, err, ErrNotRealDomain)
				return
			}
			assert.NoError(t, err)
		})
	}
}

func TestEmailRules(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		email   string
		wantErr bool
	}{
		{name: "simple", email: "a@x.com"},
		{name: "plus tag", email: "first.last+tag@example.org"},
		{name: "empty", email: "", wantErr: true},
		{name: "missing domain", email: "alice@", wantErr: true},
		{name: "missing local", email: "@example.com", wantErr: true},
		{name: "spaces", email: "a b@example.com", wantErr: true},
		{name: "too long", email: strings.Repeat("a", MaxEmailLen) + "@example.com", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			err := validation.Validate(tt.email, EmailRules...)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			assert.NoError(t, err)
		})
	}
}

func TestPasswordRules(t *testing.T) {
	t.Parallel()

	assert.NoError(t, validation.Validate("pw1", PasswordRules...))
	assert.NoError(t, validation.Validate(strings.Repeat("x", MaxPasswordLen), PasswordRules...))

	err := validation.Validate("", PasswordRules...)
	AssertValidationError(t, err, validation.ErrRequired)

	err = validation.Validate(strings.Repeat("x", MaxPasswordLen+1), PasswordRules...)
	AssertValidationError(t, err, ErrPasswordTooLong)

	long := strings.Repeat("x", MaxPasswordLen+1)
	AssertValidationError(t, PasswordLength.Validate(&long), ErrPasswordTooLong)

	// 30 runes, 75 bytes.
	err = validation.Validate(strings.Repeat("ж€", 15), PasswordRules...)
	AssertValidationError(t, err, ErrPasswordTooLong)
}

func TestRequired(t *testing.T) {
	t.Parallel()

	var nilPtr *string
	empty := ""

	tests := []struct {
		name    string
		value   any
		wantErr bool
	}{
		{name: "uuid", value: uuid.New()},
		{name: "nil uuid", value: uuid.Nil, wantErr: true},
		{name: "nil uuid string", value: uuid.Nil.String(), wantErr: true},
		{name: "string", value: "code"},
		{name: "empty string", value: "", wantErr: true},
		{name: "nil pointer", value: nilPtr, wantErr: true},
		{name: "pointer to empty", value: &empty, wantErr: true},
		{name: "int64", value: int64(1)},
		{name: "zero int64", value: int64(0), wantErr: true},
		{name: "time", value: time.Now()},
		{name: "zero time", value: time.Time{}, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			err := Required.Validate(tt.value)
			if tt.wantErr {
				AssertValidationError(t, err, validation.ErrRequired)
				return
			}
			assert.NoError(t, err)
		})
	}
}

func TestAssertValidationErrors(t *testing.T) {
	t.Parallel()

	type input struct {
		Email    string
		Password string
	}
	in := input{Email: "nope", Password: ""}

	err := validation.ValidateStruct(&in,
		validation.Field(&in.Email, EmailRules...),
		validation.Field(&in.Password, PasswordRules...),
	)

	AssertValidationErrors(t, err, validation.Errors{
		"Email":    is.ErrEmail,
		"Password": validation.ErrRequired,
	})
}
