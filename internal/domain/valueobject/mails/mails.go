package mails

import (
	"github.com/ARUMANDESU/validation"
	"github.com/ARUMANDESU/validation/is"

	"gitlab.com/eatsapp/accounts-backend/internal/domain/event"
)

const (
	EventStreamName = "mails"

	// VerifyEmailSubject is kept word for word as users have always received it.
	VerifyEmailSubject  = "Verify you email"
	VerifyEmailTemplate = "verify-email"

	VarCode     = "code"
	VarUsername = "username"
)

// Var is a single template substitution.
type Var struct {
	Key   string `json:"key"`
	Value string `json:"value"`
}

// Payload is a templated email ready to be rendered and sent.
type Payload struct {
	To       string `json:"to"`
	Subject  string `json:"subject"`
	Template string `json:"template"`
	Vars     []Var  `json:"vars"`
}

func (p Payload) Validate() error {
	return validation.ValidateStruct(&p,
		validation.Field(&p.To, validation.Required, is.EmailFormat),
		validation.Field(&p.Subject, validation.Required),
		validation.Field(&p.Template, validation.Required),
	)
}

// Lookup returns the value of the first variable named key.
func (p Payload) Lookup(key string) (string, bool) {
	for _, v := range p.Vars {
		if v.Key == key {
			return v.Value, true
		}
	}
	return "", false
}

// Context flattens Vars for template engines; later duplicates win.
func (p Payload) Context() map[string]any {
	ctx := make(map[string]any, len(p.Vars)+1)
	ctx["subject"] = p.Subject
	for _, v := range p.Vars {
		ctx[v.Key] = v.Value
	}
	return ctx
}

func VerifyEmail(email, code string) Payload {
	return Payload{
		To:       email,
		Subject:  VerifyEmailSubject,
		Template: VerifyEmailTemplate,
		Vars: []Var{
			{Key: VarCode, Value: code},
			{Key: VarUsername, Value: email},
		},
	}
}

// Requested asks the mail consumer to deliver Payload.
type Requested struct {
	event.Header
	event.Otel
	Payload Payload `json:"payload"`
}

func NewRequested(p Payload) *Requested {
	return &Requested{
		Header:  event.NewEventHeader(),
		Payload: p,
	}
}

func (e *Requested) GetStreamName() string {
	return EventStreamName
}
