package http

import (
	"net/http"
	"testing"

	"gitlab.com/eatsapp/accounts-backend/internal/domain/account"
)

func (h *Helper) CreateAccount(t *testing.T, email, password, role string) *Response {
	t.Helper()
	return h.Do(t, NewRequest(http.MethodPost, "/v1/accounts").
		WithJSON(map[string]string{"email": email, "password": password, "role": role}).
		Build())
}

func (h *Helper) Login(t *testing.T, email, password string) *Response {
	t.Helper()
	return h.Do(t, NewRequest(http.MethodPost, "/v1/auth/login").
		WithJSON(map[string]string{"email": email, "password": password}).
		Build())
}

// LoginToken logs in and returns the session token, failing the test otherwise.
func (h *Helper) LoginToken(t *testing.T, email, password string) string {
	t.Helper()

	var body struct {
		Token string `json:"token"`
	}
	h.Login(t, email, password).AssertSuccess(http.StatusOK).ParseJSON(&body)
	if body.Token == "" {
		t.Fatalf("login for %s returned no token", email)
	}
	return body.Token
}

func (h *Helper) VerifyEmail(t *testing.T, code string) *Response {
	t.Helper()
	return h.Do(t, NewRequest(http.MethodPost, "/v1/accounts/verify").
		WithJSON(map[string]string{"code": code}).
		Build())
}

func (h *Helper) Me(t *testing.T, token string) *Response {
	t.Helper()
	return h.Do(t, NewRequest(http.MethodGet, "/v1/accounts/me").WithToken(token).Build())
}

func (h *Helper) GetAccount(t *testing.T, token string, id account.ID) *Response {
	t.Helper()
	return h.Do(t, NewRequest(http.MethodGet, "/v1/accounts/"+id.String()).WithToken(token).Build())
}

func (h *Helper) EditProfile(t *testing.T, token string, body map[string]string) *Response {
	t.Helper()
	return h.Do(t, NewRequest(http.MethodPatch, "/v1/accounts/me").WithToken(token).WithJSON(body).Build())
}
