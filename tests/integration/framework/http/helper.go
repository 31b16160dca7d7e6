package http

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type Helper struct {
	handler http.Handler
}

func NewHelper(handler http.Handler) *Helper {
	return &Helper{handler: handler}
}

type Request struct {
	Path    string
	Method  string
	Body    any
	Headers map[string]string
	Query   map[string]string
	Context context.Context
}

type Response struct {
	*httptest.ResponseRecorder
	t *testing.T
}

func (h *Helper) Do(t *testing.T, req Request) *Response {
	t.Helper()

	var body io.Reader
	if req.Body != nil {
		jsonbytes, err := json.Marshal(req.Body)
		require.NoError(t, err)
		body = bytes.NewReader(jsonbytes)
	}

	ctx := req.Context
	if ctx == nil {
		ctx = t.Context()
	}
	httpReq := httptest.NewRequestWithContext(ctx, req.Method, req.Path, body)

	if req.Headers == nil {
		req.Headers = make(map[string]string)
	}
	if body != nil && req.Headers["Content-Type"] == "" {
		req.Headers["Content-Type"] = "application/json"
	}
	for k, v := range req.Headers {
		httpReq.Header.Set(k, v)
	}

	if req.Query != nil {
		q := httpReq.URL.Query()
		for k, v := range req.Query {
			q.Add(k, v)
		}
		httpReq.URL.RawQuery = q.Encode()
	}

	w := httptest.NewRecorder()
	h.handler.ServeHTTP(w, httpReq)

	return &Response{ResponseRecorder: w, t: t}
}

func (r *Response) body() map[string]any {
	r.t.Helper()

	var resp map[string]any
	r.ParseJSON(&resp)
	return resp
}

func (r *Response) AssertStatus(expected int) *Response {
	r.t.Helper()

	require.Equal(r.t, expected, r.Result().StatusCode, "unexpected status code, body: %s", r.Body.String())
	return r
}

func (r *Response) AssertHeader(key, value string) *Response {
	r.t.Helper()

	actual := r.Header().Get(key)
	require.Equal(r.t, value, actual, fmt.Sprintf("expected header %s=%s, got %s", key, value, actual))
	return r
}

// AssertSuccess checks the status and the {"ok": true} envelope.
func (r *Response) AssertSuccess(expectedStatus int) *Response {
	r.t.Helper()
	r.AssertStatus(expectedStatus)

	ok, _ := r.body()["ok"].(bool)
	assert.True(r.t, ok, "expected ok=true, body: %s", r.Body.String())
	return r
}

// AssertError checks the status, {"ok": false} and the localized message.
func (r *Response) AssertError(expectedStatus int, expectedMessage string) *Response {
	r.t.Helper()
	r.AssertStatus(expectedStatus)

	resp := r.body()
	ok, _ := resp["ok"].(bool)
	require.False(r.t, ok, "expected ok=false")
	if expectedMessage != "" {
		assert.Equal(r.t, expectedMessage, resp["error"], "unexpected error message")
	}
	return r
}

func (r *Response) AssertCode(expected string) *Response {
	r.t.Helper()
	assert.Equal(r.t, expected, r.body()["code"], "unexpected error code")
	return r
}

func (r *Response) AssertBadRequest() *Response {
	r.t.Helper()
	return r.AssertStatus(http.StatusBadRequest)
}

func (r *Response) ParseJSON(v any) *Response {
	r.t.Helper()

	err := json.Unmarshal(r.Body.Bytes(), v)
	require.NoError(r.t, err, "failed to parse JSON response: %s", r.Body.String())

	return r
}

// Field walks nested objects of the JSON body, e.g. Field("account", "id").
func (r *Response) Field(path ...string) any {
	r.t.Helper()

	var cur any = r.body()
	for _, p := range path {
		m, ok := cur.(map[string]any)
		require.True(r.t, ok, "%v is not an object", cur)
		cur, ok = m[p]
		require.True(r.t, ok, "field %s not found in %v", p, m)
	}
	return cur
}

type RequestBuilder struct {
	req Request
}

func NewRequest(method, path string) *RequestBuilder {
	return &RequestBuilder{
		req: Request{
			Path:    path,
			Method:  method,
			Headers: make(map[string]string),
			Query:   make(map[string]string),
		},
	}
}

func (b *RequestBuilder) WithContext(ctx context.Context) *RequestBuilder {
	b.req.Context = ctx
	return b
}

func (b *RequestBuilder) WithJSON(body any) *RequestBuilder {
	b.req.Body = body
	return b
}

func (b *RequestBuilder) WithHeader(key, value string) *RequestBuilder {
	b.req.Headers[key] = value
	return b
}

func (b *RequestBuilder) WithToken(token string) *RequestBuilder {
	return b.WithHeader("X-JWT", token)
}

func (b *RequestBuilder) WithQuery(key, value string) *RequestBuilder {
	b.req.Query[key] = value
	return b
}

func (b *RequestBuilder) Build() Request {
	return b.req
}
