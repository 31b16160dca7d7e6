package httpx

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"maps"
	"net/http"
	"strings"

	"gitlab.com/eatsapp/accounts-backend/pkg/errorx"
)

type Envelope map[string]any

const maxRequestBodySize = 1 << 20 // 1MB

// ReadJSON decodes exactly one JSON value from the request body into v.
// Every failure is reported as errorx MALFORMED_JSON with the decoder error as cause.
func ReadJSON(w http.ResponseWriter, r *http.Request, v any) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxRequestBodySize)

	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()

	if err := dec.Decode(v); err != nil {
		var syntaxError *json.SyntaxError
		var unmarshalTypeError *json.UnmarshalTypeError
		var maxBytesError *http.MaxBytesError

		var cause error
		switch {
		case errors.As(err, &syntaxError):
			cause = fmt.Errorf("badly-formed JSON (at character %d): %w", syntaxError.Offset, err)
		case errors.Is(err, io.ErrUnexpectedEOF):
			cause = fmt.Errorf("body contains badly-formed JSON: %w", err)
		case errors.As(err, &unmarshalTypeError):
			cause = fmt.Errorf("body contains incorrect JSON type for field %q: %w", unmarshalTypeError.Field, err)
		case errors.Is(err, io.EOF):
			cause = fmt.Errorf("body must not be empty: %w", err)
		case strings.HasPrefix(err.Error(), "json: unknown field "):
			cause = fmt.Errorf("body contains unknown field %s: %w", strings.TrimPrefix(err.Error(), "json: unknown field "), err)
		case errors.As(err, &maxBytesError):
			cause = fmt.Errorf("body must not be larger than %d bytes: %w", maxBytesError.Limit, err)
		default:
			cause = fmt.Errorf("body contains invalid JSON: %w", err)
		}
		return errorx.NewMalformedJSON().WithCause(cause)
	}

	if err := dec.Decode(&struct{}{}); !errors.Is(err, io.EOF) {
		return errorx.NewMalformedJSON().WithCause(errors.New("body must only contain a single JSON value"))
	}

	return nil
}

func WriteJSON(w http.ResponseWriter, status int, data Envelope, headers http.Header) error {
	js, err := json.Marshal(data)
	if err != nil {
		return err
	}

	js = append(js, '\n')

	maps.Copy(w.Header(), headers)

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, err = w.Write(js)
	return err
}

// Success writes payload with "ok": true added.
func Success(w http.ResponseWriter, r *http.Request, status int, payload Envelope) {
	if payload == nil {
		payload = make(Envelope, 1)
	}
	payload["ok"] = true

	if err := WriteJSON(w, status, payload, nil); err != nil {
		slog.ErrorContext(r.Context(), "failed to write success response", slog.Int("status", status), slog.Any("error", err))
	}
}
