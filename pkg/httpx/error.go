package httpx

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"net/http"
	"sort"
	"strings"

	"github.com/ARUMANDESU/validation"
	"github.com/BurntSushi/toml"
	"github.com/nicksnyder/go-i18n/v2/i18n"
	"golang.org/x/text/language"

	"gitlab.com/eatsapp/accounts-backend/pkg/errorx"
)

var supportedLanguages = []language.Tag{language.English, language.Russian}

// ErrorHandler renders errors as {"ok": false, "code", "error"} with the
// message localized by the request's Accept-Language header.
type ErrorHandler struct {
	logger     *slog.Logger
	matcher    language.Matcher
	localizers map[language.Tag]*i18n.Localizer
}

// NewErrorHandler loads every *.toml message file found in the root of locales.
func NewErrorHandler(locales fs.FS, logger *slog.Logger) (*ErrorHandler, error) {
	if logger == nil {
		logger = slog.Default()
	}

	bundle := i18n.NewBundle(language.English)
	bundle.RegisterUnmarshalFunc("toml", toml.Unmarshal)

	files, err := fs.Glob(locales, "*.toml")
	if err != nil {
		return nil, fmt.Errorf("failed to list locale files: %w", err)
	}
	for _, f := range files {
		if _, err := bundle.LoadMessageFileFS(locales, f); err != nil {
			return nil, fmt.Errorf("failed to load locale file %s: %w", f, err)
		}
	}

	localizers := make(map[language.Tag]*i18n.Localizer, len(supportedLanguages))
	for _, tag := range supportedLanguages {
		localizers[tag] = i18n.NewLocalizer(bundle, tag.String())
	}

	return &ErrorHandler{
		logger:     logger,
		matcher:    language.NewMatcher(supportedLanguages),
		localizers: localizers,
	}, nil
}

// Localizer picks the best supported language for an Accept-Language header value.
func (h *ErrorHandler) Localizer(acceptLanguage string) *i18n.Localizer {
	tags, _, _ := language.ParseAcceptLanguage(acceptLanguage)
	_, idx, _ := h.matcher.Match(tags...)
	return h.localizers[supportedLanguages[idx]]
}

func (h *ErrorHandler) HandleError(w http.ResponseWriter, r *http.Request, err error) {
	localizer := h.Localizer(r.Header.Get("Accept-Language"))

	var appErr *errorx.I18nError
	if errors.As(err, &appErr) {
		status := appErr.HTTPStatusCode()
		if status >= http.StatusInternalServerError {
			h.logger.ErrorContext(r.Context(), "request failed", slog.Any("error", err))
		} else {
			h.logger.DebugContext(r.Context(), "request rejected", slog.Any("error", err))
		}
		writeError(w, r, appErr.Code, appErr.Localize(localizer), status)
		return
	}

	var valErrs validation.Errors
	if errors.As(err, &valErrs) {
		fields := make([]string, 0, len(valErrs))
		for field := range valErrs {
			fields = append(fields, field)
		}
		sort.Strings(fields)

		msgs := make([]string, 0, len(fields))
		for _, field := range fields {
			msgs = append(msgs, field+": "+localizeValidation(localizer, valErrs[field]))
		}
		writeError(w, r, errorx.CodeValidationFailed, strings.Join(msgs, "; "), http.StatusBadRequest)
		return
	}

	var valErr validation.Error
	if errors.As(err, &valErr) {
		writeError(w, r, errorx.CodeValidationFailed, localizeValidation(localizer, valErr), http.StatusBadRequest)
		return
	}

	h.logger.ErrorContext(r.Context(), "unhandled error", slog.Any("error", err))
	internalErr := errorx.NewInternalError().WithCause(err)
	writeError(w, r, internalErr.Code, internalErr.Localize(localizer), internalErr.HTTPStatusCode())
}

func localizeValidation(localizer *i18n.Localizer, err error) string {
	var verr validation.Error
	if !errors.As(err, &verr) {
		return err.Error()
	}

	msg, lerr := localizer.Localize(&i18n.LocalizeConfig{
		MessageID:    verr.Code(),
		TemplateData: verr.Params(),
	})
	if lerr != nil {
		return verr.Error()
	}
	return msg
}

func writeError(w http.ResponseWriter, r *http.Request, code errorx.Code, message string, status int) {
	err := WriteJSON(w, status, Envelope{
		"ok":    false,
		"code":  code,
		"error": message,
	}, nil)
	if err != nil {
		slog.ErrorContext(r.Context(), "failed to write error response", slog.Any("error", err))
	}
}
