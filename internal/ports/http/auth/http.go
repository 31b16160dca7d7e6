package authhttp

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"go.opentelemetry.io/contrib/bridges/otelslog"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"

	accountapp "gitlab.com/eatsapp/accounts-backend/internal/application/account"
	"gitlab.com/eatsapp/accounts-backend/pkg/httpx"
)

var (
	tracer = otel.Tracer("accounts/internal/ports/http/auth")
	logger = otelslog.NewLogger("accounts/internal/ports/http/auth")
)

type LoginHandler interface {
	Login(ctx context.Context, cmd accountapp.Login) (accountapp.LoginResult, error)
}

type HTTP struct {
	tracer     trace.Tracer
	logger     *slog.Logger
	app        LoginHandler
	errhandler *httpx.ErrorHandler
}

type Args struct {
	Tracer     trace.Tracer
	Logger     *slog.Logger
	App        LoginHandler
	Errhandler *httpx.ErrorHandler
}

func NewHTTP(args Args) *HTTP {
	if args.App == nil {
		panic("login handler cannot be nil")
	}
	if args.Errhandler == nil {
		panic("error handler cannot be nil")
	}
	if args.Tracer == nil {
		args.Tracer = tracer
	}
	if args.Logger == nil {
		args.Logger = logger
	}

	return &HTTP{
		tracer:     args.Tracer,
		logger:     args.Logger,
		app:        args.App,
		errhandler: args.Errhandler,
	}
}

func (h *HTTP) Route(r chi.Router) {
	r.Post("/auth/login", h.Login)
}

type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

func (h *HTTP) Login(w http.ResponseWriter, r *http.Request) {
	ctx, span := h.tracer.Start(r.Context(), "HTTP.Login")
	defer span.End()

	var req LoginRequest
	if err := httpx.ReadJSON(w, r, &req); err != nil {
		h.errhandler.HandleError(w, r, err)
		return
	}

	res, err := h.app.Login(ctx, accountapp.Login{
		Email:    req.Email,
		Password: req.Password,
	})
	if err != nil {
		h.errhandler.HandleError(w, r, err)
		return
	}

	httpx.Success(w, r, http.StatusOK, httpx.Envelope{"token": res.Token})
}
