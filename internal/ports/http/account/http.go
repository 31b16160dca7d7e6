package accounthttp

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"go.opentelemetry.io/contrib/bridges/otelslog"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	accountapp "gitlab.com/eatsapp/accounts-backend/internal/application/account"
	"gitlab.com/eatsapp/accounts-backend/internal/domain/account"
	"gitlab.com/eatsapp/accounts-backend/internal/domain/valueobject/role"
	"gitlab.com/eatsapp/accounts-backend/pkg/ctxs"
	"gitlab.com/eatsapp/accounts-backend/pkg/errorx"
	"gitlab.com/eatsapp/accounts-backend/pkg/httpx"
)

var (
	tracer = otel.Tracer("accounts/internal/ports/http/account")
	logger = otelslog.NewLogger("accounts/internal/ports/http/account")
)

type App interface {
	CreateAccount(ctx context.Context, cmd accountapp.CreateAccount) (*account.Account, error)
	FindByID(ctx context.Context, id account.ID) (*account.Account, error)
	EditProfile(ctx context.Context, id account.ID, cmd accountapp.EditProfile) error
	VerifyEmail(ctx context.Context, code string) (*account.Account, error)
}

type HTTP struct {
	tracer     trace.Tracer
	logger     *slog.Logger
	app        App
	protect    func(http.Handler) http.Handler
	errhandler *httpx.ErrorHandler
}

type Args struct {
	Tracer trace.Tracer
	Logger *slog.Logger
	App    App
	// Protect guards the routes that need an authenticated account.
	Protect    func(http.Handler) http.Handler
	Errhandler *httpx.ErrorHandler
}

func NewHTTP(args Args) *HTTP {
	if args.App == nil {
		panic("account app cannot be nil")
	}
	if args.Protect == nil {
		panic("protect middleware cannot be nil")
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
		protect:    args.Protect,
		errhandler: args.Errhandler,
	}
}

func (h *HTTP) Route(r chi.Router) {
	r.Route("/accounts", func(r chi.Router) {
		r.Post("/", h.CreateAccount)
		r.Post("/verify", h.VerifyEmail)

		r.Group(func(r chi.Router) {
			r.Use(h.protect)

			r.Get("/me", h.Me)
			r.Patch("/me", h.EditProfile)
			r.Get("/{id}", h.GetAccount)
		})
	})
}

// AccountResponse is the public view of an account. The password digest is
// never part of it.
type AccountResponse struct {
	ID        account.ID `json:"id"`
	Email     string     `json:"email"`
	Role      role.Role  `json:"role"`
	Verified  bool       `json:"verified"`
	CreatedAt time.Time  `json:"created_at"`
	UpdatedAt time.Time  `json:"updated_at"`
}

func NewAccountResponse(a *account.Account) AccountResponse {
	return AccountResponse{
		ID:        a.ID(),
		Email:     a.Email(),
		Role:      a.Role(),
		Verified:  a.Verified(),
		CreatedAt: a.CreatedAt(),
		UpdatedAt: a.UpdatedAt(),
	}
}

type CreateAccountRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
	Role     string `json:"role"`
}

func (h *HTTP) CreateAccount(w http.ResponseWriter, r *http.Request) {
	ctx, span := h.tracer.Start(r.Context(), "HTTP.CreateAccount")
	defer span.End()

	var req CreateAccountRequest
	if err := httpx.ReadJSON(w, r, &req); err != nil {
		h.errhandler.HandleError(w, r, err)
		return
	}

	acc, err := h.app.CreateAccount(ctx, accountapp.CreateAccount{
		Email:    req.Email,
		Password: req.Password,
		Role:     role.Role(req.Role),
	})
	if err != nil {
		h.errhandler.HandleError(w, r, err)
		return
	}

	httpx.Success(w, r, http.StatusCreated, httpx.Envelope{"account": NewAccountResponse(acc)})
}

type VerifyEmailRequest struct {
	Code string `json:"code"`
}

func (h *HTTP) VerifyEmail(w http.ResponseWriter, r *http.Request) {
	ctx, span := h.tracer.Start(r.Context(), "HTTP.VerifyEmail")
	defer span.End()

	var req VerifyEmailRequest
	if err := httpx.ReadJSON(w, r, &req); err != nil {
		h.errhandler.HandleError(w, r, err)
		return
	}

	if _, err := h.app.VerifyEmail(ctx, req.Code); err != nil {
		h.errhandler.HandleError(w, r, err)
		return
	}

	httpx.Success(w, r, http.StatusOK, nil)
}

func (h *HTTP) Me(w http.ResponseWriter, r *http.Request) {
	_, span := h.tracer.Start(r.Context(), "HTTP.Me")
	defer span.End()

	acc, ok := ctxs.AccountFromCtx(r.Context())
	if !ok {
		h.errhandler.HandleError(w, r, errorx.NewUnauthorized())
		return
	}
	span.SetAttributes(attribute.Int64("account.id", int64(acc.ID())))

	httpx.Success(w, r, http.StatusOK, httpx.Envelope{"account": NewAccountResponse(acc)})
}

func (h *HTTP) GetAccount(w http.ResponseWriter, r *http.Request) {
	ctx, span := h.tracer.Start(r.Context(), "HTTP.GetAccount")
	defer span.End()

	id, err := account.ParseID(chi.URLParam(r, "id"))
	if err != nil {
		h.errhandler.HandleError(w, r, account.ErrUserNotFound.WithCause(err))
		return
	}
	span.SetAttributes(attribute.Int64("account.id", int64(id)))

	acc, err := h.app.FindByID(ctx, id)
	if err != nil {
		h.errhandler.HandleError(w, r, err)
		return
	}

	httpx.Success(w, r, http.StatusOK, httpx.Envelope{"account": NewAccountResponse(acc)})
}

type EditProfileRequest struct {
	Email    *string `json:"email"`
	Password *string `json:"password"`
}

func (h *HTTP) EditProfile(w http.ResponseWriter, r *http.Request) {
	ctx, span := h.tracer.Start(r.Context(), "HTTP.EditProfile")
	defer span.End()

	acc, ok := ctxs.AccountFromCtx(ctx)
	if !ok {
		h.errhandler.HandleError(w, r, errorx.NewUnauthorized())
		return
	}

	var req EditProfileRequest
	if err := httpx.ReadJSON(w, r, &req); err != nil {
		h.errhandler.HandleError(w, r, err)
		return
	}

	err := h.app.EditProfile(ctx, acc.ID(), accountapp.EditProfile{
		Email:    req.Email,
		Password: req.Password,
	})
	if err != nil {
		h.errhandler.HandleError(w, r, err)
		return
	}

	httpx.Success(w, r, http.StatusOK, nil)
}
