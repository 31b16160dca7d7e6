package http

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	accounthttp "gitlab.com/eatsapp/accounts-backend/internal/ports/http/account"
	authhttp "gitlab.com/eatsapp/accounts-backend/internal/ports/http/auth"
	"gitlab.com/eatsapp/accounts-backend/internal/ports/http/middlewares"
	restauranthttp "gitlab.com/eatsapp/accounts-backend/internal/ports/http/restaurant"
	"gitlab.com/eatsapp/accounts-backend/pkg/httpx"
)

type Port struct {
	logger  *slog.Logger
	authn   *middlewares.Authenticator
	auth    *authhttp.HTTP
	account *accounthttp.HTTP
	// restaurant is nil when Args.RestaurantApp is unset.
	restaurant *restauranthttp.HTTP
}

type Args struct {
	// Logger receives the access log and handler logs; nil means slog.Default.
	Logger     *slog.Logger
	AccountApp accounthttp.App
	LoginApp   authhttp.LoginHandler
	// RestaurantApp is optional; the restaurant routes are mounted only when set.
	RestaurantApp restauranthttp.App
	Tokens        middlewares.TokenVerifier
	Errhandler    *httpx.ErrorHandler
}

func NewPort(args Args) *Port {
	authn := middlewares.NewAuthenticator(middlewares.AuthenticatorArgs{
		Logger:     args.Logger,
		Tokens:     args.Tokens,
		Accounts:   args.AccountApp,
		Errhandler: args.Errhandler,
	})

	p := &Port{
		logger: args.Logger,
		authn:  authn,
		auth: authhttp.NewHTTP(authhttp.Args{
			Logger:     args.Logger,
			App:        args.LoginApp,
			Errhandler: args.Errhandler,
		}),
		account: accounthttp.NewHTTP(accounthttp.Args{
			Logger:     args.Logger,
			App:        args.AccountApp,
			Protect:    authn.RequireAccount,
			Errhandler: args.Errhandler,
		}),
	}
	if args.RestaurantApp != nil {
		p.restaurant = restauranthttp.NewHTTP(restauranthttp.Args{
			Logger:     args.Logger,
			App:        args.RestaurantApp,
			Protect:    authn.RequireAccount,
			Errhandler: args.Errhandler,
		})
	}

	return p
}

// Route mounts the API on r, creating a router when r is nil.
func (p *Port) Route(r chi.Router) chi.Router {
	if r == nil {
		r = chi.NewRouter()
	}

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middlewares.Logger(p.logger))
	r.Use(middleware.Recoverer)

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		httpx.Success(w, r, http.StatusOK, nil)
	})

	r.Route("/v1", func(r chi.Router) {
		r.Use(p.authn.Authenticate)

		p.auth.Route(r)
		p.account.Route(r)
		if p.restaurant != nil {
			p.restaurant.Route(r)
		}
	})

	return r
}
