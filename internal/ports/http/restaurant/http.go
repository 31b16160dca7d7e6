package restauranthttp

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

	restaurantapp "gitlab.com/eatsapp/accounts-backend/internal/application/restaurant"
	"gitlab.com/eatsapp/accounts-backend/internal/domain/restaurant"
	"gitlab.com/eatsapp/accounts-backend/pkg/httpx"
)

var (
	tracer = otel.Tracer("accounts/internal/ports/http/restaurant")
	logger = otelslog.NewLogger("accounts/internal/ports/http/restaurant")
)

type App interface {
	ListRestaurants(ctx context.Context) ([]*restaurant.Restaurant, error)
	CreateRestaurant(ctx context.Context, cmd restaurantapp.CreateRestaurant) (*restaurant.Restaurant, error)
	UpdateRestaurant(ctx context.Context, id restaurant.ID, patch restaurant.Patch) (*restaurant.Restaurant, error)
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
	// Protect guards create and update. Listing is public.
	Protect    func(http.Handler) http.Handler
	Errhandler *httpx.ErrorHandler
}

func NewHTTP(args Args) *HTTP {
	if args.App == nil {
		panic("restaurant app cannot be nil")
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
	r.Route("/restaurants", func(r chi.Router) {
		r.Get("/", h.ListRestaurants)

		r.Group(func(r chi.Router) {
			r.Use(h.protect)

			r.Post("/", h.CreateRestaurant)
			r.Patch("/{id}", h.UpdateRestaurant)
		})
	})
}

type RestaurantResponse struct {
	ID           restaurant.ID `json:"id"`
	Name         string        `json:"name"`
	IsVegan      bool          `json:"isVegan"`
	Address      string        `json:"address"`
	OwnersName   string        `json:"ownersName"`
	CategoryName string        `json:"categoryName"`
	CreatedAt    time.Time     `json:"created_at"`
	UpdatedAt    time.Time     `json:"updated_at"`
}

func NewRestaurantResponse(r *restaurant.Restaurant) RestaurantResponse {
	return RestaurantResponse{
		ID:           r.ID(),
		Name:         r.Name(),
		IsVegan:      r.IsVegan(),
		Address:      r.Address(),
		OwnersName:   r.OwnersName(),
		CategoryName: r.CategoryName(),
		CreatedAt:    r.CreatedAt(),
		UpdatedAt:    r.UpdatedAt(),
	}
}

func (h *HTTP) ListRestaurants(w http.ResponseWriter, r *http.Request) {
	ctx, span := h.tracer.Start(r.Context(), "HTTP.ListRestaurants")
	defer span.End()

	list, err := h.app.ListRestaurants(ctx)
	if err != nil {
		h.errhandler.HandleError(w, r, err)
		return
	}

	resp := make([]RestaurantResponse, 0, len(list))
	for _, item := range list {
		resp = append(resp, NewRestaurantResponse(item))
	}

	httpx.Success(w, r, http.StatusOK, httpx.Envelope{"restaurants": resp})
}

func (h *HTTP) CreateRestaurant(w http.ResponseWriter, r *http.Request) {
	ctx, span := h.tracer.Start(r.Context(), "HTTP.CreateRestaurant")
	defer span.End()

	var req restaurantapp.CreateRestaurant
	if err := httpx.ReadJSON(w, r, &req); err != nil {
		h.errhandler.HandleError(w, r, err)
		return
	}

	created, err := h.app.CreateRestaurant(ctx, req)
	if err != nil {
		h.errhandler.HandleError(w, r, err)
		return
	}

	httpx.Success(w, r, http.StatusCreated, httpx.Envelope{"restaurant": NewRestaurantResponse(created)})
}

func (h *HTTP) UpdateRestaurant(w http.ResponseWriter, r *http.Request) {
	ctx, span := h.tracer.Start(r.Context(), "HTTP.UpdateRestaurant")
	defer span.End()

	id, err := restaurant.ParseID(chi.URLParam(r, "id"))
	if err != nil {
		h.errhandler.HandleError(w, r, restaurant.ErrNotFound.WithCause(err))
		return
	}
	span.SetAttributes(attribute.Int64("restaurant.id", int64(id)))

	var patch restaurant.Patch
	if err := httpx.ReadJSON(w, r, &patch); err != nil {
		h.errhandler.HandleError(w, r, err)
		return
	}

	updated, err := h.app.UpdateRestaurant(ctx, id, patch)
	if err != nil {
		h.errhandler.HandleError(w, r, err)
		return
	}

	httpx.Success(w, r, http.StatusOK, httpx.Envelope{"restaurant": NewRestaurantResponse(updated)})
}
