package restaurantapp

import (
	"context"
	"errors"
	"log/slog"

	"github.com/ARUMANDESU/validation"
	"go.opentelemetry.io/contrib/bridges/otelslog"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"gitlab.com/eatsapp/accounts-backend/internal/domain/restaurant"
	"gitlab.com/eatsapp/accounts-backend/pkg/errorx"
	"gitlab.com/eatsapp/accounts-backend/pkg/otelx"
)

var (
	tracer = otel.Tracer("accounts/internal/application/restaurant")
	logger = otelslog.NewLogger("accounts/internal/application/restaurant")
)

var (
	ErrRestaurantCreationFailed = errorx.NewInternalError().WithKey("restaurant_creation_failed")
	ErrRestaurantUpdateFailed   = errorx.NewInternalError().WithKey("restaurant_update_failed")
)

// Repo is the restaurant store. Absent records yield an errorx not-found error.
type Repo interface {
	SaveRestaurant(ctx context.Context, r *restaurant.Restaurant) error
	ListRestaurants(ctx context.Context) ([]*restaurant.Restaurant, error)
	UpdateRestaurant(ctx context.Context, id restaurant.ID, fn func(ctx context.Context, r *restaurant.Restaurant) error) (*restaurant.Restaurant, error)
}

type App struct {
	tracer      trace.Tracer
	logger      *slog.Logger
	restaurants Repo
}

type Args struct {
	Tracer      trace.Tracer
	Logger      *slog.Logger
	Restaurants Repo
}

func NewApp(args Args) *App {
	if args.Restaurants == nil {
		panic("restaurant repo cannot be nil")
	}
	if args.Tracer == nil {
		args.Tracer = tracer
	}
	if args.Logger == nil {
		args.Logger = logger
	}

	return &App{
		tracer:      args.Tracer,
		logger:      args.Logger,
		restaurants: args.Restaurants,
	}
}

// ListRestaurants returns every restaurant, oldest first.
func (a *App) ListRestaurants(ctx context.Context) ([]*restaurant.Restaurant, error) {
	ctx, span := a.tracer.Start(ctx, "App.ListRestaurants")
	defer span.End()

	list, err := a.restaurants.ListRestaurants(ctx)
	if err != nil {
		otelx.RecordSpanError(span, err, "failed to list restaurants")
		return nil, errorx.NewInternalError().WithCause(err)
	}

	span.SetAttributes(attribute.Int("restaurant.count", len(list)))
	return list, nil
}

type CreateRestaurant = restaurant.NewRestaurantArgs

func (a *App) CreateRestaurant(ctx context.Context, cmd CreateRestaurant) (*restaurant.Restaurant, error) {
	ctx, span := a.tracer.Start(ctx, "App.CreateRestaurant")
	defer span.End()

	r, err := restaurant.NewRestaurant(cmd)
	if err != nil {
		otelx.RecordSpanError(span, err, "invalid input")
		return nil, err
	}

	if err := a.restaurants.SaveRestaurant(ctx, r); err != nil {
		otelx.RecordSpanError(span, err, "failed to save restaurant")
		return nil, ErrRestaurantCreationFailed.WithCause(err)
	}

	span.SetAttributes(attribute.Int64("restaurant.id", int64(r.ID())))
	a.logger.InfoContext(ctx, "restaurant created", slog.Int64("restaurant.id", int64(r.ID())))
	return r, nil
}

// UpdateRestaurant applies the set fields of patch in one save.
func (a *App) UpdateRestaurant(ctx context.Context, id restaurant.ID, patch restaurant.Patch) (*restaurant.Restaurant, error) {
	ctx, span := a.tracer.Start(ctx, "App.UpdateRestaurant",
		trace.WithAttributes(attribute.Int64("restaurant.id", int64(id))),
	)
	defer span.End()

	if id <= 0 {
		otelx.RecordSpanError(span, restaurant.ErrNotFound, "non-positive id")
		return nil, restaurant.ErrNotFound
	}
	if err := patch.Validate(); err != nil {
		otelx.RecordSpanError(span, err, "invalid input")
		return nil, err
	}

	updated, err := a.restaurants.UpdateRestaurant(ctx, id, func(_ context.Context, r *restaurant.Restaurant) error {
		return r.Apply(patch)
	})
	if err != nil {
		otelx.RecordSpanError(span, err, "failed to update restaurant")

		var verrs validation.Errors
		switch {
		case errorx.IsNotFound(err):
			return nil, restaurant.ErrNotFound.WithCause(err)
		case errors.As(err, &verrs):
			return nil, verrs
		default:
			return nil, ErrRestaurantUpdateFailed.WithCause(err)
		}
	}

	a.logger.InfoContext(ctx, "restaurant updated", slog.Int64("restaurant.id", int64(id)))
	return updated, nil
}
