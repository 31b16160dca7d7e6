package postgres

import (
	"context"
	"log/slog"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"gitlab.com/eatsapp/accounts-backend/internal/domain/restaurant"
	"gitlab.com/eatsapp/accounts-backend/pkg/errorx"
	"gitlab.com/eatsapp/accounts-backend/pkg/otelx"
	"gitlab.com/eatsapp/accounts-backend/pkg/postgres"
)

type RestaurantRepo struct {
	tracer trace.Tracer
	logger *slog.Logger
	pool   *pgxpool.Pool
}

// NewRestaurantRepo creates a new instance of RestaurantRepo.
//
// WARNING: panics if pool is nil
func NewRestaurantRepo(pool *pgxpool.Pool, t trace.Tracer, l *slog.Logger) *RestaurantRepo {
	if pool == nil {
		panic("pgxpool.Pool cannot be nil")
	}
	if t == nil {
		t = tracer
	}
	if l == nil {
		l = logger
	}

	return &RestaurantRepo{
		tracer: t,
		logger: l,
		pool:   pool,
	}
}

func (r *RestaurantRepo) SaveRestaurant(ctx context.Context, res *restaurant.Restaurant) error {
	const op = "postgres.RestaurantRepo.SaveRestaurant"
	ctx, span := r.tracer.Start(ctx, "RestaurantRepo.SaveRestaurant")
	defer span.End()

	dto := DomainToRestaurantDTO(res)
	var id int64
	err := q(ctx, r.pool).QueryRow(ctx, `
		INSERT INTO restaurants (name, is_vegan, address, owners_name, category_name, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING id;`,
		dto.Name,
		dto.IsVegan,
		dto.Address,
		dto.OwnersName,
		dto.CategoryName,
		dto.CreatedAt,
		dto.UpdatedAt,
	).Scan(&id)
	if err != nil {
		otelx.RecordSpanError(span, err, "failed to insert restaurant")
		return translate(err, op)
	}

	if err := res.AssignID(restaurant.ID(id)); err != nil {
		otelx.RecordSpanError(span, err, "failed to assign restaurant id")
		return errorx.Wrap(err, op)
	}
	span.SetAttributes(attribute.Int64("restaurant.id", id))

	return nil
}

func (r *RestaurantRepo) ListRestaurants(ctx context.Context) ([]*restaurant.Restaurant, error) {
	const op = "postgres.RestaurantRepo.ListRestaurants"
	ctx, span := r.tracer.Start(ctx, "RestaurantRepo.ListRestaurants")
	defer span.End()

	rows, err := q(ctx, r.pool).Query(ctx, `SELECT `+restaurantColumns+` FROM restaurants ORDER BY id;`)
	if err != nil {
		otelx.RecordSpanError(span, err, "failed to query restaurants")
		return nil, translate(err, op)
	}
	defer rows.Close()

	list := make([]*restaurant.Restaurant, 0)
	for rows.Next() {
		var dto RestaurantDTO
		if err := rows.Scan(dto.scanTargets()...); err != nil {
			otelx.RecordSpanError(span, err, "failed to scan restaurant")
			return nil, translate(err, op)
		}
		list = append(list, RestaurantToDomain(dto))
	}
	if err := rows.Err(); err != nil {
		otelx.RecordSpanError(span, err, "failed to iterate restaurants")
		return nil, translate(err, op)
	}

	span.SetAttributes(attribute.Int("restaurant.count", len(list)))
	return list, nil
}

// UpdateRestaurant locks the row, applies fn and writes the result back in
// one transaction, returning the saved state.
func (r *RestaurantRepo) UpdateRestaurant(
	ctx context.Context,
	id restaurant.ID,
	fn func(ctx context.Context, res *restaurant.Restaurant) error,
) (*restaurant.Restaurant, error) {
	const op = "postgres.RestaurantRepo.UpdateRestaurant"
	ctx, span := r.tracer.Start(ctx, "RestaurantRepo.UpdateRestaurant",
		trace.WithAttributes(attribute.Int64("restaurant.id", int64(id))),
	)
	defer span.End()
	if fn == nil {
		otelx.RecordSpanError(span, ErrNilFunc, "update function cannot be nil")
		return nil, ErrNilFunc
	}

	var updated *restaurant.Restaurant
	err := postgres.WithTx(ctx, r.pool, func(ctx context.Context, tx pgx.Tx) error {
		var dto RestaurantDTO
		err := tx.QueryRow(ctx, `SELECT `+restaurantColumns+` FROM restaurants WHERE id = $1 FOR UPDATE;`, int64(id)).
			Scan(dto.scanTargets()...)
		if err != nil {
			otelx.RecordSpanError(span, err, "failed to lock restaurant")
			return translate(err, op)
		}

		res := RestaurantToDomain(dto)
		if err := fn(ctx, res); err != nil {
			otelx.RecordSpanError(span, err, "update function failed")
			return errorx.Wrap(err, op)
		}

		dto = DomainToRestaurantDTO(res)
		tag, err := tx.Exec(ctx, `
			UPDATE restaurants
			SET name = $2, is_vegan = $3, address = $4, owners_name = $5, category_name = $6, updated_at = $7
			WHERE id = $1;`,
			dto.ID,
			dto.Name,
			dto.IsVegan,
			dto.Address,
			dto.OwnersName,
			dto.CategoryName,
			dto.UpdatedAt,
		)
		if err != nil {
			otelx.RecordSpanError(span, err, "failed to update restaurant")
			return translate(err, op)
		}
		if tag.RowsAffected() == 0 {
			return errorx.Wrap(ErrNoRowsAffected, op)
		}

		updated = res
		return nil
	})
	if err != nil {
		otelx.RecordSpanError(span, err, "transaction to update restaurant failed")
		return nil, err
	}

	return updated, nil
}
