package mocks

import (
	"context"
	"slices"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"

	"gitlab.com/eatsapp/accounts-backend/internal/domain/restaurant"
	"gitlab.com/eatsapp/accounts-backend/pkg/errorx"
)

// RestaurantRepo is an in-memory restaurant store. Reads return detached copies.
type RestaurantRepo struct {
	mu       sync.Mutex
	byID     map[restaurant.ID]restaurant.RehydrateArgs
	lastID   restaurant.ID
	failures map[string]error
}

func NewRestaurantRepo() *RestaurantRepo {
	return &RestaurantRepo{
		byID:     make(map[restaurant.ID]restaurant.RehydrateArgs),
		failures: make(map[string]error),
	}
}

// FailOn makes every later call to method return err. A nil err clears it.
func (r *RestaurantRepo) FailOn(method string, err error) *RestaurantRepo {
	r.mu.Lock()
	defer r.mu.Unlock()

	if err == nil {
		delete(r.failures, method)
	} else {
		r.failures[method] = err
	}
	return r
}

func (r *RestaurantRepo) SaveRestaurant(ctx context.Context, res *restaurant.Restaurant) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if err := r.failures["SaveRestaurant"]; err != nil {
		return err
	}

	id := r.lastID + 1
	if err := res.AssignID(id); err != nil {
		return err
	}
	r.lastID = id
	r.put(res)
	return nil
}

func (r *RestaurantRepo) ListRestaurants(ctx context.Context) ([]*restaurant.Restaurant, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if err := r.failures["ListRestaurants"]; err != nil {
		return nil, err
	}

	ids := make([]restaurant.ID, 0, len(r.byID))
	for id := range r.byID {
		ids = append(ids, id)
	}
	slices.Sort(ids)

	list := make([]*restaurant.Restaurant, 0, len(ids))
	for _, id := range ids {
		list = append(list, restaurant.Rehydrate(r.byID[id]))
	}
	return list, nil
}

func (r *RestaurantRepo) UpdateRestaurant(
	ctx context.Context,
	id restaurant.ID,
	fn func(ctx context.Context, res *restaurant.Restaurant) error,
) (*restaurant.Restaurant, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if err := r.failures["UpdateRestaurant"]; err != nil {
		return nil, err
	}
	args, ok := r.byID[id]
	if !ok {
		return nil, errorx.NewNotFound()
	}

	res := restaurant.Rehydrate(args)
	if err := fn(ctx, res); err != nil {
		return nil, err
	}
	r.put(res)
	return restaurant.Rehydrate(r.byID[id]), nil
}

// put must be called with mu held.
func (r *RestaurantRepo) put(res *restaurant.Restaurant) {
	r.byID[res.ID()] = restaurant.RehydrateArgs{
		ID:           res.ID(),
		Name:         res.Name(),
		IsVegan:      res.IsVegan(),
		Address:      res.Address(),
		OwnersName:   res.OwnersName(),
		CategoryName: res.CategoryName(),
		CreatedAt:    res.CreatedAt(),
		UpdatedAt:    res.UpdatedAt(),
	}
}

// Get returns the stored state of id, failing the test when absent.
func (r *RestaurantRepo) Get(t *testing.T, id restaurant.ID) *restaurant.Restaurant {
	t.Helper()

	r.mu.Lock()
	defer r.mu.Unlock()

	args, ok := r.byID[id]
	require.True(t, ok, "restaurant %s not found", id)
	return restaurant.Rehydrate(args)
}

func (r *RestaurantRepo) Count() int {
	r.mu.Lock()
	defer r.mu.Unlock()

	return len(r.byID)
}
