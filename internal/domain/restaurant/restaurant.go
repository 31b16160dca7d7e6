package restaurant

import (
	"errors"
	"strconv"
	"time"

	"github.com/ARUMANDESU/validation"

	"gitlab.com/eatsapp/accounts-backend/pkg/errorx"
)

const (
	MinNameLen = 5
	MaxNameLen = 100
	MaxTextLen = 255
)

var ErrNotFound = errorx.NewNotFound().WithKey("restaurant_not_found")

var (
	ErrNilRestaurant     = errors.New("restaurant is nil")
	ErrInvalidID         = errors.New("restaurant id must be a positive integer")
	ErrIDAlreadyAssigned = errors.New("restaurant id is already assigned")
)

type ID int64

func (id ID) String() string {
	return strconv.FormatInt(int64(id), 10)
}

func (id ID) IsZero() bool {
	return id == 0
}

func ParseID(s string) (ID, error) {
	n, err := strconv.ParseInt(s, 10, 64)
	if err != nil || n <= 0 {
		return 0, ErrInvalidID
	}
	return ID(n), nil
}

type Restaurant struct {
	id           ID
	name         string
	isVegan      bool
	address      string
	ownersName   string
	categoryName string
	createdAt    time.Time
	updatedAt    time.Time
}

var (
	nameRules = []validation.Rule{validation.Required, validation.RuneLength(MinNameLen, MaxNameLen)}
	textRules = []validation.Rule{validation.Required, validation.RuneLength(1, MaxTextLen)}
)

type NewRestaurantArgs struct {
	Name string `json:"name"`
	// IsVegan defaults to true when absent.
	IsVegan      *bool  `json:"isVegan"`
	Address      string `json:"address"`
	OwnersName   string `json:"ownersName"`
	CategoryName string `json:"categoryName"`
}

func NewRestaurant(args NewRestaurantArgs) (*Restaurant, error) {
	err := validation.ValidateStruct(&args,
		validation.Field(&args.Name, nameRules...),
		validation.Field(&args.Address, textRules...),
		validation.Field(&args.OwnersName, textRules...),
		validation.Field(&args.CategoryName, textRules...),
	)
	if err != nil {
		return nil, err
	}

	isVegan := true
	if args.IsVegan != nil {
		isVegan = *args.IsVegan
	}

	now := time.Now().UTC()
	return &Restaurant{
		name:         args.Name,
		isVegan:      isVegan,
		address:      args.Address,
		ownersName:   args.OwnersName,
		categoryName: args.CategoryName,
		createdAt:    now,
		updatedAt:    now,
	}, nil
}

type RehydrateArgs struct {
	ID           ID
	Name         string
	IsVegan      bool
	Address      string
	OwnersName   string
	CategoryName string
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

func Rehydrate(args RehydrateArgs) *Restaurant {
	return &Restaurant{
		id:           args.ID,
		name:         args.Name,
		isVegan:      args.IsVegan,
		address:      args.Address,
		ownersName:   args.OwnersName,
		categoryName: args.CategoryName,
		createdAt:    args.CreatedAt,
		updatedAt:    args.UpdatedAt,
	}
}

// Patch holds optional replacements; nil fields are left alone.
type Patch struct {
	Name         *string `json:"name"`
	IsVegan      *bool   `json:"isVegan"`
	Address      *string `json:"address"`
	OwnersName   *string `json:"ownersName"`
	CategoryName *string `json:"categoryName"`
}

func (p Patch) IsEmpty() bool {
	return p.Name == nil && p.IsVegan == nil && p.Address == nil && p.OwnersName == nil && p.CategoryName == nil
}

func (p Patch) Validate() error {
	return validation.ValidateStruct(&p,
		validation.Field(&p.Name, validation.When(p.Name != nil, nameRules...)),
		validation.Field(&p.Address, validation.When(p.Address != nil, textRules...)),
		validation.Field(&p.OwnersName, validation.When(p.OwnersName != nil, textRules...)),
		validation.Field(&p.CategoryName, validation.When(p.CategoryName != nil, textRules...)),
	)
}

// Apply validates p and copies its set fields onto r.
func (r *Restaurant) Apply(p Patch) error {
	if r == nil {
		return ErrNilRestaurant
	}
	if err := p.Validate(); err != nil {
		return err
	}
	if p.IsEmpty() {
		return nil
	}

	if p.Name != nil {
		r.name = *p.Name
	}
	if p.IsVegan != nil {
		r.isVegan = *p.IsVegan
	}
	if p.Address != nil {
		r.address = *p.Address
	}
	if p.OwnersName != nil {
		r.ownersName = *p.OwnersName
	}
	if p.CategoryName != nil {
		r.categoryName = *p.CategoryName
	}
	r.updatedAt = time.Now().UTC()
	return nil
}

// AssignID records the storage generated identity. It can only happen once.
func (r *Restaurant) AssignID(id ID) error {
	if r == nil {
		return ErrNilRestaurant
	}
	if id <= 0 {
		return ErrInvalidID
	}
	if !r.id.IsZero() {
		return ErrIDAlreadyAssigned
	}
	r.id = id
	return nil
}

func (r *Restaurant) ID() ID {
	if r == nil {
		return 0
	}
	return r.id
}

func (r *Restaurant) Name() string {
	if r == nil {
		return ""
	}
	return r.name
}

func (r *Restaurant) IsVegan() bool {
	if r == nil {
		return false
	}
	return r.isVegan
}

func (r *Restaurant) Address() string {
	if r == nil {
		return ""
	}
	return r.address
}

func (r *Restaurant) OwnersName() string {
	if r == nil {
		return ""
	}
	return r.ownersName
}

func (r *Restaurant) CategoryName() string {
	if r == nil {
		return ""
	}
	return r.categoryName
}

func (r *Restaurant) CreatedAt() time.Time {
	if r == nil {
		return time.Time{}
	}
	return r.createdAt
}

func (r *Restaurant) UpdatedAt() time.Time {
	if r == nil {
		return time.Time{}
	}
	return r.updatedAt
}
