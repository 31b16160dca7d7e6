package postgres

import (
	"time"

	"github.com/google/uuid"

	"gitlab.com/eatsapp/accounts-backend/internal/domain/account"
	"gitlab.com/eatsapp/accounts-backend/internal/domain/restaurant"
	"gitlab.com/eatsapp/accounts-backend/internal/domain/valueobject/role"
	"gitlab.com/eatsapp/accounts-backend/internal/domain/verification"
)

type AccountDTO struct {
	ID        int64
	Email     string
	PassHash  []byte
	Role      string
	Verified  bool
	CreatedAt time.Time
	UpdatedAt time.Time
}

type VerificationDTO struct {
	ID        uuid.UUID
	Code      string
	AccountID int64
	CreatedAt time.Time
}

func DomainToAccountDTO(a *account.Account) AccountDTO {
	return AccountDTO{
		ID:        int64(a.ID()),
		Email:     a.Email(),
		PassHash:  a.PassHash(),
		Role:      a.Role().String(),
		Verified:  a.Verified(),
		CreatedAt: a.CreatedAt(),
		UpdatedAt: a.UpdatedAt(),
	}
}

func AccountToDomain(dto AccountDTO) *account.Account {
	return account.RehydrateAccount(account.RehydrateAccountArgs{
		ID:        account.ID(dto.ID),
		Email:     dto.Email,
		PassHash:  dto.PassHash,
		Role:      role.Role(dto.Role),
		Verified:  dto.Verified,
		CreatedAt: dto.CreatedAt.UTC(),
		UpdatedAt: dto.UpdatedAt.UTC(),
	})
}

// scanTargets lists the DTO fields in accountColumns order.
func (dto *AccountDTO) scanTargets() []any {
	return []any{&dto.ID, &dto.Email, &dto.PassHash, &dto.Role, &dto.Verified, &dto.CreatedAt, &dto.UpdatedAt}
}

const accountColumns = `id, email, pass_hash, role, verified, created_at, updated_at`

func DomainToVerificationDTO(v *verification.Verification) VerificationDTO {
	return VerificationDTO{
		ID:        v.ID(),
		Code:      v.Code(),
		AccountID: int64(v.AccountID()),
		CreatedAt: v.CreatedAt(),
	}
}

func VerificationToDomain(dto VerificationDTO) *verification.Verification {
	return verification.Rehydrate(verification.RehydrateArgs{
		ID:        dto.ID,
		Code:      dto.Code,
		AccountID: account.ID(dto.AccountID),
		CreatedAt: dto.CreatedAt.UTC(),
	})
}

type RestaurantDTO struct {
	ID           int64
	Name         string
	IsVegan      bool
	Address      string
	OwnersName   string
	CategoryName string
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

func DomainToRestaurantDTO(r *restaurant.Restaurant) RestaurantDTO {
	return RestaurantDTO{
		ID:           int64(r.ID()),
		Name:         r.Name(),
		IsVegan:      r.IsVegan(),
		Address:      r.Address(),
		OwnersName:   r.OwnersName(),
		CategoryName: r.CategoryName(),
		CreatedAt:    r.CreatedAt(),
		UpdatedAt:    r.UpdatedAt(),
	}
}

func RestaurantToDomain(dto RestaurantDTO) *restaurant.Restaurant {
	return restaurant.Rehydrate(restaurant.RehydrateArgs{
		ID:           restaurant.ID(dto.ID),
		Name:         dto.Name,
		IsVegan:      dto.IsVegan,
		Address:      dto.Address,
		OwnersName:   dto.OwnersName,
		CategoryName: dto.CategoryName,
		CreatedAt:    dto.CreatedAt.UTC(),
		UpdatedAt:    dto.UpdatedAt.UTC(),
	})
}

// scanTargets lists the DTO fields in restaurantColumns order.
func (dto *RestaurantDTO) scanTargets() []any {
	return []any{&dto.ID, &dto.Name, &dto.IsVegan, &dto.Address, &dto.OwnersName, &dto.CategoryName, &dto.CreatedAt, &dto.UpdatedAt}
}

const restaurantColumns = `id, name, is_vegan, address, owners_name, category_name, created_at, updated_at`
