package account

import (
	"strconv"
	"time"

	"github.com/ARUMANDESU/validation"

	"gitlab.com/eatsapp/accounts-backend/internal/domain/valueobject/role"
	"gitlab.com/eatsapp/accounts-backend/pkg/env"
	"gitlab.com/eatsapp/accounts-backend/pkg/validationx"
)

// ID is assigned by storage when the account is first saved.
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

// Account is the identity aggregate. The verified flag is false on creation
// and after every email change; only a verification redemption sets it.
type Account struct {
	id        ID
	email     string
	passHash  []byte
	role      role.Role
	verified  bool
	createdAt time.Time
	updatedAt time.Time
}

type NewAccountArgs struct {
	Email    string    `json:"email"`
	PassHash []byte    `json:"password_hash"`
	Role     role.Role `json:"role"`
	Mode     env.Mode  `json:"-"`
}

func NewAccount(args NewAccountArgs) (*Account, error) {
	err := validation.ValidateStruct(&args,
		validation.Field(&args.Email, EmailRules(args.Mode)...),
		validation.Field(&args.PassHash, validation.Required),
		validation.Field(&args.Role, validation.Required),
	)
	if err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	return &Account{
		email:     args.Email,
		passHash:  args.PassHash,
		role:      args.Role,
		verified:  false,
		createdAt: now,
		updatedAt: now,
	}, nil
}

type RehydrateAccountArgs struct {
	ID        ID
	Email     string
	PassHash  []byte
	Role      role.Role
	Verified  bool
	CreatedAt time.Time
	UpdatedAt time.Time
}

func RehydrateAccount(args RehydrateAccountArgs) *Account {
	return &Account{
		id:        args.ID,
		email:     args.Email,
		passHash:  args.PassHash,
		role:      args.Role,
		verified:  args.Verified,
		createdAt: args.CreatedAt,
		updatedAt: args.UpdatedAt,
	}
}

// EmailRules are stricter in deployed modes, where the domain must have a real public suffix.
func EmailRules(mode env.Mode) []validation.Rule {
	rules := append([]validation.Rule{}, validationx.EmailRules...)
	if mode.Deployed() {
		rules = append(rules, validationx.RealDomain)
	}
	return rules
}

func ValidateEmail(email string, mode env.Mode) error {
	return validation.Validate(email, EmailRules(mode)...)
}

// AssignID records the storage generated identity. It can only happen once.
func (a *Account) AssignID(id ID) error {
	if a == nil {
		return ErrNilAccount
	}
	if id <= 0 {
		return ErrInvalidID
	}
	if !a.id.IsZero() {
		return ErrIDAlreadyAssigned
	}
	a.id = id
	return nil
}

// ChangeEmail replaces the email and drops the verified flag. Setting the
// current value again is a no-op and reports changed=false.
func (a *Account) ChangeEmail(email string, mode env.Mode) (changed bool, err error) {
	if a == nil {
		return false, ErrNilAccount
	}
	if email == a.email {
		return false, nil
	}
	if err := ValidateEmail(email, mode); err != nil {
		return false, validation.Errors{"email": err}
	}

	a.email = email
	a.verified = false
	a.updatedAt = time.Now().UTC()
	return true, nil
}

// SetPassHash stores a new digest. Verification state is not affected.
func (a *Account) SetPassHash(passHash []byte) error {
	if a == nil {
		return ErrNilAccount
	}
	if len(passHash) == 0 {
		return ErrMissingPassHash
	}

	a.passHash = passHash
	a.updatedAt = time.Now().UTC()
	return nil
}

func (a *Account) MarkVerified() error {
	if a == nil {
		return ErrNilAccount
	}
	if a.verified {
		return nil
	}

	a.verified = true
	a.updatedAt = time.Now().UTC()
	return nil
}

func (a *Account) ID() ID {
	if a == nil {
		return 0
	}
	return a.id
}

func (a *Account) Email() string {
	if a == nil {
		return ""
	}
	return a.email
}

func (a *Account) PassHash() []byte {
	if a == nil {
		return nil
	}
	return a.passHash
}

func (a *Account) Role() role.Role {
	if a == nil {
		return ""
	}
	return a.role
}

func (a *Account) Verified() bool {
	if a == nil {
		return false
	}
	return a.verified
}

func (a *Account) CreatedAt() time.Time {
	if a == nil {
		return time.Time{}
	}
	return a.createdAt
}

func (a *Account) UpdatedAt() time.Time {
	if a == nil {
		return time.Time{}
	}
	return a.updatedAt
}

// Credentials is the minimal projection needed to authenticate a login.
type Credentials struct {
	ID       ID
	PassHash []byte
}
