package postgres

import (
	"context"
	"log/slog"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"gitlab.com/eatsapp/accounts-backend/internal/domain/account"
	"gitlab.com/eatsapp/accounts-backend/pkg/errorx"
	"gitlab.com/eatsapp/accounts-backend/pkg/otelx"
	"gitlab.com/eatsapp/accounts-backend/pkg/postgres"
)

const insertAccountQuery = `
	INSERT INTO accounts (email, pass_hash, role, verified, created_at, updated_at)
	VALUES ($1, $2, $3, $4, $5, $6)
	RETURNING id;`

type AccountRepo struct {
	tracer trace.Tracer
	logger *slog.Logger
	pool   *pgxpool.Pool
}

// NewAccountRepo creates a new instance of AccountRepo.
//
// WARNING: panics if pool is nil
func NewAccountRepo(pool *pgxpool.Pool, t trace.Tracer, l *slog.Logger) *AccountRepo {
	if pool == nil {
		panic("pgxpool.Pool cannot be nil")
	}
	if t == nil {
		t = tracer
	}
	if l == nil {
		l = logger
	}

	return &AccountRepo{
		tracer: t,
		logger: l,
		pool:   pool,
	}
}

// SaveAccount inserts a and assigns it the generated id. An email already in
// use yields an errorx duplicate-entry error.
func (r *AccountRepo) SaveAccount(ctx context.Context, a *account.Account) error {
	const op = "postgres.AccountRepo.SaveAccount"
	ctx, span := r.tracer.Start(ctx, "AccountRepo.SaveAccount")
	defer span.End()

	dto := DomainToAccountDTO(a)
	var id int64
	err := q(ctx, r.pool).QueryRow(ctx, insertAccountQuery,
		dto.Email,
		dto.PassHash,
		dto.Role,
		dto.Verified,
		dto.CreatedAt,
		dto.UpdatedAt,
	).Scan(&id)
	if err != nil {
		otelx.RecordSpanError(span, err, "failed to insert account")
		return translate(err, op)
	}

	if err := a.AssignID(account.ID(id)); err != nil {
		otelx.RecordSpanError(span, err, "failed to assign account id")
		return errorx.Wrap(err, op)
	}
	span.SetAttributes(attribute.Int64("account.id", id))

	return nil
}

func (r *AccountRepo) GetAccountByID(ctx context.Context, id account.ID) (*account.Account, error) {
	const op = "postgres.AccountRepo.GetAccountByID"
	ctx, span := r.tracer.Start(ctx, "AccountRepo.GetAccountByID",
		trace.WithAttributes(attribute.Int64("account.id", int64(id))),
	)
	defer span.End()

	var dto AccountDTO
	err := q(ctx, r.pool).
		QueryRow(ctx, `SELECT `+accountColumns+` FROM accounts WHERE id = $1;`, int64(id)).
		Scan(dto.scanTargets()...)
	if err != nil {
		otelx.RecordSpanError(span, err, "failed to get account by id")
		return nil, translate(err, op)
	}

	return AccountToDomain(dto), nil
}

func (r *AccountRepo) GetAccountByEmail(ctx context.Context, email string) (*account.Account, error) {
	const op = "postgres.AccountRepo.GetAccountByEmail"
	ctx, span := r.tracer.Start(ctx, "AccountRepo.GetAccountByEmail")
	defer span.End()

	var dto AccountDTO
	err := q(ctx, r.pool).
		QueryRow(ctx, `SELECT `+accountColumns+` FROM accounts WHERE email = $1;`, email).
		Scan(dto.scanTargets()...)
	if err != nil {
		otelx.RecordSpanError(span, err, "failed to get account by email")
		return nil, translate(err, op)
	}

	return AccountToDomain(dto), nil
}

// GetCredentialsByEmail reads only what a login needs.
func (r *AccountRepo) GetCredentialsByEmail(ctx context.Context, email string) (account.Credentials, error) {
	const op = "postgres.AccountRepo.GetCredentialsByEmail"
	ctx, span := r.tracer.Start(ctx, "AccountRepo.GetCredentialsByEmail")
	defer span.End()

	var (
		id       int64
		passHash []byte
	)
	err := q(ctx, r.pool).
		QueryRow(ctx, `SELECT id, pass_hash FROM accounts WHERE email = $1;`, email).
		Scan(&id, &passHash)
	if err != nil {
		otelx.RecordSpanError(span, err, "failed to get credentials by email")
		return account.Credentials{}, translate(err, op)
	}

	return account.Credentials{ID: account.ID(id), PassHash: passHash}, nil
}

// UpdateAccount locks the row, applies fn and writes the result back in one
// transaction. Errors marked errorx.Persistable still commit.
func (r *AccountRepo) UpdateAccount(
	ctx context.Context,
	id account.ID,
	fn func(ctx context.Context, a *account.Account) error,
) error {
	const op = "postgres.AccountRepo.UpdateAccount"
	ctx, span := r.tracer.Start(ctx, "AccountRepo.UpdateAccount",
		trace.WithAttributes(attribute.Int64("account.id", int64(id))),
	)
	defer span.End()
	if fn == nil {
		otelx.RecordSpanError(span, ErrNilFunc, "update function cannot be nil")
		return ErrNilFunc
	}

	err := postgres.WithTx(ctx, r.pool, func(ctx context.Context, tx pgx.Tx) error {
		var dto AccountDTO
		err := tx.QueryRow(ctx, `SELECT `+accountColumns+` FROM accounts WHERE id = $1 FOR UPDATE;`, int64(id)).
			Scan(dto.scanTargets()...)
		if err != nil {
			otelx.RecordSpanError(span, err, "failed to lock account")
			return translate(err, op)
		}

		a := AccountToDomain(dto)
		fnerr := fn(ctx, a)
		if fnerr != nil && !errorx.IsPersistable(fnerr) {
			otelx.RecordSpanError(span, fnerr, "update function returned an error and cannot continue")
			return errorx.Wrap(fnerr, op)
		}

		if err := updateAccount(ctx, tx, a); err != nil {
			otelx.RecordSpanError(span, err, "failed to update account")
			return translate(err, op)
		}

		if fnerr != nil {
			otelx.RecordSpanError(span, fnerr, "update function returned an error but is allowed to continue")
			return errorx.Wrap(fnerr, op)
		}
		return nil
	})
	if err != nil {
		otelx.RecordSpanError(span, err, "transaction to update account failed")
		return err
	}

	return nil
}

func updateAccount(ctx context.Context, tx pgx.Tx, a *account.Account) error {
	dto := DomainToAccountDTO(a)
	res, err := tx.Exec(ctx, `
		UPDATE accounts
		SET email = $2, pass_hash = $3, role = $4, verified = $5, updated_at = $6
		WHERE id = $1;`,
		dto.ID,
		dto.Email,
		dto.PassHash,
		dto.Role,
		dto.Verified,
		dto.UpdatedAt,
	)
	if err != nil {
		return err
	}
	if res.RowsAffected() == 0 {
		return ErrNoRowsAffected
	}
	return nil
}
