package postgres

import (
	"context"
	"log/slog"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"gitlab.com/eatsapp/accounts-backend/internal/domain/account"
	"gitlab.com/eatsapp/accounts-backend/internal/domain/verification"
	"gitlab.com/eatsapp/accounts-backend/pkg/errorx"
	"gitlab.com/eatsapp/accounts-backend/pkg/otelx"
	"gitlab.com/eatsapp/accounts-backend/pkg/postgres"
)

type VerificationRepo struct {
	tracer trace.Tracer
	logger *slog.Logger
	pool   *pgxpool.Pool
}

// NewVerificationRepo creates a new instance of VerificationRepo.
//
// WARNING: panics if pool is nil
func NewVerificationRepo(pool *pgxpool.Pool, t trace.Tracer, l *slog.Logger) *VerificationRepo {
	if pool == nil {
		panic("pgxpool.Pool cannot be nil")
	}
	if t == nil {
		t = tracer
	}
	if l == nil {
		l = logger
	}

	return &VerificationRepo{
		tracer: t,
		logger: l,
		pool:   pool,
	}
}

// ReplaceVerification drops whatever record v's account has and stores v.
func (r *VerificationRepo) ReplaceVerification(ctx context.Context, v *verification.Verification) error {
	const op = "postgres.VerificationRepo.ReplaceVerification"
	ctx, span := r.tracer.Start(ctx, "VerificationRepo.ReplaceVerification",
		trace.WithAttributes(
			attribute.Int64("account.id", int64(v.AccountID())),
			attribute.String("verification.id", v.ID().String()),
		),
	)
	defer span.End()

	err := postgres.WithTx(ctx, r.pool, func(ctx context.Context, tx pgx.Tx) error {
		res, err := tx.Exec(ctx, `DELETE FROM verifications WHERE account_id = $1;`, int64(v.AccountID()))
		if err != nil {
			otelx.RecordSpanError(span, err, "failed to delete previous verification")
			return translate(err, op)
		}
		span.SetAttributes(attribute.Int64("verification.replaced", res.RowsAffected()))

		dto := DomainToVerificationDTO(v)
		_, err = tx.Exec(ctx, `
			INSERT INTO verifications (id, code, account_id, created_at)
			VALUES ($1, $2, $3, $4);`,
			dto.ID,
			dto.Code,
			dto.AccountID,
			dto.CreatedAt,
		)
		if err != nil {
			otelx.RecordSpanError(span, err, "failed to insert verification")
			return translate(err, op)
		}
		return nil
	})
	if err != nil {
		otelx.RecordSpanError(span, err, "transaction to replace verification failed")
		return err
	}

	return nil
}

// RedeemVerification locks the record for code and its account, applies fn
// to the account, saves it and deletes the record, all in one transaction.
func (r *VerificationRepo) RedeemVerification(
	ctx context.Context,
	code string,
	fn func(ctx context.Context, a *account.Account) error,
) (*account.Account, error) {
	const op = "postgres.VerificationRepo.RedeemVerification"
	ctx, span := r.tracer.Start(ctx, "VerificationRepo.RedeemVerification")
	defer span.End()
	if fn == nil {
		otelx.RecordSpanError(span, ErrNilFunc, "update function cannot be nil")
		return nil, ErrNilFunc
	}

	var redeemed *account.Account
	err := postgres.WithTx(ctx, r.pool, func(ctx context.Context, tx pgx.Tx) error {
		var (
			vdto VerificationDTO
			adto AccountDTO
		)
		err := tx.QueryRow(ctx, `
			SELECT v.id, v.code, v.account_id, v.created_at,
			       a.id, a.email, a.pass_hash, a.role, a.verified, a.created_at, a.updated_at
			FROM verifications v JOIN accounts a ON a.id = v.account_id
			WHERE v.code = $1
			FOR UPDATE;`, code).
			Scan(append([]any{&vdto.ID, &vdto.Code, &vdto.AccountID, &vdto.CreatedAt}, adto.scanTargets()...)...)
		if err != nil {
			otelx.RecordSpanError(span, err, "failed to find verification")
			return translate(err, op)
		}
		span.SetAttributes(
			attribute.String("verification.id", vdto.ID.String()),
			attribute.Int64("account.id", adto.ID),
		)

		a := AccountToDomain(adto)
		if err := fn(ctx, a); err != nil {
			otelx.RecordSpanError(span, err, "redeem function failed")
			return errorx.Wrap(err, op)
		}

		if err := updateAccount(ctx, tx, a); err != nil {
			otelx.RecordSpanError(span, err, "failed to update account")
			return translate(err, op)
		}

		res, err := tx.Exec(ctx, `DELETE FROM verifications WHERE id = $1;`, vdto.ID)
		if err != nil {
			otelx.RecordSpanError(span, err, "failed to delete verification")
			return translate(err, op)
		}
		if res.RowsAffected() == 0 {
			return errorx.Wrap(ErrNoRowsAffected, op)
		}

		redeemed = a
		return nil
	})
	if err != nil {
		otelx.RecordSpanError(span, err, "transaction to redeem verification failed")
		return nil, err
	}

	return redeemed, nil
}

func (r *VerificationRepo) GetVerificationByAccountID(ctx context.Context, id account.ID) (*verification.Verification, error) {
	const op = "postgres.VerificationRepo.GetVerificationByAccountID"
	ctx, span := r.tracer.Start(ctx, "VerificationRepo.GetVerificationByAccountID",
		trace.WithAttributes(attribute.Int64("account.id", int64(id))),
	)
	defer span.End()

	var dto VerificationDTO
	err := q(ctx, r.pool).
		QueryRow(ctx, `SELECT id, code, account_id, created_at FROM verifications WHERE account_id = $1;`, int64(id)).
		Scan(&dto.ID, &dto.Code, &dto.AccountID, &dto.CreatedAt)
	if err != nil {
		otelx.RecordSpanError(span, err, "failed to get verification by account id")
		return nil, translate(err, op)
	}

	return VerificationToDomain(dto), nil
}
