package pg

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/dropDatabas3/userauth/internal/domain/repository"
)

// ─── OTPRepository ───

type otpRepo struct{ pool *pgxpool.Pool }

func (r *otpRepo) FindLatest(ctx context.Context, email string) (*repository.OTP, error) {
	var o repository.OTP
	err := r.pool.QueryRow(ctx, `
		SELECT id, email, code, expires_at, created_at
		FROM otps
		WHERE email = $1
		ORDER BY created_at DESC
		LIMIT 1
	`, email).Scan(&o.ID, &o.Email, &o.Code, &o.ExpiresAt, &o.CreatedAt)
	if err != nil {
		return nil, mapErr("find otp", err)
	}
	return &o, nil
}

// Upsert reemplaza el OTP del email en una sola sentencia dentro de una tx.
// El unique (email) + ON CONFLICT garantiza un único OTP vivo aunque dos
// requests emitan a la vez; el id se regenera para invalidar lecturas previas.
func (r *otpRepo) Upsert(ctx context.Context, email, code string, expiresAt time.Time) (*repository.OTP, error) {
	tx, err := r.pool.BeginTx(ctx, pgx.TxOptions{IsoLevel: pgx.ReadCommitted})
	if err != nil {
		return nil, fmt.Errorf("pg: begin tx: %w", err)
	}
	defer tx.Rollback(ctx)

	var o repository.OTP
	err = tx.QueryRow(ctx, `
		INSERT INTO otps (id, email, code, expires_at, created_at)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (email) DO UPDATE
		   SET id = EXCLUDED.id,
		       code = EXCLUDED.code,
		       expires_at = EXCLUDED.expires_at,
		       created_at = EXCLUDED.created_at
		RETURNING id, email, code, expires_at, created_at
	`, uuid.NewString(), email, code, expiresAt.UTC(), time.Now().UTC()).
		Scan(&o.ID, &o.Email, &o.Code, &o.ExpiresAt, &o.CreatedAt)
	if err != nil {
		return nil, mapErr("upsert otp", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("pg: commit: %w", err)
	}
	return &o, nil
}

func (r *otpRepo) Delete(ctx context.Context, id string) error {
	if _, err := uuid.Parse(id); err != nil {
		return repository.ErrNotFound
	}
	tag, err := r.pool.Exec(ctx, `DELETE FROM otps WHERE id = $1`, id)
	if err != nil {
		return mapErr("delete otp", err)
	}
	if tag.RowsAffected() == 0 {
		return repository.ErrNotFound
	}
	return nil
}
