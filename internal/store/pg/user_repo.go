package pg

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/dropDatabas3/userauth/internal/domain/repository"
	"github.com/dropDatabas3/userauth/internal/domain/types"
)

// ─── UserRepository ───

type userRepo struct{ pool *pgxpool.Pool }

const userColumns = `id, email, password_hash, full_name, phone, account_type, is_email_verified,
	is_active, refresh_token_hash, provider, provider_id, profile_pic, created_at, updated_at`

func scanUser(row pgx.Row) (*repository.User, error) {
	var u repository.User
	var accountType string
	err := row.Scan(
		&u.ID, &u.Email, &u.PasswordHash, &u.FullName, &u.Phone, &accountType, &u.IsEmailVerified,
		&u.IsActive, &u.RefreshTokenHash, &u.Provider, &u.ProviderID, &u.ProfilePic, &u.CreatedAt, &u.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	u.AccountType = types.AccountType(accountType)
	return &u, nil
}

func (r *userRepo) findOne(ctx context.Context, op, where string, arg any) (*repository.User, error) {
	row := r.pool.QueryRow(ctx, `SELECT `+userColumns+` FROM users WHERE `+where+` LIMIT 1`, arg)
	u, err := scanUser(row)
	if err != nil {
		return nil, mapErr(op, err)
	}
	return u, nil
}

func (r *userRepo) FindByEmail(ctx context.Context, email string) (*repository.User, error) {
	return r.findOne(ctx, "find user by email", "email = $1", email)
}

func (r *userRepo) FindByID(ctx context.Context, id string) (*repository.User, error) {
	if _, err := uuid.Parse(id); err != nil {
		// un id mal formado no puede existir; evitamos el error de cast de PG
		return nil, repository.ErrNotFound
	}
	return r.findOne(ctx, "find user by id", "id = $1", id)
}

func (r *userRepo) FindByPhone(ctx context.Context, phone string) (*repository.User, error) {
	return r.findOne(ctx, "find user by phone", "phone = $1", phone)
}

func (r *userRepo) Create(ctx context.Context, in repository.CreateUserInput) (*repository.User, error) {
	accountType := in.AccountType
	if accountType == "" {
		accountType = types.AccountUser
	}
	now := time.Now().UTC()

	const q = `
		INSERT INTO users (id, email, password_hash, full_name, phone, account_type, is_email_verified,
		                   is_active, provider, provider_id, profile_pic, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, TRUE, $8, $9, $10, $11, $11)
		RETURNING ` + userColumns

	row := r.pool.QueryRow(ctx, q,
		uuid.NewString(), in.Email, in.PasswordHash, in.FullName, in.Phone, string(accountType),
		in.IsEmailVerified, in.Provider, in.ProviderID, in.ProfilePic, now,
	)
	u, err := scanUser(row)
	if err != nil {
		return nil, mapErr("create user", err)
	}
	return u, nil
}

func (r *userRepo) Update(ctx context.Context, id string, in repository.UpdateUserInput) (*repository.User, error) {
	if _, err := uuid.Parse(id); err != nil {
		return nil, repository.ErrNotFound
	}

	sets := make([]string, 0, 9)
	args := make([]any, 0, 10)
	add := func(col string, v any) {
		args = append(args, v)
		sets = append(sets, fmt.Sprintf("%s = $%d", col, len(args)))
	}
	if in.Email != nil {
		add("email", *in.Email)
	}
	if in.PasswordHash != nil {
		add("password_hash", *in.PasswordHash)
	}
	if in.FullName != nil {
		add("full_name", *in.FullName)
	}
	if in.Phone != nil {
		add("phone", *in.Phone)
	}
	if in.AccountType != nil {
		add("account_type", string(*in.AccountType))
	}
	if in.IsEmailVerified != nil {
		add("is_email_verified", *in.IsEmailVerified)
	}
	if in.IsActive != nil {
		add("is_active", *in.IsActive)
	}
	if in.ProfilePic != nil {
		add("profile_pic", *in.ProfilePic)
	}
	if len(sets) == 0 {
		return r.FindByID(ctx, id)
	}
	add("updated_at", time.Now().UTC())
	args = append(args, id)

	q := fmt.Sprintf(`UPDATE users SET %s WHERE id = $%d RETURNING %s`, strings.Join(sets, ", "), len(args), userColumns)
	u, err := scanUser(r.pool.QueryRow(ctx, q, args...))
	if err != nil {
		return nil, mapErr("update user", err)
	}
	return u, nil
}

func (r *userRepo) SetRefreshTokenHash(ctx context.Context, id string, hash *string) error {
	tag, err := r.pool.Exec(ctx,
		`UPDATE users SET refresh_token_hash = $1, updated_at = $2 WHERE id = $3`,
		hash, time.Now().UTC(), id,
	)
	if err != nil {
		return mapErr("set refresh hash", err)
	}
	if tag.RowsAffected() == 0 {
		return repository.ErrNotFound
	}
	return nil
}

func (r *userRepo) Delete(ctx context.Context, id string) error {
	if _, err := uuid.Parse(id); err != nil {
		return repository.ErrNotFound
	}
	tag, err := r.pool.Exec(ctx, `DELETE FROM users WHERE id = $1`, id)
	if err != nil {
		return mapErr("delete user", err)
	}
	if tag.RowsAffected() == 0 {
		return repository.ErrNotFound
	}
	return nil
}

func (r *userRepo) List(ctx context.Context, f repository.ListUsersFilter) ([]repository.User, int, error) {
	where := []string{"TRUE"}
	args := []any{}
	if f.AccountType != "" {
		args = append(args, string(f.AccountType))
		where = append(where, fmt.Sprintf("account_type = $%d", len(args)))
	}
	order := "created_at DESC"
	if s := strings.TrimSpace(f.Search); s != "" {
		args = append(args, "%"+escapeLike(s)+"%")
		where = append(where, fmt.Sprintf("full_name ILIKE $%d", len(args)))
		order = "full_name ASC"
	}
	cond := strings.Join(where, " AND ")

	limit := f.Limit
	if limit <= 0 {
		limit = 10
	}
	offset := f.Offset
	if offset < 0 {
		offset = 0
	}

	// Página y total en la misma snapshot
	tx, err := r.pool.BeginTx(ctx, pgx.TxOptions{AccessMode: pgx.ReadOnly, IsoLevel: pgx.RepeatableRead})
	if err != nil {
		return nil, 0, fmt.Errorf("pg: begin tx: %w", err)
	}
	defer tx.Rollback(ctx)

	var total int
	if err := tx.QueryRow(ctx, `SELECT COUNT(*) FROM users WHERE `+cond, args...).Scan(&total); err != nil {
		return nil, 0, mapErr("count users", err)
	}

	pageArgs := append(append([]any{}, args...), limit, offset)
	q := fmt.Sprintf(`SELECT %s FROM users WHERE %s ORDER BY %s LIMIT $%d OFFSET $%d`,
		userColumns, cond, order, len(args)+1, len(args)+2)
	rows, err := tx.Query(ctx, q, pageArgs...)
	if err != nil {
		return nil, 0, mapErr("list users", err)
	}
	defer rows.Close()

	out := make([]repository.User, 0, limit)
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, 0, mapErr("scan user", err)
		}
		out = append(out, *u)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, mapErr("list users", err)
	}
	if err := tx.Commit(ctx); err != nil {
		return nil, 0, fmt.Errorf("pg: commit: %w", err)
	}
	return out, total, nil
}

func escapeLike(s string) string {
	r := strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)
	return r.Replace(s)
}
