// Package pg implementa el adapter PostgreSQL usando pgxpool.
package pg

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/dropDatabas3/userauth/internal/domain/repository"
	"github.com/dropDatabas3/userauth/internal/store"
)

func init() {
	store.RegisterAdapter(&postgresAdapter{})
}

type postgresAdapter struct{}

func (a *postgresAdapter) Name() string { return "postgres" }

func (a *postgresAdapter) Connect(ctx context.Context, cfg store.AdapterConfig) (store.AdapterConnection, error) {
	poolCfg, err := pgxpool.ParseConfig(cfg.DSN)
	if err != nil {
		return nil, fmt.Errorf("pg: parse DSN: %w", err)
	}

	if cfg.MaxOpenConns > 0 {
		poolCfg.MaxConns = int32(cfg.MaxOpenConns)
	} else {
		poolCfg.MaxConns = 10
	}
	if cfg.MinConns > 0 {
		poolCfg.MinConns = int32(cfg.MinConns)
	} else {
		poolCfg.MinConns = 2
	}
	if cfg.ConnMaxLifetime != "" {
		d, err := time.ParseDuration(cfg.ConnMaxLifetime)
		if err != nil {
			return nil, fmt.Errorf("pg: conn_max_lifetime: %w", err)
		}
		poolCfg.MaxConnLifetime = d
	}

	pool, err := pgxpool.NewWithConfig(ctx, poolCfg)
	if err != nil {
		return nil, fmt.Errorf("pg: create pool: %w", err)
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("pg: ping failed: %w", err)
	}

	return NewConnection(pool), nil
}

// Connection envuelve un pool ya abierto. Exportado para tests de integración
// y para cmd/migrate.
type Connection struct {
	pool  *pgxpool.Pool
	users *userRepo
	otps  *otpRepo
}

// NewConnection crea una conexión sobre un pool existente.
func NewConnection(pool *pgxpool.Pool) *Connection {
	return &Connection{
		pool:  pool,
		users: &userRepo{pool: pool},
		otps:  &otpRepo{pool: pool},
	}
}

func (c *Connection) Name() string { return "postgres" }

func (c *Connection) Ping(ctx context.Context) error { return c.pool.Ping(ctx) }

func (c *Connection) Close() error {
	c.pool.Close()
	return nil
}

func (c *Connection) Pool() *pgxpool.Pool { return c.pool }

func (c *Connection) Users() repository.UserRepository { return c.users }
func (c *Connection) OTPs() repository.OTPRepository   { return c.otps }

// ─── helpers ───

// mapErr traduce errores de pgx al vocabulario de repository.
func mapErr(op string, err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, pgx.ErrNoRows) {
		return repository.ErrNotFound
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == "23505" { // unique_violation
		return repository.Conflict(conflictField(pgErr.ConstraintName))
	}
	return fmt.Errorf("pg: %s: %w", op, err)
}

// conflictField deduce la columna a partir del nombre del constraint
// (users_email_key, users_phone_key).
func conflictField(constraint string) string {
	switch {
	case strings.Contains(constraint, "email"):
		return "email"
	case strings.Contains(constraint, "phone"):
		return "phone"
	}
	return ""
}
