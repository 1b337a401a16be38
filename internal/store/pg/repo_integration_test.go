package pg

import (
	"context"
	"os"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/stretchr/testify/require"

	"github.com/dropDatabas3/userauth/internal/domain/repository"
	"github.com/dropDatabas3/userauth/internal/domain/types"
	migrations "github.com/dropDatabas3/userauth/migrations/postgres"
)

// Requieren una base real: DATABASE_URL=postgres://... go test ./internal/store/pg/
func openTestConn(t *testing.T) *Connection {
	t.Helper()
	dsn := os.Getenv("DATABASE_URL")
	if dsn == "" {
		t.Skip("requires DATABASE_URL")
	}
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	pool, err := pgxpool.New(ctx, dsn)
	require.NoError(t, err)
	t.Cleanup(pool.Close)
	require.NoError(t, pool.Ping(ctx))

	_, err = Migrate(ctx, pool, migrations.FS, "up", 0)
	require.NoError(t, err)
	return NewConnection(pool)
}

// uniqueEmail evita choques entre corridas sobre la misma base.
func uniqueEmail(t *testing.T, c *Connection, local string) string {
	t.Helper()
	addr := local + "+" + strings.ReplaceAll(uuid.NewString(), "-", "")[:12] + "@example.com"
	t.Cleanup(func() {
		ctx := context.Background()
		_, _ = c.pool.Exec(ctx, `DELETE FROM users WHERE email = $1`, addr)
		_, _ = c.pool.Exec(ctx, `DELETE FROM otps WHERE email = $1`, addr)
	})
	return addr
}

func ptr[T any](v T) *T { return &v }

func TestPGUserRepository(t *testing.T) {
	c := openTestConn(t)
	ctx := context.Background()
	users := c.Users()

	addr := uniqueEmail(t, c, "alice")
	phone := "+54" + strings.ReplaceAll(uuid.NewString(), "-", "")[:10]
	u, err := users.Create(ctx, repository.CreateUserInput{
		Email:        addr,
		PasswordHash: ptr("$argon2id$v=19$m=1024,t=1,p=1$c2FsdA$aGFzaA"),
		FullName:     "Alice Liddell",
		Phone:        &phone,
	})
	require.NoError(t, err)
	require.Equal(t, types.AccountUser, u.AccountType)
	require.True(t, u.IsActive)
	require.False(t, u.IsEmailVerified)

	t.Run("duplicates map to conflict", func(t *testing.T) {
		_, err := users.Create(ctx, repository.CreateUserInput{Email: addr, FullName: "Dup"})
		require.ErrorIs(t, err, repository.ErrConflict)
		require.Equal(t, "email", repository.ConflictField(err))

		other := uniqueEmail(t, c, "bob")
		_, err = users.Create(ctx, repository.CreateUserInput{Email: other, FullName: "Bob", Phone: &phone})
		require.ErrorIs(t, err, repository.ErrConflict)
		require.Equal(t, "phone", repository.ConflictField(err))
	})

	t.Run("lookups", func(t *testing.T) {
		got, err := users.FindByEmail(ctx, addr)
		require.NoError(t, err)
		require.Equal(t, u.ID, got.ID)

		got, err = users.FindByPhone(ctx, phone)
		require.NoError(t, err)
		require.Equal(t, u.ID, got.ID)

		_, err = users.FindByID(ctx, "not-a-uuid")
		require.ErrorIs(t, err, repository.ErrNotFound)
		_, err = users.FindByID(ctx, uuid.NewString())
		require.ErrorIs(t, err, repository.ErrNotFound)
	})

	t.Run("update and refresh hash", func(t *testing.T) {
		got, err := users.Update(ctx, u.ID, repository.UpdateUserInput{
			FullName:        ptr("Alice L."),
			IsEmailVerified: ptr(true),
		})
		require.NoError(t, err)
		require.Equal(t, "Alice L.", got.FullName)
		require.True(t, got.IsEmailVerified)
		require.False(t, got.UpdatedAt.Before(u.UpdatedAt))

		require.NoError(t, users.SetRefreshTokenHash(ctx, u.ID, ptr("digest")))
		got, err = users.FindByID(ctx, u.ID)
		require.NoError(t, err)
		require.NotNil(t, got.RefreshTokenHash)
		require.Equal(t, "digest", *got.RefreshTokenHash)

		require.NoError(t, users.SetRefreshTokenHash(ctx, u.ID, nil))
		got, _ = users.FindByID(ctx, u.ID)
		require.Nil(t, got.RefreshTokenHash)

		require.ErrorIs(t, users.SetRefreshTokenHash(ctx, uuid.NewString(), nil), repository.ErrNotFound)
	})

	t.Run("search", func(t *testing.T) {
		list, total, err := users.List(ctx, repository.ListUsersFilter{Search: "alice l", Limit: 50})
		require.NoError(t, err)
		require.GreaterOrEqual(t, total, 1)
		found := false
		for _, x := range list {
			found = found || x.ID == u.ID
		}
		require.True(t, found)

		// los comodines de LIKE se buscan literales
		_, total, err = users.List(ctx, repository.ListUsersFilter{Search: "%_%" + uuid.NewString()})
		require.NoError(t, err)
		require.Zero(t, total)
	})

	t.Run("delete", func(t *testing.T) {
		require.NoError(t, users.Delete(ctx, u.ID))
		require.ErrorIs(t, users.Delete(ctx, u.ID), repository.ErrNotFound)
		_, err := users.FindByEmail(ctx, addr)
		require.ErrorIs(t, err, repository.ErrNotFound)
	})
}

func TestPGOTPUpsertReplaces(t *testing.T) {
	c := openTestConn(t)
	ctx := context.Background()
	otps := c.OTPs()
	addr := uniqueEmail(t, c, "otp")

	_, err := otps.FindLatest(ctx, addr)
	require.ErrorIs(t, err, repository.ErrNotFound)

	first, err := otps.Upsert(ctx, addr, "1111", time.Now().Add(10*time.Minute))
	require.NoError(t, err)
	second, err := otps.Upsert(ctx, addr, "2222", time.Now().Add(10*time.Minute))
	require.NoError(t, err)
	require.NotEqual(t, first.ID, second.ID)

	latest, err := otps.FindLatest(ctx, addr)
	require.NoError(t, err)
	require.Equal(t, second.ID, latest.ID)
	require.Equal(t, "2222", latest.Code)

	// el id reemplazado ya no existe
	require.ErrorIs(t, otps.Delete(ctx, first.ID), repository.ErrNotFound)
	require.NoError(t, otps.Delete(ctx, second.ID))
	require.ErrorIs(t, otps.Delete(ctx, second.ID), repository.ErrNotFound)
}

func TestPGOTPConcurrentUpsertKeepsOne(t *testing.T) {
	c := openTestConn(t)
	ctx := context.Background()
	addr := uniqueEmail(t, c, "race")

	var wg sync.WaitGroup
	errs := make(chan error, 8)
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, err := c.OTPs().Upsert(ctx, addr, strings.Repeat(string(rune('0'+i)), 4), time.Now().Add(time.Minute))
			errs <- err
		}(i)
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		require.NoError(t, err)
	}

	var n int
	require.NoError(t, c.pool.QueryRow(ctx, `SELECT COUNT(*) FROM otps WHERE email = $1`, addr).Scan(&n))
	require.Equal(t, 1, n)
}
