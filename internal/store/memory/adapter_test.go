package memory

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/dropDatabas3/userauth/internal/domain/repository"
	"github.com/dropDatabas3/userauth/internal/domain/types"
	"github.com/dropDatabas3/userauth/internal/store"
)

func strPtr(s string) *string { return &s }

func TestAdapterRegistered(t *testing.T) {
	conn, err := store.OpenAdapter(context.Background(), store.AdapterConfig{Name: "memory"})
	require.NoError(t, err)
	require.Equal(t, "memory", conn.Name())
	require.NoError(t, conn.Ping(context.Background()))
}

func TestUsers_CreateConflicts(t *testing.T) {
	ctx := context.Background()
	users := New().Users()

	u, err := users.Create(ctx, repository.CreateUserInput{
		Email: "alice@example.com", FullName: "Alice", Phone: strPtr("5551234567"),
	})
	require.NoError(t, err)
	require.True(t, u.IsActive)
	require.Equal(t, types.AccountUser, u.AccountType)

	_, err = users.Create(ctx, repository.CreateUserInput{Email: "alice@example.com", FullName: "Other"})
	require.ErrorIs(t, err, repository.ErrConflict)
	require.Equal(t, "email", repository.ConflictField(err))

	_, err = users.Create(ctx, repository.CreateUserInput{
		Email: "bob@example.com", FullName: "Bob", Phone: strPtr("5551234567"),
	})
	require.Equal(t, "phone", repository.ConflictField(err))

	// dos cuentas sin teléfono no colisionan
	_, err = users.Create(ctx, repository.CreateUserInput{Email: "c@example.com"})
	require.NoError(t, err)
	_, err = users.Create(ctx, repository.CreateUserInput{Email: "d@example.com"})
	require.NoError(t, err)
}

func TestUsers_UpdateReturnsCopy(t *testing.T) {
	ctx := context.Background()
	users := New().Users()

	u, err := users.Create(ctx, repository.CreateUserInput{Email: "a@example.com", FullName: "A"})
	require.NoError(t, err)

	inactive := false
	upd, err := users.Update(ctx, u.ID, repository.UpdateUserInput{IsActive: &inactive, FullName: strPtr("Alpha")})
	require.NoError(t, err)
	require.False(t, upd.IsActive)
	require.Equal(t, "Alpha", upd.FullName)

	upd.FullName = "mutated"
	again, err := users.FindByID(ctx, u.ID)
	require.NoError(t, err)
	require.Equal(t, "Alpha", again.FullName)

	_, err = users.Update(ctx, "missing", repository.UpdateUserInput{})
	require.ErrorIs(t, err, repository.ErrNotFound)
}

func TestUsers_ListFiltersAndPaginates(t *testing.T) {
	ctx := context.Background()
	users := New().Users()

	for _, name := range []string{"Carol", "alice", "Bob", "Alan"} {
		_, err := users.Create(ctx, repository.CreateUserInput{Email: name + "@example.com", FullName: name})
		require.NoError(t, err)
	}
	_, err := users.Create(ctx, repository.CreateUserInput{
		Email: "root@example.com", FullName: "Root Al", AccountType: types.AccountSuperAdmin,
	})
	require.NoError(t, err)

	page, total, err := users.List(ctx, repository.ListUsersFilter{AccountType: types.AccountUser, Limit: 3})
	require.NoError(t, err)
	require.Equal(t, 4, total)
	require.Len(t, page, 3)

	page, total, err = users.List(ctx, repository.ListUsersFilter{AccountType: types.AccountUser, Limit: 3, Offset: 3})
	require.NoError(t, err)
	require.Equal(t, 4, total)
	require.Len(t, page, 1)

	found, total, err := users.List(ctx, repository.ListUsersFilter{Search: "AL", Limit: 10})
	require.NoError(t, err)
	require.Equal(t, 3, total)
	require.Equal(t, "Alan", found[0].FullName)
}

func TestOTPs_UpsertReplacesAndDeleteOnce(t *testing.T) {
	ctx := context.Background()
	otps := New().OTPs()
	exp := time.Now().Add(10 * time.Minute)

	first, err := otps.Upsert(ctx, "a@example.com", "1111", exp)
	require.NoError(t, err)
	second, err := otps.Upsert(ctx, "a@example.com", "2222", exp)
	require.NoError(t, err)
	require.NotEqual(t, first.ID, second.ID)

	latest, err := otps.FindLatest(ctx, "a@example.com")
	require.NoError(t, err)
	require.Equal(t, "2222", latest.Code)

	// el id reemplazado ya no existe
	require.ErrorIs(t, otps.Delete(ctx, first.ID), repository.ErrNotFound)

	var ok int32
	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if otps.Delete(ctx, second.ID) == nil {
				atomic.AddInt32(&ok, 1)
			}
		}()
	}
	wg.Wait()
	require.Equal(t, int32(1), ok)

	_, err = otps.FindLatest(ctx, "a@example.com")
	require.ErrorIs(t, err, repository.ErrNotFound)
}
