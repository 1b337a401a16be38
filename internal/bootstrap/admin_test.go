package bootstrap

import (
	"bytes"
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/dropDatabas3/userauth/internal/domain/types"
	"github.com/dropDatabas3/userauth/internal/security/password"
	"github.com/dropDatabas3/userauth/internal/store/memory"
)

var cheap = password.Params{Memory: 1024, Time: 1, Parallelism: 1, SaltLen: 16, KeyLen: 32}

func TestEnsureSuperAdminNonInteractive(t *testing.T) {
	ctx := context.Background()
	conn := memory.New()

	u, err := EnsureSuperAdmin(ctx, AdminConfig{Users: conn.Users(), Hash: cheap, Email: " Root@Example.com ", Password: "Admin#123"})
	require.NoError(t, err)
	require.NotNil(t, u)
	require.Equal(t, "root@example.com", u.Email)
	require.Equal(t, types.AccountSuperAdmin, u.AccountType)
	require.True(t, u.IsEmailVerified)
	require.True(t, password.Verify("Admin#123", *u.PasswordHash))

	// segunda corrida: ya hay uno
	u, err = EnsureSuperAdmin(ctx, AdminConfig{Users: conn.Users(), Hash: cheap, Email: "other@example.com", Password: "Admin#123"})
	require.NoError(t, err)
	require.Nil(t, u)
}

func TestEnsureSuperAdminPrompt(t *testing.T) {
	conn := memory.New()
	var out bytes.Buffer
	in := strings.NewReader("admin@example.com\nAdmin#123\nAdmin#123\n")

	u, err := EnsureSuperAdmin(context.Background(), AdminConfig{Users: conn.Users(), Hash: cheap, Prompt: true, In: in, Out: &out})
	require.NoError(t, err)
	require.Equal(t, "admin@example.com", u.Email)
	require.Contains(t, out.String(), "No SUPERADMIN account found")
}

func TestEnsureSuperAdminErrors(t *testing.T) {
	ctx := context.Background()
	conn := memory.New()

	_, err := EnsureSuperAdmin(ctx, AdminConfig{Users: conn.Users(), Hash: cheap})
	require.Error(t, err)

	_, err = EnsureSuperAdmin(ctx, AdminConfig{Users: conn.Users(), Hash: cheap, Email: "a@example.com", Password: "weak"})
	require.Error(t, err)

	in := strings.NewReader("a@example.com\nAdmin#123\nDifferent#1\n")
	_, err = EnsureSuperAdmin(ctx, AdminConfig{Users: conn.Users(), Hash: cheap, Prompt: true, In: in, Out: &bytes.Buffer{}})
	require.ErrorContains(t, err, "do not match")

	_, err = CreateSuperAdmin(ctx, AdminConfig{Users: conn.Users(), Hash: cheap, Email: "u@example.com", Password: "Admin#123"})
	require.NoError(t, err)
	_, err = CreateSuperAdmin(ctx, AdminConfig{Users: conn.Users(), Hash: cheap, Email: "u@example.com", Password: "Admin#123"})
	require.ErrorIs(t, err, ErrAdminExists)
}
