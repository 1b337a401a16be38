// Package bootstrap crea el primer SUPERADMIN cuando el store no tiene ninguno.
package bootstrap

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"golang.org/x/term"

	"github.com/dropDatabas3/userauth/internal/domain/repository"
	"github.com/dropDatabas3/userauth/internal/domain/types"
	"github.com/dropDatabas3/userauth/internal/observability/logger"
	"github.com/dropDatabas3/userauth/internal/security/password"
)

// ErrAdminExists se devuelve si el email ya pertenece a otra cuenta.
var ErrAdminExists = errors.New("bootstrap: email already registered")

// AdminConfig configura el bootstrap.
type AdminConfig struct {
	Users  repository.UserRepository
	Policy password.Policy
	Hash   password.Params

	// Non-interactive: si ambos vienen completos no se pregunta nada.
	Email    string
	Password string
	FullName string

	// Prompt habilita la carga interactiva por terminal.
	Prompt bool
	In     io.Reader // default os.Stdin
	Out    io.Writer // default os.Stdout
}

// HasSuperAdmin reporta si existe al menos un SUPERADMIN.
func HasSuperAdmin(ctx context.Context, users repository.UserRepository) (bool, error) {
	_, total, err := users.List(ctx, repository.ListUsersFilter{AccountType: types.AccountSuperAdmin, Limit: 1})
	if err != nil {
		return false, err
	}
	return total > 0, nil
}

// EnsureSuperAdmin crea el SUPERADMIN si no hay ninguno. Devuelve el usuario
// creado o nil si ya existía uno.
func EnsureSuperAdmin(ctx context.Context, cfg AdminConfig) (*repository.User, error) {
	log := logger.From(ctx).With(logger.Component("bootstrap"), logger.Op("EnsureSuperAdmin"))

	has, err := HasSuperAdmin(ctx, cfg.Users)
	if err != nil {
		return nil, fmt.Errorf("check superadmin: %w", err)
	}
	if has {
		log.Debug("superadmin present, skipping")
		return nil, nil
	}

	if cfg.Email == "" || cfg.Password == "" {
		if !cfg.Prompt {
			return nil, errors.New("bootstrap: email and password are required")
		}
		if cfg.Email, cfg.Password, err = promptCredentials(cfg); err != nil {
			return nil, err
		}
	}
	return CreateSuperAdmin(ctx, cfg)
}

// CreateSuperAdmin da de alta la cuenta sin mirar si ya hay otros admins.
// La cuenta nace con email verificado.
func CreateSuperAdmin(ctx context.Context, cfg AdminConfig) (*repository.User, error) {
	email := strings.ToLower(strings.TrimSpace(cfg.Email))
	if _, err := cfg.Users.FindByEmail(ctx, email); err == nil {
		return nil, ErrAdminExists
	} else if !repository.IsNotFound(err) {
		return nil, fmt.Errorf("check email: %w", err)
	}

	policy := cfg.Policy
	if policy.MinLength == 0 {
		policy = password.DefaultPolicy
	}
	if ok, reasons := policy.Validate(cfg.Password); !ok {
		return nil, fmt.Errorf("bootstrap: %s", policy.Describe(reasons))
	}
	params := cfg.Hash
	if params == (password.Params{}) {
		params = password.Default
	}
	h, err := password.Hash(params, cfg.Password)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	name := strings.TrimSpace(cfg.FullName)
	if name == "" {
		name = "Super Admin"
	}
	u, err := cfg.Users.Create(ctx, repository.CreateUserInput{
		Email:           email,
		PasswordHash:    &h,
		FullName:        name,
		AccountType:     types.AccountSuperAdmin,
		IsEmailVerified: true,
	})
	if err != nil {
		return nil, fmt.Errorf("create superadmin: %w", err)
	}
	logger.From(ctx).Info("superadmin created", logger.Component("bootstrap"), logger.UserID(u.ID), logger.Email(u.Email))
	return u, nil
}

func promptCredentials(cfg AdminConfig) (email, pwd string, err error) {
	in, out := cfg.In, cfg.Out
	if in == nil {
		in = os.Stdin
	}
	if out == nil {
		out = os.Stdout
	}
	reader := bufio.NewReader(in)

	fmt.Fprintln(out, "No SUPERADMIN account found. Let's create one.")
	fmt.Fprint(out, "Admin email: ")
	email, err = reader.ReadString('\n')
	if err != nil && !errors.Is(err, io.EOF) {
		return "", "", err
	}
	email = strings.TrimSpace(email)
	if !strings.Contains(email, "@") {
		return "", "", errors.New("bootstrap: invalid email")
	}

	fmt.Fprint(out, "Admin password: ")
	pwd, err = readSecret(in, reader)
	if err != nil {
		return "", "", err
	}
	fmt.Fprint(out, "\nConfirm password: ")
	confirm, err := readSecret(in, reader)
	if err != nil {
		return "", "", err
	}
	fmt.Fprintln(out)
	if pwd != confirm {
		return "", "", errors.New("bootstrap: passwords do not match")
	}
	return email, pwd, nil
}

// readSecret oculta el input si in es una terminal; si no, lee una línea.
func readSecret(in io.Reader, reader *bufio.Reader) (string, error) {
	if f, ok := in.(*os.File); ok && term.IsTerminal(int(f.Fd())) {
		b, err := term.ReadPassword(int(f.Fd()))
		return string(b), err
	}
	line, err := reader.ReadString('\n')
	if err != nil && !errors.Is(err, io.EOF) {
		return "", err
	}
	return strings.TrimRight(line, "\r\n"), nil
}
