package main

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/dropDatabas3/userauth/internal/bootstrap"
	"github.com/dropDatabas3/userauth/internal/config"
	"github.com/dropDatabas3/userauth/internal/store"

	_ "github.com/dropDatabas3/userauth/internal/store/memory"
	_ "github.com/dropDatabas3/userauth/internal/store/pg"
)

type client struct {
	BaseURL   string
	Token     string
	OutFormat string // "json" | "text"
	HTTP      *http.Client
}

func (c *client) do(method, path string, body any) (int, []byte, error) {
	var rd io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			return 0, nil, err
		}
		rd = bytes.NewReader(b)
	}
	req, err := http.NewRequest(method, strings.TrimRight(c.BaseURL, "/")+path, rd)
	if err != nil {
		return 0, nil, err
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.Token != "" {
		req.Header.Set("Authorization", "Bearer "+c.Token)
	}
	resp, err := c.HTTP.Do(req)
	if err != nil {
		return 0, nil, err
	}
	defer resp.Body.Close()
	b, _ := io.ReadAll(resp.Body)
	return resp.StatusCode, b, nil
}

// envelope es la respuesta estándar del servicio.
type envelope struct {
	Success bool            `json:"success"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
}

func (c *client) print(status int, body []byte) {
	if c.OutFormat == "json" {
		var v any
		if json.Unmarshal(body, &v) == nil {
			p, _ := json.MarshalIndent(v, "", "  ")
			fmt.Println(string(p))
			return
		}
	}
	var env envelope
	if json.Unmarshal(body, &env) == nil && env.Message != "" {
		fmt.Printf("status=%d %s\n", status, env.Message)
		if len(env.Data) > 0 && string(env.Data) != "null" {
			fmt.Println(string(env.Data))
		}
		return
	}
	if len(body) > 0 {
		fmt.Println(string(body))
	} else {
		fmt.Printf("status=%d\n", status)
	}
}

// call ejecuta y falla si el status no es 2xx.
func (c *client) call(method, path string, body any) error {
	status, b, err := c.do(method, path, body)
	if err != nil {
		return err
	}
	c.print(status, b)
	if status/100 != 2 {
		return fmt.Errorf("request failed: status=%d", status)
	}
	return nil
}

func envOr(k, def string) string {
	if v := strings.TrimSpace(os.Getenv(k)); v != "" {
		return v
	}
	return def
}

func main() {
	cl := &client{
		BaseURL:   envOr("USERAUTH_URL", "http://localhost:8080/api"),
		Token:     envOr("USERAUTH_TOKEN", ""),
		OutFormat: envOr("USERAUTH_OUT", "text"),
		HTTP:      &http.Client{Timeout: 30 * time.Second},
	}

	root := &cobra.Command{
		Use:          "userauthctl",
		Short:        "CLI para el servicio de identidad de usuarios",
		SilenceUsage: true,
	}
	root.PersistentFlags().StringVar(&cl.BaseURL, "url", cl.BaseURL, "URL base de la API, incluye el prefijo (env USERAUTH_URL)")
	root.PersistentFlags().StringVar(&cl.Token, "token", cl.Token, "Access token para rutas autenticadas (env USERAUTH_TOKEN)")
	root.PersistentFlags().StringVar(&cl.OutFormat, "out", cl.OutFormat, "Formato de salida: json|text")

	root.AddCommand(authCommands(cl)...)
	root.AddCommand(usersCommand(cl), seedAdminCommand())

	if err := root.Execute(); err != nil {
		os.Exit(1)
	}
}

func authCommands(cl *client) []*cobra.Command {
	var fullName, email, pwd, phone, otp, refresh, current string

	register := &cobra.Command{
		Use:   "register",
		Short: "Registrar una cuenta (envía OTP)",
		RunE: func(cmd *cobra.Command, args []string) error {
			return cl.call(http.MethodPost, "/auth/register", map[string]string{
				"fullName": fullName, "email": email, "password": pwd, "phone": phone,
			})
		},
	}
	register.Flags().StringVar(&fullName, "name", "", "Nombre completo")
	register.Flags().StringVar(&phone, "phone", "", "Teléfono (opcional)")

	login := &cobra.Command{
		Use:   "login",
		Short: "Login con email y password",
		RunE: func(cmd *cobra.Command, args []string) error {
			return cl.call(http.MethodPost, "/auth/login", map[string]string{"email": email, "password": pwd})
		},
	}

	verify := &cobra.Command{
		Use:   "verify-otp",
		Short: "Verificar el email con el OTP recibido",
		RunE: func(cmd *cobra.Command, args []string) error {
			return cl.call(http.MethodPost, "/auth/verify-otp", map[string]string{"email": email, "otp": otp})
		},
	}
	verify.Flags().StringVar(&otp, "otp", "", "Código OTP")

	resend := &cobra.Command{
		Use:   "resend-otp",
		Short: "Reenviar el OTP de verificación",
		RunE: func(cmd *cobra.Command, args []string) error {
			return cl.call(http.MethodPost, "/auth/resend-otp", map[string]string{"email": email})
		},
	}

	forgot := &cobra.Command{
		Use:   "forgot-password",
		Short: "Pedir OTP de reseteo de password",
		RunE: func(cmd *cobra.Command, args []string) error {
			return cl.call(http.MethodPost, "/auth/forget-password", map[string]string{"email": email})
		},
	}

	reset := &cobra.Command{
		Use:   "reset-password",
		Short: "Resetear el password con el OTP",
		RunE: func(cmd *cobra.Command, args []string) error {
			return cl.call(http.MethodPost, "/auth/reset-password", map[string]string{"email": email, "otp": otp, "newPassword": pwd})
		},
	}
	reset.Flags().StringVar(&otp, "otp", "", "Código OTP")

	change := &cobra.Command{
		Use:   "change-password",
		Short: "Cambiar el password (requiere --token)",
		RunE: func(cmd *cobra.Command, args []string) error {
			return cl.call(http.MethodPost, "/auth/change-password", map[string]string{"currentPassword": current, "newPassword": pwd})
		},
	}
	change.Flags().StringVar(&current, "current", "", "Password actual")

	refreshCmd := &cobra.Command{
		Use:   "refresh",
		Short: "Rotar el par de tokens",
		RunE: func(cmd *cobra.Command, args []string) error {
			return cl.call(http.MethodPost, "/auth/refresh", map[string]string{"refreshToken": refresh})
		},
	}
	refreshCmd.Flags().StringVar(&refresh, "refresh-token", "", "Refresh token")

	logout := &cobra.Command{
		Use:   "logout",
		Short: "Revocar el access token actual (requiere --token)",
		RunE: func(cmd *cobra.Command, args []string) error {
			return cl.call(http.MethodPost, "/auth/logout", nil)
		},
	}

	profile := &cobra.Command{
		Use:   "profile",
		Short: "Ver el perfil propio (requiere --token)",
		RunE: func(cmd *cobra.Command, args []string) error {
			return cl.call(http.MethodGet, "/auth/profile", nil)
		},
	}

	for _, c := range []*cobra.Command{register, login, verify, resend, forgot, reset} {
		c.Flags().StringVar(&email, "email", "", "Email de la cuenta")
	}
	for _, c := range []*cobra.Command{register, login, reset, change} {
		c.Flags().StringVar(&pwd, "password", "", "Password (nuevo en reset/change)")
	}
	return []*cobra.Command{register, login, verify, resend, forgot, reset, change, refreshCmd, logout, profile}
}

func usersCommand(cl *client) *cobra.Command {
	users := &cobra.Command{
		Use:   "users",
		Short: "Gestión de usuarios (requiere token SUPERADMIN)",
	}

	var page, limit int
	list := &cobra.Command{
		Use:   "list",
		Short: "Listar usuarios",
		RunE: func(cmd *cobra.Command, args []string) error {
			return cl.call(http.MethodGet, fmt.Sprintf("/users?page=%d&limit=%d", page, limit), nil)
		},
	}
	search := &cobra.Command{
		Use:   "search [query]",
		Short: "Buscar usuarios por nombre",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			q := url.Values{"q": {args[0]}, "page": {fmt.Sprint(page)}, "limit": {fmt.Sprint(limit)}}
			return cl.call(http.MethodGet, "/users/search?"+q.Encode(), nil)
		},
	}
	for _, c := range []*cobra.Command{list, search} {
		c.Flags().IntVar(&page, "page", 1, "Página")
		c.Flags().IntVar(&limit, "limit", 10, "Tamaño de página")
	}

	get := &cobra.Command{
		Use:   "get [id]",
		Short: "Ver un usuario",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return cl.call(http.MethodGet, "/users/"+url.PathEscape(args[0]), nil)
		},
	}
	toggle := &cobra.Command{
		Use:   "toggle-status [id]",
		Short: "Activar/desactivar un usuario",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return cl.call(http.MethodPatch, "/users/status/change/"+url.PathEscape(args[0]), nil)
		},
	}
	del := &cobra.Command{
		Use:   "delete [id]",
		Short: "Eliminar un usuario",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return cl.call(http.MethodDelete, "/users/"+url.PathEscape(args[0]), nil)
		},
	}

	users.AddCommand(list, search, get, toggle, del)
	return users
}

// seedAdminCommand crea el SUPERADMIN directo contra el store (no pasa por HTTP).
func seedAdminCommand() *cobra.Command {
	var configPath, email, pwd, name string
	var force bool
	cmd := &cobra.Command{
		Use:   "seed-admin",
		Short: "Crear el primer SUPERADMIN directamente en el store",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(configPath)
			if err != nil {
				return err
			}
			ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
			defer cancel()

			conn, err := store.OpenAdapter(ctx, store.AdapterConfig{
				Name:            cfg.Storage.Driver,
				DSN:             cfg.Storage.DSN,
				MaxOpenConns:    cfg.Storage.Postgres.MaxOpenConns,
				MinConns:        cfg.Storage.Postgres.MinConns,
				ConnMaxLifetime: cfg.Storage.Postgres.ConnMaxLifetime,
			})
			if err != nil {
				return err
			}
			defer conn.Close()

			bc := bootstrap.AdminConfig{
				Users:    conn.Users(),
				Email:    email,
				Password: pwd,
				FullName: name,
				Prompt:   email == "" || pwd == "",
			}
			if force {
				u, err := bootstrap.CreateSuperAdmin(ctx, bc)
				if err != nil {
					return err
				}
				fmt.Printf("superadmin created id=%s email=%s\n", u.ID, u.Email)
				return nil
			}
			u, err := bootstrap.EnsureSuperAdmin(ctx, bc)
			if err != nil {
				return err
			}
			if u == nil {
				fmt.Println("superadmin already present, nothing to do")
				return nil
			}
			fmt.Printf("superadmin created id=%s email=%s\n", u.ID, u.Email)
			return nil
		},
	}
	cmd.Flags().StringVar(&configPath, "config", "", "Path a config.yaml (env overrides)")
	cmd.Flags().StringVar(&email, "email", "", "Email del admin (si falta, se pregunta)")
	cmd.Flags().StringVar(&pwd, "password", "", "Password del admin (si falta, se pregunta)")
	cmd.Flags().StringVar(&name, "name", "", "Nombre completo")
	cmd.Flags().BoolVar(&force, "force", false, "Crear aunque ya exista otro SUPERADMIN")
	return cmd
}
