package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

type Config struct {
	App struct {
		// dev | staging | prod
		Env      string `yaml:"app_env"`
		LogLevel string `yaml:"log_level"`
		BaseURL  string `yaml:"base_url"` // usado para armar callbacks y links
	} `yaml:"app"`

	Server struct {
		Port               string   `yaml:"port"`
		APIPrefix          string   `yaml:"api_prefix"`
		CORSAllowedOrigins []string `yaml:"cors_allowed_origins"`
		UploadDir          string   `yaml:"upload_dir"`
	} `yaml:"server"`

	Storage struct {
		Driver   string `yaml:"driver"` // postgres | memory
		DSN      string `yaml:"dsn"`
		Postgres struct {
			MaxOpenConns    int    `yaml:"max_open_conns"`
			MinConns        int    `yaml:"min_conns"`
			ConnMaxLifetime string `yaml:"conn_max_lifetime"`
		} `yaml:"postgres"`
	} `yaml:"storage"`

	// Cache respalda la blacklist de logout (y el rate limiter si es redis).
	Cache struct {
		Kind  string `yaml:"kind"` // memory | redis
		Redis struct {
			Addr     string `yaml:"addr"`
			Password string `yaml:"password"`
			DB       int    `yaml:"db"`
			Prefix   string `yaml:"prefix"`
		} `yaml:"redis"`
	} `yaml:"cache"`

	JWT struct {
		Secret           string `yaml:"secret"`
		ExpiresIn        string `yaml:"expires_in"`
		RefreshSecret    string `yaml:"refresh_secret"`
		RefreshExpiresIn string `yaml:"refresh_expires_in"`
	} `yaml:"jwt"`

	OTP struct {
		TTL       string `yaml:"ttl"`
		Length    int    `yaml:"length"`
		FixedCode string `yaml:"fixed_code"` // sólo dev/tests
		Echo      bool   `yaml:"echo"`       // devolver el código en la respuesta (nunca en prod)
	} `yaml:"otp"`

	Rate struct {
		Enabled bool `yaml:"enabled"`
		Login   struct {
			Limit  int    `yaml:"limit"`
			Window string `yaml:"window"`
		} `yaml:"login"`
		OTP struct {
			Limit  int    `yaml:"limit"`
			Window string `yaml:"window"`
		} `yaml:"otp"`
	} `yaml:"rate"`

	Flags struct {
		Migrate bool `yaml:"migrate"`
	} `yaml:"flags"`

	// Bootstrap del primer SUPERADMIN al arrancar (vacío = no se crea).
	Bootstrap struct {
		AdminEmail    string `yaml:"admin_email"`
		AdminPassword string `yaml:"admin_password"`
	} `yaml:"bootstrap"`

	SMTP struct {
		Host               string `yaml:"host"`
		Port               int    `yaml:"port"`
		Username           string `yaml:"username"`
		Password           string `yaml:"password"`
		From               string `yaml:"from"`
		TLS                string `yaml:"tls"`                  // auto | starttls | ssl | none
		InsecureSkipVerify bool   `yaml:"insecure_skip_verify"` // sólo dev
	} `yaml:"smtp"`

	Email struct {
		Enabled      bool   `yaml:"enabled"`
		TemplatesDir string `yaml:"templates_dir"`
	} `yaml:"email"`

	SMS struct {
		Enabled    bool   `yaml:"enabled"`
		APIURL     string `yaml:"api_url"`
		AuthHeader string `yaml:"auth_header"`
	} `yaml:"sms"`

	Security struct {
		PasswordBlacklistPath string `yaml:"password_blacklist_path"`
	} `yaml:"security"`

	Events struct {
		Brokers []string `yaml:"brokers"`
		Topic   string   `yaml:"topic"`
	} `yaml:"events"`

	// ───────── Social Login Providers ─────────
	Providers struct {
		Google struct {
			Enabled      bool     `yaml:"enabled"`
			ClientID     string   `yaml:"client_id"`
			ClientSecret string   `yaml:"client_secret"`
			CallbackURL  string   `yaml:"callback_url"` // si vacío => <app.base_url><api_prefix>/auth/google/redirect
			Scopes       []string `yaml:"scopes"`
		} `yaml:"google"`
		Facebook struct {
			Enabled     bool   `yaml:"enabled"`
			AppID       string `yaml:"app_id"`
			AppSecret   string `yaml:"app_secret"`
			CallbackURL string `yaml:"callback_url"`
		} `yaml:"facebook"`
	} `yaml:"providers"`
}

// Load lee el YAML (opcional: path vacío o inexistente => sólo env),
// aplica defaults y overrides de entorno, y valida.
func Load(path string) (*Config, error) {
	var c Config
	if strings.TrimSpace(path) != "" {
		b, err := os.ReadFile(path)
		switch {
		case err == nil:
			if err := yaml.Unmarshal(b, &c); err != nil {
				return nil, fmt.Errorf("config: parse %s: %w", path, err)
			}
		case errors.Is(err, os.ErrNotExist):
			// sin archivo: defaults + env
		default:
			return nil, err
		}
	}

	c.applyEnvOverrides()
	c.applyDefaults()

	// Normalizar ruta de blacklist (si relativa) respecto al directorio del YAML
	if p := strings.TrimSpace(c.Security.PasswordBlacklistPath); p != "" && path != "" {
		if !filepath.IsAbs(p) {
			c.Security.PasswordBlacklistPath = filepath.Clean(filepath.Join(filepath.Dir(path), p))
		}
	}

	if err := c.Validate(); err != nil {
		return nil, err
	}
	return &c, nil
}

func (c *Config) applyDefaults() {
	if c.App.Env == "" {
		c.App.Env = "dev"
	}
	if c.App.LogLevel == "" {
		c.App.LogLevel = "info"
	}
	if c.Server.Port == "" {
		c.Server.Port = "8080"
	}
	if c.Server.APIPrefix == "" {
		c.Server.APIPrefix = "/api"
	}
	c.Server.APIPrefix = "/" + strings.Trim(c.Server.APIPrefix, "/")
	if c.Server.UploadDir == "" {
		c.Server.UploadDir = "./uploads"
	}
	if c.App.BaseURL == "" {
		c.App.BaseURL = "http://localhost:" + c.Server.Port
	}
	if c.Storage.Driver == "" {
		c.Storage.Driver = "postgres"
	}
	if c.Cache.Kind == "" {
		c.Cache.Kind = "memory"
	}
	if c.Cache.Redis.Prefix == "" {
		c.Cache.Redis.Prefix = "userauth:"
	}
	if c.JWT.ExpiresIn == "" {
		c.JWT.ExpiresIn = "1d"
	}
	if c.JWT.RefreshExpiresIn == "" {
		c.JWT.RefreshExpiresIn = "7d"
	}
	if c.OTP.TTL == "" {
		c.OTP.TTL = "10m"
	}
	if c.OTP.Length == 0 {
		c.OTP.Length = 4
	}
	if c.Rate.Login.Limit == 0 {
		c.Rate.Login.Limit = 10
	}
	if c.Rate.Login.Window == "" {
		c.Rate.Login.Window = "1m"
	}
	if c.Rate.OTP.Limit == 0 {
		c.Rate.OTP.Limit = 5
	}
	if c.Rate.OTP.Window == "" {
		c.Rate.OTP.Window = "10m"
	}
	if c.SMTP.TLS == "" {
		c.SMTP.TLS = "auto"
	}
	if c.SMTP.Port == 0 {
		c.SMTP.Port = 587
	}
	if c.Events.Topic == "" {
		c.Events.Topic = "userauth.events"
	}
	if len(c.Providers.Google.Scopes) == 0 {
		c.Providers.Google.Scopes = []string{"openid", "email", "profile"}
	}
	base := strings.TrimRight(c.App.BaseURL, "/") + c.Server.APIPrefix
	if c.Providers.Google.Enabled && strings.TrimSpace(c.Providers.Google.CallbackURL) == "" {
		c.Providers.Google.CallbackURL = base + "/auth/google/redirect"
	}
	if c.Providers.Facebook.Enabled && strings.TrimSpace(c.Providers.Facebook.CallbackURL) == "" {
		c.Providers.Facebook.CallbackURL = base + "/auth/facebook/redirect"
	}

	// Guardia dura: en prod nunca devolvemos el OTP ni usamos uno fijo.
	if c.IsProd() {
		c.OTP.Echo = false
		c.OTP.FixedCode = ""
	}
}

// Redacted devuelve una copia con los secretos enmascarados (para -print-config).
func (c *Config) Redacted() Config {
	out := *c
	mask := func(s *string) {
		if *s != "" {
			*s = "***"
		}
	}
	mask(&out.Storage.DSN)
	mask(&out.Cache.Redis.Password)
	mask(&out.JWT.Secret)
	mask(&out.JWT.RefreshSecret)
	mask(&out.OTP.FixedCode)
	mask(&out.SMTP.Password)
	mask(&out.SMS.AuthHeader)
	mask(&out.Bootstrap.AdminPassword)
	mask(&out.Providers.Google.ClientSecret)
	mask(&out.Providers.Facebook.AppSecret)
	return out
}

// IsProd reporta si APP_ENV es prod/production.
func (c *Config) IsProd() bool {
	e := strings.ToLower(c.App.Env)
	return e == "prod" || e == "production"
}

// Addr devuelve la dirección de escucha del servidor HTTP.
func (c *Config) Addr() string { return ":" + strings.TrimPrefix(c.Server.Port, ":") }

// Duraciones ya validadas por Validate.
func (c *Config) AccessTTL() time.Duration       { return mustDur(c.JWT.ExpiresIn) }
func (c *Config) RefreshTTL() time.Duration      { return mustDur(c.JWT.RefreshExpiresIn) }
func (c *Config) OTPTTL() time.Duration          { return mustDur(c.OTP.TTL) }
func (c *Config) LoginRateWindow() time.Duration { return mustDur(c.Rate.Login.Window) }
func (c *Config) OTPRateWindow() time.Duration   { return mustDur(c.Rate.OTP.Window) }

func mustDur(s string) time.Duration {
	d, _ := ParseDuration(s)
	return d
}

// ParseDuration acepta la sintaxis de time.ParseDuration y además el sufijo
// "d" (días), p.ej. "1d", "7d", "1.5d". Un número sin unidad se toma como segundos.
func ParseDuration(s string) (time.Duration, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, errors.New("empty duration")
	}
	if strings.HasSuffix(s, "d") {
		n, err := strconv.ParseFloat(strings.TrimSuffix(s, "d"), 64)
		if err != nil || n < 0 {
			return 0, fmt.Errorf("invalid duration %q", s)
		}
		return time.Duration(n * float64(24*time.Hour)), nil
	}
	if n, err := strconv.ParseInt(s, 10, 64); err == nil {
		if n < 0 {
			return 0, fmt.Errorf("invalid duration %q", s)
		}
		return time.Duration(n) * time.Second, nil
	}
	d, err := time.ParseDuration(s)
	if err != nil {
		return 0, fmt.Errorf("invalid duration %q", s)
	}
	return d, nil
}

// ---- Helpers env ----

func getEnvStr(key string) (string, bool) {
	v := os.Getenv(key)
	return v, v != ""
}
func getEnvInt(key string) (int, bool) {
	if s, ok := getEnvStr(key); ok {
		if i, err := strconv.Atoi(strings.TrimSpace(s)); err == nil {
			return i, true
		}
	}
	return 0, false
}
func getEnvBool(key string) (bool, bool) {
	if s, ok := getEnvStr(key); ok {
		if b, err := strconv.ParseBool(strings.TrimSpace(s)); err == nil {
			return b, true
		}
	}
	return false, false
}
func getEnvCSV(key string) ([]string, bool) {
	if s, ok := getEnvStr(key); ok {
		parts := strings.Split(s, ",")
		out := make([]string, 0, len(parts))
		for _, p := range parts {
			p = strings.TrimSpace(p)
			if p != "" {
				out = append(out, p)
			}
		}
		return out, true
	}
	return nil, false
}

// applyEnvOverrides: pisa config.yaml con variables de entorno.
func (c *Config) applyEnvOverrides() {
	// APP
	if v, ok := getEnvStr("APP_ENV"); ok {
		c.App.Env = strings.ToLower(v)
	}
	if v, ok := getEnvStr("LOG_LEVEL"); ok {
		c.App.LogLevel = strings.ToLower(v)
	}
	if v, ok := getEnvStr("APP_BASE_URL"); ok {
		c.App.BaseURL = v
	}

	// SERVER
	if v, ok := getEnvStr("PORT"); ok {
		c.Server.Port = v
	}
	if v, ok := getEnvStr("API_PREFIX"); ok {
		c.Server.APIPrefix = v
	}
	if v, ok := getEnvCSV("CORS_ALLOWED_ORIGINS"); ok {
		c.Server.CORSAllowedOrigins = v
	}
	if v, ok := getEnvStr("UPLOAD_DIR"); ok {
		c.Server.UploadDir = v
	}

	// STORAGE
	if v, ok := getEnvStr("STORAGE_DRIVER"); ok {
		c.Storage.Driver = strings.ToLower(v)
	}
	if v, ok := getEnvStr("DATABASE_URL"); ok {
		c.Storage.DSN = v
	}
	if v, ok := getEnvInt("POSTGRES_MAX_OPEN_CONNS"); ok {
		c.Storage.Postgres.MaxOpenConns = v
	}
	if v, ok := getEnvInt("POSTGRES_MIN_CONNS"); ok {
		c.Storage.Postgres.MinConns = v
	}
	if v, ok := getEnvStr("POSTGRES_CONN_MAX_LIFETIME"); ok {
		c.Storage.Postgres.ConnMaxLifetime = v
	}

	// CACHE / BLACKLIST
	if v, ok := getEnvStr("BLACKLIST_DRIVER"); ok {
		c.Cache.Kind = strings.ToLower(v)
	}
	if v, ok := getEnvStr("REDIS_ADDR"); ok {
		c.Cache.Redis.Addr = v
	}
	if v, ok := getEnvStr("REDIS_PASSWORD"); ok {
		c.Cache.Redis.Password = v
	}
	if v, ok := getEnvInt("REDIS_DB"); ok {
		c.Cache.Redis.DB = v
	}
	if v, ok := getEnvStr("REDIS_PREFIX"); ok {
		c.Cache.Redis.Prefix = v
	}

	// JWT
	if v, ok := getEnvStr("JWT_SECRET"); ok {
		c.JWT.Secret = v
	}
	if v, ok := getEnvStr("JWT_EXPIRES_IN"); ok {
		c.JWT.ExpiresIn = v
	}
	if v, ok := getEnvStr("JWT_REFRESH_SECRET"); ok {
		c.JWT.RefreshSecret = v
	}
	if v, ok := getEnvStr("JWT_REFRESH_EXPIRES_IN"); ok {
		c.JWT.RefreshExpiresIn = v
	}

	// OTP
	if v, ok := getEnvStr("OTP_TTL"); ok {
		c.OTP.TTL = v
	}
	if v, ok := getEnvInt("OTP_LENGTH"); ok {
		c.OTP.Length = v
	}
	if v, ok := getEnvStr("OTP_FIXED_CODE"); ok {
		c.OTP.FixedCode = strings.TrimSpace(v)
	}
	if v, ok := getEnvBool("OTP_ECHO"); ok {
		c.OTP.Echo = v
	}

	// RATE
	if v, ok := getEnvBool("RATE_ENABLED"); ok {
		c.Rate.Enabled = v
	}
	if v, ok := getEnvInt("RATE_LOGIN_LIMIT"); ok {
		c.Rate.Login.Limit = v
	}
	if v, ok := getEnvStr("RATE_LOGIN_WINDOW"); ok {
		c.Rate.Login.Window = v
	}
	if v, ok := getEnvInt("RATE_OTP_LIMIT"); ok {
		c.Rate.OTP.Limit = v
	}
	if v, ok := getEnvStr("RATE_OTP_WINDOW"); ok {
		c.Rate.OTP.Window = v
	}

	// FLAGS
	if v, ok := getEnvBool("FLAGS_MIGRATE"); ok {
		c.Flags.Migrate = v
	}

	// BOOTSTRAP
	if v, ok := getEnvStr("SUPERADMIN_EMAIL"); ok {
		c.Bootstrap.AdminEmail = strings.TrimSpace(v)
	}
	if v, ok := getEnvStr("SUPERADMIN_PASSWORD"); ok {
		c.Bootstrap.AdminPassword = v
	}

	// EMAIL / SMTP
	if v, ok := getEnvBool("EMAIL_SERVICE_ENABLED"); ok {
		c.Email.Enabled = v
	}
	if v, ok := getEnvStr("EMAIL_TEMPLATES_DIR"); ok {
		c.Email.TemplatesDir = v
	}
	if v, ok := getEnvStr("SMTP_HOST"); ok {
		c.SMTP.Host = v
	}
	if v, ok := getEnvInt("SMTP_PORT"); ok {
		c.SMTP.Port = v
	}
	if v, ok := getEnvStr("SMTP_USERNAME"); ok {
		c.SMTP.Username = v
	}
	if v, ok := getEnvStr("SMTP_PASSWORD"); ok {
		c.SMTP.Password = v
	}
	if v, ok := getEnvStr("EMAIL_FROM"); ok {
		c.SMTP.From = v
	} else if v, ok := getEnvStr("SMTP_FROM"); ok {
		c.SMTP.From = v
	}
	if v, ok := getEnvStr("SMTP_TLS"); ok {
		c.SMTP.TLS = strings.ToLower(v) // auto|starttls|ssl|none
	}
	if v, ok := getEnvBool("SMTP_INSECURE_SKIP_VERIFY"); ok {
		c.SMTP.InsecureSkipVerify = v
	}

	// SMS
	if v, ok := getEnvBool("SMS_SERVICE_ENABLED"); ok {
		c.SMS.Enabled = v
	}
	if v, ok := getEnvStr("SMS_API_URL"); ok {
		c.SMS.APIURL = v
	}
	if v, ok := getEnvStr("BULKSMS_AUTH_HEADER"); ok {
		c.SMS.AuthHeader = v
	}

	// SECURITY
	if v, ok := getEnvStr("SECURITY_PASSWORD_BLACKLIST_PATH"); ok {
		c.Security.PasswordBlacklistPath = strings.TrimSpace(v)
	}

	// EVENTS
	if v, ok := getEnvCSV("KAFKA_BROKERS"); ok {
		c.Events.Brokers = v
	}
	if v, ok := getEnvStr("KAFKA_TOPIC"); ok {
		c.Events.Topic = v
	}

	// ───── Providers (Social) ─────
	if v, ok := getEnvBool("GOOGLE_ENABLED"); ok {
		c.Providers.Google.Enabled = v
	}
	if v, ok := getEnvStr("GOOGLE_CLIENT_ID"); ok {
		c.Providers.Google.ClientID = v
	}
	if v, ok := getEnvStr("GOOGLE_CLIENT_SECRET"); ok {
		c.Providers.Google.ClientSecret = v
	}
	if v, ok := getEnvStr("GOOGLE_CALLBACK_URL"); ok {
		c.Providers.Google.CallbackURL = v
	}
	if v, ok := getEnvCSV("GOOGLE_SCOPES"); ok && len(v) > 0 {
		c.Providers.Google.Scopes = v
	}
	if v, ok := getEnvBool("FACEBOOK_ENABLED"); ok {
		c.Providers.Facebook.Enabled = v
	}
	if v, ok := getEnvStr("FACEBOOK_APP_ID"); ok {
		c.Providers.Facebook.AppID = v
	}
	if v, ok := getEnvStr("FACEBOOK_APP_SECRET"); ok {
		c.Providers.Facebook.AppSecret = v
	}
	if v, ok := getEnvStr("FACEBOOK_CALLBACK_URL"); ok {
		c.Providers.Facebook.CallbackURL = v
	}
}

// Validate junta todos los problemas de configuración en un único error.
func (c *Config) Validate() error {
	var errs []error
	req := func(cond bool, msg string) {
		if !cond {
			errs = append(errs, errors.New(msg))
		}
	}

	req(strings.TrimSpace(c.JWT.Secret) != "", "JWT_SECRET is required")
	req(strings.TrimSpace(c.JWT.RefreshSecret) != "", "JWT_REFRESH_SECRET is required")
	if c.JWT.Secret != "" && c.JWT.Secret == c.JWT.RefreshSecret {
		errs = append(errs, errors.New("JWT_SECRET and JWT_REFRESH_SECRET must differ"))
	}

	switch c.Storage.Driver {
	case "postgres":
		req(strings.TrimSpace(c.Storage.DSN) != "", "DATABASE_URL is required for the postgres driver")
	case "memory":
	default:
		errs = append(errs, fmt.Errorf("unknown STORAGE_DRIVER %q", c.Storage.Driver))
	}

	switch c.Cache.Kind {
	case "redis":
		req(strings.TrimSpace(c.Cache.Redis.Addr) != "", "REDIS_ADDR is required for the redis blacklist")
	case "memory":
	default:
		errs = append(errs, fmt.Errorf("unknown BLACKLIST_DRIVER %q", c.Cache.Kind))
	}

	durations := map[string]string{
		"JWT_EXPIRES_IN":         c.JWT.ExpiresIn,
		"JWT_REFRESH_EXPIRES_IN": c.JWT.RefreshExpiresIn,
		"OTP_TTL":                c.OTP.TTL,
		"RATE_LOGIN_WINDOW":      c.Rate.Login.Window,
		"RATE_OTP_WINDOW":        c.Rate.OTP.Window,
	}
	for key, v := range durations {
		d, err := ParseDuration(v)
		if err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", key, err))
		} else if d <= 0 {
			errs = append(errs, fmt.Errorf("%s must be positive", key))
		}
	}
	if v := c.Storage.Postgres.ConnMaxLifetime; v != "" {
		if _, err := time.ParseDuration(v); err != nil {
			errs = append(errs, fmt.Errorf("POSTGRES_CONN_MAX_LIFETIME: %w", err))
		}
	}
	if c.OTP.Length < 4 || c.OTP.Length > 10 {
		errs = append(errs, errors.New("OTP_LENGTH must be between 4 and 10"))
	}
	if fc := c.OTP.FixedCode; fc != "" {
		if _, err := strconv.Atoi(fc); err != nil || len(fc) != c.OTP.Length {
			errs = append(errs, fmt.Errorf("OTP_FIXED_CODE must be %d digits", c.OTP.Length))
		}
	}

	if c.Email.Enabled {
		req(strings.TrimSpace(c.SMTP.Host) != "", "SMTP_HOST is required when EMAIL_SERVICE_ENABLED")
		req(strings.TrimSpace(c.SMTP.From) != "", "EMAIL_FROM is required when EMAIL_SERVICE_ENABLED")
	}
	if c.SMS.Enabled {
		req(strings.TrimSpace(c.SMS.APIURL) != "", "SMS_API_URL is required when SMS_SERVICE_ENABLED")
	}
	if g := c.Providers.Google; g.Enabled {
		req(g.ClientID != "" && g.ClientSecret != "", "GOOGLE_CLIENT_ID and GOOGLE_CLIENT_SECRET are required when GOOGLE_ENABLED")
	}
	if f := c.Providers.Facebook; f.Enabled {
		req(f.AppID != "" && f.AppSecret != "", "FACEBOOK_APP_ID and FACEBOOK_APP_SECRET are required when FACEBOOK_ENABLED")
	}

	if len(errs) > 0 {
		return fmt.Errorf("config: %w", errors.Join(errs...))
	}
	return nil
}
