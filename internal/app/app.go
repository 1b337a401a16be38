// Package app arma el servicio completo a partir de la config: store, cache,
// limiters, emisor de tokens, OTP, gateways de notificación, proveedores
// sociales, services, controllers y router.
package app

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/dropDatabas3/userauth/internal/cache"
	"github.com/dropDatabas3/userauth/internal/config"
	"github.com/dropDatabas3/userauth/internal/email"
	"github.com/dropDatabas3/userauth/internal/events"
	authctrl "github.com/dropDatabas3/userauth/internal/http/controllers/auth"
	healthctrl "github.com/dropDatabas3/userauth/internal/http/controllers/health"
	socialctrl "github.com/dropDatabas3/userauth/internal/http/controllers/social"
	usersctrl "github.com/dropDatabas3/userauth/internal/http/controllers/users"
	"github.com/dropDatabas3/userauth/internal/http/router"
	authsvc "github.com/dropDatabas3/userauth/internal/http/services/auth"
	healthsvc "github.com/dropDatabas3/userauth/internal/http/services/health"
	userssvc "github.com/dropDatabas3/userauth/internal/http/services/users"
	jwtx "github.com/dropDatabas3/userauth/internal/jwt"
	"github.com/dropDatabas3/userauth/internal/metrics"
	"github.com/dropDatabas3/userauth/internal/oauth"
	"github.com/dropDatabas3/userauth/internal/oauth/facebook"
	"github.com/dropDatabas3/userauth/internal/oauth/google"
	"github.com/dropDatabas3/userauth/internal/observability/logger"
	"github.com/dropDatabas3/userauth/internal/otp"
	"github.com/dropDatabas3/userauth/internal/rate"
	"github.com/dropDatabas3/userauth/internal/security/password"
	"github.com/dropDatabas3/userauth/internal/security/revocation"
	"github.com/dropDatabas3/userauth/internal/sms"
	"github.com/dropDatabas3/userauth/internal/store"

	// adapters registrados por nombre
	_ "github.com/dropDatabas3/userauth/internal/store/memory"
	_ "github.com/dropDatabas3/userauth/internal/store/pg"
)

// BuildInfo viaja a /readyz.
type BuildInfo struct {
	Version string
	Commit  string
}

// App es el servicio cableado.
type App struct {
	Handler http.Handler
	Store   store.AdapterConnection
	Cache   cache.Client
	Issuer  *jwtx.Issuer

	closers []func() error
}

// Build cablea todo. Si algo falla, cierra lo que ya se abrió.
func Build(ctx context.Context, cfg *config.Config, info BuildInfo) (_ *App, err error) {
	log := logger.From(ctx).With(logger.Component("app"))
	a := &App{}
	defer func() {
		if err != nil {
			_ = a.Close()
		}
	}()

	// Store
	conn, err := store.OpenAdapter(ctx, store.AdapterConfig{
		Name:            cfg.Storage.Driver,
		DSN:             cfg.Storage.DSN,
		MaxOpenConns:    cfg.Storage.Postgres.MaxOpenConns,
		MinConns:        cfg.Storage.Postgres.MinConns,
		ConnMaxLifetime: cfg.Storage.Postgres.ConnMaxLifetime,
	})
	if err != nil {
		return nil, fmt.Errorf("open store: %w", err)
	}
	a.Store = conn
	a.closers = append(a.closers, conn.Close)
	log.Info("store ready", logger.String("driver", conn.Name()))

	// Cache (blacklist + state OAuth)
	c, err := cache.New(ctx, cache.Config{
		Driver:   cfg.Cache.Kind,
		Addr:     cfg.Cache.Redis.Addr,
		Password: cfg.Cache.Redis.Password,
		DB:       cfg.Cache.Redis.DB,
		Prefix:   cfg.Cache.Redis.Prefix,
	})
	if err != nil {
		return nil, fmt.Errorf("open cache: %w", err)
	}
	a.Cache = c
	a.closers = append(a.closers, c.Close)

	loginLimiter, otpLimiter := buildLimiters(cfg, c)

	// Tokens
	iss, err := jwtx.NewIssuer(jwtx.Config{
		AccessSecret:  []byte(cfg.JWT.Secret),
		AccessTTL:     cfg.AccessTTL(),
		RefreshSecret: []byte(cfg.JWT.RefreshSecret),
		RefreshTTL:    cfg.RefreshTTL(),
	})
	if err != nil {
		return nil, fmt.Errorf("jwt issuer: %w", err)
	}
	a.Issuer = iss
	blacklist := revocation.New(c, iss.AccessTTL())

	// OTP
	var gen otp.Generator = otp.RandomGenerator{Length: cfg.OTP.Length}
	if cfg.OTP.FixedCode != "" {
		log.Warn("using fixed otp code")
		gen = otp.FixedGenerator(cfg.OTP.FixedCode)
	}
	otps := otp.NewManager(conn.OTPs(), gen, cfg.OTPTTL())

	// Política de password
	policy := password.DefaultPolicy
	if p := cfg.Security.PasswordBlacklistPath; p != "" {
		bl, err := password.LoadBlacklist(p)
		if err != nil {
			return nil, fmt.Errorf("password blacklist: %w", err)
		}
		policy.Blacklist = bl
		log.Info("password blacklist loaded", logger.Count(bl.Len()))
	}

	// Notificaciones
	mailer, err := buildMailer(cfg)
	if err != nil {
		return nil, err
	}
	smsGw := sms.New(sms.Config{
		Enabled:    cfg.SMS.Enabled,
		APIURL:     cfg.SMS.APIURL,
		AuthHeader: cfg.SMS.AuthHeader,
	}, nil)

	var pub events.Publisher = events.Noop{}
	if len(cfg.Events.Brokers) > 0 {
		kp, err := events.NewKafkaPublisher(cfg.Events.Brokers, cfg.Events.Topic)
		if err != nil {
			return nil, fmt.Errorf("kafka publisher: %w", err)
		}
		pub = kp
		log.Info("event publisher ready", logger.String("topic", cfg.Events.Topic))
	}
	a.closers = append(a.closers, pub.Close)

	// Services
	auth := authsvc.NewService(authsvc.Deps{
		Users:     conn.Users(),
		OTP:       otps,
		Issuer:    iss,
		Blacklist: blacklist,
		Mailer:    mailer,
		SMS:       smsGw,
		Events:    pub,
		Policy:    policy,
		EchoOTP:   cfg.OTP.Echo,
		UploadDir: cfg.Server.UploadDir,
	})
	users := userssvc.NewService(userssvc.Deps{
		Users:     conn.Users(),
		Policy:    policy,
		UploadDir: cfg.Server.UploadDir,
	})
	health := healthsvc.NewHealthService(healthsvc.Deps{
		StoreName:  conn.Name(),
		StoreCheck: conn.Ping,
		CacheName:  c.Driver(),
		CacheCheck: c.Ping,
		Version:    info.Version,
		Commit:     info.Commit,
	})

	// Métricas (+ pool si el store es postgres)
	mcfg := metrics.Config{}
	if pp, ok := conn.(store.PoolProvider); ok {
		mcfg.Pool = func() *pgxpool.Pool { return pp.Pool() }
	}
	metricsHandler, err := metrics.Register(mcfg)
	if err != nil {
		return nil, fmt.Errorf("metrics: %w", err)
	}

	a.Handler = router.New(router.Deps{
		Auth:         authctrl.NewControllers(auth, cfg.Server.UploadDir),
		Social:       buildSocial(cfg, c, auth, log),
		Users:        usersctrl.NewUsersController(users),
		Health:       healthctrl.NewHealthController(health),
		Verifier:     iss,
		Revoked:      blacklist,
		LoginLimiter: loginLimiter,
		OTPLimiter:   otpLimiter,
		APIPrefix:    cfg.Server.APIPrefix,
		CORSOrigins:  cfg.Server.CORSAllowedOrigins,
		UploadDir:    cfg.Server.UploadDir,
		Metrics:      metricsHandler,
	})
	return a, nil
}

// Close libera recursos en orden inverso de apertura.
func (a *App) Close() error {
	var errs []error
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i](); err != nil {
			errs = append(errs, err)
		}
	}
	a.closers = nil
	return errors.Join(errs...)
}

// buildLimiters: redis si la cache es redis (contadores compartidos entre
// réplicas), memoria en otro caso.
func buildLimiters(cfg *config.Config, c cache.Client) (login, otpL rate.Limiter) {
	if !cfg.Rate.Enabled {
		return nil, nil
	}
	if rc, ok := c.(interface{ Redis() *redis.Client }); ok {
		client := rc.Redis()
		prefix := cfg.Cache.Redis.Prefix + "rl:"
		return rate.NewRedisLimiter(client, prefix+"login:", cfg.Rate.Login.Limit, cfg.LoginRateWindow()),
			rate.NewRedisLimiter(client, prefix+"otp:", cfg.Rate.OTP.Limit, cfg.OTPRateWindow())
	}
	return rate.NewMemoryLimiter(cfg.Rate.Login.Limit, cfg.LoginRateWindow()),
		rate.NewMemoryLimiter(cfg.Rate.OTP.Limit, cfg.OTPRateWindow())
}

func buildMailer(cfg *config.Config) (*email.Gateway, error) {
	// sin templates_dir se usan los embebidos
	tpl, err := email.LoadTemplates(cfg.Email.TemplatesDir)
	if err != nil {
		return nil, fmt.Errorf("email templates: %w", err)
	}
	sender := email.NewSMTPSender(cfg.SMTP.Host, cfg.SMTP.Port, cfg.SMTP.From, cfg.SMTP.Username, cfg.SMTP.Password)
	sender.TLSMode = cfg.SMTP.TLS
	sender.InsecureSkipVerify = cfg.SMTP.InsecureSkipVerify
	return email.NewGateway(sender, tpl, cfg.Email.Enabled), nil
}

// buildSocial monta sólo los proveedores habilitados.
func buildSocial(cfg *config.Config, c cache.Client, auth authsvc.Service, log *zap.Logger) *socialctrl.Controllers {
	states := oauth.NewStateStore(c, 0)
	out := &socialctrl.Controllers{}

	if g := cfg.Providers.Google; g.Enabled {
		p := google.New(google.Config{
			ClientID:     g.ClientID,
			ClientSecret: g.ClientSecret,
			RedirectURL:  g.CallbackURL,
			Scopes:       g.Scopes,
		})
		out.Google = socialctrl.NewProviderController(google.ProviderName, "Google", p, states, auth)
		out.GoogleLogin = socialctrl.NewGoogleLoginController(p, auth)
		log.Info("social provider enabled", logger.Provider(google.ProviderName))
	}
	if f := cfg.Providers.Facebook; f.Enabled {
		p := facebook.New(facebook.Config{
			AppID:       f.AppID,
			AppSecret:   f.AppSecret,
			RedirectURL: f.CallbackURL,
		})
		out.Facebook = socialctrl.NewProviderController(facebook.ProviderName, "Facebook", p, states, auth)
		log.Info("social provider enabled", logger.Provider(facebook.ProviderName))
	}
	return out
}
