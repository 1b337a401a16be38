package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"github.com/dropDatabas3/userauth/internal/app"
	"github.com/dropDatabas3/userauth/internal/bootstrap"
	"github.com/dropDatabas3/userauth/internal/config"
	httpserver "github.com/dropDatabas3/userauth/internal/http"
	"github.com/dropDatabas3/userauth/internal/observability/logger"
	"github.com/dropDatabas3/userauth/internal/store"
	"github.com/dropDatabas3/userauth/internal/store/pg"
	migrations "github.com/dropDatabas3/userauth/migrations/postgres"
)

// Seteados por -ldflags en el build.
var (
	version = "dev"
	commit  = ""
)

func fileExists(p string) bool {
	st, err := os.Stat(p)
	return err == nil && !st.IsDir()
}

func main() {
	var (
		flagConfigPath = flag.String("config", "", "ruta a config.yaml (fallback: $CONFIG_PATH o configs/config.yaml)")
		flagEnvFile    = flag.String("env-file", ".env", "ruta a .env (si existe, se carga)")
		flagPrint      = flag.Bool("print-config", false, "imprime config efectiva (sin secretos) y termina")
	)
	flag.Parse()

	if *flagEnvFile != "" && fileExists(*flagEnvFile) {
		if err := godotenv.Load(*flagEnvFile); err == nil {
			log.Printf("dotenv: cargado %s", *flagEnvFile)
		}
	}

	cfgPath := *flagConfigPath
	if cfgPath == "" {
		cfgPath = os.Getenv("CONFIG_PATH")
	}
	if cfgPath == "" && fileExists("configs/config.yaml") {
		cfgPath = "configs/config.yaml"
	}
	cfg, err := config.Load(cfgPath)
	if err != nil {
		log.Fatalf("config: %v", err)
	}

	if *flagPrint {
		b, _ := yaml.Marshal(cfg.Redacted())
		fmt.Print(string(b))
		return
	}

	logger.Init(logger.Config{Env: cfg.App.Env, Level: cfg.App.LogLevel, ServiceName: "userauth", Version: version})
	defer func() { _ = logger.Sync() }()
	lg := logger.L()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	ctx = logger.ToContext(ctx, lg)

	a, err := app.Build(ctx, cfg, app.BuildInfo{Version: version, Commit: commit})
	if err != nil {
		lg.Fatal("wiring failed", logger.Err(err))
	}
	defer func() {
		if err := a.Close(); err != nil {
			lg.Warn("cleanup", logger.Err(err))
		}
	}()

	if cfg.Flags.Migrate {
		pp, ok := a.Store.(store.PoolProvider)
		if !ok {
			lg.Warn("FLAGS_MIGRATE ignored: store has no sql pool", logger.String("driver", a.Store.Name()))
		} else {
			res, err := pg.Migrate(ctx, pp.Pool(), migrations.FS, "up", 0)
			if err != nil {
				lg.Fatal("migrations failed", logger.Err(err))
			}
			lg.Info("migrations applied", logger.Count(len(res.Applied)))
		}
	}

	if cfg.Bootstrap.AdminEmail != "" {
		if _, err := bootstrap.EnsureSuperAdmin(ctx, bootstrap.AdminConfig{
			Users:    a.Store.Users(),
			Email:    cfg.Bootstrap.AdminEmail,
			Password: cfg.Bootstrap.AdminPassword,
		}); err != nil {
			lg.Error("superadmin bootstrap failed", logger.Err(err))
		}
	}

	lg.Info("service up",
		logger.String("env", cfg.App.Env),
		logger.String("addr", cfg.Addr()),
		logger.String("api_prefix", cfg.Server.APIPrefix),
		logger.String("store", a.Store.Name()),
		logger.String("cache", a.Cache.Driver()),
	)
	if err := httpserver.Start(ctx, cfg.Addr(), a.Handler); err != nil {
		lg.Error("http", logger.Err(err))
		os.Exit(1)
	}
}
