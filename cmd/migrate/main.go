package main

import (
	"context"
	"flag"
	"io/fs"
	"log"
	"os"
	"strconv"
	"strings"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/joho/godotenv"

	"github.com/dropDatabas3/userauth/internal/config"
	"github.com/dropDatabas3/userauth/internal/store/pg"
	migrations "github.com/dropDatabas3/userauth/migrations/postgres"
)

// uso: migrate [-config path] [-dir path] [up|down] [steps]
func main() {
	var (
		configPath = flag.String("config", "", "Path to YAML config (optional; env overrides)")
		dir        = flag.String("dir", "", "Migrations directory (default: embedded migrations)")
		envFile    = flag.String("env-file", ".env", "Path to .env (loaded if present)")
	)
	flag.Parse()

	if *envFile != "" {
		_ = godotenv.Load(*envFile)
	}

	// Positional args: [action] [steps]
	action := "up"
	steps := 0
	args := flag.Args()
	if len(args) >= 1 && args[0] != "" {
		action = strings.ToLower(args[0])
	}
	if len(args) >= 2 {
		if n, err := strconv.Atoi(args[1]); err == nil && n > 0 {
			steps = n
		}
	}
	if action != "up" && action != "down" {
		log.Fatalf("unknown action %q (use up|down)", action)
	}

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("config load: %v", err)
	}
	if cfg.Storage.Driver != "postgres" {
		log.Fatalf("migrate requires STORAGE_DRIVER=postgres (got %q)", cfg.Storage.Driver)
	}

	ctx := context.Background()
	pool, err := pgxpool.New(ctx, cfg.Storage.DSN)
	if err != nil {
		log.Fatalf("pgxpool: %v", err)
	}
	defer pool.Close()

	var fsys fs.FS = migrations.FS
	if *dir != "" {
		fsys = os.DirFS(*dir)
	}
	res, err := pg.Migrate(ctx, pool, fsys, action, steps)
	if err != nil {
		log.Fatalf("migrate %s: %v", action, err)
	}
	if len(res.Applied) == 0 {
		log.Println("Nothing to do.")
		return
	}
	for _, f := range res.Applied {
		log.Printf("%s: %s", action, f)
	}
	log.Printf("%d migration(s) %s completed.", len(res.Applied), action)
}
