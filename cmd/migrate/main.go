package main

import (
	"database/sql"
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	_ "github.com/lib/pq"
	"go.uber.org/zap"

	"github.com/unaytac-cmd/printnest-sub005/internal/infrastructure/config"
	"github.com/unaytac-cmd/printnest-sub005/internal/infrastructure/logger"
	"github.com/unaytac-cmd/printnest-sub005/internal/infrastructure/migration"
)

func main() {
	var (
		migrationsPath string
		logLevel       string
	)
	flag.StringVar(&migrationsPath, "path", "migrations", "Path to migrations directory")
	flag.StringVar(&logLevel, "log-level", "info", "Log level (debug, info, warn, error)")
	flag.Parse()

	args := flag.Args()
	if len(args) == 0 {
		printUsage()
		os.Exit(1)
	}

	log, err := logger.New(&logger.Config{
		Level:  logLevel,
		Format: "console",
		Output: "stdout",
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer func() {
		_ = logger.Sync(log)
	}()

	if abs, err := filepath.Abs(migrationsPath); err == nil {
		migrationsPath = abs
	}

	command := args[0]
	log.Info("migrate started",
		zap.String("command", command),
		zap.String("migrations_path", migrationsPath))

	// create and list work on files alone
	switch command {
	case "create":
		runCreate(log, migrationsPath, args[1:])
		return
	case "list":
		runList(log, migrationsPath)
		return
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatal("Failed to load configuration", zap.Error(err))
	}

	db, err := sql.Open("postgres", cfg.Database.DSN())
	if err != nil {
		log.Fatal("Failed to open database", zap.Error(err))
	}
	defer db.Close()
	if err := db.Ping(); err != nil {
		log.Fatal("Failed to reach database", zap.Error(err))
	}

	m, err := migration.New(db, migrationsPath, log)
	if err != nil {
		log.Fatal("Failed to create migrator", zap.Error(err))
	}
	defer m.Close()

	switch command {
	case "up":
		err = m.Up()
	case "down":
		err = m.Down()
	case "step":
		err = m.Steps(intArg(log, args, "step count"))
	case "goto":
		target := intArg(log, args, "target version")
		if target < 0 {
			log.Fatal("Target version cannot be negative", zap.Int("version", target))
		}
		err = m.GoTo(uint(target))
	case "force":
		err = m.Force(intArg(log, args, "version"))
	case "version":
		runVersion(log, m)
	case "drop":
		if !hasFlag(args[1:], "-confirm") {
			log.Fatal("Drop removes every table. Re-run as 'migrate drop -confirm' to proceed.")
		}
		err = m.Drop()
	default:
		log.Error("Unknown command", zap.String("command", command))
		printUsage()
		os.Exit(1)
	}
	if err != nil {
		log.Fatal("Migration failed", zap.String("command", command), zap.Error(err))
	}
}

func runCreate(log *zap.Logger, dir string, args []string) {
	if len(args) < 1 {
		log.Fatal("Migration name required. Usage: migrate create <name> [description]")
	}
	description := ""
	if len(args) > 1 {
		description = args[1]
	}

	mf, err := migration.CreateMigration(dir, args[0], description)
	if err != nil {
		log.Fatal("Failed to create migration", zap.Error(err))
	}
	log.Info("migration created",
		zap.String("version", mf.Version),
		zap.String("up", mf.UpPath),
		zap.String("down", mf.DownPath))
}

func runList(log *zap.Logger, dir string) {
	names, err := migration.ListMigrations(dir)
	if err != nil {
		log.Fatal("Failed to list migrations", zap.Error(err))
	}
	if len(names) == 0 {
		log.Info("no migrations found")
		return
	}
	log.Info("available migrations", zap.Int("count", len(names)))
	for _, name := range names {
		fmt.Println("  -", name)
	}
}

func runVersion(log *zap.Logger, m *migration.Migrator) {
	version, dirty, err := m.Version()
	if err != nil {
		log.Fatal("Failed to read schema version", zap.Error(err))
	}
	if version == 0 {
		log.Info("no migrations applied")
		return
	}
	log.Info("schema version", zap.Uint("version", version), zap.Bool("dirty", dirty))
}

func intArg(log *zap.Logger, args []string, what string) int {
	if len(args) < 2 {
		log.Fatal("Missing argument", zap.String("expected", what))
	}
	n, err := strconv.Atoi(args[1])
	if err != nil {
		log.Fatal("Invalid argument", zap.String("expected", what), zap.String("got", args[1]))
	}
	return n
}

func hasFlag(args []string, name string) bool {
	for _, arg := range args {
		if arg == name || arg == "-"+name {
			return true
		}
	}
	return false
}

func printUsage() {
	fmt.Println(`PrintNest gangsheet schema migrations

Usage:
  migrate [flags] <command> [arguments]

Commands:
  up                    Apply all pending migrations
  down                  Roll back all migrations
  step <n>              Apply n migrations (negative rolls back)
  goto <version>        Migrate to a specific version
  version               Show the current schema version
  force <version>       Overwrite the recorded version (dirty-state recovery)
  drop -confirm         Drop every database object
  create <name> [desc]  Create an empty up/down SQL pair
  list                  List migration pairs in the directory

Flags:
  -path string          Migrations directory (default "migrations")
  -log-level string     debug, info, warn, error (default "info")

Database connection comes from PRINTNEST_DATABASE_* environment
variables (HOST, PORT, USER, PASSWORD, DBNAME, SSLMODE) or config.yaml.`)
}
