// Command migrate manages the invosight database schema. The migrations
// directory is resolved relative to the working directory, so run it from
// the repository root (or set INVOSIGHT_MIGRATIONS_PATH).
package main

import (
	"errors"
	"fmt"
	"log"
	"os"
	"strconv"

	"github.com/golang-migrate/migrate/v4"
	_ "github.com/golang-migrate/migrate/v4/database/postgres"
	_ "github.com/golang-migrate/migrate/v4/source/file"
	"github.com/joho/godotenv"

	"invosight/internal/config"
)

const usage = `invosight schema migrations

Usage:
  migrate up         apply all pending migrations
  migrate down       revert all migrations
  migrate steps N    apply N migrations (negative N reverts)
  migrate force V    mark version V as applied without running it
  migrate version    print current version and dirty flag`

func main() {
	if err := run(os.Args[1:]); err != nil {
		log.Fatal(err)
	}
}

func run(args []string) error {
	_ = godotenv.Load()

	if len(args) < 1 {
		fmt.Println(usage)
		os.Exit(1)
	}

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	path := os.Getenv("INVOSIGHT_MIGRATIONS_PATH")
	if path == "" {
		path = "db/migrations"
	}

	m, err := migrate.New("file://"+path, cfg.DB.DSN())
	if err != nil {
		return fmt.Errorf("opening migrations at %s: %w", path, err)
	}
	defer m.Close()

	switch args[0] {
	case "up":
		if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
			return fmt.Errorf("up: %w", err)
		}
		log.Println("schema is up to date")
	case "down":
		if err := m.Down(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
			return fmt.Errorf("down: %w", err)
		}
		log.Println("schema reverted")
	case "steps":
		n, err := intArg(args, "steps")
		if err != nil {
			return err
		}
		if err := m.Steps(n); err != nil && !errors.Is(err, migrate.ErrNoChange) {
			return fmt.Errorf("steps %d: %w", n, err)
		}
		log.Printf("applied %d step(s)", n)
	case "force":
		v, err := intArg(args, "force")
		if err != nil {
			return err
		}
		if err := m.Force(v); err != nil {
			return fmt.Errorf("force %d: %w", v, err)
		}
		log.Printf("forced version to %d", v)
	case "version":
		v, dirty, err := m.Version()
		if errors.Is(err, migrate.ErrNilVersion) {
			fmt.Println("no migrations applied")
			return nil
		}
		if err != nil {
			return fmt.Errorf("version: %w", err)
		}
		fmt.Printf("version=%d dirty=%t\n", v, dirty)
	default:
		fmt.Println(usage)
		os.Exit(1)
	}
	return nil
}

func intArg(args []string, cmd string) (int, error) {
	if len(args) < 2 {
		return 0, fmt.Errorf("%s requires a numeric argument", cmd)
	}
	n, err := strconv.Atoi(args[1])
	if err != nil {
		return 0, fmt.Errorf("%s: %q is not a number", cmd, args[1])
	}
	return n, nil
}
