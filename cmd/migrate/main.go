// Package main provides the schema migration runner for the world store.
package main

import (
	"errors"
	"flag"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/golang-migrate/migrate/v4"
	_ "github.com/golang-migrate/migrate/v4/database/postgres"
	_ "github.com/golang-migrate/migrate/v4/source/file"
	"github.com/spf13/viper"

	"github.com/questforge/mud/internal/config"
)

func main() {
	start := time.Now()

	configPath := flag.String("config", "configs/dev.yaml", "path to configuration file")
	migrationsDir := flag.String("migrations", "migrations", "path to migration files")
	command := flag.String("command", "up", "one of: up, down, version")
	steps := flag.Int("steps", 0, "number of steps for up/down (0 = all)")
	flag.Parse()

	v := viper.New()
	v.SetConfigFile(*configPath)
	if err := v.ReadInConfig(); err != nil {
		log.Fatalf("reading config: %v", err)
	}
	var dbCfg config.DatabaseConfig
	if err := v.Sub("database").Unmarshal(&dbCfg); err != nil {
		log.Fatalf("parsing database config: %v", err)
	}

	m, err := migrate.New("file://"+*migrationsDir, dbCfg.DSN())
	if err != nil {
		log.Fatalf("creating migrator: %v", err)
	}
	defer m.Close()

	switch *command {
	case "up", "down":
		err = run(m, *command, *steps)
	case "version":
		version, dirty, verr := m.Version()
		if verr != nil && !errors.Is(verr, migrate.ErrNilVersion) {
			log.Fatalf("reading version: %v", verr)
		}
		fmt.Fprintf(os.Stdout, "version=%d dirty=%v\n", version, dirty)
		return
	default:
		log.Fatalf("invalid command %q: must be up, down, or version", *command)
	}

	if err != nil && !errors.Is(err, migrate.ErrNoChange) {
		log.Fatalf("migration failed: %v", err)
	}

	version, dirty, _ := m.Version()
	if errors.Is(err, migrate.ErrNoChange) {
		fmt.Fprintf(os.Stdout, "no changes (version=%d dirty=%v) [%s]\n", version, dirty, time.Since(start))
		return
	}
	fmt.Fprintf(os.Stdout, "migrated %s to version=%d dirty=%v [%s]\n", *command, version, dirty, time.Since(start))
}

// run applies steps in the given direction; zero steps means all the way.
func run(m *migrate.Migrate, command string, steps int) error {
	down := command == "down"
	if steps > 0 {
		if down {
			steps = -steps
		}
		return m.Steps(steps)
	}
	if down {
		return m.Down()
	}
	return m.Up()
}
