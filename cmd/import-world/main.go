// Package main provides a CLI tool that loads world YAML fixtures into the
// store: world, areas, rooms, and connections, in dependency order.
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/questforge/mud/internal/config"
	"github.com/questforge/mud/internal/game/world"
	"github.com/questforge/mud/internal/storage/postgres"
)

func main() {
	start := time.Now()

	configPath := flag.String("config", "configs/dev.yaml", "path to configuration file")
	worldsDir := flag.String("worlds", "content/worlds", "path to world YAML files directory")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("loading config: %v", err)
	}

	fixtures, err := world.LoadFixturesFromDir(*worldsDir)
	if err != nil {
		log.Fatalf("loading world fixtures: %v", err)
	}
	if len(fixtures) == 0 {
		log.Fatalf("no world files found in %s", *worldsDir)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	pool, err := postgres.NewPool(ctx, cfg.Database)
	if err != nil {
		log.Fatalf("connecting to database: %v", err)
	}
	defer pool.Close()
	store := postgres.NewStore(pool.DB())

	for _, f := range fixtures {
		if err := importFixture(ctx, store, f); err != nil {
			log.Fatalf("importing world %q: %v", f.World.Name, err)
		}
		fmt.Fprintf(os.Stdout, "imported world %s (%s): %d areas, %d rooms, %d connections\n",
			f.World.Name, f.World.ID, len(f.Areas), len(f.Rooms), len(f.Connections))
	}

	fmt.Fprintf(os.Stdout, "imported %d worlds [%s]\n", len(fixtures), time.Since(start))
}

// importFixture writes one fixture in dependency order so every foreign
// key already has its target row.
func importFixture(ctx context.Context, store *postgres.Store, f *world.Fixture) error {
	if err := store.Worlds.Create(ctx, f.World); err != nil {
		return err
	}
	for _, a := range f.Areas {
		if err := store.Rooms.CreateArea(ctx, a); err != nil {
			return err
		}
	}
	for _, r := range f.Rooms {
		if err := store.Rooms.CreateRoom(ctx, r); err != nil {
			return err
		}
	}
	for _, c := range f.Connections {
		if err := store.Rooms.CreateConnection(ctx, c); err != nil {
			return err
		}
	}
	return nil
}
