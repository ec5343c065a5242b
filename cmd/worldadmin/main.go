// Package main provides a CLI tool for operating worlds: create, update,
// lifecycle transitions, and the join-request approval queue.
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/questforge/mud/internal/config"
	"github.com/questforge/mud/internal/game/admission"
	"github.com/questforge/mud/internal/game/world"
	"github.com/questforge/mud/internal/storage/postgres"
)

const usage = `usage: worldadmin <command> [flags]

commands:
  create        create a world
  list          list all worlds
  update        update world fields
  set-state     transition a world's lifecycle state
  remove        delete a world and everything in it
  joins         list join requests for a world
  approve       approve a user's join request
  reject        reject a user's join request
`

func main() {
	if len(os.Args) < 2 {
		fmt.Fprint(os.Stderr, usage)
		os.Exit(1)
	}
	command := os.Args[1]
	args := os.Args[2:]

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	switch command {
	case "create":
		cmdCreate(ctx, args)
	case "list":
		cmdList(ctx, args)
	case "update":
		cmdUpdate(ctx, args)
	case "set-state":
		cmdSetState(ctx, args)
	case "remove":
		cmdRemove(ctx, args)
	case "joins":
		cmdJoins(ctx, args)
	case "approve":
		cmdDecide(ctx, args, true)
	case "reject":
		cmdDecide(ctx, args, false)
	default:
		fmt.Fprintf(os.Stderr, "unknown command %q\n\n%s", command, usage)
		os.Exit(1)
	}
}

// connect loads config and opens the store shared by every subcommand.
func connect(ctx context.Context, fs *flag.FlagSet, args []string) (config.Config, *postgres.Pool, *postgres.Store) {
	configPath := fs.String("config", "configs/dev.yaml", "path to configuration file")
	if err := fs.Parse(args); err != nil {
		os.Exit(1)
	}

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("loading config: %v", err)
	}
	pool, err := postgres.NewPool(ctx, cfg.Database)
	if err != nil {
		log.Fatalf("connecting to database: %v", err)
	}
	return cfg, pool, postgres.NewStore(pool.DB())
}

func cmdCreate(ctx context.Context, args []string) {
	fs := flag.NewFlagSet("create", flag.ExitOnError)
	name := fs.String("name", "", "world display name (required)")
	description := fs.String("description", "", "world description")
	imageKey := fs.String("image-key", "", "cover image key")
	public := fs.Bool("public", false, "open to everyone without approval")
	autoRestart := fs.Bool("auto-restart", false, "restart automatically after a stop")
	_, pool, store := connect(ctx, fs, args)
	defer pool.Close()

	if *name == "" {
		log.Fatal("create: -name is required")
	}

	w := &world.World{
		ID:          uuid.NewString(),
		Name:        *name,
		Description: *description,
		ImageKey:    *imageKey,
		IsPublic:    *public,
		AutoRestart: *autoRestart,
		State:       world.StateInactive,
	}
	if err := store.Worlds.Create(ctx, w); err != nil {
		log.Fatalf("creating world: %v", err)
	}
	fmt.Fprintf(os.Stdout, "created world %s (%s)\n", w.Name, w.ID)
}

func cmdList(ctx context.Context, args []string) {
	fs := flag.NewFlagSet("list", flag.ExitOnError)
	_, pool, store := connect(ctx, fs, args)
	defer pool.Close()

	worlds, err := store.Worlds.List(ctx)
	if err != nil {
		log.Fatalf("listing worlds: %v", err)
	}
	for _, w := range worlds {
		visibility := "restricted"
		if w.IsPublic {
			visibility = "public"
		}
		fmt.Fprintf(os.Stdout, "%s  %-20s %-10s %s\n", w.ID, w.Name, w.State, visibility)
	}
}

func cmdUpdate(ctx context.Context, args []string) {
	fs := flag.NewFlagSet("update", flag.ExitOnError)
	id := fs.String("id", "", "world id (required)")
	name := fs.String("name", "", "new display name")
	description := fs.String("description", "", "new description")
	imageKey := fs.String("image-key", "", "new cover image key")
	public := fs.String("public", "", "new visibility: true or false")
	autoRestart := fs.String("auto-restart", "", "new auto-restart: true or false")
	cfg, pool, store := connect(ctx, fs, args)
	defer pool.Close()

	if *id == "" {
		log.Fatal("update: -id is required")
	}

	var upd postgres.WorldUpdateArgs
	visited := false
	fs.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "name":
			upd.Name, visited = name, true
		case "description":
			upd.Description, visited = description, true
		case "image-key":
			upd.ImageKey, visited = imageKey, true
		case "public":
			upd.IsPublic, visited = parseBoolFlag(f.Name, *public), true
		case "auto-restart":
			upd.AutoRestart, visited = parseBoolFlag(f.Name, *autoRestart), true
		}
	})
	if !visited {
		log.Fatal("update: no fields given")
	}

	w, visibilityFlipped, err := store.Worlds.Update(ctx, *id, upd)
	if err != nil {
		log.Fatalf("updating world: %v", err)
	}
	fmt.Fprintf(os.Stdout, "updated world %s (%s)\n", w.Name, w.ID)

	if visibilityFlipped {
		workflow := admission.NewWorkflow(store, cfg.Admission.Policy(), zap.NewNop())
		n, err := workflow.VisibilityChanged(ctx, w.ID, w.IsPublic)
		if err != nil {
			log.Fatalf("applying visibility policy: %v", err)
		}
		if n > 0 {
			fmt.Fprintf(os.Stdout, "retired %d pending join requests\n", n)
		}
	}
}

func parseBoolFlag(name, value string) *bool {
	switch value {
	case "true":
		v := true
		return &v
	case "false":
		v := false
		return &v
	}
	log.Fatalf("-%s must be true or false, got %q", name, value)
	return nil
}

func cmdSetState(ctx context.Context, args []string) {
	fs := flag.NewFlagSet("set-state", flag.ExitOnError)
	id := fs.String("id", "", "world id (required)")
	state := fs.String("state", "", "target state: inactive, active, or stopped (required)")
	_, pool, store := connect(ctx, fs, args)
	defer pool.Close()

	if *id == "" || *state == "" {
		log.Fatal("set-state: -id and -state are required")
	}
	if err := store.Worlds.SetState(ctx, *id, world.State(*state)); err != nil {
		log.Fatalf("setting state: %v", err)
	}
	fmt.Fprintf(os.Stdout, "world %s is now %s\n", *id, *state)
}

func cmdRemove(ctx context.Context, args []string) {
	fs := flag.NewFlagSet("remove", flag.ExitOnError)
	id := fs.String("id", "", "world id (required)")
	_, pool, store := connect(ctx, fs, args)
	defer pool.Close()

	if *id == "" {
		log.Fatal("remove: -id is required")
	}
	if err := store.Worlds.Delete(ctx, *id); err != nil {
		log.Fatalf("deleting world: %v", err)
	}
	fmt.Fprintf(os.Stdout, "deleted world %s\n", *id)
}

func cmdJoins(ctx context.Context, args []string) {
	fs := flag.NewFlagSet("joins", flag.ExitOnError)
	id := fs.String("world", "", "world id (required)")
	_, pool, store := connect(ctx, fs, args)
	defer pool.Close()

	if *id == "" {
		log.Fatal("joins: -world is required")
	}
	requests, err := store.JoinRequests.ListByWorld(ctx, *id)
	if err != nil {
		log.Fatalf("listing join requests: %v", err)
	}
	for _, req := range requests {
		fmt.Fprintf(os.Stdout, "%s  %s\n", req.UserID, req.State)
	}
}

func cmdDecide(ctx context.Context, args []string, approve bool) {
	name := "reject"
	if approve {
		name = "approve"
	}
	fs := flag.NewFlagSet(name, flag.ExitOnError)
	worldID := fs.String("world", "", "world id (required)")
	userID := fs.String("user", "", "user id (required)")
	cfg, pool, store := connect(ctx, fs, args)
	defer pool.Close()

	if *worldID == "" || *userID == "" {
		log.Fatalf("%s: -world and -user are required", name)
	}

	workflow := admission.NewWorkflow(store, cfg.Admission.Policy(), zap.NewNop())
	var (
		ok  bool
		err error
	)
	if approve {
		ok, err = workflow.Approve(ctx, *userID, *worldID)
	} else {
		ok, err = workflow.Reject(ctx, *userID, *worldID)
	}
	if err != nil {
		log.Fatalf("%s: %v", name, err)
	}
	if !ok {
		fmt.Fprintf(os.Stdout, "no change: request already in target state or missing\n")
		return
	}
	fmt.Fprintf(os.Stdout, "%sd join request for user %s in world %s\n", name, *userID, *worldID)
}
