package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/Netflix/go-env"
	"github.com/dgraph-io/badger/v4"
	"github.com/joho/godotenv"

	"voice-lab/internal"
	"voice-lab/moderation"
	"voice-lab/platform"
	"voice-lab/repositories"
	"voice-lab/runtime"
	"voice-lab/runtime/workers"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "Fatal error: %v\n", err)
		os.Exit(1)
	}
}

// run initializes all components, manages the engine lifecycle, and centralizes
// error reporting. Returning the error instead of calling os.Exit directly
// guarantees the defers (BadgerDB close, final snapshot) always execute.
func run() error {
	// 1. Configuration & Logger
	_ = godotenv.Load()
	var config internal.Config
	if _, err := env.UnmarshalFromEnviron(&config); err != nil {
		return fmt.Errorf("config error: %w", err)
	}
	log := internal.Logger(config.LogLevel)

	censorChar, ok := internal.CensorRune(config.CensorReplacement)
	if !ok {
		return fmt.Errorf("CENSOR_REPLACEMENT must be a single character, got %q", config.CensorReplacement)
	}

	// 2. Database (BadgerDB)
	db, err := badger.Open(badger.DefaultOptions(config.BadgerFilepath).
		WithLoggingLevel(badger.INFO))
	if err != nil {
		return fmt.Errorf("database opening failed: %w", err)
	}
	//  Defer will be executed before run() returned anything to main()
	defer func() {
		log.Info("Closing BadgerDB...")
		_ = db.Close()
	}()

	// 3. Domain wiring
	storage := repositories.NewBadgerStorage(db, log)
	snapshots := repositories.NewSnapshots(storage)

	censor, err := moderation.NewEmbeddedModerator(censorChar)
	if err != nil {
		return fmt.Errorf("moderation setup failed: %w", err)
	}

	settings := runtime.Settings{
		PlatformTimeout:        config.PlatformTimeout,
		DebounceWindow:         config.DebounceWindow,
		RenameTimeout:          config.RenameTimeout,
		MoveDelay:              config.MoveDelay,
		RenameLockMaxAge:       config.RenameLockMaxAge,
		CompletedLockRetention: config.CompletedLockRetention,
		ActivityRetention:      config.ActivityRetention,
	}

	// TODO: swap the in-memory platform for the gateway client once it ships.
	manager := runtime.NewManager(log, platform.NewMemory(), snapshots, &censor, settings)
	if err = manager.Init(); err != nil {
		return fmt.Errorf("state restore failed: %w", err)
	}
	defer manager.Shutdown()

	// 4. Context & Signals
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// 5. Background workers under supervision
	sup := workers.NewSupervisor(log)
	sup.Add(
		workers.NewSweeperWorker(log, manager, config.SweepInterval),
		workers.NewActivityWorker(log, manager, config.ActivitySweepInterval),
	)
	go sup.Run(ctx)

	log.Info("Room lifecycle engine started", "at", time.Now().UTC())

	// 6. Wait for Stop
	<-ctx.Done()
	log.Info("Shutting down gracefully...")

	// 7. Final Cleanup
	sup.Stop()
	log.Info("Program stopped cleanly")

	return nil
}
