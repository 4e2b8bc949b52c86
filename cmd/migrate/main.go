package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/akiliki/arruti-app-sub000/internal/infrastructure/config"
	"github.com/akiliki/arruti-app-sub000/internal/infrastructure/logger"
	"github.com/akiliki/arruti-app-sub000/internal/infrastructure/migration"
	"github.com/akiliki/arruti-app-sub000/internal/infrastructure/persistence"
	"github.com/akiliki/arruti-app-sub000/internal/infrastructure/storage"
	"go.uber.org/zap"
)

func main() {
	var (
		logLevel  string
		olderThan time.Duration
		limit     int
	)

	flag.StringVar(&logLevel, "log-level", "info", "Log level (debug, info, warn, error)")
	flag.DurationVar(&olderThan, "older-than", 30*24*time.Hour, "Age of the entries removed by prune")
	flag.IntVar(&limit, "limit", 20, "Entries printed by list")
	flag.Usage = printUsage
	flag.Parse()

	args := flag.Args()
	if len(args) == 0 {
		printUsage()
		os.Exit(1)
	}
	command := args[0]

	log, err := logger.New(&logger.Config{
		Level:      logLevel,
		Format:     "console",
		Output:     "stdout",
		TimeFormat: "2006-01-02 15:04:05",
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer func() {
		logger.Sync(log)
	}()

	cfg, err := config.Load()
	if err != nil {
		log.Fatal("Failed to load configuration", zap.Error(err))
	}
	if !cfg.Journal.Enabled {
		log.Fatal("The mutation journal is disabled (journal.enabled=false)")
	}

	db, err := persistence.NewDatabase(cfg.Journal, log, logLevel)
	if err != nil {
		log.Fatal("Failed to connect to journal database", zap.Error(err))
	}
	defer db.Close()

	log.Info("Journal CLI started",
		zap.String("command", command),
		zap.String("driver", cfg.Journal.Driver),
	)

	repo := persistence.NewGormJournalRepository(db.DB)
	ctx := context.Background()

	switch command {
	case "up":
		if err := db.Migrate(log); err != nil {
			log.Fatal("Migration failed", zap.Error(err))
		}
		log.Info("Journal schema is up to date")

	case "down", "version", "force":
		if cfg.Journal.Driver != persistence.DriverPostgres {
			log.Fatal("Versioned migrations only apply to the postgres journal", zap.String("driver", cfg.Journal.Driver))
		}
		m, err := migration.Open(cfg.Journal.DSN, log)
		if err != nil {
			log.Fatal("Failed to prepare migrations", zap.Error(err))
		}
		defer m.Close()
		runVersioned(m, command, args[1:], log)

	case "status":
		names, err := migration.Migrations()
		if err != nil {
			log.Fatal("Failed to list migrations", zap.Error(err))
		}
		stats, err := db.Stats()
		if err != nil {
			log.Fatal("Failed to read pool stats", zap.Error(err))
		}
		log.Info("Journal status",
			zap.Strings("migrations", names),
			zap.Int("open_connections", stats.OpenConnections),
			zap.Int("in_use", stats.InUse),
			zap.Int("idle", stats.Idle),
		)

	case "prune":
		if olderThan <= 0 {
			log.Fatal("-older-than must be positive", zap.Duration("value", olderThan))
		}
		cutoff := time.Now().Add(-olderThan)
		if cfg.Archive.Bucket != "" {
			archiveBefore(ctx, cfg.Archive, repo, cutoff, log)
		}
		removed, err := repo.Prune(ctx, cutoff)
		if err != nil {
			log.Fatal("Prune failed", zap.Error(err))
		}
		log.Info("Journal pruned",
			zap.Time("cutoff", cutoff),
			zap.Int64("removed", removed),
		)

	case "list":
		records, total, err := repo.List(ctx, persistence.JournalFilter{Limit: limit})
		if err != nil {
			log.Fatal("List failed", zap.Error(err))
		}
		log.Info("Recent mutations", zap.Int64("total", total), zap.Int("shown", len(records)))
		for _, rec := range records {
			fmt.Printf("  %6d  %-13s  %-11s  %s  %v  %s\n",
				rec.Seq, rec.Kind, rec.Outcome, rec.FinishedAt.Format(time.RFC3339), rec.OrderIDs, rec.Error)
		}

	default:
		log.Error("Unknown command", zap.String("command", command))
		printUsage()
		os.Exit(1)
	}
}

// archiveBefore uploads the entries about to be pruned; a failed upload stops the prune
func archiveBefore(ctx context.Context, cfg config.ArchiveConfig, repo *persistence.GormJournalRepository, cutoff time.Time, log *zap.Logger) {
	records, err := repo.FinishedBefore(ctx, cutoff)
	if err != nil {
		log.Fatal("Failed to read entries to archive", zap.Error(err))
	}
	archive, err := storage.NewS3JournalArchive(ctx, cfg, storage.WithLogger(log))
	if err != nil {
		log.Fatal("Failed to configure the journal archive", zap.Error(err))
	}
	if _, err := archive.Archive(ctx, records); err != nil {
		log.Fatal("Archive failed; nothing was pruned", zap.Error(err))
	}
}

// runVersioned handles the commands that act on the postgres schema version
func runVersioned(m *migration.Migrator, command string, args []string, log *zap.Logger) {
	switch command {
	case "down":
		steps := 1
		if len(args) > 0 {
			n, err := strconv.Atoi(args[0])
			if err != nil || n < 1 {
				log.Fatal("down takes a positive step count", zap.String("value", args[0]))
			}
			steps = n
		}
		if err := m.Steps(-steps); err != nil {
			log.Fatal("Rollback failed", zap.Error(err))
		}
	case "version":
		version, dirty, err := m.Version()
		if err != nil {
			log.Fatal("Failed to read version", zap.Error(err))
		}
		log.Info("Journal schema version", zap.Uint("version", version), zap.Bool("dirty", dirty))
	case "force":
		if len(args) == 0 {
			log.Fatal("force requires a version")
		}
		version, err := strconv.Atoi(args[0])
		if err != nil {
			log.Fatal("Invalid version", zap.String("value", args[0]))
		}
		if err := m.Force(version); err != nil {
			log.Fatal("Force failed", zap.Error(err))
		}
	}
}

func printUsage() {
	fmt.Println(`Mutation journal maintenance

Usage:
  migrate [flags] <command> [args]

Commands:
  up           Create or update the journal table
  down [N]     Roll back N versioned migrations (postgres, default 1)
  version      Print the applied schema version (postgres)
  force V      Mark version V as applied without running it (postgres)
  status       Print the embedded migrations and connection pool usage
  prune        Delete entries older than -older-than, archiving them first
               when archive.bucket is set
  list         Print the most recent entries

Flags:
  -log-level   Log level (debug, info, warn, error)
  -older-than  Age of the entries removed by prune (default 720h)
  -limit       Entries printed by list (default 20)

Configuration is read from config.toml and BAKERY_* environment variables.`)
}
