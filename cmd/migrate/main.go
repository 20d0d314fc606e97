// ABOUTME: Migration utility for moving deals between the sqlite and Charm KV backends.
// ABOUTME: Provides dry-run and backup capabilities so a copy never loses data.

package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/harperreed/dealdesk/charm"
	"github.com/harperreed/dealdesk/config"
	"github.com/harperreed/dealdesk/db"
	"github.com/harperreed/dealdesk/logging"
	"github.com/harperreed/dealdesk/pipeline"
	"go.uber.org/zap"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	dbPath := flag.String("db", cfg.DBPath, "Path to the sqlite database")
	to := flag.String("to", config.StorageCharm, "Destination backend: charm or sqlite")
	dryRun := flag.Bool("dry-run", false, "Show what would happen without making changes")
	backup := flag.Bool("backup", true, "Back up the sqlite file before writing to it")
	force := flag.Bool("force", false, "Overwrite deals that already exist in the destination")
	flag.Parse()

	logger, err := logging.New(cfg.Log)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: failed to create logger: %v\n", err)
		os.Exit(1)
	}
	defer func() { _ = logger.Sync() }()

	if err := run(context.Background(), logger, *dbPath, *to, *dryRun, *backup, *force); err != nil {
		logger.Error("migration failed", zap.Error(err))
		os.Exit(1)
	}
	logger.Info("migration completed successfully")
}

func run(ctx context.Context, logger *zap.Logger, dbPath, to string, dryRun, createBackup, force bool) error {
	if _, err := os.Stat(dbPath); os.IsNotExist(err) && to == config.StorageCharm {
		return fmt.Errorf("database file does not exist: %s", dbPath)
	}

	if createBackup && !dryRun && to == config.StorageSQLite {
		if _, err := backupFile(dbPath, time.Now()); err != nil {
			return err
		}
	}

	database, err := db.OpenDatabase(dbPath)
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	defer func() { _ = database.Close() }()

	client, err := charm.Open(nil, logger.Named("charm"))
	if err != nil {
		return fmt.Errorf("failed to open charm: %w", err)
	}
	defer func() { _ = client.Close() }()

	sqliteRepo := db.NewDealRepository(database)
	charmRepo := charm.NewDealRepository(client)

	var src, dst pipeline.Repository = sqliteRepo, charmRepo
	switch to {
	case config.StorageCharm:
	case config.StorageSQLite:
		src, dst = charmRepo, sqliteRepo
	default:
		return fmt.Errorf("unknown destination %q (want charm or sqlite)", to)
	}

	report, err := migrate(ctx, src, dst, dryRun, force)
	if err != nil {
		return err
	}

	prefix := ""
	if dryRun {
		prefix = "[DRY RUN] "
	}
	logger.Info(prefix+"migration summary",
		zap.String("to", to),
		zap.Int("copied", report.Copied),
		zap.Int("skipped", report.Skipped),
		zap.Int("overwritten", report.Overwritten))
	return nil
}

// Report counts what a migration did, or would do on a dry run.
type Report struct {
	Copied      int
	Skipped     int
	Overwritten int
}

// migrate copies every deal from src into dst. Deals already in dst are
// skipped unless force is set.
func migrate(ctx context.Context, src, dst pipeline.Repository, dryRun, force bool) (Report, error) {
	var report Report

	deals, err := src.LoadDeals(ctx)
	if err != nil {
		return report, fmt.Errorf("failed to load source deals: %w", err)
	}
	existing, err := dst.LoadDeals(ctx)
	if err != nil {
		return report, fmt.Errorf("failed to load destination deals: %w", err)
	}
	present := make(map[string]bool, len(existing))
	for _, d := range existing {
		present[d.ID.String()] = true
	}

	for _, d := range deals {
		if present[d.ID.String()] {
			if !force {
				report.Skipped++
				continue
			}
			report.Overwritten++
		} else {
			report.Copied++
		}

		if dryRun {
			continue
		}
		if err := dst.SaveDeal(ctx, d); err != nil {
			return report, fmt.Errorf("failed to save deal %s: %w", d.ID, err)
		}
	}
	return report, nil
}

func backupFile(path string, now time.Time) (string, error) {
	input, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("failed to read database: %w", err)
	}

	backupPath := fmt.Sprintf("%s.backup.%s", path, now.Format("20060102-150405"))
	if err := os.WriteFile(backupPath, input, 0600); err != nil {
		return "", fmt.Errorf("failed to create backup: %w", err)
	}
	return backupPath, nil
}
