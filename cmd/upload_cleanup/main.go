// Command upload_cleanup deletes staged files left behind by interrupted
// requests and upload records whose file no longer exists.
package main

import (
	"context"
	"flag"
	"os"
	"path/filepath"
	"time"

	"fileintake/internal/config"
	"fileintake/internal/database"
	"fileintake/internal/domain/upload"
	"fileintake/internal/logger"
	"fileintake/internal/pathstore"
)

func main() {
	maxAge := flag.Duration("staging-max-age", 24*time.Hour, "remove staged files older than this")
	dryRun := flag.Bool("dry-run", false, "report without deleting")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		logger.GetLogger().Error("failed to load config", logger.Error(err))
		os.Exit(1)
	}
	log := logger.Init(cfg.AppEnv)
	ctx := context.Background()

	staging, err := upload.NewStagingArea(cfg.Upload.StagingDir)
	if err != nil {
		log.Error("failed to open staging dir", logger.Error(err))
		os.Exit(1)
	}
	store := pathstore.New(nil, pathstore.Ownership{}, log)

	entries, err := os.ReadDir(staging.Dir())
	if err != nil {
		log.Error("failed to read staging dir", logger.Error(err))
		os.Exit(1)
	}
	cutoff := time.Now().Add(-*maxAge)
	staged := 0
	for _, e := range entries {
		info, err := e.Info()
		if err != nil || info.IsDir() || info.ModTime().After(cutoff) {
			continue
		}
		if *dryRun || store.Remove(ctx, filepath.Join(staging.Dir(), e.Name())) {
			staged++
		}
	}

	db, err := database.Connect(cfg.DatabaseURL)
	if err != nil {
		log.Error("db connect failed", logger.Error(err))
		os.Exit(1)
	}

	var uploads []upload.Upload
	if err := db.WithContext(ctx).Find(&uploads).Error; err != nil {
		log.Error("failed to list uploads", logger.Error(err))
		os.Exit(1)
	}

	base := filepath.Clean(cfg.Upload.BasePath)
	orphans := 0
	for _, u := range uploads {
		if store.FS().Exists(filepath.Join(base, filepath.FromSlash(u.FilePath))) {
			continue
		}
		orphans++
		if *dryRun {
			log.Info("orphan record", "upload_id", u.ID, "path", u.FilePath)
			continue
		}
		if err := db.WithContext(ctx).Delete(&upload.Upload{}, "id = ?", u.ID).Error; err != nil {
			log.Error("failed to delete orphan record", "upload_id", u.ID, logger.Error(err))
		}
	}

	log.Info("upload cleanup completed", "staged_files", staged, "orphan_records", orphans, "dry_run", *dryRun)
}
