// Command ingest stores files that are already on local disk the same way
// the API stores uploads: date-sharded, renamed, owned by the web user and
// recorded in the database.
//
//	ingest [-timestamp unix] [-user id] [-delete-source] file...
//	ingest -remove [-timestamp unix] stored-name...
package main

import (
	"context"
	"flag"
	"fmt"
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
	timestamp := flag.Int64("timestamp", 0, "unix seconds selecting the date folder (default now)")
	userID := flag.Int64("user", 0, "user id recorded as owner")
	remove := flag.Bool("remove", false, "remove stored files by name instead of ingesting")
	deleteSource := flag.Bool("delete-source", false, "delete each source file after it is stored")
	flag.Usage = func() {
		fmt.Fprintf(flag.CommandLine.Output(), "usage: %s [flags] file...\n", filepath.Base(os.Args[0]))
		flag.PrintDefaults()
	}
	flag.Parse()

	if flag.NArg() == 0 {
		flag.Usage()
		os.Exit(2)
	}

	if err := run(*timestamp, *userID, *remove, *deleteSource, flag.Args()); err != nil {
		logger.GetLogger().Error("ingest failed", logger.Error(err))
		os.Exit(1)
	}
}

func run(timestamp, userID int64, remove, deleteSource bool, args []string) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	log := logger.Init(cfg.AppEnv)
	ctx := logger.WithRequestID(context.Background(), "ingest")

	db, err := database.Connect(cfg.DatabaseURL)
	if err != nil {
		return err
	}
	if err := db.AutoMigrate(&upload.Upload{}); err != nil {
		return err
	}

	store := pathstore.New(nil, pathstore.Ownership{User: cfg.Upload.WebUser, Group: cfg.Upload.WebGroup}, log)
	repo := upload.NewRepository(db)
	recorder := upload.NewRecorder(repo, cfg.Upload.BasePath, cfg.Upload.StaticURL, log)
	pipeline := upload.NewPipeline(store, upload.Options{
		BasePath:          cfg.Upload.BasePath,
		AllowedExtensions: cfg.Upload.AllowedExtensions,
		PostMove:          recorder.Record,
		Logger:            log,
	})

	ts := time.Now()
	if timestamp > 0 {
		ts = time.Unix(timestamp, 0)
	}

	failed := 0
	for _, arg := range args {
		var out upload.Outcome
		if remove {
			out, err = pipeline.RemoveFile(ctx, arg, ts)
			if err == nil && out.OK {
				if u, lookupErr := repo.GetByPath(ctx, pipeline.RelativePath(out.Path)); lookupErr == nil {
					err = repo.Delete(ctx, u.ID)
				}
			}
		} else {
			out, err = pipeline.AddFile(ctx, upload.RawUpload{Name: filepath.Base(arg), TmpName: arg, LocalFile: true}, upload.AdditionalData{
				Timestamp: ts,
				Values: map[string]any{
					upload.ValueUserID:       userID,
					upload.ValueOriginalName: filepath.Base(arg),
				},
			})
			if err == nil && out.OK && deleteSource {
				store.Remove(ctx, arg)
			}
		}
		if err != nil {
			return err
		}

		if !out.OK {
			failed++
			fmt.Fprintf(os.Stderr, "%s: %s\n", arg, out.Message)
			continue
		}
		fmt.Printf("%s: %s %s\n", arg, out.Message, out.Path)
	}

	if failed > 0 {
		return fmt.Errorf("%d of %d files failed", failed, len(args))
	}
	return nil
}
