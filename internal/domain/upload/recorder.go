package upload

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"path"
	"strings"
	"time"

	"fileintake/internal/logger"

	"github.com/gabriel-vasile/mimetype"
	"github.com/google/uuid"
)

// Recorder persists stored files. Its Record method is a PostMoveFunc.
type Recorder struct {
	repo       Repository
	basePath   string
	staticBase string
	log        *slog.Logger
}

// NewRecorder returns a Recorder for files stored below basePath and served
// under staticBase.
func NewRecorder(repo Repository, basePath, staticBase string, log *slog.Logger) *Recorder {
	if log == nil {
		log = logger.GetLogger()
	}
	return &Recorder{
		repo:       repo,
		basePath:   cleanBase(basePath),
		staticBase: strings.TrimRight(staticBase, "/"),
		log:        log.With("component", "upload_recorder"),
	}
}

// Record writes an Upload row for targetPath. A row already recorded for the
// same path (a name collision overwrote the file) is replaced. Failures are
// logged; the stored file stays in place.
func (r *Recorder) Record(ctx context.Context, targetPath string, data AdditionalData) {
	log := logger.FromContext(ctx, r.log).With("target", targetPath)

	rel := relativeTo(r.basePath, targetPath)

	u := &Upload{
		ID:           stringValue(data, ValueUploadID),
		UserID:       int64Value(data, ValueUserID),
		OriginalName: stringValue(data, ValueOriginalName),
		StoredName:   path.Base(rel),
		FilePath:     rel,
		FileURL:      r.staticBase + "/" + rel,
		StoredAt:     data.Timestamp,
		CreatedAt:    time.Now(),
	}
	if u.ID == "" {
		u.ID = uuid.NewString()
	}
	if u.StoredAt.IsZero() {
		u.StoredAt = u.CreatedAt
	}
	if info, err := os.Stat(targetPath); err == nil {
		u.Size = info.Size()
	}
	if mt, err := mimetype.DetectFile(targetPath); err == nil {
		u.MimeType = mt.String()
	}

	if existing, err := r.repo.GetByPath(ctx, rel); err == nil {
		log.Warn("replacing record of overwritten file", "previous_id", existing.ID)
		if err := r.repo.Delete(ctx, existing.ID); err != nil {
			log.Error("failed to delete previous record", logger.Error(err))
			return
		}
	} else if !errors.Is(err, ErrUploadNotFound) {
		log.Error("failed to look up record", logger.Error(err))
		return
	}

	if err := r.repo.Create(ctx, u); err != nil {
		log.Error("failed to save upload record", logger.Error(err))
	}
}

func stringValue(data AdditionalData, key string) string {
	if s, ok := data.Value(key).(string); ok {
		return s
	}
	return ""
}

func int64Value(data AdditionalData, key string) int64 {
	switch v := data.Value(key).(type) {
	case int64:
		return v
	case int:
		return int64(v)
	case float64:
		return int64(v)
	}
	return 0
}
