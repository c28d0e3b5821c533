package upload

import (
	"context"
	"fmt"
	"log/slog"
	"mime/multipart"
	"time"

	"fileintake/internal/logger"

	"github.com/google/uuid"
)

const (
	MaxFileSize   = 50 * 1024 * 1024 // 50 MB
	StaticURLBase = "/static/uploads"
)

// FileResult is the outcome of one file of an upload request. The storage
// path stays server side; clients get the record and its URL.
type FileResult struct {
	OriginalName string  `json:"name"`
	OK           bool    `json:"ok"`
	Message      string  `json:"message"`
	Upload       *Upload `json:"upload,omitempty"`
}

// Service stages request files, runs them through the pipeline and exposes
// the recorded uploads.
type Service struct {
	repo     Repository
	pipeline *Pipeline
	staging  *StagingArea
	maxSize  int64
	onRemove []RemoveFunc
	log      *slog.Logger
}

// RemoveFunc is called with the relative path of every file the service
// deletes.
type RemoveFunc func(ctx context.Context, relPath string)

func NewService(repo Repository, pipeline *Pipeline, staging *StagingArea, maxSize int64) *Service {
	if maxSize <= 0 {
		maxSize = MaxFileSize
	}
	return &Service{
		repo:     repo,
		pipeline: pipeline,
		staging:  staging,
		maxSize:  maxSize,
		log:      logger.GetLogger().With("component", "upload_service"),
	}
}

// OnRemove registers fn to run after a stored file is deleted.
func (s *Service) OnRemove(fn RemoveFunc) {
	s.onRemove = append(s.onRemove, fn)
}

func (s *Service) removed(ctx context.Context, relPath string) {
	for _, fn := range s.onRemove {
		fn(ctx, relPath)
	}
}

// Upload stores every file of a request for userID. A zero ts stores the
// files under today's date. Per-file rejections are part of the results; the
// error is returned for oversized input and storage failures.
func (s *Service) Upload(ctx context.Context, userID int64, files []*multipart.FileHeader, ts time.Time) ([]FileResult, error) {
	if len(files) == 0 {
		return nil, ErrNoFiles
	}
	for _, fh := range files {
		if fh.Size > s.maxSize {
			return nil, ErrFileTooLarge
		}
	}
	if ts.IsZero() {
		ts = time.Now()
	}

	names := make([]string, len(files))
	types := make([]string, len(files))
	tmpNames := make([]string, len(files))
	sizes := make([]int64, len(files))
	errs := make([]string, len(files))
	for i, fh := range files {
		names[i] = fh.Filename
		types[i] = fh.Header.Get("Content-Type")
		sizes[i] = fh.Size

		tmp, err := s.staging.StageMultipart(fh)
		if err != nil {
			logger.FromContext(ctx, s.log).Error("failed to stage upload", "name", fh.Filename, logger.Error(err))
			errs[i] = err.Error()
			continue
		}
		tmpNames[i] = tmp
	}
	defer func() {
		for _, tmp := range tmpNames {
			if tmp != "" {
				s.staging.Release(tmp)
			}
		}
	}()

	fields := FieldMap{
		FieldName:    names,
		FieldType:    types,
		FieldTmpName: tmpNames,
		FieldSize:    sizes,
		FieldError:   errs,
	}

	uploads := NormalizeUploads(fields, true, FieldName)
	results := make([]FileResult, 0, len(uploads))
	for _, raw := range uploads {
		id := uuid.NewString()
		data := AdditionalData{
			Timestamp: ts,
			Values: map[string]any{
				ValueUserID:       userID,
				ValueUploadID:     id,
				ValueOriginalName: raw.Name,
			},
		}

		out, err := s.pipeline.AddFile(ctx, raw, data)
		if err != nil {
			return nil, fmt.Errorf("failed to store %q: %w", raw.Name, err)
		}

		res := FileResult{OriginalName: raw.Name, OK: out.OK, Message: out.Message}
		if out.OK {
			if u, err := s.repo.GetByID(ctx, id); err == nil {
				res.Upload = u
			}
		}
		results = append(results, res)
	}
	return results, nil
}

// Validate checks file names against the configured allow-list without
// storing anything.
func (s *Service) Validate(names []string) Outcome {
	return s.pipeline.ValidateUploads(FieldMap{FieldName: names}, StaticAllowList(s.pipeline.AllowedExtensions()))
}

// GetByID returns upload metadata by ID.
func (s *Service) GetByID(ctx context.Context, id string) (*Upload, error) {
	return s.repo.GetByID(ctx, id)
}

// GetOwned returns upload metadata by ID when userID owns it.
func (s *Service) GetOwned(ctx context.Context, id string, userID int64) (*Upload, error) {
	u, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if u.UserID != userID {
		return nil, ErrNotOwner
	}
	return u, nil
}

// Delete removes the stored file and the record. A file that is already gone
// does not keep the record alive.
func (s *Service) Delete(ctx context.Context, id string, userID int64) (Outcome, error) {
	u, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return Outcome{}, err
	}
	if u.UserID != userID {
		return Outcome{}, ErrNotOwner
	}

	out, err := s.pipeline.RemoveFile(ctx, u.StoredName, u.StoredAt)
	if err != nil {
		return Outcome{}, err
	}
	if out.OK {
		s.removed(ctx, u.FilePath)
	} else {
		logger.FromContext(ctx, s.log).Warn("stored file missing on delete", "upload_id", id, "path", u.FilePath)
	}

	if err := s.repo.Delete(ctx, id); err != nil {
		return Outcome{}, fmt.Errorf("failed to delete upload record: %w", err)
	}
	return out, nil
}

// RemoveStored deletes a stored file by name and date folder, dropping its
// record when one exists.
func (s *Service) RemoveStored(ctx context.Context, name string, ts time.Time) (Outcome, error) {
	out, err := s.pipeline.RemoveFile(ctx, name, ts)
	if err != nil || !out.OK {
		return out, err
	}

	rel := s.pipeline.RelativePath(out.Path)
	s.removed(ctx, rel)

	if u, err := s.repo.GetByPath(ctx, rel); err == nil {
		if err := s.repo.Delete(ctx, u.ID); err != nil {
			return out, fmt.Errorf("failed to delete upload record: %w", err)
		}
	}
	return out, nil
}

// ListByUser returns all uploads for a user.
func (s *Service) ListByUser(ctx context.Context, userID int64) ([]*Upload, error) {
	return s.repo.ListByUserID(ctx, userID)
}
