// Package upload ingests uploaded files: it normalizes raw multipart input,
// checks extensions against an allow-list, stores files under a date-sharded
// tree and records them.
package upload

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"strings"
	"time"

	"fileintake/internal/logger"
	"fileintake/internal/pathstore"
)

// DefaultAllowedExtensions is used when Options.AllowedExtensions is empty.
var DefaultAllowedExtensions = []string{"jpg", "jpeg", "png", "gif", "pdf"}

// Options configures a Pipeline. Nil hooks fall back to RandomPrefixName and
// NoopPostMove; a nil Verifier accepts no uploads, only local files.
type Options struct {
	BasePath          string
	AllowedExtensions []string
	Verifier          Verifier
	Namer             NameFunc
	PostMove          PostMoveFunc
	Logger            *slog.Logger
}

// Pipeline stores and removes files below a base path.
type Pipeline struct {
	store    *pathstore.Store
	fs       pathstore.Filesystem
	basePath string
	allowed  []string
	verifier Verifier
	namer    NameFunc
	postMove PostMoveFunc
	log      *slog.Logger
}

func NewPipeline(store *pathstore.Store, opts Options) *Pipeline {
	p := &Pipeline{
		store:    store,
		fs:       store.FS(),
		basePath: cleanBase(opts.BasePath),
		allowed:  opts.AllowedExtensions,
		verifier: opts.Verifier,
		namer:    opts.Namer,
		postMove: opts.PostMove,
		log:      opts.Logger,
	}
	if len(p.allowed) == 0 {
		p.allowed = DefaultAllowedExtensions
	}
	if p.namer == nil {
		p.namer = RandomPrefixName
	}
	if p.postMove == nil {
		p.postMove = NoopPostMove
	}
	if p.log == nil {
		p.log = logger.GetLogger()
	}
	p.log = p.log.With("component", "upload")
	return p
}

// BasePath returns the root of the storage tree, ending with a separator.
func (p *Pipeline) BasePath() string { return p.basePath }

// AllowedExtensions returns the configured allow-list.
func (p *Pipeline) AllowedExtensions() []string { return p.allowed }

// RelativePath returns target relative to the base path using forward
// slashes, e.g. "2024/01/02/1234-photo.png".
func (p *Pipeline) RelativePath(target string) string {
	return relativeTo(p.basePath, target)
}

// RelativeFunc is RelativePath for a pipeline rooted at basePath, for
// components built before the pipeline.
func RelativeFunc(basePath string) func(string) string {
	base := cleanBase(basePath)
	return func(target string) string { return relativeTo(base, target) }
}

func cleanBase(base string) string {
	if base == "" {
		base = "uploads"
	}
	base = filepath.Clean(base)
	if !strings.HasSuffix(base, string(filepath.Separator)) {
		base += string(filepath.Separator)
	}
	return base
}

func relativeTo(base, target string) string {
	return filepath.ToSlash(strings.TrimPrefix(target, base))
}

// StoragePath returns the directory files for ts are stored in, creating it
// when needed. The result ends with a separator.
func (p *Pipeline) StoragePath(ts time.Time, includeDateFolder bool) (string, error) {
	path := p.basePath
	if includeDateFolder {
		path += pathstore.DateShard(ts)
	}
	return p.store.EnsurePath(path, "")
}

// AddFile stores raw below the storage path for data.Timestamp. Rejections are
// reported through the Outcome; the error is reserved for directories that
// cannot be created.
func (p *Pipeline) AddFile(ctx context.Context, raw RawUpload, data AdditionalData) (Outcome, error) {
	log := logger.FromContext(ctx, p.log).With("original_name", raw.Name)

	if raw.TmpName == "" {
		return failed(MsgFileNotUploaded), nil
	}

	ext := FileExtension(raw.Name)
	if !extensionAllowed(ext, p.allowed) {
		log.Info("upload rejected", "reason", "unsupported type", "extension", ext)
		return failed(MsgUnsupportedType), nil
	}

	dir, err := p.StoragePath(data.Timestamp, true)
	if err != nil {
		return Outcome{}, err
	}
	target := dir + p.namer(raw.Name, data)

	if raw.LocalFile {
		err = p.fs.Copy(raw.TmpName, target)
	} else {
		if p.verifier == nil || !p.verifier.IsUploadedFile(raw.TmpName) {
			log.Warn("upload rejected", "reason", "not an uploaded file", "tmp_name", raw.TmpName)
			return failed(MsgNotUploadedFile), nil
		}
		err = p.fs.Rename(raw.TmpName, target)
	}
	if err != nil {
		log.Error("transfer failed", "target", target, "local_file", raw.LocalFile, logger.Error(err))
		return failed(MsgFailedToMove), nil
	}
	if !p.fs.Exists(target) {
		return failed(MsgFailedToMove), nil
	}

	// ownership failures leave the file owned by the process; that is accepted
	p.store.ApplyOwnership(target)
	p.postMove(ctx, target, data)

	log.Info("file added", "target", target)
	return Outcome{OK: true, Path: target, Message: MsgAddedFile}, nil
}

// RemoveFile deletes filename from the storage path for ts.
func (p *Pipeline) RemoveFile(ctx context.Context, filename string, ts time.Time) (Outcome, error) {
	if filename == "" || filename == "." || filename == ".." || pathSeparators.MatchString(filename) {
		return failed(MsgRemoveNotFound), nil
	}

	dir, err := p.StoragePath(ts, true)
	if err != nil {
		return Outcome{}, err
	}
	target := dir + filename

	if !p.fs.Exists(target) {
		return failed(MsgRemoveNotFound), nil
	}
	if err := p.fs.Remove(target); err != nil {
		logger.FromContext(ctx, p.log).Error("remove failed", "target", target, logger.Error(err))
		return failed(MsgRemoveNotFound), nil
	}

	logger.FromContext(ctx, p.log).Info("file removed", "target", target)
	return Outcome{OK: true, Path: target, Message: MsgFileRemoved}, nil
}

// ValidateUploads checks the extension of every non-blank upload in fields
// against policy. A nil policy, or one with an empty list, accepts any type.
func (p *Pipeline) ValidateUploads(fields FieldMap, policy AllowListSource) Outcome {
	uploads := NormalizeUploads(fields, true, FieldName)
	if len(uploads) == 0 {
		return Outcome{OK: true, Message: MsgNoFilesUploaded}
	}

	if policy != nil {
		if allowed := policy.AllowedExtensions(); len(allowed) > 0 {
			for _, u := range uploads {
				ext := FileExtension(u.Name)
				if !extensionAllowed(ext, allowed) {
					return extensionRejected(ext)
				}
			}
		}
	}

	return Outcome{OK: true, Message: fmt.Sprintf(msgFilesValidated, len(uploads))}
}
