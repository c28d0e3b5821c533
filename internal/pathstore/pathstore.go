// Package pathstore resolves the date-sharded directory tree that holds
// stored files and creates it one level at a time, correcting ownership of
// every level it creates.
package pathstore

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"path/filepath"
	"regexp"
	"time"

	"fileintake/internal/logger"
)

var separators = regexp.MustCompile(`[\\/]`)

// Ownership names the identities applied to created files and directories.
// An empty field skips that change.
type Ownership struct {
	User  string
	Group string
}

// Store creates directories and applies ownership on a Filesystem.
type Store struct {
	fs    Filesystem
	owner Ownership
	log   *slog.Logger
}

func New(fsys Filesystem, owner Ownership, log *slog.Logger) *Store {
	if fsys == nil {
		fsys = NewOSFilesystem()
	}
	if log == nil {
		log = logger.GetLogger()
	}
	return &Store{fs: fsys, owner: owner, log: log.With("component", "pathstore")}
}

// FS exposes the underlying filesystem to collaborators that share it.
func (s *Store) FS() Filesystem { return s.fs }

// DateShard returns the YYYY/MM/DD/ segment for ts in UTC, joined and
// terminated with the platform separator. A zero ts means now.
func DateShard(ts time.Time) string {
	if ts.IsZero() {
		ts = time.Now()
	}
	ts = ts.UTC()
	sep := string(filepath.Separator)
	return fmt.Sprintf("%04d%s%02d%s%02d%s", ts.Year(), sep, int(ts.Month()), sep, ts.Day(), sep)
}

// EnsurePath makes sure every directory of fullPath exists. The last element
// of fullPath is treated as a file name and ignored, so pass a trailing
// separator for a directory. basePath is prepended verbatim to the
// accumulated prefix. The returned directory ends with a separator.
func (s *Store) EnsurePath(fullPath, basePath string) (string, error) {
	segments := separators.Split(fullPath, -1)
	segments = segments[:len(segments)-1]

	directory := basePath
	sep := string(filepath.Separator)
	for i, segment := range segments {
		// a leading empty segment is the root of an absolute path unless a
		// base already anchors it
		if segment == "" && (i > 0 || basePath != "") {
			continue
		}
		directory += segment + sep
		if s.fs.IsDir(directory) {
			continue
		}

		if err := s.fs.Mkdir(directory); err != nil {
			// another writer may have created the level in between
			if errors.Is(err, fs.ErrExist) && s.fs.IsDir(directory) {
				continue
			}
			return "", &PathCreationError{Path: directory, Err: err}
		}
		s.ApplyOwnership(directory)
	}

	return directory, nil
}

// ApplyOwnership sets the configured user and group on path. It reports
// whether every attempted change succeeded; failures are logged at debug
// level and otherwise ignored, leaving the path owned by the process.
func (s *Store) ApplyOwnership(path string) bool {
	ok := true
	if s.owner.User != "" {
		if err := s.fs.Chown(path, s.owner.User); err != nil {
			ok = false
			s.log.Debug("chown skipped", "path", path, "user", s.owner.User, logger.Error(err))
		}
	}
	if s.owner.Group != "" {
		if err := s.fs.Chgrp(path, s.owner.Group); err != nil {
			ok = false
			s.log.Debug("chgrp skipped", "path", path, "group", s.owner.Group, logger.Error(err))
		}
	}
	return ok
}

// Remove deletes path if it exists. It reports whether a file was removed.
func (s *Store) Remove(ctx context.Context, path string) bool {
	if !s.fs.Exists(path) {
		return false
	}
	if err := s.fs.Remove(path); err != nil {
		logger.FromContext(ctx, s.log).Warn("remove failed", "path", path, logger.Error(err))
		return false
	}
	return true
}
