package pathstore

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"os/user"
	"path/filepath"
	"strconv"
	"syscall"
)

// Filesystem is the set of raw primitives the store and the upload pipeline
// rely on. Paths are host paths.
type Filesystem interface {
	Exists(path string) bool
	IsDir(path string) bool
	// Mkdir creates exactly one directory level.
	Mkdir(path string) error
	// Copy writes src to dst, replacing dst if it exists.
	Copy(src, dst string) error
	Rename(src, dst string) error
	Remove(path string) error
	Chown(path, owner string) error
	Chgrp(path, group string) error
}

// OSFilesystem implements Filesystem on the host operating system.
type OSFilesystem struct {
	DirPerm  fs.FileMode
	FilePerm fs.FileMode
}

func NewOSFilesystem() *OSFilesystem {
	return &OSFilesystem{DirPerm: 0o755, FilePerm: 0o644}
}

func (o *OSFilesystem) Exists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}

func (o *OSFilesystem) IsDir(path string) bool {
	info, err := os.Stat(path)
	return err == nil && info.IsDir()
}

func (o *OSFilesystem) Mkdir(path string) error {
	return os.Mkdir(path, o.DirPerm)
}

// Copy streams src into a temporary file next to dst and renames it into
// place, so dst is either the previous file or the complete copy.
func (o *OSFilesystem) Copy(src, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		return fmt.Errorf("open source: %w", err)
	}
	defer in.Close()

	tmp, err := os.CreateTemp(filepath.Dir(dst), ".intake-tmp-*")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	tmpPath := tmp.Name()

	if _, err := io.Copy(tmp, in); err != nil {
		tmp.Close()
		os.Remove(tmpPath)
		return fmt.Errorf("copy data: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		os.Remove(tmpPath)
		return fmt.Errorf("sync temp file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("close temp file: %w", err)
	}
	if err := os.Chmod(tmpPath, o.FilePerm); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("chmod temp file: %w", err)
	}
	if err := os.Rename(tmpPath, dst); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("rename into place: %w", err)
	}
	return nil
}

// Rename moves src to dst. When the two paths live on different devices the
// file is copied into place and the source removed.
func (o *OSFilesystem) Rename(src, dst string) error {
	err := os.Rename(src, dst)
	if err == nil {
		return nil
	}
	var linkErr *os.LinkError
	if !errors.As(err, &linkErr) || !errors.Is(linkErr.Err, syscall.EXDEV) {
		return err
	}
	if err := o.Copy(src, dst); err != nil {
		return err
	}
	return os.Remove(src)
}

func (o *OSFilesystem) Remove(path string) error {
	return os.Remove(path)
}

// Chown changes the owning user. owner may be a user name or a numeric uid.
func (o *OSFilesystem) Chown(path, owner string) error {
	uid, err := lookupUID(owner)
	if err != nil {
		return err
	}
	return os.Lchown(path, uid, -1)
}

// Chgrp changes the owning group. group may be a group name or a numeric gid.
func (o *OSFilesystem) Chgrp(path, group string) error {
	gid, err := lookupGID(group)
	if err != nil {
		return err
	}
	return os.Lchown(path, -1, gid)
}

func lookupUID(name string) (int, error) {
	if id, err := strconv.Atoi(name); err == nil {
		return id, nil
	}
	u, err := user.Lookup(name)
	if err != nil {
		return 0, err
	}
	return strconv.Atoi(u.Uid)
}

func lookupGID(name string) (int, error) {
	if id, err := strconv.Atoi(name); err == nil {
		return id, nil
	}
	g, err := user.LookupGroup(name)
	if err != nil {
		return 0, err
	}
	return strconv.Atoi(g.Gid)
}
