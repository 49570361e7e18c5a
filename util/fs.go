package util

import (
	"crypto/sha256"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"
)

// TempPrefix is the name prefix of in-flight copies. Files carrying it are
// invisible to ReadDir so a half-written copy is never matched to a category.
const TempPrefix = ".contentsync-"

// FileEntry describes one file in a flat directory.
type FileEntry struct {
	Name    string    // base name, the category match key
	Path    string    // full path on disk
	ModTime time.Time // modification time used for retention ranking
	Size    int64     // size in bytes
}

// OSFS implements the filesystem capability against the local disk.
type OSFS struct {
	// PreserveModTime copies the source modification time onto the copy.
	PreserveModTime bool
}

// ReadDir lists the regular files directly inside dir.
// Subdirectories, symlinks and in-flight copies are skipped. Entries that
// disappear between the listing and the stat are skipped as well.
func (OSFS) ReadDir(dir string) ([]FileEntry, error) {
	dirents, err := os.ReadDir(dir)
	if err != nil {
		return nil, err
	}
	entries := make([]FileEntry, 0, len(dirents))
	for _, d := range dirents {
		if !d.Type().IsRegular() || strings.HasPrefix(d.Name(), TempPrefix) {
			continue
		}
		info, err := d.Info()
		if errors.Is(err, fs.ErrNotExist) {
			continue
		}
		if err != nil {
			return nil, err
		}
		entries = append(entries, entryFromInfo(filepath.Join(dir, d.Name()), info))
	}
	return entries, nil
}

// Stat returns the FileEntry for path without following symlinks.
func (OSFS) Stat(path string) (FileEntry, error) {
	info, err := os.Lstat(path)
	if err != nil {
		return FileEntry{}, err
	}
	switch {
	case info.IsDir():
		return FileEntry{}, ErrExpectedFile
	case info.Mode()&os.ModeSymlink != 0:
		return FileEntry{}, ErrUnexpectedSymlink
	}
	return entryFromInfo(path, info), nil
}

// Copy copies src to dst and returns the hex SHA-256 of the copied content.
// The data is written to a temporary file next to dst and renamed into place,
// so dst either does not exist or holds the complete content.
func (o OSFS) Copy(src, dst string) (string, error) {
	in, err := os.Open(src)
	if err != nil {
		return "", err
	}
	defer in.Close()

	info, err := in.Stat()
	if err != nil {
		return "", err
	}
	if info.IsDir() {
		return "", ErrExpectedFile
	}

	tmp, err := os.CreateTemp(filepath.Dir(dst), TempPrefix+"*")
	if err != nil {
		return "", err
	}
	tmpName := tmp.Name()
	// cleaned up on every failure path below; a no-op after the rename
	defer os.Remove(tmpName)

	h := sha256.New()
	if _, err := io.Copy(io.MultiWriter(tmp, h), in); err != nil {
		tmp.Close()
		return "", err
	}
	if err := tmp.Close(); err != nil {
		return "", err
	}
	if err := os.Chmod(tmpName, info.Mode().Perm()); err != nil {
		return "", err
	}
	if o.PreserveModTime {
		if err := os.Chtimes(tmpName, info.ModTime(), info.ModTime()); err != nil {
			return "", err
		}
	}
	if err := os.Rename(tmpName, dst); err != nil {
		return "", err
	}
	return fmt.Sprintf("%x", h.Sum(nil)), nil
}

// PreservesModTime reports whether copies keep the source modification time.
func (o OSFS) PreservesModTime() bool {
	return o.PreserveModTime
}

// Remove deletes a single file.
func (OSFS) Remove(path string) error {
	return os.Remove(path)
}

func entryFromInfo(path string, info fs.FileInfo) FileEntry {
	return FileEntry{
		Name:    info.Name(),
		Path:    path,
		ModTime: info.ModTime(),
		Size:    info.Size(),
	}
}
