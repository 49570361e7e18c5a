package contentsync

import (
	"log/slog"
	"path/filepath"

	"github.com/dendrascience/contentsync/util"
)

// FileSystem is the filesystem capability the core consumes.
// util.OSFS is the production implementation.
type FileSystem interface {
	// ReadDir lists the regular files directly inside dir.
	ReadDir(dir string) ([]util.FileEntry, error)
	// Stat returns metadata for path; fs.ErrNotExist if absent.
	Stat(path string) (util.FileEntry, error)
	// Copy copies src to dst and returns the SHA-256 of the content.
	Copy(src, dst string) (string, error)
	// Remove deletes a single file.
	Remove(path string) error
}

// Options configures a Distributor, Retainer or Runner. It is passed
// explicitly; the package keeps no global state.
type Options struct {
	SourceDir  string
	DestRoot   string
	Categories CategorySet

	// DryRun reports what would happen without touching the filesystem.
	DryRun bool

	// FS defaults to util.OSFS with modification times preserved.
	FS FileSystem

	// Logger defaults to slog.Default().
	Logger *slog.Logger

	// DisableLock skips the destination run lock. Dry runs never take it.
	DisableLock bool
}

func (o Options) withDefaults() Options {
	if o.FS == nil {
		o.FS = util.OSFS{PreserveModTime: true}
	}
	if o.Logger == nil {
		o.Logger = slog.Default()
	}
	return o
}

// CategoryDir returns the destination directory of a category.
func (o Options) CategoryDir(c Category) string {
	return filepath.Join(o.DestRoot, c.Name)
}
