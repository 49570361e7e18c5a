package contentfs

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"syscall"
	"time"

	"bazil.org/fuse"
	fusefs "bazil.org/fuse/fs"
	"github.com/dendrascience/contentsync/contentsync"
	"github.com/dendrascience/contentsync/util"
)

const rootInode = 1

// FS is the read-only retention view.
type FS struct {
	categories contentsync.CategorySet
	retainer   *contentsync.Retainer
	logger     *slog.Logger
	mounted    time.Time
}

// NewFS creates the view for the categories in opts.
func NewFS(opts contentsync.Options) *FS {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &FS{
		categories: opts.Categories,
		retainer:   contentsync.NewRetainer(opts),
		logger:     logger.With("component", "contentfs"),
		mounted:    time.Now(),
	}
}

// Root returns the root directory node.
func (f *FS) Root() (fusefs.Node, error) {
	return &Root{fs: f}, nil
}

// Root lists the categories.
type Root struct {
	fs *FS
}

// Attr returns directory attributes.
func (r *Root) Attr(ctx context.Context, a *fuse.Attr) error {
	a.Inode = rootInode
	a.Mode = os.ModeDir | 0o555
	a.Mtime = r.fs.mounted
	a.Ctime = r.fs.mounted
	return nil
}

// ReadDirAll lists one directory per category, sorted by name.
func (r *Root) ReadDirAll(ctx context.Context) ([]fuse.Dirent, error) {
	dirents := make([]fuse.Dirent, 0, len(r.fs.categories))
	for _, c := range r.fs.categories {
		dirents = append(dirents, fuse.Dirent{
			Inode: fusefs.GenerateDynamicInode(rootInode, c.Name),
			Name:  c.Name,
			Type:  fuse.DT_Dir,
		})
	}
	return dirents, nil
}

// Lookup resolves a category name.
func (r *Root) Lookup(ctx context.Context, name string) (fusefs.Node, error) {
	c, ok := r.fs.categories.Get(name)
	if !ok {
		return nil, syscall.ENOENT
	}
	return &CategoryDir{fs: r.fs, category: c}, nil
}

// CategoryDir lists the retention set of one category.
type CategoryDir struct {
	fs       *FS
	category contentsync.Category
}

func (d *CategoryDir) inode() uint64 {
	return fusefs.GenerateDynamicInode(rootInode, d.category.Name)
}

// Attr returns directory attributes.
func (d *CategoryDir) Attr(ctx context.Context, a *fuse.Attr) error {
	a.Inode = d.inode()
	a.Mode = os.ModeDir | 0o555
	a.Mtime = d.fs.mounted
	a.Ctime = d.fs.mounted
	return nil
}

func (d *CategoryDir) keep() ([]util.FileEntry, error) {
	keep, _, err := d.fs.retainer.Plan(d.category)
	if err != nil {
		d.fs.logger.Warn("failed to plan category", "category", d.category.Name, "error", err)
		if errors.Is(err, fs.ErrNotExist) {
			return nil, syscall.ENOENT
		}
		return nil, syscall.EIO
	}
	return keep, nil
}

// ReadDirAll lists the files retention would keep.
func (d *CategoryDir) ReadDirAll(ctx context.Context) ([]fuse.Dirent, error) {
	keep, err := d.keep()
	if err != nil {
		return nil, err
	}
	dirents := make([]fuse.Dirent, 0, len(keep))
	for _, e := range keep {
		dirents = append(dirents, fuse.Dirent{
			Inode: fusefs.GenerateDynamicInode(d.inode(), e.Name),
			Name:  e.Name,
			Type:  fuse.DT_File,
		})
	}
	return dirents, nil
}

// Lookup resolves a file in the retention set. Files that would expire are
// not visible.
func (d *CategoryDir) Lookup(ctx context.Context, name string) (fusefs.Node, error) {
	keep, err := d.keep()
	if err != nil {
		return nil, err
	}
	for _, e := range keep {
		if e.Name == name {
			return &File{entry: e, inode: fusefs.GenerateDynamicInode(d.inode(), e.Name)}, nil
		}
	}
	return nil, syscall.ENOENT
}

// File is a read-only file in the retention set.
type File struct {
	entry util.FileEntry
	inode uint64
}

// Attr returns file attributes.
func (f *File) Attr(ctx context.Context, a *fuse.Attr) error {
	a.Inode = f.inode
	a.Mode = 0o444
	a.Size = uint64(f.entry.Size)
	a.Mtime = f.entry.ModTime
	a.Ctime = f.entry.ModTime
	return nil
}

// ReadAll reads the file from the destination directory.
func (f *File) ReadAll(ctx context.Context) ([]byte, error) {
	data, err := os.ReadFile(f.entry.Path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, syscall.ENOENT
	}
	return data, err
}

// Mount mounts filesystem read-only at mountpoint and serves it until ctx is
// cancelled or the mount is removed externally.
func Mount(ctx context.Context, mountpoint string, filesystem *FS) error {
	c, err := fuse.Mount(
		mountpoint,
		fuse.FSName("contentsync"),
		fuse.Subtype("contentsync"),
		fuse.ReadOnly(),
	)
	if err != nil {
		return fmt.Errorf("failed to mount %s: %w", mountpoint, err)
	}
	defer c.Close()

	stop := context.AfterFunc(ctx, func() {
		filesystem.logger.Info("unmounting", "mountpoint", mountpoint)
		if err := fuse.Unmount(mountpoint); err != nil {
			filesystem.logger.Warn("failed to unmount", "mountpoint", mountpoint, "error", err)
		}
	})
	defer stop()

	filesystem.logger.Info("retention view mounted", "mountpoint", mountpoint, "categories", len(filesystem.categories))
	if err := fusefs.Serve(c, filesystem); err != nil {
		return fmt.Errorf("failed to serve %s: %w", mountpoint, err)
	}
	return nil
}
