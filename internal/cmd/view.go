package cmd

import (
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"

	"github.com/dendrascience/contentsync/contentfs"
	"github.com/dendrascience/contentsync/version"
	"github.com/spf13/cobra"
)

// NewViewCmd creates the view subcommand, which mounts the read-only
// retention view.
func NewViewCmd(flags *globalFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "view MOUNTPOINT",
		Short: "Mount a read-only view of the files retention keeps",
		Long: `Mount a read-only FUSE filesystem at MOUNTPOINT with one directory per
category, each listing only the files the retention policy keeps. Expiring
files are hidden. The view reads the configured destination root live.

MOUNTPOINT must not lie inside the destination root or the staging directory.
Interrupt the command to unmount.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := loadApp(cmd, flags)
			if err != nil {
				return err
			}
			mountpoint := args[0]

			for _, dir := range []string{a.cfg.DestinationRoot, a.cfg.SourceDirectory} {
				if pathsOverlap(mountpoint, dir) {
					return fmt.Errorf("mountpoint %s overlaps %s", mountpoint, dir)
				}
			}
			if err := os.MkdirAll(mountpoint, 0o755); err != nil {
				return fmt.Errorf("failed to create mountpoint: %w", err)
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			a.logger.Info("starting retention view", "version", version.GetVersion(), "mountpoint", mountpoint)
			return contentfs.Mount(ctx, mountpoint, contentfs.NewFS(a.opts))
		},
	}
}

// pathsOverlap reports whether one path is equal to or nested inside the
// other. Relative paths are resolved against the working directory.
func pathsOverlap(path1, path2 string) bool {
	abs1, err1 := filepath.Abs(path1)
	abs2, err2 := filepath.Abs(path2)
	if err1 != nil || err2 != nil {
		abs1, abs2 = filepath.Clean(path1), filepath.Clean(path2)
	}
	if abs1 == abs2 {
		return true
	}
	sep := string(filepath.Separator)
	return strings.HasPrefix(abs1, abs2+sep) || strings.HasPrefix(abs2, abs1+sep)
}
