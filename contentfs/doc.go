// Package contentfs serves a read-only FUSE view of the retention sets.
//
// The mount root holds one directory per category. Each category directory
// lists only the files that retention would keep, newest last, read straight
// from the destination directory. Nothing in the view can be modified.
//
//	filesystem := contentfs.NewFS(opts)
//	err := contentfs.Mount(ctx, "/mnt/content", filesystem)
package contentfs
