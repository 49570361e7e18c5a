// Package util provides the filesystem primitives contentsync is built on.
//
// The core packages never touch the disk directly. They consume the small
// capability implemented here by OSFS:
//
//   - ReadDir: flat listing of regular files with modification times
//   - Stat: metadata for a single file
//   - Copy: temp-file-and-rename copy that preserves the modification time
//     and returns the SHA-256 of the copied bytes
//   - Remove: single file removal
//
// The package also holds the run lock (AcquireLock), an flock on a file in the
// destination root that keeps two invocations from racing.
package util
