package contentsync

import (
	"fmt"
	"io/fs"
	"path/filepath"
	"sort"
	"time"

	"github.com/dendrascience/contentsync/util"
)

// memFS is an in-memory FileSystem with injectable failures.
type memFS struct {
	dirs      map[string]map[string]time.Time
	copyErr   map[string]error // keyed by source path
	removeErr map[string]error
	listErr   map[string]error
	copies    int
	removals  []string
}

func newMemFS(dirs ...string) *memFS {
	m := &memFS{
		dirs:      map[string]map[string]time.Time{},
		copyErr:   map[string]error{},
		removeErr: map[string]error{},
		listErr:   map[string]error{},
	}
	for _, d := range dirs {
		m.dirs[d] = map[string]time.Time{}
	}
	return m
}

func (m *memFS) add(dir, name string, mod time.Time) {
	m.dirs[dir][name] = mod
}

func (m *memFS) has(dir, name string) bool {
	_, ok := m.dirs[dir][name]
	return ok
}

func (m *memFS) names(dir string) []string {
	var names []string
	for n := range m.dirs[dir] {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

func (m *memFS) ReadDir(dir string) ([]util.FileEntry, error) {
	if err := m.listErr[dir]; err != nil {
		return nil, err
	}
	files, ok := m.dirs[dir]
	if !ok {
		return nil, fmt.Errorf("open %s: %w", dir, fs.ErrNotExist)
	}
	var entries []util.FileEntry
	for _, name := range m.names(dir) {
		entries = append(entries, util.FileEntry{Name: name, Path: filepath.Join(dir, name), ModTime: files[name]})
	}
	return entries, nil
}

func (m *memFS) Stat(path string) (util.FileEntry, error) {
	dir, name := filepath.Split(path)
	mod, ok := m.dirs[filepath.Clean(dir)][name]
	if !ok {
		return util.FileEntry{}, fmt.Errorf("stat %s: %w", path, fs.ErrNotExist)
	}
	return util.FileEntry{Name: name, Path: path, ModTime: mod}, nil
}

func (m *memFS) Copy(src, dst string) (string, error) {
	if err := m.copyErr[src]; err != nil {
		return "", err
	}
	entry, err := m.Stat(src)
	if err != nil {
		return "", err
	}
	dir, name := filepath.Split(dst)
	files, ok := m.dirs[filepath.Clean(dir)]
	if !ok {
		return "", fmt.Errorf("create %s: %w", dst, fs.ErrNotExist)
	}
	files[name] = entry.ModTime
	m.copies++
	return "hash-" + name, nil
}

func (m *memFS) Remove(path string) error {
	if err := m.removeErr[path]; err != nil {
		return err
	}
	dir, name := filepath.Split(path)
	files := m.dirs[filepath.Clean(dir)]
	if _, ok := files[name]; !ok {
		return fmt.Errorf("remove %s: %w", path, fs.ErrNotExist)
	}
	delete(files, name)
	m.removals = append(m.removals, path)
	return nil
}
