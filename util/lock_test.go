package util

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
)

func TestAcquireLock(t *testing.T) {
	dir := t.TempDir()

	release, err := AcquireLock(dir)
	if err != nil {
		t.Fatalf("AcquireLock() error = %v", err)
	}
	if _, err := os.Stat(filepath.Join(dir, LockName)); err != nil {
		t.Fatalf("lock file not created: %v", err)
	}

	if _, err := AcquireLock(dir); !errors.Is(err, ErrLocked) {
		t.Errorf("second AcquireLock() error = %v, want ErrLocked", err)
	}

	if err := release(); err != nil {
		t.Fatalf("release() error = %v", err)
	}
	if err := release(); err != nil {
		t.Errorf("second release() should be a no-op, got %v", err)
	}

	release, err = AcquireLock(dir)
	if err != nil {
		t.Fatalf("AcquireLock() after release error = %v", err)
	}
	release()
}

func TestAcquireLock_LeftoverFile(t *testing.T) {
	dir := t.TempDir()
	// a lock file left behind by a crashed run holds no lock
	if err := os.WriteFile(filepath.Join(dir, LockName), nil, 0o644); err != nil {
		t.Fatal(err)
	}

	release, err := AcquireLock(dir)
	if err != nil {
		t.Fatalf("AcquireLock() over leftover file error = %v", err)
	}
	defer release()

	if _, err := AcquireLock(dir); !errors.Is(err, ErrLocked) {
		t.Errorf("AcquireLock() while held error = %v, want ErrLocked", err)
	}
}

func TestAcquireLock_MissingDir(t *testing.T) {
	_, err := AcquireLock(filepath.Join(t.TempDir(), "missing"))
	if !errors.Is(err, os.ErrNotExist) {
		t.Errorf("AcquireLock() error = %v, want os.ErrNotExist", err)
	}
}
