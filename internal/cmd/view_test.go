package cmd

import (
	"path/filepath"
	"strings"
	"testing"
)

func TestPathsOverlap(t *testing.T) {
	tests := []struct {
		name       string
		mountpoint string
		dir        string
		expected   bool
	}{
		{
			name:       "mountpoint is the destination root",
			mountpoint: "/srv/content/uploader",
			dir:        "/srv/content/uploader",
			expected:   true,
		},
		{
			name:       "mountpoint inside a category directory",
			mountpoint: "/srv/content/uploader/panup-all-wildfire/view",
			dir:        "/srv/content/uploader",
			expected:   true,
		},
		{
			name:       "mountpoint inside the staging directory",
			mountpoint: "/srv/content/files/view",
			dir:        "/srv/content/files",
			expected:   true,
		},
		{
			name:       "mountpoint above the destination root",
			mountpoint: "/srv/content",
			dir:        "/srv/content/uploader",
			expected:   true,
		},
		{
			name:       "sibling of the staging directory",
			mountpoint: "/srv/content/view",
			dir:        "/srv/content/files",
			expected:   false,
		},
		{
			name:       "shared name prefix is not nesting",
			mountpoint: "/srv/content/uploader-view",
			dir:        "/srv/content/uploader",
			expected:   false,
		},
		{
			name:       "trailing separator",
			mountpoint: "/srv/content/files/",
			dir:        "/srv/content/files",
			expected:   true,
		},
		{
			name:       "relative mountpoint inside relative staging dir",
			mountpoint: "files/view",
			dir:        "files",
			expected:   true,
		},
		{
			name:       "relative paths - separate",
			mountpoint: "view",
			dir:        "files",
			expected:   false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := pathsOverlap(tt.mountpoint, tt.dir); got != tt.expected {
				t.Errorf("pathsOverlap(%q, %q) = %v, expected %v", tt.mountpoint, tt.dir, got, tt.expected)
			}
		})
	}
}

func TestViewRejectsOverlappingMountpoint(t *testing.T) {
	env := newTestEnv(t, 2, "", "apps")
	for _, mountpoint := range []string{
		filepath.Join(env.dest, "apps", "view"),
		filepath.Join(env.src, "view"),
	} {
		_, err := execute(t, "-c", env.configPath, "view", mountpoint)
		if err == nil || !strings.Contains(err.Error(), "overlaps") {
			t.Errorf("view %s error = %v, want overlap rejection", mountpoint, err)
		}
		if exists(mountpoint) {
			t.Errorf("mountpoint %s created despite overlap", mountpoint)
		}
	}
}
