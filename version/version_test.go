package version

import (
	"bytes"
	"strings"
	"testing"
)

func TestLinkTimeValuesWin(t *testing.T) {
	oldV, oldC, oldD := Version, Commit, Date
	t.Cleanup(func() { Version, Commit, Date = oldV, oldC, oldD })

	Version, Commit, Date = "v1.2.3", "0123456789abcdef", "2024-05-01T00:00:00Z"

	if got := GetFullVersion(); got != "v1.2.3 (0123456, built 2024-05-01T00:00:00Z)" {
		t.Errorf("GetFullVersion() = %q", got)
	}

	var buf bytes.Buffer
	if err := PrintVersion(&buf, "contentsync"); err != nil {
		t.Fatal(err)
	}
	for _, want := range []string{"contentsync version v1.2.3", "Package: contentsync", "Commit: 0123456789abcdef"} {
		if !strings.Contains(buf.String(), want) {
			t.Errorf("PrintVersion() output missing %q:\n%s", want, buf.String())
		}
	}
}

func TestShortCommitOmitted(t *testing.T) {
	oldV, oldC := Version, Commit
	t.Cleanup(func() { Version, Commit = oldV, oldC })

	Version, Commit = "v0.1.0", "abc"
	if got := GetFullVersion(); got != "v0.1.0" {
		t.Errorf("GetFullVersion() = %q, want bare version for a short commit", got)
	}
}
