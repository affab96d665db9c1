// package testing contains fakes and assertions shared by the package tests
package testing

import (
	"errors"
	"io"
	"os"
	"strings"
	"testing"
)

// ErrWrite is returned by the failing writers.
var ErrWrite = errors.New("write failed")

// FWriter fails every write.
type FWriter struct{}

func (f *FWriter) Write(p []byte) (int, error) {
	return 0, ErrWrite
}

// LimitedWriter forwards the first n writes to its target and fails the rest.
type LimitedWriter struct {
	remaining int
	target    io.Writer
}

func NewLimitedWriter(n int, target io.Writer) *LimitedWriter {
	return &LimitedWriter{remaining: n, target: target}
}

func (l *LimitedWriter) Write(p []byte) (int, error) {
	if l.remaining <= 0 {
		return 0, ErrWrite
	}
	l.remaining--
	return l.target.Write(p)
}

func AssertFileExists(t *testing.T, path string) {
	t.Helper()
	if _, err := os.Stat(path); err != nil {
		t.Errorf("expected file %s: %v", path, err)
	}
}

// AssertFileContains fails the test unless the file at path contains every substring.
func AssertFileContains(t *testing.T, path string, substrings ...string) {
	t.Helper()
	content := MustReadFile(t, path)
	for _, s := range substrings {
		if !strings.Contains(content, s) {
			t.Errorf("expected %s to contain %q, got:\n%s", path, s, content)
		}
	}
}

func MustReadFile(t *testing.T, path string) string {
	t.Helper()
	content, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("failed to read %s: %v", path, err)
	}
	return string(content)
}
