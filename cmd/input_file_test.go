package cmd

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/spf13/afero"
)

func TestParseInputFile_BasicPaths(t *testing.T) {
	fs := afero.NewMemMapFs()
	afero.WriteFile(fs, "/lists/today.txt", []byte("/pics/a.jpg\nb.jpg\r\n  /pics/c.jpg  \n"), 0644)

	result, err := ParseInputFile(fs, "/lists/today.txt")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	expected := []string{"/pics/a.jpg", "/lists/b.jpg", "/pics/c.jpg"}
	if len(result.Paths) != len(expected) {
		t.Fatalf("expected %d paths, got %v", len(expected), result.Paths)
	}
	for i, p := range result.Paths {
		if p != expected[i] {
			t.Errorf("path %d: expected %q, got %q", i, expected[i], p)
		}
	}
}

func TestParseInputFile_SkipComments(t *testing.T) {
	fs := afero.NewMemMapFs()
	content := `# Phantasialand
/pics/taron.jpg
# Europa-Park
/pics/silverstar.jpg
  # indented comment`
	afero.WriteFile(fs, "/list.txt", []byte(content), 0644)

	result, err := ParseInputFile(fs, "/list.txt")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(result.Paths) != 2 {
		t.Errorf("expected 2 paths (comments skipped), got %d", len(result.Paths))
	}
	if result.SkippedLines != 3 {
		t.Errorf("expected 3 skipped comment lines, got %d", result.SkippedLines)
	}
	if result.TotalLines != 5 {
		t.Errorf("expected 5 total lines, got %d", result.TotalLines)
	}
}

func TestParseInputFile_NotFound(t *testing.T) {
	_, err := ParseInputFile(afero.NewMemMapFs(), "/missing.txt")
	if !errors.Is(err, ErrInputFileNotFound) {
		t.Fatalf("expected ErrInputFileNotFound, got %v", err)
	}
	var ife *InputFileError
	if !errors.As(err, &ife) || ife.Path != "/missing.txt" {
		t.Fatalf("expected InputFileError with path, got %v", err)
	}
}

func TestParseInputFile_OnlyComments(t *testing.T) {
	fs := afero.NewMemMapFs()
	afero.WriteFile(fs, "/list.txt", []byte("# nothing\n\n"), 0644)

	_, err := ParseInputFile(fs, "/list.txt")
	if !errors.Is(err, ErrInputFileEmpty) {
		t.Fatalf("expected ErrInputFileEmpty, got %v", err)
	}
}

func TestExpandPaths(t *testing.T) {
	dir := t.TempDir()
	for _, name := range []string{"b.jpg", "a.jpg", "notes.txt", filepath.Join("sub", "c.jpg")} {
		p := filepath.Join(dir, name)
		os.MkdirAll(filepath.Dir(p), 0755)
		if err := os.WriteFile(p, []byte("x"), 0644); err != nil {
			t.Fatal(err)
		}
	}

	got, err := ExpandPaths([]string{
		filepath.Join(dir, "**", "*.jpg"),
		filepath.Join(dir, "a.jpg"),
		"/literal/missing.jpg",
	})
	if err != nil {
		t.Fatalf("ExpandPaths: %v", err)
	}
	want := []string{
		filepath.Join(dir, "a.jpg"),
		filepath.Join(dir, "b.jpg"),
		filepath.Join(dir, "sub", "c.jpg"),
		"/literal/missing.jpg",
	}
	if len(got) != len(want) {
		t.Fatalf("ExpandPaths = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("path %d = %q, want %q", i, got[i], want[i])
		}
	}
}

func TestExpandPaths_NoMatch(t *testing.T) {
	_, err := ExpandPaths([]string{filepath.Join(t.TempDir(), "*.jpg")})
	if !errors.Is(err, ErrNoMatch) {
		t.Fatalf("expected ErrNoMatch, got %v", err)
	}
}
