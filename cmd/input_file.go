package cmd

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/spf13/afero"
)

// Sentinel errors for input file parsing.
var (
	// ErrInputFileNotFound is returned when the input file does not exist.
	ErrInputFileNotFound = errors.New("input file not found")
	// ErrInputFilePermission is returned when the input file cannot be read due to permissions.
	ErrInputFilePermission = errors.New("permission denied reading input file")
	// ErrInputFileEmpty is returned when the input file lists no files.
	ErrInputFileEmpty = errors.New("input file contains no file paths")
	// ErrNoMatch is returned when a glob pattern matches no file.
	ErrNoMatch = errors.New("no file matches pattern")
)

// InputFileError wraps input file errors with additional context.
type InputFileError struct {
	Path string
	Err  error
}

func (e *InputFileError) Error() string {
	return fmt.Sprintf("%s: %s", e.Err.Error(), e.Path)
}

func (e *InputFileError) Unwrap() error {
	return e.Err
}

// NewInputFileError creates a new InputFileError with the given path and error.
func NewInputFileError(path string, err error) *InputFileError {
	return &InputFileError{Path: path, Err: err}
}

// ParseResult holds the result of parsing an input file.
type ParseResult struct {
	// Paths contains the listed file paths, relative ones resolved against
	// the directory of the input file.
	Paths []string
	// SkippedLines is the count of comment lines that were skipped.
	SkippedLines int
	// TotalLines is the total number of lines in the file.
	TotalLines int
}

// ParseInputFile reads a list of files to upload, one path per line.
// Empty lines and lines starting with # are skipped; surrounding
// whitespace is trimmed.
func ParseInputFile(fs afero.Fs, filePath string) (*ParseResult, error) {
	data, err := afero.ReadFile(fs, filePath)
	if err != nil {
		return nil, wrapInputFileError(filePath, err)
	}

	lines := strings.Split(strings.ReplaceAll(string(data), "\r\n", "\n"), "\n")
	result := &ParseResult{
		TotalLines: len(lines),
	}
	base := filepath.Dir(filePath)

	for _, line := range lines {
		trimmed := strings.TrimSpace(line)
		if trimmed == "" {
			continue
		}
		if strings.HasPrefix(trimmed, "#") {
			result.SkippedLines++
			continue
		}
		if !filepath.IsAbs(trimmed) {
			trimmed = filepath.Join(base, trimmed)
		}
		result.Paths = append(result.Paths, trimmed)
	}

	if len(result.Paths) == 0 {
		return result, NewInputFileError(filePath, ErrInputFileEmpty)
	}
	return result, nil
}

// wrapInputFileError converts OS-level errors to domain-specific errors.
func wrapInputFileError(path string, err error) error {
	if errors.Is(err, os.ErrNotExist) {
		return NewInputFileError(path, ErrInputFileNotFound)
	}
	if errors.Is(err, os.ErrPermission) {
		return NewInputFileError(path, ErrInputFilePermission)
	}
	return NewInputFileError(path, err)
}

// ExpandPaths resolves glob patterns ("**" included) into the sorted
// regular files they match. Arguments without glob meta characters are
// kept as they are, so a missing file is reported by the upload itself.
// Duplicates are dropped, the first occurrence wins.
func ExpandPaths(args []string) ([]string, error) {
	var out []string
	seen := make(map[string]bool)
	add := func(p string) {
		if seen[p] {
			return
		}
		seen[p] = true
		out = append(out, p)
	}
	for _, arg := range args {
		if !hasMeta(arg) {
			add(arg)
			continue
		}
		base, pattern := doublestar.SplitPattern(filepath.ToSlash(arg))
		matches, err := doublestar.Glob(os.DirFS(filepath.FromSlash(base)), pattern, doublestar.WithFilesOnly())
		if err != nil {
			return nil, fmt.Errorf("%s: %w", arg, err)
		}
		if len(matches) == 0 {
			return nil, fmt.Errorf("%w: %s", ErrNoMatch, arg)
		}
		sort.Strings(matches)
		for _, m := range matches {
			add(filepath.Join(filepath.FromSlash(base), filepath.FromSlash(m)))
		}
	}
	return out, nil
}

func hasMeta(p string) bool {
	return strings.ContainsAny(p, "*?[{")
}
