// Package discover enumerates the source files of a repository tree.
package discover

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	ignore "github.com/sabhiram/go-gitignore"

	"github.com/lumenforge/codegraph-mcp/internal/config"
	"github.com/lumenforge/codegraph-mcp/internal/lang"
)

// skipDirs are directory names never descended into.
var skipDirs = map[string]bool{
	".cache": true, ".eggs": true, ".env": true, ".git": true,
	".gradle": true, ".hg": true, ".idea": true, ".mypy_cache": true,
	".nox": true, ".npm": true, ".nyc_output": true, ".pnpm-store": true,
	".pytest_cache": true, ".ruff_cache": true, ".svn": true, ".tox": true,
	".venv": true, ".vscode": true, ".yarn": true, "__pycache__": true,
	"bower_components": true, "build": true, "coverage": true, "dist": true,
	"env": true, "htmlcov": true, "node_modules": true, "site-packages": true,
	"target": true, "venv": true,
}

// FileInfo is one discovered source file.
type FileInfo struct {
	Path     string // absolute path
	RelPath  string // slash-separated, relative to the root
	Language lang.Language
}

// Options configures discovery.
type Options struct {
	// IgnoreFile is the name of the gitignore-syntax file consulted at the
	// root. Empty means config.DefaultIgnoreFile.
	IgnoreFile string
	// Languages restricts results to the listed languages. Empty means all.
	Languages []string
}

// VanishedTargetError marks a build target that disappeared before or
// during discovery. Builds classify it as cancellation, not failure.
type VanishedTargetError struct {
	Path string
}

func (e *VanishedTargetError) Error() string {
	return fmt.Sprintf("target vanished: %s", e.Path)
}

// Files walks root and returns every supported source file in lexical
// order. A missing root returns *VanishedTargetError; an unreadable ignore
// file returns *config.ConfigError.
func Files(ctx context.Context, root string, opts *Options) ([]FileInfo, error) {
	root, err := filepath.Abs(root)
	if err != nil {
		return nil, err
	}
	if _, err := os.Stat(root); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, &VanishedTargetError{Path: root}
		}
		return nil, err
	}

	matcher, err := loadIgnore(root, opts)
	if err != nil {
		return nil, err
	}

	allowed := languageSet(opts)

	var files []FileInfo
	err = filepath.WalkDir(root, func(path string, d fs.DirEntry, walkErr error) error {
		if err := ctx.Err(); err != nil {
			return err
		}
		if walkErr != nil {
			// The root disappearing mid-walk aborts; anything else (an
			// unreadable subdirectory) is skipped.
			if path == root && errors.Is(walkErr, fs.ErrNotExist) {
				return &VanishedTargetError{Path: root}
			}
			return filepath.SkipDir
		}

		rel, relErr := filepath.Rel(root, path)
		if relErr != nil {
			return nil
		}
		rel = filepath.ToSlash(rel)

		if d.IsDir() {
			if path == root {
				return nil
			}
			if skipDirs[d.Name()] {
				return filepath.SkipDir
			}
			if matcher != nil && matcher.MatchesPath(rel+"/") {
				return filepath.SkipDir
			}
			return nil
		}

		if d.Type()&fs.ModeSymlink != 0 {
			return nil
		}
		if matcher != nil && matcher.MatchesPath(rel) {
			return nil
		}

		l, ok := lang.LanguageForExtension(filepath.Ext(path))
		if !ok {
			return nil
		}
		if allowed != nil && !allowed[l] {
			return nil
		}

		files = append(files, FileInfo{Path: path, RelPath: rel, Language: l})
		return nil
	})
	if err != nil {
		return nil, err
	}
	return files, nil
}

// loadIgnore compiles the ignore file at the root. Absence is fine; a
// present but unreadable file is a configuration fault.
func loadIgnore(root string, opts *Options) (*ignore.GitIgnore, error) {
	name := config.DefaultIgnoreFile
	if opts != nil && opts.IgnoreFile != "" {
		name = opts.IgnoreFile
	}
	path := filepath.Join(root, name)
	matcher, err := ignore.CompileIgnoreFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, nil
		}
		return nil, &config.ConfigError{Path: path, Err: err}
	}
	return matcher, nil
}

func languageSet(opts *Options) map[lang.Language]bool {
	if opts == nil || len(opts.Languages) == 0 {
		return nil
	}
	set := make(map[lang.Language]bool, len(opts.Languages))
	for _, l := range opts.Languages {
		set[lang.Language(strings.ToLower(l))] = true
	}
	return set
}
