// Package filesystem zips and lists the directories the server hands out.
// Archives are written to a temp file and renamed into place, so a reader
// never sees a half written zip.
package filesystem

import (
	"archive/zip"
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"github.com/google/uuid"

	"github.com/sagarc03/mayray"
)

// Archiver walks directories without following symbolic links. Walks go
// through an os.Root, so nothing outside the walked directory is opened.
type Archiver struct {
	logger *slog.Logger
}

// NewArchiver creates a new Archiver.
func NewArchiver(logger *slog.Logger) *Archiver {
	return &Archiver{logger: logger}
}

type ctxReader struct {
	ctx context.Context
	r   io.Reader
}

func (r *ctxReader) Read(p []byte) (n int, err error) {
	if err := r.ctx.Err(); err != nil {
		return 0, err
	}
	return r.r.Read(p)
}

// ZipAll writes every regular file below sourceDir into a new zip archive at
// destZipPath. rewrite maps a file's path (sourceDir joined with the path
// inside it) to its entry name; entry names are slash-separated. Symbolic
// links and other non-regular files are skipped. Parent directories of
// destZipPath are created as needed and an existing archive is replaced.
func (a *Archiver) ZipAll(ctx context.Context, sourceDir, destZipPath string, rewrite func(string) string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	root, err := os.OpenRoot(sourceDir)
	if err != nil {
		return fmt.Errorf("open source dir: %w", err)
	}
	defer closeRoot(root, a.logger)

	destDir := filepath.Dir(destZipPath)
	if err := os.MkdirAll(destDir, 0o755); err != nil {
		return fmt.Errorf("could not create intermediate directories: %w", err)
	}

	tmpPath := filepath.Join(destDir, tmpFileName())
	t, err := os.Create(tmpPath) //nolint:gosec // Path is built from the configured zip dir
	if err != nil {
		return fmt.Errorf("could not open temp file: %w", err)
	}

	success := false
	defer func() {
		if !success {
			if closeErr := t.Close(); closeErr != nil && !errors.Is(closeErr, os.ErrClosed) {
				a.logger.Warn("failed to close tmp file", "err", closeErr)
			}
			if rmErr := os.Remove(tmpPath); rmErr != nil {
				a.logger.Warn("failed to remove tmp file", "path", tmpPath, "err", rmErr)
			}
		}
	}()

	zw := zip.NewWriter(t)
	count := 0
	err = a.walk(ctx, root, func(rel string, entry fs.DirEntry) error {
		if err := a.addFile(ctx, zw, root, rel, entry, rewrite(filepath.Join(sourceDir, rel))); err != nil {
			return err
		}
		count++
		return nil
	})
	if err != nil {
		return fmt.Errorf("zip %s: %w", sourceDir, err)
	}

	if err := zw.Close(); err != nil {
		return fmt.Errorf("could not finish zip archive: %w", err)
	}
	if err := t.Sync(); err != nil {
		return fmt.Errorf("could not sync written file: %w", err)
	}
	if err := t.Close(); err != nil {
		return fmt.Errorf("could not close temp file: %w", err)
	}

	if err := os.Rename(tmpPath, destZipPath); err != nil {
		return fmt.Errorf("failed to rename file: %w", err)
	}

	success = true
	a.logger.Debug("zipped directory", "source", sourceDir, "dest", destZipPath, "files", count)
	return nil
}

func (a *Archiver) addFile(ctx context.Context, zw *zip.Writer, root *os.Root, rel string, entry fs.DirEntry, name string) error {
	info, err := entry.Info()
	if err != nil {
		return err
	}

	header, err := zip.FileInfoHeader(info)
	if err != nil {
		return err
	}
	header.Name = strings.TrimPrefix(filepath.ToSlash(name), "/")
	header.Method = zip.Deflate

	w, err := zw.CreateHeader(header)
	if err != nil {
		return fmt.Errorf("create entry %s: %w", header.Name, err)
	}

	f, err := root.Open(rel)
	if err != nil {
		return err
	}

	_, copyErr := io.Copy(w, &ctxReader{ctx: ctx, r: f})

	if closeErr := f.Close(); closeErr != nil {
		a.logger.Warn("failed to close file", "path", rel, "err", closeErr)
	}

	if copyErr != nil {
		return fmt.Errorf("write entry %s: %w", header.Name, copyErr)
	}
	return nil
}

// ListFiles returns the regular files below dir with their sizes, sorted by
// path. Paths are dir joined with the path inside it.
func (a *Archiver) ListFiles(ctx context.Context, dir string) ([]mayray.FileEntry, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	root, err := os.OpenRoot(dir)
	if err != nil {
		return nil, fmt.Errorf("open dir: %w", err)
	}
	defer closeRoot(root, a.logger)

	var entries []mayray.FileEntry
	err = a.walk(ctx, root, func(rel string, entry fs.DirEntry) error {
		info, err := entry.Info()
		if err != nil {
			return err
		}
		entries = append(entries, mayray.FileEntry{
			Path: filepath.Join(dir, rel),
			Size: info.Size(),
		})
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to list files: %w", err)
	}

	slices.SortFunc(entries, func(x, y mayray.FileEntry) int {
		return strings.Compare(x.Path, y.Path)
	})
	return entries, nil
}

// walk calls visit for every regular file below root. It keeps its own stack
// of directories instead of recursing, so deep trees cannot exhaust the
// goroutine stack.
func (a *Archiver) walk(ctx context.Context, root *os.Root, visit func(rel string, entry fs.DirEntry) error) error {
	stack := []string{"."}

	for len(stack) > 0 {
		dir := stack[len(stack)-1]
		stack = stack[:len(stack)-1]

		if err := ctx.Err(); err != nil {
			return err
		}

		dirEntries, err := fs.ReadDir(root.FS(), filepath.ToSlash(dir))
		if err != nil {
			return fmt.Errorf("walk dir: %w", err)
		}

		for _, entry := range dirEntries {
			entryPath := filepath.Join(dir, entry.Name())

			switch {
			case entry.IsDir():
				stack = append(stack, entryPath)
			case entry.Type().IsRegular():
				if err := visit(entryPath, entry); err != nil {
					return err
				}
			default:
				a.logger.Info("skipping non-regular file", "path", entryPath, "type", entry.Type().String())
			}
		}
	}

	return nil
}

func closeRoot(root *os.Root, logger *slog.Logger) {
	if err := root.Close(); err != nil {
		logger.Warn("failed to close root", "err", err)
	}
}

func tmpFileName() string {
	return fmt.Sprintf(".t%s", uuid.New().String())
}
