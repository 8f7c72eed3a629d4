package enum

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"sort"
	"strings"

	gitignore "github.com/sabhiram/go-gitignore"

	"github.com/praetorian-inc/cobprep/pkg/copybook"
	"github.com/praetorian-inc/cobprep/pkg/types"
	"golang.org/x/sync/errgroup"
)

// FilesystemEnumerator enumerates COBOL files below a directory.
type FilesystemEnumerator struct {
	config     Config
	classifier *copybook.Classifier
}

// NewFilesystemEnumerator creates a new filesystem enumerator.
func NewFilesystemEnumerator(config Config) *FilesystemEnumerator {
	classifier := config.Classifier
	if classifier == nil {
		classifier = copybook.DefaultClassifier()
	}
	return &FilesystemEnumerator{config: config, classifier: classifier}
}

// fileEntry holds metadata collected during the walk phase.
type fileEntry struct {
	path     string
	copybook bool
}

// Files walks the tree and returns the eligible paths in walk order.
func (e *FilesystemEnumerator) Files(ctx context.Context) ([]string, error) {
	entries, err := e.walk(ctx)
	if err != nil {
		return nil, err
	}
	paths := make([]string, len(entries))
	for i, f := range entries {
		paths[i] = f.path
	}
	return paths, nil
}

// Enumerate walks the filesystem and yields COBOL files.
// Phase 1: Walk directory tree and collect eligible file paths (fast, sequential).
// Phase 2: Read files and invoke callback in parallel.
func (e *FilesystemEnumerator) Enumerate(ctx context.Context, callback Callback) error {
	files, err := e.walk(ctx)
	if err != nil {
		return err
	}

	numReaders := e.config.Workers
	if numReaders <= 0 {
		numReaders = runtime.NumCPU()
	}
	if numReaders < 1 {
		numReaders = 1
	}

	origCtx := ctx
	g, ctx := errgroup.WithContext(ctx)
	pathsCh := make(chan fileEntry, numReaders*2)

	// Feed paths to readers
	g.Go(func() error {
		defer close(pathsCh)
		for _, f := range files {
			select {
			case pathsCh <- f:
			case <-ctx.Done():
				return ctx.Err()
			}
		}
		return nil
	})

	for i := 0; i < numReaders; i++ {
		g.Go(func() error {
			for f := range pathsCh {
				if err := e.processFile(ctx, f, callback); err != nil {
					return err
				}
			}
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return err
	}
	// If the caller's context was cancelled but all goroutines finished
	// before noticing, propagate the cancellation.
	if origCtx.Err() != nil {
		return origCtx.Err()
	}
	return nil
}

func (e *FilesystemEnumerator) walk(ctx context.Context) ([]fileEntry, error) {
	var ignore *gitignore.GitIgnore
	gitignorePath := filepath.Join(e.config.Root, ".gitignore")
	if _, err := os.Stat(gitignorePath); err == nil {
		ignore, _ = gitignore.CompileIgnoreFile(gitignorePath)
	}

	var files []fileEntry
	err := filepath.Walk(e.config.Root, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		if ignore != nil && path != e.config.Root {
			relPath, err := filepath.Rel(e.config.Root, path)
			if err != nil {
				return err
			}
			if ignore.MatchesPath(relPath) {
				if info.IsDir() {
					return filepath.SkipDir
				}
				return nil
			}
		}

		if info.IsDir() {
			if path != e.config.Root && !e.config.IncludeHidden && isHidden(info.Name()) {
				return filepath.SkipDir
			}
			return nil
		}

		if info.Mode()&os.ModeSymlink != 0 && !e.config.FollowSymlinks {
			return nil
		}
		if !e.config.IncludeHidden && isHidden(info.Name()) {
			return nil
		}
		if e.config.MaxFileSize > 0 && info.Size() > e.config.MaxFileSize {
			return nil
		}

		switch {
		case e.classifier.IsSource(path):
			files = append(files, fileEntry{path: path})
		case e.config.IncludeCopybooks && e.classifier.IsCopybook(path):
			files = append(files, fileEntry{path: path, copybook: true})
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	sort.SliceStable(files, func(i, j int) bool { return files[i].path < files[j].path })
	return files, nil
}

// processFile reads a single file and invokes the callback.
func (e *FilesystemEnumerator) processFile(ctx context.Context, f fileEntry, callback Callback) error {
	select {
	case <-ctx.Done():
		return ctx.Err()
	default:
	}

	content, err := os.ReadFile(f.path)
	if err != nil {
		return fmt.Errorf("failed to read file %s: %w", f.path, err)
	}
	if isBinary(content) {
		return nil
	}

	var prov types.Provenance = types.FileProvenance{FilePath: f.path}
	if f.copybook {
		prov = types.CopybookProvenance{FilePath: f.path}
	}
	return callback(content, types.ComputeSourceID(content), prov)
}

// isHidden checks if a filename is hidden (starts with .).
// The special entries "." and ".." are NOT considered hidden.
func isHidden(name string) bool {
	if name == "." || name == ".." {
		return false
	}
	return strings.HasPrefix(name, ".")
}

// isBinary detects if content is binary by checking first 8KB for null bytes.
func isBinary(content []byte) bool {
	checkSize := len(content)
	if checkSize > 8192 {
		checkSize = 8192
	}
	return bytes.IndexByte(content[:checkSize], 0) != -1
}
