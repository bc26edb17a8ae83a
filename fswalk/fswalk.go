// Package fswalk is the filesystem walker collaborator (spec §6.3): a
// high-level directory traversal that feeds file paths to callers wanting
// to data_put an entire tree. It is explicitly out of scope for the core
// storage-object pipeline (spec §1's Non-goals); this package exists only
// to give CLI-level callers a ready walker with the spec's log-and-skip
// error semantics, grounded on the teacher's hot-path zap logging idiom
// used throughout core/storage.go.
package fswalk

import (
	"context"
	"io/fs"
	"path/filepath"

	"go.uber.org/zap"
)

// Entry is one file discovered by Walk.
type Entry struct {
	Path string
	Info fs.FileInfo
}

// Walk traverses root and sends one Entry per regular file found. Errors
// encountered while walking (a directory entry that cannot be stat'd, a
// permission error) are logged and that entry is skipped; the walk
// continues. Cancelling ctx stops the walk at the next entry it visits.
// Both returned channels are closed when the walk finishes.
func Walk(ctx context.Context, root string, logger *zap.Logger) (<-chan Entry, <-chan error) {
	if logger == nil {
		logger = zap.L()
	}
	entries := make(chan Entry)
	errs := make(chan error, 1)

	go func() {
		defer close(entries)
		defer close(errs)

		err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			if err != nil {
				logger.Sugar().Errorf("fswalk: skipping %s: %v", path, err)
				if d != nil && d.IsDir() {
					return filepath.SkipDir
				}
				return nil
			}
			if d.IsDir() {
				return nil
			}
			info, infoErr := d.Info()
			if infoErr != nil {
				logger.Sugar().Errorf("fswalk: skipping %s: %v", path, infoErr)
				return nil
			}
			select {
			case entries <- Entry{Path: path, Info: info}:
			case <-ctx.Done():
				return ctx.Err()
			}
			return nil
		})
		if err != nil && err != context.Canceled {
			errs <- err
		}
	}()

	return entries, errs
}
