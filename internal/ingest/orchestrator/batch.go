package orchestrator

import (
	"context"
	"os"
	"path/filepath"

	"golang.org/x/sync/errgroup"

	"github.com/yungbote/datavault-backend/internal/types"
)

const defaultConcurrency = 4

// ExpandPaths resolves the argument list into regular files,
// descending into directories.
func ExpandPaths(paths []string) ([]string, error) {
	var files []string
	for _, p := range paths {
		info, err := os.Stat(p)
		if err != nil {
			return nil, types.Tag(types.KindIO, err)
		}
		if !info.IsDir() {
			files = append(files, p)
			continue
		}
		err = filepath.Walk(p, func(path string, fi os.FileInfo, err error) error {
			if err != nil {
				return err
			}
			if fi.Mode().IsRegular() {
				files = append(files, path)
			}
			return nil
		})
		if err != nil {
			return nil, types.Tag(types.KindIO, err)
		}
	}
	return files, nil
}

// ProcessBatch ingests files concurrently, one worker per file, and
// returns one envelope per input in input order. A cancelled context
// fails the remaining files with cancelled envelopes.
func (o *Orchestrator) ProcessBatch(ctx context.Context, paths []string, concurrency int) []types.IngestResult {
	if concurrency <= 0 {
		concurrency = defaultConcurrency
	}
	results := make([]types.IngestResult, len(paths))

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(concurrency)
	for i, p := range paths {
		g.Go(func() error {
			results[i] = o.ProcessFile(ctx, p, types.Hints{})
			return nil
		})
	}
	// Workers never return errors; envelopes carry the failures.
	_ = g.Wait()
	return results
}
