package pipeline

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"runtime"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/matzehuels/zinefold/pkg/cache"
	"github.com/matzehuels/zinefold/pkg/errors"
	"github.com/matzehuels/zinefold/pkg/impose"
	"github.com/matzehuels/zinefold/pkg/observability"
)

const measureKeyType = "measure"

// Measure reads the pixel size of every image, using cached sizes where the
// file is unchanged.
func (r *Runner) Measure(ctx context.Context, paths []string) ([]impose.SourceSpread, error) {
	spreads, _, err := r.MeasureWithCacheInfo(ctx, paths, false)
	return spreads, err
}

// MeasureWithCacheInfo measures images concurrently and reports cache
// usage. Results keep the order of paths. With refresh set, cached sizes
// are ignored but fresh ones are still stored.
func (r *Runner) MeasureWithCacheInfo(ctx context.Context, paths []string, refresh bool) ([]impose.SourceSpread, CacheInfo, error) {
	hooks := observability.Pipeline()
	hooks.OnMeasureStart(ctx, len(paths))
	start := time.Now()

	spreads := make([]impose.SourceSpread, len(paths))
	hits := make([]bool, len(paths))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(runtime.NumCPU())
	for i, p := range paths {
		g.Go(func() error {
			size, hit, err := r.measureOne(gctx, p, refresh)
			if err != nil {
				return err
			}
			spreads[i] = impose.SourceSpread{Path: p, Width: size.Width, Height: size.Height}
			hits[i] = hit
			return nil
		})
	}
	err := g.Wait()
	hooks.OnMeasureComplete(ctx, len(paths), time.Since(start), err)
	if err != nil {
		return nil, CacheInfo{}, err
	}

	var info CacheInfo
	for _, hit := range hits {
		if hit {
			info.MeasureHits++
		} else {
			info.MeasureMisses++
		}
	}
	return spreads, info, nil
}

func (r *Runner) measureOne(ctx context.Context, path string, refresh bool) (impose.Size, bool, error) {
	fi, err := os.Stat(path)
	if err != nil {
		return impose.Size{}, false, errors.Wrap(errors.ErrCodeFileNotFound, err, "image %s", path)
	}
	abs, err := filepath.Abs(path)
	if err != nil {
		abs = path
	}
	key := r.Keyer.MeasureKey(abs, fi.Size(), fi.ModTime())
	hooks := observability.Cache()

	if !refresh {
		if data, hit, err := r.Cache.Get(ctx, key); err == nil && hit {
			var size impose.Size
			if err := json.Unmarshal(data, &size); err == nil && size.Width > 0 && size.Height > 0 {
				hooks.OnCacheHit(ctx, measureKeyType)
				return size, true, nil
			}
			// Undecodable entries fall through and get overwritten.
		} else if err != nil {
			r.Logger.Debug("cache read failed", "path", path, "error", err)
		}
	}
	hooks.OnCacheMiss(ctx, measureKeyType)

	size, err := r.Compositor.Measure(ctx, path)
	if err != nil {
		return impose.Size{}, false, err
	}

	data, err := json.Marshal(size)
	if err != nil {
		return size, false, nil
	}
	if err := r.Cache.Set(ctx, key, data, cache.TTLMeasure); err != nil {
		r.Logger.Debug("cache write failed", "path", path, "error", err)
	} else {
		hooks.OnCacheSet(ctx, measureKeyType, len(data))
	}
	return size, false, nil
}
