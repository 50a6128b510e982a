package imgcache

import (
	"context"
	"errors"
	"fmt"
	"runtime/debug"
	"slices"
	"strings"
	"sync"
	"time"

	"go.uber.org/multierr"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"repgen/config"
)

// Resolver prefetches images with bounded concurrency.
type Resolver struct {
	cfg     *config.ImagesConfig
	fetcher Fetcher
	log     *zap.Logger
}

func NewResolver(cfg *config.ImagesConfig, fetcher Fetcher, log *zap.Logger) *Resolver {
	return &Resolver{cfg: cfg, fetcher: fetcher, log: log.Named("images")}
}

// Resolve fetches and decodes all unique refs and returns when every one of
// them either succeeded, failed or the overall timeout expired. Failures are
// recorded in the cache and logged, they never stop processing.
func (r *Resolver) Resolve(ctx context.Context, refs []string) *Cache {
	start := time.Now()

	var unique []string
	seen := make(map[string]struct{}, len(refs))
	for _, ref := range refs {
		if len(strings.TrimSpace(ref)) == 0 {
			continue
		}
		if _, ok := seen[ref]; ok {
			continue
		}
		seen[ref] = struct{}{}
		unique = append(unique, ref)
	}

	cache := newCache()
	if len(unique) == 0 {
		return cache
	}

	if r.cfg.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, r.cfg.Timeout)
		defer cancel()
	}

	results, waitErr := r.fetchAll(ctx, unique)

	var combined error
	for i, ref := range unique {
		res := results[i]
		if !res.done {
			res.err = fmt.Errorf("not resolved in time: %w", context.Cause(ctx))
		}
		if res.err != nil {
			rerr := &ResolutionError{Ref: ref, Err: res.err}
			cache.failed[ref] = rerr
			combined = multierr.Append(combined, rerr)
			r.log.Warn("Unable to resolve image, placeholder will be used", zap.String("ref", shorten(ref)), zap.Error(res.err))
			continue
		}
		cache.entries[ref] = res.entry
	}
	if waitErr != nil {
		r.log.Debug("Image workers are still running after deadline", zap.Error(waitErr))
	}

	fields := []zap.Field{
		zap.Int("requested", len(unique)),
		zap.Int("resolved", len(cache.entries)),
		zap.Duration("elapsed", time.Since(start)),
	}
	if combined != nil {
		fields = append(fields, zap.Int("failed", len(multierr.Errors(combined))))
	}
	r.log.Debug("Images resolved", fields...)
	return cache
}

type outcome struct {
	entry *Entry
	err   error
	done  bool
}

// fetchAll runs workers and waits for them until ctx is done. Workers which
// did not finish by then are abandoned and whatever they produce later is
// dropped. Returned error is ctx error when waiting was cut short.
func (r *Resolver) fetchAll(ctx context.Context, refs []string) ([]outcome, error) {
	var (
		mu      sync.Mutex
		results = make([]outcome, len(refs))
		closed  bool
	)

	finished := make(chan error, 1)
	go func() {
		var g errgroup.Group
		g.SetLimit(max(r.cfg.Concurrency, 1))
		for i, ref := range refs {
			if ctx.Err() != nil {
				break
			}
			g.Go(func() error {
				entry, err := r.resolve(ctx, ref)
				mu.Lock()
				defer mu.Unlock()
				if !closed {
					results[i] = outcome{entry: entry, err: err, done: true}
				}
				return err
			})
		}
		finished <- g.Wait()
	}()

	var err error
	select {
	case werr := <-finished:
		if werr != nil {
			r.log.Debug("Not all images were resolved", zap.NamedError("first", werr))
		}
	case <-ctx.Done():
		err = ctx.Err()
	}

	mu.Lock()
	defer mu.Unlock()
	closed = true
	return slices.Clone(results), err
}

// resolve never panics, image decoders are not always robust to malformed
// data.
func (r *Resolver) resolve(ctx context.Context, ref string) (entry *Entry, err error) {
	defer func() {
		if rec := recover(); rec != nil {
			r.log.Debug("Image processing panic", zap.String("ref", shorten(ref)), zap.ByteString("stack", debug.Stack()))
			entry, err = nil, fmt.Errorf("image processing panic: %v", rec)
		}
	}()

	if err := ctx.Err(); err != nil {
		return nil, err
	}
	data, err := r.fetcher.Fetch(ctx, ref)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil && !errors.Is(err, ctxErr) {
			err = fmt.Errorf("%w: %w", ctxErr, err)
		}
		return nil, err
	}
	if len(data) == 0 {
		return nil, errors.New("empty image data")
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	entry, err = prepare(ref, data, r.cfg, r.log)
	if err == nil && ctx.Err() != nil {
		// decoded after deadline
		return nil, ctx.Err()
	}
	return entry, err
}
