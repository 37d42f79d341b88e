package catalog

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/jpfielding/barch.go/pkg/convert"
	"github.com/jpfielding/barch.go/pkg/logging"
)

// Converter converts the file at in, writing out.
type Converter func(ctx context.Context, in, out string) error

// Result reports one finished job.
type Result struct {
	Entry   Entry // the entry as it was when the job started
	Output  string
	Err     error
	Elapsed time.Duration
}

// Dispatcher runs compress and decompress jobs for catalog entries in the
// background, at most one per path and at most workers at a time.
type Dispatcher struct {
	cat        *Catalog
	compress   Converter
	decompress Converter
	sem        chan struct{}
	wg         sync.WaitGroup

	// Notify, when set, is called from the job goroutine for every result.
	Notify func(Result)

	mu      sync.Mutex
	results []Result
}

// NewDispatcher wires the convert package with opts into a dispatcher.
func NewDispatcher(cat *Catalog, workers int, opts *convert.Options) *Dispatcher {
	return NewDispatcherWith(cat, workers,
		func(ctx context.Context, in, out string) error { return convert.Compress(ctx, in, out, opts) },
		func(ctx context.Context, in, out string) error { return convert.Decompress(ctx, in, out, opts) },
	)
}

// NewDispatcherWith uses custom converters.
func NewDispatcherWith(cat *Catalog, workers int, compress, decompress Converter) *Dispatcher {
	if workers < 1 {
		workers = 1
	}
	return &Dispatcher{
		cat:        cat,
		compress:   compress,
		decompress: decompress,
		sem:        make(chan struct{}, workers),
	}
}

// Compress starts compressing the NotCompressed entry at path into
// path + packed suffix. It returns as soon as the job is queued.
func (d *Dispatcher) Compress(ctx context.Context, path string) (Entry, error) {
	out := path + d.cat.opts.PackedExt
	e, err := d.cat.begin(path, out, NotCompressed)
	if err != nil {
		return e, err
	}
	d.start(ctx, e, out, d.compress)
	return e, nil
}

// Decompress starts decompressing the Compressed entry at path into
// path + bitmap suffix.
func (d *Dispatcher) Decompress(ctx context.Context, path string) (Entry, error) {
	out := path + d.cat.opts.BitmapExt
	e, err := d.cat.begin(path, out, Compressed)
	if err != nil {
		return e, err
	}
	d.start(ctx, e, out, d.decompress)
	return e, nil
}

func (d *Dispatcher) start(ctx context.Context, e Entry, out string, fn Converter) {
	d.wg.Add(1)
	go func() {
		defer d.wg.Done()
		ctx := logging.AppendCtx(ctx,
			slog.String("job", e.ID.String()),
			slog.String("file", e.Name))

		var err error
		start := time.Now()
		select {
		case d.sem <- struct{}{}:
			err = fn(ctx, e.Path, out)
			<-d.sem
		case <-ctx.Done():
			err = ctx.Err()
		}
		d.cat.finish(e.Path, out, err == nil)

		r := Result{Entry: e, Output: out, Err: err, Elapsed: time.Since(start)}
		if err != nil {
			slog.ErrorContext(ctx, "conversion failed", slog.Any("error", err))
		} else {
			slog.InfoContext(ctx, "conversion finished", slog.String("output", out), slog.Duration("elapsed", r.Elapsed))
		}
		d.mu.Lock()
		d.results = append(d.results, r)
		d.mu.Unlock()
		if d.Notify != nil {
			d.Notify(r)
		}
	}()
}

// Wait blocks until every started job is done and returns the results
// gathered since the previous Wait.
func (d *Dispatcher) Wait() []Result {
	d.wg.Wait()
	d.mu.Lock()
	defer d.mu.Unlock()
	out := d.results
	d.results = nil
	return out
}
