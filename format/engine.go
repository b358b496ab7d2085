package format

import (
	"context"
	"fmt"
	"runtime"
	"sync"
	"time"

	"github.com/birkland/bagval"
	"github.com/birkland/bagval/drivers/fs"
	"github.com/pkg/errors"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/semaphore"
)

// DefaultPluginConcurrency bounds concurrent plugin invocations unless
// configured otherwise
const DefaultPluginConcurrency = 2

// Engine dispatches files to format plugins
type Engine struct {
	Identifier        Identifier
	Plugins           []Descriptor
	PluginConcurrency int           // Concurrent plugin invocations, DefaultPluginConcurrency when < 1
	Timeout           time.Duration // Per plugin invocation, none when zero
	Workers           int           // Files processed concurrently, NumCPU when < 1
	Logger            *zap.Logger   // May be nil

	once sync.Once
	sem  *semaphore.Weighted
}

type outcome struct {
	valid  bool
	report *bagval.Report
}

// ValidateFile validates the format of a single file.  The error is a
// *bagval.ValidationError if the file is invalid, or could not be identified.
func (e *Engine) ValidateFile(ctx context.Context, path string) (*bagval.Report, error) {
	r := bagval.NewReport(bagval.FormatValidator)

	valid, err := e.checkFile(ctx, r, path)
	if err != nil {
		return r, err
	}

	return r, conclude(r, valid)
}

// ValidateBag validates the formats of all payload files of a bag.
// Diagnostics are reported in path order.
func (e *Engine) ValidateBag(ctx context.Context, bag *bagval.Bag) (*bagval.Report, error) {
	log := e.logger().With(zap.String("bag", bag.Root))
	start := time.Now()

	r := bagval.NewReport(bagval.FormatValidator)

	files, err := fs.Payload(bag.Root)
	if err != nil {
		return r, errors.Wrapf(err, "could not list payload of %s", bag.Root)
	}

	results := make([]outcome, len(files))
	q := make(chan int)
	g, gctx := errgroup.WithContext(ctx)

	for i := 0; i < e.workers(); i++ {
		g.Go(func() error {
			for index := range q {
				res := bagval.NewReport(bagval.FormatValidator)
				valid, err := e.checkFile(gctx, res, files[index].Addr)
				if err != nil {
					return err
				}
				results[index] = outcome{valid: valid, report: res}
			}
			return nil
		})
	}

	g.Go(func() error {
		defer close(q)
		for i := range files {
			if err := gctx.Err(); err != nil {
				return err
			}
			select {
			case q <- i:
			case <-gctx.Done():
				return gctx.Err()
			}
		}
		return nil
	})

	if err := g.Wait(); err != nil {
		return r, errors.Wrap(err, "file format validation interrupted")
	}

	valid := true
	for _, res := range results {
		valid = res.valid && valid
		r.Merge(res.report)
	}

	err = conclude(r, valid)

	log.Debug("file format validation done",
		zap.Int("files", len(files)),
		zap.Bool("ok", err == nil),
		zap.Duration("took", time.Since(start)))

	return r, err
}

// conclude summarizes the run.  Files are valid only if every plugin accepted
// them and no Error was logged.
func conclude(r *bagval.Report, valid bool) error {
	if !valid || !r.OK() {
		r.Log(bagval.Info, "File formats are invalid.")
		return &bagval.ValidationError{Kind: bagval.FormatValidation, Report: r}
	}
	r.Log(bagval.Info, "File formats are valid.")
	return nil
}

// checkFile identifies a file and runs all matching plugins on it, in order.
// Problems with the file itself are logged, errors end the run.
func (e *Engine) checkFile(ctx context.Context, r *bagval.Report, path string) (bool, error) {
	if e.Identifier == nil {
		return false, bagval.Configf("no file type identifier configured")
	}

	mimeType, err := e.Identifier.Identify(ctx, path)
	if ctx.Err() != nil {
		return false, ctx.Err()
	}
	if err != nil || mimeType == "" {
		if err == nil {
			err = fmt.Errorf("no type found")
		}
		r.Logf(bagval.Error, "Unable to identify the type of file '%s' (%s).", path, errors.Cause(err))
		return false, nil
	}

	e.logger().Debug("identified file", zap.String("file", path), zap.String("type", mimeType))

	valid := true
	for _, d := range e.Plugins {
		if !d.Selector.Match(mimeType) {
			r.LogAs(d.Plugin.Tag(), bagval.Warning,
				fmt.Sprintf("File '%s' is left unchecked; no match for '%s' in %s", path, mimeType, d.Selector))
			continue
		}

		ok, err := e.invoke(ctx, r, d.Plugin, path, mimeType)
		if err != nil {
			return false, err
		}
		valid = ok && valid
	}

	return valid, nil
}

// invoke runs a plugin under the concurrency bound and timeout.  A plugin
// that outlives its timeout is abandoned, and the file counts as invalid.
func (e *Engine) invoke(ctx context.Context, r *bagval.Report, p Plugin, path, mimeType string) (bool, error) {
	sem := e.semaphore()
	if err := sem.Acquire(ctx, 1); err != nil {
		return false, err
	}

	pctx, cancel := ctx, context.CancelFunc(func() {})
	if e.Timeout > 0 {
		pctx, cancel = context.WithTimeout(ctx, e.Timeout)
	}
	defer cancel()

	done := make(chan outcome, 1)
	go func() {
		defer sem.Release(1)
		valid, report := p.ValidateFileFormat(pctx, path, mimeType)
		done <- outcome{valid: valid, report: report}
	}()

	select {
	case res := <-done:
		if ctx.Err() != nil {
			return false, ctx.Err()
		}
		if pctx.Err() == context.DeadlineExceeded {
			r.LogAs(p.Tag(), bagval.Error, timedOut(path, e.Timeout))
			return false, nil
		}
		if res.report != nil {
			r.Merge(res.report)
		}
		if !res.valid && (res.report == nil || res.report.OK()) {
			r.LogAs(p.Tag(), bagval.Error, fmt.Sprintf("File '%s' rejected by %s.", path, p.Tag()))
		}
		return res.valid, nil
	case <-pctx.Done():
		if ctx.Err() != nil {
			return false, ctx.Err()
		}
		r.LogAs(p.Tag(), bagval.Error, timedOut(path, e.Timeout))
		go e.watchAbandoned(p.Tag(), path, done)
		return false, nil
	}
}

// watchAbandoned warns while an abandoned plugin still holds a concurrency
// slot, once per timeout period, and once more when it finally returns
func (e *Engine) watchAbandoned(tag, path string, done <-chan outcome) {
	log := e.logger().With(zap.String("plugin", tag), zap.String("file", path))
	start := time.Now()

	log.Warn("plugin timed out and still holds a concurrency slot",
		zap.Duration("timeout", e.Timeout))

	tick := time.NewTicker(e.Timeout)
	defer tick.Stop()
	for {
		select {
		case <-done:
			log.Warn("abandoned plugin returned, concurrency slot released",
				zap.Duration("held", time.Since(start)+e.Timeout))
			return
		case <-tick.C:
			log.Warn("abandoned plugin still holds a concurrency slot",
				zap.Duration("held", time.Since(start)+e.Timeout))
		}
	}
}

func timedOut(path string, timeout time.Duration) string {
	return fmt.Sprintf("Validation of file '%s' did not finish within %s.", path, timeout)
}

func (e *Engine) semaphore() *semaphore.Weighted {
	e.once.Do(func() {
		n := e.PluginConcurrency
		if n < 1 {
			n = DefaultPluginConcurrency
		}
		e.sem = semaphore.NewWeighted(int64(n))
	})
	return e.sem
}

func (e *Engine) workers() int {
	if e.Workers < 1 {
		return runtime.NumCPU()
	}
	return e.Workers
}

func (e *Engine) logger() *zap.Logger {
	if e.Logger == nil {
		return zap.NewNop()
	}
	return e.Logger
}
