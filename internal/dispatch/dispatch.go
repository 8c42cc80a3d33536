// Package dispatch routes one cycle of asset changes to the registered
// import and delete handlers.
package dispatch

import (
	"context"
	"fmt"
	"io"
	"log"

	"github.com/google/uuid"

	"github.com/jward/assethook/internal/assets"
	"github.com/jward/assethook/internal/bootstrap"
)

// ChangeSet is one notification from the host: the paths imported, deleted
// and moved since the previous cycle, each in host order.
type ChangeSet struct {
	Imported  []string
	Deleted   []string
	MovedTo   []string
	MovedFrom []string
}

// Empty reports whether the change set carries no paths at all.
func (cs ChangeSet) Empty() bool {
	return len(cs.Imported) == 0 && len(cs.Deleted) == 0 &&
		len(cs.MovedTo) == 0 && len(cs.MovedFrom) == 0
}

// Resolver finds the handler for a path.
type Resolver interface {
	ResolveImport(ctx context.Context, path string) (assets.Importer, bool)
	ResolveDelete(ctx context.Context, path string) (assets.Deleter, bool)
}

// Bootstrapper ensures the builtin resources exist.
type Bootstrapper interface {
	EnsureBuiltinResources(ctx context.Context) (*bootstrap.Result, error)
}

// HandlerError is a failure of one handler on one path.
type HandlerError struct {
	Op   string // "import" or "delete"
	Path string
	Err  error
}

func (e *HandlerError) Error() string {
	return fmt.Sprintf("%s %s: %v", e.Op, e.Path, e.Err)
}

func (e *HandlerError) Unwrap() error {
	return e.Err
}

// Report summarizes one processed change set.
type Report struct {
	// ID identifies the cycle in diagnostics.
	ID           string
	Bootstrap    *bootstrap.Result
	BootstrapErr error
	Imported     []string
	Deleted      []string
	Ignored      []string
	Failures     []*HandlerError
}

// Err returns a single error describing every failure in the report, or nil.
func (r *Report) Err() error {
	var errs []error
	if r.BootstrapErr != nil {
		errs = append(errs, fmt.Errorf("bootstrap: %w", r.BootstrapErr))
	}
	for _, f := range r.Failures {
		errs = append(errs, f)
	}
	if len(errs) == 0 {
		return nil
	}
	return fmt.Errorf("change set had %d error(s): %w", len(errs), errs[0])
}

// Dispatcher processes change sets. It holds no mutable state; callers that
// may deliver change sets concurrently must serialize Process calls.
type Dispatcher struct {
	resolver  Resolver
	bootstrap Bootstrapper
	logger    *log.Logger
}

// Option configures a Dispatcher.
type Option func(*Dispatcher)

// WithLogger sets the diagnostic logger. Default discards output.
func WithLogger(l *log.Logger) Option {
	return func(d *Dispatcher) {
		d.logger = l
	}
}

// New creates a Dispatcher. bootstrap may be nil to skip resource
// bootstrapping.
func New(resolver Resolver, bootstrap Bootstrapper, opts ...Option) *Dispatcher {
	d := &Dispatcher{
		resolver:  resolver,
		bootstrap: bootstrap,
		logger:    log.New(io.Discard, "", 0),
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// Process runs one cycle:
//  1. Ensure builtin resources, once, even for an empty change set
//  2. Import every path in cs.Imported that has an import handler
//  3. Delete every path in cs.Deleted that has a delete handler
//
// Paths without a handler are skipped. A failing handler is logged and the
// remaining paths are still processed. Moved paths are not acted on.
// The returned error is non-nil if bootstrapping or any handler failed.
func (d *Dispatcher) Process(ctx context.Context, cs ChangeSet) (*Report, error) {
	report := &Report{ID: uuid.New().String()}

	if d.bootstrap != nil {
		res, err := d.bootstrap.EnsureBuiltinResources(ctx)
		report.Bootstrap = res
		if err != nil {
			report.BootstrapErr = err
			d.logger.Printf("warning: cycle %s: builtin resources not initialized: %v", report.ID, err)
		}
	}

	for _, path := range cs.Imported {
		h, ok := d.resolver.ResolveImport(ctx, path)
		if !ok {
			report.Ignored = append(report.Ignored, path)
			continue
		}
		if err := safeCall(func() error { return h.Import(ctx, path) }); err != nil {
			d.fail(report, "import", path, err)
			continue
		}
		report.Imported = append(report.Imported, path)
	}

	for _, path := range cs.Deleted {
		h, ok := d.resolver.ResolveDelete(ctx, path)
		if !ok {
			report.Ignored = append(report.Ignored, path)
			continue
		}
		if err := safeCall(func() error { return h.Delete(ctx, path) }); err != nil {
			d.fail(report, "delete", path, err)
			continue
		}
		report.Deleted = append(report.Deleted, path)
	}

	return report, report.Err()
}

func (d *Dispatcher) fail(report *Report, op, path string, err error) {
	herr := &HandlerError{Op: op, Path: path, Err: err}
	report.Failures = append(report.Failures, herr)
	d.logger.Printf("error: %v", herr)
}

// safeCall runs fn and turns a panic into an error so one bad asset cannot
// abort the rest of the cycle.
func safeCall(fn func() error) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("handler panic: %v", r)
		}
	}()
	return fn()
}
