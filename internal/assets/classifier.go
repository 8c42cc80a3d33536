package assets

import (
	"context"
	"io"
	"os"
	"path/filepath"
	"strings"
	"sync"
)

// maxSniffBytes bounds how much of a file is read for content sniffing.
const maxSniffBytes = 1 << 20

// Classifier resolves paths to handlers through a Registry.
//
// A path that has been classified once keeps its kind for the lifetime of
// the Classifier, so the same path always reaches the same handler and a
// deleted file can still be routed by the kind it was imported as.
type Classifier struct {
	registry *Registry
	sniff    bool

	mu   sync.Mutex
	seen map[string]Kind
}

// ClassifierOption configures a Classifier.
type ClassifierOption func(*Classifier)

// WithSniffing toggles content sniffing for files whose suffix is not in the
// kind table. Enabled by default.
func WithSniffing(enabled bool) ClassifierOption {
	return func(c *Classifier) {
		c.sniff = enabled
	}
}

// NewClassifier creates a Classifier over registry.
func NewClassifier(registry *Registry, opts ...ClassifierOption) *Classifier {
	c := &Classifier{
		registry: registry,
		sniff:    true,
		seen:     make(map[string]Kind),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Registry returns the registry the Classifier resolves against.
func (c *Classifier) Registry() *Registry {
	return c.registry
}

// Classify returns the kind of the file at path, reading its content when
// the suffix alone does not decide.
func (c *Classifier) Classify(ctx context.Context, path string) (Kind, bool) {
	return c.classify(ctx, path, c.sniff)
}

// ResolveImport returns the import handler for path. A false result means
// the path should be ignored.
func (c *Classifier) ResolveImport(ctx context.Context, path string) (Importer, bool) {
	kind, ok := c.classify(ctx, path, c.sniff)
	if !ok {
		return nil, false
	}
	return c.registry.Importer(kind)
}

// ResolveDelete returns the delete handler for path. The file is gone, so
// only the suffix and earlier classifications are consulted.
func (c *Classifier) ResolveDelete(ctx context.Context, path string) (Deleter, bool) {
	kind, ok := c.classify(ctx, path, false)
	if !ok {
		return nil, false
	}
	return c.registry.Deleter(kind)
}

func (c *Classifier) classify(ctx context.Context, path string, sniff bool) (Kind, bool) {
	key := filepath.Clean(path)

	c.mu.Lock()
	kind, ok := c.seen[key]
	c.mu.Unlock()
	if ok {
		return kind, true
	}

	kind, ok = KindForFile(path)
	if !ok && sniff && sniffExts[strings.ToLower(filepath.Ext(path))] {
		kind, ok = sniffFile(ctx, path)
	}
	if !ok {
		return "", false
	}

	c.mu.Lock()
	c.seen[key] = kind
	c.mu.Unlock()
	return kind, true
}

func sniffFile(ctx context.Context, path string) (Kind, bool) {
	f, err := os.Open(path)
	if err != nil {
		return "", false
	}
	defer f.Close()
	src, err := io.ReadAll(io.LimitReader(f, maxSniffBytes))
	if err != nil {
		return "", false
	}
	return SniffKind(ctx, src)
}
