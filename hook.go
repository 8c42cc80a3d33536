package assethook

import (
	"context"
	"crypto/sha256"
	"errors"
	"fmt"
	"io/fs"
	"log"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/jward/assethook/internal/assets"
	"github.com/jward/assethook/internal/bootstrap"
	"github.com/jward/assethook/internal/descriptor"
	"github.com/jward/assethook/internal/dispatch"
	"github.com/jward/assethook/internal/runtime"
	"github.com/jward/assethook/internal/store"
)

// ErrBootstrapDisabled is returned by EnsureBuiltinResources when the Hook
// was built without WithBootstrap.
var ErrBootstrapDisabled = errors.New("assethook: bootstrap not configured")

// Hook wires the asset ledger, handler scripts, classifier, resource
// bootstrapper and project patcher behind the host-facing entry points.
type Hook struct {
	store      *store.Store
	runtime    *runtime.Runtime
	scriptsDir string
	scriptsFS  fs.FS
	logger     *log.Logger

	registry   *assets.Registry // nil means script handlers for every kind
	sniff      bool
	classifier *assets.Classifier

	searchRoot   string
	marker       string
	gating       bootstrap.Gating
	factory      bootstrap.Factory
	bootstrapper *bootstrap.Bootstrapper

	rule    descriptor.Rule
	patcher *descriptor.Patcher

	dispatcher *dispatch.Dispatcher
}

// Option configures a Hook.
type Option func(*Hook)

// WithScriptsFS loads handler scripts from fsys instead of the scriptsDir
// passed to New.
func WithScriptsFS(fsys fs.FS) Option {
	return func(h *Hook) {
		h.scriptsFS = fsys
	}
}

// WithRegistry replaces the script-backed handlers with reg.
func WithRegistry(reg *assets.Registry) Option {
	return func(h *Hook) {
		h.registry = reg
	}
}

// WithSniffing toggles content-based classification of plain .json and
// .bytes files. Enabled by default.
func WithSniffing(enabled bool) Option {
	return func(h *Hook) {
		h.sniff = enabled
	}
}

// WithBootstrap enables builtin resource bootstrapping: the install root is
// the first directory under searchRoot whose path contains marker.
func WithBootstrap(searchRoot, marker string) Option {
	return func(h *Hook) {
		h.searchRoot = searchRoot
		h.marker = marker
	}
}

// WithGating selects how existing presets are detected.
func WithGating(g bootstrap.Gating) Option {
	return func(h *Hook) {
		h.gating = g
	}
}

// WithFactory replaces the resource factory used for bootstrapping.
func WithFactory(f bootstrap.Factory) Option {
	return func(h *Hook) {
		h.factory = f
	}
}

// WithProjectRule replaces the project descriptor patch rule.
func WithProjectRule(rule descriptor.Rule) Option {
	return func(h *Hook) {
		h.rule = rule
	}
}

// WithLogger sets the diagnostic logger for every component. Default
// writes to stderr.
func WithLogger(l *log.Logger) Option {
	return func(h *Hook) {
		h.logger = l
	}
}

// New creates a Hook backed by a SQLite ledger at dbPath. Scripts are read
// from the WithScriptsFS filesystem when set, otherwise from scriptsDir.
func New(dbPath string, scriptsDir string, opts ...Option) (*Hook, error) {
	s, err := store.NewStore(dbPath)
	if err != nil {
		return nil, fmt.Errorf("assethook: create store: %w", err)
	}
	if err := s.Migrate(); err != nil {
		s.Close()
		return nil, fmt.Errorf("assethook: migrate: %w", err)
	}

	h := &Hook{
		store:      s,
		scriptsDir: scriptsDir,
		logger:     log.New(os.Stderr, "assethook: ", 0),
		sniff:      true,
		marker:     bootstrap.DefaultMarker,
		gating:     bootstrap.GateDirectory,
		rule:       descriptor.DefaultRule(),
	}
	for _, opt := range opts {
		opt(h)
	}

	rtOpts := []runtime.Option{runtime.WithLogger(h.logger)}
	if h.scriptsFS != nil {
		rtOpts = append(rtOpts, runtime.WithScriptsFS(h.scriptsFS))
	}
	h.runtime = runtime.NewRuntime(s, scriptsDir, rtOpts...)

	if h.registry == nil {
		h.registry = h.runtime.Registry(assets.AllKinds()...)
	}
	h.classifier = assets.NewClassifier(h.registry, assets.WithSniffing(h.sniff))

	if h.searchRoot != "" {
		bOpts := []bootstrap.Option{bootstrap.WithGating(h.gating), bootstrap.WithLogger(h.logger)}
		if h.factory != nil {
			bOpts = append(bOpts, bootstrap.WithFactory(h.factory))
		}
		h.bootstrapper = bootstrap.New(h.searchRoot, h.marker, bOpts...)
	}

	h.patcher, err = descriptor.NewPatcher(h.rule, descriptor.WithLogger(h.logger))
	if err != nil {
		s.Close()
		return nil, fmt.Errorf("assethook: %w", err)
	}

	var b dispatch.Bootstrapper
	if h.bootstrapper != nil {
		b = h.bootstrapper
	}
	h.dispatcher = dispatch.New(h.classifier, b, dispatch.WithLogger(h.logger))

	return h, nil
}

// Close releases the Hook's database resources.
func (h *Hook) Close() error {
	return h.store.Close()
}

// Store returns the underlying asset ledger.
func (h *Hook) Store() *Store {
	return h.store
}

// ProcessChangeSet runs one host change cycle: bootstrap builtin resources,
// then import and delete the changed assets. Handler failures do not stop
// the cycle; they are collected in the report and the returned error.
func (h *Hook) ProcessChangeSet(ctx context.Context, cs ChangeSet) (*Report, error) {
	report, err := h.dispatcher.Process(ctx, cs)
	if err == nil {
		h.storeScriptsHash()
	}
	return report, err
}

// EnsureBuiltinResources creates any missing builtin material presets and
// the shared mask texture.
func (h *Hook) EnsureBuiltinResources(ctx context.Context) (*BootstrapResult, error) {
	if h.bootstrapper == nil {
		return nil, ErrBootstrapDisabled
	}
	return h.bootstrapper.EnsureBuiltinResources(ctx)
}

// PatchProjectFiles applies the project rule to every project descriptor
// in dir. Call it after the host regenerates its project files.
func (h *Hook) PatchProjectFiles(dir string) (*PatchReport, error) {
	return h.patcher.PatchAll(dir)
}

// Classify returns the asset kind of path.
func (h *Hook) Classify(ctx context.Context, path string) (Kind, bool) {
	return h.classifier.Classify(ctx, path)
}

// Assets lists ledger entries, all of them when kind is empty.
func (h *Hook) Assets(kind Kind) ([]*Asset, error) {
	if kind == "" {
		return h.store.AllAssets()
	}
	return h.store.AssetsByKind(string(kind))
}

// scriptsHash computes a SHA-256 over the path and source of every .risor
// script, in path order.
func (h *Hook) scriptsHash() string {
	var paths []string
	collect := func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return nil
		}
		if !d.IsDir() && strings.HasSuffix(path, ".risor") {
			paths = append(paths, path)
		}
		return nil
	}

	switch {
	case h.scriptsFS != nil:
		fs.WalkDir(h.scriptsFS, ".", collect)
	case h.scriptsDir != "":
		filepath.WalkDir(h.scriptsDir, func(path string, d fs.DirEntry, err error) error {
			if rel, relErr := filepath.Rel(h.scriptsDir, path); relErr == nil {
				path = rel
			}
			return collect(path, d, err)
		})
	}
	sort.Strings(paths)

	sum := sha256.New()
	for _, p := range paths {
		src, err := h.runtime.LoadScript(p)
		if err != nil {
			continue
		}
		sum.Write([]byte(p))
		sum.Write([]byte(src))
	}
	return fmt.Sprintf("%x", sum.Sum(nil))
}

// ScriptsChanged reports whether the handler scripts differ from those that
// last completed a change cycle against this ledger. True when no cycle has
// completed yet. When true, callers may want to clear the ledger and
// reimport.
func (h *Hook) ScriptsChanged() bool {
	stored, err := h.store.GetMetadata("scripts_hash")
	if err != nil || stored == "" {
		return true
	}
	return h.scriptsHash() != stored
}

func (h *Hook) storeScriptsHash() {
	if err := h.store.SetMetadata("scripts_hash", h.scriptsHash()); err != nil {
		h.logger.Printf("warning: storing scripts hash: %v", err)
	}
}
