// Package runtime runs asset handler scripts written in Risor.
//
// Each import or delete is handled by a script chosen by asset kind:
// import/<kind>.risor when present, otherwise import/default.risor (and the
// same under delete/). Scripts see the asset as the globals asset_path and
// asset_kind, plus host functions for the asset ledger.
package runtime

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log"
	"os"
	"path/filepath"
	"strings"

	"github.com/risor-io/risor"
	"github.com/risor-io/risor/importer"
	"github.com/risor-io/risor/object"

	"github.com/jward/assethook/internal/store"
)

// DefaultScript is the script name used when a kind has no script of its own.
const DefaultScript = "default"

// Runtime evaluates handler scripts against a Store.
type Runtime struct {
	store      *store.Store
	scriptsDir string
	fsys       fs.FS
	logger     *log.Logger
}

// Option configures a Runtime.
type Option func(*Runtime)

// WithScriptsFS loads scripts (and resolves Risor import statements) from
// fsys instead of scriptsDir.
func WithScriptsFS(fsys fs.FS) Option {
	return func(r *Runtime) {
		r.fsys = fsys
	}
}

// WithLogger sets the logger behind the scripts' log object. Default
// discards output.
func WithLogger(l *log.Logger) Option {
	return func(r *Runtime) {
		r.logger = l
	}
}

// NewRuntime creates a Runtime. s may be nil, in which case the ledger host
// functions are not defined.
func NewRuntime(s *store.Store, scriptsDir string, opts ...Option) *Runtime {
	r := &Runtime{
		store:      s,
		scriptsDir: scriptsDir,
		logger:     log.New(io.Discard, "", 0),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// RunScript loads and executes the script at scriptPath with the standard
// globals plus extraGlobals.
func (r *Runtime) RunScript(ctx context.Context, scriptPath string, extraGlobals map[string]any) error {
	src, err := r.LoadScript(scriptPath)
	if err != nil {
		return err
	}
	return r.eval(ctx, src, scriptPath, extraGlobals)
}

// RunSource executes Risor source with the standard globals plus
// extraGlobals.
func (r *Runtime) RunSource(ctx context.Context, source string, extraGlobals map[string]any) error {
	return r.eval(ctx, source, "<inline>", extraGlobals)
}

func (r *Runtime) eval(ctx context.Context, source, label string, extraGlobals map[string]any) error {
	globals := r.buildGlobals(extraGlobals)

	var opts []risor.Option
	for name, val := range globals {
		opts = append(opts, risor.WithGlobal(name, val))
	}
	if imp := r.buildImporter(globals); imp != nil {
		opts = append(opts, risor.WithImporter(imp))
	}

	if _, err := risor.Eval(ctx, source, opts...); err != nil {
		return fmt.Errorf("runtime: script %s: %w", label, err)
	}
	return nil
}

// buildImporter returns nil when there is nowhere to import from.
func (r *Runtime) buildImporter(globals map[string]any) importer.Importer {
	names := make([]string, 0, len(globals))
	for name := range globals {
		names = append(names, name)
	}

	switch {
	case r.fsys != nil:
		return importer.NewFSImporter(importer.FSImporterOptions{
			GlobalNames: names,
			SourceFS:    r.fsys,
			Extensions:  []string{".risor"},
		})
	case r.scriptsDir != "":
		return importer.NewLocalImporter(importer.LocalImporterOptions{
			GlobalNames: names,
			SourceDir:   r.scriptsDir,
			Extensions:  []string{".risor"},
		})
	}
	return nil
}

// LoadScript returns the source of the script at path, relative to the
// scripts FS or directory.
func (r *Runtime) LoadScript(path string) (string, error) {
	if r.fsys != nil {
		fsPath := strings.TrimPrefix(filepath.ToSlash(path), "/")
		data, err := fs.ReadFile(r.fsys, fsPath)
		if err != nil {
			return "", fmt.Errorf("runtime: loading script %s from fs: %w", fsPath, err)
		}
		return string(data), nil
	}

	fullPath := path
	if !filepath.IsAbs(path) {
		fullPath = filepath.Join(r.scriptsDir, path)
	}
	data, err := os.ReadFile(fullPath)
	if err != nil {
		return "", fmt.Errorf("runtime: loading script %s: %w", fullPath, err)
	}
	return string(data), nil
}

// ScriptExists reports whether a script is present at path.
func (r *Runtime) ScriptExists(path string) bool {
	if r.fsys != nil {
		_, err := fs.Stat(r.fsys, strings.TrimPrefix(filepath.ToSlash(path), "/"))
		return err == nil
	}
	if !filepath.IsAbs(path) {
		path = filepath.Join(r.scriptsDir, path)
	}
	_, err := os.Stat(path)
	return err == nil
}

// ImportScriptPath returns the path of the import script for kind.
func ImportScriptPath(kind string) string {
	return filepath.Join("import", kind+".risor")
}

// DeleteScriptPath returns the path of the delete script for kind.
func DeleteScriptPath(kind string) string {
	return filepath.Join("delete", kind+".risor")
}

// ErrNoScript is returned when neither a kind script nor the default script
// exists.
var ErrNoScript = errors.New("no handler script")

// resolveScript picks the kind-specific script, falling back to the default.
func (r *Runtime) resolveScript(scriptPath func(string) string, kind string) (string, error) {
	if p := scriptPath(kind); r.ScriptExists(p) {
		return p, nil
	}
	if p := scriptPath(DefaultScript); r.ScriptExists(p) {
		return p, nil
	}
	return "", fmt.Errorf("runtime: %s: %w", scriptPath(kind), ErrNoScript)
}

// buildGlobals constructs the globals exposed to every script.
func (r *Runtime) buildGlobals(extra map[string]any) map[string]any {
	globals := map[string]any{
		"log":       mustProxy(&logObject{prefix: "assethook", logger: r.logger}),
		"file_hash": makeFileHashFn(),
		"json_keys": makeJSONKeysFn(),
	}

	if r.store != nil {
		globals["record_asset"] = makeRecordAssetFn(r.store)
		globals["forget_asset"] = makeForgetAssetFn(r.store)
		globals["asset_by_path"] = makeAssetByPathFn(r.store)
		globals["assets_by_kind"] = makeAssetsByKindFn(r.store)
		globals["db_query"] = makeDBQueryFn(r.store)
	}

	for k, v := range extra {
		globals[k] = v
	}
	return globals
}

func mustProxy(v any) object.Object {
	p, err := object.NewProxy(v)
	if err != nil {
		panic(fmt.Sprintf("runtime: proxy error: %v", err))
	}
	return p
}

// logObject provides log.Info/Warn/Error to scripts.
type logObject struct {
	prefix string
	logger *log.Logger
}

func (l *logObject) Info(msg string) {
	l.logger.Printf("[%s] INFO: %s", l.prefix, msg)
}

func (l *logObject) Warn(msg string) {
	l.logger.Printf("[%s] WARN: %s", l.prefix, msg)
}

func (l *logObject) Error(msg string) {
	l.logger.Printf("[%s] ERROR: %s", l.prefix, msg)
}
