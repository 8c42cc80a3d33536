package runtime

import (
	"context"

	"github.com/jward/assethook/internal/assets"
)

// Handler imports and deletes assets of one kind by running that kind's
// scripts.
type Handler struct {
	rt   *Runtime
	kind assets.Kind
}

// NewHandler returns a script-backed handler for kind.
func (r *Runtime) NewHandler(kind assets.Kind) *Handler {
	return &Handler{rt: r, kind: kind}
}

// Import runs the import script for the handler's kind on path.
func (h *Handler) Import(ctx context.Context, path string) error {
	return h.run(ctx, ImportScriptPath, path)
}

// Delete runs the delete script for the handler's kind on path.
func (h *Handler) Delete(ctx context.Context, path string) error {
	return h.run(ctx, DeleteScriptPath, path)
}

func (h *Handler) run(ctx context.Context, scriptPath func(string) string, path string) error {
	script, err := h.rt.resolveScript(scriptPath, string(h.kind))
	if err != nil {
		return err
	}
	return h.rt.RunScript(ctx, script, map[string]any{
		"asset_path": path,
		"asset_kind": string(h.kind),
	})
}

// Registry builds a handler registry with a script-backed importer and
// deleter for each of kinds.
func (r *Runtime) Registry(kinds ...assets.Kind) *assets.Registry {
	importers := make(map[assets.Kind]assets.Importer, len(kinds))
	deleters := make(map[assets.Kind]assets.Deleter, len(kinds))
	for _, k := range kinds {
		h := r.NewHandler(k)
		importers[k] = h
		deleters[k] = h
	}
	return assets.NewRegistry(importers, deleters)
}
