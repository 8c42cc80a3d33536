// Package assethook is a post-processing hook for Live2D Cubism asset
// pipelines. The host calls it after each import pass and after it
// regenerates its build projects.
//
// # Change cycles
//
// [Hook.ProcessChangeSet] takes the paths the host imported, deleted and
// moved in one pass. It first makes sure the builtin render resources exist,
// then routes every imported path to the import handler for its asset kind
// and every deleted path to the delete handler. Paths without a handler are
// skipped. A handler that fails is reported without stopping the rest of the
// cycle. Moved paths are accepted and ignored.
//
//	h, err := assethook.New(".assethook.db", "",
//		assethook.WithScriptsFS(scripts.FS),
//		assethook.WithBootstrap("Assets", "Live2D"),
//	)
//	if err != nil { ... }
//	defer h.Close()
//
//	report, err := h.ProcessChangeSet(ctx, assethook.ChangeSet{
//		Imported: []string{"Assets/Hiyori/hiyori.model3.json"},
//	})
//
// # Asset kinds
//
// Kinds are decided by compound suffix (.model3.json, .moc3, .motion3.json,
// and so on). Plain .json and .bytes files are classified by content: the
// moc3 magic number or the top-level keys of a Cubism JSON document. A path
// keeps its first classification for the life of the Hook.
//
// # Builtin resources
//
// [Hook.EnsureBuiltinResources] finds the install root, the first directory
// in pre-order under the search root whose path contains the marker, and
// creates the seven material presets under
// Cubism/Rendering/Resources/Live2D/Cubism/Materials plus the shared
// GlobalMaskTexture. Existing files are never touched. By default an existing
// Materials directory means every preset exists; [WithGating] with
// [GatePerFile] checks each preset instead.
//
// # Project files
//
// [Hook.PatchProjectFiles] forces AllowUnsafeBlocks to true in every
// configuration-scoped PropertyGroup of the *.csproj files in a directory,
// skipping *Editor.csproj. Everything else in the file is kept as written.
//
// # Scripts
//
// Default handlers are Risor scripts:
//
//   - import/{kind}.risor, falling back to import/default.risor
//   - delete/{kind}.risor, falling back to delete/default.risor
//
// They record imports in a SQLite ledger and drop deleted assets from it.
// [WithRegistry] replaces them with Go handlers.
package assethook
