package main

import (
	"time"

	"github.com/jward/assethook"
)

// CLIResult is the top-level JSON envelope for all commands.
type CLIResult struct {
	Command    string `json:"command"`
	Results    any    `json:"results"`
	TotalCount *int   `json:"total_count,omitempty"`
	Error      string `json:"error,omitempty"`
}

// CLIChangeSet is the JSON form of a change set read by process --changes.
type CLIChangeSet struct {
	Imported  []string `json:"imported"`
	Deleted   []string `json:"deleted"`
	MovedTo   []string `json:"moved_to"`
	MovedFrom []string `json:"moved_from"`
}

// CLIBootstrap is a JSON-friendly bootstrap result.
type CLIBootstrap struct {
	InstallRoot         string   `json:"install_root"`
	ResourcesDir        string   `json:"resources_dir"`
	MaterialsDirCreated bool     `json:"materials_dir_created"`
	Created             []string `json:"created"`
	Skipped             []string `json:"skipped"`
}

// CLIFailure is one handler failure.
type CLIFailure struct {
	Op    string `json:"op"`
	Path  string `json:"path"`
	Error string `json:"error"`
}

// CLIProcessReport is a JSON-friendly change cycle report.
type CLIProcessReport struct {
	ID             string        `json:"id"`
	Bootstrap      *CLIBootstrap `json:"bootstrap,omitempty"`
	BootstrapError string        `json:"bootstrap_error,omitempty"`
	Imported       []string      `json:"imported"`
	Deleted        []string      `json:"deleted"`
	Ignored        []string      `json:"ignored"`
	Failures       []CLIFailure  `json:"failures"`
}

// CLIPatchReport is a JSON-friendly project patch report.
type CLIPatchReport struct {
	Patched   []string `json:"patched"`
	Unchanged []string `json:"unchanged"`
	Excluded  []string `json:"excluded"`
	Failed    []string `json:"failed"`
}

// CLIClassification is the kind of one path.
type CLIClassification struct {
	Path  string `json:"path"`
	Kind  string `json:"kind,omitempty"`
	Known bool   `json:"known"`
}

// CLIAsset is a JSON-friendly ledger row.
type CLIAsset struct {
	Path       string `json:"path"`
	Kind       string `json:"kind"`
	Hash       string `json:"hash"`
	Size       int64  `json:"size"`
	ImportedAt string `json:"imported_at"`
}

// nonNil keeps empty lists as [] rather than null in JSON output.
func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}

func toCLIBootstrap(r *assethook.BootstrapResult) *CLIBootstrap {
	if r == nil {
		return nil
	}
	return &CLIBootstrap{
		InstallRoot:         r.InstallRoot,
		ResourcesDir:        r.ResourcesDir,
		MaterialsDirCreated: r.MaterialsDirCreated,
		Created:             nonNil(r.Created),
		Skipped:             nonNil(r.Skipped),
	}
}

func toCLIProcessReport(r *assethook.Report) CLIProcessReport {
	out := CLIProcessReport{
		ID:        r.ID,
		Bootstrap: toCLIBootstrap(r.Bootstrap),
		Imported:  nonNil(r.Imported),
		Deleted:   nonNil(r.Deleted),
		Ignored:   nonNil(r.Ignored),
		Failures:  make([]CLIFailure, 0, len(r.Failures)),
	}
	if r.BootstrapErr != nil {
		out.BootstrapError = r.BootstrapErr.Error()
	}
	for _, f := range r.Failures {
		out.Failures = append(out.Failures, CLIFailure{Op: f.Op, Path: f.Path, Error: f.Err.Error()})
	}
	return out
}

func toCLIPatchReport(r *assethook.PatchReport) CLIPatchReport {
	return CLIPatchReport{
		Patched:   nonNil(r.Patched),
		Unchanged: nonNil(r.Unchanged),
		Excluded:  nonNil(r.Excluded),
		Failed:    nonNil(r.Failed),
	}
}

func toCLIAssets(list []*assethook.Asset) []CLIAsset {
	out := make([]CLIAsset, 0, len(list))
	for _, a := range list {
		out = append(out, CLIAsset{
			Path:       a.Path,
			Kind:       a.Kind,
			Hash:       a.Hash,
			Size:       a.Size,
			ImportedAt: a.ImportedAt.UTC().Format(time.RFC3339),
		})
	}
	return out
}
